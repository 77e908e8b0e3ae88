package layout

import (
	"math"
	"regexp"
)

// 该文件定义模板、字段与渲染结果，供构建、排版、渲染与调试 JSON 共用。

// Template 描述一张招牌页面：页面尺寸（pt）、默认字体与排版参数，以及按声明顺序排列的字段。
type Template struct {
	Name   string   `json:"name"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Font   FontSpec `json:"-"`
	PadX   float64  `json:"padX"`
	PadY   float64  `json:"padY"`
	// MaxRatio 与 MaxHRatio 为 nil 时使用默认值；与字段级一致，显式的 0 也会生效。
	MaxRatio  *float64   `json:"maxRatio,omitempty"`
	MaxHRatio *float64   `json:"maxHRatio,omitempty"`
	MaxLength LengthSpec `json:"maxLength"`
	// Color 覆盖调用方给出的前景色。
	Color  *Color  `json:"color,omitempty"`
	Fields []Field `json:"fields"`
}

// FieldKind 字段类型。
type FieldKind int

const (
	KindText FieldKind = iota
	KindPrice
	KindImage
	KindStatic
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPrice:
		return "price"
	case KindImage:
		return "image"
	case KindStatic:
		return "static"
	default:
		return "unknown"
	}
}

// ParseFieldKind 将 DSL 中的类型名转换为 FieldKind，空字符串视为 text。
func ParseFieldKind(s string) (FieldKind, bool) {
	switch s {
	case "", "text":
		return KindText, true
	case "price":
		return KindPrice, true
	case "image":
		return KindImage, true
	case "static":
		return KindStatic, true
	default:
		return KindText, false
	}
}

// Align 多行与单行文本的水平对齐方式。
type Align string

const (
	AlignCenter Align = "center"
	AlignLeft   Align = "left"
	AlignRight  Align = "right"
)

// Field 是模板中的一个矩形内容区域。
// 可选的覆盖项以指针表示，nil 表示沿用模板或默认值。
type Field struct {
	ID     string    `json:"id"`
	Left   Coord     `json:"left"`
	Right  Coord     `json:"right"`
	Top    Coord     `json:"top"`
	Bottom Coord     `json:"bottom"`
	Kind   FieldKind `json:"kind"`

	// InputID 为空时使用字段自身的 ID。
	InputID  string  `json:"inputId,omitempty"`
	Inverted bool    `json:"inverted,omitempty"`
	Angle    float64 `json:"angle,omitempty"`

	Font      FontSpec   `json:"-"`
	PadX      *float64   `json:"padX,omitempty"`
	PadY      *float64   `json:"padY,omitempty"`
	MaxRatio  *float64   `json:"maxRatio,omitempty"`
	MaxHRatio *float64   `json:"maxHRatio,omitempty"`
	MaxLength LengthSpec `json:"maxLength"`
	Align     Align      `json:"align,omitempty"`
	Color     *Color     `json:"color,omitempty"`
	Filter    Filter     `json:"-"`
	// FilterName 为 DSL 中的过滤器名，仅用于调试输出与缓存键。
	FilterName string `json:"filter,omitempty"`

	// static
	Text string `json:"text,omitempty"`

	// price
	Currency         string         `json:"currency,omitempty"`
	Separator        string         `json:"separator,omitempty"`
	SeparatorPattern *regexp.Regexp `json:"-"`
	MainHeight       float64        `json:"mainHeight,omitempty"`
	MainWidth        float64        `json:"mainWidth,omitempty"`
	MainShift        float64        `json:"mainShift,omitempty"`
	// KeepDecimal 关闭"无分隔符时取主体末两位作为小数"的推断。
	KeepDecimal bool `json:"keepDecimal,omitempty"`

	Background *Image `json:"-"`
}

// Input 返回取值所用的输入 ID。
func (f *Field) Input() string {
	if f.InputID != "" {
		return f.InputID
	}
	return f.ID
}

// Coord 是字段几何坐标：字面数值，或对坐标表的符号引用（"width"、"<id>.left" 等）。
type Coord struct {
	Value float64 `json:"value,omitempty"`
	Ref   string  `json:"ref,omitempty"`
}

// Num 构造字面坐标。
func Num(v float64) Coord { return Coord{Value: v} }

// Ref 构造引用坐标。
func Ref(key string) Coord { return Coord{Ref: key} }

// IsRef 判断坐标是否为符号引用。
func (c Coord) IsRef() bool { return c.Ref != "" }

// LengthSpec 描述最大长度：未设置、固定值或 [Min, Max] 随机区间。
type LengthSpec struct {
	Set   bool    `json:"set,omitempty"`
	Range bool    `json:"range,omitempty"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
}

// Fixed 返回固定长度。
func Fixed(n float64) LengthSpec { return LengthSpec{Set: true, Min: n, Max: n} }

// Between 返回 [min, max] 随机区间。
func Between(min, max float64) LengthSpec {
	return LengthSpec{Set: true, Range: true, Min: min, Max: max}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Image 是外部提供的图片数据。
type Image struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
	MIME string `json:"mime,omitempty"`
}

// ImageFit 控制图片在盒子中的放置方式。
type ImageFit int

const (
	// FitContain 等比缩放并居中。
	FitContain ImageFit = iota
	// FitStretch 拉伸填满盒子。
	FitStretch
)

// Coordinates 即已解析坐标表，key 为 "width"、"<id>.left"、"<id>.separator" 等。
// 单次渲染内只增不减。
type Coordinates map[string]float64

// FitResult 是换行搜索的结果。Width 为各行最大宽度，不可行时为 +Inf。
type FitResult struct {
	Lines []string `json:"lines"`
	Width float64  `json:"width"`
}

// Feasible 报告结果是否可用。
func (f FitResult) Feasible() bool { return !math.IsInf(f.Width, 1) && len(f.Lines) > 0 }

// Result 是一次文档渲染的记录，可输出为调试 JSON。
type Result struct {
	Template    string      `json:"template"`
	Seed        int64       `json:"seed"`
	Coordinates Coordinates `json:"coordinates"`
	Placements  []Placement `json:"placements"`
	// Skipped 为坐标无法解析、被跳过的字段 ID（按声明顺序）。
	Skipped    []string `json:"skipped,omitempty"`
	ImagesUsed int      `json:"imagesUsed"`
}

// Placement 记录一个已渲染字段的盒子与排版决策。
type Placement struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Pass   int       `json:"pass"`
	Left   float64   `json:"left"`
	Top    float64   `json:"top"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Font   string    `json:"font,omitempty"`
	Text   string    `json:"text,omitempty"`
	Lines  []string  `json:"lines,omitempty"`
	ScaleX float64   `json:"scaleX,omitempty"`
	ScaleY float64   `json:"scaleY,omitempty"`
	Price  *PriceBox `json:"price,omitempty"`
	Image  *int      `json:"image,omitempty"`
}

// PriceBox 记录价格字段拆分后的三个部分。
type PriceBox struct {
	Currency string `json:"currency"`
	Main     string `json:"main"`
	Decimal  string `json:"decimal"`
}
