package layout

import (
	"log"
	"regexp"
)

// BuildOptions 配置模板构建阶段所需的依赖，例如字体与图片的加载后端。
type BuildOptions struct {
	Assets AssetLoader
}

// AssetLoader 负责把 DSL 中的 src 解析为字体与图片数据。
type AssetLoader interface {
	LoadFont(name, src string) (*Font, error)
	LoadImage(name, src string) (*Image, error)
}

// Surface 是排版引擎使用的矢量绘图面。
// 坐标单位与模板一致（pt），状态（变换、填充色、字体）由 Save/Restore 成对保存与恢复。
type Surface interface {
	Save()
	Restore()
	Translate(dx, dy float64)
	Scale(sx, sy float64)
	// Rotate 以度为单位，y 轴向下时为顺时针。
	Rotate(deg float64)

	SetFillColor(c Color)
	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)

	SetFont(f *Font)
	TextWidth(s string) float64
	LineHeight() float64
	// DrawText 在 (x, y) 处绘制一行文本，y 为行顶部。
	DrawText(s string, x, y float64)
	DrawImage(img *Image, x, y, w, h float64, fit ImageFit) error
}

// RenderOptions 是调用方在渲染时提供的全局选项，优先级低于模板与字段。
type RenderOptions struct {
	Seed int64
	// Color 为前景色；反色字段用它填充背景。nil 为黑色。
	Color *Color
	// Debug 为每个字段绘制外框（以及价格字段的主体高度框）。
	Debug  bool
	Logger *log.Logger
}

func (o RenderOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

const (
	defaultMaxRatio  = 2.0
	defaultMaxHRatio = 4.0
	defaultMaxLength = 100.0
	defaultCurrency  = "$"
	defaultSeparator = "."
)

// fieldOptions 是字段最终生效的参数。
// 叠加顺序：内置默认值 < RenderOptions < Template < Field。
type fieldOptions struct {
	kind      FieldKind
	input     string
	padX      float64
	padY      float64
	maxRatio  float64
	maxHRatio float64
	maxLength float64 // 0 表示不截断
	align     Align
	font      FontSpec
	color     Color
	filter    Filter

	currency   string
	separator  string
	sepPattern *regexp.Regexp
	mainHeight float64
	mainWidth  float64
	mainShift  float64
	inferDec   bool
}

// resolveOptions 合并默认值、调用选项、模板与字段设置。lengths 为本次渲染抽取的最大长度。
func resolveOptions(tpl *Template, f *Field, ro RenderOptions, lengths *maxLengths) fieldOptions {
	o := fieldOptions{
		kind:      f.Kind,
		input:     f.Input(),
		maxRatio:  defaultMaxRatio,
		maxHRatio: defaultMaxHRatio,
		maxLength: defaultMaxLength,
		align:     AlignCenter,
		currency:  defaultCurrency,
		separator: defaultSeparator,
		color:     Black,
	}
	if ro.Color != nil {
		o.color = *ro.Color
	}

	o.padX, o.padY = tpl.PadX, tpl.PadY
	if tpl.MaxRatio != nil {
		o.maxRatio = *tpl.MaxRatio
	}
	if tpl.MaxHRatio != nil {
		o.maxHRatio = *tpl.MaxHRatio
	}
	o.font = tpl.Font
	if tpl.Color != nil {
		o.color = *tpl.Color
	}
	if v, ok := lengths.template(); ok {
		o.maxLength = v
	}

	if f.PadX != nil {
		o.padX = *f.PadX
	}
	if f.PadY != nil {
		o.padY = *f.PadY
	}
	if f.MaxRatio != nil {
		o.maxRatio = *f.MaxRatio
	}
	if f.MaxHRatio != nil {
		o.maxHRatio = *f.MaxHRatio
	}
	if v, ok := lengths.field(f.ID); ok {
		o.maxLength = v
	}
	if f.Font != nil {
		o.font = f.Font
	}
	if f.Align != "" {
		o.align = f.Align
	}
	if f.Color != nil {
		o.color = *f.Color
	}
	o.filter = f.Filter
	if f.Currency != "" {
		o.currency = f.Currency
	}
	if f.Separator != "" {
		o.separator = f.Separator
	}
	o.sepPattern = f.SeparatorPattern
	o.mainHeight = f.MainHeight
	o.mainWidth = f.MainWidth
	o.mainShift = f.MainShift
	o.inferDec = !f.KeepDecimal
	return o
}
