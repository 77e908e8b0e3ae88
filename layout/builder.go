package layout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/placard/dsl"
)

// DocumentMeta 来自 meta 段落，用于输出文件的文档信息。
type DocumentMeta struct {
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Creator  string   `json:"creator,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// TemplateSet 是一个模板文件构建后的结果，模板按声明顺序排列。
type TemplateSet struct {
	Meta      DocumentMeta
	Templates []*Template
	byName    map[string]*Template
}

// Lookup 按名称查找模板。
func (s *TemplateSet) Lookup(name string) (*Template, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.byName[name]
	return t, ok
}

// Names 返回模板名称（声明顺序）。
func (s *TemplateSet) Names() []string {
	names := make([]string, 0, len(s.Templates))
	for _, t := range s.Templates {
		names = append(names, t.Name)
	}
	return names
}

// FieldNames 合并所有模板中需要外部输入的 ID，按首次出现的顺序排列且不重复。
func (s *TemplateSet) FieldNames() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range s.Templates {
		for _, id := range t.Inputs() {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Inputs 返回模板中文本、价格字段所需的输入 ID（声明顺序，去重）。
func (t *Template) Inputs() []string {
	seen := map[string]bool{}
	var out []string
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Kind != KindText && f.Kind != KindPrice {
			continue
		}
		id := f.Input()
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// resourceSet 保存 resources 段落中已加载的字体、字体组与图片。
type resourceSet struct {
	fonts  map[string]FontSpec
	images map[string]*Image
}

// Build 根据 DSL AST 生成模板集合。字体与图片通过 opts.Assets 加载。
func Build(doc *dsl.Document, opts BuildOptions) (*TemplateSet, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}

	res, err := collectResources(doc, opts.Assets)
	if err != nil {
		return nil, err
	}

	set := &TemplateSet{
		Meta:   collectMeta(doc),
		byName: map[string]*Template{},
	}
	for _, section := range doc.Sections {
		if section.Template == nil {
			continue
		}
		tpl, err := buildTemplate(section.Template, res)
		if err != nil {
			return nil, err
		}
		if _, dup := set.byName[tpl.Name]; dup {
			return nil, fmt.Errorf("模板 %q 重复定义", tpl.Name)
		}
		set.byName[tpl.Name] = tpl
		set.Templates = append(set.Templates, tpl)
	}
	if len(set.Templates) == 0 {
		return nil, fmt.Errorf("文档中缺少 template 段落")
	}
	return set, nil
}

func collectResources(doc *dsl.Document, assets AssetLoader) (resourceSet, error) {
	res := resourceSet{
		fonts:  map[string]FontSpec{},
		images: map[string]*Image{},
	}
	for _, section := range doc.Sections {
		if section.Resources == nil {
			continue
		}
		for _, decl := range section.Resources.Decls {
			switch {
			case decl.Font != nil:
				name, src := sourceOf(decl.Font)
				if assets == nil {
					return res, fmt.Errorf("layout: 缺少资源加载器，无法加载字体 %s", name)
				}
				font, err := assets.LoadFont(name, src)
				if err != nil {
					return res, fmt.Errorf("加载字体 %s 失败（%s）: %w", name, decl.Font.Pos, err)
				}
				res.fonts[name] = font
			case decl.FontSet != nil:
				fs := decl.FontSet
				set := make(FontSet, 0, len(fs.Members))
				for _, member := range fs.Members {
					font, ok := res.fonts[member].(*Font)
					if !ok {
						return res, fmt.Errorf("字体组 %s 引用了未定义的字体 %s（%s）", fs.Name, member, fs.Pos)
					}
					set = append(set, font)
				}
				res.fonts[fs.Name] = set
			case decl.Image != nil:
				name, src := sourceOf(decl.Image)
				if assets == nil {
					return res, fmt.Errorf("layout: 缺少资源加载器，无法加载图片 %s", name)
				}
				img, err := assets.LoadImage(name, src)
				if err != nil {
					return res, fmt.Errorf("加载图片 %s 失败（%s）: %w", name, decl.Image.Pos, err)
				}
				res.images[name] = img
			}
		}
	}
	return res, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Creator: "Placard",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil {
			continue
		}
		for _, a := range section.Meta.Entries {
			switch strings.ToLower(a.Key) {
			case "title":
				meta.Title = a.Value.Text()
			case "author":
				meta.Author = a.Value.Text()
			case "subject":
				meta.Subject = a.Value.Text()
			case "creator":
				meta.Creator = a.Value.Text()
			case "keywords":
				meta.Keywords = valueToStringSlice(a.Value)
			}
		}
	}
	return meta
}

// sourceOf 返回资源名与 src；省略 src 时以名称作为来源。
func sourceOf(decl *dsl.SourceDecl) (string, string) {
	if v, ok := decl.Prop("src"); ok {
		return decl.Name, v.Text()
	}
	return decl.Name, decl.Name
}

func buildTemplate(section *dsl.TemplateSection, res resourceSet) (*Template, error) {
	tpl := &Template{Name: string(section.Name)}
	if tpl.Name == "" {
		return nil, fmt.Errorf("模板名称为空（%s）", section.Pos)
	}

	ids := map[string]bool{}
	for _, item := range section.Body {
		switch {
		case item.Assignment != nil:
			if err := applyTemplateKey(tpl, item.Assignment, res); err != nil {
				return nil, fmt.Errorf("模板 %q: %w", tpl.Name, err)
			}
		case item.Field != nil:
			f, err := buildField(item.Field, res)
			if err != nil {
				return nil, fmt.Errorf("模板 %q: %w", tpl.Name, err)
			}
			if ids[f.ID] {
				return nil, fmt.Errorf("模板 %q: 字段 %s 重复定义（%s）", tpl.Name, f.ID, item.Field.Pos)
			}
			ids[f.ID] = true
			tpl.Fields = append(tpl.Fields, f)
		}
	}

	if tpl.Width <= 0 || tpl.Height <= 0 {
		return nil, fmt.Errorf("模板 %q 尺寸无效: %gx%g", tpl.Name, tpl.Width, tpl.Height)
	}
	return tpl, nil
}

func applyTemplateKey(tpl *Template, a *dsl.Assignment, res resourceSet) error {
	var err error
	switch a.Key {
	case "width":
		tpl.Width, err = lengthValue(a.Value)
	case "height":
		tpl.Height, err = lengthValue(a.Value)
	case "font":
		tpl.Font, err = fontValue(a.Value, res)
	case "padX":
		tpl.PadX, err = lengthValue(a.Value)
	case "padY":
		tpl.PadY, err = lengthValue(a.Value)
	case "maxRatio":
		tpl.MaxRatio, err = optionalNumber(a.Value)
	case "maxHRatio":
		tpl.MaxHRatio, err = optionalNumber(a.Value)
	case "maxLength":
		tpl.MaxLength, err = lengthSpecValue(a.Value)
	case "color":
		tpl.Color, err = colorValue(a.Value)
	default:
		return fmt.Errorf("未知属性 %s", a.Key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a.Key, err)
	}
	return nil
}

func buildField(decl *dsl.FieldDecl, res resourceSet) (Field, error) {
	f := Field{ID: string(decl.ID)}
	if f.ID == "" {
		return f, fmt.Errorf("field 缺少 ID（%s）", decl.Pos)
	}

	edges := map[string]bool{}
	var texts []string
	for _, item := range decl.Body {
		if item.Text != nil {
			texts = append(texts, string(*item.Text))
			continue
		}
		a := item.Assignment
		if err := applyFieldKey(&f, a, res); err != nil {
			return f, fmt.Errorf("字段 %s: %s（%s）: %w", f.ID, a.Key, a.Pos, err)
		}
		edges[a.Key] = true
	}
	if len(texts) > 0 && f.Text == "" {
		f.Text = strings.Join(texts, " ")
	}
	for _, edge := range []string{"left", "right", "top", "bottom"} {
		if !edges[edge] {
			return f, fmt.Errorf("字段 %s 缺少 %s（%s）", f.ID, edge, decl.Pos)
		}
	}
	return f, nil
}

func applyFieldKey(f *Field, a *dsl.Assignment, res resourceSet) error {
	var err error
	v := a.Value
	switch a.Key {
	case "left":
		f.Left, err = coordValue(v)
	case "right":
		f.Right, err = coordValue(v)
	case "top":
		f.Top, err = coordValue(v)
	case "bottom":
		f.Bottom, err = coordValue(v)
	case "type":
		kind, ok := ParseFieldKind(v.Text())
		if !ok {
			return fmt.Errorf("未知字段类型 %q", v.Text())
		}
		f.Kind = kind
	case "inputId":
		f.InputID = v.Text()
	case "inverted":
		f.Inverted, err = boolValue(v)
	case "keepDecimal":
		f.KeepDecimal, err = boolValue(v)
	case "angle":
		f.Angle, err = numberValue(v)
	case "font":
		f.Font, err = fontValue(v, res)
	case "padX":
		f.PadX, err = optionalLength(v)
	case "padY":
		f.PadY, err = optionalLength(v)
	case "maxRatio":
		f.MaxRatio, err = optionalNumber(v)
	case "maxHRatio":
		f.MaxHRatio, err = optionalNumber(v)
	case "maxLength":
		f.MaxLength, err = lengthSpecValue(v)
	case "align":
		switch al := Align(v.Text()); al {
		case AlignCenter, AlignLeft, AlignRight:
			f.Align = al
		default:
			return fmt.Errorf("未知对齐方式 %q", al)
		}
	case "filter":
		name := v.Text()
		filter, ok := NamedFilter(name)
		if !ok {
			return fmt.Errorf("未知过滤器 %q", name)
		}
		f.Filter, f.FilterName = filter, name
	case "text":
		f.Text = v.Text()
	case "color":
		f.Color, err = colorValue(v)
	case "currency":
		f.Currency = v.Text()
	case "separator":
		f.Separator = v.Text()
	case "separatorPattern":
		f.SeparatorPattern, err = regexp.Compile(v.Text())
	case "mainHeight":
		f.MainHeight, err = lengthValue(v)
	case "mainWidth":
		f.MainWidth, err = lengthValue(v)
	case "mainShift":
		f.MainShift, err = lengthValue(v)
	case "background":
		name := v.Text()
		img, ok := res.images[name]
		if !ok {
			return fmt.Errorf("未定义的图片 %s", name)
		}
		f.Background = img
	default:
		return fmt.Errorf("未知属性")
	}
	return err
}

// coordValue 数值为字面坐标，字符串或标识符表达式（如 FIELD03.separator）为坐标表引用。
func coordValue(v *dsl.Value) (Coord, error) {
	if v == nil {
		return Coord{}, fmt.Errorf("缺少取值")
	}
	if v.Number != nil {
		n, err := lengthValue(v)
		return Num(n), err
	}
	ref := v.Text()
	if ref == "" {
		return Coord{}, fmt.Errorf("无法解析坐标")
	}
	if l, err := ParseLength(ref); err == nil {
		return Num(l.ToPT()), nil
	}
	return Ref(ref), nil
}

func lengthValue(v *dsl.Value) (float64, error) {
	l, err := ParseLength(v.Text())
	if err != nil {
		return 0, err
	}
	return l.ToPT(), nil
}

func numberValue(v *dsl.Value) (float64, error) {
	s := v.Text()
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析数值 %q", s)
	}
	return n, nil
}

func optionalLength(v *dsl.Value) (*float64, error) {
	n, err := lengthValue(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalNumber(v *dsl.Value) (*float64, error) {
	n, err := numberValue(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func boolValue(v *dsl.Value) (bool, error) {
	s := v.Text()
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("无法解析布尔值 %q", s)
	}
	return b, nil
}

// lengthSpecValue 接受单个数值或 [min, max] 区间。
func lengthSpecValue(v *dsl.Value) (LengthSpec, error) {
	if v != nil && v.Array != nil {
		if len(v.Array.Values) != 2 {
			return LengthSpec{}, fmt.Errorf("区间需要两个数值")
		}
		min, err := numberValue(v.Array.Values[0])
		if err != nil {
			return LengthSpec{}, err
		}
		max, err := numberValue(v.Array.Values[1])
		if err != nil {
			return LengthSpec{}, err
		}
		return Between(min, max), nil
	}
	n, err := numberValue(v)
	if err != nil {
		return LengthSpec{}, err
	}
	return Fixed(n), nil
}

func fontValue(v *dsl.Value, res resourceSet) (FontSpec, error) {
	name := v.Text()
	spec, ok := res.fonts[name]
	if !ok {
		return nil, fmt.Errorf("未定义的字体 %s", name)
	}
	return spec, nil
}

func colorValue(v *dsl.Value) (*Color, error) {
	c, err := ParseColor(v.Text())
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseColor 解析 #rgb、#rrggbb 或 #rrggbbaa（忽略透明度）。
func ParseColor(value string) (Color, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(value) {
	case 3:
		r := strings.Repeat(string(value[0]), 2)
		g := strings.Repeat(string(value[1]), 2)
		b := strings.Repeat(string(value[2]), 2)
		return hexColor(r, g, b)
	case 6, 8:
		return hexColor(value[0:2], value[2:4], value[4:6])
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func hexColor(r, g, b string) (Color, error) {
	var c Color
	for i, part := range []string{r, g, b} {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s%s%s 无法解析", r, g, b)
		}
		switch i {
		case 0:
			c.R = int(v)
		case 1:
			c.G = int(v)
		case 2:
			c.B = int(v)
		}
	}
	return c, nil
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := item.Text(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := val.Text(); s != "" {
		return []string{s}
	}
	return nil
}
