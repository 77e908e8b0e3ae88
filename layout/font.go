package layout

// Font 是一份字体数据及其可选的度量信息。
// Metrics 与 Glyphs 缺失时，相应的对齐补偿与字体选择会被跳过。
type Font struct {
	Name    string       `json:"name"`
	Data    []byte       `json:"-"`
	Metrics *FontMetrics `json:"metrics,omitempty"`
	Glyphs  GlyphSet     `json:"-"`
}

// FontMetrics 以字体单位表示。Descender 为负值；CapTop 为参考字形（'T'）的 yMax。
type FontMetrics struct {
	Ascender  float64 `json:"ascender"`
	Descender float64 `json:"descender"`
	CapTop    float64 `json:"capTop"`
}

// GlyphSet 报告字体是否为某个字符提供字形。
type GlyphSet interface {
	HasGlyph(r rune) bool
}

// FontSpec 是单个字体或按脚本覆盖排列的备选字体组。
type FontSpec interface {
	// Select 返回最适合绘制 text 的字体，可能为 nil。
	Select(text string) *Font
	isFontSpec()
}

// Select 对单个字体直接返回自身。
func (f *Font) Select(string) *Font { return f }

func (*Font) isFontSpec() {}

// FontSet 是有序的备选字体组。
type FontSet []*Font

// Select 选出覆盖 text 中字符最多的字体；同数时取先出现者。
// 没有字形信息的字体不参与比较；全部缺失时退回第一个字体。
func (s FontSet) Select(text string) *Font {
	if len(s) == 0 {
		return nil
	}
	best, max := (*Font)(nil), -1
	for _, f := range s {
		if f == nil || f.Glyphs == nil {
			continue
		}
		n := 0
		for _, r := range text {
			if f.Glyphs.HasGlyph(r) {
				n++
			}
		}
		if n > max {
			best, max = f, n
		}
	}
	if best == nil {
		return s[0]
	}
	return best
}

func (FontSet) isFontSpec() {}

// capShift 计算主体部分的纵向偏移，使其大写字母顶部与货币符号、小数部分的顶部对齐。
// 没有度量信息时不做补偿。
func capShift(f *Font, baseHeight, mainHeight float64) float64 {
	if f == nil || f.Metrics == nil {
		return 0
	}
	m := f.Metrics
	line := m.Ascender - m.Descender
	if line <= 0 {
		return 0
	}
	top := m.Ascender - m.CapTop
	yBase := top * baseHeight / line
	yMain := top * mainHeight / line
	return yBase - yMain
}
