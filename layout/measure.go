package layout

// MeasureFunc 返回字符串在当前字体下的宽度。
type MeasureFunc func(s string) float64

// widthCache 在一次换行搜索期间缓存宽度，搜索会反复测量相同的子串。
type widthCache struct {
	measure MeasureFunc
	widths  map[string]float64
}

func newWidthCache(measure MeasureFunc) *widthCache {
	return &widthCache{measure: measure, widths: map[string]float64{}}
}

func (c *widthCache) width(s string) float64 {
	if w, ok := c.widths[s]; ok {
		return w
	}
	w := c.measure(s)
	c.widths[s] = w
	return w
}
