package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// recordingSurface 记录所有绘制调用。每个字符宽 10，行高 12，与字体无关。
type recordingSurface struct {
	ops   []op
	font  *Font
	fonts []*Font
}

type op struct {
	name string
	args []float64
	text string
}

func (o op) String() string {
	parts := make([]string, 0, len(o.args)+2)
	parts = append(parts, o.name)
	if o.text != "" {
		parts = append(parts, o.text)
	}
	for _, a := range o.args {
		parts = append(parts, fmt.Sprintf("%g", math.Round(a*100)/100))
	}
	return strings.Join(parts, " ")
}

const (
	stubRuneWidth  = 10.0
	stubLineHeight = 12.0
)

func stubWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) * stubRuneWidth }

func (r *recordingSurface) record(name, text string, args ...float64) {
	r.ops = append(r.ops, op{name: name, args: args, text: text})
}

func (r *recordingSurface) Save() {
	r.fonts = append(r.fonts, r.font)
	r.record("save", "")
}

func (r *recordingSurface) Restore() {
	if n := len(r.fonts); n > 0 {
		r.font = r.fonts[n-1]
		r.fonts = r.fonts[:n-1]
	}
	r.record("restore", "")
}

func (r *recordingSurface) Translate(dx, dy float64) { r.record("translate", "", dx, dy) }
func (r *recordingSurface) Scale(sx, sy float64)     { r.record("scale", "", sx, sy) }
func (r *recordingSurface) Rotate(deg float64)       { r.record("rotate", "", deg) }

func (r *recordingSurface) SetFillColor(c Color) {
	r.record("fill", "", float64(c.R), float64(c.G), float64(c.B))
}

func (r *recordingSurface) FillRect(x, y, w, h float64)   { r.record("fillRect", "", x, y, w, h) }
func (r *recordingSurface) StrokeRect(x, y, w, h float64) { r.record("strokeRect", "", x, y, w, h) }

func (r *recordingSurface) SetFont(f *Font) {
	r.font = f
	r.record("font", f.Name)
}

func (r *recordingSurface) TextWidth(s string) float64 { return stubWidth(s) }
func (r *recordingSurface) LineHeight() float64        { return stubLineHeight }

func (r *recordingSurface) DrawText(s string, x, y float64) { r.record("text", s, x, y) }

func (r *recordingSurface) DrawImage(img *Image, x, y, w, h float64, fit ImageFit) error {
	if string(img.Data) == "broken" {
		return fmt.Errorf("decode %s: broken", img.Name)
	}
	r.record("image", img.Name, x, y, w, h, float64(fit))
	return nil
}

func (r *recordingSurface) texts() []string {
	var out []string
	for _, o := range r.ops {
		if o.name == "text" {
			out = append(out, o.text)
		}
	}
	return out
}

func (r *recordingSurface) count(name string) int {
	n := 0
	for _, o := range r.ops {
		if o.name == name {
			n++
		}
	}
	return n
}

func (r *recordingSurface) trace() string {
	lines := make([]string, 0, len(r.ops))
	for _, o := range r.ops {
		lines = append(lines, o.String())
	}
	return strings.Join(lines, "\n")
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// runeSet 是测试用的字形覆盖表。
type runeSet string

func (s runeSet) HasGlyph(r rune) bool { return strings.ContainsRune(string(s), r) }
