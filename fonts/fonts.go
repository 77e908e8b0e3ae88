package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/placard/layout"
)

// BuiltinPrefix 标记内置字体来源，例如 "builtin:gobold"。
const BuiltinPrefix = "builtin:"

var builtin = map[string][]byte{
	"goregular":    goregular.TTF,
	"gobold":       gobold.TTF,
	"goitalic":     goitalic.TTF,
	"gobolditalic": gobolditalic.TTF,
	"gomedium":     gomedium.TTF,
	"gomono":       gomono.TTF,
	"gomonobold":   gomonobold.TTF,
	"gosmallcaps":  gosmallcaps.TTF,
}

// Builtin 返回内置字体数据。
func Builtin(name string) ([]byte, bool) {
	data, ok := builtin[strings.TrimPrefix(name, BuiltinPrefix)]
	return data, ok
}

// BuiltinNames 返回全部内置字体名（已排序）。
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load 读取字体数据：builtin: 前缀取内置字体，其余视为文件路径（相对路径基于 baseDir）。
func Load(src, baseDir string) ([]byte, error) {
	if strings.HasPrefix(src, BuiltinPrefix) {
		data, ok := Builtin(src)
		if !ok {
			return nil, fmt.Errorf("未知的内置字体 %s，可用：%s", src, strings.Join(BuiltinNames(), ", "))
		}
		return data, nil
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}

// Parse 解析 TrueType/OpenType 数据，附带度量与字形覆盖信息。
// 度量读取失败时 Metrics 为 nil，字体仍可使用。
func Parse(name string, data []byte) (*layout.Font, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
	}
	return &layout.Font{
		Name:    name,
		Data:    data,
		Metrics: metrics(f),
		Glyphs:  glyphSet{f: f},
	}, nil
}

var (
	defaultOnce sync.Once
	defaultFont *layout.Font
)

// Default 返回 Go Regular，用于未指定字体的字段。
func Default() *layout.Font {
	defaultOnce.Do(func() {
		f, err := Parse("goregular", goregular.TTF)
		if err != nil {
			panic(err)
		}
		defaultFont = f
	})
	return defaultFont
}

// metrics 以字体单位读取上升、下降与大写 'T' 的顶部。
func metrics(f *sfnt.Font) *layout.FontMetrics {
	var b sfnt.Buffer
	// ppem 取 unitsPerEm，结果即为字体单位。
	ppem := fixed.Int26_6(f.UnitsPerEm()) << 6
	m, err := f.Metrics(&b, ppem, font.HintingNone)
	if err != nil {
		return nil
	}
	out := &layout.FontMetrics{
		Ascender:  unitsOf(m.Ascent),
		Descender: -unitsOf(m.Descent),
		CapTop:    unitsOf(m.CapHeight),
	}
	if gi, err := f.GlyphIndex(&b, 'T'); err == nil && gi != 0 {
		if bounds, _, err := f.GlyphBounds(&b, gi, ppem, font.HintingNone); err == nil {
			// y 轴向下，顶部为 -Min.Y。
			out.CapTop = -unitsOf(bounds.Min.Y)
		}
	}
	return out
}

func unitsOf(v fixed.Int26_6) float64 { return float64(v) / 64 }

// glyphSet 通过 cmap 判断字形覆盖。
type glyphSet struct {
	f *sfnt.Font
}

func (g glyphSet) HasGlyph(r rune) bool {
	gi, err := g.f.GlyphIndex(nil, r)
	return err == nil && gi != 0
}
