package fonts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseBuiltinFonts(t *testing.T) {
	for _, name := range BuiltinNames() {
		data, err := Load(BuiltinPrefix+name, "")
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		f, err := Parse(name, data)
		if err != nil {
			t.Fatalf("Parse(%s): %v", name, err)
		}
		m := f.Metrics
		if m == nil {
			t.Fatalf("%s: 缺少度量", name)
		}
		if !(m.Ascender > m.CapTop && m.CapTop > 0 && m.Descender < 0) {
			t.Fatalf("%s: 度量不合理 %+v", name, *m)
		}
	}
}

func TestGlyphCoverage(t *testing.T) {
	f := Default()
	if !f.Glyphs.HasGlyph('A') || !f.Glyphs.HasGlyph('$') {
		t.Fatalf("Go Regular 应覆盖 ASCII")
	}
	if f.Glyphs.HasGlyph('中') {
		t.Fatalf("Go Regular 不应覆盖汉字")
	}
	if Default() != f {
		t.Fatalf("Default 应返回同一实例")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("builtin:comic", ""); err == nil {
		t.Fatalf("未知内置字体应失败")
	}
	if _, err := Load("missing.ttf", t.TempDir()); err == nil {
		t.Fatalf("缺失文件应失败")
	}
	if _, err := Parse("junk", []byte("not a font")); err == nil {
		t.Fatalf("无效数据应失败")
	}
}

func TestLoadRelativePath(t *testing.T) {
	dir := t.TempDir()
	data, _ := Builtin("gomono")
	if err := os.WriteFile(filepath.Join(dir, "mono.ttf"), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load("mono.ttf", dir)
	if err != nil || len(got) != len(data) {
		t.Fatalf("相对路径读取失败: %v", err)
	}
}
