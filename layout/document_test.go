package layout

import (
	"bytes"
	"log"
	"reflect"
	"strings"
	"testing"
)

func box(id string, l, t, r, b float64) Field {
	return Field{ID: id, Left: Num(l), Top: Num(t), Right: Num(r), Bottom: Num(b)}
}

func render(t *testing.T, tpl *Template, values map[string]string, images []Image, opts RenderOptions) (*recordingSurface, *Result) {
	t.Helper()
	s := &recordingSurface{}
	res, err := RenderDocument(s, Request{Template: tpl, Values: values, Images: images, Options: opts})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return s, res
}

func TestRenderDocumentValidatesInput(t *testing.T) {
	if _, err := RenderDocument(nil, Request{Template: &Template{Width: 1, Height: 1}}); err == nil {
		t.Fatalf("缺少 Surface 时应失败")
	}
	if _, err := RenderDocument(&recordingSurface{}, Request{}); err == nil {
		t.Fatalf("缺少模板时应失败")
	}
	if _, err := RenderDocument(&recordingSurface{}, Request{Template: &Template{Width: 0, Height: 10}}); err == nil {
		t.Fatalf("尺寸为 0 时应失败")
	}
}

func TestRenderImagesUseSharedCursor(t *testing.T) {
	img1, img2 := box("IMG1", 0, 0, 100, 100), box("IMG2", 100, 0, 200, 100)
	img1.Kind, img2.Kind = KindImage, KindImage
	tpl := &Template{Width: 200, Height: 100, Fields: []Field{img1, img2}}
	images := []Image{
		{Name: "a", Data: []byte("a")},
		{Name: "b", Data: []byte("b")},
		{Name: "c", Data: []byte("c")},
	}
	s, res := render(t, tpl, nil, images, RenderOptions{})

	var drawn []string
	for _, o := range s.ops {
		if o.name == "image" {
			drawn = append(drawn, o.text)
		}
	}
	if !reflect.DeepEqual(drawn, []string{"a", "b"}) {
		t.Fatalf("图片使用顺序错误: %v", drawn)
	}
	if res.ImagesUsed != 2 {
		t.Fatalf("ImagesUsed = %d, want 2", res.ImagesUsed)
	}
	if p := res.Placements[1]; p.Image == nil || *p.Image != 1 {
		t.Fatalf("第二个图片字段应使用索引 1: %+v", p)
	}
}

func TestRenderImagesSkipExhaustedAndBroken(t *testing.T) {
	var fields []Field
	for i, id := range []string{"I0", "I1", "I2"} {
		f := box(id, float64(i)*10, 0, float64(i)*10+10, 10)
		f.Kind = KindImage
		fields = append(fields, f)
	}
	tpl := &Template{Width: 30, Height: 10, Fields: fields}
	var logs bytes.Buffer
	s, res := render(t, tpl, nil, []Image{{Name: "empty"}, {Name: "bad", Data: []byte("broken")}}, RenderOptions{
		Logger: log.New(&logs, "", 0),
	})
	if n := s.count("image"); n != 0 {
		t.Fatalf("不应绘制任何图片, got %d", n)
	}
	if res.ImagesUsed != 2 {
		t.Fatalf("空图片与损坏图片同样消耗游标, ImagesUsed = %d", res.ImagesUsed)
	}
	for _, p := range res.Placements {
		if p.Image != nil {
			t.Fatalf("字段 %s 不应记录图片", p.ID)
		}
	}
	if strings.Count(logs.String(), "[WARN]") != 2 {
		t.Fatalf("期望两条警告, got %q", logs.String())
	}
}

func TestRenderTextSingleLineCapsHorizontalScale(t *testing.T) {
	tpl := &Template{Width: 400, Height: 20, Fields: []Field{box("T", 0, 0, 400, 20)}}
	s, res := render(t, tpl, map[string]string{"T": "  ab "}, nil, RenderOptions{})
	p := res.Placements[0]
	if p.Text != "AB" || len(p.Lines) != 1 {
		t.Fatalf("文本未归一化: %+v", p)
	}
	scaleY := 20 / stubLineHeight
	if !approx(p.ScaleY, scaleY) || !approx(p.ScaleX, scaleY*defaultMaxHRatio) {
		t.Fatalf("横向缩放应被限制为纵向的 %g 倍: %g %g", defaultMaxHRatio, p.ScaleX, p.ScaleY)
	}
	// 居中：(400 - 20*scaleX) / 2
	want := "translate " + trimFloat((400-20*p.ScaleX)/2) + " 0"
	if !strings.Contains(s.trace(), want) {
		t.Fatalf("缺少居中平移 %q:\n%s", want, s.trace())
	}
}

func TestRenderTextMultiLineFillsBox(t *testing.T) {
	tpl := &Template{Width: 200, Height: 50, Fields: []Field{box("T", 0, 0, 200, 50)}}
	s, res := render(t, tpl, map[string]string{"T": "the quick brown fox"}, nil, RenderOptions{})
	p := res.Placements[0]
	if !reflect.DeepEqual(p.Lines, []string{"THE QUICK", "BROWN FOX"}) {
		t.Fatalf("换行错误: %q", p.Lines)
	}
	if !approx(p.ScaleX, 200.0/90.0) || !approx(p.ScaleY, 50.0/24.0) {
		t.Fatalf("多行应恰好填满盒子: %g %g", p.ScaleX, p.ScaleY)
	}
	if got := s.texts(); !reflect.DeepEqual(got, p.Lines) {
		t.Fatalf("绘制文本错误: %q", got)
	}
}

func TestRenderTextAppliesFilterAndTruncation(t *testing.T) {
	last, _ := NamedFilter("last")
	a := box("A", 0, 0, 100, 20)
	a.MaxLength = Fixed(5)
	b := box("B", 0, 20, 100, 40)
	b.InputID = "A"
	b.Filter = last
	tpl := &Template{Width: 100, Height: 40, Fields: []Field{a, b}}
	_, res := render(t, tpl, map[string]string{"A": "hello wonderful world"}, nil, RenderOptions{})
	if got := res.Placements[0].Text; got != "HELLO" {
		t.Fatalf("截断结果 %q, want HELLO", got)
	}
	if got := res.Placements[1].Text; got != "WORLD" {
		t.Fatalf("过滤结果 %q, want WORLD", got)
	}
}

func TestRenderTemplateMaxLengthIsSeeded(t *testing.T) {
	tpl := &Template{Width: 100, Height: 40, MaxLength: Between(2, 20), Fields: []Field{box("A", 0, 0, 100, 40)}}
	values := map[string]string{"A": "abcdefghijklmnopqrstuvwxyz"}
	s1, r1 := render(t, tpl, values, nil, RenderOptions{Seed: 42})
	s2, r2 := render(t, tpl, values, nil, RenderOptions{Seed: 42})
	if r1.Placements[0].Text != r2.Placements[0].Text || s1.trace() != s2.trace() {
		t.Fatalf("同一种子渲染结果不同")
	}
	want, _ := ResolveLength(Between(2, 20), NewRand(42))
	if n := len(r1.Placements[0].Text); n != int(want) {
		t.Fatalf("截断长度 %d, want %d", n, int(want))
	}
}

func TestRenderStaticInvertedRotatedField(t *testing.T) {
	f := box("S", 10, 20, 60, 70)
	f.Kind = KindStatic
	f.Text = "sale"
	f.Inverted = true
	f.Angle = -15
	tpl := &Template{Width: 100, Height: 100, Fields: []Field{f}}
	red := Color{R: 200}
	s, res := render(t, tpl, map[string]string{"S": "ignored"}, nil, RenderOptions{Color: &red, Debug: true})

	if res.Placements[0].Text != "SALE" {
		t.Fatalf("静态字段应使用自身文本: %q", res.Placements[0].Text)
	}
	trace := s.trace()
	wantSeq := []string{
		"translate 10 20",
		"rotate -15",
		"strokeRect 0 0 50 50",
		"fill 200 0 0",
		"fillRect 0 0 50 50",
		"fill 255 255 255",
		"text SALE",
	}
	pos := 0
	for _, w := range wantSeq {
		i := strings.Index(trace[pos:], w)
		if i < 0 {
			t.Fatalf("缺少或顺序错误 %q:\n%s", w, trace)
		}
		pos += i + len(w)
	}
	if s.count("save") != s.count("restore") {
		t.Fatalf("Save/Restore 不成对")
	}
}

func TestRenderSelectsFontByCoverage(t *testing.T) {
	latin := &Font{Name: "latin", Glyphs: runeSet("ABCDEFGHIJKLMNOPQRSTUVWXYZ ")}
	greek := &Font{Name: "greek", Glyphs: runeSet("ΑΒΓΔ ")}
	tpl := &Template{
		Width: 100, Height: 100,
		Font: FontSet{latin, greek},
		Fields: []Field{
			box("L", 0, 0, 100, 50),
			box("G", 0, 50, 100, 100),
		},
	}
	_, res := render(t, tpl, map[string]string{"L": "abc", "G": "αβγ"}, nil, RenderOptions{})
	if res.Placements[0].Font != "latin" || res.Placements[1].Font != "greek" {
		t.Fatalf("字体选择错误: %s %s", res.Placements[0].Font, res.Placements[1].Font)
	}
}

func TestRenderReportsSkippedFields(t *testing.T) {
	tpl := &Template{Name: "broken", Width: 100, Height: 100, Fields: []Field{
		{ID: "LOST", Left: Ref("NOWHERE.left"), Top: Num(0), Right: Num(10), Bottom: Num(10)},
		box("OK", 0, 0, 10, 10),
	}}
	var logs bytes.Buffer
	s, res := render(t, tpl, map[string]string{"OK": "x", "LOST": "y"}, nil, RenderOptions{Logger: log.New(&logs, "", 0)})
	if !reflect.DeepEqual(res.Skipped, []string{"LOST"}) {
		t.Fatalf("Skipped = %v", res.Skipped)
	}
	if !strings.Contains(logs.String(), "[WARN]") || !strings.Contains(logs.String(), "LOST") {
		t.Fatalf("缺少警告日志: %q", logs.String())
	}
	if got := s.texts(); !reflect.DeepEqual(got, []string{"X"}) {
		t.Fatalf("只应绘制 OK 字段: %q", got)
	}
}

func TestRenderEmptyTextDrawsNothing(t *testing.T) {
	tpl := &Template{Width: 100, Height: 100, Fields: []Field{box("A", 0, 0, 100, 100)}}
	s, res := render(t, tpl, map[string]string{"A": "   "}, nil, RenderOptions{})
	if s.count("text") != 0 || len(res.Placements) != 1 {
		t.Fatalf("空文本不应绘制:\n%s", s.trace())
	}
}

func TestRenderOptionPrecedence(t *testing.T) {
	pad, ratio := 3.0, 5.0
	f := box("A", 0, 0, 10, 10)
	f.PadX = &pad
	tpl := &Template{Width: 10, Height: 10, PadX: 1, PadY: 2, MaxRatio: &ratio, Fields: []Field{f}}
	o := resolveOptions(tpl, &tpl.Fields[0], RenderOptions{Color: &White}, drawMaxLengths(tpl, 0))
	if o.padX != 3 || o.padY != 2 || o.maxRatio != 5 || o.maxHRatio != defaultMaxHRatio {
		t.Fatalf("参数叠加错误: %+v", o)
	}
	if o.color != White || o.maxLength != defaultMaxLength || o.align != AlignCenter {
		t.Fatalf("默认值错误: %+v", o)
	}
}

func TestTemplateZeroRatiosApply(t *testing.T) {
	zero := 0.0
	tpl := &Template{Width: 10, Height: 10, MaxRatio: &zero, MaxHRatio: &zero, Fields: []Field{box("A", 0, 0, 10, 10)}}
	o := resolveOptions(tpl, &tpl.Fields[0], RenderOptions{}, nil)
	if o.maxRatio != 0 || o.maxHRatio != 0 {
		t.Fatalf("模板级显式的 0 应生效: maxRatio=%g maxHRatio=%g", o.maxRatio, o.maxHRatio)
	}

	tpl.MaxRatio, tpl.MaxHRatio = nil, nil
	o = resolveOptions(tpl, &tpl.Fields[0], RenderOptions{}, nil)
	if o.maxRatio != defaultMaxRatio || o.maxHRatio != defaultMaxHRatio {
		t.Fatalf("未设置时应使用默认值: %g %g", o.maxRatio, o.maxHRatio)
	}
}

func trimFloat(v float64) string {
	return op{args: []float64{v}}.String()[1:]
}
