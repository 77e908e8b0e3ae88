package layout

import (
	"math"
)

// docRenderer 保存一次文档渲染的状态：坐标表由 Resolve 持有，这里只保存图片游标与记录。
type docRenderer struct {
	s       Surface
	req     *Request
	lengths *maxLengths
	result  *Result
	// nextImage 为所有图片字段共享的游标，每个图片字段前进一次。
	nextImage int
}

func (r *docRenderer) renderField(f *Field, b Box, pass int, coords Coordinates) {
	tpl := r.req.Template
	o := resolveOptions(tpl, f, r.req.Options, r.lengths)
	w, h := b.Width(), b.Height()
	p := Placement{
		ID:     f.ID,
		Kind:   o.kind.String(),
		Pass:   pass,
		Left:   b.Left,
		Top:    b.Top,
		Width:  w,
		Height: h,
	}

	s := r.s
	s.Save()
	defer s.Restore()

	s.Translate(b.Left, b.Top)
	if f.Angle != 0 {
		s.Rotate(f.Angle)
	}

	if r.req.Options.Debug {
		s.StrokeRect(0, 0, w, h)
		if o.mainHeight > 0 {
			s.StrokeRect(0, 0, w, o.mainHeight)
		}
	}

	if f.Inverted {
		// 前景色填充背景，文字反白。
		s.SetFillColor(o.color)
		s.FillRect(0, 0, w, h)
		s.SetFillColor(White)
	} else {
		s.SetFillColor(o.color)
	}
	if f.Background != nil {
		if err := s.DrawImage(f.Background, 0, 0, w, h, FitStretch); err != nil {
			r.req.Options.logger().Printf("[WARN] field %s: background image %s: %v", f.ID, f.Background.Name, err)
		}
	}

	switch o.kind {
	case KindImage:
		r.drawImage(f, w, h, &p)
	case KindText, KindStatic:
		if text, _, ok := r.beginText(f, o, &p); ok {
			r.drawText(o, text, w, h, &p)
		}
	case KindPrice:
		if text, font, ok := r.beginText(f, o, &p); ok {
			r.drawPrice(f, o, text, font, b, coords, &p)
		}
	}

	r.result.Placements = append(r.result.Placements, p)
}

// beginText 取值、归一化、过滤并截断字段文本；文本非空时平移到内边距原点并选择字体。
// 返回选中的字体（未配置字体时为 nil），每次字段渲染只选择一次。
func (r *docRenderer) beginText(f *Field, o fieldOptions, p *Placement) (string, *Font, bool) {
	raw := f.Text
	if o.kind != KindStatic {
		raw = r.req.Values[o.input]
	}
	text := prepareText(raw, o)
	p.Text = text
	if text == "" {
		return "", nil, false
	}

	r.s.Translate(o.padX, o.padY)
	var font *Font
	if o.font != nil {
		if font = o.font.Select(text); font != nil {
			r.s.SetFont(font)
			p.Font = font.Name
		}
	}
	return text, font, true
}

// drawText 绘制普通文本：多行时两个方向恰好填满盒子，单行时横向缩放不超过纵向的 maxHRatio 倍。
func (r *docRenderer) drawText(o fieldOptions, text string, w, h float64, p *Placement) {
	s := r.s
	words := splitWords(text)
	if len(words) == 0 {
		return
	}
	opts := WrapOptions{
		Width:      w - o.padX*2,
		Height:     h - o.padY*2,
		MaxRatio:   o.maxRatio,
		LineHeight: s.LineHeight(),
	}
	fit := WrapText(s.TextWidth, words, 1, opts)
	if !fit.Feasible() {
		return
	}
	p.Lines = fit.Lines

	if len(fit.Lines) > 1 {
		scaleX := opts.Width / fit.Width
		scaleY := opts.Height / (opts.LineHeight * float64(len(fit.Lines)))
		if !usableScale(scaleX, scaleY) {
			return
		}
		p.ScaleX, p.ScaleY = scaleX, scaleY
		s.Scale(scaleX, scaleY)
		y := 0.0
		for _, line := range fit.Lines {
			x := alignOffset(fit.Width, s.TextWidth(line), o.align)
			s.DrawText(line, x, y)
			y += opts.LineHeight
		}
		return
	}

	line := fit.Lines[0]
	lineWidth := s.TextWidth(line)
	scaleX := opts.Width / lineWidth
	scaleY := opts.Height / opts.LineHeight
	if scaleX > scaleY*o.maxHRatio {
		scaleX = scaleY * o.maxHRatio
	}
	if !usableScale(scaleX, scaleY) {
		return
	}
	p.ScaleX, p.ScaleY = scaleX, scaleY
	s.Translate(alignOffset(opts.Width, lineWidth*scaleX, o.align), 0)
	s.Scale(scaleX, scaleY)
	s.DrawText(line, 0, 0)
}

// drawImage 绘制下一张未使用的图片；列表用尽或图片损坏时跳过，不影响其余字段。
func (r *docRenderer) drawImage(f *Field, w, h float64, p *Placement) {
	images := r.req.Images
	if r.nextImage >= len(images) {
		return
	}
	idx := r.nextImage
	r.nextImage++
	r.result.ImagesUsed = r.nextImage

	img := &images[idx]
	if len(img.Data) == 0 {
		r.req.Options.logger().Printf("[WARN] field %s: image %d (%s) has no data", f.ID, idx, img.Name)
		return
	}
	if err := r.s.DrawImage(img, 0, 0, w, h, FitContain); err != nil {
		r.req.Options.logger().Printf("[WARN] field %s: image %d (%s): %v", f.ID, idx, img.Name, err)
		return
	}
	p.Image = &idx
}

// alignOffset 计算宽度为 width 的内容在 container 中的横向偏移。
func alignOffset(container, width float64, align Align) float64 {
	switch align {
	case AlignLeft:
		return 0
	case AlignRight:
		return container - width
	default:
		return (container - width) / 2
	}
}

// usableScale 过滤由 0 宽度或不可行换行产生的 NaN/Inf/0 缩放。
func usableScale(vals ...float64) bool {
	for _, v := range vals {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
