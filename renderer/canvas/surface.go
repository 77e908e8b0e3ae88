package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/placard/layout"
)

// faceSize 为字体面的名义字号。排版引擎按盒子缩放文本，只要求测量与绘制使用同一字体面。
const faceSize = 72.0

// outlineWidth 为调试外框的线宽（pt）。
const outlineWidth = 0.75

// surface 在 canvas.Context 上实现 layout.Surface，坐标单位为 pt。
type surface struct {
	ctx   *canvas.Context
	r     *Renderer
	state surfaceState
	stack []surfaceState
	// images 缓存本次渲染已解码的图片（背景图可能被多个字段共用）。
	images map[*layout.Image]image.Image
}

type surfaceState struct {
	fill layout.Color
	font *layout.Font
	face *canvas.FontFace
}

var _ layout.Surface = (*surface)(nil)

func newSurface(ctx *canvas.Context, r *Renderer) *surface {
	return &surface{
		ctx:    ctx,
		r:      r,
		state:  surfaceState{fill: layout.Black},
		images: map[*layout.Image]image.Image{},
	}
}

func (s *surface) Save() {
	s.stack = append(s.stack, s.state)
	s.ctx.Push()
}

func (s *surface) Restore() {
	n := len(s.stack)
	if n == 0 {
		return
	}
	s.state = s.stack[n-1]
	s.stack = s.stack[:n-1]
	s.ctx.Pop()
}

func (s *surface) Translate(dx, dy float64) { s.ctx.Translate(dx, dy) }
func (s *surface) Scale(sx, sy float64)     { s.ctx.Scale(sx, sy) }
func (s *surface) Rotate(deg float64)       { s.ctx.Rotate(deg) }

func (s *surface) SetFillColor(c layout.Color) {
	if c == s.state.fill {
		return
	}
	s.state.fill = c
	s.state.face = nil
}

func (s *surface) FillRect(x, y, w, h float64) {
	s.ctx.SetFillColor(colorFromLayout(s.state.fill))
	s.ctx.SetStrokeColor(canvas.Transparent)
	s.ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

func (s *surface) StrokeRect(x, y, w, h float64) {
	s.ctx.SetFillColor(canvas.Transparent)
	s.ctx.SetStrokeColor(colorFromLayout(s.state.fill))
	s.ctx.SetStrokeWidth(outlineWidth)
	s.ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

func (s *surface) SetFont(f *layout.Font) {
	if f == s.state.font {
		return
	}
	s.state.font = f
	s.state.face = nil
}

func (s *surface) TextWidth(text string) float64 {
	return s.face().TextWidth(text)
}

func (s *surface) LineHeight() float64 {
	return s.face().Metrics().LineHeight
}

// DrawText 的 y 为行顶部，基线位于顶部加上升部。
func (s *surface) DrawText(text string, x, y float64) {
	face := s.face()
	baseline := y + face.Metrics().Ascent
	s.ctx.DrawText(x, baseline, canvas.NewTextLine(face, text, canvas.Left))
}

// DrawImage 将图片放入 (x, y, w, h)。FitContain 等比缩放并居中，FitStretch 拉伸填满。
func (s *surface) DrawImage(img *layout.Image, x, y, w, h float64, fit layout.ImageFit) error {
	decoded, ok := s.images[img]
	if !ok {
		var err error
		if decoded, err = decodeImage(img); err != nil {
			return err
		}
		s.images[img] = decoded
	}
	b := decoded.Bounds()
	pw, ph := float64(b.Dx()), float64(b.Dy())
	if pw <= 0 || ph <= 0 {
		return fmt.Errorf("图片 %s 尺寸为 0", img.Name)
	}
	sx, sy := w/pw, h/ph
	if fit == layout.FitContain {
		scale := math.Min(sx, sy)
		x += (w - pw*scale) / 2
		y += (h - ph*scale) / 2
		sx, sy = scale, scale
	}
	s.ctx.Push()
	s.ctx.Translate(x, y)
	s.ctx.Scale(sx, sy)
	s.ctx.DrawImage(0, 0, decoded, canvas.DPMM(1.0))
	s.ctx.Pop()
	return nil
}

// face 按当前字体与填充色构建字体面；字体变化或颜色变化后重新构建。
func (s *surface) face() *canvas.FontFace {
	if s.state.face != nil {
		return s.state.face
	}
	family := s.r.family(s.state.font)
	s.state.face = family.Face(faceSize, colorFromLayout(s.state.fill), canvas.FontRegular, canvas.FontNormal)
	return s.state.face
}

func decodeImage(img *layout.Image) (image.Image, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("图片数据为空")
	}
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", img.Name, err)
	}
	return decoded, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
