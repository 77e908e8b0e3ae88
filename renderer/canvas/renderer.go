package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/placard/fonts"
	"github.com/ByLCY/placard/layout"
	"github.com/ByLCY/placard/renderer"
)

const defaultDPI = 150.0

// Renderer draws sign templates via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string
	format  renderer.Format
	dpi     float64
	meta    layout.DocumentMeta
	logger  *log.Logger

	fontMu         sync.Mutex
	fontFamilies   map[*layout.Font]*canvas.FontFamily
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer  = (*Renderer)(nil)
	_ layout.AssetLoader = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 用于解析模板中的相对资源路径。
	BaseDir string
	Format  renderer.Format
	// DPI 仅用于 PNG 输出。
	DPI    float64
	Meta   layout.DocumentMeta
	Logger *log.Logger
}

// NewRenderer creates a PDF renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with the given output format and document info.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		format:       opts.Format,
		dpi:          opts.DPI,
		meta:         opts.Meta,
		logger:       opts.Logger,
		fontFamilies: map[*layout.Font]*canvas.FontFamily{},
	}
	if r.format == "" {
		r.format = renderer.FormatPDF
	}
	if r.dpi <= 0 {
		r.dpi = defaultDPI
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Format 返回输出格式。
func (r *Renderer) Format() renderer.Format { return r.format }

// CacheKey 返回格式及该格式下影响输出的配置：PNG 取 DPI，PDF 取文档信息。
func (r *Renderer) CacheKey() string {
	key := "format=" + string(r.format)
	switch r.format {
	case renderer.FormatPNG:
		key += fmt.Sprintf(" dpi=%g", r.dpi)
	case renderer.FormatPDF:
		m := r.meta
		key += fmt.Sprintf(" title=%q subject=%q author=%q creator=%q keywords=%q",
			m.Title, m.Subject, m.Author, m.Creator, m.Keywords)
	}
	return key
}

// SetMeta 更新 PDF 文档信息，模板文件重新加载后调用。
func (r *Renderer) SetMeta(meta layout.DocumentMeta) { r.meta = meta }

// Render 在一张与模板同尺寸的画布上绘制全部字段并编码为目标格式。
func (r *Renderer) Render(ctx context.Context, req layout.Request) (*renderer.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl := req.Template
	if tpl == nil {
		return nil, fmt.Errorf("模板为空")
	}
	if req.Options.Logger == nil {
		req.Options.Logger = r.logger
	}

	// 画布以 mm 为单位，根变换缩放到 pt，使坐标与模板保持左上角为原点。
	width := layout.Length{Value: tpl.Width, Unit: layout.UnitPT}.ToMM()
	height := layout.Length{Value: tpl.Height, Unit: layout.UnitPT}.ToMM()
	c := canvas.New(width, height)
	cctx := canvas.NewContext(c)
	cctx.SetCoordSystem(canvas.CartesianIV)
	cctx.SetFillColor(canvas.White)
	cctx.DrawPath(0, 0, canvas.Rectangle(width, height))
	cctx.Scale(layout.PtToMm, layout.PtToMm)

	res, err := layout.RenderDocument(newSurface(cctx, r), req)
	if err != nil {
		return nil, err
	}

	data, err := r.encode(c, width, height)
	if err != nil {
		return nil, err
	}
	return &renderer.Output{Format: r.format, Data: data, Result: res}, nil
}

func (r *Renderer) encode(c *canvas.Canvas, width, height float64) ([]byte, error) {
	var buf bytes.Buffer
	switch r.format {
	case renderer.FormatPDF:
		writer := pdf.New(&buf, width, height, nil)
		r.applyMeta(writer)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case renderer.FormatSVG:
		if err := c.Write(&buf, renderers.SVG()); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case renderer.FormatPNG:
		if err := c.Write(&buf, renderers.PNG(canvas.DPMM(r.dpi/25.4))); err != nil {
			return nil, fmt.Errorf("写入 PNG 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", r.format)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF) {
	if writer == nil {
		return
	}
	meta := r.meta
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// LoadFont 实现 layout.AssetLoader：builtin: 前缀为内置 Go 字体，其余为相对 baseDir 的路径。
func (r *Renderer) LoadFont(name, src string) (*layout.Font, error) {
	data, err := fonts.Load(src, r.baseDir)
	if err != nil {
		return nil, err
	}
	return fonts.Parse(name, data)
}

// LoadImage 实现 layout.AssetLoader，读取并校验图片文件。
func (r *Renderer) LoadImage(name, src string) (*layout.Image, error) {
	img, err := r.ReadImage(src)
	if err != nil {
		return nil, err
	}
	img.Name = name
	return img, nil
}

// ReadImage 读取图片文件，校验可以解码。
func (r *Renderer) ReadImage(src string) (*layout.Image, error) {
	path := src
	if !filepath.IsAbs(path) {
		if r.baseDir == "" {
			return nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s", src)
		}
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", src, err)
	}
	return &layout.Image{
		Name: filepath.Base(src),
		Data: data,
		MIME: http.DetectContentType(data),
	}, nil
}

// family 返回字体对应的字体族；加载失败或未指定字体时使用 Go Regular。
func (r *Renderer) family(font *layout.Font) *canvas.FontFamily {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if font == nil {
		return r.fallback()
	}
	if family, ok := r.fontFamilies[font]; ok {
		return family
	}
	family := canvas.NewFontFamily(font.Name)
	if err := family.LoadFont(font.Data, 0, canvas.FontRegular); err != nil {
		r.logger.Printf("[WARN] font %s: %v, using fallback", font.Name, err)
		family = r.fallback()
	}
	r.fontFamilies[font] = family
	return family
}

func (r *Renderer) fallback() *canvas.FontFamily {
	if r.fallbackFamily != nil {
		return r.fallbackFamily
	}
	family := canvas.NewFontFamily("placard-fallback")
	if err := family.LoadFont(fonts.Default().Data, 0, canvas.FontRegular); err != nil {
		// Go Regular 随二进制发布，加载失败说明依赖损坏。
		panic(fmt.Sprintf("加载内置字体失败: %v", err))
	}
	r.fallbackFamily = family
	return family
}
