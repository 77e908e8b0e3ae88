package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ByLCY/placard/layout"
)

// Format 是输出文件格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat 解析格式名，空字符串为 PDF。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q", s)
	}
}

// Output 是一次渲染的产物。
type Output struct {
	Format Format
	Data   []byte
	// Result 为排版记录；来自缓存时为 nil。
	Result *layout.Result
}

// Renderer 将一次模板渲染请求输出为最终文件，例如 PDF 或图像。
type Renderer interface {
	Format() Format
	// CacheKey 描述影响输出字节的渲染器配置（格式、分辨率、文档信息等），供渲染缓存区分结果。
	CacheKey() string
	Render(ctx context.Context, req layout.Request) (*Output, error)
}
