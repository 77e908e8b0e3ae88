package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/ByLCY/placard/layout"
)

// KeyPrefix 为所有渲染缓存键的前缀。
const KeyPrefix = "placard:render:"

// Key 计算一次渲染请求的缓存键。
// rendererKey 为 renderer.Renderer.CacheKey 的返回值。
// 模板结构、字体与图片数据、输入值、种子与渲染选项都参与哈希；Logger 不参与。
func Key(req layout.Request, rendererKey string) (string, error) {
	d := xxhash.New()
	fmt.Fprintf(d, "renderer=%q\n", rendererKey)

	if tpl := req.Template; tpl != nil {
		body, err := json.Marshal(tpl)
		if err != nil {
			return "", fmt.Errorf("序列化模板 %s 失败: %w", tpl.Name, err)
		}
		fmt.Fprintf(d, "template=%d:", len(body))
		d.Write(body)
		writeFontSpec(d, "font", tpl.Font)
		for i := range tpl.Fields {
			f := &tpl.Fields[i]
			writeFontSpec(d, f.ID+".font", f.Font)
			if f.SeparatorPattern != nil {
				fmt.Fprintf(d, "%s.pattern=%q\n", f.ID, f.SeparatorPattern.String())
			}
			if f.Background != nil {
				writeImage(d, f.ID+".background", f.Background)
			}
		}
	}

	keys := make([]string, 0, len(req.Values))
	for k := range req.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(d, "value %q=%q\n", k, req.Values[k])
	}
	for i := range req.Images {
		writeImage(d, "image."+strconv.Itoa(i), &req.Images[i])
	}

	o := req.Options
	fmt.Fprintf(d, "seed=%d debug=%t\n", o.Seed, o.Debug)
	if o.Color != nil {
		fmt.Fprintf(d, "color=%d,%d,%d\n", o.Color.R, o.Color.G, o.Color.B)
	}
	return KeyPrefix + strconv.FormatUint(d.Sum64(), 16), nil
}

func writeFontSpec(w io.Writer, label string, spec layout.FontSpec) {
	switch s := spec.(type) {
	case *layout.Font:
		writeFont(w, label, s)
	case layout.FontSet:
		for i, f := range s {
			writeFont(w, label+"."+strconv.Itoa(i), f)
		}
	}
}

func writeFont(w io.Writer, label string, f *layout.Font) {
	if f == nil {
		return
	}
	fmt.Fprintf(w, "%s=%q:%x\n", label, f.Name, xxhash.Sum64(f.Data))
}

func writeImage(w io.Writer, label string, img *layout.Image) {
	fmt.Fprintf(w, "%s=%q:%x\n", label, img.Name, xxhash.Sum64(img.Data))
}
