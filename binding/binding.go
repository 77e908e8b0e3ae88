package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/placard/layout"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ShuffleSentences 去掉空句子后按 seed 打乱，输入不被修改。
func ShuffleSentences(sentences []string, seed int64) []string {
	kept := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return layout.Shuffle(kept, seed)
}

// ShuffleImages 按 seed 打乱图片顺序。
func ShuffleImages(images []layout.Image, seed int64) []layout.Image {
	return layout.Shuffle(images, seed)
}

// Bind 按字段名顺序依次分配句子；句子不足时其余字段不出现在结果中。
func Bind(fieldNames, sentences []string) map[string]string {
	values := make(map[string]string, len(fieldNames))
	for i, name := range fieldNames {
		if i >= len(sentences) {
			break
		}
		values[name] = sentences[i]
	}
	return values
}

// Sentences 读取 data 中 path 处的字符串列表，单个值视为只有一句。
func Sentences(data any, path string) ([]string, error) {
	val, ok := Lookup(data, path)
	if !ok {
		return nil, fmt.Errorf("数据中不存在路径 %s", path)
	}
	switch v := val.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				out = append(out, "")
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case []string:
		return append([]string(nil), v...), nil
	case map[string]interface{}:
		return nil, fmt.Errorf("路径 %s 指向对象而不是列表", path)
	default:
		return []string{fmt.Sprint(v)}, nil
	}
}

// Values 读取 data 中 path 处的对象，作为字段 ID 到文本的显式映射。
func Values(data any, path string) (map[string]string, error) {
	val, ok := Lookup(data, path)
	if !ok {
		return nil, nil
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("路径 %s 不是对象", path)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则返回原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return match
		}
		if val, ok := Lookup(data, path); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// Static 返回模板的副本，其中静态字段的文本已用 data 插值，原模板不变。
func Static(tpl *layout.Template, data any) *layout.Template {
	if tpl == nil || data == nil {
		return tpl
	}
	out := *tpl
	out.Fields = make([]layout.Field, len(tpl.Fields))
	copy(out.Fields, tpl.Fields)
	for i := range out.Fields {
		f := &out.Fields[i]
		if f.Kind == layout.KindStatic {
			f.Text = Interpolate(f.Text, data)
		}
	}
	return &out
}

// Lookup 解析 "a.b[0].c" 形式的路径。
func Lookup(data any, path string) (any, bool) {
	current := data
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	indexes := []string{}
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 {
			if rest[0] != '[' {
				break
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]interface{}:
		val, ok := c[key]
		return val, ok
	case map[interface{}]interface{}:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []interface{}:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
