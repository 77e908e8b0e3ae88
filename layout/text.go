package layout

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeText 去掉首尾空白、合并内部空白并转为大写。
func NormalizeText(s string) string {
	s = spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	// Caser 不能并发使用，每次新建。
	return cases.Upper(language.Und).String(s)
}

// Filter 在归一化之后、截断之前改写字段文本。
type Filter func(text string) string

var namedFilters = map[string]Filter{
	// 多个字段共享同一输入时拆分句子，例如前一个盒子放除最后一个词外的部分，后一个盒子放最后一个词。
	"allButLast": func(text string) string {
		words := splitWords(text)
		if len(words) == 0 {
			return ""
		}
		return strings.Join(words[:len(words)-1], " ")
	},
	"last": func(text string) string {
		words := splitWords(text)
		if len(words) == 0 {
			return ""
		}
		return words[len(words)-1]
	},
	"first": func(text string) string {
		words := splitWords(text)
		if len(words) == 0 {
			return ""
		}
		return words[0]
	},
	"allButFirst": func(text string) string {
		words := splitWords(text)
		if len(words) == 0 {
			return ""
		}
		return strings.Join(words[1:], " ")
	},
}

// NamedFilter 返回内置的文本过滤器。
func NamedFilter(name string) (Filter, bool) {
	f, ok := namedFilters[name]
	return f, ok
}

func splitWords(text string) []string {
	return strings.Fields(text)
}

// truncateRunes 截取前 max 个字符，max 取整数部分。
func truncateRunes(s string, max float64) string {
	if max <= 0 || math.IsNaN(max) {
		return s
	}
	n := int(math.Floor(max))
	if n >= len(s) {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// prepareText 对字段文本执行归一化、过滤与截断。
func prepareText(raw string, o fieldOptions) string {
	text := NormalizeText(raw)
	if o.filter != nil {
		text = o.filter(text)
	}
	return truncateRunes(text, o.maxLength)
}
