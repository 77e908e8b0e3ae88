package layout

import (
	"math"
	"strings"
)

// FitWords 把 words 分成 nbLines 行，使最宽一行尽可能窄。
//
// 穷举所有切分并剪枝：首行已不窄于当前最优时跳过，剩余部分的最优解不窄于当前最优时同样跳过。
// 同样好的候选保留最先枚举到的（首行最短）。最坏情况是指数级，调用方需控制单个字段的词数。
func FitWords(measure MeasureFunc, words []string, nbLines int) FitResult {
	if nbLines == 1 {
		line := strings.Join(words, " ")
		return FitResult{Lines: []string{line}, Width: measure(line)}
	}
	if nbLines < 1 || len(words) < nbLines {
		return FitResult{Width: math.Inf(1)}
	}

	best := FitResult{Width: math.Inf(1)}
	for i := 0; i < len(words); i++ {
		line0 := strings.Join(words[:i+1], " ")
		width0 := measure(line0)
		if width0 >= best.Width {
			continue
		}
		rest := FitWords(measure, words[i+1:], nbLines-1)
		if rest.Width >= best.Width {
			continue
		}
		lines := make([]string, 0, len(rest.Lines)+1)
		lines = append(lines, line0)
		best = FitResult{
			Lines: append(lines, rest.Lines...),
			Width: math.Max(width0, rest.Width),
		}
	}
	return best
}

// WrapOptions 描述目标盒子。
type WrapOptions struct {
	Width  float64
	Height float64
	// MaxRatio 为纵向与横向缩放比的上限，超过后字符过窄，需要增加行数。
	MaxRatio   float64
	LineHeight float64
}

// WrapText 从 minLines 行开始逐步增加行数，直到缩放比例可接受或每行只剩一个词。
// 增加的行数由 sqrt(scaleY / (maxRatio*scaleX)) 估算，以减少 FitWords 的调用次数。
func WrapText(measure MeasureFunc, words []string, minLines int, opts WrapOptions) FitResult {
	cache := newWidthCache(measure)
	nbLines := minLines
	if nbLines < 1 {
		nbLines = 1
	}
	for {
		fit := FitWords(cache.width, words, nbLines)
		scaleX := opts.Width / fit.Width
		scaleY := opts.Height / (opts.LineHeight * float64(nbLines))
		if scaleY <= opts.MaxRatio*scaleX || nbLines == len(words) {
			return fit
		}

		incr := math.Floor(math.Sqrt(scaleY / (opts.MaxRatio * scaleX)))
		if !(incr >= 1) {
			incr = 1
		}
		nbLines = int(math.Min(float64(len(words)), float64(nbLines)+incr))
	}
}
