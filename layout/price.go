package layout

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// decimalPlaceholder 在缺少小数部分时用于测量预留宽度，不会被绘制。
const decimalPlaceholder = "00"

// SplitPrice 把价格文本拆成主体与小数部分。
// 取最后一个货币符号之后的内容，再按分隔符（字面量或正则）切分。
// 没有小数且主体长于 4 个字符时，若 inferDecimal 为真，则取主体末两位作为小数。
func SplitPrice(text, currency, separator string, pattern *regexp.Regexp, inferDecimal bool) PriceBox {
	if currency != "" {
		if i := strings.LastIndex(text, currency); i >= 0 {
			text = text[i+len(currency):]
		}
	}

	var parts []string
	switch {
	case pattern != nil:
		parts = pattern.Split(text, -1)
	case separator != "":
		parts = strings.Split(text, separator)
	default:
		parts = []string{text}
	}

	pb := PriceBox{Currency: currency, Main: parts[0]}
	if len(parts) > 1 {
		pb.Decimal = parts[1]
	}
	if inferDecimal && pb.Decimal == "" && utf8.RuneCountInString(pb.Main) > 4 {
		runes := []rune(pb.Main)
		pb.Decimal = string(runes[len(runes)-2:])
		pb.Main = string(runes[:len(runes)-2])
	}
	return pb
}

// drawPrice 绘制价格字段的三个部分：货币符号、主体（更高）、小数。
// 三者横向缩放一致（设置 mainWidth 时主体单独缩放到该宽度），主体使用 mainHeight 对应的纵向缩放。
// 绘制完货币符号与主体后，把游标位置登记为 "<id>.currency" 与 "<id>.separator"。
func (r *docRenderer) drawPrice(f *Field, o fieldOptions, text string, font *Font, b Box, coords Coordinates, p *Placement) {
	s := r.s
	pb := SplitPrice(text, o.currency, o.separator, o.sepPattern, o.inferDec)
	p.Price = &pb

	cur, main, dec := o.currency, pb.Main, pb.Decimal
	measureDec := dec
	if measureDec == "" {
		measureDec = decimalPlaceholder
	}
	w, h := b.Width(), b.Height()

	var scaleX, scaleXMain float64
	if o.mainWidth > 0 {
		scaleX = (w - o.padX - o.mainWidth) / s.TextWidth(cur+measureDec)
		scaleXMain = o.mainWidth / s.TextWidth(main)
	} else {
		scaleX = (w - o.padX) / s.TextWidth(cur+main+measureDec)
		scaleXMain = scaleX
	}

	mainHeight := o.mainHeight
	if mainHeight <= 0 {
		mainHeight = h
	}
	lineHeight := s.LineHeight()
	scaleY := (h - o.padY*2) / lineHeight
	scaleYMain := (mainHeight - o.padY*2) / lineHeight
	if !usableScale(scaleX, scaleY) {
		return
	}
	p.ScaleX, p.ScaleY = scaleX, scaleY

	x := 0.0

	s.Save()
	s.Scale(scaleX, scaleY)
	s.DrawText(cur, x, 0)
	s.Restore()
	x += s.TextWidth(cur)
	coords[f.ID+".currency"] = b.Left + x*scaleX

	if mainWidth := s.TextWidth(main); mainWidth > 0 && usableScale(scaleXMain, scaleYMain) {
		s.Save()
		s.Translate(0, capShift(font, h-o.padY*2, mainHeight-o.padY*2)+o.mainShift)
		s.Scale(scaleXMain, scaleYMain)
		s.DrawText(main, x*scaleX/scaleXMain, 0)
		s.Restore()
		x += mainWidth * scaleXMain / scaleX
	}
	coords[f.ID+".separator"] = b.Left + x*scaleX

	if dec != "" {
		s.Scale(scaleX, scaleY)
		s.DrawText(dec, x, 0)
	}
}
