package layout

// Box 是字段解析后的绝对坐标（pt，页面左上角为原点）。
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (b Box) Width() float64  { return b.Right - b.Left }
func (b Box) Height() float64 { return b.Bottom - b.Top }

// VisitFunc 在字段四条边全部可知时被调用一次。
// 回调可向 coords 写入派生坐标（例如价格字段的 "<id>.separator"），供后续字段引用。
type VisitFunc func(f *Field, b Box, pass int, coords Coordinates)

// Resolve 反复遍历尚未解析的字段，直到全部解析或某一轮没有任何进展。
// 依赖缺失或成环的字段被跳过，以声明顺序返回其 ID，不视为错误。
func Resolve(tpl *Template, visit VisitFunc) (Coordinates, []string) {
	coords := Coordinates{
		"width":  tpl.Width,
		"height": tpl.Height,
	}
	done := make([]bool, len(tpl.Fields))
	remaining := len(tpl.Fields)

	for pass := 1; remaining > 0; pass++ {
		progress := false
		for i := range tpl.Fields {
			if done[i] {
				continue
			}
			f := &tpl.Fields[i]
			b, ok := coords.resolve(f)
			if !ok {
				continue
			}
			if visit != nil {
				visit(f, b, pass, coords)
			}
			done[i] = true
			remaining--
			progress = true
		}
		if !progress {
			break
		}
	}

	var skipped []string
	for i := range tpl.Fields {
		if !done[i] {
			skipped = append(skipped, tpl.Fields[i].ID)
		}
	}
	return coords, skipped
}

func (c Coordinates) lookup(k Coord) (float64, bool) {
	if !k.IsRef() {
		return k.Value, true
	}
	v, ok := c[k.Ref]
	return v, ok
}

// resolve 查找字段的四条边，并立即登记已知的边与宽高，使其他字段可以先引用部分几何信息。
func (c Coordinates) resolve(f *Field) (Box, bool) {
	left, lok := c.lookup(f.Left)
	right, rok := c.lookup(f.Right)
	top, tok := c.lookup(f.Top)
	bottom, bok := c.lookup(f.Bottom)

	if lok {
		c[f.ID+".left"] = left
	}
	if rok {
		c[f.ID+".right"] = right
	}
	if tok {
		c[f.ID+".top"] = top
	}
	if bok {
		c[f.ID+".bottom"] = bottom
	}
	if lok && rok {
		c[f.ID+".width"] = right - left
	}
	if tok && bok {
		c[f.ID+".height"] = bottom - top
	}

	if !(lok && rok && tok && bok) {
		return Box{}, false
	}
	return Box{Left: left, Top: top, Right: right, Bottom: bottom}, true
}
