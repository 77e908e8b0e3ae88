package layout

import (
	"fmt"
)

// Request 是一次文档渲染的全部输入。Template、Images 只读，渲染期间不会被修改。
type Request struct {
	Template *Template
	// Values 为输入 ID 到未归一化文本的映射。
	Values map[string]string
	// Images 按图片字段的解析顺序依次使用。
	Images  []Image
	Options RenderOptions
}

// RenderDocument 在 s 上绘制一整页模板。
// 先按种子抽取模板与各字段的最大长度，再循环解析坐标并逐个渲染字段。
// 相同的输入与种子产生相同的绘制调用序列。
func RenderDocument(s Surface, req Request) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("layout: 缺少绘图面 Surface")
	}
	tpl := req.Template
	if tpl == nil {
		return nil, fmt.Errorf("layout: 模板为空")
	}
	if tpl.Width <= 0 || tpl.Height <= 0 {
		return nil, fmt.Errorf("layout: 模板 %q 尺寸无效: %gx%g", tpl.Name, tpl.Width, tpl.Height)
	}

	r := &docRenderer{
		s:       s,
		req:     &req,
		lengths: drawMaxLengths(tpl, req.Options.Seed),
		result: &Result{
			Template: tpl.Name,
			Seed:     req.Options.Seed,
		},
	}
	coords, skipped := Resolve(tpl, r.renderField)
	r.result.Coordinates = coords
	r.result.Skipped = skipped
	for _, id := range skipped {
		req.Options.logger().Printf("[WARN] template %q: field %s has unresolvable geometry, skipped", tpl.Name, id)
	}
	return r.result, nil
}
