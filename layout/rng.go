package layout

// 线性同余随机数，参数需与既有种子保持一致，确保同一种子在任何实现中得到相同的排列与截断。
const (
	lcgMul = 9301
	lcgInc = 49297
	lcgMod = 233280
)

// NextRandom 执行一步线性同余：返回 [0,1) 内的值与新状态。
func NextRandom(state int64) (float64, int64) {
	state = (state*lcgMul + lcgInc) % lcgMod
	return float64(state) / lcgMod, state
}

// Rand 是单次渲染私有的随机数状态。
type Rand struct {
	state int64
}

// NewRand 以 seed 初始化状态。
func NewRand(seed int64) *Rand { return &Rand{state: seed} }

// Float64 返回下一个 [0,1) 随机值。
func (r *Rand) Float64() float64 {
	var v float64
	v, r.state = NextRandom(r.state)
	return v
}

// Intn 返回 [0,n) 内的整数。
// 负种子会产生负值，此时取 0。
func (r *Rand) Intn(n int) int {
	j := int(r.Float64() * float64(n))
	if j < 0 {
		return 0
	}
	return j
}

// Shuffle 返回 seq 的一个按 seed 确定的排列（Fisher-Yates，自末尾向前）。seq 本身不被修改。
func Shuffle[T any](seq []T, seed int64) []T {
	out := make([]T, len(seq))
	copy(out, seq)
	r := NewRand(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ResolveLength 计算实际的最大长度：区间抽取一次随机数并线性插值，固定值原样返回且不消耗随机数。
// 未设置（或固定值为 0）时返回 false。
func ResolveLength(spec LengthSpec, r *Rand) (float64, bool) {
	if !spec.Set {
		return 0, false
	}
	if spec.Range {
		return spec.Min + r.Float64()*(spec.Max-spec.Min), true
	}
	if spec.Min == 0 {
		return 0, false
	}
	return spec.Min, true
}

// maxLengths 保存一次渲染中模板与各字段抽取的最大长度。
type maxLengths struct {
	tpl    float64
	tplSet bool
	fields map[string]float64
}

// drawMaxLengths 先抽取模板级，再按声明顺序抽取字段级，全部共享同一随机序列。
func drawMaxLengths(tpl *Template, seed int64) *maxLengths {
	r := NewRand(seed)
	m := &maxLengths{fields: make(map[string]float64, len(tpl.Fields))}
	m.tpl, m.tplSet = ResolveLength(tpl.MaxLength, r)
	for i := range tpl.Fields {
		f := &tpl.Fields[i]
		if v, ok := ResolveLength(f.MaxLength, r); ok {
			m.fields[f.ID] = v
		}
	}
	return m
}

func (m *maxLengths) template() (float64, bool) {
	if m == nil {
		return 0, false
	}
	return m.tpl, m.tplSet
}

func (m *maxLengths) field(id string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.fields[id]
	return v, ok
}
