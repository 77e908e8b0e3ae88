package layout

import (
	"reflect"
	"sort"
	"testing"
)

func TestNextRandomSequence(t *testing.T) {
	v, state := NextRandom(42)
	if state != 206659 {
		t.Fatalf("state after seed 42 = %d, want 206659", state)
	}
	if !approx(v, 206659.0/233280.0) {
		t.Fatalf("value after seed 42 = %g", v)
	}
	r := NewRand(42)
	if got := r.Float64(); got != v {
		t.Fatalf("Rand 与 NextRandom 不一致: %g vs %g", got, v)
	}
}

func TestResolveLengthReproducible(t *testing.T) {
	spec := Between(5, 30)
	a, ok := ResolveLength(spec, NewRand(42))
	if !ok {
		t.Fatalf("区间应当可解析")
	}
	b, _ := ResolveLength(spec, NewRand(42))
	if a != b {
		t.Fatalf("同一种子两次结果不同: %g vs %g", a, b)
	}
	if a < 5 || a > 30 {
		t.Fatalf("结果超出区间: %g", a)
	}
	if !approx(a, 5+25*206659.0/233280.0) {
		t.Fatalf("插值结果错误: %g", a)
	}
}

func TestResolveLengthScalarDoesNotDraw(t *testing.T) {
	r := NewRand(42)
	if v, ok := ResolveLength(Fixed(12), r); !ok || v != 12 {
		t.Fatalf("固定值应原样返回, got %g %v", v, ok)
	}
	want, _ := NextRandom(42)
	if got := r.Float64(); got != want {
		t.Fatalf("固定值不应消耗随机数")
	}
	if _, ok := ResolveLength(LengthSpec{}, r); ok {
		t.Fatalf("未设置应返回 false")
	}
	if _, ok := ResolveLength(Fixed(0), r); ok {
		t.Fatalf("固定值 0 视为未设置")
	}
}

func TestShuffleIsSeededPermutation(t *testing.T) {
	in := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	orig := append([]int(nil), in...)

	got := Shuffle(in, 1)
	if want := []int{5, 1, 7, 3, 0, 8, 6, 9, 4, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Shuffle(seed=1) = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(in, orig) {
		t.Fatalf("输入被修改: %v", in)
	}
	if again := Shuffle(in, 1); !reflect.DeepEqual(again, got) {
		t.Fatalf("同一种子结果不同: %v vs %v", again, got)
	}
	other := Shuffle(in, 2)
	if reflect.DeepEqual(other, got) {
		t.Fatalf("不同种子得到相同排列: %v", other)
	}
	sorted := append([]int(nil), other...)
	sort.Ints(sorted)
	if !reflect.DeepEqual(sorted, orig) {
		t.Fatalf("结果不是排列: %v", other)
	}

	if out := Shuffle([]string(nil), 3); len(out) != 0 {
		t.Fatalf("空序列应返回空结果")
	}
}

func TestIntnNegativeSeed(t *testing.T) {
	r := NewRand(-100000)
	for i := 0; i < 20; i++ {
		if j := r.Intn(5); j < 0 || j >= 5 {
			t.Fatalf("Intn 超出范围: %d", j)
		}
	}
}

func TestDrawMaxLengthsOrder(t *testing.T) {
	tpl := &Template{
		MaxLength: Between(0, 100),
		Fields: []Field{
			{ID: "A", MaxLength: Between(0, 100)},
			{ID: "B"},
			{ID: "C", MaxLength: Fixed(7)},
		},
	}
	m := drawMaxLengths(tpl, 42)
	r := NewRand(42)
	first, second := r.Float64()*100, r.Float64()*100
	if v, ok := m.template(); !ok || !approx(v, first) {
		t.Fatalf("模板最大长度应使用第一个随机数: %g", v)
	}
	if v, ok := m.field("A"); !ok || !approx(v, second) {
		t.Fatalf("字段 A 应使用第二个随机数: %g", v)
	}
	if _, ok := m.field("B"); ok {
		t.Fatalf("字段 B 未设置最大长度")
	}
	if v, _ := m.field("C"); v != 7 {
		t.Fatalf("字段 C 固定值错误: %g", v)
	}
}
