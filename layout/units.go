package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths used by template files. Templates are laid out in points.

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as points
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ToPT converts this length to points. Unit-less values are already points.
func (l Length) ToPT() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * 72
	default:
		return l.Value
	}
}

// ToMM converts this length to millimeters.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	default:
		return l.Value * PtToMm
	}
}

// ParseLength parses a DSL number such as "612", "8.5in" or "-15" preserving its unit.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}
