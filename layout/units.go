package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit-safe types for lengths and line heights. The canonical internal unit
// is the millimeter; pt only appears at the font boundary.

// Unit identifies the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, e.g. line-height factors
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// UnitToString returns the suffix used for u in sheet templates.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length is a numeric value together with its original unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts the length to the target unit. Supported targets: UnitMM and
// UnitPT; UnitNone is treated as mm.
func (l Length) To(target Unit) float64 {
	mm := l.Value
	switch l.Unit {
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		mm = l.Value * PtToMm
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseLength parses a length token such as "90mm", "1.5in" or "12pt".
// A bare number defaults to mm. Sheet geometry comes from configuration,
// so a malformed value is an error rather than a silent zero.
func ParseLength(value string) (Length, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return Length{}, fmt.Errorf("empty length")
	}
	unit := UnitMM
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q", value)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("negative length %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based from absolute line heights.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: either a factor of the font size
// (e.g. 1.2x) or an absolute length (e.g. 14pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ParseLineHeight parses "1.2x" as a factor or any length as an absolute
// line height.
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	if strings.HasSuffix(v, "x") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil || f <= 0 {
			return LineHeightSpec{}, fmt.Errorf("invalid line-height factor %q", value)
		}
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, nil
	}
	l, err := ParseLength(value)
	if err != nil {
		return LineHeightSpec{}, fmt.Errorf("invalid line-height %q", value)
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// Resolve computes the absolute line height in the target unit for the
// given font size. An unset spec resolves to 1.2x, the classic leading.
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		if s.Factor > 0 {
			return fontSize.To(target) * s.Factor
		}
	case LineHeightAbsolute:
		if !s.Len.IsZero() {
			return s.Len.To(target)
		}
	}
	return fontSize.To(target) * 1.2
}
