package value

import "math"

// FocalKind names the geometric anchor a FocalState measures distance from.
type FocalKind uint8

const (
	FocalPoint FocalKind = iota
	FocalVLine
	FocalHLine
)

// FocalState computes a remapped distance field anchored to a point or
// line, used to vary e.g. colour or stroke width by position
// (`focal/build-*`, `focal/value`; supplements spec.md §6 with the vline/
// hline forms from original_source/core/src/focal.rs, per SPEC_FULL.md §5).
type FocalState struct {
	Kind     FocalKind
	Position V2D // for FocalPoint and the line's anchor coordinate
	Distance float64 // distance at which the mapping's input falls to 0
	Mapping  InterpState // remaps closeness (1 at the anchor, 0 at Distance or beyond) to a scalar
}

func (FocalState) Type() string   { return "focal-state" }
func (FocalState) String() string { return "FocalState(...)" }

var _ Var = FocalState{}

// Value returns the focal-remapped scalar at world position p
// (`focal/value`).
func (s FocalState) Value(p V2D) float64 {
	var d float64
	switch s.Kind {
	case FocalVLine:
		d = math.Abs(p.X - s.Position.X)
	case FocalHLine:
		d = math.Abs(p.Y - s.Position.Y)
	default:
		dx, dy := p.X-s.Position.X, p.Y-s.Position.Y
		d = math.Sqrt(dx*dx + dy*dy)
	}
	if s.Distance <= 0 {
		return s.Mapping.Value(0)
	}
	n := 1 - math.Min(d/s.Distance, 1)
	return s.Mapping.Value(n)
}
