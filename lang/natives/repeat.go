package natives

import (
	"context"
	"math"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

// repeat/* natives compute the transformed copies of a single position that
// a symmetry/rotation repeat would draw at (SPEC_FULL.md §5 "Repeat"):
// scripts apply the returned vector of positions themselves (typically
// inside an `each`), rather than the natives invoking a callback function
// directly, unlike original_source's fn-pointer repeat/* (which takes a
// Var::Fn and calls back into the interpreter for each copy). lang/value's
// Var has no function/closure variant (spec.md §3's value model is scalars,
// vectors, colours, and names only) and Spec.Handler
// (lang/natives/natives.go) has no way to re-enter the VM to invoke a
// user-defined function mid-dispatch, so a callback-based repeat/* cannot be
// expressed in this registry; returning the vector of transformed positions
// for the caller's own `each` to draw is the only representation available.
// See DESIGN.md "lang/natives: repeat" for the grounding entry.

func rotatePoint(p, centre value.V2D, radians float64) value.V2D {
	dx, dy := p.X-centre.X, p.Y-centre.Y
	cosA, sinA := math.Cos(radians), math.Sin(radians)
	return value.V2D{X: centre.X + dx*cosA - dy*sinA, Y: centre.Y + dx*sinA + dy*cosA}
}

func repeatSpecs() []Spec {
	return []Spec{
		{Name: "repeat/symmetry-vertical", Params: []Param{p("position", value.V2D{}), p("axis-x", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pos := v2dArg(args[0])
				axis := floatArg(args[1])
				mirror := value.V2D{X: 2*axis - pos.X, Y: pos.Y}
				return value.NewVector([]value.Var{pos, mirror}), true, nil
			}},
		{Name: "repeat/symmetry-horizontal", Params: []Param{p("position", value.V2D{}), p("axis-y", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pos := v2dArg(args[0])
				axis := floatArg(args[1])
				mirror := value.V2D{X: pos.X, Y: 2*axis - pos.Y}
				return value.NewVector([]value.Var{pos, mirror}), true, nil
			}},
		{Name: "repeat/symmetry-4", Params: []Param{p("position", value.V2D{}), p("centre", value.V2D{})},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pos, centre := v2dArg(args[0]), v2dArg(args[1])
				out := make([]value.Var, 4)
				for i := 0; i < 4; i++ {
					out[i] = rotatePoint(pos, centre, float64(i)*math.Pi/2)
				}
				return value.NewVector(out), true, nil
			}},
		{Name: "repeat/symmetry-8", Params: []Param{p("position", value.V2D{}), p("centre", value.V2D{})},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pos, centre := v2dArg(args[0]), v2dArg(args[1])
				out := make([]value.Var, 8)
				for i := 0; i < 8; i++ {
					out[i] = rotatePoint(pos, centre, float64(i)*math.Pi/4)
				}
				return value.NewVector(out), true, nil
			}},
		{Name: "repeat/rotate", Params: []Param{p("position", value.V2D{}), p("centre", value.V2D{}), p("copies", value.Float(3))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pos, centre := v2dArg(args[0]), v2dArg(args[1])
				n := int(floatArg(args[2]))
				if n <= 0 {
					return value.NewVector(nil), true, nil
				}
				out := make([]value.Var, n)
				for i := 0; i < n; i++ {
					out[i] = rotatePoint(pos, centre, float64(i)*2*math.Pi/float64(n))
				}
				return value.NewVector(out), true, nil
			}},
		{Name: "repeat/rotate-mirrored", Params: []Param{p("position", value.V2D{}), p("centre", value.V2D{}), p("copies", value.Float(3))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pos, centre := v2dArg(args[0]), v2dArg(args[1])
				n := int(floatArg(args[2]))
				if n <= 0 {
					return value.NewVector(nil), true, nil
				}
				out := make([]value.Var, 0, n*2)
				for i := 0; i < n; i++ {
					angle := float64(i) * 2 * math.Pi / float64(n)
					rotated := rotatePoint(pos, centre, angle)
					out = append(out, rotated, value.V2D{X: 2*centre.X - rotated.X, Y: rotated.Y})
				}
				return value.NewVector(out), true, nil
			}},
	}
}
