package natives

import (
	"context"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

// path/* natives sample a vector of positions along a geometric path
// (spec.md §6 "path generation"), grounded on
// original_source/core/src/builtin.rs's path_linear/path_circle/path_bezier/
// path_spline. Each of those takes an `fn:` argument and calls back into the
// interpreter once per sampled step; like repeat/* (lang/natives/repeat.go),
// lang/value.Var has no function/closure variant and Spec.Handler cannot
// re-enter the VM mid-dispatch, so these natives return the sampled vector
// of positions for the caller's own `each` to draw instead of invoking a
// function reference.
//
// Sampling reuses value.InterpState's line/circle/bezier evaluators
// (lang/value/interp.go, shared with interp/line, interp/circle,
// interp/bezier) so the `mapping` easing argument behaves identically here
// and there.

func pathSteps(v value.Var) int {
	n := int(floatArg(v))
	if n < 1 {
		n = 1
	}
	return n
}

func sampleSteps(steps int, tStart, tEnd float64, at func(t float64) value.V2D) []value.Var {
	out := make([]value.Var, steps)
	if steps == 1 {
		out[0] = at(tStart)
		return out
	}
	for i := 0; i < steps; i++ {
		t := tStart + (tEnd-tStart)*float64(i)/float64(steps-1)
		out[i] = at(t)
	}
	return out
}

// quadraticBezierAt evaluates the 3-point spline `path/spline` samples along
// (original_source's path_spline reads 3 coordinate pairs via
// array_f32_6_from_vec); no path.rs module survived into original_source to
// ground the exact spline math, so this models it as the natural quadratic
// bezier through those 3 points, consistent with `path/bezier`'s cubic form.
func quadraticBezierAt(p0, p1, p2 value.V2D, t float64) value.V2D {
	u := 1 - t
	b0, b1, b2 := u*u, 2*u*t, t*t
	return value.V2D{X: b0*p0.X + b1*p1.X + b2*p2.X, Y: b0*p0.Y + b1*p1.Y + b2*p2.Y}
}

func pathSpecs() []Spec {
	linearKw := value.Keyword(0)
	return []Spec{
		{Name: "path/linear", Params: []Param{
			p("from", value.V2D{}), p("to", value.V2D{X: 1, Y: 1}),
			p("steps", value.Float(10)), p("t-start", zeroF), p("t-end", oneF), p("mapping", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			from, to := v2dArg(args[0]), v2dArg(args[1])
			steps := pathSteps(args[2])
			tStart, tEnd := floatArg(args[3]), floatArg(args[4])
			state := value.InterpState{FromA: tStart, FromB: tEnd, IsLine: true, LineFrom: from, LineTo: to, Easing: easingArg(vm, args[5])}
			return value.NewVector(sampleSteps(steps, tStart, tEnd, state.LineAt)), true, nil
		}},
		{Name: "path/circle", Params: []Param{
			p("position", value.V2D{}), p("radius", value.Float(100)),
			p("steps", value.Float(10)), p("t-start", zeroF), p("t-end", oneF), p("mapping", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			pos := v2dArg(args[0])
			radius := floatArg(args[1])
			steps := pathSteps(args[2])
			tStart, tEnd := floatArg(args[3]), floatArg(args[4])
			state := value.InterpState{FromA: tStart, FromB: tEnd, IsCircle: true, CircleCentre: pos, CircleRadius: radius, Easing: easingArg(vm, args[5])}
			return value.NewVector(sampleSteps(steps, tStart, tEnd, state.CircleAt)), true, nil
		}},
		{Name: "path/bezier", Params: []Param{
			p("coords", value.NewVector([]value.Var{value.V2D{}, value.V2D{}, value.V2D{}, value.V2D{}})),
			p("steps", value.Float(10)), p("t-start", zeroF), p("t-end", oneF), p("mapping", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			pts, err := bezierPoints(args[0])
			if err != nil {
				return nil, false, fmtErrorf("path/bezier: coords must have 4 points")
			}
			steps := pathSteps(args[1])
			tStart, tEnd := floatArg(args[2]), floatArg(args[3])
			state := value.InterpState{FromA: tStart, FromB: tEnd, IsBezier: true, Bezier: pts, Easing: easingArg(vm, args[4])}
			return value.NewVector(sampleSteps(steps, tStart, tEnd, state.BezierAt)), true, nil
		}},
		{Name: "path/spline", Params: []Param{
			p("coords", value.NewVector([]value.Var{value.V2D{}, value.V2D{}, value.V2D{}})),
			p("steps", value.Float(10)), p("t-start", zeroF), p("t-end", oneF), p("mapping", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			elems, err := value.GetVector(args[0])
			if err != nil || len(elems) != 3 {
				return nil, false, fmtErrorf("path/spline: coords must have 3 points")
			}
			p0, p1, p2 := v2dArg(elems[0]), v2dArg(elems[1]), v2dArg(elems[2])
			steps := pathSteps(args[1])
			tStart, tEnd := floatArg(args[2]), floatArg(args[3])
			fraction := value.InterpState{FromA: tStart, FromB: tEnd, ToA: 0, ToB: 1, Easing: easingArg(vm, args[4])}
			at := func(t float64) value.V2D { return quadraticBezierAt(p0, p1, p2, fraction.Value(t)) }
			return value.NewVector(sampleSteps(steps, tStart, tEnd, at)), true, nil
		}},
	}
}
