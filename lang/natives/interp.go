package natives

import (
	"context"
	"math"
	"strings"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

func easingArg(vm *machine.VM, v value.Var) value.Easing {
	switch strings.ToLower(keywordName(vm, v)) {
	case "ease-in":
		return value.EaseEaseIn
	case "ease-out":
		return value.EaseEaseOut
	case "ease-in-out":
		return value.EaseEaseInOut
	default:
		return value.EaseLinear
	}
}

func interpStateArg(v value.Var) (value.InterpState, bool) {
	s, ok := v.(value.InterpState)
	return s, ok
}

func bezierPoints(v value.Var) ([4]value.V2D, error) {
	elems, err := value.GetVector(v)
	if err != nil || len(elems) != 4 {
		return [4]value.V2D{}, fmtErrorf("interp/bezier: coords must have 4 points")
	}
	var pts [4]value.V2D
	for i, e := range elems {
		pts[i] = v2dArg(e)
	}
	return pts, nil
}

func interpSpecs() []Spec {
	linearKw := value.Keyword(0)
	return []Spec{
		{Name: "interp/build", Params: []Param{
			p("from", value.V2D{X: 0, Y: 1}), p("to", value.V2D{X: 0, Y: 1}), p("easing", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			from, to := v2dArg(args[0]), v2dArg(args[1])
			return value.InterpState{FromA: from.X, FromB: from.Y, ToA: to.X, ToB: to.Y, Easing: easingArg(vm, args[2])}, true, nil
		}},
		{Name: "interp/value", Params: []Param{p("from", value.InterpState{}), p("t", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s, ok := interpStateArg(args[0])
				if !ok {
					return nil, false, fmtErrorf("interp/value: from must be an interp state")
				}
				return value.Float(s.Value(floatArg(args[1]))), true, nil
			}},
		{Name: "interp/cos", Params: []Param{p("amplitude", oneF), p("frequency", oneF), p("t", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				amp, freq, t := floatArg(args[0]), floatArg(args[1]), floatArg(args[2])
				return value.Float(amp * math.Cos(t*freq)), true, nil
			}},
		{Name: "interp/sin", Params: []Param{p("amplitude", oneF), p("frequency", oneF), p("t", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				amp, freq, t := floatArg(args[0]), floatArg(args[1]), floatArg(args[2])
				return value.Float(amp * math.Sin(t*freq)), true, nil
			}},
		{Name: "interp/line", Params: []Param{
			p("from", value.V2D{}), p("to", value.V2D{X: 1, Y: 1}), p("easing", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			return value.InterpState{FromA: 0, FromB: 1, IsLine: true, LineFrom: v2dArg(args[0]), LineTo: v2dArg(args[1]), Easing: easingArg(vm, args[2])}, true, nil
		}},
		{Name: "interp/ray", Params: []Param{
			p("point", value.V2D{}), p("direction", value.V2D{X: 1}), p("from-a", zeroF), p("from-b", oneF),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			pt, dir := v2dArg(args[0]), v2dArg(args[1])
			fa, fb := floatArg(args[2]), floatArg(args[3])
			from := value.V2D{X: pt.X + dir.X*fa, Y: pt.Y + dir.Y*fa}
			to := value.V2D{X: pt.X + dir.X*fb, Y: pt.Y + dir.Y*fb}
			return value.InterpState{FromA: 0, FromB: 1, IsLine: true, LineFrom: from, LineTo: to}, true, nil
		}},
		{Name: "interp/circle", Params: []Param{
			p("position", value.V2D{}), p("radius", oneF), p("easing", linearKw),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			return value.InterpState{FromA: 0, FromB: 1, IsCircle: true, CircleCentre: v2dArg(args[0]), CircleRadius: floatArg(args[1]), Easing: easingArg(vm, args[2])}, true, nil
		}},
		{Name: "interp/bezier", Params: []Param{p("coords", value.NewVector([]value.Var{value.V2D{}, value.V2D{}, value.V2D{}, value.V2D{}}))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pts, err := bezierPoints(args[0])
				if err != nil {
					return nil, false, err
				}
				return value.InterpState{FromA: 0, FromB: 1, IsBezier: true, Bezier: pts}, true, nil
			}},
		{Name: "interp/bezier-tangent", Params: []Param{p("coords", value.NewVector([]value.Var{value.V2D{}, value.V2D{}, value.V2D{}, value.V2D{}})), p("t", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				pts, err := bezierPoints(args[0])
				if err != nil {
					return nil, false, err
				}
				return value.BezierTangent(pts[0], pts[1], pts[2], pts[3], floatArg(args[1])), true, nil
			}},
	}
}
