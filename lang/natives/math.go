package natives

import (
	"context"
	"math"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

func mathSpecs() []Spec {
	return []Spec{
		{Name: "math/distance", Params: []Param{p("vec1", value.V2D{}), p("vec2", value.V2D{})},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				a, b := v2dArg(args[0]), v2dArg(args[1])
				dx, dy := a.X-b.X, a.Y-b.Y
				return value.Float(math.Sqrt(dx*dx + dy*dy)), true, nil
			}},
		{Name: "math/normal", Params: []Param{p("vec1", value.V2D{}), p("vec2", value.V2D{})},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				a, b := v2dArg(args[0]), v2dArg(args[1])
				dx, dy := b.X-a.X, b.Y-a.Y
				length := math.Sqrt(dx*dx + dy*dy)
				if length == 0 {
					return value.V2D{}, true, nil
				}
				return value.V2D{X: -dy / length, Y: dx / length}, true, nil
			}},
		{Name: "math/clamp", Params: []Param{p("value", zeroF), p("min", zeroF), p("max", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				v, lo, hi := floatArg(args[0]), floatArg(args[1]), floatArg(args[2])
				if v < lo {
					v = lo
				} else if v > hi {
					v = hi
				}
				return value.Float(v), true, nil
			}},
		{Name: "math/radians->degrees", Params: []Param{p("radians", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(floatArg(args[0]) * 180 / math.Pi), true, nil
			}},
		{Name: "math/degrees->radians", Params: []Param{p("degrees", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(floatArg(args[0]) * math.Pi / 180), true, nil
			}},
		{Name: "math/cos", Params: []Param{p("angle", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(math.Cos(floatArg(args[0]))), true, nil
			}},
		{Name: "math/sin", Params: []Param{p("angle", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(math.Sin(floatArg(args[0]))), true, nil
			}},
		{Name: "sqrt", Params: []Param{p("value", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(math.Sqrt(floatArg(args[0]))), true, nil
			}},
	}
}
