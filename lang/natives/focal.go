package natives

import (
	"context"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

func focalStateArg(v value.Var) (value.FocalState, bool) {
	s, ok := v.(value.FocalState)
	return s, ok
}

func focalSpecs() []Spec {
	return []Spec{
		{Name: "focal/build-point", Params: []Param{
			p("position", value.V2D{}), p("distance", oneF), p("mapping", value.InterpState{ToA: 1, ToB: 0}),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			mapping, _ := interpStateArg(args[2])
			return value.FocalState{Kind: value.FocalPoint, Position: v2dArg(args[0]), Distance: floatArg(args[1]), Mapping: mapping}, true, nil
		}},
		{Name: "focal/build-vline", Params: []Param{
			p("position", value.V2D{}), p("distance", oneF), p("mapping", value.InterpState{ToA: 1, ToB: 0}),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			mapping, _ := interpStateArg(args[2])
			return value.FocalState{Kind: value.FocalVLine, Position: v2dArg(args[0]), Distance: floatArg(args[1]), Mapping: mapping}, true, nil
		}},
		{Name: "focal/build-hline", Params: []Param{
			p("position", value.V2D{}), p("distance", oneF), p("mapping", value.InterpState{ToA: 1, ToB: 0}),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			mapping, _ := interpStateArg(args[2])
			return value.FocalState{Kind: value.FocalHLine, Position: v2dArg(args[0]), Distance: floatArg(args[1]), Mapping: mapping}, true, nil
		}},
		{Name: "focal/value", Params: []Param{p("from", value.FocalState{}), p("position", value.V2D{})},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s, ok := focalStateArg(args[0])
				if !ok {
					return nil, false, fmtErrorf("focal/value: from must be a focal state")
				}
				return value.Float(s.Value(v2dArg(args[1]))), true, nil
			}},
	}
}
