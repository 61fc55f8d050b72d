package natives

import (
	"context"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

// genStream returns the VM's gene-sampling stream, falling back to a
// fixed-seed stream so gen/* natives never panic when called outside a
// trait-compiled program (spec.md §4.4 "gen/* natives are only meaningful
// inside a gene's parameter_ast", but Dispatch has no way to refuse).
func genStream(vm *machine.VM) *value.PrngStream {
	if vm.Prng != nil {
		return vm.Prng
	}
	return value.NewPrngStream(1)
}

func genSpecs() []Spec {
	return []Spec{
		{Name: "gen/stray-int", Params: []Param{p("from", zeroF), p("by", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				from, by := floatArg(args[0]), floatArg(args[1])
				return value.Float(float64(int(from + genStream(vm).NextRange(-by, by)))), true, nil
			}},
		{Name: "gen/stray", Params: []Param{p("from", zeroF), p("by", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				from, by := floatArg(args[0]), floatArg(args[1])
				return value.Float(from + genStream(vm).NextRange(-by, by)), true, nil
			}},
		{Name: "gen/stray-2d", Params: []Param{p("from", value.V2D{}), p("by", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				from, by := v2dArg(args[0]), floatArg(args[1])
				s := genStream(vm)
				return value.V2D{X: from.X + s.NextRange(-by, by), Y: from.Y + s.NextRange(-by, by)}, true, nil
			}},
		{Name: "gen/stray-3d", Params: []Param{p("from", value.NewVector([]value.Var{zeroF, zeroF, zeroF})), p("by", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				elems, err := value.GetVector(args[0])
				if err != nil {
					return nil, false, err
				}
				s := genStream(vm)
				out := make([]value.Var, len(elems))
				by := floatArg(args[1])
				for i, e := range elems {
					out[i] = value.Float(floatArg(e) + s.NextRange(-by, by))
				}
				return value.NewVector(out), true, nil
			}},
		{Name: "gen/stray-4d", Params: []Param{p("from", value.NewVector([]value.Var{zeroF, zeroF, zeroF, zeroF})), p("by", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				elems, err := value.GetVector(args[0])
				if err != nil {
					return nil, false, err
				}
				s := genStream(vm)
				out := make([]value.Var, len(elems))
				by := floatArg(args[1])
				for i, e := range elems {
					out[i] = value.Float(floatArg(e) + s.NextRange(-by, by))
				}
				return value.NewVector(out), true, nil
			}},
		{Name: "gen/int", Params: []Param{p("min", zeroF), p("max", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(float64(int(genStream(vm).NextRange(floatArg(args[0]), floatArg(args[1]))))), true, nil
			}},
		{Name: "gen/scalar", Params: []Param{p("min", zeroF), p("max", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Float(genStream(vm).NextRange(floatArg(args[0]), floatArg(args[1]))), true, nil
			}},
		{Name: "gen/2d", Params: []Param{p("min", zeroF), p("max", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				min, max := floatArg(args[0]), floatArg(args[1])
				s := genStream(vm)
				return value.V2D{X: s.NextRange(min, max), Y: s.NextRange(min, max)}, true, nil
			}},
		{Name: "gen/select", Params: []Param{p("from", value.NewVector(nil))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				elems, err := value.GetVector(args[0])
				if err != nil || len(elems) == 0 {
					return nil, false, fmtErrorf("gen/select: from must be a non-empty vector")
				}
				i := int(genStream(vm).NextRange(0, float64(len(elems))))
				if i >= len(elems) {
					i = len(elems) - 1
				}
				return elems[i], true, nil
			}},
		{Name: "gen/col", Params: nil,
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s := genStream(vm)
				return value.NewRGB(s.NextFloat(), s.NextFloat(), s.NextFloat(), 1), true, nil
			}},
	}
}
