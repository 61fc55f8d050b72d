package natives

import (
	"context"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

func prngStateArg(v value.Var) (value.PrngState, bool) {
	s, ok := v.(value.PrngState)
	return s, ok
}

func prngSpecs() []Spec {
	return []Spec{
		{Name: "prng/build", Params: []Param{p("seed", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.PrngState{Stream: value.NewPrngStream(uint64(floatArg(args[0])))}, true, nil
			}},
		{Name: "prng/value", Params: []Param{p("from", value.PrngState{}), p("min", zeroF), p("max", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s, ok := prngStateArg(args[0])
				if !ok {
					return nil, false, fmtErrorf("prng/value: from must be a prng state")
				}
				return value.Float(s.Stream.NextRange(floatArg(args[1]), floatArg(args[2]))), true, nil
			}},
		{Name: "prng/values", Params: []Param{p("from", value.PrngState{}), p("num", oneF), p("min", zeroF), p("max", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s, ok := prngStateArg(args[0])
				if !ok {
					return nil, false, fmtErrorf("prng/values: from must be a prng state")
				}
				n := int(floatArg(args[1]))
				lo, hi := floatArg(args[2]), floatArg(args[3])
				elems := make([]value.Var, n)
				for i := 0; i < n; i++ {
					elems[i] = value.Float(s.Stream.NextRange(lo, hi))
				}
				return value.NewVector(elems), true, nil
			}},
		{Name: "prng/perlin", Params: []Param{p("from", value.PrngState{}), p("x", zeroF), p("y", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s, ok := prngStateArg(args[0])
				if !ok {
					return nil, false, fmtErrorf("prng/perlin: from must be a prng state")
				}
				return value.Float(s.Stream.Perlin2D(floatArg(args[1]), floatArg(args[2]))), true, nil
			}},
	}
}
