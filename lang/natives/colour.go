package natives

import (
	"context"
	"strings"

	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

func keywordName(vm *machine.VM, v value.Var) string {
	switch k := v.(type) {
	case value.Keyword:
		return vm.Names.Lookup(iname.Iname(k))
	case value.Name:
		return vm.Names.Lookup(iname.Iname(k))
	default:
		return ""
	}
}

func colourFormatArg(vm *machine.VM, v value.Var) value.ColourFormat {
	switch strings.ToLower(keywordName(vm, v)) {
	case "hsl":
		return value.HSL
	case "hsluv":
		return value.HSLuv
	case "hsv":
		return value.HSV
	case "lab":
		return value.LAB
	default:
		return value.RGB
	}
}

func colourSpecs() []Spec {
	var specs []Spec
	whiteKw := value.Keyword(0) // placeholder default; the compiler always supplies format: explicitly in practice

	specs = append(specs,
		Spec{Name: "col/convert", Params: []Param{p("format", whiteKw), p("colour", value.NewRGB(0, 0, 0, 1))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				target := colourFormatArg(vm, args[0])
				c, err := colourArg(args[1]).Convert(target)
				return c, true, err
			}},
		Spec{Name: "col/rgb", Params: []Param{p("r", zeroF), p("g", zeroF), p("b", zeroF), p("alpha", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.NewRGB(floatArg(args[0]), floatArg(args[1]), floatArg(args[2]), floatArg(args[3])), true, nil
			}},
		Spec{Name: "col/hsl", Params: []Param{p("h", zeroF), p("s", zeroF), p("l", zeroF), p("alpha", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Colour{Format: value.HSL, E0: floatArg(args[0]), E1: floatArg(args[1]), E2: floatArg(args[2]), E3: floatArg(args[3])}, true, nil
			}},
		Spec{Name: "col/hsluv", Params: []Param{p("h", zeroF), p("s", zeroF), p("l", zeroF), p("alpha", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Colour{Format: value.HSLuv, E0: floatArg(args[0]), E1: floatArg(args[1]), E2: floatArg(args[2]), E3: floatArg(args[3])}, true, nil
			}},
		Spec{Name: "col/hsv", Params: []Param{p("h", zeroF), p("s", zeroF), p("v", zeroF), p("alpha", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Colour{Format: value.HSV, E0: floatArg(args[0]), E1: floatArg(args[1]), E2: floatArg(args[2]), E3: floatArg(args[3])}, true, nil
			}},
		Spec{Name: "col/lab", Params: []Param{p("l", zeroF), p("a", zeroF), p("b", zeroF), p("alpha", oneF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.Colour{Format: value.LAB, E0: floatArg(args[0]), E1: floatArg(args[1]), E2: floatArg(args[2]), E3: floatArg(args[3])}, true, nil
			}},
		Spec{Name: "col/complementary", Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				c, err := colourArg(args[0]).Complementary()
				return c, true, err
			}},
		Spec{Name: "col/split-complementary", Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				c1, c2, err := colourArg(args[0]).SplitComplementary()
				if err != nil {
					return nil, false, err
				}
				return value.NewVector([]value.Var{c1, c2}), true, nil
			}},
		Spec{Name: "col/analagous", Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				c1, c2, err := colourArg(args[0]).Analagous()
				if err != nil {
					return nil, false, err
				}
				return value.NewVector([]value.Var{c1, c2}), true, nil
			}},
		Spec{Name: "col/triad", Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				c1, c2, err := colourArg(args[0]).Triad()
				if err != nil {
					return nil, false, err
				}
				return value.NewVector([]value.Var{c1, c2}), true, nil
			}},
		Spec{Name: "col/darken", Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1)), p("amount", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				c, err := colourArg(args[0]).Darken(floatArg(args[1]))
				return c, true, err
			}},
		Spec{Name: "col/lighten", Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1)), p("amount", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				c, err := colourArg(args[0]).Lighten(floatArg(args[1]))
				return c, true, err
			}},
		Spec{Name: "col/build-procedural", Params: []Param{p("a", value.NewRGB(0, 0, 0, 1)), p("b", value.NewRGB(1, 1, 1, 1))},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				return value.ProcColourState{A: colourArg(args[0]), B: colourArg(args[1])}, true, nil
			}},
		Spec{Name: "col/build-bezier", Params: []Param{
			p("a", value.NewRGB(0, 0, 0, 1)), p("b", value.NewRGB(1, 1, 1, 1)),
			p("ctrl1", zeroF), p("ctrl2", oneF),
		}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			return value.ProcColourState{A: colourArg(args[0]), B: colourArg(args[1]), Bezier: true, Ctrl1: floatArg(args[2]), Ctrl2: floatArg(args[3])}, true, nil
		}},
		Spec{Name: "col/value", Params: []Param{p("from", value.ProcColourState{}), p("t", zeroF)},
			Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
				s, ok := args[0].(value.ProcColourState)
				if !ok {
					return nil, false, fmtErrorf("col/value: from must be a procedural colour state")
				}
				return s.Value(floatArg(args[1])), true, nil
			}},
	)

	for _, suffix := range []string{"r", "g", "b", "h", "s", "l", "v", "a", "alpha"} {
		suffix := suffix
		idx, _ := value.ElementIndex(suffix)
		specs = append(specs,
			Spec{Name: "col/get-" + suffix, Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1))},
				Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
					return value.Float(colourArg(args[0]).Element(idx)), true, nil
				}},
			Spec{Name: "col/set-" + suffix, Params: []Param{p("colour", value.NewRGB(0, 0, 0, 1)), p("value", zeroF)},
				Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
					return colourArg(args[0]).WithElement(idx, floatArg(args[1])), true, nil
				}},
		)
	}
	return specs
}
