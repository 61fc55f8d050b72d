package natives

import (
	"context"
	"fmt"

	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

func p(name string, def value.Var) Param { return Param{Name: name, Default: def} }

var zeroF = value.Float(0)
var oneF = value.Float(1)

func allSpecs() []Spec {
	var specs []Spec
	specs = append(specs, debugSpecs()...)
	specs = append(specs, shapeSpecs()...)
	specs = append(specs, transformSpecs()...)
	specs = append(specs, colourSpecs()...)
	specs = append(specs, mathSpecs()...)
	specs = append(specs, prngSpecs()...)
	specs = append(specs, interpSpecs()...)
	specs = append(specs, focalSpecs()...)
	specs = append(specs, genSpecs()...)
	specs = append(specs, repeatSpecs()...)
	specs = append(specs, pathSpecs()...)
	return specs
}

func debugSpecs() []Spec {
	return []Spec{
		{Name: "debug/print", Params: []Param{p("value", value.String(0))}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			fmt.Println(args[0])
			return nil, false, nil
		}},
		{Name: "probe", Params: []Param{p("scalar", zeroF)}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			return args[0], true, nil
		}},
		{Name: "vector/length", Params: []Param{p("vector", value.NewVector(nil))}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			elems, err := value.GetVector(args[0])
			if err != nil {
				return nil, false, err
			}
			return value.Float(len(elems)), true, nil
		}},
		{Name: "vector/nth", Params: []Param{p("vector", value.NewVector(nil)), p("n", zeroF)}, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			elems, err := value.GetVector(args[0])
			if err != nil {
				return nil, false, err
			}
			n := int(floatArg(args[1]))
			if n < 0 || n >= len(elems) {
				return nil, false, fmtErrorf("vector/nth: index %d out of range (len %d)", n, len(elems))
			}
			return elems[n], true, nil
		}},
	}
}

func shapeSpecs() []Spec {
	colourWhite := value.NewRGB(1, 1, 1, 1)
	return []Spec{
		{Name: "line", Params: []Param{
			p("from", value.V2D{}), p("to", value.V2D{X: 1, Y: 1}),
			p("width", oneF), p("colour", colourWhite),
		}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			from, to := v2dArg(args[0]), v2dArg(args[1])
			vm.Draw.Line(from.X, from.Y, to.X, to.Y, floatArg(args[2]), colourArg(args[3]))
			return nil, false, nil
		}},
		{Name: "rect", Params: []Param{
			p("position", value.V2D{}), p("width", oneF), p("height", oneF), p("colour", colourWhite),
		}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			pos := v2dArg(args[0])
			vm.Draw.Rect(pos.X, pos.Y, floatArg(args[1]), floatArg(args[2]), colourArg(args[3]))
			return nil, false, nil
		}},
		{Name: "circle", Params: []Param{
			p("position", value.V2D{}), p("radius", oneF), p("colour", colourWhite),
		}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			pos := v2dArg(args[0])
			vm.Draw.Circle(pos.X, pos.Y, floatArg(args[1]), colourArg(args[2]))
			return nil, false, nil
		}},
		{Name: "bezier", Params: []Param{
			p("coords", value.NewVector([]value.Var{value.V2D{}, value.V2D{}, value.V2D{}, value.V2D{}})),
			p("line-width", oneF), p("colour", colourWhite),
		}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			elems, err := value.GetVector(args[0])
			if err != nil || len(elems) != 4 {
				return nil, false, fmtErrorf("bezier: coords must have 4 points")
			}
			var pts [4]value.V2D
			for i, e := range elems {
				pts[i] = v2dArg(e)
			}
			vm.Draw.Bezier(pts, floatArg(args[1]), colourArg(args[2]))
			return nil, false, nil
		}},
		{Name: "stroked-bezier", Params: []Param{
			p("coords", value.NewVector([]value.Var{value.V2D{}, value.V2D{}, value.V2D{}, value.V2D{}})),
			p("stroke-line-width-start", oneF), p("stroke-line-width-end", oneF),
			p("colour", colourWhite), p("tessellation", value.Float(15)),
		}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			elems, err := value.GetVector(args[0])
			if err != nil || len(elems) != 4 {
				return nil, false, fmtErrorf("stroked-bezier: coords must have 4 points")
			}
			var pts [4]value.V2D
			for i, e := range elems {
				pts[i] = v2dArg(e)
			}
			vm.Draw.StrokedBezier(pts, floatArg(args[1]), floatArg(args[2]), colourArg(args[3]), int(floatArg(args[4])))
			return nil, false, nil
		}},
		{Name: "poly", Params: []Param{
			p("coords", value.NewVector(nil)), p("colours", value.NewVector(nil)),
		}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			coords, err := value.GetVector(args[0])
			if err != nil {
				return nil, false, err
			}
			cols, err := value.GetVector(args[1])
			if err != nil {
				return nil, false, err
			}
			if len(coords) != len(cols) {
				return nil, false, fmtErrorf("poly: coords and colours must have the same length")
			}
			pts := make([]value.V2D, len(coords))
			for i, e := range coords {
				pts[i] = v2dArg(e)
			}
			colours := make([]value.Colour, len(cols))
			for i, e := range cols {
				colours[i] = colourArg(e)
			}
			vm.Draw.Poly(pts, colours)
			return nil, false, nil
		}},
	}
}

func transformSpecs() []Spec {
	return []Spec{
		{Name: "translate", Params: []Param{p("vector", value.V2D{})}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			v := v2dArg(args[0])
			vm.Draw.Translate(v.X, v.Y)
			return nil, false, nil
		}},
		{Name: "rotate", Params: []Param{p("angle", zeroF)}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			vm.Draw.Rotate(floatArg(args[0]))
			return nil, false, nil
		}},
		{Name: "scale", Params: []Param{p("vector", value.V2D{X: 1, Y: 1})}, NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			v := v2dArg(args[0])
			vm.Draw.Scale(v.X, v.Y)
			return nil, false, nil
		}},
		{Name: "matrix/push", NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			vm.Draw.PushMatrix()
			return nil, false, nil
		}},
		{Name: "matrix/pop", NoResult: true, Handler: func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error) {
			vm.Draw.PopMatrix()
			return nil, false, nil
		}},
	}
}

func fmtErrorf(format string, a ...any) error { return fmt.Errorf(format, a...) }
