package natives_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/seni/lang/compiler"
	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/natives"
	"github.com/mna/seni/lang/parser"
	"github.com/mna/seni/lang/value"
)

// recordingDraw implements machine.DrawContext, keeping only the calls these
// tests assert on; every other method is a no-op.
type recordingDraw struct {
	polyPoints  []value.V2D
	polyColours []value.Colour
	strokedPts  [4]value.V2D
	strokedCall bool
}

func (d *recordingDraw) Line(x1, y1, x2, y2, width float64, colour value.Colour) {}
func (d *recordingDraw) Rect(x, y, w, h float64, colour value.Colour)            {}
func (d *recordingDraw) Circle(x, y, radius float64, colour value.Colour)       {}
func (d *recordingDraw) Bezier(points [4]value.V2D, lineWidth float64, colour value.Colour) {}

func (d *recordingDraw) StrokedBezier(points [4]value.V2D, widthStart, widthEnd float64, colour value.Colour, tessellation int) {
	d.strokedCall = true
	d.strokedPts = points
}

func (d *recordingDraw) Poly(points []value.V2D, colours []value.Colour) {
	d.polyPoints = points
	d.polyColours = colours
}

func (d *recordingDraw) PushMatrix()                   {}
func (d *recordingDraw) PopMatrix()                     {}
func (d *recordingDraw) Translate(x, y float64)         {}
func (d *recordingDraw) Rotate(radians float64)         {}
func (d *recordingDraw) Scale(x, y float64)             {}
func (d *recordingDraw) Background(colour value.Colour) {}

var _ machine.DrawContext = (*recordingDraw)(nil)

func run(t *testing.T, draw machine.DrawContext, src string) value.Var {
	t.Helper()
	nodes, names, err := parser.Parse("test", []byte(src), natives.Names())
	require.NoError(t, err)
	nat := natives.Bind(names)

	prog, err := compiler.Compile(nodes, names, nat, false)
	require.NoError(t, err)

	vm := machine.New(prog, names, nat, draw, value.NewPrngStream(1))
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestPolyForwardsPointsAndColours(t *testing.T) {
	draw := &recordingDraw{}
	run(t, draw, `
		(poly
		  coords: [[0 0] [10 0] [10 10]]
		  colours: [red green blue])
	`)
	require.Len(t, draw.polyPoints, 3)
	require.Len(t, draw.polyColours, 3)
	require.Equal(t, value.V2D{X: 10, Y: 0}, draw.polyPoints[1])
}

func TestStrokedBezierForwardsCoords(t *testing.T) {
	draw := &recordingDraw{}
	run(t, draw, `
		(stroked-bezier coords: [[0 0] [0 10] [10 10] [10 0]])
	`)
	require.True(t, draw.strokedCall)
	require.Equal(t, value.V2D{X: 10, Y: 0}, draw.strokedPts[3])
}

func TestPathLinearSamplesEndpoints(t *testing.T) {
	result := run(t, nil, `
		(path/linear from: [0 0] to: [10 0] steps: 3)
	`)
	elems, err := value.GetVector(result)
	require.NoError(t, err)
	require.Len(t, elems, 3)
	require.Equal(t, value.V2D{X: 0, Y: 0}, elems[0])
	require.Equal(t, value.V2D{X: 10, Y: 0}, elems[2])
}

func TestPathCircleSamplesStartingPoint(t *testing.T) {
	result := run(t, nil, `
		(path/circle position: [0 0] radius: 10 steps: 4)
	`)
	elems, err := value.GetVector(result)
	require.NoError(t, err)
	require.Len(t, elems, 4)
	first := elems[0].(value.V2D)
	require.InDelta(t, 10, first.X, 1e-9)
	require.InDelta(t, 0, first.Y, 1e-9)
}

func TestGen2DSamplesWithinRange(t *testing.T) {
	result := run(t, nil, `(gen/2d min: 1 max: 2)`)
	v, ok := result.(value.V2D)
	require.True(t, ok)
	require.GreaterOrEqual(t, v.X, 1.0)
	require.LessOrEqual(t, v.X, 2.0)
	require.GreaterOrEqual(t, v.Y, 1.0)
	require.LessOrEqual(t, v.Y, 2.0)
}

func TestMathRadiansToDegreesName(t *testing.T) {
	result := run(t, nil, `(math/radians->degrees radians: 3.141592653589793)`)
	require.InDelta(t, 180, float64(result.(value.Float)), 1e-6)
}

func TestMathDegreesToRadiansName(t *testing.T) {
	result := run(t, nil, `(math/degrees->radians degrees: 180)`)
	require.InDelta(t, 3.141592653589793, float64(result.(value.Float)), 1e-6)
}
