package value

import "math"

// Easing names the remapping curve applied by InterpState.Value between the
// `from` domain and the `to` range (grounded on ease.rs's easing table in
// the original implementation; only the subset reachable from `interp/*`
// natives is modelled).
type Easing uint8

const (
	EaseLinear Easing = iota
	EaseEaseIn
	EaseEaseOut
	EaseEaseInOut
)

// InterpState maps a scalar t in [FromA, FromB] to a value in [ToA, ToB]
// (scalar form) or to a point on a line/circle/bezier curve (`interp/line`,
// `interp/circle`, `interp/bezier`), with an easing curve applied to the
// normalized t before remapping.
type InterpState struct {
	FromA, FromB float64
	ToA, ToB     float64
	Easing       Easing

	// Line form: a point is produced by interpolating From..To (2D) instead
	// of the scalar ToA..ToB range.
	IsLine         bool
	LineFrom, LineTo V2D

	// Circle form.
	IsCircle     bool
	CircleCentre V2D
	CircleRadius float64

	// Bezier form: 4 control points.
	IsBezier bool
	Bezier   [4]V2D
}

func (InterpState) Type() string   { return "interp-state" }
func (InterpState) String() string { return "InterpState(...)" }

var _ Var = InterpState{}

func applyEasing(t float64, e Easing) float64 {
	switch e {
	case EaseEaseIn:
		return t * t
	case EaseEaseOut:
		return t * (2 - t)
	case EaseEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	default:
		return t
	}
}

func normalize(t, a, b float64) float64 {
	if a == b {
		return 0
	}
	n := (t - a) / (b - a)
	if n < 0 {
		n = 0
	} else if n > 1 {
		n = 1
	}
	return n
}

// Value returns the scalar result of remapping t through the interpolator
// (used by `interp/value`).
func (s InterpState) Value(t float64) float64 {
	n := applyEasing(normalize(t, s.FromA, s.FromB), s.Easing)
	return s.ToA + n*(s.ToB-s.ToA)
}

// LineAt returns the point at t along the configured line.
func (s InterpState) LineAt(t float64) V2D {
	n := applyEasing(normalize(t, s.FromA, s.FromB), s.Easing)
	return V2D{
		X: s.LineFrom.X + n*(s.LineTo.X-s.LineFrom.X),
		Y: s.LineFrom.Y + n*(s.LineTo.Y-s.LineFrom.Y),
	}
}

// CircleAt returns the point at angle-fraction t (in [0,1) of a full turn)
// around the configured circle.
func (s InterpState) CircleAt(t float64) V2D {
	n := applyEasing(normalize(t, s.FromA, s.FromB), s.Easing)
	angle := n * 2 * math.Pi
	return V2D{
		X: s.CircleCentre.X + s.CircleRadius*math.Cos(angle),
		Y: s.CircleCentre.Y + s.CircleRadius*math.Sin(angle),
	}
}

// BezierAt evaluates the configured cubic bezier at t.
func (s InterpState) BezierAt(t float64) V2D {
	n := applyEasing(normalize(t, s.FromA, s.FromB), s.Easing)
	return cubicBezier(s.Bezier[0], s.Bezier[1], s.Bezier[2], s.Bezier[3], n)
}

func cubicBezier(p0, p1, p2, p3 V2D, t float64) V2D {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return V2D{
		X: b0*p0.X + b1*p1.X + b2*p2.X + b3*p3.X,
		Y: b0*p0.Y + b1*p1.Y + b2*p2.Y + b3*p3.Y,
	}
}

// BezierTangent returns the tangent (derivative) direction at t, used by
// `interp/bezier-tangent`-style natives that orient strokes along a path.
func BezierTangent(p0, p1, p2, p3 V2D, t float64) V2D {
	u := 1 - t
	return V2D{
		X: 3*u*u*(p1.X-p0.X) + 6*u*t*(p2.X-p1.X) + 3*t*t*(p3.X-p2.X),
		Y: 3*u*u*(p1.Y-p0.Y) + 6*u*t*(p2.Y-p1.Y) + 3*t*t*(p3.Y-p2.Y),
	}
}
