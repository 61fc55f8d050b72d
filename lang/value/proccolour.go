package value

// ProcColourState is a colour expressed as a function of a single scalar t
// in [0, 1], built by `col/build-procedural` (linear interpolation between
// two colours, matching each colour's own component format) or
// `col/build-bezier` (per-channel cubic bezier easing between the two
// colours). Supplements spec.md §6 per SPEC_FULL.md §5.
type ProcColourState struct {
	A, B   Colour
	Bezier bool
	// Control points for the bezier form, shared by all four channels, each
	// in [0,1]: the inner control values of a 1D cubic bezier running from 0
	// to 1 (a compact stand-in for a full 4-point bezier per channel).
	Ctrl1, Ctrl2 float64
}

func (ProcColourState) Type() string   { return "proc-colour-state" }
func (ProcColourState) String() string { return "ProcColourState(...)" }

var _ Var = ProcColourState{}

// Value evaluates the procedural colour at t (`col/value`).
func (s ProcColourState) Value(t float64) Colour {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	n := t
	if s.Bezier {
		n = cubicEase1D(s.Ctrl1, s.Ctrl2, t)
	}
	return Colour{
		Format: s.A.Format,
		E0:     lerp(s.A.E0, s.B.E0, n),
		E1:     lerp(s.A.E1, s.B.E1, n),
		E2:     lerp(s.A.E2, s.B.E2, n),
		E3:     lerp(s.A.E3, s.B.E3, n),
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// cubicEase1D evaluates a single-axis cubic bezier with control fractions
// ctrl1, ctrl2 at parameter t (a 1D analogue of the CSS cubic-bezier
// easing function).
func cubicEase1D(ctrl1, ctrl2, t float64) float64 {
	u := 1 - t
	return 3*u*u*t*ctrl1 + 3*u*t*t*ctrl2 + t*t*t
}
