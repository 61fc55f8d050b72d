// Package value implements the tagged Var value model used both as
// compile-time constants and run-time stack cells (spec.md §3 "Value
// (Var)"), along with the Colour type and the handle-value state records
// (PRNG, interpolation, focal, procedural-colour) that natives build and
// consume.
package value

import (
	"fmt"

	"github.com/mna/seni/lang/iname"
)

// Var is the interface implemented by every value the language can produce:
// a literal, a native's return value, or a cell on the VM's operand stack.
type Var interface {
	// Type returns a short, stable type name, used in error messages and by
	// natives that branch on argument type.
	Type() string
	String() string
}

// Int is a signed integer value (used internally by the VM for addresses,
// counters, and booleans-as-ints in the frame header; rarely surfaced to
// user programs, which prefer Float).
type Int int32

func (Int) Type() string      { return "int" }
func (v Int) String() string  { return fmt.Sprintf("Int(%d)", int32(v)) }

// Float is the language's only user-facing numeric type.
type Float float64

func (Float) Type() string     { return "float" }
func (v Float) String() string { return fmt.Sprintf("Float(%g)", float64(v)) }

// Bool is a boolean value.
type Bool bool

func (Bool) Type() string     { return "bool" }
func (v Bool) String() string { return fmt.Sprintf("Bool(%t)", bool(v)) }

// Keyword is a bare keyword value (e.g. `brush-flat`, used as an enum-like
// argument to natives such as `line`'s `brush:` parameter).
type Keyword iname.Iname

func (Keyword) Type() string     { return "keyword" }
func (v Keyword) String() string { return fmt.Sprintf("Keyword(%d)", iname.Iname(v)) }

// Long is a 64-bit unsigned value, used by the PRNG state and packed
// genotype seeds.
type Long uint64

func (Long) Type() string     { return "long" }
func (v Long) String() string { return fmt.Sprintf("Long(%d)", uint64(v)) }

// Name is an unresolved interned name, produced by `quote` (spec.md §4.2
// "Quote") so that names survive as data rather than being looked up.
type Name iname.Iname

func (Name) Type() string     { return "name" }
func (v Name) String() string { return fmt.Sprintf("Name(%d)", iname.Iname(v)) }

// String is an interned string literal value.
type String iname.Iname

func (String) Type() string     { return "string" }
func (v String) String() string { return fmt.Sprintf("String(%d)", iname.Iname(v)) }

// Vector is an ordered, heterogeneous sequence of Vars, produced by vector
// literals, SQUISH with n != 2, and `++`/APPEND.
type Vector struct {
	Elems []Var
}

func (*Vector) Type() string { return "vector" }
func (v *Vector) String() string {
	return fmt.Sprintf("Vector(len=%d)", len(v.Elems))
}

// NewVector returns a Vector wrapping elems (no copy).
func NewVector(elems []Var) *Vector { return &Vector{Elems: elems} }

// V2D is the fused representation of a 2-element float vector; SQUISH 2
// produces this instead of a Vector when both operands are floats
// (spec.md §4.3 "SQUISH").
type V2D struct {
	X, Y float64
}

func (V2D) Type() string     { return "2d" }
func (v V2D) String() string { return fmt.Sprintf("V2D(%g, %g)", v.X, v.Y) }

// AsFloatPair extracts (x, y) if v is a V2D.
func AsFloatPair(v Var) (x, y float64, ok bool) {
	p, ok := v.(V2D)
	if !ok {
		return 0, 0, false
	}
	return p.X, p.Y, true
}

// GetFloat returns the float value of v, or an error if v is not a Float.
func GetFloat(v Var) (float64, error) {
	f, ok := v.(Float)
	if !ok {
		return 0, fmt.Errorf("type mismatch: expected float, got %s", v.Type())
	}
	return float64(f), nil
}

// GetBool returns the bool value of v, or an error if v is not a Bool.
func GetBool(v Var) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, fmt.Errorf("type mismatch: expected bool, got %s", v.Type())
	}
	return bool(b), nil
}

// GetVector returns the elements of v: a Vector's elements directly, or a
// V2D reinterpreted as a 2-element slice (several opcodes/natives treat a
// V2D as if it were a 2-element vector, spec.md "each"/"PILE").
func GetVector(v Var) ([]Var, error) {
	switch vv := v.(type) {
	case *Vector:
		return vv.Elems, nil
	case V2D:
		return []Var{Float(vv.X), Float(vv.Y)}, nil
	default:
		return nil, fmt.Errorf("type mismatch: expected vector or 2d, got %s", v.Type())
	}
}

// Truthy reports whether v is considered true in a conditional context:
// Bool evaluates directly, every other value is truthy (there is no nil
// value in this language; `if` predicates are always Bool in well-formed
// programs, but natives such as comparisons may be chained more loosely).
func Truthy(v Var) bool {
	if b, ok := v.(Bool); ok {
		return bool(b)
	}
	return true
}
