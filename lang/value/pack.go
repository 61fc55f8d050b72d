package value

import (
	"fmt"

	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/pack"
)

// Pack writes v to w in the packed program format (spec.md §6). names
// resolves Inames to source text for Name/String/Keyword values so the
// packed stream is portable across processes (where raw Iname integers
// would not be stable).
func Pack(w *pack.Writer, v Var, names *iname.Table) error {
	switch vv := v.(type) {
	case Int:
		w.Token("INT")
		w.Int(int64(vv))
	case Float:
		w.Token("FLOAT")
		w.Float(float64(vv))
	case Bool:
		w.Token("BOOLEAN")
		w.Bool(bool(vv))
	case Keyword:
		w.Token("KW")
		w.Token(names.Lookup(iname.Iname(vv)))
	case Long:
		w.Token("LONG")
		w.Uint(uint64(vv))
	case Name:
		w.Token("NAME")
		w.Token(names.Lookup(iname.Iname(vv)))
	case String:
		w.Token("STRING")
		w.QuotedString(names.Lookup(iname.Iname(vv)))
	case *Vector:
		w.Token("VEC")
		w.Uint(uint64(len(vv.Elems)))
		for _, e := range vv.Elems {
			if err := Pack(w, e, names); err != nil {
				return err
			}
		}
	case Colour:
		w.Token("COLOUR")
		w.Token(vv.Format.String())
		w.Float(vv.E0)
		w.Float(vv.E1)
		w.Float(vv.E2)
		w.Float(vv.E3)
	case V2D:
		w.Token("2D")
		w.Float(vv.X)
		w.Float(vv.Y)
	default:
		return fmt.Errorf("value: cannot pack a %s value", v.Type())
	}
	return nil
}

// Unpack reads one Var from r, interning any Name/String/Keyword text into
// names.
func Unpack(r *pack.Reader, names *iname.Table) (Var, error) {
	tag, err := r.Token()
	if err != nil {
		return nil, err
	}
	switch tag {
	case "INT":
		n, err := r.Int()
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case "FLOAT":
		f, err := r.Float()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case "BOOLEAN":
		b, err := r.Bool()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "KW":
		s, err := r.Token()
		if err != nil {
			return nil, err
		}
		return Keyword(names.Intern(s)), nil
	case "LONG":
		u, err := r.Uint()
		if err != nil {
			return nil, err
		}
		return Long(u), nil
	case "NAME":
		s, err := r.Token()
		if err != nil {
			return nil, err
		}
		return Name(names.Intern(s)), nil
	case "STRING":
		s, err := r.QuotedString()
		if err != nil {
			return nil, err
		}
		return String(names.Intern(s)), nil
	case "VEC":
		n, err := r.Uint()
		if err != nil {
			return nil, err
		}
		elems := make([]Var, 0, n)
		for i := uint64(0); i < n; i++ {
			e, err := Unpack(r, names)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return NewVector(elems), nil
	case "COLOUR":
		ft, err := r.Token()
		if err != nil {
			return nil, err
		}
		format, err := parseColourFormat(ft)
		if err != nil {
			return nil, err
		}
		e0, err := r.Float()
		if err != nil {
			return nil, err
		}
		e1, err := r.Float()
		if err != nil {
			return nil, err
		}
		e2, err := r.Float()
		if err != nil {
			return nil, err
		}
		e3, err := r.Float()
		if err != nil {
			return nil, err
		}
		return Colour{Format: format, E0: e0, E1: e1, E2: e2, E3: e3}, nil
	case "2D":
		x, err := r.Float()
		if err != nil {
			return nil, err
		}
		y, err := r.Float()
		if err != nil {
			return nil, err
		}
		return V2D{X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("pack: unknown value tag: %q", tag)
	}
}

func parseColourFormat(s string) (ColourFormat, error) {
	switch s {
	case "RGB":
		return RGB, nil
	case "HSL":
		return HSL, nil
	case "HSLuv":
		return HSLuv, nil
	case "HSV":
		return HSV, nil
	case "LAB":
		return LAB, nil
	default:
		return 0, fmt.Errorf("pack: unknown colour format: %q", s)
	}
}
