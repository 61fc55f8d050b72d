package bytecode

import (
	"fmt"

	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/pack"
)

// Pack writes p to w in the packed program format (spec.md §6): a decimal
// bytecode count header followed by one "op ARG0 ARG1" line-equivalent
// token run per instruction, e.g. "store MEM 2 16 NONE" for STORE Global 16
// (the lowercase opcode name, then each argument's tag and fields).
func Pack(w *pack.Writer, p *Program, names *iname.Table) error {
	w.Uint(uint64(len(p.Code)))
	for _, bc := range p.Code {
		w.Token(opcodeNames[bc.Op])
		if err := packArg(w, bc.Arg0, names); err != nil {
			return err
		}
		if err := packArg(w, bc.Arg1, names); err != nil {
			return err
		}
	}
	return nil
}

func packArg(w *pack.Writer, a Arg, names *iname.Table) error {
	switch a.Kind {
	case ArgNone:
		w.Token("NONE")
	case ArgInt:
		w.Token("INT")
		w.Int(a.Int)
	case ArgFloat:
		w.Token("FLOAT")
		w.Float(a.Float)
	case ArgBool:
		w.Token("BOOL")
		if a.Bool {
			w.Int(1)
		} else {
			w.Int(0)
		}
	case ArgMem:
		w.Token("MEM")
		w.Int(int64(a.Mem))
		w.Int(int64(a.Slot))
	case ArgName:
		w.Token("NAME")
		w.Token(names.Lookup(iname.Iname(a.Iname)))
	case ArgString:
		w.Token("STRING")
		w.Token(names.Lookup(iname.Iname(a.Iname)))
	case ArgNative:
		w.Token("NATIVE")
		w.Int(int64(a.Native))
	case ArgKeyword:
		w.Token("KW")
		w.Token(names.Lookup(iname.Iname(a.Iname)))
	case ArgColour:
		w.Token("COLOUR")
		w.Int(int64(a.Int))
		for _, e := range a.Colour {
			w.Float(e)
		}
	default:
		return fmt.Errorf("bytecode: cannot pack arg kind %d", a.Kind)
	}
	return nil
}

// Unpack reads a Program from r in the packed program format.
func Unpack(r *pack.Reader, names *iname.Table) (*Program, error) {
	n, err := r.Uint()
	if err != nil {
		return nil, err
	}
	p := &Program{Code: make([]Bytecode, 0, n)}
	for i := uint64(0); i < n; i++ {
		opTok, err := r.Token()
		if err != nil {
			return nil, err
		}
		op, ok := opcodeByName(opTok)
		if !ok {
			return nil, fmt.Errorf("pack: unknown opcode %q", opTok)
		}
		arg0, err := unpackArg(r, names)
		if err != nil {
			return nil, err
		}
		arg1, err := unpackArg(r, names)
		if err != nil {
			return nil, err
		}
		p.Code = append(p.Code, Bytecode{Op: op, Arg0: arg0, Arg1: arg1})
	}
	return p, nil
}

func unpackArg(r *pack.Reader, names *iname.Table) (Arg, error) {
	tag, err := r.Token()
	if err != nil {
		return Arg{}, err
	}
	switch tag {
	case "NONE":
		return Arg{Kind: ArgNone}, nil
	case "INT":
		n, err := r.Int()
		return Arg{Kind: ArgInt, Int: n}, err
	case "FLOAT":
		f, err := r.Float()
		return Arg{Kind: ArgFloat, Float: f}, err
	case "BOOL":
		n, err := r.Int()
		return Arg{Kind: ArgBool, Bool: n != 0}, err
	case "MEM":
		m, err := r.Int()
		if err != nil {
			return Arg{}, err
		}
		slot, err := r.Int()
		return Arg{Kind: ArgMem, Mem: Mem(m), Slot: int(slot)}, err
	case "NAME":
		s, err := r.Token()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgName, Iname: uint32(names.Intern(s))}, nil
	case "STRING":
		s, err := r.Token()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgString, Iname: uint32(names.Intern(s))}, nil
	case "NATIVE":
		n, err := r.Int()
		return Arg{Kind: ArgNative, Native: int(n)}, err
	case "KW":
		s, err := r.Token()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgKeyword, Iname: uint32(names.Intern(s))}, nil
	case "COLOUR":
		fmtID, err := r.Int()
		if err != nil {
			return Arg{}, err
		}
		var cols [4]float64
		for i := range cols {
			cols[i], err = r.Float()
			if err != nil {
				return Arg{}, err
			}
		}
		return Arg{Kind: ArgColour, Int: fmtID, Colour: cols}, nil
	default:
		return Arg{}, fmt.Errorf("pack: unknown bytecode arg tag %q", tag)
	}
}

func opcodeByName(name string) (Opcode, bool) {
	for op, n := range opcodeNames {
		if n == name {
			return Opcode(op), true
		}
	}
	return 0, false
}
