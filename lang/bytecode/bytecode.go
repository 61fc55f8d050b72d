// Package bytecode defines the flat, register-less opcode set and program
// representation the compiler emits and the machine executes (spec.md §4.2,
// §4.3). The opcode table and the "stack picture" comment convention follow
// the teacher's lang/compiler/opcode.go; the opcodes themselves are this
// language's, not the teacher's CFG-block set.
package bytecode

import (
	"fmt"
	"io"
)

// Opcode is one operation in a Program's code stream.
type Opcode uint8

// Stack-picture comments describe values before/after execution, topmost
// value last.
const ( //nolint:revive
	NOP Opcode = iota // - NOP -

	LOAD  //  - LOAD<mem,slot>   value
	STORE //  value STORE<mem,slot> -

	ADD // a b ADD a+b
	SUB // a b SUB a-b
	MUL // a b MUL a*b
	DIV // a b DIV a/b

	LT  // a b LT a<b
	LE  // a b LE a<=b
	GT  // a b GT a>b
	GE  // a b GE a>=b
	EQL // a b EQL a==b
	NEQ // a b NEQ a!=b

	AND // a b AND a&&b
	OR  // a b OR  a||b
	NOT // a NOT !a

	DUP    // v DUP v v                 duplicate the top of stack

	SQUISH // x1..xn SQUISH<n> v          fuse n floats/values into a V2D (n=2) or Vector
	PILE   // v PILE<n> x1..xn            push a V2D/Vector's first n elements in order
	APPEND // v x APPEND v'               append x to vector v, push result

	VEC_NON_EMPTY  // v VEC_NON_EMPTY v bool
	VEC_LOAD_FIRST // v VEC_LOAD_FIRST v 0 elem
	VEC_HAS_NEXT   // iter VEC_HAS_NEXT iter bool
	VEC_NEXT       // iter VEC_NEXT iter elem

	// --- opcodes with a jump-target argument must go below this line ---

	JUMP  //      - JUMP<addr>  -            unconditional
	CJUMP // cond CJUMP<addr> -              pop cond, jump if false

	CALL      // addr numargs CALL<fi,fi>  -           build frame, jump to arg_address
	CALL_0    //          addr CALL_0<fi,fi> -          jump to body_address, reuse frame
	CALL_F    //            fi CALL_F<,>  -           fn-info-index read from stack
	CALL_F_0  //            fi CALL_F_0<,> -
	RET       //     value RET       value        tear down frame, push result
	RET_0     //          - RET_0     -            jump to saved return ip, no teardown
	NATIVE    // mask a1..an NATIVE<native> [result]   dispatch to native registry

	// PLACEHOLDER_STORE is a compile-time-only pseudo-opcode: it records a
	// deferred STORE into a not-yet-known argument slot, and the
	// address-correction pass (compiler Phase 6) rewrites every occurrence
	// to a real STORE (Argument or Void) before a program is ever run.
	PLACEHOLDER_STORE

	STOP // - STOP -   halt

	maxOpcode
)

var opcodeNames = [...]string{
	NOP:                "nop",
	LOAD:                "load",
	STORE:               "store",
	ADD:                 "add",
	SUB:                 "sub",
	MUL:                 "mul",
	DIV:                 "div",
	LT:                  "lt",
	LE:                  "le",
	GT:                  "gt",
	GE:                  "ge",
	EQL:                 "eql",
	NEQ:                 "neq",
	AND:                 "and",
	OR:                  "or",
	NOT:                 "not",
	DUP:                 "dup",
	SQUISH:              "squish",
	PILE:                "pile",
	APPEND:              "append",
	VEC_NON_EMPTY:       "vec_non_empty",
	VEC_LOAD_FIRST:      "vec_load_first",
	VEC_HAS_NEXT:        "vec_has_next",
	VEC_NEXT:            "vec_next",
	JUMP:                "jump",
	CJUMP:               "cjump",
	CALL:                "call",
	CALL_0:              "call_0",
	CALL_F:              "call_f",
	CALL_F_0:            "call_f_0",
	RET:                 "ret",
	RET_0:               "ret_0",
	NATIVE:              "native",
	PLACEHOLDER_STORE:   "placeholder_store",
	STOP:                "stop",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", op)
}

// OpcodeArgMin is the first opcode that carries a jump-target argument.
// Disassemble and Pack do not consult it: they render each Arg by its Kind.
const OpcodeArgMin = JUMP

// Mem selects the memory segment an Arg addresses (spec.md §4.2).
type Mem uint8

const (
	MemArgument Mem = iota
	MemLocal
	MemGlobal
	MemConstant
	MemVoid
)

func (m Mem) String() string {
	switch m {
	case MemArgument:
		return "Argument"
	case MemLocal:
		return "Local"
	case MemGlobal:
		return "Global"
	case MemConstant:
		return "Constant"
	case MemVoid:
		return "Void"
	default:
		return fmt.Sprintf("mem(%d)", m)
	}
}

// ArgKind tags the concrete shape of a Bytecode argument.
type ArgKind uint8

const (
	ArgNone ArgKind = iota
	ArgInt
	ArgFloat
	ArgBool   // a literal true/false (the "true"/"false" keywords)
	ArgMem    // a Mem segment plus a slot index
	ArgName   // an Iname naming a variable
	ArgString // an Iname naming an interned string constant
	ArgNative // a native function index
	ArgKeyword
	ArgColour
)

// Arg is a tagged bytecode operand (spec.md §4.2: Int, Float, Mem,
// Name(Iname), String(Iname), Native, Keyword, Colour).
type Arg struct {
	Kind   ArgKind
	Int    int64
	Float  float64
	Bool   bool
	Mem    Mem
	Slot   int
	Iname  uint32
	Native int
	Colour [4]float64 // E0..E3; colour format stored in Int
}

func (a Arg) String() string {
	switch a.Kind {
	case ArgNone:
		return "-"
	case ArgInt:
		return fmt.Sprintf("%d", a.Int)
	case ArgFloat:
		return fmt.Sprintf("%g", a.Float)
	case ArgBool:
		return fmt.Sprintf("%t", a.Bool)
	case ArgMem:
		return fmt.Sprintf("%s %d", a.Mem, a.Slot)
	case ArgName, ArgString:
		return fmt.Sprintf("iname(%d)", a.Iname)
	case ArgNative:
		return fmt.Sprintf("native(%d)", a.Native)
	case ArgKeyword:
		return fmt.Sprintf("kw(%d)", a.Iname)
	case ArgColour:
		return fmt.Sprintf("colour(%v)", a.Colour)
	default:
		return "?"
	}
}

// Bytecode is one instruction: an opcode plus up to two arguments (spec.md
// §3, Bytecode).
type Bytecode struct {
	Op         Opcode
	Arg0, Arg1 Arg
}

// FnInfo describes one compiled function (spec.md §3). Functions are
// allocated an FnInfo entry during Phase 2 (registration), before any
// bytecode is emitted for them or their callers, so forward references
// resolve.
type FnInfo struct {
	FnName          uint32 // Iname
	ArgAddress      int
	BodyAddress     int
	NumArgs         int
	ArgumentOffsets []uint32 // Iname, in declaration order
}

// DataString is one entry of a Program's string pool.
type DataString struct {
	Iname uint32
	Str   string
}

// Program is the complete output of compilation (spec.md §3). The final
// opcode in Code is always STOP.
type Program struct {
	Code   []Bytecode
	FnInfo []FnInfo
	Data   struct {
		Strings []DataString
	}
}

// NonsenseSentinel is the placeholder int used for LOAD Constant arguments
// that the address-correction pass (compiler Phase 6) has not yet patched.
// No NonsenseSentinel value may remain in a Program returned from
// compilation (spec.md testable property).
const NonsenseSentinel = -1

// Disassemble writes a human-readable listing of p's code stream to w, one
// instruction per line, following the teacher's lang/compiler/asm.go
// section-based text format: an address column, the opcode mnemonic, and
// its arguments.
func (p *Program) Disassemble(w io.Writer) {
	for i, bc := range p.Code {
		switch {
		case bc.Arg0.Kind == ArgNone && bc.Arg1.Kind == ArgNone:
			fmt.Fprintf(w, "%4d  %s\n", i, bc.Op)
		case bc.Arg1.Kind == ArgNone:
			fmt.Fprintf(w, "%4d  %-8s %s\n", i, bc.Op, bc.Arg0)
		default:
			fmt.Fprintf(w, "%4d  %-8s %s %s\n", i, bc.Op, bc.Arg0, bc.Arg1)
		}
	}
	for i, fi := range p.FnInfo {
		fmt.Fprintf(w, "fn[%d] arg_address=%d body_address=%d num_args=%d\n", i, fi.ArgAddress, fi.BodyAddress, fi.NumArgs)
	}
}
