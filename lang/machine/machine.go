// Package machine implements the stack machine that executes a compiled
// bytecode.Program (spec.md §4.3). The fetch-decode-dispatch loop, frame
// layout, and fault model are this language's own; the coding style
// (a big switch over Opcode, typed Fault values instead of panics, a
// Thread-like top-level VM struct) follows the teacher's lang/machine.
package machine

import (
	"context"
	"fmt"

	"github.com/mna/seni/lang/bytecode"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/value"
)

// Tunable capacities (spec.md §4.2 "VM state"); overridable for tests via
// NewWithCapacity.
const (
	DefaultStackSize   = 1024
	MemoryGlobalSize   = 40
	MemoryLocalSize    = 40
	frameHeaderSize    = 4 // caller_fp, return_ip, num_args, hop_back
)

// DrawContext is the drawing surface natives render into (spec.md §2,
// component "Native dispatch"; backed in production by lang/render). It is
// independent of the VM's numeric stack machinery so tests can supply a
// recording fake.
type DrawContext interface {
	Line(x1, y1, x2, y2 float64, width float64, colour value.Colour)
	Rect(x, y, w, h float64, colour value.Colour)
	Circle(x, y, radius float64, colour value.Colour)
	Bezier(points [4]value.V2D, lineWidth float64, colour value.Colour)
	StrokedBezier(points [4]value.V2D, widthStart, widthEnd float64, colour value.Colour, tessellation int)
	Poly(points []value.V2D, colours []value.Colour)
	PushMatrix()
	PopMatrix()
	Translate(x, y float64)
	Rotate(radians float64)
	Scale(x, y float64)
	Background(colour value.Colour)
}

// Natives dispatches a NATIVE opcode: the VM pops argc argument cells
// (topmost first, so args[0] is parameter 0) and then the default-mask,
// calls Dispatch with them, and pushes the result if Dispatch reports one.
// argc is the native's declared parameter count (spec.md "Native
// dispatch"); the mask argument itself is not included in argc.
type Natives interface {
	// Dispatch invokes native index idx. defaultMask has bit k set iff
	// parameter k was not supplied by the caller and should use its
	// registered default. Dispatch must not mutate the VM's stack itself;
	// the VM has already popped the argument and mask cells, and pushes the
	// result.
	Dispatch(ctx context.Context, vm *VM, idx int, defaultMask uint32, args []value.Var) (result value.Var, hasResult bool, err error)
	// Arity returns the declared parameter count of native idx.
	Arity(idx int) int
}

// VM is one interpreter instance over a single Program.
type VM struct {
	Stack []value.Var
	sp    int
	fp    int
	ip    int

	Prog    *bytecode.Program
	Names   *iname.Table
	Natives Natives
	Draw    DrawContext
	Prng    *value.PrngStream

	// MaxSteps bounds the number of fetch-decode-dispatch iterations Run
	// performs before aborting with FaultStepLimit; 0 means unlimited. Set
	// from the SENI_MAX_STEPS config value (cmd/sen) as a guard against a
	// runaway user (loop ...) form.
	MaxSteps int

	// NativeCalls counts dispatches per native index, consulted by
	// cmd/sen's --cpuprofile flag to build a pprof sample of native-call
	// counts; left nil (the zero value) unless a caller wants the counts,
	// so ordinary runs pay no bookkeeping cost.
	NativeCalls map[int]int64

	// Steps is the total number of fetch-decode-dispatch iterations
	// performed by the most recent Run call, consulted by --cpuprofile for
	// a VM-step-count sample.
	Steps int

	useGenes bool
}

// New returns a VM ready to Run prog, with a stack of DefaultStackSize.
func New(prog *bytecode.Program, names *iname.Table, natives Natives, draw DrawContext, prng *value.PrngStream) *VM {
	return NewWithCapacity(prog, names, natives, draw, prng, DefaultStackSize)
}

// NewWithCapacity is New with an explicit stack capacity, used by tests that
// probe VMStackOverflow.
func NewWithCapacity(prog *bytecode.Program, names *iname.Table, natives Natives, draw DrawContext, prng *value.PrngStream, capacity int) *VM {
	vm := &VM{
		Stack:   make([]value.Var, capacity),
		Prog:    prog,
		Names:   names,
		Natives: natives,
		Draw:    draw,
		Prng:    prng,
	}
	for i := range vm.Stack {
		vm.Stack[i] = value.Float(0)
	}
	// The top-level program runs as if inside a synthetic frame: the global
	// segment occupies [0, MemoryGlobalSize), and fp starts immediately
	// after it with a zeroed header (hop_back=0, num_args=0) so LOAD/STORE
	// Local and the RET_0 fallthrough at program end behave uniformly.
	vm.fp = MemoryGlobalSize
	vm.Stack[vm.fp+0] = value.Int(0)
	vm.Stack[vm.fp+1] = value.Int(0)
	vm.Stack[vm.fp+2] = value.Int(0)
	vm.Stack[vm.fp+3] = value.Int(0)
	vm.sp = vm.fp + frameHeaderSize + MemoryLocalSize
	vm.ip = 0
	return vm
}

// SetUseGenes toggles whether gene-substituted leaf values should be used;
// exposed for parity with the compiler's flag (spec.md §4.4), consulted by
// callers that reuse the same VM to run trait sub-programs.
func (vm *VM) SetUseGenes(v bool) { vm.useGenes = v }

func (vm *VM) push(v value.Var) error {
	if vm.sp >= len(vm.Stack) {
		return newFault(FaultStackOverflow, vm.ip, "sp=%d capacity=%d", vm.sp, len(vm.Stack))
	}
	vm.Stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() (value.Var, error) {
	if vm.sp <= 0 {
		return nil, newFault(FaultStackUnderflow, vm.ip, "sp=%d", vm.sp)
	}
	vm.sp--
	return vm.Stack[vm.sp], nil
}

// Peek returns the value at depth cells below the current stack top (0 is
// the topmost value), without popping it. Used by the VEC_* opcodes to read
// `each`'s iteration window in place; NATIVE pops its arguments instead.
func (vm *VM) Peek(depth int) value.Var { return vm.Stack[vm.sp-1-depth] }

func (vm *VM) popFloat() (float64, error) {
	v, err := vm.pop()
	if err != nil {
		return 0, err
	}
	f, ok := v.(value.Float)
	if !ok {
		return 0, newFault(FaultTypeMismatch, vm.ip, "expected float, got %s", v.Type())
	}
	return float64(f), nil
}

func (vm *VM) popInt() (int, error) {
	v, err := vm.pop()
	if err != nil {
		return 0, err
	}
	switch vv := v.(type) {
	case value.Int:
		return int(vv), nil
	case value.Float:
		return int(vv), nil
	default:
		return 0, newFault(FaultTypeMismatch, vm.ip, "expected int, got %s", v.Type())
	}
}

// resolveFrameBase walks caller_fp links hopBack times, starting at the
// current frame, and returns the resulting frame base (spec.md §4.3
// "hop_back frames").
func (vm *VM) resolveFrameBase(hopBack int) (int, error) {
	fp := vm.fp
	for i := 0; i < hopBack; i++ {
		v, ok := vm.Stack[fp+0].(value.Int)
		if !ok {
			return 0, newFault(FaultTypeMismatch, vm.ip, "corrupt frame header at fp=%d", fp)
		}
		fp = int(v)
	}
	return fp, nil
}

func (vm *VM) currentHopBack() int {
	return int(vm.Stack[vm.fp+3].(value.Int))
}

func (vm *VM) localAddr(slot int) (int, error) {
	base, err := vm.resolveFrameBase(vm.currentHopBack())
	if err != nil {
		return 0, err
	}
	if slot < 0 || slot >= MemoryLocalSize {
		return 0, newFault(FaultLocalOverflow, vm.ip, "local slot %d out of range", slot)
	}
	return base + frameHeaderSize + slot, nil
}

func (vm *VM) argAddr(slot int) (int, error) {
	base, err := vm.resolveFrameBase(vm.currentHopBack())
	if err != nil {
		return 0, err
	}
	return base - 2 - 2*slot, nil
}

// Run executes the program starting at the current ip until a STOP opcode,
// returning the final stack value if the program left one (spec.md
// "universal invariant": sp equals its pre-call value plus one, or equal,
// after STOP).
func (vm *VM) Run(ctx context.Context) (value.Var, error) {
	for {
		if vm.ip < 0 || vm.ip >= len(vm.Prog.Code) {
			return nil, newFault(FaultInvalidOpcode, vm.ip, "ip out of range")
		}
		vm.Steps++
		if vm.MaxSteps > 0 && vm.Steps > vm.MaxSteps {
			return nil, newFault(FaultStepLimit, vm.ip, "exceeded %d steps", vm.MaxSteps)
		}
		if vm.Steps%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, newFault(FaultCancelled, vm.ip, "%s", ctx.Err())
			default:
			}
		}
		bc := vm.Prog.Code[vm.ip]
		vm.ip++

		switch bc.Op {
		case bytecode.NOP:
			// no-op

		case bytecode.LOAD:
			if err := vm.execLoad(bc.Arg0); err != nil {
				return nil, err
			}

		case bytecode.STORE:
			if err := vm.execStore(bc.Arg0); err != nil {
				return nil, err
			}

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV:
			if err := vm.execArith(bc.Op); err != nil {
				return nil, err
			}

		case bytecode.LT, bytecode.LE, bytecode.GT, bytecode.GE, bytecode.EQL, bytecode.NEQ:
			if err := vm.execCompare(bc.Op); err != nil {
				return nil, err
			}

		case bytecode.AND, bytecode.OR:
			if err := vm.execBoolBinop(bc.Op); err != nil {
				return nil, err
			}

		case bytecode.NOT:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(value.Bool(!value.Truthy(v))); err != nil {
				return nil, err
			}

		case bytecode.DUP:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(v); err != nil {
				return nil, err
			}
			if err := vm.push(v); err != nil {
				return nil, err
			}

		case bytecode.SQUISH:
			if err := vm.execSquish(int(bc.Arg0.Int)); err != nil {
				return nil, err
			}

		case bytecode.PILE:
			if err := vm.execPile(int(bc.Arg0.Int)); err != nil {
				return nil, err
			}

		case bytecode.APPEND:
			if err := vm.execAppend(); err != nil {
				return nil, err
			}

		case bytecode.VEC_NON_EMPTY:
			if err := vm.execVecNonEmpty(); err != nil {
				return nil, err
			}

		case bytecode.VEC_LOAD_FIRST:
			if err := vm.execVecLoadFirst(); err != nil {
				return nil, err
			}

		case bytecode.VEC_HAS_NEXT:
			if err := vm.execVecHasNext(); err != nil {
				return nil, err
			}

		case bytecode.VEC_NEXT:
			if err := vm.execVecNext(); err != nil {
				return nil, err
			}

		case bytecode.JUMP:
			vm.ip = int(bc.Arg0.Int)

		case bytecode.CJUMP:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if !value.Truthy(v) {
				vm.ip = int(bc.Arg0.Int)
			}

		case bytecode.CALL:
			if err := vm.execCall(); err != nil {
				return nil, err
			}

		case bytecode.CALL_0:
			if err := vm.execCall0(); err != nil {
				return nil, err
			}

		case bytecode.CALL_F:
			if err := vm.execCallF(); err != nil {
				return nil, err
			}

		case bytecode.CALL_F_0:
			if err := vm.execCallF0(); err != nil {
				return nil, err
			}

		case bytecode.RET:
			done, result, err := vm.execRet()
			if err != nil {
				return nil, err
			}
			if done {
				return result, nil
			}

		case bytecode.RET_0:
			vm.ip = int(vm.Stack[vm.fp+1].(value.Int))

		case bytecode.NATIVE:
			if err := vm.execNative(ctx, bc.Arg0); err != nil {
				return nil, err
			}

		case bytecode.STOP:
			if vm.sp == vm.fp+frameHeaderSize+MemoryLocalSize+1 {
				v, err := vm.pop()
				if err != nil {
					return nil, err
				}
				return v, nil
			}
			return nil, nil

		case bytecode.PLACEHOLDER_STORE:
			return nil, newFault(FaultInvalidOpcode, vm.ip-1, "unresolved PLACEHOLDER_STORE reached the VM")

		default:
			return nil, newFault(FaultInvalidOpcode, vm.ip-1, "opcode %s", bc.Op)
		}
	}
}

func (vm *VM) execLoad(a bytecode.Arg) error {
	switch a.Kind {
	case bytecode.ArgFloat:
		return vm.push(value.Float(a.Float))
	case bytecode.ArgInt:
		return vm.push(value.Int(int32(a.Int)))
	case bytecode.ArgBool:
		return vm.push(value.Bool(a.Bool))
	case bytecode.ArgName:
		return vm.push(value.Name(a.Iname))
	case bytecode.ArgString:
		return vm.push(value.String(a.Iname))
	case bytecode.ArgNative:
		return vm.push(value.Int(int32(a.Native)))
	case bytecode.ArgKeyword:
		return vm.push(value.Keyword(a.Iname))
	case bytecode.ArgColour:
		return vm.push(value.Colour{Format: value.ColourFormat(a.Int), E0: a.Colour[0], E1: a.Colour[1], E2: a.Colour[2], E3: a.Colour[3]})
	case bytecode.ArgMem:
		switch a.Mem {
		case bytecode.MemGlobal:
			return vm.push(vm.Stack[a.Slot])
		case bytecode.MemLocal:
			addr, err := vm.localAddr(a.Slot)
			if err != nil {
				return err
			}
			return vm.push(vm.Stack[addr])
		case bytecode.MemArgument:
			addr, err := vm.argAddr(a.Slot)
			if err != nil {
				return err
			}
			return vm.push(vm.Stack[addr])
		case bytecode.MemVoid:
			return vm.push(value.NewVector(nil))
		default:
			return newFault(FaultTypeMismatch, vm.ip-1, "invalid LOAD segment %s", a.Mem)
		}
	default:
		return newFault(FaultTypeMismatch, vm.ip-1, "invalid LOAD arg kind %d", a.Kind)
	}
}

func (vm *VM) execStore(a bytecode.Arg) error {
	if a.Kind != bytecode.ArgMem {
		return newFault(FaultTypeMismatch, vm.ip-1, "STORE requires a Mem arg")
	}
	v, err := vm.pop()
	if err != nil {
		return err
	}
	switch a.Mem {
	case bytecode.MemGlobal:
		vm.Stack[a.Slot] = v
		return nil
	case bytecode.MemLocal:
		addr, err := vm.localAddr(a.Slot)
		if err != nil {
			return err
		}
		vm.Stack[addr] = v
		return nil
	case bytecode.MemArgument:
		// STORE Argument writes into the current frame; only LOAD walks
		// hop_back frames for arguments.
		vm.Stack[vm.fp-2-2*a.Slot] = v
		return nil
	case bytecode.MemVoid:
		return nil // discard
	default:
		return newFault(FaultTypeMismatch, vm.ip-1, "invalid STORE segment %s", a.Mem)
	}
}

func (vm *VM) execArith(op bytecode.Opcode) error {
	b, err := vm.popFloat()
	if err != nil {
		return err
	}
	a, err := vm.popFloat()
	if err != nil {
		return err
	}
	var r float64
	switch op {
	case bytecode.ADD:
		r = a + b
	case bytecode.SUB:
		r = a - b
	case bytecode.MUL:
		r = a * b
	case bytecode.DIV:
		if b == 0 {
			return newFault(FaultTypeMismatch, vm.ip-1, "division by zero")
		}
		r = a / b
	}
	return vm.push(value.Float(r))
}

func (vm *VM) execCompare(op bytecode.Opcode) error {
	b, err := vm.popFloat()
	if err != nil {
		return err
	}
	a, err := vm.popFloat()
	if err != nil {
		return err
	}
	var r bool
	switch op {
	case bytecode.LT:
		r = a < b
	case bytecode.LE:
		r = a <= b
	case bytecode.GT:
		r = a > b
	case bytecode.GE:
		r = a >= b
	case bytecode.EQL:
		r = a == b
	case bytecode.NEQ:
		r = a != b
	}
	return vm.push(value.Bool(r))
}

func (vm *VM) execBoolBinop(op bytecode.Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	var r bool
	if op == bytecode.AND {
		r = value.Truthy(a) && value.Truthy(b)
	} else {
		r = value.Truthy(a) || value.Truthy(b)
	}
	return vm.push(value.Bool(r))
}

// execSquish pops n values and fuses them: n=2 with both floats produces a
// V2D, otherwise a Vector (spec.md §4.3 "SQUISH").
func (vm *VM) execSquish(n int) error {
	elems := make([]value.Var, n)
	for i := n - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		elems[i] = v
	}
	if n == 2 {
		if x, ok := elems[0].(value.Float); ok {
			if y, ok := elems[1].(value.Float); ok {
				return vm.push(value.V2D{X: float64(x), Y: float64(y)})
			}
		}
	}
	return vm.push(value.NewVector(elems))
}

// execPile pops a V2D/Vector and pushes its first n elements in order
// (spec.md §4.3 "PILE").
func (vm *VM) execPile(n int) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	elems, err := value.GetVector(v)
	if err != nil {
		return newFault(FaultTypeMismatch, vm.ip-1, "%s", err)
	}
	if n > len(elems) {
		return newFault(FaultTypeMismatch, vm.ip-1, "PILE %d exceeds %d elements", n, len(elems))
	}
	for i := 0; i < n; i++ {
		if err := vm.push(elems[i]); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) execAppend() error {
	x, err := vm.pop()
	if err != nil {
		return err
	}
	v, err := vm.pop()
	if err != nil {
		return err
	}
	vec, ok := v.(*value.Vector)
	if !ok {
		return newFault(FaultTypeMismatch, vm.ip-1, "APPEND target must be a vector, got %s", v.Type())
	}
	elems := make([]value.Var, len(vec.Elems)+1)
	copy(elems, vec.Elems)
	elems[len(vec.Elems)] = x
	return vm.push(value.NewVector(elems))
}

// The four VEC_* opcodes implement `each`'s iteration protocol over a
// 3-slot stack window: [vector, index, element] (index below topmost
// element, vector below that). VEC_NON_EMPTY only peeks the vector;
// VEC_LOAD_FIRST pushes the initial (index=0, element) pair on top of it;
// VEC_HAS_NEXT peeks all three; VEC_NEXT mutates index/element in place.

func (vm *VM) execVecNonEmpty() error {
	elems, err := value.GetVector(vm.Peek(0))
	if err != nil {
		return newFault(FaultTypeMismatch, vm.ip-1, "%s", err)
	}
	return vm.push(value.Bool(len(elems) > 0))
}

func (vm *VM) execVecLoadFirst() error {
	elems, err := value.GetVector(vm.Peek(0))
	if err != nil || len(elems) == 0 {
		return newFault(FaultTypeMismatch, vm.ip-1, "VEC_LOAD_FIRST on empty vector")
	}
	if err := vm.push(value.Int(0)); err != nil {
		return err
	}
	return vm.push(elems[0])
}

func (vm *VM) execVecHasNext() error {
	elems, err := value.GetVector(vm.Peek(2))
	if err != nil {
		return newFault(FaultTypeMismatch, vm.ip-1, "%s", err)
	}
	idx, ok := vm.Peek(1).(value.Int)
	if !ok {
		return newFault(FaultTypeMismatch, vm.ip-1, "VEC_HAS_NEXT index slot corrupt")
	}
	return vm.push(value.Bool(int(idx)+1 < len(elems)))
}

func (vm *VM) execVecNext() error {
	elems, err := value.GetVector(vm.Peek(2))
	if err != nil {
		return newFault(FaultTypeMismatch, vm.ip-1, "%s", err)
	}
	idx, ok := vm.Peek(1).(value.Int)
	if !ok {
		return newFault(FaultTypeMismatch, vm.ip-1, "VEC_NEXT index slot corrupt")
	}
	next := int(idx) + 1
	if next >= len(elems) {
		return newFault(FaultTypeMismatch, vm.ip-1, "VEC_NEXT exhausted vector")
	}
	vm.Stack[vm.sp-2] = value.Int(int32(next))
	vm.Stack[vm.sp-1] = elems[next]
	return nil
}

// execNative implements NATIVE: the compiler emits the default-mask first
// (bottom of the group) then, in reverse parameter order, each parameter's
// supplied value or default -- so param[0] ends up on top of stack and the
// mask ends up at the bottom (spec.md "Native dispatch"). Pop order is
// therefore param[0], param[1], ..., param[n-1], mask.
func (vm *VM) execNative(ctx context.Context, a bytecode.Arg) error {
	idx := int(a.Native)
	if vm.NativeCalls != nil {
		vm.NativeCalls[idx]++
	}
	argc := vm.Natives.Arity(idx)
	args := make([]value.Var, argc)
	for i := 0; i < argc; i++ {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	maskV, err := vm.pop()
	if err != nil {
		return err
	}
	mask, ok := maskV.(value.Int)
	if !ok {
		return newFault(FaultTypeMismatch, vm.ip-1, "NATIVE default mask must be an int")
	}
	result, hasResult, err := vm.Natives.Dispatch(ctx, vm, idx, uint32(mask), args)
	if err != nil {
		return fmt.Errorf("native %s: %w", vm.Names.Lookup(iname.KeywordEnd+iname.Iname(idx)), err)
	}
	if hasResult {
		return vm.push(result)
	}
	return nil
}
