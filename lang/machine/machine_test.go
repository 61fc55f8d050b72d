package machine

import (
	"context"
	"testing"

	"github.com/mna/seni/lang/bytecode"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/value"
	"github.com/stretchr/testify/require"
)

type nopNatives struct{}

func (nopNatives) Dispatch(context.Context, *VM, int, uint32, []value.Var) (value.Var, bool, error) {
	return nil, false, nil
}
func (nopNatives) Arity(int) int { return 0 }

func newTestVM(code []bytecode.Bytecode) *VM {
	names := iname.NewTable()
	names.RegisterNatives(nil)
	prog := &bytecode.Program{Code: code}
	return New(prog, names, nopNatives{}, nil, nil)
}

func fl(k bytecode.ArgKind, f float64) bytecode.Arg { return bytecode.Arg{Kind: k, Float: f} }

func TestArithmeticAndStop(t *testing.T) {
	code := []bytecode.Bytecode{
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 3)},
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 4)},
		{Op: bytecode.ADD},
		{Op: bytecode.STOP},
	}
	vm := newTestVM(code)
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.Float(7), result)
}

func TestGlobalStoreLoad(t *testing.T) {
	code := []bytecode.Bytecode{
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 9)},
		{Op: bytecode.STORE, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemGlobal, Slot: 0}},
		{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemGlobal, Slot: 0}},
		{Op: bytecode.STOP},
	}
	vm := newTestVM(code)
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.Float(9), result)
}

func TestSquishProducesV2D(t *testing.T) {
	code := []bytecode.Bytecode{
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 1)},
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 2)},
		{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 2}},
		{Op: bytecode.STOP},
	}
	vm := newTestVM(code)
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.V2D{X: 1, Y: 2}, result)
}

func TestSquishThreeProducesVector(t *testing.T) {
	code := []bytecode.Bytecode{
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 1)},
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 2)},
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 3)},
		{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 3}},
		{Op: bytecode.PILE, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 3}},
		{Op: bytecode.ADD},
		{Op: bytecode.ADD},
		{Op: bytecode.STOP},
	}
	vm := newTestVM(code)
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.Float(6), result)
}

// TestFunctionCallNoArgs builds the instruction sequence the compiler
// emits for a zero-argument function call (spec.md "Function invocation"):
//
//	LOAD Constant arg_address
//	LOAD Constant num_args=0
//	CALL              -- jumps into the defaults/arg block
//	LOAD Constant body_address
//	CALL_0            -- jumps into the real body
//	...caller resumes here after the body's RET...
//
// The defaults/arg block has no parameters to bind, so it is just RET_0.
// The callee body: LOAD 5, RET.
func TestFunctionCallNoArgs(t *testing.T) {
	// addresses are resolved by hand since there's no compiler in this test
	code := make([]bytecode.Bytecode, 0, 11)
	// 0: LOAD arg_address=8 (the defaults/arg block)
	code = append(code, bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 8}})
	// 1: LOAD num_args=0
	code = append(code, bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
	// 2: CALL
	code = append(code, bytecode.Bytecode{Op: bytecode.CALL})
	// 3: LOAD body_address=9
	code = append(code, bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 9}})
	// 4: CALL_0
	code = append(code, bytecode.Bytecode{Op: bytecode.CALL_0})
	// 5: after return, add 1 to demonstrate control resumed in the caller
	code = append(code, bytecode.Bytecode{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 1)})
	code = append(code, bytecode.Bytecode{Op: bytecode.ADD})
	code = append(code, bytecode.Bytecode{Op: bytecode.STOP})
	// 8: defaults/arg block -- no parameters, just hand back to the caller
	code = append(code, bytecode.Bytecode{Op: bytecode.RET_0})
	// 9: body
	code = append(code, bytecode.Bytecode{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 5)})
	code = append(code, bytecode.Bytecode{Op: bytecode.RET})

	vm := newTestVM(code)
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, value.Float(6), result)
}

func TestStackUnderflowFault(t *testing.T) {
	code := []bytecode.Bytecode{
		{Op: bytecode.ADD},
		{Op: bytecode.STOP},
	}
	vm := newTestVM(code)
	_, err := vm.Run(context.Background())
	require.Error(t, err)
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	require.Equal(t, FaultStackUnderflow, fault.Kind)
}

func TestDivisionByZeroFault(t *testing.T) {
	code := []bytecode.Bytecode{
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 1)},
		{Op: bytecode.LOAD, Arg0: fl(bytecode.ArgFloat, 0)},
		{Op: bytecode.DIV},
		{Op: bytecode.STOP},
	}
	vm := newTestVM(code)
	_, err := vm.Run(context.Background())
	require.Error(t, err)
}

func TestVecIteration(t *testing.T) {
	vec := value.NewVector([]value.Var{value.Float(1), value.Float(2), value.Float(3)})
	names := iname.NewTable()
	names.RegisterNatives(nil)
	prog := &bytecode.Program{Code: []bytecode.Bytecode{{Op: bytecode.STOP}}}
	vm := New(prog, names, nopNatives{}, nil, nil)

	require.NoError(t, vm.push(vec))
	require.NoError(t, vm.execVecNonEmpty())
	nonEmpty, err := vm.pop()
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), nonEmpty)
	_, err = vm.pop() // the vector itself, left under the bool
	require.NoError(t, err)

	// stack window becomes [vector, index, element]
	require.NoError(t, vm.push(vec))
	require.NoError(t, vm.execVecLoadFirst())
	elem, err := vm.pop()
	require.NoError(t, err)
	require.Equal(t, value.Float(1), elem)
	idx, err := vm.pop()
	require.NoError(t, err)
	require.Equal(t, value.Int(0), idx)

	require.NoError(t, vm.push(idx))
	require.NoError(t, vm.push(elem))
	require.NoError(t, vm.execVecHasNext())
	hasNext, err := vm.pop()
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), hasNext)

	require.NoError(t, vm.execVecNext())
	elem2, err := vm.pop()
	require.NoError(t, err)
	require.Equal(t, value.Float(2), elem2)
	idx2, err := vm.pop()
	require.NoError(t, err)
	require.Equal(t, value.Int(1), idx2)
}
