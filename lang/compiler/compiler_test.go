package compiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/seni/lang/bytecode"
	"github.com/mna/seni/lang/compiler"
	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/natives"
	"github.com/mna/seni/lang/parser"
	"github.com/mna/seni/lang/value"
)

// run compiles src end-to-end (parse, compile, execute) and returns the
// program's final stack value, the way the teacher's own package tests
// exercise a full pipeline rather than asserting on raw opcodes.
func run(t *testing.T, src string) value.Var {
	t.Helper()
	nodes, names, err := parser.Parse("test", []byte(src), natives.Names())
	require.NoError(t, err)
	nat := natives.Bind(names)

	prog, err := compiler.Compile(nodes, names, nat, false)
	require.NoError(t, err)

	vm := machine.New(prog, names, nat, nil, value.NewPrngStream(1))
	result, err := vm.Run(context.Background())
	require.NoError(t, err)
	return result
}

func TestCompileArithmetic(t *testing.T) {
	require.Equal(t, value.Float(7), run(t, "(+ 3 4)"))
	require.Equal(t, value.Float(6), run(t, "(* 2 3)"))
}

func TestCompileIfTrueBranch(t *testing.T) {
	require.Equal(t, value.Float(10), run(t, "(if (> 2 1) 10 20)"))
}

func TestCompileIfFalseBranch(t *testing.T) {
	require.Equal(t, value.Float(20), run(t, "(if (< 2 1) 10 20)"))
}

func TestCompileIfNoElseYieldsVoid(t *testing.T) {
	result := run(t, "(if (< 2 1) 10)")
	_, isVec := result.(*value.Vector)
	require.True(t, isVec, "missing else branch should squish to an empty vector, got %T", result)
}

func TestCompileLoopSumsViaGlobal(t *testing.T) {
	// loop's own result is discarded each iteration (compileBlockDiscardAll);
	// accumulate into a user-defined global instead and read it back after.
	result := run(t, `
		(define total 0)
		(loop (i from: 0 to: 5)
		  (define total (+ total i)))
		total
	`)
	require.Equal(t, value.Float(10), result)
}

func TestCompileFenceWalksFromTo(t *testing.T) {
	result := run(t, `
		(define total 0)
		(fence (x from: 0 to: 4 num: 5)
		  (define total (+ total 1)))
		total
	`)
	require.Equal(t, value.Float(5), result)
}

func TestCompileEachSumsVector(t *testing.T) {
	result := run(t, `
		(define total 0)
		(each (v from: [1 2 3])
		  (define total (+ total v)))
		total
	`)
	require.Equal(t, value.Float(6), result)
}

func TestCompileUserFnCallWithDefaults(t *testing.T) {
	result := run(t, `
		(fn (double amount: 1)
		  (* amount 2))
		(double amount: 21)
	`)
	require.Equal(t, value.Float(42), result)
}

func TestCompileUserFnCallUsesDefault(t *testing.T) {
	result := run(t, `
		(fn (double amount: 21)
		  (* amount 2))
		(double)
	`)
	require.Equal(t, value.Float(42), result)
}

func TestCompileNativeCallWithDefault(t *testing.T) {
	require.Equal(t, value.Float(4), run(t, "(sqrt value: 16)"))
}

func TestCompileNativeCallMissingArgUsesDefault(t *testing.T) {
	require.Equal(t, value.Float(0), run(t, "(sqrt)"))
}

func TestCompilePreambleColourGlobal(t *testing.T) {
	result := run(t, "red")
	require.Equal(t, value.Colour{Format: value.RGB, E0: 1, E1: 0, E2: 0, E3: 1}, result)
}

func TestTopLevelGlobalsAssignsUserDefinedSlot(t *testing.T) {
	nodes, names, err := parser.Parse("test", []byte("(define data 5) data"), natives.Names())
	require.NoError(t, err)

	globals, err := compiler.TopLevelGlobals(nodes, names)
	require.NoError(t, err)

	dataIname := names.Intern("data")
	_, ok := globals[dataIname]
	require.True(t, ok, "TopLevelGlobals should assign a slot to the user-defined global")
}

func TestTopLevelGlobalsMatchesMainCompileSlots(t *testing.T) {
	src := "(define data 5) data"
	nodes, names, err := parser.Parse("test", []byte(src), natives.Names())
	require.NoError(t, err)
	nat := natives.Bind(names)

	globals, err := compiler.TopLevelGlobals(nodes, names)
	require.NoError(t, err)

	prog, err := compiler.Compile(nodes, names, nat, false)
	require.NoError(t, err)

	dataIname := names.Intern("data")
	slot, ok := globals[dataIname]
	require.True(t, ok)
	require.GreaterOrEqual(t, slot, 0)

	// (define data 5) compiles to LOAD 5 then STORE Global <slot>.
	storedSlot := -1
	for i := 1; i < len(prog.Code); i++ {
		prev, bc := prog.Code[i-1], prog.Code[i]
		if prev.Op == bytecode.LOAD && prev.Arg0.Kind == bytecode.ArgFloat && prev.Arg0.Float == 5 &&
			bc.Op == bytecode.STORE && bc.Arg0.Kind == bytecode.ArgMem && bc.Arg0.Mem == bytecode.MemGlobal {
			storedSlot = bc.Arg0.Slot
		}
	}
	require.Equal(t, slot, storedSlot)
}
