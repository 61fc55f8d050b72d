// Package compiler lowers an annotated AST into a bytecode.Program (spec.md
// §4.2), in six linear phases: prologue, function registration, define
// registration, top-level functions, top-level defines/forms, and an
// epilogue address-correction pass. The two-pass shape (register forward
// references first, emit with NONSENSE-sentinel backpatching second)
// follows the teacher's lang/compiler/compiler.go; the phases and the
// PLACEHOLDER_STORE/NONSENSE rewrite mechanics follow
// original_source/core/sen-core/src/compiler.rs.
package compiler

import (
	"fmt"

	"github.com/mna/seni/lang/ast"
	"github.com/mna/seni/lang/bytecode"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/natives"
)

// Preamble globals registered in Phase 1 (spec.md "Phase 1 — Prologue").
// Order fixes their Global slot assignment.
var preambleFloats = []struct {
	name string
	val  float64
}{
	{"canvas/width", 1000},
	{"canvas/height", 1000},
	{"math/PI", 3.14159265358979323846},
	{"math/TAU", 6.28318530717958647693},
	{"math/E", 2.71828182845904523536},
}

// Compile lowers nodes (the semantic top-level forms of a parsed script)
// into a Program, ready to run. useGenes toggles whether alterable nodes'
// sampled gene value (written by the trait engine before this call) is
// substituted for the node's own literal value (spec.md §4.4).
func Compile(nodes []ast.Node, names *iname.Table, nat *natives.Registry, useGenes bool) (*bytecode.Program, error) {
	c := &compiler{
		names:         names,
		nat:           nat,
		useGenes:      useGenes,
		globalSlots:   map[iname.Iname]int{},
		fnInfoByIname: map[iname.Iname]int{},
		strings:       map[iname.Iname]int{},
	}
	return c.compileProgram(nodes)
}

// CompileForTrait is compile_program_for_trait (spec.md §4.4): compiles just
// the nodes of a gene's parameter_ast, seeding global slot mappings from the
// surrounding script so names like a user-defined `data` global still
// resolve to the same slot.
func CompileForTrait(nodes []ast.Node, names *iname.Table, globalSlots map[iname.Iname]int, nat *natives.Registry) (*bytecode.Program, error) {
	c := &compiler{
		names:         names,
		nat:           nat,
		globalSlots:   map[iname.Iname]int{},
		fnInfoByIname: map[iname.Iname]int{},
		strings:       map[iname.Iname]int{},
	}
	for k, v := range globalSlots {
		c.globalSlots[k] = v
	}
	c.nextGlobalSlot = len(c.globalSlots)
	return c.compileForm(nodes)
}

// TopLevelGlobals runs just the name-registering phases of compileProgram
// (Phase 1 prologue, Phase 2 function registration, Phase 3 define
// registration -- none of which depend on a natives.Registry or on gene
// substitution), returning the resulting global-slot assignments. The
// trait engine calls this before compiling any gene program, so a trait's
// sub-compile (CompileForTrait) resolves a user-defined global to the same
// slot index the later main Compile call will also assign it (spec.md
// §4.4: trait programs are "seeded with the surrounding script's
// user_defined_globals").
func TopLevelGlobals(nodes []ast.Node, names *iname.Table) (map[iname.Iname]int, error) {
	c := &compiler{
		names:         names,
		globalSlots:   map[iname.Iname]int{},
		fnInfoByIname: map[iname.Iname]int{},
		strings:       map[iname.Iname]int{},
	}
	nodes = ast.Semantic(nodes)

	for _, f := range preambleFloats {
		c.internedGlobalSlot(c.names.Intern(f.name))
	}
	for _, kw := range []string{"white", "black", "red", "green", "blue", "yellow", "cyan", "magenta", "ease-all", "brush-all", "col/procedural-fn-presets"} {
		c.internedGlobalSlot(c.names.Intern(kw))
	}

	for _, n := range nodes {
		if fn, ok := asFnForm(n, names); ok {
			name, err := fnName(fn)
			if err != nil {
				return nil, err
			}
			idx := len(c.fnInfo)
			c.fnInfo = append(c.fnInfo, bytecode.FnInfo{FnName: uint32(name)})
			c.fnInfoByIname[name] = idx
		}
	}

	for _, n := range nodes {
		if lst, ok := n.(*ast.List); ok && len(ast.Semantic(lst.Nodes)) > 0 {
			kids := ast.Semantic(lst.Nodes)
			if nm, ok := kids[0].(*ast.Name); ok && c.names.Lookup(nm.Iname) == "define" {
				if err := c.registerDefineNames(kids[1:]); err != nil {
					return nil, err
				}
			}
		}
	}

	return c.globalSlots, nil
}

type fnCompileState struct {
	fnInfoIndex int
	argSlots    map[iname.Iname]int
	localSlots  map[iname.Iname]int
	nextLocal   int
}

type compiler struct {
	names *iname.Table
	nat   *natives.Registry
	code  []bytecode.Bytecode

	useGenes bool

	globalSlots    map[iname.Iname]int
	nextGlobalSlot int

	fnInfoByIname map[iname.Iname]int
	fnInfo        []bytecode.FnInfo

	strings map[iname.Iname]int // Iname -> Data.Strings index, for dedup

	fn *fnCompileState // always non-nil while emitting program body; the top-level body runs in a synthetic fnCompileState too, since it executes inside the VM's synthetic top-level frame (machine.go)
}

func (c *compiler) emit(bc bytecode.Bytecode) int {
	c.code = append(c.code, bc)
	return len(c.code) - 1
}

func (c *compiler) emitLoadFloat(f float64) {
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgFloat, Float: f}})
}

func (c *compiler) emitLoadInt(n int) int {
	return c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(n)}})
}

func (c *compiler) emitLoadNonsense() int {
	return c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: bytecode.NonsenseSentinel}})
}

func (c *compiler) emitStoreVoid() {
	c.emit(bytecode.Bytecode{Op: bytecode.STORE, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemVoid}})
}

func (c *compiler) emitStoreGlobal(slot int) {
	c.emit(bytecode.Bytecode{Op: bytecode.STORE, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemGlobal, Slot: slot}})
}

func (c *compiler) emitLoadGlobal(slot int) {
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemGlobal, Slot: slot}})
}

// emitGlobalNameVector loads each of names as an ArgName constant, SQUISHes
// them into one Vector, and stores the result into the global slot
// interned for globalName -- the Go shape of
// store_global_keyword_vector in original_source/core/src/compiler.rs.
func (c *compiler) emitGlobalNameVector(globalName string, names []string) {
	slot := c.internedGlobalSlot(c.names.Intern(globalName))
	for _, n := range names {
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgName, Iname: uint32(c.names.Intern(n))}})
	}
	c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(names))}})
	c.emitStoreGlobal(slot)
}

func (c *compiler) internedGlobalSlot(name iname.Iname) int {
	if slot, ok := c.globalSlots[name]; ok {
		return slot
	}
	slot := c.nextGlobalSlot
	c.nextGlobalSlot++
	c.globalSlots[name] = slot
	return slot
}

// compileProgram runs the full six-phase compile of a top-level script.
func (c *compiler) compileProgram(nodes []ast.Node) (*bytecode.Program, error) {
	nodes = ast.Semantic(nodes)

	// Phase 1 — Prologue: preamble globals.
	for _, f := range preambleFloats {
		in := c.names.Intern(f.name)
		slot := c.internedGlobalSlot(in)
		c.emitLoadFloat(f.val)
		c.emitStoreGlobal(slot)
	}
	// Built-in colour names and preset vectors (spec.md §4.2 Phase 1:
	// "Emit bytecode that initialises each preamble global to its literal
	// or preset-vector value"), grounded on
	// original_source/core/src/compiler.rs's compile_global_bind_kw_col /
	// compile_global_bind_ease_all / compile_global_bind_brush_all /
	// compile_global_bind_procedural_presets.
	for _, col := range []struct {
		name       string
		r, g, b, a float64
	}{
		{"white", 1, 1, 1, 1},
		{"black", 0, 0, 0, 1},
		{"red", 1, 0, 0, 1},
		{"green", 0, 1, 0, 1},
		{"blue", 0, 0, 1, 1},
		{"yellow", 1, 1, 0, 1},
		{"cyan", 0, 1, 1, 1},
		{"magenta", 1, 0, 1, 1},
	} {
		slot := c.internedGlobalSlot(c.names.Intern(col.name))
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{
			Kind: bytecode.ArgColour, Colour: [4]float64{col.r, col.g, col.b, col.a},
		}})
		c.emitStoreGlobal(slot)
	}
	c.emitGlobalNameVector("ease-all", []string{"linear", "ease-in", "ease-out", "ease-in-out"})
	c.emitGlobalNameVector("brush-all", []string{"brush-flat", "brush-a", "brush-b", "brush-c", "brush-d", "brush-e", "brush-f", "brush-g"})
	c.emitGlobalNameVector("col/procedural-fn-presets", []string{"chrome", "hotline-miami", "knight-rider", "mars", "rainbow", "robocop", "transformers"})

	// Phase 2 — Function registration: pre-allocate FnInfo for every
	// top-level (fn (name ...) ...) so forward calls resolve.
	for _, n := range nodes {
		if fn, ok := asFnForm(n, c.names); ok {
			name, err := fnName(fn)
			if err != nil {
				return nil, err
			}
			idx := len(c.fnInfo)
			c.fnInfo = append(c.fnInfo, bytecode.FnInfo{FnName: uint32(name)})
			c.fnInfoByIname[name] = idx
		}
	}

	// Phase 3 — Define registration: (define lhs rhs ...) names become
	// globals, visible to every subsequent phase including forward-declared
	// function bodies.
	for _, n := range nodes {
		if lst, ok := n.(*ast.List); ok && len(ast.Semantic(lst.Nodes)) > 0 {
			kids := ast.Semantic(lst.Nodes)
			if nm, ok := kids[0].(*ast.Name); ok && c.names.Lookup(nm.Iname) == "define" {
				if err := c.registerDefineNames(kids[1:]); err != nil {
					return nil, err
				}
			}
		}
	}

	// Phase 4 — Top-level functions: forward JUMP, then each fn's
	// arg/defaults block + body, patched at the end.
	c.fn = &fnCompileState{fnInfoIndex: -1, argSlots: map[iname.Iname]int{}, localSlots: map[iname.Iname]int{}}
	jumpIdx := c.emit(bytecode.Bytecode{Op: bytecode.JUMP})
	for _, n := range nodes {
		if fn, ok := asFnForm(n, c.names); ok {
			if err := c.compileFn(fn); err != nil {
				return nil, err
			}
		}
	}
	c.code[jumpIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}

	// Phase 5 — Top-level defines and forms. The last top-level node's value,
	// if it pushes one, stays on the stack as the program's result; every
	// earlier form's value is discarded.
	for i, n := range nodes {
		if isFnForm(n, c.names) {
			continue
		}
		if lst, ok := n.(*ast.List); ok {
			kids := ast.Semantic(lst.Nodes)
			if len(kids) > 0 {
				if nm, ok := kids[0].(*ast.Name); ok && c.names.Lookup(nm.Iname) == "define" {
					if err := c.compileDefine(kids[1:]); err != nil {
						return nil, err
					}
					continue
				}
			}
		}
		if i == len(nodes)-1 {
			if _, err := c.compileExpr(n); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.compileFormDiscard(n); err != nil {
			return nil, err
		}
	}

	// Phase 6 — Epilogue + address correction.
	c.emit(bytecode.Bytecode{Op: bytecode.STOP})
	c.addressCorrection()

	return &bytecode.Program{Code: c.code, FnInfo: c.fnInfo}, nil
}

// compileForm is the trait sub-compile entry point: compiles a flat list of
// forms in sequence, leaving the last form's value on the stack as the
// program's result (no prologue/epilogue, spec.md §4.4).
func (c *compiler) compileForm(nodes []ast.Node) (*bytecode.Program, error) {
	nodes = ast.Semantic(nodes)
	c.fn = &fnCompileState{fnInfoIndex: -1, argSlots: map[iname.Iname]int{}, localSlots: map[iname.Iname]int{}}
	if err := c.compileBlock(nodes, true); err != nil {
		return nil, err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.STOP})
	return &bytecode.Program{Code: c.code, FnInfo: c.fnInfo}, nil
}

func isFnForm(n ast.Node, names *iname.Table) bool {
	_, ok := asFnForm(n, names)
	return ok
}

func asFnForm(n ast.Node, names *iname.Table) (*ast.List, bool) {
	lst, ok := n.(*ast.List)
	if !ok {
		return nil, false
	}
	kids := ast.Semantic(lst.Nodes)
	if len(kids) < 1 {
		return nil, false
	}
	nm, ok := kids[0].(*ast.Name)
	if !ok || names.Lookup(nm.Iname) != "fn" {
		return nil, false
	}
	return lst, true
}

func fnName(lst *ast.List) (iname.Iname, error) {
	kids := ast.Semantic(lst.Nodes)
	if len(kids) < 2 {
		return 0, fmt.Errorf("compiler: fn form missing signature")
	}
	sig, ok := kids[1].(*ast.List)
	if !ok {
		return 0, fmt.Errorf("compiler: fn signature must be a list")
	}
	sigKids := ast.Semantic(sig.Nodes)
	if len(sigKids) == 0 {
		return 0, fmt.Errorf("compiler: fn declared without a name")
	}
	nm, ok := sigKids[0].(*ast.Name)
	if !ok {
		return 0, fmt.Errorf("compiler: fn name must be an identifier")
	}
	return nm.Iname, nil
}

func (c *compiler) registerDefineNames(pairs []ast.Node) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := c.registerLHS(pairs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) registerLHS(lhs ast.Node) error {
	switch n := lhs.(type) {
	case *ast.Name:
		c.internedGlobalSlot(n.Iname)
		return nil
	case *ast.Vector:
		for _, k := range ast.Semantic(n.Nodes) {
			if err := c.registerLHS(k); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("compiler: invalid define left-hand side %T", lhs)
	}
}
