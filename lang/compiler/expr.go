package compiler

import (
	"fmt"

	"github.com/mna/seni/lang/ast"
	"github.com/mna/seni/lang/bytecode"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/natives"
	"github.com/mna/seni/lang/value"
)

// labelPair is one `label: value` pair of a call form's argument list, or a
// `var: default` pair of an fn signature / loop / fence / each header
// (spec.md §4.2, §4.5). A bare identifier in argument position desugars to
// label=value=that identifier (the "implied argument" sugar).
type labelPair struct {
	label iname.Iname
	value ast.Node
}

// splitLabelPairs walks a flat Label/value run (ast.List.Nodes is never
// nested: a Label node is immediately followed by its value node) and also
// accepts a bare Name as sugar for name: name.
func splitLabelPairs(nodes []ast.Node) ([]labelPair, error) {
	var pairs []labelPair
	for i := 0; i < len(nodes); {
		switch n := nodes[i].(type) {
		case *ast.Label:
			if i+1 >= len(nodes) {
				return nil, fmt.Errorf("compiler: label %q has no value", n.Raw)
			}
			pairs = append(pairs, labelPair{label: n.Iname, value: nodes[i+1]})
			i += 2
		case *ast.Name:
			pairs = append(pairs, labelPair{label: n.Iname, value: n})
			i++
		default:
			return nil, fmt.Errorf("compiler: unexpected %T in argument position", n)
		}
	}
	return pairs, nil
}

func findPair(pairs []labelPair, names *iname.Table, label string) (ast.Node, bool) {
	for _, p := range pairs {
		if names.Lookup(p.label) == label {
			return p.value, true
		}
	}
	return nil, false
}

func (c *compiler) allocLocal(in iname.Iname) int {
	if slot, ok := c.fn.localSlots[in]; ok {
		return slot
	}
	slot := c.fn.nextLocal
	c.fn.nextLocal++
	c.fn.localSlots[in] = slot
	return slot
}

func (c *compiler) allocAnonLocal() int {
	slot := c.fn.nextLocal
	c.fn.nextLocal++
	return slot
}

func (c *compiler) emitLoadMem(mem bytecode.Mem, slot int) {
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: mem, Slot: slot}})
}

func (c *compiler) emitStoreMem(mem bytecode.Mem, slot int) {
	c.emit(bytecode.Bytecode{Op: bytecode.STORE, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: mem, Slot: slot}})
}

// compileBlock compiles nodes in sequence. Every form but (optionally) the
// last has its pushed value discarded to Void; if keepLast, the final form's
// value (or an empty vector, if it pushed nothing) is left on the stack.
func (c *compiler) compileBlock(nodes []ast.Node, keepLast bool) error {
	nodes = ast.Semantic(nodes)
	if len(nodes) == 0 {
		if keepLast {
			c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
		}
		return nil
	}
	for i, n := range nodes {
		last := i == len(nodes)-1
		pushed, err := c.compileExpr(n)
		if err != nil {
			return err
		}
		if last && keepLast {
			if !pushed {
				c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
			}
			continue
		}
		if pushed {
			c.emitStoreVoid()
		}
	}
	return nil
}

// compileBlockDiscardAll is compileBlock with every form's value discarded,
// used for loop/fence/each/on-matrix-stack bodies (none of them leave a
// value on the stack).
func (c *compiler) compileBlockDiscardAll(nodes []ast.Node) error {
	return c.compileBlock(nodes, false)
}

// compileFormDiscard compiles one top-level form (spec.md Phase 5), popping
// its value to Void if it pushed one.
func (c *compiler) compileFormDiscard(n ast.Node) error {
	pushed, err := c.compileExpr(n)
	if err != nil {
		return err
	}
	if pushed {
		c.emitStoreVoid()
	}
	return nil
}

// compileExprPush compiles n and fails if it does not leave exactly one
// value on the stack; used everywhere an expression's value is required
// (operands, argument values, default values).
func (c *compiler) compileExprPush(n ast.Node) error {
	pushed, err := c.compileExpr(n)
	if err != nil {
		return err
	}
	if !pushed {
		return fmt.Errorf("compiler: %s does not produce a value here", n)
	}
	return nil
}

// compileExpr lowers one AST node, returning whether it left exactly one
// value on the stack.
func (c *compiler) compileExpr(n ast.Node) (bool, error) {
	if m := n.NodeMeta(); c.useGenes && m.Gene != nil && m.Gene.Gene != nil {
		return true, c.emitConstant(m.Gene.Gene)
	}
	switch v := n.(type) {
	case *ast.Float:
		c.emitLoadFloat(v.Val)
		return true, nil
	case *ast.String:
		return true, c.compileString(v)
	case *ast.Vector:
		kids := ast.Semantic(v.Nodes)
		for _, k := range kids {
			if err := c.compileExprPush(k); err != nil {
				return false, err
			}
		}
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(kids))}})
		return true, nil
	case *ast.Name:
		return c.compileName(v.Iname)
	case *ast.FromName:
		from := labelPair{label: c.names.Intern("from"), value: v.From}
		return c.compileInvocation(v.Iname, []labelPair{from})
	case *ast.List:
		return c.compileList(v)
	default:
		return false, fmt.Errorf("compiler: cannot compile node %T", n)
	}
}

func (c *compiler) compileString(n *ast.String) error {
	if n.IsHex {
		col, err := value.ParseHex(n.Raw)
		if err != nil {
			return fmt.Errorf("compiler: %w", err)
		}
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{
			Kind: bytecode.ArgColour, Int: int64(col.Format),
			Colour: [4]float64{col.E0, col.E1, col.E2, col.E3},
		}})
		return nil
	}
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgString, Iname: uint32(n.Iname)}})
	return nil
}

// emitConstant loads a sampled gene value or a native default value as a
// bytecode constant.
func (c *compiler) emitConstant(v value.Var) error {
	switch vv := v.(type) {
	case value.Float:
		c.emitLoadFloat(float64(vv))
	case value.Int:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(vv)}})
	case value.Bool:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgBool, Bool: bool(vv)}})
	case value.Keyword:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgKeyword, Iname: uint32(vv)}})
	case value.Name:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgName, Iname: uint32(vv)}})
	case value.String:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgString, Iname: uint32(vv)}})
	case value.Colour:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{
			Kind: bytecode.ArgColour, Int: int64(vv.Format),
			Colour: [4]float64{vv.E0, vv.E1, vv.E2, vv.E3},
		}})
	case value.V2D:
		c.emitLoadFloat(vv.X)
		c.emitLoadFloat(vv.Y)
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 2}})
	case *value.Vector:
		for _, e := range vv.Elems {
			if err := c.emitConstant(e); err != nil {
				return err
			}
		}
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(vv.Elems))}})
	default:
		return fmt.Errorf("compiler: cannot emit constant of type %T", v)
	}
	return nil
}

// compileName resolves a bare identifier: local -> argument -> global ->
// keyword (with true/false special-cased to a Bool constant, since the
// parser has no dedicated boolean literal token) -> native/user-fn
// invocation with no supplied arguments (spec.md §4.2 "Name lookup").
func (c *compiler) compileName(in iname.Iname) (bool, error) {
	name := c.names.Lookup(in)
	if name == "true" || name == "false" {
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgBool, Bool: name == "true"}})
		return true, nil
	}
	if c.fn != nil {
		if slot, ok := c.fn.localSlots[in]; ok {
			c.emitLoadMem(bytecode.MemLocal, slot)
			return true, nil
		}
		if slot, ok := c.fn.argSlots[in]; ok {
			c.emitLoadMem(bytecode.MemArgument, slot)
			return true, nil
		}
	}
	if slot, ok := c.globalSlots[in]; ok {
		c.emitLoadMem(bytecode.MemGlobal, slot)
		return true, nil
	}
	if c.names.IsKeyword(in) {
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgKeyword, Iname: uint32(in)}})
		return true, nil
	}
	return c.compileInvocation(in, nil)
}

// storeName is define's assignment target resolution: inside a real
// function body, a define always introduces/reuses a local; at top level
// (including inside a top-level loop/fence/each, which still runs in the
// synthetic top-level frame, see compiler.go), a name already registered as
// a global (Phase 3) is stored there, otherwise a new local is introduced.
func (c *compiler) storeName(in iname.Iname) {
	if c.fn != nil && c.fn.fnInfoIndex >= 0 {
		slot := c.allocLocal(in)
		c.emitStoreMem(bytecode.MemLocal, slot)
		return
	}
	if slot, ok := c.globalSlots[in]; ok {
		c.emitStoreMem(bytecode.MemGlobal, slot)
		return
	}
	slot := c.allocLocal(in)
	c.emitStoreMem(bytecode.MemLocal, slot)
}

// storeExistingName is ++'s re-assignment target resolution: unlike
// define, it must not silently introduce a new variable.
func (c *compiler) storeExistingName(in iname.Iname) error {
	if c.fn != nil {
		if slot, ok := c.fn.localSlots[in]; ok {
			c.emitStoreMem(bytecode.MemLocal, slot)
			return nil
		}
		if slot, ok := c.fn.argSlots[in]; ok {
			c.emitStoreMem(bytecode.MemArgument, slot)
			return nil
		}
	}
	if slot, ok := c.globalSlots[in]; ok {
		c.emitStoreMem(bytecode.MemGlobal, slot)
		return nil
	}
	return fmt.Errorf("compiler: unknown name %q in assignment", c.names.Lookup(in))
}

var mathOps = map[string]bytecode.Opcode{
	"+": bytecode.ADD, "-": bytecode.SUB, "*": bytecode.MUL, "/": bytecode.DIV,
	"<": bytecode.LT, "<=": bytecode.LE, ">": bytecode.GT, ">=": bytecode.GE,
	"==": bytecode.EQL, "!=": bytecode.NEQ,
}

func (c *compiler) compileList(lst *ast.List) (bool, error) {
	kids := ast.Semantic(lst.Nodes)
	if len(kids) == 0 {
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
		return true, nil
	}
	head, rest := kids[0], kids[1:]

	if fromName, ok := head.(*ast.FromName); ok {
		pairs, err := splitLabelPairs(rest)
		if err != nil {
			return false, err
		}
		full := append([]labelPair{{label: c.names.Intern("from"), value: fromName.From}}, pairs...)
		return c.compileInvocation(fromName.Iname, full)
	}

	nm, ok := head.(*ast.Name)
	if !ok {
		return false, fmt.Errorf("compiler: call head must be a name, got %T", head)
	}
	name := c.names.Lookup(nm.Iname)
	switch name {
	case "if":
		return c.compileIf(rest)
	case "loop":
		return false, c.compileLoop(rest)
	case "fence":
		return false, c.compileFence(rest)
	case "each":
		return false, c.compileEach(rest)
	case "define":
		return false, c.compileDefine(rest)
	case "quote":
		return true, c.compileQuote(rest)
	case "address-of":
		return true, c.compileAddressOf(rest)
	case "fn-call":
		return true, c.compileFnCall(rest)
	case "on-matrix-stack":
		return c.compileOnMatrixStack(rest)
	case "++":
		return true, c.compileVectorAppend(rest)
	case "not":
		if len(rest) != 1 {
			return false, fmt.Errorf("compiler: not takes exactly one operand")
		}
		if err := c.compileExprPush(rest[0]); err != nil {
			return false, err
		}
		c.emit(bytecode.Bytecode{Op: bytecode.NOT})
		return true, nil
	case "and", "or":
		return true, c.compileBoolOp(name, rest)
	default:
		if op, ok := mathOps[name]; ok {
			return true, c.compileMathOp(op, name, rest)
		}
		pairs, err := splitLabelPairs(rest)
		if err != nil {
			return false, err
		}
		return c.compileInvocation(nm.Iname, pairs)
	}
}

func (c *compiler) compileMathOp(op bytecode.Opcode, name string, rest []ast.Node) error {
	if len(rest) < 2 {
		return fmt.Errorf("compiler: %s requires at least two operands", name)
	}
	if err := c.compileExprPush(rest[0]); err != nil {
		return err
	}
	for _, n := range rest[1:] {
		if err := c.compileExprPush(n); err != nil {
			return err
		}
		c.emit(bytecode.Bytecode{Op: op})
	}
	return nil
}

func (c *compiler) compileBoolOp(name string, rest []ast.Node) error {
	if len(rest) < 2 {
		return fmt.Errorf("compiler: %s requires at least two operands", name)
	}
	op := bytecode.AND
	if name == "or" {
		op = bytecode.OR
	}
	if err := c.compileExprPush(rest[0]); err != nil {
		return err
	}
	for _, n := range rest[1:] {
		if err := c.compileExprPush(n); err != nil {
			return err
		}
		c.emit(bytecode.Bytecode{Op: op})
	}
	return nil
}

func (c *compiler) compileIf(rest []ast.Node) (bool, error) {
	if len(rest) < 2 {
		return false, fmt.Errorf("compiler: if requires a predicate and a then-branch")
	}
	if err := c.compileExprPush(rest[0]); err != nil {
		return false, err
	}
	cjumpIdx := c.emit(bytecode.Bytecode{Op: bytecode.CJUMP})
	if err := c.compileExprPush(rest[1]); err != nil {
		return false, err
	}
	jumpIdx := c.emit(bytecode.Bytecode{Op: bytecode.JUMP})
	c.code[cjumpIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	if len(rest) >= 3 {
		if err := c.compileExprPush(rest[2]); err != nil {
			return false, err
		}
	} else {
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
	}
	c.code[jumpIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	return true, nil
}

func (c *compiler) compileNodeOrDefault(n ast.Node, def float64) error {
	if n == nil {
		c.emitLoadFloat(def)
		return nil
	}
	return c.compileExprPush(n)
}

func headerVarAndPairs(rest []ast.Node, form string) (*ast.Name, []labelPair, []ast.Node, error) {
	if len(rest) < 1 {
		return nil, nil, nil, fmt.Errorf("compiler: %s requires a header", form)
	}
	header, ok := rest[0].(*ast.List)
	if !ok {
		return nil, nil, nil, fmt.Errorf("compiler: %s header must be a list", form)
	}
	hkids := ast.Semantic(header.Nodes)
	if len(hkids) == 0 {
		return nil, nil, nil, fmt.Errorf("compiler: %s header missing variable", form)
	}
	varNode, ok := hkids[0].(*ast.Name)
	if !ok {
		return nil, nil, nil, fmt.Errorf("compiler: %s variable must be a name", form)
	}
	pairs, err := splitLabelPairs(hkids[1:])
	if err != nil {
		return nil, nil, nil, err
	}
	return varNode, pairs, rest[1:], nil
}

// compileLoop is (loop (v from: a to|upto: b inc: i) body...) (spec.md
// §4.2 "loop"): v is a local, re-compared and incremented each iteration.
func (c *compiler) compileLoop(rest []ast.Node) error {
	varNode, pairs, body, err := headerVarAndPairs(rest, "loop")
	if err != nil {
		return err
	}
	fromNode, _ := findPair(pairs, c.names, "from")
	toNode, hasTo := findPair(pairs, c.names, "to")
	upToNode, hasUpTo := findPair(pairs, c.names, "upto")
	incNode, _ := findPair(pairs, c.names, "inc")

	varSlot := c.allocLocal(varNode.Iname)

	if err := c.compileNodeOrDefault(fromNode, 0); err != nil {
		return err
	}
	c.emitStoreMem(bytecode.MemLocal, varSlot)

	loopStart := len(c.code)
	c.emitLoadMem(bytecode.MemLocal, varSlot)
	var bound ast.Node
	isUpTo := hasUpTo
	if hasUpTo {
		bound = upToNode
	} else if hasTo {
		bound = toNode
	}
	if err := c.compileNodeOrDefault(bound, 1); err != nil {
		return err
	}
	if isUpTo {
		c.emit(bytecode.Bytecode{Op: bytecode.GT})
		c.emit(bytecode.Bytecode{Op: bytecode.NOT})
	} else {
		c.emit(bytecode.Bytecode{Op: bytecode.LT})
	}
	exitIdx := c.emit(bytecode.Bytecode{Op: bytecode.CJUMP})

	if err := c.compileBlockDiscardAll(body); err != nil {
		return err
	}

	c.emitLoadMem(bytecode.MemLocal, varSlot)
	if err := c.compileNodeOrDefault(incNode, 1); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.ADD})
	c.emitStoreMem(bytecode.MemLocal, varSlot)
	c.emit(bytecode.Bytecode{Op: bytecode.JUMP, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(loopStart)}})
	c.code[exitIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	return nil
}

// compileFence is (fence (v from: a to: b num: n) body...) (spec.md §4.2
// "fence"): num: defaults to 2 (resolved Open Question), from:/to: default
// to 0/1. delta=(b-a)/(n-1) with n==1 special-cased to delta=0 (from, to,
// and num are re-evaluated rather than duplicated on the stack: the VM has
// no DUP-free way to branch on a computed value, and these sub-expressions
// are assumed side-effect-free, as they are ordinary scalar expressions).
func (c *compiler) compileFence(rest []ast.Node) error {
	varNode, pairs, body, err := headerVarAndPairs(rest, "fence")
	if err != nil {
		return err
	}
	fromNode, _ := findPair(pairs, c.names, "from")
	toNode, _ := findPair(pairs, c.names, "to")
	numNode, _ := findPair(pairs, c.names, "num")

	varSlot := c.allocLocal(varNode.Iname)
	counterSlot := c.allocAnonLocal()
	numSlot := c.allocAnonLocal()
	deltaSlot := c.allocAnonLocal()

	c.emitLoadFloat(0)
	c.emitStoreMem(bytecode.MemLocal, counterSlot)

	if err := c.compileNodeOrDefault(numNode, 2); err != nil {
		return err
	}
	c.emitStoreMem(bytecode.MemLocal, numSlot)

	if err := c.compileNodeOrDefault(numNode, 2); err != nil {
		return err
	}
	c.emitLoadFloat(1)
	c.emit(bytecode.Bytecode{Op: bytecode.SUB})
	c.emitLoadFloat(0)
	c.emit(bytecode.Bytecode{Op: bytecode.NEQ})
	zeroIdx := c.emit(bytecode.Bytecode{Op: bytecode.CJUMP})
	if err := c.compileNodeOrDefault(toNode, 1); err != nil {
		return err
	}
	if err := c.compileNodeOrDefault(fromNode, 0); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.SUB})
	if err := c.compileNodeOrDefault(numNode, 2); err != nil {
		return err
	}
	c.emitLoadFloat(1)
	c.emit(bytecode.Bytecode{Op: bytecode.SUB})
	c.emit(bytecode.Bytecode{Op: bytecode.DIV})
	doneIdx := c.emit(bytecode.Bytecode{Op: bytecode.JUMP})
	c.code[zeroIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	c.emitLoadFloat(0)
	c.code[doneIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	c.emitStoreMem(bytecode.MemLocal, deltaSlot)

	loopStart := len(c.code)
	c.emitLoadMem(bytecode.MemLocal, counterSlot)
	c.emitLoadMem(bytecode.MemLocal, numSlot)
	c.emit(bytecode.Bytecode{Op: bytecode.LT})
	exitIdx := c.emit(bytecode.Bytecode{Op: bytecode.CJUMP})

	if err := c.compileNodeOrDefault(fromNode, 0); err != nil {
		return err
	}
	c.emitLoadMem(bytecode.MemLocal, counterSlot)
	c.emitLoadMem(bytecode.MemLocal, deltaSlot)
	c.emit(bytecode.Bytecode{Op: bytecode.MUL})
	c.emit(bytecode.Bytecode{Op: bytecode.ADD})
	c.emitStoreMem(bytecode.MemLocal, varSlot)

	if err := c.compileBlockDiscardAll(body); err != nil {
		return err
	}

	c.emitLoadMem(bytecode.MemLocal, counterSlot)
	c.emitLoadFloat(1)
	c.emit(bytecode.Bytecode{Op: bytecode.ADD})
	c.emitStoreMem(bytecode.MemLocal, counterSlot)
	c.emit(bytecode.Bytecode{Op: bytecode.JUMP, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(loopStart)}})
	c.code[exitIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	return nil
}

// compileEach is (each (v from: seq) body...) (spec.md §4.2 "each"): the
// VEC_* opcodes keep a 3-slot [vector, index, element] window live on the
// stack across iterations, so the bound variable v is copied (DUP'd) into a
// local each iteration rather than addressed in place.
func (c *compiler) compileEach(rest []ast.Node) error {
	varNode, pairs, body, err := headerVarAndPairs(rest, "each")
	if err != nil {
		return err
	}
	seqNode, ok := findPair(pairs, c.names, "from")
	if !ok {
		return fmt.Errorf("compiler: each requires from:")
	}
	elemSlot := c.allocLocal(varNode.Iname)

	if err := c.compileExprPush(seqNode); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.VEC_NON_EMPTY})
	emptyIdx := c.emit(bytecode.Bytecode{Op: bytecode.CJUMP})
	c.emit(bytecode.Bytecode{Op: bytecode.VEC_LOAD_FIRST})

	bodyStart := len(c.code)
	c.emit(bytecode.Bytecode{Op: bytecode.DUP})
	c.emitStoreMem(bytecode.MemLocal, elemSlot)
	if err := c.compileBlockDiscardAll(body); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.VEC_HAS_NEXT})
	hasNextIdx := c.emit(bytecode.Bytecode{Op: bytecode.CJUMP})
	c.emit(bytecode.Bytecode{Op: bytecode.VEC_NEXT})
	c.emit(bytecode.Bytecode{Op: bytecode.JUMP, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(bodyStart)}})

	c.code[hasNextIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	c.emitStoreMem(bytecode.MemVoid, 0) // element
	c.emitStoreMem(bytecode.MemVoid, 0) // index
	c.emitStoreMem(bytecode.MemVoid, 0) // vector
	doneIdx := c.emit(bytecode.Bytecode{Op: bytecode.JUMP})

	c.code[emptyIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	c.emitStoreMem(bytecode.MemVoid, 0) // vector, left by VEC_NON_EMPTY's CJUMP

	c.code[doneIdx].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(c.code))}
	return nil
}

func (c *compiler) compileDefine(pairs []ast.Node) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := c.compileExprPush(pairs[i+1]); err != nil {
			return err
		}
		if err := c.storeLHS(pairs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) storeLHS(lhs ast.Node) error {
	switch n := lhs.(type) {
	case *ast.Name:
		c.storeName(n.Iname)
		return nil
	case *ast.Vector:
		kids := ast.Semantic(n.Nodes)
		c.emit(bytecode.Bytecode{Op: bytecode.PILE, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(kids))}})
		for i := len(kids) - 1; i >= 0; i-- {
			if err := c.storeLHS(kids[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("compiler: invalid define left-hand side %T", lhs)
	}
}

func (c *compiler) compileVectorAppend(rest []ast.Node) error {
	if len(rest) != 2 {
		return fmt.Errorf("compiler: ++ requires a vector and a value")
	}
	if err := c.compileExprPush(rest[0]); err != nil {
		return err
	}
	if err := c.compileExprPush(rest[1]); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.APPEND})
	if nm, ok := rest[0].(*ast.Name); ok {
		c.emit(bytecode.Bytecode{Op: bytecode.DUP})
		if err := c.storeExistingName(nm.Iname); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileQuotedNode(n ast.Node) error {
	switch v := n.(type) {
	case *ast.Name:
		c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgName, Iname: uint32(v.Iname)}})
		return nil
	case *ast.Float:
		c.emitLoadFloat(v.Val)
		return nil
	case *ast.String:
		return c.compileString(v)
	case *ast.List:
		kids := ast.Semantic(v.Nodes)
		for _, k := range kids {
			if err := c.compileQuotedNode(k); err != nil {
				return err
			}
		}
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(kids))}})
		return nil
	case *ast.Vector:
		kids := ast.Semantic(v.Nodes)
		for _, k := range kids {
			if err := c.compileQuotedNode(k); err != nil {
				return err
			}
		}
		c.emit(bytecode.Bytecode{Op: bytecode.SQUISH, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(len(kids))}})
		return nil
	default:
		return fmt.Errorf("compiler: cannot quote node %T", n)
	}
}

// compileQuote is `'(a b c)` (spec.md §4.2 "quote"): elements are emitted
// as Name constants, never resolved.
func (c *compiler) compileQuote(rest []ast.Node) error {
	if len(rest) != 1 {
		return fmt.Errorf("compiler: quote takes exactly one form")
	}
	return c.compileQuotedNode(rest[0])
}

// compileAddressOf is (address-of fname) (spec.md §4.2): pushes the
// function's fn-info-index as a plain int constant.
func (c *compiler) compileAddressOf(rest []ast.Node) error {
	if len(rest) != 1 {
		return fmt.Errorf("compiler: address-of takes exactly one name")
	}
	nm, ok := rest[0].(*ast.Name)
	if !ok {
		return fmt.Errorf("compiler: address-of requires a function name")
	}
	idx, ok := c.fnInfoByIname[nm.Iname]
	if !ok {
		return fmt.Errorf("compiler: address-of: unknown function %q", nm.Raw)
	}
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(idx)}})
	return nil
}

// compileFnCall is (fn-call (fidx a: v ...)) (spec.md §4.2 "fn-call"): fidx
// is an arbitrary expression evaluating to a fn-info-index (typically the
// result of address-of), resolved to a callee only at run time via
// CALL_F/CALL_F_0. Since the callee isn't known until then, its
// argument_offsets can't be consulted at compile time the way a direct
// call's PLACEHOLDER_STORE can: label/value pairs are instead passed
// positionally, pair k storing into Argument slot k, trusting the caller to
// list them in the callee's declared parameter order.
func (c *compiler) compileFnCall(rest []ast.Node) error {
	if len(rest) != 1 {
		return fmt.Errorf("compiler: fn-call takes exactly one form")
	}
	lst, ok := rest[0].(*ast.List)
	if !ok {
		return fmt.Errorf("compiler: fn-call requires a list")
	}
	kids := ast.Semantic(lst.Nodes)
	if len(kids) == 0 {
		return fmt.Errorf("compiler: fn-call requires a function-index expression")
	}
	pairs, err := splitLabelPairs(kids[1:])
	if err != nil {
		return err
	}

	if err := c.compileExprPush(kids[0]); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.CALL_F})
	for k, pr := range pairs {
		if err := c.compileExprPush(pr.value); err != nil {
			return err
		}
		c.emitStoreMem(bytecode.MemArgument, k)
	}
	if err := c.compileExprPush(kids[0]); err != nil {
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.CALL_F_0})
	return nil
}

// compileOnMatrixStack is (on-matrix-stack body...) (spec.md §4.2): wraps
// body in a matrix push/pop pair, via the matrix/push and matrix/pop
// natives (so the transform stack only ever mutates through Dispatch, never
// directly from the compiler).
func (c *compiler) compileOnMatrixStack(rest []ast.Node) (bool, error) {
	pushIdx, _, _, ok := c.nat.Lookup(c.names.Intern("matrix/push"))
	if !ok {
		return false, fmt.Errorf("compiler: matrix/push native missing")
	}
	popIdx, _, _, ok := c.nat.Lookup(c.names.Intern("matrix/pop"))
	if !ok {
		return false, fmt.Errorf("compiler: matrix/pop native missing")
	}
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
	c.emit(bytecode.Bytecode{Op: bytecode.NATIVE, Arg0: bytecode.Arg{Kind: bytecode.ArgNative, Native: pushIdx}})
	if err := c.compileBlockDiscardAll(rest); err != nil {
		return false, err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: 0}})
	c.emit(bytecode.Bytecode{Op: bytecode.NATIVE, Arg0: bytecode.Arg{Kind: bytecode.ArgNative, Native: popIdx}})
	return false, nil
}

// compileInvocation is a direct call (head resolved at compile time): a
// user-defined fn, or a native. pairs is nil for a bare-name invocation
// (spec.md §4.2 "Name lookup": a native/user-fn name used with no argument
// list at all still dispatches, using every parameter's default).
func (c *compiler) compileInvocation(head iname.Iname, pairs []labelPair) (bool, error) {
	if idx, ok := c.fnInfoByIname[head]; ok {
		return true, c.compileUserCall(idx, pairs)
	}
	if nidx, params, noResult, ok := c.nat.Lookup(head); ok {
		return !noResult, c.compileNativeCall(nidx, params, pairs)
	}
	return false, fmt.Errorf("compiler: unknown name %q", c.names.Lookup(head))
}

// compileUserCall emits the four-step invocation sequence (spec.md §4.2
// "Function invocation"): two NONSENSE placeholders + CALL, one
// PLACEHOLDER_STORE per caller-supplied label, then a NONSENSE placeholder
// + CALL_0. Phase 6's addressCorrection rewrites every placeholder.
func (c *compiler) compileUserCall(idx int, pairs []labelPair) error {
	c.emitLoadNonsense() // arg_address
	c.emitLoadNonsense() // num_args
	c.emit(bytecode.Bytecode{
		Op:   bytecode.CALL,
		Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(idx)},
		Arg1: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(idx)},
	})
	for _, pr := range pairs {
		if err := c.compileExprPush(pr.value); err != nil {
			return err
		}
		c.emit(bytecode.Bytecode{
			Op:   bytecode.PLACEHOLDER_STORE,
			Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(idx)},
			Arg1: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(pr.label)},
		})
	}
	c.emitLoadNonsense() // body_address
	c.emit(bytecode.Bytecode{
		Op:   bytecode.CALL_0,
		Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(idx)},
		Arg1: bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(idx)},
	})
	return nil
}

// compileNativeCall emits the default-mask (bottom) then, in reverse
// parameter order, each parameter's supplied value or default (spec.md
// "Native dispatch": the VM pops param[0] first, then ... param[n-1], then
// the mask last).
func (c *compiler) compileNativeCall(nidx int, params []natives.Param, pairs []labelPair) error {
	supplied := make([]ast.Node, len(params))
	for _, pr := range pairs {
		name := c.names.Lookup(pr.label)
		for i, pm := range params {
			if pm.Name == name {
				supplied[i] = pr.value
				break
			}
		}
	}
	var mask int64
	for i := range params {
		if supplied[i] == nil {
			mask |= 1 << uint(i)
		}
	}
	c.emit(bytecode.Bytecode{Op: bytecode.LOAD, Arg0: bytecode.Arg{Kind: bytecode.ArgInt, Int: mask}})
	for i := len(params) - 1; i >= 0; i-- {
		if supplied[i] != nil {
			if err := c.compileExprPush(supplied[i]); err != nil {
				return err
			}
			continue
		}
		if err := c.emitConstant(params[i].Default); err != nil {
			return err
		}
	}
	c.emit(bytecode.Bytecode{Op: bytecode.NATIVE, Arg0: bytecode.Arg{Kind: bytecode.ArgNative, Native: nidx}})
	return nil
}

// compileFn is a top-level (fn (name label: default ...) body...) form
// (spec.md §4.2 "Phase 4 — Top-level functions"). The defaults block stores
// each supplied-or-default value directly into its Argument slot; per
// machine.go's argAddr layout, the label cell below each value slot is never
// read or written by any opcode in this machine, so the defaults block
// skips writing it (a deliberate simplification over the literal two-store
// sequence the label/value frame layout would otherwise suggest).
func (c *compiler) compileFn(lst *ast.List) error {
	kids := ast.Semantic(lst.Nodes)
	name, err := fnName(lst)
	if err != nil {
		return err
	}
	idx := c.fnInfoByIname[name]
	sigKids := ast.Semantic(kids[1].(*ast.List).Nodes)
	pairs, err := splitLabelPairs(sigKids[1:])
	if err != nil {
		return err
	}

	prevFn := c.fn
	c.fn = &fnCompileState{fnInfoIndex: idx, argSlots: map[iname.Iname]int{}, localSlots: map[iname.Iname]int{}}

	argAddress := len(c.code)
	offsets := make([]uint32, len(pairs))
	for k, pr := range pairs {
		if err := c.compileExprPush(pr.value); err != nil {
			c.fn = prevFn
			return err
		}
		c.emitStoreMem(bytecode.MemArgument, k)
		c.fn.argSlots[pr.label] = k
		offsets[k] = uint32(pr.label)
	}
	c.emit(bytecode.Bytecode{Op: bytecode.RET_0})

	bodyAddress := len(c.code)
	if err := c.compileBlock(kids[2:], true); err != nil {
		c.fn = prevFn
		return err
	}
	c.emit(bytecode.Bytecode{Op: bytecode.RET})

	c.fnInfo[idx].ArgAddress = argAddress
	c.fnInfo[idx].BodyAddress = bodyAddress
	c.fnInfo[idx].NumArgs = len(pairs)
	c.fnInfo[idx].ArgumentOffsets = offsets

	c.fn = prevFn
	return nil
}

// addressCorrection is compiler Phase 6 (spec.md §4.2): rewrite every
// NONSENSE-sentinel LOAD emitted by compileUserCall, and every
// PLACEHOLDER_STORE, now that every fn's FnInfo is fully populated.
func (c *compiler) addressCorrection() {
	for i, bc := range c.code {
		switch bc.Op {
		case bytecode.CALL:
			info := c.fnInfo[int(bc.Arg0.Int)]
			c.code[i-2].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(info.ArgAddress)}
			c.code[i-1].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(info.NumArgs)}
		case bytecode.CALL_0:
			info := c.fnInfo[int(bc.Arg0.Int)]
			c.code[i-1].Arg0 = bytecode.Arg{Kind: bytecode.ArgInt, Int: int64(info.BodyAddress)}
		case bytecode.PLACEHOLDER_STORE:
			info := c.fnInfo[int(bc.Arg0.Int)]
			label := iname.Iname(bc.Arg1.Int)
			slot := -1
			for k, off := range info.ArgumentOffsets {
				if iname.Iname(off) == label {
					slot = k
					break
				}
			}
			if slot >= 0 {
				c.code[i] = bytecode.Bytecode{Op: bytecode.STORE, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemArgument, Slot: slot}}
			} else {
				c.code[i] = bytecode.Bytecode{Op: bytecode.STORE, Arg0: bytecode.Arg{Kind: bytecode.ArgMem, Mem: bytecode.MemVoid}}
			}
		}
	}
}
