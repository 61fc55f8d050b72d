// Package trait implements the trait/genotype engine (spec.md §4.4): it
// walks a parsed script for alterable nodes, compiles each one's
// parameter-list annotation into a self-contained mini-program, draws a
// fresh value for each under a seeded PRNG, and rewrites the AST with the
// drawn values before the main compile. Compilation reuses
// lang/compiler.CompileForTrait exactly as spec.md §4.4 describes; sampling
// reuses lang/machine.VM itself, with a no-op DrawContext since a gene
// program never draws.
package trait

import (
	"context"
	"fmt"

	"github.com/mna/seni/lang/ast"
	"github.com/mna/seni/lang/bytecode"
	"github.com/mna/seni/lang/compiler"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/natives"
	"github.com/mna/seni/lang/value"
)

// Gene is one sampled value of a Genotype (spec.md §3 "Gene").
type Gene struct {
	Value value.Var
}

// Genotype is the ordered sequence of genes drawn for one seed (spec.md §3
// "Genotype"), advanced in AST-traversal order as RewriteAST consumes it.
type Genotype struct {
	Genes []Gene
	next  int
}

// Next returns the next undrawn gene's value, advancing the genotype's
// index. It is a fault to call Next more times than there are genes (spec.md
// §4.4's invariant: "the number of genes drawn equals the number of
// alterable-producing nodes encountered in the traversal; any mismatch is a
// fault").
func (g *Genotype) Next() (value.Var, error) {
	if g.next >= len(g.Genes) {
		return nil, fmt.Errorf("trait: genotype exhausted at index %d of %d", g.next, len(g.Genes))
	}
	v := g.Genes[g.next].Value
	g.next++
	return v, nil
}

// Trait is one alterable's compiled sub-program plus its original value and
// position (spec.md §3 "Trait"). WithinVector/Index record that this trait
// came from one semantic element of a vector alterable, rather than a
// scalar one.
type Trait struct {
	WithinVector bool
	Index        int
	InitialValue value.Var
	Program      *bytecode.Program
}

// TraitList is the ordered sequence of Traits extracted from a script
// (spec.md §4.4 "TraitList::compile").
type TraitList struct {
	Traits []Trait
}

// Compile walks nodes and, for every node whose gene_info is present,
// produces one Trait (scalar alterables) or one Trait per semantic element
// (vector alterables, Index recording position) -- spec.md §4.4. Trait
// compilation reuses the main compiler via compiler.CompileForTrait,
// seeding the sub-program's global mappings from userDefinedGlobals so
// names such as a user-defined `data` global still resolve to the same
// slot as in the surrounding script.
func Compile(nodes []ast.Node, names *iname.Table, nat *natives.Registry, userDefinedGlobals map[iname.Iname]int) (*TraitList, error) {
	c := &collector{names: names, nat: nat, globals: userDefinedGlobals, list: &TraitList{}}
	for _, n := range ast.Semantic(nodes) {
		ast.Walk(c, n)
		if c.err != nil {
			return nil, c.err
		}
	}
	return c.list, nil
}

type collector struct {
	names   *iname.Table
	nat     *natives.Registry
	globals map[iname.Iname]int
	list    *TraitList
	err     error
}

func (c *collector) Visit(n ast.Node) ast.Visitor {
	if c.err != nil {
		return nil
	}
	if m := n.NodeMeta(); m.Gene != nil {
		if err := c.emit(n, m.Gene); err != nil {
			c.err = err
			return nil
		}
	}
	return c
}

func (c *collector) emit(n ast.Node, gi *ast.GeneInfo) error {
	prog, err := compiler.CompileForTrait(ast.Semantic(gi.ParameterAST), c.names, c.globals, c.nat)
	if err != nil {
		return fmt.Errorf("trait: compiling parameter list: %w", err)
	}
	if vec, ok := n.(*ast.Vector); ok {
		for i, k := range ast.Semantic(vec.Nodes) {
			iv, err := literalValue(k)
			if err != nil {
				return err
			}
			c.list.Traits = append(c.list.Traits, Trait{WithinVector: true, Index: i, InitialValue: iv, Program: prog})
		}
		return nil
	}
	iv, err := literalValue(n)
	if err != nil {
		return err
	}
	c.list.Traits = append(c.list.Traits, Trait{InitialValue: iv, Program: prog})
	return nil
}

// literalValue reads a leaf AST node's as-written value, for a Trait's
// initial_value (spec.md §3 "Trait": "records the node's original,
// as-written initial_value").
func literalValue(n ast.Node) (value.Var, error) {
	switch v := n.(type) {
	case *ast.Float:
		return value.Float(v.Val), nil
	case *ast.String:
		if v.IsHex {
			return value.ParseHex(v.Raw)
		}
		return value.String(v.Iname), nil
	case *ast.Name:
		if v.Raw == "true" || v.Raw == "false" {
			return value.Bool(v.Raw == "true"), nil
		}
		return value.Name(v.Iname), nil
	case *ast.Vector:
		kids := ast.Semantic(v.Nodes)
		elems := make([]value.Var, len(kids))
		for i, k := range kids {
			e, err := literalValue(k)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return value.NewVector(elems), nil
	default:
		return nil, fmt.Errorf("trait: alterable node %T has no literal value", n)
	}
}

// BuildGenotype draws, for each trait in order, a Var by running its
// program under a PRNG initialised from seed (spec.md §4.4: "the PRNG is
// the VM's prng_state field for the run"). The same stream is threaded
// through every trait's VM in sequence, so the draws are a single ordered
// sequence, not independently reseeded per trait.
func BuildGenotype(tl *TraitList, seed uint64, names *iname.Table, nat *natives.Registry) (*Genotype, error) {
	prng := value.NewPrngStream(seed)
	genes := make([]Gene, 0, len(tl.Traits))
	for i, t := range tl.Traits {
		vm := machine.New(t.Program, names, nat, nullDraw{}, prng)
		result, err := vm.Run(context.Background())
		if err != nil {
			return nil, fmt.Errorf("trait: sampling gene %d: %w", i, err)
		}
		genes = append(genes, Gene{Value: result})
	}
	return &Genotype{Genes: genes}, nil
}

// RewriteAST walks nodes in the same order as Compile and writes each
// genotype gene into its corresponding node's gene_info.gene (spec.md
// §4.4), so that compiling nodes afterwards with useGenes=true substitutes
// the drawn value. A vector alterable's per-element genes are stamped onto
// each semantic child's own (freshly synthesised) gene_info, since the main
// compiler's substitution check (lang/compiler/expr.go's compileExpr) reads
// gene_info off the node actually being compiled.
func RewriteAST(nodes []ast.Node, g *Genotype) error {
	r := &rewriter{genotype: g}
	for _, n := range ast.Semantic(nodes) {
		ast.Walk(r, n)
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

type rewriter struct {
	genotype *Genotype
	err      error
}

func (r *rewriter) Visit(n ast.Node) ast.Visitor {
	if r.err != nil {
		return nil
	}
	m := n.NodeMeta()
	if m.Gene == nil {
		return r
	}
	if vec, ok := n.(*ast.Vector); ok {
		for _, k := range ast.Semantic(vec.Nodes) {
			gv, err := r.genotype.Next()
			if err != nil {
				r.err = fmt.Errorf("trait: rewriting vector alterable: %w", err)
				return nil
			}
			k.NodeMeta().Gene = &ast.GeneInfo{Gene: gv}
		}
		return r
	}
	gv, err := r.genotype.Next()
	if err != nil {
		r.err = fmt.Errorf("trait: rewriting alterable: %w", err)
		return nil
	}
	m.Gene.Gene = gv
	return r
}

// nullDraw is a no-op machine.DrawContext: trait programs are pure
// scalar/vector computation (gen/* natives), never drawing calls.
type nullDraw struct{}

func (nullDraw) Line(x1, y1, x2, y2, width float64, colour value.Colour)            {}
func (nullDraw) Rect(x, y, w, h float64, colour value.Colour)                      {}
func (nullDraw) Circle(x, y, radius float64, colour value.Colour)                  {}
func (nullDraw) Bezier(points [4]value.V2D, lineWidth float64, colour value.Colour) {}
func (nullDraw) PushMatrix()                                                       {}
func (nullDraw) PopMatrix()                                                        {}
func (nullDraw) Translate(x, y float64)                                            {}
func (nullDraw) Rotate(radians float64)                                            {}
func (nullDraw) Scale(x, y float64)                                                {}
func (nullDraw) Background(colour value.Colour)                                    {}

var _ machine.DrawContext = nullDraw{}
