// Package ast defines the abstract syntax tree produced by lang/parser
// (spec.md §3, Node). It is quasi-lossless: Whitespace, Comment and Tilde
// nodes are kept in a list's/vector's child slice alongside the semantic
// children they sit between, so the exact source text can be recovered,
// but they never participate in compilation.
package ast

import (
	"fmt"

	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/token"
	"github.com/mna/seni/lang/value"
)

// Node is any node of the AST.
type Node interface {
	fmt.Stringer

	// Span reports the start and end source position of the node.
	Span() (start, end token.Pos)

	// NodeMeta returns the node's shared metadata (span and gene info).
	NodeMeta() *Meta

	// Walk visits the node's children, if any, with v.
	Walk(v Visitor)
}

// Meta carries state common to every Node: its source span, and, for
// alterable nodes, the unparsed parameter-list AST and sampled gene value
// (spec.md §3, "gene_info").
type Meta struct {
	Start, End token.Pos
	Gene       *GeneInfo
}

func (m *Meta) Span() (token.Pos, token.Pos) { return m.Start, m.End }
func (m *Meta) NodeMeta() *Meta              { return m }

// GeneInfo marks a node as alterable: the curly-brace annotation
// `{expr (params...)}` records params as ParameterAST, the unparsed AST of
// the generator call that governs the node's variation. Gene holds the
// sampled value once the trait/genotype engine has run; it is nil until
// then.
type GeneInfo struct {
	ParameterAST []Node
	Gene         value.Var
}

// Visitor is implemented by callers of Walk to traverse an AST.
type Visitor interface {
	// Visit is called for every node; if it returns a non-nil Visitor, Walk
	// recurses into the node's children with that Visitor.
	Visit(n Node) (w Visitor)
}

// Walk traverses the AST rooted at n in source order, calling v.Visit for
// every node, including non-semantic ones (Whitespace, Comment, Tilde).
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	if v = v.Visit(n); v == nil {
		return
	}
	n.Walk(v)
}

// IsSemantic reports whether n participates in compilation; Whitespace,
// Comment and Tilde nodes are preserved only for round-tripping (spec.md
// §3).
func IsSemantic(n Node) bool {
	switch n.(type) {
	case *Whitespace, *Comment, *Tilde:
		return false
	default:
		return true
	}
}

// Semantic filters nodes down to the ones that participate in compilation,
// preserving order.
func Semantic(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if IsSemantic(n) {
			out = append(out, n)
		}
	}
	return out
}

// List is a call form: `(callee args...)`. Its first semantic child is the
// callee.
type List struct {
	Meta
	Nodes []Node
}

func (n *List) String() string { return "List" }
func (n *List) Walk(v Visitor) {
	for _, c := range n.Nodes {
		Walk(v, c)
	}
}

// Vector is an aggregate literal: `[elems...]`.
type Vector struct {
	Meta
	Nodes []Node
}

func (n *Vector) String() string { return "Vector" }
func (n *Vector) Walk(v Visitor) {
	for _, c := range n.Nodes {
		Walk(v, c)
	}
}

// Float is a floating-point literal.
type Float struct {
	Meta
	Val float64
	Raw string
}

func (n *Float) String() string { return "Float(" + n.Raw + ")" }
func (n *Float) Walk(Visitor)   {}

// Name is a bare identifier, interned in the parser's iname.Table.
type Name struct {
	Meta
	Iname iname.Iname
	Raw   string
}

func (n *Name) String() string { return "Name(" + n.Raw + ")" }
func (n *Name) Walk(Visitor)   {}

// FromName encodes the dotted-call sugar `x.f`: spec.md §3 defines
// `x.f a: 1` as equivalent to `(f from: x a: 1)`. Iname/Raw name the callee
// (f); From holds the receiver expression (x) that desugars to the `from:`
// argument.
type FromName struct {
	Meta
	Iname iname.Iname
	Raw   string
	From  Node
}

func (n *FromName) String() string { return "FromName(" + n.Raw + ")" }
func (n *FromName) Walk(v Visitor) { Walk(v, n.From) }

// Label is an identifier immediately followed by ':', used as the keyword
// half of a label/value pair in a call form or parameter list.
type Label struct {
	Meta
	Iname iname.Iname
	Raw   string
}

func (n *Label) String() string { return "Label(" + n.Raw + ":)" }
func (n *Label) Walk(Visitor)   {}

// String is a quoted string literal, interned in the parser's iname.Table.
// IsHex marks a `#rrggbb` colour literal, which shares this node shape
// (spec.md §3 lists no separate colour Node kind): the six hex digits are
// interned as Raw exactly as for an ordinary string, and the compiler
// checks IsHex to emit an RGB Colour constant instead of a string constant.
type String struct {
	Meta
	Iname iname.Iname
	Raw   string
	IsHex bool
}

func (n *String) String() string { return "String(" + n.Raw + ")" }
func (n *String) Walk(Visitor)   {}

// Tilde is the `~` marker token. It carries no semantic meaning; it is
// preserved only for round-tripping.
type Tilde struct {
	Meta
}

func (n *Tilde) String() string { return "Tilde" }
func (n *Tilde) Walk(Visitor)   {}

// Whitespace is a run of whitespace/newline characters between tokens,
// preserved only for round-tripping.
type Whitespace struct {
	Meta
	Raw string
}

func (n *Whitespace) String() string { return "Whitespace" }
func (n *Whitespace) Walk(Visitor)   {}

// Comment is a `;`-to-end-of-line comment, preserved only for
// round-tripping.
type Comment struct {
	Meta
	Raw string
}

func (n *Comment) String() string { return "Comment(" + n.Raw + ")" }
func (n *Comment) Walk(Visitor)   {}

var (
	_ Node = (*List)(nil)
	_ Node = (*Vector)(nil)
	_ Node = (*Float)(nil)
	_ Node = (*Name)(nil)
	_ Node = (*FromName)(nil)
	_ Node = (*Label)(nil)
	_ Node = (*String)(nil)
	_ Node = (*Tilde)(nil)
	_ Node = (*Whitespace)(nil)
	_ Node = (*Comment)(nil)
)
