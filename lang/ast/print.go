package ast

import (
	"fmt"
	"io"
	"strings"
)

type printVisitor struct {
	w      io.Writer
	indent int
}

func (p *printVisitor) Visit(n Node) Visitor {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.indent), n)
	return &printVisitor{w: p.w, indent: p.indent + 1}
}

// Fprint writes a human-readable, indented dump of the AST rooted at nodes
// to w, for debugging (the CLI's parse command uses it).
func Fprint(w io.Writer, nodes []Node) {
	v := &printVisitor{w: w}
	for _, n := range nodes {
		Walk(v, n)
	}
}
