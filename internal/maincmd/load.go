package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/seni/lang/ast"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/natives"
	"github.com/mna/seni/lang/parser"
)

// loaded is the result of reading and parsing one script: its semantic
// top-level nodes, the iname table the parse interned names into (natives
// already registered), and a Registry bound to that same table (lang/
// natives.Bind, not NewRegistry -- the table's natives were registered by
// parser.Parse itself, see lang/natives.Names/Bind's doc comments).
type loaded struct {
	nodes []ast.Node
	names *iname.Table
	nat   *natives.Registry
}

func loadScript(path string) (*loaded, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	nodes, names, err := parser.Parse(path, src, natives.Names())
	if err != nil {
		return nil, err
	}
	return &loaded{nodes: nodes, names: names, nat: natives.Bind(names)}, nil
}
