package maincmd

import (
	"context"

	"github.com/mna/mainer"

	"github.com/mna/seni/lang/ast"
)

// Parse executes the parser phase on args[0] and prints the resulting AST.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	l, err := loadScript(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	ast.Fprint(stdio.Stdout, l.nodes)
	return nil
}
