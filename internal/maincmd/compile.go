package maincmd

import (
	"context"

	"github.com/mna/mainer"

	"github.com/mna/seni/lang/compiler"
)

// Compile executes the parser and compiler phases on args[0] and prints the
// resulting bytecode listing (no gene substitution -- this is the script's
// literal, as-written program).
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	l, err := loadScript(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	prog, err := compiler.Compile(l.nodes, l.names, l.nat, false)
	if err != nil {
		return printError(stdio, err)
	}
	prog.Disassemble(stdio.Stdout)
	return nil
}
