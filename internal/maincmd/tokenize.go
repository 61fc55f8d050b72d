package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/seni/lang/scanner"
	"github.com/mna/seni/lang/token"
)

// Tokenize executes the scanner phase on args[0] and prints every token.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, fmt.Errorf("reading %s: %w", path, err))
	}

	var errs []error
	var sc scanner.Scanner
	sc.Init(path, src, func(pos token.Position, msg string) {
		errs = append(errs, fmt.Errorf("%s: %s", pos, msg))
	})

	for {
		tok, val, start, _ := sc.Scan()
		pos := token.MakePosition(path, start)
		fmt.Fprintf(stdio.Stdout, "%s: %s", pos, tok)
		if val.Raw != "" {
			fmt.Fprintf(stdio.Stdout, " %q", val.Raw)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok == token.EOF {
			break
		}
	}

	for _, e := range errs {
		fmt.Fprintln(stdio.Stderr, e)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
