package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/mna/seni/lang/compiler"
	"github.com/mna/seni/lang/trait"
)

// Trait extracts the TraitList from args[0], samples a Genotype under
// --seed/SENI_SEED, and prints each trait's drawn value alongside its
// as-written initial value.
func (c *Cmd) Trait(ctx context.Context, stdio mainer.Stdio, args []string) error {
	l, err := loadScript(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	globals, err := compiler.TopLevelGlobals(l.nodes, l.names)
	if err != nil {
		return printError(stdio, err)
	}
	tl, err := trait.Compile(l.nodes, l.names, l.nat, globals)
	if err != nil {
		return printError(stdio, err)
	}

	seed := c.seed()
	geno, err := trait.BuildGenotype(tl, seed, l.names, l.nat)
	if err != nil {
		return printError(stdio, err)
	}

	fmt.Fprintf(stdio.Stdout, "seed %d, %d traits\n", seed, len(tl.Traits))
	for i, t := range tl.Traits {
		g := geno.Genes[i]
		if t.WithinVector {
			fmt.Fprintf(stdio.Stdout, "trait[%d] vector[%d]: initial=%s drawn=%s\n", i, t.Index, t.InitialValue, g.Value)
		} else {
			fmt.Fprintf(stdio.Stdout, "trait[%d]: initial=%s drawn=%s\n", i, t.InitialValue, g.Value)
		}
	}
	return nil
}
