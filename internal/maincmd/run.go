package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/pprof/profile"
	"github.com/mna/mainer"

	"github.com/mna/seni/lang/compiler"
	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/render"
	"github.com/mna/seni/lang/trait"
	"github.com/mna/seni/lang/value"
)

// Run parses args[0], samples a genotype from --seed/SENI_SEED, rewrites
// the AST with the drawn genes, compiles with gene substitution, runs the
// program against a lang/render.Canvas, and writes the resulting raster to
// --out (default out.png).
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
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
	if err := trait.RewriteAST(l.nodes, geno); err != nil {
		return printError(stdio, err)
	}

	prog, err := compiler.Compile(l.nodes, l.names, l.nat, true)
	if err != nil {
		return printError(stdio, err)
	}

	canvas := render.NewCanvas(c.width(), c.height())
	prng := value.NewPrngStream(seed)
	stackSize := machine.DefaultStackSize
	if ss := c.Config.StackSize; ss > 0 {
		stackSize = ss
	}
	vm := machine.NewWithCapacity(prog, l.names, l.nat, canvas, prng, stackSize)
	vm.SetUseGenes(true)
	if ms := c.Config.MaxSteps; ms > 0 {
		vm.MaxSteps = ms
	}
	if c.CPUProfile != "" {
		vm.NativeCalls = map[int]int64{}
	}

	if _, err := vm.Run(ctx); err != nil {
		return printError(stdio, err)
	}

	out := c.outPath()
	f, err := os.Create(out)
	if err != nil {
		return printError(stdio, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := canvas.EncodePNG(w); err != nil {
		return printError(stdio, err)
	}
	if err := w.Flush(); err != nil {
		return printError(stdio, err)
	}

	if c.CPUProfile != "" {
		if err := writeProfile(c.CPUProfile, vm); err != nil {
			return printError(stdio, err)
		}
	}

	fmt.Fprintf(stdio.Stdout, "%s %s (seed %d, %d steps)\n", color.GreenString("wrote"), out, seed, vm.Steps)
	return nil
}

// writeProfile builds a pprof-format profile counting native-call
// dispatches per native and total VM step count, per SPEC_FULL.md's
// --cpuprofile section.
func writeProfile(path string, vm *machine.VM) error {
	fn := &profile.Function{ID: 1, Name: "vm.Run"}
	loc := &profile.Location{ID: 1, Line: []profile.Line{{Function: fn}}}
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "steps", Unit: "count"}},
		Function:   []*profile.Function{fn},
		Location:   []*profile.Location{loc},
		Sample: []*profile.Sample{
			{Location: []*profile.Location{loc}, Value: []int64{int64(vm.Steps)}, Label: map[string][]string{"phase": {"vm.Run"}}},
		},
	}
	for idx, count := range vm.NativeCalls {
		name := fmt.Sprintf("native[%d]", idx)
		f := &profile.Function{ID: uint64(idx) + 2, Name: name}
		l := &profile.Location{ID: uint64(idx) + 2, Line: []profile.Line{{Function: f}}}
		p.Function = append(p.Function, f)
		p.Location = append(p.Location, l)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{l},
			Value:    []int64{count},
			Label:    map[string][]string{"phase": {"native"}},
		})
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return p.Write(out)
}
