// Package maincmd implements the command dispatch for cmd/sen: a single Cmd
// struct whose exported methods of the right shape are discovered by
// reflection and bound to command names, following the teacher's
// internal/maincmd package's buildCmds mechanism unchanged.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/seni/internal/config"
)

const binName = "sen"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler, interpreter and genotype sampler for the seni generative-art
language.

The <command> can be one of:
       parse                     Execute the parser phase and print the
                                 resulting abstract syntax tree.
       compile                   Execute the parser and compiler phases
                                 and print the resulting bytecode listing.
       trait                     Print the TraitList extracted from the
                                 script and the Genotype sampled from it
                                 under --seed.
       run                       Parse, sample a genotype, compile, run
                                 the program against a canvas and write a
                                 PNG.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --seed <n>                PRNG seed for genotype sampling
                                 (overrides SENI_SEED).
       --width <n>               Canvas width in pixels (run), default 1000.
       --height <n>              Canvas height in pixels (run), default 1000.
       --out <path>              Output PNG path (run), default out.png.
       --cpuprofile <path>       Write a pprof profile of native-call and
                                 step counts (run).

More information on the seni language:
       https://github.com/mna/seni
`, binName)
)

// Cmd is the CLI's flag-bound state, shared across every command method.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Seed       int64  `flag:"seed"`
	Width      int64  `flag:"width"`
	Height     int64  `flag:"height"`
	Out        string `flag:"out"`
	CPUProfile string `flag:"cpuprofile"`

	Config config.Config

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: a script path must be provided", cmdName)
	}
	return nil
}

// Main parses args and dispatches to the selected command, in the shape of
// the teacher's own Cmd.Main.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment: %s\n", err)
		return mainer.InvalidArgs
	}
	c.Config = cfg

	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

func (c *Cmd) seed() uint64 {
	if c.Seed != 0 {
		return uint64(c.Seed)
	}
	return c.Config.Seed
}

func (c *Cmd) width() float64 {
	if c.Width != 0 {
		return float64(c.Width)
	}
	return 1000
}

func (c *Cmd) height() float64 {
	if c.Height != 0 {
		return float64(c.Height)
	}
	return 1000
}

func (c *Cmd) outPath() string {
	if c.Out != "" {
		return c.Out
	}
	return "out.png"
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

// buildCmds is the teacher's own reflection-based command table: a method
// is a valid command iff it has the shape func(*Cmd, context.Context,
// mainer.Stdio, []string) error.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
