// Package natives is the process-wide registry of native functions the
// compiler resolves call sites against and the machine dispatches NATIVE
// opcodes through (spec.md §4.3 "Native dispatch"). The enum-like name
// list and per-native parameter ordering follow
// original_source/sen-core/src/native.rs's Native enum and BIND table;
// the Go shape (a declarative []Spec plus a name->handler map) follows the
// teacher's resolver-table style of declarative registration.
package natives

import (
	"context"
	"fmt"

	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/machine"
	"github.com/mna/seni/lang/value"
)

// Param is one declared parameter: its keyword name and default value
// (spec.md "Native dispatch": "[(Keyword, default_value)]").
type Param struct {
	Name    string
	Default value.Var
}

// Handler implements one native's behaviour. args is positional, already
// resolved to either the caller-supplied value or the declared default for
// each parameter (Registry.Dispatch applies the default-mask before calling
// the Handler).
type Handler func(ctx context.Context, vm *machine.VM, args []value.Var) (value.Var, bool, error)

// Spec is one native's full declaration. NoResult marks natives whose
// Handler always returns hasResult=false (the drawing/transform natives),
// so the compiler can statically decide whether a call site leaves a value
// on the stack without running it.
type Spec struct {
	Name     string
	Params   []Param
	NoResult bool
	Handler  Handler
}

// Registry implements machine.Natives.
type Registry struct {
	specs []Spec
	names *iname.Table
}

var _ machine.Natives = (*Registry)(nil)

// NewRegistry builds the registry and interns every native's name into
// names via RegisterNatives, so the compiler and machine agree on the
// Native index for a given name (spec.md requires natives be registered
// before any user identifier, so their inames form a stable, low range).
// Callers that build their own fresh iname.Table use NewRegistry directly;
// callers that must register natives on a table owned elsewhere (such as
// lang/parser.Parse, which interns its own table internally) use Names and
// Bind instead, so RegisterNatives is called exactly once.
func NewRegistry(names *iname.Table) *Registry {
	r := &Registry{names: names}
	r.specs = allSpecs()
	names.RegisterNatives(Names())
	return r
}

// Names returns the ordered native name list, for callers that must
// register natives on a table themselves before a Registry exists (e.g.
// passing it into lang/parser.Parse, which interns its own iname.Table and
// registers natives on it directly).
func Names() []string {
	specs := allSpecs()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// Bind builds a Registry against a table whose natives are already
// registered (via Names, by the table's owner), without calling
// RegisterNatives again -- iname.Table.RegisterNatives may only be called
// once per table, so Bind and NewRegistry are mutually exclusive ways of
// constructing a Registry for a given table.
func Bind(names *iname.Table) *Registry {
	return &Registry{names: names, specs: allSpecs()}
}

// Lookup returns the native index, parameter list, and whether it ever
// pushes a result, for name, used by the compiler to resolve a call-site's
// head symbol, its param ordering, and whether the call leaves a value.
func (r *Registry) Lookup(name iname.Iname) (idx int, params []Param, noResult bool, ok bool) {
	s := r.names.Lookup(name)
	for i, spec := range r.specs {
		if spec.Name == s {
			return i, spec.Params, spec.NoResult, true
		}
	}
	return 0, nil, false, false
}

func (r *Registry) Arity(idx int) int {
	if idx < 0 || idx >= len(r.specs) {
		return 0
	}
	return len(r.specs[idx].Params)
}

func (r *Registry) Dispatch(ctx context.Context, vm *machine.VM, idx int, defaultMask uint32, args []value.Var) (value.Var, bool, error) {
	if idx < 0 || idx >= len(r.specs) {
		return nil, false, fmt.Errorf("natives: index %d out of range", idx)
	}
	spec := r.specs[idx]
	for i, p := range spec.Params {
		if defaultMask&(1<<uint(i)) != 0 {
			args[i] = p.Default
		}
	}
	return spec.Handler(ctx, vm, args)
}

func floatArg(v value.Var) float64 {
	f, _ := value.GetFloat(v)
	return float64(f)
}

func colourArg(v value.Var) value.Colour {
	if c, ok := v.(value.Colour); ok {
		return c
	}
	return value.NewRGB(0, 0, 0, 1)
}

func v2dArg(v value.Var) value.V2D {
	if p, ok := v.(value.V2D); ok {
		return p
	}
	return value.V2D{}
}
