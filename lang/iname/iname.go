// Package iname implements the interned-name table shared by every phase of
// the compiler. Every source identifier, keyword, native-function name, and
// string literal is assigned a small integer identifier (an Iname) so that
// later phases (compiler, VM, trait engine) never compare strings at
// run time.
package iname

import "github.com/dolthub/swiss"

// Iname is a 32-bit interned-name identifier.
type Iname uint32

// The integer space is partitioned into three contiguous ranges:
//
//	[0, KeywordEnd)        reserved for language keywords
//	[KeywordEnd, NativeEnd) reserved for native function names
//	[NativeEnd, +inf)       user-introduced identifiers and string literals
//
// A keyword's Iname is stable across runs (it is assigned from the fixed
// Keywords table below); a user name's Iname is stable only within one
// parse.
const (
	// KeywordEnd is the first Iname not reserved for a keyword.
	KeywordEnd Iname = Iname(len(Keywords))
)

// Keywords is the fixed, ordered list of reserved language keywords. Order
// defines each keyword's Iname, so it must never change once released.
var Keywords = []string{
	"fn", "define", "if", "loop", "fence", "each",
	"on-matrix-stack", "fn-call", "address-of", "quote",
	"from", "to", "upto", "inc", "num",
	"true", "false",
	// preamble globals (spec.md §4.2 Phase 1)
	"canvas/width", "canvas/height",
	"math/PI", "math/TAU", "math/E",
	"white", "black", "red", "green", "blue", "yellow", "cyan", "magenta",
	"ease-all", "brush-all", "col/procedural-fn-presets",
}

// Table assigns and looks up Inames for a single parse. Keywords are
// pre-registered at construction with their fixed Iname; native names are
// registered by the caller (lang/natives) at program start with Inames
// immediately following the keyword range; everything else (user
// identifiers, string literals) is interned in first-seen order starting at
// NativeEnd.
type Table struct {
	toIname *swiss.Map[string, Iname]
	toStr   []string // index i => lookup(Iname(i))
	// nativeEnd is the first Iname available for user identifiers; it is
	// fixed once natives have been registered (see RegisterNatives) and
	// never changes afterwards.
	nativeEnd Iname
}

// NewTable returns a Table with the keyword range pre-interned.
func NewTable() *Table {
	t := &Table{
		toIname:   swiss.NewMap[string, Iname](uint32(len(Keywords)) * 2),
		toStr:     make([]string, len(Keywords)),
		nativeEnd: KeywordEnd,
	}
	for i, kw := range Keywords {
		t.toIname.Put(kw, Iname(i))
		t.toStr[i] = kw
	}
	return t
}

// RegisterNatives reserves the native-name range [KeywordEnd, KeywordEnd +
// len(names)) in the given order, and fixes NativeEnd. It must be called
// exactly once, before any call to Intern.
func (t *Table) RegisterNatives(names []string) {
	for _, n := range names {
		i := Iname(len(t.toStr))
		t.toIname.Put(n, i)
		t.toStr = append(t.toStr, n)
	}
	t.nativeEnd = Iname(len(t.toStr))
}

// NativeEnd returns the first Iname available for user identifiers.
func (t *Table) NativeEnd() Iname { return t.nativeEnd }

// Intern returns the Iname for str, assigning a fresh one in parse order if
// str has not been seen before (idempotent within one Table).
func (t *Table) Intern(str string) Iname {
	if i, ok := t.toIname.Get(str); ok {
		return i
	}
	i := Iname(len(t.toStr))
	t.toIname.Put(str, i)
	t.toStr = append(t.toStr, str)
	return i
}

// Lookup returns the source text for name, or "" if name was never interned
// in this table.
func (t *Table) Lookup(name Iname) string {
	if int(name) >= len(t.toStr) {
		return ""
	}
	return t.toStr[name]
}

// IsKeyword reports whether name falls in the reserved keyword range.
func (t *Table) IsKeyword(name Iname) bool { return name < KeywordEnd }

// IsNative reports whether name falls in the reserved native-function range.
func (t *Table) IsNative(name Iname) bool { return name >= KeywordEnd && name < t.nativeEnd }

// IsUser reports whether name is a user-introduced identifier or string
// literal.
func (t *Table) IsUser(name Iname) bool { return name >= t.nativeEnd }
