// Package pack implements the whitespace-delimited ASCII serialisation
// primitives shared by lang/value, lang/bytecode and lang/trait (spec.md
// §6, "Packed program format" and "Packed trait-list format").
//
// The format is deliberately simple: every packed thing is a sequence of
// space-separated tokens, tagged so the reader never has to guess a type.
// Naming follows the original Rust implementation's "Mule" pack helper
// (original_source/*/src/packable.rs).
package pack

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Writer accumulates packed tokens, space-separating them automatically.
type Writer struct {
	b     strings.Builder
	empty bool
}

// NewWriter returns a ready-to-use Writer.
func NewWriter() *Writer { return &Writer{empty: true} }

func (w *Writer) sep() {
	if !w.empty {
		w.b.WriteByte(' ')
	}
	w.empty = false
}

// Token writes a raw token verbatim (caller guarantees it contains no
// whitespace).
func (w *Writer) Token(s string) {
	w.sep()
	w.b.WriteString(s)
}

// Int writes a signed integer token.
func (w *Writer) Int(v int64) { w.Token(strconv.FormatInt(v, 10)) }

// Uint writes an unsigned integer token.
func (w *Writer) Uint(v uint64) { w.Token(strconv.FormatUint(v, 10)) }

// Float writes a float token using the shortest round-trippable form.
func (w *Writer) Float(v float64) { w.Token(strconv.FormatFloat(v, 'g', -1, 64)) }

// Bool writes "1" or "0".
func (w *Writer) Bool(v bool) {
	if v {
		w.Token("1")
	} else {
		w.Token("0")
	}
}

// QuotedString writes s as a Go-quoted string token; since Go quoting never
// introduces unescaped spaces, this remains a single whitespace-delimited
// token.
func (w *Writer) QuotedString(s string) { w.Token(strconv.Quote(s)) }

// String returns the packed byte stream built so far.
func (w *Writer) String() string { return w.b.String() }

// Reader consumes whitespace-delimited tokens from a packed stream.
type Reader struct {
	toks []string
	pos  int
}

// NewReader tokenizes a packed byte stream on whitespace using the same
// convention as bufio.ScanWords; quoted strings are kept as one token
// because strconv.Quote never emits a literal space unescaped.
func NewReader(s string) *Reader {
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Split(bufio.ScanWords)
	var toks []string
	for sc.Scan() {
		toks = append(toks, sc.Text())
	}
	return &Reader{toks: toks}
}

// Done reports whether every token has been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.toks) }

// Peek returns the next token without consuming it, or "" if exhausted.
func (r *Reader) Peek() string {
	if r.Done() {
		return ""
	}
	return r.toks[r.pos]
}

// Token consumes and returns the next raw token.
func (r *Reader) Token() (string, error) {
	if r.Done() {
		return "", fmt.Errorf("pack: short input: expected a token, got end of stream")
	}
	t := r.toks[r.pos]
	r.pos++
	return t, nil
}

// Expect consumes the next token and errors if it does not equal want.
func (r *Reader) Expect(want string) error {
	got, err := r.Token()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("pack: expected %q, got %q", want, got)
	}
	return nil
}

// Int consumes and parses a signed integer token.
func (r *Reader) Int() (int64, error) {
	t, err := r.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pack: invalid int %q: %w", t, err)
	}
	return v, nil
}

// Uint consumes and parses an unsigned integer token.
func (r *Reader) Uint() (uint64, error) {
	t, err := r.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(t, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pack: invalid uint %q: %w", t, err)
	}
	return v, nil
}

// Float consumes and parses a float token.
func (r *Reader) Float() (float64, error) {
	t, err := r.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("pack: invalid float %q: %w", t, err)
	}
	return v, nil
}

// Bool consumes a "1"/"0" token.
func (r *Reader) Bool() (bool, error) {
	t, err := r.Token()
	if err != nil {
		return false, err
	}
	switch t {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("pack: invalid bool %q", t)
	}
}

// QuotedString consumes a Go-quoted string token.
func (r *Reader) QuotedString() (string, error) {
	t, err := r.Token()
	if err != nil {
		return "", err
	}
	s, err := strconv.Unquote(t)
	if err != nil {
		return "", fmt.Errorf("pack: invalid quoted string %q: %w", t, err)
	}
	return s, nil
}
