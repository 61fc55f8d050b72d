// Package parser implements the recursive-descent parser that transforms
// scanner tokens into the ast.Node tree (spec.md §4.1).
package parser

import (
	"fmt"
	"strings"

	"github.com/mna/seni/lang/ast"
	"github.com/mna/seni/lang/iname"
	"github.com/mna/seni/lang/scanner"
	"github.com/mna/seni/lang/token"
)

// ErrorList collects every parse error encountered in a single pass, in the
// style of the teacher's scanner.ErrorList: parsing continues on error so
// as many mistakes as possible surface at once.
type ErrorList []error

func (el ErrorList) Error() string {
	var sb strings.Builder
	for i, err := range el {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Err returns el as an error, or nil if el is empty.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Parse scans and parses src (named source for error positions) into a
// sequence of top-level nodes, interning every identifier/string/label into
// a fresh iname.Table seeded with natives. The returned error, if non-nil,
// is an ErrorList.
func Parse(source string, src []byte, natives []string) ([]ast.Node, *iname.Table, error) {
	names := iname.NewTable()
	names.RegisterNatives(natives)

	var p parser
	p.names = names
	p.source = source
	p.scanner.Init(source, src, func(pos token.Position, msg string) {
		p.errors = append(p.errors, fmt.Errorf("%s: %s", pos, msg))
	})
	p.advance()

	nodes := p.parseSequence(token.EOF)
	if p.tok != token.EOF {
		p.errorf("expected end of file, got %s", p.tok)
	}
	return nodes, names, p.errors.Err()
}

type parser struct {
	scanner scanner.Scanner
	names   *iname.Table
	errors  ErrorList
	source  string

	tok        token.Token
	val        token.Value
	start, end token.Pos
}

func (p *parser) advance() {
	p.tok, p.val, p.start, p.end = p.scanner.Scan()
}

func (p *parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf("%s: %s", token.MakePosition(p.source, p.start), fmt.Sprintf(format, args...)))
}

// parseSequence parses forms until it reaches until or EOF, returning every
// node encountered, semantic and non-semantic alike.
func (p *parser) parseSequence(until token.Token) []ast.Node {
	var nodes []ast.Node
	for p.tok != token.EOF && p.tok != until {
		n := p.parseForm()
		if n == nil {
			// parseForm already reported the error; advance to avoid looping
			// forever on an unrecognized token.
			p.advance()
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// parseForm parses exactly one node: an atom, a list, a vector, or an
// alterable annotation wrapping one of those. Returns nil (after recording
// an error) if the current token cannot start a form.
func (p *parser) parseForm() ast.Node {
	start := p.start
	switch p.tok {
	case token.WS:
		n := &ast.Whitespace{Raw: p.val.Raw}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.COMMENT:
		n := &ast.Comment{Raw: p.val.Raw}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.TILDE:
		n := &ast.Tilde{}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.QUOTE:
		p.advance()
		return p.parseQuote(start)
	case token.LPAREN:
		return p.parseList()
	case token.LBRACK:
		return p.parseVector()
	case token.LBRACE:
		return p.parseAlterable()
	case token.FLOAT:
		n := &ast.Float{Val: p.val.Float, Raw: p.val.Raw}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.STRING:
		n := &ast.String{Iname: p.names.Intern(p.val.Raw), Raw: p.val.Raw}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.HEX:
		n := &ast.String{Iname: p.names.Intern(p.val.Raw), Raw: p.val.Raw, IsHex: true}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.LABEL:
		n := &ast.Label{Iname: p.names.Intern(p.val.Raw), Raw: p.val.Raw}
		n.Start, n.End = start, p.end
		p.advance()
		return n
	case token.IDENT:
		return p.parseIdent()
	default:
		p.errorf("unexpected token %s", p.tok)
		return nil
	}
}

// parseQuote parses the `'expr` sugar for `(quote expr)`.
func (p *parser) parseQuote(start token.Pos) ast.Node {
	inner := p.parseForm()
	quoteName := p.names.Intern("quote")
	list := &ast.List{Nodes: []ast.Node{
		&ast.Name{Iname: quoteName, Raw: "quote"},
		inner,
	}}
	list.Start = start
	if inner != nil {
		_, list.End = inner.Span()
	} else {
		list.End = start
	}
	return list
}

// parseIdent parses a bare identifier, recognizing the dotted-call sugar
// `x.f` (spec.md §3, FromName).
func (p *parser) parseIdent() ast.Node {
	start, end, raw := p.start, p.end, p.val.Raw
	p.advance()

	if idx := strings.IndexByte(raw, '.'); idx > 0 && idx < len(raw)-1 {
		recv, fn := raw[:idx], raw[idx+1:]
		n := &ast.FromName{
			Iname: p.names.Intern(fn),
			Raw:   fn,
			From:  &ast.Name{Iname: p.names.Intern(recv), Raw: recv},
		}
		n.Start, n.End = start, end
		return n
	}

	n := &ast.Name{Iname: p.names.Intern(raw), Raw: raw}
	n.Start, n.End = start, end
	return n
}

// parseList parses `(...)`.
func (p *parser) parseList() ast.Node {
	start := p.start
	p.advance() // consume '('
	nodes := p.parseSequence(token.RPAREN)
	end := p.end
	if p.tok != token.RPAREN {
		p.errorf("unterminated list, expected ')'")
	} else {
		end = p.end
		p.advance()
	}
	n := &ast.List{Nodes: nodes}
	n.Start, n.End = start, end
	return n
}

// parseVector parses `[...]`.
func (p *parser) parseVector() ast.Node {
	start := p.start
	p.advance() // consume '['
	nodes := p.parseSequence(token.RBRACK)
	end := p.end
	if p.tok != token.RBRACK {
		p.errorf("unterminated vector, expected ']'")
	} else {
		end = p.end
		p.advance()
	}
	n := &ast.Vector{Nodes: nodes}
	n.Start, n.End = start, end
	return n
}

// parseAlterable parses `{expr (params...)}`, attaching the parameter list
// to expr's GeneInfo (spec.md §3).
func (p *parser) parseAlterable() ast.Node {
	start := p.start
	p.advance() // consume '{'

	for p.tok == token.WS || p.tok == token.COMMENT {
		p.parseForm()
	}

	inner := p.parseForm()
	if inner == nil {
		p.errorf("expected alterable value after '{'")
	}

	for p.tok == token.WS || p.tok == token.COMMENT {
		p.parseForm()
	}

	if p.tok != token.LPAREN {
		p.errorf("expected parameter list '(...)' in alterable annotation")
	} else {
		params := p.parseList().(*ast.List)
		if inner != nil {
			inner.NodeMeta().Gene = &ast.GeneInfo{ParameterAST: ast.Semantic(params.Nodes)}
		}
	}

	for p.tok == token.WS || p.tok == token.COMMENT {
		p.parseForm()
	}

	end := p.end
	if p.tok != token.RBRACE {
		p.errorf("unterminated alterable annotation, expected '}'")
	} else {
		end = p.end
		p.advance()
	}
	if inner != nil {
		inner.NodeMeta().Start = start
		inner.NodeMeta().End = end
	}
	return inner
}
