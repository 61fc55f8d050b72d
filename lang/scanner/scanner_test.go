package scanner

import (
	"testing"

	"github.com/mna/seni/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s Scanner
	var errs []string
	s.Init("test", []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})
	var toks []token.Token
	for {
		tok, _, _, _ := s.Scan()
		toks = append(toks, tok)
		if tok == token.EOF {
			break
		}
	}
	require.Empty(t, errs)
	return toks
}

func TestScanPunctuation(t *testing.T) {
	toks := scanAll(t, "([{}])")
	require.Equal(t, []token.Token{
		token.LPAREN, token.LBRACK, token.LBRACE, token.RBRACE, token.RBRACK, token.RPAREN, token.EOF,
	}, toks)
}

func TestScanIdentAndLabel(t *testing.T) {
	var s Scanner
	s.Init("test", []byte("on-matrix-stack num: 5"), nil)

	tok, val, _, _ := s.Scan()
	require.Equal(t, token.IDENT, tok)
	require.Equal(t, "on-matrix-stack", val.Raw)

	tok, _, _, _ = s.Scan() // whitespace
	require.Equal(t, token.WS, tok)

	tok, val, _, _ = s.Scan()
	require.Equal(t, token.LABEL, tok)
	require.Equal(t, "num", val.Raw)

	tok, _, _, _ = s.Scan() // whitespace
	require.Equal(t, token.WS, tok)

	tok, val, _, _ = s.Scan()
	require.Equal(t, token.FLOAT, tok)
	require.Equal(t, 5.0, val.Float)
}

func TestScanFloat(t *testing.T) {
	var s Scanner
	s.Init("test", []byte("-3.5"), nil)
	tok, val, _, _ := s.Scan()
	require.Equal(t, token.FLOAT, tok)
	require.Equal(t, -3.5, val.Float)
}

func TestScanString(t *testing.T) {
	var s Scanner
	s.Init("test", []byte(`"hello\nworld"`), nil)
	tok, val, _, _ := s.Scan()
	require.Equal(t, token.STRING, tok)
	require.Equal(t, "hello\nworld", val.Raw)
}

func TestScanHex(t *testing.T) {
	var s Scanner
	s.Init("test", []byte("#ff00aa"), nil)
	tok, val, _, _ := s.Scan()
	require.Equal(t, token.HEX, tok)
	require.Equal(t, "ff00aa", val.Raw)
}

func TestScanComment(t *testing.T) {
	toks := scanAll(t, "; a comment\n1.0")
	require.Equal(t, []token.Token{token.COMMENT, token.WS, token.FLOAT, token.EOF}, toks)
}

func TestScanTildeAndQuote(t *testing.T) {
	toks := scanAll(t, "~'")
	require.Equal(t, []token.Token{token.TILDE, token.QUOTE, token.EOF}, toks)
}

func TestScanIllegalChar(t *testing.T) {
	var s Scanner
	var errs []string
	s.Init("test", []byte("\x01"), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})
	tok, _, _, _ := s.Scan()
	require.Equal(t, token.ILLEGAL, tok)
	require.NotEmpty(t, errs)
}
