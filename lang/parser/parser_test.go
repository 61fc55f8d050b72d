package parser

import (
	"testing"

	"github.com/mna/seni/lang/ast"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleList(t *testing.T) {
	nodes, _, err := Parse("test", []byte("(+ 1 2)"), nil)
	require.NoError(t, err)
	sem := ast.Semantic(nodes)
	require.Len(t, sem, 1)
	list, ok := sem[0].(*ast.List)
	require.True(t, ok)
	inner := ast.Semantic(list.Nodes)
	require.Len(t, inner, 3)
	require.IsType(t, &ast.Name{}, inner[0])
	require.IsType(t, &ast.Float{}, inner[1])
	require.IsType(t, &ast.Float{}, inner[2])
}

func TestParseVector(t *testing.T) {
	nodes, _, err := Parse("test", []byte("[1 2 3]"), nil)
	require.NoError(t, err)
	sem := ast.Semantic(nodes)
	require.Len(t, sem, 1)
	vec, ok := sem[0].(*ast.Vector)
	require.True(t, ok)
	require.Len(t, ast.Semantic(vec.Nodes), 3)
}

func TestParseLabel(t *testing.T) {
	nodes, _, err := Parse("test", []byte("(line num: 5)"), nil)
	require.NoError(t, err)
	list := ast.Semantic(nodes)[0].(*ast.List)
	inner := ast.Semantic(list.Nodes)
	require.Len(t, inner, 3)
	require.IsType(t, &ast.Label{}, inner[1])
	label := inner[1].(*ast.Label)
	require.Equal(t, "num", label.Raw)
}

func TestParseDottedCallSugar(t *testing.T) {
	nodes, _, err := Parse("test", []byte("x.f a: 1"), nil)
	require.NoError(t, err)
	sem := ast.Semantic(nodes)
	require.Len(t, sem, 3)
	fn, ok := sem[0].(*ast.FromName)
	require.True(t, ok)
	require.Equal(t, "f", fn.Raw)
	require.IsType(t, &ast.Name{}, fn.From)
	require.Equal(t, "x", fn.From.(*ast.Name).Raw)
}

func TestParseQuote(t *testing.T) {
	nodes, _, err := Parse("test", []byte("'foo"), nil)
	require.NoError(t, err)
	sem := ast.Semantic(nodes)
	require.Len(t, sem, 1)
	list, ok := sem[0].(*ast.List)
	require.True(t, ok)
	inner := ast.Semantic(list.Nodes)
	require.Len(t, inner, 2)
	require.Equal(t, "quote", inner[0].(*ast.Name).Raw)
	require.Equal(t, "foo", inner[1].(*ast.Name).Raw)
}

func TestParseAlterableAnnotation(t *testing.T) {
	nodes, _, err := Parse("test", []byte("{2 (gen/int min: 1 max: 5)}"), nil)
	require.NoError(t, err)
	sem := ast.Semantic(nodes)
	require.Len(t, sem, 1)
	f, ok := sem[0].(*ast.Float)
	require.True(t, ok)
	require.Equal(t, 2.0, f.Val)
	require.NotNil(t, f.Gene)
	require.NotEmpty(t, f.Gene.ParameterAST)
	require.Equal(t, "gen/int", f.Gene.ParameterAST[0].(*ast.Name).Raw)
}

func TestParseHexColour(t *testing.T) {
	nodes, _, err := Parse("test", []byte("#ff0000"), nil)
	require.NoError(t, err)
	sem := ast.Semantic(nodes)
	require.Len(t, sem, 1)
	s, ok := sem[0].(*ast.String)
	require.True(t, ok)
	require.True(t, s.IsHex)
	require.Equal(t, "ff0000", s.Raw)
}

func TestParseUnterminatedListReportsError(t *testing.T) {
	_, _, err := Parse("test", []byte("(+ 1 2"), nil)
	require.Error(t, err)
}
