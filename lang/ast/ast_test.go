package ast

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSemantic(t *testing.T) {
	require.True(t, IsSemantic(&Float{Val: 1}))
	require.True(t, IsSemantic(&Name{Raw: "x"}))
	require.False(t, IsSemantic(&Whitespace{Raw: " "}))
	require.False(t, IsSemantic(&Comment{Raw: "; c"}))
	require.False(t, IsSemantic(&Tilde{}))
}

func TestSemanticFilters(t *testing.T) {
	nodes := []Node{
		&Float{Val: 1, Raw: "1"},
		&Whitespace{Raw: " "},
		&Name{Raw: "x"},
		&Comment{Raw: "; trailing"},
	}
	got := Semantic(nodes)
	require.Len(t, got, 2)
	require.IsType(t, &Float{}, got[0])
	require.IsType(t, &Name{}, got[1])
}

func TestWalkVisitsChildren(t *testing.T) {
	list := &List{Nodes: []Node{
		&Name{Raw: "line"},
		&Whitespace{Raw: " "},
		&Float{Val: 1, Raw: "1"},
	}}

	var seen []string
	Walk(visitFunc(func(n Node) Visitor {
		seen = append(seen, n.String())
		return visitFunc(func(n Node) Visitor {
			seen = append(seen, n.String())
			return nil
		})
	}), list)

	require.Equal(t, []string{"List", "Name(line)", "Whitespace", "Float(1)"}, seen)
}

type visitFunc func(n Node) Visitor

func (f visitFunc) Visit(n Node) Visitor { return f(n) }

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, []Node{&List{Nodes: []Node{&Name{Raw: "line"}}}})
	require.Contains(t, buf.String(), "List")
	require.Contains(t, buf.String(), "Name(line)")
}

func TestGeneInfoOnNode(t *testing.T) {
	n := &Float{Val: 2, Raw: "2"}
	n.Gene = &GeneInfo{ParameterAST: []Node{&Name{Raw: "gen/int"}}}
	require.NotNil(t, n.NodeMeta().Gene)
	require.Len(t, n.NodeMeta().Gene.ParameterAST, 1)
}
