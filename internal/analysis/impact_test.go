package analysis

import (
	"testing"

	"gdinfer/internal/git"
	"gdinfer/internal/graph"
	"gdinfer/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(t, m string) graph.MethodKey { return graph.MethodKey{Type: t, Method: m} }

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	p := project.New("")
	_, err := p.AddSource("res://a.gd", "class_name A\n\nfunc f():\n\tpass\n\nfunc g():\n\tf()\n")
	require.NoError(t, err)
	_, err = p.AddSource("res://b.gd", "class_name B\n\nfunc h():\n\tA.new().g()\n")
	require.NoError(t, err)

	g := graph.NewGraph()
	for _, s := range p.Scripts() {
		g.AddScript(s)
	}
	require.True(t, g.AddEdge(key("A", "g"), key("A", "f"), graph.CallSite, ""))
	require.True(t, g.AddEdge(key("B", "h"), key("A", "g"), graph.CallSite, ""))
	return g
}

func TestAnalyzeImpact(t *testing.T) {
	a := NewAnalyzer(buildGraph(t))

	t.Run("changed line inside a method", func(t *testing.T) {
		r := a.AnalyzeImpact([]git.ChangedFile{{Path: "a.gd", ChangedLines: []int{4}}})
		assert.Equal(t, []graph.MethodKey{key("A", "f")}, r.DirectlyAffected)
		assert.Equal(t, []graph.MethodKey{key("A", "g"), key("B", "h")}, r.IndirectlyAffected)
		assert.Len(t, r.All(), 3)
	})

	t.Run("whole file", func(t *testing.T) {
		r := a.AnalyzeImpact([]git.ChangedFile{{Path: "a.gd"}})
		assert.Equal(t, []graph.MethodKey{key("A", "f"), key("A", "g")}, r.DirectlyAffected)
		assert.Equal(t, []graph.MethodKey{key("B", "h")}, r.IndirectlyAffected)
	})

	t.Run("line outside any method", func(t *testing.T) {
		r := a.AnalyzeImpact([]git.ChangedFile{{Path: "a.gd", ChangedLines: []int{1}}})
		assert.Empty(t, r.DirectlyAffected)
		assert.Empty(t, r.IndirectlyAffected)
	})
}
