package retrieval

import (
	"testing"

	"gdinfer/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func k(m string) graph.MethodKey { return graph.MethodKey{Type: "T", Method: m} }

// a -call-> b -return-> c -param-> d, and e -call-> a.
func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()
	for _, m := range []string{"a", "b", "c", "d", "e"} {
		g.AddMethod(k(m), nil)
	}
	require.True(t, g.AddEdge(k("a"), k("b"), graph.CallSite, ""))
	require.True(t, g.AddEdge(k("b"), k("c"), graph.ReturnDependency, ""))
	require.True(t, g.AddEdge(k("c"), k("d"), graph.ParameterDependency, "x"))
	require.True(t, g.AddEdge(k("e"), k("a"), graph.CallSite, ""))
	return g
}

func TestExtract_BasicHopTraversal(t *testing.T) {
	sg := Extract(chainGraph(t), []graph.MethodKey{k("b")}, Config{MaxHops: 1})

	assert.Equal(t, []graph.MethodKey{k("b")}, sg.Seeds)
	assert.Equal(t, []graph.MethodKey{k("a"), k("b"), k("c")}, sg.Keys)
	assert.Len(t, sg.Edges, 2)
	assert.Equal(t, 1, sg.Depth[k("c")])
	assert.InDelta(t, 1.0, sg.Scores[k("b")], 0.001)
	assert.InDelta(t, 1.0, sg.Scores[k("c")], 0.001)
	assert.InDelta(t, 0.7, sg.Scores[k("a")], 0.001)
}

func TestExtract_TwoHops(t *testing.T) {
	sg := Extract(chainGraph(t), []graph.MethodKey{k("b")}, Config{MaxHops: 2})

	assert.Equal(t, []graph.MethodKey{k("a"), k("b"), k("c"), k("d"), k("e")}, sg.Keys)
	assert.Equal(t, 2, sg.Depth[k("d")])
	assert.InDelta(t, 0.9, sg.Scores[k("d")], 0.001)
	assert.InDelta(t, 0.49, sg.Scores[k("e")], 0.001)
}

func TestExtract_FiltersByWeight(t *testing.T) {
	sg := Extract(chainGraph(t), []graph.MethodKey{k("b")}, Config{MaxHops: 3, MinWeight: 0.8})

	assert.Equal(t, []graph.MethodKey{k("b"), k("c"), k("d")}, sg.Keys)
	for _, e := range sg.Edges {
		assert.NotEqual(t, graph.CallSite, e.Kind)
	}
}

func TestExtract_FiltersByKind(t *testing.T) {
	cfg := Config{MaxHops: 3, AllowedKinds: map[graph.DependencyKind]bool{graph.CallSite: true}}
	sg := Extract(chainGraph(t), []graph.MethodKey{k("a")}, cfg)

	assert.Equal(t, []graph.MethodKey{k("a"), k("b"), k("e")}, sg.Keys)
}

func TestExtract_UnknownSeedsAndNilGraph(t *testing.T) {
	sg := Extract(chainGraph(t), []graph.MethodKey{k("zz")}, DefaultConfig())
	assert.Empty(t, sg.Seeds)
	assert.Empty(t, sg.Keys)

	sg = Extract(nil, []graph.MethodKey{k("a")}, DefaultConfig())
	assert.Empty(t, sg.Keys)
}
