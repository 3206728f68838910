package inference

import (
	"testing"

	"gdinfer/internal/catalog"
	"gdinfer/internal/graph"
	"gdinfer/internal/project"
	"gdinfer/internal/typeset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtures = map[string]string{
	"res://math.gd": `class_name MathUtil

func f(x):
	return x

func caller():
	f(1)
	f(2)
	f("three")
`,
	"res://ping.gd": `class_name Ping

func ping(n):
	if n > 0:
		pong(n - 1)

func pong(n):
	ping(n)

func start():
	ping(3)
`,
	"res://tools.gd": `class_name Tools

func stash(items, x):
	items.append(x)
	items.push_front(x)

func lonely(v):
	pass

func check(n):
	if n is Node2D:
		n.show()

func outer(v):
	inner(v)

func inner(w: int):
	pass

func make_label():
	return Label.new()

func pair(flag: bool):
	if flag:
		return 1
	return "one"

func chain():
	return make_label()

func typed(a: String) -> int:
	return a.length()

func greet(name = "x"):
	print(name)

func welcome():
	greet()

func counter(step := 2):
	return step
`,
}

func newEngine(t *testing.T) (*project.Project, *Engine) {
	t.Helper()
	p := project.New("")
	for path, src := range fixtures {
		_, err := p.AddSource(path, src)
		require.NoError(t, err)
	}
	c, err := catalog.ForProject(p)
	require.NoError(t, err)
	e, err := NewEngine(p, c)
	require.NoError(t, err)
	return p, e
}

func param(t *testing.T, e *Engine, class, method, name string) *ParameterReport {
	t.Helper()
	pr, ok := e.InferParameterType(class, method, name)
	require.True(t, ok, "%s.%s(%s)", class, method, name)
	return pr
}

func TestNewEngine_RequiresCollaborators(t *testing.T) {
	p := project.New("")
	c, err := catalog.ForProject(p)
	require.NoError(t, err)

	_, err = NewEngine(nil, c)
	assert.ErrorIs(t, err, ErrNilProject)
	_, err = NewEngine(p, nil)
	assert.ErrorIs(t, err, ErrNilCatalog)
}

func TestEngine_ParameterFromCallSites(t *testing.T) {
	_, e := newEngine(t)

	pr := param(t, e, "MathUtil", "f", "x")
	assert.Equal(t, []string{"int", "String"}, pr.Inferred.Types())
	assert.True(t, pr.Inferred.AllHighConfidence())
	assert.Equal(t, typeset.Strict, pr.Confidence)
	assert.Equal(t, typeset.High, pr.TypeConfidence)
	assert.Equal(t, ReasonCallSites, pr.Reason)
	assert.Len(t, pr.Evidence, 3)

	ret, ok := e.InferReturnType("MathUtil", "f")
	require.True(t, ok)
	assert.Equal(t, "int|String", ret.Type())
	assert.Equal(t, typeset.Strict, ret.Confidence)

	rep, ok := e.GetMethodReport("MathUtil", "f")
	require.True(t, ok)
	assert.False(t, rep.HasCyclicDependency)
	assert.Equal(t, typeset.Strict, rep.Confidence)
	assert.Equal(t, []graph.MethodKey{{Type: "MathUtil", Method: "caller"}}, rep.Dependents)
	assert.Equal(t, "res://math.gd", rep.File)
	assert.Equal(t, 3, rep.Line)
}

func TestEngine_MutualRecursion(t *testing.T) {
	_, e := newEngine(t)

	ping := graph.MethodKey{Type: "Ping", Method: "ping"}
	pong := graph.MethodKey{Type: "Ping", Method: "pong"}
	assert.Equal(t, [][]graph.MethodKey{{ping, pong}}, e.Cycles())
	assert.True(t, e.IsMethodInCycle("Ping", "ping"))
	assert.False(t, e.IsMethodInCycle("Ping", "start"))

	var tail []graph.OrderEntry
	for _, o := range e.Order() {
		if o.Key.Type == "Ping" {
			tail = append(tail, o)
		}
	}
	assert.Equal(t, []graph.OrderEntry{
		{Key: graph.MethodKey{Type: "Ping", Method: "start"}},
		{Key: ping, InCycle: true},
		{Key: pong, InCycle: true},
	}, tail)

	for _, m := range []string{"ping", "pong"} {
		rep, ok := e.GetMethodReport("Ping", m)
		require.True(t, ok)
		assert.True(t, rep.HasCyclicDependency, m)
		assert.Equal(t, typeset.Potential, rep.Confidence, m)
		n := rep.Parameter("n")
		require.NotNil(t, n)
		assert.Equal(t, typeset.Potential, n.Confidence, m)
		assert.Equal(t, []string{"int"}, n.Inferred.Types(), m)
		assert.LessOrEqual(t, n.TypeConfidence, typeset.Medium, m)
	}
}

func TestEngine_UsageFallbacks(t *testing.T) {
	_, e := newEngine(t)

	t.Run("duck typed container", func(t *testing.T) {
		pr := param(t, e, "Tools", "stash", "items")
		assert.Equal(t, []string{"Array"}, pr.Inferred.Types())
		assert.Equal(t, typeset.Medium, pr.TypeConfidence)
		assert.Equal(t, typeset.Potential, pr.Confidence)
		assert.Equal(t, ReasonDuck, pr.Reason)
	})

	t.Run("no call sites and no usage", func(t *testing.T) {
		pr := param(t, e, "Tools", "lonely", "v")
		assert.True(t, pr.Inferred.IsEmpty())
		assert.Equal(t, typeset.Unknown, pr.TypeConfidence)
		assert.Equal(t, ReasonNoEvidence, pr.Reason)
		assert.Empty(t, pr.Evidence)
	})

	t.Run("type check", func(t *testing.T) {
		pr := param(t, e, "Tools", "check", "n")
		assert.Equal(t, []string{"Node2D"}, pr.Inferred.Types())
		assert.Equal(t, typeset.High, pr.TypeConfidence)
		assert.Equal(t, ReasonTypeCheck, pr.Reason)
	})

	t.Run("forwarded into a typed parameter", func(t *testing.T) {
		pr := param(t, e, "Tools", "outer", "v")
		assert.Equal(t, []string{"int"}, pr.Inferred.Types())
		assert.Equal(t, typeset.Medium, pr.TypeConfidence)
		assert.Equal(t, ReasonForwarded, pr.Reason)
		assert.False(t, pr.Inferred.AllHighConfidence())
	})
}

func TestEngine_AnnotationsAndDefaults(t *testing.T) {
	_, e := newEngine(t)

	pr := param(t, e, "Tools", "typed", "a")
	assert.Equal(t, "String", pr.Type())
	assert.Equal(t, typeset.Certain, pr.TypeConfidence)
	assert.Equal(t, ReasonAnnotation, pr.Reason)

	ret, ok := e.InferReturnType("Tools", "typed")
	require.True(t, ok)
	assert.Equal(t, "int", ret.Type())
	assert.Equal(t, ReasonAnnotation, ret.Reason)

	pr = param(t, e, "Tools", "greet", "name")
	assert.Equal(t, []string{"String"}, pr.Inferred.Types())
	assert.Equal(t, ReasonDefault, pr.Reason)
	assert.Equal(t, typeset.Strict, pr.Confidence)

	pr = param(t, e, "Tools", "counter", "step")
	assert.Equal(t, "int", pr.Type())
	assert.Equal(t, ReasonInferred, pr.Reason)
	assert.Equal(t, typeset.Certain, pr.TypeConfidence)
}

func TestEngine_ReturnTypes(t *testing.T) {
	_, e := newEngine(t)

	cases := []struct {
		method string
		want   string
		reason string
		conf   typeset.ReferenceConfidence
	}{
		{"make_label", "Label", ReasonReturns, typeset.Strict},
		{"pair", "int|String", ReasonReturns, typeset.Strict},
		{"chain", "Label", ReasonReturns, typeset.Strict},
		{"lonely", "void", ReasonVoid, typeset.Strict},
		{"counter", "int", ReasonReturns, typeset.Strict},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			ret, ok := e.InferReturnType("Tools", tc.method)
			require.True(t, ok)
			assert.Equal(t, tc.want, ret.Type())
			assert.Equal(t, tc.reason, ret.Reason)
			assert.Equal(t, tc.conf, ret.Confidence)
		})
	}
}

func TestEngine_GraphEdgeKinds(t *testing.T) {
	_, e := newEngine(t)
	g := e.Graph()

	kinds := func(from graph.MethodKey) map[graph.DependencyKind]string {
		out := make(map[graph.DependencyKind]string)
		for _, edge := range g.EdgesFrom(from) {
			out[edge.Kind] = edge.To.String()
			if edge.Param != "" {
				out[edge.Kind] += ":" + edge.Param
			}
		}
		return out
	}
	assert.Equal(t, map[graph.DependencyKind]string{
		graph.CallSite:         "Tools.make_label",
		graph.ReturnDependency: "Tools.make_label",
	}, kinds(graph.MethodKey{Type: "Tools", Method: "chain"}))
	assert.Equal(t, map[graph.DependencyKind]string{
		graph.CallSite:            "Tools.inner",
		graph.ParameterDependency: "Tools.inner:v",
	}, kinds(graph.MethodKey{Type: "Tools", Method: "outer"}))
}

func TestEngine_BuildAllFollowsOrder(t *testing.T) {
	_, e := newEngine(t)

	reports := e.BuildAll()
	require.Len(t, reports, len(e.Graph().Nodes))
	for i, r := range reports {
		assert.Equal(t, i, r.OrderIndex, r.Key.String())
	}

	pos := make(map[string]int)
	for i, r := range reports {
		pos[r.Key.String()] = i
	}
	assert.Less(t, pos["MathUtil.f"], pos["MathUtil.caller"])
	assert.Less(t, pos["Tools.make_label"], pos["Tools.chain"])
}

func TestEngine_InvalidateFile(t *testing.T) {
	p, e := newEngine(t)
	assert.Equal(t, "int|String", param(t, e, "MathUtil", "f", "x").Type())

	_, err := p.AddSource("res://math.gd", `class_name MathUtil

func f(x):
	return x

func caller():
	f(1.5)
`)
	require.NoError(t, err)
	dropped := e.InvalidateFile("res://math.gd")
	assert.Contains(t, dropped, graph.MethodKey{Type: "MathUtil", Method: "f"})
	assert.Equal(t, "float", param(t, e, "MathUtil", "f", "x").Type())

	_, err = p.AddSource("res://extra.gd", `class_name Extra

func run():
	MathUtil.new().f(true)
`)
	require.NoError(t, err)
	dropped = e.InvalidateFile("res://extra.gd")
	assert.Contains(t, dropped, graph.MethodKey{Type: "MathUtil", Method: "f"})
	assert.Equal(t, "bool|float", param(t, e, "MathUtil", "f", "x").Type())

	require.True(t, p.Remove("res://extra.gd"))
	e.InvalidateFile("res://extra.gd")
	assert.Equal(t, "float", param(t, e, "MathUtil", "f", "x").Type())
	_, ok := e.GetMethodReport("Extra", "run")
	assert.False(t, ok)

	e.Invalidate()
	assert.Equal(t, "float", param(t, e, "MathUtil", "f", "x").Type())
}

func TestEngine_CircularConstantsAcrossClasses(t *testing.T) {
	p := project.New("")
	_, err := p.AddSource("res://a.gd", "class_name A\nconst X = B.Y\nconst SELF = A.SELF\n\nfunc get_x():\n\treturn A.X\n\nfunc get_self():\n\treturn SELF\n")
	require.NoError(t, err)
	_, err = p.AddSource("res://b.gd", "class_name B\nconst Y = A.X\n")
	require.NoError(t, err)
	c, err := catalog.ForProject(p)
	require.NoError(t, err)
	e, err := NewEngine(p, c)
	require.NoError(t, err)

	for _, m := range []string{"get_x", "get_self"} {
		ret, ok := e.InferReturnType("A", m)
		require.True(t, ok, m)
		assert.Equal(t, typeset.Unknown, ret.TypeConfidence, m)
	}
}
