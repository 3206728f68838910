package callsite

import (
	"testing"

	"gdinfer/internal/catalog"
	"gdinfer/internal/exprtype"
	"gdinfer/internal/project"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sources = map[string]string{
	"res://util.gd": `class_name Util

static func clamp_hp(v):
	return v

func missing_fn(x):
	pass
`,
	"res://actor.gd": `class_name Actor
extends Node2D

const HIT := "hit"

func hit(amount):
	pass

func heal(amount):
	hit(-amount)
`,
	"res://hero.gd": `class_name Hero
extends Actor

func hit(amount):
	pass

func attack(target: Actor, other, dyn):
	target.hit(5)
	other.hit("x")
	self.hit(2.5)
	dyn.call("hit", 1)
	call(HIT, 7)
	callv("hit", [3])
	call("hit(", 1)
	var pick = target if other else self
	pick.hit(0)
	Util.clamp_hp(3)
	missing_fn(1)
`,
}

func newCollector(t *testing.T) (*project.Project, *Collector) {
	t.Helper()
	p := project.New("")
	for path, src := range sources {
		_, err := p.AddSource(path, src)
		require.NoError(t, err)
	}
	c, err := catalog.ForProject(p)
	require.NoError(t, err)
	col, err := NewCollector(p, c, exprtype.New(c))
	require.NoError(t, err)
	return p, col
}

type summary struct {
	caller string
	text   string
	kind   ReceiverKind
	conf   typeset.ReferenceConfidence
}

func summarize(sites []*Site) []summary {
	var out []summary
	for _, s := range sites {
		out = append(out, summary{
			caller: s.CallerType + "." + s.CallerMethod,
			text:   syntax.Format(s.Call),
			kind:   s.Receiver.Kind,
			conf:   s.Confidence,
		})
	}
	return out
}

func TestNewCollector_RequiresCollaborators(t *testing.T) {
	_, err := NewCollector(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilProject)
	_, err = NewCollector(project.New(""), nil, nil)
	assert.ErrorIs(t, err, ErrNilCatalog)
}

func TestCollect_BaseMethod(t *testing.T) {
	_, col := newCollector(t)

	got := summarize(col.Collect("Actor", "hit"))
	assert.Equal(t, []summary{
		{"Actor.heal", "hit(-amount)", StaticReceiver, typeset.Strict},
		{"Hero.attack", "target.hit(5)", StaticReceiver, typeset.Strict},
		{"Hero.attack", `other.hit("x")`, DuckTyped, typeset.Potential},
		{"Hero.attack", "pick.hit(0)", UnionReceiver, typeset.Potential},
		{"Hero.attack", `dyn.call("hit", 1)`, DynamicDispatch, typeset.Potential},
	}, got)
}

func TestCollect_Override(t *testing.T) {
	_, col := newCollector(t)

	sites := col.Collect("Hero", "hit")
	got := summarize(sites)
	assert.Equal(t, []summary{
		{"Actor.heal", "hit(-amount)", StaticReceiver, typeset.Potential},
		{"Hero.attack", "target.hit(5)", StaticReceiver, typeset.Potential},
		{"Hero.attack", `other.hit("x")`, DuckTyped, typeset.Potential},
		{"Hero.attack", "self.hit(2.5)", StaticReceiver, typeset.Strict},
		{"Hero.attack", "pick.hit(0)", UnionReceiver, typeset.Potential},
		{"Hero.attack", `dyn.call("hit", 1)`, DynamicDispatch, typeset.Potential},
		{"Hero.attack", "call(HIT, 7)", DynamicDispatch, typeset.Potential},
		{"Hero.attack", `callv("hit", [3])`, DynamicDispatch, typeset.Potential},
	}, got)

	t.Run("union receiver keeps every compatible member", func(t *testing.T) {
		assert.Equal(t, []string{"Actor", "Hero"}, sites[4].Receiver.Types)
	})

	t.Run("dynamic arguments skip the method name", func(t *testing.T) {
		dyn := sites[6]
		assert.Equal(t, "call", dyn.Receiver.Via)
		require.Len(t, dyn.Args, 1)
		assert.Equal(t, "7", dyn.Args[0].Text)
		assert.Equal(t, []string{"int"}, dyn.Args[0].Type.Types())
		assert.True(t, dyn.Args[0].High())

		callv := sites[7]
		require.Len(t, callv.Args, 1)
		assert.Equal(t, "3", callv.Args[0].Text)
	})

	t.Run("duck receiver records the variable", func(t *testing.T) {
		assert.Equal(t, "other", sites[2].Receiver.Variable)
	})

	t.Run("argument types", func(t *testing.T) {
		arg, ok := sites[3].Arg(0)
		require.True(t, ok)
		assert.Equal(t, []string{"float"}, arg.Type.Types())
		assert.Equal(t, typeset.Certain, arg.Confidence)

		arg, ok = sites[0].Arg(0)
		require.True(t, ok)
		assert.False(t, arg.High(), "untyped parameter argument")

		_, ok = sites[0].Arg(3)
		assert.False(t, ok)
	})
}

func TestCollect_StaticAndNameMatch(t *testing.T) {
	_, col := newCollector(t)

	got := summarize(col.Collect("Util", "clamp_hp"))
	assert.Equal(t, []summary{{"Hero.attack", "Util.clamp_hp(3)", StaticReceiver, typeset.Strict}}, got)

	got = summarize(col.Collect("Util", "missing_fn"))
	assert.Equal(t, []summary{{"Hero.attack", "missing_fn(1)", StaticReceiver, typeset.NameMatch}}, got)
}

func TestCollect_NoSites(t *testing.T) {
	_, col := newCollector(t)
	assert.Empty(t, col.Collect("Actor", "heal"))
}

func TestCollector_InvalidateFile(t *testing.T) {
	p, col := newCollector(t)
	require.Len(t, col.Collect("Util", "clamp_hp"), 1)

	_, err := p.AddSource("res://hero.gd", "class_name Hero\nextends Actor\n\nfunc attack():\n\tUtil.clamp_hp(1)\n\tUtil.clamp_hp(2)\n")
	require.NoError(t, err)
	assert.Len(t, col.Collect("Util", "clamp_hp"), 1, "cached index until invalidated")

	col.InvalidateFile("res://hero.gd")
	assert.Len(t, col.Collect("Util", "clamp_hp"), 2)

	p.Remove("res://hero.gd")
	col.Invalidate()
	assert.Empty(t, col.Collect("Util", "clamp_hp"))
}

func TestIsMethodName(t *testing.T) {
	assert.True(t, isMethodName("hit"))
	assert.False(t, isMethodName("hit("))
	assert.False(t, isMethodName("a.b"))
	assert.False(t, isMethodName(""))
}
