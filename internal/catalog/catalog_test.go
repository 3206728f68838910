package catalog

import (
	"testing"

	"gdinfer/internal/project"
	"gdinfer/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, sources map[string]string) (*project.Project, *Catalog) {
	t.Helper()
	p := project.New("")
	for path, src := range sources {
		_, err := p.AddSource(path, src)
		require.NoError(t, err)
	}
	c, err := ForProject(p)
	require.NoError(t, err)
	return p, c
}

func TestLoadBuiltin(t *testing.T) {
	b, err := LoadBuiltin()
	require.NoError(t, err)

	assert.True(t, b.HasType("Node2D"))
	base, ok := b.Base("Sprite2D")
	require.True(t, ok)
	assert.Equal(t, "Node2D", base)

	m, ok := b.OwnMember("Array", "append")
	require.True(t, ok)
	assert.Equal(t, MemberMethod, m.Kind)

	ci, ok := b.ConstantInitializer("Node", "NOTIFICATION_READY")
	require.True(t, ok)
	assert.Equal(t, int64(13), ci.Expr.(*syntax.Literal).Value)

	ret, ok := b.GlobalFunction("str")
	require.True(t, ok)
	assert.Equal(t, "String", ret)
}

func TestLoadYAML_InvalidConstantFails(t *testing.T) {
	_, err := LoadYAML("bad", []byte("types:\n  Foo:\n    constants:\n      X: \"1 +\"\n"))
	assert.Error(t, err)
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestCatalog_ProjectOverBuiltin(t *testing.T) {
	_, c := newTestCatalog(t, map[string]string{
		"res://actor.gd": "class_name Actor\nextends CharacterBody2D\n\nconst MAX_HP = 10\nvar hp: int = 3\n\nfunc hurt(n) -> int:\n\treturn hp - n\n",
		"res://hero.gd":  "class_name Hero\nextends Actor\n\nfunc hurt(n) -> int:\n\treturn 0\n\nfunc shout():\n\tpass\n",
		"res://slime.gd": "extends \"res://actor.gd\"\n",
		"res://data.gd":  "var rows = []\n",
	})

	t.Run("Ancestors cross providers", func(t *testing.T) {
		assert.Equal(t,
			[]string{"Actor", "CharacterBody2D", "PhysicsBody2D", "CollisionObject2D", "Node2D", "CanvasItem", "Node", "Object"},
			c.Ancestors("Hero"))
	})

	t.Run("Extends by path", func(t *testing.T) {
		base, ok := c.BaseType("res://slime.gd")
		require.True(t, ok)
		assert.Equal(t, "Actor", base)
	})

	t.Run("Implicit RefCounted base", func(t *testing.T) {
		base, _ := c.BaseType("res://data.gd")
		assert.Equal(t, "RefCounted", base)
	})

	t.Run("Inherited members", func(t *testing.T) {
		m, ok := c.GetMember("Hero", "hp")
		require.True(t, ok)
		assert.Equal(t, "Actor", m.Owner)
		assert.Equal(t, "int", m.Type)

		assert.Equal(t, "Hero", c.DeclaringType("Hero", "hurt"))
		assert.Equal(t, "Actor", c.DeclaringType("res://slime.gd", "hurt"))
		assert.Equal(t, "Node", c.DeclaringType("Hero", "queue_free"))
		assert.Equal(t, "Vector2", c.PropertyType("Hero", "velocity"))
		assert.Equal(t, "bool", c.MethodReturnType("Hero", "move_and_slide"))
	})

	t.Run("Assignability", func(t *testing.T) {
		assert.True(t, c.IsAssignableTo("Hero", "Actor"))
		assert.True(t, c.IsAssignableTo("Hero", "Node"))
		assert.False(t, c.IsAssignableTo("Actor", "Hero"))
		assert.True(t, c.IsAssignableTo("int", "float"))
		assert.True(t, c.IsAssignableTo("Nil", "Node"))
		assert.False(t, c.IsAssignableTo("Nil", "int"))
		assert.True(t, c.IsAssignableTo("String", "Variant"))
	})

	t.Run("Types with method", func(t *testing.T) {
		types := c.TypesWithMethod("hurt")
		assert.ElementsMatch(t, []string{"Actor", "Hero", "res://slime.gd"}, types)

		containers := c.TypesWithMethod("append")
		assert.Contains(t, containers, "Array")
		assert.NotContains(t, containers, "Dictionary")
	})

	t.Run("Constant initializer through inheritance", func(t *testing.T) {
		ci, ok := c.ConstantInitializer("Hero", "MAX_HP")
		require.True(t, ok)
		assert.Equal(t, "Actor", ci.Owner)
		assert.Equal(t, "res://actor.gd", ci.File)
	})

	t.Run("Traits", func(t *testing.T) {
		assert.True(t, c.Traits("Array").Iterable)
		assert.False(t, c.Traits("Hero").Iterable)
		assert.Contains(t, c.TypesWithTraits(Traits{Iterable: true, Indexable: true}), "Dictionary")
	})

	t.Run("Project type detection", func(t *testing.T) {
		assert.True(t, c.IsProjectType("Hero"))
		assert.False(t, c.IsProjectType("Node"))
		assert.False(t, c.IsProjectType("Missing"))
	})
}

func TestCatalog_CyclicExtendsTerminates(t *testing.T) {
	_, c := newTestCatalog(t, map[string]string{
		"res://a.gd": "class_name A\nextends B\n",
		"res://b.gd": "class_name B\nextends A\n",
	})
	assert.Equal(t, []string{"B"}, c.Ancestors("A"))
	_, ok := c.GetMember("A", "missing")
	assert.False(t, ok)
}
