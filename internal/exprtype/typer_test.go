package exprtype

import (
	"testing"

	"gdinfer/internal/catalog"
	"gdinfer/internal/project"
	"gdinfer/internal/syntax"
	"gdinfer/internal/typeset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heroSrc = `class_name Hero
extends CharacterBody2D

enum State { IDLE, RUN }
const SPEED = 200.0
var target: Node2D
var label = "hero"

func tick(delta: float, n, name := "x"):
	var dir := Vector2.ZERO
	var steps = 3
	var kind: String
	for i in range(4):
		pass
	return n

func heading():
	return velocity.normalized()

func state() -> int:
	return State.RUN
`

func setup(t *testing.T) (*Typer, *Scope) {
	t.Helper()
	p := project.New("")
	s, err := p.AddSource("res://hero.gd", heroSrc)
	require.NoError(t, err)
	c, err := catalog.ForProject(p)
	require.NoError(t, err)
	return New(c), NewScope("Hero", s.File, s.File.Func("tick"))
}

func typeOf(t *testing.T, typer *Typer, scope *Scope, src string) Result {
	t.Helper()
	e, err := syntax.ParseExpr(src)
	require.NoError(t, err)
	return typer.TypeOf(scope, e)
}

func TestTypeOf(t *testing.T) {
	typer, scope := setup(t)

	tests := []struct {
		expr string
		want string
		conf typeset.TypeConfidence
	}{
		{`42`, "int", typeset.Certain},
		{`4.5`, "float", typeset.Certain},
		{`"a"`, "String", typeset.Certain},
		{`&"a"`, "StringName", typeset.Certain},
		{`^"a/b"`, "NodePath", typeset.Certain},
		{`null`, "Nil", typeset.Certain},
		{`[1, 2]`, "Array", typeset.Certain},
		{`{}`, "Dictionary", typeset.Certain},
		{`self`, "Hero", typeset.Certain},
		{`$Sprite`, "Node", typeset.Low},
		{`delta`, "float", typeset.Certain},
		{`name`, "String", typeset.Certain},
		{`dir`, "Vector2", typeset.Certain},
		{`steps`, "int", typeset.Certain},
		{`kind`, "String", typeset.Certain},
		{`i`, "int", typeset.Certain},
		{`target`, "Node2D", typeset.Certain},
		{`label`, "String", typeset.Certain},
		{`SPEED`, "float", typeset.Certain},
		{`State.IDLE`, "int", typeset.Certain},
		{`Hero.State.RUN`, "int", typeset.Certain},
		{`Hero.new()`, "Hero", typeset.Certain},
		{`Vector2(1, 2)`, "Vector2", typeset.Certain},
		{`str(steps)`, "String", typeset.Certain},
		{`state()`, "int", typeset.Certain},
		{`target.position`, "Vector2", typeset.Certain},
		{`target.position.length()`, "float", typeset.Certain},
		{`velocity`, "Vector2", typeset.Certain},
		{`steps + 1`, "int", typeset.Certain},
		{`steps * delta`, "float", typeset.Certain},
		{`dir * 2`, "Vector2", typeset.Certain},
		{`"a" + "b"`, "String", typeset.Certain},
		{`"%d" % steps`, "String", typeset.Certain},
		{`steps < 2`, "bool", typeset.Certain},
		{`target is Sprite2D`, "bool", typeset.Certain},
		{`not target`, "bool", typeset.Certain},
		{`target as Sprite2D`, "Sprite2D", typeset.Certain},
		{`label[0]`, "String", typeset.Certain},
		{`-steps`, "int", typeset.Certain},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			r := typeOf(t, typer, scope, tt.expr)
			got, ok := r.Types.Single()
			require.True(t, ok, "got %q", r.Types.String())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.conf, r.Confidence)
		})
	}
}

func TestTypeOf_Unknowns(t *testing.T) {
	typer, scope := setup(t)

	for _, src := range []string{`n`, `missing`, `n.foo`, `target.nothing()`, `n + 1`} {
		r := typeOf(t, typer, scope, src)
		assert.False(t, r.Known(), src)
		assert.Equal(t, typeset.Unknown, r.Confidence, src)
	}
}

func TestTypeOf_Ternary(t *testing.T) {
	typer, scope := setup(t)

	r := typeOf(t, typer, scope, `1 if n else "one"`)
	assert.Equal(t, []string{"int", "String"}, r.Types.Types())
	assert.Equal(t, typeset.Certain, r.Confidence)
}

func TestTypeOf_Hooks(t *testing.T) {
	typer, scope := setup(t)

	var asked []string
	typer.ParamHook = func(class, method string, index int) Result {
		asked = append(asked, class+"."+method)
		assert.Equal(t, 1, index)
		return of("int", typeset.High)
	}
	typer.ReturnHook = func(class, method string) Result {
		assert.Equal(t, "Hero", class)
		assert.Equal(t, "heading", method)
		return of("Vector2", typeset.Medium)
	}

	r := typeOf(t, typer, scope, `n`)
	got, _ := r.Types.Single()
	assert.Equal(t, "int", got)
	assert.Equal(t, typeset.High, r.Confidence)
	assert.Equal(t, []string{"Hero.tick"}, asked)

	r = typeOf(t, typer, scope, `heading().length()`)
	got, _ = r.Types.Single()
	assert.Equal(t, "float", got)
	assert.Equal(t, typeset.Medium, r.Confidence)
}

func TestArithmeticResult(t *testing.T) {
	assert.Equal(t, "int", ArithmeticResult(syntax.POW, "int", "int"))
	assert.Equal(t, "float", ArithmeticResult(syntax.SLASH, "float", "int"))
	assert.Equal(t, "Vector2", ArithmeticResult(syntax.STAR, "float", "Vector2"))
	assert.Equal(t, "int", ArithmeticResult(syntax.SHL, "int", "int"))
	assert.Equal(t, "", ArithmeticResult(syntax.MINUS, "String", "String"))
}

func TestTypeOf_ConstantCycles(t *testing.T) {
	p := project.New("")
	a, err := p.AddSource("res://a.gd", "class_name A\nconst X = B.Y\nconst SELF = A.SELF\nconst K = B.N + 1\n\nfunc get_x():\n\treturn A.X\n")
	require.NoError(t, err)
	_, err = p.AddSource("res://b.gd", "class_name B\nconst Y = A.X\nconst N = 3\n")
	require.NoError(t, err)
	c, err := catalog.ForProject(p)
	require.NoError(t, err)
	typer := New(c)
	scope := NewScope("A", a.File, a.File.Func("get_x"))

	for _, src := range []string{`A.X`, `X`, `B.Y`, `SELF`, `A.SELF`} {
		r := typeOf(t, typer, scope, src)
		assert.False(t, r.Known(), src)
	}

	r := typeOf(t, typer, scope, `K`)
	got, ok := r.Types.Single()
	require.True(t, ok)
	assert.Equal(t, "int", got)
}
