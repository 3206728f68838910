package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playerSource = `class_name Player
extends CharacterBody2D

signal died(reason)

enum State { IDLE, RUN = 4 }

const SPEED = 5 * 2
const NAME := "hero"

@export var health: int = 100
var inventory := []

static func make() -> Player:
	return Player.new()

func move(direction, delta: float = 0.5) -> void:
	var velocity := direction * SPEED
	if direction is Vector2 and not (direction is int):
		velocity.x += 1
	elif health < 10:
		pass
	else:
		return
	for item in inventory:
		item.use(self)
	match health:
		0, 1:
			died.emit("low")
		var other:
			print(other)
	var doubled = inventory.map(func(x): return x * 2)
	var label = "a" if health > 0 else "b"
`

func TestParse_PlayerScript(t *testing.T) {
	f, err := Parse("res://player.gd", playerSource)
	require.NoError(t, err)

	assert.Equal(t, "res://player.gd", f.Path)
	assert.Equal(t, "Player", f.ClassName)
	assert.Equal(t, "CharacterBody2D", f.Extends)

	t.Run("Declarations", func(t *testing.T) {
		require.Len(t, f.Signals, 1)
		assert.Equal(t, "died", f.Signals[0].Name)
		require.Len(t, f.Enums, 1)
		assert.Len(t, f.Enums[0].Values, 2)
		require.Len(t, f.Constants, 2)
		assert.True(t, f.Constants[1].Inferred)
		require.Len(t, f.Vars, 2)
		assert.Equal(t, "int", f.Vars[0].Type)
		require.Len(t, f.Funcs, 2)
		assert.True(t, f.Funcs[0].Static)
		assert.Equal(t, "Player", f.Funcs[0].ReturnType)
	})

	t.Run("Constant expression", func(t *testing.T) {
		bin, ok := f.Const("SPEED").Value.(*BinaryExpr)
		require.True(t, ok)
		assert.Equal(t, STAR, bin.Op)
		assert.Equal(t, int64(5), bin.X.(*Literal).Value)
	})

	t.Run("Function signature", func(t *testing.T) {
		move := f.Func("move")
		require.NotNil(t, move)
		require.Len(t, move.Params, 2)
		assert.Equal(t, "", move.Params[0].Type)
		assert.Equal(t, "float", move.Params[1].Type)
		assert.NotNil(t, move.Params[1].Default)
		assert.Equal(t, "void", move.ReturnType)
		assert.Equal(t, 1, move.Param("delta"))
		assert.Greater(t, move.EndLine, move.Pos.Line)
	})

	t.Run("Function body", func(t *testing.T) {
		move := f.Func("move")
		require.Len(t, move.Body, 6)

		ifStmt, ok := move.Body[1].(*IfStmt)
		require.True(t, ok)
		cond := ifStmt.Cond.(*BinaryExpr)
		assert.Equal(t, AND, cond.Op)
		assert.IsType(t, &IsExpr{}, cond.X)
		neg := cond.Y.(*UnaryExpr)
		assert.Equal(t, NOT, neg.Op)
		assert.Len(t, ifStmt.Elifs, 1)
		assert.Len(t, ifStmt.Else, 1)

		assign := ifStmt.Then[0].(*AssignStmt)
		assert.Equal(t, PLUSEQ, assign.Op)

		forStmt := move.Body[2].(*ForStmt)
		assert.Equal(t, "item", forStmt.Var)

		match := move.Body[3].(*MatchStmt)
		require.Len(t, match.Branches, 2)
		assert.Len(t, match.Branches[0].Patterns, 2)

		lambdaVar := move.Body[4].(*VarDecl)
		call := lambdaVar.Value.(*CallExpr)
		lambda := call.Args[0].(*LambdaExpr)
		require.Len(t, lambda.Body, 1)
		assert.IsType(t, &ReturnStmt{}, lambda.Body[0])

		ternary := move.Body[5].(*VarDecl).Value
		assert.IsType(t, &TernaryExpr{}, ternary)
	})
}

func TestParse_ExtendsPath(t *testing.T) {
	f, err := Parse("res://enemy.gd", "extends \"res://base.gd\"\n\nfunc hit():\n\tpass\n")
	require.NoError(t, err)
	assert.Equal(t, "res://base.gd", f.ExtendsPath)
	assert.Empty(t, f.Extends)
}

func TestParse_InlineBlocks(t *testing.T) {
	f, err := Parse("a.gd", "func sign(x):\n\tif x < 0: return -1\n\telse: return 1\n")
	require.NoError(t, err)
	fn := f.Func("sign")
	require.NotNil(t, fn)
	require.Len(t, fn.Body, 1)
	ifStmt := fn.Body[0].(*IfStmt)
	assert.Len(t, ifStmt.Then, 1)
	assert.Len(t, ifStmt.Else, 1)
	assert.Len(t, Returns(fn.Body), 2)
}

func TestParse_RecoversFromErrors(t *testing.T) {
	src := "func ok():\n\treturn 1\n)))\nfunc also_ok():\n\treturn 2\n"
	f, err := Parse("bad.gd", src)
	require.Error(t, err)
	assert.NotNil(t, f.Func("ok"))
	assert.NotNil(t, f.Func("also_ok"))
}

func TestParseExpr(t *testing.T) {
	t.Run("Precedence", func(t *testing.T) {
		e, err := ParseExpr("1 + 2 * 3")
		require.NoError(t, err)
		assert.Equal(t, "(1 + (2 * 3))", Format(e))
	})

	t.Run("Not binds looser than comparison", func(t *testing.T) {
		e, err := ParseExpr("not a == b")
		require.NoError(t, err)
		u := e.(*UnaryExpr)
		assert.IsType(t, &BinaryExpr{}, u.X)
	})

	t.Run("Member call chain", func(t *testing.T) {
		e, err := ParseExpr("obj.items[0].use(self)")
		require.NoError(t, err)
		call := e.(*CallExpr)
		root, ok := RootIdent(call)
		require.True(t, ok)
		assert.Equal(t, "obj", root.Name)
	})

	t.Run("Not in", func(t *testing.T) {
		e, err := ParseExpr("x not in y")
		require.NoError(t, err)
		assert.Equal(t, "not (x in y)", Format(e))
	})

	t.Run("Malformed input", func(t *testing.T) {
		_, err := ParseExpr("foo(")
		assert.Error(t, err)
		_, err = ParseExpr("a b")
		assert.Error(t, err)
	})
}
