package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_PutReplaceRemove(t *testing.T) {
	p := New("/game")

	s, err := p.AddSource("res://player.gd", "class_name Player\n\nfunc jump(h):\n\treturn h\n")
	require.NoError(t, err)
	assert.Equal(t, "Player", s.Class)
	require.Len(t, s.Methods(), 1)

	got, ok := p.ByClass("Player")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, fn, ok := p.Func("Player", "jump")
	require.True(t, ok)
	assert.Equal(t, "jump", fn.Name)

	t.Run("Replacing a file re-indexes its class", func(t *testing.T) {
		_, err := p.AddSource("res://player.gd", "class_name Hero\n\nfunc run():\n\tpass\n")
		require.NoError(t, err)

		_, ok := p.ByClass("Player")
		assert.False(t, ok)
		_, ok = p.ByClass("Hero")
		assert.True(t, ok)
		assert.Equal(t, 1, p.Len())
	})

	t.Run("Unnamed scripts are keyed by path", func(t *testing.T) {
		_, err := p.AddSource("res://util/math.gd", "func twice(x):\n\treturn x * 2\n")
		require.NoError(t, err)
		got, ok := p.ByClass("res://util/math.gd")
		require.True(t, ok)
		assert.Equal(t, "res://util/math.gd", got.Class)
	})

	t.Run("Remove", func(t *testing.T) {
		assert.True(t, p.Remove("res://player.gd"))
		assert.False(t, p.Remove("res://player.gd"))
		_, ok := p.ByClass("Hero")
		assert.False(t, ok)
		require.Len(t, p.Scripts(), 1)
	})
}

func TestProject_AddSourceKeepsRecoveredScript(t *testing.T) {
	p := New("")
	s, err := p.AddSource("res://broken.gd", "func ok():\n\treturn 1\n)))\n")
	require.Error(t, err)
	require.NotNil(t, s)
	assert.NotNil(t, s.File.Func("ok"))
	assert.Equal(t, 1, p.Len())
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "res://actors/player.gd", ResPath("actors/player.gd"))
	assert.Equal(t, "res://player.gd", ResPath("./player.gd"))
	assert.Equal(t, "actors/player.gd", RelPath("res://actors/player.gd"))

	a := Fingerprint([]byte("extends Node"))
	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint([]byte("extends Node")))
	assert.NotEqual(t, a, Fingerprint([]byte("extends Node2D")))
}
