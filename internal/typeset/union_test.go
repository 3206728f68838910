package typeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHierarchy map[string]string

func (h fakeHierarchy) Ancestors(typ string) []string {
	var out []string
	seen := map[string]bool{typ: true}
	for {
		base, ok := h[typ]
		if !ok || seen[base] {
			return out
		}
		seen[base] = true
		out = append(out, base)
		typ = base
	}
}

func TestUnion_AddKeepsInsertionOrderAndDeduplicates(t *testing.T) {
	u := New("int", "String", "int")
	assert.Equal(t, []string{"int", "String"}, u.Types())
	assert.Equal(t, "int|String", u.String())
	assert.True(t, u.Contains("String"))
	assert.False(t, u.Contains("float"))
}

func TestUnion_LowConfidenceTaintIsPermanent(t *testing.T) {
	u := &Union{}
	u.Add("int", true)
	u.Add("float", true)
	require.True(t, u.AllHighConfidence())

	u.Add("String", false)
	assert.False(t, u.AllHighConfidence())

	for i := 0; i < 5; i++ {
		u.Add("bool", true)
	}
	assert.False(t, u.AllHighConfidence())
	assert.Equal(t, 4, u.Len())
}

func TestUnion_UnknownObservationTaints(t *testing.T) {
	u := New("int")
	u.AddUnknown()
	assert.False(t, u.AllHighConfidence())
	assert.Equal(t, []string{"int"}, u.Types())

	v := New("int")
	v.Add("", true)
	assert.False(t, v.AllHighConfidence())
	assert.Equal(t, 1, v.Len())
}

func TestUnion_EmptyMeansNoEvidence(t *testing.T) {
	var u Union
	assert.True(t, u.IsEmpty())
	assert.False(t, u.AllHighConfidence())
	assert.Equal(t, "", u.String())
	_, ok := u.Single()
	assert.False(t, ok)

	var nilUnion *Union
	assert.True(t, nilUnion.IsEmpty())
	assert.Nil(t, nilUnion.Types())
}

func TestUnion_AddUnionPropagatesTaint(t *testing.T) {
	weak := &Union{}
	weak.Add("Node", false)

	u := New("int")
	u.AddUnion(weak, true)
	assert.False(t, u.AllHighConfidence())
	assert.Equal(t, []string{"int", "Node"}, u.Types())

	strong := New("float")
	v := New("int")
	v.AddUnion(strong, true)
	assert.True(t, v.AllHighConfidence())
}

func TestUnion_ResolveCommonBase(t *testing.T) {
	h := fakeHierarchy{
		"Sprite2D":   "Node2D",
		"Label":      "Control",
		"Control":    "CanvasItem",
		"Node2D":     "CanvasItem",
		"CanvasItem": "Node",
		"Node":       "Object",
		"Resource":   "RefCounted",
		"RefCounted": "Object",
	}

	t.Run("Shared ancestor", func(t *testing.T) {
		u := New("Sprite2D", "Label")
		assert.Equal(t, "CanvasItem", u.ResolveCommonBase(h))
		assert.Equal(t, "CanvasItem", u.CommonBase)
	})

	t.Run("Member is ancestor of the other", func(t *testing.T) {
		u := New("Node2D", "Sprite2D")
		assert.Equal(t, "Node2D", u.ResolveCommonBase(h))
	})

	t.Run("Only universal roots shared", func(t *testing.T) {
		u := New("Node", "Resource")
		assert.Equal(t, "", u.ResolveCommonBase(h))
	})

	t.Run("Cyclic hierarchy terminates", func(t *testing.T) {
		cyclic := fakeHierarchy{"A": "B", "B": "A"}
		u := New("A", "B")
		assert.Equal(t, "A", u.ResolveCommonBase(cyclic))
	})
}

func TestConfidence_MinTakesWeaker(t *testing.T) {
	assert.Equal(t, Low, MinType(High, Low))
	assert.Equal(t, Unknown, MinType(Unknown, Certain))
	assert.Equal(t, NameMatch, MinReference(Strict, NameMatch))
	assert.Equal(t, Potential, MinReference(Potential, Strict))

	assert.True(t, Unknown < Low && Low < Medium && Medium < High && High < Certain)
	assert.True(t, NameMatch < Potential && Potential < Strict)
}

func TestConfidence_StringRoundTrip(t *testing.T) {
	for c := Unknown; c <= Certain; c++ {
		assert.Equal(t, c, ParseTypeConfidence(c.String()))
	}
	for _, c := range []ReferenceConfidence{NameMatch, Potential, Strict} {
		assert.Equal(t, c, ParseReferenceConfidence(c.String()))
	}
	assert.Equal(t, High, Strict.TypeConfidence())
	assert.Equal(t, Medium, Potential.TypeConfidence())
}
