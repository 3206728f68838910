package extractor

import (
	"path/filepath"
	"testing"

	"gdinfer/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ExtractFromFile(t *testing.T) {
	testFile := filepath.Join("testdata", "player.gd")

	file, units, err := ExtractFromFile(testFile, "res://player.gd")
	require.NoError(t, err)
	require.NotNil(t, file)

	// Group units by name for easier lookup
	unitsByName := make(map[string]*CodeUnit)
	for _, unit := range units {
		unitsByName[unit.Name] = unit
	}

	t.Run("Overall Count", func(t *testing.T) {
		// class, 2 constants, Facing enum, 4 + 2 enumerators, 2 vars, 1 signal, 3 methods
		assert.Equal(t, 16, len(units))
	})

	t.Run("Class unit", func(t *testing.T) {
		unit := units[0]
		assert.Equal(t, UnitClass, unit.UnitType)
		assert.Equal(t, "Player", unit.Name)
		details := unit.Details.(ClassDetails)
		assert.True(t, details.Named)
		assert.Equal(t, "CharacterBody2D", details.Extends)
		assert.Equal(t, "class_name Player extends CharacterBody2D", unit.Signature)
	})

	t.Run("Every unit belongs to the class", func(t *testing.T) {
		for _, unit := range units {
			assert.Equal(t, "Player", unit.Class)
			assert.Equal(t, "res://player.gd", unit.Filepath)
			assert.NotEmpty(t, unit.ID)
		}
	})

	t.Run("Constants", func(t *testing.T) {
		unit, ok := unitsByName["SPEED"]
		require.True(t, ok)
		assert.Equal(t, UnitConstant, unit.UnitType)
		details := unit.Details.(ConstantDetails)
		assert.Equal(t, "(5 * 2)", details.ValueText)
		assert.IsType(t, &syntax.BinaryExpr{}, details.Value)
	})

	t.Run("Enumerators", func(t *testing.T) {
		values := map[string]int64{"IDLE": 0, "RUN": 1, "JUMP": 10, "FALL": 11, "Facing.RIGHT": 1}
		for name, want := range values {
			unit, ok := unitsByName[name]
			require.True(t, ok, name)
			lit, ok := unit.Details.(ConstantDetails).Value.(*syntax.Literal)
			require.True(t, ok, name)
			assert.Equal(t, want, lit.Value, name)
		}

		// -1 is a unary expression, so the implicit counter stops there.
		left := unitsByName["Facing.LEFT"].Details.(ConstantDetails)
		assert.IsType(t, &syntax.UnaryExpr{}, left.Value)
	})

	t.Run("Variables", func(t *testing.T) {
		unit, ok := unitsByName["health"]
		require.True(t, ok)
		assert.Equal(t, UnitVariable, unit.UnitType)
		assert.Equal(t, "int", unit.Details.(VariableDetails).Type)
		assert.True(t, unitsByName["inventory"].Details.(VariableDetails).Inferred)
	})

	t.Run("Methods", func(t *testing.T) {
		unit, ok := unitsByName["move"]
		require.True(t, ok)
		assert.Equal(t, UnitMethod, unit.UnitType)
		assert.Equal(t, "func move(direction, delta: float = ...) -> void", unit.Signature)
		assert.Equal(t, 18, unit.StartLine)
		assert.Equal(t, 20, unit.EndLine)

		details := unit.Details.(MethodDetails)
		require.Len(t, details.Parameters, 2)
		assert.Equal(t, "", details.Parameters[0].Type)
		assert.True(t, details.Parameters[1].HasDefault)
		assert.NotNil(t, details.Decl)

		factory := unitsByName["make"].Details.(MethodDetails)
		assert.True(t, factory.Static)
		assert.Equal(t, "Player", factory.ReturnType)
	})

	t.Run("Signals", func(t *testing.T) {
		unit, ok := unitsByName["died"]
		require.True(t, ok)
		assert.Equal(t, "signal died(reason: String)", unit.Signature)
	})
}

func TestExtract_UnnamedScriptUsesPath(t *testing.T) {
	file, err := syntax.Parse("res://enemies/slime.gd", "extends \"res://enemies/base.gd\"\n\nfunc hit():\n\tpass\n")
	require.NoError(t, err)

	units := Extract(file)
	require.Len(t, units, 2)
	assert.Equal(t, "res://enemies/slime.gd", ClassKey(file))
	assert.Equal(t, "res://enemies/slime.gd", units[1].Class)
	assert.Equal(t, "res://enemies/base.gd", units[0].Details.(ClassDetails).ExtendsPath)
}

func TestBuildStableSymbolID(t *testing.T) {
	a := &CodeUnit{Filepath: "res://a.gd", Class: "A", UnitType: UnitMethod, Name: "f", Signature: "func f(x)", StartLine: 3}
	moved := *a
	moved.StartLine = 40
	changed := *a
	changed.Signature = "func f(x, y)"

	assert.Equal(t, BuildStableSymbolID(a), BuildStableSymbolID(&moved))
	assert.NotEqual(t, BuildStableSymbolID(a), BuildStableSymbolID(&changed))
	assert.Contains(t, BuildStableSymbolID(a), "gd/A:method:f:")
	assert.Empty(t, BuildStableSymbolID(nil))
}
