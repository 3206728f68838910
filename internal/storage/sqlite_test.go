package storage

import (
	"context"
	"path/filepath"
	"testing"

	"gdinfer/internal/graph"
	"gdinfer/internal/inference"
	"gdinfer/internal/typeset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mkey(typ, method string) graph.MethodKey {
	return graph.MethodKey{Type: typ, Method: method}
}

func testReport(typ, method, file string, order int) *inference.MethodReport {
	return &inference.MethodReport{
		Key:        mkey(typ, method),
		File:       file,
		Line:       3,
		OrderIndex: order,
		Confidence: typeset.Potential,
		Parameters: []*inference.ParameterReport{
			{
				Name:           "x",
				Index:          0,
				Inferred:       typeset.New("int", "String"),
				Confidence:     typeset.Strict,
				TypeConfidence: typeset.High,
				Reason:         inference.ReasonCallSites,
			},
			{
				Name:           "y",
				Index:          1,
				ExplicitType:   "float",
				Inferred:       typeset.New("float"),
				Confidence:     typeset.Strict,
				TypeConfidence: typeset.Certain,
				Reason:         inference.ReasonAnnotation,
			},
		},
		Return: &inference.ReturnReport{
			Inferred:       typeset.New("int"),
			Confidence:     typeset.Potential,
			TypeConfidence: typeset.Medium,
			Reason:         inference.ReasonReturns,
		},
		Dependencies: []graph.MethodKey{mkey("Util", "helper")},
		Dependents:   []graph.MethodKey{mkey(typ, "caller")},
	}
}

func TestSQLiteStore_Files(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFile(ctx, "res://a.gd", "h1"))
	require.NoError(t, store.UpsertFile(ctx, "res://b.gd", "h2"))
	require.NoError(t, store.UpsertFile(ctx, "res://a.gd", "h3"))

	hashes, err := store.FileHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"res://a.gd": "h3", "res://b.gd": "h2"}, hashes)
}

func TestSQLiteStore_SaveAndGetMethod(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReports(ctx, []*inference.MethodReport{testReport("MathUtil", "f", "res://math.gd", 2)}))

	rec, err := store.GetMethod(ctx, mkey("MathUtil", "f"))
	require.NoError(t, err)
	assert.Equal(t, "res://math.gd", rec.File)
	assert.Equal(t, 3, rec.Line)
	assert.Equal(t, 2, rec.OrderIndex)
	assert.False(t, rec.InCycle)
	assert.Equal(t, typeset.Potential, rec.Confidence)
	assert.Equal(t, []string{"Util.helper"}, rec.Dependencies)
	assert.Equal(t, []string{"MathUtil.caller"}, rec.Dependents)

	require.Len(t, rec.Params, 2)
	assert.Equal(t, "x", rec.Params[0].Name)
	assert.Equal(t, "int|String", rec.Params[0].Type)
	assert.Equal(t, typeset.Strict, rec.Params[0].Confidence)
	assert.Equal(t, typeset.High, rec.Params[0].TypeConfidence)
	assert.Equal(t, "float", rec.Params[1].ExplicitType)
	assert.Equal(t, typeset.Certain, rec.Params[1].TypeConfidence)

	assert.Equal(t, "int", rec.Return.Type)
	assert.Equal(t, typeset.Potential, rec.Return.Confidence)
	assert.Equal(t, typeset.Medium, rec.Return.TypeConfidence)
	assert.Equal(t, inference.ReasonReturns, rec.Return.Reason)

	_, err = store.GetMethod(ctx, mkey("MathUtil", "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveReplacesParameters(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	r := testReport("A", "f", "res://a.gd", 0)
	require.NoError(t, store.SaveReports(ctx, []*inference.MethodReport{r}))

	r.Parameters = r.Parameters[:1]
	r.Parameters[0].Inferred = typeset.New("bool")
	r.HasCyclicDependency = true
	require.NoError(t, store.SaveReports(ctx, []*inference.MethodReport{r}))

	rec, err := store.GetMethod(ctx, mkey("A", "f"))
	require.NoError(t, err)
	require.Len(t, rec.Params, 1)
	assert.Equal(t, "bool", rec.Params[0].Type)
	assert.True(t, rec.InCycle)
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFile(ctx, "res://a.gd", "h1"))
	require.NoError(t, store.UpsertFile(ctx, "res://b.gd", "h2"))
	require.NoError(t, store.SaveReports(ctx, []*inference.MethodReport{
		testReport("A", "g", "res://a.gd", 1),
		testReport("A", "f", "res://a.gd", 0),
		testReport("B", "h", "res://b.gd", 2),
	}))

	all, err := store.ListMethods(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, mkey("A", "f"), all[0].Key)
	assert.Equal(t, mkey("A", "g"), all[1].Key)
	assert.Equal(t, mkey("B", "h"), all[2].Key)
	assert.Len(t, all[2].Params, 2)

	inA, err := store.ListMethods(ctx, "res://a.gd")
	require.NoError(t, err)
	assert.Len(t, inA, 2)

	require.NoError(t, store.DeleteMethods(ctx, []graph.MethodKey{mkey("A", "g")}))
	_, err = store.GetMethod(ctx, mkey("A", "g"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteFile(ctx, "res://a.gd"))
	all, err = store.ListMethods(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, mkey("B", "h"), all[0].Key)

	hashes, err := store.FileHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"res://b.gd": "h2"}, hashes)
}

func TestSQLiteStore_UpdateOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReports(ctx, []*inference.MethodReport{
		testReport("A", "f", "res://a.gd", 0),
		testReport("A", "g", "res://a.gd", 1),
	}))
	require.NoError(t, store.UpdateOrder(ctx, []graph.OrderEntry{
		{Key: mkey("A", "g")},
		{Key: mkey("Gone", "x")},
		{Key: mkey("A", "f"), InCycle: true},
	}))

	all, err := store.ListMethods(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, mkey("A", "g"), all[0].Key)
	assert.Equal(t, 0, all[0].OrderIndex)
	assert.Equal(t, mkey("A", "f"), all[1].Key)
	assert.Equal(t, 2, all[1].OrderIndex)
	assert.True(t, all[1].InCycle)
}

func TestSQLiteStore_Cycles(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := [][]graph.MethodKey{
		{mkey("Ping", "ping"), mkey("Ping", "pong")},
		{mkey("Self", "loop")},
	}
	require.NoError(t, store.SaveCycles(ctx, first))
	loaded, err := store.LoadCycles(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)

	require.NoError(t, store.SaveCycles(ctx, nil))
	loaded, err = store.LoadCycles(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
