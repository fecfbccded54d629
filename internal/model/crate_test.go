package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the crate model:
// - NewCrate serializes every collection as a list, never null
// - Extend appends records after existing ones, kind by kind
// - Counts covers every kind and Total sums them
// - ModulePaths lists module-attributed records and skips re-exports

func TestNewCrate_EmptyListsSerialize(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewCrate("empty"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "empty", raw["name"])
	for _, key := range []string{"functions", "structs", "reexports", "macros", "available_features"} {
		assert.Equal(t, []any{}, raw[key], key)
	}
}

func TestItems_Extend(t *testing.T) {
	t.Parallel()

	a := NewItems()
	a.Functions = append(a.Functions, Function{Name: "first"})

	b := NewItems()
	b.Functions = append(b.Functions, Function{Name: "second"})
	b.Reexports = append(b.Reexports, Reexport{SourceCrate: "serde", IsGlob: true})

	a.Extend(b)
	require.Len(t, a.Functions, 2)
	assert.Equal(t, "first", a.Functions[0].Name)
	assert.Equal(t, "second", a.Functions[1].Name)
	assert.Len(t, a.Reexports, 1)
}

func TestItems_CountsAndTotal(t *testing.T) {
	t.Parallel()

	it := NewItems()
	it.Structs = append(it.Structs, Struct{Name: "A"}, Struct{Name: "B"})
	it.Macros = append(it.Macros, Macro{Name: "m"})

	counts := it.Counts()
	assert.Len(t, counts, len(AllKinds))
	assert.Equal(t, 2, counts[KindStruct])
	assert.Equal(t, 1, counts[KindMacro])
	assert.Equal(t, 0, counts[KindFunction])
	assert.Equal(t, 3, it.Total())
}

func TestItems_ModulePaths(t *testing.T) {
	t.Parallel()

	it := NewItems()
	it.Functions = append(it.Functions, Function{Name: "f", ModulePath: "jws"})
	it.Constants = append(it.Constants, Constant{Name: "K", ModulePath: ""})
	it.Reexports = append(it.Reexports, Reexport{SourceCrate: "serde", IsGlob: true})

	assert.Equal(t, []string{"jws", ""}, it.ModulePaths())
}
