package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cratescope/internal/model"
)

// Test Plan for ClassifyType:
// - Shared references strip to the referent and expect a borrow
// - Mutable references set both reference flags and keep generic arguments
// - impl Trait bounds record the bound and the owned/borrow heuristics
// - Multiple bounds are joined with "+"
// - Named paths keep the last segment plus generic arguments
// - Unrecognized shapes fall back to core_type == full_text with all flags false
// - Whitespace is normalized in every rendering

// classifyParam extracts `pub fn f(x: <typ>)` and returns the descriptor of x.
func classifyParam(t *testing.T, typ string) model.TypeDescriptor {
	t.Helper()

	items, err := New().ExtractSource("typeinfo.rs", []byte("pub fn f(x: "+typ+") {}"), "")
	require.NoError(t, err)
	require.Len(t, items.Functions, 1)
	require.Len(t, items.Functions[0].Params, 1)

	param := items.Functions[0].Params[0]
	require.NotNil(t, param.TypeInfo)
	assert.Equal(t, param.Type, param.TypeInfo.FullText)
	return *param.TypeInfo
}

func TestClassifyType_SharedReference(t *testing.T) {
	t.Parallel()

	info := classifyParam(t, "&str")

	assert.Equal(t, "&str", info.FullText)
	assert.True(t, info.IsReference)
	assert.False(t, info.IsMutableReference)
	assert.False(t, info.IsImplTraitBound)
	assert.False(t, info.HasTraitBound())
	assert.Equal(t, "str", info.CoreType)
	assert.True(t, info.ExpectsBorrow)
	assert.False(t, info.ExpectsOwned)
}

func TestClassifyType_MutableReference(t *testing.T) {
	t.Parallel()

	info := classifyParam(t, "&mut Vec<u8>")

	assert.Equal(t, "&mut Vec<u8>", info.FullText)
	assert.True(t, info.IsReference)
	assert.True(t, info.IsMutableReference)
	assert.Equal(t, "Vec<u8>", info.CoreType)
	assert.True(t, info.ExpectsBorrow)
}

func TestClassifyType_LifetimeReference(t *testing.T) {
	t.Parallel()

	info := classifyParam(t, "&'a   str")

	assert.Equal(t, "&'a str", info.FullText)
	assert.True(t, info.IsReference)
	assert.False(t, info.IsMutableReference)
	assert.Equal(t, "str", info.CoreType)
}

func TestClassifyType_ImplTrait(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		typ        string
		bound      string
		wantBorrow bool
		wantOwned  bool
	}{
		{name: "into", typ: "impl Into<String>", bound: "Into<String>", wantOwned: true},
		{name: "try_into", typ: "impl TryInto<u64>", bound: "TryInto<u64>", wantOwned: true},
		{name: "as_ref", typ: "impl AsRef<str>", bound: "AsRef<str>", wantBorrow: true},
		{name: "borrow", typ: "impl Borrow<[u8]>", bound: "Borrow<[u8]>", wantBorrow: true},
		{name: "neither", typ: "impl Fn(u8) -> bool", bound: "Fn(u8)->bool"},
		{name: "multiple bounds", typ: "impl AsRef<str> + Send", bound: "AsRef<str>+Send", wantBorrow: true},
		{name: "byte slice bounds", typ: "impl AsRef<[u8]> + Send", bound: "AsRef<[u8]>+Send", wantBorrow: true},
		{name: "lifetime bound", typ: "impl Into<String> + 'a", bound: "Into<String>+'a", wantOwned: true},
		{name: "static bound", typ: "impl Into<String> + 'static", bound: "Into<String>+'static", wantOwned: true},
		{name: "three bounds", typ: "impl Borrow<str> + Send + Sync", bound: "Borrow<str>+Send+Sync", wantBorrow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := classifyParam(t, tt.typ)

			assert.True(t, info.IsImplTraitBound)
			assert.True(t, info.HasTraitBound())
			assert.False(t, info.IsReference)
			assert.Equal(t, tt.bound, info.TraitBound)
			assert.Equal(t, tt.bound, info.CoreType)
			assert.Equal(t, tt.wantBorrow, info.ExpectsBorrow)
			assert.Equal(t, tt.wantOwned, info.ExpectsOwned)
		})
	}
}

func TestClassifyType_NamedPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ      string
		fullText string
		core     string
	}{
		{typ: "u32", fullText: "u32", core: "u32"},
		{typ: "String", fullText: "String", core: "String"},
		{typ: "Vec<T>", fullText: "Vec<T>", core: "Vec<T>"},
		{typ: "std::path::PathBuf", fullText: "std::path::PathBuf", core: "PathBuf"},
		{
			typ:      "std::collections::HashMap<String, i32>",
			fullText: "std::collections::HashMap<String,i32>",
			core:     "HashMap<String,i32>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			t.Parallel()

			info := classifyParam(t, tt.typ)

			assert.Equal(t, tt.fullText, info.FullText)
			assert.Equal(t, tt.core, info.CoreType)
			assert.False(t, info.IsReference)
			assert.False(t, info.IsImplTraitBound)
			assert.False(t, info.ExpectsBorrow)
			assert.False(t, info.ExpectsOwned)
		})
	}
}

func TestClassifyType_FallbackShapes(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"(i32, String)", "[u8; 4]", "dyn Fn() -> u8"} {
		info := classifyParam(t, typ)

		assert.Equal(t, info.FullText, info.CoreType, typ)
		assert.False(t, info.IsReference, typ)
		assert.False(t, info.IsMutableReference, typ)
		assert.False(t, info.IsImplTraitBound, typ)
		assert.False(t, info.ExpectsBorrow, typ)
		assert.False(t, info.ExpectsOwned, typ)
	}
}

func TestClassifyType_NilNode(t *testing.T) {
	t.Parallel()

	info := ClassifyType(nil, nil)
	assert.Equal(t, model.TypeDescriptor{}, info)
}

func TestNormalizeTypeText(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"&mut  Vec< u8 >":        "&mut Vec<u8>",
		"HashMap<K, V>":          "HashMap<K,V>",
		"impl Into<String>":      "impl Into<String>",
		"&'static str":           "&'static str",
		"dyn Fn(u8)\n    -> u8": "dyn Fn(u8)->u8",
		"  padded  ":             "padded",
		"":                       "",
	}

	for in, want := range tests {
		assert.Equal(t, want, normalizeTypeText(in), "input %q", in)
	}
}
