package modgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cratescope/internal/model"
)

// Test Plan for modgraph:
// - Every module path plus all ancestors becomes a vertex
// - Modules() lists parents before children, siblings by path
// - Counts are per kind and per module, ancestors without records count zero
// - Children() lists direct children only
// - An empty crate still has the root module

func sampleCrate() *model.Crate {
	c := model.NewCrate("jwt")
	c.Functions = append(c.Functions,
		model.Function{Name: "sign", ModulePath: "jws::alg::hmac"},
		model.Function{Name: "decode", ModulePath: ""},
		model.Function{Name: "verify", ModulePath: "jws::alg::hmac"},
	)
	c.Structs = append(c.Structs, model.Struct{Name: "Header", ModulePath: "jws"})
	c.Constants = append(c.Constants, model.Constant{Name: "LIMIT", ModulePath: "codec"})
	c.Reexports = append(c.Reexports, model.Reexport{SourceCrate: "serde", IsGlob: true})
	return c
}

func TestBuild_Modules(t *testing.T) {
	t.Parallel()

	g, err := Build(sampleCrate())
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())

	modules, err := g.Modules()
	require.NoError(t, err)

	paths := []string{}
	for _, m := range modules {
		paths = append(paths, m.Path)
	}
	assert.Equal(t, []string{"", "codec", "jws", "jws::alg", "jws::alg::hmac"}, paths)

	byPath := map[string]*Module{}
	for _, m := range modules {
		byPath[m.Path] = m
	}

	hmac := byPath["jws::alg::hmac"]
	assert.Equal(t, "jws::alg", hmac.Parent)
	assert.Equal(t, 3, hmac.Depth)
	assert.Equal(t, 2, hmac.Counts[model.KindFunction])
	assert.Equal(t, 2, hmac.Total())

	alg := byPath["jws::alg"]
	assert.Equal(t, "jws", alg.Parent)
	assert.Equal(t, 0, alg.Total())

	root := byPath[""]
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 1, root.Counts[model.KindFunction])
	assert.Equal(t, 1, root.Total())
	assert.Equal(t, 1, byPath["jws"].Counts[model.KindStruct])
}

func TestBuild_ParentsBeforeChildren(t *testing.T) {
	t.Parallel()

	c := model.NewCrate("deep")
	for _, p := range []string{"z::y::x", "a::b", "m", "a::c::d::e"} {
		c.Macros = append(c.Macros, model.Macro{Name: "m", ModulePath: p})
	}

	g, err := Build(c)
	require.NoError(t, err)
	modules, err := g.Modules()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, m := range modules {
		if m.Path != RootPath {
			assert.True(t, seen[m.Parent], "parent of %q listed after it", m.Path)
		}
		seen[m.Path] = true
	}
	assert.Len(t, modules, 10)
}

func TestGraph_Children(t *testing.T) {
	t.Parallel()

	g, err := Build(sampleCrate())
	require.NoError(t, err)

	children, err := g.Children("")
	require.NoError(t, err)
	assert.Equal(t, []string{"codec", "jws"}, children)

	children, err = g.Children("jws::alg::hmac")
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = g.Children("missing")
	assert.Error(t, err)
}

func TestBuild_EmptyCrate(t *testing.T) {
	t.Parallel()

	g, err := Build(model.NewCrate("empty"))
	require.NoError(t, err)

	modules, err := g.Modules()
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, RootPath, modules[0].Path)
}

func TestParentAndDepth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", parentOf("jws"))
	assert.Equal(t, "jws::alg", parentOf("jws::alg::hmac"))
	assert.Equal(t, 0, depthOf(""))
	assert.Equal(t, 1, depthOf("jws"))
	assert.Equal(t, 3, depthOf("jws::alg::hmac"))
}
