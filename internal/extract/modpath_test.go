package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for ModulePath:
// - Nested files join directories and the file stem with ::
// - mod.rs and lib.rs name their directory rather than a child
// - Root-level non-sentinel files become a single segment
// - Redundant separators and ./ prefixes are ignored

func TestModulePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want string
	}{
		{rel: "jws/alg/hmac.rs", want: "jws::alg::hmac"},
		{rel: "jws/mod.rs", want: "jws"},
		{rel: "lib.rs", want: ""},
		{rel: "mod.rs", want: ""},
		{rel: "main.rs", want: "main"},
		{rel: "error.rs", want: "error"},
		{rel: "a/b/lib.rs", want: "a::b"},
		{rel: "./codec//json.rs", want: "codec::json"},
		{rel: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ModulePath(tt.rel))
		})
	}
}

func TestChildModule(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "inner", childModule("", "inner"))
	assert.Equal(t, "jws::inner", childModule("jws", "inner"))
}
