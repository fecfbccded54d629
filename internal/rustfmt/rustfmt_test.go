package rustfmt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cratescope/internal/extract"
)

// Test Plan for rustfmt:
// - Validate accepts well-formed source and rejects broken source with a SyntaxError on <stdin>
// - parseDiagnostic extracts the first error message and its stdin location
// - parseDiagnostic falls back to line 1, column 1 and the raw text
// - Format reports ErrNotInstalled for a missing binary
// - ValidateAndFormat fails on syntax before looking for the binary

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate([]byte("pub fn add(a: i32, b: i32) -> i32 { a + b }\n")))

	err := Validate([]byte("pub fn broken( {\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrSyntax)

	var synErr *extract.SyntaxError
	require.True(t, errors.As(err, &synErr))
	assert.Equal(t, stdinPath, synErr.Path)
}

func TestParseDiagnostic(t *testing.T) {
	t.Parallel()

	stderr := "error: expected one of `,` or `)`, found `{`\n --> <stdin>:3:15\n  |\n3 | pub fn broken( {\n  |               ^\n\nerror: aborting\n"

	synErr := parseDiagnostic(stderr)
	assert.Equal(t, stdinPath, synErr.Path)
	assert.Equal(t, 3, synErr.Line)
	assert.Equal(t, 15, synErr.Column)
	assert.Equal(t, "expected one of `,` or `)`, found `{`", synErr.Message)
}

func TestParseDiagnostic_NoLocation(t *testing.T) {
	t.Parallel()

	synErr := parseDiagnostic("something unexpected\n")
	assert.Equal(t, 1, synErr.Column)
	assert.Equal(t, "something unexpected", synErr.Message)
}

func TestFormat_NotInstalled(t *testing.T) {
	t.Parallel()

	f := New(filepath.Join(t.TempDir(), "missing-rustfmt"), "2021")
	_, err := f.Format(context.Background(), []byte("fn main() {}\n"))
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestValidateAndFormat_SyntaxFirst(t *testing.T) {
	t.Parallel()

	f := New(filepath.Join(t.TempDir(), "missing-rustfmt"), "2021")
	_, err := f.ValidateAndFormat(context.Background(), []byte("struct {\n"))
	assert.ErrorIs(t, err, extract.ErrSyntax)
	assert.NotErrorIs(t, err, ErrNotInstalled)
}

func TestNew_DefaultBinary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rustfmt", New("", "").binaryPath)
}
