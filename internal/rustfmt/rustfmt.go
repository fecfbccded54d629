// Package rustfmt validates Rust source text and pretty-prints it through the
// rustfmt binary. Validation uses the same tree-sitter front end as extraction.
package rustfmt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mvp-joe/cratescope/internal/extract"
)

const (
	// ExecutionTimeout is the maximum time allowed for one rustfmt run.
	ExecutionTimeout = 30 * time.Second

	stdinPath = "<stdin>"
)

var (
	// ErrNotInstalled indicates the rustfmt binary could not be found.
	ErrNotInstalled = errors.New("rustfmt not installed")

	// ErrTimeout indicates rustfmt did not finish within ExecutionTimeout.
	ErrTimeout = errors.New("rustfmt timed out")
)

// rustfmt reports parse failures as " --> <stdin>:LINE:COL".
var locationPattern = regexp.MustCompile(`-->\s*<stdin>:(\d+):(\d+)`)

// Formatter runs rustfmt over stdin.
type Formatter struct {
	binaryPath string
	edition    string
}

// New creates a Formatter. An empty binaryPath means "rustfmt" on PATH.
func New(binaryPath, edition string) *Formatter {
	if binaryPath == "" {
		binaryPath = "rustfmt"
	}
	return &Formatter{
		binaryPath: binaryPath,
		edition:    edition,
	}
}

// Validate reports whether source is syntactically valid Rust.
// A failure is an *extract.SyntaxError.
func Validate(source []byte) error {
	return extract.Check(stdinPath, source)
}

// Format returns the rustfmt rendering of source.
// Syntax errors reported by rustfmt are returned as *extract.SyntaxError.
func (f *Formatter) Format(ctx context.Context, source []byte) ([]byte, error) {
	path, err := exec.LookPath(f.binaryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotInstalled, f.binaryPath, err)
	}

	args := []string{"--emit", "stdout", "--quiet"}
	if f.edition != "" {
		args = append(args, "--edition", f.edition)
	}

	execCtx, cancel := context.WithTimeout(ctx, ExecutionTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, path, args...)
	cmd.Stdin = bytes.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderr.Len() > 0 {
			return nil, parseDiagnostic(stderr.String())
		}
		return nil, fmt.Errorf("rustfmt failed: %w", err)
	}

	return stdout.Bytes(), nil
}

// ValidateAndFormat validates source first and formats it only when it parses.
func (f *Formatter) ValidateAndFormat(ctx context.Context, source []byte) ([]byte, error) {
	if err := Validate(source); err != nil {
		return nil, err
	}
	return f.Format(ctx, source)
}

// parseDiagnostic turns rustfmt's stderr into a SyntaxError carrying the first
// error message and its location.
func parseDiagnostic(stderr string) *extract.SyntaxError {
	synErr := &extract.SyntaxError{Path: stdinPath, Line: 1, Column: 1}

	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if msg, ok := strings.CutPrefix(line, "error:"); ok && synErr.Message == "" {
			synErr.Message = strings.TrimSpace(msg)
		}
	}
	if synErr.Message == "" {
		synErr.Message = strings.TrimSpace(stderr)
	}

	if m := locationPattern.FindStringSubmatch(stderr); m != nil {
		synErr.Line, _ = strconv.Atoi(m[1])
		synErr.Column, _ = strconv.Atoi(m[2])
	}

	return synErr
}
