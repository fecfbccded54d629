package extract

import (
	"errors"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	// ErrRead indicates a source file could not be read.
	ErrRead = errors.New("read failed")

	// ErrSyntax indicates source text does not conform to the Rust grammar.
	ErrSyntax = errors.New("invalid rust syntax")
)

// SyntaxError reports the first syntax error found in a file.
// Line and Column are 1-indexed.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	return fmt.Sprintf("%s: %s: %s", loc, ErrSyntax.Error(), e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

const maxSnippet = 40

// newSyntaxError locates the first ERROR or MISSING node under root.
func newSyntaxError(path string, source []byte, root *sitter.Node) *SyntaxError {
	var bad *sitter.Node
	walkTree(root, func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return n.HasError()
	})

	if bad == nil {
		return &SyntaxError{Path: path, Line: 1, Column: 1, Message: "unparseable input"}
	}

	pos := bad.StartPosition()
	msg := "unexpected input"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %q", bad.Kind())
	} else if snippet := strings.TrimSpace(nodeText(bad, source)); snippet != "" {
		if len(snippet) > maxSnippet {
			snippet = snippet[:maxSnippet] + "..."
		}
		msg = fmt.Sprintf("unexpected %q", snippet)
	}

	return &SyntaxError{
		Path:    path,
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Message: msg,
	}
}
