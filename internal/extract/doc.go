package extract

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// leadingTrivia returns the attribute and comment nodes directly preceding an item,
// in source order. Tree-sitter attaches these as siblings rather than children.
func leadingTrivia(node *sitter.Node) []*sitter.Node {
	var trivia []*sitter.Node
	for s := node.PrevSibling(); s != nil; s = s.PrevSibling() {
		kind := s.Kind()
		if kind != "attribute_item" && kind != "line_comment" && kind != "block_comment" {
			break
		}
		trivia = append(trivia, s)
	}

	for i, j := 0, len(trivia)-1; i < j; i, j = i+1, j-1 {
		trivia[i], trivia[j] = trivia[j], trivia[i]
	}
	return trivia
}

// docComment joins an item's outer doc comments (`///`, `/** */`, `#[doc = "..."]`),
// each trimmed, with newlines. Returns "" when the item has no documentation.
func docComment(node *sitter.Node, source []byte) string {
	var docs []string
	for _, t := range leadingTrivia(node) {
		if doc, ok := docLine(t, source); ok {
			docs = append(docs, strings.TrimSpace(doc))
		}
	}
	return strings.Join(docs, "\n")
}

func docLine(node *sitter.Node, source []byte) (string, bool) {
	text := nodeText(node, source)

	switch node.Kind() {
	case "line_comment":
		if strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////") {
			return text[3:], true
		}
	case "block_comment":
		if strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/***") && text != "/**/" && len(text) >= 5 {
			return text[3 : len(text)-2], true
		}
	case "attribute_item":
		attr := findChildByKind(node, "attribute")
		if attributePath(attr, source) != "doc" {
			return "", false
		}
		if value := attr.ChildByFieldName("value"); value != nil {
			return stringLiteral(nodeText(value, source)), true
		}
	}
	return "", false
}

// hasAttribute reports whether an item carries an outer attribute with the given path,
// e.g. "macro_export" for #[macro_export] or #[macro_export(local_inner_macros)].
func hasAttribute(node *sitter.Node, source []byte, path string) bool {
	for _, t := range leadingTrivia(node) {
		if t.Kind() != "attribute_item" {
			continue
		}
		if attributePath(findChildByKind(t, "attribute"), source) == path {
			return true
		}
	}
	return false
}

func attributePath(attr *sitter.Node, source []byte) string {
	if attr == nil || attr.NamedChildCount() == 0 {
		return ""
	}
	return nodeText(attr.NamedChild(0), source)
}

// stringLiteral decodes a Rust string or raw string literal. Escapes Go cannot
// decode are left as written.
func stringLiteral(lit string) string {
	if strings.HasPrefix(lit, "r") {
		raw := strings.TrimLeft(lit[1:], "#")
		raw = strings.TrimRight(raw, "#")
		return strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	}
	if s, err := strconv.Unquote(lit); err == nil {
		return s
	}
	return strings.TrimSuffix(strings.TrimPrefix(lit, `"`), `"`)
}
