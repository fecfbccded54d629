package extract

import (
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cratescope/internal/model"
)

// Trait-name fragments that hint at borrow or ownership intent of an impl Trait bound.
// Matching is a lower-cased substring search.
var (
	borrowSignals = []string{"asref", "borrow", "asmut"}
	ownedSignals  = []string{"into", "tryinto"}
)

// ClassifyType builds a TypeDescriptor for a type expression node.
// Unrecognized node shapes keep CoreType equal to FullText with every flag false.
func ClassifyType(node *sitter.Node, source []byte) model.TypeDescriptor {
	full := normalizeTypeText(nodeText(node, source))
	info := model.TypeDescriptor{
		FullText: full,
		CoreType: full,
	}
	if node == nil {
		return info
	}

	switch node.Kind() {
	case "reference_type":
		info.IsReference = true
		info.IsMutableReference = findChildByKind(node, "mutable_specifier") != nil
		info.CoreType = normalizeTypeText(fieldText(node, "type", source))
		info.ExpectsBorrow = true

	case "abstract_type", "bounded_type":
		// `impl A + B` parses as bounded_type(abstract_type, B).
		if bounds, ok := implTraitBounds(node, source); ok {
			bound := strings.Join(bounds, "+")
			info.IsImplTraitBound = true
			info.TraitBound = bound
			info.CoreType = bound

			lower := strings.ToLower(bound)
			info.ExpectsBorrow = containsAny(lower, borrowSignals)
			info.ExpectsOwned = containsAny(lower, ownedSignals)
		}

	case "type_identifier", "primitive_type", "scoped_type_identifier", "generic_type":
		info.CoreType = lastSegment(node, source)
		if node.Kind() == "generic_type" {
			info.CoreType += normalizeTypeText(fieldText(node, "type_arguments", source))
		}

	default:
		// Tuples, slices, arrays, dyn Trait, fn pointers: defaults only.
	}

	return info
}

// implTraitBounds returns the bounds of an impl Trait type. It reports false
// when node is a bounded type that does not start with `impl`.
func implTraitBounds(node *sitter.Node, source []byte) ([]string, bool) {
	switch node.Kind() {
	case "abstract_type":
		return traitBounds(node.ChildByFieldName("trait"), source), true
	case "bounded_type":
		children := namedChildren(node)
		if len(children) == 0 {
			return nil, false
		}
		bounds, ok := implTraitBounds(children[0], source)
		if !ok {
			return nil, false
		}
		for _, child := range children[1:] {
			bounds = append(bounds, traitBounds(child, source)...)
		}
		return bounds, true
	}
	return nil, false
}

// traitBounds flattens `A + B + 'a` into its individual bound texts.
func traitBounds(node *sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	if node.Kind() != "bounded_type" {
		return []string{normalizeTypeText(nodeText(node, source))}
	}

	var bounds []string
	for _, child := range namedChildren(node) {
		bounds = append(bounds, traitBounds(child, source)...)
	}
	return bounds
}

// lastSegment returns the final path segment name of a named type, without generic arguments.
// For `std::collections::HashMap<K, V>` it returns "HashMap".
func lastSegment(node *sitter.Node, source []byte) string {
	switch node.Kind() {
	case "generic_type":
		if inner := node.ChildByFieldName("type"); inner != nil {
			return lastSegment(inner, source)
		}
	case "scoped_type_identifier", "scoped_identifier":
		if name := node.ChildByFieldName("name"); name != nil {
			return nodeText(name, source)
		}
	}
	return normalizeTypeText(nodeText(node, source))
}

// isNamedPath reports whether node is a plain or qualified type path.
func isNamedPath(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "type_identifier", "primitive_type", "scoped_type_identifier", "generic_type":
		return true
	}
	return false
}

// normalizeTypeText collapses whitespace in a type rendering. A single space
// survives only where two word tokens would otherwise merge, so
// "&mut  Vec< u8 >" becomes "&mut Vec<u8>" and "HashMap<K, V>" becomes "HashMap<K,V>".
func normalizeTypeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	var prev rune
	pendingSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace && isWordRune(prev) && (isWordRune(r) || r == '\'') {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
