package extract

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cratescope/internal/model"
)

// useTree is the shape of a `use` argument, one variant per grammar form:
//
//	usePath   a::<tree>
//	useName   a
//	useRename a as b
//	useGlob   *
//	useGroup  {a, b::c, ...}
type useTree interface {
	isUseTree()
}

type usePath struct {
	ident string
	tree  useTree
}

type useName struct {
	ident string
}

type useRename struct {
	ident  string
	rename string
}

type useGlob struct{}

type useGroup struct {
	items []useTree
}

func (usePath) isUseTree()   {}
func (useName) isUseTree()   {}
func (useRename) isUseTree() {}
func (useGlob) isUseTree()   {}
func (useGroup) isUseTree()  {}

// lowerUseTree converts the tree-sitter `argument` of a use_declaration into a useTree.
// Returns nil for shapes that cannot name anything (e.g. a bare leading `::`).
func lowerUseTree(node *sitter.Node, source []byte) useTree {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case "identifier", "self", "super", "crate", "metavariable":
		return useName{ident: nodeText(node, source)}

	case "scoped_identifier":
		segments := pathSegments(node, source)
		if len(segments) == 0 {
			return nil
		}
		return chain(segments[:len(segments)-1], useName{ident: segments[len(segments)-1]})

	case "use_as_clause":
		segments := pathSegments(node.ChildByFieldName("path"), source)
		if len(segments) == 0 {
			return nil
		}
		tail := useRename{
			ident:  segments[len(segments)-1],
			rename: fieldText(node, "alias", source),
		}
		return chain(segments[:len(segments)-1], tail)

	case "use_wildcard":
		var prefix []string
		if named := namedChildren(node); len(named) > 0 {
			prefix = pathSegments(named[0], source)
		}
		return chain(prefix, useGlob{})

	case "scoped_use_list":
		group := lowerUseList(node.ChildByFieldName("list"), source)
		return chain(pathSegments(node.ChildByFieldName("path"), source), group)

	case "use_list":
		return lowerUseList(node, source)

	default:
		return nil
	}
}

func lowerUseList(node *sitter.Node, source []byte) useGroup {
	group := useGroup{items: []useTree{}}
	for _, child := range namedChildren(node) {
		if item := lowerUseTree(child, source); item != nil {
			group.items = append(group.items, item)
		}
	}
	return group
}

// pathSegments flattens `a::b::c` into ["a", "b", "c"]. A leading `::` contributes nothing.
func pathSegments(node *sitter.Node, source []byte) []string {
	if node == nil {
		return nil
	}
	if node.Kind() != "scoped_identifier" {
		return []string{nodeText(node, source)}
	}

	segments := pathSegments(node.ChildByFieldName("path"), source)
	return append(segments, fieldText(node, "name", source))
}

// chain wraps tail in one usePath per prefix segment.
func chain(prefix []string, tail useTree) useTree {
	tree := tail
	for i := len(prefix) - 1; i >= 0; i-- {
		tree = usePath{ident: prefix[i], tree: tree}
	}
	return tree
}

// resolveUse interprets one public use tree. It tries the enum-variant-alias
// reading first because the two grammars overlap, then the external re-export
// reading. At most one of the results is non-nil.
func resolveUse(tree useTree, modulePath string) (*model.EnumVariantAlias, *model.Reexport) {
	if alias := enumVariantAlias(tree, modulePath); alias != nil {
		return alias, nil
	}
	return nil, reexport(tree)
}

// enumVariantAlias matches `Type::Variant [as Alias]` and `Outer::Inner::Variant [as Alias]`.
// A capitalized first segment is taken to mean a type rather than a module;
// this naming heuristic misreads capitalized module names.
func enumVariantAlias(tree useTree, modulePath string) *model.EnumVariantAlias {
	path, ok := tree.(usePath)
	if !ok || !startsUpper(path.ident) {
		return nil
	}

	enumType := path.ident
	next := path.tree
	if inner, ok := next.(usePath); ok {
		enumType = path.ident + "::" + inner.ident
		next = inner.tree
	}

	var variant, alias string
	switch t := next.(type) {
	case useRename:
		variant, alias = t.ident, t.rename
	case useName:
		variant, alias = t.ident, t.ident
	default:
		// Deeper nesting, groups and globs are not variant aliases.
		return nil
	}

	return &model.EnumVariantAlias{
		AliasName:   alias,
		EnumType:    enumType,
		VariantName: variant,
		FullPath:    enumType + "::" + variant,
		IsPub:       true,
		ModulePath:  modulePath,
	}
}

// reexport matches external-crate re-exports ending in a glob or a group.
// Paths through self, super or crate are intra-crate and yield nil.
func reexport(tree useTree) *model.Reexport {
	path, ok := tree.(usePath)
	if !ok || isRelativeSegment(path.ident) {
		return nil
	}

	switch t := path.tree.(type) {
	case useGlob:
		return &model.Reexport{SourceCrate: path.ident, IsGlob: true, Items: []string{}}

	case useGroup:
		var items []string
		for _, item := range t.items {
			switch it := item.(type) {
			case useName:
				items = append(items, it.ident)
			case useRename:
				items = append(items, it.ident)
			}
		}
		if len(items) == 0 {
			return nil
		}
		return &model.Reexport{SourceCrate: path.ident, Items: items}

	case usePath:
		// Only the outermost segment is recorded as the source.
		inner := reexport(t)
		if inner == nil {
			return nil
		}
		inner.SourceCrate = path.ident
		return inner

	default:
		return nil
	}
}

func isRelativeSegment(segment string) bool {
	return segment == "self" || segment == "super" || segment == "crate"
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
