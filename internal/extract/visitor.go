package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cratescope/internal/model"
)

// Extractor turns Rust source files into public-interface records.
// It holds no per-file state and is safe for concurrent use.
type Extractor struct {
	nestedModulePaths bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithNestedModulePaths attributes items inside inline `mod name { ... }` blocks
// to `<file module>::name` instead of the file's module path.
func WithNestedModulePaths(enabled bool) Option {
	return func(e *Extractor) {
		e.nestedModulePaths = enabled
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractSource visits one file's syntax tree and returns its records, each tagged
// with modulePath. A syntax error fails the whole file; no partial result is returned.
func (e *Extractor) ExtractSource(path string, source []byte, modulePath string) (model.Items, error) {
	tree, err := parseTree(path, source)
	if err != nil {
		return model.Items{}, err
	}
	defer tree.Close()

	v := &fileVisitor{
		source: source,
		nested: e.nestedModulePaths,
		items:  model.NewItems(),
	}
	v.visitItems(tree.RootNode(), modulePath)

	return v.items, nil
}

// ExtractFile reads and extracts a single file. The result is named after the file
// stem, has the root module path and empty feature lists. Read and syntax failures
// are returned to the caller.
func (e *Extractor) ExtractFile(fs afero.Fs, path string) (*model.Crate, error) {
	source, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}

	items, err := e.ExtractSource(path, source, "")
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" || name == "." {
		name = "unknown"
	}

	crate := model.NewCrate(name)
	crate.Extend(items)
	return crate, nil
}

// Check reports whether source is syntactically valid Rust.
func Check(path string, source []byte) error {
	tree, err := parseTree(path, source)
	if err != nil {
		return err
	}
	tree.Close()
	return nil
}

// fileVisitor accumulates the records of one file. The module path is passed
// down the walk by value, never stored on the visitor.
type fileVisitor struct {
	source []byte
	nested bool
	items  model.Items
}

// visitItems visits each direct child of a source_file or declaration_list.
func (v *fileVisitor) visitItems(parent *sitter.Node, modulePath string) {
	for _, child := range namedChildren(parent) {
		v.visitItem(child, modulePath)
	}
}

// visitNested finds items declared inside a function body at any depth.
func (v *fileVisitor) visitNested(body *sitter.Node, modulePath string) {
	for _, child := range namedChildren(body) {
		walkTree(child, func(n *sitter.Node) bool {
			if isItemKind(n.Kind()) {
				v.visitItem(n, modulePath)
				return false
			}
			return true
		})
	}
}

func (v *fileVisitor) visitItem(node *sitter.Node, modulePath string) {
	src := v.source
	it := &v.items

	switch node.Kind() {
	case "function_item":
		if isPublic(node, src) {
			it.Functions = append(it.Functions, extractFunction(node, src, modulePath))
		}
		v.visitNested(node.ChildByFieldName("body"), modulePath)

	case "struct_item":
		if isPublic(node, src) {
			it.Structs = append(it.Structs, extractStruct(node, src, modulePath))
		}

	case "enum_item":
		if isPublic(node, src) {
			it.Enums = append(it.Enums, extractEnum(node, src, modulePath))
		}

	case "impl_item":
		if impl, ok := extractImpl(node, src, modulePath); ok {
			it.Impls = append(it.Impls, impl)
		}
		v.visitMethodBodies(node, modulePath)

	case "trait_item":
		v.visitMethodBodies(node, modulePath)

	case "type_item":
		if isPublic(node, src) {
			it.TypeAliases = append(it.TypeAliases, extractTypeAlias(node, src, modulePath))
		}

	case "use_declaration":
		if !isPublic(node, src) {
			return
		}
		tree := lowerUseTree(node.ChildByFieldName("argument"), src)
		if tree == nil {
			return
		}
		alias, reexport := resolveUse(tree, modulePath)
		if alias != nil {
			it.EnumVariantAliases = append(it.EnumVariantAliases, *alias)
		} else if reexport != nil {
			it.Reexports = append(it.Reexports, *reexport)
		}

	case "const_item":
		if isPublic(node, src) {
			it.Constants = append(it.Constants, extractConstant(node, src, modulePath))
		}

	case "static_item":
		if isPublic(node, src) {
			it.Statics = append(it.Statics, extractStatic(node, src, modulePath))
		}

	case "macro_definition":
		if macro, ok := extractMacro(node, src, modulePath); ok {
			it.Macros = append(it.Macros, macro)
		}

	case "mod_item":
		body := node.ChildByFieldName("body")
		if body == nil {
			return
		}
		inner := modulePath
		if v.nested {
			inner = childModule(modulePath, fieldText(node, "name", src))
		}
		v.visitItems(body, inner)

	default:
		// Comments, attributes, extern blocks, macro invocations, unions.
	}
}

// visitMethodBodies looks for nested items inside the function bodies of an impl or trait.
// The methods themselves are never free functions.
func (v *fileVisitor) visitMethodBodies(node *sitter.Node, modulePath string) {
	for _, child := range namedChildren(node.ChildByFieldName("body")) {
		if child.Kind() == "function_item" {
			v.visitNested(child.ChildByFieldName("body"), modulePath)
		}
	}
}

func isItemKind(kind string) bool {
	switch kind {
	case "function_item", "struct_item", "enum_item", "impl_item", "trait_item",
		"type_item", "use_declaration", "const_item", "static_item",
		"macro_definition", "mod_item":
		return true
	}
	return false
}
