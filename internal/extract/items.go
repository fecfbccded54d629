package extract

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/cratescope/internal/model"
)

// isPublic reports whether an item's visibility is exactly `pub`.
// Restricted forms such as pub(crate), pub(super) and pub(in path) are not public.
func isPublic(node *sitter.Node, source []byte) bool {
	vis := findChildByKind(node, "visibility_modifier")
	if vis == nil {
		return false
	}
	return strings.TrimSpace(nodeText(vis, source)) == "pub"
}

// typeText returns the normalized text of a type-bearing field.
func typeText(node *sitter.Node, field string, source []byte) string {
	return normalizeTypeText(fieldText(node, field, source))
}

func isAsync(node *sitter.Node) bool {
	mods := findChildByKind(node, "function_modifiers")
	return findChildByKind(mods, "async") != nil
}

// extractFunction builds a free function record from a function_item.
func extractFunction(node *sitter.Node, source []byte, modulePath string) model.Function {
	params, _ := extractParams(node.ChildByFieldName("parameters"), source)

	return model.Function{
		Name:       fieldText(node, "name", source),
		Params:     params,
		ReturnType: typeText(node, "return_type", source),
		IsPub:      true,
		IsAsync:    isAsync(node),
		Doc:        docComment(node, source),
		ModulePath: modulePath,
	}
}

// extractMethod builds a method record from a function_item inside an impl body.
func extractMethod(node *sitter.Node, source []byte, ownerType string) model.Method {
	params, self := extractParams(node.ChildByFieldName("parameters"), source)

	return model.Method{
		Name:       fieldText(node, "name", source),
		OwnerType:  ownerType,
		Params:     params,
		ReturnType: typeText(node, "return_type", source),
		SelfKind:   self,
		IsPub:      true,
		IsStatic:   self == model.SelfNone,
		Doc:        docComment(node, source),
	}
}

// extractParams splits a parameter list into typed parameters and the receiver kind.
// The receiver never appears in the returned parameters.
func extractParams(node *sitter.Node, source []byte) ([]model.Parameter, model.SelfKind) {
	params := []model.Parameter{}
	self := model.SelfNone

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "self_parameter":
			self = receiverKind(child)

		case "parameter":
			pattern := child.ChildByFieldName("pattern")
			typeNode := child.ChildByFieldName("type")
			if pattern != nil && pattern.Kind() == "self" {
				self = typedReceiverKind(typeNode)
				continue
			}

			info := ClassifyType(typeNode, source)
			params = append(params, model.Parameter{
				Name:     patternName(pattern, source),
				Type:     info.FullText,
				TypeInfo: &info,
			})

		default:
			// Attributes, variadics.
		}
	}

	return params, self
}

// receiverKind reads `self`, `mut self`, `&self`, `&'a self` and `&mut self`.
func receiverKind(node *sitter.Node) model.SelfKind {
	if findChildByKind(node, "&") == nil {
		return model.SelfValue
	}
	if findChildByKind(node, "mutable_specifier") != nil {
		return model.SelfMutRef
	}
	return model.SelfRef
}

// typedReceiverKind reads `self: &Self`, `self: &mut Self` and `self: Box<Self>`.
func typedReceiverKind(typeNode *sitter.Node) model.SelfKind {
	if typeNode == nil || typeNode.Kind() != "reference_type" {
		return model.SelfValue
	}
	if findChildByKind(typeNode, "mutable_specifier") != nil {
		return model.SelfMutRef
	}
	return model.SelfRef
}

// patternName returns the bound identifier of x, mut x, ref x and ref mut x; "_" otherwise.
func patternName(node *sitter.Node, source []byte) string {
	if node == nil {
		return "_"
	}
	switch node.Kind() {
	case "identifier":
		return nodeText(node, source)
	case "mut_pattern", "ref_pattern":
		named := namedChildren(node)
		if len(named) > 0 {
			return patternName(named[len(named)-1], source)
		}
	}
	return "_"
}

func extractStruct(node *sitter.Node, source []byte, modulePath string) model.Struct {
	return model.Struct{
		Name:       fieldText(node, "name", source),
		Fields:     extractFields(node.ChildByFieldName("body"), source, false),
		IsPub:      true,
		Doc:        docComment(node, source),
		ModulePath: modulePath,
	}
}

func extractEnum(node *sitter.Node, source []byte, modulePath string) model.Enum {
	variants := []model.Variant{}
	for _, child := range namedChildren(node.ChildByFieldName("body")) {
		if child.Kind() != "enum_variant" {
			continue
		}
		variants = append(variants, model.Variant{
			Name:   fieldText(child, "name", source),
			Fields: extractFields(child.ChildByFieldName("body"), source, true),
		})
	}

	return model.Enum{
		Name:       fieldText(node, "name", source),
		Variants:   variants,
		IsPub:      true,
		Doc:        docComment(node, source),
		ModulePath: modulePath,
	}
}

// extractFields reads named ({ a: T }) or positional ((T, U)) field lists.
// Enum variant fields take the enum's visibility, so allPub marks them public.
func extractFields(body *sitter.Node, source []byte, allPub bool) []model.Field {
	fields := []model.Field{}
	if body == nil {
		return fields
	}

	switch body.Kind() {
	case "field_declaration_list":
		for _, child := range namedChildren(body) {
			if child.Kind() != "field_declaration" {
				continue
			}
			fields = append(fields, model.Field{
				Name:  fieldText(child, "name", source),
				Type:  typeText(child, "type", source),
				IsPub: allPub || isPublic(child, source),
			})
		}

	case "ordered_field_declaration_list":
		pub := false
		for i := uint(0); i < body.ChildCount(); i++ {
			child := body.Child(i)
			if child.Kind() == "visibility_modifier" {
				pub = strings.TrimSpace(nodeText(child, source)) == "pub"
				continue
			}
			if body.FieldNameForChild(uint32(i)) != "type" {
				continue
			}
			fields = append(fields, model.Field{
				Name:  fmt.Sprintf("_%d", len(fields)),
				Type:  normalizeTypeText(nodeText(child, source)),
				IsPub: allPub || pub,
			})
			pub = false
		}
	}

	return fields
}

// extractImpl builds an impl block record. It returns false when the target is not a
// named type path or when no method qualifies. Trait impl methods always qualify.
func extractImpl(node *sitter.Node, source []byte, modulePath string) (model.ImplBlock, bool) {
	target := node.ChildByFieldName("type")
	if !isNamedPath(target) {
		return model.ImplBlock{}, false
	}
	typeName := lastSegment(target, source)

	var traitName string
	if trait := node.ChildByFieldName("trait"); trait != nil {
		traitName = lastSegment(trait, source)
	}

	methods := []model.Method{}
	for _, child := range namedChildren(node.ChildByFieldName("body")) {
		if child.Kind() != "function_item" {
			continue
		}
		if traitName == "" && !isPublic(child, source) {
			continue
		}
		methods = append(methods, extractMethod(child, source, typeName))
	}

	if len(methods) == 0 {
		return model.ImplBlock{}, false
	}

	return model.ImplBlock{
		TypeName:   typeName,
		Methods:    methods,
		TraitName:  traitName,
		ModulePath: modulePath,
	}, true
}

func extractTypeAlias(node *sitter.Node, source []byte, modulePath string) model.TypeAlias {
	generics := []string{}
	for _, param := range namedChildren(node.ChildByFieldName("type_parameters")) {
		if param.Kind() == "attribute_item" {
			continue
		}
		generics = append(generics, normalizeTypeText(nodeText(param, source)))
	}

	return model.TypeAlias{
		Name:       fieldText(node, "name", source),
		TargetType: typeText(node, "type", source),
		Generics:   generics,
		IsPub:      true,
		Doc:        docComment(node, source),
		ModulePath: modulePath,
	}
}

func extractConstant(node *sitter.Node, source []byte, modulePath string) model.Constant {
	return model.Constant{
		Name:       fieldText(node, "name", source),
		Type:       typeText(node, "type", source),
		IsPub:      true,
		Doc:        docComment(node, source),
		ModulePath: modulePath,
	}
}

func extractStatic(node *sitter.Node, source []byte, modulePath string) model.Static {
	return model.Static{
		Name:       fieldText(node, "name", source),
		Type:       typeText(node, "type", source),
		IsPub:      true,
		IsMut:      findChildByKind(node, "mutable_specifier") != nil,
		Doc:        docComment(node, source),
		ModulePath: modulePath,
	}
}

// extractMacro returns a record only for macro_rules! definitions marked #[macro_export].
func extractMacro(node *sitter.Node, source []byte, modulePath string) (model.Macro, bool) {
	if !hasAttribute(node, source, "macro_export") {
		return model.Macro{}, false
	}

	name := fieldText(node, "name", source)
	if name == "" {
		return model.Macro{}, false
	}

	return model.Macro{
		Name:       name,
		Doc:        docComment(node, source),
		ModulePath: modulePath,
		IsExported: true,
	}, true
}
