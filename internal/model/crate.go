package model

// Kind names one record collection of a crate model.
type Kind string

const (
	KindFunction         Kind = "function"
	KindStruct           Kind = "struct"
	KindEnum             Kind = "enum"
	KindImpl             Kind = "impl"
	KindTypeAlias        Kind = "type_alias"
	KindReexport         Kind = "reexport"
	KindConstant         Kind = "constant"
	KindStatic           Kind = "static"
	KindEnumVariantAlias Kind = "enum_variant_alias"
	KindMacro            Kind = "macro"
)

// AllKinds lists every record kind in output order.
var AllKinds = []Kind{
	KindFunction, KindStruct, KindEnum, KindImpl, KindTypeAlias,
	KindReexport, KindConstant, KindStatic, KindEnumVariantAlias, KindMacro,
}

// Items is the set of records produced by visiting one or more files.
// Names are not unique keys: the same name may appear in several modules.
type Items struct {
	Functions          []Function         `json:"functions" yaml:"functions"`
	Structs            []Struct           `json:"structs" yaml:"structs"`
	Enums              []Enum             `json:"enums" yaml:"enums"`
	Impls              []ImplBlock        `json:"impls" yaml:"impls"`
	TypeAliases        []TypeAlias        `json:"type_aliases" yaml:"type_aliases"`
	Reexports          []Reexport         `json:"reexports" yaml:"reexports"`
	Constants          []Constant         `json:"constants" yaml:"constants"`
	Statics            []Static           `json:"statics" yaml:"statics"`
	EnumVariantAliases []EnumVariantAlias `json:"enum_variant_aliases" yaml:"enum_variant_aliases"`
	Macros             []Macro            `json:"macros" yaml:"macros"`
}

// NewItems returns an Items with every collection empty but non-nil,
// so serialized output always shows lists.
func NewItems() Items {
	return Items{
		Functions:          []Function{},
		Structs:            []Struct{},
		Enums:              []Enum{},
		Impls:              []ImplBlock{},
		TypeAliases:        []TypeAlias{},
		Reexports:          []Reexport{},
		Constants:          []Constant{},
		Statics:            []Static{},
		EnumVariantAliases: []EnumVariantAlias{},
		Macros:             []Macro{},
	}
}

// Extend appends every collection of other after the receiver's records.
func (it *Items) Extend(other Items) {
	it.Functions = append(it.Functions, other.Functions...)
	it.Structs = append(it.Structs, other.Structs...)
	it.Enums = append(it.Enums, other.Enums...)
	it.Impls = append(it.Impls, other.Impls...)
	it.TypeAliases = append(it.TypeAliases, other.TypeAliases...)
	it.Reexports = append(it.Reexports, other.Reexports...)
	it.Constants = append(it.Constants, other.Constants...)
	it.Statics = append(it.Statics, other.Statics...)
	it.EnumVariantAliases = append(it.EnumVariantAliases, other.EnumVariantAliases...)
	it.Macros = append(it.Macros, other.Macros...)
}

// Counts returns the number of records per kind.
func (it *Items) Counts() map[Kind]int {
	return map[Kind]int{
		KindFunction:         len(it.Functions),
		KindStruct:           len(it.Structs),
		KindEnum:             len(it.Enums),
		KindImpl:             len(it.Impls),
		KindTypeAlias:        len(it.TypeAliases),
		KindReexport:         len(it.Reexports),
		KindConstant:         len(it.Constants),
		KindStatic:           len(it.Statics),
		KindEnumVariantAlias: len(it.EnumVariantAliases),
		KindMacro:            len(it.Macros),
	}
}

// Total returns the number of records across all kinds.
func (it *Items) Total() int {
	total := 0
	for _, n := range it.Counts() {
		total += n
	}
	return total
}

// Crate is the aggregate model of one crate (or one file for single-file extraction).
type Crate struct {
	Name              string   `json:"name" yaml:"name"`
	Items             `yaml:",inline"`
	AvailableFeatures []string `json:"available_features" yaml:"available_features"` // Sorted; duplicates preserved
	DefaultFeatures   []string `json:"default_features" yaml:"default_features"`     // Sorted; duplicates preserved
}

// NewCrate returns an empty crate model with the given name.
func NewCrate(name string) *Crate {
	return &Crate{
		Name:              name,
		Items:             NewItems(),
		AvailableFeatures: []string{},
		DefaultFeatures:   []string{},
	}
}

// ModulePaths returns the module path of every module-attributed record,
// in record order, including duplicates.
func (it *Items) ModulePaths() []string {
	var paths []string
	for _, f := range it.Functions {
		paths = append(paths, f.ModulePath)
	}
	for _, s := range it.Structs {
		paths = append(paths, s.ModulePath)
	}
	for _, e := range it.Enums {
		paths = append(paths, e.ModulePath)
	}
	for _, i := range it.Impls {
		paths = append(paths, i.ModulePath)
	}
	for _, t := range it.TypeAliases {
		paths = append(paths, t.ModulePath)
	}
	for _, k := range it.Constants {
		paths = append(paths, k.ModulePath)
	}
	for _, s := range it.Statics {
		paths = append(paths, s.ModulePath)
	}
	for _, a := range it.EnumVariantAliases {
		paths = append(paths, a.ModulePath)
	}
	for _, m := range it.Macros {
		paths = append(paths, m.ModulePath)
	}
	return paths
}
