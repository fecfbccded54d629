// Package model holds the records describing the public interface of a Rust crate.
//
// Every record is built once during an extraction pass and never mutated
// afterwards. A Crate is rebuilt from scratch on every run.
package model

// TypeDescriptor is the structured classification of one type expression.
//
// ExpectsBorrow and ExpectsOwned are best-effort signals derived from trait
// names and reference markers. They are not mutually exclusive and not proofs.
type TypeDescriptor struct {
	FullText           string `json:"full_text" yaml:"full_text"`                       // Normalized rendering (e.g., "&mut Vec<u8>")
	IsReference        bool   `json:"is_reference" yaml:"is_reference"`                 // &T or &mut T
	IsMutableReference bool   `json:"is_mutable_reference" yaml:"is_mutable_reference"` // &mut T
	IsImplTraitBound   bool   `json:"is_impl_trait_bound" yaml:"is_impl_trait_bound"`   // impl Trait
	TraitBound         string `json:"trait_bound,omitempty" yaml:"trait_bound,omitempty"`
	CoreType           string `json:"core_type" yaml:"core_type"` // Name with references and bounds stripped
	ExpectsBorrow      bool   `json:"expects_borrow" yaml:"expects_borrow"`
	ExpectsOwned       bool   `json:"expects_owned" yaml:"expects_owned"`
}

// HasTraitBound reports whether the descriptor carries a trait bound.
func (t TypeDescriptor) HasTraitBound() bool {
	return t.TraitBound != ""
}

// Parameter is a single non-receiver function parameter.
type Parameter struct {
	Name     string          `json:"name" yaml:"name"`
	Type     string          `json:"type" yaml:"type"`
	TypeInfo *TypeDescriptor `json:"type_info,omitempty" yaml:"type_info,omitempty"`
}

// SelfKind describes how a method receives its receiver.
type SelfKind string

const (
	SelfNone   SelfKind = ""
	SelfValue  SelfKind = "self"
	SelfRef    SelfKind = "&self"
	SelfMutRef SelfKind = "&mut self"
)

// Function is a free (non-method) function.
type Function struct {
	Name       string      `json:"name" yaml:"name"`
	Params     []Parameter `json:"params" yaml:"params"`
	ReturnType string      `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	IsPub      bool        `json:"is_pub" yaml:"is_pub"`
	IsAsync    bool        `json:"is_async" yaml:"is_async"`
	Doc        string      `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string      `json:"module_path" yaml:"module_path"`
}

// Method is a function declared inside an impl block.
type Method struct {
	Name       string      `json:"name" yaml:"name"`
	OwnerType  string      `json:"owner_type" yaml:"owner_type"`
	Params     []Parameter `json:"params" yaml:"params"`
	ReturnType string      `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	SelfKind   SelfKind    `json:"self_kind" yaml:"self_kind"`
	IsPub      bool        `json:"is_pub" yaml:"is_pub"`
	IsStatic   bool        `json:"is_static" yaml:"is_static"` // No receiver
	Doc        string      `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Field is a struct or variant field. Tuple fields are named "_0", "_1", ...
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	IsPub bool   `json:"is_pub" yaml:"is_pub"`
}

type Struct struct {
	Name       string  `json:"name" yaml:"name"`
	Fields     []Field `json:"fields" yaml:"fields"`
	IsPub      bool    `json:"is_pub" yaml:"is_pub"`
	Doc        string  `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string  `json:"module_path" yaml:"module_path"`
}

type Variant struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

type Enum struct {
	Name       string    `json:"name" yaml:"name"`
	Variants   []Variant `json:"variants" yaml:"variants"`
	IsPub      bool      `json:"is_pub" yaml:"is_pub"`
	Doc        string    `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string    `json:"module_path" yaml:"module_path"`
}

// ImplBlock is an impl block with at least one retained method.
type ImplBlock struct {
	TypeName   string   `json:"type_name" yaml:"type_name"`
	Methods    []Method `json:"methods" yaml:"methods"`
	TraitName  string   `json:"trait_name,omitempty" yaml:"trait_name,omitempty"` // Set for trait implementations
	ModulePath string   `json:"module_path" yaml:"module_path"`
}

// IsTraitImpl reports whether the block implements a trait.
func (i ImplBlock) IsTraitImpl() bool {
	return i.TraitName != ""
}

type TypeAlias struct {
	Name       string   `json:"name" yaml:"name"`
	TargetType string   `json:"target_type" yaml:"target_type"`
	Generics   []string `json:"generics" yaml:"generics"`
	IsPub      bool     `json:"is_pub" yaml:"is_pub"`
	Doc        string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string   `json:"module_path" yaml:"module_path"`
}

// Reexport is a `pub use` of an external crate's items. Items is empty iff IsGlob.
type Reexport struct {
	SourceCrate string   `json:"source_crate" yaml:"source_crate"`
	IsGlob      bool     `json:"is_glob" yaml:"is_glob"`
	Items       []string `json:"items" yaml:"items"`
}

type Constant struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	IsPub      bool   `json:"is_pub" yaml:"is_pub"`
	Doc        string `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string `json:"module_path" yaml:"module_path"`
}

type Static struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	IsPub      bool   `json:"is_pub" yaml:"is_pub"`
	IsMut      bool   `json:"is_mut" yaml:"is_mut"`
	Doc        string `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string `json:"module_path" yaml:"module_path"`
}

// EnumVariantAlias represents `pub use EnumType::Variant [as Alias]`.
type EnumVariantAlias struct {
	AliasName   string `json:"alias_name" yaml:"alias_name"`     // Exported name (e.g., "HS256")
	EnumType    string `json:"enum_type" yaml:"enum_type"`       // e.g., "HmacJwsAlgorithm" or "Outer::Inner"
	VariantName string `json:"variant_name" yaml:"variant_name"` // e.g., "Hs256"
	FullPath    string `json:"full_path" yaml:"full_path"`       // e.g., "HmacJwsAlgorithm::Hs256"
	IsPub       bool   `json:"is_pub" yaml:"is_pub"`
	ModulePath  string `json:"module_path" yaml:"module_path"` // Module containing the use statement
}

// Macro is a macro_rules! definition marked #[macro_export].
type Macro struct {
	Name       string `json:"name" yaml:"name"`
	Doc        string `json:"doc,omitempty" yaml:"doc,omitempty"`
	ModulePath string `json:"module_path" yaml:"module_path"`
	IsExported bool   `json:"is_exported" yaml:"is_exported"`
}
