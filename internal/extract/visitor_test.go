package extract

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cratescope/internal/model"
)

// Test Plan for the file visitor and item extractors:
// - Only items marked exactly `pub` produce records
// - Functions record params, return type, async flag and doc text
// - Struct fields keep their own visibility; tuple fields are named _0, _1, ...
// - Enum variant fields are always public
// - Impl blocks need at least one public method, except trait impls which keep all methods
// - Method receivers map to "", "self", "&self" and "&mut self"
// - Parameter patterns other than identifiers are named "_"
// - Type aliases, constants, statics and exported macros are extracted
// - Bounded type-alias generics are stored without spaces
// - Doc comments from ///, /** */ and #[doc] are trimmed and newline-joined
// - Items nested in function bodies and inline modules are visited
// - Inline module names are appended only with WithNestedModulePaths
// - A syntax error fails the file with a located *SyntaxError
// - ExtractFile names the result after the file stem and reports read errors
// - Extraction is idempotent

func extractItems(t *testing.T, src string, opts ...Option) model.Items {
	t.Helper()

	items, err := New(opts...).ExtractSource("visitor.rs", []byte(src), "")
	require.NoError(t, err)
	return items
}

func functionNames(fns []model.Function) []string {
	names := []string{}
	for _, f := range fns {
		names = append(names, f.Name)
	}
	return names
}

func TestVisitor_VisibilityFilter(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
pub fn visible() {}
pub(crate) fn crate_local() {}
pub(super) fn parent_only() {}
pub(in crate::a) fn path_scoped() {}
fn private() {}

pub struct Shown;
struct Hidden;
pub(crate) enum AlsoHidden { A }
pub const SHOWN: u8 = 1;
const HIDDEN: u8 = 2;
pub(crate) static HIDDEN_STATIC: u8 = 3;
type HiddenAlias = u8;
`)

	assert.Equal(t, []string{"visible"}, functionNames(items.Functions))
	require.Len(t, items.Structs, 1)
	assert.Equal(t, "Shown", items.Structs[0].Name)
	assert.Empty(t, items.Enums)
	require.Len(t, items.Constants, 1)
	assert.Equal(t, "SHOWN", items.Constants[0].Name)
	assert.Empty(t, items.Statics)
	assert.Empty(t, items.TypeAliases)
}

func TestVisitor_Function(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
/// Decodes a token.
///
///   Second paragraph.
pub async fn decode(token: &str, mut retries: u32, (a, b): (u8, u8), _: bool) -> Result<Vec<u8>, Error> {
    Ok(vec![])
}

pub fn unit() {}
`)

	require.Len(t, items.Functions, 2)

	decode := items.Functions[0]
	assert.Equal(t, "decode", decode.Name)
	assert.True(t, decode.IsPub)
	assert.True(t, decode.IsAsync)
	assert.Equal(t, "Result<Vec<u8>,Error>", decode.ReturnType)
	assert.Equal(t, "Decodes a token.\n\nSecond paragraph.", decode.Doc)
	assert.Equal(t, "", decode.ModulePath)

	require.Len(t, decode.Params, 4)
	assert.Equal(t, "token", decode.Params[0].Name)
	assert.Equal(t, "&str", decode.Params[0].Type)
	assert.Equal(t, "retries", decode.Params[1].Name)
	assert.Equal(t, "u32", decode.Params[1].Type)
	assert.Equal(t, "_", decode.Params[2].Name)
	assert.Equal(t, "(u8,u8)", decode.Params[2].Type)
	assert.Equal(t, "_", decode.Params[3].Name)
	for _, p := range decode.Params {
		require.NotNil(t, p.TypeInfo)
		assert.NotEmpty(t, p.Type)
	}

	unit := items.Functions[1]
	assert.False(t, unit.IsAsync)
	assert.Equal(t, "", unit.ReturnType)
	assert.Equal(t, "", unit.Doc)
	assert.Empty(t, unit.Params)
	assert.NotNil(t, unit.Params)
}

func TestVisitor_StructFields(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
pub struct Named {
    pub id: u64,
    secret: String,
    pub(crate) scoped: Vec<u8>,
}

pub struct Tuple(pub Vec<u8>, usize, pub(crate) bool);

pub struct Unit;
`)

	require.Len(t, items.Structs, 3)

	assert.Equal(t, []model.Field{
		{Name: "id", Type: "u64", IsPub: true},
		{Name: "secret", Type: "String", IsPub: false},
		{Name: "scoped", Type: "Vec<u8>", IsPub: false},
	}, items.Structs[0].Fields)

	assert.Equal(t, []model.Field{
		{Name: "_0", Type: "Vec<u8>", IsPub: true},
		{Name: "_1", Type: "usize", IsPub: false},
		{Name: "_2", Type: "bool", IsPub: false},
	}, items.Structs[1].Fields)

	assert.Empty(t, items.Structs[2].Fields)
	assert.NotNil(t, items.Structs[2].Fields)
}

func TestVisitor_Enum(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
/// Signing algorithms.
pub enum Algorithm {
    Hs256,
    Custom(String, u8),
    Keyed { id: u32, material: Vec<u8> },
    Discriminant = 7,
}
`)

	require.Len(t, items.Enums, 1)
	enum := items.Enums[0]
	assert.Equal(t, "Algorithm", enum.Name)
	assert.Equal(t, "Signing algorithms.", enum.Doc)
	require.Len(t, enum.Variants, 4)

	assert.Equal(t, "Hs256", enum.Variants[0].Name)
	assert.Empty(t, enum.Variants[0].Fields)

	assert.Equal(t, []model.Field{
		{Name: "_0", Type: "String", IsPub: true},
		{Name: "_1", Type: "u8", IsPub: true},
	}, enum.Variants[1].Fields)

	assert.Equal(t, []model.Field{
		{Name: "id", Type: "u32", IsPub: true},
		{Name: "material", Type: "Vec<u8>", IsPub: true},
	}, enum.Variants[2].Fields)

	assert.Equal(t, "Discriminant", enum.Variants[3].Name)
}

func TestVisitor_ImplRetention(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
pub struct S;

impl S {
    fn private(&self) {}
    pub(crate) fn scoped(&self) {}
}

impl Clone for S {
    fn clone(&self) -> Self { S }
}

impl S {
    pub fn public(&self) {}
    fn hidden(&self) {}
}

impl<T> Wrapper<T> {
    pub fn get(&self) -> &T { &self.0 }
}

impl std::fmt::Display for S {
    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result { Ok(()) }
}

impl dyn Handler {
    pub fn call(&self) {}
}
`)

	require.Len(t, items.Impls, 4)

	clone := items.Impls[0]
	assert.Equal(t, "S", clone.TypeName)
	assert.Equal(t, "Clone", clone.TraitName)
	assert.True(t, clone.IsTraitImpl())
	require.Len(t, clone.Methods, 1)
	assert.Equal(t, "clone", clone.Methods[0].Name)
	assert.Equal(t, "S", clone.Methods[0].OwnerType)

	inherent := items.Impls[1]
	assert.False(t, inherent.IsTraitImpl())
	require.Len(t, inherent.Methods, 1)
	assert.Equal(t, "public", inherent.Methods[0].Name)

	assert.Equal(t, "Wrapper", items.Impls[2].TypeName)
	assert.Equal(t, "&T", items.Impls[2].Methods[0].ReturnType)

	display := items.Impls[3]
	assert.Equal(t, "S", display.TypeName)
	assert.Equal(t, "Display", display.TraitName)
	assert.Equal(t, "std::fmt::Result", display.Methods[0].ReturnType)

	// Methods never leak into free functions.
	assert.Empty(t, items.Functions)
}

func TestVisitor_MethodReceivers(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
pub struct R;

impl R {
    pub fn new(size: usize) -> Self { R }
    pub fn by_value(self) {}
    pub fn by_mut_value(mut self) {}
    pub fn by_ref(&self, n: u32) {}
    pub fn by_lifetime_ref(&'a self) {}
    pub fn by_mut(&mut self) {}
    pub fn typed(self: &Self) {}
    pub fn typed_mut(self: &mut Self) {}
    pub fn boxed(self: Box<Self>) {}
}
`)

	require.Len(t, items.Impls, 1)
	methods := items.Impls[0].Methods
	require.Len(t, methods, 9)

	want := map[string]model.SelfKind{
		"new":             model.SelfNone,
		"by_value":        model.SelfValue,
		"by_mut_value":    model.SelfValue,
		"by_ref":          model.SelfRef,
		"by_lifetime_ref": model.SelfRef,
		"by_mut":          model.SelfMutRef,
		"typed":           model.SelfRef,
		"typed_mut":       model.SelfMutRef,
		"boxed":           model.SelfValue,
	}
	for _, m := range methods {
		assert.Equal(t, want[m.Name], m.SelfKind, m.Name)
		assert.Equal(t, m.SelfKind == model.SelfNone, m.IsStatic, m.Name)
		assert.True(t, m.IsPub, m.Name)
	}

	// The receiver is never a parameter.
	assert.Len(t, methods[0].Params, 1)
	assert.Len(t, methods[1].Params, 0)
	require.Len(t, methods[3].Params, 1)
	assert.Equal(t, "n", methods[3].Params[0].Name)
	assert.Len(t, methods[6].Params, 0)
}

func TestVisitor_AliasesConstantsStaticsMacros(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
/// Crate result.
pub type Result<T, E = Error> = std::result::Result<T, E>;
pub type Bytes = Vec<u8>;

/// Maximum size.
pub const MAX: usize = 1 << 20;
pub static NAME: &str = "jwt";
pub static mut COUNTER: u64 = 0;

/// Builds claims.
#[macro_export]
macro_rules! claims {
    () => {};
}

macro_rules! hidden {
    () => {};
}

#[macro_export(local_inner_macros)]
macro_rules! inner {
    () => {};
}
`)

	require.Len(t, items.TypeAliases, 2)
	assert.Equal(t, "Result", items.TypeAliases[0].Name)
	assert.Equal(t, "std::result::Result<T,E>", items.TypeAliases[0].TargetType)
	assert.Equal(t, []string{"T", "E=Error"}, items.TypeAliases[0].Generics)
	assert.Equal(t, "Crate result.", items.TypeAliases[0].Doc)
	assert.Empty(t, items.TypeAliases[1].Generics)
	assert.NotNil(t, items.TypeAliases[1].Generics)

	require.Len(t, items.Constants, 1)
	assert.Equal(t, model.Constant{Name: "MAX", Type: "usize", IsPub: true, Doc: "Maximum size."}, items.Constants[0])

	require.Len(t, items.Statics, 2)
	assert.Equal(t, "&str", items.Statics[0].Type)
	assert.False(t, items.Statics[0].IsMut)
	assert.Equal(t, "COUNTER", items.Statics[1].Name)
	assert.True(t, items.Statics[1].IsMut)

	require.Len(t, items.Macros, 2)
	assert.Equal(t, model.Macro{Name: "claims", Doc: "Builds claims.", IsExported: true}, items.Macros[0])
	assert.Equal(t, "inner", items.Macros[1].Name)
}

func TestVisitor_DocComments(t *testing.T) {
	t.Parallel()

	items := extractItems(t, `
/// First line.
///    Indented second.
#[derive(Debug)]
#[doc = " From attribute "]
pub struct Attributed;

/** Block doc */
pub struct Block;

//// Not a doc comment.
// Plain comment.
pub struct Undocumented;

/// Separated by a plain comment.
// plain
pub struct Mixed;
`)

	require.Len(t, items.Structs, 4)
	assert.Equal(t, "First line.\nIndented second.\nFrom attribute", items.Structs[0].Doc)
	assert.Equal(t, "Block doc", items.Structs[1].Doc)
	assert.Equal(t, "", items.Structs[2].Doc)
	assert.Equal(t, "Separated by a plain comment.", items.Structs[3].Doc)
}

func TestVisitor_NestedItems(t *testing.T) {
	t.Parallel()

	src := `
pub fn outer() {
    pub struct InFunction;
    fn helper() {}
    let _ = || {
        pub const IN_CLOSURE: u8 = 1;
    };
}

mod private_mod {
    pub fn inside() {}
}

pub mod inline {
    pub const X: u8 = 1;

    pub mod deeper {
        pub static Y: u8 = 2;
    }
}

pub trait Greeter {
    fn greet(&self) {
        pub enum InTrait { A }
    }
    fn required(&self);
}

pub struct S;

impl S {
    pub fn method(&self) {
        pub type InMethod = u8;
    }
}

pub mod declared_elsewhere;
`

	t.Run("file level", func(t *testing.T) {
		t.Parallel()

		items := extractItems(t, src)

		assert.Equal(t, []string{"outer", "inside"}, functionNames(items.Functions))
		require.Len(t, items.Structs, 2)
		assert.Equal(t, "InFunction", items.Structs[0].Name)
		require.Len(t, items.Constants, 2)
		assert.Equal(t, "IN_CLOSURE", items.Constants[0].Name)
		assert.Equal(t, "X", items.Constants[1].Name)
		require.Len(t, items.Enums, 1)
		assert.Equal(t, "InTrait", items.Enums[0].Name)
		require.Len(t, items.TypeAliases, 1)
		assert.Equal(t, "InMethod", items.TypeAliases[0].Name)

		for _, path := range items.ModulePaths() {
			assert.Equal(t, "", path)
		}
	})

	t.Run("nested module paths", func(t *testing.T) {
		t.Parallel()

		items := extractItems(t, src, WithNestedModulePaths(true))

		require.Len(t, items.Functions, 2)
		assert.Equal(t, "", items.Functions[0].ModulePath)
		assert.Equal(t, "private_mod", items.Functions[1].ModulePath)
		assert.Equal(t, "inline", items.Constants[1].ModulePath)
		require.Len(t, items.Statics, 1)
		assert.Equal(t, "inline::deeper", items.Statics[0].ModulePath)
	})
}

func TestExtractSource_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := New().ExtractSource("src/broken.rs", []byte("pub fn ok() {}\n\npub fn broken(a: u32 {\n"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "src/broken.rs", syntaxErr.Path)
	assert.GreaterOrEqual(t, syntaxErr.Line, 3)
	assert.GreaterOrEqual(t, syntaxErr.Column, 1)
	assert.NotEmpty(t, syntaxErr.Message)
	assert.Contains(t, err.Error(), "src/broken.rs:")
	assert.Contains(t, err.Error(), "invalid rust syntax")
}

func TestExtractSource_Idempotent(t *testing.T) {
	t.Parallel()

	src := []byte(`
pub use serde::{Serialize, Deserialize};
pub struct A { pub x: u8 }
impl A { pub fn new() -> Self { A { x: 0 } } }
pub fn f(a: impl Into<String>) {}
`)

	first, err := New().ExtractSource("a.rs", src, "m")
	require.NoError(t, err)
	second, err := New().ExtractSource("a.rs", src, "m")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/crate/src/jws/hmac.rs", []byte("pub fn sign() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/crate/src/bad.rs", []byte("pub struct {"), 0o644))

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		crate, err := New().ExtractFile(fs, "/crate/src/jws/hmac.rs")
		require.NoError(t, err)
		assert.Equal(t, "hmac", crate.Name)
		assert.Equal(t, []string{"sign"}, functionNames(crate.Functions))
		assert.Equal(t, "", crate.Functions[0].ModulePath)
		assert.Empty(t, crate.AvailableFeatures)
		assert.Empty(t, crate.DefaultFeatures)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		crate, err := New().ExtractFile(fs, "/crate/src/missing.rs")
		assert.Nil(t, crate)
		assert.True(t, errors.Is(err, ErrRead))
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		crate, err := New().ExtractFile(fs, "/crate/src/bad.rs")
		assert.Nil(t, crate)
		assert.True(t, errors.Is(err, ErrSyntax))
	})
}

func TestCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Check("ok.rs", []byte("fn main() { println!(\"hi\"); }")))
	assert.NoError(t, Check("empty.rs", []byte("")))

	err := Check("bad.rs", []byte("fn main( {"))
	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 1, syntaxErr.Line)
}

func TestExtract_TypeAliasBoundedGenerics(t *testing.T) {
	t.Parallel()

	items := extractItems(t, "pub type Handler<E: Clone + Send, T> = fn(E) -> T;\n")

	require.Len(t, items.TypeAliases, 1)
	assert.Equal(t, []string{"E:Clone+Send", "T"}, items.TypeAliases[0].Generics)
	assert.Equal(t, "fn(E)->T", items.TypeAliases[0].TargetType)
}
