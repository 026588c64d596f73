package model

import "strings"

type SymbolKind int

const (
	KindClass SymbolKind = iota
	KindFunction
	KindVariable
	KindTypeAlias
	KindEnum
	KindProtocol
	KindTypedDict
)

func (k SymbolKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	case KindTypeAlias:
		return "type alias"
	case KindEnum:
		return "enum"
	case KindProtocol:
		return "protocol"
	case KindTypedDict:
		return "typed dict"
	default:
		return "unknown"
	}
}

// HasPage reports whether top-level symbols of this kind get their own page.
func (k SymbolKind) HasPage() bool {
	switch k {
	case KindClass, KindEnum, KindProtocol, KindTypedDict:
		return true
	}
	return false
}

type Completeness int

const (
	Complete Completeness = iota
	// Degraded symbols were recognized but parts of their declaration could
	// not be decomposed; Raw holds the declaration text.
	Degraded
	// Opaque symbols are known by name only.
	Opaque
)

func (c Completeness) String() string {
	switch c {
	case Degraded:
		return "degraded"
	case Opaque:
		return "opaque"
	default:
		return "complete"
	}
}

type Decorator struct {
	Name string
	Args string // argument text without the enclosing parentheses
}

func (d Decorator) String() string {
	if d.Args == "" {
		return "@" + d.Name
	}
	return "@" + d.Name + "(" + d.Args + ")"
}

// Base name with any module prefix dropped, e.g. "typing.overload" -> "overload".
func (d Decorator) Base() string {
	if i := strings.LastIndexByte(d.Name, '.'); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamKeywordOnly
	ParamVarPositional
	ParamVarKeyword
)

type Param struct {
	Name       string
	Type       TypeRef
	HasDefault bool
	Default    string
	Kind       ParamKind
}

type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return "invariant"
	}
}

type TypeParam struct {
	Name        string
	Variance    Variance
	Bound       TypeRef
	Constraints []TypeRef
}

type Signature struct {
	Params     []Param
	Returns    TypeRef
	TypeParams []TypeParam
	Async      bool
}

// Overload is one @overload-marked variant of a function.
type Overload struct {
	Signature Signature
	Doc       Docstring
	Line      int
}

type Variant struct {
	Name  string
	Value string
	Doc   string
}

// Field is a synthesized dataclass field or a TypedDict key.
type Field struct {
	Name       string
	Type       TypeRef
	HasDefault bool
	Default    string
	Required   bool
}

type Flags uint16

const (
	FlagProperty Flags = 1 << iota
	FlagStaticMethod
	FlagClassMethod
	FlagRuntimeCheckable
	FlagDataclass
	FlagAbstract
	FlagConstructor
)

type Location struct {
	Path string
	Line int
}

// RustBinding names the Rust item a compiled symbol is implemented by.
type RustBinding struct {
	Item     string // e.g. "RsCounter::add"
	Kind     string // struct, enum, field, fn or method
	Location Location
}

type Symbol struct {
	Kind          SymbolKind
	Name          string
	QualifiedName string
	Module        string
	Decorators    []Decorator
	Doc           Docstring
	Provenance    Provenance
	Completeness  Completeness
	Raw           string
	Location      Location
	Flags         Flags

	Bases      []TypeRef
	TypeParams []TypeParam
	Members    []*Symbol

	// Signature is the implementation signature of a function. It is nil
	// when a function is only declared through overloads.
	Signature *Signature
	Overloads []Overload

	// Type is the annotation of a variable or the value of a type alias.
	Type  TypeRef
	Value string

	Variants []Variant
	Fields   []Field
	Total    bool

	// Binding is set for symbols extracted from a PyO3 crate and survives
	// merging with a stub overlay.
	Binding *RustBinding
}

func (s *Symbol) Has(f Flags) bool { return s.Flags&f != 0 }

// Decorated reports whether a decorator with the given base name is applied.
func (s *Symbol) Decorated(name string) bool {
	for _, d := range s.Decorators {
		if d.Base() == name {
			return true
		}
	}
	return false
}

// SharedDoc is the docstring an overload group renders once: the
// implementation's when it has one, otherwise the first overload's.
func (s *Symbol) SharedDoc() Docstring {
	if s.Signature != nil && !s.Doc.Empty() {
		return s.Doc
	}
	for _, o := range s.Overloads {
		if !o.Doc.Empty() {
			return o.Doc
		}
	}
	return s.Doc
}

// Capabilities lists the methods a protocol requires.
func (s *Symbol) Capabilities() []*Symbol {
	if s.Kind != KindProtocol {
		return nil
	}
	var out []*Symbol
	for _, m := range s.Members {
		if m.Kind == KindFunction {
			out = append(out, m)
		}
	}
	return out
}

// Member finds a direct member by declared name.
func (s *Symbol) Member(name string) *Symbol {
	for _, m := range s.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Walk visits s and its nested members depth-first in declaration order.
func (s *Symbol) Walk(fn func(sym *Symbol, parent *Symbol)) {
	var visit func(sym, parent *Symbol)
	visit = func(sym, parent *Symbol) {
		fn(sym, parent)
		for _, m := range sym.Members {
			visit(m, sym)
		}
	}
	visit(s, nil)
}

// Qualify joins a parent qualified name and a declared name.
func Qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// IsPrivate reports single-underscore names; dunder names are public.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_") && !(strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))
}
