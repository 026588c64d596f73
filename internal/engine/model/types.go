package model

// TypeKind tags a node in a TypeArena.
type TypeKind int

const (
	TypeName TypeKind = iota
	TypeGeneric
	TypeUnion
	TypeOptional
	TypeCallable
	TypeLiteral
	TypeForwardRef
	TypeOpaque
)

func (k TypeKind) String() string {
	switch k {
	case TypeName:
		return "name"
	case TypeGeneric:
		return "generic"
	case TypeUnion:
		return "union"
	case TypeOptional:
		return "optional"
	case TypeCallable:
		return "callable"
	case TypeLiteral:
		return "literal"
	case TypeForwardRef:
		return "forward-ref"
	default:
		return "opaque"
	}
}

type TypeID int32

const NoType TypeID = -1

// TypeNode is one node of a type expression. Children are indices into the
// same arena, so recursive structures never hold language-level cycles.
type TypeNode struct {
	Kind TypeKind
	// Name is the dotted name for TypeName, the referenced name for
	// TypeForwardRef and the raw text for TypeOpaque.
	Name string
	// Base is the subscripted type of a TypeGeneric.
	Base TypeID
	// Args holds generic arguments, union members or the Optional element.
	Args   []TypeID
	Values []string // TypeLiteral

	// Callable shape. ParamSpec is a placeholder name such as "P"; with
	// Concatenate the Params are prepended to it.
	Params      []TypeID
	ParamSpec   string
	Concatenate bool
	Ellipsis    bool
	Return      TypeID

	// Filled in by the resolver.
	Target   string  // qualified name the reference resolved to
	External bool    // builtin or typing name, rendered as plain text
	Alias    TypeRef // root of the alias definition Target names
	BackRef  bool    // reference closes a cycle back to an enclosing alias
}

// TypeArena owns the nodes of every type expression in one module.
type TypeArena struct {
	nodes []TypeNode
}

func NewTypeArena() *TypeArena {
	return &TypeArena{}
}

func (a *TypeArena) Add(n TypeNode) TypeID {
	a.nodes = append(a.nodes, n)
	return TypeID(len(a.nodes) - 1)
}

func (a *TypeArena) Node(id TypeID) *TypeNode {
	if a == nil || id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}

func (a *TypeArena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.nodes)
}

func (a *TypeArena) Ref(id TypeID) TypeRef {
	if id == NoType {
		return TypeRef{}
	}
	return TypeRef{Arena: a, ID: id}
}

// TypeRef addresses a node by arena identity. It is comparable and serves as
// the key of visited sets during cycle-safe walks.
type TypeRef struct {
	Arena *TypeArena
	ID    TypeID
}

func (r TypeRef) Valid() bool {
	return r.Arena != nil && r.Arena.Node(r.ID) != nil
}

func (r TypeRef) Node() *TypeNode {
	if r.Arena == nil {
		return nil
	}
	return r.Arena.Node(r.ID)
}

// Child resolves an index found inside r's node.
func (r TypeRef) Child(id TypeID) TypeRef {
	if r.Arena == nil || id == NoType {
		return TypeRef{}
	}
	return TypeRef{Arena: r.Arena, ID: id}
}
