package typeexpr

import (
	"strings"

	"apiscribe/internal/engine/model"
)

// BackRefMarker prefixes a reference that would re-enter an alias already
// being expanded.
const BackRefMarker = "↺"

// Printer renders type expressions. The zero value prints canonical text.
type Printer struct {
	// Name renders TypeName and TypeForwardRef nodes; nil writes the name.
	Name func(ref model.TypeRef, n *model.TypeNode) string
	// ExpandAliases inlines resolved aliases, emitting BackRefMarker plus the
	// name when an alias is reached again inside its own expansion.
	ExpandAliases bool
}

// Format renders canonical annotation text.
func Format(ref model.TypeRef) string {
	return Printer{}.Print(ref)
}

func (p Printer) Print(ref model.TypeRef) string {
	var b strings.Builder
	p.write(&b, ref, map[model.TypeRef]bool{})
	return b.String()
}

// PrintAlias expands an alias definition rooted at root; references back to
// root are printed as back-references.
func (p Printer) PrintAlias(root model.TypeRef) string {
	var b strings.Builder
	p.write(&b, root, map[model.TypeRef]bool{root: true})
	return b.String()
}

func (p Printer) write(b *strings.Builder, ref model.TypeRef, active map[model.TypeRef]bool) {
	n := ref.Node()
	if n == nil {
		return
	}
	switch n.Kind {
	case model.TypeName, model.TypeForwardRef:
		if p.ExpandAliases && n.Alias.Valid() {
			if active[n.Alias] {
				b.WriteString(BackRefMarker)
				b.WriteString(p.name(ref, n))
				return
			}
			active[n.Alias] = true
			p.write(b, n.Alias, active)
			delete(active, n.Alias)
			return
		}
		b.WriteString(p.name(ref, n))
	case model.TypeGeneric:
		p.write(b, ref.Child(n.Base), active)
		b.WriteByte('[')
		p.list(b, ref, n.Args, active)
		b.WriteByte(']')
	case model.TypeUnion:
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(" | ")
			}
			p.write(b, ref.Child(a), active)
		}
	case model.TypeOptional:
		p.write(b, ref.Child(n.Args[0]), active)
		b.WriteString(" | None")
	case model.TypeCallable:
		b.WriteString("Callable[")
		switch {
		case n.Concatenate:
			b.WriteString("Concatenate[")
			p.list(b, ref, n.Params, active)
			b.WriteString(", ")
			if n.Ellipsis {
				b.WriteString("...")
			} else {
				b.WriteString(n.ParamSpec)
			}
			b.WriteByte(']')
		case n.Ellipsis:
			b.WriteString("...")
		case n.ParamSpec != "":
			b.WriteString(n.ParamSpec)
		default:
			b.WriteByte('[')
			p.list(b, ref, n.Params, active)
			b.WriteByte(']')
		}
		b.WriteString(", ")
		p.write(b, ref.Child(n.Return), active)
		b.WriteByte(']')
	case model.TypeLiteral:
		b.WriteString("Literal[")
		b.WriteString(strings.Join(n.Values, ", "))
		b.WriteByte(']')
	case model.TypeOpaque:
		b.WriteString(n.Name)
	}
}

func (p Printer) list(b *strings.Builder, ref model.TypeRef, ids []model.TypeID, active map[model.TypeRef]bool) {
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		p.write(b, ref.Child(id), active)
	}
}

func (p Printer) name(ref model.TypeRef, n *model.TypeNode) string {
	if p.Name != nil {
		return p.Name(ref, n)
	}
	return n.Name
}

// Walk visits every node reachable from ref without following alias links.
func Walk(ref model.TypeRef, fn func(ref model.TypeRef, n *model.TypeNode)) {
	n := ref.Node()
	if n == nil {
		return
	}
	fn(ref, n)
	switch n.Kind {
	case model.TypeGeneric:
		Walk(ref.Child(n.Base), fn)
		for _, a := range n.Args {
			Walk(ref.Child(a), fn)
		}
	case model.TypeUnion, model.TypeOptional:
		for _, a := range n.Args {
			Walk(ref.Child(a), fn)
		}
	case model.TypeCallable:
		for _, a := range n.Params {
			Walk(ref.Child(a), fn)
		}
		Walk(ref.Child(n.Return), fn)
	}
}

// IsOpaque reports whether ref or any node beneath it is opaque.
func IsOpaque(ref model.TypeRef) bool {
	opaque := false
	Walk(ref, func(_ model.TypeRef, n *model.TypeNode) {
		if n.Kind == model.TypeOpaque {
			opaque = true
		}
	})
	return opaque
}
