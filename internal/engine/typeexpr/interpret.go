// Package typeexpr interprets Python annotation text into arena-allocated
// type expression trees without evaluating it.
package typeexpr

import (
	"strings"

	"apiscribe/internal/engine/model"
)

// NoneName is the marker a union uses for the absent value.
const NoneName = "None"

// Interpret parses annotation text into arena nodes. Constructs outside the
// annotation grammar produce a single Opaque node and ok=false. Empty text
// yields model.NoType.
func Interpret(arena *model.TypeArena, text string) (model.TypeID, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.NoType, true
	}
	p := &parser{arena: arena, toks: lex(text)}
	id, ok := p.parseUnion()
	if ok && p.peek().kind != tokEOF {
		ok = false
	}
	if !ok {
		return Opaque(arena, text), false
	}
	return id, true
}

// Opaque adds a raw-text node.
func Opaque(arena *model.TypeArena, raw string) model.TypeID {
	return arena.Add(model.TypeNode{Kind: model.TypeOpaque, Name: raw, Base: model.NoType, Return: model.NoType})
}

// Name adds a plain name node.
func Name(arena *model.TypeArena, name string) model.TypeID {
	return arena.Add(model.TypeNode{Kind: model.TypeName, Name: name, Base: model.NoType, Return: model.NoType})
}

type parser struct {
	arena *model.TypeArena
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind) bool {
	if p.peek().kind != kind {
		return false
	}
	p.next()
	return true
}

func (p *parser) parseUnion() (model.TypeID, bool) {
	first, ok := p.parsePrimary()
	if !ok {
		return model.NoType, false
	}
	if p.peek().kind != tokPipe {
		return first, true
	}
	members := []model.TypeID{first}
	for p.peek().kind == tokPipe {
		p.next()
		id, ok := p.parsePrimary()
		if !ok {
			return model.NoType, false
		}
		members = append(members, id)
	}
	return p.union(members), true
}

func (p *parser) parsePrimary() (model.TypeID, bool) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.next()
		return p.forwardRef(unquote(t.text))
	case tokEllipsis:
		p.next()
		return Name(p.arena, "..."), true
	case tokName:
		name := p.dottedName()
		if p.peek().kind != tokLBracket {
			return Name(p.arena, name), true
		}
		p.next()
		return p.subscript(name)
	default:
		return model.NoType, false
	}
}

func (p *parser) dottedName() string {
	var b strings.Builder
	b.WriteString(p.next().text)
	for p.peek().kind == tokDot && p.toks[p.pos+1].kind == tokName {
		p.next()
		b.WriteByte('.')
		b.WriteString(p.next().text)
	}
	return b.String()
}

// forwardRef interprets quoted annotation text. A bare name stays a forward
// reference; anything richer is interpreted as if unquoted.
func (p *parser) forwardRef(inner string) (model.TypeID, bool) {
	inner = strings.TrimSpace(inner)
	if isDottedName(inner) {
		return p.arena.Add(model.TypeNode{Kind: model.TypeForwardRef, Name: inner, Base: model.NoType, Return: model.NoType}), true
	}
	sub := &parser{arena: p.arena, toks: lex(inner)}
	id, ok := sub.parseUnion()
	if !ok || sub.peek().kind != tokEOF {
		return model.NoType, false
	}
	return id, true
}

func (p *parser) subscript(base string) (model.TypeID, bool) {
	switch lastSegment(base) {
	case "Union":
		args, ok := p.argList()
		if !ok || len(args) == 0 {
			return model.NoType, false
		}
		return p.union(args), true
	case "Optional":
		args, ok := p.argList()
		if !ok || len(args) != 1 {
			return model.NoType, false
		}
		return p.union([]model.TypeID{args[0], Name(p.arena, NoneName)}), true
	case "Callable":
		return p.callable()
	case "Literal":
		return p.literal()
	case "Annotated":
		return p.annotated()
	}
	args, ok := p.argList()
	if !ok {
		return model.NoType, false
	}
	return p.arena.Add(model.TypeNode{
		Kind:   model.TypeGeneric,
		Base:   Name(p.arena, base),
		Args:   args,
		Return: model.NoType,
	}), true
}

// argList parses comma separated types up to and including the closing bracket.
func (p *parser) argList() ([]model.TypeID, bool) {
	var args []model.TypeID
	for {
		if p.peek().kind == tokRBracket {
			p.next()
			return args, true
		}
		id, ok := p.parseUnion()
		if !ok {
			return nil, false
		}
		args = append(args, id)
		switch p.peek().kind {
		case tokComma:
			p.next()
		case tokRBracket:
		default:
			return nil, false
		}
	}
}

func (p *parser) callable() (model.TypeID, bool) {
	n := model.TypeNode{Kind: model.TypeCallable, Base: model.NoType, Return: model.NoType}
	switch t := p.peek(); {
	case t.kind == tokLBracket:
		p.next()
		params, ok := p.argList()
		if !ok {
			return model.NoType, false
		}
		n.Params = params
	case t.kind == tokEllipsis:
		p.next()
		n.Ellipsis = true
	case t.kind == tokName:
		name := p.dottedName()
		if p.peek().kind == tokLBracket {
			if lastSegment(name) != "Concatenate" {
				return model.NoType, false
			}
			p.next()
			args, ok := p.argList()
			if !ok || len(args) < 2 {
				return model.NoType, false
			}
			tail := p.arena.Node(args[len(args)-1])
			switch {
			case tail.Kind == model.TypeName && tail.Name == "...":
				n.Ellipsis = true
			case tail.Kind == model.TypeName:
				n.ParamSpec = tail.Name
			default:
				return model.NoType, false
			}
			n.Params = args[:len(args)-1]
			n.Concatenate = true
		} else {
			n.ParamSpec = name
		}
	default:
		return model.NoType, false
	}
	if !p.expect(tokComma) {
		return model.NoType, false
	}
	ret, ok := p.parseUnion()
	if !ok || !p.expect(tokRBracket) {
		return model.NoType, false
	}
	n.Return = ret
	return p.arena.Add(n), true
}

func (p *parser) literal() (model.TypeID, bool) {
	var values []string
	for {
		t := p.next()
		switch t.kind {
		case tokString, tokNumber:
			values = append(values, t.text)
		case tokName:
			p.pos--
			values = append(values, p.dottedName())
		case tokRBracket:
			if len(values) == 0 {
				return model.NoType, false
			}
			return p.arena.Add(model.TypeNode{Kind: model.TypeLiteral, Values: values, Base: model.NoType, Return: model.NoType}), true
		default:
			return model.NoType, false
		}
		switch p.peek().kind {
		case tokComma:
			p.next()
		case tokRBracket:
		default:
			return model.NoType, false
		}
	}
}

// annotated keeps the underlying type and skips the metadata arguments.
func (p *parser) annotated() (model.TypeID, bool) {
	id, ok := p.parseUnion()
	if !ok {
		return model.NoType, false
	}
	depth := 1
	for depth > 0 {
		switch p.next().kind {
		case tokLBracket:
			depth++
		case tokRBracket:
			depth--
		case tokEOF:
			return model.NoType, false
		}
	}
	return id, true
}

// union flattens nested unions, drops duplicates by canonical text and
// normalizes a two-member union containing None to Optional.
func (p *parser) union(members []model.TypeID) model.TypeID {
	var flat []model.TypeID
	var expand func(id model.TypeID)
	expand = func(id model.TypeID) {
		n := p.arena.Node(id)
		switch n.Kind {
		case model.TypeUnion:
			for _, a := range n.Args {
				expand(a)
			}
		case model.TypeOptional:
			expand(n.Args[0])
			flat = append(flat, Name(p.arena, NoneName))
		default:
			flat = append(flat, id)
		}
	}
	for _, m := range members {
		expand(m)
	}

	seen := make(map[string]bool, len(flat))
	unique := flat[:0]
	hasNone := false
	for _, id := range flat {
		key := Format(p.arena.Ref(id))
		if seen[key] {
			continue
		}
		seen[key] = true
		if key == NoneName {
			hasNone = true
		}
		unique = append(unique, id)
	}

	switch {
	case len(unique) == 1:
		return unique[0]
	case len(unique) == 2 && hasNone:
		other := unique[0]
		if Format(p.arena.Ref(other)) == NoneName {
			other = unique[1]
		}
		return p.arena.Add(model.TypeNode{Kind: model.TypeOptional, Args: []model.TypeID{other}, Base: model.NoType, Return: model.NoType})
	}
	return p.arena.Add(model.TypeNode{Kind: model.TypeUnion, Args: append([]model.TypeID(nil), unique...), Base: model.NoType, Return: model.NoType})
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func isDottedName(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		toks := lex(part)
		if len(toks) != 2 || toks[0].kind != tokName {
			return false
		}
	}
	return true
}
