package parser

import (
	"strings"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/docstring"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// RustExtractor reads the Python-facing surface of a PyO3 crate: pyclasses,
// their #[pymethods], free #[pyfunction]s and the #[pymodule] name.
type RustExtractor struct{}

type rustUnit struct {
	path   string
	source []byte
	root   *sitter.Node
}

// rustAttr is one `#[name(args)]` attribute.
type rustAttr struct {
	name string
	args string
}

// rustItem is a declaration with the attributes and doc comments that
// precede it.
type rustItem struct {
	node  *sitter.Node
	attrs []rustAttr
	doc   []string
}

func (it rustItem) attr(name string) (rustAttr, bool) {
	for _, a := range it.attrs {
		if a.name == name || strings.HasSuffix(a.name, "::"+name) {
			return a, true
		}
	}
	return rustAttr{}, false
}

func (it rustItem) has(name string) bool {
	_, ok := it.attr(name)
	return ok
}

// pyName is the Python-visible name set through `name = "..."` on the given
// attribute or on #[pyo3(...)].
func (it rustItem) pyName(attr, fallback string) string {
	for _, name := range []string{attr, "pyo3"} {
		a, ok := it.attr(name)
		if !ok {
			continue
		}
		for _, part := range typeexpr.SplitTopLevel(a.args, ',') {
			if k, v, found := strings.Cut(part, "="); found && strings.TrimSpace(k) == "name" {
				return strings.Trim(strings.TrimSpace(v), `"`)
			}
		}
	}
	return fallback
}

type rustState struct {
	ctx     *ExtractionContext
	module  string
	mapper  rustTypeMapper
	classes map[string]*model.Symbol // by Rust type name
	order   []*model.Symbol
	funcs   []*model.Symbol
	doc     model.Docstring
}

func (e *RustExtractor) Extract(ctx *ExtractionContext, units []rustUnit, moduleOverride string) *Parsed {
	st := &rustState{ctx: ctx, classes: make(map[string]*model.Symbol), mapper: rustTypeMapper{classes: make(map[string]string)}}

	// First pass: module name and class names, so types in any file map to
	// the Python class names.
	for _, u := range units {
		e.use(ctx, u)
		e.items(ctx, u.root, func(it rustItem) {
			switch it.node.Kind() {
			case "function_item":
				if it.has("pymodule") && st.module == "" {
					st.module = it.pyName("pymodule", ctx.FieldText(it.node, "name"))
					st.doc = rustDoc(it.doc)
				}
			case "struct_item", "enum_item":
				if it.has("pyclass") {
					rustName := ctx.FieldText(it.node, "name")
					st.mapper.classes[rustName] = it.pyName("pyclass", rustName)
				}
			}
		})
	}
	if moduleOverride != "" {
		st.module = moduleOverride
	}
	parsed := &Parsed{QualifiedName: st.module, Arena: ctx.Arena, Doc: st.doc}
	if st.module == "" {
		return parsed
	}
	ctx.Module = st.module

	for _, u := range units {
		e.use(ctx, u)
		e.items(ctx, u.root, func(it rustItem) {
			switch it.node.Kind() {
			case "struct_item", "enum_item":
				if it.has("pyclass") {
					e.class(st, it)
				}
			}
		})
	}
	for _, u := range units {
		e.use(ctx, u)
		e.items(ctx, u.root, func(it rustItem) {
			switch it.node.Kind() {
			case "impl_item":
				if it.has("pymethods") {
					e.methods(st, it)
				}
			case "function_item":
				if it.has("pyfunction") {
					if fn := e.function(st, it, st.module, false); fn != nil {
						st.funcs = append(st.funcs, fn)
					}
				}
			}
		})
	}

	parsed.Symbols = append(parsed.Symbols, st.order...)
	parsed.Symbols = append(parsed.Symbols, st.funcs...)
	return parsed
}

func (e *RustExtractor) use(ctx *ExtractionContext, u rustUnit) {
	ctx.Source = u.source
	ctx.Path = u.path
}

// items visits declarations in block, recursing into inline modules, with
// the attributes and `///` comments that precede each one.
func (e *RustExtractor) items(ctx *ExtractionContext, block *sitter.Node, fn func(rustItem)) {
	if block == nil {
		return
	}
	var pending rustItem
	for i := uint(0); i < block.NamedChildCount(); i++ {
		child := block.NamedChild(i)
		switch child.Kind() {
		case "attribute_item":
			pending.attrs = append(pending.attrs, parseRustAttr(ctx.Text(child)))
			continue
		case "line_comment":
			text := ctx.Text(child)
			if strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////") {
				line := strings.TrimRight(strings.TrimPrefix(text, "///"), "\r\n")
				pending.doc = append(pending.doc, strings.TrimPrefix(line, " "))
			}
			continue
		case "block_comment":
			continue
		case "mod_item":
			e.items(ctx, child.ChildByFieldName("body"), fn)
		default:
			pending.node = child
			fn(pending)
		}
		pending = rustItem{}
	}
}

func parseRustAttr(text string) rustAttr {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "#")
	text = strings.TrimPrefix(text, "!")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	name, args, found := strings.Cut(text, "(")
	if !found {
		return rustAttr{name: strings.TrimSpace(name)}
	}
	return rustAttr{name: strings.TrimSpace(name), args: strings.TrimSuffix(strings.TrimSpace(args), ")")}
}

func rustDoc(lines []string) model.Docstring {
	if len(lines) == 0 {
		return model.Docstring{}
	}
	return docstring.Parse(strings.Join(lines, "\n"))
}

func (e *RustExtractor) class(st *rustState, it rustItem) {
	ctx := st.ctx
	rustName := ctx.FieldText(it.node, "name")
	name := st.mapper.classes[rustName]
	pyclass, _ := it.attr("pyclass")
	sym := &model.Symbol{
		Kind:          model.KindClass,
		Name:          name,
		QualifiedName: model.Qualify(st.module, name),
		Module:        st.module,
		Decorators:    []model.Decorator{{Name: "pyclass", Args: pyclass.args}},
		Doc:           rustDoc(it.doc),
		Provenance:    model.CompiledProvenance(),
		Location:      ctx.Location(it.node),
		Total:         true,
		Binding:       &model.RustBinding{Item: rustName, Kind: "struct", Location: ctx.Location(it.node)},
	}
	getAll := strings.Contains(pyclass.args, "get_all")

	body := it.node.ChildByFieldName("body")
	if it.node.Kind() == "enum_item" {
		sym.Kind = model.KindEnum
		sym.Binding.Kind = "enum"
		e.items(ctx, body, func(v rustItem) {
			if v.node.Kind() != "enum_variant" {
				return
			}
			sym.Variants = append(sym.Variants, model.Variant{
				Name:  ctx.FieldText(v.node, "name"),
				Value: strings.TrimSpace(ctx.FieldText(v.node, "value")),
				Doc:   rustDoc(v.doc).Summary,
			})
		})
	} else if body != nil && body.Kind() == "field_declaration_list" {
		e.items(ctx, body, func(f rustItem) {
			if f.node.Kind() != "field_declaration" {
				return
			}
			pyo3, _ := f.attr("pyo3")
			if !getAll && !strings.Contains(pyo3.args, "get") {
				return
			}
			e.fieldProperty(st, sym, f)
		})
	}
	st.classes[rustName] = sym
	st.order = append(st.order, sym)
}

func (e *RustExtractor) fieldProperty(st *rustState, class *model.Symbol, f rustItem) {
	ctx := st.ctx
	name := f.pyName("pyo3", ctx.FieldText(f.node, "name"))
	prop := &model.Symbol{
		Kind:          model.KindFunction,
		Name:          name,
		QualifiedName: model.Qualify(class.QualifiedName, name),
		Module:        st.module,
		Decorators:    []model.Decorator{{Name: "property"}},
		Doc:           rustDoc(f.doc),
		Provenance:    model.CompiledProvenance(),
		Location:      ctx.Location(f.node),
		Flags:         model.FlagProperty,
		Signature:     &model.Signature{},
		Binding: &model.RustBinding{
			Item:     class.Binding.Item + "::" + ctx.FieldText(f.node, "name"),
			Kind:     "field",
			Location: ctx.Location(f.node),
		},
	}
	mapper := st.mapper
	mapper.self = class.Name
	e.annotateRust(st, prop, f.node, &prop.Signature.Returns, ctx.FieldText(f.node, "type"), mapper)
	class.Members = append(class.Members, prop)
}

func (e *RustExtractor) methods(st *rustState, it rustItem) {
	ctx := st.ctx
	typ := ctx.FieldText(it.node, "type")
	typ, _ = splitRustGeneric(typ)
	class, ok := st.classes[typ]
	if !ok {
		ctx.Report(diagnostics.DegradedSymbol, ctx.Line(it.node), typ, "#[pymethods] on a type without #[pyclass]")
		return
	}
	e.items(ctx, it.node.ChildByFieldName("body"), func(m rustItem) {
		if m.node.Kind() != "function_item" || m.has("setter") {
			return
		}
		if fn := e.function(st, m, class.QualifiedName, true); fn != nil {
			fn.Binding.Item = typ + "::" + fn.Binding.Item
			fn.Binding.Kind = "method"
			class.Members = append(class.Members, fn)
		}
	})
}

// function converts a #[pyfunction] or a #[pymethods] member.
func (e *RustExtractor) function(st *rustState, it rustItem, parent string, method bool) *model.Symbol {
	ctx := st.ctx
	rustName := ctx.FieldText(it.node, "name")
	name := it.pyName("pyfunction", rustName)
	sym := &model.Symbol{
		Kind:       model.KindFunction,
		Module:     st.module,
		Doc:        rustDoc(it.doc),
		Provenance: model.CompiledProvenance(),
		Location:   ctx.Location(it.node),
		Binding:    &model.RustBinding{Item: rustName, Kind: "fn", Location: ctx.Location(it.node)},
	}
	mapper := st.mapper
	if method {
		mapper.self = lastSegment(parent)
		switch {
		case it.has("new"):
			name = "__init__"
			sym.Flags |= model.FlagConstructor
		case it.has("getter"):
			getter, _ := it.attr("getter")
			if strings.TrimSpace(getter.args) != "" {
				name = strings.Trim(strings.TrimSpace(getter.args), `"`)
			} else {
				name = strings.TrimPrefix(rustName, "get_")
			}
			sym.Flags |= model.FlagProperty
			sym.Decorators = append(sym.Decorators, model.Decorator{Name: "property"})
		case it.has("staticmethod"):
			sym.Flags |= model.FlagStaticMethod
			sym.Decorators = append(sym.Decorators, model.Decorator{Name: "staticmethod"})
		case it.has("classmethod"):
			sym.Flags |= model.FlagClassMethod
			sym.Decorators = append(sym.Decorators, model.Decorator{Name: "classmethod"})
		}
	}
	sym.Name = name
	sym.QualifiedName = model.Qualify(parent, name)

	sig := &model.Signature{Async: hasRustModifier(ctx, it.node, "async")}
	var pyo3Sig []sigEntry
	if a, ok := it.attr("pyo3"); ok {
		pyo3Sig = parsePyo3Signature(a.args)
	}
	skipReceiver := method && (sym.Has(model.FlagClassMethod) || !sym.Has(model.FlagStaticMethod))
	params := it.node.ChildByFieldName("parameters")
	for i := uint(0); params != nil && i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		switch p.Kind() {
		case "self_parameter":
			continue
		case "parameter":
		default:
			continue
		}
		pname := strings.TrimPrefix(ctx.FieldText(p, "pattern"), "mut ")
		ptype := ctx.FieldText(p, "type")
		if isPythonToken(ptype) {
			continue
		}
		if skipReceiver {
			skipReceiver = false
			if pname == "slf" || pname == "cls" || strings.Contains(ptype, "Self") || strings.Contains(ptype, "PyType") {
				continue
			}
		}
		param := model.Param{Name: pname, Kind: model.ParamPositional}
		if strings.HasPrefix(ptype, "Option<") {
			param.HasDefault, param.Default = true, typeexpr.NoneName
		}
		e.annotateRust(st, sym, it.node, &param.Type, ptype, mapper)
		sig.Params = append(sig.Params, param)
	}
	if len(pyo3Sig) > 0 {
		sig.Params = applyPyo3Signature(sig.Params, pyo3Sig)
	}
	if !sym.Has(model.FlagConstructor) {
		if ret := ctx.FieldText(it.node, "return_type"); ret != "" {
			e.annotateRust(st, sym, it.node, &sig.Returns, ret, mapper)
		} else {
			sig.Returns = ctx.Arena.Ref(typeexpr.Name(ctx.Arena, typeexpr.NoneName))
		}
	}
	sym.Signature = sig
	return sym
}

func hasRustModifier(ctx *ExtractionContext, fn *sitter.Node, mod string) bool {
	for i := uint(0); i < fn.ChildCount(); i++ {
		c := fn.Child(i)
		if c.Kind() == "function_modifiers" {
			return strings.Contains(ctx.Text(c), mod)
		}
	}
	return false
}

func isPythonToken(rustType string) bool {
	name, _ := splitRustGeneric(stripRustRef(rustType))
	return name == "Python" || strings.HasSuffix(name, "::Python")
}

func (e *RustExtractor) annotateRust(st *rustState, sym *model.Symbol, decl *sitter.Node, target *model.TypeRef, rustType string, mapper rustTypeMapper) {
	text, ok := mapper.Map(rustType)
	var id model.TypeID
	if ok {
		id, ok = typeexpr.Interpret(st.ctx.Arena, text)
	} else {
		id = typeexpr.Opaque(st.ctx.Arena, strings.TrimSpace(rustType))
	}
	*target = st.ctx.Arena.Ref(id)
	if !ok && sym.Completeness == model.Complete {
		sym.Completeness = model.Degraded
		sym.Raw = firstLine(st.ctx.Text(decl))
		st.ctx.Report(diagnostics.DegradedSymbol, sym.Location.Line, sym.QualifiedName, "Rust type has no Python equivalent: "+shorten(rustType, 60))
	}
}

// sigEntry is one entry of a #[pyo3(signature = (...))] list.
type sigEntry struct {
	name       string
	def        string
	hasDefault bool
	kind       model.ParamKind
	separator  bool
}

func parsePyo3Signature(args string) []sigEntry {
	i := strings.Index(args, "signature")
	if i < 0 {
		return nil
	}
	rest := args[i+len("signature"):]
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil
	}
	depth := 0
	end := -1
	for j := open; j < len(rest) && end < 0; j++ {
		switch rest[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				end = j
			}
		}
	}
	if end < 0 {
		return nil
	}
	var out []sigEntry
	for _, part := range typeexpr.SplitTopLevel(rest[open+1:end], ',') {
		switch {
		case part == "*":
			out = append(out, sigEntry{separator: true, kind: model.ParamKeywordOnly})
		case part == "/":
			continue
		case strings.HasPrefix(part, "**"):
			out = append(out, sigEntry{name: strings.TrimSpace(part[2:]), kind: model.ParamVarKeyword})
		case strings.HasPrefix(part, "*"):
			out = append(out, sigEntry{name: strings.TrimSpace(part[1:]), kind: model.ParamVarPositional})
		default:
			name, def, found := strings.Cut(part, "=")
			out = append(out, sigEntry{name: strings.TrimSpace(name), def: strings.TrimSpace(def), hasDefault: found})
		}
	}
	return out
}

// applyPyo3Signature reorders params to the declared Python signature and
// applies its defaults and parameter kinds.
func applyPyo3Signature(params []model.Param, sig []sigEntry) []model.Param {
	byName := make(map[string]model.Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}
	out := make([]model.Param, 0, len(params))
	keywordOnly := false
	for _, entry := range sig {
		if entry.separator {
			keywordOnly = true
			continue
		}
		p, ok := byName[entry.name]
		if !ok {
			p = model.Param{Name: entry.name}
		}
		delete(byName, entry.name)
		p.Kind = entry.kind
		p.HasDefault, p.Default = entry.hasDefault, shorten(entry.def, 60)
		switch p.Kind {
		case model.ParamVarPositional:
			keywordOnly = true
		case model.ParamPositional:
			if keywordOnly {
				p.Kind = model.ParamKeywordOnly
			}
		}
		out = append(out, p)
	}
	// Parameters the signature does not mention keep their Rust order.
	for _, p := range params {
		if _, ok := byName[p.Name]; ok {
			out = append(out, p)
		}
	}
	return out
}
