package render

import (
	"fmt"
	"strings"

	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"
)

func (w *pageWriter) module(mod *model.ModuleNode) {
	w.printf("# %s\n\n", code(mod.QualifiedName))
	kind := "module"
	if mod.IsPackage {
		kind = "package"
	}
	w.badges(w.sourceBadge(mod), w.badge("kind", kind, w.theme.Muted))

	if mod.Provenance.IsOverlay() {
		w.b.WriteString(w.r.site.Backend.Admonition("note", "Overlay",
			fmt.Sprintf("Python layer over the compiled module %s.", w.moduleLink(mod.Provenance.OverlayOf))))
	}
	if mod.Origin == model.OriginExtension {
		w.b.WriteString(w.r.site.Backend.Admonition("note", "Compiled module",
			"No interface description was found. Only names imported elsewhere in the project are listed."))
	}
	w.docstring(mod.Doc, true)

	var vars, aliases, classes, funcs []*model.Symbol
	for _, sym := range mod.Symbols {
		switch {
		case sym.Kind == model.KindVariable:
			vars = append(vars, sym)
		case sym.Kind == model.KindTypeAlias:
			aliases = append(aliases, sym)
		case sym.Kind.HasPage():
			classes = append(classes, sym)
		case sym.Kind == model.KindFunction:
			funcs = append(funcs, sym)
		}
	}

	if len(vars) > 0 {
		w.b.WriteString("## Variables\n\n")
		w.variableTable(vars)
	}
	if len(aliases) > 0 {
		w.b.WriteString("## Type aliases\n\n")
		for _, sym := range aliases {
			w.alias(sym, 3)
		}
	}
	if len(classes) > 0 {
		w.b.WriteString("## Classes\n\n")
		w.b.WriteString("| Class | Kind | Summary |\n")
		w.b.WriteString("| --- | --- | --- |\n")
		for _, sym := range classes {
			name := code(sym.Name)
			if href, ok := w.linkTo(sym.QualifiedName); ok {
				name = fmt.Sprintf("[%s](%s)", name, href)
			}
			w.printf("| %s | %s | %s |\n", name, sym.Kind, cell(escape(sym.Doc.Summary)))
		}
		w.b.WriteString("\n")
	}
	if len(funcs) > 0 {
		w.b.WriteString("## Functions\n\n")
		for _, sym := range funcs {
			w.function(mod, sym, 3)
		}
	}
}

func (w *pageWriter) classPage(mod *model.ModuleNode, sym *model.Symbol) {
	w.printf("# %s\n\n", code(sym.Name))
	items := []string{w.symbolSourceBadge(mod, sym), w.badge("kind", sym.Kind.String(), w.theme.Muted)}
	if sym.Has(model.FlagDataclass) {
		items = append(items, w.badge("dataclass", "dataclass", w.theme.Accent))
	}
	if sym.Has(model.FlagRuntimeCheckable) {
		items = append(items, w.badge("runtime-checkable", "runtime checkable", w.theme.Accent))
	}
	items = append(items, w.stateBadge(sym))
	w.badges(items...)
	w.printf("Defined in %s.\n\n", w.moduleLink(mod.QualifiedName))

	w.classBody(mod, sym, 2)
}

// classBody writes everything below a class heading. Sections use level,
// members one level deeper.
func (w *pageWriter) classBody(mod *model.ModuleNode, sym *model.Symbol, level int) {
	h := strings.Repeat("#", level)
	switch sym.Completeness {
	case model.Opaque:
		w.b.WriteString(w.r.site.Backend.Admonition("note", "Opaque",
			"Known by name only: the compiled module has no interface description."))
		return
	case model.Degraded:
		w.degraded(sym)
	default:
		w.b.WriteString(fenced("python", classHeader(sym)))
	}

	if len(sym.Bases) > 0 {
		bases := make([]string, 0, len(sym.Bases))
		for _, b := range sym.Bases {
			bases = append(bases, w.typeText(b))
		}
		w.printf("**Bases:** %s\n\n", strings.Join(bases, ", "))
	}
	w.binding(sym)
	w.docstring(sym.Doc, true)
	w.raisesAndExamples(sym.Doc)

	if len(sym.Variants) > 0 {
		w.printf("%s Variants\n\n", h)
		w.b.WriteString("| Name | Value | Description |\n")
		w.b.WriteString("| --- | --- | --- |\n")
		for _, v := range sym.Variants {
			w.printf("| %s | %s | %s |\n", code(v.Name), cell(code(v.Value)), cell(escape(v.Doc)))
		}
		w.b.WriteString("\n")
	}
	if len(sym.Fields) > 0 {
		w.printf("%s Fields\n\n", h)
		w.b.WriteString("| Name | Type | Required | Default |\n")
		w.b.WriteString("| --- | --- | --- | --- |\n")
		for _, f := range sym.Fields {
			required := "no"
			if f.Required {
				required = "yes"
			}
			def := ""
			if f.HasDefault {
				def = code(f.Default)
			}
			w.printf("| %s | %s | %s | %s |\n", code(f.Name), cell(w.typeText(f.Type)), required, cell(def))
		}
		w.b.WriteString("\n")
	}
	if caps := sym.Capabilities(); len(caps) > 0 {
		w.printf("%s Capabilities\n\n", h)
		w.b.WriteString("Implementations must provide:\n\n")
		for _, c := range caps {
			w.printf("- %s\n", code(c.Name))
		}
		w.b.WriteString("\n")
	}

	var attrs, props, methods, nested []*model.Symbol
	for _, m := range sym.Members {
		switch {
		case m.Kind == model.KindFunction && m.Has(model.FlagProperty):
			props = append(props, m)
		case m.Kind == model.KindFunction:
			methods = append(methods, m)
		case m.Kind.HasPage():
			nested = append(nested, m)
		default:
			attrs = append(attrs, m)
		}
	}
	// Enum members are already listed as variants.
	if sym.Kind == model.KindEnum {
		attrs = nil
	}
	// Dataclass and TypedDict attributes are listed as fields.
	if len(sym.Fields) > 0 {
		attrs = withoutFields(attrs, sym.Fields)
	}

	if len(attrs) > 0 {
		w.printf("%s Attributes\n\n", h)
		w.variableTable(attrs)
	}
	if len(props) > 0 {
		w.printf("%s Properties\n\n", h)
		for _, p := range props {
			w.property(p, level+2)
		}
	}
	if len(methods) > 0 {
		w.printf("%s Methods\n\n", h)
		for _, m := range methods {
			w.function(mod, m, level+2)
		}
	}
	if len(nested) > 0 {
		w.printf("%s Nested classes\n\n", h)
		for _, n := range nested {
			w.printf("%s %s\n\n", strings.Repeat("#", level+2), code(n.Name))
			w.classBody(mod, n, level+3)
		}
	}
}

func withoutFields(attrs []*model.Symbol, fields []model.Field) []*model.Symbol {
	names := make(map[string]bool, len(fields))
	for _, f := range fields {
		names[f.Name] = true
	}
	var out []*model.Symbol
	for _, a := range attrs {
		if !names[a.Name] {
			out = append(out, a)
		}
	}
	return out
}

func (w *pageWriter) variableTable(vars []*model.Symbol) {
	w.b.WriteString("| Name | Type | Value | Description |\n")
	w.b.WriteString("| --- | --- | --- | --- |\n")
	for _, v := range vars {
		typ := w.typeText(v.Type)
		if v.Completeness == model.Degraded && typ == "" {
			typ = code(v.Raw)
		}
		value := ""
		if v.Value != "" {
			value = code(shorten(v.Value, 60))
		}
		w.printf("| %s | %s | %s | %s |\n", code(v.Name), cell(typ), cell(value), cell(escape(v.Doc.Summary)))
	}
	w.b.WriteString("\n")
}

// alias shows the definition and, when it mentions other aliases, the
// expansion. References back into an alias being expanded print as
// back-references so recursive aliases stay finite.
func (w *pageWriter) alias(sym *model.Symbol, level int) {
	w.printf("%s %s\n\n", strings.Repeat("#", level), code(sym.Name))
	w.badges(w.stateBadge(sym))
	if sym.Completeness == model.Degraded {
		w.degraded(sym)
	} else {
		w.b.WriteString(fenced("python", sym.Name+" = "+typeexpr.Format(sym.Type)))
		expanded := typeexpr.Printer{ExpandAliases: true}.PrintAlias(sym.Type)
		if expanded != typeexpr.Format(sym.Type) {
			w.printf("**Expands to:** %s\n\n", code(expanded))
		}
		if linked := w.typeText(sym.Type); strings.Contains(linked, "](") {
			w.printf("**References:** %s\n\n", linked)
		}
	}
	w.docstring(sym.Doc, true)
}

func (w *pageWriter) property(sym *model.Symbol, level int) {
	w.printf("%s %s\n\n", strings.Repeat("#", level), code(sym.Name))
	w.badges(w.badge("property", "property", w.theme.Accent), w.stateBadge(sym))
	if sym.Completeness == model.Degraded {
		w.degraded(sym)
	} else if sym.Signature != nil && sym.Signature.Returns.Valid() {
		w.printf("**Type:** %s\n\n", w.typeText(sym.Signature.Returns))
	}
	w.binding(sym)
	w.docstring(sym.SharedDoc(), true)
}

// function writes one entry for a function or method. Overload variants are
// listed in declaration order ahead of the implementation, followed by a
// single shared docstring.
func (w *pageWriter) function(mod *model.ModuleNode, sym *model.Symbol, level int) {
	w.printf("%s %s\n\n", strings.Repeat("#", level), code(sym.Name))

	var items []string
	if sym.Completeness == model.Opaque {
		items = append(items, w.symbolSourceBadge(mod, sym))
	}
	if isAsync(sym) {
		items = append(items, w.badge("async", "async", w.theme.Primary))
	}
	switch {
	case sym.Has(model.FlagStaticMethod):
		items = append(items, w.badge("staticmethod", "staticmethod", w.theme.Muted))
	case sym.Has(model.FlagClassMethod):
		items = append(items, w.badge("classmethod", "classmethod", w.theme.Muted))
	}
	if sym.Has(model.FlagAbstract) {
		items = append(items, w.badge("abstract", "abstract", w.theme.Muted))
	}
	if len(sym.Overloads) > 0 {
		items = append(items, w.badge("overload", fmt.Sprintf("%d overloads", len(sym.Overloads)), w.theme.Muted))
	}
	items = append(items, w.stateBadge(sym))
	w.badges(items...)

	switch sym.Completeness {
	case model.Opaque:
		w.b.WriteString("Signature unavailable: compiled symbol known by name only.\n\n")
		return
	case model.Degraded:
		w.degraded(sym)
		w.docstring(sym.SharedDoc(), false)
		return
	}

	var decls []string
	for _, o := range sym.Overloads {
		decls = append(decls, "@overload\n"+signatureText(sym.Name, o.Signature))
	}
	if sym.Signature != nil {
		var lines []string
		for _, d := range sym.Decorators {
			if d.Base() != "overload" {
				lines = append(lines, d.String())
			}
		}
		lines = append(lines, signatureText(sym.Name, *sym.Signature))
		decls = append(decls, strings.Join(lines, "\n"))
	}
	w.b.WriteString(fenced("python", strings.Join(decls, "\n\n")))
	w.binding(sym)

	doc := sym.SharedDoc()
	sig := sym.Signature
	if sig == nil && len(sym.Overloads) > 0 {
		sig = &sym.Overloads[0].Signature
	}
	w.docstring(doc, sig != nil)
	if sig != nil {
		w.parameters(*sig, doc)
		w.returns(sig.Returns, doc)
	}
	w.raisesAndExamples(doc)
}

func isAsync(sym *model.Symbol) bool {
	if sym.Signature != nil && sym.Signature.Async {
		return true
	}
	for _, o := range sym.Overloads {
		if o.Signature.Async {
			return true
		}
	}
	return false
}

// binding names the Rust item behind a compiled symbol.
func (w *pageWriter) binding(sym *model.Symbol) {
	if sym.Binding == nil {
		return
	}
	b := sym.Binding
	w.printf("**Rust implementation:** %s in %s\n\n",
		code(b.Item), code(fmt.Sprintf("%s:%d", b.Location.Path, b.Location.Line)))
}

func (w *pageWriter) degraded(sym *model.Symbol) {
	body := "The declaration could not be fully interpreted and is shown as written."
	if sym.Raw != "" {
		body += "\n\n" + strings.TrimRight(fenced("python", sym.Raw), "\n")
	}
	w.b.WriteString(w.r.site.Backend.Admonition("warning", "Degraded", body))
}

func (w *pageWriter) parameters(sig model.Signature, doc model.Docstring) {
	descs := make(map[string]string, len(doc.Args))
	for _, a := range doc.Args {
		descs[strings.TrimLeft(a.Name, "*")] = a.Text
	}
	show := false
	for _, p := range sig.Params {
		if p.Type.Valid() || descs[p.Name] != "" {
			show = true
			break
		}
	}
	if !show {
		return
	}
	w.b.WriteString("**Parameters:**\n\n")
	w.b.WriteString("| Name | Type | Default | Description |\n")
	w.b.WriteString("| --- | --- | --- | --- |\n")
	for _, p := range sig.Params {
		name := p.Name
		switch p.Kind {
		case model.ParamVarPositional:
			name = "*" + name
		case model.ParamVarKeyword:
			name = "**" + name
		}
		def := ""
		if p.HasDefault {
			def = code(p.Default)
		}
		w.printf("| %s | %s | %s | %s |\n", code(name), cell(w.typeText(p.Type)), cell(def), cell(escape(descs[p.Name])))
	}
	w.b.WriteString("\n")
}

func (w *pageWriter) returns(ret model.TypeRef, doc model.Docstring) {
	typ := w.typeText(ret)
	if typ == "" && doc.ReturnsType != "" {
		typ = code(doc.ReturnsType)
	}
	if ret.Valid() && typeexpr.Format(ret) == typeexpr.NoneName && doc.Returns == "" {
		return
	}
	switch {
	case typ != "" && doc.Returns != "":
		w.printf("**Returns:** %s: %s\n\n", typ, doc.Returns)
	case typ != "":
		w.printf("**Returns:** %s\n\n", typ)
	case doc.Returns != "":
		w.printf("**Returns:** %s\n\n", doc.Returns)
	}
}

func (w *pageWriter) raisesAndExamples(doc model.Docstring) {
	if len(doc.Raises) > 0 {
		w.b.WriteString("**Raises:**\n\n")
		for _, r := range doc.Raises {
			if r.Text == "" {
				w.printf("- %s\n", code(r.Kind))
				continue
			}
			w.printf("- %s: %s\n", code(r.Kind), r.Text)
		}
		w.b.WriteString("\n")
	}
	for _, ex := range doc.Examples {
		w.b.WriteString("**Example:**\n\n")
		w.b.WriteString(fenced("python", ex))
	}
}

// docstring writes the prose of a docstring. Arguments are listed here only
// when there is no signature to attach them to.
func (w *pageWriter) docstring(doc model.Docstring, hasSignature bool) {
	if doc.Empty() {
		return
	}
	summary, desc := doc.Summary, doc.Description
	if summary == "" && desc == "" && len(doc.Args) == 0 && doc.Returns == "" && len(doc.Raises) == 0 && len(doc.Examples) == 0 {
		desc = strings.TrimSpace(doc.Raw)
	}
	if summary != "" {
		w.b.WriteString(summary + "\n\n")
	}
	if desc != "" {
		w.b.WriteString(desc + "\n\n")
	}
	if !hasSignature && len(doc.Args) > 0 {
		w.b.WriteString("**Arguments:**\n\n")
		for _, a := range doc.Args {
			w.printf("- %s: %s\n", code(a.Name), a.Text)
		}
		w.b.WriteString("\n")
	}
}
