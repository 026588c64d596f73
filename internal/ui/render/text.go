package render

import (
	"fmt"
	"strings"

	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"
)

const maxSignatureWidth = 88

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`, "|", `\|`,
)

func escape(s string) string { return markdownEscaper.Replace(s) }

// code wraps s in a code span, widening the fence when s holds backticks.
func code(s string) string {
	if s == "" {
		return ""
	}
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// cell makes inline markdown safe inside a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func fenced(lang, body string) string {
	return "```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```\n\n"
}

// typeText renders a type expression inline. Resolved references become
// relative links; everything else is plain text, so a reference that could
// not be resolved never turns into a link.
func (w *pageWriter) typeText(ref model.TypeRef) string {
	if !ref.Valid() {
		return ""
	}
	linked := false
	text := typeexpr.Printer{Name: func(_ model.TypeRef, n *model.TypeNode) string {
		if n.Target != "" {
			if href, ok := w.linkTo(n.Target); ok {
				linked = true
				return fmt.Sprintf("[%s](%s)", escape(n.Name), href)
			}
		}
		return escape(n.Name)
	}}.Print(ref)
	if !linked {
		return code(typeexpr.Format(ref))
	}
	return text
}

// badge renders an inline label styled with the backend's theme variables.
func (w *pageWriter) badge(kind, label, color string) string {
	return fmt.Sprintf(
		`<span class="apiscribe-badge apiscribe-badge-%s" style="color: %s; background: %s; border: 1px solid %s; border-radius: 4px; padding: 0 0.4em; font-size: 0.75em;">%s</span>`,
		kind, color, w.theme.CodeBg, w.theme.Border, label)
}

func (w *pageWriter) badges(items ...string) {
	var kept []string
	for _, it := range items {
		if it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return
	}
	w.b.WriteString(strings.Join(kept, " "))
	w.b.WriteString("\n\n")
}

// sourceBadge labels where a module's information came from.
func (w *pageWriter) sourceBadge(mod *model.ModuleNode) string {
	switch mod.Origin {
	case model.OriginRust:
		return w.badge("binding", "Binding", w.theme.Binding)
	case model.OriginStub:
		return w.badge("stub", "Stub", w.theme.Muted)
	case model.OriginExtension:
		return w.badge("opaque", "Opaque", w.theme.Muted)
	default:
		return w.badge("python", "Python", w.theme.Primary)
	}
}

func (w *pageWriter) symbolSourceBadge(mod *model.ModuleNode, sym *model.Symbol) string {
	switch {
	case sym.Completeness == model.Opaque:
		return w.badge("opaque", "Opaque", w.theme.Muted)
	case sym.Provenance.IsCompiled():
		return w.sourceBadge(mod)
	default:
		return w.badge("python", "Python", w.theme.Primary)
	}
}

func (w *pageWriter) stateBadge(sym *model.Symbol) string {
	if sym.Completeness == model.Degraded {
		return w.badge("degraded", "degraded", w.theme.Warning)
	}
	return ""
}

// signatureText renders a function declaration, wrapping one parameter per
// line once it gets long.
func signatureText(name string, sig model.Signature) string {
	var params []string
	starred := false
	for _, p := range sig.Params {
		switch p.Kind {
		case model.ParamVarPositional:
			starred = true
		case model.ParamKeywordOnly:
			if !starred {
				params = append(params, "*")
				starred = true
			}
		}
		params = append(params, paramText(p))
	}

	head := "def " + name
	if sig.Async {
		head = "async " + head
	}
	if len(sig.TypeParams) > 0 {
		head += "[" + typeParamsText(sig.TypeParams) + "]"
	}
	tail := ")"
	if sig.Returns.Valid() {
		tail += " -> " + typeexpr.Format(sig.Returns)
	}
	tail += ": ..."

	line := head + "(" + strings.Join(params, ", ") + tail
	if len(line) <= maxSignatureWidth || len(params) == 0 {
		return line
	}
	var b strings.Builder
	b.WriteString(head + "(\n")
	for _, p := range params {
		b.WriteString("    " + p + ",\n")
	}
	b.WriteString(tail)
	return b.String()
}

func paramText(p model.Param) string {
	name := p.Name
	switch p.Kind {
	case model.ParamVarPositional:
		name = "*" + name
	case model.ParamVarKeyword:
		name = "**" + name
	}
	if p.Type.Valid() {
		name += ": " + typeexpr.Format(p.Type)
		if p.HasDefault {
			return name + " = " + p.Default
		}
		return name
	}
	if p.HasDefault {
		return name + "=" + p.Default
	}
	return name
}

func typeParamsText(tps []model.TypeParam) string {
	parts := make([]string, 0, len(tps))
	for _, tp := range tps {
		s := tp.Name
		switch {
		case tp.Bound.Valid():
			s += ": " + typeexpr.Format(tp.Bound)
		case len(tp.Constraints) > 0:
			cs := make([]string, 0, len(tp.Constraints))
			for _, c := range tp.Constraints {
				cs = append(cs, typeexpr.Format(c))
			}
			s += ": (" + strings.Join(cs, ", ") + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// classHeader renders `class Name[T](Base, Other):`.
func classHeader(sym *model.Symbol) string {
	var b strings.Builder
	b.WriteString("class " + sym.Name)
	if len(sym.TypeParams) > 0 && !hasGenericBase(sym) {
		b.WriteString("[" + typeParamsText(sym.TypeParams) + "]")
	}
	if len(sym.Bases) > 0 {
		bases := make([]string, 0, len(sym.Bases))
		for _, base := range sym.Bases {
			bases = append(bases, typeexpr.Format(base))
		}
		b.WriteString("(" + strings.Join(bases, ", ") + ")")
	}
	b.WriteString(": ...")
	return b.String()
}

// hasGenericBase reports whether the type parameters are already spelled
// out through Generic[...] or Protocol[...] bases.
func hasGenericBase(sym *model.Symbol) bool {
	for _, base := range sym.Bases {
		n := base.Node()
		if n == nil || n.Kind != model.TypeGeneric {
			continue
		}
		if head := base.Child(n.Base).Node(); head != nil {
			switch lastSegment(head.Name) {
			case "Generic", "Protocol":
				return true
			}
		}
	}
	return false
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func shorten(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
