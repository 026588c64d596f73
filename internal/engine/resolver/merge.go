package resolver

import (
	"fmt"
	"sort"
	"strings"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/model"
)

// mergeHybrids collapses modules sharing a qualified name, typically a
// compiled artifact and the Python overlay next to it, into one module. The
// surviving module stays in the tree; the others are removed from it.
func (r *Resolver) mergeHybrids(root *model.PackageNode) ([]*model.ModuleNode, []diagnostics.Diagnostic) {
	all := root.AllModules()
	groups := make(map[string][]*model.ModuleNode, len(all))
	var order []string
	for _, m := range all {
		if _, ok := groups[m.QualifiedName]; !ok {
			order = append(order, m.QualifiedName)
		}
		groups[m.QualifiedName] = append(groups[m.QualifiedName], m)
	}

	var diags []diagnostics.Diagnostic
	modules := make([]*model.ModuleNode, 0, len(order))
	for _, qn := range order {
		group := groups[qn]
		if len(group) == 1 {
			modules = append(modules, group[0])
			continue
		}
		primary := pickPrimary(group)
		for _, other := range group {
			if other == primary {
				continue
			}
			diags = append(diags, r.mergeInto(primary, other)...)
			root.Remove(other)
		}
		modules = append(modules, primary)
	}
	return modules, diags
}

// pickPrimary prefers a compiled module with an interface description, then
// any compiled module, then the first one found.
func pickPrimary(group []*model.ModuleNode) *model.ModuleNode {
	var compiled *model.ModuleNode
	for _, m := range group {
		if !m.Provenance.IsCompiled() {
			continue
		}
		if m.Origin != model.OriginExtension {
			return m
		}
		if compiled == nil {
			compiled = m
		}
	}
	if compiled != nil {
		return compiled
	}
	return group[0]
}

func (r *Resolver) mergeInto(primary, other *model.ModuleNode) []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic
	if primary.Doc.Empty() {
		primary.Doc = other.Doc
	}
	primary.IsPackage = primary.IsPackage || other.IsPackage
	if other.Provenance.IsCompiled() {
		primary.Provenance = model.CompiledProvenance()
	}
	primary.Imports = mergeImports(primary.Imports, other.Imports)
	primary.All = mergeNames(primary.All, other.All)
	primary.TypeVars = mergeTypeVars(primary.TypeVars, other.TypeVars)

	// Only a compiled/overlay pairing is a provenance conflict; two compiled
	// descriptions of one module keep the primary's.
	hybrid := primary.Provenance.IsCompiled() && !other.Provenance.IsCompiled()

	for _, sym := range other.Symbols {
		existing := primary.Symbol(sym.Name)
		if existing == nil {
			primary.Symbols = append(primary.Symbols, sym)
			continue
		}
		if !hybrid {
			mergeMembers(existing, sym)
			continue
		}
		winner := r.settle(existing, sym)
		if winner != existing {
			replaceSymbol(primary, existing, winner)
		}
		diags = append(diags, diagnostics.Diagnostic{
			Kind:    diagnostics.ConflictingProvenance,
			Path:    other.Path,
			Line:    sym.Location.Line,
			Subject: sym.QualifiedName,
			Message: fmt.Sprintf("declared by %s and by %s; keeping the %s declaration",
				originLabel(primary), other.Path, r.opts.Precedence),
		})
	}
	return diags
}

// settle picks the declaration shape for a name both sides declare and fills
// the gaps of the winner from the loser.
func (r *Resolver) settle(compiled, overlay *model.Symbol) *model.Symbol {
	// A name-only entry carries no shape worth keeping.
	if compiled.Completeness == model.Opaque {
		keepBinding(overlay, compiled)
		return overlay
	}
	winner, loser := compiled, overlay
	if r.opts.Precedence == PreferOverlay {
		winner, loser = overlay, compiled
	}
	if winner.Doc.Empty() {
		winner.Doc = loser.Doc
	}
	keepBinding(winner, loser)
	mergeMembers(winner, loser)
	return winner
}

// mergeMembers appends the members of from that into does not declare.
func mergeMembers(into, from *model.Symbol) {
	for _, m := range from.Members {
		if existing := into.Member(m.Name); existing != nil {
			if existing.Doc.Empty() {
				existing.Doc = m.Doc
			}
			keepBinding(existing, m)
			continue
		}
		into.Members = append(into.Members, m)
	}
}

func keepBinding(into, from *model.Symbol) {
	if into.Binding == nil {
		into.Binding = from.Binding
	}
}

func replaceSymbol(mod *model.ModuleNode, old, repl *model.Symbol) {
	for i, s := range mod.Symbols {
		if s == old {
			mod.Symbols[i] = repl
			return
		}
	}
}

func originLabel(m *model.ModuleNode) string {
	switch m.Origin {
	case model.OriginRust:
		return "binding crate " + m.Path
	case model.OriginStub:
		return "stub " + m.Path
	default:
		return "compiled module " + m.Path
	}
}

func mergeImports(a, b []model.Import) []model.Import {
	seen := make(map[model.Import]bool, len(a))
	out := append([]model.Import(nil), a...)
	for _, imp := range a {
		seen[importKey(imp)] = true
	}
	for _, imp := range b {
		if !seen[importKey(imp)] {
			seen[importKey(imp)] = true
			out = append(out, imp)
		}
	}
	return out
}

func importKey(imp model.Import) model.Import {
	imp.Line = 0
	return imp
}

func mergeNames(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, n := range append(append([]string(nil), a...), b...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func mergeTypeVars(a, b []model.TypeParam) []model.TypeParam {
	if len(b) == 0 {
		return a
	}
	out := append([]model.TypeParam(nil), a...)
	for _, tp := range b {
		found := false
		for _, have := range a {
			if have.Name == tp.Name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, tp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// instantiateOpaque gives compiled modules without an interface description
// one opaque symbol per name other modules import from them.
func instantiateOpaque(modules []*model.ModuleNode) {
	byName := make(map[string]*model.ModuleNode, len(modules))
	for _, m := range modules {
		byName[m.QualifiedName] = m
	}
	wanted := make(map[*model.ModuleNode]map[string]bool)
	for _, m := range modules {
		for _, imp := range m.Imports {
			if imp.Star {
				continue
			}
			parent, name := splitLast(imp.Target)
			target, ok := byName[parent]
			if !ok || target == m || target.Origin != model.OriginExtension {
				continue
			}
			if _, isModule := byName[imp.Target]; isModule || target.Symbol(name) != nil {
				continue
			}
			if wanted[target] == nil {
				wanted[target] = make(map[string]bool)
			}
			wanted[target][name] = true
		}
	}

	for target, names := range wanted {
		sorted := make([]string, 0, len(names))
		for n := range names {
			sorted = append(sorted, n)
		}
		sort.Strings(sorted)
		for _, n := range sorted {
			target.Symbols = append(target.Symbols, &model.Symbol{
				Kind:          opaqueKind(n),
				Name:          n,
				QualifiedName: model.Qualify(target.QualifiedName, n),
				Module:        target.QualifiedName,
				Provenance:    model.CompiledProvenance(),
				Completeness:  model.Opaque,
				Location:      model.Location{Path: target.Path},
			})
		}
	}
}

// opaqueKind guesses a kind from naming convention: CONSTANT, Class, function.
func opaqueKind(name string) model.SymbolKind {
	switch {
	case isUpperName(name):
		return model.KindVariable
	case name != "" && name[0] >= 'A' && name[0] <= 'Z':
		return model.KindClass
	default:
		return model.KindFunction
	}
}

func isUpperName(name string) bool {
	letters := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			letters = true
		}
	}
	return letters && len(name) > 1
}

func splitLast(qn string) (parent, name string) {
	i := strings.LastIndexByte(qn, '.')
	if i < 0 {
		return "", qn
	}
	return qn[:i], qn[i+1:]
}
