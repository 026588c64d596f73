package resolver

import (
	"sort"
	"strings"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"
)

// outcome of resolving one name.
type outcome int

const (
	unresolved outcome = iota
	resolved
	external
)

type referenceResolver struct {
	model *model.Model
	// heads are the top-level package and module names of the project.
	heads map[string]bool

	refs  []model.CrossReference
	diags []diagnostics.Diagnostic

	seenRefs       map[model.CrossReference]bool
	seenUnresolved map[string]bool
}

func newReferenceResolver(m *model.Model) *referenceResolver {
	rr := &referenceResolver{
		model:          m,
		heads:          make(map[string]bool),
		seenRefs:       make(map[model.CrossReference]bool),
		seenUnresolved: make(map[string]bool),
	}
	for _, mod := range m.Modules {
		head, _, _ := strings.Cut(mod.QualifiedName, ".")
		rr.heads[head] = true
	}
	return rr
}

// moduleScope is what a name can mean inside one module.
type moduleScope struct {
	mod      *model.ModuleNode
	bindings map[string]string
	typeVars map[string]bool
}

func (rr *referenceResolver) resolveAll() ([]model.CrossReference, []diagnostics.Diagnostic) {
	for _, mod := range rr.model.Modules {
		sc := rr.scopeOf(mod)
		for _, sym := range mod.Symbols {
			rr.symbol(sc, sym, nil, sc.typeVars)
		}
	}
	sort.SliceStable(rr.refs, func(i, j int) bool {
		if rr.refs[i].From != rr.refs[j].From {
			return rr.refs[i].From < rr.refs[j].From
		}
		return rr.refs[i].Text < rr.refs[j].Text
	})
	return rr.refs, rr.diags
}

// scopeOf builds the module bindings: star imports first, then explicit
// imports, then the module's own declarations, later entries shadowing
// earlier ones.
func (rr *referenceResolver) scopeOf(mod *model.ModuleNode) *moduleScope {
	sc := &moduleScope{
		mod:      mod,
		bindings: make(map[string]string),
		typeVars: make(map[string]bool, len(mod.TypeVars)),
	}
	for _, tp := range mod.TypeVars {
		sc.typeVars[tp.Name] = true
	}
	for _, imp := range mod.Imports {
		if !imp.Star {
			continue
		}
		target, ok := rr.model.Module(imp.Target)
		if !ok || target == mod {
			continue
		}
		for _, name := range exportedNames(target) {
			sc.bindings[name] = model.Qualify(target.QualifiedName, name)
		}
	}
	for _, imp := range mod.Imports {
		if !imp.Star && imp.Local != "" {
			sc.bindings[imp.Local] = imp.Target
		}
	}
	for _, sym := range mod.Symbols {
		sc.bindings[sym.Name] = sym.QualifiedName
	}
	return sc
}

// exportedNames is what `from mod import *` binds.
func exportedNames(mod *model.ModuleNode) []string {
	if len(mod.All) > 0 {
		return mod.All
	}
	var names []string
	for _, sym := range mod.Symbols {
		if !strings.HasPrefix(sym.Name, "_") {
			names = append(names, sym.Name)
		}
	}
	return names
}

// symbol resolves every type expression reachable from sym. class is the
// enclosing class of a member; params are the type parameters in scope.
func (rr *referenceResolver) symbol(sc *moduleScope, sym, class *model.Symbol, params map[string]bool) {
	params = withParams(params, sym.TypeParams)
	visit := func(ref model.TypeRef) { rr.typeRef(sc, sym, class, params, ref) }

	for _, b := range sym.Bases {
		visit(b)
	}
	visitTypeParams(sym.TypeParams, visit)
	if sym.Signature != nil {
		rr.signature(sc, sym, class, params, *sym.Signature)
	}
	for _, o := range sym.Overloads {
		rr.signature(sc, sym, class, params, o.Signature)
	}
	visit(sym.Type)
	for _, f := range sym.Fields {
		visit(f.Type)
	}

	inner := class
	if sym.Kind.HasPage() {
		inner = sym
	}
	for _, m := range sym.Members {
		rr.symbol(sc, m, inner, params)
	}
}

func (rr *referenceResolver) signature(sc *moduleScope, sym, class *model.Symbol, params map[string]bool, sig model.Signature) {
	params = withParams(params, sig.TypeParams)
	visit := func(ref model.TypeRef) { rr.typeRef(sc, sym, class, params, ref) }
	visitTypeParams(sig.TypeParams, visit)
	for _, p := range sig.Params {
		visit(p.Type)
	}
	visit(sig.Returns)
}

func visitTypeParams(tps []model.TypeParam, visit func(model.TypeRef)) {
	for _, tp := range tps {
		visit(tp.Bound)
		for _, c := range tp.Constraints {
			visit(c)
		}
	}
}

func withParams(params map[string]bool, tps []model.TypeParam) map[string]bool {
	if len(tps) == 0 {
		return params
	}
	out := make(map[string]bool, len(params)+len(tps))
	for k := range params {
		out[k] = true
	}
	for _, tp := range tps {
		out[tp.Name] = true
	}
	return out
}

func (rr *referenceResolver) typeRef(sc *moduleScope, sym, class *model.Symbol, params map[string]bool, root model.TypeRef) {
	typeexpr.Walk(root, func(ref model.TypeRef, n *model.TypeNode) {
		if n.Kind != model.TypeName && n.Kind != model.TypeForwardRef {
			return
		}
		if n.Target != "" || n.External {
			return
		}
		target, how := rr.lookup(sc, class, params, n.Name)
		switch how {
		case external:
			n.External = true
			return
		case resolved:
			n.Target = target
			if e, ok := rr.model.Lookup(target); ok && e.Symbol.Kind == model.KindTypeAlias {
				n.Alias = e.Symbol.Type
			}
		default:
			rr.unresolved(sc.mod, sym, n.Name)
		}
		rr.record(model.CrossReference{From: sym.QualifiedName, Text: n.Name, Target: target})
	})
}

// lookup decides what name means at the reference site.
func (rr *referenceResolver) lookup(sc *moduleScope, class *model.Symbol, params map[string]bool, name string) (string, outcome) {
	if params[name] || sc.typeVars[name] {
		return "", external
	}
	head, rest, dotted := strings.Cut(name, ".")

	if class != nil && !dotted {
		if m := class.Member(name); m != nil && (m.Kind.HasPage() || m.Kind == model.KindTypeAlias) {
			return m.QualifiedName, resolved
		}
	}

	if bound, ok := sc.bindings[head]; ok {
		candidate := bound
		if dotted {
			candidate = bound + "." + rest
		}
		if _, ok := rr.model.Lookup(candidate); ok {
			return candidate, resolved
		}
		if rr.outside(candidate) {
			return "", external
		}
		if rr.isTypeVar(candidate) {
			return "", external
		}
		return "", unresolved
	}

	if pythonBuiltins[head] && !dotted {
		return "", external
	}
	if _, ok := rr.model.Lookup(name); ok {
		return name, resolved
	}
	if dotted && (isStdlibModule(head) || rr.outside(name)) {
		return "", external
	}
	return "", unresolved
}

// outside reports whether qn lives outside the documented project, such as
// the standard library or a third-party dependency.
func (rr *referenceResolver) outside(qn string) bool {
	head, _, _ := strings.Cut(qn, ".")
	return !rr.heads[head]
}

// isTypeVar reports whether qn names a TypeVar declared in another module of
// the project.
func (rr *referenceResolver) isTypeVar(qn string) bool {
	parent, name := splitLast(qn)
	mod, ok := rr.model.Module(parent)
	if !ok {
		return false
	}
	for _, tp := range mod.TypeVars {
		if tp.Name == name {
			return true
		}
	}
	return false
}

func (rr *referenceResolver) unresolved(mod *model.ModuleNode, sym *model.Symbol, name string) {
	key := mod.QualifiedName + "\x00" + name
	if rr.seenUnresolved[key] {
		return
	}
	rr.seenUnresolved[key] = true
	rr.diags = append(rr.diags, diagnostics.Diagnostic{
		Kind:    diagnostics.UnresolvedReference,
		Path:    mod.Path,
		Line:    sym.Location.Line,
		Subject: sym.QualifiedName,
		Message: "cannot resolve type reference " + name,
	})
}

func (rr *referenceResolver) record(ref model.CrossReference) {
	if rr.seenRefs[ref] {
		return
	}
	rr.seenRefs[ref] = true
	rr.refs = append(rr.refs, ref)
}
