package walker

import (
	"sort"
	"strings"

	"apiscribe/internal/engine/model"
)

// MarkOverlays reclassifies source modules once imports are known: a source
// module importing from a compiled module of its own package (or a package
// below it) becomes an overlay of it. Modules already marked are left alone. It returns the modules whose
// provenance changed.
func MarkOverlays(modules []*model.ModuleNode) []*model.ModuleNode {
	compiled := make(map[string]bool)
	for _, m := range modules {
		if m.Provenance.IsCompiled() {
			compiled[m.QualifiedName] = true
		}
	}
	if len(compiled) == 0 {
		return nil
	}

	var changed []*model.ModuleNode
	for _, m := range modules {
		if m.Provenance.Kind != model.ProvenanceSource {
			continue
		}
		if target := compiledImport(m, compiled); target != "" {
			m.Provenance = model.OverlayProvenance(target)
			changed = append(changed, m)
		}
	}
	return changed
}

// compiledImport returns the first compiled module m imports from, in
// import order. Only compiled modules in m's own package or below it count.
func compiledImport(m *model.ModuleNode, compiled map[string]bool) string {
	pkg := m.QualifiedName
	if !m.IsPackage {
		pkg = parentName(pkg)
	}
	for _, imp := range m.Imports {
		for target := imp.Target; target != ""; target = parentName(target) {
			if compiled[target] && target != m.QualifiedName && within(parentName(target), pkg) {
				return target
			}
		}
	}
	return ""
}

// within reports whether package qn is pkg or nested in it.
func within(qn, pkg string) bool {
	return qn == pkg || (pkg != "" && strings.HasPrefix(qn, pkg+"."))
}

func parentName(qn string) string {
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[:i]
	}
	return ""
}

// Attach places a module whose qualified name was only learned while
// parsing, such as a PyO3 crate, into the package tree. Missing packages on
// the way are created as namespace packages.
func Attach(root *model.PackageNode, mod *model.ModuleNode) {
	pkg := root
	parts := strings.Split(mod.QualifiedName, ".")
	for _, part := range parts[:len(parts)-1] {
		qn := model.Qualify(pkg.QualifiedName, part)
		var next *model.PackageNode
		for _, child := range pkg.Packages {
			if child.QualifiedName == qn {
				next = child
				break
			}
		}
		if next == nil {
			next = &model.PackageNode{QualifiedName: qn, Path: mod.Path, Provenance: model.CompiledProvenance()}
			pkg.Packages = append(pkg.Packages, next)
			sort.Slice(pkg.Packages, func(i, j int) bool {
				return pkg.Packages[i].QualifiedName < pkg.Packages[j].QualifiedName
			})
		}
		pkg = next
	}
	mod.Package = pkg.QualifiedName
	pkg.Modules = append(pkg.Modules, mod)
	sort.SliceStable(pkg.Modules, func(i, j int) bool {
		return pkg.Modules[i].QualifiedName < pkg.Modules[j].QualifiedName
	})
}
