package model

// Import binds a local name in a module to the qualified name it refers to.
type Import struct {
	Local  string
	Target string
	// Star marks `from Target import *`; Local is empty.
	Star bool
	Line int
}

type ModuleNode struct {
	QualifiedName string
	Package       string
	// Path is relative to the project root, slash separated. For Rust
	// crates it names the crate directory.
	Path       string
	Origin     Origin
	IsPackage  bool
	Provenance Provenance
	Doc        Docstring
	Symbols    []*Symbol
	Imports    []Import
	// All holds the names listed in __all__, when declared.
	All []string
	// TypeVars declared at module level; names bound to them are type
	// parameters, not symbols.
	TypeVars []TypeParam
	Arena    *TypeArena
}

// Symbol finds a top-level symbol by declared name.
func (m *ModuleNode) Symbol(name string) *Symbol {
	for _, s := range m.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

type PackageNode struct {
	Path          string
	QualifiedName string
	Provenance    Provenance
	// Init is the package initializer module, nil for namespace roots.
	Init     *ModuleNode
	Modules  []*ModuleNode
	Packages []*PackageNode
}

// AllModules lists every module in the tree, initializers first, depth-first.
func (p *PackageNode) AllModules() []*ModuleNode {
	var out []*ModuleNode
	var visit func(pkg *PackageNode)
	visit = func(pkg *PackageNode) {
		if pkg.Init != nil {
			out = append(out, pkg.Init)
		}
		out = append(out, pkg.Modules...)
		for _, child := range pkg.Packages {
			visit(child)
		}
	}
	visit(p)
	return out
}

// Remove drops a module from the tree, used when a module fails to parse.
func (p *PackageNode) Remove(target *ModuleNode) bool {
	if p.Init == target {
		p.Init = nil
		return true
	}
	for i, m := range p.Modules {
		if m == target {
			p.Modules = append(p.Modules[:i:i], p.Modules[i+1:]...)
			return true
		}
	}
	for _, child := range p.Packages {
		if child.Remove(target) {
			return true
		}
	}
	return false
}
