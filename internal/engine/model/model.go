package model

import "sort"

// Entry locates a symbol within the resolved model.
type Entry struct {
	Symbol *Symbol
	Module *ModuleNode
	// Parent is the enclosing class for members, nil for top-level symbols.
	Parent *Symbol
}

// PageOwner is the top-level symbol whose page documents this entry, or nil
// when the entry lives on its module page.
func (e Entry) PageOwner() *Symbol {
	top := e.Symbol
	if e.Parent != nil {
		top = e.Parent
	}
	if top.Kind.HasPage() && e.Module.Symbol(top.Name) == top {
		return top
	}
	return nil
}

type CrossReference struct {
	From   string // qualified name of the referencing symbol
	Text   string
	Target string // empty when unresolved
}

func (c CrossReference) Resolved() bool { return c.Target != "" }

type PageKind int

const (
	PageModule PageKind = iota
	PageSymbol
)

type Page struct {
	Kind   PageKind
	Module *ModuleNode
	Symbol *Symbol
}

// QualifiedName of the module or symbol the page documents.
func (p Page) QualifiedName() string {
	if p.Kind == PageSymbol {
		return p.Symbol.QualifiedName
	}
	return p.Module.QualifiedName
}

// Model is the resolved documentation model. It is immutable once built.
type Model struct {
	Project    string
	Root       *PackageNode
	Modules    []*ModuleNode
	References []CrossReference

	modules map[string]*ModuleNode
	index   map[string]Entry
}

func NewModel(project string, root *PackageNode, modules []*ModuleNode, refs []CrossReference) *Model {
	m := &Model{
		Project:    project,
		Root:       root,
		Modules:    append([]*ModuleNode(nil), modules...),
		References: refs,
		modules:    make(map[string]*ModuleNode, len(modules)),
		index:      make(map[string]Entry),
	}
	sort.Slice(m.Modules, func(i, j int) bool {
		return m.Modules[i].QualifiedName < m.Modules[j].QualifiedName
	})
	for _, mod := range m.Modules {
		m.modules[mod.QualifiedName] = mod
		for _, sym := range mod.Symbols {
			sym.Walk(func(s, parent *Symbol) {
				m.index[s.QualifiedName] = Entry{Symbol: s, Module: mod, Parent: parent}
			})
		}
	}
	return m
}

func (m *Model) Lookup(qualifiedName string) (Entry, bool) {
	e, ok := m.index[qualifiedName]
	return e, ok
}

func (m *Model) Module(qualifiedName string) (*ModuleNode, bool) {
	mod, ok := m.modules[qualifiedName]
	return mod, ok
}

func (m *Model) SymbolCount() int { return len(m.index) }

// Pages lists one page per module and per top-level class-like symbol, in
// qualified-name order.
func (m *Model) Pages() []Page {
	var pages []Page
	for _, mod := range m.Modules {
		pages = append(pages, Page{Kind: PageModule, Module: mod})
		for _, sym := range mod.Symbols {
			if sym.Kind.HasPage() {
				pages = append(pages, Page{Kind: PageSymbol, Module: mod, Symbol: sym})
			}
		}
	}
	return pages
}

// Binding pairs a Python-visible symbol with the Rust item behind it.
type Binding struct {
	Python string
	Rust   RustBinding
}

// Bindings lists every symbol implemented in Rust, in qualified-name order.
func (m *Model) Bindings() []Binding {
	var out []Binding
	for _, mod := range m.Modules {
		for _, sym := range mod.Symbols {
			sym.Walk(func(s, _ *Symbol) {
				if s.Binding != nil {
					out = append(out, Binding{Python: s.QualifiedName, Rust: *s.Binding})
				}
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Python < out[j].Python })
	return out
}
