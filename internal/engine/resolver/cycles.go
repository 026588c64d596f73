package resolver

import (
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"
)

// markCycles flags every alias reference that leads back to the alias whose
// definition contains it. Recursive aliases such as
// `JSON = dict[str, "JSON"] | list["JSON"]` become finite once the flagged
// references are printed as back-references instead of expanded.
func markCycles(m *model.Model) {
	var roots []model.TypeRef
	for _, mod := range m.Modules {
		for _, sym := range mod.Symbols {
			sym.Walk(func(s, _ *model.Symbol) {
				if s.Kind == model.KindTypeAlias && s.Type.Valid() {
					roots = append(roots, s.Type)
				}
			})
		}
	}

	edges := make(map[model.TypeRef][]model.TypeRef, len(roots))
	for _, root := range roots {
		typeexpr.Walk(root, func(_ model.TypeRef, n *model.TypeNode) {
			if n.Alias.Valid() {
				edges[root] = append(edges[root], n.Alias)
			}
		})
	}

	for _, root := range roots {
		typeexpr.Walk(root, func(_ model.TypeRef, n *model.TypeNode) {
			if n.Alias.Valid() && reaches(edges, n.Alias, root) {
				n.BackRef = true
			}
		})
	}
}

// reaches reports whether target is reachable from start through alias
// references, start itself included.
func reaches(edges map[model.TypeRef][]model.TypeRef, start, target model.TypeRef) bool {
	visited := map[model.TypeRef]bool{}
	stack := []model.TypeRef{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, edges[cur]...)
	}
	return false
}
