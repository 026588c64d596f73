package parser

import (
	"strings"

	"apiscribe/internal/engine/model"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	line := ctx.Line(node)
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			module := ctx.Text(child)
			// `import a.b` binds `a`; attribute access reaches a.b.
			head, _, _ := strings.Cut(module, ".")
			ctx.Imports = append(ctx.Imports, model.Import{Local: head, Target: head, Line: line})
			if head != module {
				ctx.Imports = append(ctx.Imports, model.Import{Local: module, Target: module, Line: line})
			}
		case "aliased_import":
			module := ctx.FieldText(child, "name")
			alias := ctx.FieldText(child, "alias")
			ctx.Imports = append(ctx.Imports, model.Import{Local: alias, Target: module, Line: line})
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	line := ctx.Line(node)
	moduleNode := node.ChildByFieldName("module_name")
	module := ctx.Text(moduleNode)
	if moduleNode != nil && moduleNode.Kind() == "relative_import" {
		module = ResolveRelative(ctx.Module, ctx.IsPackage, module)
	}
	if module == "" {
		return true
	}

	for _, child := range namedChildren(node) {
		if child.Kind() == "wildcard_import" {
			ctx.Imports = append(ctx.Imports, model.Import{Target: module, Star: true, Line: line})
			return true
		}
	}
	afterImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			afterImport = true
			continue
		}
		if !afterImport {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			name := ctx.Text(child)
			ctx.Imports = append(ctx.Imports, model.Import{Local: name, Target: model.Qualify(module, name), Line: line})
		case "aliased_import":
			name := ctx.FieldText(child, "name")
			alias := ctx.FieldText(child, "alias")
			ctx.Imports = append(ctx.Imports, model.Import{Local: alias, Target: model.Qualify(module, name), Line: line})
		}
	}
	return true
}

// ResolveRelative turns a relative import such as "..models" into an
// absolute module name, relative to the importing module.
func ResolveRelative(module string, isPackage bool, rel string) string {
	dots := len(rel) - len(strings.TrimLeft(rel, "."))
	rest := rel[dots:]
	if dots == 0 {
		return rel
	}

	parts := strings.Split(module, ".")
	if module == "" {
		parts = nil
	}
	// A package's __init__ is its own anchor; a plain module anchors at its parent.
	if !isPackage && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	up := dots - 1
	if up > len(parts) {
		return rest
	}
	base := strings.Join(parts[:len(parts)-up], ".")
	if rest == "" {
		return base
	}
	return model.Qualify(base, rest)
}
