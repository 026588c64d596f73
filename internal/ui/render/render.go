// Package render turns the resolved documentation model into markdown pages
// for one backend. Rendering a page reads the model and never mutates it,
// so pages can be produced concurrently and in any order.
package render

import (
	"fmt"
	"strings"

	"apiscribe/internal/engine/model"
	"apiscribe/internal/ui/render/backend"
)

type Renderer struct {
	model *model.Model
	site  backend.Site
}

func New(m *model.Model, site backend.Site) *Renderer {
	return &Renderer{model: m, site: site}
}

func (r *Renderer) Site() backend.Site { return r.site }

// PagePath locates a page relative to the backend's content directory.
func (r *Renderer) PagePath(p model.Page) string {
	if p.Kind == model.PageSymbol {
		return r.site.SymbolPath(p.Module.QualifiedName, p.Symbol.Name)
	}
	return r.site.ModulePath(p.Module.QualifiedName)
}

// RenderPage produces the markdown of one page.
func (r *Renderer) RenderPage(p model.Page) (string, error) {
	w := &pageWriter{r: r, theme: r.site.Backend.Theme, path: r.PagePath(p)}
	switch p.Kind {
	case model.PageModule:
		w.module(p.Module)
	case model.PageSymbol:
		if p.Symbol == nil {
			return "", fmt.Errorf("symbol page for %s has no symbol", p.Module.QualifiedName)
		}
		w.classPage(p.Module, p.Symbol)
	default:
		return "", fmt.Errorf("unknown page kind %d", p.Kind)
	}
	return w.b.String(), nil
}

// Nav lists every page as navigation entries: one per module with its class
// pages nested beneath it.
func (r *Renderer) Nav() []backend.NavEntry {
	var entries []backend.NavEntry
	for _, mod := range r.model.Modules {
		entry := backend.NavEntry{Title: mod.QualifiedName, Path: r.site.ModulePath(mod.QualifiedName)}
		for _, sym := range mod.Symbols {
			if sym.Kind.HasPage() {
				entry.Children = append(entry.Children, backend.NavEntry{
					Title: sym.Name,
					Path:  r.site.SymbolPath(mod.QualifiedName, sym.Name),
				})
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// pageWriter accumulates one page. It lives for a single RenderPage call.
type pageWriter struct {
	r     *Renderer
	theme backend.Theme
	path  string
	b     strings.Builder
}

func (w *pageWriter) printf(format string, args ...any) {
	w.b.WriteString(fmt.Sprintf(format, args...))
}

// linkTo returns the relative link to the page documenting qualified name.
// Members link to their owning class page; module-level functions and
// variables link to their module page.
func (w *pageWriter) linkTo(qn string) (string, bool) {
	e, ok := w.r.model.Lookup(qn)
	if !ok {
		return "", false
	}
	target := w.r.site.ModulePath(e.Module.QualifiedName)
	if owner := e.PageOwner(); owner != nil {
		target = w.r.site.SymbolPath(e.Module.QualifiedName, owner.Name)
	}
	if target == w.path {
		return "", false
	}
	return backend.Link(w.path, target), true
}

func (w *pageWriter) moduleLink(qn string) string {
	if _, ok := w.r.model.Module(qn); !ok {
		return code(qn)
	}
	target := w.r.site.ModulePath(qn)
	if target == w.path {
		return code(qn)
	}
	return fmt.Sprintf("[%s](%s)", code(qn), backend.Link(w.path, target))
}
