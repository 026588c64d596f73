package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/core/errors"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/parser"
	"apiscribe/internal/engine/walker"
	"apiscribe/internal/shared/observability"

	"golang.org/x/sync/errgroup"
)

// parseSlot is owned by exactly one worker until the group finishes.
type parseSlot struct {
	parsed *parser.Parsed
	diags  []diagnostics.Diagnostic
	failed bool
}

// parseUnits reads and extracts every unit in parallel, then applies the
// results to the tree in unit order so the outcome does not depend on
// scheduling. Modules that fail to parse are dropped from the tree.
func (a *App) parseUnits(ctx context.Context, tree *walker.Tree, collector *diagnostics.Collector) error {
	slots := make([]parseSlot, len(tree.Units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, unit := range tree.Units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			slots[i] = a.parseUnit(gctx, unit)
			observability.ParsingDuration.WithLabelValues(unit.Module.Origin.String()).Observe(time.Since(started).Seconds())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, unit := range tree.Units {
		slot := slots[i]
		collector.AddAll(slot.diags)
		mod := unit.Module
		if slot.failed {
			tree.Root.Remove(mod)
			continue
		}
		apply(mod, slot.parsed)
		if unit.Crate != nil {
			// The crate's module name is only known after extraction.
			mod.QualifiedName = slot.parsed.QualifiedName
			walker.Attach(tree.Root, mod)
		}
	}
	return nil
}

func (a *App) parseUnit(ctx context.Context, unit walker.Unit) parseSlot {
	mod := unit.Module
	if unit.Crate != nil {
		return a.parseCrate(ctx, unit)
	}

	content, err := os.ReadFile(unit.Files[0])
	if err != nil {
		return parseSlot{failed: true, diags: []diagnostics.Diagnostic{{
			Kind: diagnostics.IOWarning, Path: mod.Path, Subject: mod.QualifiedName, Message: err.Error(),
		}}}
	}
	parsed, err := a.Parser.ParseModule(ctx, mod.Path, mod.QualifiedName, mod.IsPackage, content)
	if err != nil {
		return failedParse(mod, err)
	}
	return parseSlot{parsed: parsed, diags: parsed.Diagnostics}
}

func (a *App) parseCrate(ctx context.Context, unit walker.Unit) parseSlot {
	mod := unit.Module
	var diags []diagnostics.Diagnostic
	paths := make([]string, 0, len(unit.Files))
	files := make(map[string][]byte, len(unit.Files))
	for _, f := range unit.Files {
		rel := a.relPath(f)
		content, err := os.ReadFile(f)
		if err != nil {
			diags = append(diags, diagnostics.Diagnostic{
				Kind: diagnostics.IOWarning, Path: rel, Subject: mod.Path, Message: err.Error(),
			})
			continue
		}
		paths = append(paths, rel)
		files[rel] = content
	}

	parsed, err := a.Parser.ParseCrate(ctx, mod.Path, paths, files, unit.Crate.Module)
	if err != nil {
		slot := failedParse(mod, err)
		slot.diags = append(diags, slot.diags...)
		return slot
	}
	return parseSlot{parsed: parsed, diags: append(diags, parsed.Diagnostics...)}
}

func failedParse(mod *model.ModuleNode, err error) parseSlot {
	if !errors.IsCode(err, errors.CodeParse) {
		slog.Warn("module extraction failed", "module", mod.QualifiedName, "path", mod.Path, "error", err)
	}
	return parseSlot{failed: true, diags: []diagnostics.Diagnostic{{
		Kind: diagnostics.ParseError, Path: mod.Path, Subject: mod.QualifiedName, Message: err.Error(),
	}}}
}

func apply(mod *model.ModuleNode, parsed *parser.Parsed) {
	mod.Doc = parsed.Doc
	mod.Symbols = parsed.Symbols
	mod.Imports = parsed.Imports
	mod.All = parsed.All
	mod.TypeVars = parsed.TypeVars
	mod.Arena = parsed.Arena
}

func (a *App) relPath(path string) string {
	rel, err := filepath.Rel(a.Paths.ProjectRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
