// # internal/core/app/pipeline.go
package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"apiscribe/internal/core/config"
	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/resolver"
	"apiscribe/internal/engine/walker"
	"apiscribe/internal/shared/observability"
	"apiscribe/internal/shared/util"
	"apiscribe/internal/ui/render"
	"apiscribe/internal/ui/render/linkcheck"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Run performs one full documentation run. Nothing is written unless every
// phase before the writer succeeds; a cancelled context leaves the output
// directory untouched.
func (a *App) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "apiscribe.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("project", a.Site.Project),
			attribute.String("backend", string(a.Site.Backend.Kind)),
		))
	defer span.End()

	log := slog.With("run_id", runID)
	log.Info("run started", "root", a.Paths.ProjectRoot, "output", a.Paths.OutputDir, "backend", a.Site.Backend.Kind)

	res, err := a.run(ctx, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	res.RunID = runID
	res.Duration = time.Since(started)

	a.recordMetrics(res)
	log.Info("run finished",
		"modules", res.Modules,
		"pages", res.Pages,
		"diagnostics", len(res.Diagnostics),
		"duration", res.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	return res, nil
}

func (a *App) run(ctx context.Context, log *slog.Logger) (*Result, error) {
	collector := diagnostics.NewCollector()
	m, err := a.build(ctx, log, collector)
	if err != nil {
		return nil, err
	}

	renderer := render.New(m, a.Site)
	var pages []renderedPage
	err = phase(ctx, "render", func(ctx context.Context) error {
		var err error
		pages, err = a.renderPages(ctx, renderer, m.Pages())
		return err
	})
	if err != nil {
		return nil, err
	}

	navFiles, err := a.Site.Backend.NavFiles(a.Site.Project, renderer.Nav())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Project:   a.Site.Project,
		Backend:   a.Site.Backend.Kind,
		OutputDir: a.Paths.OutputDir,
		Modules:   len(m.Modules),
		Pages:     len(pages),
	}
	if a.Config.Quality.VerifyLinks {
		res.BrokenLinks = verifyLinks(pages)
		for _, b := range res.BrokenLinks {
			log.Warn("broken link", "page", b.Page, "destination", b.Destination)
		}
	}

	// Last chance to abandon the run before touching the output directory.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = phase(ctx, "write", func(ctx context.Context) error {
		var err error
		res.Files, err = a.write(pages, navFiles, moduleHeads(m.Modules))
		return err
	})
	if err != nil {
		return nil, err
	}

	res.Diagnostics = collector.Sorted()
	return res, nil
}

// build walks, parses and resolves the project into the documentation
// model. It is the part of a run that render and generate share.
func (a *App) build(ctx context.Context, log *slog.Logger, collector *diagnostics.Collector) (*model.Model, error) {
	var tree *walker.Tree
	err := phase(ctx, "walk", func(ctx context.Context) error {
		var diags []diagnostics.Diagnostic
		var err error
		tree, diags, err = walker.Walk(ctx, a.walkOptions())
		collector.AddAll(diags)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Debug("walk finished", "units", len(tree.Units))

	err = phase(ctx, "parse", func(ctx context.Context) error {
		return a.parseUnits(ctx, tree, collector)
	})
	if err != nil {
		return nil, err
	}

	modules := tree.Root.AllModules()
	for _, mod := range walker.MarkOverlays(modules) {
		log.Debug("overlay detected", "module", mod.QualifiedName, "provenance", mod.Provenance.String())
	}
	stampProvenance(modules)

	var m *model.Model
	err = phase(ctx, "resolve", func(ctx context.Context) error {
		var diags []diagnostics.Diagnostic
		var err error
		m, diags, err = resolver.New(resolver.Options{
			Project:    a.Site.Project,
			Precedence: a.precedence,
		}).Resolve(ctx, tree.Root)
		collector.AddAll(diags)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (a *App) walkOptions() walker.Options {
	opts := walker.Options{
		Root:             a.Paths.ProjectRoot,
		Source:           a.Config.Python.Source,
		Exclude:          a.Config.Walk.Exclude,
		RespectGitignore: a.Config.Walk.Gitignore(),
	}
	for _, c := range a.Config.Rust.Crates {
		opts.Crates = append(opts.Crates, walker.Crate{Path: c.Path, Module: c.Module})
	}
	return opts
}

// phase runs fn inside its own span and records its duration.
func phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, "apiscribe."+name)
	defer span.End()
	started := time.Now()

	err := fn(ctx)
	observability.PhaseDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// stampProvenance copies each module's final provenance onto its symbols.
// The parser only knows the file type; overlay detection happens later.
func stampProvenance(modules []*model.ModuleNode) {
	for _, mod := range modules {
		for _, sym := range mod.Symbols {
			sym.Walk(func(s, _ *model.Symbol) {
				s.Provenance = mod.Provenance
			})
		}
	}
}

// moduleHeads returns the distinct first segments of the module names, which
// is what a flat layout owns at the top of the content directory.
func moduleHeads(modules []*model.ModuleNode) []string {
	seen := make(map[string]bool)
	var heads []string
	for _, mod := range modules {
		head, _, _ := strings.Cut(mod.QualifiedName, ".")
		if head == "" || seen[head] {
			continue
		}
		seen[head] = true
		heads = append(heads, head)
	}
	return heads
}

func verifyLinks(pages []renderedPage) []linkcheck.Broken {
	byPath := make(map[string][]byte, len(pages))
	for _, p := range pages {
		byPath[p.path] = []byte(p.content)
	}
	return linkcheck.Check(byPath)
}

func (a *App) recordMetrics(res *Result) {
	observability.ModulesTotal.Set(float64(res.Modules))
	observability.PagesTotal.Set(float64(res.Pages))
	for kind, n := range diagnostics.Counts(res.Diagnostics) {
		observability.DiagnosticsTotal.WithLabelValues(kind.String()).Add(float64(n))
	}
	outcome := "ok"
	if res.Failed(a.strict()) {
		outcome = "failed"
	}
	observability.RunsTotal.WithLabelValues(outcome).Inc()

	if path := strings.TrimSpace(a.Config.Observability.MetricsPath); path != "" {
		target := config.ResolveRelative(a.Paths.ProjectRoot, path)
		if err := observability.WriteMetrics(target); err != nil {
			slog.Warn("failed to write metrics", "path", target, "error", err)
		}
	}
}

func (a *App) strict() bool {
	return a.Config.Quality.FailOnWarnings
}
