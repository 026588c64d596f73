// # internal/core/app/generate.go
package app

import (
	"context"
	"log/slog"
	"time"

	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/shared/observability"
	"apiscribe/internal/ui/export"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Generate builds the resolved model and returns it as an export document.
// Nothing is rendered and the output directory is not touched.
func (a *App) Generate(ctx context.Context) (export.Document, error) {
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "apiscribe.generate",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("project", a.Site.Project),
		))
	defer span.End()

	log := slog.With("run_id", runID)
	log.Info("generate started", "root", a.Paths.ProjectRoot)

	collector := diagnostics.NewCollector()
	m, err := a.build(ctx, log, collector)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return export.Document{}, err
	}

	doc := export.Build(export.Source{
		Model:       m,
		Version:     a.Config.Project.Version,
		RunID:       runID,
		GeneratedAt: time.Now(),
		Tool:        "apiscribe",
		Diagnostics: collector.Sorted(),
	})
	log.Info("generate finished", "modules", len(doc.Modules), "bindings", len(doc.Bindings))
	return doc, nil
}
