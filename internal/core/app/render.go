package app

import (
	"context"
	"time"

	"apiscribe/internal/core/errors"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/shared/observability"
	"apiscribe/internal/ui/render"

	"golang.org/x/sync/errgroup"
)

type renderedPage struct {
	// path is relative to the backend content directory, slash separated.
	path    string
	content string
}

// renderPages renders every page concurrently into its own slot. Pages keep
// the model's order, so the writer sees the same sequence every run.
func (a *App) renderPages(ctx context.Context, r *render.Renderer, pages []model.Page) ([]renderedPage, error) {
	out := make([]renderedPage, len(pages))
	backendName := string(a.Site.Backend.Kind)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			content, err := r.RenderPage(p)
			if err != nil {
				return errors.AddContext(
					errors.Wrap(err, errors.CodeInternal, "render page"),
					errors.CtxModule, p.QualifiedName())
			}
			observability.RenderDuration.WithLabelValues(backendName).Observe(time.Since(started).Seconds())
			out[i] = renderedPage{path: r.PagePath(p), content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
