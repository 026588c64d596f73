package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"apiscribe/internal/core/config"
	"apiscribe/internal/core/watcher"
	"apiscribe/internal/shared/observability"
	"apiscribe/internal/shared/util"
)

// Watch runs once, then re-runs whenever a watched source changes until ctx
// is cancelled. Each run is reported through onResult; a failed run does
// not stop watching.
func (a *App) Watch(ctx context.Context, onResult func(*Result, error)) error {
	onResult(a.Run(ctx))

	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:  a.Config.Watch.Debounce,
		SkipPaths: []string{a.Paths.OutputDir},
	}, func(paths []string) {
		select {
		case changes <- paths:
		default:
			// A re-run is already queued and will pick these up.
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch([]string{a.Paths.ProjectRoot}); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", a.Paths.ProjectRoot)

	limiter := util.NewIntervalLimiter(a.Config.Watch.MinInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			slog.Info("change detected", "files", len(paths), "first", a.relPath(paths[0]))
			if a.configChanged(paths) {
				slog.Warn("configuration file changed; restart watch to apply it")
			}
			if !limiter.Allow(1) {
				observability.WatcherDroppedTotal.Inc()
				if err := limiter.Wait(ctx, 1); err != nil {
					return nil
				}
			}
			onResult(a.Run(ctx))
		}
	}
}

func (a *App) configChanged(paths []string) bool {
	for _, p := range paths {
		if a.Paths.ConfigFile != "" && filepath.Clean(p) == a.Paths.ConfigFile {
			return true
		}
		if filepath.Base(p) == config.FileName && filepath.Dir(p) == a.Paths.ProjectRoot {
			return true
		}
	}
	return false
}
