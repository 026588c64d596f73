package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: APISCRIBE_[SECTION]_[KEY] (e.g., APISCRIBE_OUTPUT_BACKEND).
func ApplyEnvOverrides(cfg *Config) {
	// Project
	setEnvString(&cfg.Project.Name, "APISCRIBE_PROJECT_NAME")

	// Output
	setEnvString(&cfg.Output.Path, "APISCRIBE_OUTPUT_PATH")
	setEnvString(&cfg.Output.Backend, "APISCRIBE_OUTPUT_BACKEND")
	setEnvString(&cfg.Output.Layout, "APISCRIBE_OUTPUT_LAYOUT")
	setEnvBoolPtr(&cfg.Output.Clean, "APISCRIBE_OUTPUT_CLEAN")

	// Python
	setEnvString(&cfg.Python.Source, "APISCRIBE_PYTHON_SOURCE")
	setEnvString(&cfg.Python.Package, "APISCRIBE_PYTHON_PACKAGE")

	// Walk
	setEnvList(&cfg.Walk.Exclude, "APISCRIBE_WALK_EXCLUDE")
	setEnvBoolPtr(&cfg.Walk.RespectGitignore, "APISCRIBE_WALK_RESPECT_GITIGNORE")

	// Resolve
	setEnvString(&cfg.Resolve.Precedence, "APISCRIBE_RESOLVE_PRECEDENCE")

	// Quality
	setEnvBool(&cfg.Quality.FailOnWarnings, "APISCRIBE_QUALITY_FAIL_ON_WARNINGS")
	setEnvBool(&cfg.Quality.VerifyLinks, "APISCRIBE_QUALITY_VERIFY_LINKS")

	// Run
	setEnvInt(&cfg.Run.Workers, "APISCRIBE_RUN_WORKERS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "APISCRIBE_WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "APISCRIBE_WATCH_MIN_INTERVAL")

	// Observability
	setEnvString(&cfg.Observability.MetricsPath, "APISCRIBE_OBSERVABILITY_METRICS_PATH")
	setEnvString(&cfg.Observability.OTLPEndpoint, "APISCRIBE_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "APISCRIBE_OBSERVABILITY_ENABLE_TRACING")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList reads a comma separated list.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*target = append([]string{}, items...)
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
