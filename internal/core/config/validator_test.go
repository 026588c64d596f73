package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findIssue(issues []Issue, field string) (Issue, bool) {
	for _, i := range issues {
		if i.Field == field {
			return i, true
		}
	}
	return Issue{}, false
}

func TestValidate_Clean(t *testing.T) {
	root := t.TempDir()
	issues := Validate(Default(), root)
	assert.Empty(t, issues)
	assert.False(t, HasErrors(issues))
}

func TestValidate_TracingWithoutEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Observability.EnableTracing = true

	issues := Validate(cfg, t.TempDir())
	issue, ok := findIssue(issues, "observability.enable_tracing")
	require.True(t, ok, "%v", issues)
	assert.False(t, issue.Error)
	assert.Contains(t, issue.Hint, "APISCRIBE_OBSERVABILITY_OTLP_ENDPOINT")
	assert.False(t, HasErrors(issues))
}

func TestValidate_Paths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "crates", "fast"), 0o755))

	cfg := Default()
	cfg.Python.Source = "src"
	cfg.Output.Path = "."
	cfg.Rust.Crates = []Crate{{Path: "crates/fast"}}

	issues := Validate(cfg, root)
	source, ok := findIssue(issues, "python.source")
	require.True(t, ok)
	assert.True(t, source.Error)

	output, ok := findIssue(issues, "output.path")
	require.True(t, ok)
	assert.True(t, output.Error)

	crate, ok := findIssue(issues, "rust.crates[0].path")
	require.True(t, ok)
	assert.False(t, crate.Error)
	assert.True(t, strings.HasPrefix(crate.String(), "warning: rust.crates[0].path:"))
	assert.Contains(t, crate.String(), "(hint: ")

	assert.True(t, HasErrors(issues))
}

func TestValidate_ReportsLoadErrors(t *testing.T) {
	cfg := Default()
	cfg.Resolve.Precedence = "newest"
	cfg.Walk.Exclude = []string{""}

	issues := Validate(cfg, "")
	resolve, ok := findIssue(issues, "resolve")
	require.True(t, ok)
	assert.True(t, resolve.Error)
	assert.Equal(t, "error: resolve: resolve.precedence must be one of: compiled, overlay", resolve.String())

	_, ok = findIssue(issues, "walk")
	assert.True(t, ok)
}
