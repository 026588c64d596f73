package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"apiscribe/internal/core/config"
	"apiscribe/internal/core/diagnostics"
	"apiscribe/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nativeCrate = `use pyo3::prelude::*;

/// A monotonic counter.
#[pyclass(name = "Counter")]
pub struct RsCounter {
    count: u64,
}

#[pymethods]
impl RsCounter {
    #[new]
    fn new(start: u64) -> Self {
        RsCounter { count: start }
    }

    /// Add to the counter.
    fn add(&mut self, n: u64) -> PyResult<u64> {
        self.count += n;
        Ok(self.count)
    }
}

#[pymodule]
fn _native(m: &Bound<'_, PyModule>) -> PyResult<()> {
    m.add_class::<RsCounter>()?;
    Ok(())
}
`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// readTree returns every file under dir keyed by slash path.
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Project.Name = "demo"
	cfg.Run.Workers = 2
	return cfg
}

func newApp(t *testing.T, cfg *config.Config, root string) *App {
	t.Helper()
	a, err := New(cfg, root)
	require.NoError(t, err)
	return a
}

func sampleTree() map[string]string {
	return map[string]string{
		"pkg/__init__.py": `"""Sample package."""
`,
		"pkg/core.py": `"""Core types."""

from typing import Optional


class Engine:
    """Runs jobs."""

    def __init__(self, workers: int = 4) -> None:
        self.workers = workers

    def run(self, job: "Job") -> Optional[str]:
        """Run one job.

        Args:
            job: The job to run.

        Returns:
            The job output, if any.
        """


def make() -> Engine:
    """Build an engine."""
    return Engine()
`,
		"pkg/util/__init__.py": "",
		"pkg/util/text.py": `def slug(value: str) -> str:
    """Turn value into a slug."""
    return value
`,
	}
}

func TestRun_WritesPages(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())

	cfg := testConfig()
	cfg.Quality.VerifyLinks = true
	res, err := newApp(t, cfg, root).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "demo", res.Project)
	assert.Equal(t, 4, res.Modules)
	assert.Empty(t, res.BrokenLinks)
	assert.Contains(t, res.Files, "demo/pkg/core.md")
	assert.Contains(t, res.Files, "demo/pkg/core/Engine.md")
	assert.Contains(t, res.Files, "demo/pkg/util/text.md")
	assert.Contains(t, res.Files, "_nav.yml")

	page, err := os.ReadFile(filepath.Join(root, "docs", "demo", "pkg", "core", "Engine.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "var(--md-")
	assert.Contains(t, string(page), "Runs jobs.")

	// "Job" is never defined, so it stays plain text and only warns.
	counts := diagnostics.Counts(res.Diagnostics)
	assert.Equal(t, 1, counts[diagnostics.UnresolvedReference])
	assert.False(t, res.Failed(false))
	assert.True(t, res.Failed(true))
}

func TestRun_DocstringSectionsAndAliases(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"helpers.py": `from typing import Dict, List, Union

JSON = Union[str, int, float, bool, None, Dict[str, "JSON"], List["JSON"]]


def greet(name: str) -> str:
    """Say hello.

    Args:
        name: Who to greet.

    Raises:
        ValueError: If name is empty.
    """
    return "Hello, " + name


def bad(a: int -> int:
    """Still documented."""
    return a
`,
	})

	_, err := newApp(t, testConfig(), root).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "docs", "demo", "helpers.md"))
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "| Who to greet. |")
	assert.Contains(t, page, "**Raises:**")
	assert.Contains(t, page, "`ValueError`: If name is empty.")
	assert.Contains(t, page, "## Type aliases")
	assert.Contains(t, page, "↺JSON")
	assert.Contains(t, page, "Still documented.")
}

func TestRun_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	a := newApp(t, testConfig(), root)
	out := filepath.Join(root, "docs")

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	first := readTree(t, out)

	require.NoError(t, os.RemoveAll(out))
	_, err = a.Run(context.Background())
	require.NoError(t, err)
	second := readTree(t, out)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	// Rendering again over existing output gives the same bytes too.
	_, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, readTree(t, out))
}

func TestRun_HelpersWithMdBook(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"helpers.py": `def greet(name: str) -> str:
    """Return a greeting for name."""
    return "hello " + name
`,
	})

	cfg := testConfig()
	cfg.Output.Backend = "mdbook"
	res, err := newApp(t, cfg, root).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Files, "src/demo/helpers.md")
	assert.Contains(t, res.Files, "src/SUMMARY.md")
	assert.Contains(t, res.Files, "book.toml")

	page, err := os.ReadFile(filepath.Join(root, "docs", "src", "demo", "helpers.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "var(--")
	assert.NotContains(t, string(page), "var(--md-")
	assert.Contains(t, string(page), "Return a greeting for name.")
}

func TestRun_HybridModuleHasOnePage(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/__init__.py":              "",
		"pkg/_native.py":               "def helper() -> None:\n    \"\"\"Pure Python helper.\"\"\"\n",
		"pkg/api.py":                   "from pkg._native import Counter\n\n\ndef start() -> Counter:\n    \"\"\"Start counting.\"\"\"\n",
		"crates/native/Cargo.toml":     "[package]\nname = \"native\"\n",
		"crates/native/src/lib.rs":     nativeCrate,
		"pkg/_speedups.py":             "def fast() -> int:\n    \"\"\"Fast path.\"\"\"\n",
		"pkg/_speedups.cpython-312.so": "\x7fELF",
	})

	cfg := testConfig()
	cfg.Rust.Crates = []config.Crate{{Path: "crates/native", Module: "pkg._native"}}
	cfg.Quality.VerifyLinks = true
	res, err := newApp(t, cfg, root).Run(context.Background())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, f := range res.Files {
		require.False(t, seen[f], "file %s written twice", f)
		seen[f] = true
	}
	assert.True(t, seen["demo/pkg/_native.md"])
	assert.True(t, seen["demo/pkg/_native/Counter.md"])
	assert.True(t, seen["demo/pkg/_speedups.md"])
	assert.Empty(t, res.BrokenLinks)

	native, err := os.ReadFile(filepath.Join(root, "docs", "demo", "pkg", "_native.md"))
	require.NoError(t, err)
	assert.Contains(t, string(native), "# `pkg._native`")
	assert.Contains(t, string(native), "helper")
	assert.Contains(t, string(native), "Counter")

	counter, err := os.ReadFile(filepath.Join(root, "docs", "demo", "pkg", "_native", "Counter.md"))
	require.NoError(t, err)
	assert.Contains(t, string(counter), "**Rust implementation:** `RsCounter` in `crates/native/src/lib.rs:22`")
	assert.Contains(t, string(counter), "`RsCounter::add` in `crates/native/src/lib.rs:34`")

	api, err := os.ReadFile(filepath.Join(root, "docs", "demo", "pkg", "api.md"))
	require.NoError(t, err)
	assert.Contains(t, string(api), "Python layer over the compiled module")
}

func TestRun_ParseErrorSkipsModule(t *testing.T) {
	root := t.TempDir()
	tree := sampleTree()
	tree["pkg/broken.py"] = "def f():\x00\n"
	writeTree(t, root, tree)

	res, err := newApp(t, testConfig(), root).Run(context.Background())
	require.NoError(t, err)

	counts := diagnostics.Counts(res.Diagnostics)
	assert.Equal(t, 1, counts[diagnostics.ParseError])
	assert.NotContains(t, res.Files, "demo/pkg/broken.md")
	assert.Contains(t, res.Files, "demo/pkg/core.md")
}

func TestRun_CleansOnlyOwnedOutput(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	writeTree(t, root, map[string]string{
		"docs/index.md":          "# Home\n",
		"docs/other/page.md":     "# Other project\n",
		"docs/demo/pkg/stale.md": "# Removed module\n",
	})

	_, err := newApp(t, testConfig(), root).Run(context.Background())
	require.NoError(t, err)

	out := readTree(t, filepath.Join(root, "docs"))
	assert.Contains(t, out, "index.md")
	assert.Contains(t, out, "other/page.md")
	assert.NotContains(t, out, "demo/pkg/stale.md")

	cfg := testConfig()
	keep := false
	cfg.Output.Clean = &keep
	writeTree(t, root, map[string]string{"docs/demo/pkg/stale.md": "# Removed module\n"})
	_, err = newApp(t, cfg, root).Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "docs", "demo", "pkg", "stale.md"))
}

func TestRun_UnwritableOutputKeepsPreviousPages(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	_, err := newApp(t, testConfig(), root).Run(context.Background())
	require.NoError(t, err)

	docs := filepath.Join(root, "docs")
	require.NoError(t, os.Chmod(docs, 0o555))
	t.Cleanup(func() { _ = os.Chmod(docs, 0o755) })

	_, err = newApp(t, testConfig(), root).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFatalIO), "expected fatal I/O error, got %v", err)
	assert.FileExists(t, filepath.Join(docs, "demo", "pkg", "core.md"))
	assert.FileExists(t, filepath.Join(docs, "demo", "pkg", "core", "Engine.md"))
}

func TestRun_OutputPathIsFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	writeTree(t, root, map[string]string{"docs": "not a directory\n"})

	_, err := newApp(t, testConfig(), root).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFatalIO), "expected fatal I/O error, got %v", err)
	data, err := os.ReadFile(filepath.Join(root, "docs"))
	require.NoError(t, err)
	assert.Equal(t, "not a directory\n", string(data))
}

func TestRun_FlatLayout(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	writeTree(t, root, map[string]string{"docs/index.md": "# Home\n"})

	cfg := testConfig()
	cfg.Output.Layout = "flat"
	res, err := newApp(t, cfg, root).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Files, "pkg/core.md")
	assert.Contains(t, res.Files, "pkg/core/Engine.md")
	assert.FileExists(t, filepath.Join(root, "docs", "index.md"))
}

func TestRun_CancelledWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	a := newApp(t, testConfig(), root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(root, "docs"))
}

func TestRun_MissingRootIsFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	a := newApp(t, testConfig(), root)

	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFatalIO), "expected fatal I/O error, got %v", err)
}

func TestNew_Validation(t *testing.T) {
	root := t.TempDir()

	cfg := testConfig()
	cfg.Output.Backend = "sphinx"
	_, err := New(cfg, root)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	cfg = testConfig()
	cfg.Resolve.Precedence = "newest"
	_, err = New(cfg, root)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	cfg = testConfig()
	cfg.Output.Path = "."
	_, err = New(cfg, root)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	cfg = testConfig()
	cfg.Output.Backend = "Material"
	a, err := New(cfg, root)
	require.NoError(t, err)
	assert.Equal(t, "demo", a.Site.Project)
	assert.Equal(t, 2, a.workers)
}

func TestGenerate_HybridModel(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/__init__.py":          "",
		"pkg/api.py":               "from pkg._native import Counter\n\n\ndef start() -> Counter:\n    \"\"\"Start counting.\"\"\"\n",
		"crates/native/Cargo.toml": "[package]\nname = \"native\"\n",
		"crates/native/src/lib.rs": nativeCrate,
	})

	cfg := testConfig()
	cfg.Project.Version = "1.2.0"
	cfg.Rust.Crates = []config.Crate{{Path: "crates/native", Module: "pkg._native"}}
	doc, err := newApp(t, cfg, root).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "demo", doc.Metadata.Name)
	assert.Equal(t, "1.2.0", doc.Metadata.Version)
	assert.NotEmpty(t, doc.Metadata.RunID)

	names := make([]string, 0, len(doc.Modules))
	for _, m := range doc.Modules {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "pkg._native")
	assert.Contains(t, names, "pkg.api")

	var items []string
	for _, b := range doc.Bindings {
		items = append(items, b.Python+"="+b.Rust.Item)
	}
	assert.Contains(t, items, "pkg._native.Counter=RsCounter")
	assert.Contains(t, items, "pkg._native.Counter.add=RsCounter::add")

	var resolved bool
	for _, ref := range doc.References {
		if ref.From == "pkg.api.start" && ref.Target == "pkg._native.Counter" {
			resolved = true
		}
	}
	assert.True(t, resolved, "start's return type must resolve to the compiled class: %+v", doc.References)

	_, err = os.Stat(filepath.Join(root, "docs"))
	assert.True(t, os.IsNotExist(err), "generate must not write pages")
}

func TestGenerate_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, sampleTree())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newApp(t, testConfig(), root).Generate(ctx)
	require.Error(t, err)
}
