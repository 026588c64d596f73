// # internal/core/config/starter_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStarter_HybridProject(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"Cargo.toml":     "[package]\nname = \"native\"\n\n[dependencies]\npyo3 = \"0.22\"\n",
		"pyproject.toml": "[project]\nname = \"my-lib\"\n\n[tool.maturin]\npython-source = \"python\"\nmodule-name = \"my_lib._native\"\n",
	})

	path, err := WriteStarter(root, "mdbook", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# apiscribe configuration."))

	cfg, err := Load(path)
	require.NoError(t, err, "the starter file must load cleanly:\n%s", data)
	assert.Equal(t, "my-lib", cfg.Project.Name)
	assert.Equal(t, "mdbook", cfg.Output.Backend)
	assert.Equal(t, "docs", cfg.Output.Path)
	assert.Equal(t, "my_lib", cfg.Python.Package)
	assert.Equal(t, "python", cfg.Python.Source)
	assert.Equal(t, []Crate{{Path: ".", Module: "my_lib._native"}}, cfg.Rust.Crates)
}

func TestWriteStarter_PurePython(t *testing.T) {
	root := filepath.Join(t.TempDir(), "widgets")
	require.NoError(t, os.MkdirAll(root, 0o755))

	path, err := WriteStarter(root, "", false)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[rust]")
	assert.NotContains(t, string(data), "[python]")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "widgets", cfg.Project.Name)
	assert.Equal(t, "mkdocs", cfg.Output.Backend)
}

func TestWriteStarter_ExistingFile(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "[project]\nname = \"keep\"\n")

	if _, err := WriteStarter(root, "", false); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists, got %v", err)
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[project]\nname = \"keep\"\n", string(data))

	_, err = WriteStarter(root, "", true)
	require.NoError(t, err)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), cfg.Project.Name)
}
