package backend

import (
	"strings"
	"testing"

	"apiscribe/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"", MkDocs},
		{"mkdocs", MkDocs},
		{"MkDocs-Material", MkDocs},
		{"mkdocs_material", MkDocs},
		{"material", MkDocs},
		{"mdbook", MdBook},
		{"MD-BOOK", MdBook},
		{" md_book ", MdBook},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := Parse("sphinx")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestThemeTokensAreIsolated(t *testing.T) {
	for _, tok := range Get(MkDocs).Theme.Tokens() {
		assert.True(t, strings.HasPrefix(tok, "var(--md-"), tok)
	}
	for _, tok := range Get(MdBook).Theme.Tokens() {
		assert.True(t, strings.HasPrefix(tok, "var(--"), tok)
		assert.NotContains(t, tok, "var(--md-")
	}
}

func TestSitePaths(t *testing.T) {
	site := Site{Backend: Get(MkDocs), Layout: ProjectFirst, Project: "demo"}
	assert.Equal(t, "demo/pkg/core.md", site.ModulePath("pkg.core"))
	assert.Equal(t, "demo/pkg/core/Engine.md", site.SymbolPath("pkg.core", "Engine"))
	assert.Equal(t, "demo/pkg/core.md", site.OutputPath("demo/pkg/core.md"))
	assert.Equal(t, []string{"demo"}, site.Owned([]string{"pkg"}))

	flat := Site{Backend: Get(MdBook), Layout: Flat, Project: "demo"}
	assert.Equal(t, "helpers.md", flat.ModulePath("helpers"))
	assert.Equal(t, "src/helpers.md", flat.OutputPath("helpers.md"))
	assert.Equal(t, []string{"helpers", "helpers.md"}, flat.Owned([]string{"helpers"}))
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, ProjectFirst, l)
	l, err = ParseLayout("FLAT")
	require.NoError(t, err)
	assert.Equal(t, Flat, l)
	_, err = ParseLayout("nested")
	assert.Error(t, err)
}

func TestLink(t *testing.T) {
	tests := []struct{ from, to, want string }{
		{"demo/pkg/core.md", "demo/pkg/core/Engine.md", "core/Engine.md"},
		{"demo/pkg/core/Engine.md", "demo/pkg/core.md", "../core.md"},
		{"demo/pkg/core/Engine.md", "demo/other/Task.md", "../../other/Task.md"},
		{"pkg.md", "pkg/core.md", "pkg/core.md"},
		{"pkg/core.md", "helpers.md", "../helpers.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Link(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestAdmonition(t *testing.T) {
	mk := Get(MkDocs).Admonition("warning", "Degraded", "line one\n\nline two")
	assert.Equal(t, "!!! warning \"Degraded\"\n    line one\n\n    line two\n\n", mk)

	book := Get(MdBook).Admonition("warning", "Degraded", "line one")
	assert.Equal(t, "> **Degraded**\n>\n> line one\n\n", book)
}

func TestNavFiles(t *testing.T) {
	entries := []NavEntry{
		{Title: "pkg.core", Path: "demo/pkg/core.md", Children: []NavEntry{{Title: "Engine", Path: "demo/pkg/core/Engine.md"}}},
		{Title: "pkg.util", Path: "demo/pkg/util.md"},
	}

	files, err := Get(MkDocs).NavFiles("demo", entries)
	require.NoError(t, err)
	nav := string(files["_nav.yml"])
	assert.Contains(t, nav, "nav:")
	assert.Contains(t, nav, "- pkg.core: demo/pkg/core.md")
	assert.Contains(t, nav, "- Engine: demo/pkg/core/Engine.md")
	assert.Contains(t, nav, "- pkg.util: demo/pkg/util.md")

	files, err = Get(MdBook).NavFiles("demo", entries)
	require.NoError(t, err)
	require.Contains(t, files, "src/SUMMARY.md")
	assert.Contains(t, string(files["src/SUMMARY.md"]), "- [pkg.core](demo/pkg/core.md)\n  - [Engine](demo/pkg/core/Engine.md)\n")
	book := string(files["book.toml"])
	assert.Contains(t, book, `title = "demo"`)
	assert.Contains(t, book, `src = "src"`)
	assert.Contains(t, book, "[output.html.fold]")
	css := string(files["theme/custom.css"])
	assert.Contains(t, css, "var(--code-bg)")
	assert.NotContains(t, css, "var(--md-")
}
