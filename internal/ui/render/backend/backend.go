// Package backend holds the per-generator conventions the renderer targets:
// CSS-variable themes, admonition syntax, content layout and navigation
// files.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"apiscribe/internal/core/errors"
)

type Kind string

const (
	MkDocs Kind = "mkdocs"
	MdBook Kind = "mdbook"
)

// Default is the backend used when none is selected.
const Default = MkDocs

var aliases = map[string]Kind{
	"mkdocs":          MkDocs,
	"mkdocs-material": MkDocs,
	"mkdocs_material": MkDocs,
	"material":        MkDocs,
	"mdbook":          MdBook,
	"md-book":         MdBook,
	"md_book":         MdBook,
}

// Parse maps a backend name or alias, case-insensitively. Empty selects
// Default.
func Parse(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default, nil
	}
	if k, ok := aliases[name]; ok {
		return k, nil
	}
	return "", errors.New(errors.CodeValidationError,
		fmt.Sprintf("unknown backend %q (supported: %s)", name, strings.Join(Names(), ", ")))
}

// Names lists every accepted backend name, sorted.
func Names() []string {
	out := make([]string, 0, len(aliases))
	for name := range aliases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Theme maps semantic roles to the generator's own CSS variables so inline
// styles follow its palette and dark mode.
type Theme struct {
	CodeBg  string
	CodeFg  string
	Primary string
	Accent  string
	Muted   string
	Border  string

	Warning string
	Binding string
}

// Tokens lists every value of the theme.
func (t Theme) Tokens() []string {
	return []string{t.CodeBg, t.CodeFg, t.Primary, t.Accent, t.Muted, t.Border, t.Warning, t.Binding}
}

var themes = map[Kind]Theme{
	MkDocs: {
		CodeBg:  "var(--md-code-bg-color)",
		CodeFg:  "var(--md-code-fg-color)",
		Primary: "var(--md-primary-fg-color)",
		Accent:  "var(--md-accent-fg-color)",
		Muted:   "var(--md-default-fg-color--light)",
		Border:  "var(--md-default-fg-color--lightest)",
		Warning: "var(--md-warning-fg-color, #ff9100)",
		Binding: "var(--md-accent-fg-color)",
	},
	MdBook: {
		CodeBg:  "var(--code-bg)",
		CodeFg:  "var(--inline-code-color)",
		Primary: "var(--links)",
		Accent:  "var(--links)",
		Muted:   "var(--fg)",
		Border:  "var(--quote-border)",
		Warning: "var(--warning-border, #ff9800)",
		Binding: "var(--links)",
	},
}

// Backend is one supported site generator.
type Backend struct {
	Kind  Kind
	Theme Theme
	// ContentDir is where pages live relative to the output directory.
	ContentDir string
	// NavFile is the navigation file written next to the pages.
	NavFile string
}

func Get(kind Kind) Backend {
	switch kind {
	case MdBook:
		return Backend{Kind: MdBook, Theme: themes[MdBook], ContentDir: "src", NavFile: "SUMMARY.md"}
	default:
		return Backend{Kind: MkDocs, Theme: themes[MkDocs], NavFile: "_nav.yml"}
	}
}

// Admonition renders a callout block in the generator's native syntax.
func (b Backend) Admonition(kind, title, body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	var out strings.Builder
	switch b.Kind {
	case MkDocs:
		out.WriteString(fmt.Sprintf("!!! %s %q\n", kind, title))
		for _, l := range lines {
			if l == "" {
				out.WriteString("\n")
				continue
			}
			out.WriteString("    " + l + "\n")
		}
	default:
		out.WriteString(fmt.Sprintf("> **%s**\n>\n", title))
		for _, l := range lines {
			if l == "" {
				out.WriteString(">\n")
				continue
			}
			out.WriteString("> " + l + "\n")
		}
	}
	out.WriteString("\n")
	return out.String()
}
