package backend

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// NavEntry is one page in the site navigation. Path is relative to the
// content directory.
type NavEntry struct {
	Title    string
	Path     string
	Children []NavEntry
}

// NavFiles renders the navigation and generator configuration files,
// keyed by path relative to the output directory.
func (b Backend) NavFiles(project string, entries []NavEntry) (map[string][]byte, error) {
	switch b.Kind {
	case MdBook:
		book, err := bookTOML(project)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{
			path.Join(b.ContentDir, b.NavFile): summary(project, entries),
			"book.toml":                        book,
			"theme/custom.css":                 []byte(b.customCSS()),
		}, nil
	default:
		nav, err := mkdocsNav(project, entries)
		if err != nil {
			return nil, err
		}
		return map[string][]byte{b.NavFile: nav}, nil
	}
}

func mkdocsNav(project string, entries []NavEntry) ([]byte, error) {
	items := navItems(entries)
	if project != "" {
		items = []any{map[string]any{project: items}}
	}
	var buf bytes.Buffer
	buf.WriteString("# Include in mkdocs.yml, e.g. with the awesome-pages or nav plugins.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"nav": items}); err != nil {
		return nil, fmt.Errorf("encode nav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func navItems(entries []NavEntry) []any {
	items := make([]any, 0, len(entries))
	for _, e := range entries {
		if len(e.Children) == 0 {
			items = append(items, map[string]any{e.Title: e.Path})
			continue
		}
		children := append([]any{map[string]any{e.Title: e.Path}}, navItems(e.Children)...)
		items = append(items, map[string]any{e.Title: children})
	}
	return items
}

func summary(project string, entries []NavEntry) []byte {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	if project != "" {
		b.WriteString(fmt.Sprintf("# %s\n\n", project))
	}
	var write func(es []NavEntry, depth int)
	write = func(es []NavEntry, depth int) {
		for _, e := range es {
			b.WriteString(fmt.Sprintf("%s- [%s](%s)\n", strings.Repeat("  ", depth), e.Title, e.Path))
			write(e.Children, depth+1)
		}
	}
	write(entries, 0)
	return []byte(b.String())
}

type bookConfig struct {
	Book struct {
		Title    string   `toml:"title"`
		Authors  []string `toml:"authors"`
		Language string   `toml:"language"`
		Src      string   `toml:"src"`
	} `toml:"book"`
	Build struct {
		BuildDir string `toml:"build-dir"`
	} `toml:"build"`
	Output struct {
		HTML struct {
			DefaultTheme       string   `toml:"default-theme"`
			PreferredDarkTheme string   `toml:"preferred-dark-theme"`
			AdditionalCSS      []string `toml:"additional-css"`
			Fold               struct {
				Enable bool `toml:"enable"`
				Level  int  `toml:"level"`
			} `toml:"fold"`
		} `toml:"html"`
	} `toml:"output"`
}

func bookTOML(project string) ([]byte, error) {
	var cfg bookConfig
	cfg.Book.Title = project
	cfg.Book.Authors = []string{}
	cfg.Book.Language = "en"
	cfg.Book.Src = "src"
	cfg.Build.BuildDir = "book"
	cfg.Output.HTML.DefaultTheme = "rust"
	cfg.Output.HTML.PreferredDarkTheme = "coal"
	cfg.Output.HTML.AdditionalCSS = []string{"theme/custom.css"}
	cfg.Output.HTML.Fold.Enable = true
	cfg.Output.HTML.Fold.Level = 1

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode book.toml: %w", err)
	}
	return buf.Bytes(), nil
}

func (b Backend) customCSS() string {
	t := b.Theme
	return fmt.Sprintf(`.apiscribe-badge {
    display: inline-block;
    padding: 0 0.4em;
    border: 1px solid %s;
    border-radius: 4px;
    font-size: 0.75em;
    background: %s;
}

.apiscribe-signature {
    color: %s;
}
`, t.Border, t.CodeBg, t.CodeFg)
}
