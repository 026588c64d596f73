// Package linkcheck verifies that relative links in rendered pages point at
// pages produced by the same run.
package linkcheck

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Broken is a link whose target is not among the rendered pages.
type Broken struct {
	Page        string
	Destination string
}

func (b Broken) String() string {
	return fmt.Sprintf("%s: broken link to %s", b.Page, b.Destination)
}

// Check parses every page and reports relative links that do not resolve.
// Keys of pages are slash-separated paths relative to a common root.
// External URLs and in-page anchors are not checked.
func Check(pages map[string][]byte) []Broken {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	var broken []Broken
	for _, name := range names {
		body := pages[name]
		root := md.Parser().Parse(text.NewReader(body))
		_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
			if !entering {
				return gmast.WalkContinue, nil
			}
			link, ok := n.(*gmast.Link)
			if !ok {
				return gmast.WalkContinue, nil
			}
			dest := string(link.Destination)
			target, check := resolve(name, dest)
			if check {
				if _, ok := pages[target]; !ok {
					broken = append(broken, Broken{Page: name, Destination: dest})
				}
			}
			return gmast.WalkContinue, nil
		})
	}
	return broken
}

// resolve maps a link destination to a page key. check is false for links
// that are not relative page links.
func resolve(page, dest string) (target string, check bool) {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return dest, true
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return path.Join(path.Dir(page), u.Path), true
}
