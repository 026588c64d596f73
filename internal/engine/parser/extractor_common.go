package parser

import (
	"regexp"
	"strings"
)

var stringPrefix = regexp.MustCompile(`^[rRuUbBfF]{0,2}`)

// stringLiteral returns the contents of a Python string literal, or "" when
// text is not a plain string literal.
func stringLiteral(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = text[len(stringPrefix.FindString(text)):]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return text[len(q) : len(text)-len(q)], true
		}
	}
	return "", false
}

// firstLine returns text up to the first newline, trimmed.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// shorten collapses whitespace and truncates long default values.
func shorten(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) <= limit {
		return text
	}
	return string([]rune(text)[:limit-1]) + "…"
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func isUpperName(name string) bool {
	if name == "" {
		return false
	}
	return strings.ToUpper(name) == name && strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}
