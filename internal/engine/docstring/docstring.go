// Package docstring interprets raw docstrings into structured sections.
//
// Three header styles are recognized: Google ("Args:"), NumPy (a header
// underlined with dashes) and Markdown ("# Arguments", used by Rust doc
// comments on bindings). Text under headers that are not recognized is kept
// verbatim in the description.
package docstring

import (
	"regexp"
	"strings"

	"apiscribe/internal/engine/model"
)

type sectionKind int

const (
	sectionUnknown sectionKind = iota
	sectionArgs
	sectionReturns
	sectionRaises
	sectionExamples
)

var sectionAliases = map[string]sectionKind{
	"args":       sectionArgs,
	"arguments":  sectionArgs,
	"parameters": sectionArgs,
	"params":     sectionArgs,
	"returns":    sectionReturns,
	"return":     sectionReturns,
	"raises":     sectionRaises,
	"raise":      sectionRaises,
	"exceptions": sectionRaises,
	"except":     sectionRaises,
	"errors":     sectionRaises,
	"panics":     sectionRaises,
	"example":    sectionExamples,
	"examples":   sectionExamples,
}

var (
	googleHeader   = regexp.MustCompile(`^([A-Za-z][A-Za-z ]{0,30}):$`)
	markdownHeader = regexp.MustCompile(`^#{1,3}\s+(\S.*)$`)
	dashRule       = regexp.MustCompile(`^-{3,}$`)
)

type section struct {
	kind   sectionKind
	header []string // header lines as written
	body   []string
}

// Parse interprets raw docstring text. The result depends only on raw, so
// re-running it always yields the same structure.
func Parse(raw string) model.Docstring {
	doc := model.Docstring{Raw: raw}
	lines := splitLines(Clean(raw))
	if len(lines) == 0 {
		return doc
	}
	doc.Style = detectStyle(lines)

	i := 0
	var summary []string
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" || headerAt(lines, i, doc.Style) != "" {
			break
		}
		summary = append(summary, t)
	}
	doc.Summary = strings.Join(summary, " ")

	var description []string
	var current *section
	flush := func() {
		if current == nil {
			return
		}
		apply(&doc, current, &description)
		current = nil
	}
	inFence := false
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if name := headerAt(lines, i, doc.Style); name != "" && !inFence {
			flush()
			current = &section{kind: sectionAliases[strings.ToLower(name)], header: []string{line}}
			if doc.Style == model.DocNumPy {
				i++
				current.header = append(current.header, lines[i])
			}
			continue
		}
		if current != nil {
			if doc.Style == model.DocGoogle && indent(line) == 0 && strings.TrimSpace(line) != "" {
				flush()
				description = append(description, line)
				continue
			}
			current.body = append(current.body, line)
			continue
		}
		description = append(description, line)
	}
	flush()
	doc.Description = strings.TrimSpace(strings.Join(description, "\n"))
	return doc
}

// Clean strips surrounding blank lines and the common indentation of every
// line after the first, matching inspect.cleandoc. Cleaning cleaned text is a
// no-op.
func Clean(raw string) string {
	lines := splitLines(strings.ReplaceAll(raw, "\t", "    "))
	if len(lines) == 0 {
		return ""
	}
	margin := -1
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := indent(l); margin < 0 || n < margin {
			margin = n
		}
	}
	lines[0] = strings.TrimSpace(lines[0])
	for i := 1; i < len(lines); i++ {
		switch {
		case strings.TrimSpace(lines[i]) == "":
			lines[i] = ""
		case margin > 0:
			lines[i] = lines[i][margin:]
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func detectStyle(lines []string) model.DocStyle {
	for i := 1; i < len(lines); i++ {
		if dashRule.MatchString(strings.TrimSpace(lines[i])) && strings.TrimSpace(lines[i-1]) != "" {
			return model.DocNumPy
		}
	}
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if m := googleHeader.FindStringSubmatch(t); m != nil && indent(l) == 0 {
			if _, ok := sectionAliases[strings.ToLower(m[1])]; ok {
				return model.DocGoogle
			}
		}
		if m := markdownHeader.FindStringSubmatch(t); m != nil && indent(l) == 0 {
			if _, ok := sectionAliases[strings.ToLower(m[1])]; ok {
				return model.DocMarkdown
			}
		}
	}
	return model.DocPlain
}

// headerAt returns the section name when line i opens a section in style.
func headerAt(lines []string, i int, style model.DocStyle) string {
	line := lines[i]
	if indent(line) != 0 {
		return ""
	}
	t := strings.TrimSpace(line)
	switch style {
	case model.DocGoogle:
		if m := googleHeader.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	case model.DocNumPy:
		if t != "" && i+1 < len(lines) && dashRule.MatchString(strings.TrimSpace(lines[i+1])) {
			return t
		}
	case model.DocMarkdown:
		if m := markdownHeader.FindStringSubmatch(t); m != nil {
			return m[1]
		}
	}
	return ""
}

func apply(doc *model.Docstring, s *section, description *[]string) {
	switch s.kind {
	case sectionArgs:
		doc.Args = append(doc.Args, parseParams(s.body, doc.Style)...)
	case sectionReturns:
		typ, text := parseReturns(s.body, doc.Style)
		doc.ReturnsType, doc.Returns = typ, text
	case sectionRaises:
		doc.Raises = append(doc.Raises, parseRaises(s.body, doc.Style)...)
	case sectionExamples:
		doc.Examples = append(doc.Examples, parseExamples(s.body)...)
	default:
		*description = append(*description, "")
		*description = append(*description, s.header...)
		*description = append(*description, s.body...)
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
