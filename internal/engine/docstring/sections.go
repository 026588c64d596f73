package docstring

import (
	"regexp"
	"strings"

	"apiscribe/internal/engine/model"
)

var markdownItem = regexp.MustCompile("^[*-]\\s+`?([A-Za-z_][A-Za-z0-9_.]*)`?\\s*(?:[-:–]\\s*)?(.*)$")

func parseParams(body []string, style model.DocStyle) []model.DocParam {
	var params []model.DocParam
	var cur *model.DocParam
	var text []string
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, " ")
			params = append(params, *cur)
		}
		cur, text = nil, nil
	}
	base := baseIndent(body)
	for _, line := range body {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if indent(line) == base {
			switch style {
			case model.DocNumPy:
				flush()
				name, typ, _ := strings.Cut(t, ":")
				cur = &model.DocParam{Name: strings.TrimSpace(name), Type: strings.TrimSpace(typ)}
				continue
			case model.DocMarkdown:
				if m := markdownItem.FindStringSubmatch(t); m != nil {
					flush()
					cur = &model.DocParam{Name: m[1]}
					text = appendText(text, m[2])
					continue
				}
			default:
				if strings.Contains(t, ":") {
					flush()
					name, typ, desc := googleParam(t)
					cur = &model.DocParam{Name: name, Type: typ}
					text = appendText(text, desc)
					continue
				}
			}
		}
		if cur != nil {
			text = append(text, t)
		}
	}
	flush()
	return params
}

// googleParam splits "name (type): text" or "name: text".
func googleParam(line string) (name, typ, text string) {
	head, text, _ := strings.Cut(line, ":")
	text = strings.TrimSpace(text)
	if open := strings.IndexByte(head, '('); open >= 0 {
		if end := strings.LastIndexByte(head, ')'); end > open {
			return strings.TrimSpace(head[:open]), strings.TrimSpace(head[open+1 : end]), text
		}
	}
	return strings.TrimSpace(head), "", text
}

func parseReturns(body []string, style model.DocStyle) (typ, text string) {
	var lines []string
	base := baseIndent(body)
	for _, line := range body {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if len(lines) == 0 && typ == "" {
			switch style {
			case model.DocNumPy:
				if indent(line) == base {
					if _, rest, ok := strings.Cut(t, ":"); ok {
						typ = strings.TrimSpace(rest)
					} else {
						typ = t
					}
					continue
				}
			case model.DocGoogle:
				if head, rest, ok := strings.Cut(t, ":"); ok && (!strings.Contains(head, " ") || strings.Contains(head, "[")) {
					typ = strings.TrimSpace(head)
					lines = appendText(lines, rest)
					continue
				}
			}
		}
		lines = append(lines, t)
	}
	return typ, strings.Join(lines, " ")
}

func parseRaises(body []string, style model.DocStyle) []model.DocRaise {
	var raises []model.DocRaise
	var cur *model.DocRaise
	var text []string
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, " ")
			raises = append(raises, *cur)
		}
		cur, text = nil, nil
	}
	base := baseIndent(body)
	for _, line := range body {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if indent(line) == base {
			switch style {
			case model.DocNumPy:
				flush()
				cur = &model.DocRaise{Kind: t}
				continue
			case model.DocMarkdown:
				if m := markdownItem.FindStringSubmatch(t); m != nil {
					flush()
					cur = &model.DocRaise{Kind: m[1]}
					text = appendText(text, m[2])
					continue
				}
				if cur == nil {
					cur = &model.DocRaise{Kind: "Error"}
				}
			default:
				if kind, rest, ok := strings.Cut(t, ":"); ok {
					flush()
					cur = &model.DocRaise{Kind: strings.TrimSpace(kind)}
					text = appendText(text, rest)
					continue
				}
			}
		}
		if cur != nil {
			text = append(text, t)
		}
	}
	flush()
	return raises
}

// parseExamples splits the section into blocks on blank lines outside code
// fences.
func parseExamples(body []string) []string {
	base := baseIndent(body)
	var blocks []string
	var cur []string
	inFence := false
	for _, line := range body {
		line = line[min(base, indent(line)):]
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "```") {
			inFence = !inFence
		}
		if t == "" && !inFence {
			if len(cur) > 0 {
				blocks = append(blocks, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.TrimRight(line, " "))
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

func baseIndent(body []string) int {
	for _, l := range body {
		if strings.TrimSpace(l) != "" {
			return indent(l)
		}
	}
	return 0
}

func appendText(text []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(text, s)
	}
	return text
}
