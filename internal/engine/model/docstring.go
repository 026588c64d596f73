package model

import "strings"

type DocStyle int

const (
	DocPlain DocStyle = iota
	DocGoogle
	DocNumPy
	DocMarkdown
)

type DocParam struct {
	Name string
	Type string
	Text string
}

type DocRaise struct {
	Kind string
	Text string
}

// Docstring keeps the raw text alongside its structured sections.
type Docstring struct {
	Raw         string
	Style       DocStyle
	Summary     string
	Description string
	Args        []DocParam
	Returns     string
	ReturnsType string
	Raises      []DocRaise
	Examples    []string
}

func (d Docstring) Empty() bool {
	return strings.TrimSpace(d.Raw) == ""
}
