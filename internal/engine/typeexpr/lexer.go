package typeexpr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokString
	tokNumber
	tokEllipsis
	tokLBracket
	tokRBracket
	tokComma
	tokPipe
	tokDot
	tokOther
)

type token struct {
	kind tokenKind
	text string
}

// lex splits annotation text into tokens. Characters outside the annotation
// grammar become tokOther so the parser can degrade instead of failing.
func lex(src string) []token {
	var out []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			out = append(out, token{kind: tokName, text: src[start:i]})
		case r >= '0' && r <= '9', r == '-' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			start := i
			i++
			for i < len(src) && (isDigit(src[i]) || src[i] == '.' || src[i] == '_' || src[i] == 'x' || src[i] == 'e') {
				i++
			}
			out = append(out, token{kind: tokNumber, text: src[start:i]})
		case r == '\'' || r == '"':
			end := scanString(src, i)
			if end < 0 {
				out = append(out, token{kind: tokOther, text: src[i:]})
				return out
			}
			out = append(out, token{kind: tokString, text: src[i:end]})
			i = end
		case strings.HasPrefix(src[i:], "..."):
			out = append(out, token{kind: tokEllipsis, text: "..."})
			i += 3
		case r == '[':
			out = append(out, token{kind: tokLBracket, text: "["})
			i++
		case r == ']':
			out = append(out, token{kind: tokRBracket, text: "]"})
			i++
		case r == ',':
			out = append(out, token{kind: tokComma, text: ","})
			i++
		case r == '|':
			out = append(out, token{kind: tokPipe, text: "|"})
			i++
		case r == '.':
			out = append(out, token{kind: tokDot, text: "."})
			i++
		default:
			out = append(out, token{kind: tokOther, text: string(r)})
			i += size
		}
	}
	return append(out, token{kind: tokEOF})
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// scanString returns the index just past the closing quote, or -1.
func scanString(src string, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return -1
}

// unquote strips matching quotes from a string token.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// SplitTopLevel splits s on sep, ignoring separators nested inside brackets,
// parentheses, braces or string literals. Parts are trimmed; empty parts are
// dropped.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case '\'', '"':
			if end := scanString(s, i); end > 0 {
				i = end - 1
			}
		default:
			if c == sep && depth == 0 {
				if p := strings.TrimSpace(s[start:i]); p != "" {
					parts = append(parts, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(s[start:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}
