// Package diagnostics accumulates the non-fatal findings of a run so they can
// be reported once, after the output has been written.
package diagnostics

import (
	"fmt"
	"sort"
	"sync"
)

type Kind int

const (
	ParseError Kind = iota
	DegradedSymbol
	UnresolvedReference
	ConflictingProvenance
	IOWarning
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "parse-error"
	case DegradedSymbol:
		return "degraded-symbol"
	case UnresolvedReference:
		return "unresolved-reference"
	case ConflictingProvenance:
		return "conflicting-provenance"
	case IOWarning:
		return "io-warning"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Severity maps each kind to how it is surfaced. None of them abort a run.
func (k Kind) Severity() Severity {
	switch k {
	case ParseError:
		return SeverityError
	case ConflictingProvenance:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

type Diagnostic struct {
	Kind    Kind
	Path    string
	Line    int
	Subject string // module or qualified symbol name
	Message string
}

func (d Diagnostic) String() string {
	loc := d.Path
	if loc != "" && d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, d.Line)
	}
	if loc == "" {
		loc = d.Subject
	} else if d.Subject != "" {
		loc = fmt.Sprintf("%s [%s]", loc, d.Subject)
	}
	return fmt.Sprintf("%s %s: %s: %s", d.Kind.Severity(), d.Kind, loc, d.Message)
}

// Collector is safe for concurrent use by parse workers.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
	seen  map[Diagnostic]struct{}
}

func NewCollector() *Collector {
	return &Collector{seen: make(map[Diagnostic]struct{})}
}

func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[d]; ok {
		return
	}
	c.seen[d] = struct{}{}
	c.items = append(c.items, d)
}

func (c *Collector) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		c.Add(d)
	}
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sorted returns a stable, deterministic copy ordered by path, line, kind and subject.
func (c *Collector) Sorted() []Diagnostic {
	c.mu.Lock()
	out := append([]Diagnostic(nil), c.items...)
	c.mu.Unlock()
	Sort(out)
	return out
}

func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Message < b.Message
	})
}

// Counts tallies diagnostics per kind.
func Counts(ds []Diagnostic) map[Kind]int {
	out := make(map[Kind]int)
	for _, d := range ds {
		out[d.Kind]++
	}
	return out
}

// HasWarnings reports whether anything at warning severity or above was recorded.
func HasWarnings(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Kind.Severity() >= SeverityWarning {
			return true
		}
	}
	return false
}
