package model

import "fmt"

type ProvenanceKind int

const (
	ProvenanceSource ProvenanceKind = iota
	ProvenanceCompiled
	ProvenanceOverlay
)

// Provenance records where a module's symbol information came from.
type Provenance struct {
	Kind ProvenanceKind
	// OverlayOf is the qualified name of the compiled module an overlay extends.
	OverlayOf string
}

func SourceProvenance() Provenance   { return Provenance{Kind: ProvenanceSource} }
func CompiledProvenance() Provenance { return Provenance{Kind: ProvenanceCompiled} }

func OverlayProvenance(of string) Provenance {
	return Provenance{Kind: ProvenanceOverlay, OverlayOf: of}
}

func (p Provenance) IsCompiled() bool { return p.Kind == ProvenanceCompiled }
func (p Provenance) IsOverlay() bool  { return p.Kind == ProvenanceOverlay }

func (p Provenance) String() string {
	switch p.Kind {
	case ProvenanceSource:
		return "source"
	case ProvenanceCompiled:
		return "compiled"
	case ProvenanceOverlay:
		return fmt.Sprintf("overlay-of(%s)", p.OverlayOf)
	default:
		return "unknown"
	}
}

// Origin is the on-disk artifact a module was discovered from.
type Origin int

const (
	OriginPython    Origin = iota // .py source
	OriginStub                    // .pyi interface description
	OriginExtension               // .so / .pyd with no interface description
	OriginRust                    // PyO3 crate
)

func (o Origin) String() string {
	switch o {
	case OriginPython:
		return "python"
	case OriginStub:
		return "stub"
	case OriginExtension:
		return "extension"
	case OriginRust:
		return "rust"
	default:
		return "unknown"
	}
}
