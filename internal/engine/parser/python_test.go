package parser

import (
	"context"
	"testing"

	"apiscribe/internal/core/errors"
	"apiscribe/internal/engine/model"
	"apiscribe/internal/engine/typeexpr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(NewGrammarLoader())
}

func parsePython(t *testing.T, qn, code string) *Parsed {
	t.Helper()
	parsed, err := newTestParser(t).ParseModule(context.Background(), "test.py", qn, false, []byte(code))
	require.NoError(t, err)
	return parsed
}

func symbolNamed(t *testing.T, syms []*model.Symbol, name string) *model.Symbol {
	t.Helper()
	for _, s := range syms {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found", name)
	return nil
}

func TestPythonModuleDocAndFunctions(t *testing.T) {
	code := `"""Helper utilities."""

def greet(name: str, excited: bool = False) -> str:
    """Return a greeting.

    Args:
        name: Who to greet.
    """
    return name

async def fetch(url: str) -> bytes:
    return b""
`
	parsed := parsePython(t, "pkg.helpers", code)
	assert.Equal(t, "Helper utilities.", parsed.Doc.Summary)
	require.Len(t, parsed.Symbols, 2)

	greet := parsed.Symbols[0]
	assert.Equal(t, "pkg.helpers.greet", greet.QualifiedName)
	assert.Equal(t, model.KindFunction, greet.Kind)
	assert.Equal(t, "Return a greeting.", greet.Doc.Summary)
	require.Len(t, greet.Doc.Args, 1)
	require.NotNil(t, greet.Signature)
	require.Len(t, greet.Signature.Params, 2)
	assert.Equal(t, "str", typeexpr.Format(greet.Signature.Params[0].Type))
	assert.True(t, greet.Signature.Params[1].HasDefault)
	assert.Equal(t, "False", greet.Signature.Params[1].Default)
	assert.Equal(t, "str", typeexpr.Format(greet.Signature.Returns))
	assert.False(t, greet.Signature.Async)

	fetch := parsed.Symbols[1]
	assert.True(t, fetch.Signature.Async)
	assert.Equal(t, model.Complete, fetch.Completeness)
}

func TestPythonClassMembers(t *testing.T) {
	code := `class Client:
    """HTTP client."""

    retries = 3

    def __init__(self, url: str, *, timeout: float = 1.0) -> None:
        self.url = url

    @property
    def base(self) -> str:
        return self.url

    @staticmethod
    def build(name: str) -> "Client":
        return Client(name)

    @classmethod
    def default(cls) -> "Client":
        return cls("x")

    async def fetch(self, *paths: str, **opts: int) -> bytes:
        return b""

    class Options:
        pass
`
	parsed := parsePython(t, "pkg.client", code)
	require.Len(t, parsed.Symbols, 1)
	client := parsed.Symbols[0]
	assert.Equal(t, model.KindClass, client.Kind)
	assert.Equal(t, "HTTP client.", client.Doc.Summary)

	names := make([]string, 0, len(client.Members))
	for _, m := range client.Members {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"retries", "__init__", "base", "build", "default", "fetch", "Options"}, names)

	ctor := client.Member("__init__")
	assert.True(t, ctor.Has(model.FlagConstructor))
	require.Len(t, ctor.Signature.Params, 2)
	assert.Equal(t, "url", ctor.Signature.Params[0].Name)
	assert.Equal(t, model.ParamPositional, ctor.Signature.Params[0].Kind)
	assert.Equal(t, model.ParamKeywordOnly, ctor.Signature.Params[1].Kind)
	assert.Equal(t, "1.0", ctor.Signature.Params[1].Default)

	assert.True(t, client.Member("base").Has(model.FlagProperty))

	build := client.Member("build")
	assert.True(t, build.Has(model.FlagStaticMethod))
	require.Len(t, build.Signature.Params, 1)
	assert.Equal(t, "name", build.Signature.Params[0].Name)
	assert.Equal(t, model.TypeForwardRef, build.Signature.Returns.Node().Kind)

	assert.Empty(t, client.Member("default").Signature.Params)

	fetch := client.Member("fetch")
	assert.True(t, fetch.Signature.Async)
	require.Len(t, fetch.Signature.Params, 2)
	assert.Equal(t, model.ParamVarPositional, fetch.Signature.Params[0].Kind)
	assert.Equal(t, model.ParamVarKeyword, fetch.Signature.Params[1].Kind)

	assert.Equal(t, "pkg.client.Client.Options", client.Member("Options").QualifiedName)
}

func TestPythonOverloadGrouping(t *testing.T) {
	code := `from typing import overload

@overload
def parse(x: int) -> int: ...
@overload
def parse(x: str) -> str: ...
def parse(x):
    """Parse a value."""
    return x
`
	parsed := parsePython(t, "pkg.mod", code)
	require.Len(t, parsed.Symbols, 1)
	fn := parsed.Symbols[0]
	require.Len(t, fn.Overloads, 2)
	assert.Equal(t, "int", typeexpr.Format(fn.Overloads[0].Signature.Returns))
	assert.Equal(t, "str", typeexpr.Format(fn.Overloads[1].Signature.Returns))
	require.NotNil(t, fn.Signature)
	assert.Equal(t, "Parse a value.", fn.SharedDoc().Summary)
}

func TestPythonSpecialClasses(t *testing.T) {
	code := `from dataclasses import dataclass
from enum import Enum
from typing import ClassVar, Generic, NotRequired, Protocol, Required, TypedDict, TypeVar, runtime_checkable

T = TypeVar("T", covariant=True)

class Color(Enum):
    """Colors."""
    RED = 1
    GREEN = 2

@dataclass
class Point:
    x: int
    y: int = 0
    label: ClassVar[str] = "p"

class Movie(TypedDict, total=False):
    title: Required[str]
    year: int

@runtime_checkable
class Closeable(Protocol):
    def close(self) -> None: ...

class Box(Generic[T]):
    pass
`
	parsed := parsePython(t, "pkg.shapes", code)

	color := symbolNamed(t, parsed.Symbols, "Color")
	assert.Equal(t, model.KindEnum, color.Kind)
	require.Len(t, color.Variants, 2)
	assert.Equal(t, "RED", color.Variants[0].Name)
	assert.Equal(t, "1", color.Variants[0].Value)

	point := symbolNamed(t, parsed.Symbols, "Point")
	assert.True(t, point.Has(model.FlagDataclass))
	require.Len(t, point.Fields, 2)
	assert.True(t, point.Fields[0].Required)
	assert.True(t, point.Fields[1].HasDefault)
	assert.Equal(t, "0", point.Fields[1].Default)
	assert.NotNil(t, point.Member("label"))

	movie := symbolNamed(t, parsed.Symbols, "Movie")
	assert.Equal(t, model.KindTypedDict, movie.Kind)
	assert.False(t, movie.Total)
	require.Len(t, movie.Fields, 2)
	assert.True(t, movie.Fields[0].Required)
	assert.Equal(t, "str", typeexpr.Format(movie.Fields[0].Type))
	assert.False(t, movie.Fields[1].Required)

	closeable := symbolNamed(t, parsed.Symbols, "Closeable")
	assert.Equal(t, model.KindProtocol, closeable.Kind)
	assert.True(t, closeable.Has(model.FlagRuntimeCheckable))
	require.Len(t, closeable.Capabilities(), 1)

	box := symbolNamed(t, parsed.Symbols, "Box")
	require.Len(t, box.TypeParams, 1)
	assert.Equal(t, "T", box.TypeParams[0].Name)
	assert.Equal(t, model.Covariant, box.TypeParams[0].Variance)
}

func TestPythonVariablesAndAliases(t *testing.T) {
	code := `import logging
from typing import TypeAlias

__all__ = ["JSON", "MAX_SIZE"]

MAX_SIZE = 1024
"""Largest accepted payload."""

JSON: TypeAlias = "dict[str, JSON] | list[JSON] | str | int | float | bool | None"
Pair = tuple[int, int]
timeout: float = 2.5
log = logging.getLogger(__name__)
_private = 1

type Tree = dict[str, Tree] | None
`
	parsed := parsePython(t, "pkg.types", code)
	assert.Equal(t, []string{"JSON", "MAX_SIZE"}, parsed.All)

	size := symbolNamed(t, parsed.Symbols, "MAX_SIZE")
	assert.Equal(t, model.KindVariable, size.Kind)
	assert.Equal(t, "1024", size.Value)
	assert.Equal(t, "Largest accepted payload.", size.Doc.Summary)

	json := symbolNamed(t, parsed.Symbols, "JSON")
	assert.Equal(t, model.KindTypeAlias, json.Kind)
	assert.Equal(t, model.Complete, json.Completeness)
	assert.Equal(t, model.TypeUnion, json.Type.Node().Kind)

	assert.Equal(t, model.KindTypeAlias, symbolNamed(t, parsed.Symbols, "Pair").Kind)
	assert.Equal(t, "float", typeexpr.Format(symbolNamed(t, parsed.Symbols, "timeout").Type))

	tree := symbolNamed(t, parsed.Symbols, "Tree")
	assert.Equal(t, model.KindTypeAlias, tree.Kind)

	for _, s := range parsed.Symbols {
		assert.NotEqual(t, "log", s.Name)
		assert.NotEqual(t, "_private", s.Name)
	}
}

func TestPythonDegradedDeclarationKeepsSiblings(t *testing.T) {
	code := `def good(x: int) -> int:
    """Good."""
    return x

class Fine:
    """Fine."""

def broken(x:
`
	parsed := parsePython(t, "pkg.partial", code)

	good := symbolNamed(t, parsed.Symbols, "good")
	assert.Equal(t, model.Complete, good.Completeness)
	assert.Equal(t, "Good.", good.Doc.Summary)
	assert.NotNil(t, symbolNamed(t, parsed.Symbols, "Fine"))

	var degraded []*model.Symbol
	for _, s := range parsed.Symbols {
		if s.Completeness == model.Degraded {
			degraded = append(degraded, s)
		}
	}
	require.Len(t, degraded, 1)
	assert.Equal(t, "broken", degraded[0].Name)
	assert.Contains(t, degraded[0].Raw, "def broken")
	assert.NotEmpty(t, parsed.Diagnostics)
}

func TestPythonDegradedDeclarationKeepsDocstring(t *testing.T) {
	code := `def fine() -> None:
    """Fine."""


def bad(a: int -> int:
    """Bad.

    Args:
        a: Never parsed.
    """
    return a
`
	parsed := parsePython(t, "pkg.bad", code)
	assert.Equal(t, "Fine.", symbolNamed(t, parsed.Symbols, "fine").Doc.Summary)

	bad := symbolNamed(t, parsed.Symbols, "bad")
	assert.Equal(t, model.Degraded, bad.Completeness)
	assert.Contains(t, bad.Raw, "def bad")
	assert.Equal(t, "Bad.", bad.Doc.Summary)
	require.Len(t, bad.Doc.Args, 1)
	assert.Equal(t, "a", bad.Doc.Args[0].Name)
}

func TestBrokenDocstring(t *testing.T) {
	doc := brokenDocstring("def f(x:\n    '''Single quoted.'''\n", 0)
	assert.Equal(t, "Single quoted.", doc.Summary)

	// A string at the header's own indentation is a sibling statement.
	doc = brokenDocstring("def f(x:\n\"\"\"Module text.\"\"\"\n", 0)
	assert.True(t, doc.Empty())

	doc = brokenDocstring("def f(x\n", 0)
	assert.True(t, doc.Empty())
}

func TestPythonIndentedGoogleDocstring(t *testing.T) {
	code := `def greet(name: str) -> str:
    """Say hello.

    Args:
        name: Who to greet.

    Returns:
        The greeting.

    Raises:
        ValueError: If name is empty.

    Example:
        >>> greet("Ada")
        'Hello, Ada'
    """
    return "Hello, " + name
`
	parsed := parsePython(t, "pkg.helpers", code)
	greet := symbolNamed(t, parsed.Symbols, "greet")

	assert.Equal(t, model.DocGoogle, greet.Doc.Style)
	assert.Equal(t, "Say hello.", greet.Doc.Summary)
	require.Len(t, greet.Doc.Args, 1)
	assert.Equal(t, model.DocParam{Name: "name", Text: "Who to greet."}, greet.Doc.Args[0])
	assert.Equal(t, "The greeting.", greet.Doc.Returns)
	require.Len(t, greet.Doc.Raises, 1)
	assert.Equal(t, model.DocRaise{Kind: "ValueError", Text: "If name is empty."}, greet.Doc.Raises[0])
	require.Len(t, greet.Doc.Examples, 1)
	assert.Contains(t, greet.Doc.Examples[0], `>>> greet("Ada")`)
	assert.Empty(t, greet.Doc.Description)
}

func TestPythonIndentedNumPyDocstring(t *testing.T) {
	code := `class Store:
    def get(self, key: str, default: int = 0) -> int:
        """Look up a key.

        Parameters
        ----------
        key : str
            Name to look up.
        default : int
            Fallback value.

        Raises
        ------
        KeyError
            When strict and missing.
        """
`
	parsed := parsePython(t, "pkg.store", code)
	store := symbolNamed(t, parsed.Symbols, "Store")
	get := symbolNamed(t, store.Members, "get")

	assert.Equal(t, model.DocNumPy, get.Doc.Style)
	require.Len(t, get.Doc.Args, 2)
	assert.Equal(t, model.DocParam{Name: "default", Type: "int", Text: "Fallback value."}, get.Doc.Args[1])
	require.Len(t, get.Doc.Raises, 1)
	assert.Equal(t, "KeyError", get.Doc.Raises[0].Kind)
}

func TestPythonUnannotatedRecursiveAlias(t *testing.T) {
	code := `from typing import Dict, List, Union

JSON = Union[str, int, float, bool, None, Dict[str, "JSON"], List["JSON"]]
Headers = dict[str, str]
ROUTES = CONFIG["routes"]
LIMIT = 10
FLAGS = READ | WRITE
`
	parsed := parsePython(t, "pkg.json", code)

	json := symbolNamed(t, parsed.Symbols, "JSON")
	assert.Equal(t, model.KindTypeAlias, json.Kind)
	assert.Equal(t, model.Complete, json.Completeness)
	assert.Equal(t, model.TypeUnion, json.Type.Node().Kind)
	assert.Empty(t, json.Value)

	assert.Equal(t, model.KindTypeAlias, symbolNamed(t, parsed.Symbols, "Headers").Kind)
	for _, name := range []string{"ROUTES", "LIMIT", "FLAGS"} {
		assert.Equal(t, model.KindVariable, symbolNamed(t, parsed.Symbols, name).Kind, name)
	}
}

func TestPythonOpaqueAnnotationDegrades(t *testing.T) {
	code := `def run(callback: make_type(1)) -> int:
    return 1
`
	parsed := parsePython(t, "pkg.run", code)
	require.Len(t, parsed.Symbols, 1)
	run := parsed.Symbols[0]
	assert.Equal(t, model.Degraded, run.Completeness)
	assert.True(t, typeexpr.IsOpaque(run.Signature.Params[0].Type))
	assert.Equal(t, "int", typeexpr.Format(run.Signature.Returns))
}

func TestPythonImports(t *testing.T) {
	code := `import os.path
import numpy as np
from . import sibling
from ..core import Engine as E
from .types import *

def later():
    import json
`
	parsed := parsePython(t, "pkg.sub.mod", code)
	assert.Equal(t, []model.Import{
		{Local: "os", Target: "os", Line: 1},
		{Local: "os.path", Target: "os.path", Line: 1},
		{Local: "np", Target: "numpy", Line: 2},
		{Local: "sibling", Target: "pkg.sub.sibling", Line: 3},
		{Local: "E", Target: "pkg.core.Engine", Line: 4},
		{Target: "pkg.sub.types", Star: true, Line: 5},
	}, parsed.Imports)
}

func TestParseModuleRejectsBinaryContent(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseModule(context.Background(), "bad.py", "pkg.bad", false, []byte("x = 1\x00"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParse))

	_, err = p.ParseModule(context.Background(), "bad.py", "pkg.bad", false, []byte{0xff, 0xfe, 'x'})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParse))
}

func TestParseModuleHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestParser(t).ParseModule(ctx, "a.py", "a", false, []byte("x = 1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		module    string
		isPackage bool
		rel       string
		want      string
	}{
		{"pkg.sub.mod", false, ".", "pkg.sub"},
		{"pkg.sub.mod", false, ".types", "pkg.sub.types"},
		{"pkg.sub.mod", false, "..core", "pkg.core"},
		{"pkg.sub", true, ".", "pkg.sub"},
		{"pkg.sub", true, "..util", "pkg.util"},
		{"pkg", false, "absolute.name", "absolute.name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveRelative(tt.module, tt.isPackage, tt.rel), "%s %s", tt.module, tt.rel)
	}
}
