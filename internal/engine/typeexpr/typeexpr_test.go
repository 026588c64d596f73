package typeexpr

import (
	"testing"

	"apiscribe/internal/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interpret(t *testing.T, text string) (model.TypeRef, bool) {
	t.Helper()
	arena := model.NewTypeArena()
	id, ok := Interpret(arena, text)
	return arena.Ref(id), ok
}

func TestInterpretCanonicalText(t *testing.T) {
	tests := []struct {
		in   string
		want string
		kind model.TypeKind
	}{
		{"int", "int", model.TypeName},
		{"os.PathLike", "os.PathLike", model.TypeName},
		{"dict[str, list[int]]", "dict[str, list[int]]", model.TypeGeneric},
		{"Union[int, str]", "int | str", model.TypeUnion},
		{"int | str | int", "int | str", model.TypeUnion},
		{"Union[int, Union[str, bytes]]", "int | str | bytes", model.TypeUnion},
		{"Optional[int]", "int | None", model.TypeOptional},
		{"int | None", "int | None", model.TypeOptional},
		{"None | int", "int | None", model.TypeOptional},
		{"Union[int, str, None]", "int | str | None", model.TypeUnion},
		{"Optional[int | None]", "int | None", model.TypeOptional},
		{"Callable[[int, str], bool]", "Callable[[int, str], bool]", model.TypeCallable},
		{"Callable[..., Any]", "Callable[..., Any]", model.TypeCallable},
		{"Callable[P, R]", "Callable[P, R]", model.TypeCallable},
		{"Callable[Concatenate[str, P], R]", "Callable[Concatenate[str, P], R]", model.TypeCallable},
		{"Literal['a', \"b\", 3, -1, True]", "Literal['a', \"b\", 3, -1, True]", model.TypeLiteral},
		{"'Node'", "Node", model.TypeForwardRef},
		{"list['Node']", "list[Node]", model.TypeGeneric},
		{"'list[Node]'", "list[Node]", model.TypeGeneric},
		{"Annotated[int, Field(gt=0)]", "int", model.TypeName},
		{"tuple[int, ...]", "tuple[int, ...]", model.TypeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, ok := interpret(t, tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, Format(ref))
			assert.Equal(t, tt.kind, ref.Node().Kind)
		})
	}
}

func TestInterpretNestedCallable(t *testing.T) {
	ref, ok := interpret(t, "Callable[[Callable[P, R]], Callable[Concatenate[str, P], R]]")
	require.True(t, ok)
	n := ref.Node()
	require.Equal(t, model.TypeCallable, n.Kind)
	require.Len(t, n.Params, 1)

	inner := ref.Child(n.Params[0]).Node()
	assert.Equal(t, "P", inner.ParamSpec)
	ret := ref.Child(n.Return).Node()
	assert.True(t, ret.Concatenate)
	assert.Equal(t, "P", ret.ParamSpec)
	require.Len(t, ret.Params, 1)
	assert.Equal(t, "str", ref.Child(ret.Params[0]).Node().Name)
}

func TestInterpretDegradesToOpaque(t *testing.T) {
	for _, in := range []string{"3 + 4", "lambda: int", "Callable[int]", "dict[str", "Literal[]", "x if y else z"} {
		t.Run(in, func(t *testing.T) {
			ref, ok := interpret(t, in)
			assert.False(t, ok)
			require.Equal(t, model.TypeOpaque, ref.Node().Kind)
			assert.Equal(t, in, Format(ref))
			assert.True(t, IsOpaque(ref))
		})
	}
}

func TestInterpretEmpty(t *testing.T) {
	arena := model.NewTypeArena()
	id, ok := Interpret(arena, "   ")
	assert.True(t, ok)
	assert.Equal(t, model.NoType, id)
}

func TestInterpretIsDeterministic(t *testing.T) {
	const in = `dict[str, "JSON"] | list["JSON"] | str | int | float | bool | None`
	a, ok := interpret(t, in)
	require.True(t, ok)
	b, _ := interpret(t, in)
	assert.Equal(t, Format(a), Format(b))
	assert.Equal(t, `dict[str, JSON] | list[JSON] | str | int | float | bool | None`, Format(a))
}

func TestPrintAliasBreaksCycles(t *testing.T) {
	arena := model.NewTypeArena()
	id, ok := Interpret(arena, `dict[str, "JSON"] | list["JSON"] | str | None`)
	require.True(t, ok)
	root := arena.Ref(id)

	Walk(root, func(_ model.TypeRef, n *model.TypeNode) {
		if n.Kind == model.TypeForwardRef && n.Name == "JSON" {
			n.Alias = root
		}
	})

	out := Printer{ExpandAliases: true}.PrintAlias(root)
	assert.Equal(t, "dict[str, ↺JSON] | list[↺JSON] | str | None", out)

	// Expanding from a reference rather than the root still terminates.
	ref := arena.Ref(Name(arena, "JSON"))
	ref.Node().Alias = root
	out = Printer{ExpandAliases: true}.Print(ref)
	assert.Equal(t, "dict[str, ↺JSON] | list[↺JSON] | str | None", out)
}

func TestPrinterNameHook(t *testing.T) {
	ref, ok := interpret(t, "Optional[Task]")
	require.True(t, ok)
	out := Printer{Name: func(_ model.TypeRef, n *model.TypeNode) string {
		if n.Name == "Task" {
			return "[Task](Task.md)"
		}
		return n.Name
	}}.Print(ref)
	assert.Equal(t, "[Task](Task.md) | None", out)
}

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t, []string{"a", "b: dict[str, int]", "c='x,y'", "*args"}, SplitTopLevel("a, b: dict[str, int], c='x,y', *args", ','))
	assert.Equal(t, []string{"HashMap<String, i64>", "bool"}, SplitTopLevel("HashMap<String, i64>, bool", ','))
	assert.Empty(t, SplitTopLevel("  ", ','))
}
