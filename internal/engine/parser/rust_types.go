package parser

import (
	"regexp"
	"strings"

	"apiscribe/internal/engine/typeexpr"
)

var rustLifetime = regexp.MustCompile(`'(?:_|[A-Za-z][A-Za-z0-9_]*)\b`)

var rustScalars = map[string]string{
	"String": "str", "str": "str", "char": "str", "PyString": "str", "Cow": "str",
	"i8": "int", "i16": "int", "i32": "int", "i64": "int", "i128": "int", "isize": "int",
	"u8": "int", "u16": "int", "u32": "int", "u64": "int", "u128": "int", "usize": "int",
	"PyInt": "int", "PyLong": "int",
	"f32": "float", "f64": "float", "PyFloat": "float",
	"bool": "bool", "PyBool": "bool",
	"PyAny": "Any", "PyObject": "Any",
	"PyDict": "dict", "PyList": "list", "PyTuple": "tuple", "PySet": "set",
	"PyBytes": "bytes", "PyByteArray": "bytearray", "PyType": "type",
	"PathBuf": "str", "Path": "str",
}

// Wrappers whose Python-visible type is their first type argument.
var rustTransparent = map[string]bool{
	"PyResult": true, "Result": true, "Py": true, "Bound": true, "Borrowed": true,
	"PyRef": true, "PyRefMut": true, "Box": true, "Arc": true, "Rc": true,
}

// rustTypeMapper translates Rust type text into Python annotation text.
type rustTypeMapper struct {
	// classes maps Rust struct/enum names to their #[pyclass] names.
	classes map[string]string
	// self is the Python name of the class whose impl block is being read.
	self string
}

// Map returns Python annotation text and whether the Rust type was fully
// understood.
func (m rustTypeMapper) Map(text string) (string, bool) {
	text = stripRustRef(rustLifetime.ReplaceAllString(text, ""))
	switch {
	case text == "" || text == "()":
		return typeexpr.NoneName, true
	case strings.HasPrefix(text, "impl ") || strings.HasPrefix(text, "dyn "):
		return text, false
	case strings.HasPrefix(text, "("):
		parts := splitRustArgs(text[1 : len(text)-1])
		if len(parts) == 0 {
			return typeexpr.NoneName, true
		}
		return m.generic("tuple", parts)
	case strings.HasPrefix(text, "["):
		elem, _, _ := strings.Cut(strings.Trim(text, "[]"), ";")
		return m.generic("list", []string{elem})
	}

	name, args := splitRustGeneric(text)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	switch {
	case name == "Self" && m.self != "":
		return m.self, true
	case rustTransparent[name]:
		if len(args) == 0 {
			return "Any", true
		}
		return m.Map(args[0])
	case name == "Option":
		if len(args) != 1 {
			return text, false
		}
		inner, ok := m.Map(args[0])
		return inner + " | " + typeexpr.NoneName, ok
	case (name == "Vec" || name == "VecDeque" || name == "PyList") && len(args) > 0:
		return m.generic("list", args)
	case name == "HashMap" || name == "BTreeMap" || name == "IndexMap":
		return m.generic("dict", args)
	case name == "HashSet" || name == "BTreeSet":
		return m.generic("set", args)
	case name == "Cow" && len(args) > 0:
		return m.Map(args[len(args)-1])
	}
	if py, ok := m.classes[name]; ok {
		return py, true
	}
	if py, ok := rustScalars[name]; ok {
		return py, true
	}
	if len(args) > 0 {
		return text, false
	}
	return name, true
}

func (m rustTypeMapper) generic(base string, args []string) (string, bool) {
	ok := true
	mapped := make([]string, 0, len(args))
	for _, a := range args {
		py, aok := m.Map(a)
		ok = ok && aok
		mapped = append(mapped, py)
	}
	return base + "[" + strings.Join(mapped, ", ") + "]", ok
}

// stripRustRef removes references and mutability markers.
func stripRustRef(text string) string {
	text = strings.TrimSpace(text)
	for {
		before := text
		text = strings.TrimPrefix(text, "&")
		text = strings.TrimSpace(text)
		text = strings.TrimPrefix(text, "mut ")
		text = strings.TrimSpace(text)
		if text == before {
			return text
		}
	}
}

// splitRustGeneric splits `a::B<C, D>` into its path and type arguments.
func splitRustGeneric(text string) (string, []string) {
	open := strings.IndexByte(text, '<')
	if open < 0 || !strings.HasSuffix(text, ">") {
		return text, nil
	}
	return strings.TrimSpace(text[:open]), splitRustArgs(text[open+1 : len(text)-1])
}

func splitRustArgs(inner string) []string {
	var out []string
	for _, part := range typeexpr.SplitTopLevel(inner, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
