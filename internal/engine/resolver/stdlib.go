// # internal/engine/resolver/stdlib.go
package resolver

import (
	_ "embed"
	"strings"
)

//go:embed stdlib/python.txt
var pythonStdlibData string

//go:embed stdlib/builtins.txt
var pythonBuiltinsData string

var pythonStdlib = map[string]bool{}
var pythonBuiltins = map[string]bool{}

func init() {
	for _, line := range strings.Split(pythonStdlibData, "\n") {
		registerLine(pythonStdlib, line)
	}
	for _, line := range strings.Split(pythonBuiltinsData, "\n") {
		registerLine(pythonBuiltins, line)
	}
}

func registerLine(dst map[string]bool, line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	dst[line] = true
}

// isStdlibModule reports whether qn names a standard library module or
// something inside one.
func isStdlibModule(qn string) bool {
	head, _, _ := strings.Cut(qn, ".")
	return pythonStdlib[head]
}
