package template

import (
	"maps"
	"os"
	"path/filepath"
	"strings"
)

// DocumentContext is the default context of a document: its path, its
// directory and the process environment as .Env.
func DocumentContext(path string) map[string]any {
	env := make(map[string]any)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return map[string]any{
		"Source": path,
		"Dir":    filepath.Dir(path),
		"Env":    env,
	}
}

// MergeContexts flattens contexts into one map. A key set by a later
// context wins, so settings variables can shadow .Dir or .Source.
func MergeContexts(contexts ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, c := range contexts {
		maps.Copy(result, c)
	}
	return result
}
