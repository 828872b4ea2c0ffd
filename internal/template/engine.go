package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders deployment documents through text/template with the sprig
// function library before they are parsed.
type Engine struct {
	funcs template.FuncMap
	// strict makes references to missing context keys an error.
	strict bool
}

// New creates a new template engine. In strict mode a reference to a
// variable that is absent from the context fails the render.
func New(strict bool) *Engine {
	funcs := sprig.TxtFuncMap()
	// file inlines another file. Relative paths are taken from the working
	// directory; prefix them with .Dir to anchor them at the document.
	funcs["file"] = func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return &Engine{funcs: funcs, strict: strict}
}

// HasActions reports whether text contains template actions at all.
func HasActions(text []byte) bool {
	return bytes.Contains(text, []byte("{{"))
}

// Render executes text as a template named name against context. Text
// without actions is returned unchanged.
func (e *Engine) Render(name string, text []byte, context map[string]any) ([]byte, error) {
	if !HasActions(text) {
		return text, nil
	}

	tmpl := template.New(filepath.Base(name)).Funcs(e.funcs)
	if e.strict {
		tmpl = tmpl.Option("missingkey=error")
	}
	tmpl, err := tmpl.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, context); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return out.Bytes(), nil
}
