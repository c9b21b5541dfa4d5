// Package template renders notification display text and custom command
// lines. Templates compile once at configuration load; rendering is a pure
// transform of the notification context.
package template

import (
	"fmt"
	"strings"
	"text/template"
)

// shellQuote wraps s in single quotes and escapes embedded single quotes, so
// rendered values are safe to interpolate into a "sh -c" command line.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	escaped := strings.ReplaceAll(s, "'", `'\''`)
	return "'" + escaped + "'"
}

var funcs = template.FuncMap{
	"shq": shellQuote,
}

// Renderer is a compiled template.
type Renderer struct {
	t   *template.Template
	raw string
}

// Compile parses src in strict mode: referencing a key that is missing from
// the render context is an execution error instead of "<no value>".
//
// Available template functions:
//   - shq: shell-quote a string for safe use in command templates
func Compile(src string) (*Renderer, error) {
	t, err := template.New("notification").Funcs(funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", src, err)
	}
	return &Renderer{t: t, raw: src}, nil
}

// Render executes the template against ctx. Errors are reported to the
// caller, which substitutes a fallback; rendering never panics.
func (r *Renderer) Render(ctx map[string]any) (string, error) {
	var buf strings.Builder
	if err := r.t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("render template %q: %w", r.raw, err)
	}
	return buf.String(), nil
}

// String returns the original template source.
func (r *Renderer) String() string { return r.raw }
