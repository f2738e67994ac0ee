// Package render renders operator-written notification templates.
//
// Templates use Go template syntax over string parameters, e.g.
//
//	You died!{{with .money_lost}} You lost {{.}} {{$.currency}}.{{end}}
//
// Parameters that were not supplied render as empty strings, so a
// {{with}} block drops a sentence for a penalty that did not apply.
package render

import (
	"fmt"
	"strings"
	"text/template"
)

// Renderer parses and caches templates by source text.
type Renderer struct {
	cache map[string]*template.Template
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{cache: map[string]*template.Template{}}
}

// Render executes tmpl with params. Surrounding whitespace is trimmed.
func (r *Renderer) Render(tmpl string, params map[string]string) (string, error) {
	t, err := r.parse(tmpl)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := t.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("executing message template: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Check reports whether tmpl parses.
func (r *Renderer) Check(tmpl string) error {
	_, err := r.parse(tmpl)
	return err
}

func (r *Renderer) parse(tmpl string) (*template.Template, error) {
	if t, ok := r.cache[tmpl]; ok {
		return t, nil
	}
	t, err := template.New("message").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing message template: %w", err)
	}
	r.cache[tmpl] = t
	return t, nil
}
