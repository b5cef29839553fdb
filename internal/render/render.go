// Package render fills HTML page templates with converted markdown fragments.
package render

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Context keys understood by the page templates.
const (
	KeyIndexHTML   = "index_html"
	KeyArticleHTML = "article_html"
)

// Renderer renders named template files from one directory. Templates are
// parsed on first use and cached for the lifetime of the Renderer, so a new
// Renderer per build picks up template edits. Safe for concurrent use.
type Renderer struct {
	dir string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// New returns a Renderer for templates under dir.
func New(dir string) *Renderer {
	return &Renderer{dir: dir, cache: make(map[string]*template.Template)}
}

// Render executes the named template with ctx. Context values are HTML
// fragments produced by the markdown converter and are inserted unescaped.
func (r *Renderer) Render(name string, ctx map[string]string) (string, error) {
	tpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	data := make(map[string]template.HTML, len(ctx))
	for k, v := range ctx {
		data[k] = template.HTML(v) //nolint:gosec // fragments come from the markdown converter, which omits raw HTML
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", ferrors.TemplateError(name, err).
			WithContext("path", filepath.Join(r.dir, name)).
			Build()
	}
	return buf.String(), nil
}

// Check parses every named template without executing it.
func (r *Renderer) Check(names ...string) error {
	for _, name := range names {
		if _, err := r.lookup(name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tpl, ok := r.cache[name]; ok {
		return tpl, nil
	}

	path := filepath.Join(r.dir, name)
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.TemplateError(name, err).WithContext("path", path).Build()
	}
	tpl, err := template.New(name).Option("missingkey=error").Parse(string(body))
	if err != nil {
		return nil, ferrors.TemplateError(name, err).WithContext("path", path).Build()
	}
	r.cache[name] = tpl
	return tpl, nil
}
