// Package template provides the rendering environment for stackd's source
// documents: a text/template backbone (no Jinja2-equivalent engine exists
// anywhere in the reference ecosystem, see DESIGN.md) extended with filters,
// globals and the !include YAML tag described in §4.5.
package template

import (
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/internal/resolver"
)

//go:embed defaults
var defaultTemplates embed.FS

// Environment renders stackd templates, searching a repo's private
// templates/ directory first and falling back to the embedded defaults.
type Environment struct {
	Resolver      *resolver.Resolver
	TemplateRepo  string // repo name whose {repo_dir}/templates is searched first
}

// New constructs an Environment bound to the given resolver, searching the
// named repo's template root (commonly "core") ahead of the embedded
// defaults.
func New(r *resolver.Resolver, templateRepo string) *Environment {
	return &Environment{Resolver: r, TemplateRepo: templateRepo}
}

// RenderString renders a template body (already-read source text) against
// ctx.
func (e *Environment) RenderString(name, body string, ctx map[string]any) (string, error) {
	tmpl, err := template.New(name).Funcs(e.funcMap()).Parse(body)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTemplate loads a named template (by repo-relative name, e.g.
// "terragrunt.root.tmpl") from the bound repo's template root, falling back
// to the embedded default set, and renders it against ctx.
func (e *Environment) RenderTemplate(name string, ctx map[string]any) (string, error) {
	body, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return e.RenderString(name, body, ctx)
}

func (e *Environment) lookup(name string) (string, error) {
	if e.Resolver != nil && e.TemplateRepo != "" {
		if dir, err := e.Resolver.RepoDir(e.TemplateRepo); err == nil {
			p := filepath.Join(dir, "templates", name)
			if data, err := os.ReadFile(p); err == nil {
				return string(data), nil
			}
		}
	}
	data, err := fs.ReadFile(defaultTemplates, filepath.Join("defaults", name))
	if err != nil {
		return "", &model.NotFound{Kind: "template", Name: name}
	}
	return string(data), nil
}

// IsNotFound reports whether err is (or wraps) the *model.NotFound that
// RenderTemplate/lookup return for an unresolvable template name.
func IsNotFound(err error) bool {
	var nf *model.NotFound
	return err != nil && errors.As(err, &nf)
}

// ReadFile is the `readfile` template global: renders another template
// relative to the current repo's template root and returns its string.
func (e *Environment) ReadFile(name string, ctx map[string]any) (string, error) {
	return e.RenderTemplate(name, ctx)
}
