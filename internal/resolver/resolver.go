// Package resolver maps scheme:path#fragment references onto filesystem
// paths rooted inside a project's repositories (§4.1).
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/stackdiac/stackd/internal/model"
)

// Ref is a parsed [scheme:]path[#fragment] reference.
type Ref struct {
	Scheme   string
	Path     string
	Fragment string
}

// Parse splits a reference into scheme, path and fragment. A missing scheme
// defaults to "root".
func Parse(ref string) Ref {
	path := ref
	fragment := ""
	if i := strings.IndexByte(path, '#'); i >= 0 {
		fragment = path[i+1:]
		path = path[:i]
	}

	scheme := "root"
	if i := strings.IndexByte(path, ':'); i >= 0 {
		scheme = path[:i]
		path = path[i+1:]
	}

	return Ref{Scheme: scheme, Path: path, Fragment: fragment}
}

// Resolver indexes a project's repo map and root directory to turn Refs into
// absolute filesystem paths.
type Resolver struct {
	Root  string
	Repos map[string]model.Repo
}

// New constructs a Resolver over the given project root and repo map.
func New(root string, repos map[string]model.Repo) *Resolver {
	return &Resolver{Root: root, Repos: repos}
}

// RepoDir returns the on-disk directory backing a named repo: {root}/{url}
// when local, else {root}/repo/{name}.
func (r *Resolver) RepoDir(name string) (string, error) {
	repo, ok := r.Repos[name]
	if !ok {
		return "", &model.ResolveError{Reason: "unknown repo scheme: " + name}
	}
	if repo.Local {
		return filepath.Join(r.Root, repo.URL), nil
	}
	return filepath.Join(r.Root, "repo", name), nil
}

// Resolve maps a raw reference string to an absolute filesystem path and its
// fragment (returned separately so the Spec Loader can apply it after YAML
// parsing, per §4.1).
func (r *Resolver) Resolve(ref string) (path string, fragment string, err error) {
	parsed := Parse(ref)
	dir, err := r.RepoDir(parsed.Scheme)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(dir, parsed.Path), parsed.Fragment, nil
}

// ResolveStackPath resolves a stack source reference, additionally appending
// stack.yaml when the path has no .yaml suffix and inserting a literal
// "stack/" segment when the path has exactly one component.
func (r *Resolver) ResolveStackPath(ref string) (path string, fragment string, err error) {
	parsed := Parse(ref)

	p := parsed.Path
	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) == 1 && segments[0] != "" {
		p = filepath.Join("stack", p)
	}
	if !strings.HasSuffix(p, ".yaml") {
		p = filepath.Join(p, "stack.yaml")
	}

	dir, err := r.RepoDir(parsed.Scheme)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(dir, p), parsed.Fragment, nil
}
