// Package repomanager clones/fetches content repositories to a pinned tag,
// or recognizes local repos, and installs declared file copies from a
// repo's manifest (§4.2).
package repomanager

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	yaml "go.yaml.in/yaml/v4"

	"github.com/stackdiac/stackd/internal/model"
	"github.com/stackdiac/stackd/pkg/log"
)

// Manager checks out repos under {root}/repo/{name}.
type Manager struct {
	Root string
}

func New(root string) *Manager {
	return &Manager{Root: root}
}

// Dir returns the on-disk directory for a repo.
func (m *Manager) Dir(repo model.Repo) string {
	if repo.Local {
		return filepath.Join(m.Root, repo.URL)
	}
	return filepath.Join(m.Root, "repo", repo.Name)
}

// Checkout fetches (or shallow-clones) repo and checks out its configured
// tag. Local repos are a no-op beyond verifying their directory exists.
func (m *Manager) Checkout(ctx context.Context, repo model.Repo) error {
	if repo.Local {
		dir := m.Dir(repo)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return &model.ResolveError{Reason: "local repo path missing: " + dir}
		}
		return nil
	}

	dir := m.Dir(repo)
	log.WithField("repo", repo.Name).Debug("checking out repository")

	var r *git.Repository
	if isGitWorktree(dir) {
		opened, err := git.PlainOpen(dir)
		if err != nil {
			return err
		}
		if err := opened.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin"}); err != nil && err != git.NoErrAlreadyUpToDate {
			return err
		}
		r = opened
	} else {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return err
		}
		cloned, err := git.PlainCloneContext(ctx, dir, &git.CloneOptions{
			URL:          repo.URL,
			Depth:        1,
			SingleBranch: repo.Branch != "",
			ReferenceName: func() plumbing.ReferenceName {
				if repo.Branch != "" {
					return plumbing.NewBranchReferenceName(repo.Branch)
				}
				return ""
			}(),
		})
		if err != nil {
			return err
		}
		r = cloned
	}

	return m.checkoutTag(r, repo)
}

func (m *Manager) checkoutTag(r *git.Repository, repo model.Repo) error {
	if repo.Tag == "" {
		return nil
	}

	wt, err := r.Worktree()
	if err != nil {
		return err
	}

	if len(repo.Tag) == 40 {
		if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(repo.Tag)}); err != nil {
			return model.RepoTagMissing(repo.Name, repo.Tag)
		}
		return nil
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewTagReferenceName(repo.Tag)}); err != nil {
		return model.RepoTagMissing(repo.Name, repo.Tag)
	}
	return nil
}

func isGitWorktree(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info != nil
}

// Install reads a stackd.yaml manifest at repo's root (if present) and
// copies its declared source/destination pairs into the project working
// directory, copy-on-difference only, preserving timestamps.
func (m *Manager) Install(repo model.Repo) error {
	manifestPath := filepath.Join(m.Dir(repo), "stackd.yaml")
	data, err := os.ReadFile(manifestPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var manifest model.RepoManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return err
	}

	for _, item := range manifest.Install {
		src := filepath.Join(m.Dir(repo), item.Src)
		dest := filepath.Join(m.Root, item.Dest)
		if err := copyTree(src, dest); err != nil {
			return err
		}
	}
	return nil
}

func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFileIfDifferent(src, dest, info)
	}

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFileIfDifferent(path, target, info)
	})
}

func copyFileIfDifferent(src, dest string, info os.FileInfo) error {
	if same, err := filesIdentical(src, dest); err == nil && same {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}

func filesIdentical(src, dest string) (bool, error) {
	destInfo, err := os.Stat(dest)
	if err != nil {
		return false, err
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if srcInfo.Size() != destInfo.Size() {
		return false, nil
	}

	srcData, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	destData, err := os.ReadFile(dest)
	if err != nil {
		return false, err
	}
	return bytes.Equal(srcData, destData), nil
}
