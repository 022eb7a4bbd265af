package repomanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stackdiac/stackd/internal/model"
)

func TestDirForRemoteRepo(t *testing.T) {
	m := New("/srv/stackd")
	got := m.Dir(model.Repo{Name: "core"})
	want := filepath.Join("/srv/stackd", "repo", "core")
	if got != want {
		t.Errorf("Dir = %q, want %q", got, want)
	}
}

func TestDirForLocalRepo(t *testing.T) {
	m := New("/srv/stackd")
	got := m.Dir(model.Repo{Local: true, URL: "../sibling"})
	want := filepath.Join("/srv/stackd", "../sibling")
	if got != want {
		t.Errorf("Dir = %q, want %q", got, want)
	}
}

func TestCheckoutLocalRepoMissingDir(t *testing.T) {
	m := New(t.TempDir())
	err := m.Checkout(context.Background(), model.Repo{Name: "missing", Local: true, URL: "does-not-exist"})
	if err == nil {
		t.Fatal("expected error for missing local repo directory")
	}
	if _, ok := err.(*model.ResolveError); !ok {
		t.Errorf("got %T, want *model.ResolveError", err)
	}
}

func TestCheckoutLocalRepoPresentDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "vendored"), 0o755); err != nil {
		t.Fatal(err)
	}
	m := New(root)
	err := m.Checkout(context.Background(), model.Repo{Name: "vendored", Local: true, URL: "vendored"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
}

func TestInstallNoManifestIsNoop(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "repo", "core")
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	m := New(root)
	if err := m.Install(model.Repo{Name: "core"}); err != nil {
		t.Fatalf("Install: %v", err)
	}
}

func TestInstallCopiesDeclaredFiles(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "repo", "core")
	if err := os.MkdirAll(filepath.Join(repoDir, "schemas"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repoDir, "schemas", "foo.yaml"), []byte("kind: widget\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := "install:\n  - src: schemas\n    dest: vars/schemas\n"
	if err := os.WriteFile(filepath.Join(repoDir, "stackd.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(root)
	if err := m.Install(model.Repo{Name: "core"}); err != nil {
		t.Fatalf("Install: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "vars", "schemas", "foo.yaml"))
	if err != nil {
		t.Fatalf("installed file missing: %v", err)
	}
	if string(got) != "kind: widget\n" {
		t.Errorf("installed content = %q", got)
	}
}

func TestInstallSkipsIdenticalFiles(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "repo", "core")
	if err := os.MkdirAll(filepath.Join(repoDir, "schemas"), 0o755); err != nil {
		t.Fatal(err)
	}
	srcPath := filepath.Join(repoDir, "schemas", "foo.yaml")
	if err := os.WriteFile(srcPath, []byte("kind: widget\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := "install:\n  - src: schemas\n    dest: vars/schemas\n"
	if err := os.WriteFile(filepath.Join(repoDir, "stackd.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(root)
	if err := m.Install(model.Repo{Name: "core"}); err != nil {
		t.Fatalf("first Install: %v", err)
	}
	destPath := filepath.Join(root, "vars", "schemas", "foo.yaml")
	// A copy would reset the destination's mod time to the source's, so mark
	// the destination with a distinct time that only a skipped copy preserves.
	marker := time.Unix(1000000, 0)
	if err := os.Chtimes(destPath, marker, marker); err != nil {
		t.Fatal(err)
	}

	if err := m.Install(model.Repo{Name: "core"}); err != nil {
		t.Fatalf("second Install: %v", err)
	}
	after, err := os.Stat(destPath)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(marker) {
		t.Error("Install re-copied an identical file instead of skipping it")
	}
}
