package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitFile(t *testing.T, wt *git.Worktree, dir, name, content, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("git add %s: %v", name, err)
	}
	_, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("git commit: %v", err)
	}
}

func TestChangedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatalf("git init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	commitFile(t, wt, tmpDir, "a.swift", "struct A {}", "add a")
	commitFile(t, wt, tmpDir, "b.swift", "struct B {}", "add b")
	commitFile(t, wt, tmpDir, "a.swift", "struct A2 {}", "change a")

	r, err := NewGitOpener().PlainOpenWithDetect(tmpDir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Against the previous commit only a.swift changed.
	files, err := r.ChangedFiles("HEAD~1")
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(files) != 1 || files[0] != "a.swift" {
		t.Errorf("changed since HEAD~1 = %v, want [a.swift]", files)
	}

	// Against the first commit both the new file and the edit show up.
	files, err = r.ChangedFiles("HEAD~2")
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("changed since HEAD~2 = %v, want [a.swift b.swift]", files)
	}
}

func TestChangedFilesBadRevision(t *testing.T) {
	tmpDir := t.TempDir()
	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	commitFile(t, wt, tmpDir, "a.swift", "struct A {}", "add a")

	r, err := NewGitOpener().PlainOpenWithDetect(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.ChangedFiles("no-such-ref"); err == nil {
		t.Error("expected error for unknown revision")
	}
}

func TestPlainOpenWithDetectNonRepo(t *testing.T) {
	if _, err := NewGitOpener().PlainOpenWithDetect(t.TempDir()); err == nil {
		t.Error("expected error outside a git repository")
	}
}
