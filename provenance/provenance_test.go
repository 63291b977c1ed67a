package provenance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const commitMsg1 = "initial commit"

func TestGetCommits(t *testing.T) {
	gm := NewGitManager()

	if _, err := gm.GetCommits(Repository{}); err == nil {
		t.Error("GetCommits: expected error for a Repository with no RepoRef, got nil")
	}

	r, err := createTestRepo(t, commitMsg1)
	if err != nil {
		t.Fatalf("error setting up test repo: %s", err)
	}
	commits, err := gm.GetCommits(*r)
	if err != nil {
		t.Fatalf("error retrieving list of commits from repo: %s", err)
	}
	if len(commits) != 1 {
		t.Fatalf("commit count = %d, want %d", len(commits), 1)
	}
	if string(commits[0].Message) != commitMsg1 {
		t.Errorf("commit message = %q, want %q", commits[0].Message, commitMsg1)
	}
}

func TestBuildCommit(t *testing.T) {
	r, err := createTestRepo(t, "build stamp commit")
	if err != nil {
		t.Fatalf("error setting up test repo: %s", err)
	}

	gm := NewGitManager()
	commits, err := gm.GetCommits(*r)
	if err != nil || len(commits) != 1 {
		t.Fatalf("failed seeding expected commit: %v %v", commits, err)
	}

	hash, err := BuildCommit(r.URL)
	if err != nil {
		t.Fatalf("BuildCommit failed: %s", err)
	}
	if hash != commits[0].Hash {
		t.Errorf("BuildCommit hash = %s, want %s", hash, commits[0].Hash)
	}
}

func TestBuildCommitFromURLInMemory(t *testing.T) {
	r, err := createTestRepo(t, "remote stamp commit")
	if err != nil {
		t.Fatalf("error setting up test repo: %s", err)
	}
	gm := NewGitManager()
	commits, err := gm.GetCommits(*r)
	if err != nil || len(commits) != 1 {
		t.Fatalf("failed seeding expected commit: %v %v", commits, err)
	}

	// go-git treats a plain local path as a clonable "remote" too, so this
	// exercises ResolveRepo's in-memory path without needing the network.
	hash, err := BuildCommitFromURL(r.URL, ResolveRepoOpts{InMemory: true})
	if err != nil {
		t.Fatalf("BuildCommitFromURL failed: %s", err)
	}
	if hash != commits[0].Hash {
		t.Errorf("BuildCommitFromURL hash = %s, want %s", hash, commits[0].Hash)
	}
}

func createTestRepo(t *testing.T, message string) (*Repository, error) {
	t.Helper()
	dir := t.TempDir()

	r, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, err
	}

	junkPath := filepath.Join(dir, "junkFile1")
	if err := os.WriteFile(junkPath, []byte("asd87ufg890easuf09asdufasd90uf"), 0o644); err != nil {
		return nil, err
	}

	wt, err := r.Worktree()
	if err != nil {
		return nil, err
	}
	if _, err := wt.Add("junkFile1"); err != nil {
		return nil, err
	}
	sig := &object.Signature{Name: "nucleus-test", Email: "nucleus-test@example.com", When: time.Now()}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return nil, err
	}

	return &Repository{URL: dir, RepoRef: r}, nil
}
