// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stack_test

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/stgo/internal/objstore"
)

// newTestRepo builds a bare in-memory repository with a "master" branch
// whose tip is an empty root commit, and HEAD symbolically pointing at
// it. It returns the raw go-git repository (for low-level ref setup a
// real caller would never need), the store wrapper, and the tip commit
// hash.
func newTestRepo(t *testing.T) (*git.Repository, objstore.Store, objstore.Hash) {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatalf("git.Init: %v", err)
	}
	store := objstore.Open(repo)

	emptyTree, err := store.WriteTree(nil)
	if err != nil {
		t.Fatalf("write empty tree: %v", err)
	}
	root, err := store.WriteCommit("root", testSig(), testSig(), emptyTree, nil)
	if err != nil {
		t.Fatalf("write root commit: %v", err)
	}

	masterRef := plumbing.NewHashReference(plumbing.ReferenceName("refs/heads/master"), root)
	if err := repo.Storer.SetReference(masterRef); err != nil {
		t.Fatalf("set master ref: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.ReferenceName("refs/heads/master"))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("set HEAD: %v", err)
	}

	return repo, store, root
}

// detachHead points HEAD directly at commit rather than at a branch.
func detachHead(t *testing.T, repo *git.Repository, commit objstore.Hash) {
	t.Helper()
	head := plumbing.NewHashReference(plumbing.HEAD, commit)
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("detach HEAD: %v", err)
	}
}

func testSig() objstore.Signature {
	return objstore.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}
}

// commitOn builds a single-parent commit atop parent, reusing parent's
// tree (patches in these tests never change content, only identity).
func commitOn(t *testing.T, store objstore.Store, parent objstore.Hash, message string) objstore.Hash {
	t.Helper()
	parentCommit, err := store.ReadCommit(parent)
	if err != nil {
		t.Fatalf("read parent commit: %v", err)
	}
	id, err := store.WriteCommit(message, testSig(), testSig(), parentCommit.TreeHash, []objstore.Hash{parent})
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}
	return id
}

// reachable returns the set of commit hashes reachable from start by
// following parent edges, including start itself.
func reachable(t *testing.T, store objstore.Store, start objstore.Hash) map[objstore.Hash]bool {
	t.Helper()
	seen := map[objstore.Hash]bool{}
	queue := []objstore.Hash{start}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if seen[h] {
			continue
		}
		seen[h] = true
		c, err := store.ReadCommit(h)
		if err != nil {
			t.Fatalf("reachable: read commit %s: %v", h, err)
		}
		queue = append(queue, c.ParentHashes...)
	}
	return seen
}
