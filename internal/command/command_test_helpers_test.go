// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package command_test

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/stgo/internal/objstore"
	"github.com/google/stgo/internal/stack"
)

// newTestRepo builds an in-memory repository with a "master" branch
// whose tip is an empty root commit and an initialized, empty stack
// atop it, ready for command.Begin.
func newTestRepo(t *testing.T) (objstore.Store, objstore.Hash) {
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

	if _, _, err := stack.Initialize(store, "master"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	return store, root
}

func testSig() objstore.Signature {
	return objstore.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}
}

// commitOn builds a single-parent commit atop parent, reusing parent's
// tree.
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
