// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package objstore_test

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/stgo/internal/objstore"
)

func newStore(t *testing.T) (*git.Repository, objstore.Store) {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatalf("git.Init: %v", err)
	}
	return repo, objstore.Open(repo)
}

func sig() objstore.Signature {
	return objstore.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}
}

func TestParseHashValidAndInvalid(t *testing.T) {
	valid := "0123456789abcdef0123456789abcdef01234567"
	if _, ok := objstore.ParseHash(valid); !ok {
		t.Errorf("ParseHash(%q) = false, want true", valid)
	}

	cases := []string{
		"",
		"short",
		"0123456789abcdef0123456789abcdef0123456z",  // non-hex character
		"0123456789abcdef0123456789abcdef012345678", // too long
	}
	for _, c := range cases {
		if _, ok := objstore.ParseHash(c); ok {
			t.Errorf("ParseHash(%q) = true, want false", c)
		}
	}
}

func TestWriteAndReadBlob(t *testing.T) {
	_, store := newStore(t)
	content := []byte("hello world")
	h, err := store.WriteBlob(content)
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	emptyTree, err := store.WriteTree(nil)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	tree, err := store.WriteTree([]objstore.TreeEntry{
		{Name: "file.txt", Kind: objstore.BlobKind, Hash: h},
		{Name: "sub", Kind: objstore.TreeKind, Hash: emptyTree},
	})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	readTree, err := store.ReadTree(tree)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	got, err := store.ReadBlobAtPath(readTree, "file.txt")
	if err != nil {
		t.Fatalf("ReadBlobAtPath: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("ReadBlobAtPath = %q, want %q", got, content)
	}

	entryHash, ok, err := store.TreeEntryHash(readTree, "file.txt")
	if err != nil || !ok {
		t.Fatalf("TreeEntryHash: ok=%v err=%v", ok, err)
	}
	if entryHash != h {
		t.Errorf("TreeEntryHash = %v, want %v", entryHash, h)
	}

	if _, ok, err := store.TreeEntryHash(readTree, "does/not/exist"); err != nil || ok {
		t.Errorf("TreeEntryHash(missing) = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestWriteTreeIsOrderStable(t *testing.T) {
	_, store := newStore(t)
	blobA, err := store.WriteBlob([]byte("a"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	blobB, err := store.WriteBlob([]byte("b"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	forward, err := store.WriteTree([]objstore.TreeEntry{
		{Name: "a", Kind: objstore.BlobKind, Hash: blobA},
		{Name: "b", Kind: objstore.BlobKind, Hash: blobB},
	})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	reversed, err := store.WriteTree([]objstore.TreeEntry{
		{Name: "b", Kind: objstore.BlobKind, Hash: blobB},
		{Name: "a", Kind: objstore.BlobKind, Hash: blobA},
	})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if forward != reversed {
		t.Errorf("WriteTree hash depends on input entry order: %v != %v", forward, reversed)
	}
}

func TestWriteAndReadCommit(t *testing.T) {
	_, store := newStore(t)
	tree, err := store.WriteTree(nil)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	author := sig()
	root, err := store.WriteCommit("root", author, author, tree, nil)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	child, err := store.WriteCommit("child", author, author, tree, []objstore.Hash{root})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	got, err := store.ReadCommit(child)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if got.Message != "child" {
		t.Errorf("Message = %q, want %q", got.Message, "child")
	}
	if len(got.ParentHashes) != 1 || got.ParentHashes[0] != root {
		t.Errorf("ParentHashes = %v, want [%v]", got.ParentHashes, root)
	}
	if got.TreeHash != tree {
		t.Errorf("TreeHash = %v, want %v", got.TreeHash, tree)
	}
}

func TestUpdateRefUnconditional(t *testing.T) {
	_, store := newStore(t)
	tree, _ := store.WriteTree(nil)
	a, err := store.WriteCommit("a", sig(), sig(), tree, nil)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	if err := store.UpdateRef("refs/heads/topic", a, nil); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	h, ok, err := store.ResolveRef("refs/heads/topic")
	if err != nil || !ok || h != a {
		t.Fatalf("ResolveRef after create = (%v, %v, %v), want (%v, true, nil)", h, ok, err, a)
	}

	b, err := store.WriteCommit("b", sig(), sig(), tree, []objstore.Hash{a})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	if err := store.UpdateRef("refs/heads/topic", b, nil); err != nil {
		t.Fatalf("UpdateRef overwrite: %v", err)
	}
	h, ok, err = store.ResolveRef("refs/heads/topic")
	if err != nil || !ok || h != b {
		t.Fatalf("ResolveRef after overwrite = (%v, %v, %v), want (%v, true, nil)", h, ok, err, b)
	}
}

// TestUpdateRefCompareAndSwap exercises the CAS path that the snapshot
// writer relies on: an update whose expected prior value does not
// match the reference's actual current value must fail, and a
// create-only update against an already-existing reference must also
// fail.
func TestUpdateRefCompareAndSwap(t *testing.T) {
	_, store := newStore(t)
	tree, _ := store.WriteTree(nil)
	a, err := store.WriteCommit("a", sig(), sig(), tree, nil)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	b, err := store.WriteCommit("b", sig(), sig(), tree, nil)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	mustNotExist := objstore.ZeroHash
	if err := store.UpdateRef("refs/stacks/topic", a, &mustNotExist); err != nil {
		t.Fatalf("UpdateRef create-only: %v", err)
	}
	if err := store.UpdateRef("refs/stacks/topic", b, &mustNotExist); err == nil {
		t.Error("UpdateRef create-only succeeded against an existing reference, want failure")
	}

	wrongExpect := b
	if err := store.UpdateRef("refs/stacks/topic", b, &wrongExpect); err == nil {
		t.Error("UpdateRef CAS succeeded with a stale expected value, want failure")
	}

	rightExpect := a
	if err := store.UpdateRef("refs/stacks/topic", b, &rightExpect); err != nil {
		t.Errorf("UpdateRef CAS with correct expected value: %v", err)
	}
}

func TestResolveRefMissing(t *testing.T) {
	_, store := newStore(t)
	_, ok, err := store.ResolveRef("refs/heads/does-not-exist")
	if err != nil {
		t.Fatalf("ResolveRef: %v", err)
	}
	if ok {
		t.Error("ResolveRef reported a nonexistent reference as resolved")
	}
}

func TestResolveBranchShorthandAndHead(t *testing.T) {
	repo, store := newStore(t)
	tree, _ := store.WriteTree(nil)
	root, err := store.WriteCommit("root", sig(), sig(), tree, nil)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	masterRef := plumbing.NewHashReference(plumbing.ReferenceName("refs/heads/master"), root)
	if err := repo.Storer.SetReference(masterRef); err != nil {
		t.Fatalf("set master ref: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.ReferenceName("refs/heads/master"))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("set HEAD: %v", err)
	}

	tip, err := store.ResolveBranchShorthand("master")
	if err != nil {
		t.Fatalf("ResolveBranchShorthand: %v", err)
	}
	if tip != root {
		t.Errorf("ResolveBranchShorthand = %v, want %v", tip, root)
	}

	shorthand, detached, err := store.HeadBranchShorthand()
	if err != nil {
		t.Fatalf("HeadBranchShorthand: %v", err)
	}
	if detached {
		t.Error("HeadBranchShorthand reported detached for a symbolic HEAD")
	}
	if shorthand != "master" {
		t.Errorf("HeadBranchShorthand = %q, want %q", shorthand, "master")
	}

	detachedRef := plumbing.NewHashReference(plumbing.HEAD, root)
	if err := repo.Storer.SetReference(detachedRef); err != nil {
		t.Fatalf("detach HEAD: %v", err)
	}
	_, detached, err = store.HeadBranchShorthand()
	if err != nil {
		t.Fatalf("HeadBranchShorthand after detach: %v", err)
	}
	if !detached {
		t.Error("HeadBranchShorthand did not report detached after pointing HEAD at a commit")
	}
}
