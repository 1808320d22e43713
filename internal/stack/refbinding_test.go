// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stack_test

import (
	"testing"

	"github.com/google/stgo/internal/objstore"
	"github.com/google/stgo/internal/stack"
)

// TestInitializeEmptyStack covers the empty-stack initialization
// scenario: Initialize on a freshly created branch persists a snapshot
// with no applied, unapplied, or hidden patches, rooted at the
// branch's current tip, reloadable via Load.
func TestInitializeEmptyStack(t *testing.T) {
	_, store, root := newTestRepo(t)

	snapshot, initBranch, err := stack.Initialize(store, "master")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if initBranch != "master" {
		t.Errorf("branch = %q, want %q", initBranch, "master")
	}
	if snapshot.Head != root {
		t.Errorf("Head = %v, want %v", snapshot.Head, root)
	}
	if len(snapshot.AllPatches()) != 0 {
		t.Errorf("AllPatches() = %v, want empty", snapshot.AllPatches())
	}

	loaded, branch, err := stack.Load(store, "master")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if branch != "master" {
		t.Errorf("branch = %q, want %q", branch, "master")
	}
	if loaded.Head != root {
		t.Errorf("loaded Head = %v, want %v", loaded.Head, root)
	}

	tip, ok, err := store.ResolveRef(stack.RefName("master"))
	if err != nil || !ok {
		t.Fatalf("ResolveRef(%s) = (_, %v, %v), want a resolved ref", stack.RefName("master"), ok, err)
	}
	commit, err := store.ReadCommit(tip)
	if err != nil {
		t.Fatalf("read snapshot commit: %v", err)
	}
	if commit.Message != "initialize" {
		t.Errorf("initializing commit message = %q, want %q", commit.Message, "initialize")
	}
}

// TestInitializeRejectsAlreadyInitialized ensures a second Initialize
// on the same branch fails instead of silently replacing the stack.
func TestInitializeRejectsAlreadyInitialized(t *testing.T) {
	_, store, _ := newTestRepo(t)
	if _, _, err := stack.Initialize(store, "master"); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	_, _, err := stack.Initialize(store, "master")
	if err == nil {
		t.Fatal("second Initialize succeeded, want rejection")
	}
	if _, ok := err.(*stack.StackAlreadyInitializedError); !ok {
		t.Errorf("error type = %T, want *stack.StackAlreadyInitializedError", err)
	}
}

// TestInitializeRejectsDetachedHead covers the detached-HEAD-on-init
// scenario: Initialize with no explicit branch and a detached HEAD
// must fail rather than guess a branch.
func TestInitializeRejectsDetachedHead(t *testing.T) {
	repo, store, root := newTestRepo(t)
	detachHead(t, repo, root)

	_, _, err := stack.Initialize(store, "")
	if err == nil {
		t.Fatal("Initialize succeeded with HEAD detached, want rejection")
	}
	if _, ok := err.(*stack.HeadDetachedError); !ok {
		t.Errorf("error type = %T, want *stack.HeadDetachedError", err)
	}
}

// TestLoadRejectsUnsupportedVersion covers the version-4 rejection
// scenario end to end: a stack ref whose stack.json carries an
// unsupported version must fail to load, even though the ref itself
// resolves fine.
func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	_, store, root := newTestRepo(t)

	badJSON := []byte(`{"version":"4","prev":null,"head":"` + root.String() + `","applied":[],"unapplied":[],"hidden":[],"patches":{}}`)
	blobHash, err := store.WriteBlob(badJSON)
	if err != nil {
		t.Fatalf("write blob: %v", err)
	}
	patchesTree, err := store.WriteTree(nil)
	if err != nil {
		t.Fatalf("write empty patches tree: %v", err)
	}
	snapTree, err := store.WriteTree([]objstore.TreeEntry{
		{Name: "stack.json", Kind: objstore.BlobKind, Hash: blobHash},
		{Name: "patches", Kind: objstore.TreeKind, Hash: patchesTree},
	})
	if err != nil {
		t.Fatalf("write snapshot tree: %v", err)
	}
	commitID, err := store.WriteCommit("bad version", testSig(), testSig(), snapTree, nil)
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}
	if err := store.UpdateRef(stack.RefName("master"), commitID, nil); err != nil {
		t.Fatalf("update ref: %v", err)
	}

	_, _, err = stack.Load(store, "master")
	if err == nil {
		t.Fatal("Load succeeded for a version-4 stack, want rejection")
	}
}

// TestLoadRejectsUninitialized ensures Load fails cleanly for a branch
// with no stack reference at all.
func TestLoadRejectsUninitialized(t *testing.T) {
	_, store, _ := newTestRepo(t)
	_, _, err := stack.Load(store, "master")
	if err == nil {
		t.Fatal("Load succeeded for an uninitialized branch, want rejection")
	}
	if _, ok := err.(*stack.StackNotInitializedError); !ok {
		t.Errorf("error type = %T, want *stack.StackNotInitializedError", err)
	}
}

// TestInitializeRejectsNonTextBranchName covers a branch shorthand that
// is not valid UTF-8 text: Initialize must reject it rather than let it
// flow through to a reference name.
func TestInitializeRejectsNonTextBranchName(t *testing.T) {
	_, store, _ := newTestRepo(t)
	_, _, err := stack.Initialize(store, "bad-\xff-name")
	if err == nil {
		t.Fatal("Initialize succeeded with a non-text branch name, want rejection")
	}
	if _, ok := err.(*stack.NonTextBranchNameError); !ok {
		t.Errorf("error type = %T, want *stack.NonTextBranchNameError", err)
	}
}
