// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/stgo/internal/objstore"
)

// RefName returns the reference name a branch's stack is persisted
// under: refs/stacks/<branch>.
func RefName(branch string) string {
	return "refs/stacks/" + branch
}

// resolveBranch turns "" (meaning HEAD) or an explicit branch shorthand
// into the branch name to operate on, failing if HEAD is detached.
func resolveBranch(store objstore.Store, branch string) (string, error) {
	if branch != "" {
		if !utf8.ValidString(branch) {
			return "", &NonTextBranchNameError{}
		}
		return branch, nil
	}
	shorthand, detached, err := store.HeadBranchShorthand()
	if err != nil {
		return "", fmt.Errorf("resolve branch: %w", err)
	}
	if detached {
		return "", &HeadDetachedError{}
	}
	if !utf8.ValidString(shorthand) {
		return "", &NonTextBranchNameError{}
	}
	return shorthand, nil
}

// Initialize creates a new, empty stack for branch (or HEAD's branch if
// branch is ""), rooted at the branch's current tip, and persists it as
// the first snapshot commit under refs/stacks/<branch>. It returns the
// new snapshot together with the resolved branch name. It fails if a
// stack already exists for that branch.
func Initialize(store objstore.Store, branch string) (*Snapshot, string, error) {
	branch, err := resolveBranch(store, branch)
	if err != nil {
		return nil, "", err
	}

	refName := RefName(branch)
	if _, ok, err := store.ResolveRef(refName); err != nil {
		return nil, "", fmt.Errorf("initialize: %w", err)
	} else if ok {
		return nil, "", &StackAlreadyInitializedError{Branch: branch}
	}

	tip, err := store.ResolveBranchShorthand(branch)
	if err != nil {
		return nil, "", fmt.Errorf("initialize: resolve branch tip: %w", err)
	}

	snapshot := New(tip)
	if _, err := Commit(store, snapshot, refName, "initialize"); err != nil {
		return nil, "", fmt.Errorf("initialize: %w", err)
	}
	return snapshot, branch, nil
}

// Load reads and decodes the current stack snapshot for branch (or
// HEAD's branch if branch is ""), failing if no stack has been
// initialized there.
func Load(store objstore.Store, branch string) (*Snapshot, string, error) {
	branch, err := resolveBranch(store, branch)
	if err != nil {
		return nil, "", err
	}

	refName := RefName(branch)
	tip, ok, err := store.ResolveRef(refName)
	if err != nil {
		return nil, "", fmt.Errorf("load: %w", err)
	}
	if !ok {
		return nil, "", &StackNotInitializedError{Branch: branch}
	}

	commit, err := store.ReadCommit(tip)
	if err != nil {
		return nil, "", fmt.Errorf("load: read snapshot commit: %w", err)
	}
	tree, err := store.ReadTree(commit.TreeHash)
	if err != nil {
		return nil, "", fmt.Errorf("load: read snapshot tree: %w", err)
	}
	snapshot, err := decodeSnapshotTree(store, tree)
	if err != nil {
		return nil, "", fmt.Errorf("load: %w", err)
	}
	snapshot.Prev = tip
	snapshot.HasPrev = true
	return snapshot, branch, nil
}
