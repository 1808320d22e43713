// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package command implements the push/pop/new/list operations a user
// invokes through the CLI, batched through a Transaction so a sequence
// of queue mutations either succeeds as a whole or rolls back as a
// whole.
package command

import (
	"fmt"

	"github.com/google/stgo/internal/objstore"
	"github.com/google/stgo/internal/stack"
)

// Transaction stages mutations against a branch's stack in memory.
// No snapshot is written and the stack reference does not move until
// Commit is called, so discarding a transaction (letting it go out of
// scope, or calling Discard explicitly) requires no undo: the in-memory
// clone is simply dropped. Objects written while staging (such as the
// commit New creates for a patch) stay in the store, unreferenced.
type Transaction struct {
	store   objstore.Store
	branch  string
	refName string

	base    *stack.Snapshot
	Working *stack.Snapshot
}

// Begin loads the current stack for branch (or HEAD's branch if branch
// is "") and opens a transaction against it.
func Begin(store objstore.Store, branch string) (*Transaction, error) {
	snapshot, resolvedBranch, err := stack.Load(store, branch)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		store:   store,
		branch:  resolvedBranch,
		refName: stack.RefName(resolvedBranch),
		base:    snapshot,
		Working: snapshot.Clone(),
	}, nil
}

// Branch returns the branch this transaction operates on.
func (t *Transaction) Branch() string {
	return t.branch
}

// Discard drops every staged mutation, resetting Working back to the
// snapshot Begin loaded.
func (t *Transaction) Discard() {
	t.Working = t.base.Clone()
}

// Commit persists Working as a new snapshot commit and advances the
// branch's stack reference to it. On success, Working becomes the new
// base (so the same Transaction can keep staging further mutations); on
// failure Working is left untouched so the caller can inspect or retry.
func (t *Transaction) Commit(message string) (objstore.Hash, error) {
	id, err := stack.Commit(t.store, t.Working, t.refName, message)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("transaction commit: %w", err)
	}
	t.Working.Prev = id
	t.Working.HasPrev = true
	t.base = t.Working.Clone()
	return id, nil
}
