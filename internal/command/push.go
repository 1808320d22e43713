// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"

	"github.com/google/stgo/internal/objstore"
)

// NotFastForwardError means a patch's commit does not sit directly atop
// the stack's current tip, so Push cannot move it into place without
// conflict-resolution logic this tool does not implement.
type NotFastForwardError struct {
	Name string
}

func (e *NotFastForwardError) Error() string {
	return fmt.Sprintf("patch %q is not based on the current top; refresh it before pushing", e.Name)
}

// NoSuchPatchError means name does not exist in the stack at all.
type NoSuchPatchError struct {
	Name string
}

func (e *NoSuchPatchError) Error() string {
	return fmt.Sprintf("no such patch: %q", e.Name)
}

// NothingToPushError means there is no unapplied patch to push.
type NothingToPushError struct{}

func (e *NothingToPushError) Error() string { return "no patches to push" }

// AlreadyAppliedError means the requested patch is already applied.
type AlreadyAppliedError struct {
	Name string
}

func (e *AlreadyAppliedError) Error() string {
	return fmt.Sprintf("patch %q is already applied", e.Name)
}

// Push moves a patch from the unapplied queue onto the applied queue,
// at its current tip. If name is "", the unapplied queue's first entry
// is pushed. Pushing requires that the patch's commit already has the
// current top as its sole parent (invariant 4 of the stack model) —
// this tool does not rebase or reapply diffs, so a patch left behind by
// history must be refreshed by other means before it can be pushed.
func Push(store objstore.Store, t *Transaction, name string) (string, error) {
	w := t.Working

	if name == "" {
		if len(w.Unapplied) == 0 {
			return "", &NothingToPushError{}
		}
		name = w.Unapplied[0]
	} else if !w.IsUnapplied(name) {
		if w.IsApplied(name) {
			return "", &AlreadyAppliedError{Name: name}
		}
		if w.IsHidden(name) {
			return "", fmt.Errorf("push %q: %w", name, &NotFastForwardError{Name: name})
		}
		return "", &NoSuchPatchError{Name: name}
	}

	patch, ok := w.Patches[name]
	if !ok {
		return "", &NoSuchPatchError{Name: name}
	}

	commit, err := store.ReadCommit(patch.OID)
	if err != nil {
		return "", fmt.Errorf("push %q: %w", name, err)
	}
	top := w.Top()
	if len(commit.ParentHashes) != 1 || commit.ParentHashes[0] != top {
		return "", &NotFastForwardError{Name: name}
	}

	w.Unapplied = removeString(w.Unapplied, name)
	w.Applied = append(w.Applied, name)
	return name, nil
}

func removeString(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
