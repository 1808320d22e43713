// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"time"

	"github.com/google/stgo/internal/objstore"
	"github.com/google/stgo/internal/patchname"
	"github.com/google/stgo/internal/signature"
	"github.com/google/stgo/internal/stack"
	"github.com/google/stgo/internal/trailer"
)

// NewPatchOptions controls New.
type NewPatchOptions struct {
	// Name, if non-empty, is validated and used verbatim. Otherwise a
	// name is derived from Message via patchname.MakeUnique.
	Name string
	// Message is the patch's commit message.
	Message string
	// NameLength bounds a derived name's length (config stgo.namelength).
	NameLength int
	// SignOff appends a Signed-off-by trailer using the committer identity.
	SignOff bool
}

// New materializes an empty patch — same tree as the stack's current
// top — atop the stack, named and described by opts, and applies it
// immediately. Refreshing it with real working-tree content is a
// separate, out-of-scope operation per the working-tree Non-goal.
func New(store objstore.Store, t *Transaction, opts NewPatchOptions) (string, error) {
	w := t.Working

	name := opts.Name
	if name != "" {
		validated, err := patchname.Validate(name)
		if err != nil {
			return "", err
		}
		name = validated
		if w.HasPatch(name) {
			return "", fmt.Errorf("new patch %q: %w", name, &stack.PatchAlreadyExistsError{Name: name})
		}
	} else {
		nameLength := opts.NameLength
		if nameLength <= 0 {
			nameLength = 24
		}
		name = patchname.MakeUnique(opts.Message, nameLength, true, nil, w.AllPatches())
	}

	top := w.Top()
	parentCommit, err := store.ReadCommit(top)
	if err != nil {
		return "", fmt.Errorf("new patch %q: %w", name, err)
	}

	message := opts.Message
	if opts.SignOff {
		committer, err := signature.Committer(store, time.Now())
		if err != nil {
			return "", fmt.Errorf("new patch %q: %w", name, err)
		}
		message = trailer.SignedOffBy(message, committer.Name, committer.Email)
	}

	now := time.Now()
	author, err := signature.Author(store, now)
	if err != nil {
		return "", fmt.Errorf("new patch %q: %w", name, err)
	}
	committer, err := signature.Committer(store, now)
	if err != nil {
		return "", fmt.Errorf("new patch %q: %w", name, err)
	}

	oid, err := store.WriteCommit(message, author, committer, parentCommit.TreeHash, []objstore.Hash{top})
	if err != nil {
		return "", fmt.Errorf("new patch %q: %w", name, err)
	}

	w.Patches[name] = stack.Patch{Name: name, OID: oid}
	w.Applied = append(w.Applied, name)
	return name, nil
}
