// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package stack implements the in-memory stack model, its canonical
// on-disk encoding, and the algorithm that persists a snapshot as a
// commit in the underlying object store while pinning every object it
// references against garbage collection.
package stack

import (
	"github.com/google/stgo/internal/objstore"
)

// Patch pairs a patch name with the single commit that materializes it.
type Patch struct {
	Name string
	OID  objstore.Hash
}

// Snapshot is an immutable value describing a stack at one point in
// time: which patches are applied to the branch tip, which are set
// aside, which are hidden, and a link to the snapshot this one
// supersedes.
//
// Invariants:
//  1. Applied, Unapplied, and Hidden are pairwise disjoint and their
//     union is exactly the key set of Patches.
//  2. Every patch's commit has exactly one parent.
//  3. The logical tip is Top(), defined below.
//  4. For every applied patch, its commit's parent equals the tip below
//     it. This is maintained by higher-level push/pop operations and is
//     not re-checked by the snapshot writer.
type Snapshot struct {
	Prev      objstore.Hash
	HasPrev   bool
	Head      objstore.Hash
	Applied   []string
	Unapplied []string
	Hidden    []string
	Patches   map[string]Patch
}

// New constructs an empty snapshot rooted at head, with no previous
// snapshot link and no patches. This is the state a freshly initialized
// stack starts from.
func New(head objstore.Hash) *Snapshot {
	return &Snapshot{
		Head:    head,
		Patches: make(map[string]Patch),
	}
}

// AllPatches returns every patch name in the stack, in the order
// applied, then unapplied, then hidden.
func (s *Snapshot) AllPatches() []string {
	all := make([]string, 0, len(s.Applied)+len(s.Unapplied)+len(s.Hidden))
	all = append(all, s.Applied...)
	all = append(all, s.Unapplied...)
	all = append(all, s.Hidden...)
	return all
}

// Top returns the stack's logical tip: the commit of the last applied
// patch, or Head if no patches are applied.
func (s *Snapshot) Top() objstore.Hash {
	if len(s.Applied) == 0 {
		return s.Head
	}
	last := s.Applied[len(s.Applied)-1]
	return s.Patches[last].OID
}

// HasPatch reports whether name names any patch in the stack, applied,
// unapplied, or hidden.
func (s *Snapshot) HasPatch(name string) bool {
	_, ok := s.Patches[name]
	return ok
}

// IsApplied, IsUnapplied, and IsHidden report which queue, if any, a
// patch name currently sits in.
func (s *Snapshot) IsApplied(name string) bool   { return contains(s.Applied, name) }
func (s *Snapshot) IsUnapplied(name string) bool { return contains(s.Unapplied, name) }
func (s *Snapshot) IsHidden(name string) bool    { return contains(s.Hidden, name) }

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the snapshot, safe for a caller to mutate
// without affecting the original (used by Transaction to stage a batch
// of changes that can be discarded on error).
func (s *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		Prev:      s.Prev,
		HasPrev:   s.HasPrev,
		Head:      s.Head,
		Applied:   append([]string(nil), s.Applied...),
		Unapplied: append([]string(nil), s.Unapplied...),
		Hidden:    append([]string(nil), s.Hidden...),
		Patches:   make(map[string]Patch, len(s.Patches)),
	}
	for k, v := range s.Patches {
		clone.Patches[k] = v
	}
	return clone
}
