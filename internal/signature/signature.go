// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package signature builds the author and committer identities that go
// on a new patch commit, keeping "who wrote this" and "who is
// committing this right now" as separate, independently stampable
// identities.
package signature

import (
	"time"

	"github.com/google/stgo/internal/objstore"
)

// Author returns the identity to record as a new commit's author: the
// store's default identity, stamped with now. Preserve, rather than
// call this again, when amending a patch so the original authorship
// time survives.
func Author(store objstore.Store, now time.Time) (objstore.Signature, error) {
	sig, err := store.DefaultSignature()
	if err != nil {
		return objstore.Signature{}, err
	}
	sig.When = now
	return sig, nil
}

// Committer returns the identity to record as a new commit's committer:
// always the store's default identity stamped with the current instant,
// regardless of what author time is being preserved.
func Committer(store objstore.Store, now time.Time) (objstore.Signature, error) {
	return Author(store, now)
}
