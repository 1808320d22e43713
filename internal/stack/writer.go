// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/stgo/internal/objstore"
	"github.com/sirupsen/logrus"
)

// MaxParents is the hard cap on parents per commit that the underlying
// object format permits. The snapshot writer launders any excess through
// grouping commits rather than ever writing a commit with more parents
// than this.
const MaxParents = 16

// Commit persists s as a new snapshot commit. It builds the snapshot
// tree, computes the simplified and full commit,
// performs parent-fanout reduction if needed, and — if updateRef is
// non-empty — advances that reference to the resulting commit via a
// compare-and-swap against the reference's expected prior value (s.Prev
// if s.HasPrev, or "must not exist" otherwise). It returns the id of the
// final (full) commit.
//
// Commit is all-or-nothing at the reference-update boundary: any error
// returned before the reference update leaves only unreferenced objects
// in the store, never a partially-updated stack.
func Commit(store objstore.Store, s *Snapshot, updateRef, message string) (objstore.Hash, error) {
	warnIfChainBroken(store, s)

	var prevMeta *patchMetaSource
	var prevSnapshot *Snapshot

	if s.HasPrev {
		prevCommit, err := store.ReadCommit(s.Prev)
		if err != nil {
			return objstore.ZeroHash, fmt.Errorf("commit: read prev snapshot commit: %w", err)
		}
		prevTree, err := store.ReadTree(prevCommit.TreeHash)
		if err != nil {
			return objstore.ZeroHash, fmt.Errorf("commit: read prev snapshot tree: %w", err)
		}
		prevSnapshot, err = decodeSnapshotTree(store, prevTree)
		if err != nil {
			return objstore.ZeroHash, fmt.Errorf("commit: decode prev snapshot: %w", err)
		}
		prevMeta = &patchMetaSource{snapshot: prevSnapshot, tree: prevTree}
	}

	treeHash, err := buildSnapshotTree(store, s, prevMeta)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("commit: build tree: %w", err)
	}

	sig, err := store.DefaultSignature()
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("commit: signature: %w", err)
	}

	simplifiedParents, err := simplifiedParentsOf(store, s)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("commit: simplified parents: %w", err)
	}
	simplifiedID, err := store.WriteCommit(message, sig, sig, treeHash, simplifiedParents)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("commit: write simplified commit: %w", err)
	}

	fullParents := fullParentSet(s, prevSnapshot)
	fullParents, err = reduceFanout(store, treeHash, sig, fullParents)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("commit: fanout reduction: %w", err)
	}

	finalParents := append([]objstore.Hash{simplifiedID}, fullParents...)
	finalID, err := store.WriteCommit(message, sig, sig, treeHash, finalParents)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("commit: write final commit: %w", err)
	}

	if updateRef != "" {
		expectOld := objstore.ZeroHash
		if s.HasPrev {
			expectOld = s.Prev
		}
		if err := store.UpdateRef(updateRef, finalID, &expectOld); err != nil {
			return objstore.ZeroHash, fmt.Errorf("commit: update ref %s: %w", updateRef, err)
		}
	}

	return finalID, nil
}

// simplifiedParentsOf returns the simplified commit's parent list: the
// single grandparent parent(prev) if a previous snapshot exists, or none
// for the initializing snapshot. Because the simplified commit is always
// the first parent of the commit it belongs to, this chain of first
// parents is exactly the readable, linear snapshot history.
func simplifiedParentsOf(store objstore.Store, s *Snapshot) ([]objstore.Hash, error) {
	if !s.HasPrev {
		return nil, nil
	}
	prevCommit, err := store.ReadCommit(s.Prev)
	if err != nil {
		return nil, err
	}
	if len(prevCommit.ParentHashes) == 0 {
		return nil, nil
	}
	return []objstore.Hash{prevCommit.ParentHashes[0]}, nil
}

// fullParentSet computes the full commit's parent set: head, the
// applied tip, every unapplied and hidden patch's commit, and — if a
// previous snapshot exists — prev itself minus every
// commit already reachable through prev's own patches (they would
// otherwise double-count parents for no benefit, since prev's parent
// closure already pins them).
func fullParentSet(s *Snapshot, prevSnapshot *Snapshot) []objstore.Hash {
	set := make(map[objstore.Hash]struct{})
	set[s.Head] = struct{}{}
	set[s.Top()] = struct{}{}
	for _, name := range s.Unapplied {
		set[s.Patches[name].OID] = struct{}{}
	}
	for _, name := range s.Hidden {
		set[s.Patches[name].OID] = struct{}{}
	}
	if s.HasPrev {
		set[s.Prev] = struct{}{}
		if prevSnapshot != nil {
			for _, name := range prevSnapshot.AllPatches() {
				delete(set, prevSnapshot.Patches[name].OID)
			}
		}
	}

	out := make([]objstore.Hash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sortHashes(out)
	return out
}

// reduceFanout repeatedly launders parent ids through grouping commits
// until the set, together with the simplified commit that Commit puts
// in front of it, fits within MaxParents. Each grouping commit carries
// the snapshot tree and the message "parent grouping"; its sole
// purpose is keeping the laundered ids reachable.
func reduceFanout(store objstore.Store, tree objstore.Hash, sig objstore.Signature, parents []objstore.Hash) ([]objstore.Hash, error) {
	remaining := append([]objstore.Hash(nil), parents...)
	for len(remaining) > MaxParents-1 {
		sortHashes(remaining)
		group := remaining[len(remaining)-MaxParents:]
		remaining = remaining[:len(remaining)-MaxParents]

		groupID, err := store.WriteCommit("parent grouping", sig, sig, tree, group)
		if err != nil {
			return nil, fmt.Errorf("write grouping commit: %w", err)
		}
		remaining = append(remaining, groupID)
	}
	sortHashes(remaining)
	return remaining, nil
}

func sortHashes(hs []objstore.Hash) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].String() < hs[j].String() })
}

// buildSnapshotTree builds the tree encoding s: a stack.json blob and a
// patches/ subtree with one blob per patch.
func buildSnapshotTree(store objstore.Store, s *Snapshot, prevMeta *patchMetaSource) (objstore.Hash, error) {
	encoded, err := Encode(s)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("encode stack.json: %w", err)
	}
	stackJSONHash, err := store.WriteBlob(encoded)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("write stack.json blob: %w", err)
	}

	patchEntries := make([]objstore.TreeEntry, 0, len(s.Patches))
	for _, name := range s.AllPatches() {
		oid := s.Patches[name].OID
		blobHash, err := resolvePatchMeta(store, name, oid, prevMeta)
		if err != nil {
			return objstore.ZeroHash, err
		}
		patchEntries = append(patchEntries, objstore.TreeEntry{Name: name, Kind: objstore.BlobKind, Hash: blobHash})
	}
	patchesTreeHash, err := store.WriteTree(patchEntries)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("write patches tree: %w", err)
	}

	rootEntries := []objstore.TreeEntry{
		{Name: "stack.json", Kind: objstore.BlobKind, Hash: stackJSONHash},
		{Name: "patches", Kind: objstore.TreeKind, Hash: patchesTreeHash},
	}
	rootTreeHash, err := store.WriteTree(rootEntries)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("write snapshot tree: %w", err)
	}
	return rootTreeHash, nil
}

// decodeSnapshotTree reads and decodes the stack.json blob from tree.
func decodeSnapshotTree(store objstore.Store, tree *object.Tree) (*Snapshot, error) {
	data, err := store.ReadBlobAtPath(tree, "stack.json")
	if err != nil {
		return nil, &StackMetadataMissingError{}
	}
	return Decode(data)
}

// warnIfChainBroken checks, without enforcing, that every applied
// patch's commit has the tip below it as its sole parent. Commit does
// not refuse to persist a snapshot that fails this check — the
// invariant is the responsibility of the push/pop operations that
// build s — but a broken chain here means some caller already produced
// an inconsistent stack, so it is worth surfacing rather than silently
// persisting.
func warnIfChainBroken(store objstore.Store, s *Snapshot) {
	tip := s.Head
	for _, name := range s.Applied {
		patch, ok := s.Patches[name]
		if !ok {
			logrus.Warnf("invariant error: applied patch %q has no entry in the patch table", name)
			return
		}
		commit, err := store.ReadCommit(patch.OID)
		if err != nil {
			logrus.Warnf("invariant error: applied patch %q's commit %s could not be read: %v", name, patch.OID, err)
			return
		}
		if len(commit.ParentHashes) != 1 || commit.ParentHashes[0] != tip {
			logrus.Warnf(
				"invariant error: applied patch %q is not based directly on %s "+
					"(this may result in an inconsistent persisted stack)",
				name, tip,
			)
			return
		}
		tip = patch.OID
	}
}
