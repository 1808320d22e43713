// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/stgo/internal/objstore"
)

// timeLayout is the stable, second-resolution layout used for patch-meta
// timestamps. It renders the commit's author time in its own (naive
// local) zone together with that zone's fixed offset.
const timeLayout = "2006-01-02 15:04:05 -0700"

// buildPatchMeta renders the human-readable per-patch descriptor blob
// for the patch materialized by oid:
//
//	Bottom: <parent-tree-hex>
//	Top:    <commit-tree-hex>
//	Author: <author-signature>
//	Date:   <naive-local-time> <tz-offset>
func buildPatchMeta(store objstore.Store, oid objstore.Hash) ([]byte, error) {
	commit, err := store.ReadCommit(oid)
	if err != nil {
		return nil, fmt.Errorf("build patch meta: %w", err)
	}
	if len(commit.ParentHashes) != 1 {
		return nil, fmt.Errorf("build patch meta: commit %s does not have exactly one parent", oid)
	}
	parent, err := store.ReadCommit(commit.ParentHashes[0])
	if err != nil {
		return nil, fmt.Errorf("build patch meta: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Bottom: %s\n", parent.TreeHash)
	fmt.Fprintf(&buf, "Top:    %s\n", commit.TreeHash)
	fmt.Fprintf(&buf, "Author: %s\n", formatSignature(commit.Author))
	fmt.Fprintf(&buf, "Date:   %s\n", commit.Author.When.Format(timeLayout))
	return buf.Bytes(), nil
}

func formatSignature(sig object.Signature) string {
	return fmt.Sprintf("%s <%s>", sig.Name, sig.Email)
}

// patchMetaSource carries what resolvePatchMeta needs to consider
// reusing a previous snapshot's meta blob for a patch.
type patchMetaSource struct {
	snapshot *Snapshot
	tree     *object.Tree
}

// resolvePatchMeta returns the blob hash to use for patches/<name> in the
// tree being built for s. If prev has a patch of the same name at the
// same commit id, the previous snapshot's blob is reused verbatim;
// otherwise a fresh blob is built. Any failure in the reuse lookup
// falls back to rebuilding.
func resolvePatchMeta(store objstore.Store, name string, oid objstore.Hash, prev *patchMetaSource) (objstore.Hash, error) {
	if prev != nil {
		if prevPatch, ok := prev.snapshot.Patches[name]; ok && prevPatch.OID == oid {
			if h, ok, err := store.TreeEntryHash(prev.tree, "patches/"+name); err == nil && ok {
				return h, nil
			}
		}
	}

	content, err := buildPatchMeta(store, oid)
	if err != nil {
		return objstore.ZeroHash, err
	}
	h, err := store.WriteBlob(content)
	if err != nil {
		return objstore.ZeroHash, fmt.Errorf("write patch meta blob for %q: %w", name, err)
	}
	return h, nil
}
