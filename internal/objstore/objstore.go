// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package objstore abstracts access to a content-addressed store of
// commits, trees, and blobs. It is the only package in this module
// allowed to touch the underlying git object database directly; every
// other package goes through the Store interface.
package objstore

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Hash identifies an object in the store.
type Hash = plumbing.Hash

// ZeroHash is the hash that never names a real object.
var ZeroHash = plumbing.ZeroHash

// EntryKind distinguishes the two tree entry shapes this module ever
// writes: a leaf blob, or a nested subtree built from other entries.
type EntryKind int

const (
	// BlobKind names a regular, non-executable file entry.
	BlobKind EntryKind = iota
	// TreeKind names a subtree entry.
	TreeKind
)

// TreeEntry is one named child of a tree being built.
type TreeEntry struct {
	Name string
	Kind EntryKind
	Hash Hash
}

// Signature is an author or committer identity with a timestamp.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func toObjectSignature(s Signature) object.Signature {
	return object.Signature{Name: s.Name, Email: s.Email, When: s.When}
}

func fromObjectSignature(s object.Signature) Signature {
	return Signature{Name: s.Name, Email: s.Email, When: s.When}
}

// ErrNotFound is returned when a reference or object cannot be resolved.
var ErrNotFound = errors.New("objstore: not found")

// ParseHash decodes a 40-character hex object id. ok is false if s is not
// exactly 40 hex characters, in which case the returned hash is the zero
// value and must not be used.
func ParseHash(s string) (h Hash, ok bool) {
	if len(s) != 40 {
		return ZeroHash, false
	}
	for _, r := range s {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
		if !isHex {
			return ZeroHash, false
		}
	}
	return plumbing.NewHash(s), true
}

// Store is the abstract content-addressed object store this module
// persists stacks in. Every method is synchronous and blocking; there is
// no internal concurrency.
type Store interface {
	// ReadCommit returns the commit named by h.
	ReadCommit(h Hash) (*object.Commit, error)
	// ReadTree returns the tree named by h.
	ReadTree(h Hash) (*object.Tree, error)
	// ReadBlobAtPath returns the content of the blob reachable from tree
	// at the given slash-separated path, e.g. "patches/foo".
	ReadBlobAtPath(tree *object.Tree, path string) ([]byte, error)
	// TreeEntryHash resolves the hash of the entry at path within tree
	// without reading its content. ok is false if no such entry exists.
	TreeEntryHash(tree *object.Tree, path string) (h Hash, ok bool, err error)

	// WriteBlob stores data as a blob and returns its hash.
	WriteBlob(data []byte) (Hash, error)
	// WriteTree stores a tree built from entries (which must already be
	// written objects) and returns its hash.
	WriteTree(entries []TreeEntry) (Hash, error)
	// WriteCommit stores a commit object and returns its hash. Parents
	// are recorded in the given order.
	WriteCommit(message string, author, committer Signature, tree Hash, parents []Hash) (Hash, error)

	// UpdateRef points name at newHash. If expectOld is non-nil, the
	// update is a compare-and-swap against the reference's current value
	// (ZeroHash meaning "must not currently exist"); if expectOld is nil
	// the reference is created or overwritten unconditionally.
	UpdateRef(name string, newHash Hash, expectOld *Hash) error
	// ResolveRef returns the hash a reference currently points at. ok is
	// false if the reference does not exist.
	ResolveRef(name string) (h Hash, ok bool, err error)

	// ResolveBranchShorthand turns a branch's short name (e.g. "master")
	// into the hash its tip commit resolves to.
	ResolveBranchShorthand(shorthand string) (Hash, error)
	// HeadBranchShorthand returns the branch HEAD currently points at.
	// detached is true if HEAD is not a symbolic reference to a branch.
	HeadBranchShorthand() (shorthand string, detached bool, err error)

	// DefaultSignature produces the author/committer identity to use
	// when none is supplied explicitly, derived from repository and
	// environment configuration (user.name/user.email, falling back to
	// GIT_AUTHOR_* / GIT_COMMITTER_* environment variables).
	DefaultSignature() (Signature, error)
}

// gitStore is the Store implementation backed by go-git.
type gitStore struct {
	repo *git.Repository
}

// Open wraps an existing go-git repository as a Store.
func Open(repo *git.Repository) Store {
	return &gitStore{repo: repo}
}

func (s *gitStore) ReadCommit(h Hash) (*object.Commit, error) {
	c, err := s.repo.CommitObject(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	return c, nil
}

func (s *gitStore) ReadTree(h Hash) (*object.Tree, error) {
	t, err := s.repo.TreeObject(h)
	if err != nil {
		return nil, fmt.Errorf("read tree %s: %w", h, err)
	}
	return t, nil
}

func (s *gitStore) ReadBlobAtPath(tree *object.Tree, path string) ([]byte, error) {
	f, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("read blob at %q: %w", path, ErrNotFound)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("read blob contents at %q: %w", path, err)
	}
	return []byte(content), nil
}

func (s *gitStore) TreeEntryHash(tree *object.Tree, path string) (Hash, bool, error) {
	entry, err := tree.FindEntry(path)
	if err != nil {
		return ZeroHash, false, nil
	}
	return entry.Hash, true, nil
}

func (s *gitStore) WriteBlob(data []byte) (Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return ZeroHash, fmt.Errorf("open blob writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return ZeroHash, fmt.Errorf("write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return ZeroHash, fmt.Errorf("close blob writer: %w", err)
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return ZeroHash, fmt.Errorf("store blob: %w", err)
	}
	return h, nil
}

func (s *gitStore) WriteTree(entries []TreeEntry) (Hash, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return treeSortKey(sorted[i]) < treeSortKey(sorted[j]) })

	tree := &object.Tree{Entries: make([]object.TreeEntry, len(sorted))}
	for i, e := range sorted {
		mode := filemode.Regular
		if e.Kind == TreeKind {
			mode = filemode.Dir
		}
		tree.Entries[i] = object.TreeEntry{Name: e.Name, Mode: mode, Hash: e.Hash}
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return ZeroHash, fmt.Errorf("encode tree: %w", err)
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return ZeroHash, fmt.Errorf("store tree: %w", err)
	}
	return h, nil
}

// treeSortKey mimics git's tree entry ordering: entries are compared as
// if directory names carried a trailing slash. A snapshot's root tree
// mixes a blob (stack.json) with a subtree (patches), so the suffix is
// what keeps this comparator in line with git's ordering.
func treeSortKey(e TreeEntry) string {
	if e.Kind == TreeKind {
		return e.Name + "/"
	}
	return e.Name
}

func (s *gitStore) WriteCommit(message string, author, committer Signature, tree Hash, parents []Hash) (Hash, error) {
	commit := &object.Commit{
		Author:       toObjectSignature(author),
		Committer:    toObjectSignature(committer),
		Message:      message,
		TreeHash:     tree,
		ParentHashes: append([]Hash(nil), parents...),
	}
	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return ZeroHash, fmt.Errorf("encode commit: %w", err)
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return ZeroHash, fmt.Errorf("store commit: %w", err)
	}
	return h, nil
}

func (s *gitStore) UpdateRef(name string, newHash Hash, expectOld *Hash) error {
	refName := plumbing.ReferenceName(name)
	newRef := plumbing.NewHashReference(refName, newHash)

	if expectOld == nil {
		if err := s.repo.Storer.SetReference(newRef); err != nil {
			return fmt.Errorf("update ref %s: %w", name, err)
		}
		return nil
	}

	if *expectOld == ZeroHash {
		if _, err := s.repo.Storer.Reference(refName); err == nil {
			return fmt.Errorf("compare-and-swap ref %s: reference already exists", name)
		} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("compare-and-swap ref %s: %w", name, err)
		}
		if err := s.repo.Storer.SetReference(newRef); err != nil {
			return fmt.Errorf("update ref %s: %w", name, err)
		}
		return nil
	}

	oldRef := plumbing.NewHashReference(refName, *expectOld)
	if err := s.repo.Storer.CheckAndSetReference(newRef, oldRef); err != nil {
		return fmt.Errorf("compare-and-swap ref %s: %w", name, err)
	}
	return nil
}

func (s *gitStore) ResolveRef(name string) (Hash, bool, error) {
	ref, err := s.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return ZeroHash, false, nil
		}
		return ZeroHash, false, fmt.Errorf("resolve ref %s: %w", name, err)
	}
	return ref.Hash(), true, nil
}

func (s *gitStore) ResolveBranchShorthand(shorthand string) (Hash, error) {
	h, ok, err := s.ResolveRef("refs/heads/" + shorthand)
	if err != nil {
		return ZeroHash, err
	}
	if !ok {
		return ZeroHash, fmt.Errorf("resolve branch %q: %w", shorthand, ErrNotFound)
	}
	return h, nil
}

func (s *gitStore) HeadBranchShorthand() (string, bool, error) {
	head, err := s.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false, fmt.Errorf("read HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", true, nil
	}
	target := head.Target()
	const prefix = "refs/heads/"
	if !strings.HasPrefix(target.String(), prefix) {
		return "", true, nil
	}
	return strings.TrimPrefix(target.String(), prefix), false, nil
}

func (s *gitStore) DefaultSignature() (Signature, error) {
	name, email := gitConfigIdentity(s.repo)
	if name == "" {
		name = firstNonEmpty(os.Getenv("GIT_AUTHOR_NAME"), os.Getenv("GIT_COMMITTER_NAME"), "unknown")
	}
	if email == "" {
		email = firstNonEmpty(os.Getenv("GIT_AUTHOR_EMAIL"), os.Getenv("GIT_COMMITTER_EMAIL"), "unknown@localhost")
	}
	return Signature{Name: name, Email: email, When: time.Now()}, nil
}

func gitConfigIdentity(repo *git.Repository) (name, email string) {
	cfg, err := repo.Config()
	if err != nil {
		return "", ""
	}
	return cfg.User.Name, cfg.User.Email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
