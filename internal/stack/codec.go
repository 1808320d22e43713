// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package stack

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/stgo/internal/objstore"
)

// stackVersion is the only version discriminator this codec accepts.
const stackVersion = 5

// wireDoc is the canonical on-disk shape of a snapshot, stored as the
// stack.json blob. Field order matches the documented
// example and drives the encoder's key order; map keys are sorted by
// encoding/json automatically, which is what makes the patches object
// deterministic.
type wireDoc struct {
	Version   json.RawMessage      `json:"version"`
	Prev      *string              `json:"prev"`
	Head      string               `json:"head"`
	Applied   []string             `json:"applied"`
	Unapplied []string             `json:"unapplied"`
	Hidden    []string             `json:"hidden"`
	Patches   map[string]wirePatch `json:"patches"`
}

type wirePatch struct {
	OID string `json:"oid"`
}

// Encode renders s into its canonical stack.json form. Encoding is
// deterministic: the same snapshot always produces byte-identical
// output, so an unchanged snapshot always hashes to the same blob.
func Encode(s *Snapshot) ([]byte, error) {
	doc := wireDoc{
		// The version asymmetry (string on write, integer on read) is
		// deliberate on-disk compatibility, not a bug.
		Version:   json.RawMessage(`"` + fmt.Sprint(stackVersion) + `"`),
		Head:      s.Head.String(),
		Applied:   nonNil(s.Applied),
		Unapplied: nonNil(s.Unapplied),
		Hidden:    nonNil(s.Hidden),
		Patches:   make(map[string]wirePatch, len(s.Patches)),
	}
	if s.HasPrev {
		prev := s.Prev.String()
		doc.Prev = &prev
	}
	for name, patch := range s.Patches {
		doc.Patches[name] = wirePatch{OID: patch.OID.String()}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode stack: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses stack.json content into a Snapshot. Decoding never
// guesses: any malformed input fails rather than being coerced into a
// best guess.
func Decode(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc wireDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedPersistedStateError{Detail: err.Error()}
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}

	s := &Snapshot{
		Applied:   append([]string(nil), doc.Applied...),
		Unapplied: append([]string(nil), doc.Unapplied...),
		Hidden:    append([]string(nil), doc.Hidden...),
		Patches:   make(map[string]Patch, len(doc.Patches)),
	}

	head, err := parseHash(doc.Head)
	if err != nil {
		return nil, &MalformedPersistedStateError{Detail: fmt.Sprintf("head: %s", err)}
	}
	s.Head = head

	if doc.Prev != nil {
		prev, err := parseHash(*doc.Prev)
		if err != nil {
			return nil, &MalformedPersistedStateError{Detail: fmt.Sprintf("prev: %s", err)}
		}
		s.Prev = prev
		s.HasPrev = true
	}

	for name, wp := range doc.Patches {
		oid, err := parseHash(wp.OID)
		if err != nil {
			return nil, &MalformedPersistedStateError{Detail: fmt.Sprintf("patches[%s].oid: %s", name, err)}
		}
		s.Patches[name] = Patch{Name: name, OID: oid}
	}

	if err := checkDisjoint(s); err != nil {
		return nil, err
	}

	return s, nil
}

func checkVersion(raw json.RawMessage) error {
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		if asInt != stackVersion {
			return &UnsupportedStackVersionError{Found: fmt.Sprint(asInt)}
		}
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString != fmt.Sprint(stackVersion) {
			return &UnsupportedStackVersionError{Found: asString}
		}
		return nil
	}
	return &MalformedPersistedStateError{Detail: "version field is neither an integer nor a string"}
}

// checkDisjoint enforces the disjointness invariant at the codec
// boundary: applied/unapplied/hidden are pairwise disjoint and their
// union is exactly the key set of patches. Decoding is the stricter of
// the two places this could be checked, but it keeps with the codec's
// policy of never silently accepting malformed state.
func checkDisjoint(s *Snapshot) error {
	seen := make(map[string]string, len(s.Patches))
	queues := []struct {
		name  string
		names []string
	}{
		{"applied", s.Applied},
		{"unapplied", s.Unapplied},
		{"hidden", s.Hidden},
	}
	for _, q := range queues {
		for _, name := range q.names {
			if prior, ok := seen[name]; ok {
				return &MalformedPersistedStateError{
					Detail: fmt.Sprintf("patch %q appears in both %s and %s", name, prior, q.name),
				}
			}
			seen[name] = q.name
			if _, ok := s.Patches[name]; !ok {
				return &MalformedPersistedStateError{
					Detail: fmt.Sprintf("patch %q listed in %s has no entry in patches", name, q.name),
				}
			}
		}
	}
	if len(seen) != len(s.Patches) {
		return &MalformedPersistedStateError{
			Detail: "patches table has entries not referenced by any queue",
		}
	}
	return nil
}

func parseHash(s string) (objstore.Hash, error) {
	h, ok := objstore.ParseHash(s)
	if !ok {
		return objstore.ZeroHash, fmt.Errorf("object id %q is not a valid 40-character hex id", s)
	}
	return h, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
