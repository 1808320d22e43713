// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package command

import "github.com/google/stgo/internal/stack"

// PatchStatus classifies a listed patch by which queue it sits in.
type PatchStatus int

const (
	Applied PatchStatus = iota
	Unapplied
	Hidden
)

func (s PatchStatus) String() string {
	switch s {
	case Applied:
		return "applied"
	case Unapplied:
		return "unapplied"
	case Hidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// PatchListing is one row of List's output.
type PatchListing struct {
	Name   string
	Status PatchStatus
	IsTop  bool
}

// List returns every patch in s, applied first (in application order,
// topmost last), then unapplied, then hidden.
func List(s *stack.Snapshot) []PatchListing {
	out := make([]PatchListing, 0, len(s.Patches))
	top := ""
	if len(s.Applied) > 0 {
		top = s.Applied[len(s.Applied)-1]
	}
	for _, name := range s.Applied {
		out = append(out, PatchListing{Name: name, Status: Applied, IsTop: name == top})
	}
	for _, name := range s.Unapplied {
		out = append(out, PatchListing{Name: name, Status: Unapplied})
	}
	for _, name := range s.Hidden {
		out = append(out, PatchListing{Name: name, Status: Hidden})
	}
	return out
}
