// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package patchname validates and generates patch names: the short,
// shell-safe identifiers used to name entries in a stack's queues.
package patchname

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InvalidNameError reports why a candidate patch name was rejected.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid patch name %q: %s", e.Name, e.Reason)
}

var validChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var reserved = map[string]bool{
	"top":    true,
	"bottom": true,
	"HEAD":   true,
}

var numericOnly = regexp.MustCompile(`^[0-9]+$`)

// Validate checks name against the patch name grammar: nonempty,
// alphanumerics/dashes/underscores only, no leading dot, not purely
// numeric, and not one of the reserved words "top", "bottom", "HEAD".
// Names are case-sensitive, so "Top" is a perfectly valid patch name.
func Validate(name string) (string, error) {
	if name == "" {
		return "", &InvalidNameError{Name: name, Reason: "name must not be empty"}
	}
	if strings.HasPrefix(name, ".") {
		return "", &InvalidNameError{Name: name, Reason: "name must not begin with a dot"}
	}
	if numericOnly.MatchString(name) {
		return "", &InvalidNameError{Name: name, Reason: "name must not be purely numeric"}
	}
	if reserved[name] {
		return "", &InvalidNameError{Name: name, Reason: "name is reserved"}
	}
	if !validChars.MatchString(name) {
		return "", &InvalidNameError{Name: name, Reason: "name must contain only letters, digits, dashes, and underscores"}
	}
	return name, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)
var dashRun = regexp.MustCompile(`-+`)

// MakeUnique derives a patch name from seed (typically a draft commit
// message) and disambiguates it against disallowed:
//
//  1. Take the first nonblank line of seed, trim it, optionally
//     lowercase it, collapse internal whitespace runs to a single dash,
//     drop any character other than ASCII letters, digits, dashes, and
//     underscores, collapse repeated dashes, and
//     trim leading/trailing dashes. An empty result falls back to "patch".
//  2. If lenLimit is nonzero and the base exceeds it, truncate at the
//     last dash boundary that still fits, or hard-truncate if there is
//     none.
//  3. If the result collides with disallowed and is not itself in
//     allowed, append "-1", "-2", ... until it is unique.
func MakeUnique(seed string, lenLimit int, lowercase bool, allowed, disallowed []string) string {
	base := firstNonblankLine(seed)
	base = strings.TrimSpace(base)
	if lowercase {
		base = strings.ToLower(base)
	}
	base = whitespaceRun.ReplaceAllString(base, "-")
	base = dropDisallowedChars(base)
	base = dashRun.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "patch"
	}

	if lenLimit > 0 && len(base) > lenLimit {
		base = truncateAtDashBoundary(base, lenLimit)
	}

	allowedSet := toSet(allowed)
	disallowedSet := toSet(disallowed)

	if !disallowedSet[base] || allowedSet[base] {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !disallowedSet[candidate] || allowedSet[candidate] {
			return candidate
		}
	}
}

func firstNonblankLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func dropDisallowedChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncateAtDashBoundary(s string, limit int) string {
	cut := s[:limit]
	if len(s) > limit && s[limit] == '-' {
		return cut
	}
	if idx := strings.LastIndexByte(cut, '-'); idx > 0 {
		return cut[:idx]
	}
	return cut
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
