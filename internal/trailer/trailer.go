// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package trailer appends git-style trailers (Signed-off-by: Name
// <email>) to a commit message.
package trailer

import (
	"fmt"
	"strings"
)

// SignedOffBy appends a "Signed-off-by: name <email>" trailer to
// message. If the trailer is already present, message is returned
// unchanged. The trailer is separated from the body by a blank line
// unless one already precedes an existing trailer block.
func SignedOffBy(message, name, email string) string {
	trailer := fmt.Sprintf("Signed-off-by: %s <%s>", name, email)
	if strings.Contains(message, trailer) {
		return message
	}

	trimmed := strings.TrimRight(message, "\n")
	if trimmed == "" {
		return trailer
	}
	if isTrailerLine(lastLine(trimmed)) {
		return trimmed + "\n" + trailer
	}
	return trimmed + "\n\n" + trailer
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// isTrailerLine reports whether line looks like a "Key: value" trailer,
// so a new trailer can be appended directly below it without an extra
// blank line.
func isTrailerLine(line string) bool {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return false
	}
	key := line[:i]
	for _, r := range key {
		if r == ' ' || r == '\t' {
			return false
		}
	}
	return true
}
