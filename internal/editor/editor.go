// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package editor launches the user's configured editor on a temporary
// file and reports back what they wrote, the round trip a patch's
// commit message goes through before it is committed.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// defaultEditor is used when neither GIT_EDITOR nor EDITOR is set.
const defaultEditor = "vi"

// resolve returns the editor command to invoke, preferring an explicit
// override, then $GIT_EDITOR, then $EDITOR, then defaultEditor.
func resolve(override string) string {
	if override != "" {
		return override
	}
	if e := os.Getenv("GIT_EDITOR"); e != "" {
		return e
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return defaultEditor
}

// EditMessage writes seed to a temporary file, opens it in the resolved
// editor, and returns the file's contents afterward with trailing
// whitespace trimmed. override, if non-empty, takes priority over the
// environment (used to honor a configured editor command).
func EditMessage(seed, override string) (string, error) {
	f, err := os.CreateTemp("", "stgo-commit-msg-*.txt")
	if err != nil {
		return "", fmt.Errorf("edit message: create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(seed); err != nil {
		f.Close()
		return "", fmt.Errorf("edit message: write seed: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("edit message: %w", err)
	}

	editorCmd := resolve(override)
	cmd := exec.Command("sh", "-c", editorCmd+` "$1"`, "--", path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("edit message: %s: %w", editorCmd, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("edit message: read back: %w", err)
	}
	return strings.TrimRight(string(data), "\n\r\t "), nil
}
