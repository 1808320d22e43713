// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package hook runs the repository's commit-msg hook against a drafted
// patch message before it is committed.
package hook

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const commitMsgHookName = "commit-msg"

// RunCommitMsg runs <gitDir>/hooks/commit-msg against message, if that
// hook file exists and is executable. When noVerify is true (the
// --no-verify convention), the hook is skipped entirely. It returns the
// (possibly hook-edited) message, or the original message unchanged if
// no hook ran.
func RunCommitMsg(gitDir, message string, noVerify bool) (string, error) {
	if noVerify {
		return message, nil
	}

	hookPath := filepath.Join(gitDir, "hooks", commitMsgHookName)
	info, err := os.Stat(hookPath)
	if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
		return message, nil
	}

	f, err := os.CreateTemp("", "stgo-commit-msg-hook-*.txt")
	if err != nil {
		return "", fmt.Errorf("commit-msg hook: create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(message); err != nil {
		f.Close()
		return "", fmt.Errorf("commit-msg hook: write message: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("commit-msg hook: %w", err)
	}

	cmd := exec.Command(hookPath, path)
	cmd.Dir = filepath.Dir(gitDir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("commit-msg hook rejected commit: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("commit-msg hook: read back message: %w", err)
	}
	return string(data), nil
}
