// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/google/stgo/internal/config"
	"github.com/google/stgo/internal/objstore"
)

// IO bundles the output streams a command writes user-facing text to,
// distinct from logging (which always goes to stderr through logrus).
type IO struct {
	Out io.Writer
	Err io.Writer
}

// GlobalConfig holds the flags every subcommand shares.
type GlobalConfig struct {
	// Repository is the path to the git repository to operate on.
	Repository string
	// Branch overrides which branch's stack to operate on; "" means
	// whatever HEAD currently points at.
	Branch string
}

// openStore opens cfg.Repository as a git repository and wraps it as an
// object store, along with the layered stgo config read from its
// .git/config.
func openStore(cfg *GlobalConfig) (objstore.Store, *config.Config, string, error) {
	repoPath := cfg.Repository
	if repoPath == "" {
		repoPath = "."
	}
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("open repository %s: %w", repoPath, err)
	}
	store := objstore.Open(repo)

	gitDir, err := filepath.Abs(filepath.Join(repoPath, ".git"))
	if err != nil {
		return nil, nil, "", fmt.Errorf("resolve git dir: %w", err)
	}
	cfgFile, err := config.Load(filepath.Join(gitDir, "config"))
	if err != nil {
		return nil, nil, "", fmt.Errorf("load config: %w", err)
	}
	return store, cfgFile, gitDir, nil
}

func pluralize[T any](s []T, plural string) string {
	if len(s) > 1 {
		return plural
	}
	return ""
}
