// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// Root builds the top-level stgo command with every subcommand wired in.
func Root() *cobra.Command {
	cfg := &GlobalConfig{}

	root := &cobra.Command{
		Use:   "stgo",
		Short: "stgo - a stacked-patch persistence engine",
		Long: `stgo manages an ordered, mutable queue of named patches layered on a
branch tip, persisted durably inside the same content-addressed object
database that stores the underlying history.

Key operations:
- Initialize a stack for a branch (init)
- Create a new patch atop the stack (new)
- Move patches between applied and unapplied (push, pop)
- Inspect the stack (list)`,
	}
	root.PersistentFlags().StringVar(&cfg.Repository, "repository", "", "path to the git repository (default: current directory)")
	root.PersistentFlags().StringVar(&cfg.Branch, "branch", "", "branch whose stack to operate on (default: HEAD's branch)")

	root.AddCommand(Init(cfg))
	root.AddCommand(New(cfg))
	root.AddCommand(Push(cfg))
	root.AddCommand(Pop(cfg))
	root.AddCommand(List(cfg))
	return root
}
