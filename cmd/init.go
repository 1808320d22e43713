// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/google/stgo/internal/stack"
	"github.com/spf13/cobra"
)

// Init creates a new cobra.Command for the init operation.
func Init(globalCfg *GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Initialize a stack for the current branch",
		Long: `Init creates an empty stack rooted at the branch's current tip and
persists it as the first snapshot commit under refs/stacks/<branch>.`,
		RunE: func(c *cobra.Command, args []string) error {
			cio := IO{Out: c.OutOrStdout(), Err: c.OutOrStderr()}
			return runInit(cio, globalCfg)
		},
	}
	return c
}

func runInit(cio IO, globalCfg *GlobalConfig) error {
	store, _, _, err := openStore(globalCfg)
	if err != nil {
		return err
	}
	_, branch, err := stack.Initialize(store, globalCfg.Branch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cio.Err, "Initialized stack for branch %q\n", branch)
	return nil
}
