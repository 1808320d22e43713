// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/google/stgo/internal/command"
	"github.com/google/stgo/internal/stack"
	"github.com/spf13/cobra"
)

// List creates a new cobra.Command for the list operation.
func List(globalCfg *GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "List the patches in the stack",
		Long:  `List prints every patch in the stack, applied patches first in application order, then unapplied, then hidden.`,
	}
	c.RunE = func(c *cobra.Command, args []string) error {
		cio := IO{Out: c.OutOrStdout(), Err: c.OutOrStderr()}
		return runList(cio, globalCfg)
	}
	return c
}

func runList(cio IO, globalCfg *GlobalConfig) error {
	store, _, _, err := openStore(globalCfg)
	if err != nil {
		return err
	}
	snapshot, _, err := stack.Load(store, globalCfg.Branch)
	if err != nil {
		return err
	}

	for _, p := range command.List(snapshot) {
		marker := " "
		if p.IsTop {
			marker = ">"
		}
		fmt.Fprintf(cio.Out, "%s %-8s %s\n", marker, p.Status, p.Name)
	}
	return nil
}
