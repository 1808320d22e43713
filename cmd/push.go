// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/google/stgo/internal/command"
	"github.com/spf13/cobra"
)

// Push creates a new cobra.Command for the push operation.
func Push(globalCfg *GlobalConfig) *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "push [patch]",
		Short: "Push an unapplied patch onto the stack",
		Long: `Push moves a patch from the unapplied queue onto the applied queue.
With no patch name, the first unapplied patch is pushed.`,
	}
	c.Flags().StringVar(&name, "name", "", "patch to push (default: first unapplied)")
	c.RunE = func(c *cobra.Command, args []string) error {
		cio := IO{Out: c.OutOrStdout(), Err: c.OutOrStderr()}
		target := name
		if len(args) > 0 {
			target = args[0]
		}
		return runPush(cio, globalCfg, target)
	}
	return c
}

func runPush(cio IO, globalCfg *GlobalConfig, name string) error {
	store, _, _, err := openStore(globalCfg)
	if err != nil {
		return err
	}
	tx, err := command.Begin(store, globalCfg.Branch)
	if err != nil {
		return err
	}
	pushed, err := command.Push(store, tx, name)
	if err != nil {
		return err
	}
	if _, err := tx.Commit(fmt.Sprintf("push %q", pushed)); err != nil {
		return err
	}
	fmt.Fprintf(cio.Err, "Pushed patch %q\n", pushed)
	return nil
}
