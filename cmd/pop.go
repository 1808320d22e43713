// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/google/stgo/internal/command"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// PopConfig holds the flags for the pop command.
type PopConfig struct {
	Count int
	All   bool
}

// Pop creates a new cobra.Command for the pop operation.
func Pop(globalCfg *GlobalConfig) *cobra.Command {
	var cfg PopConfig
	c := &cobra.Command{
		Use:   "pop",
		Short: "Pop applied patches off the stack",
		Long: `Pop moves the topmost applied patch(es) back onto the unapplied
queue, without rewriting any commit.`,
	}
	c.Flags().AddFlagSet(popFlags(&cfg))
	c.RunE = func(c *cobra.Command, args []string) error {
		cio := IO{Out: c.OutOrStdout(), Err: c.OutOrStderr()}
		return runPop(cio, globalCfg, cfg)
	}
	return c
}

func popFlags(cfg *PopConfig) *pflag.FlagSet {
	set := pflag.NewFlagSet("pop", pflag.ContinueOnError)
	set.IntVar(&cfg.Count, "count", 1, "number of patches to pop")
	set.BoolVar(&cfg.All, "all", false, "pop all applied patches")
	return set
}

func runPop(cio IO, globalCfg *GlobalConfig, cfg PopConfig) error {
	store, _, _, err := openStore(globalCfg)
	if err != nil {
		return err
	}
	tx, err := command.Begin(store, globalCfg.Branch)
	if err != nil {
		return err
	}

	count := cfg.Count
	if cfg.All {
		count = len(tx.Working.Applied)
	}

	var popped []string
	for i := 0; i < count; i++ {
		name, err := command.Pop(tx)
		if err != nil {
			return err
		}
		popped = append(popped, name)
	}
	if len(popped) == 0 {
		fmt.Fprintln(cio.Err, "No patches to pop")
		return nil
	}

	if _, err := tx.Commit(fmt.Sprintf("pop %d patch%s", len(popped), pluralize(popped, "es"))); err != nil {
		return err
	}
	fmt.Fprintf(cio.Err, "Popped %d patch%s\n", len(popped), pluralize(popped, "es"))
	return nil
}
