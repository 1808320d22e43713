// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/google/stgo/internal/command"
	"github.com/google/stgo/internal/editor"
	"github.com/google/stgo/internal/hook"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewPatchConfig holds the flags for the new command.
type NewPatchConfig struct {
	Name     string
	Message  string
	SignOff  bool
	NoVerify bool
}

// New creates a new cobra.Command for the new operation.
func New(globalCfg *GlobalConfig) *cobra.Command {
	var cfg NewPatchConfig
	c := &cobra.Command{
		Use:   "new",
		Short: "Create a new, empty patch atop the stack",
		Long: `New creates a patch commit atop the stack's current top, named and
described as given (or interactively, via $GIT_EDITOR/$EDITOR, if
--message is omitted), and applies it.`,
	}
	c.Flags().AddFlagSet(newFlags(&cfg))
	c.RunE = func(c *cobra.Command, args []string) error {
		cio := IO{Out: c.OutOrStdout(), Err: c.OutOrStderr()}
		return runNew(cio, globalCfg, cfg)
	}
	return c
}

func newFlags(cfg *NewPatchConfig) *pflag.FlagSet {
	set := pflag.NewFlagSet("new", pflag.ContinueOnError)
	set.StringVar(&cfg.Name, "name", "", "patch name (default: derived from the message)")
	set.StringVar(&cfg.Message, "message", "", "patch message")
	set.BoolVar(&cfg.SignOff, "sign-off", false, "append a Signed-off-by trailer")
	set.BoolVar(&cfg.NoVerify, "no-verify", false, "skip the commit-msg hook")
	return set
}

func runNew(cio IO, globalCfg *GlobalConfig, cfg NewPatchConfig) error {
	store, cfgFile, gitDir, err := openStore(globalCfg)
	if err != nil {
		return err
	}

	tx, err := command.Begin(store, globalCfg.Branch)
	if err != nil {
		return err
	}

	message := cfg.Message
	if message == "" {
		message, err = editor.EditMessage("\n", cfgFile.Editor())
		if err != nil {
			return err
		}
	}
	if message == "" {
		return fmt.Errorf("aborting new patch: empty message")
	}

	noVerify := cfg.NoVerify || cfgFile.NoVerify()
	message, err = hook.RunCommitMsg(gitDir, message, noVerify)
	if err != nil {
		return err
	}

	name, err := command.New(store, tx, command.NewPatchOptions{
		Name:       cfg.Name,
		Message:    message,
		NameLength: cfgFile.NameLength(),
		SignOff:    cfg.SignOff || cfgFile.AutoSign(),
	})
	if err != nil {
		return err
	}

	if _, err := tx.Commit(fmt.Sprintf("new patch %q", name)); err != nil {
		return err
	}
	fmt.Fprintf(cio.Err, "Created patch %q\n", name)
	return nil
}
