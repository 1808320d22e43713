// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package config layers stgo's own settings over the host git repository's
// config file, the way a `stgo.*` section sits alongside `user.*` and
// `core.*` in .git/config.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultNameLength = 24
)

// Config holds the resolved settings for one invocation of the tool.
type Config struct {
	v *viper.Viper
}

// Load reads stgo settings from gitDir/config (read as plain INI through
// viper's git-config-compatible key style: "stgo.namelength" etc.),
// then from the process environment with an STGO_ prefix, applying
// defaults for anything left unset.
func Load(gitConfigPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("ini")
	v.SetEnvPrefix("stgo")
	v.AutomaticEnv()
	v.SetDefault("stgo.namelength", defaultNameLength)
	v.SetDefault("stgo.autosign", false)
	v.SetDefault("stgo.editor", "")
	v.SetDefault("stgo.noverify", false)

	if gitConfigPath != "" {
		v.SetConfigFile(gitConfigPath)
		if err := v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	return &Config{v: v}, nil
}

// NameLength is the maximum length MakeUnique truncates a generated
// patch name to (stgo.namelength).
func (c *Config) NameLength() int {
	return c.v.GetInt("stgo.namelength")
}

// AutoSign reports whether new patches should get a Signed-off-by
// trailer without being asked (stgo.autosign).
func (c *Config) AutoSign() bool {
	return c.v.GetBool("stgo.autosign")
}

// Editor is the configured override for $GIT_EDITOR/$EDITOR, or "" to
// defer to the environment (stgo.editor).
func (c *Config) Editor() string {
	return strings.TrimSpace(c.v.GetString("stgo.editor"))
}

// NoVerify reports whether the commit-msg hook should be skipped by
// default (stgo.noverify).
func (c *Config) NoVerify() bool {
	return c.v.GetBool("stgo.noverify")
}
