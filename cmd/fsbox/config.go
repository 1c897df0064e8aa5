// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lima-vm/fsbox/pkg/fsboxyaml"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(
		newConfigDefaultCommand(),
		newConfigInitCommand(),
		newConfigValidateCommand(),
	)
	return cmd
}

func newConfigDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default [ROOT...]",
		Short: "Print the default configuration",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := fsboxyaml.DefaultConfigBytes(args)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [ROOT...]",
		Short: "Write the default configuration file",
		Args:  cobra.ArbitraryArgs,
		RunE:  configInitAction,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	return cmd
}

func configInitAction(cmd *cobra.Command, args []string) error {
	path, err := fsboxyaml.ConfigFile()
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%q already exists (use --force to overwrite it)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	b, err := fsboxyaml.DefaultConfigBytes(args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	logrus.Infof("Wrote %q", path)
	return nil
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Validate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			c, err := fsboxyaml.LoadFile(path)
			if err != nil {
				return err
			}
			s, err := fsboxyaml.Validate(c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "roots: %v\nmaxFileSize: %d\nrequestTimeout: %v\n", s.Roots, s.MaxFileSize, s.RequestTimeout)
			return err
		},
	}
}
