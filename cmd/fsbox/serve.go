// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [ROOT...]",
		Short: "Serve MCP over stdio",
		Long: `Serve MCP over stdio.

The tools only access paths inside the allowed directories (ROOT), given as
arguments, with --root, with $FSBOX_ROOTS, or in the configuration file.
The current directory is used when none is given.

Expected to be executed via an AI agent, not by a human`,
		Args: cobra.ArbitraryArgs,
		RunE: serveAction,
	}
	cmd.Flags().StringArray("root", nil, "Allowed directory (can be specified multiple times)")
	cmd.Flags().String("config", "", "Configuration file (default: $XDG_CONFIG_HOME/fsbox/fsbox.yaml)")
	cmd.Flags().String("max-file-size", "", "Largest file that can be read or written, e.g. 10MiB (env: FSBOX_MAX_FILE_SIZE)")
	cmd.Flags().String("request-timeout", "", "Time limit of a tool call, e.g. 30s (env: FSBOX_REQUEST_TIMEOUT)")
	return cmd
}

func serveAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}
	server, err := setupServer(settings)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"roots":          settings.Roots,
		"maxFileSize":    settings.MaxFileSize,
		"requestTimeout": settings.RequestTimeout,
	}).Info("Serving MCP over stdio")
	transport := &mcp.StdioTransport{}
	return server.Run(ctx, transport)
}
