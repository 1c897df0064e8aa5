// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newGenDocCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "generate-doc DIR",
		Short:  "Generate documentation pages",
		Args:   cobra.MinimumNArgs(1),
		RunE:   genDocAction,
		Hidden: true,
	}
	return cmd
}

func genDocAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	fName := filepath.Join(dir, "mcp.md")
	f, err := os.Create(fName)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprint(f, `---
title: MCP tools
weight: 99
---
fsbox serves MCP (Model Context Protocol) tools for reading, writing,
and searching local files. Every path is checked against the allowed
directories before it is used, with symbolic links resolved.

The tool definitions are in:
https://pkg.go.dev/github.com/lima-vm/fsbox/pkg/mcp/msi

`)
	info, err := inspectInfo(ctx)
	if err != nil {
		return err
	}
	for _, tool := range info.Tools {
		fmt.Fprintf(f, "## `%s`\n\n", tool.Name)
		if tool.Title != "" {
			fmt.Fprintf(f, "### Title\n\n%s\n\n", tool.Title)
		}
		if tool.Description != "" {
			fmt.Fprintf(f, "### Description\n\n%s\n\n", tool.Description)
		}
		if tool.InputSchema != nil {
			if err := writeSchema(f, "Input Schema", tool.InputSchema); err != nil {
				return err
			}
		}
		if tool.OutputSchema != nil {
			if err := writeSchema(f, "Output Schema", tool.OutputSchema); err != nil {
				return err
			}
		}
	}
	return f.Close()
}

func writeSchema(f *os.File, title string, schema any) error {
	j, err := json.MarshalIndent(schema, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "### %s\n\n```json\n%s\n```\n\n", title, string(j))
	return err
}
