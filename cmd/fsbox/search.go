// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lima-vm/fsbox/pkg/search"
)

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search PATTERN [DIR]",
		Short: "Search file contents",
		Long: `Search the text files below DIR (default: the current directory) for PATTERN.

The search applies the same rules as the search_file_content tool, with DIR as
the only allowed directory. Hidden directories are searched, while hidden
files, binary files and symbolic links are skipped.`,
		Example: `  Search Go files for a regular expression, with two lines of context:
  $ fsbox search --regex --include '*.go' -C 2 'func \w+Test' ./pkg`,
		Args: cobra.RangeArgs(1, 2),
		RunE: searchAction,
	}
	cmd.Flags().Bool("regex", false, "Interpret PATTERN as a regular expression (RE2 syntax)")
	cmd.Flags().Bool("case-sensitive", false, "Match case")
	cmd.Flags().String("include", search.DefaultFilePattern, "Only search the files matching this glob; globs with '/' match the relative path")
	cmd.Flags().Bool("no-recursive", false, "Do not descend into subdirectories")
	cmd.Flags().Int("max-results", search.DefaultMaxResults, "Stop adding files once this many matches are collected")
	cmd.Flags().IntP("context", "C", search.DefaultContextLines, "Lines of context around each match")
	cmd.Flags().Duration("timeout", search.DefaultTimeout, "Time limit of the walk")
	cmd.Flags().String("max-file-size", units.BytesSize(search.DefaultMaxFileSize), "Skip larger files (0 means no limit)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func searchQuery(cmd *cobra.Command, pattern string) (search.Query, error) {
	flags := cmd.Flags()
	q := search.DefaultQuery(pattern)
	q.IsRegex, _ = flags.GetBool("regex")
	q.CaseSensitive, _ = flags.GetBool("case-sensitive")
	q.FilePattern, _ = flags.GetString("include")
	noRecursive, _ := flags.GetBool("no-recursive")
	q.Recursive = !noRecursive
	q.MaxResults, _ = flags.GetInt("max-results")
	q.ContextLines, _ = flags.GetInt("context")
	q.Timeout, _ = flags.GetDuration("timeout")
	maxFileSize, _ := flags.GetString("max-file-size")
	if maxFileSize == "0" {
		q.MaxFileSize = 0
	} else {
		n, err := units.RAMInBytes(maxFileSize)
		if err != nil {
			return q, fmt.Errorf("invalid --max-file-size: %w", err)
		}
		q.MaxFileSize = n
	}
	return q, nil
}

func searchAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	q, err := searchQuery(cmd, args[0])
	if err != nil {
		return err
	}
	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}
	if dir == "." {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}
	guard, err := newGuard([]string{dir})
	if err != nil {
		return err
	}
	engine := search.New(guard, search.WithLogger(logrus.StandardLogger()))
	r, err := engine.Search(ctx, q, guard.Roots()[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		j, err := json.MarshalIndent(r, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(j))
		return err
	}
	_, err = fmt.Fprint(w, search.Report(q, args[len(args)-1], r))
	return err
}
