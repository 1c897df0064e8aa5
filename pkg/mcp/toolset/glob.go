// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/mcp/msi"
)

func (ts *ToolSet) Glob(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.GlobParams,
) (*mcp.CallToolResult, *msi.GlobResult, error) {
	pathStr := ts.guard.Roots()[0]
	if args.Path != nil && *args.Path != "" {
		pathStr = *args.Path
	}
	dir, err := ts.validate(pathStr)
	if err != nil {
		return nil, nil, err
	}
	pattern := args.Pattern
	if pattern == "" || path.IsAbs(pattern) || filepath.IsAbs(pattern) || !doublestar.ValidatePattern(pattern) {
		return nil, nil, fmt.Errorf("invalid pattern %q: expected a relative glob pattern", pattern)
	}
	if slices.Contains(strings.Split(pattern, "/"), "..") {
		return nil, nil, fmt.Errorf("invalid pattern %q: must not contain \"..\"", pattern)
	}

	res := &msi.GlobResult{Matches: []string{}}
	err = doublestar.GlobWalk(os.DirFS(dir), pattern, func(p string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		res.Matches = append(res.Matches, filepath.Join(dir, filepath.FromSlash(p)))
		return nil
	}, doublestar.WithNoFollow())
	if err != nil {
		return nil, nil, err
	}
	slices.Sort(res.Matches)

	text := fmt.Sprintf("Found %d path(s) matching %q in %s", len(res.Matches), pattern, ts.guard.RelativeDisplay(dir))
	if len(res.Matches) > 0 {
		text += ":\n" + strings.Join(res.Matches, "\n")
	}
	return textResult("%s", text), res, nil
}
