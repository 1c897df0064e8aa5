// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/search"
)

// maxReportedMatches is the largest result that is also rendered as text.
const maxReportedMatches = 200

func (ts *ToolSet) searchQuery(args msi.SearchFileContentParams) search.Query {
	q := ts.settings.Search
	q.Pattern = args.Pattern
	q.IsRegex = ptr.ValueOr(args.Regex, q.IsRegex)
	q.FilePattern = ptr.ValueOr(args.FilePattern, q.FilePattern)
	q.Recursive = ptr.ValueOr(args.Recursive, q.Recursive)
	q.CaseSensitive = ptr.ValueOr(args.CaseSensitive, q.CaseSensitive)
	q.MaxResults = ptr.ValueOr(args.MaxResults, q.MaxResults)
	q.MaxFileSize = ptr.ValueOr(args.MaxFileSize, q.MaxFileSize)
	q.ContextLines = ptr.ValueOr(args.ContextLines, q.ContextLines)
	if args.TimeoutSecs != nil {
		q.Timeout = time.Duration(*args.TimeoutSecs) * time.Second
	}
	return q
}

func (ts *ToolSet) SearchFileContent(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.SearchFileContentParams,
) (*mcp.CallToolResult, *msi.SearchFileContentResult, error) {
	root := ts.guard.Roots()[0]
	if args.Path != nil && *args.Path != "" {
		root = *args.Path
	}
	q := ts.searchQuery(args)
	// the walk stops at q.Timeout; queued files may take up to the request timeout to drain
	ctx, cancel := context.WithTimeout(ctx, q.Timeout+ts.settings.RequestTimeout)
	defer cancel()

	r, err := ts.engine.Search(ctx, q, root)
	if err != nil {
		return nil, nil, describe(err)
	}
	resolved, err := ts.guard.Validate(root)
	if err != nil {
		return nil, nil, describe(err)
	}
	res := &msi.SearchFileContentResult{
		Root:           resolved,
		Pattern:        q.Pattern,
		FilesSearched:  r.FilesSearched,
		FilesMatched:   r.FilesMatched,
		TotalMatches:   r.TotalMatches,
		Files:          r.Files,
		Truncated:      r.Truncated,
		TimedOut:       r.TimedOut,
		ElapsedSeconds: r.Elapsed.Seconds(),
	}
	display := ts.guard.RelativeDisplay(resolved)
	if r.TotalMatches > maxReportedMatches {
		text := search.Summary(q, display, r) + "\nThe matches are too many to be listed as text; see the structured content.\n"
		return textResult("%s", text), res, nil
	}
	return textResult("%s", search.Report(q, display, r)), res, nil
}
