// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package msi

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/search"
)

var SearchFileContent = &mcp.Tool{
	Name:  "search_file_content",
	Title: "Search file content",
	Description: `Searches for a pattern within the content of the text files below a directory. ` +
		`Binary files and hidden files are skipped; hidden directories are searched. ` +
		`Results are sorted by path; the search stops adding files once max_results matches are collected.`,
	Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr.Of(false)},
}

type SearchFileContentParams struct {
	Pattern       string  `json:"pattern" jsonschema:"The text to search for, or a regular expression (RE2 syntax) when regex is true."`
	Path          *string `json:"path,omitempty" jsonschema:"The directory (or file) to search within. Defaults to the first allowed directory."`
	Regex         *bool   `json:"regex,omitempty" jsonschema:"Whether pattern is a regular expression. Defaults to false."`
	FilePattern   *string `json:"file_pattern,omitempty" jsonschema:"A glob pattern to filter which files are searched (e.g., '*.js', 'src/**/*.{ts,tsx}'). Defaults to '*'."`
	Recursive     *bool   `json:"recursive,omitempty" jsonschema:"Whether to search subdirectories. Defaults to true."`
	CaseSensitive *bool   `json:"case_sensitive,omitempty" jsonschema:"Whether the search is case-sensitive. Defaults to false."`
	MaxResults    *int    `json:"max_results,omitempty" jsonschema:"The number of matches after which no more files are added. Defaults to 100."`
	MaxFileSize   *int64  `json:"max_file_size,omitempty" jsonschema:"Files larger than this many bytes are skipped. Defaults to 10 MiB."`
	ContextLines  *int    `json:"context_lines,omitempty" jsonschema:"The number of lines of context before and after each match. Defaults to 0."`
	TimeoutSecs   *int    `json:"timeout_secs,omitempty" jsonschema:"Stop looking for more files after this many seconds. Defaults to 30."`
}

type SearchFileContentResult struct {
	Root           string             `json:"root" jsonschema:"The resolved directory that was searched."`
	Pattern        string             `json:"pattern" jsonschema:"The pattern that was searched for."`
	FilesSearched  int                `json:"files_searched" jsonschema:"The number of text files that were read."`
	FilesMatched   int                `json:"files_matched" jsonschema:"The number of files in files."`
	TotalMatches   int                `json:"total_matches" jsonschema:"The number of matching lines in files."`
	Files          []search.FileMatch `json:"files" jsonschema:"The matching files, sorted by path relative to the closest allowed directory."`
	Truncated      bool               `json:"truncated" jsonschema:"True if max_results was reached."`
	TimedOut       bool               `json:"timed_out" jsonschema:"True if the search stopped early because of timeout_secs."`
	ElapsedSeconds float64            `json:"elapsed_seconds" jsonschema:"The duration of the search."`
}
