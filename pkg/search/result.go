// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package search

import "time"

type ContextLine struct {
	LineNumber int    `json:"line_number"`
	Content    string `json:"content"`
}

// Match is one matching line. Context holds the surrounding lines in
// increasing line order and never includes the matching line itself.
type Match struct {
	LineNumber int           `json:"line_number"`
	Line       string        `json:"line"`
	Context    []ContextLine `json:"context,omitempty"`
}

type FileMatch struct {
	// Path is relative to the closest allowed directory.
	Path    string  `json:"path"`
	Matches []Match `json:"matches"`
}

type Result struct {
	FilesSearched int           `json:"files_searched"`
	FilesMatched  int           `json:"files_matched"`
	TotalMatches  int           `json:"total_matches"`
	Files         []FileMatch   `json:"files"`
	Truncated     bool          `json:"truncated"`
	TimedOut      bool          `json:"timed_out"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}
