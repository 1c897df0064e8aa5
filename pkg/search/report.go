// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"fmt"
	"strings"
)

// Summary returns the header of [Report] without the matches.
func Summary(q Query, root string, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s' in '%s'\n", q.Pattern, root)
	fmt.Fprintf(&b, "Results: %d matches in %d/%d files\n", r.TotalMatches, r.FilesMatched, r.FilesSearched)
	fmt.Fprintf(&b, "Time: %.2f seconds\n", r.Elapsed.Seconds())
	return b.String()
}

// Report renders r as human-readable text.
func Report(q Query, root string, r *Result) string {
	var b strings.Builder
	b.WriteString(Summary(q, root, r))
	if len(r.Files) == 0 {
		b.WriteString("\nNo matches found.\n")
	} else {
		b.WriteString("\nMatches:\n")
		for _, fm := range r.Files {
			fmt.Fprintf(&b, "\nFile: %s\n", fm.Path)
			for _, m := range fm.Matches {
				fmt.Fprintf(&b, "  Line %d: %s\n", m.LineNumber, strings.TrimSpace(m.Line))
				for _, c := range m.Context {
					fmt.Fprintf(&b, "    Line %d: %s\n", c.LineNumber, strings.TrimSpace(c.Content))
				}
			}
		}
	}
	if r.Truncated {
		fmt.Fprintf(&b, "\nNote: Maximum result limit reached (%d).\n", q.MaxResults)
	}
	if r.TimedOut {
		fmt.Fprintf(&b, "\nNote: Search timed out after %v.\n", q.Timeout)
	}
	return b.String()
}
