// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"bufio"
	"errors"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/lima-vm/fsbox/pkg/ioutilx"
)

type openMatch struct {
	index     int
	remaining int
}

// scanFile returns the lines of the file at path that match re, with up to
// contextLines lines of context on each side.
func scanFile(path string, re *regexp.Regexp, contextLines int) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		matches []Match
		open    []openMatch
		before  []ContextLine
		lineNo  int
	)
	r := bufio.NewReader(ioutilx.NewTextReader(f))
	for {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if line == "" && err != nil {
			break
		}
		lineNo++
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		cur := ContextLine{LineNumber: lineNo, Content: line}

		// trailing context of earlier matches
		kept := open[:0]
		for _, o := range open {
			matches[o.index].Context = append(matches[o.index].Context, cur)
			if o.remaining > 1 {
				kept = append(kept, openMatch{index: o.index, remaining: o.remaining - 1})
			}
		}
		open = kept

		if re.MatchString(line) {
			matches = append(matches, Match{
				LineNumber: lineNo,
				Line:       line,
				Context:    slices.Clone(before),
			})
			if contextLines > 0 {
				open = append(open, openMatch{index: len(matches) - 1, remaining: contextLines})
			}
		}
		if contextLines > 0 {
			before = append(before, cur)
			if len(before) > contextLines {
				before = before[1:]
			}
		}
		if err != nil {
			break
		}
	}
	return matches, nil
}
