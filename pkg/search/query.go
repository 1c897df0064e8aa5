// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	DefaultFilePattern  = "*"
	DefaultMaxResults   = 100
	DefaultMaxFileSize  = 10 * 1024 * 1024
	DefaultContextLines = 0
	DefaultTimeout      = 30 * time.Second
)

// Query describes one content search.
type Query struct {
	// Pattern is a literal string, or a regular expression when IsRegex is set.
	Pattern       string
	IsRegex       bool
	CaseSensitive bool
	// FilePattern is a doublestar glob. A glob without "/" is matched against
	// the base name, otherwise against the slash separated path relative to the
	// search root. Empty means "*".
	FilePattern string
	// Recursive descends into subdirectories; otherwise only the files
	// directly inside the root are searched.
	Recursive bool
	// MaxResults is a soft cap on the total number of matches.
	MaxResults int
	// MaxFileSize skips larger files. Zero means no limit.
	MaxFileSize  int64
	ContextLines int
	Timeout      time.Duration
}

// DefaultQuery returns a Query for pattern with the default settings.
func DefaultQuery(pattern string) Query {
	return Query{
		Pattern:      pattern,
		FilePattern:  DefaultFilePattern,
		Recursive:    true,
		MaxResults:   DefaultMaxResults,
		MaxFileSize:  DefaultMaxFileSize,
		ContextLines: DefaultContextLines,
		Timeout:      DefaultTimeout,
	}
}

func (q *Query) validate() error {
	switch {
	case q.Pattern == "":
		return newError("validate", ErrInvalidQuery, "pattern must not be empty")
	case q.MaxResults <= 0:
		return newError("validate", ErrInvalidQuery, "max results must be positive, got %d", q.MaxResults)
	case q.Timeout <= 0:
		return newError("validate", ErrInvalidQuery, "timeout must be positive, got %v", q.Timeout)
	case q.ContextLines < 0:
		return newError("validate", ErrInvalidQuery, "context lines must not be negative, got %d", q.ContextLines)
	case q.MaxFileSize < 0:
		return newError("validate", ErrInvalidQuery, "max file size must not be negative, got %d", q.MaxFileSize)
	}
	return nil
}

func (q *Query) compile() (*regexp.Regexp, error) {
	expr := q.Pattern
	if !q.IsRegex {
		expr = regexp.QuoteMeta(expr)
	}
	if !q.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &Error{Op: "compile", Err: fmt.Errorf("%w: %w", ErrInvalidPattern, err)}
	}
	return re, nil
}

type globMatcher struct {
	pattern  string
	withPath bool
}

func compileGlob(pattern string) (*globMatcher, error) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, newError("compile", ErrInvalidGlob, "%q", pattern)
	}
	return &globMatcher{
		pattern:  pattern,
		withPath: strings.Contains(pattern, "/"),
	}, nil
}

// match takes the slash separated path relative to the search root.
func (m *globMatcher) match(rel string) bool {
	name := rel
	if !m.withPath {
		name = path.Base(rel)
	}
	ok, err := doublestar.Match(m.pattern, name)
	return err == nil && ok
}
