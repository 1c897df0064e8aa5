// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsboxyaml

import (
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-units"

	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/search"
)

// Settings are the parsed values of a validated Config.
type Settings struct {
	Roots          []string
	MaxFileSize    int64
	RequestTimeout time.Duration
	// Search holds the request defaults; Pattern is left empty.
	Search search.Query
}

// Validate checks c and returns the parsed settings.
// Every problem found is reported, not only the first one.
func Validate(c *Config) (*Settings, error) {
	var errs []error
	s := &Settings{
		Roots:  c.Roots,
		Search: search.DefaultQuery(""),
	}
	for i, r := range c.Roots {
		if r == "" {
			errs = append(errs, fmt.Errorf("field `roots[%d]` must not be empty", i))
		}
	}
	s.MaxFileSize = parseSize(&errs, "maxFileSize", c.MaxFileSize, DefaultMaxFileSize)
	s.RequestTimeout = parseDuration(&errs, "requestTimeout", c.RequestTimeout, DefaultRequestTimeout)

	s.Search.MaxResults = ptr.ValueOr(c.Search.MaxResults, search.DefaultMaxResults)
	if s.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("field `search.maxResults` must be positive, got %d", s.Search.MaxResults))
	}
	s.Search.ContextLines = ptr.ValueOr(c.Search.ContextLines, search.DefaultContextLines)
	if s.Search.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("field `search.contextLines` must not be negative, got %d", s.Search.ContextLines))
	}
	s.Search.Timeout = parseDuration(&errs, "search.timeout", c.Search.Timeout, search.DefaultTimeout)
	s.Search.MaxFileSize = parseSize(&errs, "search.maxFileSize", c.Search.MaxFileSize, search.DefaultMaxFileSize)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

func parseSize(errs *[]error, field string, v *string, def int64) int64 {
	if v == nil {
		return def
	}
	n, err := units.RAMInBytes(*v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("field `%s` has an invalid value: %w", field, err))
		return def
	}
	if n <= 0 {
		*errs = append(*errs, fmt.Errorf("field `%s` must be positive, got %q", field, *v))
	}
	return n
}

func parseDuration(errs *[]error, field string, v *string, def time.Duration) time.Duration {
	if v == nil {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("field `%s` has an invalid value: %w", field, err))
		return def
	}
	if d <= 0 {
		*errs = append(*errs, fmt.Errorf("field `%s` must be positive, got %q", field, *v))
	}
	return d
}
