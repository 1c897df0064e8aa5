// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPattern = errors.New("invalid search pattern")
	ErrInvalidGlob    = errors.New("invalid file pattern")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrIO             = errors.New("failed to read the search root")
)

// Error is returned for requests that fail as a whole.
// Per-file failures never surface as an Error; such files are skipped.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("search: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, sentinel error, format string, args ...any) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
