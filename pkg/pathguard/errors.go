// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package pathguard

import (
	"errors"
	"fmt"
)

var (
	// ErrOutsideRoot is returned for paths that resolve outside of every allowed directory.
	ErrOutsideRoot = errors.New("path is outside of the allowed directories")
	// ErrNotFound is returned when neither the path nor its parent directory exists.
	ErrNotFound = errors.New("parent directory does not exist")
	// ErrIO is returned when the path could not be resolved for another reason.
	ErrIO = errors.New("failed to resolve path")
	// ErrNoRoots is returned by [New] when no allowed directory is given.
	ErrNoRoots = errors.New("no allowed directories")
)

// PathError records a rejected path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func ioError(path string, err error) error {
	return &PathError{Path: path, Err: fmt.Errorf("%w: %w", ErrIO, err)}
}
