// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathguard confines file paths to a fixed set of allowed directories.
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxLinkHops bounds how many dangling symlinks are followed by [Guard.Validate].
const maxLinkHops = 40

// Guard validates paths against an ordered set of canonical root directories.
// A Guard is immutable after [New] and safe for concurrent use.
type Guard struct {
	roots  []string
	logger logrus.FieldLogger
}

type Option func(*Guard)

// WithLogger sets the logger used for reporting denied paths.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// New canonicalizes roots and returns a Guard for them.
// Every root must be an existing directory. Duplicates are collapsed, keeping the first occurrence.
func New(roots []string, opts ...Option) (*Guard, error) {
	g := &Guard{
		logger: logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(g)
	}
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	seen := make(map[string]struct{}, len(roots))
	for _, r := range roots {
		canonical, err := canonicalizeRoot(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		g.roots = append(g.roots, canonical)
		g.logger.WithField("root", canonical).Debug("Allowed directory")
	}
	return g, nil
}

func canonicalizeRoot(r string) (string, error) {
	expanded, err := ExpandHome(r)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve allowed directory %q: %w", r, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve allowed directory %q: %w", r, err)
	}
	st, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to stat allowed directory %q: %w", r, err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("allowed directory %q is not a directory", r)
	}
	return canonical, nil
}

// Roots returns a copy of the canonical roots, in configuration order.
func (g *Guard) Roots() []string {
	return append([]string(nil), g.roots...)
}

// Contains reports whether the already canonical path is one of the roots or below one.
func (g *Guard) Contains(canonical string) bool {
	for _, r := range g.roots {
		if within(r, canonical) {
			return true
		}
	}
	return false
}

// IsRoot reports whether the canonical path is one of the roots itself.
func (g *Guard) IsRoot(canonical string) bool {
	for _, r := range g.roots {
		if r == canonical {
			return true
		}
	}
	return false
}

// Validate resolves path and checks that it lies inside an allowed directory.
//
// Relative paths are joined to the first root under which they exist, or to
// the first root when they exist nowhere. An existing path is returned in its
// canonical form, with all symlinks resolved. A path that does not exist yet
// is accepted when its parent directory exists inside a root; the cleaned,
// absolute path is returned then. Errors are of type *[PathError].
func (g *Guard) Validate(path string) (string, error) {
	return g.validate(path, 0)
}

func (g *Guard) validate(path string, hops int) (string, error) {
	abs, err := g.resolve(path)
	if err != nil {
		return "", err
	}
	l := g.logger.WithField("path", path)

	canonical, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		if !g.Contains(canonical) {
			l.WithField("resolved", canonical).Warn("Denied access outside of the allowed directories")
			return "", &PathError{Path: path, Err: ErrOutsideRoot}
		}
		l.WithField("resolved", canonical).Trace("Validated path")
		return canonical, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", ioError(path, err)
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &PathError{Path: path, Err: ErrNotFound}
		}
		return "", ioError(path, err)
	}
	if !g.Contains(parent) {
		l.WithField("resolved", parent).Warn("Denied access outside of the allowed directories")
		return "", &PathError{Path: path, Err: ErrOutsideRoot}
	}

	// A dangling symlink must not be usable to create files elsewhere.
	if target, err := os.Readlink(abs); err == nil {
		if hops >= maxLinkHops {
			return "", ioError(path, errors.New("too many levels of symbolic links"))
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(parent, target)
		}
		if _, err := g.validate(target, hops+1); err != nil {
			var pe *PathError
			if errors.As(err, &pe) {
				return "", &PathError{Path: path, Err: pe.Err}
			}
			return "", err
		}
	}
	l.WithField("resolved", abs).Trace("Validated new path")
	return abs, nil
}

// ValidateCreate is like [Guard.Validate] but also admits paths whose
// parent directories are missing, as long as the closest existing ancestor
// lies inside an allowed directory. It is meant for "mkdir -p" style callers,
// which must check the created directories again with [Guard.Contains].
func (g *Guard) ValidateCreate(path string) (string, error) {
	p, err := g.Validate(path)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}
	abs, err := g.resolve(path)
	if err != nil {
		return "", err
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		canonical, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if !g.Contains(canonical) {
				g.logger.WithField("path", path).Warn("Denied access outside of the allowed directories")
				return "", &PathError{Path: path, Err: ErrOutsideRoot}
			}
			return abs, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", ioError(path, err)
		}
		if parent := filepath.Dir(dir); parent == dir {
			return "", &PathError{Path: path, Err: ErrNotFound}
		}
	}
}

// resolve turns path into a cleaned absolute path without touching symlinks.
func (g *Guard) resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", &PathError{Path: path, Err: fmt.Errorf("%w: %w", ErrIO, err)}
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	for _, r := range g.roots {
		joined := filepath.Join(r, expanded)
		if _, err := os.Lstat(joined); err == nil {
			return joined, nil
		}
	}
	return filepath.Join(g.roots[0], expanded), nil
}

// RelativeDisplay returns path relative to the root that leaves the fewest
// path components, or "." for a root itself. Paths outside of every root are
// returned unchanged.
func (g *Guard) RelativeDisplay(path string) string {
	cleaned := filepath.Clean(path)
	best, bestDepth := "", -1
	for _, r := range g.roots {
		if !within(r, cleaned) {
			continue
		}
		rel, err := filepath.Rel(r, cleaned)
		if err != nil {
			continue
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		if bestDepth < 0 || depth < bestDepth {
			best, bestDepth = rel, depth
		}
	}
	if bestDepth < 0 {
		return path
	}
	return best
}

// within reports whether p is root or a descendant of root, comparing whole components.
func within(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
