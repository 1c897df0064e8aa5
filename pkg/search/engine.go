// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package search implements concurrent content search inside allowed directories.
package search

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lima-vm/fsbox/pkg/pathguard"
	"github.com/lima-vm/fsbox/pkg/textutil"
)

const maxWorkers = 8

// Engine runs searches below directories admitted by a [pathguard.Guard].
// An Engine holds no per-search state and may be shared.
type Engine struct {
	guard   *pathguard.Guard
	logger  logrus.FieldLogger
	workers int
}

type Option func(*Engine)

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWorkers overrides the size of the worker pool.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func New(guard *pathguard.Guard, opts ...Option) *Engine {
	e := &Engine{
		guard:   guard,
		logger:  logrus.StandardLogger(),
		workers: min(runtime.GOMAXPROCS(0), maxWorkers),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Search looks for q.Pattern in the text files below root.
//
// Exceeding q.Timeout is not an error: the walk stops, the files already
// queued are still searched, and the result has TimedOut set. Cancelling ctx
// aborts the search and returns ctx.Err().
func (e *Engine) Search(ctx context.Context, q Query, root string) (*Result, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	glob, err := compileGlob(q.FilePattern)
	if err != nil {
		return nil, err
	}
	re, err := q.compile()
	if err != nil {
		return nil, err
	}
	rootPath, err := e.guard.Validate(root)
	if err != nil {
		return nil, err
	}
	l := e.logger.WithFields(logrus.Fields{
		"root":    rootPath,
		"pattern": q.Pattern,
	})

	start := time.Now()
	deadline, cancel := context.WithDeadline(context.Background(), start.Add(q.Timeout))
	defer cancel()

	queue := make(chan string, 2*e.workers)
	perWorker := make([][]FileMatch, e.workers)
	searched := make([]int, e.workers)

	var g errgroup.Group
	for i := range e.workers {
		g.Go(func() error {
			for p := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}
				matches, err := scanFile(p, re, q.ContextLines)
				if err != nil {
					l.WithError(err).WithField("path", p).Warn("Skipping unreadable file")
					continue
				}
				searched[i]++
				if len(matches) > 0 {
					perWorker[i] = append(perWorker[i], FileMatch{
						Path:    e.guard.RelativeDisplay(p),
						Matches: matches,
					})
				}
			}
			return nil
		})
	}

	w := &walker{
		query:      &q,
		glob:       glob,
		root:       rootPath,
		queue:      queue,
		ctx:        ctx,
		deadline:   deadline,
		deadlineAt: start.Add(q.Timeout),
		logger:     l,
	}
	walkErr := filepath.WalkDir(rootPath, w.visit)
	close(queue)
	workErr := g.Wait()

	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case walkErr != nil:
		return nil, &Error{Op: "walk", Err: fmt.Errorf("%w: %w", ErrIO, walkErr)}
	case workErr != nil:
		return nil, workErr
	}

	res := aggregate(perWorker, q.MaxResults)
	for _, n := range searched {
		res.FilesSearched += n
	}
	res.TimedOut = w.timedOut
	res.Elapsed = time.Since(start)
	l.WithFields(logrus.Fields{
		"searched":  res.FilesSearched,
		"matched":   res.FilesMatched,
		"matches":   res.TotalMatches,
		"truncated": res.Truncated,
		"timedOut":  res.TimedOut,
		"elapsed":   res.Elapsed,
	}).Debug("Search finished")
	return res, nil
}

// aggregate orders the per-file results by path and keeps whole files until
// maxResults matches have been collected.
func aggregate(perWorker [][]FileMatch, maxResults int) *Result {
	var all []FileMatch
	for _, fms := range perWorker {
		all = append(all, fms...)
	}
	slices.SortFunc(all, func(a, b FileMatch) int {
		return cmp.Compare(a.Path, b.Path)
	})
	res := &Result{Files: []FileMatch{}}
	for _, fm := range all {
		if res.TotalMatches >= maxResults {
			break
		}
		res.Files = append(res.Files, fm)
		res.TotalMatches += len(fm.Matches)
	}
	res.FilesMatched = len(res.Files)
	res.Truncated = res.TotalMatches >= maxResults
	return res
}

// walker feeds the queue from filepath.WalkDir. deadlineAt is checked on every
// entry since the deadline context is cancelled asynchronously.
type walker struct {
	query      *Query
	glob       *globMatcher
	root       string
	queue      chan<- string
	ctx        context.Context
	deadline   context.Context
	deadlineAt time.Time
	logger     logrus.FieldLogger
	timedOut   bool
}

func (w *walker) visit(p string, d fs.DirEntry, err error) error {
	if cerr := w.ctx.Err(); cerr != nil {
		return cerr
	}
	if !time.Now().Before(w.deadlineAt) {
		w.timedOut = true
		return fs.SkipAll
	}
	if err != nil {
		if p == w.root {
			return err
		}
		w.logger.WithError(err).WithField("path", p).Warn("Skipping unreadable entry")
		if d != nil && d.IsDir() {
			return fs.SkipDir
		}
		return nil
	}

	isRoot := p == w.root
	if d.IsDir() {
		if !isRoot && !w.query.Recursive {
			return fs.SkipDir
		}
		return nil
	}
	// symlinks are never followed, and devices or pipes could block the reader
	if !d.Type().IsRegular() {
		return nil
	}
	// hidden directories are descended, only hidden files are skipped
	if !isRoot && strings.HasPrefix(d.Name(), ".") {
		return nil
	}

	rel := d.Name()
	if !isRoot {
		r, err := filepath.Rel(w.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(r)
	}
	if !w.glob.match(rel) {
		return nil
	}
	if w.query.MaxFileSize > 0 {
		info, err := d.Info()
		if err != nil || info.Size() > w.query.MaxFileSize {
			return nil
		}
	}
	isText, err := textutil.IsText(p)
	if err != nil {
		w.logger.WithError(err).WithField("path", p).Debug("Skipping file that cannot be classified")
		return nil
	}
	if !isText {
		return nil
	}

	select {
	case w.queue <- p:
		return nil
	case <-w.ctx.Done():
		return w.ctx.Err()
	case <-w.deadline.Done():
		w.timedOut = true
		return fs.SkipAll
	}
}
