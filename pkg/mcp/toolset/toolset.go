// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolset implements the tools declared in [github.com/lima-vm/fsbox/pkg/mcp/msi].
package toolset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/lima-vm/fsbox/pkg/fsboxyaml"
	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/pathguard"
	"github.com/lima-vm/fsbox/pkg/search"
)

// ToolSet holds what the tool handlers share. It is immutable after [New].
type ToolSet struct {
	guard    *pathguard.Guard
	engine   *search.Engine
	settings fsboxyaml.Settings
	logger   logrus.FieldLogger
}

type Option func(*ToolSet)

func WithLogger(l logrus.FieldLogger) Option {
	return func(ts *ToolSet) {
		ts.logger = l
	}
}

func New(guard *pathguard.Guard, settings *fsboxyaml.Settings, opts ...Option) (*ToolSet, error) {
	if guard == nil {
		return nil, errors.New("no path guard")
	}
	if settings == nil {
		return nil, errors.New("no settings")
	}
	ts := &ToolSet{
		guard:    guard,
		settings: *settings,
		logger:   logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(ts)
	}
	if ts.settings.MaxFileSize <= 0 {
		ts.settings.MaxFileSize = fsboxyaml.DefaultMaxFileSize
	}
	if ts.settings.RequestTimeout <= 0 {
		ts.settings.RequestTimeout = fsboxyaml.DefaultRequestTimeout
	}
	ts.engine = search.New(guard, search.WithLogger(ts.logger))
	return ts, nil
}

func (ts *ToolSet) RegisterServer(server *mcp.Server) error {
	addTool(ts, server, msi.ListAllowedDirectories, ts.ListAllowedDirectories)
	addTool(ts, server, msi.ListDirectory, ts.ListDirectory)
	addTool(ts, server, msi.ReadFile, ts.ReadFile)
	addTool(ts, server, msi.WriteFile, ts.WriteFile)
	addTool(ts, server, msi.EditFile, ts.EditFile)
	addTool(ts, server, msi.CreateDirectory, ts.CreateDirectory)
	addTool(ts, server, msi.CopyPath, ts.CopyPath)
	addTool(ts, server, msi.MovePath, ts.MovePath)
	addTool(ts, server, msi.DeletePath, ts.DeletePath)
	addTool(ts, server, msi.GetFileInfo, ts.GetFileInfo)
	addTool(ts, server, msi.Glob, ts.Glob)
	// the search has a timeout of its own, which may exceed the request timeout
	mcp.AddTool(server, msi.SearchFileContent, logged(ts, msi.SearchFileContent, ts.SearchFileContent))
	return nil
}

// addTool registers h, bounding each call by the request timeout.
func addTool[In, Out any](ts *ToolSet, server *mcp.Server, tool *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	h = logged(ts, tool, h)
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		ctx, cancel := context.WithTimeout(ctx, ts.settings.RequestTimeout)
		defer cancel()
		return h(ctx, req, in)
	})
}

func logged[In, Out any](ts *ToolSet, tool *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		l := ts.logger.WithField("tool", tool.Name)
		start := time.Now()
		res, out, err := h(ctx, req, in)
		if err != nil {
			l.WithError(err).Info("Tool call failed")
		} else {
			l.WithField("elapsed", time.Since(start)).Debug("Tool call succeeded")
		}
		return res, out, err
	}
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

// validate resolves path with the guard, describing failures for the caller.
func (ts *ToolSet) validate(path string) (string, error) {
	p, err := ts.guard.Validate(path)
	if err != nil {
		return "", describe(err)
	}
	return p, nil
}

func describe(err error) error {
	switch {
	case errors.Is(err, pathguard.ErrOutsideRoot):
		return fmt.Errorf("access denied: %w", err)
	case errors.Is(err, pathguard.ErrNotFound):
		return fmt.Errorf("not found: %w", err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("not found: %w", err)
	}
	return err
}
