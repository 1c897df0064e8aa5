// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	continuityfs "github.com/containerd/continuity/fs"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/pathguard"
	"github.com/lima-vm/fsbox/pkg/ptr"
)

func (ts *ToolSet) CreateDirectory(_ context.Context,
	_ *mcp.CallToolRequest, args msi.CreateDirectoryParams,
) (*mcp.CallToolResult, *msi.CreateDirectoryResult, error) {
	parents := ptr.ValueOr(args.Parents, true)
	var (
		p   string
		err error
	)
	if parents {
		p, err = ts.guard.ValidateCreate(args.Path)
	} else {
		p, err = ts.guard.Validate(args.Path)
	}
	if err != nil {
		return nil, nil, describe(err)
	}
	res := &msi.CreateDirectoryResult{Path: p}
	if st, err := os.Stat(p); err == nil {
		if !st.IsDir() {
			return nil, nil, fmt.Errorf("already exists and is not a directory: %q", args.Path)
		}
		return textResult("Directory already exists: %s", ts.guard.RelativeDisplay(p)), res, nil
	}
	if parents {
		err = ts.mkdirAll(p)
	} else {
		err = os.Mkdir(p, 0o755)
	}
	if err != nil {
		return nil, nil, err
	}
	res.Created = true
	return textResult("Created directory %s", ts.guard.RelativeDisplay(p)), res, nil
}

// resolveTransfer validates the source and destination of a copy or a move.
// A destination that is an existing directory receives the source inside it.
func (ts *ToolSet) resolveTransfer(source, destination string, overwrite bool) (src, dst string, srcInfo fs.FileInfo, err error) {
	if src, err = ts.validate(source); err != nil {
		return "", "", nil, err
	}
	if srcInfo, err = os.Lstat(src); err != nil {
		return "", "", nil, describe(err)
	}
	if dst, err = ts.validate(destination); err != nil {
		return "", "", nil, err
	}
	if st, err := os.Stat(dst); err == nil && st.IsDir() && dst != src {
		if dst, err = ts.validate(filepath.Join(dst, filepath.Base(src))); err != nil {
			return "", "", nil, err
		}
	}
	if dst == src {
		return "", "", nil, fmt.Errorf("source and destination are the same: %q", src)
	}
	if srcInfo.IsDir() && strings.HasPrefix(dst, src+string(filepath.Separator)) {
		return "", "", nil, fmt.Errorf("cannot copy or move %q into itself", source)
	}
	if _, err := os.Lstat(dst); err == nil {
		if !overwrite {
			return "", "", nil, fmt.Errorf("destination already exists: %q (use overwrite to replace it)", destination)
		}
		if ts.guard.IsRoot(dst) {
			return "", "", nil, fmt.Errorf("refusing to replace an allowed directory: %q", destination)
		}
		if err := os.RemoveAll(dst); err != nil {
			return "", "", nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", "", nil, err
	}
	return src, dst, srcInfo, nil
}

func (ts *ToolSet) CopyPath(_ context.Context,
	_ *mcp.CallToolRequest, args msi.CopyPathParams,
) (*mcp.CallToolResult, *msi.CopyPathResult, error) {
	src, dst, srcInfo, err := ts.resolveTransfer(args.Source, args.Destination, ptr.ValueOr(args.Overwrite, false))
	if err != nil {
		return nil, nil, err
	}
	switch {
	case srcInfo.IsDir():
		if !ptr.ValueOr(args.Recursive, true) {
			return nil, nil, fmt.Errorf("is a directory: %q (use recursive to copy it)", args.Source)
		}
		err = continuityfs.CopyDir(dst, src)
	case srcInfo.Mode().IsRegular():
		err = continuityfs.CopyFile(dst, src)
	default:
		err = fmt.Errorf("cannot copy %s %q", entryType(srcInfo.Mode()), args.Source)
	}
	if err != nil {
		return nil, nil, err
	}
	res := &msi.CopyPathResult{Source: src, Destination: dst}
	return textResult("Copied %s to %s", ts.guard.RelativeDisplay(src), ts.guard.RelativeDisplay(dst)), res, nil
}

func (ts *ToolSet) MovePath(_ context.Context,
	_ *mcp.CallToolRequest, args msi.MovePathParams,
) (*mcp.CallToolResult, *msi.MovePathResult, error) {
	src, err := ts.validate(args.Source)
	if err != nil {
		return nil, nil, err
	}
	if ts.guard.IsRoot(src) {
		return nil, nil, fmt.Errorf("refusing to move an allowed directory: %q", args.Source)
	}
	src, dst, _, err := ts.resolveTransfer(args.Source, args.Destination, ptr.ValueOr(args.Overwrite, false))
	if err != nil {
		return nil, nil, err
	}
	if err := os.Rename(src, dst); err != nil {
		return nil, nil, err
	}
	res := &msi.MovePathResult{Source: src, Destination: dst}
	return textResult("Moved %s to %s", ts.guard.RelativeDisplay(src), ts.guard.RelativeDisplay(dst)), res, nil
}

func (ts *ToolSet) DeletePath(_ context.Context,
	_ *mcp.CallToolRequest, args msi.DeletePathParams,
) (*mcp.CallToolResult, *msi.DeletePathResult, error) {
	force := ptr.ValueOr(args.Force, false)
	p, err := ts.guard.Validate(args.Path)
	if err != nil {
		if force && errors.Is(err, pathguard.ErrNotFound) {
			return textResult("Nothing to delete at %s", args.Path), &msi.DeletePathResult{Path: args.Path}, nil
		}
		return nil, nil, describe(err)
	}
	if ts.guard.IsRoot(p) {
		return nil, nil, fmt.Errorf("refusing to delete an allowed directory: %q", args.Path)
	}
	res := &msi.DeletePathResult{Path: p}
	st, err := os.Lstat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if force {
			return textResult("Nothing to delete at %s", ts.guard.RelativeDisplay(p)), res, nil
		}
		return nil, nil, describe(err)
	case err != nil:
		return nil, nil, err
	case st.IsDir() && ptr.ValueOr(args.Recursive, false):
		err = os.RemoveAll(p)
	default:
		err = os.Remove(p)
	}
	if err != nil {
		if st.IsDir() {
			return nil, nil, fmt.Errorf("failed to delete directory %q (use recursive for non-empty directories): %w", args.Path, err)
		}
		return nil, nil, err
	}
	res.Deleted = true
	return textResult("Deleted %s", ts.guard.RelativeDisplay(p)), res, nil
}
