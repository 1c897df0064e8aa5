// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/pathguard"
	"github.com/lima-vm/fsbox/pkg/ptr"
)

const (
	modeCreate    = "create"
	modeOverwrite = "overwrite"
	modeAppend    = "append"
	modeCreateNew = "create_new"
)

func openFlags(mode string) (int, error) {
	switch mode {
	case modeCreate, modeOverwrite:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case modeAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case modeCreateNew:
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL, nil
	}
	return 0, fmt.Errorf("unsupported mode %q", mode)
}

// validateParent resolves path for writing. With makeDirs, missing parent
// directories are created, and checked again once they exist.
func (ts *ToolSet) validateParent(path string, makeDirs bool) (string, error) {
	if !makeDirs {
		p, err := ts.guard.Validate(path)
		if errors.Is(err, pathguard.ErrNotFound) {
			return "", fmt.Errorf("parent directory does not exist: %q (use make_dirs to create it)", filepath.Dir(path))
		}
		return p, describe(err)
	}
	p, err := ts.guard.ValidateCreate(path)
	if err != nil {
		return "", describe(err)
	}
	if err := ts.mkdirAll(filepath.Dir(p)); err != nil {
		return "", err
	}
	return ts.validate(p)
}

// mkdirAll creates dir and its parents, and makes sure the result is still
// inside an allowed directory.
func (ts *ToolSet) mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if !ts.guard.Contains(canonical) {
		return describe(&pathguard.PathError{Path: dir, Err: pathguard.ErrOutsideRoot})
	}
	return nil
}

func (ts *ToolSet) WriteFile(_ context.Context,
	_ *mcp.CallToolRequest, args msi.WriteFileParams,
) (*mcp.CallToolResult, *msi.WriteFileResult, error) {
	encoding, err := parseEncoding(args.Encoding)
	if err != nil {
		return nil, nil, err
	}
	mode := ptr.ValueOr(args.Mode, modeOverwrite)
	flags, err := openFlags(mode)
	if err != nil {
		return nil, nil, err
	}
	data := []byte(args.Content)
	if encoding == encodingBase64 {
		if data, err = base64.StdEncoding.DecodeString(args.Content); err != nil {
			return nil, nil, fmt.Errorf("failed to decode base64 content: %w", err)
		}
	}
	if int64(len(data)) > ts.settings.MaxFileSize {
		return nil, nil, fmt.Errorf("content of %d bytes exceeds the limit of %d bytes", len(data), ts.settings.MaxFileSize)
	}

	p, err := ts.validateParent(args.Path, ptr.ValueOr(args.MakeDirs, false))
	if err != nil {
		return nil, nil, err
	}
	st, err := os.Stat(p)
	created := errors.Is(err, fs.ErrNotExist)
	if err == nil && st.IsDir() {
		return nil, nil, fmt.Errorf("is a directory: %q", args.Path)
	}
	if err == nil && mode == modeCreateNew {
		return nil, nil, fmt.Errorf("file already exists: %q", args.Path)
	}

	f, err := os.OpenFile(p, flags, 0o644)
	if err != nil {
		return nil, nil, err
	}
	n, err := f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, nil, err
	}
	res := &msi.WriteFileResult{
		Path:         p,
		BytesWritten: n,
		Created:      created,
	}
	verb := "Wrote"
	if mode == modeAppend {
		verb = "Appended"
	}
	return textResult("%s %d bytes to %s", verb, n, ts.guard.RelativeDisplay(p)), res, nil
}
