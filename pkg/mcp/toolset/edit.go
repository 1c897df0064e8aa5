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
	"regexp"
	"strings"

	continuityfs "github.com/containerd/continuity/fs"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/ioutilx"
	"github.com/lima-vm/fsbox/pkg/lockutil"
	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/textutil"
)

const (
	opReplace      = "replace"
	opInsert       = "insert"
	opDelete       = "delete"
	opReplaceLines = "replace_lines"
)

func required[T any](p *T, op, field string) (T, error) {
	if p == nil {
		var zero T
		return zero, fmt.Errorf("%s: %s is required", op, field)
	}
	return *p, nil
}

// applyEdit returns text with op applied.
func applyEdit(text string, op msi.EditOperation) (string, error) {
	switch op.Type {
	case opReplace:
		return applyReplace(text, op)
	case opInsert:
		pos, err := required(op.Position, op.Type, "position")
		if err != nil {
			return "", err
		}
		content, err := required(op.Content, op.Type, "content")
		if err != nil {
			return "", err
		}
		runes := []rune(text)
		if pos < 0 || pos > len(runes) {
			return "", fmt.Errorf("insert: position %d is out of range [0, %d]", pos, len(runes))
		}
		return string(runes[:pos]) + content + string(runes[pos:]), nil
	case opDelete:
		start, err := required(op.Start, op.Type, "start")
		if err != nil {
			return "", err
		}
		end, err := required(op.End, op.Type, "end")
		if err != nil {
			return "", err
		}
		runes := []rune(text)
		if start < 0 || end < start || end > len(runes) {
			return "", fmt.Errorf("delete: range [%d, %d) is out of range [0, %d]", start, end, len(runes))
		}
		return string(runes[:start]) + string(runes[end:]), nil
	case opReplaceLines:
		return applyReplaceLines(text, op)
	case "":
		return "", errors.New("operation type is required")
	}
	return "", fmt.Errorf("unknown operation type %q", op.Type)
}

// applyReplace replaces the occurrences of op.Find found by a single
// left-to-right scan of text, without overlaps.
func applyReplace(text string, op msi.EditOperation) (string, error) {
	find, err := required(op.Find, op.Type, "find")
	if err != nil {
		return "", err
	}
	if find == "" {
		return "", errors.New("replace: find must not be empty")
	}
	replacement := ptr.ValueOr(op.Replace, "")
	occurrence := ptr.ValueOr(op.Occurrence, 0)
	if occurrence < -1 {
		return "", fmt.Errorf("replace: invalid occurrence %d", occurrence)
	}
	expr := regexp.QuoteMeta(find)
	if !ptr.ValueOr(op.CaseSensitive, true) {
		expr = "(?i)" + expr
	}
	re := regexp.MustCompile(expr)
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", fmt.Errorf("replace: %q not found", find)
	}
	if occurrence == -1 {
		return re.ReplaceAllLiteralString(text, replacement), nil
	}
	if occurrence >= len(locs) {
		return "", fmt.Errorf("replace: occurrence %d of %q not found (%d occurrences)", occurrence, find, len(locs))
	}
	loc := locs[occurrence]
	return text[:loc[0]] + replacement + text[loc[1]:], nil
}

func applyReplaceLines(text string, op msi.EditOperation) (string, error) {
	start, err := required(op.StartLine, op.Type, "start_line")
	if err != nil {
		return "", err
	}
	end, err := required(op.EndLine, op.Type, "end_line")
	if err != nil {
		return "", err
	}
	content := ptr.ValueOr(op.Content, "")
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if start < 0 || end < start || end >= len(lines) {
		return "", fmt.Errorf("replace_lines: lines %d-%d are out of range (%d lines)", start, end, len(lines))
	}
	if content != "" && !strings.HasSuffix(content, "\n") && strings.HasSuffix(lines[end], "\n") {
		content += "\n"
	}
	return strings.Join(lines[:start], "") + content + strings.Join(lines[end+1:], ""), nil
}

func (ts *ToolSet) EditFile(_ context.Context,
	_ *mcp.CallToolRequest, args msi.EditFileParams,
) (*mcp.CallToolResult, *msi.EditFileResult, error) {
	if len(args.Operations) == 0 {
		return nil, nil, errors.New("no operations given")
	}
	p, err := ts.validate(args.Path)
	if err != nil {
		return nil, nil, err
	}
	var (
		out *mcp.CallToolResult
		res *msi.EditFileResult
	)
	err = lockutil.WithDirLock(filepath.Dir(p), func() error {
		var err error
		out, res, err = ts.editFile(p, args)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

// editFile applies args.Operations to the file at the validated path p.
func (ts *ToolSet) editFile(p string, args msi.EditFileParams) (*mcp.CallToolResult, *msi.EditFileResult, error) {
	text := ""
	exists := true
	perm := fs.FileMode(0o644)
	st, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !ptr.ValueOr(args.CreateIfMissing, false) {
			return nil, nil, describe(err)
		}
		exists = false
	case err != nil:
		return nil, nil, err
	case !st.Mode().IsRegular():
		return nil, nil, fmt.Errorf("not a regular file: %q", args.Path)
	case st.Size() > ts.settings.MaxFileSize:
		return nil, nil, fmt.Errorf("file of %d bytes exceeds the limit of %d bytes", st.Size(), ts.settings.MaxFileSize)
	default:
		perm = st.Mode().Perm()
		isText, err := textutil.IsText(p)
		if err != nil {
			return nil, nil, err
		}
		if !isText {
			return nil, nil, fmt.Errorf("not a text file: %q", args.Path)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, err
		}
		if text, err = ioutilx.DecodeText(b); err != nil {
			return nil, nil, err
		}
	}

	res := &msi.EditFileResult{Path: p}
	for i, op := range args.Operations {
		edited, err := applyEdit(text, op)
		if err != nil {
			res.Failed = append(res.Failed, msi.EditFailure{Index: i, Type: op.Type, Error: err.Error()})
			continue
		}
		text = edited
		res.Applied++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Applied %d of %d operations to %s", res.Applied, len(args.Operations), ts.guard.RelativeDisplay(p))
	for _, f := range res.Failed {
		fmt.Fprintf(&b, "\n  operation %d (%s) failed: %s", f.Index, f.Type, f.Error)
	}
	if res.Applied == 0 {
		out := textResult("%s", b.String())
		out.IsError = true
		return out, res, nil
	}

	if exists && ptr.ValueOr(args.Backup, false) {
		backup, err := ts.validate(p + ".bak")
		if err != nil {
			return nil, nil, err
		}
		if err := continuityfs.CopyFile(backup, p); err != nil {
			return nil, nil, fmt.Errorf("failed to create backup: %w", err)
		}
		res.BackupPath = backup
	}
	if err := os.WriteFile(p, []byte(text), perm); err != nil {
		return nil, nil, err
	}
	res.Written = true
	return textResult("%s", b.String()), res, nil
}
