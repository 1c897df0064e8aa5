// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/ptr"
)

func (ts *ToolSet) ListAllowedDirectories(_ context.Context,
	_ *mcp.CallToolRequest, _ msi.ListAllowedDirectoriesParams,
) (*mcp.CallToolResult, *msi.ListAllowedDirectoriesResult, error) {
	res := &msi.ListAllowedDirectoriesResult{
		Directories: ts.guard.Roots(),
	}
	return textResult("Allowed directories:\n%s", strings.Join(res.Directories, "\n")), res, nil
}

// entry types, in listing order
var entryTypes = []string{"directory", "file", "symlink", "fifo", "socket", "block_device", "char_device", "unknown"}

func entryType(m fs.FileMode) string {
	switch {
	case m.IsDir():
		return "directory"
	case m.IsRegular():
		return "file"
	case m&fs.ModeSymlink != 0:
		return "symlink"
	case m&fs.ModeNamedPipe != 0:
		return "fifo"
	case m&fs.ModeSocket != 0:
		return "socket"
	case m&fs.ModeCharDevice != 0:
		return "char_device"
	case m&fs.ModeDevice != 0:
		return "block_device"
	}
	return "unknown"
}

var entryLabels = map[string]string{
	"directory":    "[DIR]",
	"file":         "[FILE]",
	"symlink":      "[LINK]",
	"fifo":         "[FIFO]",
	"socket":       "[SOCKET]",
	"block_device": "[BLOCK]",
	"char_device":  "[CHAR]",
	"unknown":      "[UNKNOWN]",
}

// hiddenFunc returns a predicate for the entries of dir that are hidden:
// dot files, and entries ignored by dir/.gitignore.
func hiddenFunc(dir string) (func(name string, isDir bool) bool, error) {
	var ign *gitignore.GitIgnore
	p := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(p); err == nil {
		if ign, err = gitignore.CompileIgnoreFile(p); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", p, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return func(name string, isDir bool) bool {
		if strings.HasPrefix(name, ".") {
			return true
		}
		if ign == nil {
			return false
		}
		return ign.MatchesPath(name) || (isDir && ign.MatchesPath(name+"/"))
	}, nil
}

func (ts *ToolSet) ListDirectory(ctx context.Context,
	_ *mcp.CallToolRequest, args msi.ListDirectoryParams,
) (*mcp.CallToolResult, *msi.ListDirectoryResult, error) {
	dir, err := ts.validate(args.Path)
	if err != nil {
		return nil, nil, err
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, nil, describe(err)
	}
	if !st.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %q", args.Path)
	}
	pattern := ptr.ValueOr(args.Pattern, "*")
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	includeHidden := ptr.ValueOr(args.IncludeHidden, false)
	withMetadata := ptr.ValueOr(args.Metadata, true)
	hidden, err := hiddenFunc(dir)
	if err != nil {
		return nil, nil, err
	}

	dirEnts, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	res := &msi.ListDirectoryResult{
		Path:    dir,
		Entries: []msi.ListDirectoryResultEntry{},
	}
	for _, d := range dirEnts {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		name := d.Name()
		if !includeHidden && hidden(name, d.IsDir()) {
			continue
		}
		if ok, _ := doublestar.Match(pattern, name); !ok {
			continue
		}
		ent := msi.ListDirectoryResultEntry{
			Name: name,
			Type: entryType(d.Type()),
		}
		if withMetadata {
			if info, err := d.Info(); err == nil {
				if info.Mode().IsRegular() {
					ent.Size = ptr.Of(info.Size())
				}
				ent.ModTime = ptr.Of(info.ModTime().UTC().Format(time.RFC3339))
			}
		}
		res.Entries = append(res.Entries, ent)
	}
	slices.SortStableFunc(res.Entries, func(a, b msi.ListDirectoryResultEntry) int {
		return cmp.Or(
			cmp.Compare(slices.Index(entryTypes, a.Type), slices.Index(entryTypes, b.Type)),
			cmp.Compare(a.Name, b.Name),
		)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Contents of %s:\n", ts.guard.RelativeDisplay(dir))
	for _, ent := range res.Entries {
		fmt.Fprintf(&b, "%s %s", entryLabels[ent.Type], ent.Name)
		if ent.Size != nil {
			fmt.Fprintf(&b, " (%d bytes)", *ent.Size)
		}
		b.WriteString("\n")
	}
	if len(res.Entries) == 0 {
		b.WriteString("(empty)\n")
	}
	return textResult("%s", b.String()), res, nil
}
