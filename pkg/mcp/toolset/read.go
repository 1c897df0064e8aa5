// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package toolset

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/ioutilx"
	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/textutil"
)

const (
	encodingUTF8   = "utf8"
	encodingBase64 = "base64"

	defaultReadSize = 1024 * 1024
)

func parseEncoding(p *string) (string, error) {
	switch e := ptr.ValueOr(p, encodingUTF8); e {
	case "", encodingUTF8, "utf-8":
		return encodingUTF8, nil
	case encodingBase64, "binary":
		return encodingBase64, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", e)
	}
}

func (ts *ToolSet) ReadFile(_ context.Context,
	_ *mcp.CallToolRequest, args msi.ReadFileParams,
) (*mcp.CallToolResult, *msi.ReadFileResult, error) {
	p, err := ts.validate(args.Path)
	if err != nil {
		return nil, nil, err
	}
	encoding, err := parseEncoding(args.Encoding)
	if err != nil {
		return nil, nil, err
	}
	maxSize := min(ptr.ValueOr(args.MaxSize, defaultReadSize), ts.settings.MaxFileSize)
	if maxSize <= 0 {
		return nil, nil, fmt.Errorf("max_size must be positive, got %d", maxSize)
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, nil, describe(err)
	}
	if !st.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("not a regular file: %q", args.Path)
	}
	isText, err := textutil.IsText(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to determine the file type: %w", err)
	}
	if !isText && encoding == encodingUTF8 {
		ts.logger.WithField("path", p).Debug("Binary file, returning base64")
		encoding = encodingBase64
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	res := &msi.ReadFileResult{
		Encoding: encoding,
		Size:     st.Size(),
	}
	switch {
	case encoding == encodingBase64:
		b, truncated, err := readLimited(f, maxSize)
		if err != nil {
			return nil, nil, err
		}
		res.Content = base64.StdEncoding.EncodeToString(b)
		res.Truncated = truncated
	case args.StartLine != nil || args.EndLine != nil:
		start := ptr.ValueOr(args.StartLine, 0)
		end := ptr.ValueOr(args.EndLine, -1)
		if start < 0 || (end >= 0 && end < start) {
			return nil, nil, fmt.Errorf("invalid line range %d-%d", start, end)
		}
		content, total, truncated, err := readLines(f, start, end, maxSize)
		if err != nil {
			return nil, nil, err
		}
		res.Content = content
		res.TotalLines = ptr.Of(total)
		res.Truncated = truncated
	default:
		b, truncated, err := readLimited(f, maxSize)
		if err != nil {
			return nil, nil, err
		}
		if res.Content, err = ioutilx.DecodeText(b); err != nil {
			return nil, nil, err
		}
		res.Truncated = truncated
	}

	text := res.Content
	if res.Truncated {
		text += fmt.Sprintf("\n[truncated at %d of %d bytes]", maxSize, res.Size)
	}
	return textResult("%s", text), res, nil
}

func readLimited(r io.Reader, n int64) ([]byte, bool, error) {
	b, err := ioutilx.ReadAtMost(r, n)
	if errors.Is(err, ioutilx.ErrLimitExceeded) {
		return b, true, nil
	}
	return b, false, err
}

// readLines returns the lines start to end (0-based, inclusive; end < 0 means
// the last line) and the total number of lines.
func readLines(r io.Reader, start, end int, maxSize int64) (string, int, bool, error) {
	var (
		b         strings.Builder
		n         int
		truncated bool
	)
	br := bufio.NewReader(ioutilx.NewTextReader(r))
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", 0, false, err
		}
		if line == "" && err != nil {
			break
		}
		if n >= start && (end < 0 || n <= end) && !truncated {
			if int64(b.Len()+len(line)) > maxSize {
				truncated = true
			} else {
				b.WriteString(line)
			}
		}
		n++
		if err != nil {
			break
		}
	}
	return b.String(), n, truncated, nil
}
