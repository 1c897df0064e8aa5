// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package textutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lima-vm/fsbox/pkg/ioutilx"
)

// SampleSize is the number of leading bytes inspected by [IsText].
const SampleSize = 8 * 1024

var binaryExtensions = map[string]struct{}{}

func init() {
	for _, ext := range []string{
		"exe", "dll", "so", "dylib", "bin", "obj", "o", "a", "lib",
		"png", "jpg", "jpeg", "gif", "bmp", "tiff", "ico",
		"mp3", "mp4", "avi", "mov", "wmv", "flv", "wav",
		"zip", "tar", "gz", "bz2", "xz", "7z", "rar",
		"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx",
	} {
		binaryExtensions[ext] = struct{}{}
	}
}

// IsBinaryExtension reports whether the extension of path is one that is never
// treated as text. The comparison is case-insensitive.
func IsBinaryExtension(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	_, ok := binaryExtensions[strings.ToLower(ext)]
	return ok
}

// IsText reports whether the file at path looks like text.
//
// Files with a known binary extension are rejected without being opened.
// Otherwise the first [SampleSize] bytes are inspected with [IsTextBytes].
func IsText(path string) (bool, error) {
	if IsBinaryExtension(path) {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sample, err := ioutilx.ReadAtMaximum(f, SampleSize)
	if err != nil {
		return false, err
	}
	return IsTextBytes(sample), nil
}

// IsTextBytes classifies a content sample.
//
// An empty sample is text. More than 1% NUL bytes means binary. When more than
// 30% of the bytes are non-ASCII the sample is text only if it is valid UTF-8;
// a multi-byte sequence cut at the end of the sample is tolerated.
func IsTextBytes(sample []byte) bool {
	n := len(sample)
	if n == 0 {
		return true
	}
	var nulls, nonASCII int
	for _, c := range sample {
		switch {
		case c == 0:
			nulls++
		case c > 127:
			nonASCII++
		}
	}
	if nulls > n/100 {
		return false
	}
	if nonASCII > n*3/10 {
		return ioutilx.ValidUTF8Sample(sample)
	}
	return true
}
