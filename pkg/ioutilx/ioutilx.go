// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package ioutilx

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrLimitExceeded is returned by [ReadAtMost] when the input is longer than allowed.
var ErrLimitExceeded = errors.New("exceeded the limit")

// ReadAtMaximum reads n bytes at maximum. Reaching the limit is not an error.
func ReadAtMaximum(r io.Reader, n int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, n))
}

// ReadAtMost reads the whole of r, failing with [ErrLimitExceeded] when r holds
// more than n bytes.
func ReadAtMost(r io.Reader, n int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, n+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > n {
		return b[:n], fmt.Errorf("%w (%d bytes)", ErrLimitExceeded, n)
	}
	return b, nil
}

// sniffSize is how much of the input is inspected to pick a decoder.
const sniffSize = 4096

// NewTextReader returns a reader that yields UTF-8 text decoded from r.
//
// A UTF-8 or UTF-16 byte order mark selects the matching decoder and is
// stripped. Without a BOM the input is read as UTF-8 if its head is valid
// UTF-8, and as Windows-1252 otherwise. Invalid sequences are replaced with
// U+FFFD rather than failing.
func NewTextReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffSize)
	head, _ := br.Peek(sniffSize)
	return transform.NewReader(br, unicode.BOMOverride(fallbackDecoder(head)))
}

// DecodeText decodes b the same way as [NewTextReader].
func DecodeText(b []byte) (string, error) {
	head := b
	if len(head) > sniffSize {
		head = head[:sniffSize]
	}
	s, _, err := transform.Bytes(unicode.BOMOverride(fallbackDecoder(head)), b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func fallbackDecoder(head []byte) transform.Transformer {
	if ValidUTF8Sample(head) {
		return unicode.UTF8.NewDecoder()
	}
	return charmap.Windows1252.NewDecoder()
}

// ValidUTF8Sample is like [utf8.Valid] but tolerates a multi-byte sequence
// cut off at the end of b, as happens with fixed-size samples.
func ValidUTF8Sample(b []byte) bool {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if tail := b[len(b)-i:]; utf8.RuneStart(tail[0]) {
			if !utf8.FullRune(tail) {
				b = b[:len(b)-i]
			}
			break
		}
	}
	return utf8.Valid(b)
}
