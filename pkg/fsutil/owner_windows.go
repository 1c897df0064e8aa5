// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import "errors"

// Ownership holds the POSIX details of a file that are not part of [io/fs.FileInfo].
type Ownership struct {
	UID   uint32
	GID   uint32
	Inode uint64
	Nlink uint64
	Dev   uint64
}

// Lstat is not supported on Windows.
func Lstat(string) (*Ownership, error) {
	return nil, errors.New("ownership details are not available on windows")
}
