// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package fsutil

import (
	"golang.org/x/sys/unix"
)

// Ownership holds the POSIX details of a file that are not part of [io/fs.FileInfo].
type Ownership struct {
	UID   uint32
	GID   uint32
	Inode uint64
	Nlink uint64
	Dev   uint64
}

// Lstat returns the ownership details of path without following a trailing symlink.
func Lstat(path string) (*Ownership, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return nil, err
	}
	return &Ownership{
		UID:   st.Uid,
		GID:   st.Gid,
		Inode: uint64(st.Ino),
		Nlink: uint64(st.Nlink), //nolint:unconvert // uint16 on darwin
		Dev:   uint64(st.Dev),   //nolint:gosec,unconvert // int32 on darwin
	}, nil
}
