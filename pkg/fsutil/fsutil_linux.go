// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var fsTypeNames = map[int64]string{
	unix.NFS_SUPER_MAGIC:       "nfs",
	unix.EXT4_SUPER_MAGIC:      "ext4",
	unix.XFS_SUPER_MAGIC:       "xfs",
	unix.BTRFS_SUPER_MAGIC:     "btrfs",
	unix.TMPFS_MAGIC:           "tmpfs",
	unix.OVERLAYFS_SUPER_MAGIC: "overlayfs",
	unix.FUSE_SUPER_MAGIC:      "fuse",
	unix.V9FS_MAGIC:            "9p",
	unix.SMB2_SUPER_MAGIC:      "smb2",
	unix.CIFS_SUPER_MAGIC:      "cifs",
}

func statfsType(path string) (int64, error) {
	// walk up to the nearest existing ancestor, so that create targets work too
	for len(path) > 1 {
		_, err := os.Stat(path)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		path = filepath.Dir(path)
	}

	var sf unix.Statfs_t
	if err := unix.Statfs(path, &sf); err != nil {
		return 0, err
	}
	return int64(sf.Type), nil //nolint:unconvert // int32 on some arches
}

// IsNFS checks if the path is on NFS. If the path does not exist yet, it will walk
// up parent directories until one exists, or it hits '/' or '.'.
// Any other stat errors will cause IsNFS to fail.
func IsNFS(path string) (bool, error) {
	t, err := statfsType(path)
	if err != nil {
		return false, err
	}
	return t == unix.NFS_SUPER_MAGIC, nil
}

// FSType returns a short name of the filesystem holding path, e.g. "ext4".
// Unknown filesystems are reported as "unknown".
func FSType(path string) (string, error) {
	t, err := statfsType(path)
	if err != nil {
		return "", err
	}
	if name, ok := fsTypeNames[t]; ok {
		return name, nil
	}
	return "unknown", nil
}
