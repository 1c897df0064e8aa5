// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"testing"

	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"
)

func TestFSTypeNames(t *testing.T) {
	testCases := map[int64]string{
		unix.NFS_SUPER_MAGIC:  "nfs",
		unix.V9FS_MAGIC:       "9p",
		unix.SMB2_SUPER_MAGIC: "smb2",
		unix.CIFS_SUPER_MAGIC: "cifs",
	}
	for magic, expected := range testCases {
		assert.Equal(t, fsTypeNames[magic], expected)
	}
	assert.Equal(t, len(fsTypeNames), 10)
}
