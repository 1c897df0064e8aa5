// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package fsutil

// IsNFS always returns false on non-Linux hosts.
func IsNFS(string) (bool, error) {
	return false, nil
}

// FSType is only implemented on Linux.
func FSType(string) (string, error) {
	return "unknown", nil
}
