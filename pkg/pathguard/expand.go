// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package pathguard

import (
	"fmt"
	"os"
	"strings"
)

// ExpandHome expands a leading "~" or "~/" to the home directory of the current user.
// Paths like "~foo/bar" are rejected. Other paths are returned as they are.
func ExpandHome(orig string) (string, error) {
	if !strings.HasPrefix(orig, "~") {
		return orig, nil
	}
	if orig != "~" && !strings.HasPrefix(orig, "~/") {
		return "", fmt.Errorf("unexpandable path %q", orig)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return home + strings.TrimPrefix(orig, "~"), nil
}
