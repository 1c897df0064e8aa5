// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsboxyaml

import (
	"path/filepath"
	"strings"
)

const (
	EnvRoots          = "FSBOX_ROOTS"
	EnvMaxFileSize    = "FSBOX_MAX_FILE_SIZE"
	EnvRequestTimeout = "FSBOX_REQUEST_TIMEOUT"
)

// ApplyEnv overrides the fields of c with the FSBOX_* environment variables
// found through lookup, typically os.LookupEnv.
// FSBOX_ROOTS is a list separated by the OS path list separator.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvRoots); ok && v != "" {
		var roots []string
		for _, r := range filepath.SplitList(v) {
			if r = strings.TrimSpace(r); r != "" {
				roots = append(roots, r)
			}
		}
		c.Roots = roots
	}
	if v, ok := lookup(EnvMaxFileSize); ok && v != "" {
		c.MaxFileSize = &v
	}
	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		c.RequestTimeout = &v
	}
}
