// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

//nolint:revive // var-naming: avoid package names that conflict with Go standard library package names
package version

import "strings"

// Version is filled on compilation time.
//
//	go build -ldflags "-X github.com/lima-vm/fsbox/pkg/version.Version=v0.1.0"
var Version = "<unknown>"

// Short returns Version without the leading "v", as shown by `fsbox --version`.
func Short() string {
	return strings.TrimPrefix(Version, "v")
}
