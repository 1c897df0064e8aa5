// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package msi declares the MCP (Model Context Protocol) tools of fsbox,
// with their typed parameters and results.
//
// Every path accepted by these tools is confined to the allowed directories
// of the server. Relative paths are resolved against the allowed directories;
// see [github.com/lima-vm/fsbox/pkg/pathguard].
//
// Notable differences from the file system tools of common AI agents:
//   - the output is JSON (structured content), with a short text rendering
//   - symbolic links that point outside of the allowed directories are rejected
//   - [SearchFileContent] is implemented natively, without `grep` or `git grep`
package msi
