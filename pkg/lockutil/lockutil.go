// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockutil serializes read-modify-write cycles on files, also between
// processes serving the same directories.
package lockutil
