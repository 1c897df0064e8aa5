// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsboxyaml loads the fsbox configuration file.
package fsboxyaml

// Config is the YAML configuration of the server.
// Sizes are strings such as "10MiB"; durations are strings such as "30s".
type Config struct {
	Roots          []string     `yaml:"roots,omitempty" json:"roots,omitempty"`
	MaxFileSize    *string      `yaml:"maxFileSize,omitempty" json:"maxFileSize,omitempty"`
	RequestTimeout *string      `yaml:"requestTimeout,omitempty" json:"requestTimeout,omitempty"`
	Search         SearchConfig `yaml:"search,omitempty" json:"search,omitempty"`
}

type SearchConfig struct {
	MaxResults   *int    `yaml:"maxResults,omitempty" json:"maxResults,omitempty"`
	ContextLines *int    `yaml:"contextLines,omitempty" json:"contextLines,omitempty"`
	Timeout      *string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxFileSize  *string `yaml:"maxFileSize,omitempty" json:"maxFileSize,omitempty"`
}
