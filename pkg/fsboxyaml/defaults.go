// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsboxyaml

import (
	_ "embed"
	"time"

	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/search"
	"github.com/lima-vm/fsbox/pkg/textutil"
)

//go:embed fsbox.TEMPLATE.yaml
var defaultConfigTemplate string

const (
	DefaultMaxFileSize    = 10 * 1024 * 1024
	DefaultRequestTimeout = 30 * time.Second
)

// DefaultConfigBytes renders a commented configuration file holding the defaults.
func DefaultConfigBytes(roots []string) ([]byte, error) {
	args := Settings{
		Roots:          roots,
		MaxFileSize:    DefaultMaxFileSize,
		RequestTimeout: DefaultRequestTimeout,
		Search:         search.DefaultQuery(""),
	}
	return textutil.ExecuteTemplate(defaultConfigTemplate, args)
}

// FillDefault sets the unspecified fields of c.
// Roots are left alone; the caller decides what an empty list means.
func FillDefault(c *Config) {
	if c.MaxFileSize == nil {
		c.MaxFileSize = ptr.Of("10MiB")
	}
	if c.RequestTimeout == nil {
		c.RequestTimeout = ptr.Of(DefaultRequestTimeout.String())
	}
	if c.Search.MaxResults == nil {
		c.Search.MaxResults = ptr.Of(search.DefaultMaxResults)
	}
	if c.Search.ContextLines == nil {
		c.Search.ContextLines = ptr.Of(search.DefaultContextLines)
	}
	if c.Search.Timeout == nil {
		c.Search.Timeout = ptr.Of(search.DefaultTimeout.String())
	}
	if c.Search.MaxFileSize == nil {
		c.Search.MaxFileSize = ptr.Of("10MiB")
	}
}
