// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package fsboxyaml

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/lima-vm/fsbox/pkg/ptr"
	"github.com/lima-vm/fsbox/pkg/search"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(nil, "empty.yaml")
	assert.NilError(t, err)
	assert.Equal(t, *c.MaxFileSize, "10MiB")
	assert.Equal(t, *c.RequestTimeout, "30s")

	s, err := Validate(c)
	assert.NilError(t, err)
	assert.Equal(t, len(s.Roots), 0)
	assert.Equal(t, s.MaxFileSize, int64(DefaultMaxFileSize))
	assert.Equal(t, s.RequestTimeout, DefaultRequestTimeout)
	assert.DeepEqual(t, s.Search, search.DefaultQuery(""))
}

func TestLoad(t *testing.T) {
	b := []byte(`
roots: ["/srv", "~/src"]
maxFileSize: 1GiB
requestTimeout: 1m
search:
  maxResults: 10
  contextLines: 2
  timeout: 5s
  maxFileSize: 512KiB
`)
	c, err := Load(b, "fsbox.yaml")
	assert.NilError(t, err)
	s, err := Validate(c)
	assert.NilError(t, err)
	assert.DeepEqual(t, s.Roots, []string{"/srv", "~/src"})
	assert.Equal(t, s.MaxFileSize, int64(1<<30))
	assert.Equal(t, s.RequestTimeout, time.Minute)
	assert.Equal(t, s.Search.MaxResults, 10)
	assert.Equal(t, s.Search.ContextLines, 2)
	assert.Equal(t, s.Search.Timeout, 5*time.Second)
	assert.Equal(t, s.Search.MaxFileSize, int64(512*1024))
	assert.Assert(t, s.Search.Recursive)
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load([]byte("rootz: [/srv]\n"), "fsbox.yaml")
	assert.ErrorContains(t, err, `failed to parse "fsbox.yaml"`)
}

func TestValidateErrors(t *testing.T) {
	c := &Config{
		Roots:          []string{""},
		MaxFileSize:    ptr.Of("lots"),
		RequestTimeout: ptr.Of("-1s"),
		Search: SearchConfig{
			MaxResults:   ptr.Of(0),
			ContextLines: ptr.Of(-1),
			Timeout:      ptr.Of("soon"),
			MaxFileSize:  ptr.Of("0"),
		},
	}
	_, err := Validate(c)
	for _, field := range []string{
		"roots[0]", "maxFileSize", "requestTimeout", "search.maxResults",
		"search.contextLines", "search.timeout", "search.maxFileSize",
	} {
		assert.ErrorContains(t, err, "field `"+field+"`")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRoots:          "/a" + string(filepath.ListSeparator) + " /b " + string(filepath.ListSeparator),
		EnvMaxFileSize:    "2MiB",
		EnvRequestTimeout: "",
	}
	c, err := Load([]byte("roots: [/c]\nrequestTimeout: 10s\n"), "fsbox.yaml")
	assert.NilError(t, err)
	ApplyEnv(c, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.DeepEqual(t, c.Roots, []string{"/a", "/b"})
	assert.Equal(t, *c.MaxFileSize, "2MiB")
	assert.Equal(t, *c.RequestTimeout, "10s")
}

func TestDefaultConfigBytes(t *testing.T) {
	for _, roots := range [][]string{nil, {"/srv", `C:\Users\me`}} {
		b, err := DefaultConfigBytes(roots)
		assert.NilError(t, err)
		c, err := Load(b, "default.yaml")
		assert.NilError(t, err, string(b))
		s, err := Validate(c)
		assert.NilError(t, err)
		if len(roots) == 0 {
			assert.Equal(t, len(s.Roots), 0)
		} else {
			assert.DeepEqual(t, s.Roots, roots)
		}
		assert.Equal(t, s.MaxFileSize, int64(DefaultMaxFileSize))
		assert.Equal(t, s.Search.Timeout, search.DefaultTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("FSBOX_CONFIG_DIR", t.TempDir())
	c, err := LoadFile("")
	assert.NilError(t, err)
	assert.Equal(t, *c.MaxFileSize, "10MiB")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := filepath.Join(t.TempDir(), "fsbox.yaml")
	assert.NilError(t, os.WriteFile(p, []byte("maxFileSize: 1MiB\n"), 0o644))
	c, err = LoadFile(p)
	assert.NilError(t, err)
	assert.Equal(t, *c.MaxFileSize, "1MiB")
}
