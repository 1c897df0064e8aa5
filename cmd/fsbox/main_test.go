// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/lima-vm/fsbox/pkg/fsboxyaml"
	"github.com/lima-vm/fsbox/pkg/search"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var stdout bytes.Buffer
	app.SetOut(&stdout)
	app.SetArgs(args)
	err := app.ExecuteContext(context.Background())
	return stdout.String(), err
}

func canonicalTempDir(t *testing.T) string {
	t.Helper()
	d, err := filepath.EvalSymlinks(t.TempDir())
	assert.NilError(t, err)
	return d
}

func TestSearchCommand(t *testing.T) {
	dir := canonicalTempDir(t)
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\nneedle\n"), 0o644))
	assert.NilError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "sub", "b.go"), []byte("Needle\n"), 0o644))

	out, err := run(t, "search", "needle", dir)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "Results: 2 matches in 2/2 files"), out)
	assert.Assert(t, strings.Contains(out, "File: a.txt\n  Line 2: needle\n"), out)
	assert.Assert(t, strings.Contains(out, "File: sub/b.go\n  Line 1: Needle\n"), out)

	out, err = run(t, "search", "--case-sensitive", "--no-recursive", "--json", "needle", dir)
	assert.NilError(t, err)
	var r search.Result
	assert.NilError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, r.FilesSearched, 1)
	assert.Equal(t, r.TotalMatches, 1)
	assert.Equal(t, r.Files[0].Path, "a.txt")

	out, err = run(t, "search", "--include", "*.go", "-C", "1", "needle", dir)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "Results: 1 matches in 1/1 files"), out)

	_, err = run(t, "search", "--regex", "(", dir)
	assert.ErrorIs(t, err, search.ErrInvalidPattern)
	_, err = run(t, "search", "--max-file-size", "lots", "x", dir)
	assert.ErrorContains(t, err, "invalid --max-file-size")
}

func TestInfoCommand(t *testing.T) {
	out, err := run(t, "info")
	assert.NilError(t, err)
	var info struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	assert.NilError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, len(info.Tools), 12)
}

func TestConfigDefaultCommand(t *testing.T) {
	out, err := run(t, "config", "default", "/srv/data")
	assert.NilError(t, err)
	c, err := fsboxyaml.Load([]byte(out), "default")
	assert.NilError(t, err)
	s, err := fsboxyaml.Validate(c)
	assert.NilError(t, err)
	assert.DeepEqual(t, s.Roots, []string{"/srv/data"})
	assert.Equal(t, s.MaxFileSize, int64(fsboxyaml.DefaultMaxFileSize))
}

func TestLoadSettings(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("FSBOX_CONFIG_DIR", configDir)
	t.Setenv(fsboxyaml.EnvRoots, "")
	t.Setenv(fsboxyaml.EnvRequestTimeout, "")
	t.Setenv(fsboxyaml.EnvMaxFileSize, "2MiB")
	assert.NilError(t, os.WriteFile(filepath.Join(configDir, "fsbox.yaml"), []byte(`
roots: ["/from/file"]
maxFileSize: 1MiB
requestTimeout: 1m
search:
  maxResults: 7
`), 0o644))

	cmd := newServeCommand()
	assert.NilError(t, cmd.ParseFlags([]string{"--request-timeout", "5s"}))
	s, err := loadSettings(cmd, nil)
	assert.NilError(t, err)
	assert.DeepEqual(t, s.Roots, []string{"/from/file"})
	assert.Equal(t, s.MaxFileSize, int64(2*1024*1024))
	assert.Equal(t, s.RequestTimeout, 5*time.Second)
	assert.Equal(t, s.Search.MaxResults, 7)

	cmd = newServeCommand()
	assert.NilError(t, cmd.ParseFlags([]string{"--root", "/a", "--max-file-size", "3MiB"}))
	s, err = loadSettings(cmd, []string{"/b"})
	assert.NilError(t, err)
	assert.DeepEqual(t, s.Roots, []string{"/a", "/b"})
	assert.Equal(t, s.MaxFileSize, int64(3*1024*1024))
	assert.Equal(t, s.RequestTimeout, time.Minute)

	cmd = newServeCommand()
	assert.NilError(t, cmd.ParseFlags([]string{"--request-timeout", "soon"}))
	_, err = loadSettings(cmd, nil)
	assert.ErrorContains(t, err, "requestTimeout")
}

func TestLoadSettingsDefaultsToWorkingDirectory(t *testing.T) {
	t.Setenv("FSBOX_CONFIG_DIR", t.TempDir())
	t.Setenv(fsboxyaml.EnvRoots, "")
	cwd, err := os.Getwd()
	assert.NilError(t, err)

	s, err := loadSettings(newServeCommand(), nil)
	assert.NilError(t, err)
	assert.DeepEqual(t, s.Roots, []string{cwd})
}
