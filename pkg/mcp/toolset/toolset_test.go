// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package toolset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"

	"github.com/lima-vm/fsbox/pkg/fsboxyaml"
	"github.com/lima-vm/fsbox/pkg/mcp/msi"
	"github.com/lima-vm/fsbox/pkg/pathguard"
	"github.com/lima-vm/fsbox/pkg/search"
)

type testEnv struct {
	t       *testing.T
	root    string
	outside string
	session *mcp.ClientSession
}

func canonicalTempDir(t *testing.T) string {
	t.Helper()
	d, err := filepath.EvalSymlinks(t.TempDir())
	assert.NilError(t, err)
	return d
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	env := &testEnv{
		t:       t,
		root:    canonicalTempDir(t),
		outside: canonicalTempDir(t),
	}
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(os.Stderr)

	guard, err := pathguard.New([]string{env.root}, pathguard.WithLogger(logger))
	assert.NilError(t, err)
	settings := &fsboxyaml.Settings{
		Roots:          guard.Roots(),
		MaxFileSize:    1024 * 1024,
		RequestTimeout: 10 * time.Second,
		Search:         search.DefaultQuery(""),
	}
	ts, err := New(guard, settings, WithLogger(logger))
	assert.NilError(t, err)

	server := mcp.NewServer(&mcp.Implementation{Name: "fsbox-test", Version: "v0.0.0"}, nil)
	assert.NilError(t, ts.RegisterServer(server))
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	assert.NilError(t, err)
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.0"}, nil)
	env.session, err = client.Connect(ctx, clientTransport, nil)
	assert.NilError(t, err)
	t.Cleanup(func() {
		assert.NilError(t, env.session.Close())
		_ = serverSession.Wait()
	})
	return env
}

func (env *testEnv) path(elem ...string) string {
	return filepath.Join(append([]string{env.root}, elem...)...)
}

func (env *testEnv) write(name, content string) {
	env.t.Helper()
	p := env.path(name)
	assert.NilError(env.t, os.MkdirAll(filepath.Dir(p), 0o755))
	assert.NilError(env.t, os.WriteFile(p, []byte(content), 0o644))
}

func (env *testEnv) read(name string) string {
	env.t.Helper()
	b, err := os.ReadFile(env.path(name))
	assert.NilError(env.t, err)
	return string(b)
}

// call invokes a tool and decodes its structured content into out.
// It returns the text of the result and whether the result is an error.
func (env *testEnv) call(name string, args map[string]any, out any) (string, bool) {
	env.t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := env.session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	assert.NilError(env.t, err)
	var text []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			text = append(text, tc.Text)
		}
	}
	if !res.IsError && out != nil {
		b, err := json.Marshal(res.StructuredContent)
		assert.NilError(env.t, err)
		assert.NilError(env.t, json.Unmarshal(b, out))
	}
	return strings.Join(text, "\n"), res.IsError
}

// mustCall is like call, but fails the test when the tool reports an error.
func (env *testEnv) mustCall(name string, args map[string]any, out any) string {
	env.t.Helper()
	text, isErr := env.call(name, args, out)
	assert.Assert(env.t, !isErr, text)
	return text
}

func (env *testEnv) mustFail(name string, args map[string]any, substr string) {
	env.t.Helper()
	text, isErr := env.call(name, args, nil)
	assert.Assert(env.t, isErr, "expected %s to fail, got %q", name, text)
	assert.Assert(env.t, strings.Contains(text, substr), "expected %q in %q", substr, text)
}

func TestListTools(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.session.ListTools(context.Background(), &mcp.ListToolsParams{})
	assert.NilError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	for _, tool := range []*mcp.Tool{
		msi.ListAllowedDirectories, msi.ListDirectory, msi.ReadFile, msi.WriteFile,
		msi.EditFile, msi.CreateDirectory, msi.CopyPath, msi.MovePath,
		msi.DeletePath, msi.GetFileInfo, msi.Glob, msi.SearchFileContent,
	} {
		assert.Assert(t, strings.Contains(strings.Join(names, ","), tool.Name), tool.Name)
	}
	assert.Equal(t, len(names), 12)
}

func TestListAllowedDirectories(t *testing.T) {
	env := newTestEnv(t)
	var res msi.ListAllowedDirectoriesResult
	text := env.mustCall("list_allowed_directories", nil, &res)
	assert.DeepEqual(t, res.Directories, []string{env.root})
	assert.Assert(t, strings.Contains(text, env.root))
}

func TestListDirectory(t *testing.T) {
	env := newTestEnv(t)
	env.write("a.txt", "hello")
	env.write("b.log", "log")
	env.write(".hidden", "x")
	env.write(".gitignore", "*.log\n")
	env.write("sub/c.txt", "c")

	var res msi.ListDirectoryResult
	text := env.mustCall("list_directory", map[string]any{"path": env.root}, &res)
	var names []string
	for _, e := range res.Entries {
		names = append(names, e.Type+":"+e.Name)
	}
	assert.DeepEqual(t, names, []string{"directory:sub", "file:a.txt"})
	assert.Equal(t, *res.Entries[1].Size, int64(5))
	assert.Assert(t, res.Entries[1].ModTime != nil)
	assert.Assert(t, strings.Contains(text, "[DIR] sub"))
	assert.Assert(t, strings.Contains(text, "[FILE] a.txt (5 bytes)"))

	res = msi.ListDirectoryResult{}
	env.mustCall("list_directory", map[string]any{"path": ".", "include_hidden": true, "metadata": false}, &res)
	names = nil
	for _, e := range res.Entries {
		names = append(names, e.Name)
		assert.Assert(t, e.Size == nil && e.ModTime == nil)
	}
	assert.DeepEqual(t, names, []string{"sub", ".gitignore", ".hidden", "a.txt", "b.log"})

	res = msi.ListDirectoryResult{}
	env.mustCall("list_directory", map[string]any{"path": ".", "pattern": "*.txt"}, &res)
	assert.Equal(t, len(res.Entries), 1)
	assert.Equal(t, res.Entries[0].Name, "a.txt")

	env.mustFail("list_directory", map[string]any{"path": "a.txt"}, "not a directory")
	env.mustFail("list_directory", map[string]any{"path": env.outside}, "access denied")
}

func TestReadFile(t *testing.T) {
	env := newTestEnv(t)
	env.write("a.txt", "zero\none\ntwo\nthree\n")
	assert.NilError(t, os.WriteFile(env.path("b.bin"), []byte{0, 1, 2, 3}, 0o644))

	var res msi.ReadFileResult
	env.mustCall("read_file", map[string]any{"path": "a.txt"}, &res)
	assert.Equal(t, res.Content, "zero\none\ntwo\nthree\n")
	assert.Equal(t, res.Encoding, "utf8")
	assert.Equal(t, res.Size, int64(19))
	assert.Assert(t, !res.Truncated)

	res = msi.ReadFileResult{}
	env.mustCall("read_file", map[string]any{"path": "a.txt", "start_line": 1, "end_line": 2}, &res)
	assert.Equal(t, res.Content, "one\ntwo\n")
	assert.Equal(t, *res.TotalLines, 4)

	res = msi.ReadFileResult{}
	env.mustCall("read_file", map[string]any{"path": "a.txt", "start_line": 3}, &res)
	assert.Equal(t, res.Content, "three\n")

	res = msi.ReadFileResult{}
	env.mustCall("read_file", map[string]any{"path": "a.txt", "max_size": 4}, &res)
	assert.Equal(t, res.Content, "zero")
	assert.Assert(t, res.Truncated)

	res = msi.ReadFileResult{}
	env.mustCall("read_file", map[string]any{"path": "b.bin"}, &res)
	assert.Equal(t, res.Encoding, "base64")
	assert.Equal(t, res.Content, "AAECAw==")

	env.mustFail("read_file", map[string]any{"path": "a.txt", "start_line": 2, "end_line": 1}, "invalid line range")
	env.mustFail("read_file", map[string]any{"path": "a.txt", "encoding": "ebcdic"}, "unsupported encoding")
	env.mustFail("read_file", map[string]any{"path": "missing.txt"}, "not found")
	env.mustFail("read_file", map[string]any{"path": "."}, "not a regular file")
}

func TestReadFileSymlinkEscape(t *testing.T) {
	env := newTestEnv(t)
	secret := filepath.Join(env.outside, "secret.txt")
	assert.NilError(t, os.WriteFile(secret, []byte("secret"), 0o644))
	assert.NilError(t, os.Symlink(secret, env.path("link.txt")))

	env.mustFail("read_file", map[string]any{"path": "link.txt"}, "access denied")
	env.mustFail("read_file", map[string]any{"path": "../" + filepath.Base(env.outside) + "/secret.txt"}, "access denied")
	env.mustFail("write_file", map[string]any{"path": secret, "content": "x"}, "access denied")
	b, err := os.ReadFile(secret)
	assert.NilError(t, err)
	assert.Equal(t, string(b), "secret")
}

func TestWriteFile(t *testing.T) {
	env := newTestEnv(t)

	var res msi.WriteFileResult
	env.mustCall("write_file", map[string]any{"path": "a.txt", "content": "hello\n"}, &res)
	assert.Equal(t, res.BytesWritten, 6)
	assert.Assert(t, res.Created)
	assert.Equal(t, res.Path, env.path("a.txt"))

	res = msi.WriteFileResult{}
	env.mustCall("write_file", map[string]any{"path": "a.txt", "content": "world\n", "mode": "append"}, &res)
	assert.Assert(t, !res.Created)
	assert.Equal(t, env.read("a.txt"), "hello\nworld\n")

	env.mustCall("write_file", map[string]any{"path": "a.txt", "content": "replaced"}, nil)
	assert.Equal(t, env.read("a.txt"), "replaced")

	env.mustFail("write_file", map[string]any{"path": "a.txt", "content": "x", "mode": "create_new"}, "already exists")
	env.mustFail("write_file", map[string]any{"path": "a.txt", "content": "x", "mode": "truncate"}, "unsupported mode")

	env.mustCall("write_file", map[string]any{"path": "b.bin", "content": "AAECAw==", "encoding": "base64"}, nil)
	assert.Equal(t, env.read("b.bin"), "\x00\x01\x02\x03")
	env.mustFail("write_file", map[string]any{"path": "c.bin", "content": "!!!", "encoding": "base64"}, "base64")

	env.mustFail("write_file", map[string]any{"path": "x/y/z.txt", "content": "z"}, "make_dirs")
	env.mustCall("write_file", map[string]any{"path": "x/y/z.txt", "content": "z", "make_dirs": true}, nil)
	assert.Equal(t, env.read("x/y/z.txt"), "z")

	env.mustFail("write_file", map[string]any{"path": "../escape.txt", "content": "x"}, "access denied")
	env.mustFail("write_file", map[string]any{"path": ".", "content": "x"}, "is a directory")
	env.mustFail("write_file", map[string]any{"path": "big.txt", "content": strings.Repeat("x", 1024*1024+1)}, "exceeds the limit")
}

func TestWriteFileMakeDirsEscape(t *testing.T) {
	env := newTestEnv(t)
	assert.NilError(t, os.Symlink(env.outside, env.path("escape")))
	env.mustFail("write_file", map[string]any{"path": "escape/a/b.txt", "content": "x", "make_dirs": true}, "access denied")
	_, err := os.Stat(filepath.Join(env.outside, "a"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEditFile(t *testing.T) {
	env := newTestEnv(t)
	env.write("a.txt", "foo bar foo\nline two\nline three\n")

	var res msi.EditFileResult
	text := env.mustCall("edit_file", map[string]any{
		"path":   "a.txt",
		"backup": true,
		"operations": []map[string]any{
			{"type": "replace", "find": "foo", "replace": "baz", "occurrence": -1},
			{"type": "replace", "find": "LINE", "replace": "Line", "case_sensitive": false},
			{"type": "replace", "find": "missing", "replace": "x"},
			{"type": "insert", "position": 0, "content": ">> "},
			{"type": "replace_lines", "start_line": 2, "end_line": 2, "content": "last"},
		},
	}, &res)
	assert.Equal(t, res.Applied, 4)
	assert.Equal(t, len(res.Failed), 1)
	assert.Equal(t, res.Failed[0].Index, 2)
	assert.Assert(t, res.Written)
	assert.Equal(t, res.BackupPath, env.path("a.txt.bak"))
	assert.Assert(t, strings.Contains(text, "Applied 4 of 5 operations"))
	assert.Equal(t, env.read("a.txt"), ">> baz bar baz\nLine two\nlast\n")
	assert.Equal(t, env.read("a.txt.bak"), "foo bar foo\nline two\nline three\n")

	text, isErr := env.call("edit_file", map[string]any{
		"path":       "a.txt",
		"operations": []map[string]any{{"type": "delete", "start": 5, "end": 1}},
	}, nil)
	assert.Assert(t, isErr)
	assert.Assert(t, strings.Contains(text, "out of range"), text)
	assert.Equal(t, env.read("a.txt"), ">> baz bar baz\nLine two\nlast\n")

	env.mustCall("edit_file", map[string]any{
		"path":              "new.txt",
		"create_if_missing": true,
		"operations":        []map[string]any{{"type": "insert", "position": 0, "content": "created\n"}},
	}, nil)
	assert.Equal(t, env.read("new.txt"), "created\n")

	env.mustFail("edit_file", map[string]any{
		"path":       "other.txt",
		"operations": []map[string]any{{"type": "insert", "position": 0, "content": "x"}},
	}, "not found")
	assert.NilError(t, os.WriteFile(env.path("b.bin"), []byte{0, 1, 2}, 0o644))
	env.mustFail("edit_file", map[string]any{
		"path":       "b.bin",
		"operations": []map[string]any{{"type": "insert", "position": 0, "content": "x"}},
	}, "not a text file")
}

func TestCreateDirectory(t *testing.T) {
	env := newTestEnv(t)

	var res msi.CreateDirectoryResult
	env.mustCall("create_directory", map[string]any{"path": "a/b/c"}, &res)
	assert.Assert(t, res.Created)
	st, err := os.Stat(env.path("a", "b", "c"))
	assert.NilError(t, err)
	assert.Assert(t, st.IsDir())

	res = msi.CreateDirectoryResult{}
	text := env.mustCall("create_directory", map[string]any{"path": "a/b/c"}, &res)
	assert.Assert(t, !res.Created)
	assert.Assert(t, strings.Contains(text, "already exists"))

	env.mustFail("create_directory", map[string]any{"path": "x/y", "parents": false}, "not found")
	env.mustFail("create_directory", map[string]any{"path": filepath.Join(env.outside, "d")}, "access denied")
	env.write("file", "x")
	env.mustFail("create_directory", map[string]any{"path": "file"}, "not a directory")
}

func TestCopyMoveDelete(t *testing.T) {
	env := newTestEnv(t)
	env.write("src/a.txt", "a")
	env.write("src/sub/b.txt", "b")
	assert.NilError(t, os.Mkdir(env.path("dst"), 0o755))

	var cp msi.CopyPathResult
	env.mustCall("copy_path", map[string]any{"source": "src/a.txt", "destination": "dst"}, &cp)
	assert.Equal(t, cp.Destination, env.path("dst", "a.txt"))
	assert.Equal(t, env.read("dst/a.txt"), "a")

	env.mustFail("copy_path", map[string]any{"source": "src/a.txt", "destination": "dst/a.txt"}, "already exists")
	env.mustCall("copy_path", map[string]any{"source": "src/sub/b.txt", "destination": "dst/a.txt", "overwrite": true}, nil)
	assert.Equal(t, env.read("dst/a.txt"), "b")

	env.mustFail("copy_path", map[string]any{"source": "src", "destination": "copy", "recursive": false}, "recursive")
	env.mustCall("copy_path", map[string]any{"source": "src", "destination": "copy"}, nil)
	assert.Equal(t, env.read("copy/sub/b.txt"), "b")
	env.mustFail("copy_path", map[string]any{"source": "src", "destination": "src/sub"}, "into itself")

	var mv msi.MovePathResult
	env.mustCall("move_path", map[string]any{"source": "copy", "destination": "moved"}, &mv)
	assert.Equal(t, mv.Destination, env.path("moved"))
	assert.Equal(t, env.read("moved/a.txt"), "a")
	_, err := os.Stat(env.path("copy"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	env.mustFail("move_path", map[string]any{"source": "moved/a.txt", "destination": "dst"}, "already exists")
	env.mustCall("move_path", map[string]any{"source": "moved/a.txt", "destination": "dst", "overwrite": true}, nil)
	assert.Equal(t, env.read("dst/a.txt"), "a")
	env.mustFail("move_path", map[string]any{"source": ".", "destination": "elsewhere"}, "allowed directory")
	env.mustFail("move_path", map[string]any{"source": "dst/a.txt", "destination": env.outside}, "access denied")

	var del msi.DeletePathResult
	env.mustFail("delete_path", map[string]any{"path": "moved"}, "recursive")
	env.mustCall("delete_path", map[string]any{"path": "moved", "recursive": true}, &del)
	assert.Assert(t, del.Deleted)
	_, err = os.Stat(env.path("moved"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	env.mustFail("delete_path", map[string]any{"path": "missing.txt"}, "not found")
	del = msi.DeletePathResult{}
	env.mustCall("delete_path", map[string]any{"path": "missing/deeper.txt", "force": true}, &del)
	assert.Assert(t, !del.Deleted)
	env.mustFail("delete_path", map[string]any{"path": env.root, "recursive": true}, "allowed directory")
	env.mustFail("delete_path", map[string]any{"path": filepath.Join(env.outside)}, "access denied")
}

func TestGetFileInfo(t *testing.T) {
	env := newTestEnv(t)
	env.write("a.txt", "hello")
	assert.NilError(t, os.Chmod(env.path("a.txt"), 0o640))

	var res msi.GetFileInfoResult
	text := env.mustCall("get_file_info", map[string]any{"path": "a.txt", "checksum": true}, &res)
	assert.Equal(t, res.Path, env.path("a.txt"))
	assert.Equal(t, res.Name, "a.txt")
	assert.Equal(t, res.Type, "file")
	assert.Equal(t, res.Size, int64(5))
	assert.Equal(t, res.HumanSize, "5B")
	assert.Equal(t, res.Permissions, "0640")
	assert.Equal(t, res.Mode, "-rw-r-----")
	assert.Equal(t, *res.UID, uint32(os.Getuid()))
	assert.Assert(t, *res.IsText)
	assert.Equal(t, res.Digest, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	assert.Assert(t, strings.Contains(text, "Digest: sha256:"))

	res = msi.GetFileInfoResult{}
	env.mustCall("get_file_info", map[string]any{"path": "."}, &res)
	assert.Equal(t, res.Type, "directory")
	assert.Equal(t, res.Digest, "")
	assert.Assert(t, res.IsText == nil)
}

func TestGlob(t *testing.T) {
	env := newTestEnv(t)
	env.write("main.go", "")
	env.write("pkg/a/a.go", "")
	env.write("pkg/a/a.txt", "")
	assert.NilError(t, os.Symlink(env.path("main.go"), env.path("link.go")))

	var res msi.GlobResult
	env.mustCall("glob", map[string]any{"pattern": "**/*.go"}, &res)
	assert.DeepEqual(t, res.Matches, []string{env.path("main.go"), env.path("pkg", "a", "a.go")})

	res = msi.GlobResult{}
	env.mustCall("glob", map[string]any{"pattern": "*.txt", "path": "pkg/a"}, &res)
	assert.DeepEqual(t, res.Matches, []string{env.path("pkg", "a", "a.txt")})

	res = msi.GlobResult{}
	env.mustCall("glob", map[string]any{"pattern": "*.rs"}, &res)
	assert.Equal(t, len(res.Matches), 0)

	env.mustFail("glob", map[string]any{"pattern": "../*"}, "invalid pattern")
	env.mustFail("glob", map[string]any{"pattern": "/etc/*"}, "invalid pattern")
	env.mustFail("glob", map[string]any{"pattern": "*", "path": env.outside}, "access denied")
}

func TestSearchFileContent(t *testing.T) {
	env := newTestEnv(t)
	env.write("a.txt", "one\ntwo\nneedle here\nfour\n")
	assert.NilError(t, os.WriteFile(env.path("b.bin"), []byte("needle\x00\x00"), 0o644))
	env.write("c.txt", "nothing\n")

	var res msi.SearchFileContentResult
	text := env.mustCall("search_file_content", map[string]any{"pattern": "needle", "context_lines": 1}, &res)
	assert.Equal(t, res.Root, env.root)
	assert.Equal(t, res.FilesSearched, 2)
	assert.Equal(t, res.FilesMatched, 1)
	assert.Equal(t, res.TotalMatches, 1)
	assert.Equal(t, res.Files[0].Path, "a.txt")
	assert.Equal(t, res.Files[0].Matches[0].LineNumber, 3)
	assert.Equal(t, len(res.Files[0].Matches[0].Context), 2)
	assert.Assert(t, strings.Contains(text, "File: a.txt"), text)
	assert.Assert(t, strings.Contains(text, "  Line 3: needle here"), text)

	env.mustFail("search_file_content", map[string]any{"pattern": "(", "regex": true}, "invalid search pattern")
	env.mustFail("search_file_content", map[string]any{"pattern": "x", "max_results": 0}, "invalid query")
	env.mustFail("search_file_content", map[string]any{"pattern": "x", "path": env.outside}, "access denied")
}

func TestSearchFileContentSummary(t *testing.T) {
	env := newTestEnv(t)
	env.write("many.txt", strings.Repeat("hit\n", maxReportedMatches+1))

	var res msi.SearchFileContentResult
	text := env.mustCall("search_file_content", map[string]any{"pattern": "hit", "max_results": 1000}, &res)
	assert.Equal(t, res.TotalMatches, maxReportedMatches+1)
	assert.Assert(t, !strings.Contains(text, "Line 1:"))
	assert.Assert(t, strings.Contains(text, "structured content"))
}
