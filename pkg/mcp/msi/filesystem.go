// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package msi

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lima-vm/fsbox/pkg/ptr"
)

var ListAllowedDirectories = &mcp.Tool{
	Name:        "list_allowed_directories",
	Title:       "List allowed directories",
	Description: `Returns the directories that this server is allowed to access. Every other tool only accepts paths inside them.`,
	Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr.Of(false)},
}

type ListAllowedDirectoriesParams struct{}

type ListAllowedDirectoriesResult struct {
	Directories []string `json:"directories" jsonschema:"The canonical absolute paths of the allowed directories, in configuration order."`
}

var ListDirectory = &mcp.Tool{
	Name:        "list_directory",
	Title:       "List directory",
	Description: `Lists the files and subdirectories directly within a directory. Hidden entries (dot files and entries ignored by the directory's .gitignore) are omitted unless requested.`,
	Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr.Of(false)},
}

type ListDirectoryParams struct {
	Path          string  `json:"path" jsonschema:"The path to the directory to list."`
	Pattern       *string `json:"pattern,omitempty" jsonschema:"A glob pattern matched against entry names (e.g. '*.go'). Defaults to '*'."`
	IncludeHidden *bool   `json:"include_hidden,omitempty" jsonschema:"Whether to include hidden entries. Defaults to false."`
	Metadata      *bool   `json:"metadata,omitempty" jsonschema:"Whether to include size and modification time. Defaults to true."`
}

// ListDirectoryResultEntry is similar to [io/fs.FileInfo].
type ListDirectoryResultEntry struct {
	Name    string  `json:"name" jsonschema:"base name of the entry"`
	Type    string  `json:"type" jsonschema:"one of directory, file, symlink, fifo, socket, block_device, char_device, unknown"`
	Size    *int64  `json:"size,omitempty" jsonschema:"length in bytes, for regular files"`
	ModTime *string `json:"mod_time,omitempty" jsonschema:"modification time in RFC 3339 format"`
}

type ListDirectoryResult struct {
	Path    string                     `json:"path" jsonschema:"The canonical path of the listed directory."`
	Entries []ListDirectoryResultEntry `json:"entries" jsonschema:"The directory entries, directories first, then sorted by name."`
}

var ReadFile = &mcp.Tool{
	Name:        "read_file",
	Title:       "Read file",
	Description: `Reads the content of a file. Text is decoded to UTF-8; binary files are always returned as base64.`,
	Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr.Of(false)},
}

type ReadFileParams struct {
	Path      string  `json:"path" jsonschema:"The path to the file to read."`
	Encoding  *string `json:"encoding,omitempty" jsonschema:"Either 'utf8' or 'base64'. Defaults to 'utf8'."`
	StartLine *int    `json:"start_line,omitempty" jsonschema:"For text files, the 0-based line to start reading from."`
	EndLine   *int    `json:"end_line,omitempty" jsonschema:"For text files, the 0-based line to stop reading at (inclusive)."`
	MaxSize   *int64  `json:"max_size,omitempty" jsonschema:"The maximum number of bytes to return. Defaults to 1 MiB, and never exceeds the server limit."`
}

type ReadFileResult struct {
	Content    string `json:"content" jsonschema:"The content of the file."`
	Encoding   string `json:"encoding" jsonschema:"The encoding of content: 'utf8' or 'base64'."`
	Size       int64  `json:"size" jsonschema:"The size of the file in bytes."`
	Truncated  bool   `json:"truncated" jsonschema:"True if content was cut at max_size."`
	TotalLines *int   `json:"total_lines,omitempty" jsonschema:"The number of lines of the file, when a line range was requested."`
}

var WriteFile = &mcp.Tool{
	Name:        "write_file",
	Title:       "Write file",
	Description: `Writes content to a file. By default an existing file is overwritten.`,
	Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr.Of(true), OpenWorldHint: ptr.Of(false)},
}

type WriteFileParams struct {
	Path     string  `json:"path" jsonschema:"The path to the file to write to."`
	Content  string  `json:"content" jsonschema:"The content to write into the file."`
	Encoding *string `json:"encoding,omitempty" jsonschema:"The encoding of content: 'utf8' or 'base64'. Defaults to 'utf8'."`
	Mode     *string `json:"mode,omitempty" jsonschema:"One of 'create', 'overwrite', 'append', 'create_new'. 'create_new' fails if the file exists. Defaults to 'overwrite'."`
	MakeDirs *bool   `json:"make_dirs,omitempty" jsonschema:"Whether to create missing parent directories. Defaults to false."`
}

type WriteFileResult struct {
	Path         string `json:"path" jsonschema:"The path of the written file."`
	BytesWritten int    `json:"bytes_written" jsonschema:"The number of bytes written."`
	Created      bool   `json:"created" jsonschema:"True if the file did not exist before."`
}

var EditFile = &mcp.Tool{
	Name:        "edit_file",
	Title:       "Edit file",
	Description: `Applies a sequence of edit operations to a text file. Operations are applied in order, each to the result of the previous one. Positions count characters (Unicode code points), lines are 0-based.`,
	Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr.Of(true), OpenWorldHint: ptr.Of(false)},
}

type EditOperation struct {
	Type          string  `json:"type" jsonschema:"One of 'replace', 'insert', 'delete', 'replace_lines'."`
	Find          *string `json:"find,omitempty" jsonschema:"replace: the text to find."`
	Replace       *string `json:"replace,omitempty" jsonschema:"replace: the replacement text."`
	Occurrence    *int    `json:"occurrence,omitempty" jsonschema:"replace: the 0-based occurrence to replace, or -1 for all. Defaults to 0."`
	CaseSensitive *bool   `json:"case_sensitive,omitempty" jsonschema:"replace: whether find is case-sensitive. Defaults to true."`
	Position      *int    `json:"position,omitempty" jsonschema:"insert: the character position to insert at."`
	Start         *int    `json:"start,omitempty" jsonschema:"delete: the first character position to delete."`
	End           *int    `json:"end,omitempty" jsonschema:"delete: the character position to stop deleting at (exclusive)."`
	StartLine     *int    `json:"start_line,omitempty" jsonschema:"replace_lines: the first line to replace."`
	EndLine       *int    `json:"end_line,omitempty" jsonschema:"replace_lines: the last line to replace (inclusive)."`
	Content       *string `json:"content,omitempty" jsonschema:"insert, replace_lines: the text to insert."`
}

type EditFileParams struct {
	Path            string          `json:"path" jsonschema:"The path to the file to edit."`
	Operations      []EditOperation `json:"operations" jsonschema:"The edit operations, applied in order."`
	CreateIfMissing *bool           `json:"create_if_missing,omitempty" jsonschema:"Whether to start from an empty file if the file does not exist. Defaults to false."`
	Backup          *bool           `json:"backup,omitempty" jsonschema:"Whether to keep a copy of the original file with a '.bak' suffix. Defaults to false."`
}

type EditFailure struct {
	Index int    `json:"index" jsonschema:"The index of the failed operation."`
	Type  string `json:"type" jsonschema:"The type of the failed operation."`
	Error string `json:"error" jsonschema:"Why the operation failed."`
}

type EditFileResult struct {
	Path       string        `json:"path" jsonschema:"The path of the edited file."`
	Applied    int           `json:"applied" jsonschema:"The number of operations applied."`
	Failed     []EditFailure `json:"failed,omitempty" jsonschema:"The operations that could not be applied."`
	Written    bool          `json:"written" jsonschema:"True if the file was written, i.e. at least one operation was applied."`
	BackupPath string        `json:"backup_path,omitempty" jsonschema:"The path of the backup copy, if any."`
}

var CreateDirectory = &mcp.Tool{
	Name:        "create_directory",
	Title:       "Create directory",
	Description: `Creates a directory. Succeeds without changes if the directory already exists.`,
	Annotations: &mcp.ToolAnnotations{IdempotentHint: true, DestructiveHint: ptr.Of(false), OpenWorldHint: ptr.Of(false)},
}

type CreateDirectoryParams struct {
	Path    string `json:"path" jsonschema:"The path of the directory to create."`
	Parents *bool  `json:"parents,omitempty" jsonschema:"Whether to create missing parent directories. Defaults to true."`
}

type CreateDirectoryResult struct {
	Path    string `json:"path" jsonschema:"The path of the directory."`
	Created bool   `json:"created" jsonschema:"False if the directory already existed."`
}

var CopyPath = &mcp.Tool{
	Name:        "copy_path",
	Title:       "Copy file or directory",
	Description: `Copies a file or a directory. If the destination is an existing directory, the source is copied into it.`,
	Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr.Of(true), OpenWorldHint: ptr.Of(false)},
}

type CopyPathParams struct {
	Source      string `json:"source" jsonschema:"The path to copy from."`
	Destination string `json:"destination" jsonschema:"The path to copy to."`
	Overwrite   *bool  `json:"overwrite,omitempty" jsonschema:"Whether to replace an existing destination. Defaults to false."`
	Recursive   *bool  `json:"recursive,omitempty" jsonschema:"Whether to copy directories recursively. Defaults to true."`
}

type CopyPathResult struct {
	Source      string `json:"source" jsonschema:"The resolved source path."`
	Destination string `json:"destination" jsonschema:"The resolved destination path."`
}

var MovePath = &mcp.Tool{
	Name:        "move_path",
	Title:       "Move or rename file or directory",
	Description: `Moves or renames a file or a directory. If the destination is an existing directory, the source is moved into it.`,
	Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr.Of(true), OpenWorldHint: ptr.Of(false)},
}

type MovePathParams struct {
	Source      string `json:"source" jsonschema:"The path to move."`
	Destination string `json:"destination" jsonschema:"The new path."`
	Overwrite   *bool  `json:"overwrite,omitempty" jsonschema:"Whether to replace an existing destination. Defaults to false."`
}

type MovePathResult struct {
	Source      string `json:"source" jsonschema:"The resolved source path."`
	Destination string `json:"destination" jsonschema:"The resolved destination path."`
}

var DeletePath = &mcp.Tool{
	Name:        "delete_path",
	Title:       "Delete file or directory",
	Description: `Deletes a file or a directory. The allowed directories themselves cannot be deleted.`,
	Annotations: &mcp.ToolAnnotations{DestructiveHint: ptr.Of(true), OpenWorldHint: ptr.Of(false)},
}

type DeletePathParams struct {
	Path      string `json:"path" jsonschema:"The path to delete."`
	Recursive *bool  `json:"recursive,omitempty" jsonschema:"Whether to delete non-empty directories. Defaults to false."`
	Force     *bool  `json:"force,omitempty" jsonschema:"Whether to succeed if the path does not exist. Defaults to false."`
}

type DeletePathResult struct {
	Path    string `json:"path" jsonschema:"The resolved path."`
	Deleted bool   `json:"deleted" jsonschema:"False if nothing existed at path."`
}

var GetFileInfo = &mcp.Tool{
	Name:        "get_file_info",
	Title:       "Get file information",
	Description: `Returns metadata about a file or directory: type, size, permissions, modification time and ownership.`,
	Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr.Of(false)},
}

type GetFileInfoParams struct {
	Path     string `json:"path" jsonschema:"The path to inspect."`
	Checksum *bool  `json:"checksum,omitempty" jsonschema:"Whether to compute the SHA-256 digest of a regular file. Defaults to false."`
}

type GetFileInfoResult struct {
	Path        string  `json:"path" jsonschema:"The canonical path."`
	Name        string  `json:"name" jsonschema:"The base name."`
	Type        string  `json:"type" jsonschema:"one of directory, file, symlink, fifo, socket, block_device, char_device, unknown"`
	Size        int64   `json:"size" jsonschema:"The size in bytes."`
	HumanSize   string  `json:"human_size" jsonschema:"The size in human-readable form (e.g. '1.5MB')."`
	Mode        string  `json:"mode" jsonschema:"The file mode in 'ls -l' form (e.g. '-rw-r--r--')."`
	Permissions string  `json:"permissions" jsonschema:"The permission bits in octal (e.g. '0644')."`
	ModTime     string  `json:"mod_time" jsonschema:"The modification time in RFC 3339 format."`
	UID         *uint32 `json:"uid,omitempty" jsonschema:"The owner user ID."`
	GID         *uint32 `json:"gid,omitempty" jsonschema:"The owner group ID."`
	Inode       *uint64 `json:"inode,omitempty" jsonschema:"The inode number."`
	Nlink       *uint64 `json:"nlink,omitempty" jsonschema:"The number of hard links."`
	Filesystem  string  `json:"filesystem,omitempty" jsonschema:"The type of the file system holding the file (e.g. 'ext4')."`
	IsText      *bool   `json:"is_text,omitempty" jsonschema:"For regular files, whether the content looks like text."`
	Digest      string  `json:"digest,omitempty" jsonschema:"The digest of the content (e.g. 'sha256:...'), when checksum was requested."`
}

var Glob = &mcp.Tool{
	Name:        "glob",
	Title:       "Find files by glob",
	Description: `Finds files matching a glob pattern (e.g., src/**/*.ts, *.md). Symbolic links are not followed.`,
	Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr.Of(false)},
}

type GlobParams struct {
	Pattern string  `json:"pattern" jsonschema:"The glob pattern to match against, relative to path (e.g., '*.py', 'src/**/*.js')."`
	Path    *string `json:"path,omitempty" jsonschema:"The path to the directory to search within. Defaults to the first allowed directory."`
}

type GlobResult struct {
	Matches []string `json:"matches" jsonschema:"A sorted list of absolute file paths that match the provided glob pattern."`
}
