// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lima-vm/fsbox/pkg/fsboxyaml"
	"github.com/lima-vm/fsbox/pkg/fsutil"
	"github.com/lima-vm/fsbox/pkg/mcp/toolset"
	"github.com/lima-vm/fsbox/pkg/pathguard"
	"github.com/lima-vm/fsbox/pkg/search"
	"github.com/lima-vm/fsbox/pkg/version"
)

func newServer(roots []string) *mcp.Server {
	impl := &mcp.Implementation{
		Name:    "fsbox",
		Title:   "fsbox, for file I/O operations confined to a set of allowed directories",
		Version: version.Version,
	}
	var b strings.Builder
	b.WriteString(`This MCP server provides tools for reading, writing, and searching local files.
Every path must lie inside one of the allowed directories below; symbolic links
are resolved before the check. Relative paths are resolved against the allowed
directories, in order.

Allowed directories:
`)
	for _, r := range roots {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	fmt.Fprintf(&b, "\nThe host OS is %s.\n", cases.Title(language.English).String(runtime.GOOS))
	serverOpts := &mcp.ServerOptions{
		Instructions: b.String(),
	}
	return mcp.NewServer(impl, serverOpts)
}

// loadSettings merges, from lowest to highest precedence, the defaults, the
// configuration file, the environment, and the flags of cmd.
// Positional args are appended to the --root flags.
func loadSettings(cmd *cobra.Command, args []string) (*fsboxyaml.Settings, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")
	c, err := fsboxyaml.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	fsboxyaml.ApplyEnv(c, os.LookupEnv)

	roots, _ := flags.GetStringArray("root")
	roots = append(roots, args...)
	if len(roots) > 0 {
		c.Roots = roots
	}
	if flags.Changed("max-file-size") {
		v, _ := flags.GetString("max-file-size")
		c.MaxFileSize = &v
	}
	if flags.Changed("request-timeout") {
		v, _ := flags.GetString("request-timeout")
		c.RequestTimeout = &v
	}
	if len(c.Roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		logrus.Infof("No allowed directory is configured, using the current directory %q", cwd)
		c.Roots = []string{cwd}
	}
	return fsboxyaml.Validate(c)
}

func newGuard(roots []string) (*pathguard.Guard, error) {
	guard, err := pathguard.New(roots, pathguard.WithLogger(logrus.StandardLogger()))
	if err != nil {
		return nil, err
	}
	for _, r := range guard.Roots() {
		nfs, err := fsutil.IsNFS(r)
		if err != nil {
			logrus.WithError(err).WithField("root", r).Debug("Failed to detect the file system type")
			continue
		}
		if nfs {
			logrus.WithField("root", r).Warn("The allowed directory is on NFS; symlink checks may race with other NFS clients")
		}
	}
	return guard, nil
}

func setupServer(settings *fsboxyaml.Settings) (*mcp.Server, error) {
	guard, err := newGuard(settings.Roots)
	if err != nil {
		return nil, err
	}
	ts, err := toolset.New(guard, settings, toolset.WithLogger(logrus.StandardLogger()))
	if err != nil {
		return nil, err
	}
	server := newServer(guard.Roots())
	if err = ts.RegisterServer(server); err != nil {
		return nil, err
	}
	return server, nil
}

func inspectInfo(ctx context.Context) (*Info, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	server, err := setupServer(&fsboxyaml.Settings{
		Roots:          []string{cwd},
		MaxFileSize:    fsboxyaml.DefaultMaxFileSize,
		RequestTimeout: fsboxyaml.DefaultRequestTimeout,
		Search:         search.DefaultQuery(""),
	})
	if err != nil {
		return nil, err
	}
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		return nil, err
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, err
	}
	toolsResult, err := clientSession.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, err
	}
	if err = clientSession.Close(); err != nil {
		return nil, err
	}
	if err = serverSession.Wait(); err != nil {
		return nil, err
	}
	info := &Info{
		Tools: toolsResult.Tools,
	}
	return info, nil
}

type Info struct {
	Tools []*mcp.Tool `json:"tools"`
}
