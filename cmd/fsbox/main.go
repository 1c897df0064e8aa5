// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lima-vm/fsbox/pkg/version"
)

const (
	envLogLevel = "FSBOX_LOG_LEVEL"
	envLogFile  = "FSBOX_LOG_FILE"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().ExecuteContext(ctx)
	cancel()
	if err != nil {
		logrus.Fatal(err)
	}
}

func processGlobalFlags(rootCmd *cobra.Command) error {
	// --log-level will override --debug
	if debug, _ := rootCmd.Flags().GetBool("debug"); debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	l, _ := rootCmd.Flags().GetString("log-level")
	if l == "" {
		l = os.Getenv(envLogLevel)
	}
	if l != "" {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
	}

	// stdout belongs to the MCP transport
	logrus.SetOutput(os.Stderr)
	logFile, _ := rootCmd.Flags().GetString("log-file")
	if logFile == "" {
		logFile = os.Getenv(envLogFile)
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open the log file: %w", err)
		}
		logrus.SetOutput(f)
	}

	logFormat, _ := rootCmd.Flags().GetString("log-format")
	switch logFormat {
	case "json":
		formatter := new(logrus.JSONFormatter)
		logrus.StandardLogger().SetFormatter(formatter)
	case "text":
		formatter := new(logrus.TextFormatter)
		switch {
		case logFile != "":
			formatter.DisableColors = true
		case runtime.GOOS == "windows" && isatty.IsCygwinTerminal(os.Stderr.Fd()):
			// the default setting does not recognize cygwin on windows
			formatter.ForceColors = true
		}
		logrus.StandardLogger().SetFormatter(formatter)
	default:
		return fmt.Errorf("unsupported log-format: %q", logFormat)
	}
	return nil
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fsbox",
		Short:   "Sandboxed file system access over the Model Context Protocol",
		Version: version.Short(),
		Example: `  Serve MCP over stdio, confined to the current directory:
  $ fsbox serve

  Serve two directories:
  $ fsbox serve ~/src /tmp/scratch

  Search for a string:
  $ fsbox search TODO ~/src`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Set the logging level [trace, debug, info, warn, error] (env: "+envLogLevel+")")
	rootCmd.PersistentFlags().String("log-format", "text", "Set the logging format [text, json]")
	rootCmd.PersistentFlags().String("log-file", "", "Append the logs to a file instead of stderr (env: "+envLogFile+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug mode")
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return processGlobalFlags(rootCmd)
	}
	rootCmd.AddCommand(
		newServeCommand(),
		newSearchCommand(),
		newInfoCommand(),
		newConfigCommand(),
		newGenDocCommand(),
	)
	return rootCmd
}
