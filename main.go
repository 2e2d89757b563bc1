// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appversion = "dev" // set by ldflags

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "dnsoperator",
		Short: "Keep a DNS server in sync with a plain-text zone manifest",
		Long: `dnsoperator owns a zone manifest file and a DNS server process.
Any change to the manifest (through the REST API, the CLI, or an editor)
restarts the server so it serves the new zone.`,
		Version:       appversion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file or directory (default: search executable dir, user config dir, /etc)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "log one-shot commands to this file or directory")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newManifestCommand(opts))
	root.AddCommand(newRecordCommand(opts))
	root.AddCommand(newHistoryCommand(opts))
	root.AddCommand(newShellCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
