// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package main

import (
	"fmt"

	"dnsoperator/manifest"

	"github.com/spf13/cobra"
)

// withApp opens the app for one command invocation and closes it afterwards.
func withApp(opts *rootOptions, cmd *cobra.Command, fn func(*app) error) error {
	a, err := openApp(opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// ifMatchFlag is the optimistic concurrency precondition shared by the record commands.
type ifMatchFlag struct {
	value string
}

func (f *ifMatchFlag) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.value, "if-serial", "", "only apply when the manifest serial equals this value")
}

func (f *ifMatchFlag) expected() (*uint32, error) {
	if f.value == "" {
		return nil, nil
	}
	s, err := parseSerial(f.value)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func newManifestCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the zone manifest",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error { return a.showManifest(format) })
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")

	check := &cobra.Command{
		Use:   "check",
		Short: "Parse and validate the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, cmd, func(a *app) error { return a.checkManifest() })
		},
	}

	cmd.AddCommand(show, check)
	return cmd
}

func newRecordCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "List, add, update or delete A and NS records",
	}

	list := &cobra.Command{
		Use:   "list [a|ns]",
		Short: "List records, optionally of one type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordType := ""
			if len(args) == 1 {
				t, err := parseRecordType(args[0])
				if err != nil {
					return err
				}
				recordType = t
			}
			return withApp(opts, cmd, func(a *app) error { return a.listRecords(recordType) })
		},
	}

	var addMatch ifMatchFlag
	var addClass string
	add := &cobra.Command{
		Use:     "add <a|ns> <name> <value>",
		Short:   "Add a record",
		Example: "  dnsoperator record add a www 192.0.2.10\n  dnsoperator record add ns @ ns2.example.com.",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromArgs(args[0], args[1], args[2], addClass)
			if err != nil {
				return err
			}
			expected, err := addMatch.expected()
			if err != nil {
				return err
			}
			return withApp(opts, cmd, func(a *app) error { return a.addRecord(expected, rec) })
		},
	}
	add.Flags().StringVar(&addClass, "class", manifest.ClassIN, "record class")
	addMatch.register(add)

	var updMatch ifMatchFlag
	var rename, updClass string
	update := &cobra.Command{
		Use:   "update <a|ns> <name> <value>",
		Short: "Replace the value of a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			newName := args[1]
			if rename != "" {
				newName = rename
			}
			rec, err := recordFromArgs(args[0], newName, args[2], updClass)
			if err != nil {
				return err
			}
			expected, err := updMatch.expected()
			if err != nil {
				return err
			}
			return withApp(opts, cmd, func(a *app) error { return a.updateRecord(expected, args[1], rec) })
		},
	}
	update.Flags().StringVar(&rename, "rename", "", "give the record a new name")
	update.Flags().StringVar(&updClass, "class", manifest.ClassIN, "record class")
	updMatch.register(update)

	var delMatch ifMatchFlag
	del := &cobra.Command{
		Use:     "delete <a|ns> <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordType, err := parseRecordType(args[0])
			if err != nil {
				return err
			}
			expected, err := delMatch.expected()
			if err != nil {
				return err
			}
			return withApp(opts, cmd, func(a *app) error { return a.deleteRecord(expected, args[1], recordType) })
		},
	}
	delMatch.register(del)

	cmd.AddCommand(list, add, update, del)
	return cmd
}

func recordFromArgs(typeArg, name, value, class string) (manifest.Record, error) {
	recordType, err := parseRecordType(typeArg)
	if err != nil {
		return manifest.Record{}, err
	}
	if class == "" {
		class = manifest.ClassIN
	}
	return manifest.Record{Name: name, Class: class, Type: recordType, Value: value}, nil
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [serial]",
		Short: "List saved manifest revisions or print one",
		Long: `history reads the revision journal. While "serve" is running it holds
the journal open; query GET /revisions on the API instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serial := ""
			if len(args) == 1 {
				serial = args[0]
			}
			return withApp(opts, cmd, func(a *app) error { return a.history(serial) })
		},
	}
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if loaded.Created {
				fmt.Fprintf(out, "# created default configuration\n")
			}
			a := &app{cfgPath: loaded.Path, cfg: loaded.Config, out: out}
			return a.showConfig()
		},
	})
	return cmd
}
