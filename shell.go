// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dnsoperator/cliutil"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	contextRoot     = ""
	contextManifest = "manifest"
	contextRecord   = "record"
)

func newShellCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive manifest shell with completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("shell needs an interactive terminal")
			}
			return withApp(opts, cmd, runShell)
		},
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dnsoperator", "shell_history")
}

func runShell(a *app) error {
	historyPath := historyFile()
	if historyPath != "" {
		_ = os.MkdirAll(filepath.Dir(historyPath), 0o755)
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	sh := &shell{app: a}
	setupAutocomplete(rl, sh.context)
	fmt.Fprintln(a.out, "Type 'help' for the list of commands.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		before := sh.context
		if sh.exec(line) {
			return nil
		}
		if sh.context != before {
			setupAutocomplete(rl, sh.context)
		}
	}
}

// shell interprets one line at a time against an app. A command that names a
// context with no subcommand enters it; "/" returns to the top level.
type shell struct {
	app     *app
	context string
}

// exec runs line and reports whether the shell should exit.
func (sh *shell) exec(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	out := sh.app.out

	if cliutil.IsExitToken(args[0]) {
		return true
	}
	if cliutil.IsRootToken(args[0]) {
		sh.context = contextRoot
		return false
	}
	if cliutil.IsHelpRequest(args) {
		sh.help()
		return false
	}

	ctx := sh.context
	if ctx == contextRoot {
		ctx = strings.ToLower(args[0])
		switch ctx {
		case contextManifest, contextRecord:
			if len(args) == 1 {
				sh.context = ctx
				return false
			}
			args = args[1:]
		case "history":
			serial := ""
			if len(args) > 1 {
				serial = args[1]
			}
			sh.report(sh.app.history(serial))
			return false
		case "config":
			sh.report(sh.app.showConfig())
			return false
		default:
			fmt.Fprintf(out, "Unknown command: %s\n", args[0])
			return false
		}
	}

	if cliutil.ContainsHelpToken(args[1:]) {
		sh.contextHelp(ctx)
		return false
	}
	switch ctx {
	case contextManifest:
		sh.report(sh.manifestCommand(args))
	case contextRecord:
		sh.report(sh.recordCommand(args))
	}
	return false
}

func (sh *shell) report(err error) {
	if err != nil {
		fmt.Fprintf(sh.app.out, "Error: %v\n", err)
	}
}

func (sh *shell) help() {
	sh.contextHelp(sh.context)
}

func (sh *shell) contextHelp(ctx string) {
	switch ctx {
	case contextManifest:
		manifestHelp(sh.app.out)
	case contextRecord:
		recordHelp(sh.app.out)
	default:
		mainHelp(sh.app.out)
	}
}

func (sh *shell) manifestCommand(args []string) error {
	switch strings.ToLower(args[0]) {
	case "show":
		format := "text"
		if len(args) > 1 {
			format = strings.ToLower(args[1])
		}
		return sh.app.showManifest(format)
	case "check":
		return sh.app.checkManifest()
	default:
		return fmt.Errorf("unknown manifest subcommand: %s", args[0])
	}
}

func (sh *shell) recordCommand(args []string) error {
	sub := strings.ToLower(args[0])
	args = args[1:]
	switch sub {
	case "list":
		recordType := ""
		if len(args) > 0 {
			t, err := parseRecordType(args[0])
			if err != nil {
				return err
			}
			recordType = t
		}
		return sh.app.listRecords(recordType)
	case "add":
		if len(args) != 3 {
			return errors.New("usage: add <a|ns> <name> <value>")
		}
		rec, err := recordFromArgs(args[0], args[1], args[2], "")
		if err != nil {
			return err
		}
		return sh.app.addRecord(nil, rec)
	case "update":
		if len(args) != 3 && len(args) != 4 {
			return errors.New("usage: update <a|ns> <name> <value> [new-name]")
		}
		newName := args[1]
		if len(args) == 4 {
			newName = args[3]
		}
		rec, err := recordFromArgs(args[0], newName, args[2], "")
		if err != nil {
			return err
		}
		return sh.app.updateRecord(nil, args[1], rec)
	case "delete", "remove", "rm":
		if len(args) != 2 {
			return errors.New("usage: delete <a|ns> <name>")
		}
		recordType, err := parseRecordType(args[0])
		if err != nil {
			return err
		}
		return sh.app.deleteRecord(nil, args[1], recordType)
	default:
		return fmt.Errorf("unknown record subcommand: %s", sub)
	}
}

func setupAutocomplete(rl *readline.Instance, context string) {
	updatePrompt(rl, context)

	recordTypes := func() []readline.PrefixCompleterInterface {
		return []readline.PrefixCompleterInterface{readline.PcItem("a"), readline.PcItem("ns")}
	}
	autocompleteManifest := readline.NewPrefixCompleter(
		readline.PcItem("show", readline.PcItem("json"), readline.PcItem("text")),
		readline.PcItem("check"),
		readline.PcItem("?"),
	)
	autocompleteRecord := readline.NewPrefixCompleter(
		readline.PcItem("list", recordTypes()...),
		readline.PcItem("add", recordTypes()...),
		readline.PcItem("update", recordTypes()...),
		readline.PcItem("delete", recordTypes()...),
		readline.PcItem("?"),
	)
	autocompleteRoot := readline.NewPrefixCompleter(
		readline.PcItem("manifest", autocompleteManifest.GetChildren()...),
		readline.PcItem("record", autocompleteRecord.GetChildren()...),
		readline.PcItem("history"),
		readline.PcItem("config"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("q"),
		readline.PcItem("help"),
		readline.PcItem("h"),
		readline.PcItem("?"),
	)

	switch context {
	case contextManifest:
		rl.Config.AutoComplete = autocompleteManifest
	case contextRecord:
		rl.Config.AutoComplete = autocompleteRecord
	default:
		rl.Config.AutoComplete = autocompleteRoot
	}
}

func updatePrompt(rl *readline.Instance, context string) {
	if context == contextRoot {
		rl.SetPrompt("> ")
		return
	}
	rl.SetPrompt(context + "> ")
}
