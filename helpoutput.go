// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package main

import (
	"fmt"
	"io"
)

func helpLine(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "%-15s %s\n", name, desc)
}

func mainHelp(w io.Writer) {
	fmt.Fprintln(w, "Available commands:")
	helpLine(w, "manifest", "- Manifest inspection")
	helpLine(w, "record", "- Record Management")
	helpLine(w, "history", "- List revisions, or print one: history [serial]")
	helpLine(w, "config", "- Show the resolved configuration")
	commonHelp(w)
}

func manifestHelp(w io.Writer) {
	fmt.Fprintln(w, "Manifest Sub Commands:")
	helpLine(w, "show", "- Print the manifest: show [json]")
	helpLine(w, "check", "- Parse and validate the manifest")
	commonHelp(w)
}

func recordHelp(w io.Writer) {
	fmt.Fprintln(w, "Record Management Sub Commands:")
	helpLine(w, "list", "- List records: list [a|ns]")
	helpLine(w, "add", "- Add a record: add <a|ns> <name> <value>")
	helpLine(w, "update", "- Update a record: update <a|ns> <name> <value> [new-name]")
	helpLine(w, "delete", "- Delete a record: delete <a|ns> <name>")
	commonHelp(w)
}

func commonHelp(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global commands:")
	helpLine(w, "/", "- Return to the top level")
	helpLine(w, "exit, quit, q", "- Leave the shell")
	helpLine(w, "help, h, ?", "- Show help for the current level")
}
