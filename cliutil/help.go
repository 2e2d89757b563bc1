// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only

// Package cliutil holds the token rules of the interactive shell.
package cliutil

import "strings"

// RootToken leaves the current shell context.
const RootToken = "/"

var helpTokens = map[string]struct{}{
	"?":    {},
	"help": {},
	"h":    {},
}

var exitTokens = map[string]struct{}{
	"exit": {},
	"quit": {},
	"q":    {},
}

func normalize(token string) string {
	return strings.TrimSpace(strings.ToLower(token))
}

// IsHelpToken reports whether the provided token is a recognised help alias.
func IsHelpToken(token string) bool {
	_, ok := helpTokens[normalize(token)]
	return ok
}

// IsHelpRequest reports whether the first argument in args is a help alias.
func IsHelpRequest(args []string) bool {
	if len(args) == 0 {
		return false
	}
	return IsHelpToken(args[0])
}

// ContainsHelpToken reports whether any argument is a help alias, as in "record add ?".
func ContainsHelpToken(args []string) bool {
	for _, arg := range args {
		if IsHelpToken(arg) {
			return true
		}
	}
	return false
}

// IsExitToken reports whether token ends the shell.
func IsExitToken(token string) bool {
	_, ok := exitTokens[normalize(token)]
	return ok
}

// IsRootToken reports whether token returns the shell to the top level.
func IsRootToken(token string) bool {
	return strings.TrimSpace(token) == RootToken
}
