// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the loganalyser CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in cmd/loganalyser
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples. The
// context handed to Execute flows into every Run function so commands
// that call the analysis service or a model provider cancel cleanly on
// SIGINT.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// [NewCommandLogger] builds the slog logger commands run with: text
// output on a terminal, JSON when stderr is piped. [ExitError] lets a
// command request a non-zero exit without an extra "error:" line when
// it has already printed its own output.
package cli
