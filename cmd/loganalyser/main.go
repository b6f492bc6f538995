// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rabiesofany/TheLogAnalyserApp/cmd/loganalyser/cli"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/version"
)

func main() {
	if err := run(); err != nil {
		// ExitError and friends carry their own exit code and have
		// already explained themselves.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := cli.NewCommandLogger()
	return rootCommand().Execute(ctx, logger, os.Args[1:])
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:    "loganalyser",
		Summary: "Classify PLC build logs and suggest fixes",
		Description: `loganalyser analyses build and compilation logs from PLC toolchains
(Beremiz, matiec, gcc): it extracts the individual errors, classifies
the failure by severity, pipeline stage, and fix complexity, and asks
a model provider for concrete fix suggestions.`,
		Usage: "loganalyser <command> [flags]",
		Subcommands: []*cli.Command{
			classifyCommand(),
			generateCommand(),
			evaluateCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "loganalyser version",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			fmt.Printf("loganalyser %s\n", version.Full())
			return nil
		},
	}
}
