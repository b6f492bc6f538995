// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/rabiesofany/TheLogAnalyserApp/cmd/loganalyser/cli"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/evaluation"
)

func generateCommand() *cli.Command {
	var (
		count     int
		seed      int64
		outputDir string
	)
	return &cli.Command{
		Name:    "generate",
		Summary: "Generate synthetic build logs with ground-truth labels",
		Description: `Generate writes synthetic PLC build logs drawn from known failure
patterns, each with a JSON sidecar recording the errors extraction
should find and the classification a correct model should reach.
The same seed always produces the same set.`,
		Usage: "loganalyser generate [flags]",
		Examples: []cli.Example{
			{
				Description: "Ten labelled logs in ./synthetic-logs",
				Command:     "loganalyser generate",
			},
			{
				Description: "A larger set in a custom directory",
				Command:     "loganalyser generate --count 100 --seed 7 --output testdata/logs",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("generate", pflag.ContinueOnError)
			flags.IntVar(&count, "count", 10, "number of samples to generate")
			flags.Int64Var(&seed, "seed", 42, "random seed for reproducible output")
			flags.StringVar(&outputDir, "output", "synthetic-logs", "directory for the generated files")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("generate takes no positional arguments")
			}
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			samples := evaluation.NewGenerator(seed).Generate(count)
			if err := writeSamples(outputDir, samples); err != nil {
				return err
			}
			logger.Debug("samples generated", "count", len(samples), "seed", seed)
			fmt.Printf("wrote %d samples to %s\n", len(samples), outputDir)
			return nil
		},
	}
}

// writeSamples writes each sample's raw log next to a JSON sidecar
// holding its labels: <name>.log and <name>.json.
func writeSamples(dir string, samples []evaluation.Sample) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, sample := range samples {
		logPath := filepath.Join(dir, sample.Name+".log")
		if err := os.WriteFile(logPath, []byte(sample.Log), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", logPath, err)
		}

		labels, err := json.MarshalIndent(sample, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding labels for %s: %w", sample.Name, err)
		}
		sidecarPath := filepath.Join(dir, sample.Name+".json")
		if err := os.WriteFile(sidecarPath, append(labels, '\n'), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", sidecarPath, err)
		}
	}
	return nil
}
