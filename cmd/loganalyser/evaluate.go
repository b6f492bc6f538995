// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/rabiesofany/TheLogAnalyserApp/cmd/loganalyser/cli"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/evaluation"
)

func evaluateCommand() *cli.Command {
	var (
		count          int
		seed           int64
		withClassifier bool
		configPath     string
		resultsPath    string
	)
	return &cli.Command{
		Name:    "evaluate",
		Summary: "Score the pipeline against synthetic labelled logs",
		Description: `Evaluate generates a labelled synthetic sample set and scores log
extraction against it: error counts, types, stages, severities, line
numbers, and cascade detection. This part is deterministic and free.

With --classifier it also runs the configured model provider over
every sample and scores the overall judgment, which costs one
classification call per sample plus suggestion calls.`,
		Usage: "loganalyser evaluate [flags]",
		Examples: []cli.Example{
			{
				Description: "Score extraction on 30 samples",
				Command:     "loganalyser evaluate",
			},
			{
				Description: "Score the configured model as well",
				Command:     "loganalyser evaluate --classifier --count 10",
			},
			{
				Description: "Keep the metrics for comparison",
				Command:     "loganalyser evaluate --results evaluation_results.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("evaluate", pflag.ContinueOnError)
			flags.IntVar(&count, "count", 30, "number of samples to evaluate")
			flags.Int64Var(&seed, "seed", 42, "random seed for reproducible samples")
			flags.BoolVar(&withClassifier, "classifier", false, "also score the configured model provider (makes model calls)")
			flags.StringVar(&configPath, "config", "", "configuration file path (overrides LOGANALYSER_CONFIG)")
			flags.StringVar(&resultsPath, "results", "", "write the metrics as JSON to this file")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("evaluate takes no positional arguments")
			}
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			samples := evaluation.NewGenerator(seed).Generate(count)
			results := evaluationResults{Extraction: evaluation.Evaluate(samples)}

			if withClassifier {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
				classifier, suggester, err := buildPipeline(cfg, logger)
				if err != nil {
					return err
				}
				metrics, err := evaluation.EvaluateClassifier(ctx, samples, classifier, suggester)
				if err != nil {
					return fmt.Errorf("classifier evaluation failed: %w", err)
				}
				results.Classifier = &metrics
			}

			printEvaluation(os.Stdout, results)

			if resultsPath != "" {
				if err := writeResults(resultsPath, results); err != nil {
					return err
				}
				fmt.Printf("results written to %s\n", resultsPath)
			}
			return nil
		},
	}
}

// evaluationResults bundles the deterministic extraction scores with
// the optional model scores for printing and JSON export.
type evaluationResults struct {
	Extraction evaluation.Metrics            `json:"extraction"`
	Classifier *evaluation.ClassifierMetrics `json:"classifier,omitempty"`
}

// maxPrintedFailures caps the failure listing in the printed report;
// the full list goes into the --results file.
const maxPrintedFailures = 5

func printEvaluation(w io.Writer, results evaluationResults) {
	banner := strings.Repeat("=", 60)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "EVALUATION REPORT")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Total Test Cases: %d\n", results.Extraction.TotalSamples)
	fmt.Fprintf(w, "Total Expected Errors: %d\n", results.Extraction.TotalErrors)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extraction Accuracy:")
	fmt.Fprintf(w, "  Error Count: %s\n", percent(results.Extraction.ErrorCountAccuracy))
	fmt.Fprintf(w, "  Cascading:   %s\n", percent(results.Extraction.CascadingAccuracy))
	fmt.Fprintf(w, "  Error Type:  %s\n", percent(results.Extraction.TypeAccuracy))
	fmt.Fprintf(w, "  Stage:       %s\n", percent(results.Extraction.StageAccuracy))
	fmt.Fprintf(w, "  Severity:    %s\n", percent(results.Extraction.SeverityAccuracy))
	fmt.Fprintf(w, "  Line Number: %s\n", percent(results.Extraction.LineNumberAccuracy))

	if results.Classifier != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Classification Accuracy:")
		fmt.Fprintf(w, "  Severity:   %s\n", percent(results.Classifier.SeverityAccuracy))
		fmt.Fprintf(w, "  Stage:      %s\n", percent(results.Classifier.StageAccuracy))
		fmt.Fprintf(w, "  Complexity: %s\n", percent(results.Classifier.ComplexityAccuracy))
		fmt.Fprintf(w, "  Overall:    %s\n", percent(results.Classifier.OverallAccuracy))

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fix Suggestions:")
		fmt.Fprintf(w, "  Average Count:      %.2f\n", results.Classifier.MeanSuggestions)
		fmt.Fprintf(w, "  Average Confidence: %s\n", percent(results.Classifier.MeanConfidence))
	}

	var failures []evaluation.Failure
	failures = append(failures, results.Extraction.Failures...)
	if results.Classifier != nil {
		failures = append(failures, results.Classifier.Failures...)
	}
	if len(failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failures: %d\n", len(failures))
		for i, failure := range failures {
			if i == maxPrintedFailures {
				fmt.Fprintf(w, "  ... and %d more\n", len(failures)-maxPrintedFailures)
				break
			}
			if failure.Want != "" {
				fmt.Fprintf(w, "  %s %s: want %s, got %s\n", failure.Sample, failure.Field, failure.Want, failure.Got)
			} else {
				fmt.Fprintf(w, "  %s %s: %s\n", failure.Sample, failure.Field, failure.Got)
			}
		}
	}
	fmt.Fprintln(w, banner)
}

func percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

func writeResults(path string, results evaluationResults) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
