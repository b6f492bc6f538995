// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rabiesofany/TheLogAnalyserApp/cmd/loganalyser/cli"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/analysis"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/classify"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/config"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/service"
)

// remoteTimeout bounds a non-streaming service round trip. Generous
// because the service itself waits on model provider calls.
const remoteTimeout = 5 * time.Minute

func classifyCommand() *cli.Command {
	var (
		serverURL  string
		streamMode bool
		jsonOutput bool
		configPath string
	)
	return &cli.Command{
		Name:    "classify",
		Summary: "Classify a build log and suggest fixes",
		Description: `Classify reads a PLC build log, classifies its errors by severity,
pipeline stage, and fix complexity, and proposes concrete fixes.

The log comes from the positional file argument, or from stdin when
the argument is "-" or absent. By default the analysis runs
in-process using the configured model provider; --server sends the
log to a running loganalyser-service instead.`,
		Usage: "loganalyser classify [flags] [logfile]",
		Examples: []cli.Example{
			{
				Description: "Analyse a log file with the local configuration",
				Command:     "loganalyser classify build.log",
			},
			{
				Description: "Pipe a build log through a running service",
				Command:     "matiec program.st 2>&1 | loganalyser classify --server http://localhost:8000",
			},
			{
				Description: "Watch results arrive as the model produces them",
				Command:     "loganalyser classify --stream build.log",
			},
			{
				Description: "Raw JSON for scripting",
				Command:     "loganalyser classify --json build.log | jq .classification.severity",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("classify", pflag.ContinueOnError)
			flags.StringVar(&serverURL, "server", "", "analyse via a running service at this base URL instead of in-process")
			flags.BoolVar(&streamMode, "stream", false, "stream results as they are produced")
			flags.BoolVar(&jsonOutput, "json", false, "print the raw JSON report (with --stream, one event per line)")
			flags.StringVar(&configPath, "config", "", "configuration file path (overrides LOGANALYSER_CONFIG)")
			return flags
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one logfile argument, got %d", len(args))
			}
			rawLog, err := readLogInput(args)
			if err != nil {
				return err
			}

			if serverURL != "" {
				if streamMode {
					return classifyRemoteStream(ctx, serverURL, rawLog, jsonOutput)
				}
				return classifyRemote(ctx, serverURL, rawLog, jsonOutput)
			}
			if streamMode {
				return classifyLocalStream(ctx, logger, configPath, rawLog, jsonOutput)
			}
			return classifyLocal(ctx, logger, configPath, rawLog, jsonOutput)
		},
	}
}

// readLogInput loads the raw log from the positional argument, or
// from stdin when none is given or it is "-".
func readLogInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading log from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading log file: %w", err)
	}
	return string(data), nil
}

func classifyLocal(ctx context.Context, logger *slog.Logger, configPath, rawLog string, jsonOutput bool) error {
	analyzer, err := newLocalAnalyzer(logger, configPath)
	if err != nil {
		return err
	}

	report, err := analyzer.Analyze(ctx, rawLog)
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidLog) {
			fmt.Fprintln(os.Stderr, analysis.InvalidLogDetail)
			return &cli.ExitError{Code: 1}
		}
		return fmt.Errorf("classification failed: %w", err)
	}
	return printReport(os.Stdout, report, jsonOutput)
}

func classifyLocalStream(ctx context.Context, logger *slog.Logger, configPath, rawLog string, jsonOutput bool) error {
	analyzer, err := newLocalAnalyzer(logger, configPath)
	if err != nil {
		return err
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	events := make(chan analysis.Event, 64)
	go func() {
		defer close(events)
		err := analyzer.AnalyzeStream(streamCtx, rawLog, func(event analysis.Event) error {
			select {
			case events <- event:
				return nil
			case <-streamCtx.Done():
				return streamCtx.Err()
			}
		})
		if err != nil && streamCtx.Err() == nil {
			logger.Error("stream aborted", "error", err)
		}
	}()
	// Cancel unblocks the producer if the consumer quit early, then
	// drain until the close.
	defer func() {
		cancelStream()
		for range events {
		}
	}()

	return finishStream(events, jsonOutput)
}

func classifyRemote(ctx context.Context, serverURL, rawLog string, jsonOutput bool) error {
	request, err := newClassifyRequest(ctx, serverURL, "/classify", rawLog)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: remoteTimeout}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("contacting %s: %w", serverURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return remoteError(response)
	}
	var report buildlog.Report
	if err := json.NewDecoder(response.Body).Decode(&report); err != nil {
		return fmt.Errorf("decoding report: %w", err)
	}
	return printReport(os.Stdout, &report, jsonOutput)
}

func classifyRemoteStream(ctx context.Context, serverURL, rawLog string, jsonOutput bool) error {
	request, err := newClassifyRequest(ctx, serverURL, "/classify/stream", rawLog)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open for the whole
	// analysis. ctx cancellation tears the connection down.
	client := &http.Client{}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("contacting %s: %w", serverURL, err)
	}

	if response.StatusCode != http.StatusOK {
		defer response.Body.Close()
		return remoteError(response)
	}

	events := make(chan analysis.Event, 64)
	decodeFailed := make(chan error, 1)
	go func() {
		defer close(events)
		defer response.Body.Close()
		scanner := service.NewSSEScanner(response.Body)
		for scanner.Next() {
			event, err := decodeEvent([]byte(scanner.Event().Data))
			if err != nil {
				decodeFailed <- err
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
		// A scanner error surfaces as a truncated stream, which the
		// consumer reports as an early end.
	}()

	streamErr := finishStream(events, jsonOutput)
	select {
	case err := <-decodeFailed:
		return err
	default:
	}
	return streamErr
}

// newClassifyRequest builds the POST request both service endpoints
// share: a JSON body carrying the raw log.
func newClassifyRequest(ctx context.Context, serverURL, path, rawLog string) (*http.Request, error) {
	body, err := json.Marshal(map[string]string{"error_log": rawLog})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	url := strings.TrimSuffix(serverURL, "/") + path
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	request.Header.Set("Content-Type", "application/json")
	return request, nil
}

// remoteError maps a non-200 service response to a command error. A
// 400 is the service saying the log had no recognizable errors; that
// prints the detail and exits 1, matching the in-process path.
func remoteError(response *http.Response) error {
	detail := readDetail(response)
	if response.StatusCode == http.StatusBadRequest {
		fmt.Fprintln(os.Stderr, detail)
		return &cli.ExitError{Code: 1}
	}
	return fmt.Errorf("server returned %s: %s", response.Status, detail)
}

// readDetail extracts the "detail" field from an error response,
// falling back to the raw body, then the status line.
func readDetail(response *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return response.Status
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(bytes.TrimSpace(body))
}

// finishStream consumes the event channel in the selected output
// mode and converts the stream's terminal state into the command's
// exit behavior.
func finishStream(events <-chan analysis.Event, jsonOutput bool) error {
	if jsonOutput {
		return printStreamJSON(os.Stdout, events)
	}
	failure, err := consumeStream(events, os.Stdout)
	if err != nil {
		return err
	}
	return streamFailureError(failure)
}

// streamFailureError turns a terminal error detail into the command
// error. The no-errors-found detail prints as a plain explanation
// and exits 1; anything else is a real failure.
func streamFailureError(failure string) error {
	switch failure {
	case "":
		return nil
	case analysis.InvalidLogDetail:
		fmt.Fprintln(os.Stderr, failure)
		return &cli.ExitError{Code: 1}
	}
	return errors.New(failure)
}

// printStreamJSON writes every event as one JSON line, the same
// envelopes the service puts on the wire.
func printStreamJSON(output io.Writer, events <-chan analysis.Event) error {
	encoder := json.NewEncoder(output)
	failure := ""
	sawTerminal := false
	for event := range events {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("encoding stream event: %w", err)
		}
		switch event.Type {
		case analysis.EventComplete:
			sawTerminal = true
		case analysis.EventError:
			sawTerminal = true
			if payload, ok := event.Payload.(analysis.ErrorPayload); ok {
				failure = payload.Detail
			}
		}
	}
	if !sawTerminal && failure == "" {
		failure = "stream ended before completion"
	}
	return streamFailureError(failure)
}

// printReport writes the final report, rendered for the terminal or
// as indented JSON.
func printReport(output *os.File, report *buildlog.Report, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	renderer := newReportRenderer(output)
	fmt.Fprintln(output, renderer.Report(report))
	return nil
}

// newLocalAnalyzer assembles the full analysis pipeline from
// configuration, exactly as the service does at startup.
func newLocalAnalyzer(logger *slog.Logger, configPath string) (*analysis.Analyzer, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return buildAnalyzer(cfg, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func buildAnalyzer(cfg *config.Config, logger *slog.Logger) (*analysis.Analyzer, error) {
	classifier, suggester, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}
	return analysis.NewAnalyzer(analysis.AnalyzerConfig{
		Classifier: classifier,
		Suggester:  suggester,
		Logger:     logger,
	}), nil
}

// buildPipeline assembles the model provider and the two pipeline
// collaborators from validated configuration.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*classify.Classifier, *classify.Suggester, error) {
	httpClient := &http.Client{Timeout: cfg.Provider.TimeoutDuration()}

	var provider llm.Provider
	switch cfg.Provider.Kind {
	case config.ProviderAnthropic:
		provider = llm.NewAnthropic(httpClient, cfg.Provider.APIKey, cfg.Provider.BaseURL)
	case config.ProviderOpenAI:
		provider = llm.NewOpenAI(httpClient, cfg.Provider.APIKey, cfg.Provider.BaseURL)
	default:
		return nil, nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}

	classifier := classify.NewClassifier(classify.ClassifierConfig{
		Provider:  provider,
		Model:     cfg.Provider.Model,
		MaxTokens: cfg.Provider.MaxTokens,
		Logger:    logger,
	})
	suggester := classify.NewSuggester(classify.SuggesterConfig{
		Provider:    provider,
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Workers:     cfg.Suggestions.Workers,
		MaxPerError: cfg.Suggestions.MaxPerError,
		Logger:      logger,
	})
	return classifier, suggester, nil
}
