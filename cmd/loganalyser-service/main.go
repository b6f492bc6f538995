// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/analysis"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/classify"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/config"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/process"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/service"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var showVersion bool
	var configPath string
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.StringVar(&configPath, "config", "", "configuration file path (overrides LOGANALYSER_CONFIG)")
	flag.Parse()

	if showVersion {
		version.Print("loganalyser-service")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	analyzerService := &AnalyzerService{
		analyzer: analyzer,
		logger:   logger,
	}

	server := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.ListenAddress,
		Handler: analyzerService.Handler(),
		Logger:  logger,
	})

	logger.Info("log analyser service starting",
		"address", cfg.ListenAddress,
		"provider", cfg.Provider.Kind,
		"model", cfg.Provider.Model,
	)

	return server.Serve(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	options := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, options)
	} else {
		handler = slog.NewTextHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// buildAnalyzer assembles the model provider and the two pipeline
// collaborators from validated configuration.
func buildAnalyzer(cfg *config.Config, logger *slog.Logger) (*analysis.Analyzer, error) {
	httpClient := &http.Client{Timeout: cfg.Provider.TimeoutDuration()}

	var provider llm.Provider
	switch cfg.Provider.Kind {
	case config.ProviderAnthropic:
		provider = llm.NewAnthropic(httpClient, cfg.Provider.APIKey, cfg.Provider.BaseURL)
	case config.ProviderOpenAI:
		provider = llm.NewOpenAI(httpClient, cfg.Provider.APIKey, cfg.Provider.BaseURL)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
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

	return analysis.NewAnalyzer(analysis.AnalyzerConfig{
		Classifier: classifier,
		Suggester:  suggester,
		Logger:     logger,
	}), nil
}
