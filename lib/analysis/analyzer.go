// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

// ErrInvalidLog is returned when extraction finds no errors in the
// submitted log: there is nothing to classify. Transports map it to
// a client error with InvalidLogDetail.
var ErrInvalidLog = errors.New("no errors found in log")

// InvalidLogDetail is the client-facing explanation for ErrInvalidLog.
const InvalidLogDetail = "No errors found in log. Please check the log format."

// Classifier produces the overall judgment for a parsed log.
type Classifier interface {
	Classify(ctx context.Context, errorLog buildlog.ErrorLog) (buildlog.Classification, error)
}

// Suggester produces fix suggestions for a parsed log, at least one
// per parsed error, each tagged with the index of the error it
// targets.
type Suggester interface {
	Suggest(ctx context.Context, errorLog buildlog.ErrorLog, classification buildlog.Classification) ([]buildlog.FixSuggestion, error)
}

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	// Classifier judges the overall log. Required.
	Classifier Classifier

	// Suggester proposes fixes per parsed error. Required.
	Suggester Suggester

	// Parser extracts structured errors from raw logs. Defaults to
	// buildlog.NewParser().
	Parser *buildlog.Parser

	// Logger records per-log outcomes. Required.
	Logger *slog.Logger
}

// Analyzer runs the analysis pipeline. Safe for concurrent use.
type Analyzer struct {
	parser     *buildlog.Parser
	classifier Classifier
	suggester  Suggester
	logger     *slog.Logger
}

// NewAnalyzer creates an Analyzer. Panics if required config fields
// are missing.
func NewAnalyzer(config AnalyzerConfig) *Analyzer {
	if config.Classifier == nil {
		panic("analysis.Analyzer: Classifier is required")
	}
	if config.Suggester == nil {
		panic("analysis.Analyzer: Suggester is required")
	}
	if config.Logger == nil {
		panic("analysis.Analyzer: Logger is required")
	}
	parser := config.Parser
	if parser == nil {
		parser = buildlog.NewParser()
	}
	return &Analyzer{
		parser:     parser,
		classifier: config.Classifier,
		suggester:  config.Suggester,
		logger:     config.Logger,
	}
}

// Analyze runs the full pipeline over one raw log and returns the
// complete report: parse, classify, suggest, project insights.
// Returns ErrInvalidLog when extraction finds nothing; collaborator
// transport errors are returned as-is.
func (analyzer *Analyzer) Analyze(ctx context.Context, rawLog string) (*buildlog.Report, error) {
	started := time.Now()

	errorLog := analyzer.parser.Parse(rawLog)
	if len(errorLog.Errors) == 0 {
		return nil, ErrInvalidLog
	}

	classification, err := analyzer.classifier.Classify(ctx, *errorLog)
	if err != nil {
		return nil, err
	}

	suggestions, err := analyzer.suggester.Suggest(ctx, *errorLog, classification)
	if err != nil {
		return nil, err
	}

	analyzer.logger.Info("analyzed build log",
		"fingerprint", buildlog.Fingerprint(rawLog),
		"errors", len(errorLog.Errors),
		"suggestions", len(suggestions),
		"severity", classification.Severity,
		"stage", classification.Stage,
		"duration", time.Since(started))

	return &buildlog.Report{
		Classification: classification,
		Suggestions:    suggestions,
		ParsedErrors:   errorLog.Errors,
		ErrorInsights:  buildlog.ProjectInsights(errorLog, classification),
	}, nil
}
