// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

// EmitFunc receives one stream event. Returning an error stops the
// stream immediately: no further collaborator calls, no terminal
// event.
type EmitFunc func(Event) error

// AnalyzeStream runs the pipeline over rawLog and delivers results
// through emit as they become available: classification first, then
// the parsed errors, then each suggestion followed by the
// word-by-word reveal of its text fields, then exactly one terminal
// complete or error event.
//
// Pipeline failures are delivered in-band as the terminal error
// event; AnalyzeStream returns an error only when emit itself fails,
// which means the consumer is gone and nothing more should be
// computed.
func (analyzer *Analyzer) AnalyzeStream(ctx context.Context, rawLog string, emit EmitFunc) error {
	errorLog := analyzer.parser.Parse(rawLog)
	if len(errorLog.Errors) == 0 {
		return emit(Event{Type: EventError, Payload: ErrorPayload{Detail: InvalidLogDetail}})
	}

	classification, err := analyzer.classifier.Classify(ctx, *errorLog)
	if err != nil {
		analyzer.logger.Error("stream classification failed",
			"fingerprint", buildlog.Fingerprint(rawLog), "error", err)
		return emit(Event{Type: EventError, Payload: ErrorPayload{Detail: err.Error()}})
	}

	if err := emit(Event{Type: EventClassification, Payload: ClassificationPayload{
		Classification: classification,
		Errors:         errorLog.Errors,
		Insights:       buildlog.ProjectInsights(errorLog, classification),
	}}); err != nil {
		return err
	}
	if err := emit(Event{Type: EventParsedErrors, Payload: ParsedErrorsPayload{
		Errors:             errorLog.Errors,
		HasCascadingErrors: errorLog.HasCascadingErrors,
		ErrorCount:         len(errorLog.Errors),
	}}); err != nil {
		return err
	}

	suggestions, err := analyzer.suggester.Suggest(ctx, *errorLog, classification)
	if err != nil {
		analyzer.logger.Error("stream suggestions failed",
			"fingerprint", buildlog.Fingerprint(rawLog), "error", err)
		return emit(Event{Type: EventError, Payload: ErrorPayload{Detail: err.Error()}})
	}

	perError := make([]int, len(errorLog.Errors))
	for index, suggestion := range suggestions {
		// The suggester pins valid indices; clamping guards the
		// stream invariant against any other implementation.
		suggestion.ErrorIndex = clampErrorIndex(suggestion.ErrorIndex, len(errorLog.Errors))
		perError[suggestion.ErrorIndex]++

		if err := emit(Event{Type: EventSuggestion, Payload: SuggestionPayload{
			Index:      index,
			Total:      index + 1,
			Suggestion: suggestion,
			ErrorIndex: suggestion.ErrorIndex,
			ErrorTotal: perError[suggestion.ErrorIndex],
		}}); err != nil {
			return err
		}
		if err := streamWords(emit, index, suggestion); err != nil {
			return err
		}
	}

	return emit(Event{Type: EventComplete, Payload: CompletePayload{
		Status:           "ok",
		TotalSuggestions: len(suggestions),
		ErrorCount:       len(errorLog.Errors),
	}})
}

// streamWords reveals a suggestion's free-text fields one token at a
// time. The root-cause target suffix is "root": that is the element
// id the playground page binds to.
func streamWords(emit EmitFunc, index int, suggestion buildlog.FixSuggestion) error {
	fields := []struct {
		suffix string
		text   string
	}{
		{"description", suggestion.Description},
		{"root", suggestion.RootCause},
		{"code_before", suggestion.CodeBefore},
		{"code_after", suggestion.CodeAfter},
	}
	for _, field := range fields {
		target := fmt.Sprintf("suggestion-%d-%s", index, field.suffix)
		for _, token := range strings.Fields(field.text) {
			if err := emit(Event{Type: EventWord, Payload: WordPayload{Target: target, Text: token}}); err != nil {
				return err
			}
		}
	}
	return nil
}

// clampErrorIndex forces an index into [0, count). count is at least
// 1 here: the stream ends early when extraction finds nothing.
func clampErrorIndex(index, count int) int {
	if index < 0 {
		return 0
	}
	if index >= count {
		return count - 1
	}
	return index
}
