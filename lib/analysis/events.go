// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import "github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"

// Event kinds, in the relative order a stream emits them. The set is
// closed: consumers may rely on never seeing another type.
const (
	EventClassification = "classification"
	EventParsedErrors   = "parsed_errors"
	EventSuggestion     = "suggestion"
	EventWord           = "word"
	EventComplete       = "complete"
	EventError          = "error"
)

// Event is one frame of an analysis stream.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ClassificationPayload opens the stream: the overall judgment with
// everything extraction and projection produced. The classification
// fields marshal inline.
type ClassificationPayload struct {
	buildlog.Classification

	Errors   []buildlog.ParsedError `json:"errors"`
	Insights []buildlog.Insight     `json:"error_insights"`
}

// ParsedErrorsPayload restates the error list so a consumer that
// attaches late, or one that only cares about extraction, need not
// unpick the classification event.
type ParsedErrorsPayload struct {
	Errors             []buildlog.ParsedError `json:"errors"`
	HasCascadingErrors bool                   `json:"has_cascading_errors"`
	ErrorCount         int                    `json:"error_count"`
}

// SuggestionPayload delivers one complete suggestion with its
// position: Index/Total count across the whole stream, ErrorIndex/
// ErrorTotal count within the targeted error's batch.
type SuggestionPayload struct {
	Index      int                    `json:"index"`
	Total      int                    `json:"total"`
	Suggestion buildlog.FixSuggestion `json:"suggestion"`
	ErrorIndex int                    `json:"error_index"`
	ErrorTotal int                    `json:"error_total"`
}

// WordPayload reveals one whitespace-delimited token of a
// suggestion's free text. Target names the destination field as
// "suggestion-<index>-<field>" so a consumer appends tokens to the
// right place without losing earlier ones.
type WordPayload struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

// CompletePayload terminates a successful stream.
type CompletePayload struct {
	Status           string `json:"status"`
	TotalSuggestions int    `json:"total_suggestions"`
	ErrorCount       int    `json:"error_count"`
}

// ErrorPayload terminates a failed stream. Complete and error events
// are mutually exclusive and always last.
type ErrorPayload struct {
	Detail string `json:"detail"`
}
