// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
)

// testClassification pairs with testErrorLog: a blocking, trivial
// IEC compilation failure. Deterministic confidence for it is 0.75
// at position 0, decaying 0.02 per position.
func testClassification() buildlog.Classification {
	return buildlog.Classification{
		Severity:   buildlog.SeverityBlocking,
		Stage:      buildlog.StageIECCompilation,
		Complexity: buildlog.ComplexityTrivial,
		Reasoning:  "CONST assignment at program0.st:12 stops the build.",
	}
}

const validSuggestionsJSON = `[
  {
    "title": "Remove the CONSTANT qualifier",
    "description": "Drop CONSTANT from the VAR block so the assignment compiles.",
    "root_cause": "The generator emitted an assignment to a variable declared CONSTANT.",
    "code_before": "VAR CONSTANT\n  limit : INT := 10;\nEND_VAR",
    "code_after": "VAR\n  limit : INT := 10;\nEND_VAR",
    "confidence": 0.1,
    "error_index": 7
  },
  {
    "title": "Assign through a writable working variable",
    "description": "Introduce a non-constant variable and assign to it instead of the constant.",
    "root_cause": "The generator emitted an assignment to a variable declared CONSTANT.",
    "code_before": null,
    "code_after": null,
    "confidence": 0.99,
    "error_index": 7
  }
]`

func newTestSuggester(provider *mockProvider) *Suggester {
	return NewSuggester(SuggesterConfig{
		Provider: provider,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSuggestSingleError(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{text: validSuggestionsJSON}
	suggester := newTestSuggester(provider)

	suggestions, err := suggester.Suggest(t.Context(), testErrorLog(), testClassification())
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(suggestions))
	}

	first := suggestions[0]
	if first.Title != "Remove the CONSTANT qualifier" {
		t.Errorf("Title = %q", first.Title)
	}
	if !strings.Contains(first.CodeBefore, "VAR CONSTANT") {
		t.Errorf("CodeBefore = %q, want the before snippet", first.CodeBefore)
	}
	if !almostEqual(first.Confidence, 0.75) {
		t.Errorf("Confidence[0] = %v, want 0.75 (deterministic, not the model's 0.1)", first.Confidence)
	}

	second := suggestions[1]
	if second.CodeBefore != "" || second.CodeAfter != "" {
		t.Errorf("null code snippets decoded to %q / %q, want empty", second.CodeBefore, second.CodeAfter)
	}
	if !almostEqual(second.Confidence, 0.73) {
		t.Errorf("Confidence[1] = %v, want 0.73", second.Confidence)
	}

	for i, suggestion := range suggestions {
		if suggestion.ErrorIndex != 0 {
			t.Errorf("ErrorIndex[%d] = %d, want 0 (the model's 7 must be ignored)", i, suggestion.ErrorIndex)
		}
	}
}

func TestSuggestRequestShape(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{text: validSuggestionsJSON}
	suggester := newTestSuggester(provider)

	if _, err := suggester.Suggest(t.Context(), testErrorLog(), testClassification()); err != nil {
		t.Fatalf("Suggest: %v", err)
	}

	requests := provider.recordedRequests()
	if len(requests) != 1 {
		t.Fatalf("provider saw %d requests, want 1", len(requests))
	}
	request := requests[0]
	if request.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", request.Model, DefaultModel)
	}
	if request.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d, want 2048", request.MaxTokens)
	}

	prompt := request.Messages[0].Content[0].Text
	for _, want := range []string{
		"Target Error Index: 0",
		"- Severity: blocking",
		"- Stage: iec_compilation",
		"- Complexity: trivial",
		"Error 1:\n  Type: IECCompilationError",
		"  Line: 12",
		"  File: program0.st",
		"  Context: matiec: bailing out!",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSuggestCapsPerError(t *testing.T) {
	t.Parallel()

	var items []string
	for i := 1; i <= 5; i++ {
		items = append(items, fmt.Sprintf(`{
  "title": "Fix %d",
  "description": "Apply fix %d.",
  "root_cause": "Shared root cause.",
  "code_before": null,
  "code_after": null,
  "confidence": 0.5,
  "error_index": 0
}`, i, i))
	}
	provider := &mockProvider{text: "[" + strings.Join(items, ",") + "]"}
	suggester := newTestSuggester(provider)

	suggestions, err := suggester.Suggest(t.Context(), testErrorLog(), testClassification())
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 3 {
		t.Fatalf("got %d suggestions, want cap of 3", len(suggestions))
	}
	for i, suggestion := range suggestions {
		wantTitle := fmt.Sprintf("Fix %d", i+1)
		if suggestion.Title != wantTitle {
			t.Errorf("Title[%d] = %q, want %q", i, suggestion.Title, wantTitle)
		}
		wantConfidence := 0.75 - 0.02*float64(i)
		if !almostEqual(suggestion.Confidence, wantConfidence) {
			t.Errorf("Confidence[%d] = %v, want %v", i, suggestion.Confidence, wantConfidence)
		}
	}
}

func TestSuggestIgnoresMalformedItemsPastCap(t *testing.T) {
	t.Parallel()

	// Three usable items followed by a truncated fourth: the cap is
	// applied before validation, so the junk item must not spoil the
	// kept ones.
	provider := &mockProvider{text: `[
  {"title": "Fix 1", "description": "d", "root_cause": "r", "confidence": 0.9, "error_index": 0},
  {"title": "Fix 2", "description": "d", "root_cause": "r", "confidence": 0.8, "error_index": 0},
  {"title": "Fix 3", "description": "d", "root_cause": "r", "confidence": 0.7, "error_index": 0},
  {"title": "Fix 4"}
]`}
	suggester := newTestSuggester(provider)

	suggestions, err := suggester.Suggest(t.Context(), testErrorLog(), testClassification())
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(suggestions))
	}
	if suggestions[2].Title != "Fix 3" {
		t.Errorf("Title[2] = %q, want %q", suggestions[2].Title, "Fix 3")
	}
}

func TestSuggestDefaultOnUnusableReply(t *testing.T) {
	t.Parallel()

	replies := map[string]string{
		"empty array":    "[]",
		"not JSON":       "Sorry, I cannot help with that.",
		"missing fields": `[{"title": "Fix something"}]`,
		"object reply":   `{"title": "Fix", "description": "d", "root_cause": "r"}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			provider := &mockProvider{text: reply}
			suggester := newTestSuggester(provider)

			suggestions, err := suggester.Suggest(t.Context(), testErrorLog(), testClassification())
			if err != nil {
				t.Fatalf("Suggest: %v", err)
			}
			if len(suggestions) != 1 {
				t.Fatalf("got %d suggestions, want the single default", len(suggestions))
			}
			suggestion := suggestions[0]
			if suggestion.Title != "Review Error Log" {
				t.Errorf("Title = %q, want %q", suggestion.Title, "Review Error Log")
			}
			if suggestion.RootCause != "Insufficient context to determine root cause" {
				t.Errorf("RootCause = %q", suggestion.RootCause)
			}
			if !almostEqual(suggestion.Confidence, 0.75) {
				t.Errorf("Confidence = %v, want position-0 deterministic score", suggestion.Confidence)
			}
			if suggestion.ErrorIndex != 0 {
				t.Errorf("ErrorIndex = %d, want 0", suggestion.ErrorIndex)
			}
		})
	}
}

// multiErrorLog returns a log with three parsed errors so fan-out
// ordering is observable.
func multiErrorLog() buildlog.ErrorLog {
	base := testErrorLog()
	second := base.Errors[0]
	second.ErrorType = "XMLValidationError"
	second.Stage = buildlog.StageXMLValidation
	second.Message = "Element 'pou': missing required attribute 'pouType'."
	third := base.Errors[0]
	third.ErrorType = "AttributeError"
	third.Stage = buildlog.StageCodeGeneration
	third.Message = "'NoneType' object has no attribute 'localId'"
	base.Errors = append(base.Errors, second, third)
	base.HasCascadingErrors = true
	return base
}

// targetReply builds a one-suggestion reply whose title names the
// target index baked into the prompt, so order and targeting are
// checkable after concurrent fan-out. The error_index the model
// reports is deliberately wrong.
func targetReply(request llm.Request) string {
	prompt := request.Messages[0].Content[0].Text
	for target := range 3 {
		if strings.Contains(prompt, fmt.Sprintf("Target Error Index: %d", target)) {
			return fmt.Sprintf(`[{
  "title": "Fix for error %d",
  "description": "Apply the fix.",
  "root_cause": "Root cause.",
  "confidence": 0.5,
  "error_index": 99
}]`, target)
		}
	}
	return "[]"
}

func TestSuggestKeepsLogOrder(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{reply: targetReply}
	suggester := NewSuggester(SuggesterConfig{
		Provider: provider,
		Workers:  3,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	suggestions, err := suggester.Suggest(t.Context(), multiErrorLog(), testClassification())
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 3 {
		t.Fatalf("got %d suggestions, want 3 (one per error)", len(suggestions))
	}
	for i, suggestion := range suggestions {
		wantTitle := fmt.Sprintf("Fix for error %d", i)
		if suggestion.Title != wantTitle {
			t.Errorf("Title[%d] = %q, want %q (log order lost)", i, suggestion.Title, wantTitle)
		}
		if suggestion.ErrorIndex != i {
			t.Errorf("ErrorIndex[%d] = %d, want %d (the model's 99 must be ignored)", i, suggestion.ErrorIndex, i)
		}
	}

	if requests := provider.recordedRequests(); len(requests) != 3 {
		t.Errorf("provider saw %d requests, want 3", len(requests))
	}
}

func TestSuggestEachPromptNamesItsTarget(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{reply: targetReply}
	suggester := newTestSuggester(provider)

	if _, err := suggester.Suggest(t.Context(), multiErrorLog(), testClassification()); err != nil {
		t.Fatalf("Suggest: %v", err)
	}

	// Fan-out order is not deterministic; collect the targets seen.
	seen := make(map[int]bool)
	for _, request := range provider.recordedRequests() {
		prompt := request.Messages[0].Content[0].Text
		for target := range 3 {
			if strings.Contains(prompt, fmt.Sprintf("Target Error Index: %d", target)) {
				seen[target] = true
			}
		}
		if !strings.Contains(prompt, "Error 3:\n  Type: AttributeError") {
			t.Error("prompt missing the full parsed-error context")
		}
	}
	for target := range 3 {
		if !seen[target] {
			t.Errorf("no prompt targeted error %d", target)
		}
	}
}

func TestSuggestNoErrors(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{text: validSuggestionsJSON}
	suggester := newTestSuggester(provider)

	suggestions, err := suggester.Suggest(t.Context(), buildlog.ErrorLog{RawLog: "clean build"}, testClassification())
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if suggestions != nil {
		t.Errorf("got %d suggestions for an error-free log, want none", len(suggestions))
	}
	if requests := provider.recordedRequests(); len(requests) != 0 {
		t.Errorf("provider saw %d requests, want 0", len(requests))
	}
}

func TestSuggestTransportError(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("connection reset")
	provider := &mockProvider{err: transportErr}
	suggester := newTestSuggester(provider)

	_, err := suggester.Suggest(t.Context(), testErrorLog(), testClassification())
	if err == nil {
		t.Fatal("Suggest succeeded, want transport error")
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("error = %v, want wrapped transport error", err)
	}
}

func TestNewSuggesterPanicsOnMissingConfig(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name   string
		config SuggesterConfig
	}{
		{"missing provider", SuggesterConfig{Logger: logger}},
		{"missing logger", SuggesterConfig{Provider: &mockProvider{}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Error("NewSuggester did not panic")
				}
			}()
			NewSuggester(test.config)
		})
	}
}
