// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

import "strings"

// SnippetLimit is the maximum insight snippet length in characters,
// before the truncation marker.
const SnippetLimit = 220

// ProjectInsights derives one display Insight per parsed error. Each
// insight carries the error's stage, severity, and location, the
// error's own complexity when set (falling back to the overall
// classification's), and a bounded snippet built from the message and
// context lines. Pure function: neither input is modified.
func ProjectInsights(log *ErrorLog, classification Classification) []Insight {
	insights := make([]Insight, 0, len(log.Errors))
	for _, parsed := range log.Errors {
		complexity := parsed.Complexity
		if complexity == "" {
			complexity = classification.Complexity
		}
		insights = append(insights, Insight{
			Stage:      parsed.Stage,
			Severity:   parsed.Severity,
			Complexity: complexity,
			LineNumber: parsed.LineNumber,
			FilePath:   parsed.FilePath,
			Snippet:    buildSnippet(parsed),
		})
	}
	return insights
}

// buildSnippet joins an error's message with its context lines using
// a pipe separator and truncates the result to SnippetLimit
// characters, appending "..." when it was longer. Returns "" when
// there is nothing to show.
func buildSnippet(parsed ParsedError) string {
	parts := make([]string, 0, 1+len(parsed.Context))
	if message := strings.TrimSpace(parsed.Message); message != "" {
		parts = append(parts, message)
	}
	for _, line := range parsed.Context {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	snippet := strings.Join(parts, " | ")
	if runes := []rune(snippet); len(runes) > SnippetLimit {
		snippet = string(runes[:SnippetLimit]) + "..."
	}
	return snippet
}
