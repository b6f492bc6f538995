// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"golang.org/x/sync/errgroup"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
)

const (
	defaultSuggesterMaxTokens = 2048
	defaultSuggestionWorkers  = 3
	defaultMaxPerError        = 3
)

// SuggesterConfig configures a Suggester.
type SuggesterConfig struct {
	// Provider executes the model requests. Required.
	Provider llm.Provider

	// Model names the model to request. Defaults to DefaultModel.
	Model string

	// MaxTokens caps each reply. Defaults to 2048: suggestions carry
	// code snippets and need more room than a classification.
	MaxTokens int

	// Workers bounds how many model calls run concurrently when a
	// log has several parsed errors. Defaults to 3.
	Workers int

	// MaxPerError caps the suggestions kept per parsed error.
	// Defaults to 3.
	MaxPerError int

	// Logger records parse fallbacks and outcomes. Required.
	Logger *slog.Logger
}

// Suggester generates fix suggestions for the parsed errors of a
// build log, one model call per error.
type Suggester struct {
	provider    llm.Provider
	model       string
	maxTokens   int
	workers     int
	maxPerError int
	logger      *slog.Logger
}

// NewSuggester creates a Suggester. Panics if required config fields
// are missing.
func NewSuggester(config SuggesterConfig) *Suggester {
	if config.Provider == nil {
		panic("classify.Suggester: Provider is required")
	}
	if config.Logger == nil {
		panic("classify.Suggester: Logger is required")
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultSuggesterMaxTokens
	}
	workers := config.Workers
	if workers == 0 {
		workers = defaultSuggestionWorkers
	}
	maxPerError := config.MaxPerError
	if maxPerError == 0 {
		maxPerError = defaultMaxPerError
	}
	return &Suggester{
		provider:    config.Provider,
		model:       model,
		maxTokens:   maxTokens,
		workers:     workers,
		maxPerError: maxPerError,
		logger:      config.Logger,
	}
}

// Suggest generates fix suggestions for every parsed error in the
// log. Each error gets its own model call; calls run concurrently up
// to the worker limit, and the combined result keeps log order: all
// suggestions for error 0, then error 1, and so on. Every error
// yields at least one suggestion and at most MaxPerError. The first
// transport error cancels the remaining calls and fails the whole
// operation.
func (suggester *Suggester) Suggest(ctx context.Context, errorLog buildlog.ErrorLog, classification buildlog.Classification) ([]buildlog.FixSuggestion, error) {
	if len(errorLog.Errors) == 0 {
		return nil, nil
	}

	slots := make([][]buildlog.FixSuggestion, len(errorLog.Errors))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(suggester.workers)
	for index := range errorLog.Errors {
		group.Go(func() error {
			suggestions, err := suggester.suggestForError(groupCtx, errorLog, classification, index)
			if err != nil {
				return err
			}
			slots[index] = suggestions
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	combined := make([]buildlog.FixSuggestion, 0, len(slots))
	for _, suggestions := range slots {
		combined = append(combined, suggestions...)
	}
	return combined, nil
}

// suggestForError runs one model call targeting a single parsed
// error. The model's reply is untrusted: an unusable reply degrades
// to the generic default suggestion instead of failing, and the
// model's self-reported confidence and targeting are discarded.
// Confidence comes from the policy tables and error_index is pinned
// to the error this call was made for.
func (suggester *Suggester) suggestForError(ctx context.Context, errorLog buildlog.ErrorLog, classification buildlog.Classification, index int) ([]buildlog.FixSuggestion, error) {
	prompt := suggestionPrompt(errorLog, classification, index)

	response, err := suggester.provider.Complete(ctx, llm.Request{
		Model:     suggester.model,
		Messages:  []llm.Message{llm.UserMessage(prompt)},
		MaxTokens: suggester.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("suggesting fixes for error %d: %w", index, err)
	}

	suggestions, err := parseSuggestions(response.TextContent(), suggester.maxPerError)
	if err != nil {
		suggester.logger.Warn("suggestion reply fell back to default",
			"error_index", index, "error", err)
	}
	if len(suggestions) == 0 {
		suggestions = []buildlog.FixSuggestion{defaultSuggestion()}
	}

	for position := range suggestions {
		suggestions[position].Confidence = buildlog.SuggestionConfidence(classification, position)
		suggestions[position].ErrorIndex = index
	}

	suggester.logger.Debug("generated fix suggestions",
		"error_index", index,
		"count", len(suggestions),
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)
	return suggestions, nil
}

// suggestionPrompt renders the fix-suggestion request for one parsed
// error: the authoritative classification, every parsed error for
// context, the index of the error this call targets, and the
// truncated raw log.
func suggestionPrompt(errorLog buildlog.ErrorLog, classification buildlog.Classification, target int) string {
	return fmt.Sprintf(suggestionTemplate,
		classification.Severity,
		classification.Stage,
		classification.Complexity,
		classification.Reasoning,
		errorsDetail(errorLog.Errors),
		target,
		clip(errorLog.RawLog, promptRawLogLimit))
}

// errorsDetail renders the per-error blocks of the suggestion
// prompt. Blocks are numbered from 1 for readability; the zero-based
// target index is given separately.
func errorsDetail(errors []buildlog.ParsedError) string {
	blocks := make([]string, len(errors))
	for i, parsed := range errors {
		blocks[i] = fmt.Sprintf("Error %d:\n  Type: %s\n  Stage: %s\n  Message: %s\n  Line: %s\n  File: %s\n  Context: %s",
			i+1,
			parsed.ErrorType,
			parsed.Stage,
			parsed.Message,
			lineNumberOrNA(parsed.LineNumber),
			stringOrNA(parsed.FilePath),
			contextPreview(parsed.Context))
	}
	return strings.Join(blocks, "\n")
}

func lineNumberOrNA(line *int) string {
	if line == nil {
		return "N/A"
	}
	return strconv.Itoa(*line)
}

func stringOrNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

// contextPreview shows at most the first two context lines of an
// error in its prompt block.
func contextPreview(context []string) string {
	if len(context) == 0 {
		return "None"
	}
	if len(context) > 2 {
		context = context[:2]
	}
	return strings.Join(context, " | ")
}

const suggestionTemplate = `You are an expert PLC (Programmable Logic Controller) and industrial automation engineer.

Your task is to generate FIX SUGGESTIONS ONLY.
Do NOT re-classify the error. Treat the provided classification as ground truth.

––––––––––––––––––––
INPUTS (AUTHORITATIVE)
––––––––––––––––––––

Overall Error Classification:
- Severity: %s
- Stage: %s
- Complexity: %s
- Reasoning: %s

Parsed Errors (zero-based order):
%s

Target Error Index: %d

Full Error Log (truncated):
%s

––––––––––––––––––––
CRITICAL RULES (STRICT)
––––––––––––––––––––

1) Targeting & Scope
- Every suggestion MUST target the parsed error named by “Target Error Index” and set ` + "`error_index`" + ` to exactly that value.
- If errors are cascading, fix the targeted error through its ROOT cause.
- Do NOT generate fixes for umbrella or consequence messages (e.g., “PLC code generation failed!”).

2) Root Cause Consistency
- All suggestions for the same ` + "`error_index`" + ` MUST share the SAME root cause.
- Do NOT introduce alternative or speculative root causes across suggestions.

3) No Schema Hallucination (MANDATORY)
- Do NOT claim exact PLCopen XSD-required tags, attributes, or structures unless they are explicitly named in the log.
- For XML schema violations, prefer SAFE actions:
  - Re-export / regenerate PLCopen XML with correct options
  - Validate against the XSD
  - Avoid manual edits
- If XML examples are shown, they MUST be clearly representative placeholders, not schema truth.

4) Input-First Rule for Runtime / Tooling Errors
- For runtime exceptions (e.g., Python traceback, AttributeError):
  - FIRST prioritize fixes to upstream inputs or model integrity.
  - SECONDARY suggestions may harden the generator (null guards, fail-fast errors).
  - Generator code changes must NEVER be the top suggestion unless explicitly justified by the log.

5) Code Snippets (Before / After)
- Every suggestion MUST include ` + "`code_before`" + ` and ` + "`code_after`" + `, or set them to null if not applicable.
- Snippets must be:
  - Minimal but complete
  - Properly formatted with newlines
  - Realistic for the stage:
    - xml_validation → XML or null (process fix preferred)
    - iec_compilation → IEC ST
    - code_generation runtime → Python (only if applicable)

6) Confidence Calibration (0.0–1.0)
Confidence means: probability this fix resolves the targeted error if applied correctly.

Use these bands:
- 0.85–0.95 → Direct, well-known fixes with strong evidence in the log (e.g., CONST assignment).
- 0.70–0.85 → Likely fixes requiring correct tool configuration or regeneration.
- 0.50–0.70 → Defensive or speculative fixes due to missing context.

Use varied values; do NOT repeat the same confidence for all suggestions.

7) Output Discipline
- Respond ONLY with valid JSON.
- No markdown, no comments, no extra text.
- ` + "`confidence`" + ` must be a number, not a string.
- ` + "`code_before`" + ` / ` + "`code_after`" + ` must be strings (with embedded newlines) or null.

––––––––––––––––––––
TASK
––––––––––––––––––––

Generate 1–3 fix suggestions total, ordered by likelihood of success.
Prefer fixes that:
- Address the root cause
- Prevent cascades
- Minimize long-term maintenance risk

––––––––––––––––––––
OUTPUT FORMAT (STRICT)
––––––––––––––––––––

Return ONLY a JSON array in this exact shape:

[
  {
    "title": "Short fix title",
    "description": "What to do and how to apply it",
    "root_cause": "Why this error occurred (must be consistent across suggestions for this error_index)",
    "code_before": "string or null",
    "code_after": "string or null",
    "confidence": 0.0,
    "error_index": 0
  }
]`

// wireSuggestion is one element of the JSON array the suggestion
// prompt requests. Confidence and error_index are deliberately not
// decoded: the caller restamps both, so whatever the model put there
// is irrelevant. A JSON null in the code fields decodes as the empty
// string.
type wireSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RootCause   string `json:"root_cause"`
	CodeBefore  string `json:"code_before"`
	CodeAfter   string `json:"code_after"`
}

// parseSuggestions decodes a model reply into at most limit
// suggestions. The reply is unwrapped from markdown fences and
// normalized through jsonc like a classification reply. Items beyond
// the limit are dropped before validation, so trailing garbage in an
// over-long reply cannot spoil the kept items; a kept item missing
// any of the three required text fields spoils the whole reply.
func parseSuggestions(reply string, limit int) ([]buildlog.FixSuggestion, error) {
	payload := jsonc.ToJSON([]byte(extractJSON(reply)))

	var wire []wireSuggestion
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	if len(wire) > limit {
		wire = wire[:limit]
	}

	suggestions := make([]buildlog.FixSuggestion, 0, len(wire))
	for position, item := range wire {
		if item.Title == "" || item.Description == "" || item.RootCause == "" {
			return nil, fmt.Errorf("suggestion %d is missing required fields", position)
		}
		suggestions = append(suggestions, buildlog.FixSuggestion{
			Title:       item.Title,
			Description: item.Description,
			RootCause:   item.RootCause,
			CodeBefore:  item.CodeBefore,
			CodeAfter:   item.CodeAfter,
		})
	}
	return suggestions, nil
}

// defaultSuggestion is substituted when a model reply yields no
// usable suggestions, so every parsed error surfaces at least one
// actionable entry. Confidence and ErrorIndex are stamped by the
// caller like any other suggestion.
func defaultSuggestion() buildlog.FixSuggestion {
	return buildlog.FixSuggestion{
		Title:       "Review Error Log",
		Description: "Unable to generate specific fix suggestions. Please review the error log and check for common issues like syntax errors, type mismatches, or missing declarations.",
		RootCause:   "Insufficient context to determine root cause",
	}
}
