// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
)

// DefaultModel is the model used when a config does not name one.
const DefaultModel = "claude-haiku-4-5-20251001"

const (
	defaultClassifierMaxTokens = 1024

	// promptRawLogLimit caps how much of the raw log is quoted in a
	// prompt. Runes, not bytes: logs can carry multi-byte tool output.
	promptRawLogLimit = 2000

	// summaryMessageLimit caps each error message quoted in the
	// classification prompt's per-error summary lines.
	summaryMessageLimit = 100
)

// ClassifierConfig configures a Classifier.
type ClassifierConfig struct {
	// Provider executes the model request. Required.
	Provider llm.Provider

	// Model names the model to request. Defaults to DefaultModel.
	Model string

	// MaxTokens caps the model's reply length. Defaults to 1024,
	// which is ample for a four-field JSON object plus reasoning.
	MaxTokens int

	// Logger records parse fallbacks and outcomes. Required.
	Logger *slog.Logger
}

// Classifier produces the overall Classification for a parsed build
// log by asking a model to judge the root error.
type Classifier struct {
	provider  llm.Provider
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewClassifier creates a Classifier. Panics if required config
// fields are missing.
func NewClassifier(config ClassifierConfig) *Classifier {
	if config.Provider == nil {
		panic("classify.Classifier: Provider is required")
	}
	if config.Logger == nil {
		panic("classify.Classifier: Logger is required")
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultClassifierMaxTokens
	}
	return &Classifier{
		provider:  config.Provider,
		model:     model,
		maxTokens: maxTokens,
		logger:    config.Logger,
	}
}

// Classify judges the primary error in a parsed log. The model's
// reply is untrusted: a reply that cannot be parsed into a valid
// Classification degrades to buildlog.FallbackClassification instead
// of failing, so a misbehaving model never takes analysis down.
// Transport and HTTP errors do fail: without a model reply there is
// nothing to degrade from.
func (classifier *Classifier) Classify(ctx context.Context, errorLog buildlog.ErrorLog) (buildlog.Classification, error) {
	prompt := classificationPrompt(errorLog)

	response, err := classifier.provider.Complete(ctx, llm.Request{
		Model:     classifier.model,
		Messages:  []llm.Message{llm.UserMessage(prompt)},
		MaxTokens: classifier.maxTokens,
	})
	if err != nil {
		return buildlog.Classification{}, fmt.Errorf("classifying log: %w", err)
	}

	classification, err := parseClassification(response.TextContent())
	if err != nil {
		classifier.logger.Warn("classification fell back to policy defaults", "error", err)
		return buildlog.FallbackClassification(fmt.Sprintf("Failed to parse LLM response: %v", err)), nil
	}

	classifier.logger.Debug("classified build log",
		"severity", classification.Severity,
		"stage", classification.Stage,
		"complexity", classification.Complexity,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)
	return classification, nil
}

// classificationPrompt renders the classification request for one
// parsed log: the fixed judging rules, the per-error summary lines,
// and the truncated raw log.
func classificationPrompt(errorLog buildlog.ErrorLog) string {
	return fmt.Sprintf(classificationTemplate,
		errorLog.HasCascadingErrors,
		errorsSummary(errorLog.Errors),
		clip(errorLog.RawLog, promptRawLogLimit))
}

// errorsSummary renders one line per parsed error for the
// classification prompt. Messages are clipped so a single verbose
// error cannot crowd the raw log out of the context window.
func errorsSummary(errors []buildlog.ParsedError) string {
	lines := make([]string, len(errors))
	for i, parsed := range errors {
		lines[i] = fmt.Sprintf("- %s at %s: %s",
			parsed.ErrorType, parsed.Stage, clip(parsed.Message, summaryMessageLimit))
	}
	return strings.Join(lines, "\n")
}

const classificationTemplate = `You are an expert PLC (Programmable Logic Controller) and industrial automation engineer.

Analyze the following PLC build / compilation log and classify the PRIMARY / ROOT error.
This task is classification ONLY. Do NOT suggest fixes.

––––––––––––––––––––
CLASSIFICATION AXES
––––––––––––––––––––

Severity:
- blocking: The build or execution cannot proceed (e.g., compiler errors, “bailing out”, non-zero exit codes, unhandled exceptions).
- warning: The pipeline continues past this issue, but it is risky or non-compliant.
- info: Informational only.

SEVERITY RULES (STRICT):
- Infer severity from pipeline behavior, NOT message wording.
- Any unhandled exception or Python traceback is ALWAYS blocking.
- A message labeled “Warning” is blocking if the build stops afterward.
- If severity is BLOCKING at the summary level, at least one detected failure MUST justify blocking.

––––––––––––––––––––

Stage (choose ONLY ONE primary stage):
- xml_validation: PLCopen / XML schema validation errors.
- code_generation: IEC/ST code generation failures before IEC compilation.
- iec_compilation: IEC/ST semantic or compilation errors (e.g., CONST assignment, type rules).
- c_compilation: Native C compiler errors.
- unknown: Only if the stage cannot be determined from the log.

STAGE RULES (STRICT):
- Select the stage where the build ACTUALLY FAILS.
- Do NOT select downstream “failed” or umbrella messages that are consequences of an earlier error.
- If multiple issues exist, choose the stage of the ROOT cause.

––––––––––––––––––––

Fix Complexity:
- trivial: Well-known, common PLC fixes (schema re-export, CONST misuse, syntax/semantic rules).
- moderate: Requires understanding of tool internals or data flow (null propagation, generator validation).
- complex: Architectural redesign, multi-component refactor, or multiple independent root causes.

COMPLEXITY RULES (STRICT):
- DEFAULT to trivial unless there is explicit evidence otherwise.
- XML schema / XSD violations are TRIVIAL by default.
- Cascading errors alone do NOT increase complexity.
- “Complex” requires clear proof of architectural or multi-module change.

––––––––––––––––––––
ERROR TYPE AWARENESS (MENTAL MODEL)
––––––––––––––––––––

Use this mapping when reasoning (do NOT output this field):
- XML schema violations → Syntax / Schema validation errors
- IEC semantic rule violations → Logic errors
- Tool crashes / tracebacks → Runtime errors

––––––––––––––––––––
CASCADING ERRORS
––––––––––––––––––––

Cascading Errors Flag: %t

RULES:
- Identify the PRIMARY / ROOT error only.
- Do NOT classify consequence or umbrella errors (e.g., “PLC code generation failed!”).
- Secondary warnings may be acknowledged in reasoning but must NOT override root classification.

––––––––––––––––––––
INPUT
––––––––––––––––––––

Error Log Summary:
%s

Full Error Log (truncated):
%s

––––––––––––––––––––
OUTPUT FORMAT (STRICT)
––––––––––––––––––––

Respond ONLY with a JSON object in EXACTLY this format:

{
  "severity": "blocking|warning|info",
  "stage": "xml_validation|code_generation|iec_compilation|c_compilation|unknown",
  "complexity": "trivial|moderate|complex",
  "reasoning": "Concise explanation anchored to concrete log evidence (error messages, stack trace lines, or compiler output)."
}`

// wireClassification is the reply shape the classification prompt
// requests.
type wireClassification struct {
	Severity   buildlog.Severity   `json:"severity"`
	Stage      buildlog.Stage      `json:"stage"`
	Complexity buildlog.Complexity `json:"complexity"`
	Reasoning  string              `json:"reasoning"`
}

// parseClassification decodes a model reply into a Classification.
// The reply is unwrapped from markdown fences, normalized through
// jsonc (models sometimes emit trailing commas or comments), and
// every enum is checked against its known values.
func parseClassification(reply string) (buildlog.Classification, error) {
	payload := jsonc.ToJSON([]byte(extractJSON(reply)))

	var wire wireClassification
	if err := json.Unmarshal(payload, &wire); err != nil {
		return buildlog.Classification{}, fmt.Errorf("decoding classification: %w", err)
	}
	if !wire.Severity.Valid() {
		return buildlog.Classification{}, fmt.Errorf("unknown severity %q", wire.Severity)
	}
	if !wire.Stage.Valid() {
		return buildlog.Classification{}, fmt.Errorf("unknown stage %q", wire.Stage)
	}
	if !wire.Complexity.Valid() {
		return buildlog.Classification{}, fmt.Errorf("unknown complexity %q", wire.Complexity)
	}
	if wire.Reasoning == "" {
		return buildlog.Classification{}, fmt.Errorf("missing reasoning")
	}

	return buildlog.Classification{
		Severity:   wire.Severity,
		Stage:      wire.Stage,
		Complexity: wire.Complexity,
		Reasoning:  wire.Reasoning,
	}, nil
}
