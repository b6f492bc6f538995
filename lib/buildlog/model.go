// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

// Severity describes how strongly an error interferes with the build.
type Severity string

const (
	// SeverityBlocking means the build or execution cannot proceed:
	// compiler errors, non-zero tool exits, unhandled exceptions.
	SeverityBlocking Severity = "blocking"

	// SeverityWarning means the pipeline continued past the issue
	// but the result is risky or non-compliant.
	SeverityWarning Severity = "warning"

	// SeverityInfo is informational only.
	SeverityInfo Severity = "info"
)

// Valid reports whether the severity is a known value.
func (severity Severity) Valid() bool {
	switch severity {
	case SeverityBlocking, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Stage is the pipeline phase at which a build error is believed to
// originate.
type Stage string

const (
	// StageXMLValidation covers PLCopen XML / XSD schema violations.
	StageXMLValidation Stage = "xml_validation"

	// StageCodeGeneration covers ST/IL/SFC code-generation failures
	// before IEC compilation, including generator tool crashes.
	StageCodeGeneration Stage = "code_generation"

	// StageIECCompilation covers IEC 61131-3 semantic and
	// compilation errors (constant assignment, type rules).
	StageIECCompilation Stage = "iec_compilation"

	// StageCCompilation covers native C compiler errors.
	StageCCompilation Stage = "c_compilation"

	// StageUnknown is used when the originating stage cannot be
	// determined from the log.
	StageUnknown Stage = "unknown"
)

// Valid reports whether the stage is a known value.
func (stage Stage) Valid() bool {
	switch stage {
	case StageXMLValidation, StageCodeGeneration, StageIECCompilation,
		StageCCompilation, StageUnknown:
		return true
	}
	return false
}

// Complexity estimates the effort required to fix an error.
type Complexity string

const (
	// ComplexityTrivial covers well-known, common PLC fixes: schema
	// re-export, CONST misuse, syntax and semantic rule violations.
	ComplexityTrivial Complexity = "trivial"

	// ComplexityModerate requires understanding of tool internals
	// or data flow, such as null propagation in the generator.
	ComplexityModerate Complexity = "moderate"

	// ComplexityComplex requires architectural change or a
	// multi-component refactor.
	ComplexityComplex Complexity = "complex"
)

// Valid reports whether the complexity is a known value.
func (complexity Complexity) Valid() bool {
	switch complexity {
	case ComplexityTrivial, ComplexityModerate, ComplexityComplex:
		return true
	}
	return false
}

// ParsedError is a single structured error extracted from a build log.
type ParsedError struct {
	// ErrorType is a short tag naming the error's dialect, such as
	// "XMLValidationError", "IECCompilationError", or the exception
	// class of a tool crash ("AttributeError").
	ErrorType string `json:"error_type"`

	// Message is the error text with surrounding markup removed.
	Message string `json:"message"`

	// Stage is the pipeline phase the error originated in. Always
	// set by extraction.
	Stage Stage `json:"stage"`

	// Severity is the stage's default severity, assigned at
	// extraction time from the policy table.
	Severity Severity `json:"severity"`

	// Complexity is unset at extraction time. Consumers that have
	// run classification may fill it; insight projection falls back
	// to the overall classification's complexity when empty.
	Complexity Complexity `json:"complexity,omitempty"`

	// LineNumber is the source line the error points at, when the
	// dialect carries one. Nil when unknown.
	LineNumber *int `json:"line_number,omitempty"`

	// FilePath is the file the error points at, when known.
	FilePath string `json:"file_path,omitempty"`

	// Context holds raw surrounding log lines in insertion order.
	// Root-cause correlation appends merged failure-banner lines
	// here, so order is meaningful.
	Context []string `json:"context,omitempty"`

	// Timestamp is the most recent [HH:MM:SS] token preceding the
	// error in the log, when present.
	Timestamp string `json:"timestamp,omitempty"`

	// IsCascading is retained for wire compatibility with older
	// consumers. The pipeline never sets it: cascading is a
	// log-level property (ErrorLog.HasCascadingErrors).
	IsCascading bool `json:"is_cascading"`
}

// ErrorLog is the result of parsing one raw build log.
type ErrorLog struct {
	// RawLog is the original log text, unmodified.
	RawLog string `json:"raw_log"`

	// Errors holds every extracted error in detection order: all
	// XML schema violations, then IEC diagnostics, then the tool
	// crash if any. Detection order is not necessarily log line
	// order.
	Errors []ParsedError `json:"errors"`

	// HasCascadingErrors is true when the log contains more than
	// one error, meaning later failures are likely downstream
	// consequences of the first root cause.
	HasCascadingErrors bool `json:"has_cascading_errors"`
}

// Classification is a single overall judgment for a whole log,
// normally produced by the language-model classifier and replaced by
// the policy fallback when its output cannot be parsed.
type Classification struct {
	Severity   Severity   `json:"severity"`
	Stage      Stage      `json:"stage"`
	Complexity Complexity `json:"complexity"`

	// Reasoning is free text explaining the judgment, anchored to
	// concrete log evidence.
	Reasoning string `json:"reasoning"`
}

// Insight is a compact display projection of one parsed error.
type Insight struct {
	Stage    Stage    `json:"stage"`
	Severity Severity `json:"severity"`

	// Complexity is the error's own complexity when set, otherwise
	// the overall classification's.
	Complexity Complexity `json:"complexity"`

	LineNumber *int   `json:"line_number,omitempty"`
	FilePath   string `json:"file_path,omitempty"`

	// Snippet is the error message joined with its context lines,
	// capped at SnippetLimit characters with a "..." marker.
	Snippet string `json:"snippet,omitempty"`
}

// FixSuggestion is one remediation proposal for a specific parsed
// error.
type FixSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// RootCause explains why the targeted error occurred.
	RootCause string `json:"root_cause"`

	// CodeBefore and CodeAfter are optional snippets showing the
	// change, in the language appropriate to the error's stage.
	CodeBefore string `json:"code_before,omitempty"`
	CodeAfter  string `json:"code_after,omitempty"`

	// Confidence is the estimated probability, in [0, 1], that the
	// fix resolves the targeted error. Assigned deterministically
	// from the overall classification; model-reported values are
	// discarded.
	Confidence float64 `json:"confidence"`

	// ErrorIndex is the position in ErrorLog.Errors of the error
	// this suggestion targets. Always a valid index.
	ErrorIndex int `json:"error_index"`
}

// Report is the complete analysis result for one log: the overall
// classification, one to three suggestions per parsed error, the
// errors themselves, and their display insights.
type Report struct {
	Classification Classification  `json:"classification"`
	Suggestions    []FixSuggestion `json:"suggestions"`
	ParsedErrors   []ParsedError   `json:"parsed_errors"`
	ErrorInsights  []Insight       `json:"error_insights"`
}
