// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

import "strings"

// Parser runs a set of extractors over a raw build log and correlates
// trailing failure banners back to their root cause.
type Parser struct {
	extractors []Extractor
}

// NewParser returns a Parser with the standard extractor set: XML
// schema violations, IEC compiler diagnostics, and tool-crash
// tracebacks, in that detection order.
func NewParser() *Parser {
	return &Parser{
		extractors: []Extractor{
			XMLExtractor{},
			IECExtractor{},
			TracebackExtractor{},
		},
	}
}

// Parse parses a raw build log into an ErrorLog. Every extractor
// scans the full line sequence; results are concatenated in extractor
// order. Failure banners are then merged into the context of the
// error that caused them, and the cascading flag is derived from the
// final error count.
//
// A log with no recognizable patterns yields an ErrorLog with zero
// errors; callers must treat that as invalid input, not as a clean
// build.
func (parser *Parser) Parse(rawLog string) *ErrorLog {
	lines := strings.Split(strings.TrimSpace(rawLog), "\n")

	var errors []ParsedError
	for _, extractor := range parser.extractors {
		errors = append(errors, extractor.Extract(lines)...)
	}

	correlateFailureBanners(lines, errors)

	return &ErrorLog{
		RawLog:             rawLog,
		Errors:             errors,
		HasCascadingErrors: len(errors) > 1,
	}
}

// Parse parses a raw build log with the standard extractor set.
func Parse(rawLog string) *ErrorLog {
	return NewParser().Parse(rawLog)
}

// isFailureBanner reports whether a line is a downstream failure
// banner: a vague umbrella message emitted after the root error, such
// as the IEC-to-C compiler's nonzero-exit report or the generic "code
// generation failed" line.
func isFailureBanner(line string) bool {
	if strings.Contains(line, "Error:") && strings.Contains(line, "IEC to C compiler returned") {
		return true
	}
	return strings.Contains(line, "PLC code generation failed")
}

// correlateFailureBanners attaches each failure-banner line to the
// root error it is a consequence of, appending the banner text to
// that error's context. The target is chosen by stage priority: the
// latest IEC compilation error, else the latest code-generation
// error, else the last extracted error. Banners in a log with no
// extracted errors are dropped; there is nothing to attach them to.
func correlateFailureBanners(lines []string, errors []ParsedError) {
	if len(errors) == 0 {
		return
	}
	for _, line := range lines {
		if !isFailureBanner(line) {
			continue
		}
		target := bannerTarget(errors)
		target.Context = append(target.Context, strings.TrimSpace(line))
	}
}

// bannerTarget picks the error a failure banner belongs to.
func bannerTarget(errors []ParsedError) *ParsedError {
	for _, stage := range []Stage{StageIECCompilation, StageCodeGeneration} {
		for i := len(errors) - 1; i >= 0; i-- {
			if errors[i].Stage == stage {
				return &errors[i]
			}
		}
	}
	return &errors[len(errors)-1]
}
