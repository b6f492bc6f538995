// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractor scans a build log's full line sequence and produces the
// structured errors for one log dialect. Extractors are independent:
// each scans all lines and may return zero or more errors.
type Extractor interface {
	Extract(lines []string) []ParsedError
}

var (
	// timestampPattern matches the [HH:MM:SS] tokens the build
	// driver prefixes to its own status lines.
	timestampPattern = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)

	// xmlWarningPattern matches the XSD schema-violation warning
	// emitted during PLCopen XML validation. The capture is the
	// XML source line the violation points at.
	xmlWarningPattern = regexp.MustCompile(`Warning: PLC XML file doesn't follow XSD schema at line (\d+):`)

	// iecDiagnosticPattern matches matiec-style diagnostics of the
	// form "Warning: file:line-col..line-col: error: message".
	// Captures: file path, starting line, ending line, message.
	iecDiagnosticPattern = regexp.MustCompile(`Warning: (.+?):(\d+)-\d+\.\.(\d+)-\d+: error: (.+)`)

	// tracebackStartPattern marks the beginning of a code-generator
	// crash relayed from the tool's stderr.
	tracebackStartPattern = regexp.MustCompile(`stderr: Traceback \(most recent call last\):`)

	// pythonExceptionPattern matches the final exception line of a
	// traceback, e.g. "AttributeError: 'NoneType' object has no
	// attribute 'upper'".
	pythonExceptionPattern = regexp.MustCompile(`(\w+(?:Error|Exception)): (.+)`)

	// fileLinePattern matches the per-frame file references inside
	// a traceback.
	fileLinePattern = regexp.MustCompile(`File "(.+?)", line (\d+)`)
)

// startBuildMarker is build-driver banner text that the toolchain
// sometimes emits glued onto the end of an XML validation detail
// line. It is stripped from extracted context.
const startBuildMarker = "Start build"

// lastTimestamp returns the most recent [HH:MM:SS] token in lines,
// scanning backwards, or "" when none is present.
func lastTimestamp(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if match := timestampPattern.FindStringSubmatch(lines[i]); match != nil {
			return match[1]
		}
	}
	return ""
}

// XMLExtractor extracts PLCopen XML schema-validation warnings.
type XMLExtractor struct{}

// Extract returns one XMLValidationError per schema-violation warning
// line. The context is the immediately following line, which carries
// the violation detail; any glued-on "Start build ..." banner text is
// stripped from it.
func (XMLExtractor) Extract(lines []string) []ParsedError {
	var errors []ParsedError
	for i, line := range lines {
		match := xmlWarningPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		lineNumber, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		var context []string
		if i+1 < len(lines) {
			detail := lines[i+1]
			if idx := strings.Index(detail, startBuildMarker); idx >= 0 {
				detail = strings.TrimSpace(detail[:idx])
			}
			context = append(context, detail)
		}

		errors = append(errors, ParsedError{
			ErrorType:  "XMLValidationError",
			Message:    strings.TrimSpace(line),
			Stage:      StageXMLValidation,
			Severity:   DefaultSeverity(StageXMLValidation),
			LineNumber: &lineNumber,
			Context:    context,
			Timestamp:  lastTimestamp(lines[:i+1]),
		})
	}
	return errors
}

// IECExtractor extracts IEC 61131-3 compiler diagnostics.
type IECExtractor struct{}

// Extract returns one IECCompilationError per structured diagnostic
// line. The reported line number is the starting line of the
// diagnostic's span. Context collects up to three subsequent
// contiguous lines that carry the compiler's "Warning:" continuation
// marker.
func (IECExtractor) Extract(lines []string) []ParsedError {
	var errors []ParsedError
	for i, line := range lines {
		match := iecDiagnosticPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		lineNumber, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}

		var context []string
		for j := i + 1; j < len(lines) && j < i+4; j++ {
			trimmed := strings.TrimSpace(lines[j])
			if !strings.HasPrefix(trimmed, "Warning:") {
				break
			}
			context = append(context, trimmed)
		}

		errors = append(errors, ParsedError{
			ErrorType:  "IECCompilationError",
			Message:    match[4],
			Stage:      StageIECCompilation,
			Severity:   DefaultSeverity(StageIECCompilation),
			LineNumber: &lineNumber,
			FilePath:   match[1],
			Context:    context,
			Timestamp:  lastTimestamp(lines[:i+1]),
		})
	}
	return errors
}

// TracebackExtractor extracts code-generator crashes reported as
// Python tracebacks on stderr.
//
// Only the first traceback block in a log is processed; a log with
// multiple independent traces yields a single error. This is a known
// limitation carried over from the original toolchain integration.
type TracebackExtractor struct{}

// Extract locates the first traceback start marker and consumes all
// subsequent lines as one block. The first recognized exception
// class/message pair names the error; the last file/line reference in
// the block wins (deepest frame). Context keeps the final five lines
// of the block.
func (TracebackExtractor) Extract(lines []string) []ParsedError {
	for i, line := range lines {
		if !tracebackStartPattern.MatchString(line) {
			continue
		}

		var (
			errorType  string
			message    string
			filePath   string
			lineNumber *int
		)
		block := lines[i:]
		for _, current := range block {
			if errorType == "" {
				if match := pythonExceptionPattern.FindStringSubmatch(current); match != nil {
					errorType = match[1]
					message = match[2]
				}
			}
			if match := fileLinePattern.FindStringSubmatch(current); match != nil {
				if parsed, err := strconv.Atoi(match[2]); err == nil {
					filePath = match[1]
					lineNumber = &parsed
				}
			}
		}

		if errorType == "" {
			return nil
		}

		context := block
		if len(context) > 5 {
			context = context[len(context)-5:]
		}

		return []ParsedError{{
			ErrorType:  errorType,
			Message:    message,
			Stage:      StageCodeGeneration,
			Severity:   DefaultSeverity(StageCodeGeneration),
			LineNumber: lineNumber,
			FilePath:   filePath,
			Context:    append([]string(nil), context...),
			Timestamp:  lastTimestamp(lines[:i+1]),
		}}
	}
	return nil
}
