// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

import (
	"strings"
	"testing"
)

func TestXMLExtractor(t *testing.T) {
	t.Parallel()

	lines := []string{
		"[17:05:55]: Building project...",
		"stdout: Warning: PLC XML file doesn't follow XSD schema at line 61:",
		"Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s).",
	}

	errors := XMLExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}

	extracted := errors[0]
	if extracted.ErrorType != "XMLValidationError" {
		t.Errorf("ErrorType = %q, want XMLValidationError", extracted.ErrorType)
	}
	if extracted.Stage != StageXMLValidation {
		t.Errorf("Stage = %q, want %q", extracted.Stage, StageXMLValidation)
	}
	if extracted.Severity != SeverityWarning {
		t.Errorf("Severity = %q, want %q", extracted.Severity, SeverityWarning)
	}
	if extracted.LineNumber == nil || *extracted.LineNumber != 61 {
		t.Errorf("LineNumber = %v, want 61", extracted.LineNumber)
	}
	if extracted.Timestamp != "17:05:55" {
		t.Errorf("Timestamp = %q, want 17:05:55", extracted.Timestamp)
	}
	if len(extracted.Context) != 1 || !strings.HasPrefix(extracted.Context[0], "Element") {
		t.Errorf("Context = %q, want the schema detail line", extracted.Context)
	}
}

func TestXMLExtractorStripsStartBuildBanner(t *testing.T) {
	t.Parallel()

	// The toolchain sometimes glues its "Start build" banner onto the
	// end of the schema detail line without a newline.
	lines := []string{
		"stdout: Warning: PLC XML file doesn't follow XSD schema at line 43:",
		"Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s). Expected is one of ( {*}*, * ).Start build in /tmp/.tmpMngQvj/build",
	}

	errors := XMLExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}
	context := errors[0].Context
	if len(context) != 1 {
		t.Fatalf("len(Context) = %d, want 1", len(context))
	}
	if strings.Contains(context[0], "Start build") {
		t.Errorf("Context = %q, banner text not stripped", context[0])
	}
	if !strings.HasSuffix(context[0], "( {*}*, * ).") {
		t.Errorf("Context = %q, want schema detail preserved up to the banner", context[0])
	}
}

func TestXMLExtractorNoFollowingLine(t *testing.T) {
	t.Parallel()

	lines := []string{
		"stdout: Warning: PLC XML file doesn't follow XSD schema at line 12:",
	}

	errors := XMLExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}
	if len(errors[0].Context) != 0 {
		t.Errorf("Context = %q, want empty", errors[0].Context)
	}
}

func TestIECExtractor(t *testing.T) {
	t.Parallel()

	lines := []string{
		"[17:05:56]: Cannot build project.",
		"Warning: /tmp/.tmpMngQvj/build/plc.st:30-4..30-12: error: Assignment to CONSTANT variables is not allowed.",
		"Warning: In section: PROGRAM program0",
		"Warning: 0030: LocalVar1 := LocalVar0;",
		"Warning: 1 error(s) found. Bailing out!",
		"Error: Error : IEC to C compiler returned 1",
	}

	errors := IECExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}

	extracted := errors[0]
	if extracted.ErrorType != "IECCompilationError" {
		t.Errorf("ErrorType = %q, want IECCompilationError", extracted.ErrorType)
	}
	if extracted.Message != "Assignment to CONSTANT variables is not allowed." {
		t.Errorf("Message = %q, want the diagnostic text", extracted.Message)
	}
	if extracted.LineNumber == nil || *extracted.LineNumber != 30 {
		t.Errorf("LineNumber = %v, want 30", extracted.LineNumber)
	}
	if extracted.FilePath != "/tmp/.tmpMngQvj/build/plc.st" {
		t.Errorf("FilePath = %q, want the ST file path", extracted.FilePath)
	}
	if extracted.Severity != SeverityBlocking {
		t.Errorf("Severity = %q, want %q", extracted.Severity, SeverityBlocking)
	}

	// Context is bounded at three continuation lines even though a
	// fourth Warning line follows in other logs.
	want := []string{
		"Warning: In section: PROGRAM program0",
		"Warning: 0030: LocalVar1 := LocalVar0;",
		"Warning: 1 error(s) found. Bailing out!",
	}
	if len(extracted.Context) != len(want) {
		t.Fatalf("len(Context) = %d, want %d", len(extracted.Context), len(want))
	}
	for i := range want {
		if extracted.Context[i] != want[i] {
			t.Errorf("Context[%d] = %q, want %q", i, extracted.Context[i], want[i])
		}
	}
}

func TestIECExtractorContextStopsAtNonWarning(t *testing.T) {
	t.Parallel()

	lines := []string{
		"Warning: plc.st:7-1..7-5: error: Unknown identifier.",
		"Warning: In section: PROGRAM main_program",
		"Compiling IEC Program into C code...",
		"Warning: unrelated later line",
	}

	errors := IECExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}
	if len(errors[0].Context) != 1 {
		t.Errorf("Context = %q, want just the contiguous continuation", errors[0].Context)
	}
}

func TestTracebackExtractor(t *testing.T) {
	t.Parallel()

	lines := []string{
		"[18:16:53]: Building project...",
		"Generating SoftPLC IEC-61131 ST/IL/SFC code...",
		"stderr: Traceback (most recent call last):",
		`  File "/root/beremiz/Beremiz_cli.py", line 130, in <module>`,
		"    cli()",
		`  File "/root/beremiz/PLCGenerator.py", line 959, in ComputeProgram`,
		"    self.ParentGenerator.GeneratePouProgramInText(text.upper())",
		"AttributeError: 'NoneType' object has no attribute 'upper'",
	}

	errors := TracebackExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}

	extracted := errors[0]
	if extracted.ErrorType != "AttributeError" {
		t.Errorf("ErrorType = %q, want AttributeError", extracted.ErrorType)
	}
	if !strings.Contains(extracted.Message, "'NoneType'") {
		t.Errorf("Message = %q, want the NoneType description", extracted.Message)
	}
	if extracted.Stage != StageCodeGeneration {
		t.Errorf("Stage = %q, want %q", extracted.Stage, StageCodeGeneration)
	}

	// The deepest frame wins: PLCGenerator.py line 959, not the CLI
	// entry point at line 130.
	if extracted.FilePath != "/root/beremiz/PLCGenerator.py" {
		t.Errorf("FilePath = %q, want the deepest frame's file", extracted.FilePath)
	}
	if extracted.LineNumber == nil || *extracted.LineNumber != 959 {
		t.Errorf("LineNumber = %v, want 959", extracted.LineNumber)
	}
	if len(extracted.Context) != 5 {
		t.Errorf("len(Context) = %d, want the last 5 block lines", len(extracted.Context))
	}
	if extracted.Timestamp != "18:16:53" {
		t.Errorf("Timestamp = %q, want 18:16:53", extracted.Timestamp)
	}
}

func TestTracebackExtractorOnlyFirstBlock(t *testing.T) {
	t.Parallel()

	// Two independent tracebacks: only the first is extracted. The
	// second block's exception would otherwise win because the block
	// scan runs to the end of the log.
	lines := []string{
		"stderr: Traceback (most recent call last):",
		`  File "/root/beremiz/PLCGenerator.py", line 100, in Compute`,
		"TypeError: unsupported operand",
		"stderr: Traceback (most recent call last):",
		`  File "/root/beremiz/other.py", line 5, in <module>`,
		"ValueError: bad value",
	}

	errors := TracebackExtractor{}.Extract(lines)
	if len(errors) != 1 {
		t.Fatalf("len(errors) = %d, want 1", len(errors))
	}
	if errors[0].ErrorType != "TypeError" {
		t.Errorf("ErrorType = %q, want TypeError from the first block", errors[0].ErrorType)
	}
}

func TestTracebackExtractorNoException(t *testing.T) {
	t.Parallel()

	// A truncated traceback with no recognizable exception line
	// yields nothing rather than a half-filled error.
	lines := []string{
		"stderr: Traceback (most recent call last):",
		`  File "/root/beremiz/Beremiz_cli.py", line 130, in <module>`,
		"    cli()",
	}

	errors := TracebackExtractor{}.Extract(lines)
	if len(errors) != 0 {
		t.Errorf("len(errors) = %d, want 0", len(errors))
	}
}

func TestLastTimestamp(t *testing.T) {
	t.Parallel()

	lines := []string{
		"[17:05:55]: Building project...",
		"some other line",
		"[17:06:10]: Cannot build project.",
		"trailing output",
	}
	if got := lastTimestamp(lines); got != "17:06:10" {
		t.Errorf("lastTimestamp = %q, want 17:06:10", got)
	}
	if got := lastTimestamp(lines[:2]); got != "17:05:55" {
		t.Errorf("lastTimestamp = %q, want 17:05:55", got)
	}
	if got := lastTimestamp([]string{"no timestamps here"}); got != "" {
		t.Errorf("lastTimestamp = %q, want empty", got)
	}
}
