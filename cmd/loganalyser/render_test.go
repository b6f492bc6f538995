// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

func testReport() *buildlog.Report {
	classification := testClassificationPayload()
	return &buildlog.Report{
		Classification: classification.Classification,
		ParsedErrors:   classification.Errors,
		ErrorInsights:  classification.Insights,
		Suggestions: []buildlog.FixSuggestion{
			testSuggestionPayload().Suggestion,
			{
				Title:       "Fix the XML schema",
				Description: "Regenerate the project XML.",
				RootCause:   "Schema drift between editor versions.",
				Confidence:  0.9,
				ErrorIndex:  0,
			},
		},
	}
}

func TestReportRendererPlain(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	output := renderer.Report(testReport())

	for _, want := range []string{
		"Classification",
		"Severity",
		"blocking",
		"iec_compilation",
		"trivial",
		"Constant assignment halts the build.",
		"Parsed Errors (2)",
		"1. XMLValidationError",
		"line 61",
		"2. IECCompilationError",
		"line 30",
		"Fix Suggestions (2)",
		"1. Drop the CONSTANT qualifier",
		"confidence 90% · targets error 2",
		"Root cause:",
		"Before:",
		"VAR CONSTANT x : INT; END_VAR",
		"After:",
		"VAR x : INT; END_VAR",
		"2. Fix the XML schema",
		"confidence 90% · targets error 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("report output missing %q:\n%s", want, output)
		}
	}

	// The second suggestion has no code fields, so exactly one card
	// shows the before/after blocks.
	if got := strings.Count(output, "Before:"); got != 1 {
		t.Errorf("got %d Before: blocks, want 1", got)
	}

	if strings.Contains(output, "\x1b[") {
		t.Error("plain renderer should not emit ANSI escapes")
	}
}

func TestReportRendererColor(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, true)
	output := renderer.Classification(testReport().Classification)

	if !strings.Contains(output, "\x1b[") {
		t.Error("color renderer should emit ANSI escapes")
	}
	if !strings.Contains(output, "blocking") {
		t.Errorf("styled output should still contain the text:\n%s", output)
	}
}

func TestSeverityColor(t *testing.T) {
	t.Parallel()

	theme := defaultReportTheme
	if got := theme.SeverityColor(buildlog.SeverityBlocking); got != theme.SeverityBlocking {
		t.Errorf("blocking color = %v", got)
	}
	if got := theme.SeverityColor(buildlog.SeverityWarning); got != theme.SeverityWarning {
		t.Errorf("warning color = %v", got)
	}
	if got := theme.SeverityColor(buildlog.SeverityInfo); got != theme.SeverityInfo {
		t.Errorf("info color = %v", got)
	}
	if got := theme.SeverityColor(buildlog.Severity("mystery")); got != theme.NormalText {
		t.Errorf("unknown severity should fall back to normal text, got %v", got)
	}
}

func TestHeadingUnderline(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	heading := renderer.Heading("Classification")

	lines := strings.Split(heading, "\n")
	if len(lines) != 2 {
		t.Fatalf("heading has %d lines, want 2", len(lines))
	}
	if lines[0] != "Classification" {
		t.Errorf("title line = %q", lines[0])
	}
	if utf8.RuneCountInString(lines[1]) != len("Classification") {
		t.Errorf("rule length = %d, want %d", utf8.RuneCountInString(lines[1]), len("Classification"))
	}
}

func TestParsedErrorsCascadingMarker(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	parsed := testClassificationPayload().Errors
	parsed[1].IsCascading = true

	output := renderer.ParsedErrors(parsed)
	if !strings.Contains(output, "(cascading)") {
		t.Errorf("output missing cascading marker:\n%s", output)
	}
}

func TestMarkdownReflow(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)

	// Soft line breaks join into one paragraph.
	output := renderer.Markdown("first line\nsecond line")
	if !strings.Contains(output, "first line second line") {
		t.Errorf("soft break not joined: %q", output)
	}
}

func TestMarkdownWrapWidth(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(40, false)
	output := renderer.Markdown(strings.Repeat("reasonably lengthy words flow onward ", 8))

	for _, line := range strings.Split(output, "\n") {
		if utf8.RuneCountInString(line) > 40 {
			t.Errorf("line exceeds width 40: %q", line)
		}
	}
}

func TestMarkdownLists(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)

	output := renderer.Markdown("- alpha\n- beta")
	if !strings.Contains(output, "- alpha") || !strings.Contains(output, "- beta") {
		t.Errorf("bullet list output: %q", output)
	}

	output = renderer.Markdown("1. first\n2. second")
	if !strings.Contains(output, "1. first") || !strings.Contains(output, "2. second") {
		t.Errorf("ordered list output: %q", output)
	}
}

func TestMarkdownCodeFence(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	output := renderer.Markdown("Fix the block:\n\n```st\nVAR x : INT; END_VAR\n```")

	if !strings.Contains(output, "  VAR x : INT; END_VAR") {
		t.Errorf("code fence not indented verbatim: %q", output)
	}
}

func TestMarkdownInlineStyles(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	output := renderer.Markdown("Use **bold** care and `END_VAR` here.")

	// Plain profile: styling degrades to the bare text.
	if !strings.Contains(output, "bold care") || !strings.Contains(output, "END_VAR here.") {
		t.Errorf("inline styles mangled the text: %q", output)
	}
	if strings.Contains(output, "**") || strings.Contains(output, "`") {
		t.Errorf("markdown markers leaked through: %q", output)
	}
}

func TestMarkdownHeadingAndLink(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)

	output := renderer.Markdown("# Root Cause\n\nSee [the manual](https://beremiz.org/doc) for details.")
	if !strings.Contains(output, "Root Cause") {
		t.Errorf("heading missing: %q", output)
	}
	if !strings.Contains(output, "the manual (https://beremiz.org/doc)") {
		t.Errorf("link not rendered as text plus URL: %q", output)
	}
}

func TestMarkdownEmptyInput(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	if got := renderer.Markdown("   \n\t"); got != "" {
		t.Errorf("whitespace input should render empty, got %q", got)
	}
}

func TestCodePlain(t *testing.T) {
	t.Parallel()

	renderer := newReportRendererFor(80, false)
	if got := renderer.Code("VAR x : INT;\n"); got != "VAR x : INT;" {
		t.Errorf("plain code = %q", got)
	}
}

func TestIndent(t *testing.T) {
	t.Parallel()

	got := indent("alpha\n\nbeta", "  ")
	want := "  alpha\n\n  beta"
	if got != want {
		t.Errorf("indent = %q, want %q (blank lines stay blank)", got, want)
	}
	if indent("", "  ") != "" {
		t.Error("empty input should stay empty")
	}
}
