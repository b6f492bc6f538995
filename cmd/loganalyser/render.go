// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/term"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

// reportTheme is the color palette for terminal report output.
// Designed for 256-color terminals with a dark background.
type reportTheme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Heading    lipgloss.Color
	Border     lipgloss.Color

	SeverityBlocking lipgloss.Color
	SeverityWarning  lipgloss.Color
	SeverityInfo     lipgloss.Color
}

var defaultReportTheme = reportTheme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	Heading:    lipgloss.Color("255"),
	Border:     lipgloss.Color("240"),

	SeverityBlocking: lipgloss.Color("196"), // bright red
	SeverityWarning:  lipgloss.Color("208"), // orange
	SeverityInfo:     lipgloss.Color("75"),  // blue
}

// SeverityColor returns the color for a severity level. Unknown
// values return NormalText.
func (theme reportTheme) SeverityColor(severity buildlog.Severity) lipgloss.Color {
	switch severity {
	case buildlog.SeverityBlocking:
		return theme.SeverityBlocking
	case buildlog.SeverityWarning:
		return theme.SeverityWarning
	case buildlog.SeverityInfo:
		return theme.SeverityInfo
	}
	return theme.NormalText
}

// markdownParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share; parsing creates per-call state via Parse(reader).
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParserInstance
}

// reportRenderer turns reports and report fragments into styled
// terminal text. With color disabled every style renders as plain
// text, so non-TTY output (pipes, CI) takes the same code path.
type reportRenderer struct {
	styler *lipgloss.Renderer
	theme  reportTheme
	width  int
	color  bool
}

// newReportRenderer builds a renderer for output, detecting whether
// it is a terminal. Terminals get ANSI256 styling at the terminal's
// width; everything else gets unstyled text at 80 columns.
func newReportRenderer(output *os.File) *reportRenderer {
	width := 80
	color := false
	if term.IsTerminal(int(output.Fd())) {
		color = true
		if w, _, err := term.GetSize(int(output.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	return newReportRendererFor(width, color)
}

// newReportRendererFor builds a renderer with explicit width and
// color choice. The stream view and tests use this directly.
func newReportRendererFor(width int, color bool) *reportRenderer {
	if width < 40 {
		width = 40
	}
	profile := termenv.Ascii
	if color {
		// Force the profile: auto-detection would strip color when
		// output is not a real TTY (tests, bubbletea re-rendering).
		profile = termenv.ANSI256
	}
	styler := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(profile))
	styler.SetColorProfile(profile)
	return &reportRenderer{
		styler: styler,
		theme:  defaultReportTheme,
		width:  width,
		color:  color,
	}
}

func (r *reportRenderer) style() lipgloss.Style {
	return r.styler.NewStyle()
}

// Heading renders a section heading with an underline rule.
func (r *reportRenderer) Heading(title string) string {
	styled := r.style().Bold(true).Foreground(r.theme.Heading).Render(title)
	rule := r.style().Foreground(r.theme.Border).Render(strings.Repeat("─", ansi.StringWidth(title)))
	return styled + "\n" + rule
}

func (r *reportRenderer) label(name string) string {
	return r.style().Foreground(r.theme.FaintText).Render(fmt.Sprintf("%-12s", name))
}

// Classification renders the overall judgment section.
func (r *reportRenderer) Classification(classification buildlog.Classification) string {
	var section strings.Builder
	section.WriteString(r.Heading("Classification"))
	section.WriteString("\n")

	severity := r.style().
		Bold(true).
		Foreground(r.theme.SeverityColor(classification.Severity)).
		Render(string(classification.Severity))
	fmt.Fprintf(&section, "  %s %s\n", r.label("Severity"), severity)
	fmt.Fprintf(&section, "  %s %s\n", r.label("Stage"), classification.Stage)
	fmt.Fprintf(&section, "  %s %s\n", r.label("Complexity"), classification.Complexity)

	if classification.Reasoning != "" {
		section.WriteString("\n")
		section.WriteString(indent(r.Markdown(classification.Reasoning), "  "))
		section.WriteString("\n")
	}
	return section.String()
}

// ParsedErrors renders the per-error listing.
func (r *reportRenderer) ParsedErrors(parsed []buildlog.ParsedError) string {
	var section strings.Builder
	section.WriteString(r.Heading(fmt.Sprintf("Parsed Errors (%d)", len(parsed))))
	section.WriteString("\n")

	for i, parsedError := range parsed {
		severity := r.style().
			Foreground(r.theme.SeverityColor(parsedError.Severity)).
			Render(string(parsedError.Severity))
		fmt.Fprintf(&section, "  %d. %s  %s  %s",
			i+1,
			r.style().Bold(true).Render(parsedError.ErrorType),
			severity,
			parsedError.Stage)
		if parsedError.LineNumber != nil {
			fmt.Fprintf(&section, "  line %d", *parsedError.LineNumber)
		}
		if parsedError.IsCascading {
			fmt.Fprintf(&section, "  %s", r.style().Foreground(r.theme.FaintText).Render("(cascading)"))
		}
		section.WriteString("\n")
		if parsedError.FilePath != "" {
			fmt.Fprintf(&section, "     %s\n", r.style().Foreground(r.theme.FaintText).Render(parsedError.FilePath))
		}
		if parsedError.Message != "" {
			message := ansi.Truncate(parsedError.Message, r.width-5, "…")
			fmt.Fprintf(&section, "     %s\n", message)
		}
		if i < len(parsed)-1 {
			section.WriteString("\n")
		}
	}
	return section.String()
}

// Suggestion renders one fix suggestion card. index is the 0-based
// position across the whole report.
func (r *reportRenderer) Suggestion(index int, suggestion buildlog.FixSuggestion) string {
	var card strings.Builder

	title := r.style().Bold(true).Foreground(r.theme.Heading).Render(suggestion.Title)
	meta := r.style().Foreground(r.theme.FaintText).Render(
		fmt.Sprintf("confidence %.0f%% · targets error %d",
			suggestion.Confidence*100, suggestion.ErrorIndex+1))
	fmt.Fprintf(&card, "  %d. %s  %s\n", index+1, title, meta)

	if suggestion.RootCause != "" {
		fmt.Fprintf(&card, "     %s %s\n",
			r.style().Foreground(r.theme.FaintText).Render("Root cause:"),
			ansi.Wrap(suggestion.RootCause, r.width-17, " ,.;-+|"))
	}
	if suggestion.Description != "" {
		card.WriteString("\n")
		card.WriteString(indent(r.Markdown(suggestion.Description), "     "))
		card.WriteString("\n")
	}
	if suggestion.CodeBefore != "" {
		fmt.Fprintf(&card, "\n     %s\n%s\n",
			r.style().Foreground(r.theme.FaintText).Render("Before:"),
			indent(r.Code(suggestion.CodeBefore), "       "))
	}
	if suggestion.CodeAfter != "" {
		fmt.Fprintf(&card, "\n     %s\n%s\n",
			r.style().Foreground(r.theme.FaintText).Render("After:"),
			indent(r.Code(suggestion.CodeAfter), "       "))
	}
	return card.String()
}

// Report renders the complete report: classification, parsed errors,
// then every suggestion.
func (r *reportRenderer) Report(report *buildlog.Report) string {
	var output strings.Builder
	output.WriteString(r.Classification(report.Classification))
	output.WriteString("\n")
	output.WriteString(r.ParsedErrors(report.ParsedErrors))
	output.WriteString("\n")
	output.WriteString(r.Heading(fmt.Sprintf("Fix Suggestions (%d)", len(report.Suggestions))))
	output.WriteString("\n")
	for i, suggestion := range report.Suggestions {
		output.WriteString(r.Suggestion(i, suggestion))
		if i < len(report.Suggestions)-1 {
			output.WriteString("\n")
		}
	}
	return output.String()
}

// Code highlights a code snippet. The snippet's language is unknown
// (model output: usually IEC structured text, sometimes XML or
// Python), so the lexer is guessed from content, falling back to
// plain text.
func (r *reportRenderer) Code(snippet string) string {
	snippet = strings.TrimRight(snippet, "\n")
	if !r.color {
		return snippet
	}
	lexer := lexers.Analyse(snippet)
	if lexer == nil {
		return r.style().Foreground(r.theme.FaintText).Render(snippet)
	}
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, snippet, lexer.Config().Name, "terminal256", "monokai"); err != nil {
		return r.style().Foreground(r.theme.FaintText).Render(snippet)
	}
	return strings.TrimRight(highlighted.String(), "\n")
}

// indent prefixes every line of s with the given prefix.
func indent(s, prefix string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Markdown renders model prose (markdown-ish free text) as styled,
// word-wrapped terminal output. Soft line breaks become spaces so
// hard-wrapped model output reflows at the terminal width.
func (r *reportRenderer) Markdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	walker := &proseWalker{renderer: r, source: source}
	ast.Walk(document, walker.walk)

	return strings.TrimRight(walker.output.String(), "\n")
}

// proseWalker walks a goldmark AST and accumulates styled terminal
// text. Inline content collects in a buffer and is word-wrapped as a
// unit when the containing block closes. This covers the node kinds
// that model prose actually produces (paragraphs, emphasis, code,
// lists, links); anything exotic degrades to its plain text content.
type proseWalker struct {
	renderer *reportRenderer
	source   []byte

	output strings.Builder
	inline strings.Builder

	boldCount   int
	italicCount int

	listStack     []proseList
	pendingBullet string
}

type proseList struct {
	ordered bool
	counter int
}

func (w *proseWalker) styledText(content string) string {
	style := w.renderer.style().Foreground(w.renderer.theme.NormalText)
	if w.boldCount > 0 {
		style = style.Bold(true)
	}
	if w.italicCount > 0 {
		style = style.Italic(true)
	}
	return style.Render(content)
}

// flushInline word-wraps the accumulated inline content, applies the
// pending list bullet if any, and writes it to the output.
func (w *proseWalker) flushInline() {
	content := w.inline.String()
	w.inline.Reset()
	if content == "" {
		return
	}

	bullet := w.pendingBullet
	w.pendingBullet = ""
	continuation := strings.Repeat(" ", len(bullet))

	width := w.renderer.width - len(bullet)
	if width < 10 {
		width = 10
	}
	wrapped := ansi.Wrap(content, width, " ,.;-+|")

	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			w.output.WriteString(bullet)
		} else {
			w.output.WriteString(continuation)
		}
		w.output.WriteString(line)
		w.output.WriteString("\n")
	}
}

func (w *proseWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.inline.Reset()
		} else {
			w.flushInline()
			if len(w.listStack) == 0 {
				w.output.WriteString("\n")
			}
		}

	case ast.KindHeading:
		if entering {
			w.inline.Reset()
		} else {
			heading := ansi.Strip(w.inline.String())
			w.inline.Reset()
			if heading != "" {
				w.output.WriteString(w.renderer.style().Bold(true).Foreground(w.renderer.theme.Heading).Render(heading))
				w.output.WriteString("\n\n")
			}
		}

	case ast.KindFencedCodeBlock:
		if entering {
			w.renderFencedCode(node.(*ast.FencedCodeBlock))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			w.renderPlainCode(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			start := 0
			if list.IsOrdered() {
				start = list.Start
			}
			w.listStack = append(w.listStack, proseList{ordered: list.IsOrdered(), counter: start})
		} else {
			w.listStack = w.listStack[:len(w.listStack)-1]
			if len(w.listStack) == 0 {
				w.output.WriteString("\n")
			}
		}

	case ast.KindListItem:
		if entering {
			w.enterListItem()
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			w.inline.WriteString(w.styledText(string(textNode.Segment.Value(w.source))))
			if textNode.SoftLineBreak() {
				w.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				w.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			w.inline.WriteString(w.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			w.boldCount += delta
		} else {
			w.italicCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(w.source))
				}
			}
			w.inline.WriteString(w.renderer.style().Foreground(w.renderer.theme.FaintText).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		// Link text renders through the Text children; the URL
		// follows in faint parentheses when the node closes.
		if !entering {
			if url := string(node.(*ast.Link).Destination); url != "" {
				w.inline.WriteString(" " + w.renderer.style().Foreground(w.renderer.theme.FaintText).Render("("+url+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(w.source))
			w.inline.WriteString(w.renderer.style().Foreground(w.renderer.theme.FaintText).Render(url))
		}
	}

	return ast.WalkContinue, nil
}

func (w *proseWalker) enterListItem() {
	if len(w.listStack) == 0 {
		return
	}
	top := &w.listStack[len(w.listStack)-1]
	indentation := strings.Repeat("  ", len(w.listStack)-1)
	if top.ordered {
		w.pendingBullet = fmt.Sprintf("%s%d. ", indentation, top.counter)
		top.counter++
	} else {
		w.pendingBullet = indentation + "- "
	}
}

func (w *proseWalker) renderFencedCode(node *ast.FencedCodeBlock) {
	language := string(node.Language(w.source))
	code := w.blockText(node)
	w.writeCodeLines(w.highlightFenced(code, language))
}

func (w *proseWalker) renderPlainCode(node ast.Node) {
	w.writeCodeLines(w.renderer.style().Foreground(w.renderer.theme.FaintText).Render(w.blockText(node)))
}

func (w *proseWalker) blockText(node ast.Node) string {
	var block strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		block.Write(segment.Value(w.source))
	}
	return strings.TrimRight(block.String(), "\n")
}

func (w *proseWalker) highlightFenced(code, language string) string {
	if !w.renderer.color || language == "" {
		return w.renderer.style().Foreground(w.renderer.theme.FaintText).Render(code)
	}
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, code, language, "terminal256", "monokai"); err != nil {
		return w.renderer.style().Foreground(w.renderer.theme.FaintText).Render(code)
	}
	return strings.TrimRight(highlighted.String(), "\n")
}

func (w *proseWalker) writeCodeLines(code string) {
	for _, line := range strings.Split(code, "\n") {
		w.output.WriteString("  " + line + "\n")
	}
	w.output.WriteString("\n")
}
