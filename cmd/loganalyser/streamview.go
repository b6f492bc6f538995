// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/analysis"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

// streamKeyMap defines the key bindings for the live stream view.
type streamKeyMap struct {
	Quit key.Binding
}

var defaultStreamKeys = streamKeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// streamEventMsg delivers one analysis event into the update loop.
type streamEventMsg struct {
	event analysis.Event
}

// streamClosedMsg reports that the event channel closed. Arriving
// before a terminal event means the stream was cut off.
type streamClosedMsg struct{}

// waitForStreamEvent returns a command that blocks until the next
// event arrives. The update loop re-issues it after every event, so
// exactly one receive is outstanding at a time.
func waitForStreamEvent(events <-chan analysis.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event}
	}
}

// suggestionProgress tracks one suggestion during the stream: the
// complete payload from its announcement event plus the text revealed
// so far by word events, per field.
type suggestionProgress struct {
	payload analysis.SuggestionPayload
	fields  map[string]*strings.Builder
}

// streamModel is the live progress view for a classification stream.
// It stays compact while events arrive, a few lines repainted in
// place, and collapses to a single status line when the stream ends;
// the caller prints the full report afterwards from the accumulated
// state.
type streamModel struct {
	events   <-chan analysis.Event
	renderer *reportRenderer
	spinner  spinner.Model
	keys     streamKeyMap

	classification *analysis.ClassificationPayload
	parsed         *analysis.ParsedErrorsPayload
	suggestions    []*suggestionProgress
	complete       *analysis.CompletePayload
	failureDetail  string
	lastTarget     string

	closed      bool
	interrupted bool
}

func newStreamModel(events <-chan analysis.Event, renderer *reportRenderer) streamModel {
	indicator := spinner.New()
	indicator.Spinner = spinner.MiniDot
	indicator.Style = renderer.style().Foreground(renderer.theme.FaintText)
	return streamModel{
		events:   events,
		renderer: renderer,
		spinner:  indicator,
		keys:     defaultStreamKeys,
	}
}

func (model streamModel) Init() tea.Cmd {
	return tea.Batch(model.spinner.Tick, waitForStreamEvent(model.events))
}

func (model streamModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			model.interrupted = true
			return model, tea.Quit
		}

	case spinner.TickMsg:
		if model.done() {
			return model, nil
		}
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command

	case streamEventMsg:
		model = model.applyEvent(message.event)
		if model.done() {
			return model, tea.Quit
		}
		return model, waitForStreamEvent(model.events)

	case streamClosedMsg:
		model.closed = true
		return model, tea.Quit
	}
	return model, nil
}

func (model streamModel) done() bool {
	return model.complete != nil || model.failureDetail != "" || model.closed || model.interrupted
}

func (model streamModel) applyEvent(event analysis.Event) streamModel {
	switch payload := event.Payload.(type) {
	case analysis.ClassificationPayload:
		model.classification = &payload
	case analysis.ParsedErrorsPayload:
		model.parsed = &payload
	case analysis.SuggestionPayload:
		progress := &suggestionProgress{
			payload: payload,
			fields:  make(map[string]*strings.Builder),
		}
		for len(model.suggestions) <= payload.Index {
			model.suggestions = append(model.suggestions, nil)
		}
		model.suggestions[payload.Index] = progress
	case analysis.WordPayload:
		model = model.applyWord(payload)
	case analysis.CompletePayload:
		model.complete = &payload
	case analysis.ErrorPayload:
		model.failureDetail = payload.Detail
	}
	return model
}

func (model streamModel) applyWord(payload analysis.WordPayload) streamModel {
	index, field, ok := splitWordTarget(payload.Target)
	if !ok || index >= len(model.suggestions) || model.suggestions[index] == nil {
		return model
	}
	progress := model.suggestions[index]
	builder, ok := progress.fields[field]
	if !ok {
		builder = &strings.Builder{}
		progress.fields[field] = builder
	}
	if builder.Len() > 0 {
		builder.WriteString(" ")
	}
	builder.WriteString(payload.Text)
	model.lastTarget = payload.Target
	return model
}

func (model streamModel) View() string {
	faint := model.renderer.style().Foreground(model.renderer.theme.FaintText)

	if model.done() {
		switch {
		case model.interrupted:
			return faint.Render("interrupted") + "\n"
		case model.failureDetail != "":
			return faint.Render("analysis failed") + "\n"
		case model.closed && model.complete == nil:
			return faint.Render("stream ended unexpectedly") + "\n"
		}
		return faint.Render("analysis complete") + "\n"
	}

	var view strings.Builder
	fmt.Fprintf(&view, "%s analysing build log %s\n",
		model.spinner.View(), faint.Render("(q to quit)"))

	if model.classification != nil {
		classification := model.classification.Classification
		severity := model.renderer.style().
			Foreground(model.renderer.theme.SeverityColor(classification.Severity)).
			Render(string(classification.Severity))
		fmt.Fprintf(&view, "  severity %s · stage %s · complexity %s\n",
			severity, classification.Stage, classification.Complexity)
	}
	if model.parsed != nil {
		fmt.Fprintf(&view, "  %s\n", faint.Render(fmt.Sprintf("%d errors parsed", model.parsed.ErrorCount)))
	}

	if current := model.currentSuggestion(); current != nil {
		fmt.Fprintf(&view, "  suggestion %d · %s\n",
			current.payload.Index+1,
			model.renderer.style().Bold(true).Render(current.payload.Suggestion.Title))
		if _, field, ok := splitWordTarget(model.lastTarget); ok {
			if builder := current.fields[field]; builder != nil {
				fmt.Fprintf(&view, "  %s %s\n",
					faint.Render(field+":"),
					textTail(builder.String(), model.renderer.width-len(field)-6))
			}
		}
	}
	return view.String()
}

// currentSuggestion returns the most recently announced suggestion.
func (model streamModel) currentSuggestion() *suggestionProgress {
	for i := len(model.suggestions) - 1; i >= 0; i-- {
		if model.suggestions[i] != nil {
			return model.suggestions[i]
		}
	}
	return nil
}

// Report assembles the complete report from the accumulated stream
// state. Only valid after a complete event.
func (model streamModel) Report() (*buildlog.Report, bool) {
	if model.complete == nil || model.classification == nil {
		return nil, false
	}
	report := &buildlog.Report{
		Classification: model.classification.Classification,
		ParsedErrors:   model.classification.Errors,
		ErrorInsights:  model.classification.Insights,
	}
	for _, progress := range model.suggestions {
		if progress != nil {
			report.Suggestions = append(report.Suggestions, progress.payload.Suggestion)
		}
	}
	return report, true
}

// splitWordTarget parses a word target of the form
// "suggestion-<index>-<field>".
func splitWordTarget(target string) (index int, field string, ok bool) {
	rest, found := strings.CutPrefix(target, "suggestion-")
	if !found {
		return 0, "", false
	}
	indexText, field, found := strings.Cut(rest, "-")
	if !found {
		return 0, "", false
	}
	index, err := strconv.Atoi(indexText)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, field, true
}

// textTail returns the last portion of s that fits in width runes,
// prefixed with an ellipsis when truncated.
func textTail(s string, width int) string {
	if width < 8 {
		width = 8
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return "…" + string(runes[len(runes)-width+1:])
}

// consumeStream renders a classification stream to output. On a
// terminal it runs the live view and prints the full report once the
// stream completes; elsewhere it prints each section as it arrives.
// The returned failure is the detail of the stream's terminal error
// event, empty on success; err reports local rendering problems only.
func consumeStream(events <-chan analysis.Event, output *os.File) (failure string, err error) {
	if !term.IsTerminal(int(output.Fd())) {
		renderer := newReportRendererFor(80, false)
		return printStreamEvents(events, renderer, output), nil
	}

	renderer := newReportRenderer(output)
	program := tea.NewProgram(newStreamModel(events, renderer), tea.WithOutput(output))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("running stream view: %w", err)
	}
	model := final.(streamModel)

	switch {
	case model.interrupted:
		return "", nil
	case model.failureDetail != "":
		return model.failureDetail, nil
	case model.closed && model.complete == nil:
		return "stream ended before completion", nil
	}

	if report, ok := model.Report(); ok {
		fmt.Fprintln(output, renderer.Report(report))
	}
	return "", nil
}

// printStreamEvents is the non-interactive stream consumer: sections
// print in arrival order and word events are skipped, since every
// suggestion event already carries its complete text.
func printStreamEvents(events <-chan analysis.Event, renderer *reportRenderer, output io.Writer) (failure string) {
	sawTerminal := false
	printedSuggestionHeading := false

	for event := range events {
		switch payload := event.Payload.(type) {
		case analysis.ClassificationPayload:
			fmt.Fprintln(output, renderer.Classification(payload.Classification))
		case analysis.ParsedErrorsPayload:
			fmt.Fprintln(output, renderer.ParsedErrors(payload.Errors))
		case analysis.SuggestionPayload:
			if !printedSuggestionHeading {
				fmt.Fprintln(output, renderer.Heading("Fix Suggestions"))
				fmt.Fprintln(output)
				printedSuggestionHeading = true
			}
			fmt.Fprintln(output, renderer.Suggestion(payload.Index, payload.Suggestion))
		case analysis.CompletePayload:
			sawTerminal = true
			fmt.Fprintf(output, "%d suggestions across %d errors\n",
				payload.TotalSuggestions, payload.ErrorCount)
		case analysis.ErrorPayload:
			sawTerminal = true
			failure = payload.Detail
		}
	}
	if !sawTerminal && failure == "" {
		failure = "stream ended before completion"
	}
	return failure
}

// decodeEvent parses one server-sent stream event into its concrete
// payload type, so remote and in-process streams look identical to
// the consumers above.
func decodeEvent(data []byte) (analysis.Event, error) {
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return analysis.Event{}, fmt.Errorf("decoding stream event: %w", err)
	}

	event := analysis.Event{Type: envelope.Type}
	var payloadErr error
	switch envelope.Type {
	case analysis.EventClassification:
		var payload analysis.ClassificationPayload
		payloadErr = json.Unmarshal(envelope.Payload, &payload)
		event.Payload = payload
	case analysis.EventParsedErrors:
		var payload analysis.ParsedErrorsPayload
		payloadErr = json.Unmarshal(envelope.Payload, &payload)
		event.Payload = payload
	case analysis.EventSuggestion:
		var payload analysis.SuggestionPayload
		payloadErr = json.Unmarshal(envelope.Payload, &payload)
		event.Payload = payload
	case analysis.EventWord:
		var payload analysis.WordPayload
		payloadErr = json.Unmarshal(envelope.Payload, &payload)
		event.Payload = payload
	case analysis.EventComplete:
		var payload analysis.CompletePayload
		payloadErr = json.Unmarshal(envelope.Payload, &payload)
		event.Payload = payload
	case analysis.EventError:
		var payload analysis.ErrorPayload
		payloadErr = json.Unmarshal(envelope.Payload, &payload)
		event.Payload = payload
	default:
		return analysis.Event{}, fmt.Errorf("unknown stream event type %q", envelope.Type)
	}
	if payloadErr != nil {
		return analysis.Event{}, fmt.Errorf("decoding %s payload: %w", envelope.Type, payloadErr)
	}
	return event, nil
}
