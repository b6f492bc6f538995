// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/analysis"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/classify"
	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
)

const testAPIKey = "test-key"

// constantErrorLog is a real build transcript: an XML schema warning
// at line 61 followed by an IEC constant-assignment diagnostic at
// line 30 and the two umbrella failure banners the toolchain prints
// afterwards. Extraction yields two errors.
const constantErrorLog = `[17:05:55]: Building project...
[17:05:56]: Cannot build project.
stdout: Warning: PLC XML file doesn't follow XSD schema at line 61:
Element '{http://www.plcopen.org/xml/tc6_0201}data': Missing child element(s).
Generating SoftPLC IEC-61131 ST/IL/SFC code...
Compiling IEC Program into C code...
Warning: /tmp/.tmpMngQvj/build/plc.st:30-4..30-12: error: Assignment to CONSTANT variables is not allowed.
Warning: In section: PROGRAM program0
Warning: 0030: LocalVar1 := LocalVar0;
Error: Error : IEC to C compiler returned 1
Error: PLC code generation failed !`

// cleanLog contains no recognizable error patterns at all.
const cleanLog = `[09:00:00]: Building project...
Generating SoftPLC IEC-61131 ST/IL/SFC code...
Compiling IEC Program into C code...
Build finished.`

// classificationReply is a well-formed classification the mock hands
// back for classification prompts unless a test overrides it.
const classificationReply = `{
  "severity": "blocking",
  "stage": "iec_compilation",
  "complexity": "trivial",
  "reasoning": "The IEC compiler rejects an assignment to a CONSTANT variable at plc.st line 30 and returns exit code 1."
}`

// targetIndexPattern extracts the zero-based target index a
// suggestion prompt names.
var targetIndexPattern = regexp.MustCompile(`Target Error Index: (\d+)`)

// mockModel is a scripted Anthropic Messages API server. It validates
// the wire protocol (path, method, credential headers, body shape)
// and answers classification and suggestion prompts from its script.
// It never inspects outcomes: all assertions live in the tests, which
// observe results through the analyzer's public surface.
type mockModel struct {
	// ClassifyReply is the text returned for classification prompts.
	ClassifyReply string

	// SuggestReply returns the text for a suggestion prompt given the
	// target index the prompt names. Nil means a fixed single-item
	// reply targeting whatever index was asked for.
	SuggestReply func(target int) string

	mutex          sync.Mutex
	classifyCalls  int
	suggestTargets []int
}

// newMockModel starts the scripted server. The returned base URL
// routes the real Anthropic provider at the mock.
func newMockModel(t *testing.T, model *mockModel) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v1/messages" || request.Method != http.MethodPost {
			t.Errorf("mock model: unexpected %s %s", request.Method, request.URL.Path)
			http.NotFound(writer, request)
			return
		}
		if got := request.Header.Get("x-api-key"); got != testAPIKey {
			t.Errorf("mock model: x-api-key = %q, want %q", got, testAPIKey)
		}
		if request.Header.Get("anthropic-version") == "" {
			t.Error("mock model: missing anthropic-version header")
		}

		var wireRequest struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			t.Errorf("mock model: undecodable request body: %v", err)
			http.Error(writer, "bad request body", http.StatusBadRequest)
			return
		}
		if len(wireRequest.Messages) == 0 || len(wireRequest.Messages[0].Content) == 0 {
			t.Error("mock model: request carries no message content")
			http.Error(writer, "empty request", http.StatusBadRequest)
			return
		}

		prompt := wireRequest.Messages[0].Content[0].Text
		match := targetIndexPattern.FindStringSubmatch(prompt)
		if match == nil {
			// Classification prompt.
			model.mutex.Lock()
			model.classifyCalls++
			model.mutex.Unlock()
			writeModelReply(writer, wireRequest.Model, model.ClassifyReply)
			return
		}

		target, err := strconv.Atoi(match[1])
		if err != nil {
			t.Errorf("mock model: unparseable target index %q", match[1])
		}
		model.mutex.Lock()
		model.suggestTargets = append(model.suggestTargets, target)
		model.mutex.Unlock()

		reply := defaultSuggestReply(target)
		if model.SuggestReply != nil {
			reply = model.SuggestReply(target)
		}
		writeModelReply(writer, wireRequest.Model, reply)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// writeModelReply frames text as a non-streaming Messages API
// response with a single text content block.
func writeModelReply(writer http.ResponseWriter, model, text string) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(map[string]any{
		"id":          "msg_mock",
		"type":        "message",
		"role":        "assistant",
		"model":       model,
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 100, "output_tokens": 50},
	})
}

// defaultSuggestReply is one well-formed suggestion for the named
// target. The model-reported confidence and index are deliberately
// wrong: the suggester must discard both.
func defaultSuggestReply(target int) string {
	return fmt.Sprintf(`[
  {
    "title": "Fix for error %d",
    "description": "Declare the variable without the CONSTANT qualifier or assign a different variable.",
    "root_cause": "Assignment targets a variable declared CONSTANT.",
    "code_before": "VAR CONSTANT LocalVar1 : INT; END_VAR",
    "code_after": "VAR LocalVar1 : INT; END_VAR",
    "confidence": 99.0,
    "error_index": 41
  }
]`, target)
}

// ClassifyCalls reports how many classification prompts the mock
// answered.
func (model *mockModel) ClassifyCalls() int {
	model.mutex.Lock()
	defer model.mutex.Unlock()
	return model.classifyCalls
}

// SuggestTargets reports the target indices of the suggestion prompts
// the mock answered, in arrival order.
func (model *mockModel) SuggestTargets() []int {
	model.mutex.Lock()
	defer model.mutex.Unlock()
	return append([]int(nil), model.suggestTargets...)
}

// newFailingSuggestModel starts a server that answers classification
// prompts from classifyReply and fails every suggestion prompt with
// HTTP 500, for testing mid-pipeline transport failures.
func newFailingSuggestModel(t *testing.T, classifyReply string) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var wireRequest struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(request.Body).Decode(&wireRequest); err != nil {
			http.Error(writer, "bad request body", http.StatusBadRequest)
			return
		}
		prompt := ""
		if len(wireRequest.Messages) > 0 && len(wireRequest.Messages[0].Content) > 0 {
			prompt = wireRequest.Messages[0].Content[0].Text
		}
		if targetIndexPattern.MatchString(prompt) {
			http.Error(writer, `{"error":{"type":"api_error","message":"backend unavailable"}}`, http.StatusInternalServerError)
			return
		}
		writeModelReply(writer, wireRequest.Model, classifyReply)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// newAnalyzer assembles the production pipeline against the mock
// model: real Anthropic provider, real classifier and suggester, real
// parser. Workers is pinned to 1 so suggestion prompts arrive at the
// mock in log order.
func newAnalyzer(t *testing.T, baseURL string) *analysis.Analyzer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := llm.NewAnthropic(nil, testAPIKey, baseURL)

	return analysis.NewAnalyzer(analysis.AnalyzerConfig{
		Classifier: classify.NewClassifier(classify.ClassifierConfig{
			Provider: provider,
			Logger:   logger,
		}),
		Suggester: classify.NewSuggester(classify.SuggesterConfig{
			Provider: provider,
			Workers:  1,
			Logger:   logger,
		}),
		Logger: logger,
	})
}
