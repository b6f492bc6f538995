// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const openaiBaseURL = "https://api.openai.com"

// OpenAI implements [Provider] for the OpenAI Chat Completions API.
// The API key travels as a bearer token. This is compatible with any
// API that implements the chat completions wire format (OpenAI, Azure
// OpenAI, OpenRouter, vLLM, Ollama, llama.cpp, etc.).
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewOpenAI creates an OpenAI-compatible provider. A nil httpClient
// falls back to http.DefaultClient. An empty baseURL targets the
// public OpenAI API; set it to point at any compatible server.
func NewOpenAI(httpClient *http.Client, apiKey, baseURL string) *OpenAI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = openaiBaseURL
	}
	return &OpenAI{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Complete sends a request and returns the full response.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.endpoint(), wireRequest, provider.headers(), "llm/openai")
	if err != nil {
		return nil, err
	}

	return decodeResponse[openaiResponse](httpResponse, "llm/openai")
}

// endpoint returns the Chat Completions API URL.
func (provider *OpenAI) endpoint() string {
	return provider.baseURL + "/v1/chat/completions"
}

func (provider *OpenAI) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + provider.apiKey,
	}
}

// buildRequest converts our types to the OpenAI wire format.
func (provider *OpenAI) buildRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
	}

	if request.Temperature != nil {
		wireRequest.Temperature = request.Temperature
	}
	if len(request.StopSequences) > 0 {
		wireRequest.Stop = request.StopSequences
	}

	// System prompt becomes the first message with role "system".
	if request.System != "" {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    "system",
			Content: openaiTextContent(request.System),
		})
	}

	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, toOpenAIMessage(message))
	}

	return wireRequest
}

// --- OpenAI wire types ---
//
// These map directly to the OpenAI Chat Completions API JSON format.
// The Content field on openaiMessage is json.RawMessage rather than
// string because OpenAI's content field is polymorphic: a JSON string
// for text-only messages and a JSON array of content parts for
// multimodal inputs. Only the string case is produced here.

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type openaiMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content,omitempty"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// --- Wire type helpers ---

// openaiTextContent serializes a text string as a JSON value suitable
// for the openaiMessage Content field.
func openaiTextContent(text string) json.RawMessage {
	data, _ := json.Marshal(text)
	return data
}

// openaiContentText extracts a text string from an openaiMessage's
// Content field. Returns empty string if Content is nil/empty or not
// a JSON string.
func openaiContentText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var text string
	if json.Unmarshal(content, &text) == nil {
		return text
	}
	return ""
}

// --- Wire type conversions ---

func toOpenAIMessage(message Message) openaiMessage {
	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == ContentText {
			text.WriteString(block.Text)
		}
	}
	return openaiMessage{
		Role:    string(message.Role),
		Content: openaiTextContent(text.String()),
	}
}

func (wireResponse *openaiResponse) toResponse() *Response {
	response := &Response{
		Model: wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.PromptTokens,
			OutputTokens: wireResponse.Usage.CompletionTokens,
		},
	}

	if len(wireResponse.Choices) == 0 {
		return response
	}

	choice := wireResponse.Choices[0]
	response.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	if text := openaiContentText(choice.Message.Content); text != "" {
		response.Content = append(response.Content, TextBlock(text))
	}
	return response
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	default:
		return StopReason(reason)
	}
}
