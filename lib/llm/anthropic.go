// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"

	// anthropicVersion pins the Messages API revision. Sent with every
	// request in the anthropic-version header.
	anthropicVersion = "2023-06-01"
)

// Anthropic implements [Provider] for the Anthropic Messages API.
// The API key travels in the x-api-key header.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewAnthropic creates an Anthropic provider. A nil httpClient falls
// back to http.DefaultClient. An empty baseURL targets the public API;
// set it to route through a gateway or a test server.
func NewAnthropic(httpClient *http.Client, apiKey, baseURL string) *Anthropic {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &Anthropic{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Complete sends a request and returns the full response.
func (provider *Anthropic) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.endpoint(), wireRequest, provider.headers(), "llm/anthropic")
	if err != nil {
		return nil, err
	}

	return decodeResponse[anthropicResponse](httpResponse, "llm/anthropic")
}

// endpoint returns the Messages API URL.
func (provider *Anthropic) endpoint() string {
	return provider.baseURL + "/v1/messages"
}

func (provider *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         provider.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// buildRequest converts our types to Anthropic wire format.
func (provider *Anthropic) buildRequest(request Request) anthropicRequest {
	wireRequest := anthropicRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
	}

	if request.System != "" {
		wireRequest.System = request.System
	}
	if request.Temperature != nil {
		wireRequest.Temperature = request.Temperature
	}
	if len(request.StopSequences) > 0 {
		wireRequest.StopSequences = request.StopSequences
	}

	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, toAnthropicMessage(message))
	}

	return wireRequest
}

// --- Anthropic wire types ---
//
// These map directly to the Anthropic Messages API JSON format. They
// are separate from the public types because the wire format uses
// snake_case and carries provider-specific envelope fields.

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
	Temperature   *float64           `json:"temperature,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// --- Wire type conversions ---

func toAnthropicMessage(message Message) anthropicMessage {
	wire := anthropicMessage{Role: string(message.Role)}
	for _, block := range message.Content {
		wire.Content = append(wire.Content, anthropicContentBlock{
			Type: "text",
			Text: block.Text,
		})
	}
	return wire
}

func (wireResponse *anthropicResponse) toResponse() *Response {
	response := &Response{
		StopReason: mapAnthropicStopReason(wireResponse.StopReason),
		Model:      wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.InputTokens,
			OutputTokens: wireResponse.Usage.OutputTokens,
		},
	}
	for _, wireBlock := range wireResponse.Content {
		response.Content = append(response.Content, fromAnthropicContentBlock(wireBlock))
	}
	return response
}

func fromAnthropicContentBlock(wire anthropicContentBlock) ContentBlock {
	if wire.Type == "text" {
		return TextBlock(wire.Text)
	}
	// Unknown block types are preserved as text with a type prefix.
	return TextBlock(fmt.Sprintf("[%s] %s", wire.Type, wire.Text))
}

func mapAnthropicStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopReasonEndTurn
	case "max_tokens":
		return StopReasonMaxTokens
	case "stop_sequence":
		return StopReasonStopSequence
	default:
		return StopReason(reason)
	}
}
