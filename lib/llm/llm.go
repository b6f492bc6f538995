// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentType discriminates the variants of a [ContentBlock].
type ContentType string

// ContentText is a plain text block. It is the only content type the
// analysis prompts produce or consume.
const ContentText ContentType = "text"

// ContentBlock is one element of a message's content.
type ContentBlock struct {
	Type ContentType
	Text string
}

// TextBlock creates a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// Message is a single turn in a conversation.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// UserMessage creates a user message with a single text block.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// Request is a provider-independent completion request.
type Request struct {
	// Model is the provider-specific model identifier.
	Model string

	// System is the system prompt. Empty means no system prompt.
	System string

	// Messages is the conversation, oldest turn first.
	Messages []Message

	// MaxTokens caps the length of the generated response.
	MaxTokens int

	// Temperature overrides the provider's default sampling
	// temperature when non-nil.
	Temperature *float64

	// StopSequences end generation early when the model emits any
	// of them.
	StopSequences []string
}

// StopReason reports why the model stopped generating. Providers map
// their vendor-specific values onto these; unrecognized values pass
// through verbatim.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// Usage reports token consumption for a single API call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is a provider-independent completion response.
type Response struct {
	Content    []ContentBlock
	Model      string
	StopReason StopReason
	Usage      Usage
}

// TextContent concatenates the text of all text blocks in the response.
func (response *Response) TextContent() string {
	var builder strings.Builder
	for _, block := range response.Content {
		if block.Type == ContentText {
			builder.WriteString(block.Text)
		}
	}
	return builder.String()
}
