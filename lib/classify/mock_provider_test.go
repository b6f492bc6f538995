// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"context"
	"sync"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/llm"
)

// mockProvider records Complete calls and replies with configurable
// text. Safe for concurrent use: the suggester fans calls out.
type mockProvider struct {
	mu       sync.Mutex
	requests []llm.Request

	// err, when set, fails every call.
	err error

	// reply, when set, picks the response text per request.
	// Otherwise text is used for every request.
	reply func(request llm.Request) string
	text  string
}

func (m *mockProvider) Complete(_ context.Context, request llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, request)
	if m.err != nil {
		return nil, m.err
	}

	text := m.text
	if m.reply != nil {
		text = m.reply(request)
	}
	return &llm.Response{
		Content:    []llm.ContentBlock{llm.TextBlock(text)},
		Model:      request.Model,
		StopReason: llm.StopReasonEndTurn,
		Usage:      llm.Usage{InputTokens: 700, OutputTokens: 90},
	}, nil
}

func (m *mockProvider) recordedRequests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make([]llm.Request, len(m.requests))
	copy(requests, m.requests)
	return requests
}
