// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a provider-agnostic interface for Large Language
// Model APIs.
//
// The primary abstraction is [Provider], a single blocking Complete
// call. Provider implementations translate between the common types in
// this package and each vendor's wire format, attaching the vendor's
// credential headers to every request. Classification prompts ask the
// model for one JSON document, so the interface carries plain text
// messages only.
//
// Current provider implementations:
//   - [Anthropic]: Claude models via the Messages API (/v1/messages)
//   - [OpenAI]: the Chat Completions API (/v1/chat/completions),
//     compatible with any server that speaks the same wire format
package llm
