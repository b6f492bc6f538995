// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package classify turns parsed build logs into model-backed
// judgments: one overall [buildlog.Classification] for the whole log
// and one to three [buildlog.FixSuggestion] values per parsed error.
//
// Model responses are untrusted input. JSON is extracted from
// markdown fences when present, normalized through jsonc, and
// validated against the known enum values; responses that fail any
// of that degrade to deterministic fallbacks from the buildlog
// policy tables instead of failing the request. Transport errors do
// fail the request: without a model there is nothing useful to
// return.
package classify
