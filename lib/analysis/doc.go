// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package analysis orchestrates the full pipeline over one raw build
// log: extraction (buildlog), classification and fix suggestions
// (classify), and insight projection, assembled into a
// [buildlog.Report].
//
// Two delivery shapes share the same pipeline. [Analyzer.Analyze]
// blocks and returns the complete report. [Analyzer.AnalyzeStream]
// yields discrete events through a caller-supplied emit function in
// fixed relative order, computing nothing ahead of need, so a slow
// model call delays only the events that depend on it.
//
// Analyzers are stateless across calls: concurrent requests share
// nothing but the collaborators, which are safe for concurrent use.
package analysis
