// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Loganalyser-service is the HTTP front end for build log analysis.
// It accepts raw PLC build logs, extracts the individual errors,
// asks a language model for an overall classification and per-error
// fix suggestions, and returns the combined report either as a single
// JSON document or as a live Server-Sent Events stream.
//
// Configuration comes from a YAML file ([config.Load]: the
// LOGANALYSER_CONFIG environment variable, then the default path,
// then built-in defaults). The model API key is usually injected via
// an environment variable reference in the provider section.
//
// # Endpoints
//
//   - GET  /                service identity and endpoint list
//   - GET  /health          liveness probe
//   - GET  /playground      browser page that drives /classify/stream
//   - POST /classify        full report in one response
//   - POST /classify/stream report as an SSE event sequence
//
// Both classify endpoints accept {"error_log": "..."} request bodies,
// optionally gzip- or zstd-compressed (Content-Encoding). A log in
// which no errors can be found is a client error, not a server one.
//
// # Streaming Protocol
//
// The stream endpoint emits "data: {json}\n\n" chunks, each an
// [analysis.Event]: classification first, then the parsed error
// listing, then one suggestion event plus word-by-word reveal events
// per suggestion, terminated by exactly one complete or error event.
// Validation problems found before the pipeline starts are reported
// in-band as a terminal error event so consumers only ever parse SSE.
package main
