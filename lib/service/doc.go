// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the HTTP infrastructure for the log
// analysis API.
//
// [HTTPServer] owns listener lifecycle and graceful shutdown; the
// caller provides the http.Handler. The rest of the package is the
// plumbing those handlers share:
//
//   - Request middleware: request IDs, structured request logging,
//     and CORS headers for browser-based callers.
//   - Compressed request bodies: [ReadBody] transparently decodes
//     gzip and zstd content encodings.
//   - Server-Sent Events: [SSEWriter] frames JSON events for the
//     streaming endpoint, [SSEScanner] parses them on the client
//     side.
//
// Handlers compose these utilities in their own main() function
// rather than subclassing a framework. The package provides building
// blocks, not a runtime.
package service
