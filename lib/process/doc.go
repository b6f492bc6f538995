// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These functions
// centralize the raw I/O that exists before the structured logger is
// initialized: fatal error reporting to stderr and process exit after
// an unrecoverable error in main().
package process
