// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Command loganalyser is the terminal front end for the log analysis
// pipeline.
//
// # Commands
//
//   - classify: analyse one build log, in-process or via a running
//     service, with optional live streaming output
//   - generate: write synthetic labelled build logs for testing
//   - evaluate: score extraction (and optionally the configured
//     model) against synthetic labelled logs
//   - version: print version information
//
// In-process commands read the same configuration as the service:
// the file named by --config or LOGANALYSER_CONFIG, with environment
// variable expansion and defaults.
package main
