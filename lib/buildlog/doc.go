// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildlog parses free-text PLC build logs into structured
// error records and derives display projections from them.
//
// A PLC build pipeline runs through several stages (PLCopen XML schema
// validation, ST/IL/SFC code generation, IEC 61131-3 compilation,
// native C compilation), and each stage reports failures in its own
// dialect. The package runs a set of independent pattern extractors
// over the log's line sequence, one per dialect:
//
//   - XML schema-validation warnings with an embedded line number
//   - IEC compiler diagnostics of the form file:line-col..line-col
//   - tool crashes reported as Python tracebacks on stderr
//
// A root-cause correlation pass then attaches trailing "build failed"
// banner lines to the structured error that actually caused them, so
// downstream consumers never see a vague umbrella message as an
// independent error.
//
// The severity policy table assigns a default severity to every
// extracted error by stage, and supplies the fallback judgment used
// when the language-model classifier's output cannot be parsed.
package buildlog
