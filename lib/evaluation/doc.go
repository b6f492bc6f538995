// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package evaluation generates synthetic build logs with known labels
// and scores the pipeline against them.
//
// [Generator] produces deterministic variations of two real failure
// shapes: a constant-assignment IEC compilation failure and an
// empty-project code-generator crash. Every [Sample] carries the
// labels its parse should produce and the overall judgment a correct
// classifier should reach.
//
// [Evaluate] scores extraction alone: it is deterministic and makes
// no model calls. [EvaluateClassifier] additionally runs a classifier
// and suggester over each sample and scores the overall judgment, so
// it needs provider credentials and costs real tokens.
package evaluation
