// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package buildlog

// The policy tables below are total over the Stage enumeration. They
// serve two distinct consumers: extraction assigns each new error the
// severity of its stage, and the classifier substitutes the fallback
// classification when the model's output cannot be parsed.

var severityByStage = map[Stage]Severity{
	StageXMLValidation:  SeverityWarning,
	StageCodeGeneration: SeverityWarning,
	StageIECCompilation: SeverityBlocking,
	StageCCompilation:   SeverityBlocking,
	StageUnknown:        SeverityInfo,
}

var complexityByStage = map[Stage]Complexity{
	StageXMLValidation:  ComplexityTrivial,
	StageCodeGeneration: ComplexityModerate,
	StageIECCompilation: ComplexityTrivial,
	StageCCompilation:   ComplexityComplex,
	StageUnknown:        ComplexityModerate,
}

// DefaultSeverity returns the policy severity for a stage. Unknown
// stages map to info.
func DefaultSeverity(stage Stage) Severity {
	if severity, ok := severityByStage[stage]; ok {
		return severity
	}
	return SeverityInfo
}

// DefaultComplexity returns the policy complexity for a stage.
// Unknown stages map to moderate.
func DefaultComplexity(stage Stage) Complexity {
	if complexity, ok := complexityByStage[stage]; ok {
		return complexity
	}
	return ComplexityModerate
}

// FallbackClassification is the overall judgment substituted when the
// classifier collaborator's output cannot be parsed. An unparseable
// judgment must not downgrade a build failure, so severity is
// blocking; stage and complexity take the unknown-stage policy
// values. The reasoning explains the substitution to the reader.
func FallbackClassification(reasoning string) Classification {
	return Classification{
		Severity:   SeverityBlocking,
		Stage:      StageUnknown,
		Complexity: DefaultComplexity(StageUnknown),
		Reasoning:  reasoning,
	}
}

// Confidence weight tables for deterministic suggestion scoring. The
// model's self-reported confidence varies run to run, so suggestion
// confidence is computed from the stable classification instead.
var (
	severityWeights = map[Severity]float64{
		SeverityBlocking: 0.9,
		SeverityWarning:  0.6,
		SeverityInfo:     0.4,
	}

	complexityWeights = map[Complexity]float64{
		ComplexityTrivial:  0.5,
		ComplexityModerate: 0.65,
		ComplexityComplex:  0.8,
	}

	stageOffsets = map[Stage]float64{
		StageXMLValidation:  0.0,
		StageCodeGeneration: 0.03,
		StageIECCompilation: 0.05,
		StageCCompilation:   0.07,
		StageUnknown:        0.0,
	}
)

// SuggestionConfidence computes the deterministic confidence for the
// position-th suggestion (zero-based) of an error, given the overall
// classification: the mean of the severity and complexity weights,
// shifted by the stage offset, decaying 0.02 per position, clamped to
// [0, 1].
func SuggestionConfidence(classification Classification, position int) float64 {
	severityScore, ok := severityWeights[classification.Severity]
	if !ok {
		severityScore = 0.5
	}
	complexityScore, ok := complexityWeights[classification.Complexity]
	if !ok {
		complexityScore = 0.6
	}

	confidence := (severityScore+complexityScore)/2 +
		stageOffsets[classification.Stage] -
		float64(position)*0.02
	return min(1.0, max(0.0, confidence))
}
