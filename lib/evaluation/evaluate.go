// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package evaluation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/buildlog"
)

// Classifier produces an overall judgment for a parsed log.
type Classifier interface {
	Classify(ctx context.Context, errorLog buildlog.ErrorLog) (buildlog.Classification, error)
}

// Suggester produces fix suggestions for a parsed log.
type Suggester interface {
	Suggest(ctx context.Context, errorLog buildlog.ErrorLog, classification buildlog.Classification) ([]buildlog.FixSuggestion, error)
}

// Failure records one scoring mismatch or pipeline error.
type Failure struct {
	Sample string `json:"sample"`
	Field  string `json:"field"`
	Want   string `json:"want,omitempty"`
	Got    string `json:"got"`
}

// Metrics scores extraction over a sample set. Per-error fields are
// fractions of the expected errors across all samples; count and
// cascading are fractions of samples.
type Metrics struct {
	TotalSamples int `json:"total_samples"`
	TotalErrors  int `json:"total_errors"`

	ErrorCountAccuracy float64 `json:"error_count_accuracy"`
	CascadingAccuracy  float64 `json:"cascading_accuracy"`
	TypeAccuracy       float64 `json:"type_accuracy"`
	StageAccuracy      float64 `json:"stage_accuracy"`
	SeverityAccuracy   float64 `json:"severity_accuracy"`
	LineNumberAccuracy float64 `json:"line_number_accuracy"`

	Failures []Failure `json:"failures,omitempty"`
}

// Evaluate parses every sample and scores extraction against the
// expected labels. It is deterministic and makes no model calls.
func Evaluate(samples []Sample) Metrics {
	metrics := Metrics{TotalSamples: len(samples)}

	var countCorrect, cascadingCorrect int
	var typeCorrect, stageCorrect, severityCorrect, lineCorrect int

	for _, sample := range samples {
		errorLog := buildlog.Parse(sample.Log)
		metrics.TotalErrors += len(sample.Expected)

		if len(errorLog.Errors) == len(sample.Expected) {
			countCorrect++
		} else {
			metrics.fail(sample.Name, "error_count",
				strconv.Itoa(len(sample.Expected)), strconv.Itoa(len(errorLog.Errors)))
		}
		if errorLog.HasCascadingErrors == sample.Cascading {
			cascadingCorrect++
		} else {
			metrics.fail(sample.Name, "cascading",
				strconv.FormatBool(sample.Cascading), strconv.FormatBool(errorLog.HasCascadingErrors))
		}

		// Compare pairwise in detection order; surplus or missing
		// errors are already covered by the count mismatch.
		limit := min(len(errorLog.Errors), len(sample.Expected))
		for i := range limit {
			got, want := errorLog.Errors[i], sample.Expected[i]
			field := func(name string) string { return fmt.Sprintf("errors[%d].%s", i, name) }

			if got.ErrorType == want.ErrorType {
				typeCorrect++
			} else {
				metrics.fail(sample.Name, field("error_type"), want.ErrorType, got.ErrorType)
			}
			if got.Stage == want.Stage {
				stageCorrect++
			} else {
				metrics.fail(sample.Name, field("stage"), string(want.Stage), string(got.Stage))
			}
			if got.Severity == want.Severity {
				severityCorrect++
			} else {
				metrics.fail(sample.Name, field("severity"), string(want.Severity), string(got.Severity))
			}
			if got.LineNumber != nil && *got.LineNumber == want.LineNumber {
				lineCorrect++
			} else {
				gotLine := "none"
				if got.LineNumber != nil {
					gotLine = strconv.Itoa(*got.LineNumber)
				}
				metrics.fail(sample.Name, field("line_number"), strconv.Itoa(want.LineNumber), gotLine)
			}
		}
	}

	metrics.ErrorCountAccuracy = fraction(countCorrect, metrics.TotalSamples)
	metrics.CascadingAccuracy = fraction(cascadingCorrect, metrics.TotalSamples)
	metrics.TypeAccuracy = fraction(typeCorrect, metrics.TotalErrors)
	metrics.StageAccuracy = fraction(stageCorrect, metrics.TotalErrors)
	metrics.SeverityAccuracy = fraction(severityCorrect, metrics.TotalErrors)
	metrics.LineNumberAccuracy = fraction(lineCorrect, metrics.TotalErrors)
	return metrics
}

func (metrics *Metrics) fail(sample, field, want, got string) {
	metrics.Failures = append(metrics.Failures, Failure{
		Sample: sample, Field: field, Want: want, Got: got,
	})
}

// ClassifierMetrics scores the overall judgment a classifier reaches
// on each sample, plus the volume and confidence of the suggestions
// generated for it.
type ClassifierMetrics struct {
	TotalSamples int `json:"total_samples"`

	SeverityAccuracy   float64 `json:"severity_accuracy"`
	StageAccuracy      float64 `json:"stage_accuracy"`
	ComplexityAccuracy float64 `json:"complexity_accuracy"`

	// OverallAccuracy is the fraction of correct judgments across
	// all three fields and all samples.
	OverallAccuracy float64 `json:"overall_accuracy"`

	// MeanSuggestions is the average suggestion count per sample.
	MeanSuggestions float64 `json:"mean_suggestions"`

	// MeanConfidence averages each sample's mean suggestion
	// confidence over all samples.
	MeanConfidence float64 `json:"mean_confidence"`

	Failures []Failure `json:"failures,omitempty"`
}

// EvaluateClassifier runs the classifier over every sample and scores
// the overall judgment against the ground truth. With a non-nil
// suggester it also generates suggestions per sample and reports
// their volume and mean confidence. Samples whose pipeline calls fail
// are recorded as failures and score zero on every field.
func EvaluateClassifier(ctx context.Context, samples []Sample, classifier Classifier, suggester Suggester) (ClassifierMetrics, error) {
	metrics := ClassifierMetrics{TotalSamples: len(samples)}

	var severityCorrect, stageCorrect, complexityCorrect int
	var totalSuggestions int
	var confidenceSum float64

	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return ClassifierMetrics{}, err
		}

		errorLog := buildlog.Parse(sample.Log)
		classification, err := classifier.Classify(ctx, *errorLog)
		if err != nil {
			metrics.Failures = append(metrics.Failures, Failure{
				Sample: sample.Name, Field: "classify", Got: err.Error(),
			})
			continue
		}

		if classification.Severity == sample.Truth.Severity {
			severityCorrect++
		} else {
			metrics.Failures = append(metrics.Failures, Failure{
				Sample: sample.Name, Field: "severity",
				Want: string(sample.Truth.Severity), Got: string(classification.Severity),
			})
		}
		if classification.Stage == sample.Truth.Stage {
			stageCorrect++
		} else {
			metrics.Failures = append(metrics.Failures, Failure{
				Sample: sample.Name, Field: "stage",
				Want: string(sample.Truth.Stage), Got: string(classification.Stage),
			})
		}
		if classification.Complexity == sample.Truth.Complexity {
			complexityCorrect++
		} else {
			metrics.Failures = append(metrics.Failures, Failure{
				Sample: sample.Name, Field: "complexity",
				Want: string(sample.Truth.Complexity), Got: string(classification.Complexity),
			})
		}

		if suggester == nil {
			continue
		}
		suggestions, err := suggester.Suggest(ctx, *errorLog, classification)
		if err != nil {
			metrics.Failures = append(metrics.Failures, Failure{
				Sample: sample.Name, Field: "suggest", Got: err.Error(),
			})
			continue
		}
		totalSuggestions += len(suggestions)
		if len(suggestions) > 0 {
			var sum float64
			for _, suggestion := range suggestions {
				sum += suggestion.Confidence
			}
			confidenceSum += sum / float64(len(suggestions))
		}
	}

	total := metrics.TotalSamples
	metrics.SeverityAccuracy = fraction(severityCorrect, total)
	metrics.StageAccuracy = fraction(stageCorrect, total)
	metrics.ComplexityAccuracy = fraction(complexityCorrect, total)
	metrics.OverallAccuracy = fraction(severityCorrect+stageCorrect+complexityCorrect, 3*total)
	if total > 0 {
		metrics.MeanSuggestions = float64(totalSuggestions) / float64(total)
		metrics.MeanConfidence = confidenceSum / float64(total)
	}
	return metrics, nil
}

func fraction(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
