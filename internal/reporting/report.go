// Package reporting renders pipeline run output as Markdown and CSV.
package reporting

import (
	"time"

	"purchase-intent-lab/internal/evaluate"
	"purchase-intent-lab/internal/rank"
)

// Report is the full run report structure.
type Report struct {
	// Metadata
	GeneratedAt     time.Time
	LabelDefinition string
	ModelID         string
	SchemaHash      string
	FeatureColumns  []string

	// Windows as YYYY-MM-DD pairs
	TrainWindow    string
	EvaluateWindow string
	ScoreWindow    string

	DataSummary DataSummary

	// Evaluation of the held-out evaluate partition; nil when the partition
	// was empty.
	Evaluation *evaluate.Report

	// Business metrics over the ranked score partition; nil when the score
	// partition was empty or labels were withheld.
	TopK *rank.TopKReport

	// Non-fatal conditions observed during the run (empty partitions,
	// dropped join rows).
	Warnings []string
}

// DataSummary describes the scanned snapshot and the built feature tables.
type DataSummary struct {
	SessionsScanned   int
	VisitorsLabeled   int
	PositiveVisitors  int
	TrainVectors      int
	EvaluateVectors   int
	ScoreVectors      int
	DroppedNoLabel    int
	SkippedNonFirst   int
	RankedPredictions int
}
