package domain

// Prediction is one scored row from the score partition.
// Corresponds to the predictions table in ClickHouse.
// Created by the ranker, consumed by reporting, never mutated.
type Prediction struct {
	SessionID            string
	ModelID              string
	PredictedLabel       bool
	PredictedProbability float64 // [0, 1]
}
