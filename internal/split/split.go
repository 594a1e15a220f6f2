// Package split validates the train/evaluate/score window configuration.
// Overlapping or disordered windows silently inflate evaluation accuracy
// through temporal leakage, so violations are configuration errors rejected
// before any data is scanned.
package split

import (
	"errors"
	"fmt"

	"purchase-intent-lab/internal/domain"
)

// ErrWindowConfig is the sentinel for all window configuration failures.
var ErrWindowConfig = errors.New("invalid dataset window configuration")

// Partition names used in errors and reports.
const (
	PartitionTrain    = "train"
	PartitionEvaluate = "evaluate"
	PartitionScore    = "score"
)

// Config holds the three disjoint, chronologically ordered date windows.
type Config struct {
	Train    domain.DateWindow
	Evaluate domain.DateWindow
	Score    domain.DateWindow
}

// Validate rejects inverted windows, any pairwise overlap, and windows out
// of train < evaluate < score order. All errors wrap ErrWindowConfig.
func (c Config) Validate() error {
	windows := []struct {
		name   string
		window domain.DateWindow
	}{
		{PartitionTrain, c.Train},
		{PartitionEvaluate, c.Evaluate},
		{PartitionScore, c.Score},
	}

	for _, w := range windows {
		if !w.window.Valid() {
			return fmt.Errorf("%w: %s window %s is empty or inverted", ErrWindowConfig, w.name, w.window)
		}
	}

	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			if windows[i].window.Overlaps(windows[j].window) {
				return fmt.Errorf("%w: %s window %s overlaps %s window %s",
					ErrWindowConfig,
					windows[i].name, windows[i].window,
					windows[j].name, windows[j].window)
			}
		}
	}

	if !c.Train.End.Before(c.Evaluate.Start) {
		return fmt.Errorf("%w: train window %s must end before evaluate window %s starts",
			ErrWindowConfig, c.Train, c.Evaluate)
	}
	if !c.Evaluate.End.Before(c.Score.Start) {
		return fmt.Errorf("%w: evaluate window %s must end before score window %s starts",
			ErrWindowConfig, c.Evaluate, c.Score)
	}

	return nil
}

// Partition returns the partition name containing the given date, or "" when
// the date falls in none of the windows.
func (c Config) Partition(d domain.DateWindow) string {
	switch {
	case c.Train.Overlaps(d):
		return PartitionTrain
	case c.Evaluate.Overlaps(d):
		return PartitionEvaluate
	case c.Score.Overlaps(d):
		return PartitionScore
	}
	return ""
}
