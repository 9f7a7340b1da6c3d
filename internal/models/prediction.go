// Package models defines the domain entities for seizurescope.
// These models represent per-sequence seizure predictions, the seizure events derived
// from them, the visible chart window, and the aggregate review statistics.
//
// Terminology:
//   - Sequence: one 5-second block of EEG signal (500 samples at 100 Hz) and its prediction.
//   - Streak: a maximal span of consecutive sequences sharing a prediction value.
//   - Frozen output: the filtered model output captured once ingestion completes.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// SamplesPerSequence is the number of EEG samples in one sequence.
	SamplesPerSequence = 500
	// SamplingRateHz is the sampling rate of the downsampled EEG signal.
	SamplingRateHz = 100
	// SecondsPerSequence is the duration covered by one sequence.
	SecondsPerSequence = SamplesPerSequence / SamplingRateHz
	// DefaultBatchSize is the number of sequences sent per prediction request.
	DefaultBatchSize = 36
	// DefaultSliceStep is the pagination increment of the chart window.
	DefaultSliceStep = 36
	// DefaultMinStreak is the shortest positive run kept by the streak filter.
	DefaultMinStreak = 3
	// NavigateAlignment is the granularity window starts snap to when seeking.
	NavigateAlignment = 10
)

// Prediction is the outcome for one sequence. The zero value is Unknown, which
// marks a sequence whose prediction failed.
type Prediction int8

const (
	Unknown Prediction = iota
	False
	True
)

// PredictionOf converts a boolean model output.
func PredictionOf(b bool) Prediction {
	if b {
		return True
	}
	return False
}

// Not negates a known prediction. Unknown stays Unknown.
func (p Prediction) Not() Prediction {
	switch p {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// IsSeizure reports whether p is a positive prediction.
func (p Prediction) IsSeizure() bool {
	return p == True
}

// Int returns the export representation: 1 for True, 0 otherwise.
func (p Prediction) Int() int {
	if p == True {
		return 1
	}
	return 0
}

func (p Prediction) String() string {
	switch p {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (p Prediction) MarshalJSON() ([]byte, error) {
	switch p {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false and null.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*p = True
	case "false":
		*p = False
	case "null":
		*p = Unknown
	default:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid prediction %s: %w", data, err)
		}
		*p = PredictionOf(b)
	}
	return nil
}

// Unknowns returns a run of n Unknown placeholders.
func Unknowns(n int) []Prediction {
	return make([]Prediction, n)
}
