package models

import (
	"fmt"
)

// Dataset is one loaded recording with its predictions.
type Dataset struct {
	Input        [][]float64  `json:"input"`         // One row of samples per sequence
	Output       []Prediction `json:"output"`        // Live, user-editable predictions
	OutputFrozen []Prediction `json:"output_frozen"` // Filtered model output captured at load
}

// Len returns the number of sequences.
func (d *Dataset) Len() int {
	return len(d.Input)
}

// Validate checks the dataset invariants.
func (d *Dataset) Validate() error {
	if len(d.Output) != len(d.Input) {
		return fmt.Errorf("output length %d must equal input length %d", len(d.Output), len(d.Input))
	}
	if len(d.OutputFrozen) != len(d.Input) {
		return fmt.Errorf("frozen output length %d must equal input length %d", len(d.OutputFrozen), len(d.Input))
	}
	for i, row := range d.Input {
		if len(row) > SamplesPerSequence {
			return fmt.Errorf("sequence %d has %d samples, at most %d allowed", i, len(row), SamplesPerSequence)
		}
	}
	return nil
}
