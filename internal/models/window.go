package models

import (
	"errors"
)

// Window is the half-open range of sequences currently rendered in the chart.
// The end is not clamped to the data: a window may hang past the last sequence
// as long as it still contains at least one. The start is never negative.
type Window struct {
	SliceStart int `json:"slice_start" yaml:"slice_start"`
	SliceEnd   int `json:"slice_end" yaml:"slice_end"`
	SliceStep  int `json:"slice_step" yaml:"slice_step"`
}

// DefaultWindow returns the window shown right after a dataset loads.
func DefaultWindow(step int) Window {
	if step <= 0 {
		step = DefaultSliceStep
	}
	return Window{SliceStart: 0, SliceEnd: step, SliceStep: step}
}

// Bounds intersects the window with [0, total). A window wholly outside the
// data yields an empty range inside it.
func (w Window) Bounds(total int) (start, end int) {
	start = min(max(w.SliceStart, 0), total)
	end = min(w.SliceEnd, total)
	if end < start {
		end = start
	}
	return start, end
}

// Contained returns how many of total sequences fall inside the window.
func (w Window) Contained(total int) int {
	start, end := w.Bounds(total)
	return end - start
}

// Validate checks that the window is well formed.
func (w *Window) Validate() error {
	if w.SliceEnd <= w.SliceStart {
		return errors.New("slice end must be greater than slice start")
	}
	if w.SliceStep < 1 {
		return errors.New("slice step must be at least 1")
	}
	return nil
}
