// Package chart renders the current review window as a PNG line chart with
// the detected seizure zones drawn as bands behind the EEG trace.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/window"
)

// ErrTooFewPoints is returned when the window holds fewer than two samples.
var ErrTooFewPoints = errors.New("window needs at least two samples to draw")

// Default chart size in pixels.
const (
	DefaultWidth  = 1200
	DefaultHeight = 400
)

var (
	traceColor = drawing.Color{R: 38, G: 139, B: 210, A: 255}
	zoneColor  = drawing.Color{R: 220, G: 50, B: 47, A: 64}
)

// Highlighter returns the series drawn for one zone. yMin and yMax are the
// bounds of the value axis.
type Highlighter func(zone models.Zone, yMin, yMax float64) chart.Series

// Options controls rendering.
type Options struct {
	Width       int
	Height      int
	Title       string
	Highlighter Highlighter // nil draws a filled band per zone
}

// Band is the default Highlighter: a filled band spanning the full value axis.
func Band(zone models.Zone, yMin, yMax float64) chart.Series {
	return chart.ContinuousSeries{
		Name:    fmt.Sprintf("seizure %d-%d", zone.Start, zone.End),
		XValues: []float64{float64(zone.Start), float64(zone.End)},
		YValues: []float64{yMax, yMax},
		Style: chart.Style{
			StrokeWidth: 0,
			StrokeColor: zoneColor,
			FillColor:   zoneColor,
		},
	}
}

// Render draws view as a PNG into w. The x axis counts samples from the start
// of the recording, so zones line up with the trace.
func Render(w io.Writer, view window.View, opts Options) error {
	eeg := view.Slice.EEG
	if len(eeg) < 2 {
		return ErrTooFewPoints
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Highlighter == nil {
		opts.Highlighter = Band
	}
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("Sequences %d-%d", view.Slice.Start, view.Slice.End-1)
	}

	base := view.Slice.Start * models.SamplesPerSequence
	xs := make([]float64, len(eeg))
	for i := range xs {
		xs[i] = float64(base + i)
	}
	yMin, yMax := valueRange(eeg)

	// Zones first so the trace is drawn on top.
	series := make([]chart.Series, 0, len(view.Zones)+1)
	for _, zone := range view.Zones {
		if s := opts.Highlighter(zone, yMin, yMax); s != nil {
			series = append(series, s)
		}
	}
	series = append(series, chart.ContinuousSeries{
		Name:    "EEG",
		XValues: xs,
		YValues: eeg,
		Style: chart.Style{
			StrokeWidth: 1,
			StrokeColor: traceColor,
		},
	})

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "sample",
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "amplitude",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// valueRange returns padded bounds of values. A flat trace gets a unit margin.
func valueRange(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
