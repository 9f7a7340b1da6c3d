// Package window derives everything the chart shows from a long prediction
// sequence: the grouped seizure summary, the visible window slice, highlight
// zones and review statistics, plus the user corrections that feed back into
// the live output.
//
// The engine performs no I/O. It reads seizureData.{input,output,outputFrozen}
// from the application store on every call, writes corrections back through
// that store, and keeps its own window bounds in a small observable store so
// window moves notify like any other state change.
package window

import (
	"fmt"
	"strconv"

	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/observable"
)

// StoreName is the name of the engine's window store.
const StoreName = "SeizureDetectionChart"

// Keys of the seizureData region of the application store.
const (
	SeizureDataKey  = "seizureData"
	InputKey        = "input"
	OutputKey       = "output"
	OutputFrozenKey = "outputFrozen"
)

// Window store keys.
const (
	sliceStartKey = "sliceStart"
	sliceEndKey   = "sliceEnd"
	sliceStepKey  = "sliceStep"
)

// Direction of a pagination move.
type Direction int

const (
	Next Direction = iota
	Previous
)

func (d Direction) String() string {
	if d == Previous {
		return "previous"
	}
	return "next"
}

// Slice is the part of the dataset covered by a window.
type Slice struct {
	Start       int                 // First sequence actually present
	End         int                 // One past the last sequence actually present
	EEG         []float64           // Samples of [Start, End), flattened in order
	Predictions []models.Prediction // output[Start:End]
}

// View is everything needed to draw the current window.
type View struct {
	Window models.Window
	Slice  Slice
	Zones  []models.Zone
}

// Engine is the seizure window engine for one loaded dataset.
type Engine struct {
	state     *observable.Store
	view      *observable.Store
	summary   []models.SeizureEvent
	sliceStep int
	alignment int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSliceStep sets the default pagination increment and window width.
func WithSliceStep(step int) Option {
	return func(e *Engine) {
		if step > 0 {
			e.sliceStep = step
		}
	}
}

// New creates an engine over the seizureData held by state. Window moves are
// emitted through owner. The summary is computed once, here.
func New(owner observable.Emitter, state *observable.Store, opts ...Option) (*Engine, error) {
	if state == nil {
		return nil, fmt.Errorf("window engine requires a state store")
	}

	e := &Engine{
		state:     state,
		sliceStep: models.DefaultSliceStep,
		alignment: models.NavigateAlignment,
	}
	for _, opt := range opts {
		opt(e)
	}

	w := models.DefaultWindow(e.sliceStep)
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid window: %w", err)
	}
	view, err := observable.New(owner, StoreName, map[string]int{
		sliceStartKey: w.SliceStart,
		sliceEndKey:   w.SliceEnd,
		sliceStepKey:  w.SliceStep,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window store: %w", err)
	}
	e.view = view

	e.summary = e.ComputeSummary()
	logger.Debug("Window engine ready: %d sequences, %d seizure(s) detected", len(e.input()), len(e.summary))

	return e, nil
}

// Store returns the engine's window store.
func (e *Engine) Store() *observable.Store {
	return e.view
}

// Summary returns the summary computed when the engine was created. Only the
// Rejected flag changes afterwards, and only in ComputeStats results.
func (e *Engine) Summary() []models.SeizureEvent {
	out := make([]models.SeizureEvent, len(e.summary))
	copy(out, e.summary)
	return out
}

// Window returns the current window bounds.
func (e *Engine) Window() models.Window {
	root := e.view.Data()
	return models.Window{
		SliceStart: root.Get(sliceStartKey).(int),
		SliceEnd:   root.Get(sliceEndKey).(int),
		SliceStep:  root.Get(sliceStepKey).(int),
	}
}

// View cuts the slice and zones for the current window.
func (e *Engine) View() View {
	w := e.Window()
	slice := e.ComputeWindowSlice(w.SliceStart, w.SliceEnd)
	return View{
		Window: w,
		Slice:  slice,
		Zones:  ComputeHighlightZones(slice.Predictions, slice.Start),
	}
}

// ComputeSummary scans the live output once for streak starts, then measures
// each streak forward while the output stays positive.
func (e *Engine) ComputeSummary() []models.SeizureEvent {
	output := e.output()

	var starts []int
	inStreak := false
	for i, p := range output {
		if !p.IsSeizure() {
			inStreak = false
			continue
		}
		if inStreak {
			continue
		}
		starts = append(starts, i)
		inStreak = true
	}

	summary := make([]models.SeizureEvent, 0, len(starts))
	for _, start := range starts {
		length := 0
		for i := start; i < len(output) && output[i].IsSeizure(); i++ {
			length++
		}
		summary = append(summary, models.NewSeizureEvent(start, length))
	}
	return summary
}

// ComputeWindowSlice returns the flattened samples and predictions of the
// sequences of [start, end) that exist in the dataset.
func (e *Engine) ComputeWindowSlice(start, end int) Slice {
	input := e.input()
	output := e.output()

	w := models.Window{SliceStart: start, SliceEnd: end}
	lo, hi := w.Bounds(len(input))

	eeg := make([]float64, 0, (hi-lo)*models.SamplesPerSequence)
	for _, row := range input[lo:hi] {
		eeg = append(eeg, row...)
	}

	plo, phi := min(lo, len(output)), min(hi, len(output))
	preds := make([]models.Prediction, phi-plo)
	copy(preds, output[plo:phi])

	return Slice{Start: lo, End: hi, EEG: eeg, Predictions: preds}
}

// ComputeHighlightZones emits one zone per positive block of the window.
// Adjacent positive blocks are not merged.
func ComputeHighlightZones(preds []models.Prediction, sliceStart int) []models.Zone {
	base := sliceStart * models.SamplesPerSequence
	var zones []models.Zone
	for i, p := range preds {
		if p != models.True {
			continue
		}
		start := base + i*models.SamplesPerSequence
		zones = append(zones, models.Zone{Start: start, End: start + models.SamplesPerSequence})
	}
	return zones
}

// Paginate shifts the window by step sequences (the slice step when step <= 0).
// The move is rejected, leaving the window untouched, when the shifted window
// would start before the data or contain no sequence. The end is not clamped.
func (e *Engine) Paginate(direction Direction, step int) bool {
	w := e.Window()
	if step <= 0 {
		step = w.SliceStep
	}
	if direction == Previous {
		step = -step
	}

	next := models.Window{SliceStart: w.SliceStart + step, SliceEnd: w.SliceEnd + step, SliceStep: w.SliceStep}
	if next.SliceStart < 0 || next.Contained(len(e.input())) < 1 {
		logger.Debug("Pagination %s by %d rejected at [%d, %d)", direction, abs(step), w.SliceStart, w.SliceEnd)
		return false
	}

	e.setWindow(next)
	return true
}

// NavigateToSequence recenters the window on index, snapping the start to the
// nearest multiple of the alignment (10).
func (e *Engine) NavigateToSequence(index int) bool {
	if index < 0 {
		return false
	}

	w := e.Window()
	start := (index + e.alignment/2) / e.alignment * e.alignment
	next := models.Window{SliceStart: start, SliceEnd: start + w.SliceStep, SliceStep: w.SliceStep}
	if next.Contained(len(e.input())) < 1 {
		logger.Debug("Navigation to sequence %d rejected", index)
		return false
	}

	e.setWindow(next)
	return true
}

// ToggleAcceptance flips the live prediction of the whole original run that
// starts at index. The run is read from outputFrozen every time, so a
// partially edited event is always toggled as the event the model reported.
// It returns the flipped indexes; out-of-range indexes are a no-op.
func (e *Engine) ToggleAcceptance(index int) []int {
	outputNode, ok := e.seizureNode(OutputKey)
	if !ok {
		return nil
	}
	output, _ := outputNode.Value().([]models.Prediction)
	if index < 0 || index >= len(output) {
		return nil
	}

	frozen := e.frozen()
	var run []int
	for i := index; i < len(frozen) && frozen[i] == models.True; i++ {
		run = append(run, i)
	}

	for _, i := range run {
		if i >= len(output) {
			break
		}
		outputNode.Set(strconv.Itoa(i), output[i].Not())
	}

	if len(run) > 0 {
		logger.Debug("Toggled %d sequence(s) starting at %d", len(run), index)
	}
	return run
}

func (e *Engine) setWindow(w models.Window) {
	root := e.view.Data()
	root.Set(sliceStartKey, w.SliceStart)
	root.Set(sliceEndKey, w.SliceEnd)
}

func (e *Engine) seizureNode(key string) (*observable.Node, bool) {
	data, ok := e.state.Data().Node(SeizureDataKey)
	if !ok {
		return nil, false
	}
	return data.Node(key)
}

func (e *Engine) input() [][]float64 {
	n, ok := e.seizureNode(InputKey)
	if !ok {
		return nil
	}
	input, _ := n.Value().([][]float64)
	return input
}

func (e *Engine) output() []models.Prediction {
	n, ok := e.seizureNode(OutputKey)
	if !ok {
		return nil
	}
	output, _ := n.Value().([]models.Prediction)
	return output
}

func (e *Engine) frozen() []models.Prediction {
	n, ok := e.seizureNode(OutputFrozenKey)
	if !ok {
		return nil
	}
	frozen, _ := n.Value().([]models.Prediction)
	return frozen
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
