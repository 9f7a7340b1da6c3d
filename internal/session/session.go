// Package session is the application root. It owns the shared state store,
// runs the load pipeline from CSV to reviewed predictions, and carries the
// modal used to surface errors to the user.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/seizurescope/internal/ingest"
	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/observable"
	"github.com/rewired-gh/seizurescope/internal/predictor"
	"github.com/rewired-gh/seizurescope/internal/window"
)

// Store names.
const (
	RootStoreName    = "AppRoot"
	LoadingStoreName = "ScreenLoading"
)

// Keys of the root and loading stores.
const (
	ModalKey          = "modal"
	IsOpenKey         = "isOpen"
	MessageKey        = "message"
	OnCloseCaptionKey = "onCloseCaption"
	InputLengthKey    = "inputLength"
	OutputLengthKey   = "outputLength"
)

// DefaultCloseCaption is the caption of the modal's close action.
const DefaultCloseCaption = "Ok"

// Modal messages.
const (
	msgLoadFailed    = "Loading EEG data from CSV failed. Please make sure that its format is valid and try again."
	msgNoData        = "Provided file does not seem to contain valid EEG data."
	msgBatchesFailed = "%d of %d prediction batch(es) failed. The affected sequences are shown as unknown."
	msgPredictFailed = "Prediction failed: %v"
	msgEngineFailed  = "Could not prepare the review chart: %v"
)

// Options configures a Session.
type Options struct {
	Ingest    ingest.Options
	BatchSize int
	MinStreak int
	SliceStep int
	StateCopy bool
}

// Modal is the state of the user-facing message dialog.
type Modal struct {
	IsOpen         bool
	Message        string
	OnCloseCaption string
}

// Report summarizes one completed analysis.
type Report struct {
	SessionID     string        `json:"session_id" yaml:"session_id"`
	Sequences     int           `json:"sequences" yaml:"sequences"`
	Ingest        ingest.Stats  `json:"ingest" yaml:"ingest"`
	FailedBatches int           `json:"failed_batches" yaml:"failed_batches"`
	Filtered      int           `json:"filtered" yaml:"filtered"` // Positives removed by the streak filter
	Stats         models.Stats  `json:"stats" yaml:"stats"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// Session holds the state of one review session.
type Session struct {
	id        string
	bus       *observable.Dispatcher
	root      *observable.Store
	loading   *observable.Store
	predictor predictor.Predictor
	opts      Options

	mu        sync.Mutex
	submitter *predictor.Submitter
	engine    *window.Engine
}

// New creates a session with an empty dataset and a closed modal.
func New(p predictor.Predictor, opts Options) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("session requires a predictor")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = models.DefaultBatchSize
	}
	if opts.MinStreak <= 0 {
		opts.MinStreak = models.DefaultMinStreak
	}

	s := &Session{
		id:        uuid.New().String(),
		bus:       observable.NewDispatcher(),
		predictor: p,
		opts:      opts,
	}

	var storeOpts []observable.Option
	if opts.StateCopy {
		storeOpts = append(storeOpts, observable.WithStateCopy())
	}

	root, err := observable.New(s.bus, RootStoreName, map[string]any{
		ModalKey: map[string]any{
			IsOpenKey:         false,
			MessageKey:        "",
			OnCloseCaptionKey: DefaultCloseCaption,
		},
		window.SeizureDataKey: seizureData(nil, nil, nil),
	}, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create root store: %w", err)
	}
	s.root = root

	loading, err := observable.New(s.bus, LoadingStoreName, map[string]int{
		InputLengthKey:  0,
		OutputLengthKey: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create loading store: %w", err)
	}
	s.loading = loading

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Bus returns the dispatcher every store of the session emits through.
func (s *Session) Bus() *observable.Dispatcher {
	return s.bus
}

// Store returns the root store.
func (s *Session) Store() *observable.Store {
	return s.root
}

// LoadingStore returns the store tracking load progress.
func (s *Session) LoadingStore() *observable.Store {
	return s.loading
}

// Engine returns the window engine of the current dataset, or nil before the
// first successful analysis.
func (s *Session) Engine() *window.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Subscribe registers handler for typed events matching filter.
func (s *Session) Subscribe(filter observable.Filter, handler func(Event)) func() {
	return s.bus.Subscribe(filter, func(n observable.Notification) {
		handler(Classify(n))
	})
}

// Dataset returns a copy of the current seizureData.
func (s *Session) Dataset() models.Dataset {
	var d models.Dataset
	data, ok := s.root.Data().Node(window.SeizureDataKey)
	if !ok {
		return d
	}
	if n, ok := data.Node(window.InputKey); ok {
		input, _ := n.Value().([][]float64)
		d.Input = make([][]float64, len(input))
		copy(d.Input, input)
	}
	if n, ok := data.Node(window.OutputKey); ok {
		output, _ := n.Value().([]models.Prediction)
		d.Output = append([]models.Prediction{}, output...)
	}
	if n, ok := data.Node(window.OutputFrozenKey); ok {
		frozen, _ := n.Value().([]models.Prediction)
		d.OutputFrozen = append([]models.Prediction{}, frozen...)
	}
	return d
}

// Modal returns the current modal state.
func (s *Session) Modal() Modal {
	m := Modal{OnCloseCaption: DefaultCloseCaption}
	node, ok := s.root.Data().Node(ModalKey)
	if !ok {
		return m
	}
	m.IsOpen, _ = node.Get(IsOpenKey).(bool)
	m.Message, _ = node.Get(MessageKey).(string)
	if caption, ok := node.Get(OnCloseCaptionKey).(string); ok && caption != "" {
		m.OnCloseCaption = caption
	}
	return m
}

// ShowModal opens the modal with message. The message is written before the
// modal opens so listeners of isOpen see it.
func (s *Session) ShowModal(message string) {
	node, ok := s.root.Data().Node(ModalKey)
	if !ok {
		return
	}
	node.Set(MessageKey, message)
	node.Set(IsOpenKey, true)
}

// CloseModal closes the modal, keeping its last message.
func (s *Session) CloseModal() {
	if node, ok := s.root.Data().Node(ModalKey); ok {
		node.Set(IsOpenKey, false)
	}
}

// Cancel stops the running analysis before its next prediction batch.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitter != nil {
		s.submitter.Cancel()
	}
}

// Analyze loads sequences from r, predicts them, filters short streaks and
// installs the result as the session dataset with a fresh window engine.
//
// Load failures open the modal and return an error. A canceled analysis
// returns predictor.ErrCanceled and leaves the previous dataset in place.
func (s *Session) Analyze(ctx context.Context, r io.Reader) (*Report, error) {
	started := time.Now()
	s.setProgress(0, 0)

	loading := s.loading.Data()
	input, stats, err := ingest.Load(ctx, r, s.opts.Ingest, func(accepted int) {
		loading.Set(InputLengthKey, accepted)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", predictor.ErrCanceled, ctx.Err())
		}
		if errors.Is(err, ingest.ErrNoData) {
			s.ShowModal(msgNoData)
		} else {
			s.ShowModal(msgLoadFailed)
		}
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	logger.Info("Loaded %d sequence(s) (%d too long, %d non-numeric)", stats.Accepted, stats.TooLong, stats.NonNumeric)

	submitter := predictor.NewSubmitter(s.predictor, s.opts.BatchSize)
	s.mu.Lock()
	s.submitter = submitter
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitter = nil
		s.mu.Unlock()
	}()

	result, err := submitter.Submit(ctx, input, func(done, total int) {
		loading.Set(OutputLengthKey, done)
	})
	if err != nil {
		if errors.Is(err, predictor.ErrCanceled) {
			logger.Info("Analysis canceled, keeping previous dataset")
			return nil, err
		}
		s.ShowModal(fmt.Sprintf(msgPredictFailed, err))
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	if len(result.Failed) > 0 {
		batches := (len(input) + s.opts.BatchSize - 1) / s.opts.BatchSize
		s.ShowModal(fmt.Sprintf(msgBatchesFailed, len(result.Failed), batches))
	}

	output := result.Predictions
	filtered := predictor.FilterShortStreaks(output, s.opts.MinStreak)
	frozen := make([]models.Prediction, len(output))
	copy(frozen, output)

	dataset := models.Dataset{Input: input, Output: output, OutputFrozen: frozen}
	if err := dataset.Validate(); err != nil {
		s.ShowModal(fmt.Sprintf(msgPredictFailed, err))
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	s.root.Data().Set(window.SeizureDataKey, seizureData(input, output, frozen))

	var engineOpts []window.Option
	if s.opts.SliceStep > 0 {
		engineOpts = append(engineOpts, window.WithSliceStep(s.opts.SliceStep))
	}
	engine, err := window.New(s.bus, s.root, engineOpts...)
	if err != nil {
		s.ShowModal(fmt.Sprintf(msgEngineFailed, err))
		return nil, fmt.Errorf("failed to create window engine: %w", err)
	}
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()

	report := &Report{
		SessionID:     s.id,
		Sequences:     len(input),
		Ingest:        stats,
		FailedBatches: len(result.Failed),
		Filtered:      filtered,
		Stats:         engine.ComputeStats(),
		Duration:      time.Since(started),
	}
	logger.Info("Analysis complete: %d sequence(s), %d seizure event(s), %d positive(s) filtered",
		report.Sequences, report.Stats.TotalEvents, report.Filtered)
	return report, nil
}

func (s *Session) setProgress(input, output int) {
	loading := s.loading.Data()
	loading.Set(InputLengthKey, input)
	loading.Set(OutputLengthKey, output)
}

func seizureData(input [][]float64, output, frozen []models.Prediction) map[string]any {
	if input == nil {
		input = [][]float64{}
	}
	if output == nil {
		output = []models.Prediction{}
	}
	if frozen == nil {
		frozen = []models.Prediction{}
	}
	return map[string]any{
		window.InputKey:        input,
		window.OutputKey:       output,
		window.OutputFrozenKey: frozen,
	}
}
