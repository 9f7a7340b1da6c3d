package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/models"
)

var (
	// ErrCanceled is returned when a submission is canceled. Partial results are discarded.
	ErrCanceled = errors.New("submission canceled")
	// ErrLengthMismatch fails a batch whose predictor answered with the wrong number of predictions.
	ErrLengthMismatch = errors.New("prediction count does not match batch size")
)

// Predictor runs predictions for one batch of sequences.
type Predictor interface {
	Predict(ctx context.Context, batch [][]float64) ([]models.Prediction, error)
}

// BatchError represents a failed batch. Failed batches are not fatal: their
// sequences are reported as Unknown.
type BatchError struct {
	Batch int // Batch number, from 0
	Start int // Index of the first sequence of the batch
	Size  int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d (sequences %d-%d) failed: %v", e.Batch, e.Start, e.Start+e.Size-1, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a completed submission.
type Result struct {
	Predictions []models.Prediction
	Failed      []BatchError
}

// Progress is called after every batch with the number of predictions collected so far.
type Progress func(done, total int)

// Submitter sends input to a Predictor in sequential fixed-size batches.
type Submitter struct {
	predictor Predictor
	batchSize int
	canceled  atomic.Bool
}

// NewSubmitter creates a Submitter. batchSize <= 0 uses the default of 36.
func NewSubmitter(p Predictor, batchSize int) *Submitter {
	if batchSize <= 0 {
		batchSize = models.DefaultBatchSize
	}
	return &Submitter{predictor: p, batchSize: batchSize}
}

// Cancel requests cancellation. It is honored before the next batch is sent;
// a batch already in flight completes.
func (s *Submitter) Cancel() {
	s.canceled.Store(true)
}

// Canceled reports whether Cancel was called.
func (s *Submitter) Canceled() bool {
	return s.canceled.Load()
}

// Submit predicts every sequence of input. Predictions come back in input
// order and always have len(input) entries unless the submission is canceled,
// in which case ErrCanceled is returned and nothing is kept. A done ctx counts
// as a cancellation.
func (s *Submitter) Submit(ctx context.Context, input [][]float64, progress Progress) (*Result, error) {
	result := &Result{Predictions: make([]models.Prediction, 0, len(input))}

	for batch, start := 0, 0; start < len(input); batch, start = batch+1, start+s.batchSize {
		if s.Canceled() {
			logger.Info("Submission canceled before batch %d", batch)
			return nil, ErrCanceled
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
		}

		end := min(start+s.batchSize, len(input))
		chunk := input[start:end]

		preds, err := s.predictor.Predict(ctx, chunk)
		if err == nil && len(preds) != len(chunk) {
			err = fmt.Errorf("%w: expected %d predictions, got %d", ErrLengthMismatch, len(chunk), len(preds))
		}
		if err != nil {
			batchErr := BatchError{Batch: batch, Start: start, Size: len(chunk), Err: err}
			logger.Warn("%v", batchErr)
			result.Failed = append(result.Failed, batchErr)
			preds = models.Unknowns(len(chunk))
		}
		result.Predictions = append(result.Predictions, preds...)

		logger.Debug("Batch %d: %d out of %d sequences processed", batch, len(result.Predictions), len(input))
		if progress != nil {
			progress(len(result.Predictions), len(input))
		}
	}

	return result, nil
}
