package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/rewired-gh/seizurescope/internal/models"
)

// fakePredictor answers True for sequences whose first sample is positive and
// fails the batches listed in failBatches.
type fakePredictor struct {
	calls       int
	sizes       []int
	firsts      []float64
	failBatches map[int]bool
	onCall      func(call int)
}

func (f *fakePredictor) Predict(_ context.Context, batch [][]float64) ([]models.Prediction, error) {
	call := f.calls
	f.calls++
	f.sizes = append(f.sizes, len(batch))
	f.firsts = append(f.firsts, batch[0][0])
	if f.onCall != nil {
		f.onCall(call)
	}
	if f.failBatches[call] {
		return nil, errors.New("endpoint down")
	}
	out := make([]models.Prediction, len(batch))
	for i, row := range batch {
		out[i] = models.PredictionOf(row[0] > 0)
	}
	return out, nil
}

func makeInput(n int) [][]float64 {
	input := make([][]float64, n)
	for i := range input {
		input[i] = []float64{float64(i)}
	}
	return input
}

func TestSubmit_BatchesInOrder(t *testing.T) {
	fake := &fakePredictor{}
	s := NewSubmitter(fake, 36)

	var progress []int
	result, err := s.Submit(context.Background(), makeInput(80), func(done, total int) {
		if total != 80 {
			t.Errorf("Expected total 80, got %d", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	wantSizes := []int{36, 36, 8}
	for i, size := range wantSizes {
		if fake.sizes[i] != size {
			t.Errorf("batch %d size = %d, want %d", i, fake.sizes[i], size)
		}
	}
	wantFirsts := []float64{0, 36, 72}
	for i, first := range wantFirsts {
		if fake.firsts[i] != first {
			t.Errorf("batch %d starts at %v, want %v", i, fake.firsts[i], first)
		}
	}
	if len(result.Predictions) != 80 {
		t.Fatalf("Expected 80 predictions, got %d", len(result.Predictions))
	}
	if result.Predictions[0] != models.False || result.Predictions[79] != models.True {
		t.Errorf("Predictions out of order: %v", result.Predictions)
	}
	if len(progress) != 3 || progress[2] != 80 {
		t.Errorf("Unexpected progress updates: %v", progress)
	}
}

func TestSubmit_FailedBatchBecomesUnknown(t *testing.T) {
	fake := &fakePredictor{failBatches: map[int]bool{1: true}}
	s := NewSubmitter(fake, 4)

	result, err := s.Submit(context.Background(), makeInput(10), nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(result.Predictions) != 10 {
		t.Fatalf("Expected 10 predictions, got %d", len(result.Predictions))
	}
	for i := 4; i < 8; i++ {
		if result.Predictions[i] != models.Unknown {
			t.Errorf("prediction %d = %v, want unknown", i, result.Predictions[i])
		}
	}
	if result.Predictions[8] != models.True {
		t.Errorf("Submission should continue after a failed batch")
	}
	if len(result.Failed) != 1 || result.Failed[0].Start != 4 || result.Failed[0].Size != 4 {
		t.Errorf("Unexpected failed batches: %v", result.Failed)
	}
}

// shortPredictor answers with a single prediction whatever the batch size.
type shortPredictor struct{}

func (shortPredictor) Predict(_ context.Context, batch [][]float64) ([]models.Prediction, error) {
	return []models.Prediction{models.True}, nil
}

func TestSubmit_WrongPredictionCountFailsBatch(t *testing.T) {
	s := NewSubmitter(shortPredictor{}, 5)

	result, err := s.Submit(context.Background(), makeInput(7), nil)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(result.Predictions) != 7 {
		t.Fatalf("Expected 7 predictions, got %d", len(result.Predictions))
	}
	for i, p := range result.Predictions[:5] {
		if p != models.Unknown {
			t.Errorf("prediction %d = %v, want unknown", i, p)
		}
	}
	if len(result.Failed) != 2 {
		t.Fatalf("Expected 2 failed batches, got %d", len(result.Failed))
	}
	if !errors.Is(result.Failed[0], ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", result.Failed[0])
	}
	// The second batch has 2 sequences, so a single answer is also wrong.
	if result.Failed[1].Start != 5 || result.Failed[1].Size != 2 {
		t.Errorf("Unexpected second failure: %v", result.Failed[1])
	}
}

func TestSubmit_CancelBetweenBatches(t *testing.T) {
	fake := &fakePredictor{}
	s := NewSubmitter(fake, 2)
	fake.onCall = func(call int) {
		if call == 1 {
			s.Cancel()
		}
	}

	result, err := s.Submit(context.Background(), makeInput(10), nil)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Expected ErrCanceled, got %v", err)
	}
	if result != nil {
		t.Errorf("Canceled submissions must discard results")
	}
	if fake.calls != 2 {
		t.Errorf("The in-flight batch completes and no other is sent: got %d calls", fake.calls)
	}
}

func TestSubmit_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakePredictor{}
	_, err := NewSubmitter(fake, 2).Submit(ctx, makeInput(3), nil)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Expected ErrCanceled, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("Expected no batch to be sent, got %d", fake.calls)
	}
}

func TestFilterShortStreaks(t *testing.T) {
	const (
		F = models.False
		T = models.True
		U = models.Unknown
	)

	tests := []struct {
		name        string
		in          []models.Prediction
		want        []models.Prediction
		wantFlipped int
	}{
		{"run of two removed", []models.Prediction{F, T, T, F}, []models.Prediction{F, F, F, F}, 2},
		{"run of three kept", []models.Prediction{F, T, T, T, F}, []models.Prediction{F, T, T, T, F}, 0},
		{"single removed", []models.Prediction{T, F, T, T, T, T}, []models.Prediction{F, F, T, T, T, T}, 1},
		{"trailing run filtered", []models.Prediction{T, T, T, F, T, T}, []models.Prediction{T, T, T, F, F, F}, 2},
		{"unknown breaks a run", []models.Prediction{T, T, U, T, F}, []models.Prediction{F, F, U, F, F}, 3},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]models.Prediction(nil), tt.in...)
			flipped := FilterShortStreaks(got, models.DefaultMinStreak)
			if flipped != tt.wantFlipped {
				t.Errorf("flipped = %d, want %d", flipped, tt.wantFlipped)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
