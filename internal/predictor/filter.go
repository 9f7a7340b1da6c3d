package predictor

import (
	"github.com/rewired-gh/seizurescope/internal/models"
)

// FilterShortStreaks flips every maximal run of True shorter than minStreak to
// False, in place, and returns how many predictions were flipped. A run ends at
// any non-True entry, Unknown included, and at the end of the sequence.
func FilterShortStreaks(preds []models.Prediction, minStreak int) int {
	if minStreak <= 1 {
		return 0
	}

	flipped := 0
	runStart := -1
	closeRun := func(end int) {
		if runStart >= 0 && end-runStart < minStreak {
			for i := runStart; i < end; i++ {
				preds[i] = models.False
			}
			flipped += end - runStart
		}
		runStart = -1
	}

	for i, p := range preds {
		if p == models.True {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		closeRun(i)
	}
	closeRun(len(preds))

	return flipped
}
