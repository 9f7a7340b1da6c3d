package window

import (
	"math"

	"github.com/rewired-gh/seizurescope/internal/models"
)

// ComputeStats rates every summary event against the live output and tallies
// the review statistics. It is cheap (one pass over the events) and meant to be
// called on every stats render.
func (e *Engine) ComputeStats() models.Stats {
	output := e.output()

	stats := models.Stats{
		TotalEvents: len(e.summary),
		Events:      make([]models.SeizureEvent, len(e.summary)),
	}

	for i, event := range e.summary {
		event.Rejected = event.SequenceIndex >= len(output) || !output[event.SequenceIndex].IsSeizure()
		stats.Events[i] = event

		if event.Rejected {
			stats.RejectedCount++
			continue
		}
		stats.ConfirmedCount++
		stats.TotalSeizureTime += event.DurationInSeconds
	}

	stats.AverageSeizureTime = round2(ratio(float64(stats.TotalSeizureTime), float64(stats.ConfirmedCount)))
	stats.FalsePositivePercentage = round2(ratio(float64(stats.RejectedCount), float64(stats.TotalEvents)) * 100)
	stats.ConfirmedPositivePercentage = round2(ratio(float64(stats.ConfirmedCount), float64(stats.TotalEvents)) * 100)

	return stats
}

// ratio divides, returning 0 when the denominator is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
