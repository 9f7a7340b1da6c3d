package models

// SeizureEvent is one detected seizure: a streak of positive sequences in the
// prediction output. Events are derived, never stored.
type SeizureEvent struct {
	SequenceIndex       int  `json:"sequence_index" yaml:"sequence_index"`               // First sequence of the streak
	SampleIndex         int  `json:"sample_index" yaml:"sample_index"`                   // SequenceIndex * SamplesPerSequence
	DurationInSequences int  `json:"duration_in_sequences" yaml:"duration_in_sequences"` // Streak length
	DurationInSeconds   int  `json:"duration_in_seconds" yaml:"duration_in_seconds"`     // DurationInSequences * SecondsPerSequence
	Rejected            bool `json:"rejected" yaml:"rejected"`                           // Recomputed from the live output on every stats pass
}

// NewSeizureEvent builds an event starting at sequenceIndex lasting length sequences.
func NewSeizureEvent(sequenceIndex, length int) SeizureEvent {
	return SeizureEvent{
		SequenceIndex:       sequenceIndex,
		SampleIndex:         sequenceIndex * SamplesPerSequence,
		DurationInSequences: length,
		DurationInSeconds:   length * SecondsPerSequence,
	}
}

// Zone is a half-open absolute sample range highlighted as a detected seizure.
type Zone struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Stats aggregates the review state of all detected events.
type Stats struct {
	TotalEvents                 int            `json:"total_events" yaml:"total_events"`
	ConfirmedCount              int            `json:"confirmed_count" yaml:"confirmed_count"`
	RejectedCount               int            `json:"rejected_count" yaml:"rejected_count"`
	TotalSeizureTime            int            `json:"total_seizure_time" yaml:"total_seizure_time"` // seconds, confirmed events only
	AverageSeizureTime          float64        `json:"average_seizure_time" yaml:"average_seizure_time"`
	FalsePositivePercentage     float64        `json:"false_positive_percentage" yaml:"false_positive_percentage"`
	ConfirmedPositivePercentage float64        `json:"confirmed_positive_percentage" yaml:"confirmed_positive_percentage"`
	Events                      []SeizureEvent `json:"events" yaml:"events"`
}
