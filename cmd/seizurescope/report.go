package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/session"
)

func validFormat(format string) bool {
	switch format {
	case "text", "json", "yaml":
		return true
	}
	return false
}

// writeReport prints report in the requested format.
func writeReport(w io.Writer, format, source string, report *session.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		return writeText(w, source, report)
	}
}

func writeText(w io.Writer, source string, r *session.Report) error {
	s := r.Stats
	lines := []string{
		fmt.Sprintf("Source:          %s", source),
		fmt.Sprintf("Sequences:       %d (%d rejected rows)", r.Sequences, r.Ingest.TooLong+r.Ingest.NonNumeric),
		fmt.Sprintf("Failed batches:  %d", r.FailedBatches),
		fmt.Sprintf("Filtered:        %d short positive(s)", r.Filtered),
		fmt.Sprintf("Seizure events:  %d", s.TotalEvents),
		fmt.Sprintf("Seizure time:    %ds (avg %.2fs)", s.TotalSeizureTime, s.AverageSeizureTime),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	for i, ev := range s.Events {
		if _, err := fmt.Fprintf(w, "  %3d. sequence %-6d at %s for %ds\n",
			i+1, ev.SequenceIndex, offset(ev), ev.DurationInSeconds); err != nil {
			return err
		}
	}
	return nil
}

func offset(ev models.SeizureEvent) string {
	seconds := ev.SequenceIndex * models.SecondsPerSequence
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
