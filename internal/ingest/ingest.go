// Package ingest reads EEG recordings from CSV: one row per sequence, one
// numeric field per sample.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/models"
)

var (
	// ErrNoData is returned when a file holds no valid sequence.
	ErrNoData = errors.New("file does not contain valid EEG data")
	// ErrParse is returned when the CSV itself cannot be read.
	ErrParse = errors.New("failed to parse EEG data")
)

// Options controls row validation.
type Options struct {
	MaxSamples int // Rows with more fields are discarded; <= 0 means 500
}

// Stats counts what happened to the rows of a file.
type Stats struct {
	Accepted     int `json:"accepted" yaml:"accepted"`
	TooLong      int `json:"too_long" yaml:"too_long"`
	NonNumeric   int `json:"non_numeric" yaml:"non_numeric"`
	SkippedEmpty int `json:"skipped_empty" yaml:"skipped_empty"`
}

// RowFunc is called after every accepted row with the number of rows accepted so far.
type RowFunc func(accepted int)

// Load parses r and returns the valid sequences in file order.
func Load(ctx context.Context, r io.Reader, opts Options, onRow RowFunc) ([][]float64, Stats, error) {
	maxSamples := opts.MaxSamples
	if maxSamples <= 0 {
		maxSamples = models.SamplesPerSequence
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	var (
		input [][]float64
		stats Stats
		line  int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, stats, fmt.Errorf("%w: line %d: %v", ErrParse, line, err)
		}

		if isEmpty(record) {
			stats.SkippedEmpty++
			continue
		}
		if len(record) > maxSamples {
			stats.TooLong++
			continue
		}

		row, ok := parseRow(record)
		if !ok {
			stats.NonNumeric++
			continue
		}

		input = append(input, row)
		stats.Accepted++
		if onRow != nil {
			onRow(stats.Accepted)
		}
	}

	logger.Debug("CSV ingestion: %d accepted, %d too long, %d non-numeric, %d empty",
		stats.Accepted, stats.TooLong, stats.NonNumeric, stats.SkippedEmpty)

	if len(input) == 0 {
		return nil, stats, ErrNoData
	}
	return input, stats, nil
}

func parseRow(record []string) ([]float64, bool) {
	row := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		row[i] = v
	}
	return row, true
}

func isEmpty(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
