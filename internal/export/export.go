// Package export writes and reads the review artifact: one CSV row per
// sequence with the frozen model prediction and the user-corrected one.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rewired-gh/seizurescope/internal/models"
)

// Header is the first row of every export.
var Header = []string{"is-seizure", "is-seizure-user-corrected"}

// ErrLengthMismatch is returned when frozen and corrected predictions differ in length.
var ErrLengthMismatch = errors.New("frozen and corrected predictions must have the same length")

// Write encodes the predictions as CSV.
func Write(w io.Writer, frozen, output []models.Prediction) error {
	if len(frozen) != len(output) {
		return ErrLengthMismatch
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range output {
		if err := cw.Write([]string{strconv.Itoa(frozen[i].Int()), strconv.Itoa(output[i].Int())}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the export atomically: to a temporary file first, then
// renamed over path.
func WriteFile(path string, frozen, output []models.Prediction, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(f, frozen, output); err != nil {
		f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Read decodes an export back into frozen and corrected predictions.
func Read(r io.Reader) (frozen, output []models.Prediction, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read export: %w", err)
	}
	if len(records) == 0 || records[0][0] != Header[0] || records[0][1] != Header[1] {
		return nil, nil, fmt.Errorf("missing export header %v", Header)
	}

	for i, rec := range records[1:] {
		f, err := parseFlag(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		o, err := parseFlag(rec[1])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		frozen = append(frozen, f)
		output = append(output, o)
	}
	return frozen, output, nil
}

func parseFlag(s string) (models.Prediction, error) {
	switch s {
	case "1":
		return models.True, nil
	case "0":
		return models.False, nil
	}
	return models.Unknown, fmt.Errorf("invalid flag %q, want 0 or 1", s)
}
