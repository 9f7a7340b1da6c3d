package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rewired-gh/seizurescope/internal/export"
	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/session"
)

// newPredictServer answers true for sequences whose first sample is positive.
func newPredictServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var batch [][]float64
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := make([]bool, len(batch))
		for i, row := range batch {
			out[i] = row[len(row)-1] > 0
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeInput(t *testing.T, flags ...int) string {
	t.Helper()
	var b strings.Builder
	for _, f := range flags {
		b.WriteString(strings.Repeat("0.5,", 9))
		if f > 0 {
			b.WriteString("1\n")
		} else {
			b.WriteString("0\n")
		}
	}
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze_JSONReportAndExport(t *testing.T) {
	server := newPredictServer(t)
	t.Setenv("SEIZURESCOPE_PREDICTOR_URL", server.URL)
	t.Setenv("SEIZURESCOPE_LOGGING_LEVEL", "error")

	// The decision sample is the last one; seizures at 2-4, a lone spike at 7
	input := writeInput(t, 0, 0, 1, 1, 1, 0, 0, 1, 0, 0)
	exportPath := filepath.Join(t.TempDir(), "export.csv")

	out, err := runCLI(t, "analyze", "--input", input, "--format", "json", "--export", exportPath)
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, out)
	}

	var report session.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Expected JSON report, got %q: %v", out, err)
	}
	if report.Sequences != 10 {
		t.Errorf("Expected 10 sequences, got %d", report.Sequences)
	}
	if report.Filtered != 1 {
		t.Errorf("Expected the lone spike to be filtered, got %d", report.Filtered)
	}
	if report.Stats.TotalEvents != 1 {
		t.Errorf("Expected 1 event, got %d", report.Stats.TotalEvents)
	}

	f, err := os.Open(exportPath)
	if err != nil {
		t.Fatalf("Expected export file: %v", err)
	}
	defer f.Close()
	frozen, output, err := export.Read(f)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(frozen) != 10 || len(output) != 10 {
		t.Errorf("Expected 10 exported rows, got %d/%d", len(frozen), len(output))
	}
}

func TestAnalyze_YAMLReport(t *testing.T) {
	server := newPredictServer(t)
	t.Setenv("SEIZURESCOPE_PREDICTOR_URL", server.URL)
	t.Setenv("SEIZURESCOPE_LOGGING_LEVEL", "error")

	input := writeInput(t, 1, 1, 1, 1, 0)
	out, err := runCLI(t, "analyze", "--input", input, "--format", "yaml")
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "sequences: 5") {
		t.Errorf("Expected YAML report, got:\n%s", out)
	}
}

func TestAnalyze_InvalidFormat(t *testing.T) {
	if _, err := runCLI(t, "analyze", "--input", "x.csv", "--format", "xml"); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestAnalyze_MissingInputFlag(t *testing.T) {
	if _, err := runCLI(t, "analyze"); err == nil {
		t.Error("Expected error for missing --input")
	}
}

func TestReview_ScriptedSession(t *testing.T) {
	server := newPredictServer(t)
	t.Setenv("SEIZURESCOPE_PREDICTOR_URL", server.URL)
	t.Setenv("SEIZURESCOPE_LOGGING_LEVEL", "error")
	t.Setenv("SEIZURESCOPE_EXPORT_PATH", filepath.Join(t.TempDir(), "review.csv"))

	input := writeInput(t, 0, 1, 1, 1, 0)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("toggle 1\nstats\nquit\n"))
	cmd.SetArgs([]string{"review", "--input", input})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("review failed: %v\n%s", err, out.String())
	}

	text := out.String()
	for _, want := range []string{"Sequences 0-4 of 5", "Sequences 1-3 rejected", "Rejected:            1"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	report := &session.Report{
		Sequences: 100,
		Stats: models.Stats{
			TotalEvents:      1,
			TotalSeizureTime: 15,
			Events:           []models.SeizureEvent{models.NewSeizureEvent(24, 3)},
		},
	}
	if err := writeReport(&buf, "text", "night.csv", report); err != nil {
		t.Fatalf("writeReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "sequence 24     at 0:02:00 for 15s") {
		t.Errorf("Unexpected text report:\n%s", buf.String())
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("Unexpected version output: %q", out)
	}
}
