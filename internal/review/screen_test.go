package review

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/seizurescope/internal/export"
	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/session"
)

// signPredictor answers True for sequences whose first sample is positive.
type signPredictor struct{}

func (signPredictor) Predict(_ context.Context, batch [][]float64) ([]models.Prediction, error) {
	out := make([]models.Prediction, len(batch))
	for i, row := range batch {
		out[i] = models.PredictionOf(row[0] > 0)
	}
	return out, nil
}

// newTestScreen loads 80 sequences with seizures at 40-42 and 70-73.
func newTestScreen(t *testing.T) (*Screen, *session.Session, *bytes.Buffer) {
	t.Helper()

	var csv strings.Builder
	for i := 0; i < 80; i++ {
		v := 0
		if (i >= 40 && i <= 42) || (i >= 70 && i <= 73) {
			v = 1
		}
		fmt.Fprintf(&csv, "%d,0.1,0.2,0.3\n", v)
	}

	s, err := session.New(signPredictor{}, session.Options{})
	require.NoError(t, err)
	_, err = s.Analyze(context.Background(), strings.NewReader(csv.String()))
	require.NoError(t, err)

	var out bytes.Buffer
	dir := t.TempDir()
	sc, err := New(s, &out, Options{
		ExportPath: filepath.Join(dir, "export.csv"),
		ChartPath:  filepath.Join(dir, "chart.png"),
	})
	require.NoError(t, err)
	t.Cleanup(sc.Close)
	return sc, s, &out
}

func TestNew_RequiresDataset(t *testing.T) {
	s, err := session.New(signPredictor{}, session.Options{})
	require.NoError(t, err)

	_, err = New(s, &bytes.Buffer{}, Options{})
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		line    string
		cmd     Command
		args    []string
		wantErr bool
	}{
		{"", CmdNone, nil, false},
		{"next", CmdNext, []string{}, false},
		{"prev 10", CmdPrev, []string{"10"}, false},
		{"G 120", CmdGoto, []string{"120"}, false},
		{"toggle 40", CmdToggle, []string{"40"}, false},
		{"export out.csv", CmdExport, []string{"out.csv"}, false},
		{"q", CmdQuit, []string{}, false},
		{"dance", CmdNone, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			in, err := ParseInput(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, in.Cmd)
			assert.Equal(t, tt.args, in.Args)
		})
	}
}

func TestRender_OnlyChangedSections(t *testing.T) {
	sc, _, out := newTestScreen(t)

	sc.Render()
	assert.Contains(t, out.String(), "Sequences 0-35 of 80")

	out.Reset()
	sc.Render()
	assert.Empty(t, out.String(), "nothing changed, nothing redrawn")

	_, err := sc.Execute("next")
	require.NoError(t, err)
	sc.Render()
	assert.Contains(t, out.String(), "Sequences 36-71 of 80")
}

func TestToggle_OutsideWindowDoesNotRedraw(t *testing.T) {
	sc, s, out := newTestScreen(t)
	sc.Render()
	out.Reset()

	// Window is [0, 36); the event at 70 is off screen.
	_, err := sc.Execute("toggle 70")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Sequences 70-73 rejected")

	out.Reset()
	sc.Render()
	assert.Empty(t, out.String())

	assert.Equal(t, models.False, s.Dataset().Output[70])
	assert.Equal(t, models.True, s.Dataset().OutputFrozen[70])
}

func TestToggle_InsideWindowRedraws(t *testing.T) {
	sc, _, out := newTestScreen(t)
	_, err := sc.Execute("goto 40")
	require.NoError(t, err)
	sc.Render()
	out.Reset()

	_, err = sc.Execute("toggle 40")
	require.NoError(t, err)
	sc.Render()
	assert.Contains(t, out.String(), "Sequences 40-75 of 80")

	out.Reset()
	_, err = sc.Execute("toggle 40")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Sequences 40-42 confirmed")
}

func TestToggle_NoEvent(t *testing.T) {
	sc, _, out := newTestScreen(t)

	_, err := sc.Execute("toggle 5")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No seizure event starts at sequence 5")
}

func TestNavigation_Rejected(t *testing.T) {
	sc, _, out := newTestScreen(t)

	_, err := sc.Execute("prev")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No more sequences in that direction")

	out.Reset()
	_, err = sc.Execute("goto 500")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Sequence 500 is out of range")

	_, err = sc.Execute("goto")
	assert.Error(t, err)
	_, err = sc.Execute("next ten")
	assert.Error(t, err)
}

func TestNavigation_NonPositiveStep(t *testing.T) {
	sc, s, _ := newTestScreen(t)

	for _, line := range []string{"next -5", "next 0", "prev 0"} {
		_, err := sc.Execute(line)
		require.Error(t, err, line)
		assert.Contains(t, err.Error(), "n > 0", line)
	}
	assert.Equal(t, 0, s.Engine().Window().SliceStart)

	_, err := sc.Execute("next 5")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Engine().Window().SliceStart)
}

func TestListAndStats(t *testing.T) {
	sc, _, out := newTestScreen(t)

	_, err := sc.Execute("toggle 70")
	require.NoError(t, err)
	out.Reset()

	_, err = sc.Execute("list")
	require.NoError(t, err)
	listing := out.String()
	assert.Contains(t, listing, "confirmed")
	assert.Contains(t, listing, "rejected")
	assert.Contains(t, listing, "0:03:20") // sequence 40

	out.Reset()
	_, err = sc.Execute("stats")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Events:              2")
	assert.Contains(t, out.String(), "Rejected:            1 (50.00%)")
	assert.Contains(t, out.String(), "Total seizure time:  15s")
}

func TestExportAndChart(t *testing.T) {
	sc, _, _ := newTestScreen(t)

	_, err := sc.Execute("toggle 40")
	require.NoError(t, err)
	_, err = sc.Execute("export")
	require.NoError(t, err)

	f, err := os.Open(sc.opts.ExportPath)
	require.NoError(t, err)
	defer f.Close()
	frozen, output, err := export.Read(f)
	require.NoError(t, err)
	assert.Equal(t, models.True, frozen[40])
	assert.Equal(t, models.False, output[40])

	_, err = sc.Execute("chart")
	require.NoError(t, err)
	info, err := os.Stat(sc.opts.ChartPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestModal_AcknowledgedByInput(t *testing.T) {
	sc, s, out := newTestScreen(t)
	sc.Render()
	out.Reset()

	s.ShowModal("Prediction service unavailable")
	sc.Render()
	assert.Contains(t, out.String(), "Prediction service unavailable")
	assert.Contains(t, out.String(), "[Ok]")

	_, err := sc.Execute("")
	require.NoError(t, err)
	assert.False(t, s.Modal().IsOpen)
}

func TestRun_QuitsOnCommand(t *testing.T) {
	sc, _, out := newTestScreen(t)

	err := sc.Run(context.Background(), strings.NewReader("next\nbogus\nquit\nnext\n"))
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Sequences 36-71 of 80")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.NotContains(t, text, "Sequences 72-")
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "0:00:00", formatOffset(0))
	assert.Equal(t, "0:03:20", formatOffset(200))
	assert.Equal(t, "1:01:05", formatOffset(3665))
}
