// Package review is the interactive console screen used to inspect and
// correct seizure predictions one window at a time. It redraws only the
// parts of the screen that a state change touched.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/seizurescope/internal/chart"
	"github.com/rewired-gh/seizurescope/internal/export"
	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/models"
	"github.com/rewired-gh/seizurescope/internal/observable"
	"github.com/rewired-gh/seizurescope/internal/session"
	"github.com/rewired-gh/seizurescope/internal/window"
)

// ErrNoDataset is returned when the session has nothing to review yet.
var ErrNoDataset = errors.New("no dataset loaded")

const (
	prompt     = "> "
	stripWidth = 10
)

// Options configures a Screen.
type Options struct {
	ExportPath string // Default target of the export command
	ChartPath  string // Default target of the chart command
	Chart      chart.Options
}

type section uint8

const (
	sectionWindow section = 1 << iota
	sectionModal
)

// Screen renders a session to a writer and executes review commands.
type Screen struct {
	sess        *session.Session
	out         io.Writer
	opts        Options
	dirty       section
	unsubscribe func()
}

// New creates a screen over the current dataset of s.
func New(s *session.Session, out io.Writer, opts Options) (*Screen, error) {
	if s.Engine() == nil {
		return nil, ErrNoDataset
	}
	if opts.ExportPath == "" {
		opts.ExportPath = "export.csv"
	}
	if opts.ChartPath == "" {
		opts.ChartPath = "chart.png"
	}

	sc := &Screen{
		sess:  s,
		out:   out,
		opts:  opts,
		dirty: sectionWindow,
	}
	if s.Modal().IsOpen {
		sc.dirty |= sectionModal
	}
	sc.unsubscribe = s.Subscribe(observable.Filter{}, sc.onEvent)
	return sc, nil
}

// Close stops listening to the session.
func (sc *Screen) Close() {
	if sc.unsubscribe != nil {
		sc.unsubscribe()
		sc.unsubscribe = nil
	}
}

func (sc *Screen) onEvent(e session.Event) {
	switch ev := e.(type) {
	case session.WindowChanged:
		sc.dirty |= sectionWindow
	case session.SeizureDataChanged:
		switch {
		case ev.Field == "" || ev.Field == window.InputKey:
			sc.dirty |= sectionWindow
		case ev.Field == window.OutputKey && ev.Index < 0:
			sc.dirty |= sectionWindow
		case ev.Field == window.OutputKey:
			w := sc.engine().Window()
			if ev.Index >= w.SliceStart && ev.Index < w.SliceEnd {
				sc.dirty |= sectionWindow
			}
		}
	case session.ModalChanged:
		if ev.Field == session.IsOpenKey {
			sc.dirty |= sectionModal
		}
	case session.ProgressChanged, session.OtherChanged:
	}
}

func (sc *Screen) engine() *window.Engine {
	return sc.sess.Engine()
}

// Run reads commands from in until quit, end of input or ctx is done.
func (sc *Screen) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	sc.Render()
	for {
		fmt.Fprint(sc.out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(sc.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		quit, err := sc.Execute(scanner.Text())
		if err != nil {
			sc.notice(err.Error())
		}
		if quit {
			return nil
		}
		sc.Render()
	}
}

// Execute runs one input line. An open modal is acknowledged by any input.
func (sc *Screen) Execute(line string) (quit bool, err error) {
	if sc.sess.Modal().IsOpen {
		sc.sess.CloseModal()
	}

	in, err := ParseInput(line)
	if err != nil {
		return false, err
	}

	e := sc.engine()
	switch in.Cmd {
	case CmdNone:
	case CmdNext, CmdPrev:
		step, ok, err := in.intArg(0)
		if err != nil {
			return false, err
		}
		dir := window.Next
		if in.Cmd == CmdPrev {
			dir = window.Previous
		}
		if ok && step <= 0 {
			return false, errors.New("usage: next|prev [n] with n > 0")
		}
		if !e.Paginate(dir, step) {
			sc.notice("No more sequences in that direction")
		}
	case CmdGoto:
		index, ok, err := in.intArg(0)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("usage: goto N")
		}
		if !e.NavigateToSequence(index) {
			sc.notice(fmt.Sprintf("Sequence %d is out of range", index))
		}
	case CmdToggle:
		index, ok, err := in.intArg(0)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("usage: toggle N")
		}
		sc.toggle(index)
	case CmdList:
		fmt.Fprintln(sc.out, sc.renderEvents())
	case CmdStats:
		fmt.Fprintln(sc.out, renderStats(e.ComputeStats()))
	case CmdExport:
		return false, sc.export(in.stringArg(0, sc.opts.ExportPath))
	case CmdChart:
		return false, sc.chart(in.stringArg(0, sc.opts.ChartPath))
	case CmdHelp:
		fmt.Fprintln(sc.out, helpText)
	case CmdQuit:
		return true, nil
	}
	return false, nil
}

// Render writes the sections changed since the last render.
func (sc *Screen) Render() {
	if sc.dirty&sectionWindow != 0 {
		fmt.Fprintln(sc.out, sc.renderWindow())
	}
	if sc.dirty&sectionModal != 0 {
		if m := sc.sess.Modal(); m.IsOpen {
			fmt.Fprintln(sc.out, renderModal(m))
		}
	}
	sc.dirty = 0
}

func (sc *Screen) toggle(index int) {
	flipped := sc.engine().ToggleAcceptance(index)
	if len(flipped) == 0 {
		sc.notice(fmt.Sprintf("No seizure event starts at sequence %d", index))
		return
	}
	state := "rejected"
	if sc.sess.Dataset().Output[flipped[0]].IsSeizure() {
		state = "confirmed"
	}
	sc.notice(fmt.Sprintf("Sequences %d-%d %s", flipped[0], flipped[len(flipped)-1], state))
}

func (sc *Screen) export(path string) error {
	d := sc.sess.Dataset()
	if err := export.WriteFile(path, d.OutputFrozen, d.Output, 0644); err != nil {
		return err
	}
	logger.Info("Exported %d sequence(s) to %s", len(d.Output), path)
	sc.notice(fmt.Sprintf("Exported %d sequences to %s", len(d.Output), path))
	return nil
}

func (sc *Screen) chart(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := chart.Render(f, sc.engine().View(), sc.opts.Chart); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close chart file: %w", err)
	}
	sc.notice(fmt.Sprintf("Chart written to %s", path))
	return nil
}

func (sc *Screen) notice(msg string) {
	fmt.Fprintln(sc.out, noticeStyle.Render(msg))
}

func (sc *Screen) renderWindow() string {
	view := sc.engine().View()
	dataset := sc.sess.Dataset()
	total := dataset.Len()

	title := titleStyle.Render(fmt.Sprintf("Sequences %d-%d of %d", view.Slice.Start, view.Slice.End-1, total))
	if view.Slice.End <= view.Slice.Start {
		title = titleStyle.Render(fmt.Sprintf("No sequences in window of %d", total))
	}

	lines := []string{title}
	preds := view.Slice.Predictions
	for row := 0; row < len(preds); row += stripWidth {
		end := min(row+stripWidth, len(preds))
		var strip strings.Builder
		for _, p := range preds[row:end] {
			strip.WriteString(mark(p))
		}
		start := view.Slice.Start + row
		label := mutedStyle.Render(fmt.Sprintf("%6d %s", start, formatOffset(start*models.SecondsPerSequence)))
		lines = append(lines, label+" "+strip.String())
	}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("%d highlighted zone(s)", len(view.Zones))))

	return windowArea.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (sc *Screen) renderEvents() string {
	stats := sc.engine().ComputeStats()
	if len(stats.Events) == 0 {
		return mutedStyle.Render("No seizure events detected")
	}

	header := []string{"#", "sequence", "offset", "duration", "status"}
	widths := []int{5, 12, 12, 12, 12}
	rows := [][]string{header}
	for i, ev := range stats.Events {
		status := clearStyle.Render("confirmed")
		if ev.Rejected {
			status = mutedStyle.Render("rejected")
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			fmt.Sprint(ev.SequenceIndex),
			formatOffset(ev.SequenceIndex * models.SecondsPerSequence),
			fmt.Sprintf("%ds", ev.DurationInSeconds),
			status,
		})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellStyle.Width(widths[i]).Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderStats(s models.Stats) string {
	lines := []string{
		titleStyle.Render("Review statistics"),
		fmt.Sprintf("Events:              %d", s.TotalEvents),
		fmt.Sprintf("Confirmed:           %d (%.2f%%)", s.ConfirmedCount, s.ConfirmedPositivePercentage),
		fmt.Sprintf("Rejected:            %d (%.2f%%)", s.RejectedCount, s.FalsePositivePercentage),
		fmt.Sprintf("Total seizure time:  %ds", s.TotalSeizureTime),
		fmt.Sprintf("Average per event:   %.2fs", s.AverageSeizureTime),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderModal(m session.Modal) string {
	return modalArea.Render(m.Message + "\n\n" + mutedStyle.Render("["+m.OnCloseCaption+"] press enter"))
}

func mark(p models.Prediction) string {
	switch p {
	case models.True:
		return seizureStyle.Render(seizureMark)
	case models.False:
		return clearStyle.Render(clearMark)
	default:
		return unknownStyle.Render(unknownMark)
	}
}

// formatOffset formats seconds from the start of the recording as h:mm:ss.
func formatOffset(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
