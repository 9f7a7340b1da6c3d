package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/seizurescope/internal/chart"
	"github.com/rewired-gh/seizurescope/internal/config"
	"github.com/rewired-gh/seizurescope/internal/export"
	"github.com/rewired-gh/seizurescope/internal/ingest"
	"github.com/rewired-gh/seizurescope/internal/logger"
	"github.com/rewired-gh/seizurescope/internal/notify"
	"github.com/rewired-gh/seizurescope/internal/predictor"
	"github.com/rewired-gh/seizurescope/internal/review"
	"github.com/rewired-gh/seizurescope/internal/session"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seizurescope",
		Short: "Seizure prediction review for EEG recordings",
		Long: `seizurescope sends EEG recordings to a seizure prediction service,
groups the predicted seizures into events, and lets a reviewer confirm
or reject each event before exporting the corrected predictions.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (defaults and SEIZURESCOPE_* env when empty)")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newReviewCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seizurescope version %s\n", version)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Predict seizures in a CSV recording and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			exportPath, _ := cmd.Flags().GetString("export")
			chartPath, _ := cmd.Flags().GetString("chart")
			format, _ := cmd.Flags().GetString("format")

			if !validFormat(format) {
				return fmt.Errorf("invalid format %q: must be one of text, json, yaml", format)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			report, err := a.analyze(cmd.Context(), input)
			if errors.Is(err, predictor.ErrCanceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Analysis canceled")
				return nil
			}
			if err != nil {
				return err
			}

			if exportPath != "" {
				d := a.sess.Dataset()
				if err := export.WriteFile(exportPath, d.OutputFrozen, d.Output, 0644); err != nil {
					return err
				}
				logger.Info("Exported predictions to %s", exportPath)
			}
			if chartPath != "" {
				if err := a.renderChart(chartPath); err != nil {
					return err
				}
				logger.Info("Chart written to %s", chartPath)
			}

			if a.notifier != nil {
				if err := a.notifier.SendReport(input, report); err != nil {
					logger.Error("Failed to send report: %v", err)
				}
			}

			return writeReport(cmd.OutOrStdout(), format, input, report)
		},
	}

	cmd.Flags().String("input", "", "CSV file with one EEG sequence per row")
	cmd.Flags().String("export", "", "Write predictions and corrections to this CSV file")
	cmd.Flags().String("chart", "", "Render the first window to this PNG file")
	cmd.Flags().String("format", "text", "Report format: text, json or yaml")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Predict seizures in a CSV recording and review them interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			if _, err := a.analyze(cmd.Context(), input); err != nil {
				if errors.Is(err, predictor.ErrCanceled) {
					fmt.Fprintln(cmd.OutOrStdout(), "Analysis canceled")
					return nil
				}
				return err
			}

			screen, err := review.New(a.sess, cmd.OutOrStdout(), review.Options{
				ExportPath: a.cfg.Export.Path,
				Chart:      chart.Options{Width: a.cfg.Chart.Width, Height: a.cfg.Chart.Height},
			})
			if err != nil {
				return err
			}
			defer screen.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Type help for a list of commands.")
			return screen.Run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().String("input", "", "CSV file with one EEG sequence per row")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// app is the wiring shared by the analyze and review commands.
type app struct {
	cfg      *config.Config
	sess     *session.Session
	notifier *notify.Client
}

func setup(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	client := predictor.NewClient(cfg.Predictor.URL, cfg.Predictor.Timeout, predictor.ClientConfig{
		MaxRetries:     cfg.Predictor.MaxRetries,
		RetryDelayBase: cfg.Predictor.RetryDelayBase,
	})

	sess, err := session.New(client, session.Options{
		Ingest:    ingest.Options{MaxSamples: cfg.Ingest.MaxSamples},
		BatchSize: cfg.Predictor.BatchSize,
		MinStreak: cfg.Filter.MinStreak,
		SliceStep: cfg.Window.SliceStep,
		StateCopy: cfg.Store.ProvideStateCopy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Debug("Session %s started", sess.ID())

	a := &app{cfg: cfg, sess: sess}

	if cfg.Telegram.Enabled {
		a.notifier, err = notify.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		a.notifier.Attach(sess)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	return a, nil
}

// analyze runs the load pipeline on path. SIGINT and SIGTERM cancel it
// before the next prediction batch.
func (a *app) analyze(ctx context.Context, path string) (*session.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigChan)
		close(done)
	}()

	go func() {
		select {
		case <-sigChan:
			logger.Info("Interrupt received, canceling after the current batch...")
			a.sess.Cancel()
		case <-done:
		}
	}()

	report, err := a.sess.Analyze(ctx, f)
	if err != nil {
		if m := a.sess.Modal(); m.IsOpen {
			logger.Error("%s", m.Message)
		}
		return nil, err
	}
	return report, nil
}

func (a *app) renderChart(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	view := a.sess.Engine().View()
	if err := chart.Render(f, view, chart.Options{Width: a.cfg.Chart.Width, Height: a.cfg.Chart.Height}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
