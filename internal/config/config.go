package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Predictor PredictorConfig `mapstructure:"predictor"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Window    WindowConfig    `mapstructure:"window"`
	Store     StoreConfig     `mapstructure:"store"`
	Export    ExportConfig    `mapstructure:"export"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PredictorConfig holds prediction endpoint configuration
type PredictorConfig struct {
	URL            string        `mapstructure:"url"`
	BatchSize      int           `mapstructure:"batch_size"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// IngestConfig holds CSV ingestion configuration
type IngestConfig struct {
	MaxSamples int `mapstructure:"max_samples"`
}

// FilterConfig holds post-processing configuration
type FilterConfig struct {
	MinStreak int `mapstructure:"min_streak"`
}

// WindowConfig holds chart window configuration
type WindowConfig struct {
	SliceStep int `mapstructure:"slice_step"`
}

// StoreConfig holds observable store configuration
type StoreConfig struct {
	ProvideStateCopy bool `mapstructure:"provide_state_copy"`
}

// ExportConfig holds export artifact configuration
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

// ChartConfig holds chart rendering configuration
type ChartConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path loads defaults and environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("SEIZURESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Predictor defaults
	v.SetDefault("predictor.url", "http://localhost:5000")
	v.SetDefault("predictor.batch_size", 36)
	v.SetDefault("predictor.timeout", "30s")
	v.SetDefault("predictor.max_retries", 3)
	v.SetDefault("predictor.retry_delay_base", "1s")

	// Ingest defaults
	v.SetDefault("ingest.max_samples", 500)

	// Filter defaults
	v.SetDefault("filter.min_streak", 3)

	// Window defaults
	v.SetDefault("window.slice_step", 36)

	// Store defaults
	v.SetDefault("store.provide_state_copy", false)

	// Export defaults
	v.SetDefault("export.path", "./export.csv")

	// Chart defaults
	v.SetDefault("chart.width", 1200)
	v.SetDefault("chart.height", 400)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Predictor config
	if c.Predictor.URL == "" {
		return fmt.Errorf("predictor.url is required")
	}
	if c.Predictor.BatchSize < 1 || c.Predictor.BatchSize > 36 {
		return fmt.Errorf("predictor.batch_size must be between 1 and 36")
	}
	if c.Predictor.Timeout < 1*time.Second {
		return fmt.Errorf("predictor.timeout must be at least 1 second")
	}
	if c.Predictor.MaxRetries < 1 {
		return fmt.Errorf("predictor.max_retries must be at least 1")
	}

	// Validate Ingest config
	if c.Ingest.MaxSamples < 1 || c.Ingest.MaxSamples > 500 {
		return fmt.Errorf("ingest.max_samples must be between 1 and 500")
	}

	// Validate Filter config
	if c.Filter.MinStreak < 1 {
		return fmt.Errorf("filter.min_streak must be at least 1")
	}

	// Validate Window config
	if c.Window.SliceStep < 1 {
		return fmt.Errorf("window.slice_step must be at least 1")
	}

	// Validate Chart config
	if c.Chart.Width < 100 || c.Chart.Height < 100 {
		return fmt.Errorf("chart.width and chart.height must be at least 100")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
