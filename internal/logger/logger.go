// Package logger provides leveled logging over the standard log package.
// Text output is prefixed with the level; json output writes one object per line.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel traces store writes, window moves and batch progress.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel reports recoverable problems such as failed batches.
	WarnLevel
	// ErrorLevel reports failures that abort an operation.
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config value to a Level. Unknown values fall back to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	json   bool
	logger *log.Logger
	now    func() time.Time
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
)

// New creates a logger writing to w
func New(w io.Writer, level string, format string) *Logger {
	l := &Logger{
		level: ParseLevel(level),
		json:  strings.ToLower(format) == "json",
		now:   time.Now,
	}
	if l.json {
		l.logger = log.New(w, "", 0)
	} else {
		l.logger = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
	}
	return l
}

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	SetDefault(New(os.Stderr, level, format))
}

// SetDefault replaces the package-level logger. A nil logger silences output.
func SetDefault(l *Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.json {
		line, err := json.Marshal(struct {
			Time  string `json:"time"`
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}{l.now().UTC().Format(time.RFC3339Nano), strings.ToLower(level.String()), msg})
		if err != nil {
			return
		}
		_ = l.logger.Output(3, string(line))
		return
	}
	_ = l.logger.Output(3, "["+level.String()+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	current().log(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	current().log(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	current().log(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	current().log(ErrorLevel, format, args...)
}
