// Package logging provides config-driven, categorized file-based logging
// for Supertag. Logs are written to <workspace>/.supertag/logs/, one file
// per category, gated by debug_mode in the workspace config document.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category identifies a Supertag subsystem for log routing.
type Category string

const (
	CategoryStore     Category = "store"
	CategoryIndexer   Category = "indexer"
	CategorySchema    Category = "schema"
	CategoryQuery     Category = "query"
	CategoryEmbedding Category = "embedding"
	CategoryWatch     Category = "watch"
	CategoryWorkspace Category = "workspace"
	CategorySink      Category = "sink"
	CategoryCLI       Category = "cli"
	CategoryHTTP      Category = "http"
	CategoryRPC       Category = "rpc"
)

const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger writes timestamped lines for a single category to its log file.
// A Logger with a nil underlying file is a no-op (used when logging is
// disabled), so callers never need to nil-check.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	logsDir   string
	debugMode bool
	logLevel  = LevelInfo
	initMu    sync.Mutex
)

// Initialize prepares the logging directory under workspaceDir/.supertag/logs.
// When debugMode is false this is a silent no-op: Get() returns no-op loggers.
func Initialize(workspaceDir string, debug bool, level string) error {
	initMu.Lock()
	defer initMu.Unlock()

	debugMode = debug
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}

	if !debugMode {
		return nil
	}
	logsDir = filepath.Join(workspaceDir, ".supertag", "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	Get(CategoryStore).Info("logging initialized at %s", logsDir)
	return nil
}

// Get returns (or lazily creates) the logger for category. Safe to call
// before Initialize; returns a no-op logger in that case.
func Get(category Category) *Logger {
	if logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open %s: %v\n", path, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] "+format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// CloseAll closes every open category log file. Call during shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for cat, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
		delete(loggers, cat)
	}
}

// Timer measures and logs the duration of an operation at Debug level,
// or Warn level if StopWithThreshold's threshold is exceeded.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation in category.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the elapsed duration at Debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a Warn if elapsed exceeds threshold, else Debug.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
