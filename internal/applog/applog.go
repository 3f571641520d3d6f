// Package applog configures the process-wide slog logger: a daily rotating
// file under the log dir, optionally teed to the console.
package applog

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	logPrefix       = "claude-viz-"
	logSuffix       = ".log"
	defaultKeepDays = 7
)

// DailyRotator is an io.Writer over claude-viz-YYYY-MM-DD.log files in one
// directory. The first write of a new day opens that day's file and prunes
// all but the newest keep files.
type DailyRotator struct {
	mu   sync.Mutex
	dir  string
	keep int
	now  func() time.Time

	day  string
	file *os.File
}

func NewDailyRotator(dir string, keep int) *DailyRotator {
	if keep < 1 {
		keep = defaultKeepDays
	}
	return &DailyRotator{dir: dir, keep: keep, now: time.Now}
}

// SetNow replaces the clock. Tests only.
func (r *DailyRotator) SetNow(fn func() time.Time) {
	r.mu.Lock()
	r.now = fn
	r.mu.Unlock()
}

func (r *DailyRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if day := r.now().Format(time.DateOnly); day != r.day || r.file == nil {
		if err := r.open(day); err != nil {
			return 0, err
		}
	}
	return r.file.Write(p)
}

func (r *DailyRotator) open(day string) error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	f, err := os.OpenFile(r.path(day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	r.file, r.day = f, day
	r.prune()
	return nil
}

func (r *DailyRotator) path(day string) string {
	return filepath.Join(r.dir, logPrefix+day+logSuffix)
}

func (r *DailyRotator) prune() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return
	}
	var logs []string
	for _, e := range entries {
		if name := e.Name(); strings.HasPrefix(name, logPrefix) && strings.HasSuffix(name, logSuffix) {
			logs = append(logs, name)
		}
	}
	if len(logs) <= r.keep {
		return
	}
	// Date-stamped names sort chronologically.
	slices.Sort(logs)
	for _, name := range logs[:len(logs)-r.keep] {
		os.Remove(filepath.Join(r.dir, name))
	}
}

// Close closes the current file. A later Write reopens it.
func (r *DailyRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

type InitConfig struct {
	// LogDir holds the rotating log files. Empty disables file logging.
	LogDir   string
	LogLevel string
	// KeepDays is how many daily files survive pruning (default 7).
	KeepDays int
	// Console tees output to Stderr, or os.Stderr when Stderr is nil.
	Console bool
	Stderr  io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init builds the logger described by cfg and installs it as slog.Default,
// pointing the stdlib log package at the same output. The caller must
// Close the returned io.Closer on exit.
func Init(cfg InitConfig) (*slog.Logger, io.Closer, error) {
	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := NewDailyRotator(cfg.LogDir, cfg.KeepDays)
		writers = append(writers, rotator)
		closer = rotator
	}
	if cfg.Console || len(writers) == 0 {
		stderr := cfg.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		writers = append(writers, stderr)
	}

	out := writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	log.SetOutput(out)
	log.SetFlags(0)
	return logger, closer, nil
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a config level name to a slog.Level, case-insensitively.
// Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
