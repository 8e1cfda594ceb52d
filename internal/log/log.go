// Package log configures the default slog logger to write to a
// rotating file under the data directory.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	charmlog "charm.land/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the default logger. The returned function closes the
// underlying log file and should be called on shutdown.
func Setup(dataDir string, debug bool) func() error {
	rotator := &lumberjack.Logger{
		Filename:   Path(dataDir),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}

	opts := charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           charmlog.InfoLevel,
	}
	if debug {
		opts.Level = charmlog.DebugLevel
		opts.ReportCaller = true
	}

	slog.SetDefault(slog.New(charmlog.NewWithOptions(rotator, opts)))
	return rotator.Close
}

// Path returns the log file location for the given data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "logs", "quill.log")
}

// RecoverPanic logs a recovered panic with its stack, writes a crash
// report to the working directory, and runs cleanup.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}

	slog.Error("Panic", "name", name, "panic", r)

	file := fmt.Sprintf("quill-panic-%s-%s.log", name, time.Now().Format("20060102-150405"))
	if f, err := os.Create(file); err == nil {
		defer func() { _ = f.Close() }()
		fmt.Fprintf(f, "Panic in %s: %v\n\nStack trace:\n%s\n", name, r, debug.Stack())
		slog.Info("Panic report written", "file", file)
	}

	if cleanup != nil {
		cleanup()
	}
}
