package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger for one fosight binary: readable
// text on stderr plus JSON appended to logFile. Pipeline and server logs
// carry job_id attributes, so the JSON stream stays greppable per job.
// component distinguishes the CLI from the server when both append to the
// same file. The returned cleanup closes the file.
func SetupLogger(component, logFile string, level slog.Level) (*slog.Logger, func() error) {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}
	cleanup := func() error { return nil }

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Stderr-only beats no logs at all.
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
	} else {
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
		cleanup = file.Close
	}

	logger := slog.New(slogmulti.Fanout(handlers...)).
		With("service", "fosight", "component", component)
	return logger, cleanup
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(component string, stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler)).
		With("service", "fosight", "component", component)
}
