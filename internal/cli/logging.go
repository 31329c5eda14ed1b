package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// setupLogging installs the process-wide slog handler, grounded on the
// pack's single-handler-selected-at-startup convention (reginald's
// internal/logger.Init): a text handler for the common case, a JSON
// handler under --debug, writing to --log's path when given and to
// stderr otherwise. It returns a closer the caller must run once the
// command has finished.
func setupLogging(f Flags) (func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}

	if f.LogPath != "" {
		file, err := os.OpenFile(f.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = file
		closer = func() { _ = file.Close() }
	}

	level := slog.LevelInfo
	var handler slog.Handler
	if f.Debug {
		level = slog.LevelDebug
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}
