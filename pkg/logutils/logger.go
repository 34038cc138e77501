// Package logutils builds the process-wide zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ConsoleFile selects colorized console output on stderr instead of a file.
const ConsoleFile = "-"

// New parses level and opens the destination. An empty file means JSON on
// stdout, ConsoleFile means human output on stderr, and any other value is
// a file opened for append with its parent directories created. The
// returned close func is never nil.
func New(level, file string) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("log level: %w", err)
	}

	w, closeFn, err := destination(file)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), closeFn, nil
}

func destination(file string) (io.Writer, func(), error) {
	switch file {
	case "":
		return os.Stdout, func() {}, nil
	case ConsoleFile:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
