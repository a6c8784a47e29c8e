package app

import (
	"io"
	"log/slog"
)

// newLogger builds the app's isolated logger; the global default is never
// touched. Level and format strings have already passed NewConfig validation,
// so parsing falls back to info/text only on a programmer error.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
