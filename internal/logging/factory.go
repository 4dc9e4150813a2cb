package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. format is "json" or "text" (slog) or "zap";
// level is debug, info, warn or error.
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "", "json":
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
		return NewSlogLogger(slog.New(h)), nil
	case "text":
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
		return NewSlogLogger(slog.New(h)), nil
	case "zap":
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		core := zapcore.NewCore(enc, zapcore.AddSync(w), zapLevel(level))
		return NewZapLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
