package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"nexus-capture/internal/domain"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// AppLogger implements the domain.Logger interface
type AppLogger struct {
	level  LogLevel
	logger *slog.Logger
}

// NewLogger creates a new logger writing to stdout
func NewLogger(levelStr string, format string) domain.Logger {
	return NewLoggerWithWriter(os.Stdout, levelStr, format)
}

// NewLoggerWithWriter creates a logger writing to w. format is "json" or "text".
func NewLoggerWithWriter(w io.Writer, levelStr string, format string) domain.Logger {
	level := parseLogLevel(levelStr)
	opts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &AppLogger{
		level:  level,
		logger: slog.New(handler).With("service", "nexus-capture"),
	}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.log(INFO, msg, fields...)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"error", err}, fields...)
	l.log(ERROR, msg, allFields...)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.log(DEBUG, msg, fields...)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.log(WARN, msg, fields...)
}

func (l *AppLogger) log(level LogLevel, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}
	// An odd trailing key would be rendered as !BADKEY by slog; drop it like the old formatter did.
	if len(fields)%2 == 1 {
		fields = fields[:len(fields)-1]
	}
	l.logger.Log(context.Background(), level.slogLevel(), msg, fields...)
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseLogLevel converts string log level to LogLevel enum
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}
