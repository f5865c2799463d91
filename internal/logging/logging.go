// Package logging provides the leveled logger shared by the store, the task
// watcher, and the CLI.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes timestamped, leveled lines prefixed with a component name.
type Logger struct {
	component string
	level     Level
	logger    *log.Logger
}

func New(w io.Writer, component string, level Level) *Logger {
	return &Logger{
		component: component,
		level:     level,
		logger:    log.New(w, "", 0),
	}
}

// OpenFile creates a file-backed logger under <dir>/logs/<name>.log.
// The returned closer owns the underlying file.
func OpenFile(dir, name, component string, level Level) (*Logger, io.Closer, error) {
	logPath := filepath.Join(dir, "logs", name+".log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(logFile, component, level), logFile, nil
}

func (l *Logger) Debugf(format string, args ...any) { l.printf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.printf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.printf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.printf(LevelError, format, args...) }

func (l *Logger) printf(level Level, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	levelStr := "INFO"
	switch level {
	case LevelDebug:
		levelStr = "DEBUG"
	case LevelWarn:
		levelStr = "WARN"
	case LevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("%s %s %s: %s", time.Now().Format(time.RFC3339), levelStr, l.component, msg)
}
