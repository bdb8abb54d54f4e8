// Package logger provides leveled logging for the snake server and tools.
// Every session, connection and storage failure should be traceable through it.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Logger provides leveled logging with colored prefixes.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

var (
	infoPrefix  = color.New(color.FgCyan).Sprint("[SNAKE-INFO] ")
	warnPrefix  = color.New(color.FgYellow).Sprint("[SNAKE-WARN] ")
	errorPrefix = color.New(color.FgRed, color.Bold).Sprint("[SNAKE-ERROR] ")
)

// NewLogger creates a logger writing info and warnings to stdout and errors
// to stderr. Colors are dropped when the output is not a terminal.
func NewLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, infoPrefix, log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, warnPrefix, log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, errorPrefix, log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// NewLoggerTo sends every level to w without colors, e.g. io.Discard in tests
// or a file while a terminal UI owns the screen.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		infoLogger:  log.New(w, "[SNAKE-INFO] ", log.Ldate|log.Ltime),
		warnLogger:  log.New(w, "[SNAKE-WARN] ", log.Ldate|log.Ltime),
		errorLogger: log.New(w, "[SNAKE-ERROR] ", log.Ldate|log.Ltime),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerTo(io.Discard)
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Output(2, msg)
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.infoLogger.Output(2, fmt.Sprintf(format, args...))
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Output(2, msg)
}

// Warnf logs a formatted warning.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.warnLogger.Output(2, fmt.Sprintf(format, args...))
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Errorf logs a formatted error.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.errorLogger.Output(2, fmt.Sprintf(format, args...))
}

// Event logs a game event for a session.
func (l *Logger) Event(eventType string, sessionID string, details string) {
	l.infoLogger.Output(2, fmt.Sprintf("[EVENT:%s] Session:%s | %s", eventType, sessionID, details))
}
