package core

import (
	"fmt"
	"log"
)

// Logger interface for structured logging
// Implementations can provide custom logging behavior (e.g., integration with zerolog, zap, etc.)
// The queue only logs lifecycle events through it; dispatch failures are
// reported by return value, never logged.
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger is a simple logger implementation using the standard log package
type DefaultLogger struct{}

// NewDefaultLogger creates a new DefaultLogger
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log("DEBUG", msg, fields...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log("WARN", msg, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

// log is the internal logging method
func (l *DefaultLogger) log(level, msg string, fields ...Field) {
	logMsg := fmt.Sprintf("[%s] %s", level, msg)
	if len(fields) > 0 {
		logMsg += " {"
		for i, f := range fields {
			if i > 0 {
				logMsg += ", "
			}
			logMsg += fmt.Sprintf("%s: %v", f.Key, f.Value)
		}
		logMsg += "}"
	}
	log.Println(logMsg)
}

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

// =============================================================================
// PanicHandler: Interface for handling executable panics
// =============================================================================

// PanicHandler is called when a task's executable panics during execution.
// The queue recovers the panic, hands it here, and counts the task as
// completed without rescheduling it.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic receives the recovered panic value and the stack trace
	// captured at the point of recovery, plus the name of the queue the task
	// was running on (empty for unnamed queues).
	HandlePanic(queueName string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler prints panic information to stderr via the standard log package.
type DefaultPanicHandler struct{}

// HandlePanic logs the panic and its stack trace.
func (h *DefaultPanicHandler) HandlePanic(queueName string, panicInfo any, stackTrace []byte) {
	log.Printf("[TaskQueue %s] task panic: %v\n%s", queueName, panicInfo, stackTrace)
}

// NoOpPanicHandler swallows panics silently.
type NoOpPanicHandler struct{}

// HandlePanic discards the panic.
func (h *NoOpPanicHandler) HandlePanic(queueName string, panicInfo any, stackTrace []byte) {}
