package logging

import (
	"context"
	"log"
)

type requestIDKey struct{}

// WithRequestID stores a request ID in the context for later loggers.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from a context, if any.
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging scoped to a request or component.
type Logger struct {
	requestID string
}

// NewLogger creates a logger with request context.
func NewLogger(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{requestID: requestID}
}

// ForComponent creates a logger for a long-lived component (no request scope).
func ForComponent(name string) *Logger {
	return &Logger{requestID: name}
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	log.Printf("[error] request_id=%s operation=%s error=%v", l.requestID, operation, err)
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	log.Printf("[error] request_id=%s operation=%s "+format, append([]interface{}{l.requestID, operation}, args...)...)
}

// LogInfo logs an info message with context
func (l *Logger) LogInfo(operation string, message string) {
	log.Printf("[info] request_id=%s operation=%s message=%s", l.requestID, operation, message)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	log.Printf("[info] request_id=%s operation=%s "+format, append([]interface{}{l.requestID, operation}, args...)...)
}

// LogWarn logs a warning with context
func (l *Logger) LogWarn(operation string, message string) {
	log.Printf("[warn] request_id=%s operation=%s message=%s", l.requestID, operation, message)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	log.Printf("[warn] request_id=%s operation=%s "+format, append([]interface{}{l.requestID, operation}, args...)...)
}
