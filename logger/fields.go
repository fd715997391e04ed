package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across taxon.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRequestID = "request_id"

	// Operations
	FieldQuery = "query"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Files and network
	FieldPath = "path"
	FieldHost = "host"

	// Vocabulary-specific
	FieldVocabulary = "vocabulary" // logical key or normalized source key
	FieldSource     = "source"     // resolved source location
	FieldGeneration = "generation" // detected schema generation
	FieldKind       = "kind"       // document root kind (controlled list / item mapping)
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey  contextKey = "logger_request_id"
	vocabularyKey contextKey = "logger_vocabulary"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithVocabulary tags the context with the vocabulary being served
func WithVocabulary(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, vocabularyKey, key)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for SugaredLogger.With.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if vocabulary, ok := ctx.Value(vocabularyKey).(string); ok && vocabulary != "" {
		fields = append(fields, FieldVocabulary, vocabulary)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	loader := vocab.NewLoader(fetcher, logger.ComponentLogger("vocab.loader"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// OrDefault returns l, or the named global logger when l is nil.
// Constructors accept a nil logger so tests and library callers can omit it.
func OrDefault(l *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if l != nil {
		return l
	}
	return ComponentLogger(name)
}
