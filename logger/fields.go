package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field names shared by every component so log queries stay uniform.
const (
	FieldRequestID  = "request_id"
	FieldGeneration = "generation"
	FieldComponent  = "component"

	FieldMethod = "method"
	FieldPath   = "path"
	FieldStatus = "status"

	FieldGame       = "game"
	FieldVisualizer = "visualizer"
	FieldCacheKey   = "cache_key"
	FieldMetrics    = "metrics"
	FieldTransition = "transition"

	FieldNodeCount = "nodes"
	FieldLinkCount = "links"
	FieldActivity  = "activity"
	FieldTarget    = "target"

	FieldAlpha = "alpha"
	FieldTick  = "tick"

	FieldDurationMS = "duration_ms"
	FieldSize       = "size"
	FieldCount      = "count"

	FieldError = "error"
	FieldFile  = "file"
	FieldPort  = "port"
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithComponent adds a component name to the context for logging.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// RequestIDFromContext returns the request ID stored by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// FieldsFromContext extracts key-value pairs suitable for Infow/Errorw.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, FieldRequestID, id)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}
	return fields
}

// FromContext decorates base with the fields carried by ctx.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named child of the global logger, e.g. "cache" or "layout.runner".
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
