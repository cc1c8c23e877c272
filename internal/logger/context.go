package logger

import "context"

type contextKey struct{}

var loggerKey = contextKey{}

// WithContext returns a new context with the logger attached.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context, falling back to the given logger
// when none is attached.
// Parameters:
//   - ctx: context to inspect.
//   - fallback: logger to return when ctx carries none.
// Returns:
//   - *Logger: request-scoped logger or fallback.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok {
			return l
		}
	}
	return fallback
}

// ContextWithFields returns a context whose logger carries additional fields.
func ContextWithFields(ctx context.Context, base *Logger, fields Fields) context.Context {
	return FromContext(ctx, base).WithFields(fields).WithContext(ctx)
}

// GetFieldString extracts a string field from the context's logger.
func GetFieldString(ctx context.Context, key string) string {
	l := FromContext(ctx, nil)
	if l == nil {
		return ""
	}
	str, _ := l.Data[key].(string)
	return str
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	return GetFieldString(ctx, FieldRequestID)
}

// GetCycleID extracts the ingestion cycle ID from context.
func GetCycleID(ctx context.Context) string {
	return GetFieldString(ctx, FieldCycleID)
}
