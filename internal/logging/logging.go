// Package logging carries request-scoped identifiers (trace ID, user,
// role) through context and emits structured request/security logs.
package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TylMus/tylmus-backend/pkg/logger"
)

type contextKey string

// Context keys for request-scoped metadata. Exported so middleware and
// handlers can read them without going through the helpers.
const (
	TraceIDKey contextKey = "trace_id"
	UserIDKey  contextKey = "user_id"
	RoleKey    contextKey = "role"
)

// Logger is the request-scoped logger used by HTTP middleware.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger for the given service at the given level/format.
func New(service, level, format string) *Logger {
	base := logger.New(logger.LoggingConfig{Level: level, Format: format, Output: "stdout"})
	return &Logger{entry: base.WithService(service).Entry}
}

// NewTraceID returns a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID from the context, or "".
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// WithUserID stores a user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the user ID from the context, or "".
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

// WithRole stores a role in the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// GetRole returns the role from the context, or "".
func GetRole(ctx context.Context) string {
	return stringValue(ctx, RoleKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithContext returns an entry annotated with whatever request metadata
// the context carries. Missing values are simply omitted.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.entry
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	if role := GetRole(ctx); role != "" {
		entry = entry.WithField("role", role)
	}
	return entry
}

// LogRequest emits one line per completed HTTP request. Server errors log
// at error level, client errors at warn, everything else at info.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case status >= 500:
		entry.Error("request completed")
	case status >= 400:
		entry.Warn("request completed")
	default:
		entry.Info("request completed")
	}
}

// LogSecurityEvent records auth failures, rate limit hits and similar
// events at warn level with a stable "event" field for alerting.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, details map[string]interface{}) {
	entry := l.WithContext(ctx).WithField("event", event)
	for k, v := range details {
		entry = entry.WithField(k, v)
	}
	entry.Warn("security event")
}
