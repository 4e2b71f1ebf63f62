package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of request context keys set by the API layer.
type ContextKey string

const (
	// SubjectContextKey holds the authenticated token subject.
	SubjectContextKey ContextKey = "subject"

	// TraceIDKey holds the request trace ID.
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries the trace ID in responses.
	TraceIDHeader = "X-Trace-ID"
)

// NewTraceID returns a 32 character hex trace ID.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SetTraceID adds traceID to the context, generating one when it is empty.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// SetSubject records the authenticated subject in the context.
func SetSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectContextKey, subject)
}

// GetSubject returns the authenticated subject, if any.
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectContextKey).(string)
	return subject, ok && subject != ""
}
