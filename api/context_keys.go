package api

import (
	"context"
	"encoding/json"
	"time"
)

// contextKey is a private type to prevent context key collisions across packages.
type contextKey string

const (
	// ContextKeyRequestID stores the unique request identifier (string)
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyTraceStart stores the request start time (time.Time)
	ContextKeyTraceStart contextKey = "trace_start"

	// ContextKeyJSONBody stores the parsed JSON request body (json.RawMessage)
	ContextKeyJSONBody contextKey = "json_body"
)

// GetRequestID extracts the request ID from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyRequestID).(string)
	return id, ok
}

// GetRequestIDOrDefault returns the request ID, or "unknown" when none is set.
func GetRequestIDOrDefault(ctx context.Context) string {
	if id, ok := GetRequestID(ctx); ok && id != "" {
		return id
	}
	return "unknown"
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetTraceStart extracts the request start time from the context.
func GetTraceStart(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(ContextKeyTraceStart).(time.Time)
	return start, ok
}

// WithTraceStart returns a context carrying the request start time.
func WithTraceStart(ctx context.Context, start time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyTraceStart, start)
}

// JSONBody returns the request body parsed by the JSON middleware.
// ok is false when the request had no JSON body.
func JSONBody(ctx context.Context) (json.RawMessage, bool) {
	body, ok := ctx.Value(ContextKeyJSONBody).(json.RawMessage)
	return body, ok
}

func withJSONBody(ctx context.Context, body json.RawMessage) context.Context {
	return context.WithValue(ctx, ContextKeyJSONBody, body)
}
