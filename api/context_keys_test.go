package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContextKeyRoundTrip verifies that typed keys store and return their values
func TestContextKeyRoundTrip(t *testing.T) {
	start := time.Now()
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTraceStart(ctx, start)
	ctx = withJSONBody(ctx, json.RawMessage(`{"a":1}`))

	id, ok := GetRequestID(ctx)
	require.True(t, ok, "RequestID should be present")
	assert.Equal(t, "req-1", id)

	gotStart, ok := GetTraceStart(ctx)
	require.True(t, ok, "TraceStart should be present")
	assert.True(t, start.Equal(gotStart))

	body, ok := JSONBody(ctx)
	require.True(t, ok, "JSON body should be present")
	assert.JSONEq(t, `{"a":1}`, string(body))
}

// TestContextKeyCollisionPrevention verifies that string-based keys cannot override typed keys
func TestContextKeyCollisionPrevention(t *testing.T) {
	ctx := WithRequestID(context.Background(), "legitimate")

	ctx = context.WithValue(ctx, "request_id", "injected")

	id, ok := GetRequestID(ctx)
	require.True(t, ok)
	assert.Equal(t, "legitimate", id, "Type-safe key should not be overridden by string key")
}

// TestContextKeyMissingValues verifies correct behavior when values are not set
func TestContextKeyMissingValues(t *testing.T) {
	ctx := context.Background()

	id, ok := GetRequestID(ctx)
	assert.False(t, ok, "RequestID should not be present")
	assert.Equal(t, "", id)
	assert.Equal(t, "unknown", GetRequestIDOrDefault(ctx))

	start, ok := GetTraceStart(ctx)
	assert.False(t, ok, "TraceStart should not be present")
	assert.True(t, start.IsZero())

	body, ok := JSONBody(ctx)
	assert.False(t, ok, "JSON body should not be present")
	assert.Nil(t, body)
}

// TestContextKeyWrongTypes verifies type safety when wrong types are stored
func TestContextKeyWrongTypes(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, ContextKeyRequestID, 12345)
	ctx = context.WithValue(ctx, ContextKeyJSONBody, `{"not":"raw"}`)

	_, ok := GetRequestID(ctx)
	assert.False(t, ok, "RequestID type assertion should fail for int")
	assert.Equal(t, "unknown", GetRequestIDOrDefault(ctx))

	_, ok = JSONBody(ctx)
	assert.False(t, ok, "JSON body type assertion should fail for string")
}

// TestContextKeyEmptyRequestID verifies an empty ID falls back to the default
func TestContextKeyEmptyRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	assert.Equal(t, "unknown", GetRequestIDOrDefault(ctx))
}
