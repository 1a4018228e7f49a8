package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(LevelDebug)
	log := FromZap(zap.New(core)).With(Component("schedule"))

	log.WithRequestID("req-1").Error("complete failed", UserID("u1"), Err(errors.New("boom")))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "schedule", fields["component"])
		assert.Equal(t, "req-1", fields[RequestIDKey])
		assert.Equal(t, "u1", fields["user_id"])
		assert.Equal(t, "boom", fields["error"])
	}
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := Nop()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
