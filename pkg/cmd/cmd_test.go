package cmd

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceURL(t *testing.T) {
	tests := []struct {
		url      string
		provider string
		root     string
	}{
		{"outputs", "file", "outputs"},
		{"file://./outputs", "file", "./outputs"},
		{"s3://bucket/outputs", "file", "bucket/outputs"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			provider, root := parsePersistenceURL(tt.url)
			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.root, root)
		})
	}
}

func TestNewPersistence(t *testing.T) {
	assert.Equal(t, "reports", NewPersistence("file://reports").Root())
}

func TestNewTracer_Disabled(t *testing.T) {
	tracer, shutdown, err := NewTracer(context.Background(), false)
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewEventBus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bus := NewEventBus("memory", logger)
	require.NotNil(t, bus)
	assert.NoError(t, bus.Close())

	assert.Panics(t, func() { NewEventBus("kafka", logger) })
}
