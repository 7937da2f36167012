package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agencyhub/pkg/platform/circuit"
)

type flakySink struct {
	err   error
	calls int
}

func (s *flakySink) Append(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFallbackSink(t *testing.T) {
	primary := &flakySink{err: errors.New("broker down")}
	fallback := NewMemorySink()
	breaker := circuit.New("kafka-audit", circuit.WithFailureThreshold(2))
	sink := NewFallbackSink(primary, fallback, breaker, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return clock }
	ctx := context.Background()

	// below threshold the primary error is returned and nothing is diverted
	assert.Error(t, sink.Append(ctx, Event{Subject: "e1"}))
	assert.Empty(t, fallback.Events())

	// the failure that opens the circuit is diverted
	require.NoError(t, sink.Append(ctx, Event{Subject: "e2"}))
	assert.True(t, breaker.IsOpen())
	assert.Len(t, fallback.BySubject("e2"), 1)

	// first open call probes the primary, the next one inside the interval skips it
	require.NoError(t, sink.Append(ctx, Event{Subject: "e3"}))
	require.NoError(t, sink.Append(ctx, Event{Subject: "e4"}))
	assert.Equal(t, 3, primary.calls)
	assert.Len(t, fallback.Events(), 3)

	// a successful probe after the interval closes the circuit
	primary.err = nil
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, sink.Append(ctx, Event{Subject: "e5"}))
	assert.False(t, breaker.IsOpen())
	assert.Empty(t, fallback.BySubject("e5"))
	assert.Equal(t, 4, primary.calls)
}
