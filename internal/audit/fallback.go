package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"agencyhub/pkg/platform/circuit"
)

// FallbackSink sends events to primary and diverts them to fallback while the
// breaker is open. An open breaker lets one probe through per probeInterval.
type FallbackSink struct {
	primary       Sink
	fallback      Sink
	breaker       *circuit.Breaker
	logger        *slog.Logger
	probeInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	lastProbe time.Time
}

func NewFallbackSink(primary, fallback Sink, breaker *circuit.Breaker, probeInterval time.Duration, logger *slog.Logger) *FallbackSink {
	return &FallbackSink{
		primary:       primary,
		fallback:      fallback,
		breaker:       breaker,
		logger:        logger,
		probeInterval: probeInterval,
		now:           time.Now,
	}
}

func (s *FallbackSink) Append(ctx context.Context, event Event) error {
	if s.breaker.IsOpen() && !s.probeDue() {
		return s.fallback.Append(ctx, event)
	}

	if err := s.primary.Append(ctx, event); err != nil {
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "audit sink circuit opened", "breaker", s.breaker.Name(), "error", err)
		}
		if useFallback {
			return s.fallback.Append(ctx, event)
		}
		return err
	}

	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "audit sink circuit closed", "breaker", s.breaker.Name())
	}
	return nil
}

func (s *FallbackSink) probeDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastProbe) < s.probeInterval {
		return false
	}
	s.lastProbe = now
	return true
}
