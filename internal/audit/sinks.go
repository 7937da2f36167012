package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// LogSink writes events as structured audit log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event Event) error {
	attrs := []any{
		"log_type", "audit",
		"action", string(event.Action),
		"subject", event.Subject,
		"user_id", event.UserID,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	}
	for k, v := range event.Details {
		attrs = append(attrs, k, v)
	}
	s.logger.InfoContext(ctx, string(event.Action), attrs...)
	return nil
}

// Producer is the subset of the Kafka client the sink needs.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaSink publishes events as JSON keyed by subject so one entity's events
// stay ordered within a partition.
type KafkaSink struct {
	producer Producer
}

func NewKafkaSink(producer Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, []byte(event.Subject), payload)
}

// MemorySink keeps events in memory for tests.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemorySink) BySubject(subject string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out
}
