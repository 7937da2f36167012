package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrQueueFull is returned when the async queue cannot take another event.
	ErrQueueFull = errors.New("audit queue full")
	// ErrQueueClosed is returned for events appended after Close.
	ErrQueueClosed = errors.New("audit queue closed")
)

// Queue is a Sink that buffers events for a Worker so slow sinks never sit
// on the request path.
type Queue struct {
	mu     sync.RWMutex
	closed bool
	ch     chan Event
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Event, size)}
}

func (q *Queue) Append(_ context.Context, event Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops intake. The Worker delivers what is buffered and then returns.
// Call it once nothing else will publish, i.e. after the servers shut down.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Worker drains a Queue into a sink. Sink failures are logged and skipped.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, queue *Queue, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: queue.ch, logger: logger}
}

// Run delivers events until the queue is closed and empty. Cancelling ctx
// stops it early after draining whatever is already buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.deliver(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) deliver(ctx context.Context, event Event) {
	if err := w.sink.Append(ctx, event); err != nil && w.logger != nil {
		w.logger.ErrorContext(ctx, "failed to deliver audit event",
			"action", string(event.Action),
			"subject", event.Subject,
			"error", err,
		)
	}
}
