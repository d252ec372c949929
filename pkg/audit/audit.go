// Package audit records structured events for ingestion, decryption,
// lifecycle transitions, and retrieval. Recording never blocks the caller:
// events are buffered and delivered to a Sink by a background worker.
package audit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/courier/pkg/lifecycle"
)

// Recorder accepts audit events. Implementations must not block.
type Recorder interface {
	Record(t EventType, attrs Attributes)
}

// Discard is a Recorder that drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(EventType, Attributes) {}

// Log is the process-wide audit handle. Build it once at startup and inject it.
type Log struct {
	events  chan Event
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration
	dropped atomic.Uint64
}

// New creates a Log delivering to sink. Events recorded before Start are
// buffered up to cfg.BufferSize.
func New(sink Sink, cfg *Config, logger *slog.Logger) *Log {
	return &Log{
		events:  make(chan Event, cfg.BufferSize),
		sink:    sink,
		logger:  logger.With("system", "audit"),
		timeout: cfg.SendTimeoutDuration(),
	}
}

// Record enqueues an event. When the buffer is full the event is dropped.
func (l *Log) Record(t EventType, attrs Attributes) {
	e := Event{
		ID:         uuid.NewString(),
		Type:       t,
		Time:       time.Now().UTC(),
		Attributes: Attributes{}.With(attrs),
	}

	select {
	case l.events <- e:
	default:
		n := l.dropped.Add(1)
		if n == 1 || n%100 == 0 {
			l.logger.Warn("audit buffer full, event dropped", "type", t, "dropped", n)
		}
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (l *Log) Dropped() uint64 {
	return l.dropped.Load()
}

// Start runs the delivery worker on the coordinator. On shutdown the worker
// flushes whatever is still buffered before returning.
func (l *Log) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting audit log", "buffer", cap(l.events))
	lc.Go(l.run)
	return nil
}

func (l *Log) run(ctx context.Context) {
	for {
		select {
		case e := <-l.events:
			l.deliver(e)
		case <-ctx.Done():
			l.flush()
			return
		}
	}
}

func (l *Log) flush() {
	for {
		select {
		case e := <-l.events:
			l.deliver(e)
		default:
			l.logger.Info("audit log flushed", "dropped", l.dropped.Load())
			return
		}
	}
}

func (l *Log) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.sink.Write(ctx, e); err != nil {
		l.logger.Warn("audit delivery failed", "type", e.Type, "event_id", e.ID, "error", err)
	}
}
