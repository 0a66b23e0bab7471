package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultRelayBuffer  = 256
	DefaultRelayTimeout = 5 * time.Second
)

var (
	ErrRelayClosed = errors.New("event relay closed")
	ErrRelayFull   = errors.New("event relay full")
)

// EventRelay decouples booking responses from the event backend. Publish
// queues the event; a single goroutine forwards queued events in order.
// Events are dropped with a warning when the queue is full.
type EventRelay struct {
	next    application.EventPublisher
	timeout time.Duration
	log     *zap.Logger

	events chan domain.BookingEvent
	run    sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ application.EventPublisher = (*EventRelay)(nil)

func NewEventRelay(next application.EventPublisher, buffer int, log *zap.Logger) *EventRelay {
	if buffer <= 0 {
		buffer = DefaultRelayBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventRelay{
		next:    next,
		timeout: DefaultRelayTimeout,
		log:     log.With(zap.String("worker", "event_relay")),
		events:  make(chan domain.BookingEvent, buffer),
	}
}

func (r *EventRelay) Publish(_ context.Context, ev domain.BookingEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	select {
	case r.events <- ev:
		return nil
	default:
		r.log.Warn("event_relay.dropped", zap.String("type", string(ev.Type)), zap.String("quote_id", ev.QuoteID))
		return ErrRelayFull
	}
}

// Start forwards events until Close drains the queue.
func (r *EventRelay) Start(ctx context.Context) {
	r.run.Do(func() { r.drain(ctx) })
}

// Close stops accepting events and returns once queued ones are forwarded,
// either by a running Start or by Close itself.
func (r *EventRelay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()
	r.run.Do(func() { r.drain(context.Background()) })
}

func (r *EventRelay) drain(ctx context.Context) {
	for ev := range r.events {
		r.forward(ctx, ev)
	}
	r.log.Info("event_relay.stopped")
}

func (r *EventRelay) forward(ctx context.Context, ev domain.BookingEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("event_relay.panic", zap.Any("r", rec))
		}
	}()
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.next.Publish(c, ev); err != nil {
		r.log.Warn("event_relay.publish_failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
