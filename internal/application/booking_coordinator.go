package application

import (
	"context"
	"sync"
	"time"

	"fxportal/internal/domain"

	"go.uber.org/zap"
)

type BookingState string

const (
	StateIdle          BookingState = "IDLE"
	StateQuoteHeld     BookingState = "QUOTE_HELD"
	StateBooking       BookingState = "BOOKING"
	StateBooked        BookingState = "BOOKED"
	StateBookingFailed BookingState = "BOOKING_FAILED"
)

type AttemptOutcome string

const (
	OutcomePending   AttemptOutcome = "PENDING"
	OutcomeSucceeded AttemptOutcome = "SUCCEEDED"
	OutcomeFailed    AttemptOutcome = "FAILED"
)

// BookingAttempt exists only while one booking request is in flight.
type BookingAttempt struct {
	Quote     domain.Quote   `json:"-"`
	StartedAt time.Time      `json:"startedAt"`
	Outcome   AttemptOutcome `json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
}

// Navigation is what the quote view hands to the booking view. Neither
// field survives a process restart.
type Navigation struct {
	Quote *domain.Quote
	State map[string]any
}

// Snapshot is the presentation view of the coordinator.
type Snapshot struct {
	State          BookingState    `json:"state"`
	Quote          *domain.Quote   `json:"quote,omitempty"`
	Trade          *domain.Trade   `json:"trade,omitempty"`
	Loading        bool            `json:"loading"`
	Error          string          `json:"error,omitempty"`
	ExpiredLocally bool            `json:"expiredLocally"`
	Attempt        *BookingAttempt `json:"attempt,omitempty"`
	Attempts       int             `json:"attempts"`
}

// BookingCoordinator turns a held quote into a booked trade. Local expiry is
// advisory only: the trade service decides whether a quote is honored.
type BookingCoordinator struct {
	trades   TradeBooker
	pending  *PendingQuoteStore
	events   EventPublisher
	clock    Clock
	log      *zap.Logger
	observer func(Snapshot)
	redirect func()

	// notify orders observer calls with the transitions that produced them.
	notify sync.Mutex

	mu             sync.Mutex
	state          BookingState
	quote          *domain.Quote
	trade          *domain.Trade
	loading        bool
	errMsg         string
	expiredLocally bool
	attempt        *BookingAttempt
	attempts       int
}

type CoordinatorOption func(*BookingCoordinator)

func WithCoordinatorClock(c Clock) CoordinatorOption {
	return func(b *BookingCoordinator) { b.clock = c }
}
func WithPublisher(p EventPublisher) CoordinatorOption {
	return func(b *BookingCoordinator) { b.events = p }
}

// WithObserver receives a snapshot after every transition, in order.
func WithObserver(fn func(Snapshot)) CoordinatorOption {
	return func(b *BookingCoordinator) { b.observer = fn }
}

// WithRedirect is invoked when no quote can be resolved.
func WithRedirect(fn func()) CoordinatorOption {
	return func(b *BookingCoordinator) { b.redirect = fn }
}
func WithCoordinatorLogger(l *zap.Logger) CoordinatorOption {
	return func(b *BookingCoordinator) { b.log = l }
}

func NewBookingCoordinator(trades TradeBooker, pending *PendingQuoteStore, opts ...CoordinatorOption) *BookingCoordinator {
	b := &BookingCoordinator{trades: trades, pending: pending, state: StateIdle}
	for _, opt := range opts {
		opt(b)
	}
	if b.clock == nil {
		b.clock = realClock{}
	}
	if b.events == nil {
		b.events = NoopPublisher{}
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	return b
}

// Begin resolves the quote to act on: the navigation quote, then the
// navigation state, then the pending quote store. When none is available
// the redirect hook runs and ErrNoQuoteAvailable is returned.
func (b *BookingCoordinator) Begin(ctx context.Context, nav Navigation) (Snapshot, error) {
	if b.State() == StateBooking {
		return b.Snapshot(), ErrBookingInFlight
	}
	q, source, ok := b.resolve(ctx, nav)
	if !ok {
		b.log.Info("booking.no_quote_available")
		if b.redirect != nil {
			b.redirect()
		}
		return b.Snapshot(), ErrNoQuoteAvailable
	}
	expired := q.ExpiredAt(b.clock.Now())
	log := b.log.With(zap.String("quote_id", q.QuoteID), zap.String("source", source))
	if expired {
		log.Warn("booking.quote_expired_locally")
	} else {
		log.Info("booking.quote_held")
	}

	snap, applied := b.transition(func() bool {
		if b.state == StateBooking {
			return false
		}
		b.state = StateQuoteHeld
		b.quote = &q
		b.trade = nil
		b.loading = false
		b.errMsg = ""
		b.expiredLocally = expired
		b.attempt = nil
		b.attempts = 0
		return true
	})
	if !applied {
		return snap, ErrBookingInFlight
	}
	return snap, nil
}

func (b *BookingCoordinator) resolve(ctx context.Context, nav Navigation) (domain.Quote, string, bool) {
	if nav.Quote != nil && nav.Quote.QuoteID != "" {
		return *nav.Quote, "navigation", true
	}
	switch v := nav.State["quote"].(type) {
	case domain.Quote:
		if v.QuoteID != "" {
			return v, "navigation_state", true
		}
	case *domain.Quote:
		if v != nil && v.QuoteID != "" {
			return *v, "navigation_state", true
		}
	}
	if q, ok := b.pending.Get(ctx); ok {
		return q, "pending_store", true
	}
	return domain.Quote{}, "", false
}

// Confirm books the held quote. It is a no-op unless a quote is held or the
// last attempt failed, so at most one booking call is ever in flight. The
// call is detached from ctx cancellation once issued.
func (b *BookingCoordinator) Confirm(ctx context.Context) (Snapshot, error) {
	var q domain.Quote
	snap, applied := b.transition(func() bool {
		if b.state != StateQuoteHeld && b.state != StateBookingFailed {
			return false
		}
		q = *b.quote
		b.state = StateBooking
		b.loading = true
		b.errMsg = ""
		b.attempt = &BookingAttempt{Quote: q, StartedAt: b.clock.Now(), Outcome: OutcomePending}
		b.attempts++
		return true
	})
	if !applied {
		b.log.Debug("booking.confirm_ignored", zap.String("state", string(snap.State)))
		return snap, nil
	}

	log := b.log.With(zap.String("quote_id", q.QuoteID), zap.Int("attempt", snap.Attempts))
	log.Info("booking.confirmed")

	ctx = context.WithoutCancel(ctx)
	trade, err := b.trades.BookTrade(ctx, q.QuoteID)
	if err != nil {
		return b.fail(ctx, log, q, err)
	}
	return b.succeed(ctx, log, q, trade)
}

func (b *BookingCoordinator) succeed(ctx context.Context, log *zap.Logger, q domain.Quote, trade domain.Trade) (Snapshot, error) {
	if err := b.pending.Clear(ctx); err != nil {
		log.Warn("booking.pending_clear_failed", zap.Error(err))
	}
	var expired bool
	snap, _ := b.transition(func() bool {
		b.state = StateBooked
		b.trade = &trade
		b.loading = false
		b.errMsg = ""
		b.attempt = nil
		expired = b.expiredLocally
		return true
	})
	log.Info("booking.booked", zap.String("trade_id", trade.TradeID), zap.Bool("expired_locally", expired))
	b.publish(ctx, domain.BookingEvent{
		Type:           domain.BookingEventBooked,
		QuoteID:        q.QuoteID,
		TradeID:        trade.TradeID,
		CurrencyPair:   q.CurrencyPair,
		ExpiredLocally: expired,
		OccurredAt:     b.clock.Now().UTC(),
	})
	return snap, nil
}

func (b *BookingCoordinator) fail(ctx context.Context, log *zap.Logger, q domain.Quote, cause error) (Snapshot, error) {
	msg := failureMessage(cause, FallbackBookingMessage)
	var expired bool
	snap, _ := b.transition(func() bool {
		b.state = StateBookingFailed
		b.loading = false
		b.errMsg = msg
		b.attempt = nil
		expired = b.expiredLocally
		return true
	})
	log.Warn("booking.failed", zap.String("reason", msg), zap.Error(cause))
	b.publish(ctx, domain.BookingEvent{
		Type:           domain.BookingEventFailed,
		QuoteID:        q.QuoteID,
		CurrencyPair:   q.CurrencyPair,
		Message:        msg,
		ExpiredLocally: expired,
		OccurredAt:     b.clock.Now().UTC(),
	})
	return snap, &BookingFailedError{Message: msg, Err: cause}
}

func (b *BookingCoordinator) publish(ctx context.Context, ev domain.BookingEvent) {
	if err := b.events.Publish(ctx, ev); err != nil {
		b.log.Warn("booking.event_publish_failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// transition applies fn under the state lock and, when fn reports a change,
// notifies the observer with the resulting snapshot.
func (b *BookingCoordinator) transition(fn func() bool) (Snapshot, bool) {
	b.notify.Lock()
	defer b.notify.Unlock()

	b.mu.Lock()
	applied := fn()
	snap := b.snapshotLocked()
	b.mu.Unlock()

	if applied && b.observer != nil {
		b.observer(snap)
	}
	return snap, applied
}

func (b *BookingCoordinator) State() BookingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BookingCoordinator) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *BookingCoordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:          b.state,
		Loading:        b.loading,
		Error:          b.errMsg,
		ExpiredLocally: b.expiredLocally,
		Attempts:       b.attempts,
	}
	if b.quote != nil {
		q := *b.quote
		s.Quote = &q
	}
	if b.trade != nil {
		t := *b.trade
		s.Trade = &t
	}
	if b.attempt != nil {
		a := *b.attempt
		s.Attempt = &a
	}
	return s
}
