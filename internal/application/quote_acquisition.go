package application

import (
	"context"
	"sync"

	"fxportal/internal/domain"

	"go.uber.org/zap"
)

// AcquisitionSnapshot is the presentation view of the quote flow.
type AcquisitionSnapshot struct {
	Quote            *domain.Quote `json:"quote,omitempty"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Expired          bool          `json:"expired"`
	Loading          bool          `json:"loading"`
	Error            string        `json:"error,omitempty"`
}

// QuoteAcquisition requests quotes and drives the expiry countdown of the
// current one. Failed requests are never retried.
type QuoteAcquisition struct {
	quotes  QuoteRequester
	clock   *ExpiryClock
	pending *PendingQuoteStore
	log     *zap.Logger

	// flight serializes Request, Hold and Reset.
	flight sync.Mutex

	mu      sync.Mutex
	quote   *domain.Quote
	loading bool
	errMsg  string
	closed  bool
}

func NewQuoteAcquisition(quotes QuoteRequester, clock *ExpiryClock, pending *PendingQuoteStore, log *zap.Logger) *QuoteAcquisition {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuoteAcquisition{quotes: quotes, clock: clock, pending: pending, log: log}
}

// Request replaces the current quote with a fresh one and starts its countdown.
func (a *QuoteAcquisition) Request(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	a.flight.Lock()
	defer a.flight.Unlock()

	a.clock.Stop()
	a.mu.Lock()
	a.quote = nil
	a.loading = true
	a.errMsg = ""
	a.mu.Unlock()

	log := a.log.With(
		zap.String("pair", string(req.CurrencyPair)),
		zap.String("side", string(req.Side)),
		zap.String("amount", req.Amount.String()),
	)
	if msg := req.Validate(); msg != "" {
		a.setFailure(msg)
		log.Info("quote.request_rejected", zap.String("reason", msg))
		return domain.Quote{}, &AcquisitionFailedError{Message: msg}
	}

	q, err := a.quotes.RequestQuote(ctx, req)
	if err != nil {
		msg := failureMessage(err, FallbackAcquisitionMessage)
		a.setFailure(msg)
		log.Warn("quote.request_failed", zap.String("reason", msg), zap.Error(err))
		return domain.Quote{}, &AcquisitionFailedError{Message: msg, Err: err}
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return q, nil
	}
	a.quote = &q
	a.loading = false
	a.mu.Unlock()

	a.clock.Start(q)
	if a.isClosed() {
		a.clock.Stop()
	}
	log.Info("quote.received",
		zap.String("quote_id", q.QuoteID),
		zap.String("rate", q.Rate.String()),
		zap.Stringer("expires_at", q.ExpiresAt),
	)
	return q, nil
}

// Hold records the current quote as the one the user elected to book and
// returns the hand-off for the booking flow. An expired countdown does not
// prevent it.
func (a *QuoteAcquisition) Hold(ctx context.Context) (Navigation, error) {
	a.flight.Lock()
	defer a.flight.Unlock()

	a.mu.Lock()
	if a.quote == nil {
		a.mu.Unlock()
		return Navigation{}, ErrNoQuoteAvailable
	}
	q := *a.quote
	a.mu.Unlock()

	// the hand-off carries the quote; the store is only the fallback
	if err := a.pending.Save(ctx, q); err != nil {
		a.log.Warn("pending_quote.save_failed", zap.String("quote_id", q.QuoteID), zap.Error(err))
	}
	if a.clock.Expired() {
		a.log.Warn("quote.held_after_expiry", zap.String("quote_id", q.QuoteID))
	}
	return Navigation{Quote: &q}, nil
}

// Release drops the current quote once it has been consumed by a booking.
func (a *QuoteAcquisition) Release(quoteID string) {
	a.mu.Lock()
	if a.quote == nil || a.quote.QuoteID != quoteID {
		a.mu.Unlock()
		return
	}
	a.quote = nil
	a.mu.Unlock()
	a.clock.Stop()
}

// Reset drops the current quote and any pending commitment.
func (a *QuoteAcquisition) Reset(ctx context.Context) error {
	a.flight.Lock()
	defer a.flight.Unlock()

	a.clock.Stop()
	a.mu.Lock()
	a.quote = nil
	a.loading = false
	a.errMsg = ""
	a.mu.Unlock()
	return a.pending.Clear(ctx)
}

// Close tears the flow down; no tick fires after it returns.
func (a *QuoteAcquisition) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.clock.Stop()
}

func (a *QuoteAcquisition) Clock() *ExpiryClock { return a.clock }

func (a *QuoteAcquisition) Snapshot() AcquisitionSnapshot {
	a.mu.Lock()
	s := AcquisitionSnapshot{Loading: a.loading, Error: a.errMsg}
	if a.quote != nil {
		q := *a.quote
		s.Quote = &q
	}
	a.mu.Unlock()
	if s.Quote != nil {
		s.RemainingSeconds = a.clock.Remaining()
		s.Expired = s.RemainingSeconds <= 0
	}
	return s
}

func (a *QuoteAcquisition) setFailure(msg string) {
	a.mu.Lock()
	a.loading = false
	a.errMsg = msg
	a.mu.Unlock()
}

func (a *QuoteAcquisition) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}
