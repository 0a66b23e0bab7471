package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSessionTTL = 30 * time.Minute

// Session owns the quote flow and the booking flow of one user session.
type Session struct {
	ID      string
	acq     *QuoteAcquisition
	coord   *BookingCoordinator
	pending *PendingQuoteStore

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) Acquisition() *QuoteAcquisition    { return s.acq }
func (s *Session) Coordinator() *BookingCoordinator { return s.coord }
func (s *Session) Pending() *PendingQuoteStore      { return s.pending }

// Book commits the current quote and confirms it right away. Without a
// current quote the booking flow falls back to the pending quote store.
func (s *Session) Book(ctx context.Context) (Snapshot, error) {
	nav, err := s.acq.Hold(ctx)
	if err != nil && !errors.Is(err, ErrNoQuoteAvailable) {
		return s.coord.Snapshot(), err
	}
	if _, err := s.coord.Begin(ctx, nav); err != nil {
		return s.coord.Snapshot(), err
	}
	return s.confirm(ctx)
}

// Confirm retries a failed booking or confirms a held quote. A session
// that holds nothing yet, such as one recreated after a restart, resumes
// from the pending quote store.
func (s *Session) Confirm(ctx context.Context) (Snapshot, error) {
	if s.coord.State() == StateIdle {
		if _, err := s.coord.Begin(ctx, Navigation{}); err != nil {
			return s.coord.Snapshot(), err
		}
	}
	return s.confirm(ctx)
}

func (s *Session) confirm(ctx context.Context) (Snapshot, error) {
	snap, err := s.coord.Confirm(ctx)
	if snap.State == StateBooked && snap.Quote != nil {
		s.acq.Release(snap.Quote.QuoteID)
	}
	return snap, err
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionManager creates sessions on first use and drops the ones idle for
// longer than the TTL. Pending quotes outlive the in-memory session in the
// slot backend.
type SessionManager struct {
	quotes    QuoteRequester
	trades    TradeBooker
	slots     SlotProvider
	events    EventPublisher
	clock     Clock
	clockOpts []ClockOption
	ttl       time.Duration
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

type SessionOption func(*SessionManager)

func WithSessionTTL(d time.Duration) SessionOption {
	return func(m *SessionManager) { m.ttl = d }
}
func WithSessionPublisher(p EventPublisher) SessionOption {
	return func(m *SessionManager) { m.events = p }
}
func WithSessionClock(c Clock) SessionOption {
	return func(m *SessionManager) { m.clock = c }
}

// WithSessionClockOptions configures every session's expiry clock.
func WithSessionClockOptions(opts ...ClockOption) SessionOption {
	return func(m *SessionManager) { m.clockOpts = append(m.clockOpts, opts...) }
}
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(m *SessionManager) { m.log = l }
}

func NewSessionManager(quotes QuoteRequester, trades TradeBooker, slots SlotProvider, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		quotes:   quotes,
		trades:   trades,
		slots:    slots,
		sessions: map[string]*Session{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.events == nil {
		m.events = NoopPublisher{}
	}
	if m.clock == nil {
		m.clock = realClock{}
	}
	if m.ttl <= 0 {
		m.ttl = DefaultSessionTTL
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

// Get returns the session id, creating it when needed.
func (m *SessionManager) Get(id string) *Session {
	now := m.clock.Now()
	m.mu.Lock()
	m.sweepLocked(now)
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSession(id)
		m.sessions[id] = s
		m.log.Debug("session.created", zap.String("session_id", id))
	}
	m.mu.Unlock()
	s.touch(now)
	return s
}

func (m *SessionManager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.clock.Now())
	}
	return s, ok
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close tears down every session.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.acq.Close()
		delete(m.sessions, id)
	}
}

// Sweep drops idle sessions and reports how many were removed.
func (m *SessionManager) Sweep() int {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

func (m *SessionManager) newSession(id string) *Session {
	log := m.log.With(zap.String("session_id", id))
	pending := NewPendingQuoteStore(m.slots.Slot(id), log)
	clockOpts := append([]ClockOption{WithClockLogger(log)}, m.clockOpts...)
	clock := NewExpiryClock(clockOpts...)
	return &Session{
		ID:      id,
		acq:     NewQuoteAcquisition(m.quotes, clock, pending, log),
		pending: pending,
		coord: NewBookingCoordinator(m.trades, pending,
			WithCoordinatorClock(m.clock),
			WithPublisher(m.events),
			WithCoordinatorLogger(log),
		),
	}
}

func (m *SessionManager) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range m.sessions {
		if now.Sub(s.idleSince()) <= m.ttl || s.coord.State() == StateBooking {
			continue
		}
		s.acq.Close()
		delete(m.sessions, id)
		n++
		m.log.Debug("session.expired", zap.String("session_id", id))
	}
	return n
}
