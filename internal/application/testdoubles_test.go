package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"fxportal/internal/domain"

	"github.com/shopspring/decimal"
)

var ErrBackend = errors.New("backend error")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type tickerRecorder struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (r *tickerRecorder) factory(time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time)}
	r.mu.Lock()
	r.tickers = append(r.tickers, t)
	r.mu.Unlock()
	return t
}

func (r *tickerRecorder) last() *fakeTicker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tickers) == 0 {
		return nil
	}
	return r.tickers[len(r.tickers)-1]
}

func (r *tickerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickers)
}

type memSlot struct {
	mu     sync.Mutex
	value  string
	ok     bool
	getErr error
	setErr error
}

func (s *memSlot) Get(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.value, s.ok, nil
}

func (s *memSlot) Set(_ context.Context, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.value, s.ok = v, true
	return nil
}

func (s *memSlot) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.ok = "", false
	return nil
}

func (s *memSlot) raw() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ok
}

type memSlots struct {
	mu    sync.Mutex
	slots map[string]*memSlot
}

func (m *memSlots) Slot(id string) SessionSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots == nil {
		m.slots = map[string]*memSlot{}
	}
	s, ok := m.slots[id]
	if !ok {
		s = &memSlot{}
		m.slots[id] = s
	}
	return s
}

type fakeQuotes struct {
	mu    sync.Mutex
	out   domain.Quote
	err   error
	calls int
}

func (f *fakeQuotes) RequestQuote(context.Context, domain.QuoteRequest) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	return f.out, nil
}

// fakeTrades answers BookTrade immediately unless gate is set, in which case
// each call blocks until a value is sent on gate.
type fakeTrades struct {
	mu      sync.Mutex
	out     domain.Trade
	err     error
	calls   int
	ids     []string
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeTrades) BookTrade(ctx context.Context, quoteID string) (domain.Trade, error) {
	f.mu.Lock()
	f.calls++
	f.ids = append(f.ids, quoteID)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Trade{}, f.err
	}
	return f.out, nil
}

func (f *fakeTrades) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	page  domain.TradePage
	err   error
	calls int
	last  domain.TradeFilter
	// onFetch runs inside GetTradeHistory before it returns.
	onFetch func()
}

func (f *fakeHistory) GetTradeHistory(_ context.Context, flt domain.TradeFilter) (domain.TradePage, error) {
	f.calls++
	f.last = flt
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return domain.TradePage{}, f.err
	}
	return f.page, nil
}

type mapCache struct {
	m       map[string]domain.TradePage
	cleared int
}

func (c *mapCache) Get(k string) (domain.TradePage, bool) {
	p, ok := c.m[k]
	return p, ok
}

func (c *mapCache) Set(k string, p domain.TradePage) {
	if c.m == nil {
		c.m = map[string]domain.TradePage{}
	}
	c.m[k] = p
}

func (c *mapCache) Clear() {
	c.m = nil
	c.cleared++
}

type recPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	err    error
}

func (p *recPublisher) Publish(_ context.Context, ev domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recPublisher) all() []domain.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.BookingEvent(nil), p.events...)
}

func sampleQuote(createdAt, expiresAt string) domain.Quote {
	return domain.Quote{
		QuoteID:      "3f2c9a1e-7d1b-4c55-9a0f-2b8e6d4c1a77",
		CurrencyPair: "EUR/USD",
		Side:         domain.SideBuy,
		Amount:       decimal.NewFromInt(10000),
		Rate:         decimal.RequireFromString("1.0851"),
		CreatedAt:    domain.MustParseTimestamp(createdAt),
		ExpiresAt:    domain.MustParseTimestamp(expiresAt),
	}
}

func sampleTrade(quoteID string) domain.Trade {
	return domain.Trade{
		TradeID:      "9b1d2e3f-0000-4000-8000-000000000001",
		QuoteID:      quoteID,
		CurrencyPair: "EUR/USD",
		Side:         domain.SideBuy,
		Amount:       decimal.NewFromInt(10000),
		Rate:         decimal.RequireFromString("1.0851"),
		Status:       domain.TradeStatusBooked,
		BookedAt:     domain.MustParseTimestamp("2026-02-20T08:00:10"),
	}
}
