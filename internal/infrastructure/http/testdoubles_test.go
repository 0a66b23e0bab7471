package httpserver

import (
	"context"
	"sync"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

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

type fakeTicker struct{ ch chan time.Time }

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (r *tickers) factory(time.Duration) application.Ticker {
	t := &fakeTicker{ch: make(chan time.Time)}
	r.mu.Lock()
	r.all = append(r.all, t)
	r.mu.Unlock()
	return t
}

func (r *tickers) last() *fakeTicker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all[len(r.all)-1]
}

type memSlot struct {
	mu    sync.Mutex
	value string
	ok    bool
}

func (s *memSlot) Get(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ok, nil
}

func (s *memSlot) Set(_ context.Context, v string) error {
	s.mu.Lock()
	s.value, s.ok = v, true
	s.mu.Unlock()
	return nil
}

func (s *memSlot) Delete(context.Context) error {
	s.mu.Lock()
	s.value, s.ok = "", false
	s.mu.Unlock()
	return nil
}

type memSlots struct {
	mu    sync.Mutex
	slots map[string]*memSlot
}

func (m *memSlots) Slot(id string) application.SessionSlot {
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

// fakeFX answers every call from its fields.
type fakeFX struct {
	mu       sync.Mutex
	quote    domain.Quote
	quoteErr error
	trade    domain.Trade
	tradeErr error
	page     domain.TradePage
	pageErr  error
	filter   domain.TradeFilter
	bookings int
}

func (f *fakeFX) RequestQuote(context.Context, domain.QuoteRequest) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote, f.quoteErr
}

func (f *fakeFX) BookTrade(_ context.Context, quoteID string) (domain.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings++
	if f.tradeErr != nil {
		return domain.Trade{}, f.tradeErr
	}
	t := f.trade
	t.QuoteID = quoteID
	return t, nil
}

func (f *fakeFX) GetTradeHistory(_ context.Context, flt domain.TradeFilter) (domain.TradePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = flt
	return f.page, f.pageErr
}

func testQuote() domain.Quote {
	return domain.Quote{
		QuoteID:      "3f2c9a1e-7d1b-4c55-9a0f-2b8e6d4c1a77",
		CurrencyPair: "EUR/USD",
		Side:         domain.SideBuy,
		Amount:       decimal.NewFromInt(10000),
		Rate:         decimal.RequireFromString("1.0851"),
		CreatedAt:    domain.MustParseTimestamp("2026-02-20T08:00:00"),
		ExpiresAt:    domain.MustParseTimestamp("2026-02-20T08:00:30"),
	}
}

func testTrade() domain.Trade {
	return domain.Trade{
		TradeID:      "9b1d2e3f-0000-4000-8000-000000000001",
		CurrencyPair: "EUR/USD",
		Side:         domain.SideBuy,
		Amount:       decimal.NewFromInt(10000),
		Rate:         decimal.RequireFromString("1.0851"),
		Status:       domain.TradeStatusBooked,
		BookedAt:     domain.MustParseTimestamp("2026-02-20T08:00:10"),
	}
}
