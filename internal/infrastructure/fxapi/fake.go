package fxapi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FakeQuoteLifetime matches the validity window of the real quote service.
const FakeQuoteLifetime = 2 * time.Minute

// Fake is an in-process stand-in for the FX service used by the local
// profile. Every pair is quoted at the same fixed rate.
type Fake struct {
	rate decimal.Decimal
	now  func() time.Time

	mu     sync.Mutex
	quotes map[string]domain.Quote
	booked map[string]bool
	trades []domain.Trade
}

var (
	_ application.QuoteRequester      = (*Fake)(nil)
	_ application.TradeBooker         = (*Fake)(nil)
	_ application.TradeHistoryFetcher = (*Fake)(nil)
)

func NewFake(rate decimal.Decimal) *Fake {
	return &Fake{
		rate:   rate,
		now:    time.Now,
		quotes: map[string]domain.Quote{},
		booked: map[string]bool{},
	}
}

func (f *Fake) RequestQuote(_ context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	if msg := req.Validate(); msg != "" {
		return domain.Quote{}, &domain.APIError{Status: 400, Message: msg}
	}
	now := f.now().Truncate(time.Millisecond)
	q := domain.Quote{
		QuoteID:      uuid.NewString(),
		CurrencyPair: req.CurrencyPair,
		Side:         req.Side,
		Amount:       req.Amount,
		Rate:         f.rate,
		CreatedAt:    domain.NewTimestamp(now),
		ExpiresAt:    domain.NewTimestamp(now.Add(FakeQuoteLifetime)),
	}
	f.mu.Lock()
	f.quotes[q.QuoteID] = q
	f.mu.Unlock()
	return q, nil
}

func (f *Fake) BookTrade(_ context.Context, quoteID string) (domain.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[quoteID]
	if !ok {
		return domain.Trade{}, &domain.APIError{Status: 400, Message: "Quote not found: " + quoteID}
	}
	now := f.now()
	if q.ExpiredAt(now) {
		return domain.Trade{}, &domain.APIError{Status: 409, Message: "Quote has expired"}
	}
	if f.booked[quoteID] {
		return domain.Trade{}, &domain.APIError{Status: 409, Message: "A trade has already been booked for this quote"}
	}
	t := domain.Trade{
		TradeID:      uuid.NewString(),
		QuoteID:      q.QuoteID,
		CurrencyPair: q.CurrencyPair,
		Side:         q.Side,
		Amount:       q.Amount,
		Rate:         q.Rate,
		Status:       domain.TradeStatusBooked,
		BookedAt:     domain.NewTimestamp(now),
	}
	f.booked[quoteID] = true
	f.trades = append(f.trades, t)
	return t, nil
}

func (f *Fake) GetTradeHistory(_ context.Context, flt domain.TradeFilter) (domain.TradePage, error) {
	flt = flt.Normalize()
	if flt.Side != "" && !flt.Side.Valid() {
		return domain.TradePage{}, &domain.APIError{Status: 400, Message: fmt.Sprintf("Invalid value '%s' for parameter 'side'", flt.Side)}
	}
	f.mu.Lock()
	matched := make([]domain.Trade, 0, len(f.trades))
	for _, t := range f.trades {
		if flt.CurrencyPair != "" && string(t.CurrencyPair) != flt.CurrencyPair {
			continue
		}
		if flt.Side != "" && t.Side != flt.Side {
			continue
		}
		if flt.Status != "" && t.Status != flt.Status {
			continue
		}
		if flt.FromDate != nil && t.BookedAt.Before(*flt.FromDate) {
			continue
		}
		if flt.ToDate != nil && t.BookedAt.After(*flt.ToDate) {
			continue
		}
		matched = append(matched, t)
	}
	f.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if flt.Direction == domain.SortAsc {
			return matched[i].BookedAt.Before(matched[j].BookedAt.Time)
		}
		return matched[i].BookedAt.After(matched[j].BookedAt.Time)
	})

	page := domain.TradePage{
		TotalElements: int64(len(matched)),
		TotalPages:    (len(matched) + flt.Size - 1) / flt.Size,
		Size:          flt.Size,
		Number:        flt.Page,
		Content:       []domain.Trade{},
	}
	start := flt.Page * flt.Size
	if start < len(matched) {
		end := start + flt.Size
		if end > len(matched) {
			end = len(matched)
		}
		page.Content = matched[start:end]
	}
	return page, nil
}
