package application

import (
	"context"

	"fxportal/internal/domain"
)

// QuoteRequester asks the FX service for a fresh quote.
type QuoteRequester interface {
	RequestQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error)
}

// TradeBooker converts a quote into a trade on the FX service.
type TradeBooker interface {
	BookTrade(ctx context.Context, quoteID string) (domain.Trade, error)
}

type TradeHistoryFetcher interface {
	GetTradeHistory(ctx context.Context, f domain.TradeFilter) (domain.TradePage, error)
}

// SessionSlot is a single durable key holding one string value. Each call is
// atomic with respect to the others.
type SessionSlot interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, value string) error
	Delete(ctx context.Context) error
}

// SlotProvider hands out the pending-quote slot of a session.
type SlotProvider interface {
	Slot(sessionID string) SessionSlot
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.BookingEvent) error
}

type PageCache interface {
	Get(key string) (domain.TradePage, bool)
	Set(key string, page domain.TradePage)
	Clear()
}
