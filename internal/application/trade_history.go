package application

import (
	"context"
	"sync"

	"fxportal/internal/domain"

	"go.uber.org/zap"
)

// TradeHistory serves trade history pages through a short-lived cache that
// is dropped whenever a trade is booked.
type TradeHistory struct {
	fetcher TradeHistoryFetcher
	cache   PageCache
	log     *zap.Logger

	mu sync.Mutex
	// gen counts invalidations; a fetch that straddles one is not cached.
	gen uint64
}

var _ EventPublisher = (*TradeHistory)(nil)

func NewTradeHistory(fetcher TradeHistoryFetcher, cache PageCache, log *zap.Logger) *TradeHistory {
	if log == nil {
		log = zap.NewNop()
	}
	return &TradeHistory{fetcher: fetcher, cache: cache, log: log}
}

func (h *TradeHistory) Page(ctx context.Context, f domain.TradeFilter) (domain.TradePage, error) {
	f = f.Normalize()
	key := f.Key()
	if h.cache != nil {
		if p, ok := h.cache.Get(key); ok {
			return p, nil
		}
	}
	h.mu.Lock()
	gen := h.gen
	h.mu.Unlock()
	p, err := h.fetcher.GetTradeHistory(ctx, f)
	if err != nil {
		msg := failureMessage(err, FallbackHistoryMessage)
		h.log.Warn("trade_history.failed", zap.String("reason", msg), zap.Error(err))
		return domain.TradePage{}, &HistoryFailedError{Message: msg, Err: err}
	}
	if h.cache != nil {
		h.mu.Lock()
		if h.gen == gen {
			h.cache.Set(key, p)
		}
		h.mu.Unlock()
	}
	return p, nil
}

// Publish invalidates cached pages when a trade is booked.
func (h *TradeHistory) Publish(_ context.Context, ev domain.BookingEvent) error {
	if ev.Type == domain.BookingEventBooked && h.cache != nil {
		h.mu.Lock()
		h.gen++
		h.cache.Clear()
		h.mu.Unlock()
		h.log.Debug("trade_history.cache_cleared", zap.String("trade_id", ev.TradeID))
	}
	return nil
}
