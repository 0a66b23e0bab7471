package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fxportal/internal/domain"

	"go.uber.org/zap"
)

// PendingQuoteKey is the well-known key of the pending quote slot.
const PendingQuoteKey = "pendingQuote"

var requiredQuoteFields = []string{
	"quoteId", "currencyPair", "side", "amount", "rate", "expiresAt", "createdAt",
}

// PendingQuoteStore keeps the quote the user committed to book, so the
// booking flow can recover it when in-memory hand-off state is gone.
// A stored value that does not validate is deleted on read and reported
// as absent.
type PendingQuoteStore struct {
	slot SessionSlot
	log  *zap.Logger
}

func NewPendingQuoteStore(slot SessionSlot, log *zap.Logger) *PendingQuoteStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PendingQuoteStore{slot: slot, log: log}
}

func (s *PendingQuoteStore) Save(ctx context.Context, q domain.Quote) error {
	b, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode pending quote: %w", err)
	}
	if err := s.slot.Set(ctx, string(b)); err != nil {
		return fmt.Errorf("save pending quote: %w", err)
	}
	return nil
}

// Get returns the stored quote, or false when there is none or it was corrupt.
func (s *PendingQuoteStore) Get(ctx context.Context) (domain.Quote, bool) {
	raw, ok, err := s.slot.Get(ctx)
	if err != nil {
		s.log.Warn("pending_quote.read_failed", zap.Error(err))
		return domain.Quote{}, false
	}
	if !ok || raw == "" {
		return domain.Quote{}, false
	}
	q, err := decodePendingQuote(raw)
	if err != nil {
		s.log.Warn("pending_quote.purged", zap.String("reason", err.Error()))
		if derr := s.slot.Delete(ctx); derr != nil {
			s.log.Warn("pending_quote.purge_failed", zap.Error(derr))
		}
		return domain.Quote{}, false
	}
	return q, true
}

func (s *PendingQuoteStore) Clear(ctx context.Context) error {
	if err := s.slot.Delete(ctx); err != nil {
		return fmt.Errorf("clear pending quote: %w", err)
	}
	return nil
}

func decodePendingQuote(raw string) (domain.Quote, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.Quote{}, fmt.Errorf("malformed json: %w", err)
	}
	if fields == nil {
		return domain.Quote{}, errors.New("not an object")
	}
	for _, name := range requiredQuoteFields {
		v, ok := fields[name]
		if !ok || isBlankJSON(v) {
			return domain.Quote{}, fmt.Errorf("missing field %s", name)
		}
	}
	var q domain.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return domain.Quote{}, fmt.Errorf("invalid field: %w", err)
	}
	if !q.Side.Valid() {
		return domain.Quote{}, fmt.Errorf("invalid side %q", q.Side)
	}
	return q, nil
}

func isBlankJSON(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}
