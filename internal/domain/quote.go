package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a server-issued, time-bounded price offer. It is never mutated
// after receipt; a re-request supersedes it with a new value.
type Quote struct {
	QuoteID      string          `json:"quoteId"`
	CurrencyPair Pair            `json:"currencyPair"`
	Side         Side            `json:"side"`
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	ExpiresAt    Timestamp       `json:"expiresAt"`
	CreatedAt    Timestamp       `json:"createdAt"`
}

// Lifespan is the server-computed validity window, floored to whole seconds
// and clamped at zero for malformed pairs of timestamps.
func (q Quote) Lifespan() time.Duration {
	d := q.ExpiresAt.Since(q.CreatedAt)
	if d <= 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// ExpiredAt reports whether the quote's wall-clock expiry has been reached at now.
func (q Quote) ExpiredAt(now time.Time) bool {
	return !now.Before(q.ExpiresAt.Time)
}

type QuoteRequest struct {
	CurrencyPair Pair            `json:"currencyPair"`
	Side         Side            `json:"side"`
	Amount       decimal.Decimal `json:"amount"`
}

// Validate mirrors the checks the quote endpoint applies to its input.
func (r QuoteRequest) Validate() string {
	switch {
	case r.CurrencyPair == "":
		return "Currency pair is required"
	case !ValidatePair(string(r.CurrencyPair)):
		return "Currency pair must be in format XXX/YYY (e.g., EUR/USD)"
	case r.Side == "":
		return "Side is required"
	case !r.Side.Valid():
		return "Side must be BUY or SELL"
	case !r.Amount.IsPositive():
		return "Amount must be greater than 0"
	case r.Amount.Exponent() < -4:
		return "Amount must have at most 4 decimal places"
	}
	return ""
}
