package domain

import "time"

type BookingEventType string

const (
	BookingEventBooked BookingEventType = "trade.booked"
	BookingEventFailed BookingEventType = "trade.booking_failed"
)

type BookingEvent struct {
	Type           BookingEventType `json:"type"`
	QuoteID        string           `json:"quoteId"`
	TradeID        string           `json:"tradeId,omitempty"`
	CurrencyPair   Pair             `json:"currencyPair"`
	Message        string           `json:"message,omitempty"`
	ExpiredLocally bool             `json:"expiredLocally"`
	OccurredAt     time.Time        `json:"occurredAt"`
}
