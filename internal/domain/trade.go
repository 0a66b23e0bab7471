package domain

import "github.com/shopspring/decimal"

type TradeStatus string

const (
	TradeStatusBooked    TradeStatus = "BOOKED"
	TradeStatusSettled   TradeStatus = "SETTLED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
)

func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusBooked, TradeStatusSettled, TradeStatusCancelled:
		return true
	}
	return false
}

// Trade is created only by the trade service in answer to a booking request.
type Trade struct {
	TradeID      string          `json:"tradeId"`
	QuoteID      string          `json:"quoteId"`
	CurrencyPair Pair            `json:"currencyPair"`
	Side         Side            `json:"side"`
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	Status       TradeStatus     `json:"status"`
	BookedAt     Timestamp       `json:"bookedAt"`
}

type TradePage struct {
	Content       []Trade `json:"content"`
	TotalElements int64   `json:"totalElements"`
	TotalPages    int     `json:"totalPages"`
	Size          int     `json:"size"`
	Number        int     `json:"number"`
}
