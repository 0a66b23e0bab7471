package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSortBy   = "bookedAt"
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// TradeFilter selects a page of trade history. Zero values mean "no filter".
type TradeFilter struct {
	CurrencyPair string
	Side         Side
	Status       TradeStatus
	FromDate     *time.Time
	ToDate       *time.Time
	Page         int
	Size         int
	SortBy       string
	Direction    SortDirection
}

// Normalize trims blank filters and clamps paging to the accepted range.
func (f TradeFilter) Normalize() TradeFilter {
	f.CurrencyPair = strings.TrimSpace(f.CurrencyPair)
	f.Side = Side(strings.ToUpper(strings.TrimSpace(string(f.Side))))
	f.Status = TradeStatus(strings.ToUpper(strings.TrimSpace(string(f.Status))))
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	if strings.TrimSpace(f.SortBy) == "" {
		f.SortBy = DefaultSortBy
	}
	f.Direction = SortDirection(strings.ToUpper(strings.TrimSpace(string(f.Direction))))
	if f.Direction != SortAsc {
		f.Direction = SortDesc
	}
	return f
}

// Key is a stable cache key for a normalized filter.
func (f TradeFilter) Key() string {
	var from, to string
	if f.FromDate != nil {
		from = f.FromDate.UTC().Format(time.RFC3339)
	}
	if f.ToDate != nil {
		to = f.ToDate.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("trades|%s|%s|%s|%s|%s|%d|%d|%s|%s",
		f.CurrencyPair, f.Side, f.Status, from, to, f.Page, f.Size, f.SortBy, f.Direction)
}
