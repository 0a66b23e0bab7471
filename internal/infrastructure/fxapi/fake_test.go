package fxapi

import (
	"context"
	"testing"
	"time"

	"fxportal/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFake_QuoteBookHistory(t *testing.T) {
	f := NewFake(decimal.RequireFromString("1.0850"))
	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	q, err := f.RequestQuote(context.Background(), domain.QuoteRequest{CurrencyPair: "EUR/USD", Side: domain.SideBuy, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.Equal(t, FakeQuoteLifetime, q.Lifespan())

	tr, err := f.BookTrade(context.Background(), q.QuoteID)
	require.NoError(t, err)
	require.Equal(t, q.QuoteID, tr.QuoteID)

	_, err = f.BookTrade(context.Background(), q.QuoteID)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "A trade has already been booked for this quote", apiErr.Message)

	page, err := f.GetTradeHistory(context.Background(), domain.TradeFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.TotalElements)
	require.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Content, 1)
}

func TestFake_RejectsExpiredAndUnknownQuotes(t *testing.T) {
	f := NewFake(decimal.NewFromInt(1))
	now := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	q, err := f.RequestQuote(context.Background(), domain.QuoteRequest{CurrencyPair: "USD/JPY", Side: domain.SideSell, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	now = now.Add(FakeQuoteLifetime)
	_, err = f.BookTrade(context.Background(), q.QuoteID)
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 409, apiErr.Status)
	require.Equal(t, "Quote has expired", apiErr.Message)

	_, err = f.BookTrade(context.Background(), "nope")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Quote not found: nope", apiErr.Message)
}
