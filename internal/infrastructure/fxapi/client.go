package fxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"
	"fxportal/internal/infrastructure/httpx"
)

const (
	quotesPath = "/quotes"
	tradesPath = "/trades"

	// dateLayout is the zone-less form the trade endpoint accepts for its
	// date filters.
	dateLayout = "2006-01-02T15:04:05"
)

// Client talks to the FX quote and trade service over its REST API.
type Client struct {
	BaseURL string
	HTTP    *httpx.Client
}

var (
	_ application.QuoteRequester      = (*Client)(nil)
	_ application.TradeBooker         = (*Client)(nil)
	_ application.TradeHistoryFetcher = (*Client)(nil)
)

func New(baseURL string, hc *httpx.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("fxapi: invalid base url %q", baseURL)
	}
	if hc == nil {
		hc = &httpx.Client{}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}, nil
}

type quoteRequestBody struct {
	CurrencyPair string      `json:"currencyPair"`
	Side         string      `json:"side"`
	Amount       json.Number `json:"amount"`
}

type tradeRequestBody struct {
	QuoteID string `json:"quoteId"`
}

func (c *Client) RequestQuote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	body := quoteRequestBody{
		CurrencyPair: string(req.CurrencyPair),
		Side:         string(req.Side),
		Amount:       json.Number(req.Amount.String()),
	}
	var q domain.Quote
	if err := c.post(ctx, quotesPath, body, &q); err != nil {
		return domain.Quote{}, fmt.Errorf("fxapi: request quote: %w", err)
	}
	if q.QuoteID == "" {
		return domain.Quote{}, errors.New("fxapi: request quote: response without quoteId")
	}
	return q, nil
}

// BookTrade is sent once; a lost answer is not retried because the trade
// service books at most one trade per quote and would reject the repeat.
func (c *Client) BookTrade(ctx context.Context, quoteID string) (domain.Trade, error) {
	var t domain.Trade
	if err := c.post(ctx, tradesPath, tradeRequestBody{QuoteID: quoteID}, &t); err != nil {
		return domain.Trade{}, fmt.Errorf("fxapi: book trade: %w", err)
	}
	return t, nil
}

func (c *Client) GetTradeHistory(ctx context.Context, f domain.TradeFilter) (domain.TradePage, error) {
	u := c.BaseURL + tradesPath
	if q := historyQuery(f).Encode(); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.TradePage{}, fmt.Errorf("fxapi: trade history: create request: %w", err)
	}
	var page domain.TradePage
	if err := c.HTTP.DoJSONRetry(ctx, req, &page); err != nil {
		return domain.TradePage{}, fmt.Errorf("fxapi: trade history: %w", err)
	}
	return page, nil
}

func historyQuery(f domain.TradeFilter) url.Values {
	v := url.Values{}
	if f.CurrencyPair != "" {
		v.Set("currencyPair", f.CurrencyPair)
	}
	if f.Side != "" {
		v.Set("side", string(f.Side))
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.FromDate != nil {
		v.Set("fromDate", f.FromDate.In(time.Local).Format(dateLayout))
	}
	if f.ToDate != nil {
		v.Set("toDate", f.ToDate.In(time.Local).Format(dateLayout))
	}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("size", strconv.Itoa(f.Size))
	if f.SortBy != "" {
		v.Set("sortBy", f.SortBy)
	}
	if f.Direction != "" {
		v.Set("direction", string(f.Direction))
	}
	return v
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.HTTP.DoJSON(ctx, req, out)
}
