package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fxportal/internal/domain"
	"fxportal/internal/infrastructure/logx"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// Client sends JSON requests to an upstream service. Non-2xx answers are
// returned as *domain.APIError carrying the server's message, if any.
type Client struct {
	HTTP *http.Client
	Log  *zap.Logger

	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 1 * time.Second
	exp.MaxElapsedTime = 3 * time.Second
	if c.InitialInterval > 0 {
		exp.InitialInterval = c.InitialInterval
	}
	if c.MaxInterval > 0 {
		exp.MaxInterval = c.MaxInterval
	}
	if c.MaxElapsedTime > 0 {
		exp.MaxElapsedTime = c.MaxElapsedTime
	}
	return exp
}

// DoJSON sends req exactly once and decodes a 2xx body into out. out may be nil.
func (c *Client) DoJSON(ctx context.Context, req *http.Request, out any) error {
	return c.do(ctx, req, out)
}

// DoJSONRetry retries transport errors and 5xx answers with exponential
// backoff. It must only be used for requests without a body that are safe to
// repeat.
func (c *Client) DoJSONRetry(ctx context.Context, req *http.Request, out any) error {
	if req.Body != nil && req.Body != http.NoBody {
		return errors.New("httpx: retried request must not carry a body")
	}
	attempt := 0
	op := func() error {
		attempt++
		err := c.do(ctx, req, out)
		if err == nil {
			return nil
		}
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return backoff.Permanent(err)
		}
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			return backoff.Permanent(err)
		}
		c.logger().Warn("httpx.retry", zap.String("url", req.URL.Redacted()), zap.Int("attempt", attempt), zap.Error(err))
		return err
	}
	return backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx))
}

// DecodeError reports a 2xx answer whose body is not the expected JSON.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	req = req.WithContext(ctx)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("X-Request-ID") == "" {
		id := logx.RequestID(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	c.logger().Debug("httpx.response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// apiError reads the {"status","message"} envelope the FX service sends with
// its errors. Bodies of any other shape leave Message empty.
func apiError(resp *http.Response) error {
	e := &domain.APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return e
	}
	var env struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil {
		e.Message = env.Message
	}
	return e
}
