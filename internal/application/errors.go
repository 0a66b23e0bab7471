package application

import (
	"errors"
	"strings"

	"fxportal/internal/domain"
)

var (
	ErrNoQuoteAvailable = errors.New("no quote available")
	ErrBookingInFlight  = errors.New("booking in flight")
)

const (
	FallbackAcquisitionMessage = "Failed to request quote"
	FallbackBookingMessage     = "Failed to book trade"
	FallbackHistoryMessage     = "Failed to load trade history"
)

// AcquisitionFailedError carries the user-facing reason a quote request failed.
// Err is nil when the request was rejected before reaching the FX service.
type AcquisitionFailedError struct {
	Message string
	Err     error
}

func (e *AcquisitionFailedError) Error() string { return "acquisition failed: " + e.Message }
func (e *AcquisitionFailedError) Unwrap() error { return e.Err }

// BookingFailedError carries the user-facing reason a booking failed. The
// pending quote is kept so the booking can be retried.
type BookingFailedError struct {
	Message string
	Err     error
}

func (e *BookingFailedError) Error() string { return "booking failed: " + e.Message }
func (e *BookingFailedError) Unwrap() error { return e.Err }

type HistoryFailedError struct {
	Message string
	Err     error
}

func (e *HistoryFailedError) Error() string { return "trade history failed: " + e.Message }
func (e *HistoryFailedError) Unwrap() error { return e.Err }

// failureMessage prefers the message sent by the FX service.
func failureMessage(err error, fallback string) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}
