package domain

import "fmt"

// APIError is a non-2xx answer from the FX service. Message carries the
// server-provided text and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fx api: status %d", e.Status)
	}
	return fmt.Sprintf("fx api: status %d: %s", e.Status, e.Message)
}
