package application

import (
	"context"
	"errors"

	"fxportal/internal/domain"
)

// NoopPublisher drops events; used when no event backend is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, domain.BookingEvent) error { return nil }

// Publishers fans an event out to every publisher and joins their errors.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, ev domain.BookingEvent) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
