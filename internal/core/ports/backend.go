package ports

import (
	"context"

	"github.com/glcc/command-center/internal/core/domain"
)

// Backend is one external lookup source (the domestic query service or a page
// scraper). Implementations normalize their raw replies and errors into the
// domain taxonomy before returning.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Fetch performs a fresh lookup for the given carrier and tracking number.
	Fetch(ctx context.Context, carrier, trackingNumber string) (*domain.TrackingResult, error)
}

// BackendDispatcher routes a carrier id to exactly one backend.
type BackendDispatcher interface {
	Fetch(ctx context.Context, carrier, trackingNumber string) (*domain.TrackingResult, error)
}

// Notifier is the external notification channel behind the dispatcher.
// Delivery is best-effort and at-most-once per event.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, ev domain.ChangeEvent) error
	NotifyDelivered(ctx context.Context, ev domain.ChangeEvent) error
	NotifyTrackingFailure(ctx context.Context, f domain.TrackingFailure) error
}

// ChangeQueue receives change events and failure notices produced by the
// refresh orchestrator and delivers them asynchronously.
type ChangeQueue interface {
	Enqueue(ev domain.ChangeEvent)
	EnqueueFailure(f domain.TrackingFailure)
}
