package ports

import (
	"context"

	"github.com/glcc/command-center/internal/core/domain"
)

// RegisterPackageInput carries the data needed to start tracking a shipment.
// Carrier may be empty, in which case it is auto-detected from the tracking
// number; registration fails when detection yields no candidate.
type RegisterPackageInput struct {
	TrackingNumber string
	Carrier        string
	Alias          string
	NotifyEnabled  bool
}

// UpdatePackageInput carries the user-editable fields; nil leaves a field
// unchanged.
type UpdatePackageInput struct {
	Alias         *string
	Active        *bool
	NotifyEnabled *bool
}

// PackageService defines the registration and management use cases.
type PackageService interface {
	Register(ctx context.Context, input RegisterPackageInput) (*domain.Package, error)
	Get(ctx context.Context, id string) (*domain.Package, error)
	List(ctx context.Context, filter ListPackagesFilter) ([]*domain.Package, error)
	Update(ctx context.Context, id string, input UpdatePackageInput) (*domain.Package, error)
	Delete(ctx context.Context, id string) error
}

// RefreshService is the refresh orchestrator: fresh lookups over tracked
// packages with change detection and notification triggering.
type RefreshService interface {
	// RefreshAll runs one refresh cycle over every active package. Per-package
	// failures are isolated into outcomes; the returned error is non-nil only
	// when the cycle could not begin at all (package store unreachable).
	RefreshAll(ctx context.Context) (*domain.RefreshSummary, error)
	// RefreshOne performs an on-demand lookup for a single package.
	RefreshOne(ctx context.Context, packageID string) (*domain.RefreshOutcome, error)
}
