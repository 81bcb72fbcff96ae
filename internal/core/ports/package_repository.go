package ports

import (
	"context"

	"github.com/glcc/command-center/internal/core/domain"
)

// ListPackagesFilter carries the query parameters for listing packages.
type ListPackagesFilter struct {
	ActiveOnly bool
	Skip       int
	Limit      int // capped at 100 by the service
}

// PackageUpdate carries the user-editable fields. Nil means "leave unchanged".
type PackageUpdate struct {
	Alias         *string
	Active        *bool
	NotifyEnabled *bool
}

// PackageRepository defines persistence operations for tracked packages.
// The core never embeds storage logic; it only calls this contract.
type PackageRepository interface {
	Create(ctx context.Context, p *domain.Package) error
	FindByID(ctx context.Context, id string) (*domain.Package, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Package, error)
	List(ctx context.Context, filter ListPackagesFilter) ([]*domain.Package, error)
	Update(ctx context.Context, id string, upd PackageUpdate) (*domain.Package, error)
	// UpdateStatus records a successful lookup: new status, raw tracking
	// payload, and a reset of the consecutive not-found counter.
	UpdateStatus(ctx context.Context, id string, status domain.PackageStatus, trackingData string) error
	// MarkNotFound records a NotFound lookup, storing the new consecutive
	// miss count and optionally deactivating the package.
	MarkNotFound(ctx context.Context, id string, streak int, active bool) error
	Delete(ctx context.Context, id string) error
}
