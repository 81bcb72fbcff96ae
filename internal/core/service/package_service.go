package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/glcc/command-center/internal/core/carrier"
	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

const maxListLimit = 100

// PackageService implements package registration and management.
type PackageService struct {
	repo     ports.PackageRepository
	detector *carrier.Detector
	backends ports.BackendDispatcher
	logger   zerolog.Logger
}

func NewPackageService(
	repo ports.PackageRepository,
	detector *carrier.Detector,
	backends ports.BackendDispatcher,
	logger zerolog.Logger,
) *PackageService {
	return &PackageService{repo: repo, detector: detector, backends: backends, logger: logger}
}

// Register starts tracking a new shipment. When no carrier is supplied the
// tracking number is classified against the pattern registry and the top
// candidate wins. The carrier is resolved here once and never re-resolved.
// An initial lookup is attempted but its failure does not fail registration.
func (s *PackageService) Register(ctx context.Context, input ports.RegisterPackageInput) (*domain.Package, error) {
	carrierID := input.Carrier
	if carrierID == "" {
		candidates := s.detector.Detect(input.TrackingNumber)
		if len(candidates) == 0 {
			return nil, domain.ErrCarrierNotDetected
		}
		carrierID = candidates[0].Carrier
		s.logger.Info().
			Str("tracking_number", input.TrackingNumber).
			Str("carrier", carrierID).
			Str("confidence", string(candidates[0].Confidence)).
			Msg("carrier auto-detected")
	}

	if existing, err := s.repo.FindByTrackingNumber(ctx, input.TrackingNumber); err == nil && existing != nil {
		return nil, domain.ErrDuplicatePackage
	}

	now := time.Now().UTC()
	pkg := &domain.Package{
		TrackingNumber: input.TrackingNumber,
		Carrier:        carrierID,
		Alias:          input.Alias,
		Active:         true,
		NotifyEnabled:  input.NotifyEnabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, pkg); err != nil {
		s.logger.Error().Err(err).Str("tracking_number", input.TrackingNumber).Msg("failed to create package")
		return nil, err
	}

	s.logger.Info().
		Str("package_id", pkg.ID).
		Str("tracking_number", pkg.TrackingNumber).
		Str("carrier", pkg.Carrier).
		Msg("package registered")

	s.initialLookup(ctx, pkg)
	return pkg, nil
}

// initialLookup fetches the current status right after registration so the
// dashboard shows something immediately. Any failure is logged and swallowed.
func (s *PackageService) initialLookup(ctx context.Context, pkg *domain.Package) {
	result, err := s.backends.Fetch(ctx, pkg.Carrier, pkg.TrackingNumber)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("tracking_number", pkg.TrackingNumber).
			Msg("initial lookup failed")
		return
	}

	status := result.Status()
	raw, _ := json.Marshal(result)
	if err := s.repo.UpdateStatus(ctx, pkg.ID, status, string(raw)); err != nil {
		s.logger.Warn().Err(err).Str("package_id", pkg.ID).Msg("failed to store initial status")
		return
	}
	pkg.LastStatus = &status
	pkg.TrackingData = string(raw)
}

func (s *PackageService) Get(ctx context.Context, id string) (*domain.Package, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PackageService) List(ctx context.Context, filter ports.ListPackagesFilter) ([]*domain.Package, error) {
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *PackageService) Update(ctx context.Context, id string, input ports.UpdatePackageInput) (*domain.Package, error) {
	pkg, err := s.repo.Update(ctx, id, ports.PackageUpdate{
		Alias:         input.Alias,
		Active:        input.Active,
		NotifyEnabled: input.NotifyEnabled,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("package_id", id).Msg("package updated")
	return pkg, nil
}

func (s *PackageService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrPackageNotFound) {
			s.logger.Error().Err(err).Str("package_id", id).Msg("failed to delete package")
		}
		return err
	}
	s.logger.Info().Str("package_id", id).Msg("package deleted")
	return nil
}
