package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

const (
	defaultMaxConcurrent = 4
	// cycleListLimit bounds one cycle's working set, mirroring the store's
	// paging contract.
	cycleListLimit = 1000
	lockStripes    = 64
)

// RefreshPolicy tunes one orchestrator instance.
type RefreshPolicy struct {
	// MaxConcurrent caps in-flight backend lookups within a cycle. The cap
	// protects the scraping backend, which has its own concurrency ceiling.
	MaxConcurrent int
	// NotificationsEnabled gates all change-event emission globally.
	NotificationsEnabled bool
	// NotifyOnDescriptionChange widens the diff key: when set, a changed
	// status description counts as a reportable change even if the status
	// code is identical.
	NotifyOnDescriptionChange bool
	// DeactivateAfterNotFound deactivates a package after this many
	// consecutive NotFound lookups. Zero disables the policy.
	DeactivateAfterNotFound int
}

// RefreshOrchestrator runs fresh lookups over tracked packages, detects
// status transitions, and queues change events for notification.
type RefreshOrchestrator struct {
	repo     ports.PackageRepository
	backends ports.BackendDispatcher
	queue    ports.ChangeQueue
	policy   RefreshPolicy
	logger   zerolog.Logger

	// locks serialize concurrent lookups for the same package; RefreshOne
	// may race with a scheduled cycle.
	locks [lockStripes]sync.Mutex
}

func NewRefreshOrchestrator(
	repo ports.PackageRepository,
	backends ports.BackendDispatcher,
	queue ports.ChangeQueue,
	policy RefreshPolicy,
	logger zerolog.Logger,
) *RefreshOrchestrator {
	if policy.MaxConcurrent <= 0 {
		policy.MaxConcurrent = defaultMaxConcurrent
	}
	return &RefreshOrchestrator{
		repo:     repo,
		backends: backends,
		queue:    queue,
		policy:   policy,
		logger:   logger,
	}
}

// RefreshAll executes one refresh cycle over every active package with
// bounded concurrency. Each package's failure is isolated into its outcome;
// the summary is assembled only after every lookup has finished. The returned
// error is non-nil only when the package store cannot even be listed.
func (o *RefreshOrchestrator) RefreshAll(ctx context.Context) (*domain.RefreshSummary, error) {
	started := time.Now().UTC()

	packages, err := o.repo.List(ctx, ports.ListPackagesFilter{ActiveOnly: true, Limit: cycleListLimit})
	if err != nil {
		return nil, fmt.Errorf("begin refresh cycle: %w", err)
	}

	o.logger.Info().Int("packages", len(packages)).Msg("refresh cycle started")

	outcomes := make([]*domain.RefreshOutcome, len(packages))
	sem := semaphore.NewWeighted(int64(o.policy.MaxConcurrent))
	var wg sync.WaitGroup

	for i, pkg := range packages {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled mid-cycle: record the remainder as failed
			// rather than leaving holes in the summary.
			outcomes[i] = &domain.RefreshOutcome{
				PackageID:      pkg.ID,
				TrackingNumber: pkg.TrackingNumber,
				Err:            err,
			}
			continue
		}
		wg.Add(1)
		go func(i int, pkg *domain.Package) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = o.refreshPackage(ctx, pkg)
		}(i, pkg)
	}
	wg.Wait()

	summary := &domain.RefreshSummary{
		Total:     len(packages),
		StartedAt: started,
		Duration:  time.Since(started),
	}
	for _, out := range outcomes {
		switch {
		case out == nil:
			continue
		case out.Success:
			summary.Succeeded++
			if out.Changed {
				summary.Changed++
			}
		default:
			summary.Failed++
			summary.Errors = append(summary.Errors, domain.RefreshError{
				TrackingNumber: out.TrackingNumber,
				Reason:         reasonFor(out.Err),
			})
		}
	}

	o.logger.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("changed", summary.Changed).
		Dur("duration", summary.Duration).
		Msg("refresh cycle finished")

	return summary, nil
}

// RefreshOne performs an on-demand lookup for a single package, active or not.
func (o *RefreshOrchestrator) RefreshOne(ctx context.Context, packageID string) (*domain.RefreshOutcome, error) {
	pkg, err := o.repo.FindByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	return o.refreshPackage(ctx, pkg), nil
}

// refreshPackage runs one isolated lookup. It never returns an error; every
// failure is captured inside the outcome.
func (o *RefreshOrchestrator) refreshPackage(ctx context.Context, pkg *domain.Package) *domain.RefreshOutcome {
	lock := &o.locks[stripeFor(pkg.ID)]
	lock.Lock()
	defer lock.Unlock()

	outcome := &domain.RefreshOutcome{
		PackageID:      pkg.ID,
		TrackingNumber: pkg.TrackingNumber,
	}

	// The caller's snapshot may predate a concurrent lookup for the same
	// package. Re-read the stored record under the stripe lock so the diff
	// and the emitted event run against the latest persisted status.
	pkg, err := o.repo.FindByID(ctx, pkg.ID)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	result, err := o.backends.Fetch(ctx, pkg.Carrier, pkg.TrackingNumber)
	if err != nil {
		outcome.Err = err
		o.handleFailure(ctx, pkg, err)
		return outcome
	}

	outcome.Success = true
	outcome.Result = result

	newStatus := result.Status()
	changed := o.isChange(pkg.LastStatus, newStatus)
	outcome.Changed = changed

	raw, _ := json.Marshal(result)
	if err := o.repo.UpdateStatus(ctx, pkg.ID, newStatus, string(raw)); err != nil {
		o.logger.Error().Err(err).Str("package_id", pkg.ID).Msg("failed to store refreshed status")
		outcome.Success = false
		outcome.Changed = false
		outcome.Err = err
		return outcome
	}

	if changed {
		o.logger.Info().
			Str("tracking_number", pkg.TrackingNumber).
			Str("previous", pkg.LastStatus.Code).
			Str("new", newStatus.Code).
			Msg("status changed")
	}

	if changed && pkg.NotifyEnabled && o.policy.NotificationsEnabled {
		o.queue.Enqueue(domain.ChangeEvent{
			PackageID:      pkg.ID,
			TrackingNumber: pkg.TrackingNumber,
			Carrier:        pkg.Carrier,
			Alias:          pkg.Alias,
			Previous:       *pkg.LastStatus,
			New:            newStatus,
			OccurredAt:     newStatus.UpdatedAt,
		})
	}

	return outcome
}

// isChange applies the diff key: exact equality on status code, optionally
// widened to the description text.
func (o *RefreshOrchestrator) isChange(previous *domain.PackageStatus, next domain.PackageStatus) bool {
	if previous == nil || previous.Code == "" {
		return false
	}
	if previous.Code != next.Code {
		return true
	}
	return o.policy.NotifyOnDescriptionChange && previous.Description != next.Description
}

// handleFailure records a failed lookup: applies the NotFound deactivation
// policy and queues a best-effort error notice.
func (o *RefreshOrchestrator) handleFailure(ctx context.Context, pkg *domain.Package, err error) {
	o.logger.Warn().Err(err).
		Str("tracking_number", pkg.TrackingNumber).
		Str("carrier", pkg.Carrier).
		Msg("lookup failed")

	if errors.Is(err, domain.ErrTrackingNotFound) && o.policy.DeactivateAfterNotFound > 0 {
		streak := pkg.NotFoundStreak + 1
		active := streak < o.policy.DeactivateAfterNotFound
		if markErr := o.repo.MarkNotFound(ctx, pkg.ID, streak, active); markErr != nil {
			o.logger.Error().Err(markErr).Str("package_id", pkg.ID).Msg("failed to record not-found streak")
		} else if !active {
			o.logger.Warn().
				Str("tracking_number", pkg.TrackingNumber).
				Int("streak", streak).
				Msg("package deactivated after consecutive not-found lookups")
		}
	}

	if pkg.NotifyEnabled && o.policy.NotificationsEnabled {
		o.queue.EnqueueFailure(domain.TrackingFailure{
			PackageID:      pkg.ID,
			TrackingNumber: pkg.TrackingNumber,
			Carrier:        pkg.Carrier,
			Alias:          pkg.Alias,
			Reason:         reasonFor(err),
			OccurredAt:     time.Now().UTC(),
		})
	}
}

// reasonFor flattens a lookup error into its taxonomy bucket for summaries
// and notices.
func reasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrUnsupportedCarrier):
		return "unsupported_carrier"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, domain.ErrTrackingNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrBackendError):
		return "backend_error"
	default:
		return err.Error()
	}
}

func stripeFor(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % lockStripes)
}
