// Package tracker routes lookups to the backend responsible for a carrier and
// normalizes every backend-specific reply and error into the shared taxonomy.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/glcc/command-center/internal/api/metrics"
	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

// Dispatcher maps each carrier id to exactly one backend. Registration
// happens at composition time; lookups are stateless and uncached,
// freshness is mandatory.
type Dispatcher struct {
	backends map[string]ports.Backend
	log      zerolog.Logger
}

func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{backends: make(map[string]ports.Backend), log: log}
}

// Register binds a backend to one or more carrier ids. Later registrations
// for the same carrier overwrite earlier ones.
func (d *Dispatcher) Register(backend ports.Backend, carriers ...string) {
	for _, c := range carriers {
		d.backends[c] = backend
	}
}

// Fetch resolves the backend for the carrier and performs one lookup.
// ErrUnsupportedCarrier is returned without contacting any backend.
func (d *Dispatcher) Fetch(ctx context.Context, carrier, trackingNumber string) (*domain.TrackingResult, error) {
	backend, ok := d.backends[carrier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCarrier, carrier)
	}

	started := time.Now()
	result, err := backend.Fetch(ctx, carrier, trackingNumber)
	elapsed := time.Since(started)

	metrics.LookupDuration.WithLabelValues(backend.Name()).Observe(elapsed.Seconds())
	metrics.LookupsTotal.WithLabelValues(backend.Name(), lookupResult(err)).Inc()

	if err != nil {
		d.log.Debug().Err(err).
			Str("backend", backend.Name()).
			Str("carrier", carrier).
			Str("tracking_number", trackingNumber).
			Dur("elapsed", elapsed).
			Msg("lookup failed")
		return nil, err
	}
	return result, nil
}

func lookupResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrTrackingNotFound):
		return "not_found"
	default:
		return "error"
	}
}
