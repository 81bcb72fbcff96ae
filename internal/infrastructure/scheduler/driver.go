// Package scheduler drives recurring refresh cycles. At most one cycle runs
// at a time; an interval firing that lands while a cycle is still in flight
// is skipped, not queued.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/glcc/command-center/internal/api/metrics"
	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

// State is the driver's lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Status is the operational snapshot surfaced to the API.
type Status struct {
	State       State                  `json:"state"`
	Interval    time.Duration          `json:"interval"`
	Skips       int64                  `json:"skips"`
	LastSummary *domain.RefreshSummary `json:"last_summary,omitempty"`
}

// Driver arms a recurring trigger for the refresh orchestrator and enforces
// single-flight execution across scheduled and manual triggers.
type Driver struct {
	refresher ports.RefreshService
	interval  time.Duration
	log       zerolog.Logger

	mu      sync.Mutex // guards cron, running, lastSummary
	cron    *cron.Cron
	running bool

	inFlight chan struct{} // capacity 1: the single-flight token
	cycles   sync.WaitGroup
	skips    atomic.Int64

	lastSummary *domain.RefreshSummary
}

func NewDriver(refresher ports.RefreshService, interval time.Duration, log zerolog.Logger) *Driver {
	inFlight := make(chan struct{}, 1)
	inFlight <- struct{}{}
	return &Driver{
		refresher: refresher,
		interval:  interval,
		log:       log,
		inFlight:  inFlight,
	}
}

// Start transitions Stopped→Running and arms the recurring trigger. Starting
// an already-running driver is a no-op.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}

	c := cron.New()
	c.Schedule(cron.Every(d.interval), cron.FuncJob(func() {
		d.runCycle(context.Background(), "scheduled")
	}))
	c.Start()

	d.cron = c
	d.running = true
	d.log.Info().Dur("interval", d.interval).Msg("scheduler started")
}

// Stop transitions Running→Stopped, cancels the pending trigger, and waits
// for any in-flight cycle to finish so no partially updated batch is left
// dangling. Stopping an already-stopped driver is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	stopCtx := d.cron.Stop()
	d.cron = nil
	d.running = false
	d.mu.Unlock()

	<-stopCtx.Done()
	d.cycles.Wait()
	d.log.Info().Msg("scheduler stopped")
}

// TriggerNow requests an immediate out-of-band cycle, subject to the same
// mutual-exclusion invariant as scheduled firings. The second return value
// is false when the trigger was skipped because a cycle was already running.
func (d *Driver) TriggerNow(ctx context.Context) (*domain.RefreshSummary, bool, error) {
	return d.runCycle(ctx, "manual")
}

// Status reports the current state, skip count, and last cycle summary.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := StateStopped
	if d.running {
		state = StateRunning
	}
	return Status{
		State:       state,
		Interval:    d.interval,
		Skips:       d.skips.Load(),
		LastSummary: d.lastSummary,
	}
}

// runCycle executes one refresh cycle if no other cycle holds the
// single-flight token. A skipped firing is counted and logged for
// operational visibility.
func (d *Driver) runCycle(ctx context.Context, trigger string) (*domain.RefreshSummary, bool, error) {
	select {
	case <-d.inFlight:
	default:
		d.skips.Add(1)
		metrics.SchedulerSkipsTotal.Inc()
		d.log.Warn().Str("trigger", trigger).Msg("refresh cycle already in flight, skipping trigger")
		return nil, false, nil
	}

	d.cycles.Add(1)
	defer func() {
		d.inFlight <- struct{}{}
		d.cycles.Done()
	}()

	summary, err := d.refresher.RefreshAll(ctx)
	if err != nil {
		// Cycle-fatal: the store could not even be listed.
		d.log.Error().Err(err).Str("trigger", trigger).Msg("refresh cycle failed to begin")
		return nil, true, err
	}

	metrics.RefreshCyclesTotal.WithLabelValues(trigger).Inc()
	metrics.RefreshCycleDuration.Observe(summary.Duration.Seconds())

	d.mu.Lock()
	d.lastSummary = summary
	d.mu.Unlock()

	return summary, true, nil
}
