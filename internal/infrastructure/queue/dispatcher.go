package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/glcc/command-center/internal/api/metrics"
	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// DedupChecker suppresses duplicate deliveries of the same transition.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// notice is the internal union carried on worker channels: exactly one of
// change or failure is set.
type notice struct {
	change  *domain.ChangeEvent
	failure *domain.TrackingFailure
}

// Dispatcher fans change events out to a fixed set of workers using
// consistent hashing on the tracking number, so notifications for one package
// are always delivered in order even across refresh cycles. Delivery is
// best-effort and at-most-once: failures are logged and counted, never
// retried, and never propagated back to the refresh cycle.
type Dispatcher struct {
	workers  []chan notice
	notifier ports.Notifier
	dedup    DedupChecker
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, dedup DedupChecker, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan notice, numWorkers),
		notifier: notifier,
		dedup:    dedup,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan notice, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or when Stop closes their channels.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(i int, ch <-chan notice) {
			defer d.wg.Done()
			d.runWorker(ctx, i, ch)
		}(i, ch)
	}
}

// Stop closes the worker channels and waits for buffered notices from the
// final cycle to be delivered, up to the deadline on ctx. No Enqueue may be
// issued after Stop.
func (d *Dispatcher) Stop(ctx context.Context) {
	for _, ch := range d.workers {
		close(ch)
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn().Msg("notification drain cut short by shutdown deadline")
	}
}

// Enqueue queues a change event for delivery. Blocks only when the worker's
// buffer is full.
func (d *Dispatcher) Enqueue(ev domain.ChangeEvent) {
	metrics.ChangeEventsTotal.Inc()
	d.send(ev.TrackingNumber, notice{change: &ev})
}

// EnqueueFailure queues an error notice for delivery.
func (d *Dispatcher) EnqueueFailure(f domain.TrackingFailure) {
	d.send(f.TrackingNumber, notice{failure: &f})
}

func (d *Dispatcher) send(trackingNumber string, n notice) {
	idx := d.shardIndex(trackingNumber)
	d.workers[idx] <- n
	metrics.NotifyQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a tracking number deterministically to a worker index.
func (d *Dispatcher) shardIndex(trackingNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(trackingNumber))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan notice) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(ctx, n)
			metrics.NotifyQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}

// deliver pushes one notice to the external channel. Dedup check and mark
// happen before the send, keeping the at-most-once guarantee even when the
// channel fails mid-delivery.
func (d *Dispatcher) deliver(ctx context.Context, n notice) {
	kind, key := d.classify(n)

	isDup, err := d.dedup.IsDuplicate(ctx, key)
	if err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("dedup check failed, delivering anyway")
	} else if isDup {
		metrics.NotificationsTotal.WithLabelValues(kind, "deduplicated").Inc()
		d.log.Debug().Str("key", key).Msg("duplicate notification skipped")
		return
	}
	if markErr := d.dedup.Mark(ctx, key); markErr != nil {
		d.log.Warn().Err(markErr).Str("key", key).Msg("failed to set dedup key")
	}

	var sendErr error
	switch {
	case n.change != nil && n.change.New.Delivered():
		sendErr = d.notifier.NotifyDelivered(ctx, *n.change)
	case n.change != nil:
		sendErr = d.notifier.NotifyStatusChange(ctx, *n.change)
	case n.failure != nil:
		sendErr = d.notifier.NotifyTrackingFailure(ctx, *n.failure)
	}

	if sendErr != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		logEvent := d.log.Error()
		if errors.Is(sendErr, domain.ErrDeliveryUnavailable) {
			logEvent = d.log.Warn()
		}
		logEvent.Err(sendErr).Str("kind", kind).Str("key", key).Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(kind, "sent").Inc()
}

func (d *Dispatcher) classify(n notice) (kind, key string) {
	switch {
	case n.change != nil && n.change.New.Delivered():
		return "delivered", "change:" + n.change.TrackingNumber + ":" + n.change.Previous.Code + ">" + n.change.New.Code
	case n.change != nil:
		return "status_change", "change:" + n.change.TrackingNumber + ":" + n.change.Previous.Code + ">" + n.change.New.Code
	default:
		return "error", "failure:" + n.failure.TrackingNumber + ":" + n.failure.Reason
	}
}
