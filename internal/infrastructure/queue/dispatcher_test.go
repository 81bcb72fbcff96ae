package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/glcc/command-center/internal/core/domain"
)

type capturingNotifier struct {
	mu        sync.Mutex
	attempts  int
	changes   []domain.ChangeEvent
	delivered []domain.ChangeEvent
	failures  []domain.TrackingFailure
	err       error
	delay     time.Duration
}

func (n *capturingNotifier) NotifyStatusChange(ctx context.Context, ev domain.ChangeEvent) error {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attempts++
	if n.err != nil {
		return n.err
	}
	n.changes = append(n.changes, ev)
	return nil
}

func (n *capturingNotifier) NotifyDelivered(ctx context.Context, ev domain.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.delivered = append(n.delivered, ev)
	return nil
}

func (n *capturingNotifier) NotifyTrackingFailure(ctx context.Context, f domain.TrackingFailure) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.failures = append(n.failures, f)
	return nil
}

func (n *capturingNotifier) counts() (changes, delivered, failures int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes), len(n.delivered), len(n.failures)
}

type memoryDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMemoryDedup() *memoryDedup {
	return &memoryDedup{seen: make(map[string]bool)}
}

func (d *memoryDedup) IsDuplicate(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.seen[key], nil
}

func (d *memoryDedup) Mark(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.seen[key] = true
	return nil
}

func changeEvent(tn, prev, next string) domain.ChangeEvent {
	return domain.ChangeEvent{
		PackageID:      "p-" + tn,
		TrackingNumber: tn,
		Carrier:        "kr.cj",
		Previous:       domain.PackageStatus{Code: prev},
		New:            domain.PackageStatus{Code: next, UpdatedAt: time.Now().UTC()},
		OccurredAt:     time.Now().UTC(),
	}
}

// waitFor polls cond until it reports true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcher_DeliversStatusChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{}
	d := NewDispatcher(2, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(changeEvent("1234567890", "at_pickup", "in_transit"))
	waitFor(t, func() bool { c, _, _ := notifier.counts(); return c == 1 })

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.changes[0].New.Code != "in_transit" {
		t.Fatalf("wrong event delivered: %+v", notifier.changes[0])
	}
}

func TestDispatcher_RoutesDeliveredSeparately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{}
	d := NewDispatcher(2, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(changeEvent("1234567890", "out_for_delivery", "delivered"))
	waitFor(t, func() bool { _, del, _ := notifier.counts(); return del == 1 })

	if c, _, _ := notifier.counts(); c != 0 {
		t.Fatal("delivered transition must not also go through the plain change path")
	}
}

func TestDispatcher_KoreanDeliveredStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{}
	d := NewDispatcher(2, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(changeEvent("1234567890", "배달출발", "배달완료"))
	waitFor(t, func() bool { _, del, _ := notifier.counts(); return del == 1 })
}

func TestDispatcher_DeliversFailureNotice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{}
	d := NewDispatcher(2, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	d.EnqueueFailure(domain.TrackingFailure{
		TrackingNumber: "1234567890",
		Carrier:        "kr.cj",
		Reason:         "backend_unavailable",
		OccurredAt:     time.Now().UTC(),
	})
	waitFor(t, func() bool { _, _, f := notifier.counts(); return f == 1 })
}

func TestDispatcher_DeduplicatesSameTransition(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{}
	d := NewDispatcher(1, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	ev := changeEvent("1234567890", "at_pickup", "in_transit")
	d.Enqueue(ev)
	d.Enqueue(ev)
	// A different transition on the same package still goes through.
	d.Enqueue(changeEvent("1234567890", "in_transit", "delivered"))

	waitFor(t, func() bool { _, del, _ := notifier.counts(); return del == 1 })
	if c, _, _ := notifier.counts(); c != 1 {
		t.Fatalf("duplicate transition delivered %d times, want 1", c)
	}
}

func TestDispatcher_DedupOutageFailsOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dedup := newMemoryDedup()
	dedup.err = context.DeadlineExceeded
	notifier := &capturingNotifier{}
	d := NewDispatcher(1, notifier, dedup, zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(changeEvent("1234567890", "at_pickup", "in_transit"))
	waitFor(t, func() bool { c, _, _ := notifier.counts(); return c == 1 })
}

func TestDispatcher_NotifierFailureIsContained(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{err: domain.ErrDeliveryUnavailable}
	d := NewDispatcher(1, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	d.Enqueue(changeEvent("1111111111", "a", "b"))
	waitFor(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.attempts == 1
	})

	// The worker must keep consuming after a failed delivery.
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()
	d.Enqueue(changeEvent("2222222222", "a", "b"))
	waitFor(t, func() bool { c, _, _ := notifier.counts(); return c == 1 })
}

func TestDispatcher_PerPackageOrdering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{}
	d := NewDispatcher(4, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	transitions := []struct{ prev, next string }{
		{"registered", "at_pickup"},
		{"at_pickup", "in_transit"},
		{"in_transit", "out_for_delivery"},
	}
	for _, tr := range transitions {
		d.Enqueue(changeEvent("9999999999", tr.prev, tr.next))
	}
	waitFor(t, func() bool { c, _, _ := notifier.counts(); return c == len(transitions) })

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	for i, tr := range transitions {
		if notifier.changes[i].New.Code != tr.next {
			t.Fatalf("out of order at %d: got %s, want %s", i, notifier.changes[i].New.Code, tr.next)
		}
	}
}

func TestDispatcher_StopDrainsBufferedNotices(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &capturingNotifier{delay: 10 * time.Millisecond}
	d := NewDispatcher(1, notifier, newMemoryDedup(), zerolog.Nop())
	d.Start(ctx)

	const total = 5
	for i := 0; i < total; i++ {
		d.Enqueue(changeEvent("3333333333", "step"+string(rune('0'+i)), "step"+string(rune('1'+i))))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer drainCancel()
	d.Stop(drainCtx)

	if c, _, _ := notifier.counts(); c != total {
		t.Fatalf("shutdown dropped buffered notices: delivered %d, want %d", c, total)
	}
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewDispatcher(4, &capturingNotifier{}, newMemoryDedup(), zerolog.Nop())
	first := d.shardIndex("EN387436585JP")
	for i := 0; i < 100; i++ {
		if d.shardIndex("EN387436585JP") != first {
			t.Fatal("shard index must be stable for a given tracking number")
		}
	}
	if first < 0 || first >= 4 {
		t.Fatalf("shard index out of range: %d", first)
	}
}
