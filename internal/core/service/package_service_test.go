package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/glcc/command-center/internal/core/carrier"
	"github.com/glcc/command-center/internal/core/domain"
	"github.com/glcc/command-center/internal/core/ports"
)

func newTestPackageService(repo *stubRepo, backends *stubBackends) *PackageService {
	return NewPackageService(repo, carrier.NewDetector(), backends, zerolog.Nop())
}

func healthyBackends() *stubBackends {
	return &stubBackends{fetchFn: func(carrier, tn string) (*domain.TrackingResult, error) {
		return resultFor(carrier, tn, "in_transit"), nil
	}}
}

func TestRegister_AutoDetectsCarrier(t *testing.T) {
	repo := newStubRepo()
	svc := newTestPackageService(repo, healthyBackends())

	pkg, err := svc.Register(context.Background(), ports.RegisterPackageInput{
		TrackingNumber: "EN387436585JP",
		Alias:          "camera lens",
		NotifyEnabled:  true,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pkg.Carrier != "global.jppost" {
		t.Fatalf("expected global.jppost, got %s", pkg.Carrier)
	}
	if !pkg.Active {
		t.Fatal("new packages start active")
	}
	if pkg.LastStatus == nil || pkg.LastStatus.Code != "in_transit" {
		t.Fatal("initial lookup should populate the status")
	}
}

func TestRegister_ExplicitCarrierWins(t *testing.T) {
	repo := newStubRepo()
	svc := newTestPackageService(repo, healthyBackends())

	// EN...JP would auto-detect as Japan Post; explicit choice overrides.
	pkg, err := svc.Register(context.Background(), ports.RegisterPackageInput{
		TrackingNumber: "EN387436585JP",
		Carrier:        "kr.epost",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pkg.Carrier != "kr.epost" {
		t.Fatalf("explicit carrier must win, got %s", pkg.Carrier)
	}
}

func TestRegister_DetectionFails(t *testing.T) {
	repo := newStubRepo()
	svc := newTestPackageService(repo, healthyBackends())

	_, err := svc.Register(context.Background(), ports.RegisterPackageInput{
		TrackingNumber: "???",
	})
	if !errors.Is(err, domain.ErrCarrierNotDetected) {
		t.Fatalf("expected ErrCarrierNotDetected, got %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	repo := newStubRepo(testPackage("p1", "EN387436585JP", "global.jppost"))
	svc := newTestPackageService(repo, healthyBackends())

	_, err := svc.Register(context.Background(), ports.RegisterPackageInput{
		TrackingNumber: "EN387436585JP",
	})
	if !errors.Is(err, domain.ErrDuplicatePackage) {
		t.Fatalf("expected ErrDuplicatePackage, got %v", err)
	}
}

func TestRegister_InitialLookupFailureIsSwallowed(t *testing.T) {
	repo := newStubRepo()
	backends := &stubBackends{fetchFn: func(carrier, tn string) (*domain.TrackingResult, error) {
		return nil, domain.ErrBackendUnavailable
	}}
	svc := newTestPackageService(repo, backends)

	pkg, err := svc.Register(context.Background(), ports.RegisterPackageInput{
		TrackingNumber: "EN387436585JP",
	})
	if err != nil {
		t.Fatalf("registration must survive a failed initial lookup: %v", err)
	}
	if pkg.LastStatus != nil {
		t.Fatal("status must stay empty when the initial lookup fails")
	}
}

type filterCaptureRepo struct {
	*stubRepo
	lastFilter ports.ListPackagesFilter
}

func (r *filterCaptureRepo) List(ctx context.Context, filter ports.ListPackagesFilter) ([]*domain.Package, error) {
	r.lastFilter = filter
	return nil, nil
}

func TestList_ClampsFilter(t *testing.T) {
	repo := &filterCaptureRepo{stubRepo: newStubRepo()}
	svc := NewPackageService(repo, carrier.NewDetector(), healthyBackends(), zerolog.Nop())

	for _, tc := range []struct {
		limit     int
		skip      int
		wantLimit int
		wantSkip  int
	}{
		{0, 0, 100, 0},
		{-5, -3, 100, 0},
		{500, 10, 100, 10},
		{25, 0, 25, 0},
	} {
		if _, err := svc.List(context.Background(), ports.ListPackagesFilter{Limit: tc.limit, Skip: tc.skip}); err != nil {
			t.Fatalf("List: %v", err)
		}
		if repo.lastFilter.Limit != tc.wantLimit || repo.lastFilter.Skip != tc.wantSkip {
			t.Fatalf("List(limit=%d, skip=%d) passed %+v to the repository",
				tc.limit, tc.skip, repo.lastFilter)
		}
	}
}

func TestUpdate(t *testing.T) {
	pkg := testPackage("p1", "1111111111", "kr.cj")
	repo := newStubRepo(pkg)
	svc := newTestPackageService(repo, healthyBackends())

	alias := "birthday gift"
	notify := false
	updated, err := svc.Update(context.Background(), "p1", ports.UpdatePackageInput{
		Alias:         &alias,
		NotifyEnabled: &notify,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Alias != "birthday gift" || updated.NotifyEnabled {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.Active {
		t.Fatal("untouched fields must keep their value")
	}
}

func TestDelete(t *testing.T) {
	repo := newStubRepo(testPackage("p1", "1111111111", "kr.cj"))
	svc := newTestPackageService(repo, healthyBackends())

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "p1"); !errors.Is(err, domain.ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound on second delete, got %v", err)
	}
}
