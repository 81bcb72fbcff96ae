package domain

import "testing"

func TestPackageStatusDelivered(t *testing.T) {
	cases := []struct {
		status PackageStatus
		want   bool
	}{
		{PackageStatus{Code: "delivered"}, true},
		{PackageStatus{Code: "DELIVERED"}, true},
		{PackageStatus{Code: "out_for_delivery", Description: "Delivered to front door"}, true},
		{PackageStatus{Code: "배달완료"}, true},
		{PackageStatus{Code: "delivered_to_agent"}, true},
		{PackageStatus{Code: "in_transit"}, false},
		{PackageStatus{Code: "배달출발"}, false},
		{PackageStatus{}, false},
	}
	for _, tc := range cases {
		if got := tc.status.Delivered(); got != tc.want {
			t.Errorf("Delivered(%+v) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestPackageDisplayName(t *testing.T) {
	p := &Package{TrackingNumber: "EN387436585JP"}
	if p.DisplayName() != "EN387436585JP" {
		t.Fatalf("expected tracking number fallback, got %s", p.DisplayName())
	}
	p.Alias = "camera lens"
	if p.DisplayName() != "camera lens" {
		t.Fatalf("expected alias, got %s", p.DisplayName())
	}
}
