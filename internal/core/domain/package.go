package domain

import (
	"strings"
	"time"
)

// PackageStatus is the last status observed for a tracked package. Code is the
// opaque status identifier used for change detection; Description is the
// carrier-provided free text.
type PackageStatus struct {
	Code        string    `json:"code" bson:"code"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Delivered reports whether the status represents a completed delivery.
// Matches both the English status codes used by global carriers and the
// Korean final-state text returned by the domestic tracker.
func (s PackageStatus) Delivered() bool {
	text := strings.ToLower(s.Code + " " + s.Description)
	return strings.Contains(text, "delivered") || strings.Contains(text, "배달완료")
}

// Package is one tracked shipment. Carrier is resolved at registration time
// (auto-detected or supplied) and never re-resolved afterwards.
type Package struct {
	ID             string         `json:"id" bson:"_id,omitempty"`
	TrackingNumber string         `json:"tracking_number" bson:"tracking_number"`
	Carrier        string         `json:"carrier" bson:"carrier"`
	Alias          string         `json:"alias,omitempty" bson:"alias,omitempty"`
	LastStatus     *PackageStatus `json:"last_status,omitempty" bson:"last_status,omitempty"`
	// TrackingData holds the raw JSON of the most recent successful lookup,
	// for the dashboard's detail view.
	TrackingData   string    `json:"tracking_data,omitempty" bson:"tracking_data,omitempty"`
	Active         bool      `json:"active" bson:"active"`
	NotifyEnabled  bool      `json:"notify_enabled" bson:"notify_enabled"`
	NotFoundStreak int       `json:"-" bson:"not_found_streak"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// DisplayName returns the alias when set, otherwise the tracking number.
func (p *Package) DisplayName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.TrackingNumber
}
