package domain

import "time"

// TrackingEvent is one entry in a shipment's movement history.
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// TrackingResult is the normalized reply of a single backend lookup. Produced
// fresh on every fetch and never mutated afterwards.
type TrackingResult struct {
	Carrier           string          `json:"carrier"`
	TrackingNumber    string          `json:"tracking_number"`
	StatusCode        string          `json:"status_code"`
	StatusDescription string          `json:"status_description,omitempty"`
	Events            []TrackingEvent `json:"events,omitempty"`
	FetchedAt         time.Time       `json:"fetched_at"`
}

// Status converts the result into a PackageStatus stamped with the fetch time.
func (r *TrackingResult) Status() PackageStatus {
	return PackageStatus{
		Code:        r.StatusCode,
		Description: r.StatusDescription,
		UpdatedAt:   r.FetchedAt,
	}
}

// ChangeEvent signals that a package's stored status differs from its newly
// fetched status. Emitted only for packages with notifications enabled.
type ChangeEvent struct {
	PackageID      string        `json:"package_id"`
	TrackingNumber string        `json:"tracking_number"`
	Carrier        string        `json:"carrier"`
	Alias          string        `json:"alias,omitempty"`
	Previous       PackageStatus `json:"previous"`
	New            PackageStatus `json:"new"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// TrackingFailure describes a failed lookup destined for an error notice.
type TrackingFailure struct {
	PackageID      string    `json:"package_id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Alias          string    `json:"alias,omitempty"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RefreshOutcome is the per-package record of one lookup attempt within a
// refresh cycle.
type RefreshOutcome struct {
	PackageID      string          `json:"package_id"`
	TrackingNumber string          `json:"tracking_number"`
	Success        bool            `json:"success"`
	Changed        bool            `json:"changed"`
	Result         *TrackingResult `json:"result,omitempty"`
	Err            error           `json:"-"`
}

// RefreshError is the serializable form of a failed outcome inside a summary.
type RefreshError struct {
	TrackingNumber string `json:"tracking_number"`
	Reason         string `json:"reason"`
}

// RefreshSummary aggregates one complete refresh cycle.
type RefreshSummary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Changed   int            `json:"changed"`
	Errors    []RefreshError `json:"errors,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}
