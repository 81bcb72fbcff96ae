package handler

import (
	"time"

	"github.com/glcc/command-center/internal/core/domain"
)

type registerPackageRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,min=5"`
	// Carrier is optional; when omitted it is auto-detected from the
	// tracking number.
	Carrier       string `json:"carrier"`
	Alias         string `json:"alias"`
	NotifyEnabled *bool  `json:"notify_enabled"`
}

type updatePackageRequest struct {
	Alias         *string `json:"alias"`
	Active        *bool   `json:"active"`
	NotifyEnabled *bool   `json:"notify_enabled"`
}

type packageStatusResponse struct {
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type packageResponse struct {
	ID             string                 `json:"id"`
	TrackingNumber string                 `json:"tracking_number"`
	Carrier        string                 `json:"carrier"`
	Alias          string                 `json:"alias,omitempty"`
	LastStatus     *packageStatusResponse `json:"last_status,omitempty"`
	TrackingData   string                 `json:"tracking_data,omitempty"`
	Active         bool                   `json:"active"`
	NotifyEnabled  bool                   `json:"notify_enabled"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type refreshOutcomeResponse struct {
	PackageID      string                 `json:"package_id"`
	TrackingNumber string                 `json:"tracking_number"`
	Success        bool                   `json:"success"`
	Changed        bool                   `json:"changed"`
	Result         *domain.TrackingResult `json:"result,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

func toPackageResponse(p *domain.Package) packageResponse {
	resp := packageResponse{
		ID:             p.ID,
		TrackingNumber: p.TrackingNumber,
		Carrier:        p.Carrier,
		Alias:          p.Alias,
		TrackingData:   p.TrackingData,
		Active:         p.Active,
		NotifyEnabled:  p.NotifyEnabled,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.LastStatus != nil {
		resp.LastStatus = &packageStatusResponse{
			Code:        p.LastStatus.Code,
			Description: p.LastStatus.Description,
			UpdatedAt:   p.LastStatus.UpdatedAt,
		}
	}
	return resp
}

func toOutcomeResponse(out *domain.RefreshOutcome) refreshOutcomeResponse {
	resp := refreshOutcomeResponse{
		PackageID:      out.PackageID,
		TrackingNumber: out.TrackingNumber,
		Success:        out.Success,
		Changed:        out.Changed,
		Result:         out.Result,
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}
