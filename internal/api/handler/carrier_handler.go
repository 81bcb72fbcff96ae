package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glcc/command-center/internal/core/carrier"
)

// CarrierHandler exposes carrier detection and registry discovery.
type CarrierHandler struct {
	detector *carrier.Detector
}

func NewCarrierHandler(detector *carrier.Detector) *CarrierHandler {
	return &CarrierHandler{detector: detector}
}

type detectCarrierRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

type detectCarrierResponse struct {
	Candidates []carrier.DetectionResult `json:"candidates"`
	Count      int                       `json:"count"`
}

type listCarriersResponse struct {
	Carriers []carrier.RuleSummary `json:"carriers"`
	Count    int                   `json:"count"`
}

// Detect handles POST /v1/carriers/detect.
//
// @Summary      Detect carrier candidates from a tracking number
// @Tags         carriers
// @Accept       json
// @Produce      json
// @Param        body  body      detectCarrierRequest  true  "Tracking number to classify"
// @Success      200   {object}  detectCarrierResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/carriers/detect [post]
func (h *CarrierHandler) Detect(c echo.Context) error {
	var req detectCarrierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	candidates := h.detector.Detect(req.TrackingNumber)
	if candidates == nil {
		candidates = []carrier.DetectionResult{}
	}
	return c.JSON(http.StatusOK, detectCarrierResponse{
		Candidates: candidates,
		Count:      len(candidates),
	})
}

// List handles GET /v1/carriers.
//
// @Summary      List supported carriers with their patterns
// @Tags         carriers
// @Produce      json
// @Success      200  {object}  listCarriersResponse
// @Router       /v1/carriers [get]
func (h *CarrierHandler) List(c echo.Context) error {
	carriers := h.detector.List()
	return c.JSON(http.StatusOK, listCarriersResponse{
		Carriers: carriers,
		Count:    len(carriers),
	})
}
