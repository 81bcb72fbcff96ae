package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glcc/command-center/internal/api/metrics"
	"github.com/glcc/command-center/internal/core/ports"
)

// PackageHandler handles HTTP requests for package registration and
// management.
type PackageHandler struct {
	service ports.PackageService
	refresh ports.RefreshService
}

func NewPackageHandler(service ports.PackageService, refresh ports.RefreshService) *PackageHandler {
	return &PackageHandler{service: service, refresh: refresh}
}

// Register handles POST /v1/packages.
//
// @Summary      Register a package for tracking
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerPackageRequest  true  "Package to track"
// @Success      201   {object}  packageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/packages [post]
func (h *PackageHandler) Register(c echo.Context) error {
	var req registerPackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	notify := true
	if req.NotifyEnabled != nil {
		notify = *req.NotifyEnabled
	}

	pkg, err := h.service.Register(c.Request().Context(), ports.RegisterPackageInput{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Alias:          req.Alias,
		NotifyEnabled:  notify,
	})
	if err != nil {
		return err
	}

	metrics.PackagesRegisteredTotal.WithLabelValues(pkg.Carrier).Inc()
	return c.JSON(http.StatusCreated, toPackageResponse(pkg))
}

// List handles GET /v1/packages.
//
// @Summary      List tracked packages
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        active_only  query     bool  false  "Only active packages"  default(true)
// @Param        skip         query     int   false  "Records to skip"
// @Param        limit        query     int   false  "Max records (capped at 100)"
// @Success      200          {array}   packageResponse
// @Router       /v1/packages [get]
func (h *PackageHandler) List(c echo.Context) error {
	filter := ports.ListPackagesFilter{ActiveOnly: true}
	if c.QueryParam("active_only") == "false" {
		filter.ActiveOnly = false
	}
	if err := echo.QueryParamsBinder(c).
		Int("skip", &filter.Skip).
		Int("limit", &filter.Limit).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	packages, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	resp := make([]packageResponse, 0, len(packages))
	for _, p := range packages {
		resp = append(resp, toPackageResponse(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/packages/:id.
//
// @Summary      Get a package by id
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Package id"
// @Success      200  {object}  packageResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/packages/{id} [get]
func (h *PackageHandler) Get(c echo.Context) error {
	pkg, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPackageResponse(pkg))
}

// Update handles PUT /v1/packages/:id.
//
// @Summary      Update alias, active, or notification flags
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Package id"
// @Param        body  body      updatePackageRequest  true  "Fields to update"
// @Success      200   {object}  packageResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/packages/{id} [put]
func (h *PackageHandler) Update(c echo.Context) error {
	var req updatePackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pkg, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdatePackageInput{
		Alias:         req.Alias,
		Active:        req.Active,
		NotifyEnabled: req.NotifyEnabled,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPackageResponse(pkg))
}

// Delete handles DELETE /v1/packages/:id.
//
// @Summary      Stop tracking and delete a package
// @Tags         packages
// @Security     BearerAuth
// @Param        id  path  string  true  "Package id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/packages/{id} [delete]
func (h *PackageHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Track handles POST /v1/packages/:id/track, an on-demand lookup for one
// package.
//
// @Summary      Refresh a single package now
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Package id"
// @Success      200  {object}  refreshOutcomeResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/packages/{id}/track [post]
func (h *PackageHandler) Track(c echo.Context) error {
	outcome, err := h.refresh.RefreshOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOutcomeResponse(outcome))
}
