package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glcc/command-center/internal/infrastructure/scheduler"
)

// SchedulerHandler exposes scheduler lifecycle control and the bulk refresh
// endpoint. Both the scheduled trigger and the manual one here share the
// driver's single-flight guard.
type SchedulerHandler struct {
	driver *scheduler.Driver
}

func NewSchedulerHandler(driver *scheduler.Driver) *SchedulerHandler {
	return &SchedulerHandler{driver: driver}
}

type skippedResponse struct {
	Message string `json:"message"`
}

// Status handles GET /v1/scheduler.
//
// @Summary      Scheduler state and last cycle summary
// @Tags         scheduler
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  scheduler.Status
// @Router       /v1/scheduler [get]
func (h *SchedulerHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.driver.Status())
}

// Start handles POST /v1/scheduler/start. Starting a running scheduler is a
// no-op.
//
// @Summary      Start the refresh scheduler
// @Tags         scheduler
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  scheduler.Status
// @Router       /v1/scheduler/start [post]
func (h *SchedulerHandler) Start(c echo.Context) error {
	h.driver.Start()
	return c.JSON(http.StatusOK, h.driver.Status())
}

// Stop handles POST /v1/scheduler/stop. Waits for any in-flight cycle.
//
// @Summary      Stop the refresh scheduler
// @Tags         scheduler
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  scheduler.Status
// @Router       /v1/scheduler/stop [post]
func (h *SchedulerHandler) Stop(c echo.Context) error {
	h.driver.Stop()
	return c.JSON(http.StatusOK, h.driver.Status())
}

// TriggerNow handles POST /v1/packages/refresh: one immediate refresh cycle
// over all active packages. Returns 409 when a cycle is already in flight.
//
// @Summary      Refresh all active packages now
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.RefreshSummary
// @Failure      409  {object}  skippedResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/packages/refresh [post]
func (h *SchedulerHandler) TriggerNow(c echo.Context) error {
	summary, ran, err := h.driver.TriggerNow(c.Request().Context())
	if !ran {
		return c.JSON(http.StatusConflict, skippedResponse{
			Message: "a refresh cycle is already in progress",
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
