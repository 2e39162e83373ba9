// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	db      HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, db HealthChecker) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		db:      db,
	}
}

// HandleRoot greets clients of the API
func (h *HealthHandlerImpl) HandleRoot(c echo.Context) error {
	return respondJSON(c, http.StatusOK, success(
		"info",
		"Sheet uploader API",
		"Welcome to the spreadsheet upload API",
		map[string]any{"version": h.version},
	))
}

// HandleHealth returns server health status including the database
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	database := "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Health(ctx); err != nil {
			return NewServiceUnavailableError("database unreachable", err).WithType("health")
		}
	} else {
		database = "unconfigured"
	}

	return respondJSON(c, http.StatusOK, success(
		"health",
		"Healthy",
		"Service is healthy",
		map[string]any{
			"version":  h.version,
			"database": database,
		},
	))
}
