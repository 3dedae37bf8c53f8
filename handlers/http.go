// Package handlers contains http handlers of the registry protocol served by myregistry.
package handlers

import (
	"fmt"
	"net/http"

	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
)

// ServerInterface is the set of registry protocol operations.
type ServerInterface interface {
	// Publish (POST /v1/publish)
	Publish(ectx echo.Context) error
	// Renew (POST /v1/renew/{entry_id})
	Renew(ectx echo.Context, entryID string) error
	// Unpublish (POST /v1/unpublish/{entry_id})
	Unpublish(ectx echo.Context, entryID string) error
	// ListEntries (GET /v1/entries)
	ListEntries(ectx echo.Context) error
}

// RegisterHandlers adds the registry routes of si to e.
func RegisterHandlers(e *echo.Echo, si ServerInterface) {
	e.POST("/v1/publish", si.Publish)
	e.POST("/v1/renew/:entry_id", func(c echo.Context) error { return si.Renew(c, c.Param("entry_id")) })
	e.POST("/v1/unpublish/:entry_id", func(c echo.Context) error { return si.Unpublish(c, c.Param("entry_id")) })
	e.GET("/v1/entries", si.ListEntries)
}

// HTTPServer implements ServerInterface over an interfaces.ServiceRegistry.
type HTTPServer struct {
	registry interfaces.ServiceRegistry
	logger   log.Logger
}

var _ ServerInterface = (*HTTPServer)(nil)

// NewHTTPServer creates a new HTTPServer. Panics on nil registry or logger.
func NewHTTPServer(registry interfaces.ServiceRegistry, logger log.Logger) *HTTPServer {
	logger = log.WithPrefix(helpers.NilPanic(logger, "handlers.http.go: logger is required"), "component", "HTTPServer")
	return &HTTPServer{
		registry: helpers.NilPanic(registry, "handlers.http.go: registry is required"),
		logger:   logger,
	}
}

// Publish (POST /v1/publish) creates or refreshes an entry. Returns 200 {entry_id}, 400 on parse or
// validation error, 500 on storage error.
func (h *HTTPServer) Publish(ectx echo.Context) error {
	var req PublishRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}

	cmd, err := fromPublishRequest(req)
	if err != nil {
		return fmt.Errorf("publish failed to convert request, err: %w", err)
	}

	id, err := h.registry.Publish(ectx.Request().Context(), cmd.serviceType, cmd.qualifier, cmd.properties, cmd.lease)
	if err != nil {
		return fmt.Errorf("publish failed to write entry, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, PublishResponse{EntryID: id})
}

// Renew (POST /v1/renew/{entry_id}) extends a lease. Returns 404 when the entry is unknown or expired.
func (h *HTTPServer) Renew(ectx echo.Context, entryID string) error {
	if err := h.registry.Renew(ectx.Request().Context(), entryID); err != nil {
		return fmt.Errorf("renew failed for entry %s, err: %w", entryID, err)
	}
	return ectx.NoContent(http.StatusOK)
}

// Unpublish (POST /v1/unpublish/{entry_id}) removes an entry.
func (h *HTTPServer) Unpublish(ectx echo.Context, entryID string) error {
	if err := h.registry.Unpublish(ectx.Request().Context(), entryID); err != nil {
		return fmt.Errorf("unpublish failed for entry %s, err: %w", entryID, err)
	}
	return ectx.NoContent(http.StatusOK)
}

// ListEntries (GET /v1/entries?service_type=&qualifier=) returns live entries, possibly none.
func (h *HTTPServer) ListEntries(ectx echo.Context) error {
	serviceType := ectx.QueryParam("service_type")
	if serviceType == "" {
		return service.NewBadParameterError("service_type is required", nil)
	}
	entries, err := h.registry.List(ectx.Request().Context(), serviceType, ectx.QueryParam("qualifier"))
	if err != nil {
		return fmt.Errorf("listEntries failed to list entries, err: %w", err)
	}
	return ectx.JSON(http.StatusOK, toEntriesResponse(entries))
}
