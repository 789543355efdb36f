package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/authz"
	"ride/internal/domain"
	"ride/internal/service"
)

// ManagerHandler handles the manager-only controls: the trips kill switch,
// feature flags, force-cancelling a trip, and reading back the live config.
// Every entry point requires the caller to resolve to manager or admin.
type ManagerHandler struct {
	managerService *service.ManagerService
	tripService    *service.TripService
	authz          *authz.Resolver
}

// NewManagerHandler creates a new ManagerHandler.
func NewManagerHandler(managerService *service.ManagerService, tripService *service.TripService, resolver *authz.Resolver) *ManagerHandler {
	return &ManagerHandler{managerService: managerService, tripService: tripService, authz: resolver}
}

// requireManager extracts the caller and verifies it resolves to manager or
// admin, responding with the error itself on failure.
func (h *ManagerHandler) requireManager(c *gin.Context) (string, bool) {
	managerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	role, err := h.authz.RoleOf(c.Request.Context(), managerID)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	if !authz.IsManager(role) {
		respondError(c, service.Forbidden("manager role required", ""))
		return "", false
	}
	return managerID, true
}

// ToggleTripsRequest is the HTTP request body for managerToggleTrips.
type ToggleTripsRequest struct {
	Enabled bool `json:"enabled"`
}

// ToggleFeatureFlagRequest is the HTTP request body for managerToggleFeatureFlag.
type ToggleFeatureFlagRequest struct {
	Flag    string `json:"flag"`
	Enabled bool   `json:"enabled"`
}

// SystemConfigResponse is the HTTP response for the live config.
type SystemConfigResponse struct {
	TripsEnabled      bool `json:"tripsEnabled"`
	RoadblocksEnabled bool `json:"roadblocksEnabled"`
	PaymentsEnabled   bool `json:"paymentsEnabled"`
}

func toSystemConfigResponse(cfg *domain.SystemConfig) SystemConfigResponse {
	return SystemConfigResponse{
		TripsEnabled:      cfg.TripsEnabled,
		RoadblocksEnabled: cfg.RoadblocksEnabled,
		PaymentsEnabled:   cfg.PaymentsEnabled,
	}
}

// ToggleTrips handles POST /v1/manager/trips-enabled
func (h *ManagerHandler) ToggleTrips(c *gin.Context) {
	managerID, ok := h.requireManager(c)
	if !ok {
		return
	}

	var req ToggleTripsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cfg, err := h.managerService.ToggleTrips(c.Request.Context(), req.Enabled, managerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSystemConfigResponse(cfg))
}

// ToggleFeatureFlag handles POST /v1/manager/feature-flags
func (h *ManagerHandler) ToggleFeatureFlag(c *gin.Context) {
	managerID, ok := h.requireManager(c)
	if !ok {
		return
	}

	var req ToggleFeatureFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cfg, err := h.managerService.ToggleFeatureFlag(c.Request.Context(), req.Flag, req.Enabled, managerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSystemConfigResponse(cfg))
}

// GetSystemConfig handles GET /v1/manager/config
func (h *ManagerHandler) GetSystemConfig(c *gin.Context) {
	if _, ok := h.requireManager(c); !ok {
		return
	}

	cfg, err := h.managerService.GetSystemConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSystemConfigResponse(cfg))
}

// ForceCancelTrip handles POST /v1/manager/trips/:id/cancel
func (h *ManagerHandler) ForceCancelTrip(c *gin.Context) {
	managerID, ok := h.requireManager(c)
	if !ok {
		return
	}

	var req CancelTripRequest
	_ = c.ShouldBindJSON(&req)

	trip, err := h.tripService.ManagerForceCancel(c.Request.Context(), c.Param("id"), managerID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}
