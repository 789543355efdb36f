package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/domain"
	"ride/internal/service"
)

// TripHandler handles HTTP requests for the trip lifecycle: requesting a
// trip, the driver-facing state machine transitions, and cancellations.
type TripHandler struct {
	matchingService *service.MatchingService
	tripService     *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(matchingService *service.MatchingService, tripService *service.TripService) *TripHandler {
	return &TripHandler{matchingService: matchingService, tripService: tripService}
}

// RequestTripRequest is the HTTP request body for requestTrip.
type RequestTripRequest struct {
	PickupLat            float64 `json:"pickupLat"`
	PickupLng            float64 `json:"pickupLng"`
	DropoffLat           float64 `json:"dropoffLat"`
	DropoffLng           float64 `json:"dropoffLng"`
	EstimatedDistanceKm  float64 `json:"estimatedDistanceKm"`
	EstimatedDurationMin float64 `json:"estimatedDurationMin"`
	ClientPriceIls       float64 `json:"clientPriceIls,omitempty"`
}

// RequestTripResponse is the HTTP response for requestTrip.
type RequestTripResponse struct {
	RequestID string `json:"requestId"`
	TripID    string `json:"tripId,omitempty"`
	DriverID  string `json:"driverId,omitempty"`
	Status    string `json:"status"`
}

// TripRequestResponse is the HTTP response for getTripRequest: a passenger
// who got back status=searching polls this to see whether the request later
// matched, expired, or is still open.
type TripRequestResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	TripID    string  `json:"tripId,omitempty"`
	DriverID  string  `json:"driverId,omitempty"`
	PriceIls  float64 `json:"estimatedPriceIls"`
}

// CancelTripRequest is the HTTP request body for the two cancellation RPCs.
type CancelTripRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TripResponse is the HTTP response for trip state.
type TripResponse struct {
	ID                   string  `json:"id"`
	RequestID            string  `json:"requestId"`
	PassengerID          string  `json:"passengerId"`
	DriverID             string  `json:"driverId"`
	Status               string  `json:"status"`
	PickupLat            float64 `json:"pickupLat"`
	PickupLng            float64 `json:"pickupLng"`
	DropoffLat           float64 `json:"dropoffLat"`
	DropoffLng           float64 `json:"dropoffLng"`
	EstimatedDistanceKm  float64 `json:"estimatedDistanceKm"`
	EstimatedDurationMin float64 `json:"estimatedDurationMin"`
	FareAmount           float64 `json:"fareAmount"`
	PaymentStatus        string  `json:"paymentStatus"`
	CancellationReason   string  `json:"cancellationReason,omitempty"`
	CancelledBy          string  `json:"cancelledBy,omitempty"`
}

// CompleteTripResponse is the HTTP response for completeTrip.
type CompleteTripResponse struct {
	Trip    TripResponse  `json:"trip"`
	Receipt *ReceiptInfo  `json:"receipt,omitempty"`
}

// ReceiptInfo is the fare-breakdown read-model returned alongside completeTrip.
type ReceiptInfo struct {
	TripID      string  `json:"tripId"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
	FareAmount  float64 `json:"fareAmount"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:                   trip.ID,
		RequestID:            trip.RequestID,
		PassengerID:          trip.PassengerID,
		DriverID:             trip.DriverID,
		Status:               string(trip.Status),
		PickupLat:            trip.PickupLat,
		PickupLng:            trip.PickupLng,
		DropoffLat:           trip.DropoffLat,
		DropoffLng:           trip.DropoffLng,
		EstimatedDistanceKm:  trip.EstimatedDistanceKm,
		EstimatedDurationMin: trip.EstimatedDurationMin,
		FareAmount:           trip.FareAmount,
		PaymentStatus:        string(trip.PaymentStatus),
		CancellationReason:   trip.CancellationReason,
		CancelledBy:          trip.CancelledBy,
	}
}

// RequestTrip handles POST /v1/trips
func (h *TripHandler) RequestTrip(c *gin.Context) {
	passengerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req RequestTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.matchingService.RequestTrip(c.Request.Context(), service.RequestTripParams{
		PassengerID:          passengerID,
		PickupLat:            req.PickupLat,
		PickupLng:            req.PickupLng,
		DropoffLat:           req.DropoffLat,
		DropoffLng:           req.DropoffLng,
		EstimatedDistanceKm:  req.EstimatedDistanceKm,
		EstimatedDurationMin: req.EstimatedDurationMin,
		ClientPriceIls:       req.ClientPriceIls,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RequestTripResponse{
		RequestID: result.RequestID,
		TripID:    result.TripID,
		DriverID:  result.DriverID,
		Status:    result.Status,
	})
}

// GetTripRequest handles GET /v1/trip-requests/:id
func (h *TripHandler) GetTripRequest(c *gin.Context) {
	req, err := h.matchingService.GetTripRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TripRequestResponse{
		ID:       req.ID,
		Status:   string(req.Status),
		PriceIls: req.EstimatedPriceIls,
	}
	if req.MatchedTripID != nil {
		resp.TripID = *req.MatchedTripID
	}
	if req.MatchedDriverID != nil {
		resp.DriverID = *req.MatchedDriverID
	}
	respondJSON(c, http.StatusOK, resp)
}

// AcceptOffer handles POST /v1/trips/:id/accept
func (h *TripHandler) AcceptOffer(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	trip, err := h.tripService.AcceptOffer(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// RejectOffer handles POST /v1/trips/:id/reject
func (h *TripHandler) RejectOffer(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	trip, err := h.tripService.RejectOffer(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// DriverArrived handles POST /v1/trips/:id/arrive
func (h *TripHandler) DriverArrived(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	trip, err := h.tripService.DriverArrived(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	trip, err := h.tripService.StartTrip(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.tripService.CompleteTrip(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := CompleteTripResponse{Trip: toTripResponse(result.Trip)}
	if result.Receipt != nil {
		response.Receipt = &ReceiptInfo{
			TripID:      result.Receipt.TripID,
			DistanceKm:  result.Receipt.DistanceKm,
			DurationMin: result.Receipt.DurationMin,
			FareAmount:  result.Receipt.FareAmount,
		}
	}
	respondJSON(c, http.StatusOK, response)
}

// CancelByPassenger handles POST /v1/trips/:id/cancel-by-passenger
func (h *TripHandler) CancelByPassenger(c *gin.Context) {
	passengerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req CancelTripRequest
	_ = c.ShouldBindJSON(&req)

	trip, err := h.tripService.CancelByPassenger(c.Request.Context(), c.Param("id"), passengerID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelByDriver handles POST /v1/trips/:id/cancel-by-driver
func (h *TripHandler) CancelByDriver(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req CancelTripRequest
	_ = c.ShouldBindJSON(&req)

	trip, err := h.tripService.CancelByDriver(c.Request.Context(), c.Param("id"), driverID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}
	c.JSON(http.StatusOK, response)
}
