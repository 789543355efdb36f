package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/domain"
	"ride/internal/service"
)

// RatingHandler handles HTTP requests for submitting and reading post-trip
// ratings.
type RatingHandler struct {
	ratingService *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRatingRequest is the HTTP request body for submitRating.
type SubmitRatingRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// RatingResponse is the HTTP response for a rating.
type RatingResponse struct {
	ID          string `json:"id"`
	TripID      string `json:"tripId"`
	PassengerID string `json:"passengerId"`
	DriverID    string `json:"driverId"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
}

func toRatingResponse(rating *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:          rating.ID,
		TripID:      rating.TripID,
		PassengerID: rating.PassengerID,
		DriverID:    rating.DriverID,
		Score:       rating.Score,
		Comment:     rating.Comment,
	}
}

// SubmitRating handles POST /v1/trips/:id/rating
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	passengerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	rating, err := h.ratingService.Submit(c.Request.Context(), c.Param("id"), passengerID, req.Score, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRatingResponse(rating))
}

// GetRating handles GET /v1/trips/:id/rating
func (h *RatingHandler) GetRating(c *gin.Context) {
	rating, err := h.ratingService.GetRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if rating == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no rating for this trip"})
		return
	}
	respondJSON(c, http.StatusOK, toRatingResponse(rating))
}
