package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/domain"
	"ride/internal/service"
)

// PaymentHandler handles HTTP requests for cash payment confirmation.
type PaymentHandler struct {
	paymentFinalizer *service.PaymentFinalizer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentFinalizer *service.PaymentFinalizer) *PaymentHandler {
	return &PaymentHandler{paymentFinalizer: paymentFinalizer}
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID          string  `json:"id"`
	TripID      string  `json:"tripId"`
	PassengerID string  `json:"passengerId"`
	DriverID    string  `json:"driverId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Method      string  `json:"method"`
	Status      string  `json:"status"`
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          payment.ID,
		TripID:      payment.TripID,
		PassengerID: payment.PassengerID,
		DriverID:    payment.DriverID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Method:      payment.Method,
		Status:      string(payment.Status),
	}
}

// ConfirmCashPayment handles POST /v1/trips/:id/confirm-payment
func (h *PaymentHandler) ConfirmCashPayment(c *gin.Context) {
	driverID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	payment, err := h.paymentFinalizer.ConfirmCashPayment(c.Request.Context(), c.Param("id"), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/trips/:id/payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentFinalizer.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if payment == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no payment for this trip"})
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
