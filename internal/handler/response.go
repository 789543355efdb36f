package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ride/internal/repository"
	"ride/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error        string `json:"error"`
	CurrentState string `json:"current_state,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(mapKindToHTTPStatus(svcErr.Kind), ErrorResponse{Error: svcErr.Message, CurrentState: svcErr.CurrentState})
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// callerIDHeader stands in for the distilled spec's authenticated-token
// extraction. The OTP/phone auth provider itself is out of scope; every
// entry point trusts this header as the caller's resolved identity.
const callerIDHeader = "X-User-Id"

// callerID extracts the caller's identity, failing unauthenticated if absent.
func callerID(c *gin.Context) (string, error) {
	id := c.GetHeader(callerIDHeader)
	if id == "" {
		return "", service.ErrUnauthenticated
	}
	return id, nil
}

// mapKindToHTTPStatus maps the service error taxonomy to HTTP status codes.
func mapKindToHTTPStatus(kind service.ErrorKind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindServiceDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
