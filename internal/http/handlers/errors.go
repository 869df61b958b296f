// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes name the business rule that refused the request so clients
// can branch on them. mapError is the single translation point from service
// and ledger errors to (status, code, message).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rewards-shop/internal/ledger"
	"github.com/tbourn/go-rewards-shop/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInsufficientFunds    = "insufficient_funds"
	ErrCodeItemUnavailable      = "item_unavailable"
	ErrCodeItemNotFound         = "item_not_found"
	ErrCodeMissingRequiredField = "missing_required_field"
	ErrCodeInvalidQuantity      = "invalid_quantity"
	ErrCodeRequestInFlight      = "request_in_flight"
	ErrCodeStorageUnavailable   = "storage_unavailable"
)

// failErr writes the envelope for err. Unknown errors become 500s.
func failErr(c *gin.Context, err error) {
	status, code, msg := mapError(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	fail(c, status, code, msg)
}

func mapError(err error) (status int, code, msg string) {
	var missing *services.MissingFieldError

	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest, ErrCodeInsufficientFunds, "not enough points"
	case errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound, ErrCodeItemNotFound, "item not found"
	case errors.Is(err, services.ErrItemUnavailable):
		return http.StatusBadRequest, ErrCodeItemUnavailable, "item is not available"
	case errors.As(err, &missing):
		return http.StatusBadRequest, ErrCodeMissingRequiredField, missing.Field + " is required for this item"
	case errors.Is(err, services.ErrInvalidQuantity):
		return http.StatusBadRequest, ErrCodeInvalidQuantity, "invalid quantity"
	case errors.Is(err, services.ErrRequestInFlight):
		return http.StatusConflict, ErrCodeRequestInFlight, "a request with this idempotency key is still being processed"
	case errors.Is(err, services.ErrRedemptionNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "redemption not found"
	case errors.Is(err, services.ErrInvalidDecision), errors.Is(err, services.ErrInvalidStatus):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "administrator required"
	case ledger.IsClientError(err):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()
	case ledger.IsStorage(err):
		return http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "storage temporarily unavailable, retry later"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
}
