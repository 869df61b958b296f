// Package services defines the business logic of the rewards shop: the
// redemption workflow, the catalog read path and the trending tracker.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Ledger errors (insufficient funds, storage faults) are
// passed through unchanged and checked with the ledger package helpers.
package services

import (
	"errors"
	"fmt"
)

// Catalog errors.
var (
	// ErrItemNotFound indicates that the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemUnavailable is returned when an item exists but is disabled or
	// its limited-time window has closed.
	ErrItemUnavailable = errors.New("item unavailable")
)

// Redemption errors.
var (
	// ErrInvalidQuantity is returned when quantity is below 1 or above the
	// configured maximum.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrMissingRequiredField is returned when an item-type specific field is
	// absent. The concrete error is a *MissingFieldError.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrRequestInFlight is returned when a submission with the same
	// idempotency key is still being processed.
	ErrRequestInFlight = errors.New("request with this idempotency key is in flight")

	// ErrRedemptionNotFound indicates that the redemption does not exist.
	ErrRedemptionNotFound = errors.New("redemption not found")

	// ErrInvalidDecision is returned for decisions other than approve/reject.
	ErrInvalidDecision = errors.New("decision must be approve or reject")

	// ErrInvalidStatus is returned for an unknown status filter.
	ErrInvalidStatus = errors.New("unknown redemption status")

	// ErrForbidden is returned when the caller is not an administrator.
	ErrForbidden = errors.New("forbidden")
)

// MissingFieldError names the field that an item type requires.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingRequiredField }
