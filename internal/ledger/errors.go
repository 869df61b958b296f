package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use with errors.Is.
var (
	// ErrInsufficientFunds is returned when a reservation exceeds the balance.
	// It is a business rule outcome, not a fault: nothing was mutated.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for negative amounts and negative feed
	// snapshots.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidMultiplier is returned when a multiplier factor or duration
	// is not positive.
	ErrInvalidMultiplier = errors.New("invalid multiplier")

	// ErrEmptyUser is returned when an operation is called without a user id.
	ErrEmptyUser = errors.New("user id is required")
)

// InsufficientFundsError carries the details of a rejected reservation.
type InsufficientFundsError struct {
	UserID    string
	Available int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: user %s has %d, requested %d", e.UserID, e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// StorageError wraps a failure of the backing store. Callers decide whether
// to retry; the ledger never retries on its own.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "ledger: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsClientError reports whether err is a business rule violation caused by
// the caller's input rather than a fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidMultiplier) ||
		errors.Is(err, ErrEmptyUser)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
