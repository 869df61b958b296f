package ledger

import (
	"context"
	"sync"
)

type reservationState int

const (
	reservationHeld reservationState = iota
	reservationCommitted
	reservationReleased
)

// Reservation is a debit that is refunded unless committed. The usual shape
// is:
//
//	res, err := l.Reserve(ctx, user, cost)
//	if err != nil {
//		return err
//	}
//	defer res.Release(ctx)
//	... create the records paid for ...
//	res.Commit()
//
// Release after Commit is a no-op, and Release refunds at most once.
type Reservation struct {
	ledger *Ledger
	userID string
	amount int64

	mu    sync.Mutex
	state reservationState
}

// UserID returns the debited user.
func (r *Reservation) UserID() string { return r.userID }

// Amount returns the number of points held.
func (r *Reservation) Amount() int64 { return r.amount }

// Commit makes the debit permanent. It has no effect once released.
func (r *Reservation) Commit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == reservationHeld {
		r.state = reservationCommitted
	}
}

// Committed reports whether Commit was called before any Release.
func (r *Reservation) Committed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == reservationCommitted
}

// Release refunds the held points unless the reservation was committed or
// already released. The refund ignores cancellation of ctx so that an
// aborted request still gives the points back. A failed refund is logged and
// returned; the reservation is then considered released.
func (r *Reservation) Release(ctx context.Context) error {
	r.mu.Lock()
	if r.state != reservationHeld {
		r.mu.Unlock()
		return nil
	}
	r.state = reservationReleased
	r.mu.Unlock()

	if r.amount == 0 {
		return nil
	}
	err := r.ledger.refund(context.WithoutCancel(ctx), r.userID, r.amount, "release")
	if err != nil {
		r.ledger.log.Error().Err(err).
			Str("user_id", r.userID).
			Int64("amount", r.amount).
			Msg("reservation release failed; points not returned")
	}
	return err
}
