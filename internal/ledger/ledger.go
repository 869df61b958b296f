// Package ledger implements the points ledger: the shop's cached copy of
// each viewer's balance, the debit path used by redemptions, refunds, and
// time-boxed earning multipliers.
//
// The chat bot remains the authority for earning; Earn mirrors its
// snapshots. Every mutation for a given user runs under that user's mutex
// and is additionally a single conditional statement in the store, so a
// balance can never be driven below zero.
//
// Observability: each public method opens an OpenTelemetry span and updates
// the ledger_* Prometheus collectors.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// Store is the persistence contract of the ledger. GetAccount returns
// gorm.ErrRecordNotFound for unknown users; DebitAccount reports whether
// the conditional debit matched.
type Store interface {
	GetAccount(ctx context.Context, db *gorm.DB, userID string) (*domain.Account, error)
	UpsertAccountMirror(ctx context.Context, db *gorm.DB, userID string, balance, totalEarned int64, now time.Time) error
	DebitAccount(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) (bool, error)
	CreditAccount(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) error
	SetAccountMultiplier(ctx context.Context, db *gorm.DB, userID string, factor float64, expiresAt, now time.Time) error
}

// Config wires a Ledger. Store is required; Now defaults to time.Now in UTC
// and Logger to a disabled logger.
type Config struct {
	DB     *gorm.DB
	Store  Store
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Ledger serializes point operations per user. It is safe for concurrent
// use and meant to be constructed once per process.
type Ledger struct {
	db    *gorm.DB
	store Store
	now   func() time.Time
	log   zerolog.Logger
	locks *userLocks
}

// New validates cfg and returns a ready Ledger.
func New(cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, errors.New("ledger: store is required")
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	lg := zerolog.Nop()
	if cfg.Logger != nil {
		lg = cfg.Logger.With().Str("component", "ledger").Logger()
	}
	return &Ledger{
		db:    cfg.DB,
		store: cfg.Store,
		now:   now,
		log:   lg,
		locks: newUserLocks(),
	}, nil
}

// Balance is a read-only view of an account.
type Balance struct {
	UserID      string
	Balance     int64
	TotalEarned int64
	// Multiplier is the effective multiplier at read time (1.0 once expired).
	Multiplier          float64
	MultiplierExpiresAt time.Time
	MultiplierActive    bool
}

// EarnEvent is one authoritative snapshot from the chat bot.
type EarnEvent struct {
	UserID      string
	Balance     int64
	TotalEarned int64
}

func (l *Ledger) start(ctx context.Context, op, userID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("user.id", userID))
	return otel.Tracer("ledger").Start(ctx, op, trace.WithAttributes(attrs...))
}

func (l *Ledger) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if IsStorage(err) {
		storageFailures.WithLabelValues(op).Inc()
	}
	return err
}

// Balance returns the account of userID. Unknown users read as a zero
// balance with the default multiplier; only storage faults are errors.
func (l *Ledger) Balance(ctx context.Context, userID string) (Balance, error) {
	ctx, span := l.start(ctx, "Balance", userID)
	defer span.End()

	out := Balance{UserID: userID, Multiplier: domain.DefaultMultiplier}
	acc, err := l.store.GetAccount(ctx, l.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, nil
	}
	if err != nil {
		return out, l.fail(span, "balance", storageErr("balance", err))
	}

	now := l.now()
	out.Balance = acc.Balance
	out.TotalEarned = acc.TotalEarned
	out.Multiplier = acc.EffectiveMultiplier(now)
	out.MultiplierExpiresAt = acc.MultiplierExpiresAt
	out.MultiplierActive = acc.MultiplierActive(now)
	return out, nil
}

// Earn mirrors an external snapshot: balance is overwritten and total
// earned becomes max(stored, incoming). A zero TotalEarned falls back to the
// incoming balance, since some producers only send the current points.
func (l *Ledger) Earn(ctx context.Context, ev EarnEvent) error {
	ctx, span := l.start(ctx, "Earn", ev.UserID, attribute.Int64("points.balance", ev.Balance))
	defer span.End()

	if ev.UserID == "" {
		return l.fail(span, "earn", ErrEmptyUser)
	}
	if ev.Balance < 0 || ev.TotalEarned < 0 {
		return l.fail(span, "earn", ErrInvalidAmount)
	}
	total := ev.TotalEarned
	if total == 0 {
		total = ev.Balance
	}

	unlock := l.locks.lock(ev.UserID)
	defer unlock()

	if err := l.store.UpsertAccountMirror(ctx, l.db, ev.UserID, ev.Balance, total, l.now()); err != nil {
		return l.fail(span, "earn", storageErr("earn", err))
	}
	earnEvents.Inc()
	l.log.Debug().Str("user_id", ev.UserID).Int64("balance", ev.Balance).Int64("total_earned", total).Msg("earn mirrored")
	return nil
}

// Reserve debits amount from userID's balance and returns the reservation
// guarding it. The check and the debit are one conditional update; when the
// balance is too low nothing changes and the error wraps
// ErrInsufficientFunds. A zero amount yields an empty reservation.
func (l *Ledger) Reserve(ctx context.Context, userID string, amount int64) (*Reservation, error) {
	ctx, span := l.start(ctx, "Reserve", userID, attribute.Int64("points.amount", amount))
	defer span.End()

	if userID == "" {
		return nil, l.fail(span, "reserve", ErrEmptyUser)
	}
	if amount < 0 {
		return nil, l.fail(span, "reserve", ErrInvalidAmount)
	}
	if amount == 0 {
		return &Reservation{ledger: l, userID: userID}, nil
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	ok, err := l.store.DebitAccount(ctx, l.db, userID, amount, l.now())
	if err != nil {
		return nil, l.fail(span, "reserve", storageErr("reserve", err))
	}
	if !ok {
		reserveRejected.Inc()
		var available int64
		if acc, gerr := l.store.GetAccount(ctx, l.db, userID); gerr == nil {
			available = acc.Balance
		}
		return nil, l.fail(span, "reserve", &InsufficientFundsError{UserID: userID, Available: available, Requested: amount})
	}

	pointsReserved.Add(float64(amount))
	return &Reservation{ledger: l, userID: userID, amount: amount}, nil
}

// Refund credits amount back to userID. Refunds are not deduplicated here:
// callers must issue at most one refund per reservation.
func (l *Ledger) Refund(ctx context.Context, userID string, amount int64) error {
	return l.refund(ctx, userID, amount, "refund")
}

func (l *Ledger) refund(ctx context.Context, userID string, amount int64, reason string) error {
	ctx, span := l.start(ctx, "Refund", userID, attribute.Int64("points.amount", amount), attribute.String("refund.reason", reason))
	defer span.End()

	if userID == "" {
		return l.fail(span, "refund", ErrEmptyUser)
	}
	if amount < 0 {
		return l.fail(span, "refund", ErrInvalidAmount)
	}
	if amount == 0 {
		return nil
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	if err := l.store.CreditAccount(ctx, l.db, userID, amount, l.now()); err != nil {
		return l.fail(span, "refund", storageErr("refund", err))
	}
	pointsRefunded.WithLabelValues(reason).Add(float64(amount))
	l.log.Info().Str("user_id", userID).Int64("amount", amount).Str("reason", reason).Msg("points refunded")
	return nil
}

// ActivateMultiplier sets userID's multiplier to factor until now+duration,
// replacing any multiplier already active. It returns the new expiry.
func (l *Ledger) ActivateMultiplier(ctx context.Context, userID string, factor float64, duration time.Duration) (time.Time, error) {
	ctx, span := l.start(ctx, "ActivateMultiplier", userID,
		attribute.Float64("multiplier.factor", factor),
		attribute.String("multiplier.duration", duration.String()),
	)
	defer span.End()

	if userID == "" {
		return time.Time{}, l.fail(span, "multiplier", ErrEmptyUser)
	}
	if factor <= 0 || duration <= 0 {
		return time.Time{}, l.fail(span, "multiplier", ErrInvalidMultiplier)
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	now := l.now()
	expiresAt := now.Add(duration)
	if err := l.store.SetAccountMultiplier(ctx, l.db, userID, factor, expiresAt, now); err != nil {
		return time.Time{}, l.fail(span, "multiplier", storageErr("multiplier", err))
	}
	multiplierActivations.Inc()
	l.log.Info().Str("user_id", userID).Float64("factor", factor).Time("expires_at", expiresAt).Msg("multiplier activated")
	return expiresAt, nil
}
