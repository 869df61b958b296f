// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the ledger store: persistence for viewer
// point accounts.
//
// Every balance mutation is a single conditional SQL statement, so the
// storage itself guarantees that a balance never goes negative even if two
// processes write concurrently:
//
//   - UpsertAccountMirror: balance := incoming, total_earned := max(old, incoming)
//   - DebitAccount:        balance := balance - n  WHERE balance >= n
//   - CreditAccount:       balance := balance + n  (row created when absent)
//   - SetAccountMultiplier: overwrite multiplier and expiry (row created when absent)
//
// Error semantics follow the other repositories: a missing account yields
// ErrNotFound, other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// GetAccount fetches the account for userID or returns ErrNotFound.
func GetAccount(ctx context.Context, db *gorm.DB, userID string) (*domain.Account, error) {
	var a domain.Account
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertAccountMirror stores the externally authoritative snapshot for
// userID. The balance is overwritten; total_earned only ever moves up, so
// out-of-order snapshots cannot lower it.
func UpsertAccountMirror(ctx context.Context, db *gorm.DB, userID string, balance, totalEarned int64, now time.Time) error {
	a := &domain.Account{
		UserID:      userID,
		Balance:     balance,
		TotalEarned: totalEarned,
		Multiplier:  domain.DefaultMultiplier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance": balance,
				"total_earned": gorm.Expr(
					"CASE WHEN accounts.total_earned > ? THEN accounts.total_earned ELSE ? END",
					totalEarned, totalEarned,
				),
				"updated_at": now,
			}),
		}).
		Create(a).Error
}

// DebitAccount subtracts amount from userID's balance if and only if the
// balance covers it. It reports whether the debit was applied; a missing
// account or an insufficient balance yields (false, nil).
func DebitAccount(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CreditAccount adds amount to userID's balance, creating the account when
// it does not exist yet.
func CreditAccount(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) error {
	a := &domain.Account{
		UserID:     userID,
		Balance:    amount,
		Multiplier: domain.DefaultMultiplier,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance":    gorm.Expr("accounts.balance + ?", amount),
				"updated_at": now,
			}),
		}).
		Create(a).Error
}

// SetAccountMultiplier overwrites the multiplier and its expiry for userID.
// No stacking: the last write wins.
func SetAccountMultiplier(ctx context.Context, db *gorm.DB, userID string, factor float64, expiresAt, now time.Time) error {
	a := &domain.Account{
		UserID:              userID,
		Multiplier:          factor,
		MultiplierExpiresAt: expiresAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"multiplier":            factor,
				"multiplier_expires_at": expiresAt,
				"updated_at":            now,
			}),
		}).
		Create(a).Error
}
