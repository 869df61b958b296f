// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file adapts the repository free functions to the
// store interfaces consumed by the ledger and the services, keeping those
// packages decoupled from this one while reusing the same functions.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// AccountStore proxies the account functions (ledger.Store).
type AccountStore struct{}

// GetAccount proxies GetAccount.
func (AccountStore) GetAccount(ctx context.Context, db *gorm.DB, userID string) (*domain.Account, error) {
	return GetAccount(ctx, db, userID)
}

// UpsertAccountMirror proxies UpsertAccountMirror.
func (AccountStore) UpsertAccountMirror(ctx context.Context, db *gorm.DB, userID string, balance, totalEarned int64, now time.Time) error {
	return UpsertAccountMirror(ctx, db, userID, balance, totalEarned, now)
}

// DebitAccount proxies DebitAccount.
func (AccountStore) DebitAccount(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) (bool, error) {
	return DebitAccount(ctx, db, userID, amount, now)
}

// CreditAccount proxies CreditAccount.
func (AccountStore) CreditAccount(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) error {
	return CreditAccount(ctx, db, userID, amount, now)
}

// SetAccountMultiplier proxies SetAccountMultiplier.
func (AccountStore) SetAccountMultiplier(ctx context.Context, db *gorm.DB, userID string, factor float64, expiresAt, now time.Time) error {
	return SetAccountMultiplier(ctx, db, userID, factor, expiresAt, now)
}

// RedemptionStore proxies the redemption and history functions
// (services.RedemptionRepo).
type RedemptionStore struct{}

// CreateRedemption proxies CreateRedemption.
func (RedemptionStore) CreateRedemption(ctx context.Context, db *gorm.DB, r *domain.Redemption) error {
	return CreateRedemption(ctx, db, r)
}

// GetRedemption proxies GetRedemption.
func (RedemptionStore) GetRedemption(ctx context.Context, db *gorm.DB, id string) (*domain.Redemption, error) {
	return GetRedemption(ctx, db, id)
}

// ListRedemptions proxies ListRedemptions.
func (RedemptionStore) ListRedemptions(ctx context.Context, db *gorm.DB, status domain.RedemptionStatus, offset, limit int) ([]domain.Redemption, error) {
	return ListRedemptions(ctx, db, status, offset, limit)
}

// CountRedemptions proxies CountRedemptions.
func (RedemptionStore) CountRedemptions(ctx context.Context, db *gorm.DB, status domain.RedemptionStatus) (int64, error) {
	return CountRedemptions(ctx, db, status)
}

// TransitionRedemption proxies TransitionRedemption.
func (RedemptionStore) TransitionRedemption(ctx context.Context, db *gorm.DB, id string, from, to domain.RedemptionStatus, by string, processedAt *time.Time) (bool, error) {
	return TransitionRedemption(ctx, db, id, from, to, by, processedAt)
}

// CreateHistoryEntry proxies CreateHistoryEntry.
func (RedemptionStore) CreateHistoryEntry(ctx context.Context, db *gorm.DB, r *domain.Redemption) (*domain.HistoryEntry, error) {
	return CreateHistoryEntry(ctx, db, r)
}

// SetHistoryStatus proxies SetHistoryStatus.
func (RedemptionStore) SetHistoryStatus(ctx context.Context, db *gorm.DB, redemptionID string, status domain.RedemptionStatus) error {
	return SetHistoryStatus(ctx, db, redemptionID, status)
}

// ListHistory proxies ListHistory.
func (RedemptionStore) ListHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.HistoryEntry, error) {
	return ListHistory(ctx, db, userID, limit)
}

// ItemStore proxies the catalog functions (services.ItemRepo).
type ItemStore struct{}

// GetItem proxies GetItem.
func (ItemStore) GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error) {
	return GetItem(ctx, db, id)
}

// ListItems proxies ListItems.
func (ItemStore) ListItems(ctx context.Context, db *gorm.DB, f ItemFilter, now time.Time) ([]domain.Item, error) {
	return ListItems(ctx, db, f, now)
}

// ListTrending proxies ListTrending.
func (ItemStore) ListTrending(ctx context.Context, db *gorm.DB, limit int, now time.Time) ([]domain.Item, error) {
	return ListTrending(ctx, db, limit, now)
}

// ListLimited proxies ListLimited.
func (ItemStore) ListLimited(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Item, error) {
	return ListLimited(ctx, db, now)
}

// BumpTrending proxies BumpTrending.
func (ItemStore) BumpTrending(ctx context.Context, db *gorm.DB, id string, quantity int64) error {
	return BumpTrending(ctx, db, id, quantity)
}

// IdempotencyStore proxies the idempotency functions
// (services.IdempotencyRepo).
type IdempotencyStore struct{}

// GetIdempotency proxies GetIdempotency.
func (IdempotencyStore) GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return GetIdempotency(ctx, db, userID, scope, key, now)
}

// ClaimIdempotency proxies ClaimIdempotency.
func (IdempotencyStore) ClaimIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, ttl time.Duration, now time.Time) (*domain.Idempotency, error) {
	return ClaimIdempotency(ctx, db, userID, scope, key, ttl, now)
}

// CompleteIdempotency proxies CompleteIdempotency.
func (IdempotencyStore) CompleteIdempotency(ctx context.Context, db *gorm.DB, id, resourceID string) error {
	return CompleteIdempotency(ctx, db, id, resourceID)
}

// ReleaseIdempotency proxies ReleaseIdempotency.
func (IdempotencyStore) ReleaseIdempotency(ctx context.Context, db *gorm.DB, id string) error {
	return ReleaseIdempotency(ctx, db, id)
}
