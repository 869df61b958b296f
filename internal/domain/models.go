// Package domain defines the persistence models for the rewards shop:
// viewer point accounts, catalog items, redemption requests and their
// audit-history entries. These types are mapped with GORM and shared by the
// repository, ledger and service layers.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultMultiplier is the earning multiplier of an account without an
// active perk.
const DefaultMultiplier = 1.0

// Account is a viewer's point balance as mirrored from the chat bot.
//
// Fields:
//   - UserID: opaque, normalized viewer identity (primary key).
//   - Balance: spendable points, never negative (DB check constraint).
//   - TotalEarned: high-water mark of points ever credited; never decremented.
//   - Multiplier / MultiplierExpiresAt: time-boxed earning multiplier. The
//     multiplier only applies while now < MultiplierExpiresAt.
type Account struct {
	UserID              string    `json:"user_id"               gorm:"type:varchar(128);primaryKey"`
	Balance             int64     `json:"balance"               gorm:"not null;default:0;check:chk_accounts_balance,balance >= 0"`
	TotalEarned         int64     `json:"total_earned"          gorm:"not null;default:0"`
	Multiplier          float64   `json:"multiplier"            gorm:"not null;default:1"`
	MultiplierExpiresAt time.Time `json:"multiplier_expires_at" gorm:"not null"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// MultiplierActive reports whether the stored multiplier still applies at now.
func (a Account) MultiplierActive(now time.Time) bool {
	return now.Before(a.MultiplierExpiresAt)
}

// EffectiveMultiplier is the multiplier in force at now; 1.0 once expired.
func (a Account) EffectiveMultiplier(now time.Time) float64 {
	if a.MultiplierActive(now) && a.Multiplier > 0 {
		return a.Multiplier
	}
	return DefaultMultiplier
}

// ItemType controls the side effects of redeeming an item.
type ItemType string

const (
	// ItemTypeItem is an ordinary good fulfilled by a moderator.
	ItemTypeItem ItemType = "item"
	// ItemTypePriority is a "priority pick" that needs structured choice data.
	ItemTypePriority ItemType = "priority"
	// ItemTypePerk takes effect instantly (e.g. a points multiplier).
	ItemTypePerk ItemType = "perk"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeItem, ItemTypePriority, ItemTypePerk:
		return true
	}
	return false
}

// Item is a catalog entry. TrendingScore is the cumulative quantity redeemed
// and only ever increases.
type Item struct {
	ID                       string     `json:"id"                         gorm:"type:varchar(64);primaryKey"`
	Category                 string     `json:"category"                   gorm:"type:varchar(64);not null;index:idx_items_browse,priority:1"`
	Game                     string     `json:"game"                       gorm:"type:varchar(64);not null;index:idx_items_browse,priority:2"`
	Name                     string     `json:"name"                       gorm:"type:varchar(255);not null"`
	Description              string     `json:"description"                gorm:"type:text"`
	Cost                     int64      `json:"cost"                       gorm:"not null;check:chk_items_cost,cost >= 0"`
	ImageURL                 string     `json:"image_url"                  gorm:"type:varchar(512)"`
	Available                bool       `json:"available"                  gorm:"not null"`
	TrendingScore            int64      `json:"trending_score"             gorm:"not null;default:0;index"`
	LimitedTime              bool       `json:"limited_time"               gorm:"not null"`
	ExpiresAt                *time.Time `json:"expires_at,omitempty"`
	Type                     ItemType   `json:"type"                       gorm:"type:varchar(16);not null;default:'item';check:chk_items_type,type IN ('item','priority','perk')"`
	RequiresDeliveryUsername bool       `json:"requires_delivery_username" gorm:"not null"`
	PerkMultiplier           float64    `json:"perk_multiplier,omitempty"`
	PerkMinutes              int        `json:"perk_minutes,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Item.
func (Item) TableName() string { return "items" }

// Expired reports whether a limited-time item has passed its expiry at now.
func (i Item) Expired(now time.Time) bool {
	return i.LimitedTime && i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Purchasable reports whether the item can be redeemed at now.
func (i Item) Purchasable(now time.Time) bool {
	return i.Available && !i.Expired(now)
}

// RedemptionStatus is the approval state of a redemption.
type RedemptionStatus string

const (
	StatusPending  RedemptionStatus = "pending"
	StatusApproved RedemptionStatus = "approved"
	StatusRejected RedemptionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s RedemptionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known status.
func (s RedemptionStatus) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// Redemption is a viewer's request to spend points on an item. It is
// created pending together with the balance deduction and moves exactly once
// to approved or rejected.
//
// Fields:
//   - UnitCost: item price snapshot at submission time.
//   - TotalCost: UnitCost * Quantity; the amount refunded on rejection.
//   - DeliveryUsername / Message: free-form fulfilment data. Message carries
//     the JSON-encoded choice data of priority picks.
//   - ProcessedAt / ProcessedBy: set when the redemption becomes terminal.
type Redemption struct {
	ID               string           `json:"id"                          gorm:"type:char(36);primaryKey"`
	UserID           string           `json:"user_id"                     gorm:"type:varchar(128);not null;index:idx_redemptions_user,priority:1"`
	ItemID           string           `json:"item_id"                     gorm:"type:varchar(64);not null;index"`
	ItemName         string           `json:"item_name"                   gorm:"type:varchar(255);not null"`
	Quantity         int              `json:"quantity"                    gorm:"not null;check:chk_redemptions_quantity,quantity >= 1"`
	UnitCost         int64            `json:"unit_cost"                   gorm:"not null"`
	TotalCost        int64            `json:"total_cost"                  gorm:"not null"`
	DeliveryUsername string           `json:"delivery_username,omitempty" gorm:"type:varchar(128)"`
	Message          string           `json:"message,omitempty"           gorm:"type:text"`
	Status           RedemptionStatus `json:"status"                      gorm:"type:varchar(16);not null;default:'pending';index;check:chk_redemptions_status,status IN ('pending','approved','rejected')"`
	ProcessedBy      string           `json:"processed_by,omitempty"      gorm:"type:varchar(128)"`
	CreatedAt        time.Time        `json:"created_at"                  gorm:"index:idx_redemptions_user,priority:2"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
}

// TableName returns the database table name for Redemption.
func (Redemption) TableName() string { return "redemptions" }

// HistoryEntry is the viewer-facing audit line of a redemption. There is
// exactly one entry per redemption and its status mirrors the redemption.
type HistoryEntry struct {
	ID           string           `json:"id"            gorm:"type:char(36);primaryKey"`
	RedemptionID string           `json:"redemption_id" gorm:"type:char(36);not null;uniqueIndex:ux_history_redemption"`
	UserID       string           `json:"user_id"       gorm:"type:varchar(128);not null;index:idx_history_user_time,priority:1"`
	ItemName     string           `json:"item_name"     gorm:"type:varchar(255);not null"`
	Cost         int64            `json:"cost"          gorm:"not null"`
	Status       RedemptionStatus `json:"status"        gorm:"type:varchar(16);not null;default:'pending'"`
	Timestamp    time.Time        `json:"timestamp"     gorm:"not null;index:idx_history_user_time,priority:2"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// Redemption is the owning request; history rows go with it.
	Redemption Redemption `json:"-" gorm:"foreignKey:RedemptionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for HistoryEntry.
func (HistoryEntry) TableName() string { return "history" }

// NormalizeUserID canonicalizes a viewer identity so that the chat bot feed
// and the shop resolve the same account ("Alice", "alice " and the
// full-width variant all map to "alice").
func NormalizeUserID(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	// Casers are stateful; one per call.
	return cases.Fold().String(s)
}
