package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the PRAGMA below applies to every statement.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Account{}).TableName():      "accounts",
		(Item{}).TableName():         "items",
		(Redemption{}).TableName():   "redemptions",
		(HistoryEntry{}).TableName(): "history",
		(Idempotency{}).TableName():  "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestAccount_EffectiveMultiplier(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var zero Account
	if got := zero.EffectiveMultiplier(now); got != 1.0 {
		t.Fatalf("zero account multiplier = %v; want 1.0", got)
	}

	a := Account{Multiplier: 2, MultiplierExpiresAt: now.Add(time.Minute)}
	if !a.MultiplierActive(now) || a.EffectiveMultiplier(now) != 2 {
		t.Fatalf("expected active 2x multiplier, got %v", a.EffectiveMultiplier(now))
	}

	// Expiry is exclusive: at the expiry instant the multiplier no longer applies.
	if a.MultiplierActive(a.MultiplierExpiresAt) {
		t.Fatalf("multiplier must be inactive at its expiry instant")
	}
	if got := a.EffectiveMultiplier(now.Add(time.Hour)); got != 1.0 {
		t.Fatalf("stale multiplier leaked: %v", got)
	}
}

func TestItem_Purchasable(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name string
		item Item
		want bool
	}{
		{"available", Item{Available: true}, true},
		{"unavailable", Item{Available: false}, false},
		{"limited not expired", Item{Available: true, LimitedTime: true, ExpiresAt: &future}, true},
		{"limited expired", Item{Available: true, LimitedTime: true, ExpiresAt: &past}, false},
		{"expiry ignored when not limited", Item{Available: true, ExpiresAt: &past}, true},
		{"limited without expiry", Item{Available: true, LimitedTime: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.item.Purchasable(now); got != tc.want {
				t.Fatalf("Purchasable = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestRedemptionStatus(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	if !StatusApproved.Terminal() || !StatusRejected.Terminal() {
		t.Fatalf("approved and rejected must be terminal")
	}
	if RedemptionStatus("shipped").Valid() {
		t.Fatalf("unknown status reported valid")
	}
	if !ItemTypePerk.Valid() || ItemType("bundle").Valid() {
		t.Fatalf("unexpected ItemType.Valid result")
	}
}

func TestNormalizeUserID(t *testing.T) {
	for _, in := range []string{"alice", " Alice ", "ALICE", "ａｌｉｃｅ"} {
		if got := NormalizeUserID(in); got != "alice" {
			t.Fatalf("NormalizeUserID(%q) = %q; want alice", in, got)
		}
	}
}

func TestMigrations_Constraints_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Account{}, &Item{}, &Redemption{}, &HistoryEntry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	if !m.HasIndex(&HistoryEntry{}, "ux_history_redemption") {
		t.Fatalf("expected unique index ux_history_redemption on history")
	}
	if !m.HasIndex(&HistoryEntry{}, "idx_history_user_time") {
		t.Fatalf("expected index idx_history_user_time on history")
	}

	now := time.Now().UTC()

	// Balance may never go negative.
	if err := db.Create(&Account{UserID: "neg", Balance: -1}).Error; err == nil {
		t.Fatalf("expected check constraint violation for negative balance")
	}

	r := &Redemption{ID: "r1", UserID: "u1", ItemID: "i1", ItemName: "Coins", Quantity: 1, UnitCost: 10, TotalCost: 10, Status: StatusPending, CreatedAt: now}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("insert redemption: %v", err)
	}
	bad := &Redemption{ID: "r2", UserID: "u1", ItemID: "i1", ItemName: "Coins", Quantity: 0, Status: StatusPending}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint violation for quantity 0")
	}

	h := &HistoryEntry{ID: "h1", RedemptionID: "r1", UserID: "u1", ItemName: "Coins", Cost: 10, Status: StatusPending, Timestamp: now}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("insert history: %v", err)
	}
	dup := &HistoryEntry{ID: "h2", RedemptionID: "r1", UserID: "u1", ItemName: "Coins", Cost: 10, Status: StatusPending, Timestamp: now}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation: one history entry per redemption")
	}

	// CASCADE: deleting the redemption removes its history entry.
	if err := db.Delete(&Redemption{}, "id = ?", "r1").Error; err != nil {
		t.Fatalf("delete redemption: %v", err)
	}
	var cnt int64
	if err := db.Model(&HistoryEntry{}).Where("redemption_id = ?", "r1").Count(&cnt).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected history to cascade-delete, got %d", cnt)
	}
}
