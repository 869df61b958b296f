package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

// newTestDB opens a fresh file-backed database per test so concurrent
// writers get real SQLite locking semantics.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestItemsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := ItemsStats(context.Background(), db); err == nil {
		t.Fatalf("expected error due to missing items table")
	}
}

func TestItemsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Item{})
	count, maxAt, err := ItemsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("ItemsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestItemsStats_ChangesAfterBump(t *testing.T) {
	db := newTestDB(t, &domain.Item{})
	ctx := context.Background()

	old := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	items := []domain.Item{
		{ID: "a", Category: "c", Game: "g", Name: "A", Cost: 1, Available: true, Type: domain.ItemTypeItem, CreatedAt: old, UpdatedAt: old},
		{ID: "b", Category: "c", Game: "g", Name: "B", Cost: 2, Available: true, Type: domain.ItemTypeItem, CreatedAt: old, UpdatedAt: old},
	}
	if _, err := SeedItems(ctx, db, items); err != nil {
		t.Fatalf("seed: %v", err)
	}

	count, before, err := ItemsStats(ctx, db)
	if err != nil || count != 2 || before == nil || !before.Equal(old) {
		t.Fatalf("ItemsStats = (%d, %v, %v); want (2, %v, nil)", count, before, err, old)
	}

	if err := BumpTrending(ctx, db, "a", 1); err != nil {
		t.Fatalf("bump: %v", err)
	}
	_, after, err := ItemsStats(ctx, db)
	if err != nil || after == nil || !after.After(*before) {
		t.Fatalf("expected max updated_at to move forward, before=%v after=%v err=%v", before, after, err)
	}
}

func TestHistoryStats_FilterByUser(t *testing.T) {
	db := newTestDB(t, &domain.Redemption{}, &domain.HistoryEntry{})
	ctx := context.Background()

	for i, uid := range []string{"u1", "u1", "u2"} {
		r := &domain.Redemption{UserID: uid, ItemID: "i", ItemName: fmt.Sprintf("item-%d", i), Quantity: 1, UnitCost: 5, TotalCost: 5}
		if err := CreateRedemption(ctx, db, r); err != nil {
			t.Fatalf("create redemption: %v", err)
		}
		if _, err := CreateHistoryEntry(ctx, db, r); err != nil {
			t.Fatalf("create history: %v", err)
		}
	}

	count, maxAt, err := HistoryStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("HistoryStats: %v", err)
	}
	if count != 2 || maxAt == nil {
		t.Fatalf("expected 2 rows with max timestamp, got (%d, %v)", count, maxAt)
	}

	count, maxAt, err = HistoryStats(ctx, db, "nobody")
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil, nil) for unknown user, got (%d, %v, %v)", count, maxAt, err)
	}
}
