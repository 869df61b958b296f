package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

func seedCatalog(now time.Time) []domain.Item {
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)
	later := now.Add(2 * time.Hour)
	return []domain.Item{
		{ID: "coins", Category: "currency", Game: "agma.io", Name: "Coins", Cost: 200, Available: true, TrendingScore: 5, Type: domain.ItemTypeItem},
		{ID: "bots", Category: "bots", Game: "agma.io", Name: "Bots", Cost: 100, Available: true, TrendingScore: 5, Type: domain.ItemTypeItem},
		{ID: "gold", Category: "membership", Game: "agma.io", Name: "Gold", Cost: 900, Available: true, TrendingScore: 9, Type: domain.ItemTypeItem},
		{ID: "hidden", Category: "currency", Game: "agma.io", Name: "Hidden", Cost: 1, Available: false, TrendingScore: 99, Type: domain.ItemTypeItem},
		{ID: "expired", Category: "stream", Game: "stream", Name: "Expired", Cost: 1, Available: true, LimitedTime: true, ExpiresAt: &past, TrendingScore: 50, Type: domain.ItemTypeItem},
		{ID: "flash-late", Category: "stream", Game: "stream", Name: "Flash late", Cost: 10, Available: true, LimitedTime: true, ExpiresAt: &later, Type: domain.ItemTypeItem},
		{ID: "flash-soon", Category: "stream", Game: "stream", Name: "Flash soon", Cost: 10, Available: true, LimitedTime: true, ExpiresAt: &soon, Type: domain.ItemTypeItem},
		{ID: "2x-points", Category: "perks", Game: "stream", Name: "2x", Cost: 40, Available: true, Type: domain.ItemTypePerk, PerkMultiplier: 2, PerkMinutes: 60},
	}
}

func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSeedItems_InsertOnlyMissing(t *testing.T) {
	db := newTestDB(t, &domain.Item{})
	ctx := context.Background()
	now := time.Now().UTC()

	n, err := SeedItems(ctx, db, seedCatalog(now))
	if err != nil || n != 8 {
		t.Fatalf("first seed = %d, %v", n, err)
	}
	if err := BumpTrending(ctx, db, "coins", 3); err != nil {
		t.Fatalf("bump: %v", err)
	}

	// Reseeding keeps existing rows (and their scores) untouched.
	n, err = SeedItems(ctx, db, seedCatalog(now))
	if err != nil || n != 0 {
		t.Fatalf("reseed = %d, %v", n, err)
	}
	it, err := GetItem(ctx, db, "coins")
	if err != nil || it.TrendingScore != 8 {
		t.Fatalf("expected trending 8 after reseed, got %+v err=%v", it, err)
	}

	if n, err := SeedItems(ctx, db, nil); err != nil || n != 0 {
		t.Fatalf("empty seed = %d, %v", n, err)
	}
}

func TestListItems_OrderAndFilters(t *testing.T) {
	db := newTestDB(t, &domain.Item{})
	ctx := context.Background()
	now := time.Now().UTC()
	if _, err := SeedItems(ctx, db, seedCatalog(now)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := ListItems(ctx, db, ItemFilter{}, now)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	// Trending desc, then cost asc; unavailable and expired items dropped.
	want := []string{"gold", "bots", "coins", "flash-late", "flash-soon", "2x-points"}
	if got := ids(all); !equalIDs(got, want) {
		t.Fatalf("ListItems = %v; want %v", got, want)
	}

	agma, err := ListItems(ctx, db, ItemFilter{Game: "agma.io", Category: "currency"}, now)
	if err != nil || !equalIDs(ids(agma), []string{"coins"}) {
		t.Fatalf("filtered = %v, %v", ids(agma), err)
	}

	top, err := ListTrending(ctx, db, 2, now)
	if err != nil || !equalIDs(ids(top), []string{"gold", "bots"}) {
		t.Fatalf("ListTrending = %v, %v", ids(top), err)
	}
}

func TestListLimited_SoonestFirst(t *testing.T) {
	db := newTestDB(t, &domain.Item{})
	ctx := context.Background()
	now := time.Now().UTC()
	if _, err := SeedItems(ctx, db, seedCatalog(now)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := ListLimited(ctx, db, now)
	if err != nil {
		t.Fatalf("ListLimited: %v", err)
	}
	if !equalIDs(ids(got), []string{"flash-soon", "flash-late"}) {
		t.Fatalf("ListLimited = %v", ids(got))
	}
}

func TestBumpTrending_Missing(t *testing.T) {
	db := newTestDB(t, &domain.Item{})
	if err := BumpTrending(context.Background(), db, "nope", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
