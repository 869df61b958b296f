package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

func TestDetectDialect(t *testing.T) {
	cases := map[string]string{
		"app.db":                                 DialectSQLite,
		"file:shop?mode=memory&cache=shared":     DialectSQLite,
		"postgres://u:p@localhost:5432/shop":     DialectPostgres,
		"postgresql://localhost/shop":            DialectPostgres,
		"host=localhost user=u dbname=shop":      DialectPostgres,
		"  POSTGRES://U:P@LOCALHOST/SHOP?x=1   ": DialectPostgres,
	}
	for dsn, want := range cases {
		if got := DetectDialect(dsn); got != want {
			t.Fatalf("DetectDialect(%q) = %q; want %q", dsn, got, want)
		}
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	if db, err := Open("   "); err == nil || db != nil {
		t.Fatalf("expected error for empty dsn, got db=%v err=%v", db, err)
	}
}

func TestWithPragmas(t *testing.T) {
	got := withPragmas("app.db")
	if !strings.HasPrefix(got, "app.db?_pragma=journal_mode(WAL)&") || !strings.Contains(got, "_pragma=busy_timeout(5000)") {
		t.Fatalf("unexpected dsn %q", got)
	}
	got = withPragmas("file:x?mode=memory")
	if !strings.HasPrefix(got, "file:x?mode=memory&_pragma=") {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// Be tolerant across platforms/drivers.
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpen_SQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		fkOn        int
		busyMS      int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.Account{}, &domain.Item{}, &domain.Redemption{}, &domain.HistoryEntry{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Quick insert round-trip to prove schema is usable.
	now := time.Now().UTC()
	if err := db.Create(&domain.Account{UserID: "u1", Balance: 10, Multiplier: 1, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert account: %v", err)
	}
	var got domain.Account
	if err := db.First(&got, "user_id = ?", "u1").Error; err != nil || got.Balance != 10 {
		t.Fatalf("readback account failed: err=%v got=%+v", err, got)
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
