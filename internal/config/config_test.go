package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

// setRequired sets the variables that have no usable default.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("ADMIN_PASSWORD", "hunter22")
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	setRequired(t)
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"
	t.Setenv("LOG_FILE", "/var/log/shop.log")

	// Storage
	t.Setenv("DB_DSN", "postgres://shop@localhost/shop")
	t.Setenv("DB_PATH", "ignored.db")

	// Auth
	t.Setenv("ADMIN_USERNAME", "mod")
	t.Setenv("ADMIN_TOKEN_TTL", "1h")
	t.Setenv("VIEWER_HEADER_FALLBACK", "true")

	// Feed
	t.Setenv("FEED_TOKEN", "feed-secret")
	t.Setenv("STREAMERBOT_ENABLED", "1")
	t.Setenv("STREAMERBOT_PORT", "9090")
	t.Setenv("STREAMERBOT_EVENTS", "General.Custom, Twitch.Follow")

	// Shop
	t.Setenv("CATALOG_FILE", "items.yaml")
	t.Setenv("MAX_REDEEM_QUANTITY", "10")
	t.Setenv("HISTORY_LIMIT", "20")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" || cfg.LogFile != "/var/log/shop.log" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// DB_DSN wins over DB_PATH
	if cfg.DBDSN != "postgres://shop@localhost/shop" {
		t.Fatalf("dsn unexpected: %q", cfg.DBDSN)
	}

	if cfg.Auth.AdminUsername != "mod" || cfg.Auth.AdminTokenTTL != time.Hour || !cfg.Auth.ViewerHeaderFallback {
		t.Fatalf("auth unexpected: %+v", cfg.Auth)
	}
	if cfg.Feed.Token != "feed-secret" || !cfg.Feed.StreamerbotEnabled || cfg.Feed.StreamerbotPort != 9090 ||
		!reflect.DeepEqual(cfg.Feed.StreamerbotEvents, []string{"General.Custom", "Twitch.Follow"}) {
		t.Fatalf("feed unexpected: %+v", cfg.Feed)
	}
	if cfg.Shop.CatalogFile != "items.yaml" || cfg.Shop.MaxRedeemQuantity != 10 || cfg.Shop.HistoryLimit != 20 {
		t.Fatalf("shop unexpected: %+v", cfg.Shop)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	setRequired(t)
	t.Run("invalid LOG_LEVEL", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := Load(); err == nil {
			t.Fatalf("expected LOG_LEVEL validation error")
		}
	})
	t.Run("empty PORT via spaces", func(t *testing.T) {
		t.Setenv("PORT", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "PORT must not be empty") {
			t.Fatalf("expected port validation error, got: %v", err)
		}
	})
	t.Run("non-positive timeouts", func(t *testing.T) {
		t.Setenv("READ_TIMEOUT", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "timeouts must be positive") {
			t.Fatalf("expected timeouts validation error, got: %v", err)
		}
	})
	t.Run("max header bytes <= 0", func(t *testing.T) {
		t.Setenv("MAX_HEADER_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_HEADER_BYTES") {
			t.Fatalf("expected MAX_HEADER_BYTES validation error, got: %v", err)
		}
	})
	t.Run("empty DB_DSN", func(t *testing.T) {
		t.Setenv("DB_DSN", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "DB_DSN must not be empty") {
			t.Fatalf("expected DB_DSN validation error, got: %v", err)
		}
	})
	t.Run("short JWT_SECRET", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")
		if _, err := Load(); err == nil || !containsErr(err, "JWT_SECRET") {
			t.Fatalf("expected JWT_SECRET validation error, got: %v", err)
		}
	})
	t.Run("no admin password", func(t *testing.T) {
		t.Setenv("ADMIN_PASSWORD", "")
		t.Setenv("ADMIN_PASSWORD_HASH", "")
		if _, err := Load(); err == nil || !containsErr(err, "ADMIN_PASSWORD") {
			t.Fatalf("expected admin password validation error, got: %v", err)
		}
	})
	t.Run("streamerbot port out of range", func(t *testing.T) {
		t.Setenv("STREAMERBOT_ENABLED", "true")
		t.Setenv("STREAMERBOT_PORT", "70000")
		if _, err := Load(); err == nil || !containsErr(err, "STREAMERBOT_PORT") {
			t.Fatalf("expected STREAMERBOT_PORT validation error, got: %v", err)
		}
	})
	t.Run("max redeem quantity < 1", func(t *testing.T) {
		t.Setenv("MAX_REDEEM_QUANTITY", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_REDEEM_QUANTITY") {
			t.Fatalf("expected MAX_REDEEM_QUANTITY validation error, got: %v", err)
		}
	})
	t.Run("history limit < 1", func(t *testing.T) {
		t.Setenv("HISTORY_LIMIT", "0")
		if _, err := Load(); err == nil || !containsErr(err, "HISTORY_LIMIT") {
			t.Fatalf("expected HISTORY_LIMIT validation error, got: %v", err)
		}
	})
	t.Run("rate rps negative", func(t *testing.T) {
		t.Setenv("RATE_RPS", "-1")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_RPS") {
			t.Fatalf("expected RATE_RPS validation error, got: %v", err)
		}
	})
	t.Run("rate burst < 1", func(t *testing.T) {
		t.Setenv("RATE_BURST", "0")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_BURST") {
			t.Fatalf("expected RATE_BURST validation error, got: %v", err)
		}
	})
	t.Run("hsts max age negative", func(t *testing.T) {
		t.Setenv("HSTS_MAX_AGE", "-1s")
		if _, err := Load(); err == nil || !containsErr(err, "HSTS_MAX_AGE") {
			t.Fatalf("expected HSTS_MAX_AGE validation error, got: %v", err)
		}
	})
	t.Run("idempotency ttl non-positive", func(t *testing.T) {
		t.Setenv("IDEMPOTENCY_TTL", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "IDEMPOTENCY_TTL") {
			t.Fatalf("expected IDEMPOTENCY_TTL validation error, got: %v", err)
		}
	})
	t.Run("otel sample ratio out of range", func(t *testing.T) {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
		if _, err := Load(); err == nil || !containsErr(err, "OTEL_TRACES_SAMPLER_ARG") {
			t.Fatalf("expected OTEL_TRACES_SAMPLER_ARG validation error, got: %v", err)
		}
	})

	// Note: API_BASE_PATH validation is effectively unreachable due to normalizeBasePath
	// always ensuring a leading '/' and returning "/" for empty input.
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + config_strconv(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + config_strconv(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	in := " a, ,b ,  c  ,"
	want := []string{"a", "b", "c"}
	if got := splitCSV(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	// normalizeBasePath
	if normalizeBasePath("") != "/" {
		t.Fatalf("normalizeBasePath empty -> '/' failed")
	}
	if normalizeBasePath("v1") != "/v1" {
		t.Fatalf("normalizeBasePath missing leading slash failed")
	}
	if normalizeBasePath("/v1/") != "/v1" {
		t.Fatalf("normalizeBasePath trailing slash trim failed")
	}
	if normalizeBasePath(" / ") != "/" {
		t.Fatalf("normalizeBasePath whitespace failed")
	}
}

// small helper (avoid fmt just for ints)
func config_strconv(i int) string { return string('a' + rune(i)) }

// Ensure a PORT from the shell does not leak into tests.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PATH", "legacy.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api" {
		t.Fatalf("API_BASE_PATH default expected '/api', got %q", cfg.APIBasePath)
	}
	if cfg.DBDSN != "legacy.db" {
		t.Fatalf("DB_PATH should back DB_DSN, got %q", cfg.DBDSN)
	}
	if cfg.Auth.AdminUsername != "admin" || cfg.Auth.ViewerHeaderFallback {
		t.Fatalf("auth defaults unexpected: %+v", cfg.Auth)
	}
	if cfg.Feed.StreamerbotEnabled || !reflect.DeepEqual(cfg.Feed.StreamerbotEvents, []string{"General.Custom"}) {
		t.Fatalf("feed defaults unexpected: %+v", cfg.Feed)
	}
	if cfg.Shop.CatalogFile != "" || cfg.Shop.MaxRedeemQuantity != 100 || cfg.Shop.HistoryLimit != 50 {
		t.Fatalf("shop defaults unexpected: %+v", cfg.Shop)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	setRequired(t)
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
