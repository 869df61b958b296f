// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the database DSN, admin and viewer authentication, the chat bot
// feed, shop limits, rate limiting and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "rewards-shop")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig defines admin login and bearer token settings.
type AuthConfig struct {
	JWTSecret         string        // JWT_SECRET, shared with the viewer login flow
	AdminUsername     string        // ADMIN_USERNAME
	AdminPassword     string        // ADMIN_PASSWORD (plaintext, hashed at start-up)
	AdminPasswordHash string        // ADMIN_PASSWORD_HASH (bcrypt, preferred)
	AdminTokenTTL     time.Duration // ADMIN_TOKEN_TTL
	// ViewerHeaderFallback accepts X-User-ID without a bearer token. Meant
	// for local development only.
	ViewerHeaderFallback bool // VIEWER_HEADER_FALLBACK
}

// FeedConfig defines the chat bot point feed.
type FeedConfig struct {
	Token               string   // FEED_TOKEN, required by the HTTP sync route
	StreamerbotEnabled  bool     // STREAMERBOT_ENABLED
	StreamerbotHost     string   // STREAMERBOT_HOST
	StreamerbotPort     int      // STREAMERBOT_PORT
	StreamerbotEndpoint string   // STREAMERBOT_ENDPOINT
	StreamerbotPassword string   // STREAMERBOT_PASSWORD
	StreamerbotEvents   []string // STREAMERBOT_EVENTS, "Source.Type" CSV
}

// ShopConfig defines redemption limits and the seed catalog.
type ShopConfig struct {
	CatalogFile       string // CATALOG_FILE (empty: embedded catalog)
	MaxRedeemQuantity int    // MAX_REDEEM_QUANTITY
	HistoryLimit      int    // HISTORY_LIMIT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        string // optional rotating log file
	LogMaxSizeMB   int    // rotate after this many megabytes
	LogMaxBackups  int    // rotated files kept
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDSN string // SQLite path or Postgres DSN

	// Domain
	Auth AuthConfig
	Feed FeedConfig
	Shop ShopConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogFile:        getenv("LOG_FILE", ""),
		LogMaxSizeMB:   getint("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:  getint("LOG_MAX_BACKUPS", 5),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Storage; DB_PATH is accepted for SQLite-only deployments.
		DBDSN: getenv("DB_DSN", getenv("DB_PATH", "shop.db")),

		Auth: AuthConfig{
			JWTSecret:            getenv("JWT_SECRET", ""),
			AdminUsername:        getenv("ADMIN_USERNAME", "admin"),
			AdminPassword:        getenv("ADMIN_PASSWORD", ""),
			AdminPasswordHash:    getenv("ADMIN_PASSWORD_HASH", ""),
			AdminTokenTTL:        getdur("ADMIN_TOKEN_TTL", 12*time.Hour),
			ViewerHeaderFallback: getbool("VIEWER_HEADER_FALLBACK", false),
		},
		Feed: FeedConfig{
			Token:               getenv("FEED_TOKEN", ""),
			StreamerbotEnabled:  getbool("STREAMERBOT_ENABLED", false),
			StreamerbotHost:     getenv("STREAMERBOT_HOST", "127.0.0.1"),
			StreamerbotPort:     getint("STREAMERBOT_PORT", 8080),
			StreamerbotEndpoint: getenv("STREAMERBOT_ENDPOINT", "/"),
			StreamerbotPassword: getenv("STREAMERBOT_PASSWORD", ""),
			StreamerbotEvents:   splitCSV(getenv("STREAMERBOT_EVENTS", "General.Custom")),
		},
		Shop: ShopConfig{
			CatalogFile:       getenv("CATALOG_FILE", ""),
			MaxRedeemQuantity: getint("MAX_REDEEM_QUANTITY", 100),
			HistoryLimit:      getint("HISTORY_LIMIT", 50),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "rewards-shop"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBDSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
	}
	if cfg.LogMaxSizeMB <= 0 || cfg.LogMaxBackups < 0 {
		return cfg, errors.New("LOG_MAX_SIZE_MB must be > 0 and LOG_MAX_BACKUPS >= 0")
	}
	if len(cfg.Auth.JWTSecret) < 16 {
		return cfg, errors.New("JWT_SECRET must be at least 16 characters")
	}
	if cfg.Auth.AdminPassword == "" && cfg.Auth.AdminPasswordHash == "" {
		return cfg, errors.New("one of ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	if cfg.Auth.AdminTokenTTL <= 0 {
		return cfg, errors.New("ADMIN_TOKEN_TTL must be > 0")
	}
	if cfg.Feed.StreamerbotEnabled {
		if cfg.Feed.StreamerbotPort <= 0 || cfg.Feed.StreamerbotPort > 65535 {
			return cfg, errors.New("STREAMERBOT_PORT must be in 1..65535")
		}
		if len(cfg.Feed.StreamerbotEvents) == 0 {
			return cfg, errors.New("STREAMERBOT_EVENTS must not be empty")
		}
	}
	if cfg.Shop.MaxRedeemQuantity < 1 {
		return cfg, errors.New("MAX_REDEEM_QUANTITY must be >= 1")
	}
	if cfg.Shop.HistoryLimit < 1 {
		return cfg, errors.New("HISTORY_LIMIT must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
