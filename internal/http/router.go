// Package httpapi wires the HTTP transport (Gin) to the shop services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-rewards-shop/docs"
	"github.com/tbourn/go-rewards-shop/internal/config"
	"github.com/tbourn/go-rewards-shop/internal/http/handlers"
	"github.com/tbourn/go-rewards-shop/internal/http/middleware"
	"github.com/tbourn/go-rewards-shop/internal/repo"
)

const (
	redeemScope = "redeem"

	// loginRPS and loginBurst bound password guessing per client IP.
	loginRPS   = 0.2
	loginBurst = 5
)

var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderUserID, middleware.HeaderIdempotencyKey, middleware.HeaderFeedToken,
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured, redacted access log and request-scoped logger
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Compression
//  8. CORS and security headers
//
// Per-route chains add authentication, idempotency (before the limiter so a
// replay bypasses it) and rate limiting.
func RegisterRoutes(r *gin.Engine, deps *Deps, cfg config.Config, logger zerolog.Logger) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.LogOptions{
		Base:        logger,
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	useCORS(r, cfg.CORS.AllowedOrigins)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Catalog, deps.Redemptions, deps.Ledger, deps.Feed, handlers.AdminLogin{
		Credentials: deps.Admin,
		Secret:      cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.AdminTokenTTL,
	})

	viewer := middleware.ViewerAuth(middleware.ViewerAuthOptions{
		Secret:         cfg.Auth.JWTSecret,
		HeaderFallback: cfg.Auth.ViewerHeaderFallback,
	})
	general := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Named("api")
	login := middleware.NewRateLimiter(loginRPS, loginBurst, middleware.KeyByIP()).Named("login")
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{Scope: redeemScope, MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, deps.DB, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			// In-flight claims are not replays.
			return rec != nil && rec.ResourceID != "", nil
		},
	)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Catalog (public)
		api.GET("/items", general.Handler(), h.ListItems)
		api.GET("/items/featured", general.Handler(), h.FeaturedItems)
		api.GET("/items/limited", general.Handler(), h.LimitedItems)

		// Viewer
		api.GET("/points/:userId", viewer, middleware.SelfOnly("userId"), middleware.NoStore(), general.Handler(), h.GetPoints)
		api.GET("/history/:userId", viewer, middleware.SelfOnly("userId"), middleware.NoStore(), general.Handler(), h.History)
		api.POST("/redeem", viewer, idem, general.Handler(), middleware.NoStore(), h.Redeem)

		// Chat bot
		api.POST("/streamerbot/update-points", middleware.FeedToken(cfg.Feed.Token), h.UpdatePoints)

		// Admin
		api.POST("/admin/login", login.Handler(), middleware.NoStore(), h.AdminLogin)
		admin := api.Group("/admin", middleware.AdminAuth(cfg.Auth.JWTSecret), middleware.NoStore())
		{
			admin.GET("/redemptions", h.ListRedemptions)
			admin.POST("/redemptions/:id/approve", h.ApproveRedemption)
			admin.POST("/redemptions/:id/reject", h.RejectRedemption)
		}
	}
}

// useCORS installs the CORS posture: allow all origins when none are
// configured, otherwise echo allow-listed origins.
func useCORS(r *gin.Engine, origins []string) {
	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps the request body size using http.MaxBytesReader. Requests
// exceeding the cap cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
