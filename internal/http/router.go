// Package httpapi wires the HTTP transport (Gin) to the suggestion box
// services, middleware and route handlers. It centralizes cross-cutting
// concerns: tracing, correlation IDs, redacted logging, panic recovery,
// compression, metrics, session loading, idempotency, rate limiting, CORS
// and security headers.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-suggestion-box/docs"
	"github.com/tbourn/go-suggestion-box/internal/aggregate"
	"github.com/tbourn/go-suggestion-box/internal/config"
	"github.com/tbourn/go-suggestion-box/internal/http/handlers"
	"github.com/tbourn/go-suggestion-box/internal/http/middleware"
	"github.com/tbourn/go-suggestion-box/internal/live"
	"github.com/tbourn/go-suggestion-box/internal/repo"
	"github.com/tbourn/go-suggestion-box/internal/services"
)

// Deps are the application components the router mounts.
type Deps struct {
	Services *services.Services
	Engine   *aggregate.Engine
	Store    *repo.Store
	Broker   *live.Broker
}

var corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}

var corsExpose = []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed", "Content-Disposition"}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip (the websocket route is not compressed)
//  6. Metrics
//  7. Session loader: stashes the logged-in user for everything below
//  8. Idempotency validator (before rate limiting to allow bypass on replay)
//  9. Rate limiter (per session user or IP)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	api := cfg.APIBasePath
	if api == "/" {
		api = ""
	}
	livePath := api + "/live"

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{livePath, "/metrics"})))

	r.Use(middleware.Metrics(livePath))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Session(d.Store.Session.Get))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, email, key string, now time.Time) (bool, error) {
			_, found, err := d.Store.GetIdempotency(ctx, email, key, now)
			return found, err
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP(),
		"/health", "/metrics", livePath)
	r.Use(rl.Handler())

	useCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		EnablePolicy:    true,
		NoStorePrefixes: []string{api + "/session", api + "/auth", api + "/notifications"},
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Suggestions:   d.Services.Suggestions,
		Accounts:      d.Services.Accounts,
		Notifications: d.Services.Notifications,
		Settings:      d.Services.Settings,
		Insights:      d.Engine,
		Records:       d.Store,
		Events:        d.Broker,
	}, handlers.Options{
		PollInterval:   cfg.PollInterval,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	mountAPI(groupWithPrefix(r, cfg.APIBasePath), h)
}

// mountAPI registers the versioned endpoints. Guards are per route so that
// the public, session and admin surfaces stay visible in one place.
func mountAPI(api *gin.RouterGroup, h *handlers.Handlers) {
	session := middleware.RequireSession()
	admin := middleware.RequireAdmin()

	// Auth and session
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/session", h.GetSession)
	api.PATCH("/session", session, h.UpdateSession)

	// Users
	api.GET("/users", h.ListUsers)
	api.PUT("/users/:email/role", admin, h.SetUserRole)
	api.DELETE("/users", admin, h.DeleteAllUsers)

	// Suggestions
	api.GET("/suggestions", h.ListSuggestions)
	api.POST("/suggestions", session, h.SubmitSuggestion)
	api.DELETE("/suggestions", admin, h.DeleteAllSuggestions)
	api.GET("/suggestions/export.csv", admin, h.ExportSuggestions)
	api.POST("/suggestions/bulk-status", admin, h.BulkSetStatus)
	api.POST("/suggestions/recompute-sentiment", admin, h.RecomputeSentiment)
	api.POST("/suggestions/seed", admin, h.SeedDemo)
	api.GET("/suggestions/:id", h.GetSuggestion)
	api.PATCH("/suggestions/:id", admin, h.UpdateSuggestion)
	api.DELETE("/suggestions/:id", admin, h.DeleteSuggestion)
	api.POST("/suggestions/:id/vote", session, h.Vote)
	api.PUT("/suggestions/:id/status", admin, h.SetStatus)
	api.GET("/suggestions/:id/similar", h.SimilarSuggestions)

	// Comments
	api.GET("/suggestions/:id/comments", h.ListComments)
	api.POST("/suggestions/:id/comments", session, h.CreateComment)
	api.DELETE("/comments/:id", admin, h.DeleteComment)

	// Notifications
	api.GET("/notifications", session, h.ListNotifications)
	api.GET("/notifications/unread-count", session, h.UnreadCount)
	api.POST("/notifications/read-all", session, h.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", session, h.MarkNotificationRead)

	// Settings
	api.GET("/settings", h.GetSettings)
	api.PATCH("/settings", h.UpdateSettings)

	// Insights and meta
	api.GET("/leaderboard", h.Leaderboard)
	api.GET("/analytics", h.Analytics)
	api.GET("/analytics/export.csv", h.ExportAnalytics)
	api.GET("/dashboard", h.Dashboard)
	api.GET("/admin/kpis", admin, h.AdminKPIs)
	api.GET("/meta", h.Meta)
	api.GET("/live", h.Live)
	api.POST("/reset", admin, h.Reset)
}

// useCORS installs gin-contrib/cors. With no allowlist every origin is
// allowed (and ACAO: * is forced even without an Origin header); otherwise
// allowed origins are echoed back.
func useCORS(r *gin.Engine, origins []string) {
	if len(origins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    corsMethods,
			AllowHeaders:    corsHeaders,
			ExposeHeaders:   corsExpose,
			// must remain false with AllowAllOrigins
			AllowCredentials: false,
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
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

// limitBody caps request bodies at maxBytes; larger bodies fail to decode.
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
