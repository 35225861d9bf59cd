package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/resource-reservation/internal/config"
	"github.com/iliyamo/resource-reservation/internal/handler"
	"github.com/iliyamo/resource-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterCatalog registers the unauthenticated browse endpoints.  Catalog
// reads are immutable between administrative updates, so responses are
// served through the Redis cache when one is configured.
func RegisterCatalog(e *echo.Echo, res *handler.ResourceHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := middleware.NewRedisCache(cacheCfg, rdb)
	e.GET("/v1/resources", res.List, cached)
	e.GET("/v1/resources/:id", res.Get, cached)
}

// RegisterReservations registers the authenticated reservation endpoints.
// Quote, booking and lifecycle routes require a valid access token; the
// activate/complete/sweep routes additionally require the AGENT role.
// All authenticated traffic, agent routes included, runs through the Redis
// token bucket when configured.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, sweep echo.HandlerFunc, cfg *config.Config, rdb *redis.Client) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole("CUSTOMER", "AGENT"))
	auth.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))

	auth.POST("/quotes", h.Quote)
	auth.POST("/reservations", h.Book)
	auth.GET("/reservations/:id", h.Get)
	auth.PATCH("/reservations/:id", h.Modify)
	auth.POST("/reservations/:id/confirm", h.Confirm)
	auth.POST("/reservations/:id/cancel", h.Cancel)
	auth.GET("/my-reservations", h.List)

	agent := e.Group("/v1")
	agent.Use(middleware.JWTAuth(cfg.JWTSecret))
	agent.Use(middleware.RequireRole("AGENT"))
	agent.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))
	agent.POST("/reservations/:id/activate", h.Activate)
	agent.POST("/reservations/:id/complete", h.Complete)
	agent.POST("/admin/sweep", sweep)
}
