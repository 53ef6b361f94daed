// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/study-room-reservation/internal/config"
	"github.com/iliyamo/study-room-reservation/internal/handler"
	"github.com/iliyamo/study-room-reservation/internal/middleware"
)

// Handlers bundles everything the route table needs. All fields are
// required except RDB, which may be nil when Redis is unavailable; the
// cache and rate-limit middleware then pass requests straight through.
type Handlers struct {
	Auth        *handler.AuthHandler
	Rooms       *handler.RoomHandler
	Reservation *handler.ReservationHandler
	Reviews     *handler.ReviewHandler

	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	RDB       *redis.Client
}

// Register attaches every route to the Echo instance.
//
// Surface:
//
//	public:   /healthz, room catalog and room reviews (cached GETs)
//	/v1/auth: register, login, refresh, logout
//	/v1:      JWT-protected reservation, review and profile routes
//	admin:    room mutations, restricted to the ADMIN role
func Register(e *echo.Echo, h *Handlers) {
	e.GET("/healthz", handler.Health)

	// Browse endpoints for guests. Responses are cached in Redis;
	// room mutations invalidate the affected paths.
	pub := e.Group("/v1")
	pub.Use(middleware.RateLimit(h.RateLimit, h.RDB))
	pub.GET("/rooms", h.Rooms.List, middleware.ResponseCache(h.Cache, h.RDB))
	pub.GET("/rooms/:id", h.Rooms.Get, middleware.ResponseCache(h.Cache, h.RDB))
	pub.GET("/rooms/:id/reviews", h.Reviews.ListByRoom)

	// Session endpoints need no access token, only rate limiting.
	authGroup := e.Group("/v1/auth")
	authGroup.Use(middleware.RateLimit(h.RateLimit, h.RDB))
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(h.JWTSecret))
	v1.Use(middleware.RequireRole("USER", "ADMIN"))
	v1.Use(middleware.RateLimit(h.RateLimit, h.RDB))

	v1.GET("/me", h.Auth.Me)

	v1.POST("/reservations", h.Reservation.Create)
	v1.GET("/reservations/me", h.Reservation.ListMine)
	v1.PATCH("/reservations/:id", h.Reservation.Update)
	v1.DELETE("/reservations/:id", h.Reservation.Cancel)

	v1.POST("/reviews", h.Reviews.Create)
	v1.GET("/reviews/me", h.Reviews.ListMine)
	v1.DELETE("/reviews/:id", h.Reviews.Delete)

	// Catalog management is admin-only.
	admin := e.Group("/v1/rooms")
	admin.Use(middleware.JWTAuth(h.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("", h.Rooms.Create)
	admin.PATCH("/:id", h.Rooms.Update)
	admin.DELETE("/:id", h.Rooms.Delete)
}
