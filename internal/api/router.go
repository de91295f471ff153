package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"concierge-backend/config"
	"concierge-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, h *Handler, log *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestLogger(log), mw.Recovery(log))

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := cfg.CacheTTL()
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Audit entries land asynchronously, so this listing is never cached.
		api.GET("/activities", h.ListActivities)

		cached := api.Group("", caching)
		cached.POST("/rooms", h.CreateRoom)
		cached.GET("/rooms", h.ListRooms)
		cached.POST("/rooms/assign", h.AssignRoom)
		cached.POST("/rooms/unassign", h.UnassignRoom)
		cached.GET("/rooms/available", h.ListAvailableRooms)
		cached.GET("/rooms/users-without-rooms", h.ListUsersWithoutRooms)

		cached.POST("/users", h.CreateUser)
		cached.GET("/users", h.ListUsers)
		cached.PUT("/users/:id/status", h.UpdateUserStatus)
		cached.PUT("/users/:id/role", h.UpdateUserRole)

		cached.POST("/bookings", h.CreateBooking)
		cached.GET("/bookings", h.ListBookings)
		cached.PUT("/bookings/:id/status", h.UpdateBookingStatus)
	}

	return r
}
