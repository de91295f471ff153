package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"concierge-backend/internal/allocation"
	"concierge-backend/internal/apperr"
	"concierge-backend/internal/booking"
	"concierge-backend/internal/occupant"
	"concierge-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	rooms     *allocation.Manager
	bookings  *booking.Lifecycle
	occupants *occupant.Service
	store     store.Store
	log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(rooms *allocation.Manager, bookings *booking.Lifecycle, occupants *occupant.Service, s store.Store, log *zap.Logger) *Handler {
	return &Handler{
		rooms:     rooms,
		bookings:  bookings,
		occupants: occupants,
		store:     s,
		log:       log,
	}
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"message": message, "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fail maps a service error to its HTTP status. Internal errors are logged
// with their cause and reported with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	default:
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// Healthz reports liveness and database reachability.
func (h *Handler) Healthz(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
