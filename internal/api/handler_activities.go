package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge-backend/internal/apperr"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 500
)

type listActivitiesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// ListActivities handles GET /api/activities, newest first.
func (h *Handler) ListActivities(c *gin.Context) {
	var q listActivitiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	switch {
	case q.Limit == 0:
		q.Limit = defaultActivityLimit
	case q.Limit > maxActivityLimit:
		q.Limit = maxActivityLimit
	}

	activities, err := h.store.ListActivities(c.Request.Context(), q.Limit)
	if err != nil {
		h.fail(c, apperr.Internal("list activities", err))
		return
	}
	respond(c, http.StatusOK, "Activities fetched successfully", activities)
}
