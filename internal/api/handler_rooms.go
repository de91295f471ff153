package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge-backend/internal/model"
)

type createRoomRequest struct {
	RoomNumber string `json:"roomNumber" binding:"required"`
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), req.RoomNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Room created successfully", room)
}

type listRoomsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=available occupied"`
}

// ListRooms handles GET /api/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	var q listRoomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	rooms, err := h.rooms.ListRooms(c.Request.Context(), model.RoomStatus(q.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Rooms fetched successfully", rooms)
}

type assignRoomRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
	RoomNumber string `json:"roomNumber" binding:"required"`
}

// AssignRoom handles POST /api/rooms/assign.
func (h *Handler) AssignRoom(c *gin.Context) {
	var req assignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.rooms.Assign(c.Request.Context(), req.CustomerID, req.RoomNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Room assigned successfully", res)
}

type unassignRoomRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
}

// UnassignRoom handles POST /api/rooms/unassign.
func (h *Handler) UnassignRoom(c *gin.Context) {
	var req unassignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.rooms.Unassign(c.Request.Context(), req.CustomerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Room unassigned successfully", res)
}

// ListAvailableRooms handles GET /api/rooms/available.
func (h *Handler) ListAvailableRooms(c *gin.Context) {
	rooms, err := h.rooms.ListAvailableRooms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Available rooms fetched successfully", rooms)
}

// ListUsersWithoutRooms handles GET /api/rooms/users-without-rooms.
func (h *Handler) ListUsersWithoutRooms(c *gin.Context) {
	occupants, err := h.rooms.ListUnassignedOccupants(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Users without rooms fetched successfully", occupants)
}
