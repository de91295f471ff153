package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge-backend/internal/model"
	"concierge-backend/internal/occupant"
)

type createUserRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email" binding:"required,email"`
	Phone        *string `json:"phone"`
	Password     string  `json:"password" binding:"required,min=6"`
	Role         string  `json:"role" binding:"omitempty,oneof=customer staff manager admin"`
	Status       string  `json:"status" binding:"omitempty,oneof=active inactive"`
	DepartmentID *string `json:"departmentId"`
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.occupants.Create(c.Request.Context(), occupant.CreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Role:         model.Role(req.Role),
		Status:       model.OccupantStatus(req.Status),
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "User created successfully", o)
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c *gin.Context) {
	occupants, err := h.occupants.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Users fetched successfully", occupants)
}

type updateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// UpdateUserStatus handles PUT /api/users/:id/status.
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	var req updateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.occupants.SetStatus(c.Request.Context(), c.Param("id"), model.OccupantStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User "+o.Email+" status updated to "+req.Status, o)
}

type updateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=customer staff manager admin"`
}

// UpdateUserRole handles PUT /api/users/:id/role.
func (h *Handler) UpdateUserRole(c *gin.Context) {
	var req updateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.occupants.SetRole(c.Request.Context(), c.Param("id"), model.Role(req.Role))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User "+o.Email+" role updated to "+req.Role, o)
}
