package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"concierge-backend/internal/booking"
	"concierge-backend/internal/model"
)

type createBookingRequest struct {
	UserID       string     `json:"userId" binding:"required"`
	DepartmentID string     `json:"departmentId" binding:"required"`
	BookingType  string     `json:"bookingType" binding:"required,oneof=restaurant spa"`
	Date         *time.Time `json:"date"`
	TimeSlot     string     `json:"timeSlot"`
	Notes        string     `json:"notes"`
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateInput{
		OccupantID:   req.UserID,
		DepartmentID: req.DepartmentID,
		Type:         model.BookingType(req.BookingType),
		Date:         req.Date,
		TimeSlot:     req.TimeSlot,
		Notes:        req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Booking created successfully!", b)
}

// ListBookings handles GET /api/bookings.
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Bookings fetched successfully", bookings)
}

type updateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled"`
}

// UpdateBookingStatus handles PUT /api/bookings/:id/status.
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.bookings.UpdateStatus(c.Request.Context(), c.Param("id"), model.BookingStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Booking "+b.ID+" status updated to "+req.Status, b)
}
