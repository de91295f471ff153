// Package booking manages department reservations. Bookings never touch room
// allocation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"concierge-backend/internal/apperr"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/model"
	"concierge-backend/internal/store"
)

// CreateInput holds the fields of a new booking.
type CreateInput struct {
	OccupantID   string
	DepartmentID string
	Type         model.BookingType
	Date         *time.Time
	TimeSlot     string
	Notes        string
}

// Lifecycle creates bookings and moves them between statuses.
type Lifecycle struct {
	store    store.Store
	recorder audit.Recorder
	log      *zap.Logger
	newID    func() string
}

// NewLifecycle creates a booking Lifecycle.
func NewLifecycle(s store.Store, recorder audit.Recorder, log *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:    s,
		recorder: recorder,
		log:      log,
		newID:    uuid.NewString,
	}
}

// Create stores a pending booking for an existing occupant.
func (l *Lifecycle) Create(ctx context.Context, in CreateInput) (model.Booking, error) {
	if strings.TrimSpace(in.DepartmentID) == "" {
		return model.Booking{}, apperr.Invalid("departmentId is required")
	}
	if _, err := l.store.GetOccupant(ctx, in.OccupantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Booking{}, apperr.NotFound("user not found")
		}
		return model.Booking{}, apperr.Internal("create booking", err)
	}

	b := model.Booking{
		ID:           l.newID(),
		OccupantID:   in.OccupantID,
		DepartmentID: in.DepartmentID,
		Type:         in.Type,
		Date:         in.Date,
		TimeSlot:     in.TimeSlot,
		Notes:        in.Notes,
		Status:       model.BookingPending,
	}
	if err := l.store.CreateBooking(ctx, &b); err != nil {
		l.log.Error("failed to create booking", zap.String("occupant_id", in.OccupantID), zap.Error(err))
		return model.Booking{}, apperr.Internal("create booking", err)
	}

	l.recorder.Record(b.OccupantID, fmt.Sprintf("Created booking for department %s", b.DepartmentID), map[string]any{
		"booking_id":   b.ID,
		"booking_type": string(b.Type),
	})
	return b, nil
}

// UpdateStatus sets the booking's status. Any status value is accepted; the
// caller decides which transitions are allowed.
func (l *Lifecycle) UpdateStatus(ctx context.Context, bookingID string, status model.BookingStatus) (model.Booking, error) {
	if err := l.store.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Booking{}, apperr.NotFound("booking not found")
		}
		l.log.Error("failed to update booking status", zap.String("booking_id", bookingID), zap.Error(err))
		return model.Booking{}, apperr.Internal("update booking status", err)
	}

	b, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		return model.Booking{}, apperr.Internal("reload booking", err)
	}

	l.recorder.Record(adminActor, fmt.Sprintf("Updated booking %s status to %s", b.ID, b.Status), map[string]any{
		"booking_id":  b.ID,
		"occupant_id": b.OccupantID,
	})
	return b, nil
}

// List returns all bookings, newest first.
func (l *Lifecycle) List(ctx context.Context) ([]model.Booking, error) {
	bookings, err := l.store.ListBookings(ctx)
	if err != nil {
		return nil, apperr.Internal("list bookings", err)
	}
	return bookings, nil
}

const adminActor = "Admin"
