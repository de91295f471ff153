package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingType is the service category a booking is made for.
type BookingType string

const (
	BookingRestaurant BookingType = "restaurant"
	BookingSpa        BookingType = "spa"
)

// Booking is a reservation of a department's service by an occupant.
type Booking struct {
	ID           string        `gorm:"primaryKey;size:64" json:"id"`
	OccupantID   string        `gorm:"size:64;not null;index" json:"userId"`
	DepartmentID string        `gorm:"size:64;not null;index" json:"departmentId"`
	Type         BookingType   `gorm:"size:32" json:"bookingType"`
	Date         *time.Time    `json:"date,omitempty"`
	TimeSlot     string        `gorm:"size:64" json:"timeSlot"`
	Status       BookingStatus `gorm:"size:16;not null;default:pending" json:"status"`
	Notes        string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
