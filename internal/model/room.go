package model

import "time"

// RoomStatus is the binary occupancy state of a room.
type RoomStatus string

const (
	RoomAvailable RoomStatus = "available"
	RoomOccupied  RoomStatus = "occupied"
)

// Room is an allocatable physical unit.
// Status is RoomOccupied exactly when AssignedOccupantID is set.
type Room struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	Number             string     `gorm:"uniqueIndex;size:32;not null" json:"roomNumber"`
	Floor              int        `json:"floor"`
	AssignedOccupantID *string    `gorm:"uniqueIndex;size:64" json:"assignedUser"`
	Status             RoomStatus `gorm:"size:16;not null;default:available;index" json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}
