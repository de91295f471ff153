package store

import (
	"errors"

	"concierge-backend/internal/model"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate record")

// RoomFilter narrows ListRooms. A zero filter returns every room.
type RoomFilter struct {
	Status model.RoomStatus
}

// OccupantFilter narrows ListOccupants.
type OccupantFilter struct {
	UnassignedOnly bool
}
