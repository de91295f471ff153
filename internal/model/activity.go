package model

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is the structured copy of an audit entry. Rows are append-only.
type Activity struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	Actor     string            `gorm:"size:256;not null;index" json:"user"`
	Action    string            `gorm:"type:text;not null" json:"action"`
	Details   datatypes.JSONMap `json:"details,omitempty"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
	CreatedAt time.Time         `json:"createdAt"`
}

// All returns every model managed by migrations.
func All() []any {
	return []any{&Occupant{}, &Room{}, &Booking{}, &Activity{}}
}
