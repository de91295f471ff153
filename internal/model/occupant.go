package model

import "time"

// Role is the administrative role of an occupant.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// OccupantStatus marks whether an occupant account is in use.
type OccupantStatus string

const (
	OccupantActive   OccupantStatus = "active"
	OccupantInactive OccupantStatus = "inactive"
)

// Occupant is a guest or staff member who may hold at most one room.
type Occupant struct {
	ID           string         `gorm:"primaryKey;size:64" json:"id"`
	Name         string         `gorm:"size:128" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Phone        *string        `gorm:"uniqueIndex;size:32" json:"phone"`
	PasswordHash string         `gorm:"size:128;not null" json:"-"`
	Role         Role           `gorm:"size:16;not null;default:customer" json:"role"`
	Status       OccupantStatus `gorm:"size:16;not null;default:active" json:"status"`
	DepartmentID *string        `gorm:"size:64" json:"departmentId"`

	// AssignedRoom is the room number currently held, nil when unassigned.
	AssignedRoom *string `gorm:"uniqueIndex;size:32" json:"roomNumber"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
