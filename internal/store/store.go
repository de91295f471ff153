package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"concierge-backend/internal/model"
)

// Store defines the interface for all database operations.
//
// The Claim* and Release* methods are compare-and-save operations: they only
// write when the guarded column still holds the expected value and report
// whether a row was changed. Callers run them inside Transaction so both
// sides of an assignment commit or roll back together.
type Store interface {
	DB() *gorm.DB
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateOccupant(ctx context.Context, o *model.Occupant) error
	GetOccupant(ctx context.Context, id string) (model.Occupant, error)
	FindOccupantByEmail(ctx context.Context, email string) (model.Occupant, error)
	ListOccupants(ctx context.Context, filter OccupantFilter) ([]model.Occupant, error)
	UpdateOccupantFields(ctx context.Context, id string, fields map[string]any) error

	CreateRoom(ctx context.Context, r *model.Room) error
	GetRoom(ctx context.Context, number string) (model.Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]model.Room, error)

	ClaimOccupant(ctx context.Context, occupantID, roomNumber string) (bool, error)
	ClaimRoom(ctx context.Context, roomNumber, occupantID string) (bool, error)
	ReleaseOccupant(ctx context.Context, occupantID, roomNumber string) (bool, error)
	ReleaseRoom(ctx context.Context, roomNumber, occupantID string) (bool, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error

	CreateActivity(ctx context.Context, a *model.Activity) error
	ListActivities(ctx context.Context, limit int) ([]model.Activity, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to a single database transaction.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func createErr(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}

// --- occupants ---

func (s *gormStore) CreateOccupant(ctx context.Context, o *model.Occupant) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return createErr(err, "occupant "+o.Email)
	}
	return nil
}

func (s *gormStore) GetOccupant(ctx context.Context, id string) (model.Occupant, error) {
	var o model.Occupant
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return model.Occupant{}, notFound(err, "occupant "+id)
	}
	return o, nil
}

func (s *gormStore) FindOccupantByEmail(ctx context.Context, email string) (model.Occupant, error) {
	var o model.Occupant
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&o).Error; err != nil {
		return model.Occupant{}, notFound(err, "occupant "+email)
	}
	return o, nil
}

func (s *gormStore) ListOccupants(ctx context.Context, filter OccupantFilter) ([]model.Occupant, error) {
	q := s.db.WithContext(ctx).Order("created_at, id")
	if filter.UnassignedOnly {
		q = q.Where("assigned_room IS NULL")
	}
	var occupants []model.Occupant
	if err := q.Find(&occupants).Error; err != nil {
		return nil, fmt.Errorf("failed to list occupants: %w", err)
	}
	return occupants, nil
}

// UpdateOccupantFields updates profile columns. Allocation columns are
// rejected; they change only through the Claim/Release operations.
func (s *gormStore) UpdateOccupantFields(ctx context.Context, id string, fields map[string]any) error {
	if _, ok := fields["assigned_room"]; ok {
		return fmt.Errorf("assigned_room can only change through allocation")
	}
	res := s.db.WithContext(ctx).Model(&model.Occupant{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update occupant %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("occupant %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- rooms ---

func (s *gormStore) CreateRoom(ctx context.Context, r *model.Room) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return createErr(err, "room "+r.Number)
	}
	return nil
}

func (s *gormStore) GetRoom(ctx context.Context, number string) (model.Room, error) {
	var r model.Room
	if err := s.db.WithContext(ctx).Where("number = ?", number).First(&r).Error; err != nil {
		return model.Room{}, notFound(err, "room "+number)
	}
	return r, nil
}

func (s *gormStore) ListRooms(ctx context.Context, filter RoomFilter) ([]model.Room, error) {
	q := s.db.WithContext(ctx).Order("number")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var rooms []model.Room
	if err := q.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// --- allocation compare-and-save ---

// ClaimOccupant sets the occupant's room only if it currently holds none and
// no other occupant holds roomNumber.
func (s *gormStore) ClaimOccupant(ctx context.Context, occupantID, roomNumber string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Occupant{}).
		Where("id = ? AND assigned_room IS NULL", occupantID).
		Update("assigned_room", roomNumber)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		// another occupant already holds roomNumber
		return false, nil
	}
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim occupant %s: %w", occupantID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ClaimRoom marks the room occupied by occupantID only if it is still available.
func (s *gormStore) ClaimRoom(ctx context.Context, roomNumber, occupantID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("number = ? AND status = ? AND assigned_occupant_id IS NULL", roomNumber, model.RoomAvailable).
		Updates(map[string]any{
			"assigned_occupant_id": occupantID,
			"status":               model.RoomOccupied,
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim room %s: %w", roomNumber, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseOccupant clears the occupant's room only if it still holds roomNumber.
func (s *gormStore) ReleaseOccupant(ctx context.Context, occupantID, roomNumber string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Occupant{}).
		Where("id = ? AND assigned_room = ?", occupantID, roomNumber).
		Update("assigned_room", nil)
	if res.Error != nil {
		return false, fmt.Errorf("failed to release occupant %s: %w", occupantID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseRoom frees the room only if it is still held by occupantID.
func (s *gormStore) ReleaseRoom(ctx context.Context, roomNumber, occupantID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Room{}).
		Where("number = ? AND assigned_occupant_id = ?", roomNumber, occupantID).
		Updates(map[string]any{
			"assigned_occupant_id": nil,
			"status":               model.RoomAvailable,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to release room %s: %w", roomNumber, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// --- bookings ---

func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return model.Booking{}, notFound(err, "booking "+id)
	}
	return b, nil
}

func (s *gormStore) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- activities ---

func (s *gormStore) CreateActivity(ctx context.Context, a *model.Activity) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (s *gormStore) ListActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	var activities []model.Activity
	q := s.db.WithContext(ctx).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}
