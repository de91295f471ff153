// Package allocation maintains the exclusive link between an occupant and a
// room.
//
// Assign and Unassign run inside one transaction and write through the
// store's guarded Claim/Release operations, so two concurrent requests can
// never both take the same room or the same occupant. A guard that no longer
// holds at write time is reported as a Conflict and the transaction rolls
// back. The audit entry is emitted only after commit.
package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"concierge-backend/internal/apperr"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/model"
	"concierge-backend/internal/parse"
	"concierge-backend/internal/store"
)

// Actor used for administrative actions without an authenticated principal.
const adminActor = "Admin"

// Assignment is the state of both sides after a successful Assign.
type Assignment struct {
	Occupant model.Occupant `json:"user"`
	Room     model.Room     `json:"room"`
}

// Release is the result of a successful Unassign. Room is nil when the
// occupant pointed at a room that no longer exists.
type Release struct {
	Occupant     model.Occupant `json:"user"`
	Room         *model.Room    `json:"room,omitempty"`
	PreviousRoom string         `json:"previousRoom"`
}

// Manager performs assign and unassign transitions.
type Manager struct {
	store    store.Store
	recorder audit.Recorder
	log      *zap.Logger
	outcomes *prometheus.CounterVec
}

// NewManager creates a Manager. reg may be nil.
func NewManager(s store.Store, recorder audit.Recorder, log *zap.Logger, reg prometheus.Registerer) *Manager {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "concierge",
		Subsystem: "allocation",
		Name:      "operations_total",
		Help:      "Allocation operations by operation and outcome.",
	}, []string{"operation", "outcome"})
	if reg != nil {
		reg.MustRegister(outcomes)
	}
	return &Manager{store: s, recorder: recorder, log: log, outcomes: outcomes}
}

func (m *Manager) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
	}
	m.outcomes.WithLabelValues(op, outcome).Inc()
}

// Assign gives roomNumber to occupantID. roomNumber is looked up in its
// normalized form, the same key CreateRoom stores.
//
// Checks, in order: occupant exists, occupant holds no room, room exists,
// room is available.
func (m *Manager) Assign(ctx context.Context, occupantID, roomNumber string) (result Assignment, err error) {
	defer func() { m.observe("assign", err) }()

	err = m.store.Transaction(ctx, func(tx store.Store) error {
		occupant, err := tx.GetOccupant(ctx, occupantID)
		if err != nil {
			return lookupError(err, "customer not found")
		}
		if occupant.AssignedRoom != nil {
			return apperr.Conflict("user already has room number %s assigned", *occupant.AssignedRoom)
		}

		room, err := tx.GetRoom(ctx, parse.NormalizeRoomNumber(roomNumber))
		if err != nil {
			return lookupError(err, "room not found")
		}
		if room.Status == model.RoomOccupied || room.AssignedOccupantID != nil {
			return apperr.Conflict("room %s is already occupied", room.Number)
		}

		ok, err := tx.ClaimOccupant(ctx, occupant.ID, room.Number)
		if err != nil {
			return apperr.Internal("assign room", err)
		}
		if !ok {
			return apperr.Conflict("user or room %s was assigned concurrently", room.Number)
		}

		ok, err = tx.ClaimRoom(ctx, room.Number, occupant.ID)
		if err != nil {
			return apperr.Internal("assign room", err)
		}
		if !ok {
			return apperr.Conflict("room %s is already occupied", room.Number)
		}

		occupant.AssignedRoom = &room.Number
		room.AssignedOccupantID = &occupant.ID
		room.Status = model.RoomOccupied
		result = Assignment{Occupant: occupant, Room: room}
		return nil
	})
	if err != nil {
		m.logFailure("assign", err, zap.String("occupant_id", occupantID), zap.String("room_number", roomNumber))
		return Assignment{}, err
	}

	m.recorder.Record(result.Occupant.Email, fmt.Sprintf("Assigned room %s", result.Room.Number), map[string]any{
		"occupant_id": result.Occupant.ID,
		"room_number": result.Room.Number,
	})
	return result, nil
}

// Unassign releases the room held by occupantID.
//
// When the referenced room no longer exists, or is recorded against a
// different occupant, only the occupant side is cleared and the drift is
// logged.
func (m *Manager) Unassign(ctx context.Context, occupantID string) (result Release, err error) {
	defer func() { m.observe("unassign", err) }()

	err = m.store.Transaction(ctx, func(tx store.Store) error {
		occupant, err := tx.GetOccupant(ctx, occupantID)
		if err != nil {
			return lookupError(err, "user not found")
		}
		if occupant.AssignedRoom == nil {
			return apperr.Conflict("no room assigned")
		}
		previous := *occupant.AssignedRoom

		var released *model.Room
		room, err := tx.GetRoom(ctx, previous)
		switch {
		case errors.Is(err, store.ErrNotFound):
			m.log.Warn("assigned room missing during unassign, clearing occupant only",
				zap.String("occupant_id", occupant.ID), zap.String("room_number", previous))
		case err != nil:
			return apperr.Internal("unassign room", err)
		default:
			ok, err := tx.ReleaseRoom(ctx, room.Number, occupant.ID)
			if err != nil {
				return apperr.Internal("unassign room", err)
			}
			if ok {
				room.AssignedOccupantID = nil
				room.Status = model.RoomAvailable
				released = &room
			} else {
				m.log.Warn("room not held by occupant during unassign, leaving room untouched",
					zap.String("occupant_id", occupant.ID), zap.String("room_number", previous))
			}
		}

		ok, err := tx.ReleaseOccupant(ctx, occupant.ID, previous)
		if err != nil {
			return apperr.Internal("unassign room", err)
		}
		if !ok {
			return apperr.Conflict("no room assigned")
		}

		occupant.AssignedRoom = nil
		result = Release{Occupant: occupant, Room: released, PreviousRoom: previous}
		return nil
	})
	if err != nil {
		m.logFailure("unassign", err, zap.String("occupant_id", occupantID))
		return Release{}, err
	}

	m.recorder.Record(result.Occupant.Email, fmt.Sprintf("Unassigned from room %s", result.PreviousRoom), map[string]any{
		"occupant_id": result.Occupant.ID,
		"room_number": result.PreviousRoom,
	})
	return result, nil
}

// CreateRoom registers a new available room.
func (m *Manager) CreateRoom(ctx context.Context, rawNumber string) (model.Room, error) {
	parsed, err := parse.ParseRoomNumber(rawNumber)
	if err != nil {
		return model.Room{}, apperr.Invalid("invalid room number: %v", err)
	}

	if _, err := m.store.GetRoom(ctx, parsed.Number); err == nil {
		return model.Room{}, apperr.Conflict("room number already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Room{}, apperr.Internal("create room", err)
	}

	// A concurrent create can still win between the lookup and the insert.
	room := model.Room{Number: parsed.Number, Floor: parsed.Floor, Status: model.RoomAvailable}
	if err := m.store.CreateRoom(ctx, &room); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.Room{}, apperr.Conflict("room number already exists")
		}
		return model.Room{}, apperr.Internal("create room", err)
	}

	m.recorder.Record(adminActor, fmt.Sprintf("Created room number %s", room.Number), map[string]any{
		"room_number": room.Number,
		"floor":       room.Floor,
	})
	return room, nil
}

// ListRooms returns all rooms, or only those in status when it is set.
func (m *Manager) ListRooms(ctx context.Context, status model.RoomStatus) ([]model.Room, error) {
	rooms, err := m.store.ListRooms(ctx, store.RoomFilter{Status: status})
	if err != nil {
		return nil, apperr.Internal("list rooms", err)
	}
	return rooms, nil
}

// ListAvailableRooms returns rooms that can be assigned.
func (m *Manager) ListAvailableRooms(ctx context.Context) ([]model.Room, error) {
	return m.ListRooms(ctx, model.RoomAvailable)
}

// ListUnassignedOccupants returns occupants holding no room.
func (m *Manager) ListUnassignedOccupants(ctx context.Context) ([]model.Occupant, error) {
	occupants, err := m.store.ListOccupants(ctx, store.OccupantFilter{UnassignedOnly: true})
	if err != nil {
		return nil, apperr.Internal("list unassigned occupants", err)
	}
	return occupants, nil
}

func lookupError(err error, notFoundMessage string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s", notFoundMessage)
	}
	return apperr.Internal("lookup", err)
}

func (m *Manager) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	if apperr.KindOf(err) == apperr.KindInternal {
		m.log.Error("allocation failed", fields...)
		return
	}
	m.log.Info("allocation rejected", fields...)
}
