// Package occupant administers occupant accounts. It never changes room
// assignment, which belongs to the allocation package.
package occupant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"concierge-backend/internal/apperr"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/model"
	"concierge-backend/internal/store"
)

const adminActor = "Admin"

// CreateInput holds the fields of a new occupant.
type CreateInput struct {
	Name         string
	Email        string
	Phone        *string
	Password     string
	Role         model.Role
	Status       model.OccupantStatus
	DepartmentID *string
}

// Service creates and updates occupants.
type Service struct {
	store    store.Store
	recorder audit.Recorder
	log      *zap.Logger
	cost     int
	newID    func() string
}

// NewService creates an occupant Service.
func NewService(s store.Store, recorder audit.Recorder, log *zap.Logger) *Service {
	return &Service{
		store:    s,
		recorder: recorder,
		log:      log,
		cost:     bcrypt.DefaultCost,
		newID:    uuid.NewString,
	}
}

// Create registers an occupant. The email is trimmed and lower-cased and must
// be unused.
func (s *Service) Create(ctx context.Context, in CreateInput) (model.Occupant, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return model.Occupant{}, apperr.Invalid("email is required")
	}
	if in.Password == "" {
		return model.Occupant{}, apperr.Invalid("password is required")
	}
	role := in.Role
	if role == "" {
		role = model.RoleCustomer
	}
	status := in.Status
	if status == "" {
		status = model.OccupantActive
	}

	if _, err := s.store.FindOccupantByEmail(ctx, email); err == nil {
		return model.Occupant{}, apperr.Conflict("user with this email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Occupant{}, apperr.Internal("create user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return model.Occupant{}, apperr.Internal("hash password", err)
	}

	o := model.Occupant{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
		DepartmentID: in.DepartmentID,
	}
	if err := s.store.CreateOccupant(ctx, &o); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.Occupant{}, apperr.Conflict("user with this email or phone already exists")
		}
		s.log.Error("failed to create occupant", zap.String("email", email), zap.Error(err))
		return model.Occupant{}, apperr.Internal("create user", err)
	}

	s.recorder.Record(adminActor, fmt.Sprintf("Created new user %s", o.Email), map[string]any{
		"occupant_id": o.ID,
		"role":        string(o.Role),
	})
	return o, nil
}

// List returns all occupants.
func (s *Service) List(ctx context.Context) ([]model.Occupant, error) {
	occupants, err := s.store.ListOccupants(ctx, store.OccupantFilter{})
	if err != nil {
		return nil, apperr.Internal("list users", err)
	}
	return occupants, nil
}

// SetStatus activates or deactivates an occupant.
func (s *Service) SetStatus(ctx context.Context, id string, status model.OccupantStatus) (model.Occupant, error) {
	return s.update(ctx, id, map[string]any{"status": status}, "status", string(status))
}

// SetRole changes an occupant's role.
func (s *Service) SetRole(ctx context.Context, id string, role model.Role) (model.Occupant, error) {
	return s.update(ctx, id, map[string]any{"role": role}, "role", string(role))
}

func (s *Service) update(ctx context.Context, id string, fields map[string]any, field, value string) (model.Occupant, error) {
	if err := s.store.UpdateOccupantFields(ctx, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Occupant{}, apperr.NotFound("user not found")
		}
		s.log.Error("failed to update occupant", zap.String("occupant_id", id), zap.String("field", field), zap.Error(err))
		return model.Occupant{}, apperr.Internal("update user", err)
	}

	o, err := s.store.GetOccupant(ctx, id)
	if err != nil {
		return model.Occupant{}, apperr.Internal("reload user", err)
	}

	s.recorder.Record(adminActor, fmt.Sprintf("Updated user %s %s to %s", o.Email, field, value), map[string]any{
		"occupant_id": o.ID,
	})
	return o, nil
}
