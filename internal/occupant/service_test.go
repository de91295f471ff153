package occupant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"concierge-backend/config"
	"concierge-backend/internal/apperr"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/db"
	"concierge-backend/internal/model"
	"concierge-backend/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Store, *[]string) {
	t.Helper()
	gormDB, err := db.Init(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	s := store.NewGormStore(gormDB)

	var actions []string
	svc := NewService(s, audit.RecorderFunc(func(actor, action string, _ map[string]any) {
		actions = append(actions, actor+": "+action)
	}), zaptest.NewLogger(t))
	svc.cost = bcrypt.MinCost
	svc.newID = func() string { return "u1" }
	return svc, s, &actions
}

func TestService_Create(t *testing.T) {
	svc, _, actions := newTestService(t)

	o, err := svc.Create(context.Background(), CreateInput{
		Name:     "Ana Guest",
		Email:    "  Ana@Example.com ",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", o.ID)
	assert.Equal(t, "ana@example.com", o.Email)
	assert.Equal(t, model.RoleCustomer, o.Role)
	assert.Equal(t, model.OccupantActive, o.Status)
	assert.Nil(t, o.AssignedRoom)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte("s3cret")))

	assert.Equal(t, []string{"Admin: Created new user ana@example.com"}, *actions)
}

func TestService_Create_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Email: "ana@example.com", Password: "x"})
	require.NoError(t, err)

	svc.newID = func() string { return "u2" }
	_, err = svc.Create(ctx, CreateInput{Email: "ANA@example.com", Password: "y"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Create(ctx, CreateInput{Email: "", Password: "y"})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))

	_, err = svc.Create(ctx, CreateInput{Email: "bo@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestService_Create_DuplicateOnInsert(t *testing.T) {
	svc, s, actions := newTestService(t)
	ctx := context.Background()

	phone := "+1 555 0100"
	_, err := svc.Create(ctx, CreateInput{Email: "ana@example.com", Phone: &phone, Password: "x"})
	require.NoError(t, err)

	// The email check passes but the insert hits a unique index, as it
	// would when two creates race.
	svc.newID = func() string { return "u2" }
	_, err = svc.Create(ctx, CreateInput{Email: "bo@example.com", Phone: &phone, Password: "y"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Len(t, *actions, 1)

	_, err = s.FindOccupantByEmail(ctx, "bo@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_SetStatusAndRole(t *testing.T) {
	svc, _, actions := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Email: "ana@example.com", Password: "x"})
	require.NoError(t, err)

	o, err := svc.SetStatus(ctx, "u1", model.OccupantInactive)
	require.NoError(t, err)
	assert.Equal(t, model.OccupantInactive, o.Status)

	o, err = svc.SetRole(ctx, "u1", model.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, o.Role)

	_, err = svc.SetRole(ctx, "ghost", model.RoleAdmin)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Equal(t, []string{
		"Admin: Created new user ana@example.com",
		"Admin: Updated user ana@example.com status to inactive",
		"Admin: Updated user ana@example.com role to staff",
	}, *actions)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
