package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"concierge-backend/config"
	"concierge-backend/internal/allocation"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/booking"
	"concierge-backend/internal/db"
	"concierge-backend/internal/model"
	"concierge-backend/internal/occupant"
	"concierge-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	store   store.Store
	mu      sync.Mutex
	actions []string
}

func (e *testEnv) recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.actions...)
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gormDB, err := db.Init(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	env := &testEnv{store: store.NewGormStore(gormDB)}
	rec := audit.RecorderFunc(func(actor, action string, _ map[string]any) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.actions = append(env.actions, actor+": "+action)
	})

	log := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	h := NewHandler(
		allocation.NewManager(env.store, rec, log, reg),
		booking.NewLifecycle(env.store, rec, log),
		occupant.NewService(env.store, rec, log),
		env.store,
		log,
	)
	env.router = NewRouter(config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 30}, h, log, reg)
	return env
}

func (e *testEnv) seedOccupant(t *testing.T, id string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.store.CreateOccupant(t.Context(), &model.Occupant{ID: id, Email: id + "@example.com", PasswordHash: string(hash)}))
}

func (e *testEnv) seedRoom(t *testing.T, number string) {
	t.Helper()
	require.NoError(t, e.store.CreateRoom(t.Context(), &model.Room{Number: number, Floor: 1, Status: model.RoomAvailable}))
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestAssignRoom(t *testing.T) {
	testCases := []struct {
		name           string
		setup          func(t *testing.T, e *testEnv)
		body           any
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Assign available room",
			setup: func(t *testing.T, e *testEnv) {
				e.seedOccupant(t, "u1")
				e.seedRoom(t, "101")
			},
			body:           gin.H{"customerId": "u1", "roomNumber": "101"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing fields",
			setup:          func(t *testing.T, e *testEnv) {},
			body:           gin.H{"customerId": "u1"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown customer",
			setup:          func(t *testing.T, e *testEnv) { e.seedRoom(t, "101") },
			body:           gin.H{"customerId": "ghost", "roomNumber": "101"},
			expectedStatus: http.StatusNotFound,
			expectedError:  "customer not found",
		},
		{
			name: "Room already occupied",
			setup: func(t *testing.T, e *testEnv) {
				e.seedOccupant(t, "u1")
				e.seedOccupant(t, "u2")
				e.seedRoom(t, "101")
				require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/rooms/assign", gin.H{"customerId": "u2", "roomNumber": "101"}).Code)
			},
			body:           gin.H{"customerId": "u1", "roomNumber": "101"},
			expectedStatus: http.StatusConflict,
			expectedError:  "room 101 is already occupied",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := setupRouter(t)
			tc.setup(t, e)

			w := e.do(http.MethodPost, "/api/rooms/assign", tc.body)
			assert.Equal(t, tc.expectedStatus, w.Code, w.Body.String())
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, decode(t, w).Error)
			}
		})
	}
}

func TestAssignUnassignFlow(t *testing.T) {
	e := setupRouter(t)
	e.seedOccupant(t, "u1")
	e.seedRoom(t, "101")

	// Warm the cache so the writes below have to invalidate it.
	w := e.do(http.MethodGet, "/api/rooms/available", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/rooms/assign", gin.H{"customerId": "u1", "roomNumber": "101"})
	require.Equal(t, http.StatusOK, w.Code)
	var assigned allocation.Assignment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &assigned))
	require.NotNil(t, assigned.Occupant.AssignedRoom)
	assert.Equal(t, "101", *assigned.Occupant.AssignedRoom)
	assert.Equal(t, model.RoomOccupied, assigned.Room.Status)

	var rooms []model.Room
	require.NoError(t, json.Unmarshal(decode(t, e.do(http.MethodGet, "/api/rooms/available", nil)).Data, &rooms))
	assert.Empty(t, rooms)

	w = e.do(http.MethodPost, "/api/rooms/unassign", gin.H{"customerId": "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/rooms/unassign", gin.H{"customerId": "u1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "no room assigned", decode(t, w).Error)

	require.NoError(t, json.Unmarshal(decode(t, e.do(http.MethodGet, "/api/rooms/available", nil)).Data, &rooms))
	assert.Len(t, rooms, 1)

	assert.Equal(t, []string{
		"u1@example.com: Assigned room 101",
		"u1@example.com: Unassigned from room 101",
	}, e.recorded())
}

func TestRoomsEndpoints(t *testing.T) {
	e := setupRouter(t)
	e.seedOccupant(t, "u1")

	w := e.do(http.MethodPost, "/api/rooms", gin.H{"roomNumber": "a 1203"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room model.Room
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &room))
	assert.Equal(t, "A 1203", room.Number)
	assert.Equal(t, 12, room.Floor)

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/api/rooms", gin.H{"roomNumber": "A 1203"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/rooms", gin.H{"roomNumber": "lobby"}).Code)

	w = e.do(http.MethodGet, "/api/rooms?status=available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []model.Room
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &rooms))
	assert.Len(t, rooms, 1)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/rooms?status=broken", nil).Code)

	w = e.do(http.MethodGet, "/api/rooms/users-without-rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var occupants []model.Occupant
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &occupants))
	require.Len(t, occupants, 1)
	assert.Equal(t, "u1", occupants[0].ID)
	assert.NotContains(t, w.Body.String(), "PasswordHash")
}

func TestUsersEndpoints(t *testing.T) {
	e := setupRouter(t)

	w := e.do(http.MethodPost, "/api/users", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Occupant
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.NotContains(t, w.Body.String(), "secret1")

	w = e.do(http.MethodPost, "/api/users", gin.H{"email": "ana@example.com", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/users", gin.H{"email": "not-an-email", "password": "secret2"}).Code)

	w = e.do(http.MethodPut, "/api/users/"+created.ID+"/role", gin.H{"role": "staff"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User ana@example.com role updated to staff", decode(t, w).Message)

	w = e.do(http.MethodPut, "/api/users/"+created.ID+"/status", gin.H{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPut, "/api/users/ghost/status", gin.H{"status": "active"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/api/users/"+created.ID+"/role", gin.H{"role": "owner"}).Code)

	w = e.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []model.Occupant
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, model.RoleStaff, users[0].Role)
	assert.Equal(t, model.OccupantInactive, users[0].Status)
}

func TestBookingsEndpoints(t *testing.T) {
	e := setupRouter(t)
	e.seedOccupant(t, "u1")

	w := e.do(http.MethodPost, "/api/bookings", gin.H{"userId": "u1", "departmentId": "spa-1", "bookingType": "spa", "timeSlot": "10:00 AM"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b model.Booking
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &b))
	assert.Equal(t, model.BookingPending, b.Status)

	assert.Equal(t, http.StatusBadRequest,
		e.do(http.MethodPost, "/api/bookings", gin.H{"userId": "u1", "departmentId": "spa-1", "bookingType": "golf"}).Code)
	assert.Equal(t, http.StatusNotFound,
		e.do(http.MethodPost, "/api/bookings", gin.H{"userId": "ghost", "departmentId": "spa-1", "bookingType": "spa"}).Code)

	w = e.do(http.MethodPut, "/api/bookings/"+b.ID+"/status", gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Booking "+b.ID+" status updated to confirmed", decode(t, w).Message)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/api/bookings/"+b.ID+"/status", gin.H{"status": "done"}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPut, "/api/bookings/missing/status", gin.H{"status": "cancelled"}).Code)

	w = e.do(http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bookings []model.Booking
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &bookings))
	require.Len(t, bookings, 1)
	assert.Equal(t, model.BookingConfirmed, bookings[0].Status)
}

func TestListActivities(t *testing.T) {
	e := setupRouter(t)
	ctx := t.Context()
	for _, action := range []string{"Created room number 101", "Assigned room 101"} {
		require.NoError(t, e.store.CreateActivity(ctx, &model.Activity{Actor: "Admin", Action: action}))
	}

	w := e.do(http.MethodGet, "/api/activities?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var activities []model.Activity
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &activities))
	assert.Len(t, activities, 1)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/activities?limit=-3", nil).Code)
}

func TestListActivities_LimitBounds(t *testing.T) {
	e := setupRouter(t)
	batch := make([]model.Activity, maxActivityLimit+10)
	for i := range batch {
		batch[i] = model.Activity{Actor: "Admin", Action: "Created room number " + strconv.Itoa(i)}
	}
	require.NoError(t, e.store.DB().CreateInBatches(batch, 100).Error)

	count := func(path string) int {
		w := e.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var activities []model.Activity
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &activities))
		return len(activities)
	}

	assert.Equal(t, defaultActivityLimit, count("/api/activities"))
	assert.Equal(t, maxActivityLimit, count("/api/activities?limit=100000"))
	assert.Equal(t, 7, count("/api/activities?limit=7"))
}

func TestHealthzAndMetrics(t *testing.T) {
	e := setupRouter(t)

	w := e.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	e.do(http.MethodPost, "/api/rooms/assign", gin.H{"customerId": "ghost", "roomNumber": "1"})
	w = e.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "concierge_allocation_operations_total")
}
