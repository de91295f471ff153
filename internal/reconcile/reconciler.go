// Package reconcile periodically checks that rooms and occupants agree on
// every assignment. It only reports drift; it never writes allocation fields.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"concierge-backend/config"
	"concierge-backend/internal/audit"
	"concierge-backend/internal/model"
	"concierge-backend/internal/store"
)

const systemActor = "System"

// DriftKind names a way the two sides of an assignment can disagree.
type DriftKind string

const (
	// Room names an occupant that does not name the room back.
	DriftRoomOrphaned DriftKind = "room_orphaned"
	// Occupant names a room that does not exist.
	DriftRoomMissing DriftKind = "room_missing"
	// Occupant names a room that names someone else or nobody.
	DriftOccupantOrphaned DriftKind = "occupant_orphaned"
	// Room status disagrees with its assigned occupant.
	DriftStatusMismatch DriftKind = "status_mismatch"
)

var driftKinds = []DriftKind{DriftRoomOrphaned, DriftRoomMissing, DriftOccupantOrphaned, DriftStatusMismatch}

// Drift is one inconsistency found by a check.
type Drift struct {
	Kind       DriftKind `json:"kind"`
	RoomNumber string    `json:"roomNumber"`
	OccupantID string    `json:"occupantId,omitempty"`
}

// Reconciler runs the drift check on an interval.
type Reconciler struct {
	cfg      config.ReconcileConfig
	store    store.Store
	recorder audit.Recorder
	log      *zap.Logger
	drift    *prometheus.GaugeVec
}

// New creates a Reconciler. reg may be nil.
func New(cfg config.ReconcileConfig, s store.Store, recorder audit.Recorder, log *zap.Logger, reg prometheus.Registerer) *Reconciler {
	drift := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "concierge",
		Subsystem: "allocation",
		Name:      "drift",
		Help:      "Assignment inconsistencies found by the last reconcile cycle.",
	}, []string{"kind"})
	if reg != nil {
		reg.MustRegister(drift)
	}
	return &Reconciler{cfg: cfg, store: s, recorder: recorder, log: log, drift: drift}
}

// Run checks once immediately and then on every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	if !r.cfg.Enabled {
		r.log.Info("reconciler is disabled, not starting")
		return
	}
	r.log.Info("starting reconciler", zap.Duration("interval", r.cfg.Interval))

	r.runCycle(ctx)

	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler shutting down")
			return
		case <-timer.C:
			r.runCycle(ctx)
			timer.Reset(r.cfg.Interval)
		}
	}
}

func (r *Reconciler) runCycle(ctx context.Context) {
	if _, err := r.CheckOnce(ctx); err != nil {
		r.log.Error("reconcile cycle failed", zap.Error(err))
	}
}

// CheckOnce compares both sides of every assignment and reports what it
// finds to the log, the drift gauge and, when anything is off, the audit
// trail.
func (r *Reconciler) CheckOnce(ctx context.Context) ([]Drift, error) {
	rooms, err := r.store.ListRooms(ctx, store.RoomFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	occupants, err := r.store.ListOccupants(ctx, store.OccupantFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list occupants: %w", err)
	}

	drifts := Compare(rooms, occupants)

	counts := make(map[DriftKind]int, len(driftKinds))
	for _, d := range drifts {
		counts[d.Kind]++
		r.log.Warn("allocation drift",
			zap.String("kind", string(d.Kind)),
			zap.String("room_number", d.RoomNumber),
			zap.String("occupant_id", d.OccupantID))
	}
	for _, k := range driftKinds {
		r.drift.WithLabelValues(string(k)).Set(float64(counts[k]))
	}

	if len(drifts) > 0 {
		details := make(map[string]any, len(counts))
		for k, n := range counts {
			details[string(k)] = n
		}
		r.recorder.Record(systemActor, fmt.Sprintf("Detected %d allocation inconsistencies", len(drifts)), details)
	} else {
		r.log.Debug("reconcile cycle clean", zap.Int("rooms", len(rooms)), zap.Int("occupants", len(occupants)))
	}
	return drifts, nil
}

// Compare returns every inconsistency between rooms and occupants.
func Compare(rooms []model.Room, occupants []model.Occupant) []Drift {
	byID := make(map[string]model.Occupant, len(occupants))
	for _, o := range occupants {
		byID[o.ID] = o
	}
	byNumber := make(map[string]model.Room, len(rooms))
	for _, rm := range rooms {
		byNumber[rm.Number] = rm
	}

	var drifts []Drift
	for _, rm := range rooms {
		occupied := rm.AssignedOccupantID != nil
		if occupied != (rm.Status == model.RoomOccupied) {
			d := Drift{Kind: DriftStatusMismatch, RoomNumber: rm.Number}
			if occupied {
				d.OccupantID = *rm.AssignedOccupantID
			}
			drifts = append(drifts, d)
		}
		if !occupied {
			continue
		}
		o, ok := byID[*rm.AssignedOccupantID]
		if !ok || o.AssignedRoom == nil || *o.AssignedRoom != rm.Number {
			drifts = append(drifts, Drift{Kind: DriftRoomOrphaned, RoomNumber: rm.Number, OccupantID: *rm.AssignedOccupantID})
		}
	}

	for _, o := range occupants {
		if o.AssignedRoom == nil {
			continue
		}
		rm, ok := byNumber[*o.AssignedRoom]
		switch {
		case !ok:
			drifts = append(drifts, Drift{Kind: DriftRoomMissing, RoomNumber: *o.AssignedRoom, OccupantID: o.ID})
		case rm.AssignedOccupantID == nil || *rm.AssignedOccupantID != o.ID:
			drifts = append(drifts, Drift{Kind: DriftOccupantOrphaned, RoomNumber: rm.Number, OccupantID: o.ID})
		}
	}
	return drifts
}
