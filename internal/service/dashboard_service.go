package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-dashboard/internal/aggregate"
	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/events"
	"github.com/spec-kit/ticket-dashboard/internal/filter"
	"github.com/spec-kit/ticket-dashboard/internal/observability"
	"github.com/spec-kit/ticket-dashboard/internal/records"
	"github.com/spec-kit/ticket-dashboard/internal/session"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util/errorutil"
)

// DashboardService coordinates sessions, the reconciler and the aggregation engine.
type DashboardService struct {
	store      *records.Store
	reconciler *filter.Reconciler
	engine     *aggregate.Engine
	sessions   *session.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	Store      *records.Store
	Engine     *aggregate.Engine
	Sessions   *session.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// Snapshot is a session's selection and, when requested, its dashboard.
type Snapshot struct {
	SessionID string
	CreatedAt time.Time
	State     domain.FilterState
	Phase     domain.FilterPhase
	Dashboard *aggregate.Dashboard
}

// Facets describes the values each filter control can offer.
type Facets struct {
	Departments []string
	Locations   []string
	Bounds      *domain.DateRange
	Statuses    []domain.TicketStatus
	AgeBuckets  []domain.AgeBucket
	Dimensions  []domain.Dimension
	Tickets     int
	LoadedAt    time.Time
}

// NewDashboardService constructs the service. The reconciler's default date
// range is the store's full creation-time range.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	bounds, _ := deps.Store.Bounds()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		store:      deps.Store,
		reconciler: filter.NewReconciler(bounds),
		engine:     deps.Engine,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// CreateSession starts a session in the default state.
func (s *DashboardService) CreateSession() *Snapshot {
	sess := s.sessions.Create(s.reconciler.Default())
	state := sess.State()
	dash := s.engine.Aggregate(s.store, state)
	s.logger.Debug("session created", zap.String("session_id", sess.ID))
	return &Snapshot{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		State:     state,
		Phase:     s.reconciler.Phase(state),
		Dashboard: &dash,
	}
}

// GetSession returns the session's selection without recomputing views.
func (s *DashboardService) GetSession(id string) (*Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	state := sess.State()
	return &Snapshot{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		State:     state,
		Phase:     s.reconciler.Phase(state),
	}, nil
}

// Dashboard recomputes the views for the session's current selection.
func (s *DashboardService) Dashboard(id string) (*Snapshot, error) {
	snap, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	dash := s.engine.Aggregate(s.store, snap.State)
	snap.Dashboard = &dash
	return snap, nil
}

// ApplyEvent reconciles ev into the session's state and recomputes the views.
// A rejected event leaves the session unchanged and returns a DomainError.
// The update is published after the session lock is released.
func (s *DashboardService) ApplyEvent(ctx context.Context, id string, ev events.Event) (*Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	var snap *Snapshot
	err = sess.Update(s.sessions.Now(), func(current domain.FilterState) (domain.FilterState, error) {
		next, err := s.reconciler.Apply(current, ev)
		s.metrics.RecordEvent(eventName(ev), err == nil)
		if err != nil {
			return current, err
		}
		dash := s.engine.Aggregate(s.store, next)
		snap = &Snapshot{
			SessionID: sess.ID,
			CreatedAt: sess.CreatedAt,
			State:     next,
			Phase:     s.reconciler.Phase(next),
			Dashboard: &dash,
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ev, snap)
	return snap, nil
}

// DeleteSession ends a session.
func (s *DashboardService) DeleteSession(id string) error {
	if !s.sessions.Delete(id) {
		return apperrors.NewNotFound("session", map[string]any{"session_id": id})
	}
	return nil
}

// Facets lists the filter options offered by the loaded tickets.
func (s *DashboardService) Facets() Facets {
	f := s.store.Facets()
	return Facets{
		LoadedAt:    s.store.LoadedAt(),
		Departments: f.Departments,
		Locations:   f.Locations,
		Bounds:      f.Bounds,
		Statuses:    domain.KnownStatuses,
		AgeBuckets:  domain.AgeBuckets,
		Dimensions:  domain.Dimensions,
		Tickets:     s.store.Len(),
	}
}

func (s *DashboardService) lookup(id string) (*session.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewNotFound("session", map[string]any{"session_id": id})
	}
	return sess, nil
}

func (s *DashboardService) publish(ctx context.Context, ev events.Event, snap *Snapshot) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Notification{
		ID:        uuid.NewString(),
		Type:      events.EventDashboardUpdated,
		SessionID: snap.SessionID,
		Cause:     ev.Type(),
		Timestamp: time.Now().UTC(),
		Payload:   snap,
	})
	if err != nil {
		s.logger.Warn("dashboard update not delivered",
			zap.String("session_id", snap.SessionID),
			zap.Error(err))
	}
}

func eventName(ev events.Event) string {
	if ev == nil {
		return "unknown"
	}
	return string(ev.Type())
}
