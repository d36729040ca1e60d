// Package filter turns user interactions into the next FilterState.
package filter

import (
	"slices"
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/events"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util/errorutil"
)

// Reconciler applies events to filter states. It holds no per-session data and is
// safe for concurrent use.
type Reconciler struct {
	fullRange domain.DateRange
}

// NewReconciler builds a reconciler whose default date range is fullRange,
// normally the store's creation-time bounds.
func NewReconciler(fullRange domain.DateRange) *Reconciler {
	return &Reconciler{fullRange: fullRange}
}

// Default returns the unrestricted state.
func (r *Reconciler) Default() domain.FilterState {
	return domain.FilterState{
		Departments: []string{},
		Locations:   []string{},
		DateRange:   r.fullRange,
	}
}

// Phase reports whether state differs from the default.
func (r *Reconciler) Phase(state domain.FilterState) domain.FilterPhase {
	if state.Equal(r.Default()) {
		return domain.FilterPhaseDefault
	}
	return domain.FilterPhaseFiltered
}

// Apply returns the state that follows ev. On error the returned state is the
// unchanged input and the error is a *errorutil.DomainError.
func (r *Reconciler) Apply(state domain.FilterState, ev events.Event) (domain.FilterState, error) {
	switch e := ev.(type) {
	case events.FilterChanged:
		return r.applyFilterChanged(state, e)
	case events.ChartClicked:
		return applyChartClicked(state, e)
	case events.StatusCardClicked:
		return applyStatusCardClicked(state, e)
	case events.Reset:
		return r.Default(), nil
	case events.DateRangeChanged:
		return applyDateRange(state, domain.DateRange{Start: e.Start, End: e.End})
	case nil:
		return state, apperrors.NewUnknownEvent("")
	default:
		return state, apperrors.NewUnknownEvent(string(ev.Type()))
	}
}

// ApplyAll folds events over state, stopping at the first rejected event.
func (r *Reconciler) ApplyAll(state domain.FilterState, evs ...events.Event) (domain.FilterState, error) {
	for _, ev := range evs {
		next, err := r.Apply(state, ev)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

func (r *Reconciler) applyFilterChanged(state domain.FilterState, e events.FilterChanged) (domain.FilterState, error) {
	next := state
	if e.DateRange != nil {
		var err error
		if next, err = applyDateRange(next, *e.DateRange); err != nil {
			return state, err
		}
	}
	if e.Departments != nil {
		next.Departments = domain.NormalizeSet(*e.Departments)
	}
	if e.Locations != nil {
		next.Locations = domain.NormalizeSet(*e.Locations)
	}
	return next, nil
}

func applyChartClicked(state domain.FilterState, e events.ChartClicked) (domain.FilterState, error) {
	if !e.Dimension.IsValid() {
		return state, apperrors.NewUnknownDimension(string(e.Dimension))
	}
	next := state
	next.DrillDown = &domain.DrillDown{Dimension: e.Dimension, Value: e.Value}
	return next, nil
}

func applyStatusCardClicked(state domain.FilterState, e events.StatusCardClicked) (domain.FilterState, error) {
	if !e.Status.IsKnown() {
		return state, apperrors.NewUnknownStatus(string(e.Status))
	}
	next := state
	if state.SelectedStatus == e.Status {
		next.SelectedStatus = ""
	} else {
		next.SelectedStatus = e.Status
	}
	return next, nil
}

func applyDateRange(state domain.FilterState, dr domain.DateRange) (domain.FilterState, error) {
	if !dr.Valid() {
		return state, apperrors.NewInvalidFilterRange(map[string]any{
			"start": dr.Start.Format(time.RFC3339),
			"end":   dr.End.Format(time.RFC3339),
		})
	}
	next := state
	next.DateRange = dr
	return next, nil
}

// Clone returns a deep copy of state.
func Clone(state domain.FilterState) domain.FilterState {
	out := state
	out.Departments = slices.Clone(state.Departments)
	out.Locations = slices.Clone(state.Locations)
	if state.DrillDown != nil {
		dd := *state.DrillDown
		out.DrillDown = &dd
	}
	return out
}
