package aggregate

import (
	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/records"
)

// scope evaluates the scope and detail predicates for one state.
type scope struct {
	state domain.FilterState
	// undated tickets pass the date predicate only while the range is unrestricted
	keepUndated bool
}

func newScope(store *records.Store, state domain.FilterState) scope {
	keep := true
	if bounds, ok := store.Bounds(); ok {
		keep = state.DateRange.Covers(bounds)
	}
	return scope{state: state, keepUndated: keep}
}

func (s scope) inScope(t *domain.Ticket) bool {
	if !s.state.HasDepartment(t.Department) || !s.state.HasLocation(t.Location) {
		return false
	}
	if t.CreatedAt == nil {
		return s.keepUndated
	}
	return s.state.DateRange.Contains(*t.CreatedAt)
}

func (s scope) inDetail(t *domain.Ticket) bool {
	if s.state.SelectedStatus != "" && t.Status != s.state.SelectedStatus {
		return false
	}
	if s.state.DrillDown != nil && !s.state.DrillDown.Matches(t) {
		return false
	}
	return true
}
