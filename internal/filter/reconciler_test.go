package filter

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/events"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util/errorutil"
)

var (
	jan1  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar1  = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	jun30 = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	full  = domain.DateRange{Start: jan1, End: jun30}
)

func strs(v ...string) *[]string { return &v }

func apply(t *testing.T, r *Reconciler, state domain.FilterState, evs ...events.Event) domain.FilterState {
	t.Helper()
	next, err := r.ApplyAll(state, evs...)
	require.NoError(t, err)
	return next
}

func TestDefaultState(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state := r.Default()

	assert.Empty(t, state.Departments)
	assert.Empty(t, state.Locations)
	assert.True(t, state.DateRange.Equal(full))
	assert.Empty(t, state.SelectedStatus)
	assert.Nil(t, state.DrillDown)
	assert.Equal(t, domain.FilterPhaseDefault, r.Phase(state))
}

func TestFilterChangedOverwritesOnlySpecifiedFields(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state := apply(t, r, r.Default(),
		events.FilterChanged{Departments: strs("IT", "HR", "IT"), Locations: strs("Plant A")},
		events.FilterChanged{Departments: strs("Finance")},
	)

	assert.Equal(t, []string{"Finance"}, state.Departments, "departments overwritten, not merged")
	assert.Equal(t, []string{"Plant A"}, state.Locations, "locations untouched")
	assert.True(t, state.DateRange.Equal(full))
	assert.Equal(t, domain.FilterPhaseFiltered, r.Phase(state))

	cleared := apply(t, r, state, events.FilterChanged{Departments: strs()})
	assert.Empty(t, cleared.Departments)
	assert.Equal(t, []string{"Plant A"}, cleared.Locations)
}

func TestFilterChangedDateRange(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state := apply(t, r, r.Default(), events.FilterChanged{
		Departments: strs("IT"),
		DateRange:   &domain.DateRange{Start: jan1, End: mar1},
	})
	assert.True(t, state.DateRange.Equal(domain.DateRange{Start: jan1, End: mar1}))

	_, err := r.Apply(state, events.FilterChanged{
		Departments: strs("HR"),
		DateRange:   &domain.DateRange{Start: mar1, End: jan1},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidFilterRange))
}

func TestChartClickedLastClickWins(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state := apply(t, r, r.Default(),
		events.ChartClicked{Dimension: domain.DimensionProblemCategory, Value: "Network"},
		events.ChartClicked{Dimension: domain.DimensionAssignedTo, Value: "Ravi"},
	)

	want := &domain.DrillDown{Dimension: domain.DimensionAssignedTo, Value: "Ravi"}
	if diff := cmp.Diff(want, state.DrillDown); diff != "" {
		t.Errorf("drill-down mismatch (-want +got):\n%s", diff)
	}
}

func TestChartClickedUnknownDimension(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	before := apply(t, r, r.Default(), events.ChartClicked{Dimension: domain.DimensionAgeBucket, Value: "> 180 Days"})

	after, err := r.Apply(before, events.ChartClicked{Dimension: "priority", Value: "High"})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnknownDimension))
	assert.True(t, after.Equal(before), "state unchanged on rejection")
}

func TestStatusCardToggle(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	start := apply(t, r, r.Default(), events.FilterChanged{Departments: strs("IT")})

	selected := apply(t, r, start, events.StatusCardClicked{Status: domain.TicketStatusOpen})
	assert.Equal(t, domain.TicketStatusOpen, selected.SelectedStatus)

	switched := apply(t, r, selected, events.StatusCardClicked{Status: domain.TicketStatusClosed})
	assert.Equal(t, domain.TicketStatusClosed, switched.SelectedStatus, "a different card replaces the selection")

	for _, status := range domain.KnownStatuses {
		twice := apply(t, r, start,
			events.StatusCardClicked{Status: status},
			events.StatusCardClicked{Status: status},
		)
		assert.True(t, twice.Equal(start), "toggling %q twice is an involution", status)
	}
}

func TestStatusCardUnknownStatus(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	_, err := r.Apply(r.Default(), events.StatusCardClicked{Status: domain.TicketStatusUnknown})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnknownStatus))
}

func TestResetIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	histories := [][]events.Event{
		nil,
		{events.FilterChanged{Departments: strs("IT"), Locations: strs("Plant A")}},
		{
			events.StatusCardClicked{Status: domain.TicketStatusReopened},
			events.DateRangeChanged{Start: jan1, End: mar1},
			events.ChartClicked{Dimension: domain.DimensionAssignedTo, Value: "Ravi"},
		},
		{events.Reset{}, events.Reset{}},
	}

	for i, history := range histories {
		state := apply(t, r, r.Default(), history...)
		reset := apply(t, r, state, events.Reset{})
		assert.True(t, reset.Equal(r.Default()), "history %d", i)
		assert.Equal(t, domain.FilterPhaseDefault, r.Phase(reset))
	}
}

// Reset clears the chart drill-down as well as the other filters.
func TestResetClearsDrillDown(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state := apply(t, r, r.Default(),
		events.ChartClicked{Dimension: domain.DimensionProblemCategory, Value: "Network"},
		events.Reset{},
	)

	assert.Nil(t, state.DrillDown)
}

func TestDateRangeChanged(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state := apply(t, r, r.Default(), events.DateRangeChanged{Start: jan1, End: mar1})
	assert.True(t, state.DateRange.Equal(domain.DateRange{Start: jan1, End: mar1}))

	sameDay := apply(t, r, state, events.DateRangeChanged{Start: mar1, End: mar1})
	assert.True(t, sameDay.DateRange.Equal(domain.DateRange{Start: mar1, End: mar1}), "start == end is allowed")

	after, err := r.Apply(sameDay, events.DateRangeChanged{Start: jun30, End: jan1})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidFilterRange))
	assert.True(t, after.Equal(sameDay), "inverted range is rejected, not swapped")
}

func TestApplyNilEvent(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	_, err := r.Apply(r.Default(), nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnknownEvent))
}

func TestApplyAllStopsAtFirstError(t *testing.T) {
	t.Parallel()

	r := NewReconciler(full)
	state, err := r.ApplyAll(r.Default(),
		events.FilterChanged{Departments: strs("IT")},
		events.ChartClicked{Dimension: "nope"},
		events.StatusCardClicked{Status: domain.TicketStatusOpen},
	)

	require.Error(t, err)
	assert.Equal(t, []string{"IT"}, state.Departments)
	assert.Empty(t, state.SelectedStatus)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := domain.FilterState{
		Departments: []string{"IT"},
		DrillDown:   &domain.DrillDown{Dimension: domain.DimensionAssignedTo, Value: "Ravi"},
	}
	cp := Clone(orig)
	cp.Departments[0] = "HR"
	cp.DrillDown.Value = "Asha"

	assert.Equal(t, "IT", orig.Departments[0])
	assert.Equal(t, "Ravi", orig.DrillDown.Value)
}
