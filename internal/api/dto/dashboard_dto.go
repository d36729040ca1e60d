package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/aggregate"
	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/events"
	apperrors "github.com/spec-kit/ticket-dashboard/pkg/util/errorutil"
)

// APIVersion tags every snapshot so presenters can detect shape changes.
const APIVersion = "v1"

// EventRequest is the JSON body of POST /v1/sessions/:id/events. Which fields
// are read depends on Type.
type EventRequest struct {
	Type        string    `json:"type"`
	Departments *[]string `json:"departments,omitempty"`
	Locations   *[]string `json:"locations,omitempty"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Dimension   string    `json:"dimension,omitempty"`
	Value       string    `json:"value,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// ToEvent validates the request shape and builds the matching event.
func (r EventRequest) ToEvent() (events.Event, error) {
	switch events.EventType(strings.TrimSpace(r.Type)) {
	case events.EventFilterChanged:
		ev := events.FilterChanged{Departments: r.Departments, Locations: r.Locations}
		if r.Start != "" || r.End != "" {
			dr, err := r.dateRange()
			if err != nil {
				return nil, err
			}
			ev.DateRange = &dr
		}
		return ev, nil
	case events.EventChartClicked:
		if r.Dimension == "" {
			return nil, apperrors.NewValidationError("dimension required", nil)
		}
		return events.ChartClicked{Dimension: domain.Dimension(r.Dimension), Value: r.Value}, nil
	case events.EventStatusCardClicked:
		if r.Status == "" {
			return nil, apperrors.NewValidationError("status required", nil)
		}
		return events.StatusCardClicked{Status: domain.TicketStatus(r.Status)}, nil
	case events.EventReset:
		return events.Reset{}, nil
	case events.EventDateRangeChanged:
		dr, err := r.dateRange()
		if err != nil {
			return nil, err
		}
		return events.DateRangeChanged{Start: dr.Start, End: dr.End}, nil
	default:
		return nil, apperrors.NewUnknownEvent(r.Type)
	}
}

func (r EventRequest) dateRange() (domain.DateRange, error) {
	if r.Start == "" || r.End == "" {
		return domain.DateRange{}, apperrors.NewValidationError("start and end required", nil)
	}
	start, err := ParseBoundary(r.Start, false)
	if err != nil {
		return domain.DateRange{}, apperrors.NewValidationError(err.Error(), map[string]any{"field": "start"})
	}
	end, err := ParseBoundary(r.End, true)
	if err != nil {
		return domain.DateRange{}, apperrors.NewValidationError(err.Error(), map[string]any{"field": "end"})
	}
	return domain.DateRange{Start: start, End: end}, nil
}

// ParseBoundary accepts RFC3339 or YYYY-MM-DD. A date-only end boundary covers
// the whole day.
func ParseBoundary(val string, end bool) (time.Time, error) {
	val = strings.TrimSpace(val)
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC3339 or YYYY-MM-DD", val)
	}
	if end {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

// DateRangeResponse renders a domain.DateRange.
type DateRangeResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DrillDownResponse renders the active drill-down.
type DrillDownResponse struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// FilterStateResponse mirrors domain.FilterState.
type FilterStateResponse struct {
	Departments    []string           `json:"departments"`
	Locations      []string           `json:"locations"`
	DateRange      DateRangeResponse  `json:"date_range"`
	SelectedStatus *string            `json:"selected_status"`
	DrillDown      *DrillDownResponse `json:"drill_down"`
}

// SnapshotResponse is returned by the session endpoints and published to presenters.
type SnapshotResponse struct {
	APIVersion string               `json:"api_version"`
	SessionID  string               `json:"session_id"`
	CreatedAt  time.Time            `json:"created_at"`
	Phase      domain.FilterPhase   `json:"phase"`
	Filter     FilterStateResponse  `json:"filter"`
	Dashboard  *aggregate.Dashboard `json:"dashboard,omitempty"`
}

// NewSnapshotResponse builds the response body. dash may be nil.
func NewSnapshotResponse(sessionID string, createdAt time.Time, state domain.FilterState, phase domain.FilterPhase, dash *aggregate.Dashboard) SnapshotResponse {
	return SnapshotResponse{
		APIVersion: APIVersion,
		SessionID:  sessionID,
		CreatedAt:  createdAt,
		Phase:      phase,
		Filter:     NewFilterStateResponse(state),
		Dashboard:  dash,
	}
}

// NewFilterStateResponse renders state with empty sets as [] and unset options as null.
func NewFilterStateResponse(state domain.FilterState) FilterStateResponse {
	resp := FilterStateResponse{
		Departments: nonNil(state.Departments),
		Locations:   nonNil(state.Locations),
		DateRange:   DateRangeResponse{Start: state.DateRange.Start, End: state.DateRange.End},
	}
	if state.SelectedStatus != "" {
		s := string(state.SelectedStatus)
		resp.SelectedStatus = &s
	}
	if state.DrillDown != nil {
		resp.DrillDown = &DrillDownResponse{
			Dimension: string(state.DrillDown.Dimension),
			Value:     state.DrillDown.Value,
		}
	}
	return resp
}

// FacetsResponse lists filter options for GET /v1/facets.
type FacetsResponse struct {
	APIVersion  string             `json:"api_version"`
	Tickets     int                `json:"tickets"`
	LoadedAt    time.Time          `json:"loaded_at"`
	Departments []string           `json:"departments"`
	Locations   []string           `json:"locations"`
	DateRange   *DateRangeResponse `json:"date_range"`
	Statuses    []string           `json:"statuses"`
	AgeBuckets  []string           `json:"age_buckets"`
	Dimensions  []string           `json:"dimensions"`
}

func nonNil(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

// Strings converts a slice of string-kinded values.
func Strings[T ~string](vals []T) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}
