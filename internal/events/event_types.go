package events

import (
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventFilterChanged     EventType = "filter_changed"
	EventChartClicked      EventType = "chart_clicked"
	EventStatusCardClicked EventType = "status_card_clicked"
	EventReset             EventType = "reset"
	EventDateRangeChanged  EventType = "date_range_changed"

	// EventDashboardUpdated is published after an event has been applied and the
	// dashboard recomputed.
	EventDashboardUpdated EventType = "dashboard_updated"
)

// Event is a user interaction that changes a session's selection. The set of
// implementations is closed.
type Event interface {
	Type() EventType
	isEvent()
}

// FilterChanged overwrites the fields that are non-nil and leaves the rest alone.
// A pointer to an empty slice clears that restriction.
type FilterChanged struct {
	Departments *[]string
	Locations   *[]string
	DateRange   *domain.DateRange
}

// ChartClicked selects the bar Value on the chart grouped by Dimension.
// Dimension is kept as free text so unknown values can be rejected by the reconciler.
type ChartClicked struct {
	Dimension domain.Dimension
	Value     string
}

// StatusCardClicked toggles the selected status.
type StatusCardClicked struct {
	Status domain.TicketStatus
}

// Reset returns the selection to its default.
type Reset struct{}

// DateRangeChanged overwrites the date range.
type DateRangeChanged struct {
	Start time.Time
	End   time.Time
}

func (FilterChanged) Type() EventType     { return EventFilterChanged }
func (ChartClicked) Type() EventType      { return EventChartClicked }
func (StatusCardClicked) Type() EventType { return EventStatusCardClicked }
func (Reset) Type() EventType             { return EventReset }
func (DateRangeChanged) Type() EventType  { return EventDateRangeChanged }

func (FilterChanged) isEvent()     {}
func (ChartClicked) isEvent()      {}
func (StatusCardClicked) isEvent() {}
func (Reset) isEvent()             {}
func (DateRangeChanged) isEvent()  {}

// Notification is published on the dispatcher once per applied event.
type Notification struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Cause     EventType   `json:"cause"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}
