package domain

import "time"

// TicketStatus is the lifecycle label carried by an exported ticket.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "Open"
	TicketStatusClosed           TicketStatus = "Closed"
	TicketStatusInProgress       TicketStatus = "In Progress"
	TicketStatusResolved         TicketStatus = "Resolved"
	TicketStatusReopened         TicketStatus = "Reopened"
	TicketStatusUnderObservation TicketStatus = "Under Observation"
	TicketStatusUnknown          TicketStatus = "Unknown"
)

// KnownStatuses lists the statuses shown as KPI cards, in display order.
var KnownStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusClosed,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusReopened,
	TicketStatusUnderObservation,
}

// IsKnown reports whether s is one of the KPI statuses.
func (s TicketStatus) IsKnown() bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsActive reports whether the ticket still needs technician work.
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// AgeBucket groups ticket age in days.
type AgeBucket string

const (
	AgeBucket0To30    AgeBucket = "0 to 30 Days"
	AgeBucket31To60   AgeBucket = "31 to 60 Days"
	AgeBucket61To120  AgeBucket = "61 to 120 Days"
	AgeBucket121To180 AgeBucket = "121 to 180 Days"
	AgeBucketOver180  AgeBucket = "> 180 Days"
)

// AgeBuckets is the fixed chart ordering, youngest first.
var AgeBuckets = []AgeBucket{
	AgeBucket0To30,
	AgeBucket31To60,
	AgeBucket61To120,
	AgeBucket121To180,
	AgeBucketOver180,
}

// BucketForAge maps an age in days to its bucket. Boundaries belong to the lower bucket.
func BucketForAge(days int) AgeBucket {
	switch {
	case days > 180:
		return AgeBucketOver180
	case days > 120:
		return AgeBucket121To180
	case days > 60:
		return AgeBucket61To120
	case days > 30:
		return AgeBucket31To60
	default:
		return AgeBucket0To30
	}
}

// Default labels applied when an exported field is missing.
const (
	DefaultCategory   = "Unknown"
	DefaultAssignee   = "Unassigned"
	DefaultDepartment = "Unknown"
	DefaultLocation   = "Unknown"
)

// Ticket is a derived, read-only ticket record.
type Ticket struct {
	ID              string
	CreatedAt       *time.Time
	ClosedAt        *time.Time
	Status          TicketStatus
	ProblemCategory string
	AssignedTo      string
	Department      string
	Location        string

	// Derived at load time. AgeDays and TurnaroundMinutes are nil when undefined;
	// AgeBucket is empty when AgeDays is nil.
	AgeDays           *int
	AgeBucket         AgeBucket
	TurnaroundMinutes *float64
}

// HasAge reports whether the ticket has a defined age bucket.
func (t *Ticket) HasAge() bool {
	return t.AgeDays != nil && t.AgeBucket != ""
}
