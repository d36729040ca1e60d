package records

import (
	"math"
	"strings"
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
)

// RawRow is a ticket row as exported by the ticketing system. Every field is
// free text and may be blank.
type RawRow struct {
	ID              string `json:"id"`
	CreatedAt       string `json:"created_at_format"`
	ClosedAt        string `json:"closed_at_format"`
	Status          string `json:"status"`
	ProblemCategory string `json:"problem_category"`
	AssignedTo      string `json:"assigned_to_name"`
	Department      string `json:"department"`
	Location        string `json:"location"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// ParseTimestamp parses an exported timestamp. Layouts without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Derive fills defaults and computes age and turnaround for one row.
func Derive(row RawRow, now time.Time) domain.Ticket {
	t := domain.Ticket{
		ID:              strings.TrimSpace(row.ID),
		Status:          domain.TicketStatus(orDefault(row.Status, string(domain.TicketStatusUnknown))),
		ProblemCategory: orDefault(row.ProblemCategory, domain.DefaultCategory),
		AssignedTo:      orDefault(row.AssignedTo, domain.DefaultAssignee),
		Department:      orDefault(row.Department, domain.DefaultDepartment),
		Location:        orDefault(row.Location, domain.DefaultLocation),
	}

	if created, ok := ParseTimestamp(row.CreatedAt); ok {
		t.CreatedAt = &created
		days := ageInDays(now, created)
		t.AgeDays = &days
		t.AgeBucket = domain.BucketForAge(days)
	}
	if closed, ok := ParseTimestamp(row.ClosedAt); ok {
		t.ClosedAt = &closed
		// a close before creation is a data-quality issue; no turnaround
		if t.CreatedAt != nil && !closed.Before(*t.CreatedAt) {
			minutes := closed.Sub(*t.CreatedAt).Minutes()
			t.TurnaroundMinutes = &minutes
		}
	}
	return t
}

// ageInDays floors the elapsed time to whole days, so negative ages round down too.
func ageInDays(now, created time.Time) int {
	return int(math.Floor(now.Sub(created).Hours() / 24))
}

func orDefault(val, fallback string) string {
	if v := strings.TrimSpace(val); v != "" {
		return v
	}
	return fallback
}
