package domain

import (
	"slices"
	"time"
)

// Dimension names the ticket field a chart drill-down compares against.
type Dimension string

const (
	DimensionProblemCategory Dimension = "problem_category"
	DimensionAssignedTo      Dimension = "assigned_to"
	DimensionAgeBucket       Dimension = "age_bucket"
)

// Dimensions lists every drill-down dimension.
var Dimensions = []Dimension{DimensionProblemCategory, DimensionAssignedTo, DimensionAgeBucket}

// IsValid reports whether d is a recognised dimension.
func (d Dimension) IsValid() bool {
	return slices.Contains(Dimensions, d)
}

// Field returns the ticket value the dimension selects.
func (d Dimension) Field(t *Ticket) (string, bool) {
	switch d {
	case DimensionProblemCategory:
		return t.ProblemCategory, true
	case DimensionAssignedTo:
		return t.AssignedTo, true
	case DimensionAgeBucket:
		if !t.HasAge() {
			return "", false
		}
		return string(t.AgeBucket), true
	default:
		return "", false
	}
}

// DateRange is an inclusive creation-time window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether Start is not after End.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// Contains reports whether ts lies inside the window, both ends included.
func (r DateRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && !ts.After(r.End)
}

// Covers reports whether r includes all of other.
func (r DateRange) Covers(other DateRange) bool {
	return !r.Start.After(other.Start) && !r.End.Before(other.End)
}

// Equal compares both ends as instants.
func (r DateRange) Equal(other DateRange) bool {
	return r.Start.Equal(other.Start) && r.End.Equal(other.End)
}

// DrillDown is the selection made by the most recent chart-bar click.
type DrillDown struct {
	Dimension Dimension `json:"dimension"`
	Value     string    `json:"value"`
}

// Matches reports whether the ticket carries the selected value.
func (d DrillDown) Matches(t *Ticket) bool {
	v, ok := d.Dimension.Field(t)
	return ok && v == d.Value
}

// FilterPhase is the coarse state of a session's selection.
type FilterPhase string

const (
	FilterPhaseDefault  FilterPhase = "default"
	FilterPhaseFiltered FilterPhase = "filtered"
)

// FilterState is the combination of active selection criteria for one session.
// Departments and Locations are kept sorted and unique; empty means unrestricted.
type FilterState struct {
	Departments    []string     `json:"departments"`
	Locations      []string     `json:"locations"`
	DateRange      DateRange    `json:"date_range"`
	SelectedStatus TicketStatus `json:"selected_status,omitempty"`
	DrillDown      *DrillDown   `json:"drill_down,omitempty"`
}

// HasDepartment reports whether dept passes the department restriction.
func (s FilterState) HasDepartment(dept string) bool {
	if len(s.Departments) == 0 {
		return true
	}
	_, found := slices.BinarySearch(s.Departments, dept)
	return found
}

// HasLocation reports whether loc passes the location restriction.
func (s FilterState) HasLocation(loc string) bool {
	if len(s.Locations) == 0 {
		return true
	}
	_, found := slices.BinarySearch(s.Locations, loc)
	return found
}

// Equal compares two states field by field.
func (s FilterState) Equal(other FilterState) bool {
	if !slices.Equal(s.Departments, other.Departments) ||
		!slices.Equal(s.Locations, other.Locations) ||
		!s.DateRange.Equal(other.DateRange) ||
		s.SelectedStatus != other.SelectedStatus {
		return false
	}
	switch {
	case s.DrillDown == nil && other.DrillDown == nil:
		return true
	case s.DrillDown == nil || other.DrillDown == nil:
		return false
	default:
		return *s.DrillDown == *other.DrillDown
	}
}

// NormalizeSet returns a sorted copy of values without blanks or duplicates.
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
