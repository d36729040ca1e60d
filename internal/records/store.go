// Package records holds the immutable, derived ticket set shared by every session.
package records

import (
	"time"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
)

// Store is an ordered, read-only ticket set. It is never mutated after Load and
// may be read concurrently without synchronization.
type Store struct {
	tickets  []domain.Ticket
	bounds   domain.DateRange
	hasDates bool
	loadedAt time.Time
}

// Facets lists the distinct values a filter can choose from.
type Facets struct {
	Departments []string
	Locations   []string
	Bounds      *domain.DateRange
}

// Load derives every row relative to now and returns the store.
func Load(rows []RawRow, now time.Time) *Store {
	s := &Store{
		tickets:  make([]domain.Ticket, 0, len(rows)),
		loadedAt: now,
	}
	for _, row := range rows {
		t := Derive(row, now)
		if t.CreatedAt != nil {
			s.extend(*t.CreatedAt)
		}
		s.tickets = append(s.tickets, t)
	}
	return s
}

func (s *Store) extend(ts time.Time) {
	if !s.hasDates {
		s.bounds = domain.DateRange{Start: ts, End: ts}
		s.hasDates = true
		return
	}
	if ts.Before(s.bounds.Start) {
		s.bounds.Start = ts
	}
	if ts.After(s.bounds.End) {
		s.bounds.End = ts
	}
}

// Len returns the number of tickets.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tickets)
}

// Tickets returns the backing slice. Callers must not modify it.
func (s *Store) Tickets() []domain.Ticket {
	if s == nil {
		return nil
	}
	return s.tickets
}

// Bounds returns the earliest and latest creation time. ok is false when no
// ticket has a parsable creation time.
func (s *Store) Bounds() (domain.DateRange, bool) {
	if s == nil {
		return domain.DateRange{}, false
	}
	return s.bounds, s.hasDates
}

// LoadedAt is the reference time used for age derivation.
func (s *Store) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Facets collects sorted distinct departments and locations.
func (s *Store) Facets() Facets {
	var depts, locs []string
	for i := range s.Tickets() {
		depts = append(depts, s.tickets[i].Department)
		locs = append(locs, s.tickets[i].Location)
	}
	f := Facets{
		Departments: domain.NormalizeSet(depts),
		Locations:   domain.NormalizeSet(locs),
	}
	if b, ok := s.Bounds(); ok {
		f.Bounds = &b
	}
	return f
}

// CountWhere returns how many tickets satisfy keep.
func (s *Store) CountWhere(keep func(*domain.Ticket) bool) int {
	n := 0
	for i := range s.Tickets() {
		if keep(&s.tickets[i]) {
			n++
		}
	}
	return n
}

