// Package aggregate computes the dashboard views for a filter state.
//
// Two filters are derived from one state. The scope filter (departments,
// locations, date range) feeds the KPI counts; the detail filter (scope plus
// selected status plus drill-down) feeds every chart view.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/spec-kit/ticket-dashboard/internal/domain"
	"github.com/spec-kit/ticket-dashboard/internal/records"
)

// DefaultTopN bounds the technician, assignee and turnaround views.
const DefaultTopN = 15

// Count is one bar of a count chart.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Average is one bar of the turnaround chart.
type Average struct {
	Label   string  `json:"label"`
	Minutes float64 `json:"minutes"`
	Tickets int     `json:"tickets"`
}

// Dashboard holds the five views recomputed after every change.
type Dashboard struct {
	KPI        []Count   `json:"kpi"`
	Technician []Count   `json:"technician"`
	Assignee   []Count   `json:"assignee"`
	Age        []Count   `json:"age"`
	Turnaround []Average `json:"turnaround"`

	// ScopeTotal and DetailTotal count the tickets each filter tier kept.
	ScopeTotal  int `json:"scope_total"`
	DetailTotal int `json:"detail_total"`
}

// Engine computes views. The zero value uses DefaultTopN.
type Engine struct {
	TopN int
}

// NewEngine returns an engine bounded to topN entries per ranked view.
func NewEngine(topN int) *Engine {
	return &Engine{TopN: topN}
}

func (e *Engine) limit() int {
	if e == nil || e.TopN <= 0 {
		return DefaultTopN
	}
	return e.TopN
}

// Aggregate computes all five views in one pass over the store.
func (e *Engine) Aggregate(store *records.Store, state domain.FilterState) Dashboard {
	scope := newScope(store, state)

	kpi := make(map[domain.TicketStatus]int, len(domain.KnownStatuses))
	tech := map[string]int{}
	assignee := map[string]int{}
	age := map[domain.AgeBucket]int{}
	tat := map[string]*turnaroundSum{}
	var scopeTotal, detailTotal int

	tickets := store.Tickets()
	for i := range tickets {
		t := &tickets[i]
		if !scope.inScope(t) {
			continue
		}
		scopeTotal++
		kpi[t.Status]++
		if !scope.inDetail(t) {
			continue
		}
		detailTotal++
		if t.Status.IsActive() {
			tech[t.ProblemCategory]++
		}
		assignee[t.AssignedTo]++
		if t.HasAge() {
			age[t.AgeBucket]++
		}
		if t.TurnaroundMinutes != nil {
			addTurnaround(tat, t.AssignedTo, *t.TurnaroundMinutes)
		}
	}

	return Dashboard{
		KPI:         kpiCounts(kpi),
		Technician:  rankCounts(tech, e.limit()),
		Assignee:    rankCounts(assignee, e.limit()),
		Age:         bucketCounts(age),
		Turnaround:  rankAverages(tat, e.limit()),
		ScopeTotal:  scopeTotal,
		DetailTotal: detailTotal,
	}
}

// KPIs counts scope-filtered tickets for each known status, ignoring the
// selected status and drill-down.
func (e *Engine) KPIs(store *records.Store, state domain.FilterState) []Count {
	return e.Aggregate(store, state).KPI
}

// Technicians ranks problem categories among open and in-progress detail tickets.
func (e *Engine) Technicians(store *records.Store, state domain.FilterState) []Count {
	return e.Aggregate(store, state).Technician
}

// Assignees ranks assignees among detail tickets.
func (e *Engine) Assignees(store *records.Store, state domain.FilterState) []Count {
	return e.Aggregate(store, state).Assignee
}

// Ages counts detail tickets per age bucket in bucket order.
func (e *Engine) Ages(store *records.Store, state domain.FilterState) []Count {
	return e.Aggregate(store, state).Age
}

// Turnaround ranks assignees by mean turnaround minutes.
func (e *Engine) Turnaround(store *records.Store, state domain.FilterState) []Average {
	return e.Aggregate(store, state).Turnaround
}

type turnaroundSum struct {
	total float64
	n     int
}

func addTurnaround(sums map[string]*turnaroundSum, label string, minutes float64) {
	s, ok := sums[label]
	if !ok {
		s = &turnaroundSum{}
		sums[label] = s
	}
	s.total += minutes
	s.n++
}

func kpiCounts(counts map[domain.TicketStatus]int) []Count {
	out := make([]Count, 0, len(domain.KnownStatuses))
	for _, status := range domain.KnownStatuses {
		out = append(out, Count{Label: string(status), Count: counts[status]})
	}
	return out
}

func bucketCounts(counts map[domain.AgeBucket]int) []Count {
	out := make([]Count, 0, len(counts))
	for _, bucket := range domain.AgeBuckets {
		if n := counts[bucket]; n > 0 {
			out = append(out, Count{Label: string(bucket), Count: n})
		}
	}
	return out
}

// rankCounts orders by count descending then label ascending and keeps the first limit.
func rankCounts(counts map[string]int, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return truncate(out, limit)
}

func rankAverages(sums map[string]*turnaroundSum, limit int) []Average {
	out := make([]Average, 0, len(sums))
	for label, s := range sums {
		if s.n == 0 {
			continue
		}
		out = append(out, Average{Label: label, Minutes: s.total / float64(s.n), Tickets: s.n})
	}
	slices.SortFunc(out, func(a, b Average) int {
		if c := cmp.Compare(b.Minutes, a.Minutes); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return truncate(out, limit)
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
