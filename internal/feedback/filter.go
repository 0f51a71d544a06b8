package feedback

import (
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

const dateLayout = "2006-01-02"

// FilterState is the transient filter/search state of the management views.
// An empty field places no constraint on its dimension.
type FilterState struct {
	Status    string `form:"status" json:"status" binding:"omitempty,oneof=Pendiente 'En Revisión' Revisado Cerrado"`
	Kind      string `form:"type" json:"type"`
	Rating    string `form:"rating" json:"rating" binding:"omitempty,oneof=1 2 3 4 5"`
	StartDate string `form:"start_date" json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Search    string `form:"search" json:"search"`
}

// IsEmpty reports whether every dimension is unconstrained.
func (f FilterState) IsEmpty() bool {
	return f.Status == "" && f.Kind == "" && f.Rating == "" &&
		f.StartDate == "" && f.EndDate == "" && f.Search == ""
}

// compiled is the parsed form of a FilterState, built once per Filter call.
type compiled struct {
	status    Status
	kind      Kind
	minRating float64
	hasRating bool
	start     *time.Time
	end       *time.Time
	search    string
}

func (f FilterState) compile() compiled {
	c := compiled{
		status: Status(f.Status),
		kind:   Kind(f.Kind),
		search: strings.ToLower(f.Search),
	}
	if f.Rating != "" {
		if r, err := cast.ToFloat64E(strings.TrimSpace(f.Rating)); err == nil {
			c.minRating, c.hasRating = r, true
		}
	}
	if d, ok := parseDay(f.StartDate); ok {
		start := StartOfDay(d)
		c.start = &start
	}
	if d, ok := parseDay(f.EndDate); ok {
		end := EndOfDay(d)
		c.end = &end
	}
	return c
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// StartOfDay returns 00:00:00.000 UTC of the day containing d.
func StartOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 UTC of the day containing d.
func EndOfDay(d time.Time) time.Time {
	return StartOfDay(d).Add(24*time.Hour - time.Millisecond)
}

func (c compiled) match(r Record) bool {
	if c.status != "" && r.Status != c.status {
		return false
	}
	if c.kind != "" && r.Kind != c.kind {
		return false
	}
	if c.hasRating {
		p := r.PrimaryRating()
		if p <= 0 || p < c.minRating {
			return false
		}
	}
	if c.start != nil || c.end != nil {
		if r.Timestamp == nil {
			return false
		}
		ts := r.Timestamp.UTC()
		if c.start != nil && ts.Before(*c.start) {
			return false
		}
		if c.end != nil && ts.After(*c.end) {
			return false
		}
	}
	if c.search != "" {
		if !strings.Contains(strings.ToLower(r.Scenario), c.search) &&
			!strings.Contains(strings.ToLower(r.Description()), c.search) &&
			!strings.Contains(strings.ToLower(r.Result), c.search) {
			return false
		}
	}
	return true
}

// Filter keeps the records matching every constrained dimension of f,
// preserving input order. The input slice is never modified.
func Filter(records []Record, f FilterState) []Record {
	if f.IsEmpty() {
		return slices.Clone(records)
	}
	c := f.compile()
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if c.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ExcludeClosed drops Cerrado records, the convention for dashboard aggregates.
func ExcludeClosed(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Status != StatusClosed {
			out = append(out, r)
		}
	}
	return out
}

// ByTab keeps the records in scope for a dashboard/report tab.
func ByTab(records []Record, tab Tab) []Record {
	if tab == TabGeneral {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if tab.Includes(r) {
			out = append(out, r)
		}
	}
	return out
}
