// Package engine computes statistics over the time-entry snapshot.
//
// Every operation is a pure read over an immutable snapshot: results are
// domain.Result values and errors of the "no data" family are reported as
// informational results, never as failures.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
	"github.com/rmacedo/apontabot/internal/store"
)

// MaintenanceMessage is the uniform reply while the dataset is unavailable.
const MaintenanceMessage = "⚠️ Sistema em manutenção. Os dados ainda estão sendo carregados. Por favor, tente novamente em alguns minutos."

// DefaultHoursPerDay is the contractual workload used by expected-hours
// calculations.
const DefaultHoursPerDay = 8.0

// Engine exposes the aggregation operations. It holds the snapshot handle
// and an injectable clock so "today"/"this week" queries are testable.
type Engine struct {
	data        *store.Handle
	now         func() time.Time
	hoursPerDay float64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHoursPerDay overrides the contractual daily workload.
func WithHoursPerDay(h float64) Option {
	return func(e *Engine) { e.hoursPerDay = h }
}

// New creates an engine over the given snapshot handle.
func New(data *store.Handle, opts ...Option) *Engine {
	e := &Engine{
		data:        data,
		now:         time.Now,
		hoursPerDay: DefaultHoursPerDay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// snapshot returns the active snapshot, or nil in the degraded state.
func (e *Engine) snapshot() *store.Snapshot {
	if e.data == nil {
		return nil
	}
	return e.data.Current()
}

// maintenance is the degraded-state reply used by every operation.
func maintenance() domain.Result {
	return domain.InfoResult(MaintenanceMessage)
}

// Filter narrows an operation to a subject substring and/or a date range,
// inclusive on both ends. Zero times leave that end open.
type Filter struct {
	Subject string
	From    time.Time
	To      time.Time
}

// matchSubject implements the loose case-insensitive substring match the
// whole system uses for subject lookups. Multiple subjects can match one
// query; callers surface the candidate list instead of hiding it.
func matchSubject(entrySubject, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(entrySubject), strings.ToLower(query))
}

// filter applies f over the snapshot and also reports the distinct subjects
// that matched, in first-seen order.
func (e *Engine) filter(snap *store.Snapshot, f Filter) (entries []domain.TimeEntry, matched []string) {
	seen := make(map[string]struct{})
	for _, entry := range snap.Entries() {
		if !matchSubject(entry.Subject, f.Subject) {
			continue
		}
		day := entry.Day()
		if !f.From.IsZero() && day.Before(dayOf(f.From)) {
			continue
		}
		if !f.To.IsZero() && day.After(dayOf(f.To)) {
			continue
		}
		if _, ok := seen[entry.Subject]; !ok {
			seen[entry.Subject] = struct{}{}
			matched = append(matched, entry.Subject)
		}
		entries = append(entries, entry)
	}
	return entries, matched
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sumHours adds up entry durations.
func sumHours(entries []domain.TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Hours
	}
	return total
}

// hoursByDay groups total gross hours per calendar day.
func hoursByDay(entries []domain.TimeEntry) map[time.Time]float64 {
	byDay := make(map[time.Time]float64)
	for _, e := range entries {
		byDay[e.Day()] += e.Hours
	}
	return byDay
}

// sortedDays returns the keys of a per-day map in ascending order.
func sortedDays(byDay map[time.Time]float64) []time.Time {
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median returns the middle value (average of the two middles for even n).
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stddev returns the population standard deviation. Outlier scores are
// relative to the whole dataset, so the population form is the right one.
func stddev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// formatHours renders a decimal hour count as "8h30min".
func formatHours(h float64) string {
	whole := int(h)
	minutes := int(math.Round((h - float64(whole)) * 60))
	if minutes == 60 {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%dh%02dmin", whole, minutes)
}

// round2 keeps structured data at two decimal places like the warehouse
// reports do.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatDay renders a date as DD/MM/YYYY, the format users type and read.
func formatDay(t time.Time) string {
	return t.Format("02/01/2006")
}

// withAmbiguity attaches the matched-subject list when a loose subject
// filter hit more than one distinct person.
func withAmbiguity(r domain.Result, matched []string) domain.Result {
	if len(matched) > 1 {
		if r.Data == nil {
			r.Data = map[string]any{}
		}
		r.Data["matched_subjects"] = matched
	}
	return r
}
