// Package store loads and holds the in-memory time-entry dataset.
//
// A Snapshot is immutable after load and safe for concurrent reads. The
// Handle swaps snapshots atomically so the dataset can be hot-reloaded
// without locking readers.
package store

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
)

// ErrNoData signals an empty dataset or an empty filter result. It is a
// normal business outcome, reported to users as information, never as a
// failure.
var ErrNoData = errors.New("no matching entries")

// Loader produces a fresh snapshot from some backing source (CSV file,
// SQLite database, blob download).
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the full in-memory dataset plus its load timestamp. Never
// mutated after construction.
type Snapshot struct {
	entries  []domain.TimeEntry
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from already-validated entries.
func NewSnapshot(entries []domain.TimeEntry, loadedAt time.Time) *Snapshot {
	return &Snapshot{entries: entries, loadedAt: loadedAt}
}

// Entries returns the backing slice. Callers must treat it as read-only.
func (s *Snapshot) Entries() []domain.TimeEntry {
	return s.entries
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// LoadedAt returns the load timestamp.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Span returns the earliest and latest entry dates. ok is false when the
// snapshot is empty.
func (s *Snapshot) Span() (min, max time.Time, ok bool) {
	if len(s.entries) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = s.entries[0].Day(), s.entries[0].Day()
	for _, e := range s.entries[1:] {
		d := e.Day()
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, true
}

// TotalHours sums the duration of every entry.
func (s *Snapshot) TotalHours() float64 {
	var total float64
	for _, e := range s.entries {
		total += e.Hours
	}
	return total
}

// Subjects returns the distinct subject names in stable first-seen order.
func (s *Snapshot) Subjects() []string {
	seen := make(map[string]struct{}, 64)
	var names []string
	for _, e := range s.entries {
		if _, ok := seen[e.Subject]; !ok {
			seen[e.Subject] = struct{}{}
			names = append(names, e.Subject)
		}
	}
	return names
}

// TopSubjects returns up to n subjects ordered by total hours descending.
func (s *Snapshot) TopSubjects(n int) []SubjectHours {
	totals := make(map[string]float64)
	var order []string
	for _, e := range s.entries {
		if _, ok := totals[e.Subject]; !ok {
			order = append(order, e.Subject)
		}
		totals[e.Subject] += e.Hours
	}
	out := make([]SubjectHours, 0, len(order))
	for _, name := range order {
		out = append(out, SubjectHours{Subject: name, Hours: totals[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SubjectHours pairs a subject with an hour total.
type SubjectHours struct {
	Subject string  `json:"subject"`
	Hours   float64 `json:"hours"`
}

// Handle holds the current snapshot and swaps it atomically on reload.
// A Handle with no snapshot loaded represents the degraded "data
// unavailable" state.
type Handle struct {
	current atomic.Pointer[Snapshot]
}

// NewHandle returns an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Current returns the active snapshot, or nil when no load has succeeded.
func (h *Handle) Current() *Snapshot {
	return h.current.Load()
}

// Swap installs a new snapshot for all future readers.
func (h *Handle) Swap(s *Snapshot) {
	h.current.Store(s)
}

// Reload runs the loader and, on success, swaps the handle. On failure the
// previous snapshot (if any) stays active.
func (h *Handle) Reload(ctx context.Context, loader Loader) error {
	snap, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	h.Swap(snap)
	return nil
}
