// Package domain holds the core value types shared across the service.
package domain

import (
	"time"
)

// TimeEntry is one immutable time-tracking record ("apontamento").
// Duration is always non-negative; rows that cannot produce a positive
// duration are rejected by the loader and never reach this type.
type TimeEntry struct {
	Subject    string    `json:"subject"`
	Date       time.Time `json:"date"`
	Hours      float64   `json:"hours"`
	Activity   string    `json:"activity,omitempty"`
	Contract   string    `json:"contract,omitempty"`
	Technology string    `json:"technology,omitempty"`
	Profile    string    `json:"profile,omitempty"`
	Level      string    `json:"level,omitempty"`
	Validated  bool      `json:"validated"`
}

// Day returns the entry's calendar date truncated to midnight UTC.
// All date grouping in the engine keys on this value.
func (e TimeEntry) Day() time.Time {
	return time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodClassification is the business-calendar view of one (date, hours)
// pair. Computed on demand, never stored.
type PeriodClassification struct {
	Date           time.Time `json:"date"`
	Workday        bool      `json:"workday"`
	GrossHours     float64   `json:"gross_hours"`
	LunchDeduction float64   `json:"lunch_deduction"`
	NetHours       float64   `json:"net_hours"`
}
