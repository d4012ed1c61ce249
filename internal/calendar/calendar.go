// Package calendar provides business-day classification for time entries.
// Weekends are the only non-working days; public holidays are not modeled.
package calendar

import (
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
)

// LunchDeduction is the fixed daily lunch-break deduction in hours. It is a
// business rule, not derived from the actual worked hours.
const LunchDeduction = 1.0

// IsWorkday reports whether d falls on Monday through Friday.
func IsWorkday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Classify computes the net-hours view of one day. On workdays with positive
// gross hours exactly one lunch hour is deducted, floored at zero. Weekends
// and empty days keep their gross value.
func Classify(d time.Time, grossHours float64) domain.PeriodClassification {
	c := domain.PeriodClassification{
		Date:       time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Workday:    IsWorkday(d),
		GrossHours: grossHours,
		NetHours:   grossHours,
	}
	if c.Workday && grossHours > 0 {
		c.LunchDeduction = LunchDeduction
		c.NetHours = grossHours - LunchDeduction
		if c.NetHours < 0 {
			c.LunchDeduction = grossHours
			c.NetHours = 0
		}
	}
	return c
}

// CountDays returns the number of workdays and weekend days in [start, end],
// inclusive on both ends. Reversed ranges yield zero.
func CountDays(start, end time.Time) (workdays, weekendDays int) {
	for d := startOfDay(start); !d.After(startOfDay(end)); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			workdays++
		} else {
			weekendDays++
		}
	}
	return workdays, weekendDays
}

// WorkdaysBetween lists every workday in [start, end], inclusive.
func WorkdaysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	for d := startOfDay(start); !d.After(startOfDay(end)); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			days = append(days, d)
		}
	}
	return days
}

// WeekStart returns the Monday 00:00 of the week containing t.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	return startOfDay(monday)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
