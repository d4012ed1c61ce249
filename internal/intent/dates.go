// Package intent maps free-text questions to engine operations.
//
// Classification is deliberately dumb: an ordered keyword table plus a
// tolerant date-range pattern. The table order is a behavioral contract,
// frozen by tests, because questions can match more than one category.
package intent

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// DateRange is an inclusive date interval extracted from question text.
type DateRange struct {
	From time.Time
	To   time.Time
}

// rangePattern matches "D/M[/Y] <joiner> D/M[/Y]" with / or - separators.
// The joiner is the handful of words users actually type between two dates.
// "at" must precede "a" so the longer token wins the alternation.
var rangePattern = regexp.MustCompile(
	`(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\s*(?:até|ate|at|a|e)\s*(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?`)

var (
	// ErrNoRange reports that the text contains no date range at all.
	ErrNoRange = errors.New("no date range in text")
	// ErrInvalidDate reports a range whose numbers do not form real dates,
	// such as 31/02. Callers should guide the user to DD/MM/YYYY.
	ErrInvalidDate = errors.New("date range has an impossible date")
)

// ExtractRange scans text for an embedded date range. Year-less dates take
// the other date's year when present, otherwise refYear. Two-digit years
// are read as 20YY. Returns ErrNoRange when no range is present and
// ErrInvalidDate when one is present but malformed.
func ExtractRange(text string, refYear int) (DateRange, error) {
	m := rangePattern.FindStringSubmatch(text)
	if m == nil {
		return DateRange{}, ErrNoRange
	}

	fromYear := parseYear(m[3])
	toYear := parseYear(m[6])
	// Backfill missing years from each other before the reference year.
	if fromYear == 0 {
		fromYear = toYear
	}
	if toYear == 0 {
		toYear = fromYear
	}
	if fromYear == 0 {
		fromYear, toYear = refYear, refYear
	}

	from, ok := makeDate(m[1], m[2], fromYear)
	if !ok {
		return DateRange{}, ErrInvalidDate
	}
	to, ok := makeDate(m[4], m[5], toYear)
	if !ok {
		return DateRange{}, ErrInvalidDate
	}
	if to.Before(from) {
		from, to = to, from
	}
	return DateRange{From: from, To: to}, nil
}

func parseYear(s string) int {
	if s == "" {
		return 0
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if y < 100 {
		y += 2000
	}
	return y
}

func makeDate(dayStr, monthStr string, year int) (time.Time, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject rollovers like 31/02.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}
