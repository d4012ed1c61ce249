package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWorkday(t *testing.T) {
	tests := []struct {
		day  time.Time
		want bool
	}{
		{date(2025, time.September, 1), true},  // Monday
		{date(2025, time.September, 2), true},  // Tuesday
		{date(2025, time.September, 5), true},  // Friday
		{date(2025, time.September, 6), false}, // Saturday
		{date(2025, time.September, 7), false}, // Sunday
	}

	for _, tt := range tests {
		if got := IsWorkday(tt.day); got != tt.want {
			t.Errorf("IsWorkday(%s) = %v, want %v", tt.day.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestIsWorkdayMatchesWeekday(t *testing.T) {
	// Every date is either a workday or a weekend day, never both.
	start := date(2025, time.January, 1)
	for i := 0; i < 365; i++ {
		d := start.AddDate(0, 0, i)
		wd := d.Weekday()
		want := wd >= time.Monday && wd <= time.Friday
		if got := IsWorkday(d); got != want {
			t.Fatalf("IsWorkday(%s) = %v, want %v", d.Format("2006-01-02"), got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	monday := date(2025, time.September, 1)
	saturday := date(2025, time.September, 6)

	tests := []struct {
		name      string
		day       time.Time
		gross     float64
		wantNet   float64
		wantLunch float64
	}{
		{"workday deducts lunch", monday, 9.0, 8.0, 1.0},
		{"workday short shift floors at zero", monday, 0.5, 0.0, 0.5},
		{"workday zero hours keeps zero", monday, 0.0, 0.0, 0.0},
		{"weekend keeps gross", saturday, 5.0, 5.0, 0.0},
		{"weekend zero", saturday, 0.0, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.day, tt.gross)
			if c.NetHours != tt.wantNet {
				t.Errorf("net = %v, want %v", c.NetHours, tt.wantNet)
			}
			if c.LunchDeduction != tt.wantLunch {
				t.Errorf("lunch = %v, want %v", c.LunchDeduction, tt.wantLunch)
			}
			if c.GrossHours != tt.gross {
				t.Errorf("gross = %v, want %v", c.GrossHours, tt.gross)
			}
		})
	}
}

func TestCountDays(t *testing.T) {
	// 01/09/2025 (Mon) .. 30/09/2025 (Tue): 22 workdays, 8 weekend days.
	work, weekend := CountDays(date(2025, time.September, 1), date(2025, time.September, 30))
	if work != 22 {
		t.Errorf("workdays = %d, want 22", work)
	}
	if weekend != 8 {
		t.Errorf("weekend days = %d, want 8", weekend)
	}

	// Single day range.
	work, weekend = CountDays(date(2025, time.September, 6), date(2025, time.September, 6))
	if work != 0 || weekend != 1 {
		t.Errorf("saturday alone = (%d, %d), want (0, 1)", work, weekend)
	}

	// Reversed range yields nothing.
	work, weekend = CountDays(date(2025, time.September, 10), date(2025, time.September, 1))
	if work != 0 || weekend != 0 {
		t.Errorf("reversed range = (%d, %d), want (0, 0)", work, weekend)
	}
}

func TestWorkdaysBetween(t *testing.T) {
	days := WorkdaysBetween(date(2025, time.September, 1), date(2025, time.September, 7))
	if len(days) != 5 {
		t.Fatalf("got %d workdays, want 5", len(days))
	}
	if !days[0].Equal(date(2025, time.September, 1)) {
		t.Errorf("first workday = %s, want 2025-09-01", days[0].Format("2006-01-02"))
	}
	if !days[4].Equal(date(2025, time.September, 5)) {
		t.Errorf("last workday = %s, want 2025-09-05", days[4].Format("2006-01-02"))
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2025, time.September, 3), date(2025, time.September, 1)},  // Wednesday
		{date(2025, time.September, 1), date(2025, time.September, 1)},  // Monday itself
		{date(2025, time.September, 7), date(2025, time.September, 1)},  // Sunday belongs to the prior Monday
		{date(2025, time.September, 8), date(2025, time.September, 8)},  // next Monday
	}

	for _, tt := range tests {
		if got := WeekStart(tt.in); !got.Equal(tt.want) {
			t.Errorf("WeekStart(%s) = %s, want %s",
				tt.in.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}
