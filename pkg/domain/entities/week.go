package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Week is an absolute week ordinal. Week 0 is ISO week 1970-W01, which
// starts on Monday 1969-12-29; consecutive weeks differ by one.
type Week int

var weekEpoch = time.Date(1969, time.December, 29, 0, 0, 0, 0, time.UTC)

// WeekOf returns the week containing t
func WeekOf(t time.Time) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(weekEpoch).Hours() / 24)
	if days < 0 {
		return Week((days - 6) / 7)
	}
	return Week(days / 7)
}

// Start returns the Monday (UTC midnight) that begins the week
func (w Week) Start() time.Time {
	return weekEpoch.AddDate(0, 0, int(w)*7)
}

// String formats the week as an ISO week label, e.g. "2025-W10"
func (w Week) String() string {
	year, week := w.Start().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ParseWeek parses an ISO week label ("2025-W10") or a bare week ordinal ("10")
func ParseWeek(s string) (Week, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("week cannot be empty")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return Week(n), nil
	}

	parts := strings.SplitN(strings.ToUpper(s), "-W", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid week %q (expected YYYY-Www)", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid week year in %q: %w", s, err)
	}
	week, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid week number in %q: %w", s, err)
	}
	if week < 1 || week > 53 {
		return 0, fmt.Errorf("week number must be between 1 and 53, got %d", week)
	}

	// ISO week 1 is the week containing January 4th
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
	return WeekOf(monday), nil
}
