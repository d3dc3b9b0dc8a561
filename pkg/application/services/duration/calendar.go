package duration

import (
	"math"
	"time"
)

// Calendar maps working minutes onto wall-clock time. Each working day
// starts at DayStartHour and lasts WorkDayMinutes; rest days are skipped.
type Calendar struct {
	DayStartHour   int
	WorkDayMinutes int
	RestDays       []time.Weekday
}

// DefaultCalendar is an 08:00 start, 480-minute day, Sunday off
func DefaultCalendar() Calendar {
	return Calendar{DayStartHour: 8, WorkDayMinutes: WorkDayMinutes, RestDays: []time.Weekday{time.Sunday}}
}

func (c Calendar) isRestDay(t time.Time) bool {
	for _, d := range c.RestDays {
		if t.Weekday() == d {
			return true
		}
	}
	return false
}

func (c Calendar) dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.DayStartHour, 0, 0, 0, t.Location())
}

func (c Calendar) dayLength() time.Duration {
	minutes := c.WorkDayMinutes
	if minutes <= 0 {
		minutes = WorkDayMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// NextWorkingTime returns t if it falls inside working hours, otherwise the
// start of the next working day
func (c Calendar) NextWorkingTime(t time.Time) time.Time {
	// a week of rest days at most
	for i := 0; i < 8; i++ {
		start := c.dayStart(t)
		end := start.Add(c.dayLength())
		if !c.isRestDay(t) {
			if t.Before(start) {
				return start
			}
			if t.Before(end) {
				return t
			}
		}
		t = c.dayStart(t.AddDate(0, 0, 1)).Add(-time.Duration(c.DayStartHour) * time.Hour)
	}
	return t
}

// AddWorkingMinutes returns the wall-clock time at which minutes of work
// starting at start are finished
func (c Calendar) AddWorkingMinutes(start time.Time, minutes float64) time.Time {
	cur := c.NextWorkingTime(start)
	if minutes <= 0 || math.IsInf(minutes, 1) || math.IsNaN(minutes) {
		return cur
	}
	remaining := time.Duration(math.Round(minutes * float64(time.Minute)))
	for {
		end := c.dayStart(cur).Add(c.dayLength())
		avail := end.Sub(cur)
		if remaining <= avail {
			return cur.Add(remaining)
		}
		remaining -= avail
		cur = c.NextWorkingTime(end.Add(time.Nanosecond))
	}
}

// prevWorkingTime returns t if it falls inside working hours (after the day
// start), otherwise the end of the previous working day
func (c Calendar) prevWorkingTime(t time.Time) time.Time {
	for i := 0; i < 8; i++ {
		start := c.dayStart(t)
		end := start.Add(c.dayLength())
		if !c.isRestDay(t) {
			if t.After(end) {
				return end
			}
			if t.After(start) {
				return t
			}
		}
		t = c.dayStart(t.AddDate(0, 0, -1)).Add(c.dayLength())
	}
	return t
}

// SubWorkingMinutes returns the wall-clock time at which minutes of work
// must start to finish at end
func (c Calendar) SubWorkingMinutes(end time.Time, minutes float64) time.Time {
	cur := c.prevWorkingTime(end)
	if minutes <= 0 || math.IsInf(minutes, 1) || math.IsNaN(minutes) {
		return cur
	}
	remaining := time.Duration(math.Round(minutes * float64(time.Minute)))
	for {
		start := c.dayStart(cur)
		avail := cur.Sub(start)
		if remaining <= avail {
			return cur.Add(-remaining)
		}
		remaining -= avail
		cur = c.prevWorkingTime(start)
	}
}
