package entities

import "fmt"

// ProductionRun is a contiguous, gap-bounded span of non-zero demand weeks
type ProductionRun struct {
	StartWeek Week
	EndWeek   Week
	Quantity  Quantity
}

// Weeks returns the number of weeks the run spans
func (r ProductionRun) Weeks() int {
	return int(r.EndWeek-r.StartWeek) + 1
}

// PlannedRun is a production run with its chosen line count and start week
type PlannedRun struct {
	Run       ProductionRun
	Lines     int
	StartWeek Week
	Offset    int
	EndWeek   Week

	// WeeklyOutput is the full-ramp output of Lines lines per week
	WeeklyOutput float64
	// MinClosingInventory is the lowest closing balance seen while sizing the offset
	MinClosingInventory float64
}

// NewPlannedRun creates a validated PlannedRun
func NewPlannedRun(run ProductionRun, lines int, startWeek Week, endWeek Week, weeklyOutput, minClosing float64) (*PlannedRun, error) {
	if lines < 1 {
		return nil, fmt.Errorf("lines must be positive, got %d", lines)
	}
	if run.Quantity <= 0 {
		return nil, fmt.Errorf("run quantity must be positive, got %d", run.Quantity)
	}
	if run.EndWeek < run.StartWeek {
		return nil, fmt.Errorf("run end week %s is before start week %s", run.EndWeek, run.StartWeek)
	}
	offset := int(run.StartWeek - startWeek)
	if offset < 0 {
		offset = 0
	}
	if endWeek < startWeek {
		return nil, fmt.Errorf("planned end week %s is before start week %s", endWeek, startWeek)
	}
	if weeklyOutput <= 0 {
		return nil, fmt.Errorf("weekly output must be positive, got %g", weeklyOutput)
	}

	return &PlannedRun{
		Run:                 run,
		Lines:               lines,
		StartWeek:           startWeek,
		Offset:              offset,
		EndWeek:             endWeek,
		WeeklyOutput:        weeklyOutput,
		MinClosingInventory: minClosing,
	}, nil
}
