package tentative

import (
	"math"
	"sort"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// Window is a range of demand weeks. An open window has no end week.
type Window struct {
	Start entities.Week
	End   entities.Week
	Open  bool
}

// Between returns the closed window [start, end]
func Between(start, end entities.Week) Window {
	return Window{Start: start, End: end}
}

// From returns the open window [start, ...)
func From(start entities.Week) Window {
	return Window{Start: start, Open: true}
}

// Contains reports whether week lies inside the window
func (w Window) Contains(week entities.Week) bool {
	return week >= w.Start && (w.Open || week <= w.End)
}

// Partitioner groups weekly demand into runs separated by zero-demand gaps
type Partitioner struct {
	GapThreshold    int
	MaxHorizonWeeks int
}

// Partition scans the window in ascending week order. A run tolerates fewer
// than GapThreshold consecutive zero weeks; it closes at its last non-zero
// week. Open windows are scanned up to MaxHorizonWeeks; demand past that
// ceiling is returned as overflow instead of being planned.
func (p Partitioner) Partition(demand map[entities.Week]float64, window Window) (runs []entities.ProductionRun, overflow *entities.ProductionRun) {
	end, hasDemand := p.scanEnd(demand, window)
	if !hasDemand {
		return nil, nil
	}

	if window.Open && p.MaxHorizonWeeks > 0 {
		ceiling := window.Start + entities.Week(p.MaxHorizonWeeks) - 1
		if end > ceiling {
			overflow = overflowBeyond(demand, ceiling)
			end = ceiling
		}
	}

	gap := p.GapThreshold
	if gap < 1 {
		gap = GapThreshold
	}

	var (
		open      bool
		runStart  entities.Week
		lastWeek  entities.Week
		qty       float64
		zeroWeeks int
	)
	closeRun := func() {
		runs = append(runs, entities.ProductionRun{
			StartWeek: runStart,
			EndWeek:   lastWeek,
			Quantity:  entities.Quantity(math.Round(qty)),
		})
		open = false
	}

	for week := window.Start; week <= end; week++ {
		d := demand[week]
		if d > 0 {
			if !open {
				open = true
				runStart = week
				qty = 0
			}
			qty += d
			lastWeek = week
			zeroWeeks = 0
			continue
		}
		if !open {
			continue
		}
		zeroWeeks++
		if zeroWeeks >= gap {
			closeRun()
		}
	}
	if open {
		closeRun()
	}

	return runs, overflow
}

// scanEnd returns the last week to scan: the window end, or for open
// windows the last non-zero demand week
func (p Partitioner) scanEnd(demand map[entities.Week]float64, window Window) (entities.Week, bool) {
	found := false
	var last entities.Week
	for week, d := range demand {
		if d <= 0 || !window.Contains(week) {
			continue
		}
		if !found || week > last {
			last = week
		}
		found = true
	}
	if !found {
		return 0, false
	}
	if !window.Open {
		return window.End, true
	}
	return last, true
}

func overflowBeyond(demand map[entities.Week]float64, ceiling entities.Week) *entities.ProductionRun {
	var weeks []entities.Week
	total := 0.0
	for week, d := range demand {
		if week > ceiling && d > 0 {
			weeks = append(weeks, week)
			total += d
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i] < weeks[j] })
	return &entities.ProductionRun{
		StartWeek: weeks[0],
		EndWeek:   weeks[len(weeks)-1],
		Quantity:  entities.Quantity(math.Round(total)),
	}
}
