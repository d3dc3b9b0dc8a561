// Package pipeline computes batch start and end dates through an order's
// routing. Batches flow as in a flow shop: batch b of a process starts once
// batch b of the previous process and batch b-1 of the same process are done.
package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// Policy selects how the pipeline is anchored
type Policy int

const (
	// Firm schedules forward from a fixed start
	Firm Policy = iota
	// Forecast schedules backward so the last batch finishes at the due date
	Forecast
)

func (p Policy) String() string {
	switch p {
	case Firm:
		return "firm"
	case Forecast:
		return "forecast"
	default:
		return "unknown"
	}
}

// ParsePolicy parses the String form of a Policy
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "firm", "Firm":
		return Firm, nil
	case "forecast", "Forecast":
		return Forecast, nil
	default:
		return 0, fmt.Errorf("unknown pipeline policy: %s", s)
	}
}

// Window is one batch of one process
type Window struct {
	ProcessID entities.ProcessID
	Batch     int
	Quantity  entities.Quantity
	Start     time.Time
	End       time.Time
}

// Schedule is the computed pipeline for one order
type Schedule struct {
	Policy  Policy
	Start   time.Time
	End     time.Time
	Windows []Window
	// LatestStart is, per process, the latest start of its first batch that
	// still meets the due date. Empty when the order has no due date.
	LatestStart map[entities.ProcessID]time.Time
}

// Late reports whether the pipeline ends after the due date
func (s *Schedule) Late(due time.Time) bool {
	return !due.IsZero() && s.End.After(due)
}

// Calculator computes pipelines on a work calendar
type Calculator struct {
	Model    duration.Model
	Calendar duration.Calendar
	Policy   Policy
}

// Windows splits the order quantity into batches of batchSize and schedules
// them through every process on the given number of lines. Under Firm the
// anchor is the start; under Forecast a zero anchor means the order due date
// and the anchor is the end.
func (c Calculator) Windows(order *entities.Order, lines int, batchSize entities.Quantity, anchor time.Time) (*Schedule, error) {
	if order == nil {
		return nil, fmt.Errorf("order cannot be nil")
	}
	if lines < 1 {
		return nil, fmt.Errorf("lines must be positive, got %d", lines)
	}
	if order.Quantity <= 0 {
		return nil, fmt.Errorf("order %s has no quantity", order.ID)
	}
	if batchSize <= 0 || batchSize > order.Quantity {
		batchSize = order.Quantity
	}
	if c.Policy == Forecast && anchor.IsZero() {
		anchor = order.DueDate
	}
	if anchor.IsZero() {
		return nil, fmt.Errorf("no anchor date for order %s", order.ID)
	}

	batches := splitQuantity(order.Quantity, batchSize)
	offsets, makespan, err := c.offsets(order, lines, batches)
	if err != nil {
		return nil, err
	}

	start := anchor
	if c.Policy == Forecast {
		start = c.Calendar.SubWorkingMinutes(anchor, makespan)
	}

	schedule := &Schedule{
		Policy:      c.Policy,
		Start:       c.Calendar.NextWorkingTime(start),
		End:         c.Calendar.AddWorkingMinutes(start, makespan),
		LatestStart: make(map[entities.ProcessID]time.Time),
	}
	for p, process := range order.Processes {
		for b, qty := range batches {
			schedule.Windows = append(schedule.Windows, Window{
				ProcessID: process.ID,
				Batch:     b + 1,
				Quantity:  qty,
				Start:     c.Calendar.AddWorkingMinutes(start, offsets[p][b].start),
				End:       c.Calendar.AddWorkingMinutes(start, offsets[p][b].end),
			})
		}
	}

	if !order.DueDate.IsZero() {
		latest := c.Calendar.SubWorkingMinutes(order.DueDate, makespan)
		for p, process := range order.Processes {
			schedule.LatestStart[process.ID] = c.Calendar.AddWorkingMinutes(latest, offsets[p][0].start)
		}
	}

	return schedule, nil
}

type span struct {
	start, end float64
}

// offsets returns per process and batch the working-minute span measured
// from the pipeline start, and the total makespan
func (c Calculator) offsets(order *entities.Order, lines int, batches []entities.Quantity) ([][]span, float64, error) {
	curve := duration.NewCurve(order.EffectiveRampUp())
	out := make([][]span, len(order.Processes))
	makespan := 0.0

	for p, process := range order.Processes {
		out[p] = make([]span, len(batches))
		var cumulative entities.Quantity
		prevWork := 0.0
		for b, qty := range batches {
			cumulative += qty
			// ramp-up carries across the batches of one process
			work, err := c.Model.Minutes(float64(cumulative), process.SAM, curve, lines)
			if err != nil {
				return nil, 0, fmt.Errorf("process %s of order %s: %w", process.ID, order.ID, err)
			}
			length := work.Minutes - prevWork
			prevWork = work.Minutes

			ready := 0.0
			if p > 0 {
				ready = out[p-1][b].end
			}
			if b > 0 {
				ready = math.Max(ready, out[p][b-1].end)
			}
			out[p][b] = span{start: ready, end: ready + length}
			makespan = math.Max(makespan, ready+length)
		}
	}
	return out, makespan, nil
}

func splitQuantity(qty, batchSize entities.Quantity) []entities.Quantity {
	var out []entities.Quantity
	for qty > 0 {
		n := min(batchSize, qty)
		out = append(out, n)
		qty -= n
	}
	return out
}
