package tentative

import (
	"fmt"
	"math"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// Placement is an accepted line count and start week for one run
type Placement struct {
	Planned    entities.PlannedRun
	Allocation map[entities.Week]entities.Quantity
	Inventory  []dto.InventoryWeek
	Closing    float64
}

// CapacitySearch escalates the line count for a run until the required
// start offset fits within OffsetCap
type CapacitySearch struct {
	Model           duration.Model
	Curve           duration.Curve
	SAM             float64
	OffsetCap       int
	MaxLines        int
	MaxHorizonWeeks int
}

// Place sizes a single run. carry is the inventory entering the run and
// floor the earliest week production may start.
func (s CapacitySearch) Place(run entities.ProductionRun, demand map[entities.Week]float64, carry float64, floor entities.Week) (*Placement, error) {
	maxLines := s.MaxLines
	if maxLines < 1 {
		maxLines = MaxLines
	}
	runDemand := func(w entities.Week) float64 {
		if w < run.StartWeek || w > run.EndWeek {
			return 0
		}
		return demand[w]
	}

	for lines := 1; lines <= maxLines; lines++ {
		weekly := s.Model.WeeklyOutput(s.SAM, s.Curve, lines)
		if weekly <= 0 {
			return nil, fmt.Errorf("%w: no weekly output for run %s-%s", ErrUnsatisfiableRun, run.StartWeek, run.EndWeek)
		}

		// the first week of a run is produced cold
		sizing := Simulate(carry, run.StartWeek, run.EndWeek,
			func(w entities.Week) float64 {
				if w == run.StartWeek {
					return 0
				}
				return weekly
			},
			runDemand,
		)

		offset := 0
		if sizing.MinClosing < 0 {
			offset = int(math.Ceil(-sizing.MinClosing/weekly - 1e-9))
		}
		start := run.StartWeek - entities.Week(offset)
		if start < floor {
			start = floor
		}
		if effective := int(run.StartWeek - start); effective > s.OffsetCap {
			continue
		}

		productionWeeks := int(math.Ceil(float64(run.Quantity)/weekly - 1e-9))
		if productionWeeks < 1 {
			productionWeeks = 1
		}
		if s.MaxHorizonWeeks > 0 && productionWeeks > s.MaxHorizonWeeks {
			continue
		}
		end := start + entities.Week(productionWeeks) - 1

		allocation := allocate(run.Quantity, weekly, start, productionWeeks)

		simEnd := end
		if run.EndWeek > simEnd {
			simEnd = run.EndWeek
		}
		final := Simulate(carry, start, simEnd,
			func(w entities.Week) float64 { return float64(allocation[w]) },
			runDemand,
		)

		planned, err := entities.NewPlannedRun(run, lines, start, end, weekly, sizing.MinClosing)
		if err != nil {
			return nil, fmt.Errorf("failed to build planned run: %w", err)
		}

		return &Placement{
			Planned:    *planned,
			Allocation: allocation,
			Inventory:  final.Weeks,
			Closing:    final.Closing,
		}, nil
	}

	return nil, fmt.Errorf("%w: run %s-%s of %d units needs more than %d lines",
		ErrUnsatisfiableRun, run.StartWeek, run.EndWeek, run.Quantity, maxLines)
}

// allocate spreads qty over consecutive weeks at up to weekly units per week.
// Cumulative rounding keeps the sum exactly equal to qty.
func allocate(qty entities.Quantity, weekly float64, start entities.Week, weeks int) map[entities.Week]entities.Quantity {
	out := make(map[entities.Week]entities.Quantity, weeks)
	var done entities.Quantity
	for k := 1; k <= weeks && done < qty; k++ {
		target := entities.Quantity(math.Round(float64(k) * weekly))
		if target > qty || k == weeks {
			target = qty
		}
		if target > done {
			out[start+entities.Week(k-1)] = target - done
			done = target
		}
	}
	return out
}
