package tentative

import (
	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// Simulation is the result of walking a week range of inventory
type Simulation struct {
	Weeks      []dto.InventoryWeek
	MinClosing float64
	Closing    float64
}

// Simulate walks [from, to] computing opening and closing finished-goods
// inventory: closing = opening + supply - demand. The closing balance of one
// week is the opening balance of the next.
func Simulate(opening float64, from, to entities.Week, supply func(entities.Week) float64, demand func(entities.Week) float64) Simulation {
	sim := Simulation{MinClosing: opening, Closing: opening}
	if to < from {
		return sim
	}

	balance := opening
	first := true
	sim.Weeks = make([]dto.InventoryWeek, 0, int(to-from)+1)
	for week := from; week <= to; week++ {
		row := dto.InventoryWeek{
			Week:    week,
			Opening: balance,
			Supply:  supply(week),
			Demand:  demand(week),
		}
		row.Closing = row.Opening + row.Supply - row.Demand
		balance = row.Closing
		if first || row.Closing < sim.MinClosing {
			sim.MinClosing = row.Closing
			first = false
		}
		sim.Weeks = append(sim.Weeks, row)
	}
	sim.Closing = balance
	return sim
}

// Project runs the simulator over a supply plan and a demand map, for
// projected-available-balance reporting
func Project(supply map[entities.Week]entities.Quantity, demand map[entities.Week]float64, opening float64, from, to entities.Week) []dto.InventoryWeek {
	return Simulate(opening, from, to,
		func(w entities.Week) float64 { return float64(supply[w]) },
		func(w entities.Week) float64 { return demand[w] },
	).Weeks
}
