// Package testing holds shared garment-planning fixtures for tests.
package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/infrastructure/repositories/memory"
)

// MustWeek parses an ISO week label, panicking on malformed input
func MustWeek(label string) entities.Week {
	week, err := entities.ParseWeek(label)
	if err != nil {
		panic(err)
	}
	return week
}

// MustCreateOrder is a helper for tests - panics on validation error
func MustCreateOrder(
	id, style, color string,
	quantity entities.Quantity,
	processes []entities.Process,
	dueDate time.Time,
	budgetEfficiency float64,
	rampUp entities.RampUpScheme,
) *entities.Order {
	order, err := entities.NewOrder(entities.OrderID(id), style, color, quantity, processes, dueDate, budgetEfficiency, rampUp)
	if err != nil {
		panic(err)
	}
	return order
}

// MustCreateSnapshot builds a forecast snapshot from plain forecast quantities
func MustCreateSnapshot(orderID string, snapshotWeek entities.Week, demand map[entities.Week]int64) *entities.ForecastSnapshot {
	weeks := make(map[entities.Week]entities.WeekDemand, len(demand))
	for week, qty := range demand {
		weeks[week] = entities.WeekDemand{ForecastQuantity: decimal.NewFromInt(qty)}
	}
	snapshot, err := entities.NewForecastSnapshot(entities.OrderID(orderID), snapshotWeek, weeks)
	if err != nil {
		panic(err)
	}
	return snapshot
}

// MustCreateLine is a helper for tests - panics on validation error
func MustCreateLine(id string, machines entities.MachineCounts) *entities.Resource {
	line, err := entities.NewResource(entities.ResourceID(id), "", entities.Line, machines)
	if err != nil {
		panic(err)
	}
	return line
}

// BufferID is the machine pool fixture that receives leftover machines
const BufferID entities.ResourceID = "BUFFER"

// BuildGarmentTestData builds a small knitwear scenario: two orders with
// forecasts, three sewing lines, one line group that needs machines and an
// empty machine buffer.
//
// TEE-NAVY needs 1000 units in 2025-W20 with a 25 minute garment SAM at 85%
// budget efficiency; POLO-WHITE carries a ramp-up and two demand runs.
func BuildGarmentTestData() (*memory.OrderRepository, *memory.ForecastRepository, *memory.ResourceRepository) {
	orderRepo := memory.NewOrderRepository(2)
	forecastRepo := memory.NewForecastRepository()
	resourceRepo := memory.NewResourceRepository()

	due := time.Date(2025, time.May, 17, 0, 0, 0, 0, time.UTC)
	orders := []*entities.Order{
		MustCreateOrder("TEE-NAVY", "TEE", "NAVY", 1000,
			[]entities.Process{
				{ID: "CUT", Sequence: 1, SAM: 5},
				{ID: "SEW", Sequence: 2, SAM: 20},
			},
			due, 85, nil),
		MustCreateOrder("POLO-WHITE", "POLO", "WHITE", 1600,
			[]entities.Process{
				{ID: "CUT", Sequence: 1, SAM: 6},
				{ID: "SEW", Sequence: 2, SAM: 24},
				{ID: "FINISH", Sequence: 3, SAM: 4},
			},
			due.AddDate(0, 1, 0), 80,
			entities.RampUpScheme{
				{DayIndex: 1, Efficiency: 40},
				{DayIndex: 3, Efficiency: 65},
				{DayIndex: 6, Efficiency: 80},
			}),
	}
	if err := orderRepo.LoadOrders(orders); err != nil {
		panic(err)
	}

	snapshotWeek := MustWeek("2025-W10")
	snapshots := []*entities.ForecastSnapshot{
		MustCreateSnapshot("TEE-NAVY", snapshotWeek, map[entities.Week]int64{
			MustWeek("2025-W20"): 1000,
		}),
		MustCreateSnapshot("POLO-WHITE", snapshotWeek, map[entities.Week]int64{
			MustWeek("2025-W18"): 400,
			MustWeek("2025-W19"): 400,
			MustWeek("2025-W26"): 800,
		}),
	}
	if err := forecastRepo.LoadSnapshots(snapshots); err != nil {
		panic(err)
	}

	group, err := entities.NewLineGroup("G1", "Polo group", entities.MachineCounts{"SNLS": 20, "OL": 6})
	if err != nil {
		panic(err)
	}
	buffer, err := entities.NewResource(BufferID, "Machine buffer", entities.Machine, nil)
	if err != nil {
		panic(err)
	}
	resources := []*entities.Resource{
		MustCreateLine("L1", entities.MachineCounts{"SNLS": 12, "OL": 4}),
		MustCreateLine("L2", entities.MachineCounts{"SNLS": 10, "OL": 2}),
		MustCreateLine("L3", entities.MachineCounts{"SNLS": 8, "FL": 3}),
		group,
		buffer,
	}
	if err := resourceRepo.LoadResources(resources); err != nil {
		panic(err)
	}

	return orderRepo, forecastRepo, resourceRepo
}
