package dto

import "github.com/vsinha/lineplan/pkg/domain/entities"

// TentativePlan is the output of one plan generation for an order
type TentativePlan struct {
	OrderID         entities.OrderID
	SimulationFloor entities.Week
	Weekly          map[entities.Week]entities.Quantity
	Runs            []entities.PlannedRun
	Inventory       []InventoryWeek
	Gaps            []PlanningGap

	OpeningInventory float64
	ClosingInventory float64
}

// TotalPlanned sums the weekly plan
func (p *TentativePlan) TotalPlanned() entities.Quantity {
	var total entities.Quantity
	for _, q := range p.Weekly {
		total += q
	}
	return total
}

// PlanningGap records a run that could not be planned. The run is absent
// from Weekly and Runs; Err wraps the reason.
type PlanningGap struct {
	Run entities.ProductionRun
	Err error
}

// HistoricPlan is a two-phase plan: runs already produced before the active
// snapshot week, then the current re-plan seeded with the past inventory
type HistoricPlan struct {
	Produced TentativePlan
	Current  TentativePlan
}

// InventoryWeek is one row of an inventory projection
type InventoryWeek struct {
	Week    entities.Week
	Opening float64
	Supply  float64
	Demand  float64
	Closing float64
}

// ProductionWeek compares the tentative plan with what has been placed on
// the timeline for one week. Closing is the projected inventory when only
// the scheduled output is produced.
type ProductionWeek struct {
	Week      entities.Week
	Demand    float64
	Planned   entities.Quantity
	Scheduled entities.Quantity
	Closing   float64
}
