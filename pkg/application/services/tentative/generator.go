// Package tentative turns weekly forecast demand into a weekly production
// plan: demand is split into gap-bounded runs and each run is sized by
// escalating its line count until the required start offset is acceptable.
package tentative

import (
	"errors"
	"log/slog"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

const (
	// GapThreshold is the number of consecutive zero-demand weeks that ends a run
	GapThreshold = 4
	// OffsetCap is the largest accepted early start, in weeks
	OffsetCap = 4
	// MaxLines bounds the line-count escalation
	MaxLines = 100
	// MaxHorizonWeeks bounds open demand windows and single-run production spans
	MaxHorizonWeeks = 52
)

var (
	// ErrUnsatisfiableRun is recorded when no line count up to MaxLines fits the offset cap
	ErrUnsatisfiableRun = errors.New("run cannot be satisfied within the line ceiling")
	// ErrHorizonExceeded is recorded for demand beyond the planning horizon
	ErrHorizonExceeded = errors.New("demand beyond the planning horizon")
)

// Config holds the planning thresholds
type Config struct {
	GapThreshold    int
	OffsetCap       int
	MaxLines        int
	MaxHorizonWeeks int
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		GapThreshold:    GapThreshold,
		OffsetCap:       OffsetCap,
		MaxLines:        MaxLines,
		MaxHorizonWeeks: MaxHorizonWeeks,
	}
}

// Generator produces tentative plans. It holds no mutable state, so one
// Generator may plan many orders concurrently.
type Generator struct {
	config Config
	model  duration.Model
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logger discards output.
func NewGenerator(config Config, model duration.Model, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{config: config, model: model, logger: logger}
}

// Generate plans the snapshot's demand from the simulation floor onwards,
// starting from carryOver units of finished-goods inventory. A missing
// snapshot, SAM or efficiency curve yields an empty plan.
func (g *Generator) Generate(order *entities.Order, snapshot *entities.ForecastSnapshot, floor entities.Week, carryOver float64) dto.TentativePlan {
	if snapshot == nil {
		return emptyPlan(order, floor, carryOver)
	}
	return g.plan(order, snapshot.Demand(), From(floor), floor, carryOver)
}

// GenerateWithHistory plans in two phases. Weeks before the latest snapshot
// week are planned first from historyFrom, using the demand each week was
// last known to have; a run spanning the snapshot week is split there. The
// current plan then starts at the snapshot week seeded with the inventory the
// past phase ends with.
func (g *Generator) GenerateWithHistory(order *entities.Order, series entities.ForecastSeries, historyFrom entities.Week, carryOver float64) dto.HistoricPlan {
	latest := series.Latest()
	if latest == nil {
		return dto.HistoricPlan{
			Produced: emptyPlan(order, historyFrom, carryOver),
			Current:  emptyPlan(order, historyFrom, carryOver),
		}
	}

	produced := emptyPlan(order, historyFrom, carryOver)
	if historyFrom < latest.SnapshotWeek {
		past := series.EffectiveDemand(latest.SnapshotWeek)
		produced = g.plan(order, past, Between(historyFrom, latest.SnapshotWeek-1), historyFrom, carryOver)
	}

	current := g.Generate(order, latest, latest.SnapshotWeek, produced.ClosingInventory)
	return dto.HistoricPlan{Produced: produced, Current: current}
}

func (g *Generator) plan(order *entities.Order, demand map[entities.Week]float64, window Window, floor entities.Week, carryOver float64) dto.TentativePlan {
	result := emptyPlan(order, floor, carryOver)
	if order == nil {
		return result
	}

	sam := order.TotalSAM()
	curve := duration.NewCurve(order.EffectiveRampUp())
	if sam <= 0 || curve.Empty() {
		g.logger.Debug("skipping plan with missing inputs",
			slog.String("order", string(order.ID)),
			slog.Float64("sam", sam),
			slog.Bool("curve", !curve.Empty()))
		return result
	}

	partitioner := Partitioner{GapThreshold: g.config.GapThreshold, MaxHorizonWeeks: g.config.MaxHorizonWeeks}
	runs, overflow := partitioner.Partition(demand, window)
	if overflow != nil && overflow.Quantity > 0 {
		result.Gaps = append(result.Gaps, dto.PlanningGap{Run: *overflow, Err: ErrHorizonExceeded})
		g.logger.Warn("demand beyond planning horizon",
			slog.String("order", string(order.ID)),
			slog.String("from", overflow.StartWeek.String()),
			slog.Int64("quantity", int64(overflow.Quantity)))
	}

	search := CapacitySearch{
		Model:           g.model,
		Curve:           curve,
		SAM:             sam,
		OffsetCap:       g.config.OffsetCap,
		MaxLines:        g.config.MaxLines,
		MaxHorizonWeeks: g.config.MaxHorizonWeeks,
	}

	carry := carryOver
	for _, run := range runs {
		if run.Quantity <= 0 {
			continue
		}
		placement, err := search.Place(run, demand, carry, floor)
		if err != nil {
			result.Gaps = append(result.Gaps, dto.PlanningGap{Run: run, Err: err})
			g.logger.Warn("run left unplanned",
				slog.String("order", string(order.ID)),
				slog.String("run_start", run.StartWeek.String()),
				slog.Int64("quantity", int64(run.Quantity)),
				slog.Any("error", err))
			continue
		}

		for week, qty := range placement.Allocation {
			result.Weekly[week] += qty
		}
		result.Runs = append(result.Runs, placement.Planned)
		carry = placement.Closing
	}

	result.Inventory = projectPlan(result, demand)
	result.ClosingInventory = carry
	return result
}

// projectPlan walks the whole weekly plan once so each week has a single
// inventory row, even where one run starts before the previous run's demand
// window has closed. Only demand inside planned runs is counted.
func projectPlan(plan dto.TentativePlan, demand map[entities.Week]float64) []dto.InventoryWeek {
	if len(plan.Runs) == 0 {
		return nil
	}
	from, to := plan.Runs[0].StartWeek, plan.Runs[0].EndWeek
	covered := make(map[entities.Week]float64)
	for _, run := range plan.Runs {
		from = min(from, run.StartWeek)
		to = max(to, run.EndWeek, run.Run.EndWeek)
		for w := run.Run.StartWeek; w <= run.Run.EndWeek; w++ {
			if d, ok := demand[w]; ok {
				covered[w] = d
			}
		}
	}
	return Project(plan.Weekly, covered, plan.OpeningInventory, from, to)
}

func emptyPlan(order *entities.Order, floor entities.Week, carry float64) dto.TentativePlan {
	plan := dto.TentativePlan{
		SimulationFloor:  floor,
		Weekly:           make(map[entities.Week]entities.Quantity),
		OpeningInventory: carry,
		ClosingInventory: carry,
	}
	if order != nil {
		plan.OrderID = order.ID
	}
	return plan
}
