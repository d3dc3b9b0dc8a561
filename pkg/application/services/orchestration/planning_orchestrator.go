package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/application/services/pipeline"
	"github.com/vsinha/lineplan/pkg/application/services/tentative"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
)

// PlanningOrchestrator coordinates plan generation with the order and
// forecast repositories and reports what it did through events
type PlanningOrchestrator struct {
	generator    *tentative.Generator
	model        duration.Model
	calendar     duration.Calendar
	orderRepo    repositories.OrderRepository
	forecastRepo repositories.ForecastRepository
	eventStore   events.EventStore
	observer     UseCaseObserver
}

// NewPlanningOrchestrator creates a new planning orchestrator. eventStore may be nil.
func NewPlanningOrchestrator(
	generator *tentative.Generator,
	model duration.Model,
	calendar duration.Calendar,
	orderRepo repositories.OrderRepository,
	forecastRepo repositories.ForecastRepository,
	eventStore events.EventStore,
	observers ...UseCaseObserver,
) *PlanningOrchestrator {
	return &PlanningOrchestrator{
		generator:    generator,
		model:        model,
		calendar:     calendar,
		orderRepo:    orderRepo,
		forecastRepo: forecastRepo,
		eventStore:   eventStore,
		observer:     useCaseObserverOrNoop(observers),
	}
}

// PlanRequest selects what to plan. A zero Floor means the latest snapshot
// week; a non-zero HistoryFrom plans the already produced weeks first.
type PlanRequest struct {
	OrderID     entities.OrderID
	Floor       entities.Week
	CarryOver   float64
	HistoryFrom entities.Week
}

// PlanningResult contains the plan of one order
type PlanningResult struct {
	Order     *entities.Order
	Plan      dto.TentativePlan
	Produced  *dto.TentativePlan // only set for history plans
	Demand    map[entities.Week]float64
	PlannedAt time.Time
}

// PlanOrder generates the tentative plan of one order from its latest
// forecast snapshot. An order without forecast gets an empty plan.
func (po *PlanningOrchestrator) PlanOrder(ctx context.Context, req PlanRequest) (result *PlanningResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"order": string(req.OrderID)}
	defer observe(ctx, po.observer, "plan-order", startedAt, fields, &err)

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	order, err := po.orderRepo.GetOrder(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", req.OrderID, err)
	}

	series, err := po.forecastRepo.GetSeries(req.OrderID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load forecast for %s: %w", req.OrderID, err)
	}
	err = nil

	latest := series.Latest()
	floor := req.Floor
	if floor == 0 && latest != nil {
		floor = latest.SnapshotWeek
	}

	result = &PlanningResult{Order: order, PlannedAt: startedAt}
	if req.HistoryFrom != 0 && latest != nil {
		historic := po.generator.GenerateWithHistory(order, series, req.HistoryFrom, req.CarryOver)
		result.Plan = historic.Current
		result.Produced = &historic.Produced
		result.Demand = series.EffectiveDemand(latest.SnapshotWeek)
	} else {
		result.Plan = po.generator.Generate(order, latest, floor, req.CarryOver)
		if latest != nil {
			result.Demand = latest.Demand()
		}
	}

	fields["runs"] = len(result.Plan.Runs)
	fields["planned"] = int64(result.Plan.TotalPlanned())
	fields["gaps"] = len(result.Plan.Gaps)

	if err = po.publishPlan(order.ID, result.Plan); err != nil {
		return nil, fmt.Errorf("failed to publish plan events for %s: %w", order.ID, err)
	}
	return result, nil
}

// PlanAll plans every known order concurrently, at most limit at a time.
// Results follow the repository's order listing.
func (po *PlanningOrchestrator) PlanAll(ctx context.Context, template PlanRequest, limit int) (results []*PlanningResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"limit": limit}
	defer observe(ctx, po.observer, "plan-all", startedAt, fields, &err)

	orders, err := po.orderRepo.GetAllOrders()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	fields["orders"] = len(orders)

	results = make([]*PlanningResult, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, order := range orders {
		req := template
		req.OrderID = order.ID
		g.Go(func() error {
			res, err := po.PlanOrder(gctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SeedWorkItems turns every planned run into one unplaced work item per
// process. Each item's LatestStart is the latest start that still finishes
// the run by the end of its last demand week.
func (po *PlanningOrchestrator) SeedWorkItems(order *entities.Order, plan dto.TentativePlan) ([]entities.ScheduledProcess, error) {
	calc := pipeline.Calculator{Model: po.model, Calendar: po.calendar, Policy: pipeline.Forecast}

	var items []entities.ScheduledProcess
	for _, run := range plan.Runs {
		runOrder := *order
		runOrder.Quantity = run.Run.Quantity
		runOrder.DueDate = (run.Run.EndWeek + 1).Start()

		schedule, err := calc.Windows(&runOrder, run.Lines, 0, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("pipeline for run %s..%s of %s: %w", run.Run.StartWeek, run.Run.EndWeek, order.ID, err)
		}

		for _, process := range order.Processes {
			if process.SAM <= 0 {
				continue
			}
			item, err := timeline.NewWorkItem(po.model, order, process.ID, run.Run.Quantity, run.Lines)
			if err != nil {
				return nil, err
			}
			if latest, ok := schedule.LatestStart[process.ID]; ok {
				item.LatestStart = &latest
			}
			items = append(items, *item)
		}
	}
	return items, nil
}

// ProductionVsPlan plans the order and compares, week by week, the planned
// output with the finished output placed on the timeline. An item counts
// as finished output when it is the order's last process, in the week it ends.
func (po *PlanningOrchestrator) ProductionVsPlan(ctx context.Context, req PlanRequest, items []entities.ScheduledProcess) ([]dto.ProductionWeek, error) {
	result, err := po.PlanOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	order := result.Order
	last := order.Processes[len(order.Processes)-1].ID

	scheduled := make(map[entities.Week]entities.Quantity)
	for _, item := range items {
		if item.OrderID != order.ID || item.ProcessID != last || !item.Placed() {
			continue
		}
		scheduled[entities.WeekOf(item.End)] += item.Quantity
	}

	from := result.Plan.SimulationFloor
	to := from
	for week := range result.Demand {
		to = max(to, week)
	}
	for week := range result.Plan.Weekly {
		to = max(to, week)
	}
	for week := range scheduled {
		from = min(from, week)
		to = max(to, week)
	}

	projection := tentative.Project(scheduled, result.Demand, result.Plan.OpeningInventory, from, to)
	rows := make([]dto.ProductionWeek, 0, len(projection))
	for _, week := range projection {
		rows = append(rows, dto.ProductionWeek{
			Week:      week.Week,
			Demand:    week.Demand,
			Planned:   result.Plan.Weekly[week.Week],
			Scheduled: scheduled[week.Week],
			Closing:   week.Closing,
		})
	}
	return rows, nil
}

func (po *PlanningOrchestrator) publishPlan(orderID entities.OrderID, plan dto.TentativePlan) error {
	evts := []events.Event{events.NewPlanGeneratedEvent(orderID, len(plan.Runs), plan.TotalPlanned())}
	for _, gap := range plan.Gaps {
		evts = append(evts, events.NewRunUnplannedEvent(orderID, gap.Run, gap.Err))
	}
	return publish(po.eventStore, evts...)
}

func publish(store events.EventStore, evts ...events.Event) error {
	if store == nil {
		return nil
	}
	var errs []error
	for _, e := range evts {
		if err := store.AppendEvent(e.StreamID(), e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
