package orchestration

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/application/services/tentative"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
	"github.com/vsinha/lineplan/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/lineplan/pkg/infrastructure/testing"
)

type recordingObserver struct {
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	o.events = append(o.events, event)
}

func newPlanningFixture(t *testing.T) (*PlanningOrchestrator, *memory.OrderRepository, *events.InMemoryEventStore, *recordingObserver) {
	t.Helper()
	orderRepo, forecastRepo, _ := testhelpers.BuildGarmentTestData()
	store := events.NewInMemoryEventStore()
	observer := &recordingObserver{}
	model := duration.NewModel()
	orchestrator := NewPlanningOrchestrator(
		tentative.NewGenerator(tentative.DefaultConfig(), model, nil),
		model,
		duration.DefaultCalendar(),
		orderRepo,
		forecastRepo,
		store,
		observer,
	)
	return orchestrator, orderRepo, store, observer
}

func TestPlanOrder_SizesRunAndPublishes(t *testing.T) {
	orchestrator, _, store, observer := newPlanningFixture(t)

	result, err := orchestrator.PlanOrder(context.Background(), PlanRequest{OrderID: "TEE-NAVY"})
	require.NoError(t, err)

	plan := result.Plan
	require.Len(t, plan.Runs, 1)
	assert.Equal(t, testhelpers.MustWeek("2025-W10"), plan.SimulationFloor)
	assert.Equal(t, 3, plan.Runs[0].Lines)
	assert.Equal(t, testhelpers.MustWeek("2025-W16"), plan.Runs[0].StartWeek)
	assert.Equal(t, entities.Quantity(1000), plan.TotalPlanned())
	assert.Empty(t, plan.Gaps)
	assert.Nil(t, result.Produced)

	published, err := store.ReadEvents("TEE-NAVY", 0)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, events.PlanGeneratedEvent, published[0].Type())
	payload := published[0].Data().(events.PlanGenerated)
	assert.Equal(t, entities.Quantity(1000), payload.Planned)

	require.Len(t, observer.events, 1)
	assert.Equal(t, "plan-order", observer.events[0].Name)
	assert.True(t, observer.events[0].Success)
	assert.Equal(t, 1, observer.events[0].Fields["runs"])
}

func TestPlanOrder_UnknownOrder(t *testing.T) {
	orchestrator, _, _, observer := newPlanningFixture(t)

	_, err := orchestrator.PlanOrder(context.Background(), PlanRequest{OrderID: "NOPE"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))

	require.Len(t, observer.events, 1)
	assert.False(t, observer.events[0].Success)
	assert.Error(t, observer.events[0].Err)
}

func TestPlanOrder_NoForecastGivesEmptyPlan(t *testing.T) {
	orchestrator, orderRepo, _, _ := newPlanningFixture(t)
	require.NoError(t, orderRepo.LoadOrders([]*entities.Order{
		testhelpers.MustCreateOrder("NO-FC", "TEE", "RED", 100,
			[]entities.Process{{ID: "SEW", Sequence: 1, SAM: 10}}, time.Time{}, 80, nil),
	}))

	result, err := orchestrator.PlanOrder(context.Background(), PlanRequest{OrderID: "NO-FC", CarryOver: 25})
	require.NoError(t, err)
	assert.Empty(t, result.Plan.Runs)
	assert.Equal(t, entities.Quantity(0), result.Plan.TotalPlanned())
	assert.InDelta(t, 25, result.Plan.ClosingInventory, 1e-9)
}

func TestPlanOrder_WithHistory(t *testing.T) {
	orchestrator, _, _, _ := newPlanningFixture(t)

	result, err := orchestrator.PlanOrder(context.Background(), PlanRequest{
		OrderID:     "TEE-NAVY",
		HistoryFrom: testhelpers.MustWeek("2025-W01"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Produced)
	// nothing was due before the snapshot week
	assert.Empty(t, result.Produced.Runs)
	assert.Equal(t, entities.Quantity(1000), result.Plan.TotalPlanned())
}

func TestPlanOrder_CancelledContext(t *testing.T) {
	orchestrator, _, _, _ := newPlanningFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orchestrator.PlanOrder(ctx, PlanRequest{OrderID: "TEE-NAVY"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanAll(t *testing.T) {
	orchestrator, _, store, _ := newPlanningFixture(t)

	results, err := orchestrator.PlanAll(context.Background(), PlanRequest{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, entities.OrderID("POLO-WHITE"), results[0].Order.ID)
	assert.Equal(t, entities.OrderID("TEE-NAVY"), results[1].Order.ID)

	// two demand runs separated by six empty weeks
	assert.Len(t, results[0].Plan.Runs, 2)
	assert.Equal(t, entities.Quantity(1600), results[0].Plan.TotalPlanned())

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	generated := 0
	for _, e := range all {
		if e.Type() == events.PlanGeneratedEvent {
			generated++
		}
	}
	assert.Equal(t, 2, generated)
}

func TestSeedWorkItems(t *testing.T) {
	orchestrator, orderRepo, _, _ := newPlanningFixture(t)
	result, err := orchestrator.PlanOrder(context.Background(), PlanRequest{OrderID: "TEE-NAVY"})
	require.NoError(t, err)

	order, err := orderRepo.GetOrder("TEE-NAVY")
	require.NoError(t, err)
	items, err := orchestrator.SeedWorkItems(order, result.Plan)
	require.NoError(t, err)
	require.Len(t, items, 2)

	cut, sew := items[0], items[1]
	assert.Equal(t, entities.ProcessID("CUT"), cut.ProcessID)
	assert.Equal(t, entities.ProcessID("SEW"), sew.ProcessID)
	for _, item := range items {
		assert.False(t, item.Placed())
		assert.Equal(t, entities.Quantity(1000), item.Quantity)
		require.NotNil(t, item.LatestStart)
		assert.True(t, item.LatestStart.Before(testhelpers.MustWeek("2025-W20").Start()))
	}
	assert.True(t, cut.LatestStart.Before(*sew.LatestStart))
	assert.Greater(t, sew.WorkMinutes, cut.WorkMinutes)
}

func TestProductionVsPlan(t *testing.T) {
	orchestrator, _, _, _ := newPlanningFixture(t)
	w18 := testhelpers.MustWeek("2025-W18").Start()

	items := []entities.ScheduledProcess{
		{ID: "sew", ResourceID: "L1", OrderID: "TEE-NAVY", ProcessID: "SEW", Quantity: 600,
			Start: w18.Add(8 * time.Hour), End: w18.Add(48 * time.Hour)},
		{ID: "cut", ResourceID: "L2", OrderID: "TEE-NAVY", ProcessID: "CUT", Quantity: 1000,
			Start: w18.Add(8 * time.Hour), End: w18.Add(10 * time.Hour)},
		{ID: "other", ResourceID: "L1", OrderID: "POLO-WHITE", ProcessID: "FINISH", Quantity: 50,
			Start: w18.Add(50 * time.Hour), End: w18.Add(52 * time.Hour)},
	}

	rows, err := orchestrator.ProductionVsPlan(context.Background(), PlanRequest{OrderID: "TEE-NAVY"}, items)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, testhelpers.MustWeek("2025-W10"), rows[0].Week)
	last := rows[len(rows)-1]
	assert.Equal(t, testhelpers.MustWeek("2025-W20"), last.Week)
	assert.InDelta(t, 1000, last.Demand, 1e-9)
	assert.InDelta(t, -400, last.Closing, 1e-9)

	var scheduled, planned entities.Quantity
	for _, row := range rows {
		scheduled += row.Scheduled
		planned += row.Planned
		if row.Week == testhelpers.MustWeek("2025-W18") {
			assert.Equal(t, entities.Quantity(600), row.Scheduled)
		}
	}
	assert.Equal(t, entities.Quantity(600), scheduled)
	assert.Equal(t, entities.Quantity(1000), planned)
}

func newScheduleFixture(t *testing.T) (*ScheduleService, *events.InMemoryEventStore) {
	t.Helper()
	orderRepo, _, resourceRepo := testhelpers.BuildGarmentTestData()
	store := events.NewInMemoryEventStore()
	service := NewScheduleService(
		memory.NewScheduleRepository(),
		orderRepo,
		resourceRepo,
		timeline.Config{Model: duration.NewModel()},
		store,
	)
	return service, store
}

func TestScheduleService_PlaceCascadeAndUndo(t *testing.T) {
	service, store := newScheduleFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	first, err := service.Place(ctx, PlaceRequest{
		OrderID: "TEE-NAVY", ProcessID: "SEW", Quantity: 100, Lines: 1, ResourceID: "L1", Start: t0,
	})
	require.NoError(t, err)
	require.Len(t, first.Placed, 1)
	assert.True(t, first.HorizonExtended())
	firstItem := first.Placed[0]

	second, err := service.Place(ctx, PlaceRequest{
		OrderID: "TEE-NAVY", ProcessID: "CUT", Quantity: 100, Lines: 1, ResourceID: "L1", Start: t0,
	})
	require.NoError(t, err)
	require.Len(t, second.Shifted, 1)
	assert.Equal(t, firstItem.ID, second.Shifted[0].Item.ID)
	assert.Equal(t, second.Placed[0].End, second.Shifted[0].Item.Start)

	items, horizon, err := service.List(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, horizon.Before(items[1].End))

	// moving an existing item keeps its duration
	moved, err := service.Place(ctx, PlaceRequest{ItemID: firstItem.ID, ResourceID: "L2", Start: t0})
	require.NoError(t, err)
	assert.Equal(t, firstItem.Duration, moved.Placed[0].Duration)

	removed, err := service.Undo(ctx, second.Placed[0].ID)
	require.NoError(t, err)
	require.Len(t, removed.Removed, 1)

	all, _, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	published, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, e := range published {
		counts[e.Type()]++
	}
	assert.Equal(t, 3, counts[events.ItemPlacedEvent])
	assert.Equal(t, 1, counts[events.ItemShiftedEvent])
	assert.Equal(t, 1, counts[events.ItemRemovedEvent])
	assert.GreaterOrEqual(t, counts[events.HorizonExtendedEvent], 1)
}

func TestScheduleService_BatchPlacement(t *testing.T) {
	service, _ := newScheduleFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	change, err := service.Place(ctx, PlaceRequest{
		OrderID: "TEE-NAVY", ProcessID: "SEW", Quantity: 100, BatchSize: 40, ResourceID: "L3", Start: t0,
	})
	require.NoError(t, err)
	require.Len(t, change.Placed, 3)
	for i, item := range change.Placed {
		assert.True(t, item.AutoScheduled)
		assert.Equal(t, i+1, item.BatchNumber)
	}
	assert.Equal(t, change.Placed[0].End, change.Placed[1].Start)

	undone, err := service.Undo(ctx, change.Placed[1].ID)
	require.NoError(t, err)
	assert.Len(t, undone.Removed, 3)
}

func TestScheduleService_Errors(t *testing.T) {
	service, _ := newScheduleFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	_, err := service.Place(ctx, PlaceRequest{OrderID: "TEE-NAVY", ProcessID: "SEW", ResourceID: "L9", Start: t0})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = service.Place(ctx, PlaceRequest{OrderID: "TEE-NAVY", ProcessID: "SEW", ResourceID: "L1"})
	assert.Error(t, err)

	_, err = service.Place(ctx, PlaceRequest{OrderID: "TEE-NAVY", ProcessID: "PRESS", ResourceID: "L1", Start: t0})
	assert.Error(t, err)

	_, err = service.Place(ctx, PlaceRequest{ItemID: "missing", ResourceID: "L1", Start: t0})
	assert.ErrorIs(t, err, timeline.ErrItemNotFound)

	_, err = service.Undo(ctx, "missing")
	assert.ErrorIs(t, err, timeline.ErrItemNotFound)
}

func TestCapacityService_MatchGroup(t *testing.T) {
	_, _, resourceRepo := testhelpers.BuildGarmentTestData()
	service := NewCapacityService(resourceRepo)

	result, err := service.MatchGroup(context.Background(), "G1", nil, testhelpers.BufferID)
	require.NoError(t, err)
	assert.True(t, result.Satisfied())
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, entities.ResourceID("L1"), result.Allocations[0].LineID)
	assert.Equal(t, entities.ResourceID("L2"), result.Allocations[1].LineID)

	group, err := resourceRepo.GetResource("G1")
	require.NoError(t, err)
	assert.Equal(t, 20, group.Machines["SNLS"])
	assert.Equal(t, 6, group.Machines["OL"])
	assert.Equal(t, []entities.ResourceID{"L1", "L2"}, group.Members)

	buffer, err := resourceRepo.GetResource(testhelpers.BufferID)
	require.NoError(t, err)
	assert.Equal(t, entities.MachineCounts{"SNLS": 2}, buffer.Machines)
}

func TestCapacityService_ExplicitLinesAndErrors(t *testing.T) {
	_, _, resourceRepo := testhelpers.BuildGarmentTestData()
	service := NewCapacityService(resourceRepo)
	ctx := context.Background()

	result, err := service.MatchGroup(ctx, "G1", []entities.ResourceID{"L3"}, testhelpers.BufferID)
	require.NoError(t, err)
	assert.False(t, result.Satisfied())
	assert.Equal(t, entities.MachineCounts{"SNLS": 12, "OL": 6}, result.Shortfall)
	assert.Equal(t, entities.MachineCounts{"FL": 3}, result.Buffer.Machines)

	_, err = service.MatchGroup(ctx, "G1", []entities.ResourceID{"L9"}, testhelpers.BufferID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = service.MatchGroup(ctx, "L1", nil, testhelpers.BufferID)
	assert.Error(t, err)
}

func TestLogUseCaseObserver(t *testing.T) {
	var buf bytes.Buffer
	observer := NewLogUseCaseObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	observer.ObserveUseCase(context.Background(), UseCaseEvent{Name: "plan-order", Success: true, Fields: map[string]any{"order": "PO-1"}})
	observer.ObserveUseCase(context.Background(), UseCaseEvent{Name: "undo", Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "use_case=plan-order")
	assert.Contains(t, out, "order=PO-1")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "error=boom")

	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}
