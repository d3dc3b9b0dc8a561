package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
)

// ScheduleService runs timeline operations against a persisted session.
// Every operation loads the session, applies one change, saves it and
// publishes what moved. Operations are serialized.
type ScheduleService struct {
	mu           sync.Mutex
	scheduleRepo repositories.ScheduleRepository
	orderRepo    repositories.OrderRepository
	resourceRepo repositories.ResourceRepository
	config       timeline.Config
	eventStore   events.EventStore
	observer     UseCaseObserver
}

// NewScheduleService creates a schedule service. resourceRepo and
// eventStore may be nil; without a resource catalog any resource id is accepted.
func NewScheduleService(
	scheduleRepo repositories.ScheduleRepository,
	orderRepo repositories.OrderRepository,
	resourceRepo repositories.ResourceRepository,
	config timeline.Config,
	eventStore events.EventStore,
	observers ...UseCaseObserver,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		orderRepo:    orderRepo,
		resourceRepo: resourceRepo,
		config:       config,
		eventStore:   eventStore,
		observer:     useCaseObserverOrNoop(observers),
	}
}

// PlaceRequest places an existing item (ItemID) or a new work item for
// Quantity units of one process of an order. A positive BatchSize splits a
// new item into batches placed back to back.
type PlaceRequest struct {
	ItemID     string
	OrderID    entities.OrderID
	ProcessID  entities.ProcessID
	Quantity   entities.Quantity // 0 means the order quantity
	Lines      int               // 0 means the order's line count
	BatchSize  entities.Quantity
	ResourceID entities.ResourceID
	Start      time.Time
}

// Place applies a placement and returns what it changed
func (s *ScheduleService) Place(ctx context.Context, req PlaceRequest) (change timeline.Change, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"resource": string(req.ResourceID)}
	defer observe(ctx, s.observer, "place", startedAt, fields, &err)

	if req.ResourceID == "" {
		return timeline.Change{}, fmt.Errorf("resource id cannot be empty")
	}
	if req.Start.IsZero() {
		return timeline.Change{}, fmt.Errorf("start time cannot be empty")
	}
	if s.resourceRepo != nil {
		if _, err = s.resourceRepo.GetResource(req.ResourceID); err != nil {
			return timeline.Change{}, fmt.Errorf("failed to place on %s: %w", req.ResourceID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx)
	if err != nil {
		return timeline.Change{}, err
	}

	if req.ItemID != "" {
		item, ok := session.Get(req.ItemID)
		if !ok {
			return timeline.Change{}, fmt.Errorf("item %s: %w", req.ItemID, timeline.ErrItemNotFound)
		}
		fields["item"] = req.ItemID
		change = session.Place(item, req.ResourceID, req.Start)
	} else {
		change, err = s.placeNew(session, req)
		if err != nil {
			return timeline.Change{}, err
		}
	}
	fields["placed"] = len(change.Placed)
	fields["shifted"] = len(change.Shifted)

	if err = s.commit(ctx, session, change); err != nil {
		return timeline.Change{}, err
	}
	return change, nil
}

func (s *ScheduleService) placeNew(session *timeline.Session, req PlaceRequest) (timeline.Change, error) {
	order, err := s.orderRepo.GetOrder(req.OrderID)
	if err != nil {
		return timeline.Change{}, fmt.Errorf("failed to load order %s: %w", req.OrderID, err)
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = order.Quantity
	}
	lines := req.Lines
	if lines <= 0 {
		lines = order.Lines
	}

	item, err := session.NewWorkItem(order, req.ProcessID, qty, lines)
	if err != nil {
		return timeline.Change{}, err
	}
	if req.BatchSize <= 0 || req.BatchSize >= qty {
		return session.Place(*item, req.ResourceID, req.Start), nil
	}

	group, err := timeline.SplitBatches(*item, req.BatchSize)
	if err != nil {
		return timeline.Change{}, err
	}
	return session.AutoPlace(group, req.ResourceID, req.Start), nil
}

// Undo removes an item, or its whole batch group, from the timeline
func (s *ScheduleService) Undo(ctx context.Context, id string) (change timeline.Change, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"item": id}
	defer observe(ctx, s.observer, "undo", startedAt, fields, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx)
	if err != nil {
		return timeline.Change{}, err
	}
	change, err = session.Undo(id)
	if err != nil {
		return timeline.Change{}, err
	}
	fields["removed"] = len(change.Removed)

	if err = s.commit(ctx, session, change); err != nil {
		return timeline.Change{}, err
	}
	return change, nil
}

// List returns the items on one resource, or every item when resourceID is
// empty, together with the current horizon
func (s *ScheduleService) List(ctx context.Context, resourceID entities.ResourceID) ([]entities.ScheduledProcess, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.load(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if resourceID == "" {
		return session.All(), session.Horizon(), nil
	}
	return session.Items(resourceID), session.Horizon(), nil
}

func (s *ScheduleService) load(ctx context.Context) (*timeline.Session, error) {
	snapshot, err := s.scheduleRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	return timeline.Restore(snapshot, s.config), nil
}

func (s *ScheduleService) commit(ctx context.Context, session *timeline.Session, change timeline.Change) error {
	if err := s.scheduleRepo.Save(ctx, session.Snapshot()); err != nil {
		return fmt.Errorf("failed to save timeline: %w", err)
	}
	if err := publish(s.eventStore, changeEvents(change)...); err != nil {
		return fmt.Errorf("failed to publish timeline events: %w", err)
	}
	return nil
}

func changeEvents(change timeline.Change) []events.Event {
	var out []events.Event
	for _, item := range change.Placed {
		out = append(out, events.NewItemPlacedEvent(item))
	}
	for _, shift := range change.Shifted {
		out = append(out, events.NewItemShiftedEvent(shift.Item, shift.FromStart))
	}
	for _, item := range change.Removed {
		out = append(out, events.NewItemRemovedEvent(item))
	}
	if change.HorizonExtended() {
		out = append(out, events.NewHorizonExtendedEvent(change.PreviousHorizon, change.Horizon))
	}
	return out
}
