package events

import (
	"time"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

const (
	ItemPlacedEvent      = "timeline.item.placed"
	ItemShiftedEvent     = "timeline.item.shifted"
	ItemRemovedEvent     = "timeline.item.removed"
	HorizonExtendedEvent = "timeline.horizon.extended"

	PlanGeneratedEvent = "plan.generated"
	RunUnplannedEvent  = "plan.run.unplanned"

	// TimelineStream holds session-wide events such as horizon changes
	TimelineStream = "timeline"
)

type ItemPlaced struct {
	Item entities.ScheduledProcess `json:"item"`
}

type ItemShifted struct {
	Item      entities.ScheduledProcess `json:"item"`
	FromStart time.Time                 `json:"from_start"`
}

type ItemRemoved struct {
	Item entities.ScheduledProcess `json:"item"`
}

type HorizonExtended struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type PlanGenerated struct {
	OrderID entities.OrderID  `json:"order_id"`
	Runs    int               `json:"runs"`
	Planned entities.Quantity `json:"planned"`
}

type RunUnplanned struct {
	OrderID entities.OrderID       `json:"order_id"`
	Run     entities.ProductionRun `json:"run"`
	Reason  string                 `json:"reason"`
}

func NewItemPlacedEvent(item entities.ScheduledProcess) Event {
	return NewEvent(ItemPlacedEvent, string(item.ResourceID), ItemPlaced{Item: item})
}

func NewItemShiftedEvent(item entities.ScheduledProcess, fromStart time.Time) Event {
	return NewEvent(ItemShiftedEvent, string(item.ResourceID), ItemShifted{Item: item, FromStart: fromStart})
}

func NewItemRemovedEvent(item entities.ScheduledProcess) Event {
	return NewEvent(ItemRemovedEvent, string(item.ResourceID), ItemRemoved{Item: item})
}

func NewHorizonExtendedEvent(from, to time.Time) Event {
	return NewEvent(HorizonExtendedEvent, TimelineStream, HorizonExtended{From: from, To: to})
}

func NewPlanGeneratedEvent(orderID entities.OrderID, runs int, planned entities.Quantity) Event {
	return NewEvent(PlanGeneratedEvent, string(orderID), PlanGenerated{
		OrderID: orderID,
		Runs:    runs,
		Planned: planned,
	})
}

func NewRunUnplannedEvent(orderID entities.OrderID, run entities.ProductionRun, reason error) Event {
	return NewEvent(RunUnplannedEvent, string(orderID), RunUnplanned{
		OrderID: orderID,
		Run:     run,
		Reason:  reason.Error(),
	})
}
