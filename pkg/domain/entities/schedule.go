package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduledProcess is one placement of (order, process, quantity) on a resource
type ScheduledProcess struct {
	ID         string
	ResourceID ResourceID
	OrderID    OrderID
	ProcessID  ProcessID
	Quantity   Quantity
	Start      time.Time
	End        time.Time
	Duration   time.Duration

	// WorkMinutes is the working time the item needs; the wall-clock
	// Duration is derived from it through the work calendar on first placement
	WorkMinutes float64

	BatchNumber   int    // 0 when the item is not part of a batch split
	ParentID      string // shared by all siblings of a batch split
	AutoScheduled bool
	LatestStart   *time.Time // advisory only, never enforced
}

// NewScheduledProcess creates a validated, unplaced ScheduledProcess with a fresh id
func NewScheduledProcess(orderID OrderID, processID ProcessID, quantity Quantity, duration time.Duration) (*ScheduledProcess, error) {
	if string(orderID) == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if string(processID) == "" {
		return nil, fmt.Errorf("process id cannot be empty")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", duration)
	}

	return &ScheduledProcess{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		ProcessID:   processID,
		Quantity:    quantity,
		Duration:    duration,
		WorkMinutes: duration.Minutes(),
	}, nil
}

// MoveTo places the item at start on resourceID, keeping its duration
func (p *ScheduledProcess) MoveTo(resourceID ResourceID, start time.Time) {
	p.ResourceID = resourceID
	p.Start = start
	p.End = start.Add(p.Duration)
}

// Overlaps reports whether the half-open intervals [Start, End) intersect
func (p *ScheduledProcess) Overlaps(start, end time.Time) bool {
	return p.Start.Before(end) && start.Before(p.End)
}

// IsSplit reports whether the item belongs to a batch-split group
func (p *ScheduledProcess) IsSplit() bool {
	return p.ParentID != ""
}

// Placed reports whether the item has been given a resource and start
func (p *ScheduledProcess) Placed() bool {
	return p.ResourceID != "" && !p.Start.IsZero()
}

// Late reports whether the item starts after its advisory latest start
func (p *ScheduledProcess) Late() bool {
	return p.LatestStart != nil && p.Start.After(*p.LatestStart)
}
