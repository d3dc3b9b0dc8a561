package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// SplitBatches splits item into siblings of at most batchSize units. The
// siblings share the item's id as ParentID and are numbered from 1; work
// time is divided in proportion to quantity.
func SplitBatches(item entities.ScheduledProcess, batchSize entities.Quantity) ([]entities.ScheduledProcess, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("item %s has no quantity to split", item.ID)
	}

	count := int(math.Ceil(float64(item.Quantity) / float64(batchSize)))
	out := make([]entities.ScheduledProcess, 0, count)
	remaining := item.Quantity
	for b := 1; b <= count; b++ {
		qty := batchSize
		if remaining < qty {
			qty = remaining
		}
		remaining -= qty

		share := float64(qty) / float64(item.Quantity)
		sibling := item
		sibling.ID = uuid.New().String()
		sibling.ParentID = item.ID
		sibling.BatchNumber = b
		sibling.Quantity = qty
		sibling.WorkMinutes = item.WorkMinutes * share
		sibling.Duration = time.Duration(float64(item.Duration) * share).Round(time.Second)
		if sibling.Duration <= 0 {
			sibling.Duration = time.Second
		}
		sibling.ResourceID = ""
		sibling.Start = time.Time{}
		sibling.End = time.Time{}
		out = append(out, sibling)
	}
	return out, nil
}

// AutoPlace places a batch group back to back on one resource starting at
// start, cascading as Place does. The siblings are flagged auto-scheduled.
func (s *Session) AutoPlace(group []entities.ScheduledProcess, resourceID entities.ResourceID, start time.Time) Change {
	ordered := append([]entities.ScheduledProcess(nil), group...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].BatchNumber < ordered[j].BatchNumber })

	change := Change{PreviousHorizon: s.horizon, Horizon: s.horizon}
	cursor := start
	for _, sibling := range ordered {
		sibling.AutoScheduled = true
		step := s.Place(sibling, resourceID, cursor)
		change.merge(step)
		cursor = step.Placed[0].End
	}
	return change
}
