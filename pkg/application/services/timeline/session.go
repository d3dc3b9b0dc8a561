// Package timeline places scheduled work items on resource rows. Placing an
// item that overlaps others pushes them forward in start order, so no two
// items on one resource ever overlap.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// HorizonLookahead is how far past the latest end the horizon is pushed
const HorizonLookahead = 72 * time.Hour

// ErrItemNotFound is returned when undoing an item the session does not hold
var ErrItemNotFound = errors.New("scheduled item not found")

// Config configures a Session
type Config struct {
	Lookahead time.Duration
	Horizon   time.Time
	Model     duration.Model
	// Calendar, when set, turns the working minutes of a newly placed item
	// into a wall-clock span. Without it Duration is used as-is.
	Calendar *duration.Calendar
}

// Shift records one item moved forward by a cascade
type Shift struct {
	Item      entities.ScheduledProcess
	FromStart time.Time
}

// Change describes what one session operation did
type Change struct {
	Placed          []entities.ScheduledProcess
	Shifted         []Shift
	Removed         []entities.ScheduledProcess
	PreviousHorizon time.Time
	Horizon         time.Time
}

// HorizonExtended reports whether the operation pushed the horizon out
func (c Change) HorizonExtended() bool {
	return c.Horizon.After(c.PreviousHorizon)
}

func (c *Change) merge(other Change) {
	c.Placed = append(c.Placed, other.Placed...)
	c.Shifted = append(c.Shifted, other.Shifted...)
	c.Removed = append(c.Removed, other.Removed...)
	c.Horizon = other.Horizon
}

// Session owns the placed items of one planning session. It is not safe for
// concurrent use; callers that share a Session serialize access.
type Session struct {
	items     map[string]*entities.ScheduledProcess
	horizon   time.Time
	lookahead time.Duration
	model     duration.Model
	calendar  *duration.Calendar
}

// NewSession creates an empty session
func NewSession(config Config) *Session {
	lookahead := config.Lookahead
	if lookahead <= 0 {
		lookahead = HorizonLookahead
	}
	return &Session{
		items:     make(map[string]*entities.ScheduledProcess),
		horizon:   config.Horizon,
		lookahead: lookahead,
		model:     config.Model,
		calendar:  config.Calendar,
	}
}

// Restore creates a session holding a persisted snapshot
func Restore(snapshot *repositories.ScheduleSnapshot, config Config) *Session {
	s := NewSession(config)
	if snapshot == nil {
		return s
	}
	if snapshot.Horizon.After(s.horizon) {
		s.horizon = snapshot.Horizon
	}
	for i := range snapshot.Items {
		item := snapshot.Items[i]
		s.items[item.ID] = &item
	}
	return s
}

// Snapshot returns the session state for persistence
func (s *Session) Snapshot() *repositories.ScheduleSnapshot {
	return &repositories.ScheduleSnapshot{Items: s.All(), Horizon: s.horizon}
}

// Horizon returns the visible end of the timeline
func (s *Session) Horizon() time.Time {
	return s.horizon
}

// Get returns a copy of the item with the given id
func (s *Session) Get(id string) (entities.ScheduledProcess, bool) {
	item, ok := s.items[id]
	if !ok {
		return entities.ScheduledProcess{}, false
	}
	return *item, true
}

// Items returns the items on one resource ordered by start time
func (s *Session) Items(resourceID entities.ResourceID) []entities.ScheduledProcess {
	var out []entities.ScheduledProcess
	for _, item := range s.items {
		if item.ResourceID == resourceID {
			out = append(out, *item)
		}
	}
	sortByStart(out)
	return out
}

// All returns every item ordered by resource, then start time
func (s *Session) All() []entities.ScheduledProcess {
	out := make([]entities.ScheduledProcess, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResourceID != out[j].ResourceID {
			return out[i].ResourceID < out[j].ResourceID
		}
		return lessByStart(out[i], out[j])
	})
	return out
}

// NewWorkItem builds an unplaced item for qty units of one process of the
// order, its duration computed from the order's ramp-up on the given lines
func (s *Session) NewWorkItem(order *entities.Order, processID entities.ProcessID, qty entities.Quantity, lines int) (*entities.ScheduledProcess, error) {
	return NewWorkItem(s.model, order, processID, qty, lines)
}

// NewWorkItem is Session.NewWorkItem for callers without a session
func NewWorkItem(model duration.Model, order *entities.Order, processID entities.ProcessID, qty entities.Quantity, lines int) (*entities.ScheduledProcess, error) {
	process, ok := order.Process(processID)
	if !ok {
		return nil, fmt.Errorf("order %s has no process %s", order.ID, processID)
	}
	curve := duration.NewCurve(order.EffectiveRampUp())
	result, err := model.Minutes(float64(qty), process.SAM, curve, lines)
	if err != nil {
		return nil, fmt.Errorf("failed to compute duration of %s/%s: %w", order.ID, processID, err)
	}
	if result.Minutes <= 0 {
		return nil, fmt.Errorf("order %s process %s has no duration (missing SAM or ramp-up)", order.ID, processID)
	}

	item, err := entities.NewScheduledProcess(order.ID, processID, qty, minutesToDuration(result.Minutes))
	if err != nil {
		return nil, err
	}
	item.WorkMinutes = result.Minutes
	return item, nil
}

// Place puts item on resourceID at start. An item the session already
// holds keeps its duration and moves; a new item gets its span from the
// calendar. Items on the resource that end after start are pushed forward
// in start order until nothing overlaps. Place never fails.
func (s *Session) Place(item entities.ScheduledProcess, resourceID entities.ResourceID, start time.Time) Change {
	change := Change{PreviousHorizon: s.horizon}

	placed := item
	if existing, ok := s.items[item.ID]; ok {
		placed = *existing
	} else if s.calendar != nil && item.WorkMinutes > 0 {
		end := s.calendar.AddWorkingMinutes(start, item.WorkMinutes)
		placed.Duration = end.Sub(start)
	}
	placed.MoveTo(resourceID, start)
	s.items[placed.ID] = &placed
	change.Placed = append(change.Placed, placed)

	change.Shifted = s.cascade(&placed)
	change.Horizon = s.extendHorizon()
	return change
}

// cascade pushes items that would overlap placed forward; items that end
// at or before placed starts are untouched
func (s *Session) cascade(placed *entities.ScheduledProcess) []Shift {
	var chain []*entities.ScheduledProcess
	for _, other := range s.items {
		if other.ID == placed.ID || other.ResourceID != placed.ResourceID {
			continue
		}
		if other.End.After(placed.Start) {
			chain = append(chain, other)
		}
	}
	sort.Slice(chain, func(i, j int) bool { return lessByStart(*chain[i], *chain[j]) })

	var shifts []Shift
	cursor := placed.End
	for _, other := range chain {
		if other.Start.Before(cursor) {
			from := other.Start
			other.MoveTo(other.ResourceID, cursor)
			shifts = append(shifts, Shift{Item: *other, FromStart: from})
		}
		if other.End.After(cursor) {
			cursor = other.End
		}
	}
	return shifts
}

func (s *Session) extendHorizon() time.Time {
	var latest time.Time
	for _, item := range s.items {
		if item.End.After(latest) {
			latest = item.End
		}
	}
	if latest.After(s.horizon) {
		s.horizon = latest.Add(s.lookahead)
	}
	return s.horizon
}

// Undo removes the item. Removing one sibling of a batch split removes the
// whole group.
func (s *Session) Undo(id string) (Change, error) {
	item, ok := s.items[id]
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	change := Change{PreviousHorizon: s.horizon, Horizon: s.horizon}

	var removed []entities.ScheduledProcess
	if item.IsSplit() {
		for _, other := range s.items {
			if other.ParentID == item.ParentID {
				removed = append(removed, *other)
			}
		}
	} else {
		removed = append(removed, *item)
	}
	sortByStart(removed)
	for _, r := range removed {
		delete(s.items, r.ID)
	}
	change.Removed = removed
	return change, nil
}

func sortByStart(items []entities.ScheduledProcess) {
	sort.Slice(items, func(i, j int) bool { return lessByStart(items[i], items[j]) })
}

func lessByStart(a, b entities.ScheduledProcess) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute)).Round(time.Second)
}
