package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ScheduleSnapshot is the persisted state of a timeline session
type ScheduleSnapshot struct {
	Items   []entities.ScheduledProcess
	Horizon time.Time
}

// ScheduleRepository persists timeline session snapshots
type ScheduleRepository interface {
	Load(ctx context.Context) (*ScheduleSnapshot, error)
	Save(ctx context.Context, snapshot *ScheduleSnapshot) error
}
