package memory

import (
	"context"
	"sync"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// ScheduleRepository keeps the last saved timeline snapshot in memory
type ScheduleRepository struct {
	mu       sync.RWMutex
	snapshot repositories.ScheduleSnapshot
}

// NewScheduleRepository creates an empty in-memory schedule repository
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{}
}

// Verify interface compliance
var _ repositories.ScheduleRepository = (*ScheduleRepository)(nil)

// Load returns a copy of the saved snapshot; empty when nothing was saved
func (r *ScheduleRepository) Load(ctx context.Context) (*repositories.ScheduleSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &repositories.ScheduleSnapshot{
		Items:   append([]entities.ScheduledProcess(nil), r.snapshot.Items...),
		Horizon: r.snapshot.Horizon,
	}, nil
}

// Save replaces the stored snapshot
func (r *ScheduleRepository) Save(ctx context.Context, snapshot *repositories.ScheduleSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshot = repositories.ScheduleSnapshot{
		Items:   append([]entities.ScheduledProcess(nil), snapshot.Items...),
		Horizon: snapshot.Horizon,
	}
	return nil
}
