package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// ForecastRepository provides in-memory forecast snapshot storage. Every
// snapshot is retained; a snapshot for an already-loaded week replaces it.
type ForecastRepository struct {
	mu     sync.RWMutex
	series map[entities.OrderID]entities.ForecastSeries
}

// NewForecastRepository creates a new in-memory forecast repository
func NewForecastRepository() *ForecastRepository {
	return &ForecastRepository{
		series: make(map[entities.OrderID]entities.ForecastSeries),
	}
}

// Verify interface compliance
var _ repositories.ForecastRepository = (*ForecastRepository)(nil)

// LoadSnapshots loads snapshots into the repository
func (r *ForecastRepository) LoadSnapshots(snapshots []*entities.ForecastSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	touched := make(map[entities.OrderID]bool)
	for _, snap := range snapshots {
		if snap == nil {
			return fmt.Errorf("cannot load nil snapshot")
		}
		series := r.series[snap.OrderID]
		replaced := false
		for i, existing := range series {
			if existing.SnapshotWeek == snap.SnapshotWeek {
				series[i] = snap
				replaced = true
				break
			}
		}
		if !replaced {
			series = append(series, snap)
		}
		r.series[snap.OrderID] = series
		touched[snap.OrderID] = true
	}
	for id := range touched {
		r.series[id].Sort()
	}
	return nil
}

// GetSeries returns every snapshot of the order, ascending by snapshot week
func (r *ForecastRepository) GetSeries(orderID entities.OrderID) (entities.ForecastSeries, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series, ok := r.series[orderID]
	if !ok {
		return nil, fmt.Errorf("forecast for order %s: %w", orderID, repositories.ErrNotFound)
	}
	return append(entities.ForecastSeries(nil), series...), nil
}

// GetLatest returns the most recent snapshot of the order
func (r *ForecastRepository) GetLatest(orderID entities.OrderID) (*entities.ForecastSnapshot, error) {
	series, err := r.GetSeries(orderID)
	if err != nil {
		return nil, err
	}
	return series.Latest(), nil
}
