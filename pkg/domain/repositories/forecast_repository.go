package repositories

import "github.com/vsinha/lineplan/pkg/domain/entities"

// ForecastRepository provides read access to forecast snapshots
type ForecastRepository interface {
	GetSeries(orderID entities.OrderID) (entities.ForecastSeries, error)
	GetLatest(orderID entities.OrderID) (*entities.ForecastSnapshot, error)
	LoadSnapshots(snapshots []*entities.ForecastSnapshot) error
}
