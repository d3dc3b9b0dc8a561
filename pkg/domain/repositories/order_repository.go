package repositories

import "github.com/vsinha/lineplan/pkg/domain/entities"

// OrderRepository provides access to order master data
type OrderRepository interface {
	GetOrder(id entities.OrderID) (*entities.Order, error)
	GetAllOrders() ([]*entities.Order, error)
	LoadOrders(orders []*entities.Order) error
	// ReplaceRampUp replaces an order's ramp-up scheme wholesale
	ReplaceRampUp(id entities.OrderID, scheme entities.RampUpScheme) error
}
