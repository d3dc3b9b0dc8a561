package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

func newTestOrder(t *testing.T, id entities.OrderID) *entities.Order {
	t.Helper()
	order, err := entities.NewOrder(id, "TEE", "BLACK", 500,
		[]entities.Process{{ID: "SEW", Sequence: 1, SAM: 12}},
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 80, nil)
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return order
}

func TestOrderRepository_LoadAndGet(t *testing.T) {
	repo := NewOrderRepository(2)

	if err := repo.LoadOrders([]*entities.Order{newTestOrder(t, "B"), newTestOrder(t, "A")}); err != nil {
		t.Fatalf("Failed to load orders: %v", err)
	}

	order, err := repo.GetOrder("A")
	if err != nil {
		t.Fatalf("Failed to get order: %v", err)
	}
	if order.Style != "TEE" {
		t.Errorf("Expected style TEE, got %s", order.Style)
	}

	all, _ := repo.GetAllOrders()
	if len(all) != 2 || all[0].ID != "A" {
		t.Errorf("Expected orders sorted by id, got %v", all)
	}

	_, err = repo.GetOrder("MISSING")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOrderRepository_ReplaceRampUp(t *testing.T) {
	repo := NewOrderRepository(1)
	_ = repo.LoadOrders([]*entities.Order{newTestOrder(t, "A")})

	scheme := entities.RampUpScheme{{DayIndex: 1, Efficiency: 40}, {DayIndex: 3, Efficiency: 90}}
	if err := repo.ReplaceRampUp("A", scheme); err != nil {
		t.Fatalf("Failed to replace ramp-up: %v", err)
	}

	order, _ := repo.GetOrder("A")
	if len(order.RampUp) != 2 || order.RampUp[1].Efficiency != 90 {
		t.Errorf("Expected replaced scheme, got %v", order.RampUp)
	}

	bad := entities.RampUpScheme{{DayIndex: 2, Efficiency: 50}, {DayIndex: 1, Efficiency: 60}}
	if err := repo.ReplaceRampUp("A", bad); err == nil {
		t.Error("Expected error for unsorted scheme")
	}

	if err := repo.ReplaceRampUp("MISSING", scheme); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
