package entities

import (
	"testing"
	"time"
)

func TestScheduledProcess_Validation(t *testing.T) {
	item, err := NewScheduledProcess("PO-1", "SEW", 500, 16*time.Hour)
	if err != nil {
		t.Fatalf("Expected valid scheduled process creation to succeed: %v", err)
	}
	if item.ID == "" {
		t.Error("Expected a generated id")
	}

	testCases := []struct {
		name        string
		orderID     OrderID
		processID   ProcessID
		quantity    Quantity
		duration    time.Duration
		expectError string
	}{
		{"empty order", "", "SEW", 1, time.Hour, "order id cannot be empty"},
		{"empty process", "PO", "", 1, time.Hour, "process id cannot be empty"},
		{"zero quantity", "PO", "SEW", 0, time.Hour, "quantity must be positive, got 0"},
		{"zero duration", "PO", "SEW", 1, 0, "duration must be positive, got 0s"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScheduledProcess(tc.orderID, tc.processID, tc.quantity, tc.duration)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestScheduledProcess_OverlapIsHalfOpen(t *testing.T) {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	item, _ := NewScheduledProcess("PO-1", "SEW", 10, 2*time.Hour)
	item.MoveTo("LINE-1", start)

	if !item.End.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("Expected end at start+2h, got %v", item.End)
	}
	if item.Overlaps(item.End, item.End.Add(time.Hour)) {
		t.Error("Adjacent intervals must not overlap")
	}
	if !item.Overlaps(start.Add(time.Hour), start.Add(3*time.Hour)) {
		t.Error("Expected overlapping interval to be detected")
	}

	latest := start.Add(-time.Hour)
	item.LatestStart = &latest
	if !item.Late() {
		t.Error("Expected item starting after its latest start to be late")
	}
}
