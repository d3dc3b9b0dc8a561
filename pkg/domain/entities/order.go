package entities

import (
	"fmt"
	"time"
)

// Process is one operation of an order's routing with its standard allowed minutes
type Process struct {
	ID       ProcessID
	Sequence int
	SAM      float64
}

// RampUpStep holds the efficiency reached from a production day onwards
type RampUpStep struct {
	DayIndex   int
	Efficiency float64
}

// RampUpScheme is an ordered efficiency ramp-up, ascending by day index
type RampUpScheme []RampUpStep

// Validate checks ordering and efficiency bounds
func (s RampUpScheme) Validate() error {
	for i, step := range s {
		if step.DayIndex < 1 {
			return fmt.Errorf("ramp-up day index must be positive, got %d", step.DayIndex)
		}
		if step.Efficiency <= 0 || step.Efficiency > 100 {
			return fmt.Errorf("ramp-up efficiency must be in (0,100], got %g", step.Efficiency)
		}
		if i > 0 && step.DayIndex <= s[i-1].DayIndex {
			return fmt.Errorf("ramp-up day indexes must be strictly ascending, got %d after %d",
				step.DayIndex, s[i-1].DayIndex)
		}
	}
	return nil
}

// Order represents a garment demand/production unit
type Order struct {
	ID               OrderID
	Style            string
	Color            string
	Quantity         Quantity
	Processes        []Process
	DueDate          time.Time
	BudgetEfficiency float64
	RampUp           RampUpScheme
	Lines            int
}

// NewOrder creates a validated Order
func NewOrder(
	id OrderID,
	style, color string,
	quantity Quantity,
	processes []Process,
	dueDate time.Time,
	budgetEfficiency float64,
	rampUp RampUpScheme,
) (*Order, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative, got %d", quantity)
	}
	if len(processes) == 0 {
		return nil, fmt.Errorf("order %s must have at least one process", id)
	}
	seen := make(map[ProcessID]bool, len(processes))
	for i, p := range processes {
		if p.ID == "" {
			return nil, fmt.Errorf("process %d of order %s has an empty id", i+1, id)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate process %s in order %s", p.ID, id)
		}
		if p.SAM < 0 {
			return nil, fmt.Errorf("process %s SAM cannot be negative, got %g", p.ID, p.SAM)
		}
		if i > 0 && p.Sequence <= processes[i-1].Sequence {
			return nil, fmt.Errorf("processes of order %s must be in ascending sequence", id)
		}
		seen[p.ID] = true
	}
	if budgetEfficiency < 0 || budgetEfficiency > 100 {
		return nil, fmt.Errorf("budget efficiency must be in [0,100], got %g", budgetEfficiency)
	}
	if err := rampUp.Validate(); err != nil {
		return nil, err
	}

	return &Order{
		ID:               id,
		Style:            style,
		Color:            color,
		Quantity:         quantity,
		Processes:        processes,
		DueDate:          dueDate,
		BudgetEfficiency: budgetEfficiency,
		RampUp:           rampUp,
		Lines:            1,
	}, nil
}

// TotalSAM returns the garment SAM, the sum over all processes
func (o *Order) TotalSAM() float64 {
	total := 0.0
	for _, p := range o.Processes {
		total += p.SAM
	}
	return total
}

// Process looks up a routing step by id
func (o *Order) Process(id ProcessID) (Process, bool) {
	for _, p := range o.Processes {
		if p.ID == id {
			return p, true
		}
	}
	return Process{}, false
}

// EffectiveRampUp returns the ramp-up scheme, falling back to a flat
// scheme at the budgeted efficiency when none has been set
func (o *Order) EffectiveRampUp() RampUpScheme {
	if len(o.RampUp) > 0 {
		return o.RampUp
	}
	if o.BudgetEfficiency > 0 {
		return RampUpScheme{{DayIndex: 1, Efficiency: o.BudgetEfficiency}}
	}
	return nil
}

// ReplaceRampUp replaces the whole ramp-up scheme
func (o *Order) ReplaceRampUp(scheme RampUpScheme) error {
	if err := scheme.Validate(); err != nil {
		return err
	}
	o.RampUp = append(RampUpScheme(nil), scheme...)
	return nil
}
