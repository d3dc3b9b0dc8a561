// Package duration converts quantities into working time under an
// efficiency ramp-up, and working time back into producible quantity.
package duration

import "github.com/vsinha/lineplan/pkg/domain/entities"

// Curve is a step function from production day index to efficiency percentage
type Curve struct {
	steps entities.RampUpScheme
}

// NewCurve builds a curve from a ramp-up scheme. The scheme is assumed to be
// sorted ascending by day index, as entities.RampUpScheme.Validate enforces.
func NewCurve(scheme entities.RampUpScheme) Curve {
	return Curve{steps: scheme}
}

// Empty reports whether the curve has no steps
func (c Curve) Empty() bool {
	return len(c.steps) == 0
}

// At returns the efficiency in effect on the given production day: the last
// step whose day index is <= day. Days before the first step use the first step.
func (c Curve) At(day int) float64 {
	if len(c.steps) == 0 {
		return 0
	}
	eff := c.steps[0].Efficiency
	for _, step := range c.steps {
		if step.DayIndex > day {
			break
		}
		eff = step.Efficiency
	}
	return eff
}

// Peak returns the efficiency of the last step, reached at full ramp-up
func (c Curve) Peak() float64 {
	if len(c.steps) == 0 {
		return 0
	}
	return c.steps[len(c.steps)-1].Efficiency
}

// RampDays returns the day index at which the curve reaches its last step
func (c Curve) RampDays() int {
	if len(c.steps) == 0 {
		return 0
	}
	return c.steps[len(c.steps)-1].DayIndex
}
