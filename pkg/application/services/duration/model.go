package duration

import (
	"errors"
	"math"
)

const (
	// WorkDayMinutes is the length of one working day
	WorkDayMinutes = 480
	// WorkingDaysPerWeek is the number of production days in a week
	WorkingDaysPerWeek = 6
	// MaxSimulatedDays bounds the day loop for vanishing output rates
	MaxSimulatedDays = 3650
)

// ErrInfeasible marks a duration that never terminates: the efficiency curve
// evaluates to zero (or the day ceiling is hit) before the quantity is made.
var ErrInfeasible = errors.New("infeasible duration: efficiency curve never completes the quantity")

// Result is a computed working duration
type Result struct {
	Minutes float64 // exact working minutes, +Inf when infeasible
	Days    int     // whole working days, rounded up
}

// Infinite reports whether the result is the non-terminating sentinel
func (r Result) Infinite() bool {
	return math.IsInf(r.Minutes, 1)
}

var infeasible = Result{Minutes: math.Inf(1), Days: math.MaxInt32}

// Model computes durations for a fixed work-day length
type Model struct {
	WorkDayMinutes     float64
	WorkingDaysPerWeek int
}

// NewModel creates a Model with the standard 480-minute, 6-day week
func NewModel() Model {
	return Model{WorkDayMinutes: WorkDayMinutes, WorkingDaysPerWeek: WorkingDaysPerWeek}
}

// Minutes returns the working time needed to produce qty units at sam
// minutes per unit on the given number of parallel lines. Missing inputs
// (no quantity, no SAM, no curve, no lines) yield a zero result.
func (m Model) Minutes(qty, sam float64, curve Curve, lines int) (Result, error) {
	m = m.withDefaults()
	if qty <= 0 || sam <= 0 || curve.Empty() || lines <= 0 {
		return Result{}, nil
	}

	remaining := qty
	elapsed := 0.0
	for day := 1; ; day++ {
		if day > MaxSimulatedDays {
			return infeasible, ErrInfeasible
		}
		rate, ok := m.rate(sam, curve.At(day), lines)
		if !ok {
			return infeasible, ErrInfeasible
		}
		fullDay := rate * m.WorkDayMinutes
		if remaining <= fullDay {
			elapsed += remaining / rate
			break
		}
		elapsed += m.WorkDayMinutes
		remaining -= fullDay
	}

	return Result{
		Minutes: elapsed,
		Days:    int(math.Ceil(elapsed/m.WorkDayMinutes - 1e-9)),
	}, nil
}

// QuantityIn returns how many units can be produced in the given working minutes
func (m Model) QuantityIn(minutes, sam float64, curve Curve, lines int) (float64, error) {
	m = m.withDefaults()
	if minutes <= 0 || sam <= 0 || curve.Empty() || lines <= 0 {
		return 0, nil
	}

	produced := 0.0
	remaining := minutes
	for day := 1; remaining > 0; day++ {
		rate, ok := m.rate(sam, curve.At(day), lines)
		if !ok {
			return 0, ErrInfeasible
		}
		used := math.Min(remaining, m.WorkDayMinutes)
		produced += rate * used
		remaining -= used
	}
	return produced, nil
}

// WeeklyOutput returns the full-ramp output of the given number of lines per week
func (m Model) WeeklyOutput(sam float64, curve Curve, lines int) float64 {
	m = m.withDefaults()
	rate, ok := m.rate(sam, curve.Peak(), lines)
	if !ok {
		return 0
	}
	return rate * m.WorkDayMinutes * float64(m.WorkingDaysPerWeek)
}

// rate returns units per minute; ok is false when efficiency is not positive
func (m Model) rate(sam, efficiency float64, lines int) (float64, bool) {
	if efficiency <= 0 || sam <= 0 || lines <= 0 {
		return 0, false
	}
	effectiveSAM := sam / (efficiency / 100)
	return float64(lines) / effectiveSAM, true
}

func (m Model) withDefaults() Model {
	if m.WorkDayMinutes <= 0 {
		m.WorkDayMinutes = WorkDayMinutes
	}
	if m.WorkingDaysPerWeek <= 0 {
		m.WorkingDaysPerWeek = WorkingDaysPerWeek
	}
	return m
}
