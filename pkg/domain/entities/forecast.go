package entities

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// SizeDemand is the demand for a single size within a week
type SizeDemand struct {
	POQuantity       decimal.Decimal
	ForecastQuantity decimal.Decimal
}

// WeekDemand is the demand composition for one future week
type WeekDemand struct {
	POQuantity       decimal.Decimal
	ForecastQuantity decimal.Decimal
	Sizes            map[string]SizeDemand
}

// Total returns PO-confirmed plus forecast demand. When a size breakdown
// is present the sizes are authoritative.
func (d WeekDemand) Total() decimal.Decimal {
	if len(d.Sizes) == 0 {
		return d.POQuantity.Add(d.ForecastQuantity)
	}
	total := decimal.Zero
	for _, s := range d.Sizes {
		total = total.Add(s.POQuantity).Add(s.ForecastQuantity)
	}
	return total
}

// ForecastSnapshot is a point-in-time weekly demand vector for one order
type ForecastSnapshot struct {
	OrderID      OrderID
	SnapshotWeek Week
	Weeks        map[Week]WeekDemand
}

// NewForecastSnapshot creates a validated ForecastSnapshot
func NewForecastSnapshot(orderID OrderID, snapshotWeek Week, weeks map[Week]WeekDemand) (*ForecastSnapshot, error) {
	if string(orderID) == "" {
		return nil, fmt.Errorf("order id cannot be empty")
	}
	for week, d := range weeks {
		if d.Total().IsNegative() {
			return nil, fmt.Errorf("demand for week %s cannot be negative", week)
		}
	}
	if weeks == nil {
		weeks = make(map[Week]WeekDemand)
	}
	return &ForecastSnapshot{
		OrderID:      orderID,
		SnapshotWeek: snapshotWeek,
		Weeks:        weeks,
	}, nil
}

// Demand flattens the snapshot to week -> total demand
func (s *ForecastSnapshot) Demand() map[Week]float64 {
	out := make(map[Week]float64, len(s.Weeks))
	for week, d := range s.Weeks {
		out[week] = d.Total().InexactFloat64()
	}
	return out
}

// TotalDemand sums the demand over every week of the snapshot
func (s *ForecastSnapshot) TotalDemand() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.Weeks {
		total = total.Add(d.Total())
	}
	return total
}

// MoveDemand returns a copy of the snapshot with qty moved from one week to
// another. Forecast quantity moves first, then PO quantity; the total is
// preserved. Size breakdowns are dropped on the weeks that are touched.
func (s *ForecastSnapshot) MoveDemand(from, to Week, qty decimal.Decimal) (*ForecastSnapshot, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("quantity to move must be positive, got %s", qty)
	}
	if from == to {
		return nil, fmt.Errorf("source and target week are the same: %s", from)
	}
	src := s.Weeks[from]
	if src.Total().LessThan(qty) {
		return nil, fmt.Errorf("week %s holds %s, cannot move %s", from, src.Total(), qty)
	}

	weeks := make(map[Week]WeekDemand, len(s.Weeks)+1)
	for w, d := range s.Weeks {
		weeks[w] = d
	}

	po, fc := src.POQuantity, src.ForecastQuantity
	if len(src.Sizes) > 0 {
		po, fc = decimal.Zero, decimal.Zero
		for _, size := range src.Sizes {
			po = po.Add(size.POQuantity)
			fc = fc.Add(size.ForecastQuantity)
		}
	}
	fromForecast := decimal.Min(fc, qty)
	fromPO := qty.Sub(fromForecast)
	weeks[from] = WeekDemand{POQuantity: po.Sub(fromPO), ForecastQuantity: fc.Sub(fromForecast)}

	dst := weeks[to]
	dstPO, dstFC := dst.POQuantity, dst.ForecastQuantity
	if len(dst.Sizes) > 0 {
		dstPO, dstFC = decimal.Zero, decimal.Zero
		for _, size := range dst.Sizes {
			dstPO = dstPO.Add(size.POQuantity)
			dstFC = dstFC.Add(size.ForecastQuantity)
		}
	}
	weeks[to] = WeekDemand{POQuantity: dstPO.Add(fromPO), ForecastQuantity: dstFC.Add(fromForecast)}

	return &ForecastSnapshot{OrderID: s.OrderID, SnapshotWeek: s.SnapshotWeek, Weeks: weeks}, nil
}

// ForecastSeries holds every snapshot of one order, ascending by snapshot week
type ForecastSeries []*ForecastSnapshot

// Sort orders the series by snapshot week
func (fs ForecastSeries) Sort() {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].SnapshotWeek < fs[j].SnapshotWeek
	})
}

// Latest returns the most recent snapshot, or nil for an empty series
func (fs ForecastSeries) Latest() *ForecastSnapshot {
	var latest *ForecastSnapshot
	for _, s := range fs {
		if latest == nil || s.SnapshotWeek > latest.SnapshotWeek {
			latest = s
		}
	}
	return latest
}

// At returns the snapshot taken in the given week
func (fs ForecastSeries) At(week Week) (*ForecastSnapshot, bool) {
	for _, s := range fs {
		if s.SnapshotWeek == week {
			return s, true
		}
	}
	return nil, false
}

// EffectiveDemand merges the series as seen in week asOf: for each demand
// week the latest snapshot taken no later than asOf that mentions the week wins.
func (fs ForecastSeries) EffectiveDemand(asOf Week) map[Week]float64 {
	best := make(map[Week]Week)
	out := make(map[Week]float64)
	for _, s := range fs {
		if s.SnapshotWeek > asOf {
			continue
		}
		for week, d := range s.Weeks {
			if seen, ok := best[week]; ok && seen > s.SnapshotWeek {
				continue
			}
			best[week] = s.SnapshotWeek
			out[week] = d.Total().InexactFloat64()
		}
	}
	return out
}
