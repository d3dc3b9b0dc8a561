package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
	"github.com/vsinha/lineplan/pkg/interfaces/cli/output"
)

// Planner plans orders known to the repositories
type Planner interface {
	PlanOrder(ctx context.Context, req orchestration.PlanRequest) (*orchestration.PlanningResult, error)
	PlanAll(ctx context.Context, template orchestration.PlanRequest, limit int) ([]*orchestration.PlanningResult, error)
}

// Generator plans a single order against one snapshot
type Generator interface {
	Generate(order *entities.Order, snapshot *entities.ForecastSnapshot, floor entities.Week, carryOver float64) dto.TentativePlan
}

// Request plans either a stored order (OrderID) or a posted order with its
// forecast snapshot (Order and Forecast)
type Request struct {
	OrderID     string         `json:"order_id,omitempty"`
	Order       *OrderInput    `json:"order,omitempty"`
	Forecast    *ForecastInput `json:"forecast,omitempty"`
	Floor       string         `json:"floor,omitempty"`
	CarryOver   float64        `json:"carry_over"`
	HistoryFrom string         `json:"history_from,omitempty"`
}

type OrderInput struct {
	ID               string         `json:"id"`
	Style            string         `json:"style"`
	Color            string         `json:"color"`
	Quantity         int64          `json:"quantity"`
	DueDate          string         `json:"due_date,omitempty"`
	BudgetEfficiency float64        `json:"budget_efficiency"`
	Lines            int            `json:"lines,omitempty"`
	Processes        []ProcessInput `json:"processes"`
	RampUp           []RampUpInput  `json:"ramp_up,omitempty"`
}

type ProcessInput struct {
	ID       string  `json:"id"`
	Sequence int     `json:"sequence,omitempty"`
	SAM      float64 `json:"sam"`
}

type RampUpInput struct {
	DayIndex   int     `json:"day_index"`
	Efficiency float64 `json:"efficiency"`
}

type ForecastInput struct {
	SnapshotWeek string      `json:"snapshot_week"`
	Weeks        []WeekInput `json:"weeks"`
}

type WeekInput struct {
	Week        string  `json:"week"`
	POQty       float64 `json:"po_qty"`
	ForecastQty float64 `json:"forecast_qty"`
}

// Plan returns the tentative plan of one order
func Plan(log *slog.Logger, planner Planner, generator Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.Plan"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}

		floor, err := parseOptionalWeek(req.Floor)
		if err != nil {
			http.Error(w, fmt.Sprintf("floor: %v", err), http.StatusBadRequest)
			return
		}

		if req.Order != nil {
			order, snapshot, err := req.entities()
			if err != nil {
				log.With(slog.String("op", op)).Warn("Invalid order", slog.String("error", err.Error()))
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if floor == 0 && snapshot != nil {
				floor = snapshot.SnapshotWeek
			}
			plan := generator.Generate(order, snapshot, floor, req.CarryOver)
			render.JSON(w, r, output.NewPlanView(order, plan))
			return
		}

		if req.OrderID == "" {
			http.Error(w, "Either order_id or order is required", http.StatusBadRequest)
			return
		}
		historyFrom, err := parseOptionalWeek(req.HistoryFrom)
		if err != nil {
			http.Error(w, fmt.Sprintf("history_from: %v", err), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := planner.PlanOrder(ctx, orchestration.PlanRequest{
			OrderID:     entities.OrderID(req.OrderID),
			Floor:       floor,
			CarryOver:   req.CarryOver,
			HistoryFrom: historyFrom,
		})
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				log.With(slog.String("op", op), slog.String("order", req.OrderID)).Warn("Order not found")
				http.Error(w, "Order not found", http.StatusNotFound)
				return
			}
			log.With(
				slog.String("op", op),
				slog.String("order", req.OrderID),
				slog.String("error", err.Error()),
			).Error("Failed to plan order")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, output.PlanViews([]*orchestration.PlanningResult{result})[0])
	}
}

// Export plans every stored order and returns the plans as an xlsx workbook
func Export(log *slog.Logger, planner Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.Export"

		floor, err := parseOptionalWeek(r.URL.Query().Get("floor"))
		if err != nil {
			http.Error(w, "invalid floor week", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results, err := planner.PlanAll(ctx, orchestration.PlanRequest{Floor: floor}, 0)
		if err != nil {
			log.Error("failed to plan orders", "op", op, "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		data, err := output.PlanWorkbook(output.PlanViews(results))
		if err != nil {
			log.Error("failed to generate excel", "op", op, "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("plans_%s.xlsx", time.Now().Format("2006-01-02_150405"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		w.Write(data)
	}
}

func (req Request) entities() (*entities.Order, *entities.ForecastSnapshot, error) {
	in := req.Order

	processes := make([]entities.Process, 0, len(in.Processes))
	for i, p := range in.Processes {
		seq := p.Sequence
		if seq == 0 {
			seq = i + 1
		}
		processes = append(processes, entities.Process{ID: entities.ProcessID(p.ID), Sequence: seq, SAM: p.SAM})
	}
	var rampUp entities.RampUpScheme
	for _, step := range in.RampUp {
		rampUp = append(rampUp, entities.RampUpStep{DayIndex: step.DayIndex, Efficiency: step.Efficiency})
	}

	var due time.Time
	if in.DueDate != "" {
		var err error
		if due, err = time.Parse("2006-01-02", in.DueDate); err != nil {
			return nil, nil, fmt.Errorf("invalid due_date %q", in.DueDate)
		}
	}

	order, err := entities.NewOrder(entities.OrderID(in.ID), in.Style, in.Color, entities.Quantity(in.Quantity),
		processes, due, in.BudgetEfficiency, rampUp)
	if err != nil {
		return nil, nil, err
	}
	if in.Lines > 0 {
		order.Lines = in.Lines
	}

	if req.Forecast == nil {
		return order, nil, nil
	}
	snapshotWeek, err := entities.ParseWeek(req.Forecast.SnapshotWeek)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot_week: %w", err)
	}
	weeks := make(map[entities.Week]entities.WeekDemand, len(req.Forecast.Weeks))
	for _, wk := range req.Forecast.Weeks {
		week, err := entities.ParseWeek(wk.Week)
		if err != nil {
			return nil, nil, fmt.Errorf("forecast week: %w", err)
		}
		d := weeks[week]
		d.POQuantity = d.POQuantity.Add(decimal.NewFromFloat(wk.POQty))
		d.ForecastQuantity = d.ForecastQuantity.Add(decimal.NewFromFloat(wk.ForecastQty))
		weeks[week] = d
	}
	snapshot, err := entities.NewForecastSnapshot(order.ID, snapshotWeek, weeks)
	if err != nil {
		return nil, nil, err
	}
	return order, snapshot, nil
}

func parseOptionalWeek(s string) (entities.Week, error) {
	if s == "" {
		return 0, nil
	}
	return entities.ParseWeek(s)
}
