package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Color     bool
	Elapsed   time.Duration
}

// Generate writes the plans in the configured format. text and json go to
// w unless an output directory is set; csv and xlsx always need one.
func Generate(w io.Writer, results []*orchestration.PlanningResult, config Config) error {
	switch config.Format {
	case "", "text":
		return generateTextOutput(w, results, config)
	case "json":
		return generateJSONOutput(w, results, config)
	case "csv":
		return generateCSVOutput(w, results, config)
	case "xlsx":
		return generateXLSXOutput(w, results, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateTextOutput(w io.Writer, results []*orchestration.PlanningResult, config Config) error {
	p := newPalette(config.Color)

	for _, result := range results {
		order := result.Order
		fmt.Fprint(w, p.title(fmt.Sprintf("Order %s  %s/%s", order.ID, order.Style, order.Color)))
		plan := result.Plan
		fmt.Fprintf(w, "Floor %s   Opening %.0f   Planned %d   Closing %.0f\n\n",
			plan.SimulationFloor, plan.OpeningInventory, plan.TotalPlanned(), plan.ClosingInventory)

		if len(plan.Runs) > 0 {
			fmt.Fprint(w, p.table(runHeaders, runRows(plan.Runs)))
			fmt.Fprintln(w)
		}

		if len(plan.Inventory) > 0 {
			rows := make([][]string, 0, len(plan.Inventory))
			for _, week := range plan.Inventory {
				closing := fmt.Sprintf("%.0f", week.Closing)
				if week.Closing < -0.5 {
					closing = p.bad.Render(closing)
				}
				rows = append(rows, []string{
					week.Week.String(),
					fmt.Sprintf("%.0f", week.Demand),
					strconv.FormatInt(int64(plan.Weekly[week.Week]), 10),
					fmt.Sprintf("%.0f", week.Opening),
					closing,
				})
			}
			fmt.Fprint(w, p.table([]string{"Week", "Demand", "Planned", "Opening", "Closing"}, rows))
			fmt.Fprintln(w)
		}

		for _, gap := range plan.Gaps {
			fmt.Fprintln(w, p.warn.Render(fmt.Sprintf("Unplanned %s..%s (%d): %v",
				gap.Run.StartWeek, gap.Run.EndWeek, gap.Run.Quantity, gap.Err)))
		}
		if len(plan.Gaps) > 0 {
			fmt.Fprintln(w)
		}
	}

	if config.Verbose {
		fmt.Fprintln(w, p.dim.Render(fmt.Sprintf("Planned %d orders in %v", len(results), config.Elapsed)))
	}
	return nil
}

var runHeaders = []string{"Demand", "Qty", "Lines", "Start", "End", "Offset", "Weekly output", "Min closing"}

func runRows(runs []entities.PlannedRun) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			fmt.Sprintf("%s..%s", run.Run.StartWeek, run.Run.EndWeek),
			strconv.FormatInt(int64(run.Run.Quantity), 10),
			strconv.Itoa(run.Lines),
			run.StartWeek.String(),
			run.EndWeek.String(),
			strconv.Itoa(run.Offset),
			fmt.Sprintf("%.1f", run.WeeklyOutput),
			fmt.Sprintf("%.1f", run.MinClosingInventory),
		})
	}
	return rows
}

// PlanView is the serialized form of one order's plan
type PlanView struct {
	OrderID          string     `json:"order_id"`
	Style            string     `json:"style"`
	Color            string     `json:"color"`
	SimulationFloor  string     `json:"simulation_floor"`
	OpeningInventory float64    `json:"opening_inventory"`
	ClosingInventory float64    `json:"closing_inventory"`
	TotalPlanned     int64      `json:"total_planned"`
	Runs             []RunView  `json:"runs"`
	Weeks            []WeekView `json:"weeks"`
	Gaps             []GapView  `json:"gaps,omitempty"`
	Produced         *PlanView  `json:"produced,omitempty"`
}

// RunView is one planned run
type RunView struct {
	DemandStart  string  `json:"demand_start"`
	DemandEnd    string  `json:"demand_end"`
	Quantity     int64   `json:"quantity"`
	Lines        int     `json:"lines"`
	StartWeek    string  `json:"start_week"`
	EndWeek      string  `json:"end_week"`
	Offset       int     `json:"offset"`
	WeeklyOutput float64 `json:"weekly_output"`
	MinClosing   float64 `json:"min_closing"`
}

// WeekView is one week of the plan with its inventory projection
type WeekView struct {
	Week    string  `json:"week"`
	Demand  float64 `json:"demand"`
	Planned int64   `json:"planned"`
	Opening float64 `json:"opening"`
	Closing float64 `json:"closing"`
}

// GapView is a run that could not be planned
type GapView struct {
	DemandStart string `json:"demand_start"`
	DemandEnd   string `json:"demand_end"`
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason"`
}

// NewPlanView converts a plan for serialization
func NewPlanView(order *entities.Order, plan dto.TentativePlan) PlanView {
	view := PlanView{
		OrderID:          string(plan.OrderID),
		SimulationFloor:  plan.SimulationFloor.String(),
		OpeningInventory: plan.OpeningInventory,
		ClosingInventory: plan.ClosingInventory,
		TotalPlanned:     int64(plan.TotalPlanned()),
		Runs:             []RunView{},
		Weeks:            []WeekView{},
	}
	if order != nil {
		view.Style, view.Color = order.Style, order.Color
	}
	for _, run := range plan.Runs {
		view.Runs = append(view.Runs, RunView{
			DemandStart:  run.Run.StartWeek.String(),
			DemandEnd:    run.Run.EndWeek.String(),
			Quantity:     int64(run.Run.Quantity),
			Lines:        run.Lines,
			StartWeek:    run.StartWeek.String(),
			EndWeek:      run.EndWeek.String(),
			Offset:       run.Offset,
			WeeklyOutput: run.WeeklyOutput,
			MinClosing:   run.MinClosingInventory,
		})
	}
	for _, week := range plan.Inventory {
		view.Weeks = append(view.Weeks, WeekView{
			Week:    week.Week.String(),
			Demand:  week.Demand,
			Planned: int64(plan.Weekly[week.Week]),
			Opening: week.Opening,
			Closing: week.Closing,
		})
	}
	for _, gap := range plan.Gaps {
		view.Gaps = append(view.Gaps, GapView{
			DemandStart: gap.Run.StartWeek.String(),
			DemandEnd:   gap.Run.EndWeek.String(),
			Quantity:    int64(gap.Run.Quantity),
			Reason:      gap.Err.Error(),
		})
	}
	return view
}

// PlanViews converts planning results for serialization
func PlanViews(results []*orchestration.PlanningResult) []PlanView {
	views := make([]PlanView, 0, len(results))
	for _, result := range results {
		view := NewPlanView(result.Order, result.Plan)
		if result.Produced != nil {
			produced := NewPlanView(result.Order, *result.Produced)
			view.Produced = &produced
		}
		views = append(views, view)
	}
	return views
}

func generateJSONOutput(w io.Writer, results []*orchestration.PlanningResult, config Config) error {
	jsonData, err := json.MarshalIndent(PlanViews(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	}

	filename, err := outputFile(config.OutputDir, "plans.json")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "JSON results saved to: %s\n", filename)
	}
	return nil
}

func generateCSVOutput(w io.Writer, results []*orchestration.PlanningResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	runsFile, err := outputFile(config.OutputDir, "planned_runs.csv")
	if err != nil {
		return err
	}
	if err := writeCSV(runsFile, append([]string{"order_id"}, csvRunHeader...), func(emit func([]string) error) error {
		for _, result := range results {
			for _, row := range runRows(result.Plan.Runs) {
				if err := emit(append([]string{string(result.Order.ID)}, row...)); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to write planned runs CSV: %w", err)
	}

	weeklyFile, err := outputFile(config.OutputDir, "weekly_plan.csv")
	if err != nil {
		return err
	}
	if err := writeCSV(weeklyFile, []string{"order_id", "week", "demand", "planned", "opening", "closing"}, func(emit func([]string) error) error {
		for _, view := range PlanViews(results) {
			for _, week := range view.Weeks {
				if err := emit([]string{
					view.OrderID,
					week.Week,
					strconv.FormatFloat(week.Demand, 'f', -1, 64),
					strconv.FormatInt(week.Planned, 10),
					strconv.FormatFloat(week.Opening, 'f', 2, 64),
					strconv.FormatFloat(week.Closing, 'f', 2, 64),
				}); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to write weekly plan CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "CSV results saved to:\n")
		fmt.Fprintf(w, "  Planned runs: %s\n", runsFile)
		fmt.Fprintf(w, "  Weekly plan: %s\n", weeklyFile)
	}
	return nil
}

var csvRunHeader = []string{"demand_weeks", "quantity", "lines", "start_week", "end_week", "offset", "weekly_output", "min_closing"}

func writeCSV(filename string, header []string, rows func(emit func([]string) error) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := rows(writer.Write); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func generateXLSXOutput(w io.Writer, results []*orchestration.PlanningResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}
	data, err := PlanWorkbook(PlanViews(results))
	if err != nil {
		return err
	}
	filename, err := outputFile(config.OutputDir, "plans.xlsx")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write xlsx file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "Workbook saved to: %s\n", filename)
	}
	return nil
}

func outputFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}
