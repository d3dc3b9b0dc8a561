package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/infrastructure/config"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
	"github.com/vsinha/lineplan/pkg/interfaces/cli/output"
)

// PlanConfig holds configuration for the plan command
type PlanConfig struct {
	ScenarioDir string
	Files       InputFiles
	OrderID     string
	Floor       string
	CarryOver   float64
	HistoryFrom string
	Workers     int
	OutputDir   string
	Format      string
	Seed        bool
	Compare     bool
	Verbose     bool
	Color       bool
}

// PlanCommand loads orders and forecasts from CSV and prints their tentative plans
type PlanCommand struct {
	config   PlanConfig
	settings *config.Config
}

// NewPlanCommand creates a plan command
func NewPlanCommand(config PlanConfig, settings *config.Config) *PlanCommand {
	return &PlanCommand{config: config, settings: settings}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context, w io.Writer) error {
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	files := c.resolveInputFiles()
	if err := checkFiles(map[string]string{
		"Orders": files.Orders, "Processes": files.Processes, "Ramp-up": files.RampUp, "Forecast": files.Forecast,
	}); err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}
	if c.config.Verbose {
		c.printHeader(w, files)
	}

	req, err := c.request()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	r, err := loadRepos(files)
	if err != nil {
		return err
	}
	if c.config.Verbose {
		orders, _ := r.orders.GetAllOrders()
		fmt.Fprintf(w, "Loaded %d orders\n\n", len(orders))
	}

	store := events.NewInMemoryEventStore()
	orchestrator := newOrchestrator(c.settings, r, store)

	startTime := time.Now()
	var results []*orchestration.PlanningResult
	if req.OrderID != "" {
		result, err := orchestrator.PlanOrder(ctx, req)
		if err != nil {
			return fmt.Errorf("error planning order: %w", err)
		}
		results = append(results, result)
	} else {
		results, err = orchestrator.PlanAll(ctx, req, c.config.Workers)
		if err != nil {
			return fmt.Errorf("error planning orders: %w", err)
		}
	}
	elapsed := time.Since(startTime)

	if err := output.Generate(w, results, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Color:     c.config.Color,
		Elapsed:   elapsed,
	}); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Seed {
		for _, result := range results {
			items, err := orchestrator.SeedWorkItems(result.Order, result.Plan)
			if err != nil {
				return fmt.Errorf("error seeding work items for %s: %w", result.Order.ID, err)
			}
			output.WriteWorkItems(w, items, c.config.Color)
			fmt.Fprintln(w)
		}
	}

	if c.config.Compare {
		if err := c.compare(ctx, w, orchestrator, r, results, req); err != nil {
			return err
		}
	}
	return nil
}

func (c *PlanCommand) compare(ctx context.Context, w io.Writer, orchestrator *orchestration.PlanningOrchestrator, r *repos, results []*orchestration.PlanningResult, req orchestration.PlanRequest) error {
	schedule, db, err := openScheduleService(c.settings, r, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	items, _, err := schedule.List(ctx, "")
	if err != nil {
		return fmt.Errorf("error reading timeline: %w", err)
	}
	for _, result := range results {
		orderReq := req
		orderReq.OrderID = result.Order.ID
		weeks, err := orchestrator.ProductionVsPlan(ctx, orderReq, items)
		if err != nil {
			return fmt.Errorf("error comparing %s: %w", result.Order.ID, err)
		}
		output.WriteProductionVsPlan(w, result.Order.ID, weeks, c.config.Color)
		fmt.Fprintln(w)
	}
	return nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	f := c.config.Files
	if c.config.ScenarioDir == "" && (f.Orders == "" || f.Processes == "" || f.Forecast == "") {
		return fmt.Errorf("must specify either --scenario directory or --orders, --processes and --forecast files")
	}
	return nil
}

// resolveInputFiles determines the actual file paths to use. A scenario
// directory holds orders.csv, processes.csv, forecast.csv and optionally
// rampup.csv; explicit files override it.
func (c *PlanCommand) resolveInputFiles() InputFiles {
	files := c.config.Files
	if c.config.ScenarioDir == "" {
		return files
	}
	pick := func(explicit, name string) string {
		if explicit != "" {
			return explicit
		}
		return filepath.Join(c.config.ScenarioDir, name)
	}
	files.Orders = pick(files.Orders, "orders.csv")
	files.Processes = pick(files.Processes, "processes.csv")
	files.Forecast = pick(files.Forecast, "forecast.csv")
	if files.RampUp == "" {
		if candidate := filepath.Join(c.config.ScenarioDir, "rampup.csv"); fileExists(candidate) {
			files.RampUp = candidate
		}
	}
	return files
}

func (c *PlanCommand) request() (orchestration.PlanRequest, error) {
	req := orchestration.PlanRequest{
		OrderID:   entities.OrderID(c.config.OrderID),
		CarryOver: c.config.CarryOver,
	}
	if c.config.Floor != "" {
		floor, err := entities.ParseWeek(c.config.Floor)
		if err != nil {
			return req, fmt.Errorf("--floor: %w", err)
		}
		req.Floor = floor
	}
	if c.config.HistoryFrom != "" {
		from, err := entities.ParseWeek(c.config.HistoryFrom)
		if err != nil {
			return req, fmt.Errorf("--history-from: %w", err)
		}
		req.HistoryFrom = from
	}
	return req, nil
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(w io.Writer, files InputFiles) {
	fmt.Fprintf(w, "Line planning\n")
	fmt.Fprintf(w, "Input files:\n")
	fmt.Fprintf(w, "  Orders: %s\n", files.Orders)
	fmt.Fprintf(w, "  Processes: %s\n", files.Processes)
	if files.RampUp != "" {
		fmt.Fprintf(w, "  Ramp-up: %s\n", files.RampUp)
	}
	fmt.Fprintf(w, "  Forecast: %s\n", files.Forecast)
	fmt.Fprintf(w, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(w, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(w)
}

func newPlanCmd(app *App) *cobra.Command {
	var cfg PlanConfig

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate tentative weekly production plans from forecast demand",
		Example: `  lineplan plan --scenario examples/tees
  lineplan plan --orders orders.csv --processes processes.csv --forecast forecast.csv --order PO-1 --floor 2025-W10
  lineplan plan --scenario examples/tees --format xlsx --output results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Verbose = app.Verbose
			cfg.Color = app.Color
			return NewPlanCommand(cfg, app.Config).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cfg.ScenarioDir, "scenario", "", "Scenario directory containing the CSV files")
	cmd.Flags().StringVar(&cfg.Files.Orders, "orders", "", "Orders CSV file")
	cmd.Flags().StringVar(&cfg.Files.Processes, "processes", "", "Processes CSV file")
	cmd.Flags().StringVar(&cfg.Files.RampUp, "rampup", "", "Ramp-up CSV file (optional)")
	cmd.Flags().StringVar(&cfg.Files.Forecast, "forecast", "", "Forecast snapshots CSV file")
	cmd.Flags().StringVar(&cfg.OrderID, "order", "", "Plan a single order (default: all)")
	cmd.Flags().StringVar(&cfg.Floor, "floor", "", "Simulation floor week, e.g. 2025-W10 (default: latest snapshot week)")
	cmd.Flags().Float64Var(&cfg.CarryOver, "carry", 0, "Opening finished-goods inventory")
	cmd.Flags().StringVar(&cfg.HistoryFrom, "history-from", "", "Plan already produced weeks from this week first")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 4, "Orders planned concurrently")
	cmd.Flags().StringVar(&cfg.Format, "format", "text", "Output format: text, json, csv, xlsx")
	cmd.Flags().StringVar(&cfg.OutputDir, "output", "", "Output directory for results")
	cmd.Flags().BoolVar(&cfg.Seed, "seed", false, "List the work items each planned run needs")
	cmd.Flags().BoolVar(&cfg.Compare, "compare", false, "Compare the plan with the finished output placed on the timeline")

	return cmd
}
