package commands

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/application/services/tentative"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
	"github.com/vsinha/lineplan/pkg/infrastructure/config"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
	"github.com/vsinha/lineplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/lineplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/lineplan/pkg/infrastructure/repositories/sqlite"
)

// InputFiles names the CSV inputs. Empty entries are not loaded.
type InputFiles struct {
	Orders    string
	Processes string
	RampUp    string
	Forecast  string
	Lines     string
}

func planningModel(p config.Planning) duration.Model {
	return duration.Model{WorkDayMinutes: float64(p.WorkDayMinutes), WorkingDaysPerWeek: p.WorkingDaysPerWeek}
}

func planningCalendar(p config.Planning) duration.Calendar {
	cal := duration.DefaultCalendar()
	cal.DayStartHour = p.DayStartHour
	cal.WorkDayMinutes = p.WorkDayMinutes
	return cal
}

func generatorConfig(p config.Planning) tentative.Config {
	return tentative.Config{
		GapThreshold:    p.GapThreshold,
		OffsetCap:       p.OffsetCap,
		MaxLines:        p.MaxLines,
		MaxHorizonWeeks: p.MaxHorizonWeeks,
	}
}

func timelineConfig(p config.Planning) timeline.Config {
	cal := planningCalendar(p)
	return timeline.Config{
		Lookahead: p.HorizonLookahead,
		Model:     planningModel(p),
		Calendar:  &cal,
	}
}

// repos holds the in-memory repositories filled from CSV inputs
type repos struct {
	orders    *memory.OrderRepository
	forecasts *memory.ForecastRepository
	resources *memory.ResourceRepository
}

func loadRepos(files InputFiles) (*repos, error) {
	loader := csv.NewLoader()
	r := &repos{
		orders:    memory.NewOrderRepository(0),
		forecasts: memory.NewForecastRepository(),
		resources: memory.NewResourceRepository(),
	}

	if files.Orders != "" {
		if files.Processes == "" {
			return nil, fmt.Errorf("a processes file is required with the orders file")
		}
		orders, err := loader.LoadOrders(files.Orders, files.Processes, files.RampUp)
		if err != nil {
			return nil, fmt.Errorf("error loading orders: %w", err)
		}
		if err := r.orders.LoadOrders(orders); err != nil {
			return nil, fmt.Errorf("failed to load orders into repository: %w", err)
		}
	}

	if files.Forecast != "" {
		snapshots, err := loader.LoadForecast(files.Forecast)
		if err != nil {
			return nil, fmt.Errorf("error loading forecast: %w", err)
		}
		if err := r.forecasts.LoadSnapshots(snapshots); err != nil {
			return nil, fmt.Errorf("failed to load forecast into repository: %w", err)
		}
	}

	if files.Lines != "" {
		lines, err := loader.LoadLines(files.Lines)
		if err != nil {
			return nil, fmt.Errorf("error loading lines: %w", err)
		}
		if err := r.resources.LoadResources(lines); err != nil {
			return nil, fmt.Errorf("failed to load lines into repository: %w", err)
		}
	}
	return r, nil
}

func checkFiles(files map[string]string) error {
	for name, path := range files {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", name, path)
		}
	}
	return nil
}

func newOrchestrator(cfg *config.Config, r *repos, store events.EventStore, observers ...orchestration.UseCaseObserver) *orchestration.PlanningOrchestrator {
	model := planningModel(cfg.Planning)
	return orchestration.NewPlanningOrchestrator(
		tentative.NewGenerator(generatorConfig(cfg.Planning), model, nil),
		model,
		planningCalendar(cfg.Planning),
		r.orders,
		r.forecasts,
		store,
		observers...,
	)
}

// openScheduleService opens the timeline database and builds the schedule
// service on top of it. The caller closes the returned database.
func openScheduleService(cfg *config.Config, r *repos, store events.EventStore, observers ...orchestration.UseCaseObserver) (*orchestration.ScheduleService, *sql.DB, error) {
	db, err := sqlite.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	// without a line catalog any resource id is accepted
	var resources repositories.ResourceRepository
	if all, _ := r.resources.GetAllResources(); len(all) > 0 {
		resources = r.resources
	}
	svc := orchestration.NewScheduleService(sqlite.NewScheduleRepository(db), r.orders, resources,
		timelineConfig(cfg.Planning), store, observers...)
	return svc, db, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

var startLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseStart accepts RFC 3339 or a UTC "2006-01-02 15:04" wall time. A bare
// date starts at the configured day start hour.
func parseStart(s string, dayStartHour int) (time.Time, error) {
	for _, layout := range startLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(time.Duration(dayStartHour) * time.Hour)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid start time %q", s)
}
