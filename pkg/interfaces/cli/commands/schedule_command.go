package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
	"github.com/vsinha/lineplan/pkg/interfaces/cli/output"
)

func newScheduleCmd(app *App) *cobra.Command {
	var files InputFiles

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Place work on the line timeline",
	}
	cmd.PersistentFlags().StringVar(&files.Orders, "orders", "", "Orders CSV file (needed to place new work)")
	cmd.PersistentFlags().StringVar(&files.Processes, "processes", "", "Processes CSV file")
	cmd.PersistentFlags().StringVar(&files.RampUp, "rampup", "", "Ramp-up CSV file (optional)")
	cmd.PersistentFlags().StringVar(&files.Lines, "lines", "", "Lines CSV file; when given, only its lines can be used")

	cmd.AddCommand(
		newSchedulePlaceCmd(app, &files),
		newScheduleUndoCmd(app, &files),
		newScheduleListCmd(app, &files),
		newScheduleGanttCmd(app, &files),
	)
	return cmd
}

// withSchedule runs fn against the persisted timeline and closes the database afterwards
func withSchedule(app *App, files *InputFiles, fn func(svc *orchestration.ScheduleService) error) error {
	if err := checkFiles(map[string]string{
		"Orders": files.Orders, "Processes": files.Processes, "Ramp-up": files.RampUp, "Lines": files.Lines,
	}); err != nil {
		return err
	}
	r, err := loadRepos(*files)
	if err != nil {
		return err
	}

	var observers []orchestration.UseCaseObserver
	if app.Verbose {
		observers = append(observers, orchestration.NewLogUseCaseObserver(app.Logger))
	}
	svc, db, err := openScheduleService(app.Config, r, events.NewInMemoryEventStore(), observers...)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(svc)
}

func newSchedulePlaceCmd(app *App, files *InputFiles) *cobra.Command {
	var itemID, orderID, processID, resourceID, start string
	var qty, batch int64
	var lines int

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place a new work item, or move an existing one",
		Example: `  lineplan schedule place --orders orders.csv --processes processes.csv --order PO-1 --process SEW --resource L1 --start "2025-03-03 08:00"
  lineplan schedule place --item 5b1c... --resource L2 --start 2025-03-05`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if itemID == "" && (orderID == "" || processID == "") {
				return fmt.Errorf("either --item or --order and --process are required")
			}
			startAt, err := parseStart(start, app.Config.Planning.DayStartHour)
			if err != nil {
				return err
			}
			return withSchedule(app, files, func(svc *orchestration.ScheduleService) error {
				change, err := svc.Place(cmd.Context(), orchestration.PlaceRequest{
					ItemID:     itemID,
					OrderID:    entities.OrderID(orderID),
					ProcessID:  entities.ProcessID(processID),
					Quantity:   entities.Quantity(qty),
					Lines:      lines,
					BatchSize:  entities.Quantity(batch),
					ResourceID: entities.ResourceID(resourceID),
					Start:      startAt,
				})
				if err != nil {
					return err
				}
				output.WriteChange(cmd.OutOrStdout(), change, app.Color)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&itemID, "item", "", "ID of an item already on the timeline")
	cmd.Flags().StringVar(&orderID, "order", "", "Order of a new work item")
	cmd.Flags().StringVar(&processID, "process", "", "Process of a new work item")
	cmd.Flags().Int64Var(&qty, "qty", 0, "Quantity of a new work item (default: order quantity)")
	cmd.Flags().IntVar(&lines, "line-count", 0, "Parallel lines working a new item (default: order lines)")
	cmd.Flags().Int64Var(&batch, "batch", 0, "Split a new item into batches of this size")
	cmd.Flags().StringVar(&resourceID, "resource", "", "Resource to place on")
	cmd.Flags().StringVar(&start, "start", "", `Start time, RFC 3339 or "2006-01-02 15:04" (UTC)`)
	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func newScheduleUndoCmd(app *App, files *InputFiles) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <item-id>",
		Short: "Remove an item, or its whole batch group, from the timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchedule(app, files, func(svc *orchestration.ScheduleService) error {
				change, err := svc.Undo(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				output.WriteChange(cmd.OutOrStdout(), change, app.Color)
				return nil
			})
		},
	}
}

func newScheduleListCmd(app *App, files *InputFiles) *cobra.Command {
	var resourceID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List placed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchedule(app, files, func(svc *orchestration.ScheduleService) error {
				items, horizon, err := svc.List(cmd.Context(), entities.ResourceID(resourceID))
				if err != nil {
					return err
				}
				output.WriteTimeline(cmd.OutOrStdout(), items, horizon, app.Color)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&resourceID, "resource", "", "Only list items on this resource")
	return cmd
}

func newScheduleGanttCmd(app *App, files *InputFiles) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Render the timeline as an SVG Gantt chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchedule(app, files, func(svc *orchestration.ScheduleService) error {
				items, horizon, err := svc.List(cmd.Context(), "")
				if err != nil {
					return err
				}
				svg := output.NewGanttChart(items, horizon).GenerateSVG(items)
				if outFile == "" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), svg)
					return err
				}
				if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}
				if app.Verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "Gantt chart saved to: %s\n", outFile)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the SVG to this file instead of stdout")
	return cmd
}
