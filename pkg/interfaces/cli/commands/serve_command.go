package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/application/services/tentative"
	"github.com/vsinha/lineplan/pkg/infrastructure/events"
	"github.com/vsinha/lineplan/pkg/infrastructure/logging"
	"github.com/vsinha/lineplan/pkg/interfaces/httpserver"
)

func newServeCmd(app *App) *cobra.Command {
	var files InputFiles
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning, timeline and capacity API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			log := app.Logger
			if addr != "" {
				cfg.HTTPServer.Address = addr
			}

			if err := checkFiles(map[string]string{
				"Orders": files.Orders, "Processes": files.Processes, "Ramp-up": files.RampUp,
				"Forecast": files.Forecast, "Lines": files.Lines,
			}); err != nil {
				return err
			}
			r, err := loadRepos(files)
			if err != nil {
				return err
			}

			store := events.NewInMemoryEventStore()
			observer := orchestration.NewLogUseCaseObserver(log)
			model := planningModel(cfg.Planning)

			schedule, db, err := openScheduleService(cfg, r, store, observer)
			if err != nil {
				return err
			}
			defer db.Close()

			router := httpserver.NewRouter(log, cfg.HTTPServer.AllowedOrigins, httpserver.Services{
				Planner:   newOrchestrator(cfg, r, store, observer),
				Generator: tentative.NewGenerator(generatorConfig(cfg.Planning), model, log),
				Scheduler: schedule,
				Matcher:   orchestration.NewCapacityService(r.resources, observer),
			})

			srv := &http.Server{
				Addr:         cfg.HTTPServer.Address,
				Handler:      router,
				ReadTimeout:  cfg.HTTPServer.Timeout,
				WriteTimeout: cfg.HTTPServer.Timeout,
				IdleTimeout:  cfg.HTTPServer.IdleTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("server started", slog.String("address", cfg.HTTPServer.Address), slog.String("env", cfg.Env))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					log.Error("failed to start server", logging.Err(err))
					return fmt.Errorf("serving: %w", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error("failed to stop server", logging.Err(err))
					return fmt.Errorf("shutting down: %w", err)
				}
			}

			log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVar(&files.Orders, "orders", "", "Orders CSV file")
	cmd.Flags().StringVar(&files.Processes, "processes", "", "Processes CSV file")
	cmd.Flags().StringVar(&files.RampUp, "rampup", "", "Ramp-up CSV file")
	cmd.Flags().StringVar(&files.Forecast, "forecast", "", "Forecast snapshots CSV file")
	cmd.Flags().StringVar(&files.Lines, "lines", "", "Lines CSV file")

	return cmd
}
