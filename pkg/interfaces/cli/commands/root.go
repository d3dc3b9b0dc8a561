package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vsinha/lineplan/pkg/infrastructure/config"
	"github.com/vsinha/lineplan/pkg/infrastructure/logging"
)

// App carries settings shared by every command. Config and Logger are
// filled in before any subcommand runs.
type App struct {
	Color bool

	ConfigPath string
	DBPath     string
	Verbose    bool

	Config *config.Config
	Logger *slog.Logger
}

// NewRootCmd creates the top-level "lineplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lineplan",
		Short:         "Tentative production planning and line scheduling for garment orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if app.DBPath != "" {
				cfg.Storage.DBPath = app.DBPath
			}
			app.Config = cfg
			app.Logger = logging.New(cfg.Env, cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to YAML config file (default $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&app.DBPath, "db", "", "Path to the timeline database (overrides config)")
	root.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(
		newPlanCmd(app),
		newScheduleCmd(app),
		newMatchCmd(app),
		newServeCmd(app),
	)

	return root
}
