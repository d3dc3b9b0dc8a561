package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/interfaces/cli/output"
)

func newMatchCmd(app *App) *cobra.Command {
	var linesFile, groupID, require, bufferID string
	var lineIDs []string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Fit whole lines into a line group by machine type",
		Example: `  lineplan match --lines lines.csv --group G1 --require SNLS=20,OL=6
  lineplan match --lines lines.csv --group G1 --require SNLS=20 --line L3 --line L1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			requirement, err := parseMachineCounts(require)
			if err != nil {
				return fmt.Errorf("--require: %w", err)
			}
			if err := checkFiles(map[string]string{"Lines": linesFile}); err != nil {
				return err
			}
			r, err := loadRepos(InputFiles{Lines: linesFile})
			if err != nil {
				return err
			}

			group, err := entities.NewLineGroup(entities.ResourceID(groupID), "", requirement)
			if err != nil {
				return err
			}
			buffer, err := entities.NewResource(entities.ResourceID(bufferID), "", entities.Machine, nil)
			if err != nil {
				return err
			}
			if err := r.resources.LoadResources([]*entities.Resource{group, buffer}); err != nil {
				return err
			}

			ids := make([]entities.ResourceID, 0, len(lineIDs))
			for _, id := range lineIDs {
				ids = append(ids, entities.ResourceID(id))
			}

			var observers []orchestration.UseCaseObserver
			if app.Verbose {
				observers = append(observers, orchestration.NewLogUseCaseObserver(app.Logger))
			}
			result, err := orchestration.NewCapacityService(r.resources, observers...).
				MatchGroup(cmd.Context(), group.ID, ids, buffer.ID)
			if err != nil {
				return err
			}
			output.WriteMatch(cmd.OutOrStdout(), result, app.Color)
			return nil
		},
	}

	cmd.Flags().StringVar(&linesFile, "lines", "", "Lines CSV file")
	cmd.Flags().StringVar(&groupID, "group", "", "Line group id")
	cmd.Flags().StringVar(&require, "require", "", "Group requirement as type=count pairs, e.g. SNLS=20,OL=6")
	cmd.Flags().StringVar(&bufferID, "buffer", "BUFFER", "Resource receiving leftover machines")
	cmd.Flags().StringArrayVar(&lineIDs, "line", nil, "Offer only these lines, in order (repeatable; default: all lines by id)")
	_ = cmd.MarkFlagRequired("lines")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("require")

	return cmd
}

// parseMachineCounts parses "SNLS=20,OL=6"
func parseMachineCounts(s string) (entities.MachineCounts, error) {
	counts := entities.MachineCounts{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		machineType, n, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(machineType) == "" {
			return nil, fmt.Errorf("expected type=count, got %q", pair)
		}
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("invalid count in %q", pair)
		}
		counts.Add(entities.MachineType(strings.TrimSpace(machineType)), count)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("requirement cannot be empty")
	}
	return counts, nil
}
