package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/capacity"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

const timeLayout = "2006-01-02 15:04"

// WriteTimeline lists placed items per resource in start order
func WriteTimeline(w io.Writer, items []entities.ScheduledProcess, horizon time.Time, color bool) {
	p := newPalette(color)
	fmt.Fprint(w, p.title("Timeline"))
	if len(items) == 0 {
		fmt.Fprintln(w, p.dim.Render("No items placed"))
		return
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, itemRow(p, item))
	}
	fmt.Fprint(w, p.table([]string{"Resource", "Order", "Process", "Batch", "Qty", "Start", "End", "Latest start", "ID"}, rows))
	if !horizon.IsZero() {
		fmt.Fprintln(w, p.dim.Render("Horizon "+horizon.Format(timeLayout)))
	}
}

func itemRow(p palette, item entities.ScheduledProcess) []string {
	batch := "-"
	if item.IsSplit() {
		batch = strconv.Itoa(item.BatchNumber)
		if item.AutoScheduled {
			batch += " (auto)"
		}
	}
	latest := "-"
	if item.LatestStart != nil {
		latest = item.LatestStart.Format(timeLayout)
		if item.Late() {
			latest = p.bad.Render(latest + " late")
		}
	}
	return []string{
		string(item.ResourceID),
		string(item.OrderID),
		string(item.ProcessID),
		batch,
		strconv.FormatInt(int64(item.Quantity), 10),
		item.Start.Format(timeLayout),
		item.End.Format(timeLayout),
		latest,
		item.ID,
	}
}

// WriteChange reports what one placement or undo did
func WriteChange(w io.Writer, change timeline.Change, color bool) {
	p := newPalette(color)
	for _, item := range change.Placed {
		fmt.Fprintln(w, p.good.Render(fmt.Sprintf("placed  %s %s/%s x%d on %s %s → %s",
			item.ID, item.OrderID, item.ProcessID, item.Quantity, item.ResourceID,
			item.Start.Format(timeLayout), item.End.Format(timeLayout))))
	}
	for _, shift := range change.Shifted {
		fmt.Fprintln(w, p.warn.Render(fmt.Sprintf("shifted %s %s/%s from %s to %s",
			shift.Item.ID, shift.Item.OrderID, shift.Item.ProcessID,
			shift.FromStart.Format(timeLayout), shift.Item.Start.Format(timeLayout))))
	}
	for _, item := range change.Removed {
		fmt.Fprintln(w, p.bad.Render(fmt.Sprintf("removed %s %s/%s from %s",
			item.ID, item.OrderID, item.ProcessID, item.ResourceID)))
	}
	if change.HorizonExtended() {
		fmt.Fprintln(w, p.dim.Render("horizon extended to "+change.Horizon.Format(timeLayout)))
	}
}

// WriteWorkItems lists unplaced work items with their duration and latest start
func WriteWorkItems(w io.Writer, items []entities.ScheduledProcess, color bool) {
	p := newPalette(color)
	fmt.Fprint(w, p.title("Work items"))
	if len(items) == 0 {
		fmt.Fprintln(w, p.dim.Render("Nothing to schedule"))
		return
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		latest := "-"
		if item.LatestStart != nil {
			latest = item.LatestStart.Format(timeLayout)
		}
		rows = append(rows, []string{
			string(item.OrderID),
			string(item.ProcessID),
			strconv.FormatInt(int64(item.Quantity), 10),
			fmt.Sprintf("%.0f", item.WorkMinutes),
			latest,
			item.ID,
		})
	}
	fmt.Fprint(w, p.table([]string{"Order", "Process", "Qty", "Minutes", "Latest start", "ID"}, rows))
}

// WriteProductionVsPlan compares planned with scheduled finished output per week
func WriteProductionVsPlan(w io.Writer, orderID entities.OrderID, weeks []dto.ProductionWeek, color bool) {
	p := newPalette(color)
	fmt.Fprint(w, p.title("Production vs plan "+string(orderID)))

	rows := make([][]string, 0, len(weeks))
	for _, week := range weeks {
		scheduled := strconv.FormatInt(int64(week.Scheduled), 10)
		if week.Scheduled < week.Planned {
			scheduled = p.warn.Render(scheduled)
		}
		closing := fmt.Sprintf("%.0f", week.Closing)
		if week.Closing < -0.5 {
			closing = p.bad.Render(closing)
		}
		rows = append(rows, []string{
			week.Week.String(),
			fmt.Sprintf("%.0f", week.Demand),
			strconv.FormatInt(int64(week.Planned), 10),
			scheduled,
			closing,
		})
	}
	fmt.Fprint(w, p.table([]string{"Week", "Demand", "Planned", "Scheduled", "Closing"}, rows))
}

// WriteMatch reports a capacity match
func WriteMatch(w io.Writer, result *capacity.MatchResult, color bool) {
	p := newPalette(color)
	fmt.Fprint(w, p.title("Line group "+string(result.Group.ID)))

	rows := make([][]string, 0, len(result.Allocations))
	for _, alloc := range result.Allocations {
		rows = append(rows, []string{string(alloc.LineID), formatCounts(alloc.ToGroup), formatCounts(alloc.ToBuffer)})
	}
	if len(rows) > 0 {
		fmt.Fprint(w, p.table([]string{"Line", "To group", "To buffer"}, rows))
	}

	fmt.Fprintf(w, "Group machines: %s\n", formatCounts(result.Group.Machines))
	fmt.Fprintf(w, "Buffer %s: %s\n", result.Buffer.ID, formatCounts(result.Buffer.Machines))
	if result.Satisfied() {
		fmt.Fprintln(w, p.good.Render("Requirement met"))
		return
	}
	fmt.Fprintln(w, p.bad.Render("Shortfall: "+formatCounts(result.Shortfall)))
}

func formatCounts(counts entities.MachineCounts) string {
	if len(counts) == 0 {
		return "-"
	}
	types := make([]string, 0, len(counts))
	for machineType := range counts {
		types = append(types, string(machineType))
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", t, counts[entities.MachineType(t)]))
	}
	return strings.Join(parts, ",")
}
