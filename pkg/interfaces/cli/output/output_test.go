package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/lineplan/pkg/application/dto"
	"github.com/vsinha/lineplan/pkg/application/services/capacity"
	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

func sampleResults(t *testing.T) []*orchestration.PlanningResult {
	t.Helper()
	order, err := entities.NewOrder("PO-1", "TEE", "NAVY", 1000,
		[]entities.Process{{ID: "SEW", Sequence: 1, SAM: 25}}, time.Time{}, 85, nil)
	require.NoError(t, err)

	run := entities.ProductionRun{StartWeek: 10, EndWeek: 10, Quantity: 1000}
	plan := dto.TentativePlan{
		OrderID:         "PO-1",
		SimulationFloor: 1,
		Weekly:          map[entities.Week]entities.Quantity{6: 294, 7: 294, 8: 293, 9: 119},
		Runs: []entities.PlannedRun{{
			Run: run, Lines: 3, StartWeek: 6, Offset: 4, EndWeek: 9, WeeklyOutput: 293.76,
		}},
		Inventory: []dto.InventoryWeek{
			{Week: 9, Opening: 881, Supply: 119, Closing: 1000},
			{Week: 10, Opening: 1000, Demand: 1000, Closing: 0},
		},
		Gaps: []dto.PlanningGap{{
			Run: entities.ProductionRun{StartWeek: 80, EndWeek: 80, Quantity: 50},
			Err: errors.New("demand beyond the planning horizon"),
		}},
	}
	return []*orchestration.PlanningResult{{Order: order, Plan: plan}}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleResults(t), Config{Format: "text"}))

	out := buf.String()
	assert.Contains(t, out, "ORDER PO-1")
	assert.Contains(t, out, "Planned 1000")
	assert.Contains(t, out, "Weekly output")
	assert.Contains(t, out, "Unplanned")
	assert.Contains(t, out, "planning horizon")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleResults(t), Config{Format: "json"}))

	var views []PlanView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "PO-1", views[0].OrderID)
	assert.Equal(t, int64(1000), views[0].TotalPlanned)
	require.Len(t, views[0].Runs, 1)
	assert.Equal(t, 3, views[0].Runs[0].Lines)
	require.Len(t, views[0].Gaps, 1)
	assert.Contains(t, views[0].Gaps[0].Reason, "horizon")
}

func TestGenerate_CSVAndXLSX(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	require.NoError(t, Generate(&buf, sampleResults(t), Config{Format: "csv", OutputDir: dir}))
	runs, err := os.ReadFile(filepath.Join(dir, "planned_runs.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(runs)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "PO-1,"))

	require.NoError(t, Generate(&buf, sampleResults(t), Config{Format: "xlsx", OutputDir: dir}))
	f, err := excelize.OpenFile(filepath.Join(dir, "plans.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(runsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Order", header)
	lines3, err := f.GetCellValue(runsSheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "3", lines3)

	rows, err := f.GetRows(weeklySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestGenerate_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Generate(&buf, sampleResults(t), Config{Format: "csv"}))
	assert.Error(t, Generate(&buf, sampleResults(t), Config{Format: "xlsx"}))
	assert.Error(t, Generate(&buf, sampleResults(t), Config{Format: "yaml"}))
}

func timelineItems() []entities.ScheduledProcess {
	t0 := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	latest := t0.Add(-time.Hour)
	return []entities.ScheduledProcess{
		{ID: "a", ResourceID: "L2", OrderID: "PO-1", ProcessID: "SEW", Quantity: 100,
			Start: t0, End: t0.Add(6 * time.Hour), LatestStart: &latest},
		{ID: "b", ResourceID: "L1", OrderID: "PO-2", ProcessID: "CUT", Quantity: 40,
			Start: t0, End: t0.Add(30 * time.Hour), ParentID: "p", BatchNumber: 2},
	}
}

func TestGanttChart(t *testing.T) {
	items := timelineItems()
	chart := NewGanttChart(items, time.Time{})
	svg := chart.GenerateSVG(items)

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Less(t, strings.Index(svg, ">L1<"), strings.Index(svg, ">L2<"))
	assert.Contains(t, svg, `class="item-bar late"`)
	assert.Contains(t, svg, "PO-2 CUT B2")

	empty := NewGanttChart(nil, time.Time{}).GenerateSVG(nil)
	assert.Contains(t, empty, "No Items Placed")
}

func TestWriteTimelineAndChange(t *testing.T) {
	items := timelineItems()
	var buf bytes.Buffer
	WriteTimeline(&buf, items, items[1].End, false)
	out := buf.String()
	assert.Contains(t, out, "TIMELINE")
	assert.Contains(t, out, "late")
	assert.Contains(t, out, "Horizon 2025-03-04 14:00")

	buf.Reset()
	WriteChange(&buf, timeline.Change{
		Placed:          items[:1],
		Shifted:         []timeline.Shift{{Item: items[1], FromStart: items[1].Start.Add(-time.Hour)}},
		PreviousHorizon: items[0].End,
		Horizon:         items[1].End,
	}, false)
	out = buf.String()
	assert.Contains(t, out, "placed  a PO-1/SEW")
	assert.Contains(t, out, "shifted b")
	assert.Contains(t, out, "horizon extended")
}

func TestWriteMatch(t *testing.T) {
	group, err := entities.NewLineGroup("G1", "", entities.MachineCounts{"SNLS": 10})
	require.NoError(t, err)
	group.Machines = entities.MachineCounts{"SNLS": 8}
	buffer, err := entities.NewResource("BUF", "", entities.Machine, entities.MachineCounts{"OL": 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteMatch(&buf, &capacity.MatchResult{
		Group:       group,
		Buffer:      buffer,
		Allocations: []capacity.Allocation{{LineID: "L1", ToGroup: entities.MachineCounts{"SNLS": 8}, ToBuffer: entities.MachineCounts{"OL": 2}}},
		Shortfall:   entities.MachineCounts{"SNLS": 2},
	}, false)

	out := buf.String()
	assert.Contains(t, out, "LINE GROUP G1")
	assert.Contains(t, out, "Buffer BUF: OL=2")
	assert.Contains(t, out, "Shortfall: SNLS=2")
}

func TestWriteWorkItemsAndProductionVsPlan(t *testing.T) {
	items := timelineItems()
	var buf bytes.Buffer
	WriteWorkItems(&buf, items, false)
	out := buf.String()
	assert.Contains(t, out, "WORK ITEMS")
	assert.Contains(t, out, "PO-1")

	buf.Reset()
	WriteWorkItems(&buf, nil, false)
	assert.Contains(t, buf.String(), "Nothing to schedule")

	buf.Reset()
	WriteProductionVsPlan(&buf, "PO-1", []dto.ProductionWeek{
		{Week: 9, Planned: 119, Scheduled: 100, Closing: 100},
		{Week: 10, Demand: 1000, Closing: -900},
	}, false)
	out = buf.String()
	assert.Contains(t, out, "PRODUCTION VS PLAN PO-1")
	assert.Contains(t, out, "-900")
	assert.Contains(t, out, "1970-W10")
}
