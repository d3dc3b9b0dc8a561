package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/interfaces/cli/output"
)

const (
	testOrders = `order_id,style,color,quantity,due_date,budget_efficiency,lines
TEE-NAVY,TEE,NAVY,1000,2025-05-17,85,
`
	testProcesses = `order_id,sequence,process_id,sam
TEE-NAVY,1,CUT,5
TEE-NAVY,2,SEW,20
`
	testForecast = `order_id,snapshot_week,week,po_qty,forecast_qty
TEE-NAVY,2025-W10,2025-W20,,1000
`
	testLines = `line_id,name,machine_type,count
L1,Line 1,SNLS,12
L1,Line 1,OL,4
L2,Line 2,SNLS,10
L2,Line 2,OL,2
`
)

// scenario writes the CSV fixtures into a temp dir and returns it
func scenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"orders.csv":    testOrders,
		"processes.csv": testProcesses,
		"forecast.csv":  testForecast,
		"lines.csv":     testLines,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// executeCmd runs the root command with args and returns stdout
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	root := NewRootCmd(&App{})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlanCmd_Text(t *testing.T) {
	dir := scenario(t)

	out, err := executeCmd(t, "plan", "--scenario", dir, "--db", filepath.Join(dir, "lineplan.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "TEE-NAVY")
	assert.Contains(t, out, "2025-W16")
}

func TestPlanCmd_JSON(t *testing.T) {
	dir := scenario(t)

	out, err := executeCmd(t, "plan", "--scenario", dir, "--order", "TEE-NAVY", "--format", "json")
	require.NoError(t, err)

	var views []output.PlanView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "TEE-NAVY", views[0].OrderID)
	assert.Equal(t, int64(1000), views[0].TotalPlanned)
	require.Len(t, views[0].Runs, 1)
	assert.Equal(t, 3, views[0].Runs[0].Lines)
	assert.Equal(t, "2025-W16", views[0].Runs[0].StartWeek)
}

func TestPlanCmd_Seed(t *testing.T) {
	dir := scenario(t)

	out, err := executeCmd(t, "plan", "--scenario", dir, "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "WORK ITEMS")
	assert.Contains(t, out, "SEW")
}

func TestPlanCmd_ValidationError(t *testing.T) {
	_, err := executeCmd(t, "plan", "--orders", "orders.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")

	dir := scenario(t)
	_, err = executeCmd(t, "plan", "--scenario", dir, "--floor", "W10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--floor")

	_, err = executeCmd(t, "plan", "--scenario", filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestScheduleCmd_PlaceListUndo(t *testing.T) {
	dir := scenario(t)
	common := []string{
		"--db", filepath.Join(dir, "lineplan.db"),
		"--orders", filepath.Join(dir, "orders.csv"),
		"--processes", filepath.Join(dir, "processes.csv"),
		"--lines", filepath.Join(dir, "lines.csv"),
	}
	run := func(args ...string) (string, error) {
		return executeCmd(t, append(append([]string{"schedule"}, args...), common...)...)
	}

	out, err := run("place", "--order", "TEE-NAVY", "--process", "SEW", "--qty", "100",
		"--line-count", "1", "--resource", "L1", "--start", "2025-03-03 08:00")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "placed"), out)
	id := strings.Fields(out)[1]

	out, err = run("list", "--resource", "L1")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "TEE-NAVY")

	out, err = run("gantt")
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")

	out, err = run("undo", id)
	require.NoError(t, err)
	assert.Contains(t, out, "removed "+id)

	out, err = run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "No items placed")

	_, err = run("place", "--order", "TEE-NAVY", "--process", "SEW", "--resource", "L9", "--start", "2025-03-03")
	assert.Error(t, err)

	_, err = run("place", "--resource", "L1", "--start", "2025-03-03")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--item")
}

func TestMatchCmd(t *testing.T) {
	dir := scenario(t)

	out, err := executeCmd(t, "match", "--lines", filepath.Join(dir, "lines.csv"),
		"--group", "G1", "--require", "SNLS=20,OL=6")
	require.NoError(t, err)
	assert.Contains(t, out, "L1")
	assert.Contains(t, out, "L2")
	assert.Contains(t, out, "Requirement met")

	out, err = executeCmd(t, "match", "--lines", filepath.Join(dir, "lines.csv"),
		"--group", "G1", "--require", "SNLS=40", "--line", "L2")
	require.NoError(t, err)
	assert.Contains(t, out, "Shortfall")

	_, err = executeCmd(t, "match", "--lines", filepath.Join(dir, "lines.csv"), "--group", "G1", "--require", "SNLS")
	assert.Error(t, err)
}

func TestParseMachineCounts(t *testing.T) {
	counts, err := parseMachineCounts(" SNLS=20, OL=6 ,FL=0")
	require.NoError(t, err)
	assert.Equal(t, entities.MachineCounts{"SNLS": 20, "OL": 6}, counts)

	for _, bad := range []string{"", "SNLS", "=3", "SNLS=x", "SNLS=-1", "FL=0"} {
		_, err := parseMachineCounts(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-03T09:30:00Z", time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)},
		{"2025-03-03 09:30", time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)},
		{"2025-03-03T09:30", time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)},
		{"2025-03-03", time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseStart(tt.in, 8)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
	}

	_, err := parseStart("next monday", 8)
	assert.Error(t, err)
}
