package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	runsSheet   = "Runs"
	weeklySheet = "Weekly plan"
)

// PlanWorkbook renders the plans as an xlsx workbook with one sheet of
// planned runs and one of weekly quantities and inventory
func PlanWorkbook(views []PlanView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", runsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(weeklySheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	runHeader := []any{"Order", "Demand start", "Demand end", "Quantity", "Lines", "Start week", "End week", "Offset", "Weekly output", "Min closing"}
	row := 1
	if err := writeRow(f, runsSheet, row, runHeader); err != nil {
		return nil, err
	}
	for _, view := range views {
		for _, run := range view.Runs {
			row++
			if err := writeRow(f, runsSheet, row, []any{
				view.OrderID, run.DemandStart, run.DemandEnd, run.Quantity, run.Lines,
				run.StartWeek, run.EndWeek, run.Offset, run.WeeklyOutput, run.MinClosing,
			}); err != nil {
				return nil, err
			}
		}
		for _, gap := range view.Gaps {
			row++
			if err := writeRow(f, runsSheet, row, []any{
				view.OrderID, gap.DemandStart, gap.DemandEnd, gap.Quantity, "unplanned: " + gap.Reason,
			}); err != nil {
				return nil, err
			}
		}
	}

	weekHeader := []any{"Order", "Week", "Demand", "Planned", "Opening", "Closing"}
	if err := writeRow(f, weeklySheet, 1, weekHeader); err != nil {
		return nil, err
	}
	row = 1
	for _, view := range views {
		for _, week := range view.Weeks {
			row++
			if err := writeRow(f, weeklySheet, row, []any{
				view.OrderID, week.Week, week.Demand, week.Planned, week.Opening, week.Closing,
			}); err != nil {
				return nil, err
			}
		}
	}

	for _, sheet := range []struct {
		name    string
		columns int
	}{{runsSheet, len(runHeader)}, {weeklySheet, len(weekHeader)}} {
		if err := f.SetCellStyle(sheet.name, "A1", cellName(sheet.columns, 1), headerStyle); err != nil {
			return nil, fmt.Errorf("style header of %s: %w", sheet.name, err)
		}
		if err := f.SetPanes(sheet.name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
		}); err != nil {
			return nil, fmt.Errorf("freeze header of %s: %w", sheet.name, err)
		}
		if err := f.SetColWidth(sheet.name, "A", "J", 14); err != nil {
			return nil, fmt.Errorf("column width of %s: %w", sheet.name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cellName(i+1, row), v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cellName(i+1, row), err)
		}
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
