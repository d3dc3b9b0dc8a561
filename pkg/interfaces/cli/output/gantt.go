package output

import (
	"fmt"
	"hash/fnv"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// GanttChart lays out the timeline as an SVG with one row per resource
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	EndTime      time.Time
}

// GanttBar represents a single placed item in the chart
type GanttBar struct {
	Item  entities.ScheduledProcess
	X     int
	Width int
	Color string
}

var orderColors = []string{"#458588", "#98971a", "#d79921", "#b16286", "#689d6a", "#d65d0e", "#83a598", "#8f3f71"}

// NewGanttChart sizes a chart for the items. The time range runs from the
// earliest start to the later of the last end and the horizon.
func NewGanttChart(items []entities.ScheduledProcess, horizon time.Time) *GanttChart {
	if len(items) == 0 {
		return &GanttChart{
			Width:        800,
			Height:       200,
			MarginLeft:   150,
			MarginTop:    50,
			MarginRight:  50,
			MarginBottom: 50,
			RowHeight:    25,
		}
	}

	startTime := items[0].Start
	endTime := items[0].End
	resources := make(map[entities.ResourceID]bool)
	for _, item := range items {
		if item.Start.Before(startTime) {
			startTime = item.Start
		}
		if item.End.After(endTime) {
			endTime = item.End
		}
		resources[item.ResourceID] = true
	}
	if horizon.After(endTime) {
		endTime = horizon
	}

	rowHeight := 30
	return &GanttChart{
		Width:        1200,
		Height:       len(resources)*rowHeight + 140,
		MarginLeft:   120,
		MarginTop:    60,
		MarginRight:  60,
		MarginBottom: 80,
		RowHeight:    rowHeight,
		StartTime:    startTime,
		EndTime:      endTime,
	}
}

// GenerateSVG renders the items
func (gc *GanttChart) GenerateSVG(items []entities.ScheduledProcess) string {
	if len(items) == 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height)
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.row-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.item-bar { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.item-bar.late { stroke: #cc241d; stroke-width: 3; }`)
	svg.WriteString(`.item-text { font-family: Arial, sans-serif; font-size: 9px; fill: white; }`)
	svg.WriteString(`</style></defs>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title" text-anchor="middle">Line Timeline</text>`, gc.Width/2)

	rows := gc.organizeBars(gc.createBars(items))
	gc.drawTimeAxis(&svg)
	gc.drawTimeGrid(&svg, len(rows))
	gc.drawRows(&svg, rows)

	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) createBars(items []entities.ScheduledProcess) []GanttBar {
	bars := make([]GanttBar, 0, len(items))
	for _, item := range items {
		x := gc.xFor(item.Start)
		width := gc.xFor(item.End) - x
		if width < 2 {
			width = 2
		}
		bars = append(bars, GanttBar{Item: item, X: x, Width: width, Color: orderColor(item.OrderID)})
	}
	return bars
}

type ganttRow struct {
	resource entities.ResourceID
	bars     []GanttBar
}

// organizeBars groups bars by resource; rows are sorted by resource id and
// bars by start time
func (gc *GanttChart) organizeBars(bars []GanttBar) []ganttRow {
	byResource := make(map[entities.ResourceID][]GanttBar)
	for _, bar := range bars {
		byResource[bar.Item.ResourceID] = append(byResource[bar.Item.ResourceID], bar)
	}

	rows := make([]ganttRow, 0, len(byResource))
	for id, resourceBars := range byResource {
		sort.Slice(resourceBars, func(i, j int) bool {
			return resourceBars[i].Item.Start.Before(resourceBars[j].Item.Start)
		})
		rows = append(rows, ganttRow{resource: id, bars: resourceBars})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].resource < rows[j].resource })
	return rows
}

func (gc *GanttChart) xFor(t time.Time) int {
	chartWidth := gc.Width - gc.MarginLeft - gc.MarginRight
	total := gc.EndTime.Sub(gc.StartTime)
	if total <= 0 {
		return gc.MarginLeft
	}
	return gc.MarginLeft + int(float64(t.Sub(gc.StartTime))/float64(total)*float64(chartWidth))
}

func (gc *GanttChart) interval() (time.Duration, string) {
	days := int(math.Ceil(gc.EndTime.Sub(gc.StartTime).Hours() / 24))
	switch {
	case days <= 30:
		return 24 * time.Hour, "Jan 2"
	case days <= 180:
		return 7 * 24 * time.Hour, "Jan 2"
	default:
		return 30 * 24 * time.Hour, "Jan 2006"
	}
}

func (gc *GanttChart) drawTimeAxis(svg *strings.Builder) {
	interval, labelFormat := gc.interval()
	for t := gc.StartTime.Truncate(interval); t.Before(gc.EndTime); t = t.Add(interval) {
		x := gc.xFor(t)
		if x >= gc.MarginLeft && x <= gc.Width-gc.MarginRight {
			fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label" text-anchor="middle">%s</text>`,
				x, gc.Height-gc.MarginBottom+15, t.Format(labelFormat))
		}
	}
	fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
		gc.MarginLeft, gc.Height-gc.MarginBottom, gc.Width-gc.MarginRight, gc.Height-gc.MarginBottom)
}

func (gc *GanttChart) rowHeight(numRows int) int {
	available := gc.Height - gc.MarginBottom - 30 - gc.MarginTop
	return min(gc.RowHeight, available/max(numRows, 1))
}

func (gc *GanttChart) drawTimeGrid(svg *strings.Builder, numRows int) {
	gridBottom := gc.MarginTop + numRows*gc.rowHeight(numRows)
	interval, _ := gc.interval()
	for t := gc.StartTime.Truncate(interval); t.Before(gc.EndTime); t = t.Add(interval) {
		x := gc.xFor(t)
		if x >= gc.MarginLeft && x <= gc.Width-gc.MarginRight {
			fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`, x, gc.MarginTop, x, gridBottom)
		}
	}
}

func (gc *GanttChart) drawRows(svg *strings.Builder, rows []ganttRow) {
	height := gc.rowHeight(len(rows))
	for i, row := range rows {
		y := gc.MarginTop + i*height
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="row-label" text-anchor="end">%s</text>`,
			gc.MarginLeft-15, y+height/2+4, html.EscapeString(string(row.resource)))
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			gc.MarginLeft, y+height, gc.Width-gc.MarginRight, y+height)
		for _, bar := range row.bars {
			gc.drawBar(svg, bar, y, height)
		}
	}
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, rowY, rowHeight int) {
	item := bar.Item
	barHeight := rowHeight - 4
	barY := rowY + 2

	class := "item-bar"
	if item.Late() {
		class += " late"
	}
	fmt.Fprintf(svg, `<g><rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="%s"/>`,
		bar.X, barY, bar.Width, barHeight, bar.Color, class)

	if bar.Width > 40 {
		text := fmt.Sprintf("%s %s", item.OrderID, item.ProcessID)
		if item.IsSplit() {
			text = fmt.Sprintf("%s B%d", text, item.BatchNumber)
		}
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="item-text" text-anchor="middle">%s</text>`,
			bar.X+bar.Width/2, barY+barHeight/2+3, html.EscapeString(text))
	}

	tooltip := fmt.Sprintf("%s/%s qty %d, %s to %s", item.OrderID, item.ProcessID, item.Quantity,
		item.Start.Format(timeLayout), item.End.Format(timeLayout))
	if item.LatestStart != nil {
		tooltip += ", latest start " + item.LatestStart.Format(timeLayout)
	}
	fmt.Fprintf(svg, `<title>%s</title></g>`, html.EscapeString(tooltip))
}

func orderColor(id entities.OrderID) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return orderColors[h.Sum32()%uint32(len(orderColors))]
}

func (gc *GanttChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
		<rect width="%d" height="%d" fill="white"/>
		<text x="%d" y="%d" class="title" text-anchor="middle">No Items Placed</text>
		<style>
			.title { font-family: Arial, sans-serif; font-size: 16px; fill: #666; }
		</style>
	</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}
