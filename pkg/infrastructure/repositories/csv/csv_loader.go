package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

var (
	ordersHeader    = []string{"order_id", "style", "color", "quantity", "due_date", "budget_efficiency", "lines"}
	processesHeader = []string{"order_id", "sequence", "process_id", "sam"}
	rampUpHeader    = []string{"order_id", "day_index", "efficiency"}
	forecastHeader  = []string{"order_id", "snapshot_week", "week", "po_qty", "forecast_qty"}
	linesHeader     = []string{"line_id", "name", "machine_type", "count"}
)

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadOrders loads orders with their routings and, when rampUpFile is not
// empty, their ramp-up schemes
func (l *Loader) LoadOrders(ordersFile, processesFile, rampUpFile string) ([]*entities.Order, error) {
	orderRows, err := readFile(ordersFile, "orders", ordersHeader)
	if err != nil {
		return nil, err
	}
	processRows, err := readFile(processesFile, "processes", processesHeader)
	if err != nil {
		return nil, err
	}
	var rampRows []row
	if rampUpFile != "" {
		if rampRows, err = readFile(rampUpFile, "rampup", rampUpHeader); err != nil {
			return nil, err
		}
	}
	return buildOrders(orderRows, processRows, rampRows)
}

// LoadForecast loads forecast snapshots. Rows are grouped per order and
// snapshot week; repeated (order, snapshot, week) rows are summed.
func (l *Loader) LoadForecast(filename string) ([]*entities.ForecastSnapshot, error) {
	rows, err := readFile(filename, "forecast", forecastHeader)
	if err != nil {
		return nil, err
	}
	return buildSnapshots(rows)
}

// LoadLines loads sewing lines, one row per line and machine type
func (l *Loader) LoadLines(filename string) ([]*entities.Resource, error) {
	rows, err := readFile(filename, "lines", linesHeader)
	if err != nil {
		return nil, err
	}
	return buildLines(rows)
}

// ReadOrders parses orders, processes and ramp-up from readers. rampUp may be nil.
func ReadOrders(orders, processes, rampUp io.Reader) ([]*entities.Order, error) {
	orderRows, err := readRecords(orders, "orders", ordersHeader)
	if err != nil {
		return nil, err
	}
	processRows, err := readRecords(processes, "processes", processesHeader)
	if err != nil {
		return nil, err
	}
	var rampRows []row
	if rampUp != nil {
		if rampRows, err = readRecords(rampUp, "rampup", rampUpHeader); err != nil {
			return nil, err
		}
	}
	return buildOrders(orderRows, processRows, rampRows)
}

// ReadForecast parses forecast snapshots from a reader
func ReadForecast(r io.Reader) ([]*entities.ForecastSnapshot, error) {
	rows, err := readRecords(r, "forecast", forecastHeader)
	if err != nil {
		return nil, err
	}
	return buildSnapshots(rows)
}

// ReadLines parses sewing lines from a reader
func ReadLines(r io.Reader) ([]*entities.Resource, error) {
	rows, err := readRecords(r, "lines", linesHeader)
	if err != nil {
		return nil, err
	}
	return buildLines(rows)
}

type row struct {
	line   int
	fields []string
}

func readFile(filename, kind string, expectedHeader []string) ([]row, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()
	return readRecords(file, kind, expectedHeader)
}

func readRecords(r io.Reader, kind string, expectedHeader []string) ([]row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := make([]row, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
		rows = append(rows, row{line: i + 2, fields: record})
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func buildOrders(orderRows, processRows, rampRows []row) ([]*entities.Order, error) {
	processes := make(map[entities.OrderID][]entities.Process)
	for _, r := range processRows {
		id, process, err := parseProcess(r.fields)
		if err != nil {
			return nil, fmt.Errorf("processes CSV row %d: %w", r.line, err)
		}
		processes[id] = append(processes[id], process)
	}

	ramps := make(map[entities.OrderID]entities.RampUpScheme)
	for _, r := range rampRows {
		id, step, err := parseRampUpStep(r.fields)
		if err != nil {
			return nil, fmt.Errorf("rampup CSV row %d: %w", r.line, err)
		}
		ramps[id] = append(ramps[id], step)
	}

	var orders []*entities.Order
	for _, r := range orderRows {
		order, err := parseOrder(r.fields, processes, ramps)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", r.line, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func parseOrder(record []string, processes map[entities.OrderID][]entities.Process, ramps map[entities.OrderID]entities.RampUpScheme) (*entities.Order, error) {
	id := entities.OrderID(strings.TrimSpace(record[0]))

	quantity, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", record[3])
	}

	var dueDate time.Time
	if s := strings.TrimSpace(record[4]); s != "" {
		dueDate, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date format: %s (expected YYYY-MM-DD)", record[4])
		}
	}

	budget, err := parseDecimal(record[5], "budget_efficiency")
	if err != nil {
		return nil, err
	}

	routing := processes[id]
	sort.SliceStable(routing, func(i, j int) bool { return routing[i].Sequence < routing[j].Sequence })
	ramp := ramps[id]
	sort.SliceStable(ramp, func(i, j int) bool { return ramp[i].DayIndex < ramp[j].DayIndex })

	order, err := entities.NewOrder(id, record[1], record[2], entities.Quantity(quantity), routing, dueDate, budget, ramp)
	if err != nil {
		return nil, err
	}

	if s := strings.TrimSpace(record[6]); s != "" {
		lines, err := strconv.Atoi(s)
		if err != nil || lines < 1 {
			return nil, fmt.Errorf("invalid lines: %s", record[6])
		}
		order.Lines = lines
	}
	return order, nil
}

func parseProcess(record []string) (entities.OrderID, entities.Process, error) {
	sequence, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return "", entities.Process{}, fmt.Errorf("invalid sequence: %s", record[1])
	}
	sam, err := parseDecimal(record[3], "sam")
	if err != nil {
		return "", entities.Process{}, err
	}
	return entities.OrderID(strings.TrimSpace(record[0])), entities.Process{
		ID:       entities.ProcessID(strings.TrimSpace(record[2])),
		Sequence: sequence,
		SAM:      sam,
	}, nil
}

func parseRampUpStep(record []string) (entities.OrderID, entities.RampUpStep, error) {
	day, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return "", entities.RampUpStep{}, fmt.Errorf("invalid day_index: %s", record[1])
	}
	eff, err := parseDecimal(record[2], "efficiency")
	if err != nil {
		return "", entities.RampUpStep{}, err
	}
	return entities.OrderID(strings.TrimSpace(record[0])), entities.RampUpStep{DayIndex: day, Efficiency: eff}, nil
}

type snapshotKey struct {
	order entities.OrderID
	week  entities.Week
}

func buildSnapshots(rows []row) ([]*entities.ForecastSnapshot, error) {
	grouped := make(map[snapshotKey]map[entities.Week]entities.WeekDemand)
	var keys []snapshotKey

	for _, r := range rows {
		key, week, demand, err := parseForecastRow(r.fields)
		if err != nil {
			return nil, fmt.Errorf("forecast CSV row %d: %w", r.line, err)
		}
		weeks, ok := grouped[key]
		if !ok {
			weeks = make(map[entities.Week]entities.WeekDemand)
			grouped[key] = weeks
			keys = append(keys, key)
		}
		existing := weeks[week]
		weeks[week] = entities.WeekDemand{
			POQuantity:       existing.POQuantity.Add(demand.POQuantity),
			ForecastQuantity: existing.ForecastQuantity.Add(demand.ForecastQuantity),
		}
	}

	snapshots := make([]*entities.ForecastSnapshot, 0, len(keys))
	for _, key := range keys {
		snap, err := entities.NewForecastSnapshot(key.order, key.week, grouped[key])
		if err != nil {
			return nil, fmt.Errorf("forecast for %s at %s: %w", key.order, key.week, err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func parseForecastRow(record []string) (snapshotKey, entities.Week, entities.WeekDemand, error) {
	snapWeek, err := entities.ParseWeek(record[1])
	if err != nil {
		return snapshotKey{}, 0, entities.WeekDemand{}, fmt.Errorf("invalid snapshot_week: %w", err)
	}
	week, err := entities.ParseWeek(record[2])
	if err != nil {
		return snapshotKey{}, 0, entities.WeekDemand{}, fmt.Errorf("invalid week: %w", err)
	}
	po, err := decimalOrZero(record[3], "po_qty")
	if err != nil {
		return snapshotKey{}, 0, entities.WeekDemand{}, err
	}
	fc, err := decimalOrZero(record[4], "forecast_qty")
	if err != nil {
		return snapshotKey{}, 0, entities.WeekDemand{}, err
	}
	key := snapshotKey{order: entities.OrderID(strings.TrimSpace(record[0])), week: snapWeek}
	return key, week, entities.WeekDemand{POQuantity: po, ForecastQuantity: fc}, nil
}

func buildLines(rows []row) ([]*entities.Resource, error) {
	byID := make(map[entities.ResourceID]*entities.Resource)
	var order []entities.ResourceID

	for _, r := range rows {
		id := entities.ResourceID(strings.TrimSpace(r.fields[0]))
		count, err := strconv.Atoi(strings.TrimSpace(r.fields[3]))
		if err != nil || count < 0 {
			return nil, fmt.Errorf("lines CSV row %d: invalid count: %s", r.line, r.fields[3])
		}

		res, ok := byID[id]
		if !ok {
			res, err = entities.NewResource(id, strings.TrimSpace(r.fields[1]), entities.Line, nil)
			if err != nil {
				return nil, fmt.Errorf("lines CSV row %d: %w", r.line, err)
			}
			byID[id] = res
			order = append(order, id)
		}
		res.Machines.Add(entities.MachineType(strings.TrimSpace(r.fields[2])), count)
	}

	lines := make([]*entities.Resource, 0, len(order))
	for _, id := range order {
		lines = append(lines, byID[id])
	}
	return lines, nil
}

func parseDecimal(s, column string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", column, s)
	}
	return d.InexactFloat64(), nil
}

func decimalOrZero(s, column string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", column, s)
	}
	return d, nil
}
