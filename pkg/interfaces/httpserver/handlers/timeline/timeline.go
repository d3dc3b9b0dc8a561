package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/vsinha/lineplan/pkg/application/services/duration"
	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
	"github.com/vsinha/lineplan/pkg/interfaces/cli/output"
)

// Scheduler runs timeline operations
type Scheduler interface {
	Place(ctx context.Context, req orchestration.PlaceRequest) (timeline.Change, error)
	Undo(ctx context.Context, id string) (timeline.Change, error)
	List(ctx context.Context, resourceID entities.ResourceID) ([]entities.ScheduledProcess, time.Time, error)
}

type ItemView struct {
	ID            string     `json:"id"`
	ResourceID    string     `json:"resource_id"`
	OrderID       string     `json:"order_id"`
	ProcessID     string     `json:"process_id"`
	Quantity      int64      `json:"quantity"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	BatchNumber   int        `json:"batch_number,omitempty"`
	ParentID      string     `json:"parent_id,omitempty"`
	AutoScheduled bool       `json:"auto_scheduled,omitempty"`
	LatestStart   *time.Time `json:"latest_start,omitempty"`
	Late          bool       `json:"late,omitempty"`
}

type ShiftView struct {
	Item      ItemView  `json:"item"`
	FromStart time.Time `json:"from_start"`
}

type ChangeView struct {
	Placed          []ItemView  `json:"placed"`
	Shifted         []ShiftView `json:"shifted"`
	Removed         []ItemView  `json:"removed"`
	Horizon         time.Time   `json:"horizon"`
	HorizonExtended bool        `json:"horizon_extended"`
}

type ListResponse struct {
	Items   []ItemView `json:"items"`
	Horizon time.Time  `json:"horizon"`
}

// PlaceRequest is the body of a placement. ItemID moves an existing item;
// otherwise a new item is built from OrderID and ProcessID.
type PlaceRequest struct {
	ItemID     string    `json:"item_id,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	ProcessID  string    `json:"process_id,omitempty"`
	Quantity   int64     `json:"quantity,omitempty"`
	Lines      int       `json:"lines,omitempty"`
	BatchSize  int64     `json:"batch_size,omitempty"`
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
}

// List returns placed items, optionally filtered by ?resource=
func List(log *slog.Logger, scheduler Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timeline.List"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, horizon, err := scheduler.List(ctx, entities.ResourceID(r.URL.Query().Get("resource")))
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to list timeline")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ListResponse{Items: itemViews(items), Horizon: horizon})
	}
}

// Gantt renders the whole timeline as SVG
func Gantt(log *slog.Logger, scheduler Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timeline.Gantt"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, horizon, err := scheduler.List(ctx, "")
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to list timeline")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(output.NewGanttChart(items, horizon).GenerateSVG(items)))
	}
}

// Place places a new or existing item and returns what moved
func Place(log *slog.Logger, scheduler Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timeline.Place"

		var req PlaceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		if req.ResourceID == "" {
			http.Error(w, "resource_id is required", http.StatusBadRequest)
			return
		}
		if req.Start.IsZero() {
			http.Error(w, "start is required", http.StatusBadRequest)
			return
		}
		if req.ItemID == "" && (req.OrderID == "" || req.ProcessID == "") {
			http.Error(w, "item_id or order_id and process_id are required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		change, err := scheduler.Place(ctx, orchestration.PlaceRequest{
			ItemID:     req.ItemID,
			OrderID:    entities.OrderID(req.OrderID),
			ProcessID:  entities.ProcessID(req.ProcessID),
			Quantity:   entities.Quantity(req.Quantity),
			Lines:      req.Lines,
			BatchSize:  entities.Quantity(req.BatchSize),
			ResourceID: entities.ResourceID(req.ResourceID),
			Start:      req.Start,
		})
		if err != nil {
			writeError(w, log.With(slog.String("op", op)), err)
			return
		}

		log.Info("Item placed",
			slog.String("resource", req.ResourceID),
			slog.Int("placed", len(change.Placed)),
			slog.Int("shifted", len(change.Shifted)),
		)
		render.JSON(w, r, NewChangeView(change))
	}
}

// Undo removes an item, or its batch group, by id
func Undo(log *slog.Logger, scheduler Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timeline.Undo"

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "Missing item id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		change, err := scheduler.Undo(ctx, id)
		if err != nil {
			writeError(w, log.With(slog.String("op", op), slog.String("item", id)), err)
			return
		}

		render.JSON(w, r, NewChangeView(change))
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, timeline.ErrItemNotFound), errors.Is(err, repositories.ErrNotFound):
		log.Warn("Not found", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, duration.ErrInfeasible):
		log.Warn("Infeasible placement", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Error("Timeline operation failed", slog.String("error", err.Error()))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// NewChangeView converts a change for serialization
func NewChangeView(change timeline.Change) ChangeView {
	view := ChangeView{
		Placed:          itemViews(change.Placed),
		Shifted:         make([]ShiftView, 0, len(change.Shifted)),
		Removed:         itemViews(change.Removed),
		Horizon:         change.Horizon,
		HorizonExtended: change.HorizonExtended(),
	}
	for _, shift := range change.Shifted {
		view.Shifted = append(view.Shifted, ShiftView{Item: newItemView(shift.Item), FromStart: shift.FromStart})
	}
	return view
}

func itemViews(items []entities.ScheduledProcess) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item))
	}
	return views
}

func newItemView(item entities.ScheduledProcess) ItemView {
	return ItemView{
		ID:            item.ID,
		ResourceID:    string(item.ResourceID),
		OrderID:       string(item.OrderID),
		ProcessID:     string(item.ProcessID),
		Quantity:      int64(item.Quantity),
		Start:         item.Start,
		End:           item.End,
		BatchNumber:   item.BatchNumber,
		ParentID:      item.ParentID,
		AutoScheduled: item.AutoScheduled,
		LatestStart:   item.LatestStart,
		Late:          item.Late(),
	}
}
