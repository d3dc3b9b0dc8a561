package capacity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/vsinha/lineplan/pkg/application/services/capacity"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// Matcher fits lines into a line group
type Matcher interface {
	MatchGroup(ctx context.Context, groupID entities.ResourceID, lineIDs []entities.ResourceID, bufferID entities.ResourceID) (*capacity.MatchResult, error)
}

// Request names the group, the buffer and, optionally, the lines to offer
type Request struct {
	GroupID  string   `json:"group_id"`
	BufferID string   `json:"buffer_id"`
	LineIDs  []string `json:"line_ids,omitempty"`
}

type AllocationView struct {
	LineID   string         `json:"line_id"`
	ToGroup  map[string]int `json:"to_group"`
	ToBuffer map[string]int `json:"to_buffer"`
}

type Response struct {
	GroupID     string           `json:"group_id"`
	Members     []string         `json:"members"`
	Machines    map[string]int   `json:"machines"`
	Buffer      map[string]int   `json:"buffer"`
	Allocations []AllocationView `json:"allocations"`
	Shortfall   map[string]int   `json:"shortfall"`
	Satisfied   bool             `json:"satisfied"`
}

// Match runs the greedy line-to-group match and returns the updated group
func Match(log *slog.Logger, matcher Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.capacity.Match"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("Invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Bad request: invalid JSON", http.StatusBadRequest)
			return
		}
		if req.GroupID == "" || req.BufferID == "" {
			http.Error(w, "group_id and buffer_id are required", http.StatusBadRequest)
			return
		}

		lineIDs := make([]entities.ResourceID, 0, len(req.LineIDs))
		for _, id := range req.LineIDs {
			lineIDs = append(lineIDs, entities.ResourceID(id))
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := matcher.MatchGroup(ctx, entities.ResourceID(req.GroupID), lineIDs, entities.ResourceID(req.BufferID))
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				log.With(slog.String("op", op), slog.String("group", req.GroupID)).Warn("Resource not found")
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			log.With(
				slog.String("op", op),
				slog.String("group", req.GroupID),
				slog.String("error", err.Error()),
			).Error("Failed to match group")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, NewResponse(result))
	}
}

// NewResponse converts a match result for serialization
func NewResponse(result *capacity.MatchResult) Response {
	resp := Response{
		GroupID:     string(result.Group.ID),
		Members:     make([]string, 0, len(result.Group.Members)),
		Machines:    counts(result.Group.Machines),
		Buffer:      counts(result.Buffer.Machines),
		Allocations: make([]AllocationView, 0, len(result.Allocations)),
		Shortfall:   counts(result.Shortfall),
		Satisfied:   result.Satisfied(),
	}
	for _, id := range result.Group.Members {
		resp.Members = append(resp.Members, string(id))
	}
	for _, a := range result.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationView{
			LineID:   string(a.LineID),
			ToGroup:  counts(a.ToGroup),
			ToBuffer: counts(a.ToBuffer),
		})
	}
	return resp
}

func counts(m entities.MachineCounts) map[string]int {
	out := make(map[string]int, len(m))
	for machineType, n := range m {
		out[string(machineType)] = n
	}
	return out
}
