package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineplan/pkg/application/services/orchestration"
	"github.com/vsinha/lineplan/pkg/application/services/timeline"
	"github.com/vsinha/lineplan/pkg/domain/entities"
)

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Place(ctx context.Context, req orchestration.PlaceRequest) (timeline.Change, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(timeline.Change), args.Error(1)
}

func (m *MockScheduler) Undo(ctx context.Context, id string) (timeline.Change, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(timeline.Change), args.Error(1)
}

func (m *MockScheduler) List(ctx context.Context, resourceID entities.ResourceID) ([]entities.ScheduledProcess, time.Time, error) {
	args := m.Called(ctx, resourceID)
	if args.Get(0) == nil {
		return nil, time.Time{}, args.Error(2)
	}
	return args.Get(0).([]entities.ScheduledProcess), args.Get(1).(time.Time), args.Error(2)
}

var monday = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(id string, start time.Time, hours int) entities.ScheduledProcess {
	return entities.ScheduledProcess{
		ID:         id,
		ResourceID: "L1",
		OrderID:    "TEE",
		ProcessID:  "SEW",
		Quantity:   100,
		Start:      start,
		End:        start.Add(time.Duration(hours) * time.Hour),
		Duration:   time.Duration(hours) * time.Hour,
	}
}

func TestList(t *testing.T) {
	scheduler := new(MockScheduler)
	horizon := monday.Add(7 * 24 * time.Hour)
	scheduler.On("List", mock.Anything, entities.ResourceID("L1")).
		Return([]entities.ScheduledProcess{item("a", monday, 4)}, horizon, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline?resource=L1", nil)
	rr := httptest.NewRecorder()

	List(discardLogger(), scheduler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "a", resp.Items[0].ID)
	assert.True(t, resp.Horizon.Equal(horizon))
	scheduler.AssertExpectations(t)
}

func TestList_Error(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("List", mock.Anything, entities.ResourceID("")).Return(nil, nil, fmt.Errorf("disk"))

	req := httptest.NewRequest(http.MethodGet, "/api/timeline", nil)
	rr := httptest.NewRecorder()

	List(discardLogger(), scheduler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGantt(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("List", mock.Anything, entities.ResourceID("")).
		Return([]entities.ScheduledProcess{item("a", monday, 4)}, monday.Add(72*time.Hour), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/timeline/gantt.svg", nil)
	rr := httptest.NewRecorder()

	Gantt(discardLogger(), scheduler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<svg")
	assert.Contains(t, rr.Body.String(), "L1")
}

func TestPlace(t *testing.T) {
	scheduler := new(MockScheduler)
	placed := item("new", monday, 8)
	shifted := item("old", monday.Add(8*time.Hour), 4)
	change := timeline.Change{
		Placed:          []entities.ScheduledProcess{placed},
		Shifted:         []timeline.Shift{{Item: shifted, FromStart: monday.Add(2 * time.Hour)}},
		PreviousHorizon: monday,
		Horizon:         monday.Add(84 * time.Hour),
	}
	scheduler.On("Place", mock.Anything, orchestration.PlaceRequest{
		OrderID:    "TEE",
		ProcessID:  "SEW",
		Quantity:   100,
		BatchSize:  50,
		ResourceID: "L1",
		Start:      monday,
	}).Return(change, nil)

	body := `{"order_id":"TEE","process_id":"SEW","quantity":100,"batch_size":50,"resource_id":"L1","start":"2025-03-03T08:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/timeline/place", strings.NewReader(body))
	rr := httptest.NewRecorder()

	Place(discardLogger(), scheduler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var view ChangeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Len(t, view.Placed, 1)
	require.Len(t, view.Shifted, 1)
	assert.Equal(t, "old", view.Shifted[0].Item.ID)
	assert.True(t, view.Shifted[0].FromStart.Equal(monday.Add(2*time.Hour)))
	assert.Empty(t, view.Removed)
	assert.True(t, view.HorizonExtended)
	scheduler.AssertExpectations(t)
}

func TestPlace_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		mockErr error
		want    int
	}{
		{name: "invalid json", body: `{`, want: http.StatusBadRequest},
		{name: "missing resource", body: `{"item_id":"a","start":"2025-03-03T08:00:00Z"}`, want: http.StatusBadRequest},
		{name: "missing start", body: `{"item_id":"a","resource_id":"L1"}`, want: http.StatusBadRequest},
		{name: "nothing to place", body: `{"order_id":"TEE","resource_id":"L1","start":"2025-03-03T08:00:00Z"}`, want: http.StatusBadRequest},
		{
			name:    "unknown item",
			body:    `{"item_id":"zzz","resource_id":"L1","start":"2025-03-03T08:00:00Z"}`,
			mockErr: fmt.Errorf("item zzz: %w", timeline.ErrItemNotFound),
			want:    http.StatusNotFound,
		},
		{
			name:    "store failure",
			body:    `{"item_id":"a","resource_id":"L1","start":"2025-03-03T08:00:00Z"}`,
			mockErr: fmt.Errorf("failed to save timeline"),
			want:    http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := new(MockScheduler)
			if tt.mockErr != nil {
				scheduler.On("Place", mock.Anything, mock.Anything).Return(timeline.Change{}, tt.mockErr)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/timeline/place", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			Place(discardLogger(), scheduler).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.mockErr == nil {
				scheduler.AssertNotCalled(t, "Place", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUndo(t *testing.T) {
	scheduler := new(MockScheduler)
	removed := item("a", monday, 4)
	scheduler.On("Undo", mock.Anything, "a").
		Return(timeline.Change{Removed: []entities.ScheduledProcess{removed}, PreviousHorizon: monday, Horizon: monday}, nil)
	scheduler.On("Undo", mock.Anything, "missing").
		Return(timeline.Change{}, fmt.Errorf("item missing: %w", timeline.ErrItemNotFound))

	router := chi.NewRouter()
	router.Delete("/api/timeline/items/{id}", Undo(discardLogger(), scheduler))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/timeline/items/a", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var view ChangeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Len(t, view.Removed, 1)
	assert.Equal(t, "a", view.Removed[0].ID)
	assert.False(t, view.HorizonExtended)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/timeline/items/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	scheduler.AssertExpectations(t)
}
