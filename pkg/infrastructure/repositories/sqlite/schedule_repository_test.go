package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

func TestScheduleRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository(newTestDB(t))

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.Horizon.IsZero())

	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	latest := start.Add(-24 * time.Hour)
	items := []entities.ScheduledProcess{
		{
			ID: "a", ResourceID: "L1", OrderID: "PO-1", ProcessID: "SEW", Quantity: 40,
			Start: start, End: start.Add(4 * time.Hour), Duration: 4 * time.Hour, WorkMinutes: 240,
			BatchNumber: 1, ParentID: "p", AutoScheduled: true, LatestStart: &latest,
		},
		{
			ID: "b", ResourceID: "L1", OrderID: "PO-2", ProcessID: "SEW", Quantity: 10,
			Start: start.Add(4 * time.Hour), End: start.Add(5 * time.Hour), Duration: time.Hour,
		},
	}
	horizon := start.Add(96 * time.Hour)

	require.NoError(t, repo.Save(ctx, &repositories.ScheduleSnapshot{Items: items, Horizon: horizon}))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, items[0], loaded.Items[0])
	assert.Equal(t, items[1], loaded.Items[1])
	assert.True(t, horizon.Equal(loaded.Horizon))

	// a second save replaces the snapshot
	require.NoError(t, repo.Save(ctx, &repositories.ScheduleSnapshot{Items: items[1:], Horizon: horizon}))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "b", loaded.Items[0].ID)
}

func TestMigrate_Idempotent(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, Migrate(database))
}
