package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

func TestSplitBatches(t *testing.T) {
	item := newItem(t, 10*time.Hour)
	item.WorkMinutes = 600

	batches, err := SplitBatches(item, 40)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	var total entities.Quantity
	for i, b := range batches {
		assert.Equal(t, item.ID, b.ParentID)
		assert.Equal(t, i+1, b.BatchNumber)
		assert.NotEqual(t, item.ID, b.ID)
		total += b.Quantity
	}
	assert.Equal(t, item.Quantity, total)
	assert.Equal(t, entities.Quantity(20), batches[2].Quantity)
	assert.Equal(t, 4*time.Hour, batches[0].Duration)
	assert.InDelta(t, 120, batches[2].WorkMinutes, 1e-9)

	_, err = SplitBatches(item, 0)
	assert.Error(t, err)
}

func TestAutoPlace_BackToBackAndGroupUndo(t *testing.T) {
	s := NewSession(Config{})
	other := newItem(t, 2*time.Hour)
	s.Place(other, "L1", monday)

	batches, err := SplitBatches(newItem(t, 10*time.Hour), 40)
	require.NoError(t, err)

	change := s.AutoPlace(batches, "L1", monday)
	require.Len(t, change.Placed, 3)
	assert.Equal(t, monday, change.Placed[0].Start)
	assert.Equal(t, change.Placed[0].End, change.Placed[1].Start)
	assert.Equal(t, change.Placed[1].End, change.Placed[2].Start)
	for _, p := range change.Placed {
		assert.True(t, p.AutoScheduled)
	}

	pushed, _ := s.Get(other.ID)
	assert.Equal(t, monday.Add(10*time.Hour), pushed.Start)
	assertNoOverlap(t, s, "L1")

	removed, err := s.Undo(batches[1].ID)
	require.NoError(t, err)
	assert.Len(t, removed.Removed, 3)
	assert.Len(t, s.All(), 1)
}
