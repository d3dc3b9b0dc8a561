package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

func line(t *testing.T, id string, machines entities.MachineCounts) *entities.Resource {
	t.Helper()
	r, err := entities.NewResource(entities.ResourceID(id), id, entities.Line, machines)
	require.NoError(t, err)
	return r
}

func fixtures(t *testing.T) (*entities.Resource, *entities.Resource) {
	t.Helper()
	group, err := entities.NewLineGroup("G1", "Tees", entities.MachineCounts{"SNLS": 10, "OL": 4})
	require.NoError(t, err)
	buffer, err := entities.NewResource("BUFFER", "Buffer", entities.Line, nil)
	require.NoError(t, err)
	return group, buffer
}

func TestMatch_SplitsLinesBetweenGroupAndBuffer(t *testing.T) {
	group, buffer := fixtures(t)
	lines := []*entities.Resource{
		line(t, "L1", entities.MachineCounts{"SNLS": 6, "OL": 1, "FL": 2}),
		line(t, "L2", entities.MachineCounts{"SNLS": 6, "OL": 4}),
		line(t, "L3", entities.MachineCounts{"SNLS": 8}),
	}

	result, err := Match(group, lines, buffer)
	require.NoError(t, err)

	assert.True(t, result.Satisfied())
	assert.Equal(t, []entities.ResourceID{"L1", "L2"}, result.Group.Members)
	assert.Equal(t, entities.MachineCounts{"SNLS": 10, "OL": 4}, result.Group.Machines)
	assert.Equal(t, entities.MachineCounts{"FL": 2, "SNLS": 2, "OL": 1}, result.Buffer.Machines)

	require.Len(t, result.Allocations, 2)
	assert.Equal(t, entities.MachineCounts{"SNLS": 4, "OL": 3}, result.Allocations[1].ToGroup)

	assert.Empty(t, group.Members, "input group must not be modified")
	assert.Empty(t, buffer.Machines)
}

func TestMatch_ConservesMachines(t *testing.T) {
	group, buffer := fixtures(t)
	lines := []*entities.Resource{
		line(t, "L1", entities.MachineCounts{"SNLS": 3, "FL": 5}),
		line(t, "L2", entities.MachineCounts{"OL": 9}),
	}

	result, err := Match(group, lines, buffer)
	require.NoError(t, err)

	assert.False(t, result.Satisfied())
	assert.Equal(t, entities.MachineCounts{"SNLS": 7}, result.Shortfall)
	moved := result.Group.Machines.Total() + result.Buffer.Machines.Total()
	assert.Equal(t, lines[0].Machines.Total()+lines[1].Machines.Total(), moved)
}

func TestMatch_SkipsUselessAndMemberLines(t *testing.T) {
	group, buffer := fixtures(t)
	group.Members = []entities.ResourceID{"L2"}
	lines := []*entities.Resource{
		line(t, "L1", entities.MachineCounts{"FL": 4}),
		line(t, "L2", entities.MachineCounts{"SNLS": 10}),
	}

	result, err := Match(group, lines, buffer)
	require.NoError(t, err)
	assert.Empty(t, result.Allocations)
	assert.Empty(t, result.Buffer.Machines)
}

func TestMatch_RejectsNonGroup(t *testing.T) {
	_, buffer := fixtures(t)
	_, err := Match(line(t, "L1", nil), nil, buffer)
	assert.Error(t, err)
}
