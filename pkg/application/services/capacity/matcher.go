// Package capacity fits sewing lines into line groups by machine type.
package capacity

import (
	"fmt"

	"github.com/vsinha/lineplan/pkg/domain/entities"
)

// Allocation is how one accepted line's machines were split
type Allocation struct {
	LineID   entities.ResourceID
	ToGroup  entities.MachineCounts
	ToBuffer entities.MachineCounts
}

// MatchResult holds the updated group and buffer. The inputs are not modified.
type MatchResult struct {
	Group       *entities.Resource
	Buffer      *entities.Resource
	Allocations []Allocation
	Shortfall   entities.MachineCounts
}

// Satisfied reports whether the group requirement is fully covered
func (r *MatchResult) Satisfied() bool {
	return len(r.Shortfall) == 0
}

// Match greedily accepts whole lines into the group in the order given. For
// each line the group takes, per machine type, the lesser of its remaining
// shortfall and the line's count; the rest of the line goes to the buffer.
// Lines that cover none of the shortfall are skipped, and matching stops
// once the requirement is met. There is no backtracking.
func Match(group *entities.Resource, lines []*entities.Resource, buffer *entities.Resource) (*MatchResult, error) {
	if group == nil || group.Kind != entities.LineGroup {
		return nil, fmt.Errorf("match target must be a line group")
	}
	if buffer == nil {
		return nil, fmt.Errorf("buffer resource cannot be nil")
	}

	updated := *group
	updated.Machines = group.Machines.Clone()
	updated.Members = append([]entities.ResourceID(nil), group.Members...)
	pool := *buffer
	pool.Machines = buffer.Machines.Clone()

	result := &MatchResult{Group: &updated, Buffer: &pool}

	for _, line := range lines {
		shortfall := updated.Shortfall()
		if len(shortfall) == 0 {
			break
		}
		if line == nil || line.Kind != entities.Line || updated.HasMember(line.ID) {
			continue
		}

		toGroup := entities.MachineCounts{}
		for machineType, need := range shortfall {
			if n := min(need, line.Machines[machineType]); n > 0 {
				toGroup[machineType] = n
			}
		}
		if len(toGroup) == 0 {
			continue
		}

		toBuffer := entities.MachineCounts{}
		for machineType, n := range line.Machines {
			if rest := n - toGroup[machineType]; rest > 0 {
				toBuffer[machineType] = rest
			}
		}

		for machineType, n := range toGroup {
			updated.Machines.Add(machineType, n)
		}
		for machineType, n := range toBuffer {
			pool.Machines.Add(machineType, n)
		}
		updated.Members = append(updated.Members, line.ID)
		result.Allocations = append(result.Allocations, Allocation{
			LineID:   line.ID,
			ToGroup:  toGroup,
			ToBuffer: toBuffer,
		})
	}

	result.Shortfall = updated.Shortfall()
	return result, nil
}
