package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/lineplan/pkg/application/services/capacity"
	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// CapacityService matches lines into line groups and stores the outcome
type CapacityService struct {
	resourceRepo repositories.ResourceRepository
	observer     UseCaseObserver
}

// NewCapacityService creates a capacity service
func NewCapacityService(resourceRepo repositories.ResourceRepository, observers ...UseCaseObserver) *CapacityService {
	return &CapacityService{
		resourceRepo: resourceRepo,
		observer:     useCaseObserverOrNoop(observers),
	}
}

// MatchGroup offers the given lines, in order, to the group and moves the
// leftover machines of accepted lines into the buffer. With no line ids
// every line in the catalog is offered, ordered by id. The updated group
// and buffer are written back.
func (s *CapacityService) MatchGroup(ctx context.Context, groupID entities.ResourceID, lineIDs []entities.ResourceID, bufferID entities.ResourceID) (result *capacity.MatchResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"group": string(groupID), "buffer": string(bufferID)}
	defer observe(ctx, s.observer, "match-group", startedAt, fields, &err)

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	group, err := s.resourceRepo.GetResource(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group %s: %w", groupID, err)
	}
	buffer, err := s.resourceRepo.GetResource(bufferID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer %s: %w", bufferID, err)
	}

	var lines []*entities.Resource
	if len(lineIDs) == 0 {
		lines, err = s.resourceRepo.GetByKind(entities.Line)
		if err != nil {
			return nil, fmt.Errorf("failed to list lines: %w", err)
		}
	} else {
		for _, id := range lineIDs {
			line, err := s.resourceRepo.GetResource(id)
			if err != nil {
				return nil, fmt.Errorf("failed to load line %s: %w", id, err)
			}
			lines = append(lines, line)
		}
	}

	result, err = capacity.Match(group, lines, buffer)
	if err != nil {
		return nil, err
	}
	fields["accepted"] = len(result.Allocations)
	fields["satisfied"] = result.Satisfied()

	if err = s.resourceRepo.UpdateResource(result.Group); err != nil {
		return nil, fmt.Errorf("failed to update group %s: %w", groupID, err)
	}
	if err = s.resourceRepo.UpdateResource(result.Buffer); err != nil {
		return nil, fmt.Errorf("failed to update buffer %s: %w", bufferID, err)
	}
	return result, nil
}
