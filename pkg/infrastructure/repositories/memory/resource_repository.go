package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/lineplan/pkg/domain/entities"
	"github.com/vsinha/lineplan/pkg/domain/repositories"
)

// ResourceRepository provides in-memory storage for the resource catalog
type ResourceRepository struct {
	mu        sync.RWMutex
	resources map[entities.ResourceID]entities.Resource
}

// NewResourceRepository creates a new in-memory resource repository
func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{
		resources: make(map[entities.ResourceID]entities.Resource),
	}
}

// Verify interface compliance
var _ repositories.ResourceRepository = (*ResourceRepository)(nil)

// LoadResources loads resources into the repository
func (r *ResourceRepository) LoadResources(resources []*entities.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, res := range resources {
		if res == nil {
			return fmt.Errorf("cannot load nil resource")
		}
		r.resources[res.ID] = cloneResource(*res)
	}
	return nil
}

// GetResource returns a copy of the resource
func (r *ResourceRepository) GetResource(id entities.ResourceID) (*entities.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, repositories.ErrNotFound)
	}
	out := cloneResource(res)
	return &out, nil
}

// GetByKind returns copies of every resource of the kind, sorted by id
func (r *ResourceRepository) GetByKind(kind entities.ResourceKind) ([]*entities.Resource, error) {
	return r.filter(func(res entities.Resource) bool { return res.Kind == kind }), nil
}

// GetAllResources returns copies of every resource, sorted by id
func (r *ResourceRepository) GetAllResources() ([]*entities.Resource, error) {
	return r.filter(func(entities.Resource) bool { return true }), nil
}

// UpdateResource replaces a stored resource. Unknown ids are rejected since
// the catalog is never extended by planning.
func (r *ResourceRepository) UpdateResource(res *entities.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.resources[res.ID]; !ok {
		return fmt.Errorf("resource %s: %w", res.ID, repositories.ErrNotFound)
	}
	r.resources[res.ID] = cloneResource(*res)
	return nil
}

func (r *ResourceRepository) filter(keep func(entities.Resource) bool) []*entities.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Resource
	for _, res := range r.resources {
		if keep(res) {
			c := cloneResource(res)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneResource(res entities.Resource) entities.Resource {
	res.Machines = res.Machines.Clone()
	res.Requirement = res.Requirement.Clone()
	res.Members = append([]entities.ResourceID(nil), res.Members...)
	return res
}
