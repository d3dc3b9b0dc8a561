package repositories

import "github.com/vsinha/lineplan/pkg/domain/entities"

// ResourceRepository provides access to the machine/line/line-group catalog.
// Resources are never created or destroyed by the planning core, only updated.
type ResourceRepository interface {
	GetResource(id entities.ResourceID) (*entities.Resource, error)
	GetByKind(kind entities.ResourceKind) ([]*entities.Resource, error)
	GetAllResources() ([]*entities.Resource, error)
	LoadResources(resources []*entities.Resource) error
	UpdateResource(resource *entities.Resource) error
}
