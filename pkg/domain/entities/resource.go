package entities

import "fmt"

// ResourceKind represents the kind of timeline row
type ResourceKind int

const (
	Machine ResourceKind = iota
	Line
	LineGroup
)

// String method for ResourceKind enum
func (k ResourceKind) String() string {
	switch k {
	case Machine:
		return "Machine"
	case Line:
		return "Line"
	case LineGroup:
		return "LineGroup"
	default:
		return "Unknown"
	}
}

// ParseResourceKind parses the String form of a ResourceKind
func ParseResourceKind(s string) (ResourceKind, error) {
	switch s {
	case "Machine", "machine":
		return Machine, nil
	case "Line", "line":
		return Line, nil
	case "LineGroup", "line_group", "group":
		return LineGroup, nil
	default:
		return 0, fmt.Errorf("unknown resource kind: %s", s)
	}
}

// Resource is a named timeline row with a machine-type composition. Line
// groups carry an aggregate requirement and the ids of their member lines.
type Resource struct {
	ID          ResourceID
	Name        string
	Kind        ResourceKind
	Machines    MachineCounts
	Requirement MachineCounts
	Members     []ResourceID
}

// NewResource creates a validated Resource
func NewResource(id ResourceID, name string, kind ResourceKind, machines MachineCounts) (*Resource, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("resource id cannot be empty")
	}
	if name == "" {
		name = string(id)
	}
	for machineType, n := range machines {
		if n < 0 {
			return nil, fmt.Errorf("machine count for %s cannot be negative, got %d", machineType, n)
		}
	}
	if machines == nil {
		machines = MachineCounts{}
	}

	return &Resource{
		ID:          id,
		Name:        name,
		Kind:        kind,
		Machines:    machines,
		Requirement: MachineCounts{},
	}, nil
}

// NewLineGroup creates a line group with the given aggregate requirement
func NewLineGroup(id ResourceID, name string, requirement MachineCounts) (*Resource, error) {
	group, err := NewResource(id, name, LineGroup, MachineCounts{})
	if err != nil {
		return nil, err
	}
	for machineType, n := range requirement {
		if n < 0 {
			return nil, fmt.Errorf("requirement for %s cannot be negative, got %d", machineType, n)
		}
	}
	group.Requirement = requirement.Clone()
	return group, nil
}

// Shortfall returns, per machine type, how many machines the group still needs
func (r *Resource) Shortfall() MachineCounts {
	short := MachineCounts{}
	for machineType, need := range r.Requirement {
		if missing := need - r.Machines[machineType]; missing > 0 {
			short[machineType] = missing
		}
	}
	return short
}

// HasMember reports whether the line id belongs to the group
func (r *Resource) HasMember(id ResourceID) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}
