package entities

// Quantity represents an integer quantity of finished garments
type Quantity int64

// OrderID identifies a demand/production order
type OrderID string

// ProcessID identifies one operation in an order's routing
type ProcessID string

// ResourceID identifies a timeline row (machine, sewing line or line group)
type ResourceID string

// MachineType names a class of sewing machine (e.g. "SNLS", "OL", "FL")
type MachineType string

// MachineCounts holds a count per machine type
type MachineCounts map[MachineType]int

// Total returns the number of machines across all types
func (m MachineCounts) Total() int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// Clone returns an independent copy
func (m MachineCounts) Clone() MachineCounts {
	out := make(MachineCounts, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Add adds n machines of the given type
func (m MachineCounts) Add(machineType MachineType, n int) {
	if n == 0 {
		return
	}
	m[machineType] += n
}

// Covers reports whether m holds at least the counts in requirement
func (m MachineCounts) Covers(requirement MachineCounts) bool {
	for machineType, need := range requirement {
		if m[machineType] < need {
			return false
		}
	}
	return true
}
