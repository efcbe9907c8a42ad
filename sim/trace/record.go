// Package trace provides allocation-decision recording for policy analysis.
// This package has no dependencies on sim/ and stores pure data types.
package trace

// AllocationRecord captures a single resource-block allocation attempt.
type AllocationRecord struct {
	Cycle    int    // scan step of the allocation loop, starting at 0
	Block    int    // resource block index
	Outcome  string // closed, idle, culled, transmitted or defect
	DeviceID int    // meaningful for culled and transmitted
	Bits     int
	DelayNs  int64
	Reason   string
}
