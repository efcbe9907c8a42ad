package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalCycles        int
	OutcomeCounts      map[string]int // outcome -> count
	TransmittedBits    int
	UniqueDevices      int
	DeviceDistribution map[int]int // device ID -> transmissions
	BlockDistribution  map[int]int // block index -> transmissions
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeCounts:      make(map[string]int),
		DeviceDistribution: make(map[int]int),
		BlockDistribution:  make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalCycles = len(st.Allocations)
	for _, a := range st.Allocations {
		summary.OutcomeCounts[a.Outcome]++
		if a.Outcome != "transmitted" {
			continue
		}
		summary.TransmittedBits += a.Bits
		summary.DeviceDistribution[a.DeviceID]++
		summary.BlockDistribution[a.Block]++
	}
	summary.UniqueDevices = len(summary.DeviceDistribution)

	return summary
}
