package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every allocation attempt.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects allocation records during one network run.
type SimulationTrace struct {
	Level       TraceLevel
	Allocations []AllocationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
// Returns nil for TraceLevelNone and the empty level.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	if level == "" || level == TraceLevelNone {
		return nil
	}
	return &SimulationTrace{
		Level:       level,
		Allocations: make([]AllocationRecord, 0),
	}
}

// RecordAllocation appends an allocation record. Safe on a nil trace.
func (st *SimulationTrace) RecordAllocation(record AllocationRecord) {
	if st == nil {
		return
	}
	st.Allocations = append(st.Allocations, record)
}
