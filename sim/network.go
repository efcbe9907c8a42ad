package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/uplink-sim/sim/trace"
)

// DefaultTick is the pause between two allocation attempts (one TTI).
const DefaultTick = time.Millisecond

// ErrAlreadyRun is returned when Run is called on a network that has run.
var ErrAlreadyRun = errors.New("network already run")

// NetworkConfig holds the parameters of one simulated uplink channel.
type NetworkConfig struct {
	Blocks          int           // number of resource blocks, >= 1
	Policy          string        // one of PolicyNames
	HistorylessRule string        // "" or RuleLastWins keeps the last history-less device
	Seed            int64         // seeds the scheduler RNG subsystem
	Tick            time.Duration // zero means DefaultTick
	TraceLevel      trace.TraceLevel
}

// Network owns a fixed set of resource blocks and scans them round-robin,
// one allocation per visit, until its time budget runs out or no pending
// requests remain. A Network represents a single run.
type Network struct {
	ID       string
	config   NetworkConfig
	blocks   []*ResourceBlock
	policy   Policy
	registry *Registry
	cursor   int
	trace    *trace.SimulationTrace

	hasRun  bool
	cycles  int
	defects int
	elapsed time.Duration
	stats   *NetworkStats
}

// NewNetwork builds a network over the shared registry reg.
func NewNetwork(cfg NetworkConfig, reg *Registry) (*Network, error) {
	if cfg.Blocks < 1 {
		return nil, fmt.Errorf("network needs at least one resource block, got %d", cfg.Blocks)
	}
	if !IsValidPolicy(cfg.Policy) {
		return nil, fmt.Errorf("unknown policy %q", cfg.Policy)
	}
	if !IsValidHistorylessRule(cfg.HistorylessRule) {
		return nil, fmt.Errorf("unknown historyless rule %q", cfg.HistorylessRule)
	}
	if !trace.IsValidTraceLevel(string(cfg.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", cfg.TraceLevel)
	}
	if cfg.Tick < 0 {
		return nil, fmt.Errorf("tick must be non-negative, got %v", cfg.Tick)
	}
	if cfg.Tick == 0 {
		cfg.Tick = DefaultTick
	}
	if reg == nil {
		return nil, errors.New("network needs a registry")
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	blocks := make([]*ResourceBlock, cfg.Blocks)
	for i := range blocks {
		blocks[i] = NewResourceBlock(i)
	}
	return &Network{
		ID:       uuid.New().String(),
		config:   cfg,
		blocks:   blocks,
		policy:   NewPolicy(cfg.Policy, NewHistorylessRule(cfg.HistorylessRule), rng.ForSubsystem(SubsystemScheduler)),
		registry: reg,
		cursor:   -1,
		trace:    trace.NewSimulationTrace(cfg.TraceLevel),
	}, nil
}

// Size returns the number of resource blocks.
func (n *Network) Size() int {
	return len(n.blocks)
}

// Blocks returns the network's resource blocks.
func (n *Network) Blocks() []*ResourceBlock {
	return n.blocks
}

// PolicyName returns the name of the network's scheduling policy.
func (n *Network) PolicyName() string {
	return n.policy.Name()
}

// Trace returns the allocation trace, nil when tracing is off.
func (n *Network) Trace() *trace.SimulationTrace {
	return n.trace
}

// OpenBlocks opens the listed blocks, or every block when none are listed.
func (n *Network) OpenBlocks(indices ...int) error {
	if len(indices) == 0 {
		n.openAll()
		return nil
	}
	for _, i := range indices {
		if i < 0 || i >= len(n.blocks) {
			return fmt.Errorf("resource block %d out of range [0, %d)", i, len(n.blocks))
		}
	}
	for _, i := range indices {
		n.blocks[i].Allow()
	}
	return nil
}

func (n *Network) openAll() {
	for _, b := range n.blocks {
		b.Allow()
	}
}

// scan advances the round-robin cursor and returns the block to visit.
func (n *Network) scan() int {
	n.cursor++
	if n.cursor == len(n.blocks) {
		n.cursor = 0
	}
	return n.cursor
}

// Run opens every block and allocates, one block per tick, while elapsed
// wall-clock time is below duration and the registry is non-empty.
// Policy failures are logged and counted; they skip the cycle only.
func (n *Network) Run(duration time.Duration) error {
	if n.hasRun {
		return ErrAlreadyRun
	}
	n.hasRun = true
	n.openAll()

	logrus.Infof("network %s: running %s over %d blocks for %v (%d devices pending)",
		n.ID, n.policy.Name(), len(n.blocks), duration, n.registry.Len())

	started := time.Now()
	for time.Since(started) < duration && n.registry.Len() > 0 {
		b := n.blocks[n.scan()]
		a, err := b.Allocate(n.policy, n.registry)
		if err != nil {
			if n.defects == 0 {
				logrus.Warnf("network %s: allocation failed, cycle skipped: %v", n.ID, err)
			} else {
				logrus.Debugf("network %s: allocation failed, cycle skipped: %v", n.ID, err)
			}
			n.defects++
		}
		n.trace.RecordAllocation(trace.AllocationRecord{
			Cycle:    n.cycles,
			Block:    a.Block,
			Outcome:  string(a.Outcome),
			DeviceID: a.DeviceID,
			Bits:     a.Bits,
			DelayNs:  a.Delay.Nanoseconds(),
			Reason:   a.Reason,
		})
		n.cycles++
		time.Sleep(n.config.Tick)
	}
	n.elapsed = time.Since(started)

	logrus.Infof("network %s: finished after %v, %d cycles, %d defects, %d devices still pending",
		n.ID, n.elapsed, n.cycles, n.defects, n.registry.Len())
	return nil
}

// Stats aggregates per-block statistics into network totals and keeps the
// result on the network.
func (n *Network) Stats() *NetworkStats {
	s := &NetworkStats{
		RunID:          n.ID,
		Policy:         n.policy.Name(),
		Cycles:         n.cycles,
		Defects:        n.defects,
		Elapsed:        n.elapsed,
		PendingDevices: n.registry.Len(),
		PendingBits:    n.registry.TotalPending(),
	}
	for _, b := range n.blocks {
		bs := b.Stats()
		s.Blocks = append(s.Blocks, bs)
		s.TotalPacketSize += bs.TotalPacketSize
		s.TotalPacketDelay += bs.TotalPacketDelay
	}
	s.AverageThroughput = SafeDivide(float64(s.TotalPacketSize), s.TotalPacketDelay)
	n.stats = s
	return s
}

// LastStats returns the statistics computed by the latest Stats call, or nil.
func (n *Network) LastStats() *NetworkStats {
	return n.stats
}
