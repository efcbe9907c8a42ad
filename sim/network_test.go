package sim

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/uplink-sim/sim/trace"
)

func newTestNetwork(t *testing.T, cfg NetworkConfig, reg *Registry) *Network {
	t.Helper()
	n, err := NewNetwork(cfg, reg)
	require.NoError(t, err)
	return n
}

func TestNewNetwork_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  NetworkConfig
	}{
		{"zero blocks", NetworkConfig{Blocks: 0, Policy: PolicyPF}},
		{"unknown policy", NetworkConfig{Blocks: 1, Policy: "EDF"}},
		{"unknown rule", NetworkConfig{Blocks: 1, Policy: PolicyPF, HistorylessRule: "best"}},
		{"unknown trace level", NetworkConfig{Blocks: 1, Policy: PolicyPF, TraceLevel: "all"}},
		{"negative tick", NetworkConfig{Blocks: 1, Policy: PolicyPF, Tick: -time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNetwork(tt.cfg, NewRegistry())
			assert.Error(t, err)
		})
	}
	_, err := NewNetwork(NetworkConfig{Blocks: 1, Policy: PolicyPF}, nil)
	assert.Error(t, err)
}

func TestNewNetwork_BlocksStartClosed(t *testing.T) {
	n := newTestNetwork(t, NetworkConfig{Blocks: 3, Policy: PolicyRRRandom}, NewRegistry())
	assert.Equal(t, 3, n.Size())
	assert.Equal(t, PolicyRRRandom, n.PolicyName())
	assert.NotEmpty(t, n.ID)
	assert.Nil(t, n.Trace())
	for i, b := range n.Blocks() {
		assert.Equal(t, i, b.ID)
		assert.Equal(t, BlockClosed, b.State())
	}
}

func TestNetwork_OpenBlocks(t *testing.T) {
	n := newTestNetwork(t, NetworkConfig{Blocks: 3, Policy: PolicyPF}, NewRegistry())

	require.NoError(t, n.OpenBlocks(2))
	assert.Equal(t, BlockClosed, n.Blocks()[0].State())
	assert.Equal(t, BlockOpen, n.Blocks()[2].State())

	assert.Error(t, n.OpenBlocks(1, 3))
	assert.Equal(t, BlockClosed, n.Blocks()[1].State(), "no block opens when any index is invalid")

	require.NoError(t, n.OpenBlocks())
	for _, b := range n.Blocks() {
		assert.Equal(t, BlockOpen, b.State())
	}
}

func TestNetwork_Scan_WrapsAtBlockCount(t *testing.T) {
	n := newTestNetwork(t, NetworkConfig{Blocks: 3, Policy: PolicyPF}, NewRegistry())
	var got []int
	for i := 0; i < 7; i++ {
		got = append(got, n.scan())
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, got)
}

func TestNetwork_Run_EmptyRegistry_ReturnsImmediately(t *testing.T) {
	n := newTestNetwork(t, NetworkConfig{Blocks: 2, Policy: PolicyRRFIFO}, NewRegistry())

	start := time.Now()
	require.NoError(t, n.Run(10*time.Second))

	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 0, n.Stats().Cycles)
	for _, b := range n.Blocks() {
		assert.Equal(t, BlockOpen, b.State(), "run opens every block")
	}
}

func TestNetwork_Run_SecondCall_ErrAlreadyRun(t *testing.T) {
	n := newTestNetwork(t, NetworkConfig{Blocks: 1, Policy: PolicyRRFIFO}, NewRegistry())
	require.NoError(t, n.Run(time.Millisecond))
	assert.ErrorIs(t, n.Run(time.Millisecond), ErrAlreadyRun)
}

func TestNetwork_Run_StopsAtDuration(t *testing.T) {
	// GIVEN a pending device PF never selects (zero logged throughput)
	reg := registryOf(1)
	n := newTestNetwork(t, NetworkConfig{Blocks: 1, Policy: PolicyPF}, reg)
	n.Blocks()[0].Log().Update(&Transmission{SourceID: 1, Delay: time.Second}, 0)

	// WHEN run for 50ms
	duration := 50 * time.Millisecond
	start := time.Now()
	require.NoError(t, n.Run(duration))
	took := time.Since(start)

	// THEN the loop ends within duration + tick + slack, leaving the demand pending
	assert.GreaterOrEqual(t, took, duration)
	assert.Less(t, took, duration+DefaultTick+100*time.Millisecond)
	assert.Equal(t, 1, reg.Len())
	assert.Positive(t, n.Stats().Cycles)
}

func TestNetwork_Run_DrainsRegistry(t *testing.T) {
	// GIVEN four devices with pending demand and two blocks
	reg := NewRegistry()
	payloads := map[int]int{0: 40, 1: 130, 2: 250, 3: 310}
	for _, id := range []int{0, 1, 2, 3} {
		reg.Add(id, payloads[id])
	}
	reg.ResetCounters()
	n := newTestNetwork(t, NetworkConfig{Blocks: 2, Policy: PolicyRRFIFO, TraceLevel: trace.TraceLevelDecisions}, reg)

	// WHEN run with a generous budget
	require.NoError(t, n.Run(5*time.Second))

	// THEN every device transmitted once and every zero entry was culled
	assert.Equal(t, 0, reg.Len())
	s := n.Stats()
	assert.Equal(t, 40+130+250+310, s.TotalPacketSize)
	assert.Equal(t, 8, s.Cycles)
	assert.Equal(t, 0, s.Defects)
	assert.Len(t, s.Blocks, 2)
	assert.Same(t, s, n.LastStats())

	// AND the trace visited blocks round-robin
	summary := trace.Summarize(n.Trace())
	assert.Equal(t, 8, summary.TotalCycles)
	assert.Equal(t, 4, summary.OutcomeCounts[string(OutcomeTransmitted)])
	assert.Equal(t, 4, summary.OutcomeCounts[string(OutcomeCulled)])
	for i, rec := range n.Trace().Allocations {
		assert.Equal(t, i%2, rec.Block)
	}
}

func TestNetwork_Run_PolicyFailures_SkipCycles(t *testing.T) {
	// GIVEN a hybrid network whose normalization always fails
	reg := registryOf(1)
	n := newTestNetwork(t, NetworkConfig{Blocks: 1, Policy: PolicyHybridInvPF}, reg)
	n.Blocks()[0].Log().Update(&Transmission{SourceID: 1, Delay: time.Second}, 10)

	// WHEN run briefly
	require.NoError(t, n.Run(20*time.Millisecond))

	// THEN the run completes, counting the failures
	s := n.Stats()
	assert.Positive(t, s.Defects)
	assert.Equal(t, s.Cycles, s.Defects)
	assert.Equal(t, 1, reg.Len())
}

func TestNetworkStats_PrintAndSave(t *testing.T) {
	reg := NewRegistry()
	reg.Add(2, 20)
	reg.ResetCounters()
	n := newTestNetwork(t, NetworkConfig{Blocks: 1, Policy: PolicyRRFIFO}, reg)
	require.NoError(t, n.Run(time.Second))
	s := n.Stats()

	var buf bytes.Buffer
	s.Print(&buf)
	assert.Contains(t, buf.String(), "Network Statistics")
	assert.Contains(t, buf.String(), "RR_FIFO")

	path := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, s.SaveResults(path))
	var decoded map[string]any
	data := readFile(t, path)
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, 20, decoded["total_packet_size"])
	assert.Equal(t, "RR_FIFO", decoded["policy"])

	buf.Reset()
	PrintComparison(&buf, []*NetworkStats{s})
	assert.Contains(t, buf.String(), "Policy Comparison")
}
