package session

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/uplink-sim/sim"
	"github.com/inference-sim/uplink-sim/sim/trace"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.FatalLevel)
	}
	os.Exit(m.Run())
}

// midpointSource always draws the middle of the range.
type midpointSource struct{}

func (midpointSource) RandU01() float64 { return 0.5 }

func midpointDevices(id, baseBits int) *sim.Device {
	return sim.NewDevice(id, baseBits, midpointSource{})
}

func TestSession_GenerateTraffic_PopulatesRegistry(t *testing.T) {
	// GIVEN a session with deterministic devices
	s := New(Config{NewDevice: midpointDevices})

	// WHEN 3 devices broadcast 2 rounds each
	ack := s.GenerateTraffic(3, 2)

	// THEN each device's demand is two midpoint draws and counters are zero
	assert.Equal(t, Done, ack)
	reg := s.Registry()
	assert.Equal(t, []int{0, 1, 2}, reg.IDs())
	for id, want := range map[int]int{0: 100, 1: 300, 2: 500} {
		bits, ok := reg.Pending(id)
		require.True(t, ok)
		assert.Equal(t, want, bits, "device %d", id)
		assert.Equal(t, 0, reg.Transmitted(id))
	}
}

// pendingByID snapshots a registry as device ID -> pending bits.
func pendingByID(reg *sim.Registry) map[int]int {
	out := make(map[int]int, reg.Len())
	for _, id := range reg.IDs() {
		out[id], _ = reg.Pending(id)
	}
	return out
}

func TestSession_GenerateTraffic_SameSeedSameDemand(t *testing.T) {
	// GIVEN two sessions on stream devices with the same seed, with another
	// seed's traffic generated in between
	first := New(Config{Seed: 42})
	first.GenerateTraffic(5, 2)
	New(Config{Seed: 7}).GenerateTraffic(5, 2)

	// WHEN the second session generates the same traffic
	second := New(Config{Seed: 42})
	second.GenerateTraffic(5, 2)

	// THEN both registries hold identical demand
	assert.Equal(t, first.Registry().IDs(), second.Registry().IDs())
	assert.Equal(t, pendingByID(first.Registry()), pendingByID(second.Registry()))
}

func TestSession_GenerateTraffic_DifferentSeedDifferentDemand(t *testing.T) {
	a := New(Config{Seed: 42})
	a.GenerateTraffic(5, 2)
	b := New(Config{Seed: 43})
	b.GenerateTraffic(5, 2)

	assert.NotEqual(t, pendingByID(a.Registry()), pendingByID(b.Registry()))
}

func TestSession_GenerateTraffic_InvalidInput_StillAcks(t *testing.T) {
	s := New(Config{NewDevice: midpointDevices})
	assert.Equal(t, Done, s.GenerateTraffic(0, 5))
	assert.Equal(t, Done, s.GenerateTraffic(2, -1))
	assert.Equal(t, 0, s.Registry().Len())
}

func TestSession_GenerateTraffic_ZeroRounds_LeavesRegistryEmpty(t *testing.T) {
	s := New(Config{NewDevice: midpointDevices})
	s.GenerateTraffic(4, 0)
	assert.Equal(t, 0, s.Registry().Len())
}

func TestSession_CreateNetwork_StoresActiveNetwork(t *testing.T) {
	s := New(Config{})
	n, err := s.CreateNetwork(4, sim.PolicyInvPF)
	require.NoError(t, err)

	stored, ok := s.Network(ActiveNetworkKey)
	require.True(t, ok)
	assert.Same(t, n, stored)
	assert.Equal(t, 4, n.Size())
	_, ok = s.Network(FinishedNetworkKey)
	assert.False(t, ok)
}

func TestSession_CreateNetwork_UnknownPolicy_Errors(t *testing.T) {
	s := New(Config{})
	_, err := s.CreateNetwork(4, "WFQ")
	assert.Error(t, err)
	_, ok := s.Network(ActiveNetworkKey)
	assert.False(t, ok)
}

func TestSession_RunSimulation_WithoutNetwork_StillAcks(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, Done, s.RunSimulation(time.Second))
	_, ok := s.Network(FinishedNetworkKey)
	assert.False(t, ok)
}

func TestSession_EndToEnd_RoundRobinFIFO(t *testing.T) {
	// GIVEN traffic from 5 devices and an RR_FIFO network of 2 blocks
	s := New(Config{NewDevice: midpointDevices, TraceLevel: string(trace.TraceLevelDecisions)})
	s.GenerateTraffic(5, 1)
	_, err := s.CreateNetwork(2, sim.PolicyRRFIFO)
	require.NoError(t, err)

	// WHEN the simulation runs
	assert.Equal(t, Done, s.RunSimulation(5*time.Second))

	// THEN the finished network drained the registry
	n, ok := s.Network(FinishedNetworkKey)
	require.True(t, ok)
	assert.Equal(t, 0, s.Registry().Len())
	for _, b := range n.Blocks() {
		assert.Equal(t, sim.BlockOpen, b.State())
	}
	stats := n.Stats()
	assert.Equal(t, 50+150+250+350+450, stats.TotalPacketSize)
	assert.Equal(t, 5, trace.Summarize(n.Trace()).UniqueDevices)

	// AND running the same network again is swallowed
	assert.Equal(t, Done, s.RunSimulation(time.Second))
}

func TestSession_EndToEnd_AllPolicies(t *testing.T) {
	for _, policy := range sim.PolicyNames {
		t.Run(policy, func(t *testing.T) {
			s := New(Config{NewDevice: midpointDevices, Tick: 100 * time.Microsecond})
			s.GenerateTraffic(6, 2)
			_, err := s.CreateNetwork(3, policy)
			require.NoError(t, err)

			assert.Equal(t, Done, s.RunSimulation(300*time.Millisecond))

			n, ok := s.Network(FinishedNetworkKey)
			require.True(t, ok)
			stats := n.Stats()
			assert.Equal(t, policy, stats.Policy)
			assert.Positive(t, stats.Cycles)
			assert.Positive(t, stats.TotalPacketSize)
		})
	}
}

func TestConfigFromScenario(t *testing.T) {
	sc := sim.DefaultScenario()
	sc.Seed = 9
	cfg := ConfigFromScenario(sc)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, sc.BaseBits, cfg.BaseBits)
	assert.Equal(t, sc.Tick, cfg.Tick)
}
