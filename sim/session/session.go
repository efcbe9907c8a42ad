// Package session exposes the simulator's three entry points (traffic
// generation, network construction, run) over an explicit simulation context
// instead of process-wide state.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/iti/rngstream"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/uplink-sim/sim"
	"github.com/inference-sim/uplink-sim/sim/trace"
)

// Well-known keys under which networks are stored.
const (
	ActiveNetworkKey   = "active_network"
	FinishedNetworkKey = "finished_network"
)

// ErrNoActiveNetwork is logged when a run is requested before a network exists.
var ErrNoActiveNetwork = errors.New("no active network")

// Ack is the nominal completion marker returned by the entry points.
type Ack int

// Done is the only Ack value.
const Done Ack = 0

// Config holds the session-wide settings shared by all entry points.
type Config struct {
	BaseBits        int
	Seed            int64
	Tick            time.Duration
	HistorylessRule string
	TraceLevel      string
	// NewDevice builds traffic sources; nil means one rngstream per device,
	// seeded from Seed.
	NewDevice func(id, baseBits int) *sim.Device
}

// ConfigFromScenario returns the session settings of a scenario.
func ConfigFromScenario(sc sim.Scenario) Config {
	return Config{
		BaseBits:        sc.BaseBits,
		Seed:            sc.Seed,
		Tick:            sc.Tick,
		HistorylessRule: sc.HistorylessRule,
		TraceLevel:      sc.TraceLevel,
	}
}

// Session is the context of one simulation: the pending-requests registry and
// the stored networks. Not safe for concurrent use.
type Session struct {
	config       Config
	streamDemand bool
	registry     *sim.Registry
	networks     map[string]*sim.Network
}

// New creates a Session with an empty registry.
func New(config Config) *Session {
	if config.BaseBits <= 0 {
		config.BaseBits = sim.DefaultBaseBits
	}
	streamDemand := config.NewDevice == nil
	if streamDemand {
		config.NewDevice = sim.NewStreamDevice
	}
	return &Session{
		config:       config,
		streamDemand: streamDemand,
		registry:     sim.NewRegistry(),
		networks:     make(map[string]*sim.Network),
	}
}

// Registry returns the session's pending-requests registry.
func (s *Session) Registry() *sim.Registry {
	return s.registry
}

// Network returns the network stored under key.
func (s *Session) Network(key string) (*sim.Network, bool) {
	n, ok := s.networks[key]
	return n, ok
}

// GenerateTraffic creates devices 0..deviceCount-1, lets each generate demand
// rounds times, then resets the transmission counter of every pending device.
// Sessions with the same Seed generate the same demand.
func (s *Session) GenerateTraffic(deviceCount, rounds int) Ack {
	if deviceCount < 1 || rounds < 0 {
		logrus.Warnf("generate traffic: ignoring devices=%d rounds=%d", deviceCount, rounds)
		return Done
	}
	if s.streamDemand {
		// rngstream seeds each new stream from package state, so reset it first.
		rngstream.SetRngStreamMasterSeed(sim.DemandSeed(s.config.Seed))
	}
	for id := 0; id < deviceCount; id++ {
		d := s.config.NewDevice(id, s.config.BaseBits)
		for r := 0; r < rounds; r++ {
			d.GenerateDemand(s.registry)
		}
	}
	s.registry.ResetCounters()
	logrus.Infof("generated traffic: %d devices pending, %d bits", s.registry.Len(), s.registry.TotalPending())
	return Done
}

// CreateNetwork builds a network over the session registry and stores it as
// the active network.
func (s *Session) CreateNetwork(blocks int, policy string) (*sim.Network, error) {
	n, err := sim.NewNetwork(sim.NetworkConfig{
		Blocks:          blocks,
		Policy:          policy,
		HistorylessRule: s.config.HistorylessRule,
		Seed:            s.config.Seed,
		Tick:            s.config.Tick,
		TraceLevel:      trace.TraceLevel(s.config.TraceLevel),
	}, s.registry)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	s.networks[ActiveNetworkKey] = n
	return n, nil
}

// RunSimulation runs the active network for up to duration and stores it as
// the finished network. Failures are logged, never returned.
func (s *Session) RunSimulation(duration time.Duration) Ack {
	if err := s.runActive(duration); err != nil {
		logrus.Errorf("run simulation: %v", err)
	}
	return Done
}

func (s *Session) runActive(duration time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered: %v", r)
		}
	}()
	n, ok := s.networks[ActiveNetworkKey]
	if !ok || n == nil {
		return ErrNoActiveNetwork
	}
	runErr := n.Run(duration)
	s.networks[FinishedNetworkKey] = n
	return runErr
}
