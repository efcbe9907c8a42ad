package sim

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/uplink-sim/sim/trace"
)

// Scenario holds the settings of one simulation run, loadable from a YAML file.
type Scenario struct {
	Devices         int           `yaml:"devices"`
	Rounds          int           `yaml:"rounds"`
	Blocks          int           `yaml:"blocks"`
	Policy          string        `yaml:"policy"`
	Duration        time.Duration `yaml:"duration"`
	Tick            time.Duration `yaml:"tick"`
	BaseBits        int           `yaml:"base_bits"`
	Seed            int64         `yaml:"seed"`
	HistorylessRule string        `yaml:"historyless_rule"`
	TraceLevel      string        `yaml:"trace_level"`
}

// DefaultScenario returns the reference M2M uplink settings: 1000 devices
// broadcasting 5 rounds each over 100 resource blocks for 30 minutes.
func DefaultScenario() Scenario {
	return Scenario{
		Devices:         1000,
		Rounds:          5,
		Blocks:          100,
		Policy:          PolicyHybridInvPF,
		Duration:        1800 * time.Second,
		Tick:            DefaultTick,
		BaseBits:        DefaultBaseBits,
		Seed:            42,
		HistorylessRule: RuleLastWins,
		TraceLevel:      string(trace.TraceLevelNone),
	}
}

// LoadScenario reads a YAML scenario file over DefaultScenario.
// Unknown keys are errors, so typos do not silently fall back to defaults.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading scenario: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return sc, fmt.Errorf("parsing scenario: %w", err)
	}
	return sc, nil
}

// Validate checks that all names and parameter ranges in the scenario are valid.
func (s Scenario) Validate() error {
	if s.Devices < 1 {
		return fmt.Errorf("devices must be positive, got %d", s.Devices)
	}
	if s.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative, got %d", s.Rounds)
	}
	if s.Blocks < 1 {
		return fmt.Errorf("blocks must be positive, got %d", s.Blocks)
	}
	if !IsValidPolicy(s.Policy) {
		return fmt.Errorf("unknown policy %q", s.Policy)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", s.Duration)
	}
	if s.Tick < 0 {
		return fmt.Errorf("tick must be non-negative, got %v", s.Tick)
	}
	if s.BaseBits < 1 {
		return fmt.Errorf("base_bits must be positive, got %d", s.BaseBits)
	}
	if !IsValidHistorylessRule(s.HistorylessRule) {
		return fmt.Errorf("unknown historyless rule %q", s.HistorylessRule)
	}
	if !trace.IsValidTraceLevel(s.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", s.TraceLevel)
	}
	return nil
}

// NetworkConfig returns the network part of the scenario.
func (s Scenario) NetworkConfig() NetworkConfig {
	return NetworkConfig{
		Blocks:          s.Blocks,
		Policy:          s.Policy,
		HistorylessRule: s.HistorylessRule,
		Seed:            s.Seed,
		Tick:            s.Tick,
		TraceLevel:      trace.TraceLevel(s.TraceLevel),
	}
}
