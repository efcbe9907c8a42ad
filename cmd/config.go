package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inference-sim/uplink-sim/sim"
)

// envPrefix namespaces environment overrides, e.g. UPLINKSIM_BLOCKS=50.
const envPrefix = "UPLINKSIM"

// addScenarioFlags registers the scenario flags shared by run and compare.
func addScenarioFlags(c *cobra.Command) {
	def := sim.DefaultScenario()
	f := c.PersistentFlags()
	f.String("scenario", "", "YAML scenario file; explicitly set flags and env vars override it")
	f.Int("devices", def.Devices, "Number of uplink devices")
	f.Int("rounds", def.Rounds, "Demand rounds generated per device")
	f.Int("blocks", def.Blocks, "Number of resource blocks")
	f.String("policy", def.Policy, "Scheduling policy ("+strings.Join(sim.PolicyNames, ", ")+")")
	f.Duration("duration", def.Duration, "Wall-clock budget of the allocation loop")
	f.Duration("tick", def.Tick, "Pause between allocation attempts (TTI)")
	f.Int("base-bits", def.BaseBits, "Width of each device's demand range")
	f.Int64("seed", def.Seed, "Seed for scheduler random draws")
	f.String("historyless-rule", def.HistorylessRule, "How devices without history compete (last-wins, first-wins)")
	f.String("trace-level", def.TraceLevel, "Allocation trace verbosity (none, decisions)")
	f.String("results", "", "Write final statistics as YAML to this path")
	f.String("log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// newConfig binds a command's parsed flags and UPLINKSIM_* env vars.
func newConfig(c *cobra.Command) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(c.Flags())
	return v
}

// resolveScenario layers the scenario file over defaults, then any flag or
// env var that was explicitly set, and validates the result.
func resolveScenario(v *viper.Viper) (sim.Scenario, error) {
	sc := sim.DefaultScenario()
	if path := v.GetString("scenario"); path != "" {
		loaded, err := sim.LoadScenario(path)
		if err != nil {
			return sc, err
		}
		sc = loaded
	}
	if v.IsSet("devices") {
		sc.Devices = v.GetInt("devices")
	}
	if v.IsSet("rounds") {
		sc.Rounds = v.GetInt("rounds")
	}
	if v.IsSet("blocks") {
		sc.Blocks = v.GetInt("blocks")
	}
	if v.IsSet("policy") {
		sc.Policy = v.GetString("policy")
	}
	if v.IsSet("duration") {
		sc.Duration = v.GetDuration("duration")
	}
	if v.IsSet("tick") {
		sc.Tick = v.GetDuration("tick")
	}
	if v.IsSet("base-bits") {
		sc.BaseBits = v.GetInt("base-bits")
	}
	if v.IsSet("seed") {
		sc.Seed = v.GetInt64("seed")
	}
	if v.IsSet("historyless-rule") {
		sc.HistorylessRule = v.GetString("historyless-rule")
	}
	if v.IsSet("trace-level") {
		sc.TraceLevel = v.GetString("trace-level")
	}
	return sc, sc.Validate()
}
