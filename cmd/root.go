package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inference-sim/uplink-sim/sim"
	"github.com/inference-sim/uplink-sim/sim/session"
	"github.com/inference-sim/uplink-sim/sim/trace"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "uplink-sim",
	Short: "Discrete-time resource-block scheduling simulator for a shared wireless uplink",
}

// runCmd executes one simulation using the resolved scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the uplink simulation with one scheduling policy",
	Run: func(cmd *cobra.Command, args []string) {
		v := newConfig(cmd)
		setupLogging(v)
		sc, err := resolveScenario(v)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		n := runScenario(sc)
		stats := n.Stats()
		stats.Print(os.Stdout)
		if n.Trace() != nil {
			printTraceSummary(os.Stdout, trace.Summarize(n.Trace()))
		}
		if path := v.GetString("results"); path != "" {
			if err := stats.SaveResults(path); err != nil {
				logrus.Fatalf("Unable to save results: %v", err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

// compareCmd runs every policy over the same scenario settings
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the scenario once per scheduling policy and compare the results",
	Run: func(cmd *cobra.Command, args []string) {
		v := newConfig(cmd)
		setupLogging(v)
		sc, err := resolveScenario(v)
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		runs := make([]*sim.NetworkStats, 0, len(sim.PolicyNames))
		for _, policy := range sim.PolicyNames {
			sc.Policy = policy
			runs = append(runs, runScenario(sc).Stats())
		}
		sim.PrintComparison(os.Stdout, runs)
		logrus.Info("Comparison complete.")
	},
}

// policiesCmd lists the scheduling policies
var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the available scheduling policies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range sim.PolicyNames {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func setupLogging(v *viper.Viper) {
	level, err := logrus.ParseLevel(v.GetString("log"))
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", v.GetString("log"))
	}
	logrus.SetLevel(level)
}

// runScenario generates traffic, builds the network and runs it in a fresh
// session, returning the finished network.
func runScenario(sc sim.Scenario) *sim.Network {
	logrus.Infof("Starting %s simulation: %d devices x %d rounds, %d blocks, budget %v",
		sc.Policy, sc.Devices, sc.Rounds, sc.Blocks, sc.Duration)

	s := session.New(session.ConfigFromScenario(sc))
	s.GenerateTraffic(sc.Devices, sc.Rounds)
	if _, err := s.CreateNetwork(sc.Blocks, sc.Policy); err != nil {
		logrus.Fatalf("Unable to create network: %v", err)
	}
	s.RunSimulation(sc.Duration)

	n, ok := s.Network(session.FinishedNetworkKey)
	if !ok {
		logrus.Fatalf("Simulation did not finish")
	}
	return n
}

func printTraceSummary(w io.Writer, summary *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Allocation Trace ===")
	fmt.Fprintf(w, "Cycles               : %d\n", summary.TotalCycles)
	var outcomes []string
	for _, o := range []sim.AllocationOutcome{sim.OutcomeTransmitted, sim.OutcomeCulled, sim.OutcomeIdle, sim.OutcomeDefect} {
		outcomes = append(outcomes, fmt.Sprintf("%s=%d", o, summary.OutcomeCounts[string(o)]))
	}
	fmt.Fprintf(w, "Outcomes             : %s\n", strings.Join(outcomes, " "))
	fmt.Fprintf(w, "Devices Served       : %d\n", summary.UniqueDevices)
	fmt.Fprintf(w, "Transmitted Bits     : %d\n", summary.TransmittedBits)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	addScenarioFlags(runCmd)
	addScenarioFlags(compareCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(policiesCmd)
}
