// Tracks per-block and network-wide channel statistics of a finished run.

package sim

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// NetworkStats aggregates statistics about one network run for final
// reporting. Totals are sums over blocks of the per-device maxima.
type NetworkStats struct {
	RunID             string        `yaml:"run_id"`
	Policy            string        `yaml:"policy"`
	TotalPacketSize   int           `yaml:"total_packet_size"`
	TotalPacketDelay  float64       `yaml:"total_packet_delay"`
	AverageThroughput float64       `yaml:"average_throughput"`
	Cycles            int           `yaml:"cycles"`
	Defects           int           `yaml:"defects"`
	Elapsed           time.Duration `yaml:"elapsed"`
	PendingDevices    int           `yaml:"pending_devices"`
	PendingBits       int           `yaml:"pending_bits"`
	Blocks            []BlockStats  `yaml:"resource_block_stats"`
}

// Print displays the aggregated statistics.
func (s *NetworkStats) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Network Statistics ===")
	fmt.Fprintf(w, "Run ID               : %s\n", s.RunID)
	fmt.Fprintf(w, "Policy               : %s\n", s.Policy)
	fmt.Fprintf(w, "Resource Blocks      : %d\n", len(s.Blocks))
	fmt.Fprintf(w, "Allocation Cycles    : %d\n", s.Cycles)
	fmt.Fprintf(w, "Elapsed              : %v\n", s.Elapsed)
	fmt.Fprintf(w, "Total Packet Size    : %d bits\n", s.TotalPacketSize)
	fmt.Fprintf(w, "Total Packet Delay   : %.6f s\n", s.TotalPacketDelay)
	fmt.Fprintf(w, "Average Throughput   : %.2f bits/s\n", s.AverageThroughput)
	fmt.Fprintf(w, "Pending Devices      : %d (%d bits)\n", s.PendingDevices, s.PendingBits)
	if s.Defects > 0 {
		fmt.Fprintf(w, "Skipped Cycles       : %d (policy failures)\n", s.Defects)
	}
}

// SaveResults writes the statistics as YAML to path.
func (s *NetworkStats) SaveResults(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	logrus.Debugf("Successfully wrote results to '%s'", path)
	return nil
}

// PrintComparison displays one row per run, in the given order.
func PrintComparison(w io.Writer, runs []*NetworkStats) {
	fmt.Fprintln(w, "=== Policy Comparison ===")
	fmt.Fprintf(w, "%-18s %10s %14s %16s %10s %8s\n", "POLICY", "CYCLES", "SIZE(bits)", "DELAY(s)", "TPUT(b/s)", "PENDING")
	for _, s := range runs {
		fmt.Fprintf(w, "%-18s %10d %14d %16.6f %10.0f %8d\n",
			s.Policy, s.Cycles, s.TotalPacketSize, s.TotalPacketDelay, s.AverageThroughput, s.PendingDevices)
	}
}
