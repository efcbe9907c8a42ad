// Package sim provides the discrete-time uplink scheduling engine.
//
// # Reading Guide
//
// Start with these files to understand one allocation cycle:
//   - registry.go: pending demand per device, in first-insertion order
//   - scheduler.go: the Policy interface and the five scheduling policies
//   - block.go: ResourceBlock state machine and the Allocate step
//   - network.go: the wall-clock loop that walks blocks round-robin
//
// # Architecture
//
// Devices add demand to a shared Registry. Each ResourceBlock owns a Log of
// per-device transmission history, and a Policy reads that Log to choose the
// next device. Transmission.Send drains the chosen device's payload unit by
// unit and the block records the resulting throughput.
//
// Sub-packages:
//   - sim/trace/: allocation trace recording and summaries
//   - sim/session/: the traffic, network and run entry points over one context
//
// # Key Interfaces
//
//   - Policy: select a pending device given a block's Log
//   - HistorylessRule: decide how devices without history compete
//   - UniformSource: the random draws behind device demand
package sim
