package sim

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// BlockState represents the lifecycle state of a resource block.
type BlockState string

const (
	BlockClosed BlockState = "closed"
	BlockOpen   BlockState = "open"
	BlockBusy   BlockState = "busy"
)

// AllocationOutcome classifies what one Allocate call did.
type AllocationOutcome string

const (
	OutcomeClosed      AllocationOutcome = "closed"      // block not open, nothing attempted
	OutcomeIdle        AllocationOutcome = "idle"        // policy selected nobody
	OutcomeCulled      AllocationOutcome = "culled"      // selected device had a zero entry
	OutcomeTransmitted AllocationOutcome = "transmitted" // payload sent and logged
	OutcomeDefect      AllocationOutcome = "defect"      // policy failed to evaluate
)

// Allocation reports one Allocate call on a block.
type Allocation struct {
	Block    int
	Outcome  AllocationOutcome
	DeviceID int // valid unless Outcome is closed, idle or defect
	Bits     int
	Delay    time.Duration
	Reason   string
}

// ResourceBlock is one allocatable slot of the uplink channel.
// Blocks start closed; Allow opens them and each completed allocation cycles
// them busy -> open.
type ResourceBlock struct {
	ID    int
	state BlockState
	log   *Log
}

// NewResourceBlock creates a closed block with an empty log.
func NewResourceBlock(id int) *ResourceBlock {
	return &ResourceBlock{ID: id, state: BlockClosed, log: NewLog()}
}

// Allow opens the block. A busy block is left busy.
func (b *ResourceBlock) Allow() {
	if b.state != BlockBusy {
		b.state = BlockOpen
	}
}

// State returns the block's lifecycle state.
func (b *ResourceBlock) State() BlockState {
	return b.state
}

// Log returns the block's transmission log.
func (b *ResourceBlock) Log() *Log {
	return b.log
}

// Allocate lets policy pick one pending device and serves it. The device's
// whole pending entry is removed from reg; other entries are untouched. A
// selected device with zero bits is culled without a transmission.
// The returned error wraps a policy failure; the block stays open.
func (b *ResourceBlock) Allocate(policy Policy, reg *Registry) (Allocation, error) {
	a := Allocation{Block: b.ID, Outcome: OutcomeClosed}
	if b.state != BlockOpen {
		return a, nil
	}
	d, err := policy.Select(reg, b.log)
	if err != nil {
		a.Outcome = OutcomeDefect
		return a, fmt.Errorf("block %d: %s select: %w", b.ID, policy.Name(), err)
	}
	a.Reason = d.Reason
	if !d.Selected {
		a.Outcome = OutcomeIdle
		return a, nil
	}
	bits, ok := reg.Take(d.DeviceID)
	if !ok {
		// selected a device outside the registry; treat as nothing selected
		a.Outcome = OutcomeIdle
		return a, nil
	}
	a.DeviceID = d.DeviceID
	if bits == 0 {
		a.Outcome = OutcomeCulled
		return a, nil
	}

	b.state = BlockBusy
	tr := NewTransmission(d.DeviceID, bits)
	tr.Send(reg)
	b.log.Update(tr, reg.Transmitted(d.DeviceID))
	b.state = BlockOpen

	a.Outcome = OutcomeTransmitted
	a.Bits = bits
	a.Delay = tr.Delay
	logrus.Debugf("block %d: device %d sent %d bits in %v (%s)", b.ID, d.DeviceID, bits, tr.Delay, d.Reason)
	return a, nil
}

// BlockStats summarizes one block: per device the largest observed size and
// largest observed delay, summed across devices.
type BlockStats struct {
	Block             int     `yaml:"block"`
	TotalPacketSize   int     `yaml:"total_packet_size"`
	TotalPacketDelay  float64 `yaml:"total_packet_delay"`
	AverageThroughput float64 `yaml:"average_throughput"`
	Devices           int     `yaml:"devices"`
}

// Stats computes the block's statistics from its log.
func (b *ResourceBlock) Stats() BlockStats {
	s := BlockStats{Block: b.ID}
	for _, id := range b.log.Devices() {
		size, delay := b.log.history[id].peaks()
		s.TotalPacketSize += size
		s.TotalPacketDelay += delay
		s.Devices++
	}
	s.AverageThroughput = SafeDivide(float64(s.TotalPacketSize), s.TotalPacketDelay)
	return s
}
