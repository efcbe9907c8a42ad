package sim

import (
	"fmt"

	"github.com/iti/rngstream"
)

// DefaultBaseBits is the width of each device's demand range.
const DefaultBaseBits = 100

// UniformSource draws uniform variates in [0, 1).
// *rngstream.RngStream satisfies it.
type UniformSource interface {
	RandU01() float64
}

// Device is an uplink traffic source. Its demand per round is drawn from
// [ID*BaseBits, (ID+1)*BaseBits), so higher IDs sit in higher bit-rate tiers.
type Device struct {
	ID      int
	MinBits int
	MaxBits int
	// SendBits is the most recent draw.
	SendBits int

	rng UniformSource
}

// NewDevice creates a device drawing from the given source.
func NewDevice(id, baseBits int, rng UniformSource) *Device {
	return &Device{
		ID:      id,
		MinBits: id * baseBits,
		MaxBits: (id + 1) * baseBits,
		rng:     rng,
	}
}

// NewStreamDevice creates a device with its own named rngstream.
func NewStreamDevice(id, baseBits int) *Device {
	return NewDevice(id, baseBits, rngstream.New(fmt.Sprintf("device_%d", id)))
}

// GenerateDemand draws one round of demand and adds it to the device's
// outstanding entry in the registry. Demand accumulates without bound.
func (d *Device) GenerateDemand(reg *Registry) {
	d.SendBits = int(float64(d.MinBits) + d.rng.RandU01()*float64(d.MaxBits-d.MinBits))
	reg.Add(d.ID, d.SendBits)
}
