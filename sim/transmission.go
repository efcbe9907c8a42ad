package sim

import "time"

// Transmission sends one device's queued payload through a resource block.
type Transmission struct {
	SourceID   int
	PacketSize int // remaining units, drained to zero by Send
	Started    time.Time
	Delay      time.Duration
}

// NewTransmission creates a transmission for the given payload.
func NewTransmission(sourceID, packetSize int) *Transmission {
	return &Transmission{SourceID: sourceID, PacketSize: packetSize}
}

// Send transmits the payload one unit at a time. Each step counts a unit for
// the device and writes the remaining payload back to the registry, so the
// device ends with a zero entry rather than none.
func (t *Transmission) Send(reg *Registry) {
	t.Started = time.Now()
	steps := t.PacketSize
	for i := 0; i < steps; i++ {
		t.ping(reg)
	}
	t.Delay = time.Since(t.Started)
}

func (t *Transmission) ping(reg *Registry) {
	if t.PacketSize > 0 {
		t.PacketSize--
		reg.countUnit(t.SourceID)
	}
	reg.Set(t.SourceID, t.PacketSize)
}
