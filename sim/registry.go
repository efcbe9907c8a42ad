package sim

import "golang.org/x/exp/slices"

// Registry is the shared pending-requests registry of a simulation: device ID
// to outstanding payload bits, plus the per-device count of units transmitted
// since the last traffic phase.
//
// Iteration order is insertion order. A device whose entry is removed and later
// written again moves to the end, which the history-less override of the
// throughput policies depends on.
//
// Thread-safety: NOT thread-safe. Blocks are scanned from a single goroutine;
// scanning blocks in parallel needs a lock around Take/Set sequences.
type Registry struct {
	pending     map[int]int
	order       []int
	transmitted map[int]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		pending:     make(map[int]int),
		transmitted: make(map[int]int),
	}
}

// Add accumulates bits onto a device's outstanding demand.
func (r *Registry) Add(id, bits int) {
	r.Set(id, r.pending[id]+bits)
}

// Set overwrites a device's outstanding demand. Zero is stored, not removed.
func (r *Registry) Set(id, bits int) {
	if _, ok := r.pending[id]; !ok {
		r.order = append(r.order, id)
	}
	r.pending[id] = bits
}

// Take removes a device's whole pending entry and returns it.
func (r *Registry) Take(id int) (int, bool) {
	bits, ok := r.pending[id]
	if !ok {
		return 0, false
	}
	delete(r.pending, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return bits, true
}

// Pending returns a device's outstanding demand and whether it has an entry.
func (r *Registry) Pending(id int) (int, bool) {
	bits, ok := r.pending[id]
	return bits, ok
}

// Len returns the number of pending entries, including zero-bit ones.
func (r *Registry) Len() int {
	return len(r.pending)
}

// IDs returns the pending device IDs in iteration order.
func (r *Registry) IDs() []int {
	return slices.Clone(r.order)
}

// TotalPending returns the sum of outstanding bits.
func (r *Registry) TotalPending() int {
	total := 0
	for _, bits := range r.pending {
		total += bits
	}
	return total
}

// ResetCounters zeroes the transmitted-unit counter of every pending device.
func (r *Registry) ResetCounters() {
	r.transmitted = make(map[int]int, len(r.pending))
	for _, id := range r.order {
		r.transmitted[id] = 0
	}
}

// Transmitted returns the units a device has sent since the last reset.
func (r *Registry) Transmitted(id int) int {
	return r.transmitted[id]
}

func (r *Registry) countUnit(id int) {
	r.transmitted[id]++
}
