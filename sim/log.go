package sim

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// History is one device's transmission record on a block.
// Sizes, Delays and Throughputs always have equal length.
type History struct {
	Sizes       []int     // cumulative transmitted units at each event
	Delays      []float64 // seconds
	Throughputs []float64 // running average size over running average delay
}

// Log records, per device, every transmission completed on one resource block.
type Log struct {
	history map[int]*History
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{history: make(map[int]*History)}
}

// Update appends one completed transmission. units is the device's cumulative
// transmitted counter, not the requested size.
func (l *Log) Update(tr *Transmission, units int) {
	delay := tr.Delay.Seconds()
	h, ok := l.history[tr.SourceID]
	if !ok {
		l.history[tr.SourceID] = &History{
			Sizes:       []int{units},
			Delays:      []float64{delay},
			Throughputs: []float64{SafeDivide(float64(units), delay)},
		}
		return
	}
	h.Sizes = append(h.Sizes, units)
	h.Delays = append(h.Delays, delay)
	h.Throughputs = append(h.Throughputs, SafeDivide(Average(h.Sizes), Average(h.Delays)))
}

// Has reports whether the device has any history on this block.
func (l *Log) Has(id int) bool {
	_, ok := l.history[id]
	return ok
}

// Devices returns the logged device IDs in ascending order.
func (l *Log) Devices() []int {
	ids := make([]int, 0, len(l.history))
	for id := range l.history {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// History returns a copy of a device's history.
func (l *Log) History(id int) (History, bool) {
	h, ok := l.history[id]
	if !ok {
		return History{}, false
	}
	return History{
		Sizes:       slices.Clone(h.Sizes),
		Delays:      slices.Clone(h.Delays),
		Throughputs: slices.Clone(h.Throughputs),
	}, true
}

// MaxThroughput returns the largest throughput sample of a logged device.
func (l *Log) MaxThroughput(id int) (float64, bool) {
	h, ok := l.history[id]
	if !ok {
		return 0, false
	}
	return floats.Max(h.Throughputs), true
}

// MinThroughput returns the smallest throughput sample of a logged device.
func (l *Log) MinThroughput(id int) (float64, bool) {
	h, ok := l.history[id]
	if !ok {
		return 0, false
	}
	return floats.Min(h.Throughputs), true
}

// peaks returns a device's largest size and largest delay.
func (h *History) peaks() (int, float64) {
	return slices.Max(h.Sizes), floats.Max(h.Delays)
}
