package sim

import (
	"fmt"
	"math"
	"math/rand"

	"golang.org/x/exp/slices"
)

// Policy names accepted by NewPolicy.
const (
	PolicyPF          = "PF"
	PolicyInvPF       = "InvPF"
	PolicyRRFIFO      = "RR_FIFO"
	PolicyRRRandom    = "RR_random"
	PolicyHybridInvPF = "Hybrid_InvPF_FIFO"
)

// Historyless rule names accepted by NewHistorylessRule.
const (
	RuleLastWins  = "last-wins"
	RuleFirstWins = "first-wins"
)

const (
	noPendingReason    = "no pending devices"
	noCandidatesReason = "no eligible device"
)

// PolicyNames lists the scheduling policies in their canonical order.
var PolicyNames = []string{PolicyPF, PolicyInvPF, PolicyRRFIFO, PolicyRRRandom, PolicyHybridInvPF}

// ValidPolicies is the set of recognized policy names.
// Shared by Scenario.Validate() and NewPolicy() to avoid duplication.
var ValidPolicies = map[string]bool{
	PolicyPF:          true,
	PolicyInvPF:       true,
	PolicyRRFIFO:      true,
	PolicyRRRandom:    true,
	PolicyHybridInvPF: true,
}

// ValidHistorylessRules is the set of recognized historyless rule names.
// Empty defaults to last-wins.
var ValidHistorylessRules = map[string]bool{"": true, RuleLastWins: true, RuleFirstWins: true}

// IsValidPolicy reports whether name is a recognized policy.
func IsValidPolicy(name string) bool {
	return ValidPolicies[name]
}

// IsValidHistorylessRule reports whether name is a recognized historyless rule.
func IsValidHistorylessRule(name string) bool {
	return ValidHistorylessRules[name]
}

// Decision is the outcome of one policy selection.
type Decision struct {
	DeviceID int
	Selected bool
	Reason   string // Human-readable explanation
}

// Policy selects which pending device a resource block serves next, given
// that block's Log. A non-selected Decision means nothing was eligible; a
// returned error means the policy itself could not be evaluated.
// Implementations MUST NOT modify the registry or the log.
type Policy interface {
	Name() string
	Select(reg *Registry, log *Log) (Decision, error)
}

// HistorylessRule decides whether a pending device with no history on the
// block replaces the current best candidate of a throughput-ranked policy.
type HistorylessRule interface {
	Override(haveBest bool) bool
}

// LastWins lets every history-less device overwrite the best candidate, so the
// last one met in registry order wins.
type LastWins struct{}

func (LastWins) Override(bool) bool { return true }

// FirstWins only takes a history-less device when no candidate is held yet.
type FirstWins struct{}

func (FirstWins) Override(haveBest bool) bool { return !haveBest }

// NewHistorylessRule creates a HistorylessRule by name.
// Empty string defaults to LastWins. Panics on unrecognized names.
func NewHistorylessRule(name string) HistorylessRule {
	switch name {
	case "", RuleLastWins:
		return LastWins{}
	case RuleFirstWins:
		return FirstWins{}
	default:
		panic(fmt.Sprintf("unknown historyless rule %q", name))
	}
}

// rankedScan walks pending devices in registry order. Logged devices replace
// the best when better(score, bound) holds, which also moves the bound;
// history-less devices are subject to rule alone.
func rankedScan(reg *Registry, log *Log, rule HistorylessRule, bound float64,
	score func(id int) float64, better func(s, bound float64) bool) (Decision, float64) {
	var d Decision
	fromHistory := false
	for _, id := range reg.IDs() {
		if log.Has(id) {
			if s := score(id); better(s, bound) {
				bound = s
				d.DeviceID, d.Selected = id, true
				fromHistory = true
			}
			continue
		}
		if rule.Override(d.Selected) {
			d.DeviceID, d.Selected = id, true
			fromHistory = false
		}
	}
	switch {
	case !d.Selected && reg.Len() == 0:
		d.Reason = noPendingReason
	case !d.Selected:
		d.Reason = noCandidatesReason
	case !fromHistory:
		d.Reason = "no history"
	}
	return d, bound
}

// ProportionalFair serves the pending device with the largest peak average
// throughput on the block.
type ProportionalFair struct {
	rule HistorylessRule
}

func (p *ProportionalFair) Name() string { return PolicyPF }

func (p *ProportionalFair) Select(reg *Registry, log *Log) (Decision, error) {
	score := func(id int) float64 {
		tp, _ := log.MaxThroughput(id)
		return tp
	}
	d, highest := rankedScan(reg, log, p.rule, 0, score, func(s, b float64) bool { return s > b })
	if d.Selected && d.Reason == "" {
		d.Reason = fmt.Sprintf("pf (throughput=%.3f)", highest)
	}
	return d, nil
}

// InverseProportionalFair serves the pending device with the smallest minimum
// average throughput on the block.
type InverseProportionalFair struct {
	rule HistorylessRule
}

func (p *InverseProportionalFair) Name() string { return PolicyInvPF }

func (p *InverseProportionalFair) Select(reg *Registry, log *Log) (Decision, error) {
	score := func(id int) float64 {
		tp, _ := log.MinThroughput(id)
		return tp
	}
	d, lowest := rankedScan(reg, log, p.rule, math.Inf(1), score, func(s, b float64) bool { return s < b })
	if d.Selected && d.Reason == "" {
		d.Reason = fmt.Sprintf("inv-pf (throughput=%.3f)", lowest)
	}
	return d, nil
}

// RoundRobinFIFO serves the pending device with the smallest ID.
type RoundRobinFIFO struct{}

func (r *RoundRobinFIFO) Name() string { return PolicyRRFIFO }

func (r *RoundRobinFIFO) Select(reg *Registry, _ *Log) (Decision, error) {
	ids := reg.IDs()
	if len(ids) == 0 {
		return Decision{Reason: noPendingReason}, nil
	}
	slices.Sort(ids)
	return Decision{DeviceID: ids[0], Selected: true, Reason: "rr-fifo (lowest id)"}, nil
}

// RoundRobinRandom serves a pending device chosen uniformly at random.
type RoundRobinRandom struct {
	rng *rand.Rand
}

func (r *RoundRobinRandom) Name() string { return PolicyRRRandom }

func (r *RoundRobinRandom) Select(reg *Registry, _ *Log) (Decision, error) {
	ids := reg.IDs()
	if len(ids) == 0 {
		return Decision{Reason: noPendingReason}, nil
	}
	i := r.rng.Intn(len(ids))
	return Decision{DeviceID: ids[i], Selected: true, Reason: fmt.Sprintf("rr-random[%d/%d]", i, len(ids))}, nil
}

// HybridInvPFFIFO blends inverse channel quality with arrival order.
//
// Over the logged devices sorted by ID (base0):
//
//	inverse_cqi = Normalize(max throughput per device, invert)
//	arrival     = Normalize(len(base0) - id, no invert)
//	priority    = Combine(inverse_cqi, arrival)
//
// The pending device with the highest priority wins. Normalization fails with
// ErrDivideByZero when a throughput peak or the arrival maximum is zero.
type HybridInvPFFIFO struct {
	rule HistorylessRule
}

func (h *HybridInvPFFIFO) Name() string { return PolicyHybridInvPF }

func (h *HybridInvPFFIFO) Select(reg *Registry, log *Log) (Decision, error) {
	base0 := log.Devices()
	cqi := make([]float64, len(base0))
	arrival := make([]float64, len(base0))
	for i, id := range base0 {
		cqi[i], _ = log.MaxThroughput(id)
		arrival[i] = float64(len(base0) - id)
	}
	inverseCQI, err := Normalize(cqi, true)
	if err != nil {
		return Decision{}, fmt.Errorf("hybrid inverse cqi: %w", err)
	}
	order, err := Normalize(arrival, false)
	if err != nil {
		return Decision{}, fmt.Errorf("hybrid arrival order: %w", err)
	}
	metric, err := Combine(inverseCQI, order)
	if err != nil {
		return Decision{}, fmt.Errorf("hybrid priority: %w", err)
	}
	score := func(id int) float64 {
		i, _ := slices.BinarySearch(base0, id)
		return metric[i]
	}
	d, highest := rankedScan(reg, log, h.rule, 0, score, func(s, b float64) bool { return s > b })
	if d.Selected && d.Reason == "" {
		d.Reason = fmt.Sprintf("hybrid (priority=%.3f)", highest)
	}
	return d, nil
}

// NewPolicy creates a Policy by name. rule applies to the throughput-ranked
// policies (nil means LastWins); rng drives RR_random.
// Panics on unrecognized names.
func NewPolicy(name string, rule HistorylessRule, rng *rand.Rand) Policy {
	if !IsValidPolicy(name) {
		panic(fmt.Sprintf("unknown policy %q", name))
	}
	if rule == nil {
		rule = LastWins{}
	}
	switch name {
	case PolicyPF:
		return &ProportionalFair{rule: rule}
	case PolicyInvPF:
		return &InverseProportionalFair{rule: rule}
	case PolicyRRFIFO:
		return &RoundRobinFIFO{}
	case PolicyRRRandom:
		if rng == nil {
			panic("RR_random needs a random source")
		}
		return &RoundRobinRandom{rng: rng}
	case PolicyHybridInvPF:
		return &HybridInvPFFIFO{rule: rule}
	default:
		panic(fmt.Sprintf("unhandled policy %q", name))
	}
}
