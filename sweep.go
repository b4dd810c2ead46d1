package casim

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"
)

// ============================================================================
// GAP SWEEP
// ============================================================================

// The sweep enumerates a bounded Cartesian product of scenario dimensions per
// persona and reports every combination with zero enabled-policy coverage.
// Each (persona, combination) evaluation is independent; combinations are
// decoded lazily from a mixed-radix index so the product is never
// materialized, and results are merged by index so the outcome is identical
// regardless of worker count or completion order.

// DefaultSweepCap bounds the combination count of a single sweep.
const DefaultSweepCap = 5760

// GenericPersona keys the persona-less sweep mode in the report.
const GenericPersona = "generic"

// ErrSweepScopeTooLarge is returned when the dimension product exceeds the
// configured cap. The sweep never runs unbounded.
var ErrSweepScopeTooLarge = errors.New("casim: sweep scope too large")

// SweepDeviceState is one device posture point of the sweep space.
type SweepDeviceState struct {
	Compliant bool     `json:"compliant" yaml:"compliant"`
	JoinType  JoinType `json:"join_type" yaml:"join_type"`
}

// SweepDimensions spans the scenario space. Empty dimensions collapse to a
// single zero value so they do not multiply the product.
type SweepDimensions struct {
	Platforms     []string           `json:"platforms" yaml:"platforms"`
	ClientApps    []ClientAppType    `json:"client_apps" yaml:"client_apps"`
	LocationTrust []bool             `json:"location_trust" yaml:"location_trust"`
	SignInRisks   []RiskLevel        `json:"sign_in_risks" yaml:"sign_in_risks"`
	UserRisks     []RiskLevel        `json:"user_risks" yaml:"user_risks"`
	DeviceStates  []SweepDeviceState `json:"device_states" yaml:"device_states"`
}

// DefaultSweepDimensions is the reference scenario space.
func DefaultSweepDimensions() SweepDimensions {
	return SweepDimensions{
		Platforms:     []string{"windows", "macOS", "iOS", "android", "linux"},
		ClientApps:    []ClientAppType{ClientBrowser, ClientMobileDesktop, ClientExchangeActiveSync, ClientOther},
		LocationTrust: []bool{true, false},
		SignInRisks:   []RiskLevel{RiskNone, RiskLow, RiskMedium, RiskHigh},
		UserRisks:     []RiskLevel{RiskNone, RiskLow, RiskMedium, RiskHigh},
		DeviceStates: []SweepDeviceState{
			{Compliant: true, JoinType: JoinAzureAD},
			{Compliant: false, JoinType: JoinRegistered},
			{Compliant: false, JoinType: JoinNone},
		},
	}
}

func (d SweepDimensions) radices() [6]int {
	return [6]int{
		max1(len(d.Platforms)),
		max1(len(d.ClientApps)),
		max1(len(d.LocationTrust)),
		max1(len(d.SignInRisks)),
		max1(len(d.UserRisks)),
		max1(len(d.DeviceStates)),
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Count is the size of the Cartesian product.
func (d SweepDimensions) Count() int {
	n := 1
	for _, r := range d.radices() {
		n *= r
	}
	return n
}

// Combination is one decoded point of the sweep space, carrying enough
// detail for a consumer to render the uncovered scenario.
type Combination struct {
	Index      int              `json:"index"`
	Platform   string           `json:"platform,omitempty"`
	ClientApp  ClientAppType    `json:"client_app,omitempty"`
	Trusted    bool             `json:"trusted_location"`
	SignInRisk RiskLevel        `json:"sign_in_risk,omitempty"`
	UserRisk   RiskLevel        `json:"user_risk,omitempty"`
	Device     SweepDeviceState `json:"device"`
}

// At decodes the i-th combination of the product, mixed-radix over the
// dimension sizes. Decoding is stateless so parallel workers can map any
// index independently.
func (d SweepDimensions) At(i int) Combination {
	c := Combination{Index: i}
	pick := func(size int) int {
		if size <= 1 {
			return 0
		}
		idx := i % size
		i /= size
		return idx
	}
	if len(d.Platforms) > 0 {
		c.Platform = d.Platforms[pick(len(d.Platforms))]
	}
	if len(d.ClientApps) > 0 {
		c.ClientApp = d.ClientApps[pick(len(d.ClientApps))]
	}
	if len(d.LocationTrust) > 0 {
		c.Trusted = d.LocationTrust[pick(len(d.LocationTrust))]
	}
	if len(d.SignInRisks) > 0 {
		c.SignInRisk = d.SignInRisks[pick(len(d.SignInRisks))]
	}
	if len(d.UserRisks) > 0 {
		c.UserRisk = d.UserRisks[pick(len(d.UserRisks))]
	}
	if len(d.DeviceStates) > 0 {
		c.Device = d.DeviceStates[pick(len(d.DeviceStates))]
	}
	return c
}

// contextFor builds the scenario context for a persona at this combination.
// The generic mode passes a nil persona.
func (c Combination) contextFor(p *Persona) *SimContext {
	sc := &SimContext{
		TrustedLocation: c.Trusted,
		SignInRisk:      c.SignInRisk,
		UserRisk:        c.UserRisk,
		ClientApp:       c.ClientApp,
		Device: DeviceState{
			Platform:  c.Platform,
			Compliant: c.Device.Compliant,
			JoinType:  c.Device.JoinType,
		},
	}
	if p != nil {
		sc.User = p.User
		sc.AppID = p.AppID
	}
	return sc
}

// SweepConfig parameterizes a gap sweep.
type SweepConfig struct {
	Personas        []Persona       `json:"personas,omitempty" yaml:"personas,omitempty"`
	Dimensions      SweepDimensions `json:"dimensions" yaml:"dimensions"`
	MaxCombinations int             `json:"max_combinations,omitempty" yaml:"max_combinations,omitempty"`
	Workers         int             `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// GapReport lists uncovered combinations per persona. Combinations is the
// product size that was enumerated; Cap the bound it was checked against.
type GapReport struct {
	Gaps         map[string][]Combination `json:"gaps"`
	Combinations int                      `json:"combinations"`
	Cap          int                      `json:"cap"`
	Exhaustive   bool                     `json:"exhaustive"`
}

// Sweep runs the gap analysis over the Cartesian product of cfg.Dimensions
// for every persona (or the generic mode when none are given), using the
// evaluator and aggregator as a pure subroutine per point.
//
// A combination is a gap when no enabled policy applied to it at all:
// uncontrolled default-allow. A block or controlsRequired verdict is
// coverage, not a gap.
//
// Cancellation is cooperative: workers stop between evaluations and the
// partial report accumulated so far is returned together with ctx.Err().
// Partial reports are consistent; merging is keyed by combination index, so
// the same input always yields the same gap order regardless of parallelism.
func Sweep(ctx context.Context, policies []*Policy, cfg SweepConfig) (*GapReport, error) {
	bound := cfg.MaxCombinations
	if bound <= 0 {
		bound = DefaultSweepCap
	}
	total := cfg.Dimensions.Count()
	report := &GapReport{
		Gaps:         make(map[string][]Combination),
		Combinations: total,
		Cap:          bound,
	}
	if total > bound {
		return report, ErrSweepScopeTooLarge
	}

	personas := make([]*Persona, 0, max1(len(cfg.Personas)))
	if len(cfg.Personas) == 0 {
		personas = append(personas, nil)
	} else {
		for i := range cfg.Personas {
			personas = append(personas, &cfg.Personas[i])
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	for _, persona := range personas {
		key := GenericPersona
		if persona != nil {
			key = persona.Name
		}
		gaps, err := sweepPersona(ctx, policies, cfg.Dimensions, persona, total, workers)
		if len(gaps) > 0 {
			report.Gaps[key] = gaps
		}
		if err != nil {
			return report, err
		}
	}
	report.Exhaustive = true
	return report, nil
}

func sweepPersona(ctx context.Context, policies []*Policy, dims SweepDimensions, persona *Persona, total, workers int) ([]Combination, error) {
	indices := make(chan int)
	var mu sync.Mutex
	gaps := make([]Combination, 0)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				combo := dims.At(i)
				res := Simulate(policies, combo.contextFor(persona))
				if len(res.AppliedPolicies) == 0 {
					mu.Lock()
					gaps = append(gaps, combo)
					mu.Unlock()
				}
			}
		}()
	}

	var err error
feed:
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	// Merge by combination index, not arrival order.
	sort.Slice(gaps, func(a, b int) bool { return gaps[a].Index < gaps[b].Index })
	return gaps, err
}
