package casim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oarkflow/casim/logger"
)

// ============================================================================
// ENGINE
// ============================================================================

// PolicyStore manages policy persistence. The engine only reads from it;
// writes are for administration tooling.
type PolicyStore interface {
	CreatePolicy(ctx context.Context, p *Policy) error
	UpdatePolicy(ctx context.Context, p *Policy) error
	DeletePolicy(ctx context.Context, id string) error
	GetPolicy(ctx context.Context, id string) (*Policy, error)
	ListPolicies(ctx context.Context) ([]*Policy, error)
}

// Engine wires the pure evaluation core to its collaborators: the policy
// store, the directory resolver filling unresolved identities, and the
// strength resolver classifying custom authentication strengths. Evaluation
// itself stays a pure function of (policies, context).
type Engine struct {
	policyStore PolicyStore
	directory   *DirectoryResolver
	strengths   StrengthResolver
	logger      logger.Logger
}

// EngineOption customizes engine construction.
type EngineOption func(e *Engine)

// WithLogger installs a Logger on the engine.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithDirectoryResolver installs a directory resolver used to fill group and
// role membership when the caller passes an unresolved user.
func WithDirectoryResolver(r *DirectoryResolver) EngineOption {
	return func(e *Engine) {
		e.directory = r
	}
}

// WithStrengthResolver installs the collaborator classifying custom
// authentication strengths into tiers.
func WithStrengthResolver(r StrengthResolver) EngineOption {
	return func(e *Engine) {
		e.strengths = r
	}
}

func NewEngine(policyStore PolicyStore, opts ...EngineOption) *Engine {
	e := &Engine{
		policyStore: policyStore,
		logger:      logger.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Simulate evaluates the full policy set against one simulated sign-in.
// The context value is copied before resolution; the caller's input is
// never mutated.
func (e *Engine) Simulate(ctx context.Context, sc SimContext) (*EngineResult, error) {
	start := time.Now()
	policies, err := e.loadPolicies(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.resolveIdentity(ctx, &sc.User); err != nil {
		return nil, err
	}

	res := Simulate(policies, &sc)
	e.logger.Info("simulation complete",
		"user", sc.User.ID,
		"decision", string(res.FinalDecision),
		"applied", len(res.AppliedPolicies),
		"report_only", len(res.ReportOnlyPolicies),
		"skipped", len(res.SkippedPolicies),
		"elapsed_ms", int(time.Since(start).Milliseconds()))
	return res, nil
}

// RunSweep executes the gap sweep against the stored policy set.
func (e *Engine) RunSweep(ctx context.Context, cfg SweepConfig) (*GapReport, error) {
	policies, err := e.loadPolicies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cfg.Personas {
		if err := e.resolveIdentity(ctx, &cfg.Personas[i].User); err != nil {
			return nil, err
		}
	}

	report, err := Sweep(ctx, policies, cfg)
	if report != nil {
		total := 0
		for _, g := range report.Gaps {
			total += len(g)
		}
		e.logger.Info("gap sweep complete",
			"combinations", report.Combinations,
			"personas", len(cfg.Personas),
			"gaps", total,
			"exhaustive", report.Exhaustive)
	}
	return report, err
}

// loadPolicies fetches the policy set and classifies any named strength
// requirement that arrived without a tier. Policies needing classification
// are copied; the stored set is never mutated.
func (e *Engine) loadPolicies(ctx context.Context) ([]*Policy, error) {
	policies, err := e.policyStore.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	out := make([]*Policy, 0, len(policies))
	for _, p := range policies {
		out = append(out, e.classifyStrength(ctx, p))
	}
	return out, nil
}

func (e *Engine) classifyStrength(ctx context.Context, p *Policy) *Policy {
	g := p.Grant
	if g == nil || g.Strength == nil || g.Strength.Tier != TierNone || g.Strength.ID == "" {
		return p
	}
	tier, ok := BuiltinStrengthTier(g.Strength.ID)
	if !ok {
		if e.strengths == nil {
			tier = TierUnclassified
		} else {
			t, err := e.strengths.ClassifyStrength(ctx, g.Strength.ID)
			if err != nil {
				// Unclassifiable resolves to always-unsatisfied, not an error.
				e.logger.Debug("strength classification failed", "strength", g.Strength.ID, "error", err.Error())
				t = TierUnclassified
			}
			tier = t
		}
	}

	dup := *p
	grant := *g
	strength := *g.Strength
	strength.Tier = tier
	grant.Strength = &strength
	dup.Grant = &grant
	return &dup
}

func (e *Engine) resolveIdentity(ctx context.Context, u *UserIdentity) error {
	if e.directory == nil || u.ID == "" {
		return nil
	}
	if err := e.directory.ResolveUser(ctx, u); err != nil {
		return fmt.Errorf("resolve user %s: %w", u.ID, err)
	}
	return nil
}

// ============================================================================
// IN-MEMORY POLICY STORE
// ============================================================================

// MemoryPolicyStore keeps policies in insertion order so ListPolicies is
// deterministic across calls.
type MemoryPolicyStore struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	order    []string
}

func NewMemoryPolicyStore() *MemoryPolicyStore {
	return &MemoryPolicyStore{policies: make(map[string]*Policy)}
}

func (s *MemoryPolicyStore) CreatePolicy(ctx context.Context, p *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[p.ID]; exists {
		return fmt.Errorf("policy already exists: %s", p.ID)
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.policies[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemoryPolicyStore) UpdatePolicy(ctx context.Context, p *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[p.ID]; !exists {
		return fmt.Errorf("policy not found: %s", p.ID)
	}
	p.UpdatedAt = time.Now()
	p.Version++
	s.policies[p.ID] = p
	return nil
}

func (s *MemoryPolicyStore) DeletePolicy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryPolicyStore) GetPolicy(ctx context.Context, id string) (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, fmt.Errorf("policy not found: %s", id)
	}
	return p, nil
}

func (s *MemoryPolicyStore) ListPolicies(ctx context.Context) ([]*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Policy, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.policies[id])
	}
	return out, nil
}
