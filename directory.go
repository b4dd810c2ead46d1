package casim

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// ============================================================================
// DIRECTORY RESOLUTION
// ============================================================================

// Membership resolution and strength classification are external
// collaborators in the evaluation model: the engine consumes resolved sets
// and pre-classified tiers, never raw directory payloads. The resolvers here
// make those collaborators concrete for callers that hold only a user ID.

// MembershipStore looks up directory group and role membership for a user.
type MembershipStore interface {
	ListGroups(ctx context.Context, userID string) ([]string, error)
	ListRoles(ctx context.Context, userID string) ([]string, error)
}

// StrengthResolver classifies a custom authentication strength policy by ID
// into one of the ordinal tiers. Implementations return TierUnclassified for
// strengths whose allowed-combination list cannot be mapped onto a tier.
type StrengthResolver interface {
	ClassifyStrength(ctx context.Context, id string) (StrengthTier, error)
}

// DirectoryResolver fills unresolved user identities from a membership store
// through a ristretto cache, so repeated simulations and sweep personas do
// not hammer the backing store.
type DirectoryResolver struct {
	store MembershipStore
	cache *ristretto.Cache
	ttl   time.Duration
}

// DirectoryResolverConfig tunes the resolver cache.
type DirectoryResolverConfig struct {
	NumCounters int64         `json:"num_counters" yaml:"num_counters"`
	MaxCost     int64         `json:"max_cost" yaml:"max_cost"`
	BufferItems int64         `json:"buffer_items" yaml:"buffer_items"`
	TTL         time.Duration `json:"ttl" yaml:"ttl"`
}

func NewDirectoryResolver(store MembershipStore, cfg DirectoryResolverConfig) (*DirectoryResolver, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 10_000
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1 << 20
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &DirectoryResolver{store: store, cache: cache, ttl: cfg.TTL}, nil
}

// ResolveUser fills Groups and Roles when the caller left them empty. Already
// resolved sets are kept as-is so explicit scenario overrides win.
func (r *DirectoryResolver) ResolveUser(ctx context.Context, u *UserIdentity) error {
	if len(u.Groups) == 0 {
		groups, err := r.lookup(ctx, "grp:"+u.ID, u.ID, r.store.ListGroups)
		if err != nil {
			return err
		}
		u.Groups = groups
	}
	if len(u.Roles) == 0 {
		roles, err := r.lookup(ctx, "rol:"+u.ID, u.ID, r.store.ListRoles)
		if err != nil {
			return err
		}
		u.Roles = roles
	}
	return nil
}

func (r *DirectoryResolver) lookup(ctx context.Context, key, userID string, fetch func(context.Context, string) ([]string, error)) ([]string, error) {
	if v, ok := r.cache.Get(key); ok {
		if cached, ok := v.([]string); ok {
			return cached, nil
		}
	}
	vals, err := fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.SetWithTTL(key, vals, int64(1+len(vals)), r.ttl)
	return vals, nil
}

// Invalidate drops all cached memberships, e.g. after directory changes.
func (r *DirectoryResolver) Invalidate() {
	r.cache.Clear()
}

// ============================================================================
// STRENGTH CLASSIFICATION
// ============================================================================

// MemoryStrengthResolver is a static strength classification table, the shape
// the directory collaborator hands over after inspecting each custom
// strength's allowed combinations.
type MemoryStrengthResolver struct {
	mu    sync.RWMutex
	tiers map[string]StrengthTier
}

func NewMemoryStrengthResolver() *MemoryStrengthResolver {
	return &MemoryStrengthResolver{tiers: make(map[string]StrengthTier)}
}

// Register records the classification of a custom strength.
func (m *MemoryStrengthResolver) Register(id string, tier StrengthTier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[id] = tier
}

func (m *MemoryStrengthResolver) ClassifyStrength(ctx context.Context, id string) (StrengthTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tiers[id]; ok {
		return t, nil
	}
	return TierUnclassified, nil
}

// CachingStrengthResolver memoizes classifications from a slower resolver
// behind a ristretto cache.
type CachingStrengthResolver struct {
	next  StrengthResolver
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewCachingStrengthResolver(next StrengthResolver, ttl time.Duration) (*CachingStrengthResolver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachingStrengthResolver{next: next, cache: cache, ttl: ttl}, nil
}

func (c *CachingStrengthResolver) ClassifyStrength(ctx context.Context, id string) (StrengthTier, error) {
	if v, ok := c.cache.Get("str:" + id); ok {
		if tier, ok := v.(StrengthTier); ok {
			return tier, nil
		}
	}
	tier, err := c.next.ClassifyStrength(ctx, id)
	if err != nil {
		return tier, err
	}
	c.cache.SetWithTTL("str:"+id, tier, 1, c.ttl)
	return tier, nil
}
