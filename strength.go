package casim

// ============================================================================
// AUTHENTICATION STRENGTH
// ============================================================================

// StrengthTier is the ordinal classification of how strong a presented or
// required credential is. Tiers are comparable: a context at tier 3
// satisfies any requirement at tier 3 or below.
type StrengthTier int

const (
	// TierUnclassified marks a custom strength the directory collaborator
	// could not map onto a built-in tier. A requirement at this tier is
	// always reported unsatisfied.
	TierUnclassified StrengthTier = -1

	TierNone                 StrengthTier = 0
	TierMFA                  StrengthTier = 1
	TierPasswordlessMFA      StrengthTier = 2
	TierPhishingResistantMFA StrengthTier = 3
)

// Built-in authentication strength policy IDs and their tiers.
var builtinStrengths = map[string]StrengthTier{
	"mfa":                  TierMFA,
	"passwordlessMfa":      TierPasswordlessMFA,
	"phishingResistantMfa": TierPhishingResistantMFA,
}

// BuiltinStrengthTier resolves a built-in strength name to its tier.
func BuiltinStrengthTier(id string) (StrengthTier, bool) {
	t, ok := builtinStrengths[id]
	return t, ok
}

// Satisfies reports whether a credential at tier t meets a requirement at
// tier req. Unclassified requirements are never satisfied; unclassified
// credentials satisfy nothing.
func (t StrengthTier) Satisfies(req StrengthTier) bool {
	if req == TierUnclassified || t == TierUnclassified {
		return false
	}
	return t >= req
}

func (t StrengthTier) String() string {
	switch t {
	case TierUnclassified:
		return "unclassified"
	case TierNone:
		return "none"
	case TierMFA:
		return "mfa"
	case TierPasswordlessMFA:
		return "passwordlessMfa"
	case TierPhishingResistantMFA:
		return "phishingResistantMfa"
	}
	return "unknown"
}

// StrengthOutcome records how an authentication-strength requirement resolved
// for a single policy evaluation.
type StrengthOutcome struct {
	RequiredTier StrengthTier `json:"required_tier"`
	ContextTier  StrengthTier `json:"context_tier"`
	Satisfied    bool         `json:"satisfied"`
}
