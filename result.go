package casim

// ============================================================================
// EVALUATION RESULTS
// ============================================================================

// MatchPhase tells which phase of slot matching produced a condition result.
// The enum values are part of the stable contract with consumers.
type MatchPhase string

const (
	// PhaseInclusion: the value was tested against the include set.
	PhaseInclusion MatchPhase = "inclusion"
	// PhaseExclusion: the value was explicitly excluded; overrides inclusion.
	PhaseExclusion MatchPhase = "exclusion"
	// PhaseNotConfigured: the slot is absent; vacuous pass.
	PhaseNotConfigured MatchPhase = "notConfigured"
	// PhaseUnconfigured: the slot is present but carries no usable entries
	// (or fields the matcher does not recognize); vacuous pass.
	PhaseUnconfigured MatchPhase = "unconfigured"
)

// ConditionResult is the outcome of matching one condition dimension.
// Reason is a human-readable explanation and never drives control flow.
type ConditionResult struct {
	ConditionType ConditionType `json:"condition_type"`
	Phase         MatchPhase    `json:"phase"`
	Matches       bool          `json:"matches"`
	Reason        string        `json:"reason"`
}

// GrantOutcome is the resolved grant-control side of one policy evaluation.
type GrantOutcome struct {
	Satisfied         bool             `json:"satisfied"`
	Blocked           bool             `json:"blocked"`
	RequiredControls  []string         `json:"required_controls,omitempty"`
	SatisfiedControls []string         `json:"satisfied_controls,omitempty"`
	Strength          *StrengthOutcome `json:"strength,omitempty"`
}

// PolicyEvaluation is the per-policy verdict. A fresh value is produced on
// every evaluation call; results are never cached or mutated afterwards.
type PolicyEvaluation struct {
	PolicyID   string            `json:"policy_id"`
	PolicyName string            `json:"policy_name"`
	State      PolicyState       `json:"state"`
	Conditions []ConditionResult `json:"conditions"`
	Applies    bool              `json:"applies"`
	Skipped    bool              `json:"skipped"`
	ReportOnly bool              `json:"report_only"`
	Grant      GrantOutcome      `json:"grant"`
	Session    *SessionControls  `json:"session,omitempty"`
}

// FinalDecision is the aggregated verdict across the policy set.
type FinalDecision string

const (
	DecisionAllow            FinalDecision = "allow"
	DecisionBlock            FinalDecision = "block"
	DecisionControlsRequired FinalDecision = "controlsRequired"
)

// EngineResult is the full output of one simulation: the net decision, the
// per-policy detail partitioned by disposition, and the aggregated control
// and session state.
type EngineResult struct {
	FinalDecision      FinalDecision       `json:"final_decision"`
	AppliedPolicies    []*PolicyEvaluation `json:"applied_policies"`
	ReportOnlyPolicies []*PolicyEvaluation `json:"report_only_policies"`
	SkippedPolicies    []*PolicyEvaluation `json:"skipped_policies"`
	RequiredControls   []string            `json:"required_controls"`
	SatisfiedControls  []string            `json:"satisfied_controls"`
	Session            *SessionControls    `json:"session,omitempty"`
}
