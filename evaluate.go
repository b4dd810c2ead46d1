package casim

// ============================================================================
// POLICY EVALUATOR
// ============================================================================

// Evaluate runs a single policy against a simulated sign-in and returns a
// fresh per-policy verdict. It is a pure function: no shared state, no
// mutation of either input, safe for concurrent callers.
//
// Disabled policies are still matched so consumers can show what would have
// happened, but they are tagged skipped and excluded from aggregation.
func Evaluate(p *Policy, sc *SimContext) *PolicyEvaluation {
	eval := &PolicyEvaluation{
		PolicyID:   p.ID,
		PolicyName: p.DisplayName,
		State:      p.State,
		Skipped:    p.State == StateDisabled,
		ReportOnly: p.State == StateReportOnly,
	}

	eval.Conditions = matchConditions(p, sc)
	eval.Applies = true
	for _, c := range eval.Conditions {
		if !c.Matches {
			eval.Applies = false
			break
		}
	}

	// Report-only policies resolve controls the same way so the consumer can
	// show "would have applied"; the aggregator keeps them out of the verdict.
	eval.Grant = resolveGrant(p.Grant, sc)

	if p.Session.Configured() {
		// Session controls apply independently of the grant outcome; copy so
		// the result does not alias the policy.
		dup := *p.Session
		if p.Session.SignInFrequency != nil {
			freq := *p.Session.SignInFrequency
			dup.SignInFrequency = &freq
		}
		eval.Session = &dup
	}

	return eval
}

// resolveGrant resolves the grant spec against the context-declared satisfied
// controls and strength level.
func resolveGrant(g *GrantControls, sc *SimContext) GrantOutcome {
	if g == nil {
		// No grant spec: nothing required, trivially satisfied.
		return GrantOutcome{Satisfied: true}
	}

	out := GrantOutcome{
		RequiredControls:  g.NonBlockControls(),
		SatisfiedControls: make([]string, 0, len(g.Controls)),
	}
	for _, c := range out.RequiredControls {
		if sc.HasControl(c) {
			out.SatisfiedControls = append(out.SatisfiedControls, c)
		}
	}

	if g.Strength != nil {
		out.Strength = &StrengthOutcome{
			RequiredTier: g.Strength.Tier,
			ContextTier:  sc.StrengthLevel,
			Satisfied:    sc.StrengthLevel.Satisfies(g.Strength.Tier),
		}
	}

	// Block makes the grant permanently unsatisfied irrespective of operator.
	if g.RequiresBlock() {
		out.Blocked = true
		out.Satisfied = false
		return out
	}

	switch g.Operator {
	case OperatorOR:
		out.Satisfied = len(out.SatisfiedControls) > 0 ||
			(out.Strength != nil && out.Strength.Satisfied)
		if len(out.RequiredControls) == 0 && out.Strength == nil {
			out.Satisfied = true
		}
	default: // AND is the default operator
		out.Satisfied = len(out.SatisfiedControls) == len(out.RequiredControls) &&
			(out.Strength == nil || out.Strength.Satisfied)
	}
	return out
}

// EvaluateAll evaluates every policy in order and returns the per-policy
// results, ready for aggregation.
func EvaluateAll(policies []*Policy, sc *SimContext) []*PolicyEvaluation {
	evals := make([]*PolicyEvaluation, 0, len(policies))
	for _, p := range policies {
		evals = append(evals, Evaluate(p, sc))
	}
	return evals
}
