package casim

import "sort"

// ============================================================================
// VERDICT AGGREGATOR
// ============================================================================

// Aggregate combines all per-policy results into one engine result.
//
// Precedence: any applied blocking policy forces block, unconditionally and
// independent of iteration order. Otherwise the decision is allow when every
// applied policy's grant spec is satisfied (including the zero-applied
// default-allow case), and controlsRequired when at least one is not.
func Aggregate(evals []*PolicyEvaluation) *EngineResult {
	res := &EngineResult{
		FinalDecision:      DecisionAllow,
		AppliedPolicies:    make([]*PolicyEvaluation, 0, len(evals)),
		ReportOnlyPolicies: make([]*PolicyEvaluation, 0),
		SkippedPolicies:    make([]*PolicyEvaluation, 0),
	}

	for _, ev := range evals {
		switch {
		case ev.Skipped || !ev.Applies:
			res.SkippedPolicies = append(res.SkippedPolicies, ev)
		case ev.ReportOnly:
			res.ReportOnlyPolicies = append(res.ReportOnlyPolicies, ev)
		default:
			res.AppliedPolicies = append(res.AppliedPolicies, ev)
		}
	}

	blocked := false
	allSatisfied := true
	required := make(map[string]bool)
	satisfied := make(map[string]bool)
	for _, ev := range res.AppliedPolicies {
		if ev.Grant.Blocked {
			blocked = true
		}
		if !ev.Grant.Satisfied {
			allSatisfied = false
		}
		for _, c := range ev.Grant.RequiredControls {
			required[c] = true
		}
		// A control counts as satisfied only through a policy whose own
		// operator logic it helps satisfy; resolveGrant already applied that.
		for _, c := range ev.Grant.SatisfiedControls {
			satisfied[c] = true
		}
	}

	res.RequiredControls = sortedKeys(required)
	res.SatisfiedControls = sortedKeys(satisfied)

	switch {
	case blocked:
		res.FinalDecision = DecisionBlock
	case allSatisfied:
		res.FinalDecision = DecisionAllow
	default:
		res.FinalDecision = DecisionControlsRequired
	}

	res.Session = mergeSessionControls(res.AppliedPolicies)
	return res
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ----------------------------------------------------------------------------
// Session-control aggregation
// ----------------------------------------------------------------------------

// Per sub-setting the most restrictive configured value wins, under a fixed
// total order so the merge is independent of policy list order:
//
//   sign-in frequency:   shortest interval (normalized to minutes)
//   persistent browser:  never < always (never is narrower)
//   cloud app security:  blockDownloads > mcasConfigured > monitorOnly
//   continuous access:   strictLocation > disabled
//   boolean flags:       any set wins over absence
var casRank = map[CloudAppSecurityType]int{
	CASMonitorOnly:    1,
	CASConfigured:     2,
	CASBlockDownloads: 3,
}

var caeRank = map[CAEMode]int{
	CAEDisabled:       1,
	CAEStrictLocation: 2,
}

func mergeSessionControls(applied []*PolicyEvaluation) *SessionControls {
	merged := &SessionControls{}
	for _, ev := range applied {
		s := ev.Session
		if s == nil {
			continue
		}
		if s.SignInFrequency != nil {
			if merged.SignInFrequency == nil || s.SignInFrequency.Minutes() < merged.SignInFrequency.Minutes() {
				freq := *s.SignInFrequency
				merged.SignInFrequency = &freq
			}
		}
		if s.PersistentBrowser != "" {
			if merged.PersistentBrowser == "" || s.PersistentBrowser == BrowserNever {
				merged.PersistentBrowser = s.PersistentBrowser
			}
		}
		if s.CloudAppSecurity != "" && casRank[s.CloudAppSecurity] > casRank[merged.CloudAppSecurity] {
			merged.CloudAppSecurity = s.CloudAppSecurity
		}
		if s.ContinuousAccessEval != "" && caeRank[s.ContinuousAccessEval] > caeRank[merged.ContinuousAccessEval] {
			merged.ContinuousAccessEval = s.ContinuousAccessEval
		}
		if s.AppEnforcedRestrictions {
			merged.AppEnforcedRestrictions = true
		}
		if s.DisableResilienceDefaults {
			merged.DisableResilienceDefaults = true
		}
		if s.TokenProtection {
			merged.TokenProtection = true
		}
	}
	if !merged.Configured() {
		return nil
	}
	return merged
}

// Simulate is the pure end-to-end evaluation: every policy matched and
// resolved against the context, then aggregated into one result.
func Simulate(policies []*Policy, sc *SimContext) *EngineResult {
	return Aggregate(EvaluateAll(policies, sc))
}
