package casim

import (
	"fmt"
	"strings"

	"github.com/oarkflow/casim/utils"
)

// ============================================================================
// CONDITION MATCHERS
// ============================================================================

// Every matcher follows the same three-phase contract: exclusion membership
// first (always overrides inclusion), then the vacuous not-configured pass,
// then inclusion membership ("All" or explicit entry). Matchers are pure;
// they see only the slot and the relevant context values.

func slotContains(entries []string, value string) bool {
	for _, e := range entries {
		if e == value {
			return true
		}
	}
	return false
}

// matchSlot runs the generic algorithm for a slot against one or more context
// values. Set-valued contexts (group membership) pass all their values; any
// intersection counts.
func matchSlot(ct ConditionType, slot *ConditionSlot, values ...string) ConditionResult {
	return matchSlotFunc(ct, slot, values, slotContains)
}

// matchSlotFunc is matchSlot with a pluggable membership test, used by
// dimensions whose entries are patterns rather than literal IDs.
func matchSlotFunc(ct ConditionType, slot *ConditionSlot, values []string, member func(entries []string, value string) bool) ConditionResult {
	if slot == nil {
		return ConditionResult{ConditionType: ct, Phase: PhaseNotConfigured, Matches: true, Reason: "not configured"}
	}
	for _, v := range values {
		if member(slot.Exclude, v) {
			return ConditionResult{ConditionType: ct, Phase: PhaseExclusion, Matches: false, Reason: fmt.Sprintf("%q explicitly excluded", v)}
		}
	}
	if !slot.Configured() {
		return ConditionResult{ConditionType: ct, Phase: PhaseUnconfigured, Matches: true, Reason: "no entries configured"}
	}
	if slot.IncludesAll() {
		return ConditionResult{ConditionType: ct, Phase: PhaseInclusion, Matches: true, Reason: "include covers all"}
	}
	for _, v := range values {
		if member(slot.Include, v) {
			return ConditionResult{ConditionType: ct, Phase: PhaseInclusion, Matches: true, Reason: fmt.Sprintf("%q included", v)}
		}
	}
	return ConditionResult{ConditionType: ct, Phase: PhaseInclusion, Matches: false, Reason: "no include entry matched"}
}

func matchUsers(slot *ConditionSlot, sc *SimContext) ConditionResult {
	return matchSlot(ConditionUsers, slot, sc.userValues()...)
}

// matchApplications honors wildcard entries such as "office365:*".
func matchApplications(slot *ConditionSlot, appID string) ConditionResult {
	return matchSlotFunc(ConditionApplications, slot, []string{appID}, func(entries []string, value string) bool {
		for _, e := range entries {
			if utils.MatchPattern(value, e) {
				return true
			}
		}
		return false
	})
}

func matchUserActions(slot *ConditionSlot, action string) ConditionResult {
	var vals []string
	if action != "" {
		vals = []string{action}
	}
	return matchSlot(ConditionUserActions, slot, vals...)
}

// matchAuthContext uses direct list membership of the class references; no
// hierarchy is modeled.
func matchAuthContext(slot *ConditionSlot, refs []string) ConditionResult {
	return matchSlot(ConditionAuthContext, slot, refs...)
}

// matchPlatforms compares platform names case-insensitively; directory data
// mixes "windows" and "Windows".
func matchPlatforms(slot *ConditionSlot, platform string) ConditionResult {
	return matchSlotFunc(ConditionPlatforms, slot, []string{platform}, func(entries []string, value string) bool {
		for _, e := range entries {
			if strings.EqualFold(e, value) {
				return true
			}
		}
		return false
	})
}

func matchLocations(slot *ConditionSlot, sc *SimContext) ConditionResult {
	return matchSlot(ConditionLocations, slot, sc.locationValues()...)
}

func matchClientApps(slot *ConditionSlot, app ClientAppType) ConditionResult {
	var vals []string
	if app != "" {
		vals = []string{string(app)}
	}
	return matchSlot(ConditionClientAppTypes, slot, vals...)
}

// matchRisk handles sign-in, user and insider risk alike: exact level
// membership in the include set, no "at least" ordering.
func matchRisk(ct ConditionType, slot *ConditionSlot, level RiskLevel) ConditionResult {
	var vals []string
	if level != "" {
		vals = []string{string(level)}
	}
	return matchSlot(ct, slot, vals...)
}

func matchAuthFlows(slot *ConditionSlot, flow AuthFlow) ConditionResult {
	var vals []string
	if flow != "" {
		vals = []string{string(flow)}
	}
	return matchSlot(ConditionAuthFlows, slot, vals...)
}

// matchDevices combines legacy device-state matching with the simplified
// filter rule. A rule the parser does not understand degrades to a vacuous
// pass rather than an error.
func matchDevices(dc *DeviceCondition, d DeviceState) ConditionResult {
	if dc == nil {
		return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseNotConfigured, Matches: true, Reason: "not configured"}
	}

	states := matchSlot(ConditionDevices, dc.States, d.stateValues()...)
	if states.Phase == PhaseExclusion {
		return states
	}

	if dc.Filter == nil || strings.TrimSpace(dc.Filter.Rule) == "" {
		if !dc.States.Configured() {
			return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseUnconfigured, Matches: true, Reason: "no device criteria configured"}
		}
		return states
	}

	rule, err := parseDeviceFilter(dc.Filter.Rule)
	if err != nil {
		// Fail open on the dimension, never raise.
		return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseUnconfigured, Matches: true,
			Reason: fmt.Sprintf("unsupported device filter, treated as not configured: %v", err)}
	}

	hit := rule.eval(d)
	if dc.Filter.Mode == FilterExclude {
		if hit {
			return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseExclusion, Matches: false, Reason: "device matched exclude filter"}
		}
		return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseInclusion, Matches: states.Matches, Reason: "device not excluded by filter"}
	}

	if !hit {
		return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseInclusion, Matches: false, Reason: "device did not match include filter"}
	}
	return ConditionResult{ConditionType: ConditionDevices, Phase: PhaseInclusion, Matches: states.Matches, Reason: "device matched include filter"}
}

// matchConditions runs every matcher and returns the per-dimension results in
// a fixed order so repeated evaluations are byte-identical.
func matchConditions(p *Policy, sc *SimContext) []ConditionResult {
	c := p.Conditions
	return []ConditionResult{
		matchUsers(c.Users, sc),
		matchApplications(c.Applications, sc.AppID),
		matchUserActions(c.UserActions, sc.UserAction),
		matchAuthContext(c.AuthContext, sc.AuthContextRefs),
		matchPlatforms(c.Platforms, sc.Device.Platform),
		matchLocations(c.Locations, sc),
		matchClientApps(c.ClientAppTypes, sc.ClientApp),
		matchRisk(ConditionSignInRisk, c.SignInRisk, sc.SignInRisk),
		matchRisk(ConditionUserRisk, c.UserRisk, sc.UserRisk),
		matchRisk(ConditionInsiderRisk, c.InsiderRisk, sc.InsiderRisk),
		matchDevices(c.Devices, sc.Device),
		matchAuthFlows(c.AuthFlows, sc.AuthFlow),
	}
}
