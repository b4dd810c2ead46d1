package casim

import (
	"testing"
)

func TestMatchSlotNotConfigured(t *testing.T) {
	res := matchSlot(ConditionUsers, nil, "alice")
	if !res.Matches {
		t.Fatalf("nil slot should pass vacuously")
	}
	if res.Phase != PhaseNotConfigured {
		t.Fatalf("expected phase %s, got %s", PhaseNotConfigured, res.Phase)
	}
}

func TestMatchSlotEmptyIsVacuousPass(t *testing.T) {
	res := matchSlot(ConditionUsers, &ConditionSlot{}, "alice")
	if !res.Matches {
		t.Fatalf("empty slot should pass vacuously")
	}
	if res.Phase != PhaseUnconfigured {
		t.Fatalf("expected phase %s, got %s", PhaseUnconfigured, res.Phase)
	}
}

func TestMatchSlotIncludeAll(t *testing.T) {
	slot := &ConditionSlot{Include: []string{IncludeAll}}
	res := matchSlot(ConditionUsers, slot, "anyone")
	if !res.Matches || res.Phase != PhaseInclusion {
		t.Fatalf("All sentinel should match any value, got %+v", res)
	}
}

func TestMatchSlotExclusionOverridesInclusion(t *testing.T) {
	slot := &ConditionSlot{
		Include: []string{IncludeAll},
		Exclude: []string{"alice"},
	}
	res := matchSlot(ConditionUsers, slot, "alice")
	if res.Matches {
		t.Fatalf("excluded value must not match even under All")
	}
	if res.Phase != PhaseExclusion {
		t.Fatalf("expected phase %s, got %s", PhaseExclusion, res.Phase)
	}
}

func TestMatchSlotExcludeOnlyHasNoImplicitInclude(t *testing.T) {
	// An exclude-only slot is configured: values escaping the exclude set
	// still need an include entry, there is no implicit "All".
	slot := &ConditionSlot{Exclude: []string{"bob"}}
	res := matchSlot(ConditionUsers, slot, "alice")
	if res.Matches {
		t.Fatalf("exclude-only slot must not include non-excluded values")
	}
	if res.Phase != PhaseInclusion {
		t.Fatalf("expected phase %s, got %s", PhaseInclusion, res.Phase)
	}
}

func TestMatchUsersGroupIntersection(t *testing.T) {
	sc := &SimContext{User: UserIdentity{ID: "alice", Groups: []string{"eng", "oncall"}}}
	slot := &ConditionSlot{Include: []string{"oncall"}}
	res := matchUsers(slot, sc)
	if !res.Matches {
		t.Fatalf("group membership should satisfy the users slot")
	}
}

func TestMatchUsersGuestSentinel(t *testing.T) {
	sc := &SimContext{User: UserIdentity{ID: "ext-1", Type: UserGuest}}
	slot := &ConditionSlot{Include: []string{"GuestsOrExternalUsers"}}
	if res := matchUsers(slot, sc); !res.Matches {
		t.Fatalf("guest users should match the GuestsOrExternalUsers sentinel")
	}

	member := &SimContext{User: UserIdentity{ID: "alice", Type: UserMember}}
	if res := matchUsers(slot, member); res.Matches {
		t.Fatalf("member users should not match the guest sentinel")
	}
}

func TestMatchUsersExcludedGroupOverridesIncludedID(t *testing.T) {
	sc := &SimContext{User: UserIdentity{ID: "alice", Groups: []string{"contractors"}}}
	slot := &ConditionSlot{
		Include: []string{"alice"},
		Exclude: []string{"contractors"},
	}
	res := matchUsers(slot, sc)
	if res.Matches {
		t.Fatalf("exclusion through any identity value must override inclusion")
	}
}

func TestMatchApplicationsWildcard(t *testing.T) {
	slot := &ConditionSlot{Include: []string{"office365:*"}}
	if res := matchApplications(slot, "office365:mail"); !res.Matches {
		t.Fatalf("wildcard app entry should match prefixed app IDs")
	}
	if res := matchApplications(slot, "salesforce"); res.Matches {
		t.Fatalf("non-matching app should not pass")
	}
}

func TestMatchPlatformsCaseInsensitive(t *testing.T) {
	slot := &ConditionSlot{Include: []string{"Windows"}}
	if res := matchPlatforms(slot, "windows"); !res.Matches {
		t.Fatalf("platform matching should be case-insensitive")
	}
}

func TestMatchLocationsTrustedSentinel(t *testing.T) {
	slot := &ConditionSlot{Include: []string{TrustedLocations}}

	trusted := &SimContext{LocationID: "hq", TrustedLocation: true}
	if res := matchLocations(slot, trusted); !res.Matches {
		t.Fatalf("trusted location should match the AllTrusted sentinel")
	}

	untrusted := &SimContext{LocationID: "cafe"}
	if res := matchLocations(slot, untrusted); res.Matches {
		t.Fatalf("untrusted location should not match AllTrusted")
	}
}

func TestMatchLocationsExcludeTrusted(t *testing.T) {
	// Common pattern: apply everywhere except trusted locations.
	slot := &ConditionSlot{
		Include: []string{IncludeAll},
		Exclude: []string{TrustedLocations},
	}
	trusted := &SimContext{TrustedLocation: true}
	if res := matchLocations(slot, trusted); res.Matches {
		t.Fatalf("trusted location should be excluded")
	}
	untrusted := &SimContext{LocationID: "cafe"}
	if res := matchLocations(slot, untrusted); !res.Matches {
		t.Fatalf("untrusted location should still match All")
	}
}

func TestMatchRiskExactLevel(t *testing.T) {
	slot := &ConditionSlot{Include: []string{"high", "medium"}}
	if res := matchRisk(ConditionSignInRisk, slot, RiskHigh); !res.Matches {
		t.Fatalf("high risk should match")
	}
	// Membership is exact, no "at least" ordering.
	if res := matchRisk(ConditionSignInRisk, slot, RiskLow); res.Matches {
		t.Fatalf("low risk should not match a medium/high slot")
	}
	if res := matchRisk(ConditionSignInRisk, slot, RiskNone); res.Matches {
		t.Fatalf("no risk should not match a medium/high slot")
	}
}

func TestMatchClientAppsEmptyContextValue(t *testing.T) {
	slot := &ConditionSlot{Include: []string{string(ClientBrowser)}}
	res := matchClientApps(slot, "")
	if res.Matches {
		t.Fatalf("absent client app should not match a configured slot")
	}
}

func TestMatchDevicesStates(t *testing.T) {
	dc := &DeviceCondition{States: &ConditionSlot{Include: []string{"compliant"}}}

	compliant := DeviceState{Platform: "windows", Compliant: true}
	if res := matchDevices(dc, compliant); !res.Matches {
		t.Fatalf("compliant device should match the compliant state")
	}

	stale := DeviceState{Platform: "windows"}
	if res := matchDevices(dc, stale); res.Matches {
		t.Fatalf("non-compliant device should not match")
	}
}

func TestMatchDevicesDomainJoinedState(t *testing.T) {
	dc := &DeviceCondition{States: &ConditionSlot{Include: []string{"domainJoined"}}}
	joined := DeviceState{JoinType: JoinHybrid}
	if res := matchDevices(dc, joined); !res.Matches {
		t.Fatalf("hybrid-joined device should count as domainJoined")
	}
	registered := DeviceState{JoinType: JoinRegistered}
	if res := matchDevices(dc, registered); res.Matches {
		t.Fatalf("registered device should not count as domainJoined")
	}
}

func TestMatchDevicesIncludeFilter(t *testing.T) {
	dc := &DeviceCondition{
		Filter: &DeviceFilter{Mode: FilterInclude, Rule: `device.isCompliant == "true"`},
	}
	if res := matchDevices(dc, DeviceState{Compliant: true}); !res.Matches {
		t.Fatalf("device matching the include filter should pass")
	}
	if res := matchDevices(dc, DeviceState{Compliant: false}); res.Matches {
		t.Fatalf("device missing the include filter should not pass")
	}
}

func TestMatchDevicesExcludeFilter(t *testing.T) {
	dc := &DeviceCondition{
		Filter: &DeviceFilter{Mode: FilterExclude, Rule: `trustType == "none"`},
	}
	res := matchDevices(dc, DeviceState{JoinType: JoinNone})
	if res.Matches {
		t.Fatalf("device matching the exclude filter should not pass")
	}
	if res.Phase != PhaseExclusion {
		t.Fatalf("expected phase %s, got %s", PhaseExclusion, res.Phase)
	}
}

func TestMatchDevicesUnparsableFilterFailsOpen(t *testing.T) {
	dc := &DeviceCondition{
		Filter: &DeviceFilter{Mode: FilterInclude, Rule: `a == "1" and b == "2" or c == "3"`},
	}
	res := matchDevices(dc, DeviceState{})
	if !res.Matches {
		t.Fatalf("unsupported filter should degrade to a vacuous pass")
	}
	if res.Phase != PhaseUnconfigured {
		t.Fatalf("expected phase %s, got %s", PhaseUnconfigured, res.Phase)
	}
}

func TestMatchConditionsFixedOrder(t *testing.T) {
	p := &Policy{ID: "p1", State: StateEnabled}
	sc := &SimContext{User: UserIdentity{ID: "alice"}}

	results := matchConditions(p, sc)
	if len(results) != 12 {
		t.Fatalf("expected 12 condition results, got %d", len(results))
	}
	want := []ConditionType{
		ConditionUsers, ConditionApplications, ConditionUserActions,
		ConditionAuthContext, ConditionPlatforms, ConditionLocations,
		ConditionClientAppTypes, ConditionSignInRisk, ConditionUserRisk,
		ConditionInsiderRisk, ConditionDevices, ConditionAuthFlows,
	}
	for i, w := range want {
		if results[i].ConditionType != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, results[i].ConditionType)
		}
	}
}
