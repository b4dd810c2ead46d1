package casim

import "testing"

func TestStrengthTierSatisfies(t *testing.T) {
	cases := []struct {
		have, need StrengthTier
		want       bool
	}{
		{TierNone, TierNone, true},
		{TierMFA, TierMFA, true},
		{TierPasswordlessMFA, TierMFA, true},
		{TierPhishingResistantMFA, TierMFA, true},
		{TierMFA, TierPhishingResistantMFA, false},
		{TierNone, TierMFA, false},
		{TierPhishingResistantMFA, TierUnclassified, false},
		{TierUnclassified, TierNone, false},
		{TierUnclassified, TierUnclassified, false},
	}
	for _, tc := range cases {
		if got := tc.have.Satisfies(tc.need); got != tc.want {
			t.Fatalf("%s satisfies %s: expected %v, got %v", tc.have, tc.need, tc.want, got)
		}
	}
}

func TestBuiltinStrengthTier(t *testing.T) {
	cases := map[string]StrengthTier{
		"mfa":                  TierMFA,
		"passwordlessMfa":      TierPasswordlessMFA,
		"phishingResistantMfa": TierPhishingResistantMFA,
	}
	for id, want := range cases {
		tier, ok := BuiltinStrengthTier(id)
		if !ok || tier != want {
			t.Fatalf("builtin %s: expected %s, got %s (ok=%v)", id, want, tier, ok)
		}
	}
	if _, ok := BuiltinStrengthTier("custom-strength"); ok {
		t.Fatalf("unknown strength should not resolve as builtin")
	}
}

func TestStrengthTierString(t *testing.T) {
	if TierPhishingResistantMFA.String() != "phishingResistantMfa" {
		t.Fatalf("unexpected name: %s", TierPhishingResistantMFA)
	}
	if TierUnclassified.String() != "unclassified" {
		t.Fatalf("unexpected name: %s", TierUnclassified)
	}
}
