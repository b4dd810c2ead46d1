package casim

import "testing"

func TestParseDeviceFilterSingleClause(t *testing.T) {
	rule, err := parseDeviceFilter(`device.trustType == "azureAD"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rule.Clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(rule.Clauses))
	}
	c := rule.Clauses[0]
	if c.Attr != "trustType" || c.Op != opEquals || c.Value != "azureAD" {
		t.Fatalf("unexpected clause: %+v", c)
	}
}

func TestParseDeviceFilterConjunction(t *testing.T) {
	rule, err := parseDeviceFilter(`isCompliant == "true" and operatingSystem startsWith "Windows"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rule.Clauses) != 2 || rule.Disjunctive {
		t.Fatalf("expected 2 conjunctive clauses, got %+v", rule)
	}
}

func TestParseDeviceFilterDisjunction(t *testing.T) {
	rule, err := parseDeviceFilter(`platform == "iOS" or platform == "android"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !rule.Disjunctive {
		t.Fatalf("expected disjunctive rule")
	}
}

func TestParseDeviceFilterMixedOperatorsRejected(t *testing.T) {
	if _, err := parseDeviceFilter(`a == "1" and b == "2" or c == "3"`); err == nil {
		t.Fatalf("mixed and/or should be rejected")
	}
}

func TestParseDeviceFilterBadClauseRejected(t *testing.T) {
	if _, err := parseDeviceFilter(`platform ~= "windows"`); err == nil {
		t.Fatalf("unknown operator should be rejected")
	}
	if _, err := parseDeviceFilter(""); err == nil {
		t.Fatalf("empty rule should be rejected")
	}
}

func TestFilterClauseEval(t *testing.T) {
	d := DeviceState{
		Platform: "Windows 11",
		JoinType: JoinAzureAD,
		Attrs:    map[string]string{"manufacturer": "Contoso"},
	}

	cases := []struct {
		rule string
		want bool
	}{
		{`operatingSystem startsWith "windows"`, true},
		{`operatingSystem contains "11"`, true},
		{`trustType == "azureAD"`, true},
		{`trustType != "none"`, true},
		{`manufacturer == "contoso"`, true},
		{`manufacturer == "fabrikam"`, false},
		{`model != "X1"`, true}, // missing attribute counts as not-equal
		{`model == "X1"`, false},
	}
	for _, tc := range cases {
		rule, err := parseDeviceFilter(tc.rule)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.rule, err)
		}
		if got := rule.eval(d); got != tc.want {
			t.Fatalf("eval %q: expected %v, got %v", tc.rule, tc.want, got)
		}
	}
}

func TestFilterRuleConjunctionEval(t *testing.T) {
	d := DeviceState{Platform: "windows", Compliant: true}
	rule, err := parseDeviceFilter(`isCompliant == "true" and platform == "windows"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !rule.eval(d) {
		t.Fatalf("both clauses hold, rule should match")
	}

	d.Compliant = false
	if rule.eval(d) {
		t.Fatalf("one clause fails, conjunction should not match")
	}
}

func TestFilterRuleDisjunctionEval(t *testing.T) {
	rule, err := parseDeviceFilter(`platform == "iOS" or platform == "android"`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !rule.eval(DeviceState{Platform: "android"}) {
		t.Fatalf("one clause holds, disjunction should match")
	}
	if rule.eval(DeviceState{Platform: "windows"}) {
		t.Fatalf("no clause holds, disjunction should not match")
	}
}
