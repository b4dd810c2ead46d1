package casim

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// DEVICE FILTER RULES
// ============================================================================

// Device filter rules are a deliberately small language: single attribute
// comparisons joined by one level of "and" or "or". This intentionally
// supports the commonly used patterns (compliance checks, trust type, OS
// prefixes) while keeping parsing simple and deterministic. It is a
// documented limitation, not a full expression grammar.

type filterOp string

const (
	opEquals     filterOp = "=="
	opNotEquals  filterOp = "!="
	opContains   filterOp = "contains"
	opStartsWith filterOp = "startsWith"
)

type filterClause struct {
	Attr  string
	Op    filterOp
	Value string
}

type filterRule struct {
	Clauses     []filterClause
	Disjunctive bool // true when clauses are joined by "or"
}

var clauseRe = regexp.MustCompile(`^(?:device\.)?([a-zA-Z][a-zA-Z0-9_]*)\s+(==|!=|contains|startsWith)\s+("[^"]*"|\S+)$`)

// parseDeviceFilter parses a filter rule string. Mixing "and" and "or" in
// one rule is unsupported and reported as an error so the caller can degrade
// to a vacuous pass.
func parseDeviceFilter(rule string) (*filterRule, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("empty filter rule")
	}

	hasAnd := strings.Contains(rule, " and ")
	hasOr := strings.Contains(rule, " or ")
	if hasAnd && hasOr {
		return nil, fmt.Errorf("mixed and/or not supported: %s", rule)
	}

	sep := " and "
	disjunctive := false
	if hasOr {
		sep = " or "
		disjunctive = true
	}

	parts := strings.Split(rule, sep)
	clauses := make([]filterClause, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		m := clauseRe.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("unsupported clause syntax: %s", part)
		}
		clauses = append(clauses, filterClause{
			Attr:  m[1],
			Op:    filterOp(m[2]),
			Value: strings.Trim(m[3], `"`),
		})
	}
	return &filterRule{Clauses: clauses, Disjunctive: disjunctive}, nil
}

func (c filterClause) eval(d DeviceState) bool {
	v, ok := d.attr(c.Attr)
	switch c.Op {
	case opEquals:
		return ok && strings.EqualFold(v, c.Value)
	case opNotEquals:
		// Missing attribute counts as "not equal".
		return !ok || !strings.EqualFold(v, c.Value)
	case opContains:
		return ok && strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	case opStartsWith:
		return ok && strings.HasPrefix(strings.ToLower(v), strings.ToLower(c.Value))
	}
	return false
}

func (r *filterRule) eval(d DeviceState) bool {
	if r.Disjunctive {
		for _, c := range r.Clauses {
			if c.eval(d) {
				return true
			}
		}
		return false
	}
	for _, c := range r.Clauses {
		if !c.eval(d) {
			return false
		}
	}
	return true
}
