package utils

// MatchPattern matches a plain value against a pattern containing '*'
// wildcards, each matching any sequence of characters (including none).
// Patterns without a wildcard require an exact match. Application and
// user-action slot entries use this for values like "office365:*".
func MatchPattern(value, pattern string) bool {
	if pattern == "*" {
		return true
	}
	return matchHere(value, pattern)
}

func matchHere(value, pattern string) bool {
	vi, pi := 0, 0
	starP, starV := -1, 0
	for vi < len(value) {
		switch {
		case pi < len(pattern) && (pattern[pi] == value[vi]):
			vi++
			pi++
		case pi < len(pattern) && pattern[pi] == '*':
			starP = pi
			starV = vi
			pi++
		case starP >= 0:
			// backtrack: let the last '*' absorb one more character
			starV++
			vi = starV
			pi = starP + 1
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
