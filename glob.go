package xmltokenizer

import "strings"

// globPattern is a compiled anchored glob over a local name: '*' matches any
// run of characters (including none), '?' matches exactly one.
type globPattern struct {
	raw string
}

// compileGlob returns nil when s contains no glob metacharacters, so callers
// can fall back to a plain equality check.
func compileGlob(s string) *globPattern {
	if !strings.ContainsAny(s, "*?") {
		return nil
	}
	return &globPattern{raw: s}
}

// match anchors the pattern against the whole of s.
func (g *globPattern) match(s string) bool {
	return globMatch(g.raw, s)
}

// globMatch is a standard two-pointer glob matcher with backtracking on '*',
// operating on bytes since local names are compared as opaque strings, not
// decoded runes.
func globMatch(pattern, s string) bool {
	var pi, si int
	var starIdx = -1
	var matchIdx int

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			starIdx = pi
			matchIdx = si
			pi++
		case starIdx != -1:
			pi = starIdx + 1
			matchIdx++
			si = matchIdx
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
