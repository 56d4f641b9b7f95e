package classify

import (
	"fmt"
	"strings"
)

// MatchKind selects how a Rule pattern is compared against a process name.
type MatchKind string

const (
	// MatchSubstring matches when the pattern appears anywhere in the name.
	MatchSubstring MatchKind = "substring"
	// MatchExact matches only when the whole name equals the pattern.
	MatchExact MatchKind = "exact"
	// MatchPrefix matches when the name starts with the pattern.
	MatchPrefix MatchKind = "prefix"
)

// ParseMatchKind converts a config value into a MatchKind.
// An empty value means substring, which is the historical behaviour.
func ParseMatchKind(s string) (MatchKind, error) {
	switch MatchKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchExact:
		return MatchExact, nil
	case MatchPrefix:
		return MatchPrefix, nil
	}
	return "", fmt.Errorf("unknown match kind %q (want exact, prefix or substring)", s)
}

// Rule is one entry of the essential allow-list.
type Rule struct {
	Pattern string
	Match   MatchKind
}

// Substring returns a substring rule for pattern.
func Substring(pattern string) Rule {
	return Rule{Pattern: pattern, Match: MatchSubstring}
}

// Exact returns an exact-match rule for pattern.
func Exact(pattern string) Rule {
	return Rule{Pattern: pattern, Match: MatchExact}
}

// Prefix returns a prefix rule for pattern.
func Prefix(pattern string) Rule {
	return Rule{Pattern: pattern, Match: MatchPrefix}
}

func (r Rule) String() string {
	return fmt.Sprintf("%s:%s", r.Match, r.Pattern)
}

// matches reports whether the folded name satisfies the rule.
// folded and r.Pattern are expected to be case-folded already.
func (r Rule) matches(folded string) bool {
	if r.Pattern == "" {
		return false
	}
	switch r.Match {
	case MatchExact:
		return folded == r.Pattern
	case MatchPrefix:
		return strings.HasPrefix(folded, r.Pattern)
	default:
		return strings.Contains(folded, r.Pattern)
	}
}

// EmptyPolicy decides the verdict for an empty or blank process name.
type EmptyPolicy string

const (
	// EmptyPreserve treats blank names as essential.
	EmptyPreserve EmptyPolicy = "preserve"
	// EmptyQuit treats blank names as quittable.
	EmptyQuit EmptyPolicy = "quit"
)

// ParseEmptyPolicy converts a config value into an EmptyPolicy.
// An empty value selects EmptyQuit.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch EmptyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", EmptyQuit:
		return EmptyQuit, nil
	case EmptyPreserve:
		return EmptyPreserve, nil
	}
	return "", fmt.Errorf("unknown empty-name policy %q (want preserve or quit)", s)
}
