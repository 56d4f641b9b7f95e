// Package classify decides whether a running application is essential and
// must survive a force-quit run.
//
// Names are compared after Unicode case folding. A name is essential when any
// allow-list Rule matches it, or when it contains one of the secondary keywords
// that denote core OS subsystems. Matching is intentionally loose: a user app
// called "SystemCleaner" is preserved because it contains "system".
package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultPatterns are the built-in essential process names. Each is matched
// as a substring.
var DefaultPatterns = []string{
	"kernel_task", "launchd", "kextcookied", "UserEventAgent",
	"com.apple.WebKit", "systemuiserver", "Dock", "Finder",
	"WindowServer", "loginwindow", "cfprefsd", "distnoted",
	"coreaudiod", "bluetoothd", "WiFiAgent", "airportd",
	"networkd", "configd", "mDNSResponder", "syslogd",
	// development tools
	"Claude Code", "Terminal", "iTerm2",
}

// DefaultKeywords are substrings that mark core OS subsystems.
var DefaultKeywords = []string{
	"system", "kernel", "apple", "com.apple", "security",
	"audio", "bluetooth", "wifi", "network", "login",
	"window", "dock", "finder", "spotlight", "notification",
}

// Reason identifies why a name was classified the way it was.
type Reason string

const (
	ReasonRule    Reason = "rule"
	ReasonKeyword Reason = "keyword"
	ReasonEmpty   Reason = "empty"
	ReasonNone    Reason = "none"
)

// Verdict is the explained result of classifying one name.
type Verdict struct {
	Name      string
	Essential bool
	Reason    Reason
	// Match is the rule pattern or keyword that fired, if any.
	Match string
}

// EssentialSet is an immutable allow-list. Build it once with New and share
// it freely; its methods are safe for concurrent use.
type EssentialSet struct {
	rules    []Rule
	keywords []string
	empty    EmptyPolicy
}

// New builds an EssentialSet. Patterns and keywords are folded on the way in.
// Blank patterns and keywords are dropped.
func New(rules []Rule, keywords []string, empty EmptyPolicy) *EssentialSet {
	s := &EssentialSet{
		rules:    make([]Rule, 0, len(rules)),
		keywords: make([]string, 0, len(keywords)),
		empty:    empty,
	}
	if s.empty == "" {
		s.empty = EmptyQuit
	}
	for _, r := range rules {
		p := fold(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}
		if r.Match == "" {
			r.Match = MatchSubstring
		}
		s.rules = append(s.rules, Rule{Pattern: p, Match: r.Match})
	}
	for _, k := range keywords {
		k = fold(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		s.keywords = append(s.keywords, k)
	}
	return s
}

// Default returns the built-in set: DefaultPatterns as substring rules,
// DefaultKeywords, and blank names quittable.
func Default() *EssentialSet {
	return New(SubstringRules(DefaultPatterns), DefaultKeywords, EmptyQuit)
}

// SubstringRules wraps each pattern in a substring Rule.
func SubstringRules(patterns []string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Substring(p))
	}
	return rules
}

// IsEssential reports whether name must never be targeted.
func (s *EssentialSet) IsEssential(name string) bool {
	return s.Explain(name).Essential
}

// Explain classifies name and reports which rule or keyword decided it.
func (s *EssentialSet) Explain(name string) Verdict {
	v := Verdict{Name: name, Reason: ReasonNone}

	folded := fold(name)
	if strings.TrimSpace(folded) == "" {
		v.Reason = ReasonEmpty
		v.Essential = s.empty == EmptyPreserve
		return v
	}

	for _, r := range s.rules {
		if r.matches(folded) {
			v.Essential = true
			v.Reason = ReasonRule
			v.Match = r.Pattern
			return v
		}
	}

	for _, k := range s.keywords {
		if strings.Contains(folded, k) {
			v.Essential = true
			v.Reason = ReasonKeyword
			v.Match = k
			return v
		}
	}

	return v
}

// Rules returns a copy of the folded rules.
func (s *EssentialSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Keywords returns a copy of the folded keywords.
func (s *EssentialSet) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// EmptyPolicy returns the policy applied to blank names.
func (s *EssentialSet) EmptyPolicy() EmptyPolicy {
	return s.empty
}

// fold applies Unicode case folding. A Caser is stateful, so each call gets
// its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
