package cleaning

import (
	"strings"

	"sales-analytics/internal/config"
)

type MatchKind string

const (
	MatchPrefix   MatchKind = "prefix"
	MatchSuffix   MatchKind = "suffix"
	MatchContains MatchKind = "contains"
)

// RewriteRule rewrites any value matching one of Tokens to Canonical.
type RewriteRule struct {
	Match     MatchKind
	Tokens    []string
	Canonical string
}

// Matches reports whether v satisfies the rule; tokens are tried in order.
func (r RewriteRule) Matches(v string) bool {
	for _, tok := range r.Tokens {
		switch r.Match {
		case MatchPrefix:
			if strings.HasPrefix(v, tok) {
				return true
			}
		case MatchSuffix:
			if strings.HasSuffix(v, tok) {
				return true
			}
		case MatchContains:
			if strings.Contains(v, tok) {
				return true
			}
		}
	}
	return false
}

// Apply runs every rule as its own pass over v. A later rule sees the output
// of the earlier ones, so it can rewrite a value that was already rewritten.
func Apply(rules []RewriteRule, v string) string {
	for _, r := range rules {
		if r.Matches(v) {
			v = r.Canonical
		}
	}
	return v
}

const DefaultCity = "bangalore"

// DefaultCityRules folds the spellings of Bengaluru into one city name.
func DefaultCityRules() []RewriteRule {
	return []RewriteRule{
		{Match: MatchPrefix, Tokens: []string{"ben"}, Canonical: DefaultCity},
		{Match: MatchPrefix, Tokens: []string{"ban"}, Canonical: DefaultCity},
		{Match: MatchSuffix, Tokens: []string{"lore", "luru"}, Canonical: DefaultCity},
	}
}

// DefaultChannelRules is the order historical channel reports were produced
// with. "ads" rewrites to "google ads", which the "google" pass then folds
// into "google"; keep the order as is.
func DefaultChannelRules() []RewriteRule {
	return []RewriteRule{
		{Match: MatchContains, Tokens: []string{"ads"}, Canonical: "google ads"},
		{Match: MatchContains, Tokens: []string{"google"}, Canonical: "google"},
		{Match: MatchContains, Tokens: []string{"insta"}, Canonical: "instagram"},
		{Match: MatchContains, Tokens: []string{"ig"}, Canonical: "instagram"},
		{Match: MatchContains, Tokens: []string{"facebook"}, Canonical: "facebook"},
		{Match: MatchContains, Tokens: []string{"fb"}, Canonical: "facebook"},
		{Match: MatchContains, Tokens: []string{"direct"}, Canonical: "direct"},
		{Match: MatchContains, Tokens: []string{"whatsapp"}, Canonical: "whatsapp"},
		{Match: MatchContains, Tokens: []string{"chatgpt"}, Canonical: "chatgpt"},
		{Match: MatchContains, Tokens: []string{"bing"}, Canonical: "bing"},
	}
}

func rulesFromConfig(in []config.Rule) []RewriteRule {
	out := make([]RewriteRule, 0, len(in))
	for _, r := range in {
		tokens := make([]string, 0, len(r.Tokens))
		for _, t := range r.Tokens {
			tokens = append(tokens, normalize(t))
		}
		out = append(out, RewriteRule{Match: MatchKind(r.Match), Tokens: tokens, Canonical: normalize(r.Canonical)})
	}
	return out
}
