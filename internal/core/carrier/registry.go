// Package carrier classifies raw tracking numbers into carrier candidates
// using a static pattern registry. Detection is a pure function over the
// registry; no backend is contacted.
package carrier

import "regexp"

// Confidence is the qualitative certainty of a pattern-based carrier guess.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// rank orders tiers for sorting; lower is better.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	default:
		return 2
	}
}

// PatternKind describes what part of the tracking number a matcher keys on.
type PatternKind string

const (
	KindSuffix PatternKind = "suffix"
	KindPrefix PatternKind = "prefix"
	KindLength PatternKind = "length"
)

// Matcher is one pattern a rule recognizes. Patterns are anchored regular
// expressions evaluated against the normalized tracking number.
type Matcher struct {
	Kind        PatternKind
	Pattern     *regexp.Regexp
	Description string
}

// Rule is one immutable registry entry. Priority decides confidence together
// with the matcher kind; declaration order breaks ties within a tier.
type Rule struct {
	ID       string
	Name     string
	Priority int
	Matchers []Matcher
}

func matcher(kind PatternKind, pattern, description string) Matcher {
	return Matcher{Kind: kind, Pattern: regexp.MustCompile(pattern), Description: description}
}

// defaultRules is the built-in registry, declared highest priority first.
// Suffix and prefix patterns are the most specific; bare length patterns for
// the domestic carriers are deliberately last, since any 10 to 13 digit number
// matches several of them.
func defaultRules() []Rule {
	return []Rule{
		{
			ID: "global.jppost", Name: "Japan Post", Priority: 10,
			Matchers: []Matcher{
				matcher(KindSuffix, `^[A-Z]{2}\d{9}JP$`, "Ends with JP (e.g., EN123456789JP)"),
			},
		},
		{
			ID: "global.ups", Name: "UPS", Priority: 9,
			Matchers: []Matcher{
				matcher(KindPrefix, `^1Z[A-Z0-9]{16}$`, "Starts with 1Z, 18 chars total"),
			},
		},
		{
			ID: "global.chinapost", Name: "China Post", Priority: 9,
			Matchers: []Matcher{
				matcher(KindPrefix, `^(RB|RC|RA|CP|LZ|LM|LO|EA|EB|EC|ED|EE|EF|EG|EH|EI|EJ|EK|EL|EM|ZC)[A-Z0-9]{9,}(CN)?$`, "Starts with specific China Post prefixes"),
			},
		},
		{
			ID: "global.fedex", Name: "FedEx", Priority: 6,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{12}$`, "12 digits"),
				matcher(KindLength, `^\d{15}$`, "15 digits"),
			},
		},
		{
			ID: "global.dhl", Name: "DHL", Priority: 5,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,11}$`, "10-11 digits"),
			},
		},
		{
			ID: "global.sagawa", Name: "Sagawa Express", Priority: 4,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,12}$`, "10-12 digits"),
			},
		},
		{
			ID: "kr.cj", Name: "CJ Logistics", Priority: 3,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,13}$`, "10-13 digits (Korean domestic)"),
			},
		},
		{
			ID: "kr.hanjin", Name: "Hanjin", Priority: 3,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,13}$`, "10-13 digits (Korean domestic)"),
			},
		},
		{
			ID: "kr.epost", Name: "Korea Post", Priority: 3,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,13}$`, "10-13 digits (Korean domestic)"),
			},
		},
		{
			ID: "kr.lotte", Name: "Lotte", Priority: 3,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,13}$`, "10-13 digits (Korean domestic)"),
			},
		},
		{
			ID: "kr.kdexp", Name: "KD Express", Priority: 3,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,13}$`, "10-13 digits (Korean domestic)"),
			},
		},
		{
			ID: "kr.cjlogistics", Name: "CJ Logistics (Alternative)", Priority: 3,
			Matchers: []Matcher{
				matcher(KindLength, `^\d{10,13}$`, "10-13 digits (Korean domestic)"),
			},
		},
	}
}
