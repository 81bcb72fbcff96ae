package carrier

import (
	"sort"
	"strings"
)

// minLength is the shortest normalized input worth classifying; anything
// shorter matches nothing.
const minLength = 5

// DetectionResult is one ranked carrier candidate for a tracking number.
type DetectionResult struct {
	Carrier        string     `json:"carrier"`
	Name           string     `json:"name"`
	Confidence     Confidence `json:"confidence"`
	Reason         string     `json:"reason"`
	TrackingNumber string     `json:"tracking_number"`
}

// RuleSummary is the discovery view of one registry entry.
type RuleSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
	Priority int      `json:"priority"`
}

// Detector evaluates tracking numbers against an immutable rule registry.
type Detector struct {
	rules []Rule
}

// NewDetector builds a Detector over the built-in rule registry.
func NewDetector() *Detector {
	return &Detector{rules: defaultRules()}
}

// NewDetectorWithRules builds a Detector over a custom registry, highest
// priority first. Intended for tests and future rule loading.
func NewDetectorWithRules(rules []Rule) *Detector {
	return &Detector{rules: rules}
}

// Normalize prepares a raw tracking number for matching: trimmed, uppercased,
// spaces and hyphens removed.
func Normalize(trackingNumber string) string {
	n := strings.ToUpper(strings.TrimSpace(trackingNumber))
	n = strings.ReplaceAll(n, " ", "")
	return strings.ReplaceAll(n, "-", "")
}

// Detect returns every carrier whose rule matches the tracking number, sorted
// by confidence tier (high first) and then by registry declaration order. An
// empty slice means no rule matched; the caller must supply the carrier
// explicitly. Detect never fails.
func (d *Detector) Detect(trackingNumber string) []DetectionResult {
	normalized := Normalize(trackingNumber)
	if len(normalized) < minLength {
		return nil
	}

	var results []DetectionResult
	for _, rule := range d.rules {
		for _, m := range rule.Matchers {
			if !m.Pattern.MatchString(normalized) {
				continue
			}
			results = append(results, DetectionResult{
				Carrier:        rule.ID,
				Name:           rule.Name,
				Confidence:     confidenceFor(rule.Priority, m.Kind),
				Reason:         m.Description,
				TrackingNumber: trackingNumber,
			})
			break // one result per rule, first matcher wins
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence.rank() < results[j].Confidence.rank()
	})
	return results
}

// List returns the registry summaries sorted by priority, highest first.
func (d *Detector) List() []RuleSummary {
	summaries := make([]RuleSummary, 0, len(d.rules))
	for _, rule := range d.rules {
		patterns := make([]string, 0, len(rule.Matchers))
		for _, m := range rule.Matchers {
			patterns = append(patterns, m.Description)
		}
		summaries = append(summaries, RuleSummary{
			ID:       rule.ID,
			Name:     rule.Name,
			Patterns: patterns,
			Priority: rule.Priority,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Priority > summaries[j].Priority
	})
	return summaries
}

// Known reports whether a carrier id exists in the registry.
func (d *Detector) Known(carrierID string) bool {
	for _, rule := range d.rules {
		if rule.ID == carrierID {
			return true
		}
	}
	return false
}

// confidenceFor maps rule priority and matcher kind to a confidence tier.
// Specific suffix/prefix patterns at high priority are near-certain; bare
// length patterns never rise above low.
func confidenceFor(priority int, kind PatternKind) Confidence {
	if priority >= 9 && (kind == KindSuffix || kind == KindPrefix) {
		return ConfidenceHigh
	}
	if priority >= 5 || kind == KindPrefix {
		return ConfidenceMedium
	}
	return ConfidenceLow
}
