package enrich

import "strings"

// Severity levels and the score each contributes.
var severityScores = map[string]float64{
	ClassLow:      2.5,
	ClassMedium:   5.0,
	ClassHigh:     7.5,
	ClassCritical: 9.5,
}

// NormalizeSeverity maps vendor severity labels onto the risk classes.
// Unknown labels count as medium.
func NormalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "negligible":
		return ClassLow
	case "high", "important":
		return ClassHigh
	case "critical":
		return ClassCritical
	default:
		return ClassMedium
	}
}

// Classify returns the class for a score.
func Classify(score float64, issues int) string {
	switch {
	case issues == 0:
		return ClassNone
	case score >= severityScores[ClassCritical]:
		return ClassCritical
	case score >= severityScores[ClassHigh]:
		return ClassHigh
	case score >= severityScores[ClassMedium]:
		return ClassMedium
	default:
		return ClassLow
	}
}

// normalize fills severity, score and class from the issue list when a
// lookup left them empty.
func (r *Report) normalize() {
	for i := range r.Issues {
		r.Issues[i].Severity = NormalizeSeverity(r.Issues[i].Severity)
		if s := severityScores[r.Issues[i].Severity]; s > r.Score {
			r.Score = s
		}
	}
	if r.SupplyChainRisk == "" {
		r.SupplyChainRisk = Classify(r.Score, len(r.Issues))
	}
}
