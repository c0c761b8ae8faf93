package valueobject

import "fmt"

// RiskTier is the clinician-facing interpretation of a prediction.
type RiskTier struct {
	value    string
	severity int
	message  string
}

var (
	RiskTierHigh     = RiskTier{value: "HIGH", severity: 5, message: "High risk! Urgent medical consultation recommended."}
	RiskTierModerate = RiskTier{value: "MODERATE", severity: 4, message: "Moderate risk of heart disease. Consult a doctor."}
	RiskTierElevated = RiskTier{value: "ELEVATED", severity: 3, message: "Slight risk of heart disease. Consider lifestyle changes."}
	RiskTierLow      = RiskTier{value: "LOW", severity: 2, message: "Low risk. Maintain your healthy lifestyle!"}
	RiskTierVeryLow  = RiskTier{value: "VERY_LOW", severity: 1, message: "Very low risk, but regular checkups are still important."}
)

// Thresholds on the positive-class probability.
const (
	HighRiskThreshold     = 0.7
	ModerateRiskThreshold = 0.5
	LowRiskThreshold      = 0.3
)

// RiskTiers lists every tier from most to least severe.
func RiskTiers() []RiskTier {
	return []RiskTier{RiskTierHigh, RiskTierModerate, RiskTierElevated, RiskTierLow, RiskTierVeryLow}
}

// RiskTierFromString reconstructs a RiskTier from its string representation.
func RiskTierFromString(s string) (RiskTier, error) {
	for _, t := range RiskTiers() {
		if t.value == s {
			return t, nil
		}
	}
	return RiskTier{}, fmt.Errorf("invalid risk tier: %s", s)
}

// ClassifyRisk maps a hard prediction and an optional probability to a tier.
// The probability refines the tier within the predicted class only; a
// missing probability selects the mildest tier of that class.
func ClassifyRisk(prediction int, probability *float64) RiskTier {
	if prediction == 1 {
		switch {
		case probability == nil:
			return RiskTierElevated
		case *probability > HighRiskThreshold:
			return RiskTierHigh
		case *probability > ModerateRiskThreshold:
			return RiskTierModerate
		default:
			return RiskTierElevated
		}
	}

	if probability != nil && *probability < LowRiskThreshold {
		return RiskTierLow
	}
	return RiskTierVeryLow
}

func (r RiskTier) String() string  { return r.value }
func (r RiskTier) Message() string { return r.message }

// Severity orders tiers; higher is more severe.
func (r RiskTier) Severity() int { return r.severity }

// Urgent reports whether the tier warrants an alert.
func (r RiskTier) Urgent() bool { return r.value == RiskTierHigh.value }

// IsZero returns true if the RiskTier has not been set.
func (r RiskTier) IsZero() bool { return r.value == "" }

// Equal checks equality with another RiskTier.
func (r RiskTier) Equal(other RiskTier) bool { return r.value == other.value }
