package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prob(p float64) *float64 { return &p }

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name       string
		prediction int
		prob       *float64
		want       RiskTier
	}{
		{name: "positive high", prediction: 1, prob: prob(0.82), want: RiskTierHigh},
		{name: "positive at 0.7 is moderate", prediction: 1, prob: prob(0.7), want: RiskTierModerate},
		{name: "positive moderate", prediction: 1, prob: prob(0.55), want: RiskTierModerate},
		{name: "positive at 0.5 is elevated", prediction: 1, prob: prob(0.5), want: RiskTierElevated},
		{name: "positive low probability", prediction: 1, prob: prob(0.2), want: RiskTierElevated},
		{name: "positive without probability", prediction: 1, prob: nil, want: RiskTierElevated},
		{name: "negative low", prediction: 0, prob: prob(0.1), want: RiskTierLow},
		{name: "negative at 0.3 is very low", prediction: 0, prob: prob(0.3), want: RiskTierVeryLow},
		{name: "negative borderline", prediction: 0, prob: prob(0.45), want: RiskTierVeryLow},
		{name: "negative without probability", prediction: 0, prob: nil, want: RiskTierVeryLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRisk(tt.prediction, tt.prob)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestClassifyRisk_Messages(t *testing.T) {
	assert.Equal(t, "High risk! Urgent medical consultation recommended.", ClassifyRisk(1, prob(0.82)).Message())
	assert.Equal(t, "Moderate risk of heart disease. Consult a doctor.", ClassifyRisk(1, prob(0.55)).Message())
	assert.Equal(t, "Slight risk of heart disease. Consider lifestyle changes.", ClassifyRisk(1, nil).Message())
	assert.Equal(t, "Low risk. Maintain your healthy lifestyle!", ClassifyRisk(0, prob(0.05)).Message())
	assert.Equal(t, "Very low risk, but regular checkups are still important.", ClassifyRisk(0, prob(0.4)).Message())
}

// For a positive prediction severity never drops as probability rises; for a
// negative prediction it never rises.
func TestClassifyRisk_SeverityMonotone(t *testing.T) {
	prevPos, prevNeg := 0, 10
	for i := 0; i <= 100; i++ {
		p := float64(i) / 100
		pos := ClassifyRisk(1, prob(p)).Severity()
		neg := ClassifyRisk(0, prob(p)).Severity()
		assert.GreaterOrEqual(t, pos, prevPos, "positive p=%.2f", p)
		assert.LessOrEqual(t, neg, prevNeg, "negative p=%.2f", p)
		prevPos, prevNeg = pos, neg
	}
}

// Every positive tier is more severe than every negative tier.
func TestClassifyRisk_ClassesDoNotOverlap(t *testing.T) {
	minPositive := 10
	maxNegative := 0
	for i := 0; i <= 20; i++ {
		p := float64(i) / 20
		minPositive = min(minPositive, ClassifyRisk(1, prob(p)).Severity())
		maxNegative = max(maxNegative, ClassifyRisk(0, prob(p)).Severity())
	}
	minPositive = min(minPositive, ClassifyRisk(1, nil).Severity())
	maxNegative = max(maxNegative, ClassifyRisk(0, nil).Severity())
	assert.Greater(t, minPositive, maxNegative)
}

func TestRiskTierFromString(t *testing.T) {
	for _, tier := range RiskTiers() {
		got, err := RiskTierFromString(tier.String())
		require.NoError(t, err)
		assert.True(t, tier.Equal(got))
	}
	_, err := RiskTierFromString("CRITICAL")
	assert.Error(t, err)
	assert.True(t, RiskTier{}.IsZero())
	assert.True(t, RiskTierHigh.Urgent())
	assert.False(t, RiskTierModerate.Urgent())
}
