package model

// ConfusionMatrix counts held-out outcomes against the positive class (target == 1).
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Add records one prediction.
func (c *ConfusionMatrix) Add(actual, predicted int) {
	switch {
	case actual == 1 && predicted == 1:
		c.TruePositive++
	case actual == 0 && predicted == 1:
		c.FalsePositive++
	case actual == 1:
		c.FalseNegative++
	default:
		c.TrueNegative++
	}
}

// Total is the number of recorded predictions.
func (c ConfusionMatrix) Total() int {
	return c.TruePositive + c.FalsePositive + c.TrueNegative + c.FalseNegative
}

// Metrics are the held-out evaluation results of a training run.
type Metrics struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1Score   float64         `json:"f1_score"`
	TrainSize int             `json:"train_size"`
	TestSize  int             `json:"test_size"`
	Confusion ConfusionMatrix `json:"confusion"`
}

// MetricsFromConfusion derives the scores. A zero denominator scores 0.
func MetricsFromConfusion(c ConfusionMatrix) Metrics {
	m := Metrics{Confusion: c, TestSize: c.Total()}
	m.Accuracy = ratio(c.TruePositive+c.TrueNegative, c.Total())
	m.Precision = ratio(c.TruePositive, c.TruePositive+c.FalsePositive)
	m.Recall = ratio(c.TruePositive, c.TruePositive+c.FalseNegative)
	if m.Precision+m.Recall > 0 {
		m.F1Score = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
