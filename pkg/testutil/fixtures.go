package testutil

import (
	"bytes"
	"encoding/csv"
	"math"
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// Fixed IDs for deterministic testing.
var (
	TestRunID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestRunID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// ScenarioRecord is the reference patient used across prediction tests.
func ScenarioRecord() model.ClinicalRecord {
	return model.ClinicalRecord{
		"age": 58, "sex": 1, "cp": 0, "trestbps": 140, "chol": 289, "fbs": 0, "restecg": 0,
		"thalach": 172, "exang": 0, "oldpeak": 0.0, "slope": 1, "ca": 0, "thal": 1,
	}
}

// HeartDataset generates n labeled records with realistic ranges. The label is
// drawn from a logistic function of the measurements, so a linear model can
// learn it. The same seed always produces the same dataset.
func HeartDataset(n int, seed int64) *model.Dataset {
	rng := rand.New(rand.NewSource(seed))
	records := make([]model.ClinicalRecord, 0, n)

	for i := 0; i < n; i++ {
		r := model.ClinicalRecord{
			"age":      math.Round(clamp(rng.NormFloat64()*9+54, 29, 77)),
			"sex":      float64(rng.Intn(2)),
			"cp":       float64(rng.Intn(4)),
			"trestbps": math.Round(clamp(rng.NormFloat64()*17+131, 94, 200)),
			"chol":     math.Round(clamp(rng.NormFloat64()*51+246, 126, 564)),
			"fbs":      float64(boolInt(rng.Float64() < 0.15)),
			"restecg":  float64(rng.Intn(3)),
			"thalach":  math.Round(clamp(rng.NormFloat64()*22+149, 71, 202)),
			"exang":    float64(boolInt(rng.Float64() < 0.33)),
			"oldpeak":  math.Round(clamp(rng.ExpFloat64(), 0, 6.2)*10) / 10,
			"slope":    float64(rng.Intn(3)),
			"ca":       float64(rng.Intn(5)),
			"thal":     float64(rng.Intn(4)),
		}

		z := 0.05*(r["age"]-54) + 0.9*boolF(r["cp"] > 0) - 0.04*(r["thalach"]-149) +
			1.2*r["exang"] + 0.8*r["oldpeak"] + 0.5*r["ca"] - 0.6*r["sex"] - 2.0
		p := 1 / (1 + math.Exp(-z))
		r[schema.Label] = float64(boolInt(rng.Float64() < p))

		records = append(records, r)
	}

	return model.NewDataset(schema.Columns(), records)
}

// WithoutColumn returns a copy of ds with one column dropped from the header
// and from every record.
func WithoutColumn(ds *model.Dataset, column string) *model.Dataset {
	cols := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if c != column {
			cols = append(cols, c)
		}
	}
	recs := make([]model.ClinicalRecord, len(ds.Records))
	for i, r := range ds.Records {
		cp := make(model.ClinicalRecord, len(r))
		for k, v := range r {
			if k != column {
				cp[k] = v
			}
		}
		recs[i] = cp
	}
	return model.NewDataset(cols, recs)
}

// CSV renders ds as a csv file with a header row.
func CSV(ds *model.Dataset) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(ds.Columns)
	for _, r := range ds.Records {
		row := make([]string, len(ds.Columns))
		for i, c := range ds.Columns {
			row[i] = strconv.FormatFloat(r[c], 'f', -1, 64)
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolF(b bool) float64 { return float64(boolInt(b)) }
