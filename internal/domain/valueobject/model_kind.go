package valueobject

import "fmt"

// ModelKind names a classifier family the trainer can fit.
type ModelKind struct {
	value string
}

var (
	ModelKindLogistic        = ModelKind{value: "logistic_regression"}
	ModelKindNearestCentroid = ModelKind{value: "nearest_centroid"}
)

// ModelKindFromString reconstructs a ModelKind.
func ModelKindFromString(s string) (ModelKind, error) {
	switch s {
	case "logistic_regression", "logistic":
		return ModelKindLogistic, nil
	case "nearest_centroid", "centroid":
		return ModelKindNearestCentroid, nil
	default:
		return ModelKind{}, fmt.Errorf("invalid model kind: %s", s)
	}
}

func (k ModelKind) String() string             { return k.value }
func (k ModelKind) IsZero() bool               { return k.value == "" }
func (k ModelKind) Equal(other ModelKind) bool { return k.value == other.value }

// CategoricalPolicy decides whether a retrain reuses the persisted category
// encoders or refits them from the new dataset.
type CategoricalPolicy struct {
	value string
}

var (
	CategoricalPolicyReuse = CategoricalPolicy{value: "reuse"}
	CategoricalPolicyRefit = CategoricalPolicy{value: "refit"}
)

// CategoricalPolicyFromString reconstructs a CategoricalPolicy. Empty means reuse.
func CategoricalPolicyFromString(s string) (CategoricalPolicy, error) {
	switch s {
	case "", "reuse":
		return CategoricalPolicyReuse, nil
	case "refit":
		return CategoricalPolicyRefit, nil
	default:
		return CategoricalPolicy{}, fmt.Errorf("invalid categorical policy: %s", s)
	}
}

func (p CategoricalPolicy) String() string                     { return p.value }
func (p CategoricalPolicy) Equal(other CategoricalPolicy) bool { return p.value == other.value }
