package service

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// Preprocessed is the model-ready form of a labeled dataset.
type Preprocessed struct {
	Features *mat.Dense
	Labels   []int
	Encoders *encoding.Store

	// ReusedEncoders is set when categorical encoders came from a prior run.
	ReusedEncoders bool
}

// Preprocessor turns a raw dataset into a feature matrix. Numeric scalers are
// always refit from the dataset at hand; categorical encoders follow the policy.
type Preprocessor struct {
	policy valueobject.CategoricalPolicy
}

// NewPreprocessor creates a Preprocessor with the given categorical policy.
func NewPreprocessor(policy valueobject.CategoricalPolicy) *Preprocessor {
	return &Preprocessor{policy: policy}
}

// Policy returns the categorical policy.
func (p *Preprocessor) Policy() valueobject.CategoricalPolicy { return p.policy }

// Preprocess validates ds, fits or reuses encoders and transforms every row.
// existing is the previously persisted store, or nil. Nothing is persisted here;
// the returned store is committed together with the model it was used to train.
func (p *Preprocessor) Preprocess(ds *model.Dataset, existing *encoding.Store) (*Preprocessed, error) {
	if err := ds.Validate(true); err != nil {
		return nil, err
	}

	scalers, err := encoding.FitScalers(ds)
	if err != nil {
		return nil, fmt.Errorf("fit scalers: %w", err)
	}

	var (
		store  *encoding.Store
		reused bool
	)
	if existing != nil && p.policy.Equal(valueobject.CategoricalPolicyReuse) {
		store, err = existing.WithScalers(scalers)
		reused = true
	} else {
		var cats map[string]*encoding.CategoryEncoder
		cats, err = encoding.FitCategories(ds)
		if err == nil {
			store, err = encoding.NewStore(cats, scalers)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build encoder store: %w", err)
	}

	features := mat.NewDense(ds.Len(), schema.Width, nil)
	for i, rec := range ds.Records {
		if err := store.TransformInto(features.RawRowView(i), rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	return &Preprocessed{
		Features:       features,
		Labels:         ds.Labels(),
		Encoders:       store,
		ReusedEncoders: reused,
	}, nil
}
