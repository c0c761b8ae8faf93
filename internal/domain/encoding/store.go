// Package encoding holds the fitted transformations that turn a clinical
// record into a model input vector. The same Store is used at training and at
// serving time, which is what keeps the two consistent.
package encoding

import (
	"encoding/json"
	"fmt"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
)

// FormatVersion is bumped whenever the persisted layout changes.
const FormatVersion = 1

// ArtifactName is the file name the store is persisted under.
const ArtifactName = "encoders.json"

// Store is immutable once built.
type Store struct {
	categories map[string]*CategoryEncoder
	scalers    map[string]Scaler
}

// FitCategories fits one encoder per categorical schema field.
func FitCategories(ds *model.Dataset) (map[string]*CategoryEncoder, error) {
	out := make(map[string]*CategoryEncoder)
	for _, name := range schema.CategoricalFields() {
		enc, err := FitCategory(name, ds.Column(name))
		if err != nil {
			return nil, err
		}
		out[name] = enc
	}
	return out, nil
}

// FitScalers fits one scaler per numeric schema field.
func FitScalers(ds *model.Dataset) (map[string]Scaler, error) {
	out := make(map[string]Scaler)
	for _, name := range schema.NumericFields() {
		s, err := FitScaler(name, ds.Column(name))
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}

// NewStore assembles a store and checks it covers the whole schema.
func NewStore(categories map[string]*CategoryEncoder, scalers map[string]Scaler) (*Store, error) {
	s := &Store{categories: categories, scalers: scalers}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Fit fits every encoder and scaler from ds.
func Fit(ds *model.Dataset) (*Store, error) {
	cats, err := FitCategories(ds)
	if err != nil {
		return nil, fmt.Errorf("fit category encoders: %w", err)
	}
	scalers, err := FitScalers(ds)
	if err != nil {
		return nil, fmt.Errorf("fit scalers: %w", err)
	}
	return NewStore(cats, scalers)
}

// WithScalers returns a copy of s using scalers for the numeric fields.
func (s *Store) WithScalers(scalers map[string]Scaler) (*Store, error) {
	return NewStore(s.categories, scalers)
}

// Validate reports a store that does not cover every schema field.
func (s *Store) Validate() error {
	for _, f := range schema.Fields() {
		switch f.Kind {
		case schema.Categorical:
			enc, ok := s.categories[f.Name]
			if !ok || enc == nil || len(enc.classes) == 0 {
				return &apperr.ArtifactCorruptError{Artifact: ArtifactName, Reason: "no encoder for " + f.Name}
			}
		case schema.Numeric:
			sc, ok := s.scalers[f.Name]
			if !ok || !sc.valid() {
				return &apperr.ArtifactCorruptError{Artifact: ArtifactName, Reason: "no scaler for " + f.Name}
			}
		}
	}
	return nil
}

// Transform turns a validated record into a vector in schema order:
// numeric fields imputed and standardized, categorical fields replaced by codes.
func (s *Store) Transform(rec model.ClinicalRecord) ([]float64, error) {
	out := make([]float64, schema.Width)
	if err := s.TransformInto(out, rec); err != nil {
		return nil, err
	}
	return out, nil
}

// TransformInto writes into dst, which must have length schema.Width.
func (s *Store) TransformInto(dst []float64, rec model.ClinicalRecord) error {
	if len(dst) != schema.Width {
		return fmt.Errorf("transform: destination has %d columns, want %d", len(dst), schema.Width)
	}
	for i, f := range schema.Fields() {
		v, ok := rec[f.Name]
		if !ok {
			return &apperr.SchemaValidationError{Missing: []string{f.Name}}
		}
		switch f.Kind {
		case schema.Numeric:
			dst[i] = s.scalers[f.Name].Apply(v)
		case schema.Categorical:
			code, err := s.categories[f.Name].Encode(v)
			if err != nil {
				return err
			}
			dst[i] = float64(code)
		}
	}
	return nil
}

// Encode returns the code of a categorical value.
func (s *Store) Encode(field string, v float64) (int, error) {
	enc, ok := s.categories[field]
	if !ok {
		return 0, fmt.Errorf("field %s is not categorical", field)
	}
	return enc.Encode(v)
}

// Decode returns the original value of a categorical code.
func (s *Store) Decode(field string, code int) (float64, error) {
	enc, ok := s.categories[field]
	if !ok {
		return 0, fmt.Errorf("field %s is not categorical", field)
	}
	return enc.Decode(code)
}

// Category returns the encoder for field.
func (s *Store) Category(field string) (*CategoryEncoder, bool) {
	enc, ok := s.categories[field]
	return enc, ok
}

// Scaler returns the scaler for field.
func (s *Store) Scaler(field string) (Scaler, bool) {
	sc, ok := s.scalers[field]
	return sc, ok
}

type storeFile struct {
	Version     int                `json:"version"`
	Categorical map[string][]int64 `json:"categorical"`
	Numeric     map[string]Scaler  `json:"numeric"`
}

// Marshal serializes the store as one JSON document.
func (s *Store) Marshal() ([]byte, error) {
	f := storeFile{
		Version:     FormatVersion,
		Categorical: make(map[string][]int64, len(s.categories)),
		Numeric:     s.scalers,
	}
	for name, enc := range s.categories {
		f.Categorical[name] = enc.classes
	}
	return json.MarshalIndent(f, "", "  ")
}

// Unmarshal restores a store. Anything short of a complete, consistent store
// is reported as ArtifactCorruptError.
func Unmarshal(data []byte) (*Store, error) {
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &apperr.ArtifactCorruptError{Artifact: ArtifactName, Err: err}
	}
	if f.Version != FormatVersion {
		return nil, &apperr.ArtifactCorruptError{Artifact: ArtifactName, Reason: fmt.Sprintf("unsupported version %d", f.Version)}
	}

	cats := make(map[string]*CategoryEncoder, len(f.Categorical))
	for name, classes := range f.Categorical {
		enc, err := newCategoryEncoder(name, classes)
		if err != nil {
			return nil, &apperr.ArtifactCorruptError{Artifact: ArtifactName, Err: err}
		}
		cats[name] = enc
	}
	return NewStore(cats, f.Numeric)
}
