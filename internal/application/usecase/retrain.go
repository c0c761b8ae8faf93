package usecase

import (
	"bytes"
	"context"
	"fmt"

	"github.com/heartcheck/heartcheck/internal/application/dto"
	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// Retrain is the use case for training on an uploaded dataset. The dataset
// becomes the stored record table.
type Retrain struct {
	pipeline *TrainingPipeline
	reader   port.DatasetReader
}

// NewRetrain creates a new Retrain use case.
func NewRetrain(pipeline *TrainingPipeline, reader port.DatasetReader) *Retrain {
	return &Retrain{pipeline: pipeline, reader: reader}
}

// Execute parses, trains and deploys.
func (uc *Retrain) Execute(ctx context.Context, req dto.RetrainRequest) (dto.TrainingRunResponse, error) {
	if len(req.Data) == 0 {
		return dto.TrainingRunResponse{}, &apperr.InsufficientDataError{Reason: "empty upload"}
	}

	format, err := valueobject.DetectDatasetFormat(req.Format, req.Filename, req.ContentType)
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}

	source := "upload"
	if req.Filename != "" {
		source = "upload:" + req.Filename
	}
	opts, err := uc.pipeline.options(req.ModelKind, req.Policy, source, true)
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}

	release, err := uc.pipeline.acquire()
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}
	defer release()

	ds, err := uc.reader.Read(ctx, bytes.NewReader(req.Data), format)
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}
	return uc.pipeline.run(ctx, ds, opts)
}

// RetrainFromStore is the use case for retraining on the stored records, for
// instance after changing the model family.
type RetrainFromStore struct {
	pipeline *TrainingPipeline
}

// NewRetrainFromStore creates a new RetrainFromStore use case.
func NewRetrainFromStore(pipeline *TrainingPipeline) *RetrainFromStore {
	return &RetrainFromStore{pipeline: pipeline}
}

// Execute loads every stored record and runs the pipeline without touching
// the record table.
func (uc *RetrainFromStore) Execute(ctx context.Context, req dto.RetrainFromStoreRequest) (dto.TrainingRunResponse, error) {
	opts, err := uc.pipeline.options(req.ModelKind, req.Policy, "store", false)
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}

	release, err := uc.pipeline.acquire()
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}
	defer release()

	records, err := uc.pipeline.deps.Records.LoadAll(ctx)
	if err != nil {
		return dto.TrainingRunResponse{}, fmt.Errorf("failed to load records: %w", err)
	}
	if len(records) == 0 {
		return dto.TrainingRunResponse{}, &apperr.InsufficientDataError{Reason: "the record store is empty"}
	}

	ds := model.NewDataset(recordColumns(records), records)
	return uc.pipeline.run(ctx, ds, opts)
}

// recordColumns is the union of field names across records, in first-seen order.
func recordColumns(records []model.ClinicalRecord) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range records {
		for _, f := range r.Fields() {
			if !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	return cols
}
