package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/application/dto"
	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/service"
)

// GetTrainingRun is the use case for reading training history.
type GetTrainingRun struct {
	runs port.TrainingRunRepository
}

// NewGetTrainingRun creates a new GetTrainingRun use case.
func NewGetTrainingRun(runs port.TrainingRunRepository) *GetTrainingRun {
	return &GetTrainingRun{runs: runs}
}

// Execute returns the run with the given ID, or the latest run.
func (uc *GetTrainingRun) Execute(ctx context.Context, req dto.GetTrainingRunRequest) (dto.TrainingRunResponse, error) {
	var (
		run *model.TrainingRun
		err error
	)
	if req.ID == "" || req.ID == "latest" {
		run, err = uc.runs.FindLatest(ctx)
	} else {
		id, perr := uuid.Parse(req.ID)
		if perr != nil {
			return dto.TrainingRunResponse{}, apperr.InvalidArgument("invalid training run id %q", req.ID)
		}
		run, err = uc.runs.FindByID(ctx, id)
	}
	if err != nil {
		return dto.TrainingRunResponse{}, err
	}
	return dto.FromTrainingRun(run), nil
}

// GetModelInfo is the use case for describing the served model.
type GetModelInfo struct {
	holder  *service.EngineHolder
	records port.RecordStore
}

// NewGetModelInfo creates a new GetModelInfo use case.
func NewGetModelInfo(holder *service.EngineHolder, records port.RecordStore) *GetModelInfo {
	return &GetModelInfo{holder: holder, records: records}
}

// Execute reports the engine state, the served run and the stored record count.
func (uc *GetModelInfo) Execute(ctx context.Context) (dto.ModelInfoResponse, error) {
	status := uc.holder.Status()
	resp := dto.ModelInfoResponse{
		State:     string(status.State),
		LastError: status.LastError,
		Fields:    dto.SchemaFields(),
	}

	if engine, err := uc.holder.Current(); err == nil {
		runID := engine.RunID()
		loadedAt := engine.LoadedAt()
		metrics := dto.FromMetrics(engine.Metrics())
		resp.RunID = &runID
		resp.ModelKind = engine.Model().Kind().String()
		resp.LoadedAt = &loadedAt
		resp.Metrics = &metrics
	}

	n, err := uc.records.Count(ctx)
	if err != nil {
		return dto.ModelInfoResponse{}, fmt.Errorf("failed to count records: %w", err)
	}
	resp.RecordCount = n
	return resp, nil
}

// GetReport is the use case for fetching the latest training report image.
type GetReport struct {
	artifacts port.ArtifactStore
}

// NewGetReport creates a new GetReport use case.
func NewGetReport(artifacts port.ArtifactStore) *GetReport {
	return &GetReport{artifacts: artifacts}
}

// Execute returns PNG bytes or apperr.ErrNotFound.
func (uc *GetReport) Execute(ctx context.Context) ([]byte, error) {
	return uc.artifacts.Report(ctx)
}
