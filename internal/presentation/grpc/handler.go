package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heartcheck/heartcheck/internal/application/dto"
	"github.com/heartcheck/heartcheck/internal/application/usecase"
	pb "github.com/heartcheck/heartcheck/pkg/heartcheckpb"
)

// Compile-time assertion that PredictionServiceHandler implements PredictionServiceServer.
var _ pb.PredictionServiceServer = (*PredictionServiceHandler)(nil)

// UseCases are the application operations exposed over gRPC.
type UseCases struct {
	Predict          *usecase.Predict
	PredictBatch     *usecase.PredictBatch
	Retrain          *usecase.Retrain
	RetrainFromStore *usecase.RetrainFromStore
	GetTrainingRun   *usecase.GetTrainingRun
	GetModelInfo     *usecase.GetModelInfo
}

// PredictionServiceHandler implements the gRPC PredictionServiceServer interface.
type PredictionServiceHandler struct {
	pb.UnimplementedPredictionServiceServer
	uc     UseCases
	logger *slog.Logger
}

// NewPredictionServiceHandler creates a new gRPC handler.
func NewPredictionServiceHandler(uc UseCases, logger *slog.Logger) *PredictionServiceHandler {
	return &PredictionServiceHandler{uc: uc, logger: logger}
}

// Predict handles a single prediction.
func (h *PredictionServiceHandler) Predict(ctx context.Context, req *pb.PredictRequest) (*pb.Prediction, error) {
	if req == nil || req.Record == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}

	resp, err := h.uc.Predict.Execute(ctx, dto.PredictRequest{Record: dto.Record(req.Record)})
	if err != nil {
		return nil, h.toStatus(ctx, "Predict", err)
	}
	out := toPrediction(resp)
	return &out, nil
}

// PredictBatch handles a batch of predictions against one model.
func (h *PredictionServiceHandler) PredictBatch(ctx context.Context, req *pb.PredictBatchRequest) (*pb.PredictBatchResponse, error) {
	if req == nil || len(req.Records) == 0 {
		return nil, status.Error(codes.InvalidArgument, "records are required")
	}

	records := make([]dto.Record, len(req.Records))
	for i, r := range req.Records {
		records[i] = dto.Record(r)
	}
	resp, err := h.uc.PredictBatch.Execute(ctx, dto.PredictBatchRequest{Records: records})
	if err != nil {
		return nil, h.toStatus(ctx, "PredictBatch", err)
	}

	out := &pb.PredictBatchResponse{Results: make([]pb.Prediction, len(resp.Results))}
	for i, r := range resp.Results {
		out.Results[i] = toPrediction(r)
	}
	return out, nil
}

// Retrain trains on an uploaded dataset and deploys the result.
func (h *PredictionServiceHandler) Retrain(ctx context.Context, req *pb.RetrainRequest) (*pb.TrainingRun, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	h.logger.InfoContext(ctx, "retrain requested",
		slog.String("filename", req.Filename),
		slog.Int("bytes", len(req.Data)),
	)
	resp, err := h.uc.Retrain.Execute(ctx, dto.RetrainRequest{
		Data:        req.Data,
		Format:      req.Format,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		ModelKind:   req.ModelKind,
		Policy:      req.Policy,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "Retrain", err)
	}
	return toTrainingRun(resp), nil
}

// RetrainFromStore retrains on the stored records.
func (h *PredictionServiceHandler) RetrainFromStore(ctx context.Context, req *pb.RetrainFromStoreRequest) (*pb.TrainingRun, error) {
	if req == nil {
		req = &pb.RetrainFromStoreRequest{}
	}

	resp, err := h.uc.RetrainFromStore.Execute(ctx, dto.RetrainFromStoreRequest{ModelKind: req.ModelKind, Policy: req.Policy})
	if err != nil {
		return nil, h.toStatus(ctx, "RetrainFromStore", err)
	}
	return toTrainingRun(resp), nil
}

// GetTrainingRun returns one run, or the latest.
func (h *PredictionServiceHandler) GetTrainingRun(ctx context.Context, req *pb.GetTrainingRunRequest) (*pb.TrainingRun, error) {
	if req == nil {
		req = &pb.GetTrainingRunRequest{}
	}

	resp, err := h.uc.GetTrainingRun.Execute(ctx, dto.GetTrainingRunRequest{ID: req.ID})
	if err != nil {
		return nil, h.toStatus(ctx, "GetTrainingRun", err)
	}
	return toTrainingRun(resp), nil
}

// GetModelInfo describes the served model.
func (h *PredictionServiceHandler) GetModelInfo(ctx context.Context, _ *pb.GetModelInfoRequest) (*pb.ModelInfo, error) {
	resp, err := h.uc.GetModelInfo.Execute(ctx)
	if err != nil {
		return nil, h.toStatus(ctx, "GetModelInfo", err)
	}

	out := &pb.ModelInfo{
		State:       resp.State,
		ModelKind:   resp.ModelKind,
		LoadedAt:    resp.LoadedAt,
		LastError:   resp.LastError,
		RecordCount: resp.RecordCount,
		Fields:      make([]pb.Field, len(resp.Fields)),
	}
	if resp.RunID != nil {
		out.RunID = resp.RunID.String()
	}
	if resp.Metrics != nil {
		m := pb.Metrics(*resp.Metrics)
		out.Metrics = &m
	}
	for i, f := range resp.Fields {
		out.Fields[i] = pb.Field(f)
	}
	return out, nil
}

func toPrediction(r dto.PredictionResponse) pb.Prediction {
	return pb.Prediction{
		Prediction:  r.Prediction,
		Probability: r.Probability,
		RiskTier:    r.RiskTier,
		Message:     r.Message,
		Urgent:      r.Urgent,
		ModelRunID:  r.ModelRunID.String(),
	}
}

func toTrainingRun(r dto.TrainingRunResponse) *pb.TrainingRun {
	return &pb.TrainingRun{
		Status:         r.Status,
		Message:        r.Message,
		ID:             r.ID.String(),
		RunStatus:      r.RunStatus,
		ModelKind:      r.ModelKind,
		Policy:         r.Policy,
		Source:         r.Source,
		Failure:        r.Failure,
		Metrics:        pb.Metrics(r.Metrics),
		RecordsUsed:    r.RecordsUsed,
		ReusedEncoders: r.ReusedEncoders,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
	}
}
