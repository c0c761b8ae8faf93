// Package heartcheckpb holds the wire contract of heartcheck.v1.PredictionService.
// It stands in for generated protobuf stubs: messages are plain structs sent
// with the JSON codec.
package heartcheckpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "heartcheck.v1.PredictionService"

// Full method names, as seen by interceptors.
const (
	MethodPredict          = "/" + ServiceName + "/Predict"
	MethodPredictBatch     = "/" + ServiceName + "/PredictBatch"
	MethodRetrain          = "/" + ServiceName + "/Retrain"
	MethodRetrainFromStore = "/" + ServiceName + "/RetrainFromStore"
	MethodGetTrainingRun   = "/" + ServiceName + "/GetTrainingRun"
	MethodGetModelInfo     = "/" + ServiceName + "/GetModelInfo"
)

// PredictionServiceServer is the server API for PredictionService.
type PredictionServiceServer interface {
	Predict(context.Context, *PredictRequest) (*Prediction, error)
	PredictBatch(context.Context, *PredictBatchRequest) (*PredictBatchResponse, error)
	Retrain(context.Context, *RetrainRequest) (*TrainingRun, error)
	RetrainFromStore(context.Context, *RetrainFromStoreRequest) (*TrainingRun, error)
	GetTrainingRun(context.Context, *GetTrainingRunRequest) (*TrainingRun, error)
	GetModelInfo(context.Context, *GetModelInfoRequest) (*ModelInfo, error)
	mustEmbedUnimplementedPredictionServiceServer()
}

// UnimplementedPredictionServiceServer provides forward-compatible default implementations.
type UnimplementedPredictionServiceServer struct{}

func (UnimplementedPredictionServiceServer) Predict(context.Context, *PredictRequest) (*Prediction, error) {
	return nil, status.Error(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedPredictionServiceServer) PredictBatch(context.Context, *PredictBatchRequest) (*PredictBatchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PredictBatch not implemented")
}
func (UnimplementedPredictionServiceServer) Retrain(context.Context, *RetrainRequest) (*TrainingRun, error) {
	return nil, status.Error(codes.Unimplemented, "method Retrain not implemented")
}
func (UnimplementedPredictionServiceServer) RetrainFromStore(context.Context, *RetrainFromStoreRequest) (*TrainingRun, error) {
	return nil, status.Error(codes.Unimplemented, "method RetrainFromStore not implemented")
}
func (UnimplementedPredictionServiceServer) GetTrainingRun(context.Context, *GetTrainingRunRequest) (*TrainingRun, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTrainingRun not implemented")
}
func (UnimplementedPredictionServiceServer) GetModelInfo(context.Context, *GetModelInfoRequest) (*ModelInfo, error) {
	return nil, status.Error(codes.Unimplemented, "method GetModelInfo not implemented")
}
func (UnimplementedPredictionServiceServer) mustEmbedUnimplementedPredictionServiceServer() {}

// RegisterPredictionServiceServer registers srv with the gRPC server.
func RegisterPredictionServiceServer(s grpc.ServiceRegistrar, srv PredictionServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PredictionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: unary(MethodPredict, PredictionServiceServer.Predict)},
		{MethodName: "PredictBatch", Handler: unary(MethodPredictBatch, PredictionServiceServer.PredictBatch)},
		{MethodName: "Retrain", Handler: unary(MethodRetrain, PredictionServiceServer.Retrain)},
		{MethodName: "RetrainFromStore", Handler: unary(MethodRetrainFromStore, PredictionServiceServer.RetrainFromStore)},
		{MethodName: "GetTrainingRun", Handler: unary(MethodGetTrainingRun, PredictionServiceServer.GetTrainingRun)},
		{MethodName: "GetModelInfo", Handler: unary(MethodGetModelInfo, PredictionServiceServer.GetModelInfo)},
	},
	Streams: []grpc.StreamDesc{},
}

// unary adapts a typed method to a grpc.MethodDesc handler, running the
// server's interceptor chain when one is installed.
func unary[Req, Resp any](fullMethod string, call func(PredictionServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PredictionServiceServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, r any) (any, error) {
			return call(srv.(PredictionServiceServer), ctx, r.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// PredictionServiceClient is the client API for PredictionService.
type PredictionServiceClient interface {
	Predict(ctx context.Context, in *PredictRequest, opts ...grpc.CallOption) (*Prediction, error)
	PredictBatch(ctx context.Context, in *PredictBatchRequest, opts ...grpc.CallOption) (*PredictBatchResponse, error)
	Retrain(ctx context.Context, in *RetrainRequest, opts ...grpc.CallOption) (*TrainingRun, error)
	RetrainFromStore(ctx context.Context, in *RetrainFromStoreRequest, opts ...grpc.CallOption) (*TrainingRun, error)
	GetTrainingRun(ctx context.Context, in *GetTrainingRunRequest, opts ...grpc.CallOption) (*TrainingRun, error)
	GetModelInfo(ctx context.Context, in *GetModelInfoRequest, opts ...grpc.CallOption) (*ModelInfo, error)
}

type predictionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPredictionServiceClient returns a client that always sends JSON.
func NewPredictionServiceClient(cc grpc.ClientConnInterface) PredictionServiceClient {
	return &predictionServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *predictionServiceClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpc.CallOption) (*Prediction, error) {
	return invoke[Prediction](ctx, c.cc, MethodPredict, in, opts)
}

func (c *predictionServiceClient) PredictBatch(ctx context.Context, in *PredictBatchRequest, opts ...grpc.CallOption) (*PredictBatchResponse, error) {
	return invoke[PredictBatchResponse](ctx, c.cc, MethodPredictBatch, in, opts)
}

func (c *predictionServiceClient) Retrain(ctx context.Context, in *RetrainRequest, opts ...grpc.CallOption) (*TrainingRun, error) {
	return invoke[TrainingRun](ctx, c.cc, MethodRetrain, in, opts)
}

func (c *predictionServiceClient) RetrainFromStore(ctx context.Context, in *RetrainFromStoreRequest, opts ...grpc.CallOption) (*TrainingRun, error) {
	return invoke[TrainingRun](ctx, c.cc, MethodRetrainFromStore, in, opts)
}

func (c *predictionServiceClient) GetTrainingRun(ctx context.Context, in *GetTrainingRunRequest, opts ...grpc.CallOption) (*TrainingRun, error) {
	return invoke[TrainingRun](ctx, c.cc, MethodGetTrainingRun, in, opts)
}

func (c *predictionServiceClient) GetModelInfo(ctx context.Context, in *GetModelInfoRequest, opts ...grpc.CallOption) (*ModelInfo, error) {
	return invoke[ModelInfo](ctx, c.cc, MethodGetModelInfo, in, opts)
}
