// Package proxy is the gateway's client for the prediction service. Calls
// that fail in transport are retried with exponential backoff; errors the
// service reports carry their kind back through the x-error-kind trailer.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	pb "github.com/heartcheck/heartcheck/pkg/heartcheckpb"
	"github.com/heartcheck/heartcheck/pkg/tlsutil"
)

const serviceName = "prediction service"

// RetryConfig bounds the retry loop of one call.
type RetryConfig struct {
	MaxTries        int
	InitialInterval time.Duration
}

// Predictor calls heartcheck.v1.PredictionService.
type Predictor struct {
	client pb.PredictionServiceClient
	health healthpb.HealthClient
	conn   *grpc.ClientConn
	retry  RetryConfig
	logger *slog.Logger
}

// Dial creates a client for the service at addr. The connection is lazy;
// an unreachable service surfaces on the first call.
func Dial(addr string, tlsCfg tlsutil.Config, retry RetryConfig, logger *slog.Logger) (*Predictor, error) {
	creds, err := tlsutil.DialOption(tlsCfg)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(addr, creds)
	if err != nil {
		return nil, fmt.Errorf("dial %s at %s: %w", serviceName, addr, err)
	}
	logger.Info("prediction service client created", "addr", addr)

	p := New(conn, retry, logger)
	p.conn = conn
	return p, nil
}

// New wraps an existing connection.
func New(cc grpc.ClientConnInterface, retry RetryConfig, logger *slog.Logger) *Predictor {
	if retry.MaxTries < 1 {
		retry.MaxTries = 1
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = 100 * time.Millisecond
	}
	return &Predictor{
		client: pb.NewPredictionServiceClient(cc),
		health: healthpb.NewHealthClient(cc),
		retry:  retry,
		logger: logger,
	}
}

// Close closes the underlying connection when Dial created it.
func (p *Predictor) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *Predictor) Predict(ctx context.Context, req *pb.PredictRequest) (*pb.Prediction, error) {
	return call(ctx, p, "Predict", true, func(ctx context.Context, opts ...grpc.CallOption) (*pb.Prediction, error) {
		return p.client.Predict(ctx, req, opts...)
	})
}

func (p *Predictor) PredictBatch(ctx context.Context, req *pb.PredictBatchRequest) (*pb.PredictBatchResponse, error) {
	return call(ctx, p, "PredictBatch", true, func(ctx context.Context, opts ...grpc.CallOption) (*pb.PredictBatchResponse, error) {
		return p.client.PredictBatch(ctx, req, opts...)
	})
}

func (p *Predictor) Retrain(ctx context.Context, req *pb.RetrainRequest) (*pb.TrainingRun, error) {
	return call(ctx, p, "Retrain", false, func(ctx context.Context, opts ...grpc.CallOption) (*pb.TrainingRun, error) {
		return p.client.Retrain(ctx, req, opts...)
	})
}

func (p *Predictor) RetrainFromStore(ctx context.Context, req *pb.RetrainFromStoreRequest) (*pb.TrainingRun, error) {
	return call(ctx, p, "RetrainFromStore", false, func(ctx context.Context, opts ...grpc.CallOption) (*pb.TrainingRun, error) {
		return p.client.RetrainFromStore(ctx, req, opts...)
	})
}

func (p *Predictor) GetTrainingRun(ctx context.Context, req *pb.GetTrainingRunRequest) (*pb.TrainingRun, error) {
	return call(ctx, p, "GetTrainingRun", true, func(ctx context.Context, opts ...grpc.CallOption) (*pb.TrainingRun, error) {
		return p.client.GetTrainingRun(ctx, req, opts...)
	})
}

func (p *Predictor) GetModelInfo(ctx context.Context) (*pb.ModelInfo, error) {
	return call(ctx, p, "GetModelInfo", true, func(ctx context.Context, opts ...grpc.CallOption) (*pb.ModelInfo, error) {
		return p.client.GetModelInfo(ctx, &pb.GetModelInfoRequest{}, opts...)
	})
}

// CheckHealth queries the gRPC health endpoint of the service.
func (p *Predictor) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := p.health.Check(ctx, &healthpb.HealthCheckRequest{Service: pb.ServiceName})
	if err != nil {
		return &apperr.UpstreamUnavailableError{Service: serviceName, Err: err}
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return &apperr.UpstreamUnavailableError{Service: serviceName, Err: fmt.Errorf("status %s", resp.Status)}
	}
	return nil
}

// call runs fn with retries. Only transport failures are retried: a reply
// carrying an error kind came from the service and is final. Non-idempotent
// methods are not retried after a deadline, since the first attempt may
// have run.
func call[T any](ctx context.Context, p *Predictor, method string, idempotent bool, fn func(context.Context, ...grpc.CallOption) (*T, error)) (*T, error) {
	var out *T
	attempt := 0
	op := func() error {
		attempt++
		var trailer metadata.MD
		resp, err := fn(ctx, grpc.Trailer(&trailer))
		if err == nil {
			out = resp
			return nil
		}
		if kinds := trailer.Get(pb.ErrorKindKey); len(kinds) > 0 {
			return backoff.Permanent(apperr.FromKind(apperr.Kind(kinds[0]), status.Convert(err).Message()))
		}
		if !transient(err, idempotent) {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.retry.InitialInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.retry.MaxTries-1)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		p.logger.WarnContext(ctx, "prediction service call failed, retrying",
			"method", method, "attempt", attempt, "wait", wait, "error", err)
	})
	if err == nil {
		return out, nil
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		return nil, err
	}
	if transient(err, true) || errors.Is(err, context.DeadlineExceeded) {
		return nil, &apperr.UpstreamUnavailableError{Service: serviceName, Err: err}
	}
	return nil, err
}

func transient(err error, idempotent bool) bool {
	switch status.Code(err) {
	case codes.Unavailable:
		return true
	case codes.DeadlineExceeded:
		return idempotent
	}
	return false
}
