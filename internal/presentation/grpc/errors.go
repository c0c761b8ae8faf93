package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	pb "github.com/heartcheck/heartcheck/pkg/heartcheckpb"
)

// codeForKind maps an error kind to the gRPC status code sent to clients.
func codeForKind(kind apperr.Kind) codes.Code {
	switch kind {
	case apperr.KindSchemaValidation, apperr.KindUnsupportedFormat, apperr.KindUnknownCategory,
		apperr.KindInsufficientData, apperr.KindInvalidArgument:
		return codes.InvalidArgument
	case apperr.KindNotFound:
		return codes.NotFound
	case apperr.KindNotReady, apperr.KindUpstreamUnavailable:
		return codes.Unavailable
	case apperr.KindRetrainInProgress:
		return codes.Aborted
	case apperr.KindArtifactCorrupt:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}

// toStatus converts a use case error into a status error and records its
// kind in the response trailer so the gateway can rebuild it.
func (h *PredictionServiceHandler) toStatus(ctx context.Context, method string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	kind := apperr.KindOf(err)
	if terr := grpc.SetTrailer(ctx, metadata.Pairs(pb.ErrorKindKey, string(kind))); terr != nil {
		h.logger.DebugContext(ctx, "failed to set error trailer", "error", terr)
	}

	msg := err.Error()
	switch {
	case kind == apperr.KindInternal:
		h.logger.ErrorContext(ctx, "request failed", slog.String("method", method), slog.String("error", msg))
		msg = "internal error"
	case kind.Client():
		h.logger.InfoContext(ctx, "request rejected", slog.String("method", method), slog.String("kind", string(kind)), slog.String("error", msg))
	default:
		h.logger.WarnContext(ctx, "request failed", slog.String("method", method), slog.String("kind", string(kind)), slog.String("error", msg))
	}
	return status.Error(codeForKind(kind), msg)
}
