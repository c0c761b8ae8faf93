package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	pb "github.com/heartcheck/heartcheck/pkg/heartcheckpb"
)

var errEmptyBody = errors.New("request body is empty")

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// readJSON reads and unmarshals a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// httpStatusForKind maps an error kind to the HTTP status returned to callers.
func httpStatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindSchemaValidation, apperr.KindUnknownCategory, apperr.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case apperr.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRetrainInProgress:
		return http.StatusConflict
	case apperr.KindNotReady, apperr.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// grpcToHTTPStatus maps status codes that arrive without an error kind,
// such as auth rejections from the service's interceptors.
func grpcToHTTPStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	code := httpStatusForKind(kind)
	msg := err.Error()

	if st, ok := status.FromError(err); ok && kind == apperr.KindInternal {
		code = grpcToHTTPStatus(st.Code())
		msg = st.Message()
		kind = apperr.Kind(st.Code().String())
	}

	if code >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "kind", kind, "error", err)
		if kind == apperr.KindInternal {
			msg = "internal error"
		}
	}
	if code == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	w.Header().Set(pb.ErrorKindKey, string(kind))
	writeJSON(w, code, ErrorResponse{Status: "error", Kind: string(kind), Message: msg})
}
