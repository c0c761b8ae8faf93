// Package apperr defines the error kinds shared by every layer. Each error
// carries a stable kind string so transports can map it without parsing text.
package apperr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is a stable, machine-readable error classification.
type Kind string

const (
	KindSchemaValidation    Kind = "schema_validation"
	KindUnsupportedFormat   Kind = "unsupported_format"
	KindUnknownCategory     Kind = "unknown_category"
	KindArtifactCorrupt     Kind = "artifact_corrupt"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindNotReady            Kind = "not_ready"
	KindRetrainInProgress   Kind = "retrain_in_progress"
	KindInsufficientData    Kind = "insufficient_data"
	KindNotFound            Kind = "not_found"
	KindInvalidArgument     Kind = "invalid_argument"
	KindInternal            Kind = "internal"
)

// Client reports whether errors of this kind are the caller's fault.
func (k Kind) Client() bool {
	switch k {
	case KindSchemaValidation, KindUnsupportedFormat, KindUnknownCategory, KindInsufficientData, KindInvalidArgument:
		return true
	}
	return false
}

// Retryable reports whether the same request may succeed later unchanged.
func (k Kind) Retryable() bool {
	switch k {
	case KindUpstreamUnavailable, KindNotReady, KindRetrainInProgress:
		return true
	}
	return false
}

var (
	ErrEngineNotReady    = &kindError{kind: KindNotReady, msg: "prediction engine is not ready"}
	ErrRetrainInProgress = &kindError{kind: KindRetrainInProgress, msg: "a retrain is already in progress"}
	ErrNotFound          = &kindError{kind: KindNotFound, msg: "not found"}
)

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() Kind    { return e.kind }

// InvalidArgument reports a malformed request option.
func InvalidArgument(format string, args ...any) error {
	return &kindError{kind: KindInvalidArgument, msg: fmt.Sprintf(format, args...)}
}

// SchemaValidationError lists every field problem found in one pass.
type SchemaValidationError struct {
	Missing []string
	Extra   []string
	Invalid []string
}

func (e *SchemaValidationError) Kind() Kind { return KindSchemaValidation }

func (e *SchemaValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "Unexpected columns: "+strings.Join(e.Extra, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Invalid values in columns: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "schema validation failed"
	}
	return strings.Join(parts, "; ")
}

// Empty reports whether no problem was recorded.
func (e *SchemaValidationError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Extra) == 0 && len(e.Invalid) == 0
}

// UnsupportedFormatError is returned for dataset formats other than csv, xlsx and json.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Kind() Kind { return KindUnsupportedFormat }

func (e *UnsupportedFormatError) Error() string {
	if e.Format == "" {
		return "Unsupported file format"
	}
	return "Unsupported file format: " + e.Format
}

// UnknownCategoryError is returned when a categorical value was never seen
// when the encoder was fitted.
type UnknownCategoryError struct {
	Field string
	Value float64
}

func (e *UnknownCategoryError) Kind() Kind { return KindUnknownCategory }

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %s for field %s", strconv.FormatFloat(e.Value, 'g', -1, 64), e.Field)
}

// MalformedDatasetError is returned when an uploaded file cannot be parsed
// as the format it was declared or detected as.
type MalformedDatasetError struct {
	Format string
	Err    error
}

func (e *MalformedDatasetError) Kind() Kind { return KindInvalidArgument }

func (e *MalformedDatasetError) Error() string {
	return "malformed " + e.Format + " file: " + e.Err.Error()
}

func (e *MalformedDatasetError) Unwrap() error { return e.Err }

// ArtifactCorruptError means persisted training artifacts are missing,
// incomplete or inconsistent with each other.
type ArtifactCorruptError struct {
	Artifact string
	Reason   string
	Err      error
}

func (e *ArtifactCorruptError) Kind() Kind { return KindArtifactCorrupt }

func (e *ArtifactCorruptError) Error() string {
	msg := "artifact " + e.Artifact + " is corrupt"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArtifactCorruptError) Unwrap() error { return e.Err }

// UpstreamUnavailableError wraps a transport failure talking to another service.
type UpstreamUnavailableError struct {
	Service string
	Err     error
}

func (e *UpstreamUnavailableError) Kind() Kind { return KindUpstreamUnavailable }

func (e *UpstreamUnavailableError) Error() string {
	if e.Err == nil {
		return e.Service + " is unavailable"
	}
	return e.Service + " is unavailable: " + e.Err.Error()
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// InsufficientDataError is returned when a dataset cannot be split or fitted.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Kind() Kind { return KindInsufficientData }

func (e *InsufficientDataError) Error() string {
	return "insufficient training data: " + e.Reason
}

type kinded interface {
	Kind() Kind
}

// KindOf classifies err by the first error in its chain that carries a kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// FromKind rebuilds a kinded error from a kind and message received over the wire.
func FromKind(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
