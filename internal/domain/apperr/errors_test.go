package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidationError_Message(t *testing.T) {
	err := &SchemaValidationError{Missing: []string{"thal"}}
	assert.Equal(t, "Missing required columns: thal", err.Error())

	err = &SchemaValidationError{Missing: []string{"ca", "thal"}, Extra: []string{"notes"}}
	assert.Equal(t, "Missing required columns: ca, thal; Unexpected columns: notes", err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "schema", err: &SchemaValidationError{Missing: []string{"age"}}, want: KindSchemaValidation},
		{name: "wrapped format", err: fmt.Errorf("parse: %w", &UnsupportedFormatError{Format: "txt"}), want: KindUnsupportedFormat},
		{name: "category", err: &UnknownCategoryError{Field: "thal", Value: 9}, want: KindUnknownCategory},
		{name: "artifact", err: &ArtifactCorruptError{Artifact: "model.bin"}, want: KindArtifactCorrupt},
		{name: "upstream", err: &UpstreamUnavailableError{Service: "predictor"}, want: KindUpstreamUnavailable},
		{name: "not ready", err: fmt.Errorf("predict: %w", ErrEngineNotReady), want: KindNotReady},
		{name: "busy", err: ErrRetrainInProgress, want: KindRetrainInProgress},
		{name: "malformed upload", err: &MalformedDatasetError{Format: "json", Err: errors.New("eof")}, want: KindInvalidArgument},
		{name: "plain", err: errors.New("boom"), want: KindInternal},
		{name: "rebuilt", err: FromKind(KindUnknownCategory, "x"), want: KindUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKindClassification(t *testing.T) {
	assert.True(t, KindSchemaValidation.Client())
	assert.True(t, KindUnknownCategory.Client())
	assert.False(t, KindArtifactCorrupt.Client())
	assert.True(t, KindUpstreamUnavailable.Retryable())
	assert.False(t, KindSchemaValidation.Retryable())
}

func TestUnknownCategoryError_Message(t *testing.T) {
	err := &UnknownCategoryError{Field: "thal", Value: 9}
	assert.Equal(t, "unknown category 9 for field thal", err.Error())
}

func TestArtifactCorruptError_Unwrap(t *testing.T) {
	cause := errors.New("checksum mismatch")
	err := &ArtifactCorruptError{Artifact: "encoders.json", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "encoders.json")
}

func TestMalformedDatasetError(t *testing.T) {
	cause := errors.New("bare \" in non-quoted-field")
	err := &MalformedDatasetError{Format: "csv", Err: cause}
	assert.Equal(t, "malformed csv file: bare \" in non-quoted-field", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, KindOf(err).Client())
}
