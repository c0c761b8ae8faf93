package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// ArtifactName is the file the model is persisted under.
const ArtifactName = "model.bin"

const envelopeVersion = 1

type envelope struct {
	Version int
	Kind    string
	Payload []byte
}

// GobCodec serializes models as a gob envelope naming the model family.
type GobCodec struct{}

// NewCodec returns the default model codec.
func NewCodec() GobCodec { return GobCodec{} }

func (GobCodec) Encode(m port.TrainedModel) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(m); err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}

	var out bytes.Buffer
	err := gob.NewEncoder(&out).Encode(envelope{Version: envelopeVersion, Kind: m.Kind().String(), Payload: payload.Bytes()})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out.Bytes(), nil
}

func (GobCodec) Decode(data []byte) (port.TrainedModel, error) {
	corrupt := func(reason string, err error) error {
		return &apperr.ArtifactCorruptError{Artifact: ArtifactName, Reason: reason, Err: err}
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, corrupt("bad envelope", err)
	}
	if env.Version != envelopeVersion {
		return nil, corrupt(fmt.Sprintf("unsupported version %d", env.Version), nil)
	}
	kind, err := valueobject.ModelKindFromString(env.Kind)
	if err != nil {
		return nil, corrupt("", err)
	}

	var m port.TrainedModel
	switch kind {
	case valueobject.ModelKindLogistic:
		lr := &LogisticRegression{}
		err = gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(lr)
		m = lr
	case valueobject.ModelKindNearestCentroid:
		nc := &NearestCentroid{}
		err = gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(nc)
		if err == nil && len(nc.Negative) != len(nc.Positive) {
			err = fmt.Errorf("centroid dimensions differ")
		}
		m = nc
	}
	if err != nil {
		return nil, corrupt("bad "+kind.String()+" payload", err)
	}
	return m, nil
}

// NewTrainer returns the trainer for kind.
func NewTrainer(kind valueobject.ModelKind) (port.ModelTrainer, error) {
	switch kind {
	case valueobject.ModelKindLogistic:
		return NewLogisticTrainer(), nil
	case valueobject.ModelKindNearestCentroid:
		return CentroidTrainer{}, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", kind)
	}
}
