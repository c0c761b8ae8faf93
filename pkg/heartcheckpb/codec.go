package heartcheckpb

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype negotiated on the wire.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec lets clients and servers exchange the plain Go message types in
// this package without generated protobuf code.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                       { return CodecName }

// CallOption forces the JSON codec on a client call.
func CallOption() grpc.CallOption {
	return grpc.ForceCodecCallOption{Codec: JSONCodec{}}
}
