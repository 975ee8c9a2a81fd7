package codec

import "google.golang.org/protobuf/proto"

// Protobuf decodes payloads into freshly constructed messages of type T.
type Protobuf[T proto.Message] struct {
	new func() T
}

// NewProtobuf takes the message constructor, e.g.
// func() *meshpb.Mesh { return &meshpb.Mesh{} }.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	if err := proto.Unmarshal(b, m); err != nil {
		var zero T
		return zero, err
	}
	return m, nil
}
