package codec

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type material struct {
	Name     string             `json:"name" cbor:"name" msgpack:"name"`
	Textures []string           `json:"textures" cbor:"textures" msgpack:"textures"`
	Params   map[string]float64 `json:"params" cbor:"params" msgpack:"params"`
}

func TestCBORDeterministicIsStable(t *testing.T) {
	c := MustCBOR[material](true)
	m := material{Name: "brick", Params: map[string]float64{"z": 1, "a": 2, "m": 3}}

	first, err := c.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := c.Encode(m)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding produced different bytes on run %d", i)
		}
	}
}

func TestCBORRejectsDuplicateMapKeys(t *testing.T) {
	c := MustCBOR[map[string]int](false)
	// {"a": 1, "a": 2}
	raw := []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}
	if _, err := c.Decode(raw); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestMsgpackDecodesTaggedFields(t *testing.T) {
	var c Msgpack[material]
	b, err := c.Encode(material{Name: "glass", Textures: []string{"glass.png"}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "glass" || len(got.Textures) != 1 || got.Textures[0] != "glass.png" {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestProtobufDecodesIntoFreshMessage(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := proto.Marshal(wrapperspb.String("shader.vert"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if a.GetValue() != "shader.vert" {
		t.Fatalf("got %q", a.GetValue())
	}
	if a == bb {
		t.Fatalf("expected distinct message instances per Decode")
	}
}

func TestProtobufDecodeErrorReturnsZero(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	got, err := c.Decode([]byte{0xff, 0xff, 0xff})
	if err == nil {
		t.Fatalf("expected error on garbage input")
	}
	if got != nil {
		t.Fatalf("expected nil message on error")
	}
}

func TestMaxSize(t *testing.T) {
	c := MaxSize[string]{Inner: String{}, Max: 4}
	if v, err := c.Decode([]byte("abcd")); err != nil || v != "abcd" {
		t.Fatalf("within limit: v=%q err=%v", v, err)
	}
	if _, err := c.Decode([]byte("abcde")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	unlimited := MaxSize[string]{Inner: String{}}
	if _, err := unlimited.Decode(bytes.Repeat([]byte("x"), 1<<16)); err != nil {
		t.Fatalf("Max=0 should disable the check: %v", err)
	}
}

func TestDecodeFunc(t *testing.T) {
	lines := DecodeFunc[int](func(b []byte) (int, error) {
		return bytes.Count(b, []byte("\n")), nil
	})
	n, err := lines.Decode([]byte("v 0 0 0\nv 1 0 0\nf 1 2\n"))
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := lines.Encode(3); !errors.Is(err, ErrEncodeUnsupported) {
		t.Fatalf("expected ErrEncodeUnsupported, got %v", err)
	}
}

func TestJSONDecodeError(t *testing.T) {
	var c JSON[material]
	if _, err := c.Decode([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
}
