package bigcache

import (
	"bytes"
	"context"
	"testing"
)

func newSmall(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{Shards: 16, MaxEntriesInWindow: 1024, MaxEntrySize: 256})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newSmall(t)

	if _, ok, err := p.Get(ctx, "mesh/cube.obj"); ok || err != nil {
		t.Fatalf("miss must be (nil,false,nil), got ok=%v err=%v", ok, err)
	}
	want := []byte("v 0 0 0")
	if ok, err := p.Set(ctx, "mesh/cube.obj", want, 0, 0); !ok || err != nil {
		t.Fatalf("Set ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "mesh/cube.obj")
	if err != nil || !ok || !bytes.Equal(got, want) {
		t.Fatalf("Get = %q ok=%v err=%v", got, ok, err)
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d", p.Len())
	}
	if err := p.Del(ctx, "mesh/cube.obj"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "mesh/cube.obj"); err != nil {
		t.Fatalf("Del of missing key must be nil, got %v", err)
	}
}
