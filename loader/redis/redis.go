// Package redis loads resources stored as plain Redis string values.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/resload/loader"
)

var ErrNilClient = errors.New("redis loader: nil client")

type Loader struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ loader.Loader = (*Loader)(nil)

// New returns a Loader reading the key prefix+path for each resource.
func New(rdb goredis.UniversalClient, prefix string) (*Loader, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	return &Loader{rdb: rdb, prefix: prefix}, nil
}

func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	key := l.prefix + path
	b, err := l.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("%w: redis key %q", loader.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis loader: get %q: %w", key, err)
	}
	return b, nil
}
