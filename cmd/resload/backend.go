package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/resload"
	"github.com/unkn0wn-root/resload/archive/kar"
	"github.com/unkn0wn-root/resload/loader"
	"github.com/unkn0wn-root/resload/loader/cached"
	"github.com/unkn0wn-root/resload/loader/file"
	karloader "github.com/unkn0wn-root/resload/loader/kar"
	minioloader "github.com/unkn0wn-root/resload/loader/minio"
	redisloader "github.com/unkn0wn-root/resload/loader/redis"
	s3loader "github.com/unkn0wn-root/resload/loader/s3"
	"github.com/unkn0wn-root/resload/provider"
	"github.com/unkn0wn-root/resload/provider/bigcache"
	redisprovider "github.com/unkn0wn-root/resload/provider/redis"
	"github.com/unkn0wn-root/resload/provider/ristretto"
)

// Route schemes understood by fetch, e.g. "s3://tex/a.png".
const (
	schemeKar   = "kar"
	schemeS3    = "s3"
	schemeMinio = "minio"
	schemeRedis = "redis"
)

type backendFlags struct {
	archive   string
	s3Bucket  string
	s3Prefix  string
	minioAddr string
	minioTLS  bool
	bucket    string
	redisAddr string
	redisPfx  string
	cache     string
	cacheTTL  time.Duration
	rate      int
}

// backend is the assembled loader plus everything that must be released
// after the manager is closed.
type backend struct {
	loader  loader.Loader
	cache   *cached.Loader
	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// buildBackend wires the file root as the default route, mounts the optional
// remote routes on a Mux and wraps the result in the content cache and the
// throughput limiter.
func buildBackend(ctx context.Context, cfg resload.Config, f backendFlags, log resload.Logger) (*backend, error) {
	b := &backend{}
	mux := loader.NewMux(file.New(cfg.Root))

	var rdb *goredis.Client
	if f.redisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: f.redisAddr})
		b.closers = append(b.closers, rdb.Close)
		rl, err := redisloader.New(rdb, f.redisPfx)
		if err != nil {
			return nil, err
		}
		mux.Handle(schemeRedis, rl)
	}

	if f.archive != "" {
		a, err := kar.OpenFile(f.archive)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		b.closers = append(b.closers, a.Close)
		mux.Handle(schemeKar, karloader.New(a.Archive))
	}

	if f.s3Bucket != "" {
		sl, err := s3loader.NewFromConfig(ctx, f.s3Bucket, f.s3Prefix)
		if err != nil {
			b.Close()
			return nil, err
		}
		mux.Handle(schemeS3, sl)
	}

	if f.minioAddr != "" {
		ml, err := minioloader.Dial(f.minioAddr, os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"),
			f.minioTLS, f.bucket, "")
		if err != nil {
			b.Close()
			return nil, err
		}
		mux.Handle(schemeMinio, ml)
	}

	var l loader.Loader = mux
	p, err := newProvider(f.cache, cfg.CacheMB, rdb)
	if err != nil {
		b.Close()
		return nil, err
	}
	if p != nil {
		b.closers = append(b.closers, func() error { return p.Close(context.Background()) })
		c, err := cached.New(l, cached.Options{Provider: p, TTL: f.cacheTTL, Logger: log})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.cache = c
		l = c
	}

	b.loader = loader.Throttle(l, f.rate)
	return b, nil
}

func newProvider(kind string, mb int, rdb *goredis.Client) (provider.Provider, error) {
	if mb <= 0 {
		mb = 64
	}
	switch strings.ToLower(kind) {
	case "", "none":
		return nil, nil
	case "ristretto":
		return ristretto.New(ristretto.ForBudget(mb))
	case "bigcache":
		return bigcache.New(bigcache.Config{HardMaxCacheSizeMB: mb, MaxEntrySize: 16 << 10})
	case "redis":
		if rdb == nil {
			return nil, errors.New("--cache=redis requires --redis-addr")
		}
		return redisprovider.New(redisprovider.Config{Client: rdb})
	}
	return nil, fmt.Errorf("unknown cache %q (none, ristretto, bigcache, redis)", kind)
}
